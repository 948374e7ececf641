package cmd

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LieutenantJoseph/flashfungi/internal/achievements"
	"github.com/LieutenantJoseph/flashfungi/internal/session"
	"github.com/LieutenantJoseph/flashfungi/internal/specimen"
	"github.com/LieutenantJoseph/flashfungi/internal/store"
)

func newTestQuiz(t *testing.T, input string, opts ...session.Option) (*quiz, *bytes.Buffer, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "play.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	catalog, err := achievements.DefaultCatalog()
	require.NoError(t, err)
	svc := achievements.NewService(catalog, st.ProgressRepo(), achievements.WithEventRepo(st.EventRepo()))

	out := &bytes.Buffer{}
	noon := func() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) }
	opts = append(opts, session.WithClock(noon))
	return &quiz{
		service: svc,
		events:  st.EventRepo(),
		session: session.New("sess-1", "u1", opts...),
		in:      bufio.NewScanner(strings.NewReader(input)),
		out:     out,
		now:     noon,
	}, out, st
}

func flyAgaric() specimen.Record {
	return specimen.Record{
		ID: "sp-1", SpeciesName: "Amanita muscaria", Genus: "Amanita",
		Family: "Amanitaceae", CommonName: "Fly Agaric", DNASequenced: true,
	}
}

func TestQuiz_CorrectAnswerEarnsFirstFind(t *testing.T) {
	q, out, st := newTestQuiz(t, "amanita muscaria\n")
	require.NoError(t, q.run(context.Background(), []specimen.Record{flyAgaric()}))

	text := out.String()
	assert.Contains(t, text, "Perfect identification.")
	assert.Contains(t, text, "First Find")
	assert.Contains(t, text, "1/1 correct (100%)")

	summaries, err := st.EventRepo().QuerySessionSummaries(context.Background(), store.QueryOpts{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 100, summaries[0].CumulativeScore)
}

func TestQuiz_HintsAndGiveUp(t *testing.T) {
	q, out, _ := newTestQuiz(t, "?\nboletus\n!\n")
	require.NoError(t, q.run(context.Background(), []specimen.Record{flyAgaric()}))

	text := out.String()
	assert.Contains(t, text, "Hint 1: Family: Amanitaceae")
	assert.Contains(t, text, `Hint 2: Genus starts with "A"`)
	assert.Contains(t, text, "Answer: Amanita muscaria")
	assert.Contains(t, text, "0/1 correct (0%)")
	assert.NotContains(t, text, "First Find")
}

func TestQuiz_EndOfInputEndsSession(t *testing.T) {
	q, out, _ := newTestQuiz(t, "")
	require.NoError(t, q.run(context.Background(), []specimen.Record{flyAgaric(), flyAgaric()}))
	assert.Contains(t, out.String(), "0/0 correct (0%)")
}

func TestQuiz_GenusSessionAward(t *testing.T) {
	input := strings.Repeat("amanita muscaria\n", 3)
	q, out, _ := newTestQuiz(t, input, session.WithGenus("Amanita"))
	recs := []specimen.Record{flyAgaric(), flyAgaric(), flyAgaric()}
	require.NoError(t, q.run(context.Background(), recs))
	assert.Contains(t, out.String(), "Amanita Expert")
}

func TestHintText(t *testing.T) {
	rec := flyAgaric()
	tests := []struct {
		n    int
		want string
	}{
		{1, "Family: Amanitaceae"},
		{2, `Genus starts with "A"`},
		{3, "Genus: Amanita"},
		{4, "Common name: Fly Agaric"},
		{5, "No further hints."},
	}
	for _, tt := range tests {
		if got := hintText(rec, tt.n); got != tt.want {
			t.Errorf("hintText(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}

	rec.CommonName = ""
	if got := hintText(rec, 4); got != `Epithet starts with "m"` {
		t.Errorf("hintText(4) without common name = %q", got)
	}
}

func TestReadEnvelopes(t *testing.T) {
	input := `{"id":"e1","user_id":"u1","occurred_at":"2026-04-01T12:00:00Z","kind":"streak_updated","data":{"streak":3}}

{"id":"e2","user_id":"u1","occurred_at":"2026-04-01T12:00:00Z","kind":"module_completed","data":{"module_id":"foundations"}}
`
	envs, err := readEnvelopes(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.Equal(t, "e2", envs[1].ID)

	_, err = readEnvelopes(strings.NewReader(`{"id":"","user_id":"u1","kind":"timestamped","data":{"hour":1}}`))
	assert.Error(t, err)
}
