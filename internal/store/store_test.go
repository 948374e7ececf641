package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/LieutenantJoseph/flashfungi/internal/specimen"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range []string{tableProgress, tableEventLog, tableSpecimens, tableSessionEvents, tableAwardEvents} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table, err)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.ProgressRepo().ApplyProgress(ctx, ProgressUpdate{
		UserID: "u1", AchievementID: "first_correct", EventID: "e1", Delta: 1, Target: 1,
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	rec, err := s.ProgressRepo().GetProgress(ctx, "u1", "first_correct")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Earned())
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestApplyProgressOutcomes(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	apply := func(eventID string) ApplyResult {
		t.Helper()
		res, err := repo.ApplyProgress(ctx, ProgressUpdate{
			UserID: "u1", AchievementID: "dna_specialist", EventID: eventID,
			Delta: 1, Target: 3, At: at,
		})
		require.NoError(t, err)
		return res
	}

	res := apply("e1")
	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.Equal(t, 1, res.Progress.Progress)
	assert.False(t, res.NewlyEarned)

	res = apply("e1")
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.Equal(t, 1, res.Progress.Progress)

	res = apply("e2")
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.Equal(t, 2, res.Progress.Progress)
	assert.False(t, res.NewlyEarned)

	res = apply("e3")
	assert.Equal(t, OutcomeUpdated, res.Outcome)
	assert.Equal(t, 3, res.Progress.Progress)
	assert.True(t, res.NewlyEarned)
	require.NotNil(t, res.Progress.EarnedAt)
	assert.True(t, res.Progress.EarnedAt.Equal(at))

	res = apply("e4")
	assert.Equal(t, OutcomeAlreadyEarned, res.Outcome)
	assert.Equal(t, 3, res.Progress.Progress)
	assert.False(t, res.NewlyEarned)
	assert.False(t, res.Outcome.Changed())
}

func TestApplyProgressOneShot(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	res, err := repo.ApplyProgress(ctx, ProgressUpdate{
		UserID: "u1", AchievementID: "first_correct", EventID: "e1", Delta: 1, Target: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.True(t, res.NewlyEarned)

	// Zero target is treated as one.
	res, err = repo.ApplyProgress(ctx, ProgressUpdate{
		UserID: "u1", AchievementID: "streak_3", EventID: "e2", Delta: 1,
	})
	require.NoError(t, err)
	assert.True(t, res.NewlyEarned)

	list, err := repo.ListProgress(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first_correct", list[0].AchievementID)
	assert.Equal(t, "streak_3", list[1].AchievementID)
}

func TestApplyProgressConcurrent(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	const workers = 16
	results := make([]ApplyResult, workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			res, err := repo.ApplyProgress(ctx, ProgressUpdate{
				UserID: "u1", AchievementID: "first_correct",
				EventID: fmt.Sprintf("e%d", i), Delta: 1, Target: 1,
			})
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())

	earned := 0
	for _, r := range results {
		if r.NewlyEarned {
			earned++
		}
	}
	assert.Equal(t, 1, earned, "achievement must be earned exactly once")
}

func TestGetProgressMissing(t *testing.T) {
	s := openTestStore(t)
	rec, err := s.ProgressRepo().GetProgress(context.Background(), "nobody", "x")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestResetUser(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	for _, user := range []string{"u1", "u2"} {
		_, err := repo.ApplyProgress(ctx, ProgressUpdate{
			UserID: user, AchievementID: "first_correct", EventID: "e1", Delta: 1, Target: 1,
		})
		require.NoError(t, err)
	}

	require.NoError(t, repo.ResetUser(ctx, "u1"))

	list, err := repo.ListProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repo.ListProgress(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// The dedup row is gone too, so the same event id applies again.
	res, err := repo.ApplyProgress(ctx, ProgressUpdate{
		UserID: "u1", AchievementID: "first_correct", EventID: "e1", Delta: 1, Target: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
}

func TestPruneEventLog(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()
	occurred := time.Now().Add(-40 * 24 * time.Hour)

	// One accumulating achievement still in progress, one earned.
	for i := 0; i < 2; i++ {
		_, err := repo.ApplyProgress(ctx, ProgressUpdate{
			UserID: "u1", AchievementID: "dna_specialist",
			EventID: fmt.Sprintf("e%d", i), Delta: 1, Target: 10, At: occurred,
		})
		require.NoError(t, err)
	}
	_, err := repo.ApplyProgress(ctx, ProgressUpdate{
		UserID: "u1", AchievementID: "first_correct",
		EventID: "e0", Delta: 1, Target: 1, At: occurred,
	})
	require.NoError(t, err)

	// applied_at is the processing time, so an old event is not yet prunable.
	n, err := repo.PruneEventLog(ctx, time.Now().Add(-720*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.PruneEventLog(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only the earned achievement's row goes")

	rec, err := repo.GetProgress(ctx, "u1", "dna_specialist")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Progress)
}

func TestReplayAfterPrune(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	tests := []struct {
		name    string
		target  int
		outcome AwardOutcome
	}{
		{"accumulating", 5, OutcomeDuplicate},
		{"earned", 1, OutcomeAlreadyEarned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := ProgressUpdate{
				UserID: "u-" + tt.name, AchievementID: "dna_specialist",
				EventID: "sess/answer/1", Delta: 1, Target: tt.target,
				At: time.Now().Add(-40 * 24 * time.Hour),
			}
			first, err := repo.ApplyProgress(ctx, u)
			require.NoError(t, err)
			require.Equal(t, OutcomeCreated, first.Outcome)

			_, err = repo.PruneEventLog(ctx, time.Now().Add(time.Hour))
			require.NoError(t, err)

			replay, err := repo.ApplyProgress(ctx, u)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, replay.Outcome)
			assert.Equal(t, 1, replay.Progress.Progress)
		})
	}
}

func TestSessionSummaries(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		user := "u1"
		if i == 2 {
			user = "u2"
		}
		err := repo.AppendSessionSummary(ctx, SessionSummaryData{
			SessionID:  fmt.Sprintf("s%d", i),
			UserID:     user,
			Genus:      "Amanita",
			TotalCount: i, CorrectCount: i, CumulativeScore: 100 * i,
			LongestStreak: i, DurationSecs: 60,
		})
		require.NoError(t, err)
	}

	all, err := repo.QuerySessionSummaries(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "s3", all[0].SessionID, "newest first")
	assert.Greater(t, all[0].Sequence, all[1].Sequence)

	mine, err := repo.QuerySessionSummaries(ctx, QueryOpts{UserID: "u1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "s3", mine[0].SessionID)
	assert.Equal(t, 300, mine[0].CumulativeScore)
}

func TestAwardEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	awards := []AwardEventData{
		{UserID: "u1", AchievementID: "first_correct", Category: "learning", Rarity: "common", Points: 10, EventID: "e1", Reason: "first correct answer"},
		{UserID: "u1", AchievementID: "streak_3", Category: "streak", Rarity: "common", Points: 15, EventID: "e2", Reason: "3 in a row"},
		{UserID: "u2", AchievementID: "first_correct", Category: "learning", Rarity: "common", Points: 10, EventID: "e3", Reason: "first correct answer"},
	}
	for _, a := range awards {
		require.NoError(t, repo.AppendAwardEvent(ctx, a))
	}

	events, err := repo.QueryAwardEvents(ctx, QueryOpts{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "streak_3", events[0].AchievementID)

	after, err := repo.QueryAwardEvents(ctx, QueryOpts{After: events[0].Sequence})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "u2", after[0].UserID)

	byCategory, total, err := repo.AwardCounts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, map[string]int{"learning": 1, "streak": 1}, byCategory)
}

func TestSpecimenRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.SpecimenRepo()
	ctx := context.Background()

	q := 0.9
	rec := specimen.Record{
		ID: "sp-1", SpeciesName: "Amanita muscaria", Genus: "Amanita",
		Family: "Amanitaceae", CommonName: "Fly Agaric", DNASequenced: true, QualityScore: &q,
	}
	require.NoError(t, repo.SaveSpecimen(ctx, rec))
	require.NoError(t, repo.SaveSpecimen(ctx, specimen.Record{
		ID: "sp-2", SpeciesName: "Boletus edulis", Genus: "Boletus", Family: "Boletaceae",
	}))

	got, err := repo.GetSpecimen(ctx, "sp-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	// Saving again replaces.
	rec.CommonName = "Fly Amanita"
	require.NoError(t, repo.SaveSpecimen(ctx, rec))
	got, err = repo.GetSpecimen(ctx, "sp-1")
	require.NoError(t, err)
	assert.Equal(t, "Fly Amanita", got.CommonName)

	_, err = repo.GetSpecimen(ctx, "missing")
	assert.True(t, errors.Is(err, specimen.ErrNotFound))

	list, err := repo.ListSpecimens(ctx, "amanita")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "sp-1", list[0].ID)

	n, err := repo.CountSpecimens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	err = repo.SaveSpecimen(ctx, specimen.Record{ID: "bad"})
	assert.Error(t, err)
}
