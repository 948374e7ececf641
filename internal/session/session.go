package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LieutenantJoseph/flashfungi/internal/events"
	"github.com/LieutenantJoseph/flashfungi/internal/grading"
	"github.com/LieutenantJoseph/flashfungi/internal/specimen"
)

// Session serializes updates to one study session's stats. Record may be
// called from several goroutines; calls are applied one at a time.
type Session struct {
	mu sync.Mutex

	id        string
	userID    string
	genus     string // non-empty for a genus-focused session
	startedAt time.Time
	now       func() time.Time

	stats    Stats
	perGenus map[string]*GenusResult
	order    []string
	ended    bool
}

// GenusResult tracks per-genus performance within a single session.
type GenusResult struct {
	Genus     string `json:"genus"`
	Attempted int    `json:"attempted"`
	Correct   int    `json:"correct"`
}

// Option configures a Session.
type Option func(*Session)

// WithGenus marks the session as focused on one genus. Ending it emits a
// GenusSessionComplete event.
func WithGenus(genus string) Option {
	return func(s *Session) { s.genus = strings.TrimSpace(genus) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New starts a session for userID.
func New(id, userID string, opts ...Option) *Session {
	s := &Session{
		id:       id,
		userID:   userID,
		now:      time.Now,
		perGenus: make(map[string]*GenusResult),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// UserID returns the learner the session belongs to.
func (s *Session) UserID() string { return s.userID }

// Genus returns the focus genus, or "" for a mixed session.
func (s *Session) Genus() string { return s.genus }

// Record applies the final result of a resolved question and returns the
// events it produced: AnswerGraded always, StreakUpdated when the current
// streak changed. Event ids are derived from the session id and question
// number so a replayed Record yields the same ids.
func (s *Session) Record(r grading.Result, rec specimen.Record) ([]events.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return nil, fmt.Errorf("session %s: %w", s.id, ErrEnded)
	}

	prev := s.stats
	s.stats = Apply(s.stats, r)
	s.trackGenus(rec.Genus, r.IsCorrect)

	at := s.now()
	n := s.stats.TotalCount
	out := []events.Envelope{{
		ID:         fmt.Sprintf("%s/answer/%d", s.id, n),
		UserID:     s.userID,
		OccurredAt: at,
		Event:      events.AnswerGraded{Result: r, Specimen: rec},
	}}
	if s.stats.CurrentStreak != prev.CurrentStreak {
		out = append(out, events.Envelope{
			ID:         fmt.Sprintf("%s/streak/%d", s.id, n),
			UserID:     s.userID,
			OccurredAt: at,
			Event:      events.StreakUpdated{Streak: s.stats.CurrentStreak},
		})
	}
	return out, nil
}

// Stats returns a copy of the running totals.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// End closes the session and returns its summary plus any closing events.
// Further calls to Record fail with ErrEnded; calling End again returns the
// same summary and no events.
func (s *Session) End() (*Summary, []events.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	first := !s.ended
	s.ended = true
	at := s.now()
	summary := s.buildSummary(at)

	if !first || s.genus == "" || s.stats.TotalCount == 0 {
		return summary, nil
	}
	return summary, []events.Envelope{{
		ID:         fmt.Sprintf("%s/genus-complete", s.id),
		UserID:     s.userID,
		OccurredAt: at,
		Event: events.GenusSessionComplete{
			Genus:    s.genus,
			Accuracy: s.stats.Accuracy(),
		},
	}}
}

func (s *Session) trackGenus(genus string, correct bool) {
	genus = strings.TrimSpace(genus)
	if genus == "" {
		return
	}
	key := strings.ToLower(genus)
	gr, ok := s.perGenus[key]
	if !ok {
		gr = &GenusResult{Genus: genus}
		s.perGenus[key] = gr
		s.order = append(s.order, key)
	}
	gr.Attempted++
	if correct {
		gr.Correct++
	}
}
