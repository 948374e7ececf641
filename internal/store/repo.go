package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	UserID string    // empty = all users
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	From   time.Time // recorded_at >= From
}

// AwardOutcome describes what an ApplyProgress call did.
type AwardOutcome string

const (
	// OutcomeCreated means a new progress row was inserted.
	OutcomeCreated AwardOutcome = "created"
	// OutcomeUpdated means an existing, not yet earned row was updated.
	OutcomeUpdated AwardOutcome = "updated"
	// OutcomeAlreadyEarned means the row was already earned; nothing changed.
	OutcomeAlreadyEarned AwardOutcome = "already_earned"
	// OutcomeDuplicate means the event was applied before; nothing changed.
	OutcomeDuplicate AwardOutcome = "duplicate"
)

// Changed reports whether the outcome wrote progress.
func (o AwardOutcome) Changed() bool {
	return o == OutcomeCreated || o == OutcomeUpdated
}

// ProgressRecord is a user's progress toward one achievement.
type ProgressRecord struct {
	UserID        string
	AchievementID string
	Progress      int
	EarnedAt      *time.Time
	UpdatedAt     time.Time
}

// Earned reports whether the achievement has been awarded.
func (p ProgressRecord) Earned() bool {
	return p.EarnedAt != nil
}

// ProgressUpdate adds Delta to a user's progress and marks the achievement
// earned once progress reaches Target. EventID identifies the triggering
// event; an update with an EventID already applied for the same user and
// achievement is a no-op.
type ProgressUpdate struct {
	UserID        string
	AchievementID string
	EventID       string
	Delta         int
	Target        int
	At            time.Time
}

// ApplyResult is the outcome of ApplyProgress.
type ApplyResult struct {
	Outcome     AwardOutcome
	Progress    ProgressRecord
	NewlyEarned bool // earned by this call
}

// ProgressRepo stores per-user achievement progress.
//
// ApplyProgress must be atomic: concurrent calls for the same user and
// achievement never earn it twice nor apply the same event twice.
type ProgressRepo interface {
	// GetProgress returns the progress row, or nil if none exists.
	GetProgress(ctx context.Context, userID, achievementID string) (*ProgressRecord, error)

	// ListProgress returns every progress row for a user.
	ListProgress(ctx context.Context, userID string) ([]ProgressRecord, error)

	// ApplyProgress performs the insert-or-update-if-not-earned.
	ApplyProgress(ctx context.Context, u ProgressUpdate) (ApplyResult, error)

	// ResetUser deletes all progress and dedup rows for a user.
	ResetUser(ctx context.Context, userID string) error

	// PruneEventLog deletes dedup rows applied before the cutoff whose
	// achievement is already earned, and returns how many were removed.
	PruneEventLog(ctx context.Context, before time.Time) (int64, error)
}

// SessionSummaryData is the persisted summary of an ended session.
type SessionSummaryData struct {
	SessionID       string
	UserID          string
	Genus           string
	TotalCount      int
	CorrectCount    int
	CumulativeScore int
	LongestStreak   int
	DurationSecs    int
}

// SessionSummaryRecord is a stored session summary.
type SessionSummaryRecord struct {
	SessionSummaryData
	Sequence   int64
	RecordedAt time.Time
}

// AwardEventData records an achievement award.
type AwardEventData struct {
	UserID        string
	AchievementID string
	Category      string
	Rarity        string
	Points        int
	EventID       string // triggering event
	Reason        string
}

// AwardEventRecord is a stored award event.
type AwardEventRecord struct {
	AwardEventData
	Sequence   int64
	RecordedAt time.Time
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendSessionSummary records an ended session.
	AppendSessionSummary(ctx context.Context, data SessionSummaryData) error

	// QuerySessionSummaries returns session summaries, newest first.
	QuerySessionSummaries(ctx context.Context, opts QueryOpts) ([]SessionSummaryRecord, error)

	// AppendAwardEvent records an achievement award.
	AppendAwardEvent(ctx context.Context, data AwardEventData) error

	// QueryAwardEvents returns award events, newest first.
	QueryAwardEvents(ctx context.Context, opts QueryOpts) ([]AwardEventRecord, error)

	// AwardCounts returns award counts by category and the total.
	AwardCounts(ctx context.Context, userID string) (map[string]int, int, error)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
