package session

import (
	"errors"
	"time"
)

// ErrEnded is returned when recording into a session that has ended.
var ErrEnded = errors.New("session ended")

// Summary is the read-only snapshot handed to the caller when a session ends.
type Summary struct {
	SessionID    string        `json:"session_id"`
	UserID       string        `json:"user_id"`
	Genus        string        `json:"genus,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Stats        Stats         `json:"stats"`
	AverageScore int           `json:"average_score"`
	Accuracy     int           `json:"accuracy"`
	GenusResults []GenusResult `json:"genus_results"`
}

func (s *Session) buildSummary(at time.Time) *Summary {
	results := make([]GenusResult, 0, len(s.order))
	for _, key := range s.order {
		results = append(results, *s.perGenus[key])
	}

	return &Summary{
		SessionID:    s.id,
		UserID:       s.userID,
		Genus:        s.genus,
		StartedAt:    s.startedAt,
		Duration:     at.Sub(s.startedAt),
		Stats:        s.stats,
		AverageScore: s.stats.AverageScore(),
		Accuracy:     s.stats.Accuracy(),
		GenusResults: results,
	}
}
