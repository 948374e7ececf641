// Package events defines the domain events consumed by the achievement
// evaluator. Event is a closed set: only the variants in this package
// implement it.
package events

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LieutenantJoseph/flashfungi/internal/grading"
	"github.com/LieutenantJoseph/flashfungi/internal/specimen"
)

var (
	// ErrUnknownEvent is returned for an Event variant the caller does not handle.
	ErrUnknownEvent = errors.New("unknown event kind")

	// ErrInvalidEvent is returned by Validate.
	ErrInvalidEvent = errors.New("invalid event")
)

// Event is one domain event variant.
type Event interface {
	isEvent()
}

// AnswerGraded is emitted for every graded submission.
type AnswerGraded struct {
	Result   grading.Result  `json:"result"`
	Specimen specimen.Record `json:"specimen"`
}

// StreakUpdated is emitted whenever a session's current streak changes.
type StreakUpdated struct {
	Streak int `json:"streak"`
}

// GenusSessionComplete is emitted when a genus-focused session ends.
// Accuracy is a percentage in 0..100.
type GenusSessionComplete struct {
	Genus    string `json:"genus"`
	Accuracy int    `json:"accuracy"`
}

// ModuleCompleted is emitted when a training module is finished.
type ModuleCompleted struct {
	ModuleID string `json:"module_id"`
}

// Timestamped carries the local hour (0..23) of study activity.
type Timestamped struct {
	Hour int `json:"hour"`
}

func (AnswerGraded) isEvent()         {}
func (StreakUpdated) isEvent()        {}
func (GenusSessionComplete) isEvent() {}
func (ModuleCompleted) isEvent()      {}
func (Timestamped) isEvent()          {}

// Kind names an event variant.
type Kind string

const (
	KindAnswerGraded         Kind = "answer_graded"
	KindStreakUpdated        Kind = "streak_updated"
	KindGenusSessionComplete Kind = "genus_session_complete"
	KindModuleCompleted      Kind = "module_completed"
	KindTimestamped          Kind = "timestamped"
)

// KindOf returns the kind of e.
func KindOf(e Event) (Kind, error) {
	switch e.(type) {
	case AnswerGraded:
		return KindAnswerGraded, nil
	case StreakUpdated:
		return KindStreakUpdated, nil
	case GenusSessionComplete:
		return KindGenusSessionComplete, nil
	case ModuleCompleted:
		return KindModuleCompleted, nil
	case Timestamped:
		return KindTimestamped, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownEvent, e)
	}
}

// Envelope carries an event with its delivery identity. ID must stay the
// same when an event is redelivered; it is the key that makes progress
// increments idempotent.
type Envelope struct {
	ID         string
	UserID     string
	OccurredAt time.Time
	Event      Event
}

// Validate checks the envelope and the event payload.
func (e Envelope) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: missing event id", ErrInvalidEvent)
	}
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidEvent)
	}
	if e.Event == nil {
		return fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}

	switch ev := e.Event.(type) {
	case AnswerGraded:
		return nil
	case StreakUpdated:
		if ev.Streak < 0 {
			return fmt.Errorf("%w: negative streak %d", ErrInvalidEvent, ev.Streak)
		}
	case GenusSessionComplete:
		if strings.TrimSpace(ev.Genus) == "" {
			return fmt.Errorf("%w: missing genus", ErrInvalidEvent)
		}
		if ev.Accuracy < 0 || ev.Accuracy > 100 {
			return fmt.Errorf("%w: accuracy %d outside 0..100", ErrInvalidEvent, ev.Accuracy)
		}
	case ModuleCompleted:
		if strings.TrimSpace(ev.ModuleID) == "" {
			return fmt.Errorf("%w: missing module id", ErrInvalidEvent)
		}
	case Timestamped:
		if ev.Hour < 0 || ev.Hour > 23 {
			return fmt.Errorf("%w: hour %d outside 0..23", ErrInvalidEvent, ev.Hour)
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, e.Event)
	}
	return nil
}

// At returns a Timestamped event for the local hour of t.
func At(t time.Time) Timestamped {
	return Timestamped{Hour: t.Hour()}
}
