// Package hints drives the per-question hint reveal state machine.
package hints

import (
	"errors"
	"fmt"
)

// MaxHints is the total number of hints (automatic plus requested) a
// question can reveal.
const MaxHints = 4

var (
	// ErrResolved is returned when an action is attempted on a question that
	// has already been resolved.
	ErrResolved = errors.New("question already resolved")

	// ErrNoHintsLeft is returned when a hint is requested after all hints
	// have been revealed.
	ErrNoHintsLeft = errors.New("no hints left")

	// ErrInvariant reports hint counters that break auto+manual <= MaxHints.
	ErrInvariant = errors.New("hint state invariant violated")
)

// State counts the hints revealed for the question in progress.
type State struct {
	AutoLevel   int `json:"auto_hint_level"`   // revealed after wrong attempts
	ManualLevel int `json:"manual_hint_level"` // revealed on request
}

// Used returns the number of hints revealed so far.
func (s State) Used() int {
	return s.AutoLevel + s.ManualLevel
}

// Exhausted reports whether every hint has been revealed.
func (s State) Exhausted() bool {
	return s.Used() >= MaxHints
}

// Check validates the counters.
func (s State) Check() error {
	if s.AutoLevel < 0 || s.ManualLevel < 0 || s.Used() > MaxHints {
		return fmt.Errorf("%w: auto=%d manual=%d", ErrInvariant, s.AutoLevel, s.ManualLevel)
	}
	return nil
}

// Phase is the lifecycle position of a question.
type Phase string

const (
	PhaseAnswering Phase = "answering"
	PhaseResolved  Phase = "resolved"
)

// Action tells the caller what to do after a submission.
type Action string

const (
	// ActionReprompt clears the input and asks again with one more hint shown.
	ActionReprompt Action = "reprompt"
	// ActionAdvance resolves the question correctly; move to the next one.
	ActionAdvance Action = "advance"
	// ActionShowGuide resolves the question incorrectly and reveals the full
	// species guide.
	ActionShowGuide Action = "show_guide"
)
