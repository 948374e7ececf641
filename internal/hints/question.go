package hints

import (
	"fmt"

	"github.com/LieutenantJoseph/flashfungi/internal/grading"
	"github.com/LieutenantJoseph/flashfungi/internal/specimen"
)

// Transition records the outcome of a submission or give-up.
type Transition struct {
	Action        Action
	Result        grading.Result
	HintsRevealed int
	ClearInput    bool
	ShowGuide     bool
}

// Resolved reports whether the transition ended the question.
func (t Transition) Resolved() bool {
	return t.Action != ActionReprompt
}

// Question holds the state of one question in progress. It is owned by a
// single caller and is not safe for concurrent use.
type Question struct {
	specimen specimen.Record
	state    State
	phase    Phase
	attempts int

	result    *grading.Result
	showGuide bool
}

// NewQuestion starts a question for rec in the answering phase with no hints
// revealed.
func NewQuestion(rec specimen.Record) *Question {
	return &Question{
		specimen: rec,
		phase:    PhaseAnswering,
	}
}

// Specimen returns the specimen under test.
func (q *Question) Specimen() specimen.Record { return q.specimen }

// State returns a copy of the hint counters.
func (q *Question) State() State { return q.state }

// Phase returns the current phase.
func (q *Question) Phase() Phase { return q.phase }

// Attempts returns the number of graded submissions.
func (q *Question) Attempts() int { return q.attempts }

// HintsRevealed returns the number of hints currently shown.
func (q *Question) HintsRevealed() int { return q.state.Used() }

// ShowGuide reports whether the species guide must be displayed.
func (q *Question) ShowGuide() bool { return q.showGuide }

// Result returns the final grading result, or nil while answering.
func (q *Question) Result() *grading.Result {
	if q.result == nil {
		return nil
	}
	r := *q.result
	return &r
}

// Submit grades answer using the hints revealed before this attempt.
// A correct answer resolves the question. A wrong answer reveals one more
// automatic hint and re-prompts, or resolves with the guide once every hint
// is shown.
func (q *Question) Submit(answer string) (Transition, error) {
	if err := q.ready(); err != nil {
		return Transition{}, err
	}

	result := grading.Grade(answer, q.specimen, q.state.Used())
	q.attempts++

	switch {
	case result.IsCorrect:
		q.resolve(result, false)
		return Transition{
			Action:        ActionAdvance,
			Result:        result,
			HintsRevealed: q.state.Used(),
		}, nil

	case !q.state.Exhausted():
		q.state.AutoLevel++
		return Transition{
			Action:        ActionReprompt,
			Result:        result,
			HintsRevealed: q.state.Used(),
			ClearInput:    true,
		}, nil

	default:
		q.resolve(result, true)
		return Transition{
			Action:        ActionShowGuide,
			Result:        result,
			HintsRevealed: q.state.Used(),
			ShowGuide:     true,
		}, nil
	}
}

// RequestHint reveals one more hint without grading. It returns the number
// of hints now shown.
func (q *Question) RequestHint() (int, error) {
	if err := q.ready(); err != nil {
		return q.state.Used(), err
	}
	if q.state.Exhausted() {
		return q.state.Used(), ErrNoHintsLeft
	}
	q.state.ManualLevel++
	return q.state.Used(), nil
}

// GiveUp resolves the question as incorrect with a zero score and reveals
// the guide.
func (q *Question) GiveUp() (Transition, error) {
	if err := q.ready(); err != nil {
		return Transition{}, err
	}

	result := grading.GiveUp(q.state.Used())
	q.resolve(result, true)
	return Transition{
		Action:        ActionShowGuide,
		Result:        result,
		HintsRevealed: q.state.Used(),
		ShowGuide:     true,
	}, nil
}

func (q *Question) ready() error {
	if q.phase == PhaseResolved {
		return ErrResolved
	}
	if err := q.state.Check(); err != nil {
		return fmt.Errorf("question %s: %w", q.specimen.ID, err)
	}
	return nil
}

func (q *Question) resolve(r grading.Result, guide bool) {
	q.phase = PhaseResolved
	q.result = &r
	q.showGuide = guide
}
