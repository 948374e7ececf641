package achievements

import (
	"fmt"
	"strings"

	"github.com/LieutenantJoseph/flashfungi/internal/events"
)

// Evaluate decides which catalog entries an event advances for one user.
// It skips achievements the user has already earned and returns one
// Decision per remaining applicable entry, in catalog order.
//
// Evaluate is pure. It does not assume it is the only writer: decisions are
// applied through an atomic conditional upsert that turns a stale
// "not earned" view into a no-op.
func Evaluate(ev events.Event, defs []Definition, progress ProgressSet) ([]Decision, error) {
	var match func(Definition) (Decision, bool)

	switch e := ev.(type) {
	case events.AnswerGraded:
		match = func(d Definition) (Decision, bool) { return matchAnswer(d, e) }
	case events.StreakUpdated:
		match = func(d Definition) (Decision, bool) { return matchStreak(d, e) }
	case events.GenusSessionComplete:
		match = func(d Definition) (Decision, bool) { return matchGenus(d, e) }
	case events.ModuleCompleted:
		match = func(d Definition) (Decision, bool) { return matchModule(d, e) }
	case events.Timestamped:
		match = func(d Definition) (Decision, bool) { return matchTime(d, e) }
	default:
		return nil, fmt.Errorf("%w: %T", events.ErrUnknownEvent, ev)
	}

	var out []Decision
	for _, d := range defs {
		if progress.Earned(d.ID) {
			continue
		}
		dec, ok := match(d)
		if !ok {
			continue
		}
		dec.Definition = d
		dec.Qualifies = progress[d.ID].Progress+dec.Delta >= dec.Target
		out = append(out, dec)
	}
	return out, nil
}

func oneShot(reason string) Decision {
	return Decision{Delta: 1, Target: 1, Reason: reason}
}

func matchAnswer(d Definition, e events.AnswerGraded) (Decision, bool) {
	if !e.Result.IsCorrect {
		return Decision{}, false
	}
	switch d.Type {
	case FirstCorrect:
		return oneShot("first correct identification"), true
	case DnaSpecialist:
		if !e.Specimen.DNASequenced {
			return Decision{}, false
		}
		target, err := d.Threshold()
		if err != nil {
			return Decision{}, false
		}
		return Decision{
			Delta:  1,
			Target: target,
			Reason: fmt.Sprintf("%d correct DNA-sequenced identifications", target),
		}, true
	}
	return Decision{}, false
}

func matchStreak(d Definition, e events.StreakUpdated) (Decision, bool) {
	if d.Type != Streak {
		return Decision{}, false
	}
	target, err := d.Threshold()
	if err != nil || e.Streak < target {
		return Decision{}, false
	}
	return oneShot(fmt.Sprintf("%d correct in a row", e.Streak)), true
}

func matchGenus(d Definition, e events.GenusSessionComplete) (Decision, bool) {
	if d.Type != GenusAccuracy {
		return Decision{}, false
	}
	if !strings.EqualFold(strings.TrimSpace(e.Genus), strings.TrimSpace(d.Value)) {
		return Decision{}, false
	}
	if e.Accuracy < GenusAccuracyThreshold {
		return Decision{}, false
	}
	return oneShot(fmt.Sprintf("%s session at %d%% accuracy", d.Value, e.Accuracy)), true
}

func matchModule(d Definition, e events.ModuleCompleted) (Decision, bool) {
	if d.Type != ModuleComplete || strings.TrimSpace(e.ModuleID) != strings.TrimSpace(d.Value) {
		return Decision{}, false
	}
	return oneShot(fmt.Sprintf("completed module %s", e.ModuleID)), true
}

func matchTime(d Definition, e events.Timestamped) (Decision, bool) {
	if d.Type != TimeBased {
		return Decision{}, false
	}
	switch strings.TrimSpace(d.Value) {
	case TagNightOwl:
		if e.Hour >= 22 {
			return oneShot(fmt.Sprintf("studied at %02d:00", e.Hour)), true
		}
	case TagEarlyBird:
		if e.Hour < 6 {
			return oneShot(fmt.Sprintf("studied at %02d:00", e.Hour)), true
		}
	}
	return Decision{}, false
}
