// Package achievements evaluates study events against a catalog of
// achievement rules and awards each achievement to a user at most once.
package achievements

import (
	"fmt"
	"strconv"
	"strings"
)

// RequirementType selects how an achievement qualifies.
type RequirementType string

const (
	FirstCorrect   RequirementType = "first_correct"
	Streak         RequirementType = "streak"
	GenusAccuracy  RequirementType = "genus_accuracy"
	ModuleComplete RequirementType = "module_complete"
	DnaSpecialist  RequirementType = "dna_specialist"
	TimeBased      RequirementType = "time_based"
)

// AllRequirementTypes returns every requirement type.
func AllRequirementTypes() []RequirementType {
	return []RequirementType{FirstCorrect, Streak, GenusAccuracy, ModuleComplete, DnaSpecialist, TimeBased}
}

// DisplayName returns a human-readable label for the requirement type.
func (t RequirementType) DisplayName() string {
	switch t {
	case FirstCorrect:
		return "First Correct"
	case Streak:
		return "Streak"
	case GenusAccuracy:
		return "Genus Accuracy"
	case ModuleComplete:
		return "Module Complete"
	case DnaSpecialist:
		return "DNA Specialist"
	case TimeBased:
		return "Time Based"
	default:
		return string(t)
	}
}

// Numeric reports whether the requirement value is a threshold.
func (t RequirementType) Numeric() bool {
	return t == Streak || t == DnaSpecialist
}

// Accumulates reports whether progress builds up across events.
func (t RequirementType) Accumulates() bool {
	return t == DnaSpecialist
}

// Time-window tags for TimeBased achievements.
const (
	TagNightOwl  = "night_owl"  // hour >= 22
	TagEarlyBird = "early_bird" // hour < 6
)

// GenusAccuracyThreshold is the minimum session accuracy percentage for a
// GenusAccuracy achievement.
const GenusAccuracyThreshold = 90

// Definition is a catalog entry.
//
// Value is interpreted by Type: a threshold for Streak and DnaSpecialist,
// a genus name for GenusAccuracy, a module id for ModuleComplete, and a
// time tag for TimeBased. FirstCorrect ignores it.
type Definition struct {
	ID          string          `yaml:"id" json:"id"`
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string          `yaml:"category" json:"category"`
	Type        RequirementType `yaml:"requirement_type" json:"requirement_type"`
	Value       string          `yaml:"requirement_value,omitempty" json:"requirement_value,omitempty"`
	Points      int             `yaml:"points" json:"points"`
	Rarity      Rarity          `yaml:"rarity" json:"rarity"`
}

// Threshold parses Value as a positive integer.
func (d Definition) Threshold() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(d.Value))
	if err != nil {
		return 0, fmt.Errorf("achievement %s: requirement value %q is not a number", d.ID, d.Value)
	}
	if n <= 0 {
		return 0, fmt.Errorf("achievement %s: requirement value %d must be positive", d.ID, n)
	}
	return n, nil
}

// Progress is a user's standing on one achievement.
type Progress struct {
	Progress int
	Earned   bool
}

// ProgressSet maps achievement id to the user's progress. Missing entries
// mean no progress.
type ProgressSet map[string]Progress

// Earned reports whether the achievement id is already earned.
func (p ProgressSet) Earned(id string) bool {
	return p[id].Earned
}

// Decision is the evaluator's verdict for one achievement: add Delta to the
// user's progress and award once progress reaches Target.
type Decision struct {
	Definition Definition
	Delta      int
	Target     int
	Reason     string

	// Qualifies is true when current progress plus Delta reaches Target.
	Qualifies bool
}

// Award is an achievement newly earned by a user.
type Award struct {
	UserID     string
	Definition Definition
	EventID    string
	Reason     string
	Progress   int
}
