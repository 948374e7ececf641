package grading

// MatchTier is one rung of the partial-credit ladder.
type MatchTier string

const (
	TierExactSpecies     MatchTier = "exact_species"
	TierFuzzySpecies     MatchTier = "fuzzy_species"
	TierCommonName       MatchTier = "common_name"
	TierGenusPlusEpithet MatchTier = "genus_plus_epithet"
	TierGenusOnly        MatchTier = "genus_only"
	TierFamilyOnly       MatchTier = "family_only"
	TierNoMatch          MatchTier = "no_match"
)

// AllTiers returns every tier in grading priority order.
func AllTiers() []MatchTier {
	return []MatchTier{
		TierExactSpecies,
		TierFuzzySpecies,
		TierCommonName,
		TierGenusPlusEpithet,
		TierGenusOnly,
		TierFamilyOnly,
		TierNoMatch,
	}
}

// BaseScore returns the score awarded for the tier before hint penalties.
func (t MatchTier) BaseScore() int {
	switch t {
	case TierExactSpecies:
		return 100
	case TierFuzzySpecies:
		return 95
	case TierCommonName:
		return 90
	case TierGenusPlusEpithet:
		return 60
	case TierGenusOnly:
		return 50
	case TierFamilyOnly:
		return 30
	default:
		return 0
	}
}

// Correct reports whether the tier counts as a correct identification.
func (t MatchTier) Correct() bool {
	switch t {
	case TierExactSpecies, TierFuzzySpecies, TierCommonName:
		return true
	default:
		return false
	}
}

// DisplayName returns a human-readable label for the tier.
func (t MatchTier) DisplayName() string {
	switch t {
	case TierExactSpecies:
		return "Exact species"
	case TierFuzzySpecies:
		return "Species (minor typo)"
	case TierCommonName:
		return "Common name"
	case TierGenusPlusEpithet:
		return "Genus with wrong epithet"
	case TierGenusOnly:
		return "Genus only"
	case TierFamilyOnly:
		return "Family only"
	case TierNoMatch:
		return "No match"
	default:
		return string(t)
	}
}

// Feedback returns the learner-facing feedback sentence for the tier.
func (t MatchTier) Feedback() string {
	switch t {
	case TierExactSpecies:
		return "Perfect identification."
	case TierFuzzySpecies:
		return "Correct, watch the spelling."
	case TierCommonName:
		return "Correct common name. Try the scientific name next time."
	case TierGenusPlusEpithet:
		return "Right genus, but the species epithet is off."
	case TierGenusOnly:
		return "Right genus. Which species is it?"
	case TierFamilyOnly:
		return "Right family. Narrow it down to the genus."
	default:
		return "Not quite. Look at the next hint."
	}
}

// Result is the outcome of one grading attempt. It is never mutated after
// Grade returns it.
type Result struct {
	IsCorrect    bool      `json:"is_correct"`
	MatchTier    MatchTier `json:"match_tier"`
	BaseScore    int       `json:"base_score"`
	HintPenalty  int       `json:"hint_penalty"`
	FinalScore   int       `json:"final_score"`
	FeedbackTier MatchTier `json:"feedback_tier"`
}
