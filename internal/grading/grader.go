// Package grading scores a free-text taxonomic guess against a specimen.
package grading

import (
	"strings"

	"github.com/LieutenantJoseph/flashfungi/internal/similarity"
	"github.com/LieutenantJoseph/flashfungi/internal/specimen"
)

const (
	// FuzzyThreshold is the species similarity above which a typo is forgiven.
	FuzzyThreshold = 0.85

	// PenaltyPerHint is deducted for each hint revealed before the attempt.
	PenaltyPerHint = 5

	// MaxHintPenalty caps the total hint deduction.
	MaxHintPenalty = 40
)

// HintPenalty returns min(hintsUsed*5, 40). Negative counts are treated as zero.
func HintPenalty(hintsUsed int) int {
	if hintsUsed <= 0 {
		return 0
	}
	if p := hintsUsed * PenaltyPerHint; p < MaxHintPenalty {
		return p
	}
	return MaxHintPenalty
}

// Grade scores rawAnswer against rec. hintsUsed is the number of hints
// revealed before this attempt. Empty answers and incomplete specimens grade
// as NoMatch with a zero score.
//
// Tiers are tested in order and the first match wins. Species and common-name
// checks run before the substring checks on genus and family so a full
// species name is never scored as a genus-only partial.
func Grade(rawAnswer string, rec specimen.Record, hintsUsed int) Result {
	return newResult(matchTier(rawAnswer, rec), hintsUsed)
}

func matchTier(rawAnswer string, rec specimen.Record) MatchTier {
	answer := similarity.Normalize(rawAnswer)
	if answer == "" || !rec.Complete() {
		return TierNoMatch
	}

	species := similarity.Normalize(rec.SpeciesName)
	genus := similarity.Normalize(rec.Genus)
	family := similarity.Normalize(rec.Family)
	common := similarity.Normalize(rec.CommonName)

	switch {
	case answer == species:
		return TierExactSpecies
	case similarity.Similarity(answer, species) > FuzzyThreshold:
		return TierFuzzySpecies
	case common != "" && answer == common:
		return TierCommonName
	case strings.Contains(answer, genus) && len(strings.Fields(answer)) > 1:
		return TierGenusPlusEpithet
	case answer == genus:
		return TierGenusOnly
	case answer == family || strings.Contains(answer, family):
		return TierFamilyOnly
	default:
		return TierNoMatch
	}
}

func newResult(tier MatchTier, hintsUsed int) Result {
	base := tier.BaseScore()
	penalty := HintPenalty(hintsUsed)
	final := base - penalty
	if final < 0 {
		final = 0
	}
	return Result{
		IsCorrect:    tier.Correct(),
		MatchTier:    tier,
		BaseScore:    base,
		HintPenalty:  penalty,
		FinalScore:   final,
		FeedbackTier: tier,
	}
}

// GiveUp returns the result recorded when the learner asks for the answer:
// no match, zero final score, with the penalty for hints already shown.
func GiveUp(hintsUsed int) Result {
	r := newResult(TierNoMatch, hintsUsed)
	r.FinalScore = 0
	return r
}
