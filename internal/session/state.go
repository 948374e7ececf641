package session

import "github.com/LieutenantJoseph/flashfungi/internal/grading"

// Stats is the running aggregate of one study session.
//
// Invariants: LongestStreak >= CurrentStreak and CorrectCount <= TotalCount.
type Stats struct {
	CorrectCount    int `json:"correct_count"`
	TotalCount      int `json:"total_count"`
	CumulativeScore int `json:"cumulative_score"`
	CurrentStreak   int `json:"current_streak"`
	LongestStreak   int `json:"longest_streak"`
}

// Apply folds the final result of a resolved question into stats.
func Apply(stats Stats, r grading.Result) Stats {
	stats.TotalCount++
	stats.CumulativeScore += r.FinalScore

	if r.IsCorrect {
		stats.CorrectCount++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.LongestStreak {
			stats.LongestStreak = stats.CurrentStreak
		}
	} else {
		stats.CurrentStreak = 0
	}
	return stats
}

// AverageScore returns round(CumulativeScore / TotalCount), or 0 with no questions.
func (s Stats) AverageScore() int {
	return roundDiv(s.CumulativeScore, s.TotalCount)
}

// Accuracy returns round(100 * CorrectCount / TotalCount), or 0 with no questions.
func (s Stats) Accuracy() int {
	return roundDiv(100*s.CorrectCount, s.TotalCount)
}

// roundDiv rounds half away from zero for non-negative inputs.
func roundDiv(num, den int) int {
	if den == 0 {
		return 0
	}
	return (2*num + den) / (2 * den)
}
