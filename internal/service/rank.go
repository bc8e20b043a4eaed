package service

import "qadamsafe/internal/models"

const (
	expertMinCompleted   = 7
	expertMinPerfect     = 7
	guardianMinCompleted = 5
	guardianMinSafeShare = 0.7
	defenderMinSafe      = 3
	// Прохождение считается "безопасным", если ошибок меньше двух.
	safeCompletionMaxMistakes = 1
)

// CalculateRank computes the rank (1..4) from the user's progress records.
// Only completed records are taken into account.
func CalculateRank(progress []*models.UserProgress) int {
	var completed, perfect, safe int
	for _, p := range progress {
		if p == nil || !p.Completed {
			continue
		}
		completed++
		if p.Mistakes == 0 {
			perfect++
		}
		if p.Mistakes <= safeCompletionMaxMistakes {
			safe++
		}
	}

	switch {
	case completed >= expertMinCompleted && perfect >= expertMinPerfect:
		return models.RankExpert
	case completed >= guardianMinCompleted && float64(safe)/float64(completed) >= guardianMinSafeShare:
		return models.RankGuardian
	case safe >= defenderMinSafe:
		return models.RankDefender
	default:
		return models.RankNovice
	}
}
