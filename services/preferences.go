package services

import (
	"context"

	"paper-board/models"
)

// Preferences derives a user's affinity for research domains from the papers
// the user has reviewed. The returned weights sum to 1.0 unless the map is
// empty, which means the user has no usable review history.
func (s *DashboardService) Preferences(ctx context.Context, userID uint) (map[string]float64, error) {
	var domains []string
	err := s.db.WithContext(ctx).Model(&models.Review{}).
		Joins("JOIN papers ON papers.id = reviews.paper_id").
		Where("reviews.reviewer_id = ?", userID).
		Pluck("papers.domain", &domains).Error
	if err != nil {
		return nil, err
	}
	return preferenceWeights(domains), nil
}

// preferenceWeights normalizes domain occurrence counts into weights.
// Empty domains carry no signal and are excluded from both numerator and
// denominator.
func preferenceWeights(domains []string) map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for _, d := range domains {
		if d == "" {
			continue
		}
		counts[d]++
		total++
	}
	weights := make(map[string]float64, len(counts))
	if total == 0 {
		return weights
	}
	for d, n := range counts {
		weights[d] = float64(n) / float64(total)
	}
	return weights
}
