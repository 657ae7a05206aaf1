package services

import (
	"math"

	"paper-board/models"
)

// ScoreStats is the aggregated review signal for one paper.
type ScoreStats struct {
	// Average of all scored reviews, rounded to one decimal place. Nil when
	// the paper has no scored review.
	Average *float64 `json:"average"`
	// Scored counts reviews that carry a score.
	Scored int `json:"scored"`
	// Total counts every review, comment-only ones included.
	Total int `json:"total"`
}

// AverageOrZero treats a missing average as a neutral zero signal.
func (s ScoreStats) AverageOrZero() float64 {
	if s.Average == nil {
		return 0
	}
	return *s.Average
}

// AggregateScores groups reviews by paper id and computes per-paper score
// statistics. Comment-only reviews contribute to Total but neither to the
// numerator nor the denominator of the average.
func AggregateScores(reviews []models.Review) map[uint]ScoreStats {
	sums := make(map[uint]float64)
	stats := make(map[uint]ScoreStats)
	for _, r := range reviews {
		s := stats[r.PaperID]
		s.Total++
		if r.Score != nil {
			s.Scored++
			sums[r.PaperID] += *r.Score
		}
		stats[r.PaperID] = s
	}
	for id, s := range stats {
		if s.Scored > 0 {
			avg := math.Round(sums[id]/float64(s.Scored)*10) / 10
			s.Average = &avg
			stats[id] = s
		}
	}
	return stats
}
