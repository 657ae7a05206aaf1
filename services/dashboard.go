package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"paper-board/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sort keys accepted by the dashboard.
const (
	SortNewest       = "newest"
	SortOldest       = "oldest"
	SortAToZ         = "a_to_z"
	SortZToA         = "z_to_a"
	SortMostReviewed = "most_reviewed"
	SortBest         = "best"
	SortAIScore      = "ai_score"
)

// DashboardFilters is the compound filter configuration of one dashboard
// request. All fields are optional.
type DashboardFilters struct {
	// Search matches case-insensitively against title, abstract and domain.
	Search string
	// Domain filters by case-insensitive substring; "" and "all" disable it.
	Domain string
	// Company keeps papers whose facility link points at this exact name.
	Company string
	// MinScore is a numeric string; unparsable values are silently ignored.
	MinScore string
	// Sort is one of the Sort* keys; empty means SortNewest.
	Sort string
}

// ActiveCount reports how many non-default filters are set. The sort key is
// an ordering, not a filter, and never counts.
func (f DashboardFilters) ActiveCount() int {
	n := 0
	if f.Search != "" {
		n++
	}
	if f.Domain != "" && f.Domain != "all" {
		n++
	}
	if f.Company != "" {
		n++
	}
	if _, err := strconv.ParseFloat(f.MinScore, 64); f.MinScore != "" && err == nil {
		n++
	}
	return n
}

// DashboardResult is everything one dashboard page needs.
type DashboardResult struct {
	Papers        []models.Paper      `json:"papers"`
	Stats         map[uint]ScoreStats `json:"stats"`
	ActiveFilters int                 `json:"active_filters"`
	Domains       []string            `json:"domains"`
	Companies     []models.Company    `json:"companies"`
	// InterestIDs holds the papers the current company user has bookmarked.
	InterestIDs map[uint]bool `json:"interest_paper_ids,omitempty"`
	// Degraded marks the read-only fallback view served when the store is
	// unreachable. Mutation is refused while degraded.
	Degraded bool `json:"degraded,omitempty"`
}

// DashboardService runs the filter/sort pipeline, the aggregators and the
// ranking engine against the entity store.
type DashboardService struct {
	db  *gorm.DB
	log *zap.Logger

	// Now is swappable for deterministic ranking tests.
	Now func() time.Time
}

// NewDashboardService wires the dashboard pipeline.
func NewDashboardService(db *gorm.DB, log *zap.Logger) *DashboardService {
	return &DashboardService{db: db, log: log, Now: time.Now}
}

// fallbackPapers keeps the dashboard viewable when the store is down.
var fallbackPapers = []models.Paper{
	{ID: 1, Title: "Efficient Concrete Mix Design", Domain: "Civil Engineering", Abstract: "Demonstration entry shown while the database is unavailable."},
	{ID: 2, Title: "Stormwater Infiltration in Urban Areas", Domain: "Civil Engineering", Abstract: "Demonstration entry shown while the database is unavailable."},
	{ID: 3, Title: "Wind Loads According to EN 1991-1-4", Domain: "Structural Engineering", Abstract: "Demonstration entry shown while the database is unavailable."},
}

// escapeLike backslash-escapes LIKE metacharacters so user input only ever
// matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// ComputeDashboard runs the full pipeline: filter, aggregate, sort, and,
// when a signed-in user is present, a stable personalized re-rank of the
// exact filtered set. Store failures degrade to a fixed read-only view
// instead of an error page.
func (s *DashboardService) ComputeDashboard(ctx context.Context, f DashboardFilters, current *models.User) (*DashboardResult, error) {
	query := s.db.WithContext(ctx).Model(&models.Paper{})

	if f.Search != "" {
		needle := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(abstract) LIKE ? ESCAPE '\' OR LOWER(domain) LIKE ? ESCAPE '\'`,
			needle, needle, needle)
	}
	if f.Domain != "" && f.Domain != "all" {
		query = query.Where(`LOWER(domain) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(f.Domain))+"%")
	}
	if f.Company != "" {
		query = query.
			Joins("JOIN paper_companies ON paper_companies.paper_id = papers.id AND paper_companies.kind = ?", models.LinkKindFacility).
			Joins("JOIN companies ON companies.id = paper_companies.company_id").
			Where("companies.name = ?", f.Company)
	}

	var papers []models.Paper
	if err := query.Order("papers.id").Find(&papers).Error; err != nil {
		s.log.Error("Dashboard paper query failed, serving fallback", zap.Error(err))
		return s.fallbackResult(f), nil
	}

	var reviews []models.Review
	if err := s.db.WithContext(ctx).Find(&reviews).Error; err != nil {
		s.log.Error("Dashboard review query failed, serving fallback", zap.Error(err))
		return s.fallbackResult(f), nil
	}
	stats := AggregateScores(reviews)

	if f.MinScore != "" {
		if min, err := strconv.ParseFloat(f.MinScore, 64); err == nil {
			filtered := make([]models.Paper, 0, len(papers))
			for _, p := range papers {
				if stats[p.ID].AverageOrZero() >= min {
					filtered = append(filtered, p)
				}
			}
			papers = filtered
		}
	}

	sortPapers(papers, stats, f.Sort)

	// Personalized re-rank overrides the declared sort order, but only for
	// signed-in users and never the filtered membership.
	if current != nil {
		prefs, err := s.Preferences(ctx, current.ID)
		if err != nil {
			s.log.Error("Dashboard preference query failed, serving fallback", zap.Error(err))
			return s.fallbackResult(f), nil
		}
		RankPapers(papers, prefs, stats, s.Now())
	}

	result := &DashboardResult{
		Papers:        papers,
		Stats:         stats,
		ActiveFilters: f.ActiveCount(),
	}

	if err := s.db.WithContext(ctx).Model(&models.Paper{}).
		Distinct().
		Where("domain <> ''").
		Order("domain").
		Pluck("domain", &result.Domains).Error; err != nil {
		s.log.Error("Dashboard domain list query failed, serving fallback", zap.Error(err))
		return s.fallbackResult(f), nil
	}
	if err := s.db.WithContext(ctx).Order("name").Find(&result.Companies).Error; err != nil {
		s.log.Error("Dashboard company list query failed, serving fallback", zap.Error(err))
		return s.fallbackResult(f), nil
	}

	if current != nil && current.Role == models.RoleCompany && current.CompanyID != nil {
		var links []models.PaperCompany
		err := s.db.WithContext(ctx).
			Where("company_id = ? AND kind = ?", *current.CompanyID, models.LinkKindInterest).
			Find(&links).Error
		if err != nil {
			s.log.Error("Dashboard interest query failed, serving fallback", zap.Error(err))
			return s.fallbackResult(f), nil
		}
		result.InterestIDs = make(map[uint]bool, len(links))
		for _, l := range links {
			result.InterestIDs[l.PaperID] = true
		}
	}

	return result, nil
}

func (s *DashboardService) fallbackResult(f DashboardFilters) *DashboardResult {
	papers := make([]models.Paper, len(fallbackPapers))
	copy(papers, fallbackPapers)
	return &DashboardResult{
		Papers:        papers,
		Stats:         map[uint]ScoreStats{},
		ActiveFilters: f.ActiveCount(),
		Degraded:      true,
	}
}

// uploadUnix orders papers without an upload date before everything else on
// oldest and after everything else on newest.
func uploadUnix(p models.Paper) int64 {
	if p.UploadDate == nil {
		return 0
	}
	return p.UploadDate.Unix()
}

// aiScoreSum sums the AI business and academic scores. Papers without any AI
// score sort after genuinely zero-scored ones.
func aiScoreSum(p models.Paper) float64 {
	if p.AIBusinessScore == nil && p.AIAcademicScore == nil {
		return -1
	}
	sum := 0.0
	if p.AIBusinessScore != nil {
		sum += *p.AIBusinessScore
	}
	if p.AIAcademicScore != nil {
		sum += *p.AIAcademicScore
	}
	return sum
}

// sortPapers applies the requested sort key in place. Every key breaks ties
// by paper id ascending.
func sortPapers(papers []models.Paper, stats map[uint]ScoreStats, key string) {
	byID := func(i, j int) bool { return papers[i].ID < papers[j].ID }

	switch key {
	case SortOldest:
		sort.SliceStable(papers, func(i, j int) bool {
			a, b := uploadUnix(papers[i]), uploadUnix(papers[j])
			if a != b {
				return a < b
			}
			return byID(i, j)
		})
	case SortAToZ:
		sort.SliceStable(papers, func(i, j int) bool {
			a, b := strings.ToLower(papers[i].Title), strings.ToLower(papers[j].Title)
			if a != b {
				return a < b
			}
			return byID(i, j)
		})
	case SortZToA:
		sort.SliceStable(papers, func(i, j int) bool {
			a, b := strings.ToLower(papers[i].Title), strings.ToLower(papers[j].Title)
			if a != b {
				return a > b
			}
			return byID(i, j)
		})
	case SortMostReviewed:
		sort.SliceStable(papers, func(i, j int) bool {
			a, b := stats[papers[i].ID].Total, stats[papers[j].ID].Total
			if a != b {
				return a > b
			}
			return byID(i, j)
		})
	case SortBest:
		sort.SliceStable(papers, func(i, j int) bool {
			a, b := stats[papers[i].ID].AverageOrZero(), stats[papers[j].ID].AverageOrZero()
			if a != b {
				return a > b
			}
			return byID(i, j)
		})
	case SortAIScore:
		sort.SliceStable(papers, func(i, j int) bool {
			a, b := aiScoreSum(papers[i]), aiScoreSum(papers[j])
			if a != b {
				return a > b
			}
			return byID(i, j)
		})
	default: // SortNewest
		sort.SliceStable(papers, func(i, j int) bool {
			a, b := uploadUnix(papers[i]), uploadUnix(papers[j])
			if a != b {
				return a > b
			}
			return byID(i, j)
		})
	}
}
