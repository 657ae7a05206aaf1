package services

import (
	"context"
	"testing"
	"time"

	"paper-board/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func createPaper(t *testing.T, db *gorm.DB, title, domain string, daysAgo int) models.Paper {
	paper := models.Paper{
		UserID:     1,
		Title:      title,
		Domain:     domain,
		Abstract:   "Abstract of " + title,
		UploadDate: timePtr(testNow.AddDate(0, 0, -daysAgo)),
		AIStatus:   models.AIStatusPending,
	}
	require.NoError(t, db.Create(&paper).Error)
	return paper
}

func addReview(t *testing.T, db *gorm.DB, paperID, reviewerID uint, score *float64, comment string) {
	review := models.Review{PaperID: paperID, ReviewerID: reviewerID, Score: score, Comment: comment}
	require.NoError(t, db.Create(&review).Error)
}

func paperTitles(papers []models.Paper) []string {
	titles := make([]string, len(papers))
	for i, p := range papers {
		titles[i] = p.Title
	}
	return titles
}

// TestDashboardSortAToZ: alphabetical sort orders by title regardless of
// domain or recency.
func TestDashboardSortAToZ(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	createPaper(t, db, "Zeta", "AI", 1)
	createPaper(t, db, "Alpha", "Bio", 2)

	result, err := svc.ComputeDashboard(context.Background(), DashboardFilters{Sort: SortAToZ}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha", "Zeta"}, paperTitles(result.Papers))
	assert.False(t, result.Degraded)
}

// TestDashboardDomainFilter: the domain filter is a case-insensitive
// substring match.
func TestDashboardDomainFilter(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	createPaper(t, db, "Zeta", "AI", 1)
	createPaper(t, db, "Alpha", "Bio", 2)

	result, err := svc.ComputeDashboard(context.Background(), DashboardFilters{Domain: "AI"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta"}, paperTitles(result.Papers))

	// Lower-case needle matches too.
	result, err = svc.ComputeDashboard(context.Background(), DashboardFilters{Domain: "ai"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta"}, paperTitles(result.Papers))

	// "all" disables the filter.
	result, err = svc.ComputeDashboard(context.Background(), DashboardFilters{Domain: "all"}, nil)
	require.NoError(t, err)
	assert.Len(t, result.Papers, 2)
}

// TestDashboardSearch: free text matches title, abstract and domain,
// case-insensitively.
func TestDashboardSearch(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	createPaper(t, db, "Stormwater Infiltration", "Civil Engineering", 1)
	createPaper(t, db, "Neural Ranking", "AI", 2)

	result, err := svc.ComputeDashboard(context.Background(), DashboardFilters{Search: "STORM"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Stormwater Infiltration"}, paperTitles(result.Papers))

	result, err = svc.ComputeDashboard(context.Background(), DashboardFilters{Search: "civil"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Stormwater Infiltration"}, paperTitles(result.Papers), "search also covers the domain")
}

// TestDashboardSearchLiteralWildcards: %, _ and \ in user input match
// literally instead of acting as LIKE wildcards.
func TestDashboardSearchLiteralWildcards(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	createPaper(t, db, "100% Recycled Aggregate", "Materials", 1)
	createPaper(t, db, "100x Load Amplification", "Structures", 2)

	result, err := svc.ComputeDashboard(context.Background(), DashboardFilters{Search: "100%"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Recycled Aggregate"}, paperTitles(result.Papers))

	// A lone underscore must not match arbitrary single characters.
	result, err = svc.ComputeDashboard(context.Background(), DashboardFilters{Search: "100_"}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Papers)

	result, err = svc.ComputeDashboard(context.Background(), DashboardFilters{Search: `\`}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Papers)
}

// TestDashboardDomainFilterLiteralWildcards: same escaping applies to the
// domain filter.
func TestDashboardDomainFilterLiteralWildcards(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	createPaper(t, db, "Alpha", "A_I", 1)
	createPaper(t, db, "Beta", "AbI", 2)

	result, err := svc.ComputeDashboard(context.Background(), DashboardFilters{Domain: "a_i"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha"}, paperTitles(result.Papers))
}

// TestDashboardMinScore: the threshold compares against the aggregate
// average, with missing averages treated as zero.
func TestDashboardMinScore(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	good := createPaper(t, db, "Good", "AI", 1)
	weak := createPaper(t, db, "Weak", "AI", 2)
	createPaper(t, db, "Unreviewed", "AI", 3)
	addReview(t, db, good.ID, 10, scorePtr(8.0), "")
	addReview(t, db, weak.ID, 10, scorePtr(3.0), "")

	result, err := svc.ComputeDashboard(context.Background(), DashboardFilters{MinScore: "5"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Good"}, paperTitles(result.Papers))

	// Threshold zero keeps everything, including unreviewed papers.
	result, err = svc.ComputeDashboard(context.Background(), DashboardFilters{MinScore: "0"}, nil)
	require.NoError(t, err)
	assert.Len(t, result.Papers, 3)
}

// TestDashboardMinScoreUnparsable: a non-numeric threshold is ignored,
// never an error.
func TestDashboardMinScoreUnparsable(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	createPaper(t, db, "Zeta", "AI", 1)
	createPaper(t, db, "Alpha", "Bio", 2)

	result, err := svc.ComputeDashboard(context.Background(), DashboardFilters{MinScore: "abc"}, nil)
	require.NoError(t, err)
	assert.Len(t, result.Papers, 2, "unparsable threshold leaves the set unchanged")
	assert.Equal(t, 0, result.ActiveFilters, "an ignored filter is not active")
}

// TestDashboardFacilityFilter: only papers with a facility link to the named
// company pass.
func TestDashboardFacilityFilter(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	company := models.Company{Name: "Farys", Industry: "Water Management"}
	require.NoError(t, db.Create(&company).Error)

	hosted := createPaper(t, db, "Hosted", "Civil Engineering", 1)
	createPaper(t, db, "Independent", "Civil Engineering", 2)
	link := models.PaperCompany{PaperID: hosted.ID, CompanyID: company.ID, Kind: models.LinkKindFacility}
	require.NoError(t, db.Create(&link).Error)

	result, err := svc.ComputeDashboard(context.Background(), DashboardFilters{Company: "Farys"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hosted"}, paperTitles(result.Papers))

	// An interest link is not a facility link.
	result, err = svc.ComputeDashboard(context.Background(), DashboardFilters{Company: "Fluvius"}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Papers)
}

// TestDashboardAnonymousOrder: without a signed-in user the declared sort
// order is authoritative and the ranking engine is skipped.
func TestDashboardAnonymousOrder(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	older := createPaper(t, db, "Older", "AI", 10)
	createPaper(t, db, "Newer", "Bio", 1)

	// Reviews that would change a personalized order must not matter here.
	addReview(t, db, older.ID, 10, scorePtr(9.9), "")

	result, err := svc.ComputeDashboard(context.Background(), DashboardFilters{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Newer", "Older"}, paperTitles(result.Papers), "default order is newest first")
}

// TestDashboardPersonalizedReorder: a signed-in user's domain preference
// re-orders the exact filtered set without changing membership.
func TestDashboardPersonalizedReorder(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	reviewer := models.User{Name: "R", Email: "r@example.com", Role: models.RoleReviewer}
	require.NoError(t, db.Create(&reviewer).Error)

	// Two equally recent, equally unreviewed papers in different domains.
	aiPaper := createPaper(t, db, "Zeta", "AI", 1)
	bioPaper := createPaper(t, db, "Alpha", "Bio", 1)

	// The user's history is all-AI (comment-only, so popularity stays equal).
	history := createPaper(t, db, "Past AI Work", "AI", 200)
	addReview(t, db, history.ID, reviewer.ID, nil, "reviewed earlier")

	// Alphabetical sort would put Alpha first; the preference must win.
	result, err := svc.ComputeDashboard(context.Background(), DashboardFilters{Sort: SortAToZ}, &reviewer)
	require.NoError(t, err)

	require.Len(t, result.Papers, 3, "ranking never adds or removes papers")
	assert.Equal(t, aiPaper.ID, result.Papers[0].ID, "preferred domain outranks the declared sort")
	assert.Equal(t, bioPaper.ID, result.Papers[2].ID, "zero-preference paper with equal recency comes last")
}

// TestDashboardIdempotentReads: two invocations over unchanged data yield
// identical results.
func TestDashboardIdempotentReads(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	p := createPaper(t, db, "Stable", "AI", 1)
	addReview(t, db, p.ID, 10, scorePtr(7.0), "fine")

	filters := DashboardFilters{Domain: "AI", Sort: SortBest}
	first, err := svc.ComputeDashboard(context.Background(), filters, nil)
	require.NoError(t, err)
	second, err := svc.ComputeDashboard(context.Background(), filters, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestDashboardOptionLists: the result carries all distinct domains and all
// companies for the filter UI.
func TestDashboardOptionLists(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	require.NoError(t, db.Create(&models.Company{Name: "Fluvius"}).Error)
	require.NoError(t, db.Create(&models.Company{Name: "Farys"}).Error)
	createPaper(t, db, "A", "AI", 1)
	createPaper(t, db, "B", "AI", 2)
	createPaper(t, db, "C", "Bio", 3)
	createPaper(t, db, "D", "", 4)

	result, err := svc.ComputeDashboard(context.Background(), DashboardFilters{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"AI", "Bio"}, result.Domains, "empty domains are not offered as options")
	require.Len(t, result.Companies, 2)
	assert.Equal(t, "Farys", result.Companies[0].Name, "companies are name-ordered")
}

// TestDashboardInterestSet: company users see which papers their company
// bookmarked.
func TestDashboardInterestSet(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	company := models.Company{Name: "Provoost Engineering"}
	require.NoError(t, db.Create(&company).Error)
	account := models.User{Name: "Provoost Engineering", Email: "office@provoost.example.com",
		Role: models.RoleCompany, CompanyID: &company.ID}
	require.NoError(t, db.Create(&account).Error)

	marked := createPaper(t, db, "Marked", "AI", 1)
	createPaper(t, db, "Unmarked", "AI", 2)
	link := models.PaperCompany{PaperID: marked.ID, CompanyID: company.ID, Kind: models.LinkKindInterest}
	require.NoError(t, db.Create(&link).Error)

	result, err := svc.ComputeDashboard(context.Background(), DashboardFilters{}, &account)
	require.NoError(t, err)

	assert.True(t, result.InterestIDs[marked.ID])
	assert.Len(t, result.InterestIDs, 1)
}

// TestDashboardDegradedFallback: an unreachable store yields the labeled
// read-only fallback view instead of an error.
func TestDashboardDegradedFallback(t *testing.T) {
	svc, db := newTestService(t)
	svc.Now = func() time.Time { return testNow }

	require.NoError(t, db.Migrator().DropTable(&models.Paper{}))

	result, err := svc.ComputeDashboard(context.Background(), DashboardFilters{Search: "concrete"}, nil)
	require.NoError(t, err, "store failure degrades, it does not propagate")

	assert.True(t, result.Degraded)
	assert.NotEmpty(t, result.Papers, "the page stays viewable")
	assert.Empty(t, result.Stats)
	assert.Equal(t, 1, result.ActiveFilters)
}

// TestActiveFilterCount pins which inputs count as active filters.
func TestActiveFilterCount(t *testing.T) {
	cases := []struct {
		name    string
		filters DashboardFilters
		want    int
	}{
		{"no filters", DashboardFilters{}, 0},
		{"sort alone is not a filter", DashboardFilters{Sort: SortBest}, 0},
		{"domain all is the default", DashboardFilters{Domain: "all"}, 0},
		{"unparsable min score is inactive", DashboardFilters{MinScore: "abc"}, 0},
		{"search", DashboardFilters{Search: "x"}, 1},
		{"everything", DashboardFilters{Search: "x", Domain: "AI", Company: "Farys", MinScore: "5"}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filters.ActiveCount())
		})
	}
}

// TestSortPapersKeys exercises the aggregate-driven sort keys directly.
func TestSortPapersKeys(t *testing.T) {
	papers := []models.Paper{
		{ID: 1, Title: "One", UploadDate: timePtr(testNow.AddDate(0, 0, -3))},
		{ID: 2, Title: "Two", UploadDate: timePtr(testNow.AddDate(0, 0, -1)),
			AIBusinessScore: scorePtr(40), AIAcademicScore: scorePtr(50)},
		{ID: 3, Title: "Three", AIBusinessScore: scorePtr(10), AIAcademicScore: scorePtr(20)},
	}
	stats := map[uint]ScoreStats{
		1: {Average: scorePtr(9.0), Scored: 1, Total: 1},
		2: {Average: scorePtr(4.0), Scored: 2, Total: 3},
	}

	order := func(ps []models.Paper) []uint {
		ids := make([]uint, len(ps))
		for i, p := range ps {
			ids[i] = p.ID
		}
		return ids
	}

	sortPapers(papers, stats, SortMostReviewed)
	assert.Equal(t, []uint{2, 1, 3}, order(papers), "review counts descend, missing counts as zero")

	sortPapers(papers, stats, SortBest)
	assert.Equal(t, []uint{1, 2, 3}, order(papers), "averages descend, missing counts as zero")

	sortPapers(papers, stats, SortAIScore)
	assert.Equal(t, []uint{2, 3, 1}, order(papers), "AI score sums descend, unanalyzed papers come last")

	sortPapers(papers, stats, SortOldest)
	assert.Equal(t, []uint{3, 1, 2}, order(papers), "papers without an upload date sort first on oldest")

	sortPapers(papers, stats, SortNewest)
	assert.Equal(t, []uint{2, 1, 3}, order(papers), "papers without an upload date sort last on newest")

	sortPapers(papers, stats, SortZToA)
	assert.Equal(t, []uint{2, 3, 1}, order(papers))
}
