package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"recommendations-backend/internal/config"
	"recommendations-backend/internal/domains/recommendation/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =====================================================
// TEST DOUBLES
// =====================================================

// fakeRepo keeps records in memory and mimics the Postgres repository's
// visibility rules (soft-deleted rows hidden, public filters applied).
type fakeRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*model.Recommendation
	calls   map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records: make(map[uuid.UUID]*model.Recommendation),
		calls:   make(map[string]int),
	}
}

func (f *fakeRepo) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeRepo) visible(filter model.Filter) []model.Recommendation {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.Recommendation
	for _, rec := range f.records {
		if rec.IsDeleted {
			continue
		}
		if filter.PublicOnly && !rec.IsPublic {
			continue
		}
		if filter.FeaturedOnly && !rec.IsFeatured {
			continue
		}
		if filter.Rating > 0 && rec.Rating != filter.Rating {
			continue
		}
		if filter.MinRating > 0 && rec.Rating < filter.MinRating {
			continue
		}
		if filter.MaxRating > 0 && rec.Rating > filter.MaxRating {
			continue
		}
		if filter.Company != "" && !strings.Contains(strings.ToLower(rec.RecommenderCompany), strings.ToLower(filter.Company)) {
			continue
		}
		if filter.Relationship != "" && !strings.Contains(strings.ToLower(rec.Relationship), strings.ToLower(filter.Relationship)) {
			continue
		}
		out = append(out, *rec)
	}
	return out
}

func (f *fakeRepo) GetAll(ctx context.Context, filter model.Filter) ([]model.Recommendation, int, error) {
	f.count("GetAll")
	recs := f.visible(filter)
	return recs, len(recs), nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Recommendation, error) {
	f.count("GetByID")
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.IsDeleted {
		return nil, model.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeRepo) Create(ctx context.Context, rec *model.Recommendation) (uuid.UUID, error) {
	f.count("Create")
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	stored := *rec
	stored.ID = id
	f.records[id] = &stored
	return id, nil
}

func (f *fakeRepo) Update(ctx context.Context, rec *model.Recommendation) error {
	f.count("Update")
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.records[rec.ID]
	if !ok || existing.IsDeleted {
		return model.ErrNotFound
	}
	stored := *rec
	f.records[rec.ID] = &stored
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.count("Delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeRepo) SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error {
	f.count("SoftDelete")
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.IsDeleted {
		return model.ErrNotFound
	}
	rec.SoftDelete(deletedAt)
	return nil
}

func (f *fakeRepo) Restore(ctx context.Context, id uuid.UUID) error {
	f.count("Restore")
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || !rec.IsDeleted {
		return model.ErrNotFound
	}
	rec.Restore()
	return nil
}

func (f *fakeRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	return ok && !rec.IsDeleted, nil
}

func (f *fakeRepo) Count(ctx context.Context, filter model.Filter) (int, error) {
	return len(f.visible(filter)), nil
}

func (f *fakeRepo) GetPublic(ctx context.Context, filter model.Filter) ([]model.Recommendation, int, error) {
	f.count("GetPublic")
	filter.PublicOnly = true
	recs := f.visible(filter)
	return recs, len(recs), nil
}

func (f *fakeRepo) GetFeatured(ctx context.Context, filter model.Filter) ([]model.Recommendation, int, error) {
	f.count("GetFeatured")
	filter.PublicOnly = true
	filter.FeaturedOnly = true
	recs := f.visible(filter)
	return recs, len(recs), nil
}

func (f *fakeRepo) GetByRating(ctx context.Context, rating int, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	filter.Rating = rating
	recs := f.visible(filter)
	return recs, len(recs), nil
}

func (f *fakeRepo) GetByRatingRange(ctx context.Context, min, max int, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	filter.MinRating = min
	filter.MaxRating = max
	recs := f.visible(filter)
	return recs, len(recs), nil
}

func (f *fakeRepo) GetByCompany(ctx context.Context, company string, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	filter.Company = company
	recs := f.visible(filter)
	return recs, len(recs), nil
}

func (f *fakeRepo) GetBySkills(ctx context.Context, skills []string, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	var out []model.Recommendation
	for _, rec := range f.visible(filter) {
		for _, want := range skills {
			found := false
			for _, s := range rec.SkillsMentioned {
				if s == want {
					found = true
					break
				}
			}
			if found {
				out = append(out, rec)
				break
			}
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) GetByRelationship(ctx context.Context, relationship string, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	filter.Relationship = relationship
	recs := f.visible(filter)
	return recs, len(recs), nil
}

func (f *fakeRepo) GetByDateRange(ctx context.Context, from, to time.Time, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	var out []model.Recommendation
	for _, rec := range f.visible(filter) {
		if !from.IsZero() && rec.RecommendationDate.Before(from) {
			continue
		}
		if !to.IsZero() && rec.RecommendationDate.After(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Search(ctx context.Context, query string, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	q := strings.ToLower(query)
	var out []model.Recommendation
	for _, rec := range f.visible(filter) {
		haystack := strings.ToLower(rec.RecommenderName + " " + rec.RecommenderCompany + " " + rec.RecommendationText + " " + strings.Join(rec.SkillsMentioned, " "))
		if strings.Contains(haystack, q) {
			out = append(out, rec)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) GetLatest(ctx context.Context, limit int) ([]model.Recommendation, error) {
	recs := f.visible(model.Filter{PublicOnly: true})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (f *fakeRepo) GetHighestRated(ctx context.Context, limit int) ([]model.Recommendation, error) {
	return f.GetLatest(ctx, limit)
}

func (f *fakeRepo) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) error {
	f.count("SetFeatured")
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.IsDeleted {
		return model.ErrNotFound
	}
	rec.IsFeatured = featured
	return nil
}

func (f *fakeRepo) SetPublic(ctx context.Context, id uuid.UUID, public bool) error {
	f.count("SetPublic")
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.IsDeleted {
		return model.ErrNotFound
	}
	rec.IsPublic = public
	return nil
}

func (f *fakeRepo) UpdateDisplayOrder(ctx context.Context, id uuid.UUID, order int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.IsDeleted {
		return model.ErrNotFound
	}
	rec.DisplayOrder = order
	return nil
}

func (f *fakeRepo) BulkUpdateDisplayOrder(ctx context.Context, items []model.ReorderItem) error {
	f.count("BulkUpdateDisplayOrder")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range items {
		rec, ok := f.records[item.ID]
		if !ok || rec.IsDeleted {
			return model.ErrNotFound
		}
		rec.DisplayOrder = item.DisplayOrder
	}
	return nil
}

func (f *fakeRepo) MaxDisplayOrder(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, rec := range f.records {
		if !rec.IsDeleted && rec.DisplayOrder > max {
			max = rec.DisplayOrder
		}
	}
	return max, nil
}

func (f *fakeRepo) UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.IsDeleted {
		return model.ErrNotFound
	}
	rec.RecommenderImageURL = imageURL
	return nil
}

func (f *fakeRepo) GetStats(ctx context.Context) (*model.Stats, error) {
	recs := f.visible(model.Filter{PublicOnly: true})
	stats := &model.Stats{RatingDistribution: make(map[int]int)}
	companies := make(map[string]struct{})
	sum := 0
	for _, rec := range recs {
		stats.Total++
		if rec.IsFeatured {
			stats.Featured++
		}
		sum += rec.Rating
		stats.RatingDistribution[rec.Rating]++
		companies[rec.RecommenderCompany] = struct{}{}
		if stats.LatestDate == nil || rec.RecommendationDate.After(*stats.LatestDate) {
			d := rec.RecommendationDate
			stats.LatestDate = &d
		}
	}
	stats.CompaniesCount = len(companies)
	if stats.Total > 0 {
		stats.AverageRating = float64(sum) / float64(stats.Total)
	}
	return stats, nil
}

func (f *fakeRepo) GetDistinctCompanies(ctx context.Context) ([]string, error) {
	f.count("GetDistinctCompanies")
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range f.visible(model.Filter{PublicOnly: true}) {
		if _, ok := seen[rec.RecommenderCompany]; !ok {
			seen[rec.RecommenderCompany] = struct{}{}
			out = append(out, rec.RecommenderCompany)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetDistinctSkills(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range f.visible(model.Filter{PublicOnly: true}) {
		for _, s := range rec.SkillsMentioned {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// fakeCache is an in-memory Cache without TTL expiry.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	raw, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func (c *fakeCache) DeletePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *fakeCache) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }

func (c *fakeCache) TTL(ctx context.Context, key string) (time.Duration, error) { return 0, nil }

func newTestService(repo *fakeRepo) ServiceInterface {
	return NewService(repo, newFakeCache(), nil, nil, config.CacheConfig{
		DefaultTTL:      5 * time.Minute,
		DistinctListTTL: time.Hour,
	})
}

func seedCreateRequest(name string) model.CreateRecommendationRequest {
	return model.CreateRecommendationRequest{
		RecommenderName:    name,
		RecommenderTitle:   "Engineering Manager",
		RecommenderCompany: "Acme Corp",
		RecommendationText: strings.Repeat("An outstanding collaborator on every project. ", 2),
		Relationship:       "manager",
		RecommendationDate: "2024-01-15",
		Rating:             5,
	}
}

// =====================================================
// TESTS
// =====================================================

func TestCreateAssignsNextDisplayOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, seedCreateRequest("First"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.DisplayOrder)

	second, err := svc.Create(ctx, seedCreateRequest("Second"))
	require.NoError(t, err)
	assert.Equal(t, 2, second.DisplayOrder)

	// Explicit order wins over auto-assignment
	req := seedCreateRequest("Third")
	order := 42
	req.DisplayOrder = &order
	third, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 42, third.DisplayOrder)
}

func TestCreateRejectsInvalidRequest(t *testing.T) {
	svc := newTestService(newFakeRepo())

	req := seedCreateRequest("Broken")
	req.Rating = 9
	_, err := svc.Create(context.Background(), req)

	var recErr *model.RecommendationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, model.ErrCodeValidation, recErr.Code)
}

func TestToggleFeaturedTwiceRestoresOriginal(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, seedCreateRequest("Toggler"))
	require.NoError(t, err)
	require.False(t, created.IsFeatured)

	once, err := svc.ToggleFeatured(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, once.IsFeatured)

	twice, err := svc.ToggleFeatured(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, twice.IsFeatured)
}

func TestTogglePublicHidesFromPublicList(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, seedCreateRequest("Hidden"))
	require.NoError(t, err)
	require.True(t, created.IsPublic)

	result, err := svc.GetPublic(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)

	_, err = svc.TogglePublic(ctx, created.ID)
	require.NoError(t, err)

	result, err = svc.GetPublic(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
}

func TestFeaturedIsSubsetOfPublic(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, seedCreateRequest("Alpha"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, seedCreateRequest("Beta"))
	require.NoError(t, err)

	_, err = svc.ToggleFeatured(ctx, a.ID)
	require.NoError(t, err)
	// Featured but private must not leak into the featured listing
	_, err = svc.TogglePublic(ctx, a.ID)
	require.NoError(t, err)

	featured, err := svc.GetFeatured(ctx, model.Filter{})
	require.NoError(t, err)
	public, err := svc.GetPublic(ctx, model.Filter{})
	require.NoError(t, err)

	assert.Equal(t, 0, featured.Total)
	assert.Equal(t, 1, public.Total)
}

func TestDeleteSoftDeletesAndGetReturnsNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, seedCreateRequest("Gone"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.GetByID(ctx, created.ID)
	var recErr *model.RecommendationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, model.ErrCodeNotFound, recErr.Code)
	assert.Equal(t, 404, recErr.StatusCode)

	// The row survives and can come back
	restored, err := svc.Restore(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, restored.ID)
	assert.False(t, restored.IsDeleted)
}

func TestReorderAppliesAllItems(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, seedCreateRequest("Alpha"))
	require.NoError(t, err)
	b, err := svc.Create(ctx, seedCreateRequest("Beta"))
	require.NoError(t, err)

	err = svc.Reorder(ctx, model.ReorderRequest{Items: []model.ReorderItem{
		{ID: a.ID, DisplayOrder: 2},
		{ID: b.ID, DisplayOrder: 1},
	}})
	require.NoError(t, err)

	gotA, err := svc.GetByID(ctx, a.ID)
	require.NoError(t, err)
	gotB, err := svc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, gotA.DisplayOrder)
	assert.Equal(t, 1, gotB.DisplayOrder)
}

func TestReorderUnknownIDFails(t *testing.T) {
	svc := newTestService(newFakeRepo())

	err := svc.Reorder(context.Background(), model.ReorderRequest{Items: []model.ReorderItem{
		{ID: uuid.New(), DisplayOrder: 1},
	}})

	var recErr *model.RecommendationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, model.ErrCodeNotFound, recErr.Code)
}

func TestGetStatsFillsDistribution(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	req := seedCreateRequest("Five")
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	req = seedCreateRequest("Four")
	req.Rating = 4
	_, err = svc.Create(ctx, req)
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalRecommendations)
	assert.Equal(t, 0, stats.FeaturedRecommendations)
	assert.Equal(t, 4.5, stats.AverageRating)
	assert.Equal(t, 1, stats.CompaniesCount)
	// Every rating bucket present even when empty
	for rating := model.MinRating; rating <= model.MaxRating; rating++ {
		_, ok := stats.RatingDistribution[rating]
		assert.True(t, ok, "bucket %d missing", rating)
	}
	require.NotNil(t, stats.LatestRecommendation)
	assert.Equal(t, "2024-01-15", *stats.LatestRecommendation)
}

func TestGetStatsEmptyCollection(t *testing.T) {
	svc := newTestService(newFakeRepo())

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalRecommendations)
	assert.Equal(t, 0.0, stats.AverageRating)
	assert.Nil(t, stats.LatestRecommendation)
}

func TestGetBySkillsRequiresSkills(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.GetBySkills(context.Background(), []string{"  ", ""}, model.Filter{})

	var recErr *model.RecommendationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, model.ErrCodeValidation, recErr.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Search(context.Background(), "   ", model.Filter{})
	require.Error(t, err)
}

func TestPublicListServedFromCache(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, seedCreateRequest("Cached"))
	require.NoError(t, err)

	_, err = svc.GetPublic(ctx, model.Filter{})
	require.NoError(t, err)
	_, err = svc.GetPublic(ctx, model.Filter{})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls["GetPublic"], "second read should hit the cache")
}

func TestMutationInvalidatesListCache(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, seedCreateRequest("Volatile"))
	require.NoError(t, err)

	result, err := svc.GetPublic(ctx, model.Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)

	// A write must drop the cached listing
	_, err = svc.TogglePublic(ctx, created.ID)
	require.NoError(t, err)

	result, err = svc.GetPublic(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 2, repo.calls["GetPublic"])
}

func TestDistinctCompaniesCachedLonger(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, seedCreateRequest("Companies"))
	require.NoError(t, err)

	first, err := svc.GetDistinctCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Corp"}, first)

	_, err = svc.GetDistinctCompanies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls["GetDistinctCompanies"])
}

func TestUpdateOverwritesFields(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, seedCreateRequest("Before"))
	require.NoError(t, err)

	updateReq := model.UpdateRecommendationRequest(seedCreateRequest("After"))
	updateReq.Rating = 3
	updateReq.SkillsMentioned = model.SkillsList{"Go", "Kubernetes"}

	updated, err := svc.Update(ctx, created.ID, updateReq)
	require.NoError(t, err)
	assert.Equal(t, "After", updated.RecommenderName)
	assert.Equal(t, 3, updated.Rating)
	assert.Equal(t, []string{"Go", "Kubernetes"}, updated.SkillsMentioned)
	assert.Equal(t, "★★★☆☆", updated.RatingDisplay)
}
