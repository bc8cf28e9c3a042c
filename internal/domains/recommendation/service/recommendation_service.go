package service

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"recommendations-backend/internal/config"
	"recommendations-backend/internal/domains/recommendation/model"
	"recommendations-backend/internal/domains/recommendation/repository"
	"recommendations-backend/internal/infrastructure/storage"
	"recommendations-backend/pkg/cache"
	"recommendations-backend/pkg/logger"

	"github.com/google/uuid"
)

const cachePrefix = "recommendations"

// RecommendationService - Implements ServiceInterface
type RecommendationService struct {
	repo           repository.RepositoryInterface
	cache          cache.Cache
	minio          *storage.MinIOStorage
	imageProcessor *storage.ImageProcessor
	cacheCfg       config.CacheConfig
}

// NewService - Constructor with DI
func NewService(
	repo repository.RepositoryInterface,
	cache cache.Cache,
	minio *storage.MinIOStorage,
	imageProcessor *storage.ImageProcessor,
	cacheCfg config.CacheConfig,
) ServiceInterface {
	return &RecommendationService{
		repo:           repo,
		cache:          cache,
		minio:          minio,
		imageProcessor: imageProcessor,
		cacheCfg:       cacheCfg,
	}
}

// =====================================================
// CRUD
// =====================================================

func (s *RecommendationService) GetAll(ctx context.Context, filter model.Filter) (*ListResult, error) {
	filter = filter.WithDefaults()

	// Try cache first
	var result ListResult
	cacheKey := model.GenerateCacheKey(cachePrefix+":all", filter)
	found, err := s.cache.Get(ctx, cacheKey, &result)
	if err != nil {
		logger.Warn("cache get failed", map[string]interface{}{"key": cacheKey, "error": err.Error()})
	}
	if found {
		return &result, nil
	}

	recs, total, err := s.repo.GetAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get all recommendations: %w", err)
	}

	result = ListResult{Items: model.ToResponseList(recs), Total: total}
	s.cacheSet(ctx, cacheKey, result, s.cacheCfg.DefaultTTL)
	return &result, nil
}

func (s *RecommendationService) GetByID(ctx context.Context, id uuid.UUID) (*model.RecommendationResponse, error) {
	var resp model.RecommendationResponse
	cacheKey := model.GenerateIDCacheKey(cachePrefix, id.String())
	found, err := s.cache.Get(ctx, cacheKey, &resp)
	if err != nil {
		logger.Warn("cache get failed", map[string]interface{}{"key": cacheKey, "error": err.Error()})
	}
	if found {
		return &resp, nil
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapNotFound(err, id)
	}

	resp = model.ToResponse(*rec)
	s.cacheSet(ctx, cacheKey, resp, s.cacheCfg.DefaultTTL)
	return &resp, nil
}

func (s *RecommendationService) Create(ctx context.Context, req model.CreateRecommendationRequest) (*model.RecommendationResponse, error) {
	// Step 1: Validate input
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Map to entity
	rec := model.ToEntity(req)

	// Step 3: Assign display order when the caller did not set one
	if req.DisplayOrder == nil {
		max, err := s.repo.MaxDisplayOrder(ctx)
		if err != nil {
			return nil, fmt.Errorf("assign display order: %w", err)
		}
		rec.DisplayOrder = max + 1
	}

	// Step 4: Persist
	id, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id

	logger.Info("recommendation created", map[string]interface{}{
		"id":          id.String(),
		"recommender": rec.RecommenderName,
		"rating":      rec.Rating,
	})

	// Step 5: Invalidate list caches
	s.invalidateLists(ctx)

	resp := model.ToResponse(*rec)
	return &resp, nil
}

func (s *RecommendationService) Update(ctx context.Context, id uuid.UUID, req model.UpdateRecommendationRequest) (*model.RecommendationResponse, error) {
	// Step 1: Validate input
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Load the existing record
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapNotFound(err, id)
	}

	// Step 3: Apply changes and persist
	model.ApplyUpdate(rec, req)
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, s.wrapNotFound(err, id)
	}

	logger.Info("recommendation updated", map[string]interface{}{"id": id.String()})

	// Step 4: Invalidate caches
	s.invalidate(ctx, id)

	resp := model.ToResponse(*rec)
	return &resp, nil
}

// Delete soft-deletes the record; the row stays for potential restore.
func (s *RecommendationService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id, time.Now()); err != nil {
		return s.wrapNotFound(err, id)
	}

	logger.Info("recommendation deleted", map[string]interface{}{"id": id.String()})
	s.invalidate(ctx, id)
	return nil
}

func (s *RecommendationService) Restore(ctx context.Context, id uuid.UUID) (*model.RecommendationResponse, error) {
	if err := s.repo.Restore(ctx, id); err != nil {
		return nil, s.wrapNotFound(err, id)
	}

	logger.Info("recommendation restored", map[string]interface{}{"id": id.String()})
	s.invalidate(ctx, id)
	return s.GetByID(ctx, id)
}

// =====================================================
// PUBLIC VIEWS
// =====================================================

type listQuery func(ctx context.Context, filter model.Filter) ([]model.Recommendation, int, error)

// publicList runs a cached public listing query with the condensed DTO.
func (s *RecommendationService) publicList(ctx context.Context, op string, filter model.Filter, query listQuery) (*PublicListResult, error) {
	filter = filter.WithDefaults()

	var result PublicListResult
	cacheKey := model.GenerateCacheKey(cachePrefix+":"+op, filter)
	found, err := s.cache.Get(ctx, cacheKey, &result)
	if err != nil {
		logger.Warn("cache get failed", map[string]interface{}{"key": cacheKey, "error": err.Error()})
	}
	if found {
		return &result, nil
	}

	recs, total, err := query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s recommendations: %w", op, err)
	}

	result = PublicListResult{Items: model.ToListItems(recs), Total: total}
	s.cacheSet(ctx, cacheKey, result, s.cacheCfg.DefaultTTL)
	return &result, nil
}

func (s *RecommendationService) GetPublic(ctx context.Context, filter model.Filter) (*PublicListResult, error) {
	return s.publicList(ctx, "public", filter, s.repo.GetPublic)
}

func (s *RecommendationService) GetFeatured(ctx context.Context, filter model.Filter) (*PublicListResult, error) {
	return s.publicList(ctx, "featured", filter, s.repo.GetFeatured)
}

func (s *RecommendationService) GetByRating(ctx context.Context, rating int, filter model.Filter) (*PublicListResult, error) {
	if rating < model.MinRating || rating > model.MaxRating {
		return nil, model.NewValidationError("rating must be between 1 and 5")
	}
	return s.publicList(ctx, "rating:"+strconv.Itoa(rating), filter,
		func(ctx context.Context, f model.Filter) ([]model.Recommendation, int, error) {
			return s.repo.GetByRating(ctx, rating, f)
		})
}

func (s *RecommendationService) GetByRatingRange(ctx context.Context, min, max int, filter model.Filter) (*PublicListResult, error) {
	rangeReq := model.RatingRangeRequest{MinRating: min, MaxRating: max}
	if err := rangeReq.Validate(); err != nil {
		return nil, err
	}
	op := fmt.Sprintf("rating-range:%d-%d", rangeReq.MinRating, rangeReq.MaxRating)
	return s.publicList(ctx, op, filter,
		func(ctx context.Context, f model.Filter) ([]model.Recommendation, int, error) {
			return s.repo.GetByRatingRange(ctx, rangeReq.MinRating, rangeReq.MaxRating, f)
		})
}

func (s *RecommendationService) GetByCompany(ctx context.Context, company string, filter model.Filter) (*PublicListResult, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, model.NewValidationError("Missing required fields: company")
	}
	filter.Company = company
	return s.publicList(ctx, "company", filter,
		func(ctx context.Context, f model.Filter) ([]model.Recommendation, int, error) {
			return s.repo.GetByCompany(ctx, company, f)
		})
}

func (s *RecommendationService) GetBySkills(ctx context.Context, skills []string, filter model.Filter) (*PublicListResult, error) {
	skills = model.SkillsList(skills).Normalized()
	if len(skills) == 0 {
		return nil, model.NewValidationError("Missing required fields: skills")
	}
	filter.Skills = skills
	return s.publicList(ctx, "skills", filter,
		func(ctx context.Context, f model.Filter) ([]model.Recommendation, int, error) {
			return s.repo.GetBySkills(ctx, skills, f)
		})
}

func (s *RecommendationService) GetByRelationship(ctx context.Context, relationship string, filter model.Filter) (*PublicListResult, error) {
	relationship = strings.TrimSpace(relationship)
	if relationship == "" {
		return nil, model.NewValidationError("Missing required fields: relationship")
	}
	filter.Relationship = relationship
	return s.publicList(ctx, "relationship", filter,
		func(ctx context.Context, f model.Filter) ([]model.Recommendation, int, error) {
			return s.repo.GetByRelationship(ctx, relationship, f)
		})
}

func (s *RecommendationService) GetByDateRange(ctx context.Context, from, to time.Time, filter model.Filter) (*PublicListResult, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, model.NewValidationError("date range start must not be after end")
	}
	filter.DateFrom = from
	filter.DateTo = to
	return s.publicList(ctx, "date-range", filter,
		func(ctx context.Context, f model.Filter) ([]model.Recommendation, int, error) {
			return s.repo.GetByDateRange(ctx, from, to, f)
		})
}

func (s *RecommendationService) Search(ctx context.Context, query string, filter model.Filter) (*PublicListResult, error) {
	req := model.SearchRequest{Query: query}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	filter.Search = strings.TrimSpace(query)
	return s.publicList(ctx, "search", filter,
		func(ctx context.Context, f model.Filter) ([]model.Recommendation, int, error) {
			return s.repo.Search(ctx, f.Search, f)
		})
}

func (s *RecommendationService) GetLatest(ctx context.Context, limit int) ([]model.RecommendationListItem, error) {
	return s.topList(ctx, "latest", limit, s.repo.GetLatest)
}

func (s *RecommendationService) GetHighestRated(ctx context.Context, limit int) ([]model.RecommendationListItem, error) {
	return s.topList(ctx, "highest-rated", limit, s.repo.GetHighestRated)
}

func (s *RecommendationService) topList(ctx context.Context, op string, limit int, query func(context.Context, int) ([]model.Recommendation, error)) ([]model.RecommendationListItem, error) {
	if limit < 1 || limit > 50 {
		limit = 5
	}

	var items []model.RecommendationListItem
	cacheKey := fmt.Sprintf("%s:%s:%d", cachePrefix, op, limit)
	found, err := s.cache.Get(ctx, cacheKey, &items)
	if err != nil {
		logger.Warn("cache get failed", map[string]interface{}{"key": cacheKey, "error": err.Error()})
	}
	if found {
		return items, nil
	}

	recs, err := query(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s recommendations: %w", op, err)
	}

	items = model.ToListItems(recs)
	s.cacheSet(ctx, cacheKey, items, s.cacheCfg.DefaultTTL)
	return items, nil
}

// =====================================================
// FLAGS AND ORDERING
// =====================================================

func (s *RecommendationService) ToggleFeatured(ctx context.Context, id uuid.UUID) (*model.RecommendationResponse, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapNotFound(err, id)
	}

	if err := s.repo.SetFeatured(ctx, id, !rec.IsFeatured); err != nil {
		return nil, s.wrapNotFound(err, id)
	}
	rec.IsFeatured = !rec.IsFeatured

	logger.Info("recommendation featured toggled", map[string]interface{}{
		"id":       id.String(),
		"featured": rec.IsFeatured,
	})
	s.invalidate(ctx, id)

	resp := model.ToResponse(*rec)
	return &resp, nil
}

func (s *RecommendationService) TogglePublic(ctx context.Context, id uuid.UUID) (*model.RecommendationResponse, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapNotFound(err, id)
	}

	if err := s.repo.SetPublic(ctx, id, !rec.IsPublic); err != nil {
		return nil, s.wrapNotFound(err, id)
	}
	rec.IsPublic = !rec.IsPublic

	logger.Info("recommendation public toggled", map[string]interface{}{
		"id":     id.String(),
		"public": rec.IsPublic,
	})
	s.invalidate(ctx, id)

	resp := model.ToResponse(*rec)
	return &resp, nil
}

func (s *RecommendationService) UpdateDisplayOrder(ctx context.Context, id uuid.UUID, order int) (*model.RecommendationResponse, error) {
	if order < 0 {
		return nil, model.NewValidationError("display_order must be non-negative")
	}
	if err := s.repo.UpdateDisplayOrder(ctx, id, order); err != nil {
		return nil, s.wrapNotFound(err, id)
	}

	s.invalidate(ctx, id)
	return s.GetByID(ctx, id)
}

// Reorder applies a bulk display-order change atomically.
func (s *RecommendationService) Reorder(ctx context.Context, req model.ReorderRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if err := s.repo.BulkUpdateDisplayOrder(ctx, req.Items); err != nil {
		if model.IsNotFound(err) {
			return model.NewNotFoundError("one or more recommendations do not exist")
		}
		return fmt.Errorf("reorder recommendations: %w", err)
	}

	logger.Info("recommendations reordered", map[string]interface{}{"count": len(req.Items)})
	s.invalidateLists(ctx)
	for _, item := range req.Items {
		key := model.GenerateIDCacheKey(cachePrefix, item.ID.String())
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.Warn("cache delete failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return nil
}

// =====================================================
// IMAGE
// =====================================================

// AttachImage validates, resizes and stores a recommender portrait,
// then records the medium variant URL on the record.
func (s *RecommendationService) AttachImage(ctx context.Context, id uuid.UUID, data []byte) (*model.RecommendationResponse, error) {
	// Step 1: The record must exist
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapNotFound(err, id)
	}

	// Step 2: Validate the upload
	if err := s.imageProcessor.ValidateImage(data); err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	// Step 3: Resize variants
	variants, err := s.imageProcessor.ProcessImage(data)
	if err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	// Step 4: Drop prior variants, then upload under the record's directory
	directory := path.Join(model.ImageUploadDirectory, id.String())
	if rec.RecommenderImageURL != "" {
		if err := s.minio.DeleteByPrefix(ctx, directory); err != nil {
			logger.Warn("previous image cleanup failed", map[string]interface{}{
				"id":    id.String(),
				"error": err.Error(),
			})
		}
	}
	var mediumURL string
	for name, content := range variants {
		key := storage.ObjectKey(directory, name+".jpg")
		url, err := s.minio.Upload(ctx, key, content, "image/jpeg")
		if err != nil {
			return nil, fmt.Errorf("upload image variant %s: %w", name, err)
		}
		if name == "medium" {
			mediumURL = url
		}
	}

	// Step 5: Persist the URL
	if err := s.repo.UpdateImageURL(ctx, id, mediumURL); err != nil {
		return nil, s.wrapNotFound(err, id)
	}
	rec.RecommenderImageURL = mediumURL

	logger.Info("recommendation image attached", map[string]interface{}{
		"id":  id.String(),
		"url": mediumURL,
	})
	s.invalidate(ctx, id)

	resp := model.ToResponse(*rec)
	return &resp, nil
}

// =====================================================
// AGGREGATES
// =====================================================

func (s *RecommendationService) GetStats(ctx context.Context) (*model.StatsResponse, error) {
	var resp model.StatsResponse
	cacheKey := cachePrefix + ":stats"
	found, err := s.cache.Get(ctx, cacheKey, &resp)
	if err != nil {
		logger.Warn("cache get failed", map[string]interface{}{"key": cacheKey, "error": err.Error()})
	}
	if found {
		return &resp, nil
	}

	stats, err := s.repo.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("recommendation stats: %w", err)
	}

	resp = model.ToStatsResponse(*stats)
	s.cacheSet(ctx, cacheKey, resp, s.cacheCfg.DefaultTTL)
	return &resp, nil
}

func (s *RecommendationService) GetDistinctCompanies(ctx context.Context) ([]string, error) {
	return s.distinctList(ctx, "companies", s.repo.GetDistinctCompanies)
}

func (s *RecommendationService) GetDistinctSkills(ctx context.Context) ([]string, error) {
	return s.distinctList(ctx, "skills-distinct", s.repo.GetDistinctSkills)
}

// distinctList caches slow distinct-value queries for longer than lists.
func (s *RecommendationService) distinctList(ctx context.Context, op string, query func(context.Context) ([]string, error)) ([]string, error) {
	var values []string
	cacheKey := cachePrefix + ":distinct:" + op
	found, err := s.cache.Get(ctx, cacheKey, &values)
	if err != nil {
		logger.Warn("cache get failed", map[string]interface{}{"key": cacheKey, "error": err.Error()})
	}
	if found {
		return values, nil
	}

	values, err = query(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", op, err)
	}
	if values == nil {
		values = []string{}
	}

	s.cacheSet(ctx, cacheKey, values, s.cacheCfg.DistinctListTTL)
	return values, nil
}

// =====================================================
// HELPERS
// =====================================================

func (s *RecommendationService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		logger.Warn("cache set failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// invalidate drops the record's own cache entry plus every listing cache.
func (s *RecommendationService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, model.GenerateIDCacheKey(cachePrefix, id.String())); err != nil {
		logger.Warn("cache delete failed", map[string]interface{}{"id": id.String(), "error": err.Error()})
	}
	s.invalidateLists(ctx)
}

func (s *RecommendationService) invalidateLists(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, cachePrefix+":*"); err != nil {
		logger.Warn("cache pattern delete failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *RecommendationService) wrapNotFound(err error, id uuid.UUID) error {
	if model.IsNotFound(err) {
		return model.NewNotFoundError(fmt.Sprintf("recommendation %s does not exist", id))
	}
	return err
}
