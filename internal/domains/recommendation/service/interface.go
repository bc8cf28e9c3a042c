package service

import (
	"context"
	"time"

	"recommendations-backend/internal/domains/recommendation/model"

	"github.com/google/uuid"
)

// ListResult pairs a page of items with the total row count.
type ListResult struct {
	Items []model.RecommendationResponse `json:"items"`
	Total int                            `json:"total"`
}

// PublicListResult is the condensed variant for public listings.
type PublicListResult struct {
	Items []model.RecommendationListItem `json:"items"`
	Total int                            `json:"total"`
}

// ServiceInterface defines the recommendation business operations.
type ServiceInterface interface {
	// CRUD
	GetAll(ctx context.Context, filter model.Filter) (*ListResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.RecommendationResponse, error)
	Create(ctx context.Context, req model.CreateRecommendationRequest) (*model.RecommendationResponse, error)
	Update(ctx context.Context, id uuid.UUID, req model.UpdateRecommendationRequest) (*model.RecommendationResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) (*model.RecommendationResponse, error)

	// Public views
	GetPublic(ctx context.Context, filter model.Filter) (*PublicListResult, error)
	GetFeatured(ctx context.Context, filter model.Filter) (*PublicListResult, error)
	GetByRating(ctx context.Context, rating int, filter model.Filter) (*PublicListResult, error)
	GetByRatingRange(ctx context.Context, min, max int, filter model.Filter) (*PublicListResult, error)
	GetByCompany(ctx context.Context, company string, filter model.Filter) (*PublicListResult, error)
	GetBySkills(ctx context.Context, skills []string, filter model.Filter) (*PublicListResult, error)
	GetByRelationship(ctx context.Context, relationship string, filter model.Filter) (*PublicListResult, error)
	GetByDateRange(ctx context.Context, from, to time.Time, filter model.Filter) (*PublicListResult, error)
	Search(ctx context.Context, query string, filter model.Filter) (*PublicListResult, error)
	GetLatest(ctx context.Context, limit int) ([]model.RecommendationListItem, error)
	GetHighestRated(ctx context.Context, limit int) ([]model.RecommendationListItem, error)

	// Flags and ordering
	ToggleFeatured(ctx context.Context, id uuid.UUID) (*model.RecommendationResponse, error)
	TogglePublic(ctx context.Context, id uuid.UUID) (*model.RecommendationResponse, error)
	UpdateDisplayOrder(ctx context.Context, id uuid.UUID, order int) (*model.RecommendationResponse, error)
	Reorder(ctx context.Context, req model.ReorderRequest) error

	// Image
	AttachImage(ctx context.Context, id uuid.UUID, data []byte) (*model.RecommendationResponse, error)

	// Aggregates
	GetStats(ctx context.Context) (*model.StatsResponse, error)
	GetDistinctCompanies(ctx context.Context) ([]string, error)
	GetDistinctSkills(ctx context.Context) ([]string, error)
}
