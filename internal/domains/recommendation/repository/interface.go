package repository

import (
	"context"
	"time"

	"recommendations-backend/internal/domains/recommendation/model"

	"github.com/google/uuid"
)

// RepositoryInterface defines the data access methods for recommendations.
type RepositoryInterface interface {
	// Generic CRUD
	GetAll(ctx context.Context, filter model.Filter) ([]model.Recommendation, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Recommendation, error)
	Create(ctx context.Context, rec *model.Recommendation) (uuid.UUID, error)
	Update(ctx context.Context, rec *model.Recommendation) error
	Delete(ctx context.Context, id uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error
	Restore(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Count(ctx context.Context, filter model.Filter) (int, error)

	// Domain queries
	GetPublic(ctx context.Context, filter model.Filter) ([]model.Recommendation, int, error)
	GetFeatured(ctx context.Context, filter model.Filter) ([]model.Recommendation, int, error)
	GetByRating(ctx context.Context, rating int, filter model.Filter) ([]model.Recommendation, int, error)
	GetByRatingRange(ctx context.Context, min, max int, filter model.Filter) ([]model.Recommendation, int, error)
	GetByCompany(ctx context.Context, company string, filter model.Filter) ([]model.Recommendation, int, error)
	GetBySkills(ctx context.Context, skills []string, filter model.Filter) ([]model.Recommendation, int, error)
	GetByRelationship(ctx context.Context, relationship string, filter model.Filter) ([]model.Recommendation, int, error)
	GetByDateRange(ctx context.Context, from, to time.Time, filter model.Filter) ([]model.Recommendation, int, error)
	Search(ctx context.Context, query string, filter model.Filter) ([]model.Recommendation, int, error)
	GetLatest(ctx context.Context, limit int) ([]model.Recommendation, error)
	GetHighestRated(ctx context.Context, limit int) ([]model.Recommendation, error)

	// Flags and ordering
	SetFeatured(ctx context.Context, id uuid.UUID, featured bool) error
	SetPublic(ctx context.Context, id uuid.UUID, public bool) error
	UpdateDisplayOrder(ctx context.Context, id uuid.UUID, order int) error
	BulkUpdateDisplayOrder(ctx context.Context, items []model.ReorderItem) error
	MaxDisplayOrder(ctx context.Context) (int, error)

	// Image
	UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL string) error

	// Aggregates
	GetStats(ctx context.Context) (*model.Stats, error)
	GetDistinctCompanies(ctx context.Context) ([]string, error)
	GetDistinctSkills(ctx context.Context) ([]string, error)
}
