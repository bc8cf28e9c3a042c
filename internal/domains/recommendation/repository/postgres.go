package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recommendations-backend/internal/domains/recommendation/model"
	"recommendations-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresRepository - Raw SQL with pgxpool
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository - Constructor
func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

const recommendationColumns = `
	id, recommender_name, recommender_title, recommender_company, recommender_location,
	recommendation_text, relationship, project_context, linkedin_url, email,
	recommendation_date, rating, is_featured, is_public, display_order,
	skills_mentioned, recommender_image_url,
	is_deleted, deleted_at, created_at, updated_at`

// defaultOrder keeps listings stable: explicit ordering first, newest after.
const defaultOrder = `display_order ASC, recommendation_date DESC, created_at DESC`

func scanRecommendation(row pgx.Row) (*model.Recommendation, error) {
	var rec model.Recommendation
	err := row.Scan(
		&rec.ID, &rec.RecommenderName, &rec.RecommenderTitle, &rec.RecommenderCompany, &rec.RecommenderLocation,
		&rec.RecommendationText, &rec.Relationship, &rec.ProjectContext, &rec.LinkedinURL, &rec.Email,
		&rec.RecommendationDate, &rec.Rating, &rec.IsFeatured, &rec.IsPublic, &rec.DisplayOrder,
		&rec.SkillsMentioned, &rec.RecommenderImageURL,
		&rec.IsDeleted, &rec.DeletedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ============================================
// WHERE CLAUSE BUILDER
// ============================================

// buildWhereClause translates a filter into SQL conditions and args.
// Soft-deleted rows are excluded unless IncludeDeleted is set.
func (r *postgresRepository) buildWhereClause(filter model.Filter) (string, []interface{}) {
	conditions := []string{"TRUE"}
	if !filter.IncludeDeleted {
		conditions = []string{"is_deleted = FALSE"}
	}
	args := []interface{}{}
	argIndex := 1

	if filter.PublicOnly {
		conditions = append(conditions, "is_public = TRUE")
	}
	if filter.FeaturedOnly {
		conditions = append(conditions, "is_featured = TRUE")
	}
	if filter.Rating > 0 {
		conditions = append(conditions, fmt.Sprintf("rating = $%d", argIndex))
		args = append(args, filter.Rating)
		argIndex++
	}
	if filter.MinRating > 0 {
		conditions = append(conditions, fmt.Sprintf("rating >= $%d", argIndex))
		args = append(args, filter.MinRating)
		argIndex++
	}
	if filter.MaxRating > 0 {
		conditions = append(conditions, fmt.Sprintf("rating <= $%d", argIndex))
		args = append(args, filter.MaxRating)
		argIndex++
	}
	if filter.Company != "" {
		conditions = append(conditions, fmt.Sprintf("recommender_company ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Company+"%")
		argIndex++
	}
	if filter.Relationship != "" {
		conditions = append(conditions, fmt.Sprintf("relationship ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Relationship+"%")
		argIndex++
	}
	if len(filter.Skills) > 0 {
		// Overlap: at least one requested skill present
		conditions = append(conditions, fmt.Sprintf("skills_mentioned && $%d", argIndex))
		args = append(args, filter.Skills)
		argIndex++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(recommender_name ILIKE $%d OR recommender_company ILIKE $%d OR recommender_title ILIKE $%d"+
				" OR relationship ILIKE $%d OR project_context ILIKE $%d OR recommendation_text ILIKE $%d"+
				" OR array_to_string(skills_mentioned, ',') ILIKE $%d)",
			argIndex, argIndex, argIndex, argIndex, argIndex, argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}
	if !filter.DateFrom.IsZero() {
		conditions = append(conditions, fmt.Sprintf("recommendation_date >= $%d", argIndex))
		args = append(args, filter.DateFrom)
		argIndex++
	}
	if !filter.DateTo.IsZero() {
		conditions = append(conditions, fmt.Sprintf("recommendation_date <= $%d", argIndex))
		args = append(args, filter.DateTo)
		argIndex++
	}

	return strings.Join(conditions, " AND "), args
}

func (r *postgresRepository) getCount(ctx context.Context, whereClause string, args []interface{}) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM recommendations WHERE %s`, whereClause)

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return total, nil
}

// executeListQuery runs a paginated list query and collects rows.
func (r *postgresRepository) executeListQuery(ctx context.Context, filter model.Filter) ([]model.Recommendation, int, error) {
	filter = filter.WithDefaults()
	whereClause, args := r.buildWhereClause(filter)

	total, err := r.getCount(ctx, whereClause, args)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM recommendations
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, recommendationColumns, whereClause, defaultOrder, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list query failed: %w", err)
	}
	defer rows.Close()

	recs := make([]model.Recommendation, 0, filter.Limit)
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan failed: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return recs, total, nil
}

// ============================================
// GENERIC CRUD
// ============================================

func (r *postgresRepository) GetAll(ctx context.Context, filter model.Filter) ([]model.Recommendation, int, error) {
	return r.executeListQuery(ctx, filter)
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Recommendation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM recommendations
		WHERE id = $1 AND is_deleted = FALSE
	`, recommendationColumns)

	rec, err := scanRecommendation(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get by id failed: %w", err)
	}
	return rec, nil
}

func (r *postgresRepository) Create(ctx context.Context, rec *model.Recommendation) (uuid.UUID, error) {
	query := `
		INSERT INTO recommendations (
			recommender_name, recommender_title, recommender_company, recommender_location,
			recommendation_text, relationship, project_context, linkedin_url, email,
			recommendation_date, rating, is_featured, is_public, display_order,
			skills_mentioned, recommender_image_url, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id
	`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query,
		rec.RecommenderName, rec.RecommenderTitle, rec.RecommenderCompany, rec.RecommenderLocation,
		rec.RecommendationText, rec.Relationship, rec.ProjectContext, rec.LinkedinURL, rec.Email,
		rec.RecommendationDate, rec.Rating, rec.IsFeatured, rec.IsPublic, rec.DisplayOrder,
		rec.SkillsMentioned, rec.RecommenderImageURL, rec.CreatedAt, rec.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, translateConstraint(err, "create failed")
	}
	return id, nil
}

func (r *postgresRepository) Update(ctx context.Context, rec *model.Recommendation) error {
	query := `
		UPDATE recommendations SET
			recommender_name = $2, recommender_title = $3, recommender_company = $4,
			recommender_location = $5, recommendation_text = $6, relationship = $7,
			project_context = $8, linkedin_url = $9, email = $10,
			recommendation_date = $11, rating = $12, is_featured = $13, is_public = $14,
			display_order = $15, skills_mentioned = $16, recommender_image_url = $17,
			updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`

	tag, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.RecommenderName, rec.RecommenderTitle, rec.RecommenderCompany,
		rec.RecommenderLocation, rec.RecommendationText, rec.Relationship,
		rec.ProjectContext, rec.LinkedinURL, rec.Email,
		rec.RecommendationDate, rec.Rating, rec.IsFeatured, rec.IsPublic,
		rec.DisplayOrder, rec.SkillsMentioned, rec.RecommenderImageURL,
	)
	if err != nil {
		return translateConstraint(err, "update failed")
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM recommendations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error {
	query := `
		UPDATE recommendations
		SET is_deleted = TRUE, deleted_at = $2, updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, id, deletedAt)
	if err != nil {
		return fmt.Errorf("soft delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Restore(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE recommendations
		SET is_deleted = FALSE, deleted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND is_deleted = TRUE
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM recommendations WHERE id = $1 AND is_deleted = FALSE)`
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists query failed: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) Count(ctx context.Context, filter model.Filter) (int, error) {
	whereClause, args := r.buildWhereClause(filter)
	return r.getCount(ctx, whereClause, args)
}

// ============================================
// DOMAIN QUERIES
// ============================================

func (r *postgresRepository) GetPublic(ctx context.Context, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	return r.executeListQuery(ctx, filter)
}

func (r *postgresRepository) GetFeatured(ctx context.Context, filter model.Filter) ([]model.Recommendation, int, error) {
	// Featured listings only ever expose public records
	filter.PublicOnly = true
	filter.FeaturedOnly = true
	return r.executeListQuery(ctx, filter)
}

func (r *postgresRepository) GetByRating(ctx context.Context, rating int, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	filter.Rating = rating
	return r.executeListQuery(ctx, filter)
}

func (r *postgresRepository) GetByRatingRange(ctx context.Context, min, max int, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	filter.MinRating = min
	filter.MaxRating = max
	return r.executeListQuery(ctx, filter)
}

func (r *postgresRepository) GetByCompany(ctx context.Context, company string, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	filter.Company = company
	return r.executeListQuery(ctx, filter)
}

func (r *postgresRepository) GetBySkills(ctx context.Context, skills []string, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	filter.Skills = skills
	return r.executeListQuery(ctx, filter)
}

func (r *postgresRepository) GetByRelationship(ctx context.Context, relationship string, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	filter.Relationship = relationship
	return r.executeListQuery(ctx, filter)
}

func (r *postgresRepository) GetByDateRange(ctx context.Context, from, to time.Time, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	filter.DateFrom = from
	filter.DateTo = to
	return r.executeListQuery(ctx, filter)
}

func (r *postgresRepository) Search(ctx context.Context, query string, filter model.Filter) ([]model.Recommendation, int, error) {
	filter.PublicOnly = true
	filter.Search = query
	return r.executeListQuery(ctx, filter)
}

func (r *postgresRepository) GetLatest(ctx context.Context, limit int) ([]model.Recommendation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM recommendations
		WHERE is_deleted = FALSE AND is_public = TRUE
		ORDER BY recommendation_date DESC, created_at DESC
		LIMIT $1
	`, recommendationColumns)

	return r.queryList(ctx, query, limit)
}

func (r *postgresRepository) GetHighestRated(ctx context.Context, limit int) ([]model.Recommendation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM recommendations
		WHERE is_deleted = FALSE AND is_public = TRUE
		ORDER BY rating DESC, recommendation_date DESC
		LIMIT $1
	`, recommendationColumns)

	return r.queryList(ctx, query, limit)
}

func (r *postgresRepository) queryList(ctx context.Context, query string, args ...interface{}) ([]model.Recommendation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var recs []model.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return recs, nil
}

// ============================================
// FLAGS AND ORDERING
// ============================================

func (r *postgresRepository) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) error {
	return r.setFlag(ctx, id, "is_featured", featured)
}

func (r *postgresRepository) SetPublic(ctx context.Context, id uuid.UUID, public bool) error {
	return r.setFlag(ctx, id, "is_public", public)
}

func (r *postgresRepository) setFlag(ctx context.Context, id uuid.UUID, column string, value bool) error {
	query := fmt.Sprintf(`
		UPDATE recommendations
		SET %s = $2, updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`, column)

	tag, err := r.pool.Exec(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("set %s failed: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) UpdateDisplayOrder(ctx context.Context, id uuid.UUID, order int) error {
	query := `
		UPDATE recommendations
		SET display_order = $2, updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, id, order)
	if err != nil {
		return fmt.Errorf("update display order failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// BulkUpdateDisplayOrder applies all reorder items in one transaction.
// Either every item is applied or none are.
func (r *postgresRepository) BulkUpdateDisplayOrder(ctx context.Context, items []model.ReorderItem) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, item := range items {
			batch.Queue(`
				UPDATE recommendations
				SET display_order = $2, updated_at = NOW()
				WHERE id = $1 AND is_deleted = FALSE
			`, item.ID, item.DisplayOrder)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for _, item := range items {
			tag, err := results.Exec()
			if err != nil {
				return fmt.Errorf("reorder %s failed: %w", item.ID, err)
			}
			if tag.RowsAffected() == 0 {
				return model.ErrNotFound
			}
		}
		return nil
	})
}

func (r *postgresRepository) MaxDisplayOrder(ctx context.Context) (int, error) {
	var max int
	query := `SELECT COALESCE(MAX(display_order), 0) FROM recommendations WHERE is_deleted = FALSE`
	if err := r.pool.QueryRow(ctx, query).Scan(&max); err != nil {
		return 0, fmt.Errorf("max display order failed: %w", err)
	}
	return max, nil
}

// ============================================
// IMAGE
// ============================================

func (r *postgresRepository) UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	query := `
		UPDATE recommendations
		SET recommender_image_url = $2, updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, id, imageURL)
	if err != nil {
		return fmt.Errorf("update image url failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ============================================
// AGGREGATES
// ============================================

// GetStats computes the summary over public, non-deleted records.
func (r *postgresRepository) GetStats(ctx context.Context) (*model.Stats, error) {
	stats := &model.Stats{RatingDistribution: make(map[int]int)}

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_featured),
			COALESCE(AVG(rating), 0),
			COUNT(DISTINCT recommender_company),
			MAX(recommendation_date)
		FROM recommendations
		WHERE is_deleted = FALSE AND is_public = TRUE
	`
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Total, &stats.Featured, &stats.AverageRating,
		&stats.CompaniesCount, &stats.LatestDate,
	)
	if err != nil {
		return nil, fmt.Errorf("stats query failed: %w", err)
	}

	distQuery := `
		SELECT rating, COUNT(*)
		FROM recommendations
		WHERE is_deleted = FALSE AND is_public = TRUE
		GROUP BY rating
	`
	rows, err := r.pool.Query(ctx, distQuery)
	if err != nil {
		return nil, fmt.Errorf("rating distribution query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		stats.RatingDistribution[rating] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return stats, nil
}

func (r *postgresRepository) GetDistinctCompanies(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT recommender_company
		FROM recommendations
		WHERE is_deleted = FALSE AND is_public = TRUE
		ORDER BY recommender_company
	`
	return r.queryStrings(ctx, query)
}

func (r *postgresRepository) GetDistinctSkills(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT skill
		FROM recommendations, unnest(skills_mentioned) AS skill
		WHERE is_deleted = FALSE AND is_public = TRUE
		ORDER BY skill
	`
	return r.queryStrings(ctx, query)
}

func (r *postgresRepository) queryStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return values, nil
}

// translateConstraint maps check/unique violations to validation errors
// so callers respond 400 instead of 500.
func translateConstraint(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return model.NewValidationError("duplicate value: " + pgErr.ConstraintName)
		case "23514": // check_violation
			return model.NewValidationError("constraint violated: " + pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
