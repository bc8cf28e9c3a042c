package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// =====================================================
// SKILLS LIST
// =====================================================

// SkillsList accepts either a JSON array of strings or a single
// comma-separated string, which is normalized into a list.
// Any other JSON type is rejected.
type SkillsList []string

func (s *SkillsList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = SplitSkills(single)
		return nil
	}

	return fmt.Errorf("skills_mentioned must be a list of strings")
}

// SplitSkills normalizes a comma-separated string into a skill list:
// split on commas, trim whitespace, drop empty tokens.
func SplitSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			skills = append(skills, trimmed)
		}
	}
	return skills
}

// Normalized trims each entry, drops empties and truncates entries to
// MaxSkillLength characters. Idempotent on already-clean input.
func (s SkillsList) Normalized() []string {
	cleaned := make([]string, 0, len(s))
	for _, skill := range s {
		trimmed := strings.TrimSpace(skill)
		if trimmed == "" {
			continue
		}
		runes := []rune(trimmed)
		if len(runes) > MaxSkillLength {
			trimmed = string(runes[:MaxSkillLength])
		}
		cleaned = append(cleaned, trimmed)
	}
	return cleaned
}

// =====================================================
// REQUEST DTOs
// =====================================================

// CreateRecommendationRequest carries the extended field subset for creation.
type CreateRecommendationRequest struct {
	RecommenderName     string     `json:"recommender_name"`
	RecommenderTitle    string     `json:"recommender_title"`
	RecommenderCompany  string     `json:"recommender_company"`
	RecommenderLocation string     `json:"recommender_location"`
	RecommendationText  string     `json:"recommendation_text"`
	Relationship        string     `json:"relationship"`
	ProjectContext      string     `json:"project_context"`
	LinkedinURL         string     `json:"linkedin_url"`
	Email               string     `json:"email"`
	RecommendationDate  string     `json:"recommendation_date"` // YYYY-MM-DD
	Rating              int        `json:"rating"`
	IsFeatured          *bool      `json:"is_featured"`
	IsPublic            *bool      `json:"is_public"`
	DisplayOrder        *int       `json:"display_order"`
	SkillsMentioned     SkillsList `json:"skills_mentioned"`
}

// requiredFields maps enumerated required field names to a presence check.
func (r CreateRecommendationRequest) missingFields() []string {
	required := []struct {
		name    string
		present bool
	}{
		{"recommender_name", r.RecommenderName != ""},
		{"recommender_title", r.RecommenderTitle != ""},
		{"recommender_company", r.RecommenderCompany != ""},
		{"recommendation_text", r.RecommendationText != ""},
		{"relationship", r.Relationship != ""},
		{"recommendation_date", r.RecommendationDate != ""},
		{"rating", r.Rating != 0},
	}

	var missing []string
	for _, f := range required {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Validate enforces field-level rules. Missing required fields are
// reported together in a single message, not one at a time.
func (r CreateRecommendationRequest) Validate() error {
	if missing := r.missingFields(); len(missing) > 0 {
		return NewValidationError("Missing required fields: " + strings.Join(missing, ", "))
	}
	return validateFields(
		r.RecommendationText, r.LinkedinURL, r.Email,
		r.RecommendationDate, r.Rating, r.SkillsMentioned, r.DisplayOrder,
	)
}

// ParsedDate returns the recommendation date. Call after Validate.
func (r CreateRecommendationRequest) ParsedDate() time.Time {
	t, _ := time.Parse(dateLayout, r.RecommendationDate)
	return t
}

// UpdateRecommendationRequest carries the same extended subset for full update.
type UpdateRecommendationRequest struct {
	RecommenderName     string     `json:"recommender_name"`
	RecommenderTitle    string     `json:"recommender_title"`
	RecommenderCompany  string     `json:"recommender_company"`
	RecommenderLocation string     `json:"recommender_location"`
	RecommendationText  string     `json:"recommendation_text"`
	Relationship        string     `json:"relationship"`
	ProjectContext      string     `json:"project_context"`
	LinkedinURL         string     `json:"linkedin_url"`
	Email               string     `json:"email"`
	RecommendationDate  string     `json:"recommendation_date"`
	Rating              int        `json:"rating"`
	IsFeatured          *bool      `json:"is_featured"`
	IsPublic            *bool      `json:"is_public"`
	DisplayOrder        *int       `json:"display_order"`
	SkillsMentioned     SkillsList `json:"skills_mentioned"`
}

func (r UpdateRecommendationRequest) Validate() error {
	create := CreateRecommendationRequest(r)
	return create.Validate()
}

func (r UpdateRecommendationRequest) ParsedDate() time.Time {
	t, _ := time.Parse(dateLayout, r.RecommendationDate)
	return t
}

// validateFields holds the rules shared by create and update.
func validateFields(text, linkedin, email, date string, rating int, skills SkillsList, displayOrder *int) error {
	s := struct {
		Text         string
		Linkedin     string
		Email        string
		Date         string
		Rating       int
		Skills       SkillsList
		DisplayOrder *int
	}{text, linkedin, email, date, rating, skills, displayOrder}

	err := validation.ValidateStruct(&s,
		validation.Field(&s.Rating,
			validation.Min(MinRating).Error("rating must be between 1 and 5"),
			validation.Max(MaxRating).Error("rating must be between 1 and 5"),
		),
		validation.Field(&s.Text,
			validation.By(validateTextLength),
		),
		validation.Field(&s.Date,
			validation.Date(dateLayout).Error("recommendation_date must be YYYY-MM-DD").
				Max(time.Now()).RangeError("recommendation date cannot be in the future"),
		),
		validation.Field(&s.Linkedin,
			validation.By(validateLinkedinURL),
		),
		validation.Field(&s.Email,
			validation.When(s.Email != "", is.Email.Error("invalid email format")),
		),
		validation.Field(&s.Skills,
			validation.Length(0, MaxSkills).Error("maximum 20 skills allowed"),
		),
		validation.Field(&s.DisplayOrder,
			validation.By(validateDisplayOrder),
		),
	)
	if err != nil {
		if errs, ok := err.(validation.Errors); ok {
			return NewValidationErrorWithDetails(flattenErrors(errs), errs)
		}
		return NewValidationError(err.Error())
	}
	return nil
}

func validateTextLength(value interface{}) error {
	text := strings.TrimSpace(value.(string))
	runes := []rune(text)
	if len(runes) < MinTextLength {
		return fmt.Errorf("recommendation text must be at least %d characters long", MinTextLength)
	}
	if len(runes) > MaxTextLength {
		return fmt.Errorf("recommendation text cannot exceed %d characters", MaxTextLength)
	}
	return nil
}

func validateLinkedinURL(value interface{}) error {
	url := value.(string)
	if url == "" {
		return nil
	}
	if !strings.HasPrefix(url, LinkedinPrefix) && !strings.HasPrefix(url, LinkedinWWWPrefix) {
		return fmt.Errorf("please provide a valid LinkedIn profile URL")
	}
	return nil
}

func validateDisplayOrder(value interface{}) error {
	order, _ := value.(*int)
	if order == nil {
		return nil
	}
	if *order < 0 {
		return fmt.Errorf("display_order must be non-negative")
	}
	return nil
}

// flattenErrors joins every violated rule into one message so the caller
// sees all problems at once.
func flattenErrors(errs validation.Errors) string {
	parts := make([]string, 0, len(errs))
	for field, err := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.ToLower(field), err.Error()))
	}
	return strings.Join(parts, "; ")
}

// SearchRequest carries the free-text search query.
type SearchRequest struct {
	Query string `json:"query"`
}

func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return NewValidationError("Missing required fields: query")
	}
	return nil
}

// ReorderItem assigns a new display order to one record.
type ReorderItem struct {
	ID           uuid.UUID `json:"id"`
	DisplayOrder int       `json:"display_order"`
}

// ReorderRequest carries the bulk display-order update.
type ReorderRequest struct {
	Items []ReorderItem `json:"items"`
}

func (r ReorderRequest) Validate() error {
	if len(r.Items) == 0 {
		return NewValidationError("Missing required fields: items")
	}
	for _, item := range r.Items {
		if item.ID == uuid.Nil {
			return NewValidationError("every reorder item needs an id")
		}
		if item.DisplayOrder < 0 {
			return NewValidationError("display_order must be non-negative")
		}
	}
	return nil
}

// RatingRangeRequest bounds a rating query.
type RatingRangeRequest struct {
	MinRating int `form:"min_rating"`
	MaxRating int `form:"max_rating"`
}

func (r *RatingRangeRequest) Validate() error {
	if r.MinRating == 0 {
		r.MinRating = MinRating
	}
	if r.MaxRating == 0 {
		r.MaxRating = MaxRating
	}
	if r.MinRating < MinRating || r.MaxRating > MaxRating || r.MinRating > r.MaxRating {
		return NewValidationError("rating range must be within 1 and 5")
	}
	return nil
}

// =====================================================
// RESPONSE DTOs
// =====================================================

// RecommendationResponse is the full field subset with all derived values.
type RecommendationResponse struct {
	ID                   uuid.UUID `json:"id"`
	RecommenderName      string    `json:"recommender_name"`
	RecommenderTitle     string    `json:"recommender_title"`
	RecommenderCompany   string    `json:"recommender_company"`
	RecommenderLocation  string    `json:"recommender_location"`
	RecommendationText   string    `json:"recommendation_text"`
	Relationship         string    `json:"relationship"`
	ProjectContext       string    `json:"project_context"`
	LinkedinURL          string    `json:"linkedin_url"`
	Email                string    `json:"email"`
	RecommendationDate   string    `json:"recommendation_date"`
	Rating               int       `json:"rating"`
	RatingDisplay        string    `json:"rating_display"`
	IsFeatured           bool      `json:"is_featured"`
	IsPublic             bool      `json:"is_public"`
	DisplayOrder         int       `json:"display_order"`
	SkillsMentioned      []string  `json:"skills_mentioned"`
	SkillsDisplay        string    `json:"skills_display"`
	RecommenderFullTitle string    `json:"recommender_full_title"`
	ShortRecommendation  string    `json:"short_recommendation"`
	RecommenderImageURL  string    `json:"recommender_image_url"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
	IsDeleted            bool      `json:"is_deleted"`
	DeletedAt            *time.Time `json:"deleted_at"`
}

// RecommendationListItem is the condensed subset for public listings.
type RecommendationListItem struct {
	ID                  uuid.UUID `json:"id"`
	RecommenderName     string    `json:"recommender_name"`
	RecommenderTitle    string    `json:"recommender_title"`
	RecommenderCompany  string    `json:"recommender_company"`
	RecommenderLocation string    `json:"recommender_location"`
	RecommendationDate  string    `json:"recommendation_date"`
	Rating              int       `json:"rating"`
	RatingStars         string    `json:"rating_stars"`
	RecommendationText  string    `json:"recommendation_text"`
	LinkedinURL         string    `json:"linkedin_url"`
}

// StatsResponse summarizes the public collection.
type StatsResponse struct {
	TotalRecommendations    int         `json:"total_recommendations"`
	FeaturedRecommendations int         `json:"featured_recommendations"`
	AverageRating           float64     `json:"average_rating"`
	RatingDistribution      map[int]int `json:"rating_distribution"`
	CompaniesCount          int         `json:"companies_count"`
	LatestRecommendation    *string     `json:"latest_recommendation"` // YYYY-MM-DD, absent when empty
}
