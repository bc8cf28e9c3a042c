package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recommendation represents a professional recommendation entity.
type Recommendation struct {
	ID uuid.UUID `json:"id"`

	// Recommender
	RecommenderName     string `json:"recommender_name"`
	RecommenderTitle    string `json:"recommender_title"`
	RecommenderCompany  string `json:"recommender_company"`
	RecommenderLocation string `json:"recommender_location"`

	// Content
	RecommendationText string   `json:"recommendation_text"`
	Relationship       string   `json:"relationship"`
	ProjectContext     string   `json:"project_context"`
	Rating             int      `json:"rating"` // 1-5
	SkillsMentioned    []string `json:"skills_mentioned"`

	// Contact
	LinkedinURL string `json:"linkedin_url"`
	Email       string `json:"email"`

	// Media (the asset itself lives in object storage)
	RecommenderImageURL string `json:"recommender_image_url"`

	// Visibility & ordering
	RecommendationDate time.Time `json:"recommendation_date"`
	IsFeatured         bool      `json:"is_featured"`
	IsPublic           bool      `json:"is_public"`
	DisplayOrder       int       `json:"display_order"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Soft delete
	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// ShortRecommendation returns the text truncated to 150 characters,
// with an ellipsis appended only when truncation actually happened.
func (r *Recommendation) ShortRecommendation() string {
	runes := []rune(r.RecommendationText)
	if len(runes) <= 150 {
		return r.RecommendationText
	}
	return string(runes[:150]) + "..."
}

// RecommenderFullTitle returns "{title} at {company}".
func (r *Recommendation) RecommenderFullTitle() string {
	return r.RecommenderTitle + " at " + r.RecommenderCompany
}

// RatingDisplay returns the rating as stars, always 5 glyphs.
func (r *Recommendation) RatingDisplay() string {
	return strings.Repeat("★", r.Rating) + strings.Repeat("☆", 5-r.Rating)
}

// SkillsDisplay returns skills as a comma-separated string.
func (r *Recommendation) SkillsDisplay() string {
	return strings.Join(r.SkillsMentioned, ", ")
}

// SoftDelete marks the record deleted.
func (r *Recommendation) SoftDelete(now time.Time) {
	r.IsDeleted = true
	r.DeletedAt = &now
}

// Restore clears the soft-delete marker.
func (r *Recommendation) Restore() {
	r.IsDeleted = false
	r.DeletedAt = nil
}
