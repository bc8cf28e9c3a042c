package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =====================================================
// LIST FILTER
// =====================================================

// Filter narrows recommendation listings. Zero values mean "not set".
type Filter struct {
	PublicOnly     bool
	FeaturedOnly   bool
	IncludeDeleted bool
	Rating         int
	MinRating      int
	MaxRating      int
	Company        string
	Relationship   string
	Skills         []string
	Search         string
	DateFrom       time.Time
	DateTo         time.Time
	Page           int
	Limit          int
}

// WithDefaults clamps pagination to sane values.
func (f Filter) WithDefaults() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}

// Offset returns the row offset for the current page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// =====================================================
// CACHE KEYS
// =====================================================

// GenerateCacheKey builds a short stable key from the filter.
func GenerateCacheKey(prefix string, f Filter) string {
	parts := []string{
		prefix,
		strconv.FormatBool(f.PublicOnly),
		strconv.FormatBool(f.FeaturedOnly),
		strconv.FormatBool(f.IncludeDeleted),
		strconv.Itoa(f.Rating),
		strconv.Itoa(f.MinRating),
		strconv.Itoa(f.MaxRating),
		f.Company,
		f.Relationship,
		strings.Join(f.Skills, ","),
		f.Search,
		f.DateFrom.Format(dateLayout),
		f.DateTo.Format(dateLayout),
		strconv.Itoa(f.Page),
		strconv.Itoa(f.Limit),
	}
	// Hash this to create a short cache key
	keyStr := strings.Join(parts, ":")
	return fmt.Sprintf("%s:%x", prefix, hashString(keyStr))
}

// GenerateIDCacheKey builds the key for a single record.
func GenerateIDCacheKey(prefix, id string) string {
	return fmt.Sprintf("%s:id:%s", prefix, id)
}

// Helper: Hash string to integer
func hashString(s string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(s); i++ {
		h = ((h << 5) + h) + uint32(s[i])
	}
	return h
}

// =====================================================
// MAPPERS
// =====================================================

// ToEntity builds a new Recommendation from a create request.
// Call after Validate; display order is assigned by the service when absent.
func ToEntity(req CreateRecommendationRequest) *Recommendation {
	rec := &Recommendation{
		RecommenderName:     strings.TrimSpace(req.RecommenderName),
		RecommenderTitle:    strings.TrimSpace(req.RecommenderTitle),
		RecommenderCompany:  strings.TrimSpace(req.RecommenderCompany),
		RecommenderLocation: strings.TrimSpace(req.RecommenderLocation),
		RecommendationText:  strings.TrimSpace(req.RecommendationText),
		Relationship:        strings.TrimSpace(req.Relationship),
		ProjectContext:      strings.TrimSpace(req.ProjectContext),
		LinkedinURL:         strings.TrimSpace(req.LinkedinURL),
		Email:               strings.TrimSpace(req.Email),
		RecommendationDate:  req.ParsedDate(),
		Rating:              req.Rating,
		SkillsMentioned:     req.SkillsMentioned.Normalized(),
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
	if req.IsFeatured != nil {
		rec.IsFeatured = *req.IsFeatured
	}
	if req.IsPublic != nil {
		rec.IsPublic = *req.IsPublic
	} else {
		rec.IsPublic = true
	}
	if req.DisplayOrder != nil {
		rec.DisplayOrder = *req.DisplayOrder
	}
	return rec
}

// ApplyUpdate overwrites every updatable field on an existing record.
func ApplyUpdate(rec *Recommendation, req UpdateRecommendationRequest) {
	rec.RecommenderName = strings.TrimSpace(req.RecommenderName)
	rec.RecommenderTitle = strings.TrimSpace(req.RecommenderTitle)
	rec.RecommenderCompany = strings.TrimSpace(req.RecommenderCompany)
	rec.RecommenderLocation = strings.TrimSpace(req.RecommenderLocation)
	rec.RecommendationText = strings.TrimSpace(req.RecommendationText)
	rec.Relationship = strings.TrimSpace(req.Relationship)
	rec.ProjectContext = strings.TrimSpace(req.ProjectContext)
	rec.LinkedinURL = strings.TrimSpace(req.LinkedinURL)
	rec.Email = strings.TrimSpace(req.Email)
	rec.RecommendationDate = req.ParsedDate()
	rec.Rating = req.Rating
	rec.SkillsMentioned = req.SkillsMentioned.Normalized()
	if req.IsFeatured != nil {
		rec.IsFeatured = *req.IsFeatured
	}
	if req.IsPublic != nil {
		rec.IsPublic = *req.IsPublic
	}
	if req.DisplayOrder != nil {
		rec.DisplayOrder = *req.DisplayOrder
	}
	rec.UpdatedAt = time.Now()
}

// ToResponse maps an entity to the full response with derived values.
func ToResponse(rec Recommendation) RecommendationResponse {
	skills := rec.SkillsMentioned
	if skills == nil {
		skills = []string{}
	}
	return RecommendationResponse{
		ID:                   rec.ID,
		RecommenderName:      rec.RecommenderName,
		RecommenderTitle:     rec.RecommenderTitle,
		RecommenderCompany:   rec.RecommenderCompany,
		RecommenderLocation:  rec.RecommenderLocation,
		RecommendationText:   rec.RecommendationText,
		Relationship:         rec.Relationship,
		ProjectContext:       rec.ProjectContext,
		LinkedinURL:          rec.LinkedinURL,
		Email:                rec.Email,
		RecommendationDate:   rec.RecommendationDate.Format(dateLayout),
		Rating:               rec.Rating,
		RatingDisplay:        rec.RatingDisplay(),
		IsFeatured:           rec.IsFeatured,
		IsPublic:             rec.IsPublic,
		DisplayOrder:         rec.DisplayOrder,
		SkillsMentioned:      skills,
		SkillsDisplay:        rec.SkillsDisplay(),
		RecommenderFullTitle: rec.RecommenderFullTitle(),
		ShortRecommendation:  rec.ShortRecommendation(),
		RecommenderImageURL:  rec.RecommenderImageURL,
		CreatedAt:            rec.CreatedAt,
		UpdatedAt:            rec.UpdatedAt,
		IsDeleted:            rec.IsDeleted,
		DeletedAt:            rec.DeletedAt,
	}
}

// ToResponseList maps a slice of entities to full responses.
func ToResponseList(recs []Recommendation) []RecommendationResponse {
	result := make([]RecommendationResponse, 0, len(recs))
	for _, rec := range recs {
		result = append(result, ToResponse(rec))
	}
	return result
}

// ToListItem maps an entity to the condensed public listing DTO.
func ToListItem(rec Recommendation) RecommendationListItem {
	return RecommendationListItem{
		ID:                  rec.ID,
		RecommenderName:     rec.RecommenderName,
		RecommenderTitle:    rec.RecommenderTitle,
		RecommenderCompany:  rec.RecommenderCompany,
		RecommenderLocation: rec.RecommenderLocation,
		RecommendationDate:  rec.RecommendationDate.Format(dateLayout),
		Rating:              rec.Rating,
		RatingStars:         rec.RatingDisplay(),
		RecommendationText:  rec.RecommendationText,
		LinkedinURL:         rec.LinkedinURL,
	}
}

// ToListItems maps a slice of entities to condensed listing DTOs.
func ToListItems(recs []Recommendation) []RecommendationListItem {
	result := make([]RecommendationListItem, 0, len(recs))
	for _, rec := range recs {
		result = append(result, ToListItem(rec))
	}
	return result
}
