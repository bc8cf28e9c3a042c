package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"recommendations-backend/internal/domains/recommendation/model"
	"recommendations-backend/internal/domains/recommendation/service"
	"recommendations-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Handler - HTTP Handler (single file)
type Handler struct {
	service service.ServiceInterface
}

// NewHandler - Constructor with DI
func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// =====================================================
// HELPERS
// =====================================================

// handleError maps domain errors onto the wire error shape.
func handleError(c *gin.Context, err error) {
	var recErr *model.RecommendationError
	if errors.As(err, &recErr) {
		if recErr.Details != nil {
			response.ErrorWithDetails(c, recErr.StatusCode, recErr.Code, recErr.Message, recErr.Details)
			return
		}
		response.Error(c, recErr.StatusCode, recErr.Code, recErr.Message)
		return
	}
	if model.IsNotFound(err) {
		response.Error(c, http.StatusNotFound, model.ErrCodeNotFound, "recommendation not found")
		return
	}
	response.Error(c, http.StatusInternalServerError, "internal_error", "something went wrong")
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "invalid recommendation id")
		return uuid.Nil, false
	}
	return id, true
}

// parseFilter reads shared pagination params.
func parseFilter(c *gin.Context) model.Filter {
	filter := model.Filter{Page: 1, Limit: 20}
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		filter.Limit = l
	}
	return filter
}

func respondPublicList(c *gin.Context, result *service.PublicListResult, filter model.Filter) {
	pagination := response.NewPagination(filter.Page, filter.Limit, result.Total)
	response.Paginated(c, http.StatusOK, "Recommendations retrieved successfully", result.Items, pagination)
}

// =====================================================
// CRUD
// =====================================================

// GetAll - GET /v1/recommendations/all (admin view, includes private records)
func (h *Handler) GetAll(c *gin.Context) {
	filter := parseFilter(c)

	result, err := h.service.GetAll(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	pagination := response.NewPagination(filter.Page, filter.Limit, result.Total)
	response.Paginated(c, http.StatusOK, "Recommendations retrieved successfully", result.Items, pagination)
}

// GetByID - GET /v1/recommendations/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rec, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Recommendation retrieved successfully", rec)
}

// Create - POST /v1/recommendations
func (h *Handler) Create(c *gin.Context) {
	// 1. Bind body
	var req model.CreateRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body: "+err.Error())
		return
	}

	// 2. Service validates and persists
	rec, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Recommendation created successfully", rec)
}

// Update - PUT /v1/recommendations/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.UpdateRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body: "+err.Error())
		return
	}

	rec, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Recommendation updated successfully", rec)
}

// Delete - DELETE /v1/recommendations/:id (soft delete)
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Recommendation deleted successfully", nil)
}

// Restore - POST /v1/recommendations/:id/restore
func (h *Handler) Restore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rec, err := h.service.Restore(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Recommendation restored successfully", rec)
}

// =====================================================
// PUBLIC VIEWS
// =====================================================

// List - GET /v1/recommendations (public, condensed)
func (h *Handler) List(c *gin.Context) {
	filter := parseFilter(c)

	result, err := h.service.GetPublic(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	respondPublicList(c, result, filter)
}

// Featured - GET /v1/recommendations/featured
func (h *Handler) Featured(c *gin.Context) {
	filter := parseFilter(c)

	result, err := h.service.GetFeatured(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	respondPublicList(c, result, filter)
}

// ByRating - GET /v1/recommendations/rating/:rating
func (h *Handler) ByRating(c *gin.Context) {
	rating, err := strconv.Atoi(c.Param("rating"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "rating must be a number")
		return
	}

	filter := parseFilter(c)
	result, err := h.service.GetByRating(c.Request.Context(), rating, filter)
	if err != nil {
		handleError(c, err)
		return
	}

	respondPublicList(c, result, filter)
}

// ByRatingRange - GET /v1/recommendations/rating-range?min_rating=&max_rating=
func (h *Handler) ByRatingRange(c *gin.Context) {
	min, _ := strconv.Atoi(c.DefaultQuery("min_rating", "1"))
	max, _ := strconv.Atoi(c.DefaultQuery("max_rating", "5"))

	filter := parseFilter(c)
	result, err := h.service.GetByRatingRange(c.Request.Context(), min, max, filter)
	if err != nil {
		handleError(c, err)
		return
	}

	respondPublicList(c, result, filter)
}

// ByCompany - GET /v1/recommendations/company/:company
func (h *Handler) ByCompany(c *gin.Context) {
	filter := parseFilter(c)

	result, err := h.service.GetByCompany(c.Request.Context(), c.Param("company"), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	respondPublicList(c, result, filter)
}

// BySkills - GET /v1/recommendations/skills?skills=Go,PostgreSQL
func (h *Handler) BySkills(c *gin.Context) {
	skills := model.SplitSkills(c.Query("skills"))

	filter := parseFilter(c)
	result, err := h.service.GetBySkills(c.Request.Context(), skills, filter)
	if err != nil {
		handleError(c, err)
		return
	}

	respondPublicList(c, result, filter)
}

// ByRelationship - GET /v1/recommendations/relationship/:relationship
func (h *Handler) ByRelationship(c *gin.Context) {
	filter := parseFilter(c)

	result, err := h.service.GetByRelationship(c.Request.Context(), c.Param("relationship"), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	respondPublicList(c, result, filter)
}

// ByDateRange - GET /v1/recommendations/date-range?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) ByDateRange(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	filter := parseFilter(c)
	result, err := h.service.GetByDateRange(c.Request.Context(), from, to, filter)
	if err != nil {
		handleError(c, err)
		return
	}

	respondPublicList(c, result, filter)
}

func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	var from, to time.Time
	var err error

	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(dateLayout, v); err != nil {
			response.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "from must be YYYY-MM-DD")
			return from, to, false
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(dateLayout, v); err != nil {
			response.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "to must be YYYY-MM-DD")
			return from, to, false
		}
	}
	return from, to, true
}

// Search - GET /v1/recommendations/search?q= or POST with {"query": "..."}
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	if c.Request.Method == http.MethodPost {
		var req model.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body: "+err.Error())
			return
		}
		query = req.Query
	}

	filter := parseFilter(c)
	result, err := h.service.Search(c.Request.Context(), query, filter)
	if err != nil {
		handleError(c, err)
		return
	}

	respondPublicList(c, result, filter)
}

// Latest - GET /v1/recommendations/latest?limit=
func (h *Handler) Latest(c *gin.Context) {
	h.topList(c, h.service.GetLatest)
}

// HighestRated - GET /v1/recommendations/highest-rated?limit=
func (h *Handler) HighestRated(c *gin.Context) {
	h.topList(c, h.service.GetHighestRated)
}

func (h *Handler) topList(c *gin.Context, fetch func(ctx context.Context, limit int) ([]model.RecommendationListItem, error)) {
	limit := 5
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 50 {
		limit = l
	}

	items, err := fetch(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Recommendations retrieved successfully", items)
}

// =====================================================
// FLAGS AND ORDERING
// =====================================================

// ToggleFeatured - POST /v1/recommendations/:id/toggle-featured
func (h *Handler) ToggleFeatured(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rec, err := h.service.ToggleFeatured(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Recommendation featured flag toggled", rec)
}

// TogglePublic - POST /v1/recommendations/:id/toggle-public
func (h *Handler) TogglePublic(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rec, err := h.service.TogglePublic(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Recommendation public flag toggled", rec)
}

// UpdateDisplayOrder - PATCH /v1/recommendations/:id/display-order
func (h *Handler) UpdateDisplayOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body struct {
		DisplayOrder int `json:"display_order"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body: "+err.Error())
		return
	}

	rec, err := h.service.UpdateDisplayOrder(c.Request.Context(), id, body.DisplayOrder)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Display order updated successfully", rec)
}

// Reorder - POST /v1/recommendations/reorder
func (h *Handler) Reorder(c *gin.Context) {
	var req model.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "invalid request body: "+err.Error())
		return
	}

	if err := h.service.Reorder(c.Request.Context(), req); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Recommendations reordered successfully", nil)
}

// =====================================================
// IMAGE
// =====================================================

// UploadImage - POST /v1/recommendations/:id/image (multipart field "image")
func (h *Handler) UploadImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	// 1. Read the multipart file
	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "image file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "cannot read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeValidation, "cannot read uploaded file")
		return
	}

	// 2. Service validates, resizes and stores
	rec, err := h.service.AttachImage(c.Request.Context(), id, data)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Image uploaded successfully", rec)
}

// =====================================================
// AGGREGATES
// =====================================================

// Stats - GET /v1/recommendations/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Stats retrieved successfully", stats)
}

// Companies - GET /v1/recommendations/companies
func (h *Handler) Companies(c *gin.Context) {
	companies, err := h.service.GetDistinctCompanies(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Companies retrieved successfully", gin.H{"companies": companies})
}

// Skills - GET /v1/recommendations/skills/distinct
func (h *Handler) Skills(c *gin.Context) {
	skills, err := h.service.GetDistinctSkills(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Skills retrieved successfully", gin.H{"skills": skills})
}
