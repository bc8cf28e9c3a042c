package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recommendations-backend/internal/domains/recommendation/model"
	"recommendations-backend/internal/domains/recommendation/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService overrides only the operations a test exercises.
type stubService struct {
	service.ServiceInterface

	getPublic func(ctx context.Context, filter model.Filter) (*service.PublicListResult, error)
	getByID   func(ctx context.Context, id uuid.UUID) (*model.RecommendationResponse, error)
	create    func(ctx context.Context, req model.CreateRecommendationRequest) (*model.RecommendationResponse, error)
	stats     func(ctx context.Context) (*model.StatsResponse, error)
	toggle    func(ctx context.Context, id uuid.UUID) (*model.RecommendationResponse, error)
}

func (s *stubService) GetPublic(ctx context.Context, filter model.Filter) (*service.PublicListResult, error) {
	return s.getPublic(ctx, filter)
}

func (s *stubService) GetByID(ctx context.Context, id uuid.UUID) (*model.RecommendationResponse, error) {
	return s.getByID(ctx, id)
}

func (s *stubService) Create(ctx context.Context, req model.CreateRecommendationRequest) (*model.RecommendationResponse, error) {
	return s.create(ctx, req)
}

func (s *stubService) GetStats(ctx context.Context) (*model.StatsResponse, error) {
	return s.stats(ctx)
}

func (s *stubService) ToggleFeatured(ctx context.Context, id uuid.UUID) (*model.RecommendationResponse, error) {
	return s.toggle(ctx, id)
}

func setupRouter(svc service.ServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)

	router := gin.New()
	recs := router.Group("/api/v1/recommendations")
	{
		recs.GET("", h.List)
		recs.GET("/stats", h.Stats)
		recs.GET("/:id", h.GetByID)
		recs.POST("", h.Create)
		recs.POST("/:id/toggle-featured", h.ToggleFeatured)
	}
	return router
}

func doRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListReturnsPaginatedEnvelope(t *testing.T) {
	svc := &stubService{
		getPublic: func(ctx context.Context, filter model.Filter) (*service.PublicListResult, error) {
			assert.Equal(t, 2, filter.Page)
			assert.Equal(t, 5, filter.Limit)
			return &service.PublicListResult{
				Items: []model.RecommendationListItem{{RecommenderName: "Jordan"}},
				Total: 11,
			}, nil
		},
	}
	router := setupRouter(svc)

	w := doRequest(router, http.MethodGet, "/api/v1/recommendations?page=2&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success    bool                           `json:"success"`
		Data       []model.RecommendationListItem `json:"data"`
		Pagination struct {
			Page       int  `json:"page"`
			Limit      int  `json:"limit"`
			Total      int  `json:"total"`
			TotalPages int  `json:"total_pages"`
			HasNext    bool `json:"has_next"`
			HasPrev    bool `json:"has_prev"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Jordan", body.Data[0].RecommenderName)
	assert.Equal(t, 11, body.Pagination.Total)
	assert.Equal(t, 3, body.Pagination.TotalPages)
	assert.True(t, body.Pagination.HasNext)
	assert.True(t, body.Pagination.HasPrev)
}

func TestGetByIDInvalidUUID(t *testing.T) {
	router := setupRouter(&stubService{})

	w := doRequest(router, http.MethodGet, "/api/v1/recommendations/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error struct {
			Code       string `json:"code"`
			Message    string `json:"message"`
			StatusCode int    `json:"status_code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, http.StatusBadRequest, body.Error.StatusCode)
}

func TestGetByIDNotFound(t *testing.T) {
	svc := &stubService{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.RecommendationResponse, error) {
			return nil, model.NewNotFoundError("recommendation does not exist")
		},
	}
	router := setupRouter(svc)

	w := doRequest(router, http.MethodGet, "/api/v1/recommendations/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body struct {
		Error struct {
			Code       string `json:"code"`
			StatusCode int    `json:"status_code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error.Code)
	assert.Equal(t, http.StatusNotFound, body.Error.StatusCode)
}

func TestCreateReturnsCreated(t *testing.T) {
	svc := &stubService{
		create: func(ctx context.Context, req model.CreateRecommendationRequest) (*model.RecommendationResponse, error) {
			assert.Equal(t, "Jordan Smith", req.RecommenderName)
			assert.Equal(t, []string{"Go", "Redis"}, []string(req.SkillsMentioned))
			resp := model.ToResponse(*model.ToEntity(req))
			return &resp, nil
		},
	}
	router := setupRouter(svc)

	payload := map[string]interface{}{
		"recommender_name":    "Jordan Smith",
		"recommender_title":   "Engineering Manager",
		"recommender_company": "Acme Corp",
		"recommendation_text": strings.Repeat("Excellent work on every single deliverable. ", 2),
		"relationship":        "manager",
		"recommendation_date": "2024-01-15",
		"rating":              5,
		// Comma-string form must be coerced into a list
		"skills_mentioned": "Go, Redis",
	}
	body, _ := json.Marshal(payload)

	w := doRequest(router, http.MethodPost, "/api/v1/recommendations", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			RecommenderFullTitle string `json:"recommender_full_title"`
			RatingDisplay        string `json:"rating_display"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Engineering Manager at Acme Corp", resp.Data.RecommenderFullTitle)
	assert.Equal(t, "★★★★★", resp.Data.RatingDisplay)
}

func TestCreateValidationErrorShape(t *testing.T) {
	svc := &stubService{
		create: func(ctx context.Context, req model.CreateRecommendationRequest) (*model.RecommendationResponse, error) {
			return nil, req.Validate()
		},
	}
	router := setupRouter(svc)

	body, _ := json.Marshal(map[string]interface{}{"rating": 3})
	w := doRequest(router, http.MethodPost, "/api/v1/recommendations", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "recommender_name")
	assert.Contains(t, resp.Error.Message, "recommendation_text")
}

func TestCreateMalformedJSON(t *testing.T) {
	router := setupRouter(&stubService{})

	w := doRequest(router, http.MethodPost, "/api/v1/recommendations", []byte("{not json"))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStats(t *testing.T) {
	svc := &stubService{
		stats: func(ctx context.Context) (*model.StatsResponse, error) {
			latest := "2024-06-01"
			return &model.StatsResponse{
				TotalRecommendations: 7,
				AverageRating:        4.29,
				RatingDistribution:   map[int]int{1: 0, 2: 0, 3: 1, 4: 3, 5: 3},
				CompaniesCount:       4,
				LatestRecommendation: &latest,
			}, nil
		},
	}
	router := setupRouter(svc)

	w := doRequest(router, http.MethodGet, "/api/v1/recommendations/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			TotalRecommendations int     `json:"total_recommendations"`
			AverageRating        float64 `json:"average_rating"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Data.TotalRecommendations)
	assert.Equal(t, 4.29, resp.Data.AverageRating)
}

func TestToggleFeatured(t *testing.T) {
	id := uuid.New()
	svc := &stubService{
		toggle: func(ctx context.Context, got uuid.UUID) (*model.RecommendationResponse, error) {
			assert.Equal(t, id, got)
			return &model.RecommendationResponse{ID: got, IsFeatured: true}, nil
		},
	}
	router := setupRouter(svc)

	w := doRequest(router, http.MethodPost, "/api/v1/recommendations/"+id.String()+"/toggle-featured", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			IsFeatured bool `json:"is_featured"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.IsFeatured)
}
