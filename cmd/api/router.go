package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"recommendations-backend/internal/shared/middleware"
	"recommendations-backend/pkg/container"

	"github.com/gin-gonic/gin"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", healthCheckHandler(c))
		v1.GET("/db-test", databaseTestHandler(c))

		setupRecommendationRoutes(v1, c)
	}

	return router
}

// ========================================
// RECOMMENDATION ROUTES
// ========================================
func setupRecommendationRoutes(v1 *gin.RouterGroup, c *container.Container) {
	h := c.RecommendationHandler

	// Public read routes
	recs := v1.Group("/recommendations")
	{
		recs.GET("", h.List)
		recs.GET("/featured", h.Featured)
		recs.GET("/latest", h.Latest)
		recs.GET("/highest-rated", h.HighestRated)
		recs.GET("/search", h.Search)
		recs.POST("/search", h.Search)
		recs.GET("/stats", h.Stats)
		recs.GET("/companies", h.Companies)
		recs.GET("/skills", h.BySkills)
		recs.GET("/skills/distinct", h.Skills)
		recs.GET("/rating/:rating", h.ByRating)
		recs.GET("/rating-range", h.ByRatingRange)
		recs.GET("/company/:company", h.ByCompany)
		recs.GET("/relationship/:relationship", h.ByRelationship)
		recs.GET("/date-range", h.ByDateRange)
		recs.GET("/:id", h.GetByID)
	}

	// Write routes require a valid access token
	protected := v1.Group("/recommendations")
	protected.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		protected.GET("/all", h.GetAll)
		protected.POST("", h.Create)
		protected.PUT("/:id", h.Update)
		protected.DELETE("/:id", h.Delete)
		protected.POST("/:id/restore", h.Restore)
		protected.POST("/:id/toggle-featured", h.ToggleFeatured)
		protected.POST("/:id/toggle-public", h.TogglePublic)
		protected.PATCH("/:id/display-order", h.UpdateDisplayOrder)
		protected.POST("/reorder", h.Reorder)
		protected.POST("/:id/image", h.UploadImage)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   getEnv("APP_VERSION", "1.0.0"),
			"services":  gin.H{},
		}

		// Check database
		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Check redis
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}

// ========================================
// DATABASE TEST HANDLER
// ========================================
func databaseTestHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Database not connected",
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var version string
		if err := appCtx.DB.Pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": fmt.Sprintf("Query failed: %v", err),
			})
			return
		}

		stats := appCtx.DB.Pool.Stat()

		c.JSON(http.StatusOK, gin.H{
			"message": "Database test successful",
			"database": gin.H{
				"postgres_version": version,
				"pool_stats": gin.H{
					"total_connections":    stats.TotalConns(),
					"idle_connections":     stats.IdleConns(),
					"acquired_connections": stats.AcquiredConns(),
					"max_connections":      stats.MaxConns(),
				},
			},
		})
	}
}
