package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"recommendations-backend/internal/config"
	recHandler "recommendations-backend/internal/domains/recommendation/handler"
	recRepo "recommendations-backend/internal/domains/recommendation/repository"
	recService "recommendations-backend/internal/domains/recommendation/service"
	infraCache "recommendations-backend/internal/infrastructure/cache"
	"recommendations-backend/internal/infrastructure/database"
	"recommendations-backend/internal/infrastructure/storage"
	"recommendations-backend/pkg/cache"
	"recommendations-backend/pkg/jwt"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds every application dependency.
// It is the root of the dependency graph.
type Container struct {
	// Infrastructure - shared singletons
	Config     *config.Config
	DB         *database.PostgresDB
	Cache      cache.Cache
	JWTManager *jwt.Manager
	Storage    *storage.MinIOStorage

	// Data access
	RecommendationRepo recRepo.RepositoryInterface

	// Business logic
	RecommendationService recService.ServiceInterface

	// HTTP
	RecommendationHandler *recHandler.Handler
}

// NewContainer builds the whole dependency graph.
//
// Initialization order matters:
// 1. Config (depends on nothing)
// 2. Infrastructure (DB, cache, object storage) - depends on config
// 3. Repositories - depend on infrastructure
// 4. Services - depend on repositories
// 5. Handlers - depend on services
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")
	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	log.Println("📋 Loading configuration...")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s)", cfg.App.Environment)

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	log.Println("🗄️  Connecting to PostgreSQL...")

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	log.Println("✅ Database connected")

	// ========================================
	// STEP 3: INITIALIZE CACHE
	// ========================================
	log.Println("🔴 Connecting to Redis...")

	redisCache := infraCache.NewRedisCache(
		cfg.Redis.Host,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)

	if rc, ok := redisCache.(*infraCache.RedisCache); ok {
		if err := rc.Connect(context.Background()); err != nil {
			// Redis failure is not fatal: the service degrades to DB-only reads
			log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
		} else {
			log.Println("✅ Redis connected")
		}
	}
	c.Cache = redisCache

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)

	// ========================================
	// STEP 4: INITIALIZE OBJECT STORAGE
	// ========================================
	log.Println("🪣 Connecting to MinIO...")

	minioStorage, err := storage.NewMinIOStorage(cfg.MinIO)
	if err != nil {
		return nil, fmt.Errorf("failed to init object storage: %w", err)
	}
	c.Storage = minioStorage
	log.Println("✅ Object storage ready")

	// ========================================
	// STEP 5: REPOSITORIES
	// ========================================
	log.Println("📦 Initializing repositories...")
	c.RecommendationRepo = recRepo.NewPostgresRepository(c.DB.Pool)
	log.Println("✅ Repositories initialized")

	// ========================================
	// STEP 6: SERVICES
	// ========================================
	log.Println("⚙️  Initializing services...")
	c.RecommendationService = recService.NewService(
		c.RecommendationRepo,
		c.Cache,
		c.Storage,
		storage.NewImageProcessor(),
		cfg.Cache,
	)
	log.Println("✅ Services initialized")

	// ========================================
	// STEP 7: HANDLERS
	// ========================================
	log.Println("🎯 Initializing handlers...")
	c.RecommendationHandler = recHandler.NewHandler(c.RecommendationService)
	log.Println("✅ Handlers initialized")

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

// Cleanup releases infrastructure connections in reverse init order.
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container...")

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Printf("⚠️  Redis close failed: %v", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Printf("⚠️  Database close failed: %v", err)
		}
	}

	log.Println("✅ Container cleaned up")
}
