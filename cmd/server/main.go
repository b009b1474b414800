package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/suteetoe/metacore/internal/audit"
	"github.com/suteetoe/metacore/internal/cache"
	"github.com/suteetoe/metacore/internal/handler"
	"github.com/suteetoe/metacore/internal/middleware"
	"github.com/suteetoe/metacore/internal/model"
	"github.com/suteetoe/metacore/internal/registry"
	"github.com/suteetoe/metacore/internal/tenant"
	"github.com/suteetoe/metacore/pkg/config"
	"github.com/suteetoe/metacore/pkg/database"
	"github.com/suteetoe/metacore/pkg/jwtutil"
	"github.com/suteetoe/metacore/pkg/logger"
	"github.com/suteetoe/metacore/pkg/metrics"
	"github.com/suteetoe/metacore/prometheus"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found or error loading: %v\n", err)
	}

	// Load configuration
	conf, err := config.Load("metacore")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.Info("Configuration loaded", conf.LogConfig()...)

	// Initialize database connection
	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// Run migrations
	if err := database.MigrateModels(
		&model.Tenant{},
		&model.DynamicObject{},
		&model.DynamicObjectField{},
		&model.AuditLogEntry{},
		&model.ChangeHistoryEntry{},
	); err != nil {
		log.Fatal("Failed to migrate database models")
	}

	// Select the cache backend
	var store cache.Store
	if conf.Cache.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Cache.RedisAddr,
			Password: conf.Cache.RedisPassword,
			DB:       conf.Cache.RedisDB,
		})
		store = cache.NewRedisStore(client)
	} else {
		store = cache.NewMemoryStore(conf.Cache.CleanupInterval)
	}
	tenantCache := cache.NewTenantCache(store, conf.Cache.AbsoluteTTL, conf.Cache.SlidingTTL)

	// Wire the core components
	catalog := tenant.NewCatalog(db)
	resolver := tenant.NewResolver(conf.Tenancy.AdminHost, catalog)
	auditStore := audit.NewStore(db)
	recorder := audit.NewRecorder(auditStore)
	objectService := registry.NewObjectService(registry.NewObjectStore(db), tenantCache, recorder)
	fieldService := registry.NewFieldService(registry.NewObjectStore(db), registry.NewFieldStore(db), tenantCache, recorder)

	tenantHandler := handler.NewTenantHandler(catalog, recorder)
	objectHandler := handler.NewObjectHandler(objectService)
	fieldHandler := handler.NewFieldHandler(objectService, fieldService)
	auditHandler := handler.NewAuditHandler(auditStore)

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      conf.JWT.SigningKey,
		ExpirationHours: conf.JWT.ExpirationHours,
	})

	// Initialize HTTP metrics
	httpMetrics := metrics.NewHTTPMetrics(conf.ServiceName)

	// Initialize Echo framework
	e := echo.New()

	// Apply middleware
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	// Endpoints outside tenant resolution
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	resolved := e.Group("", middleware.TenantResolutionMiddleware(resolver))

	// Tenant administration - system-admin host only
	admin := resolved.Group("/tenants",
		middleware.RequireSystemAdmin(),
		middleware.JWTAuthMiddleware(jwt))
	admin.POST("", tenantHandler.Register)
	admin.GET("", tenantHandler.List)
	admin.GET("/:id", tenantHandler.Get)
	admin.DELETE("/:id", tenantHandler.Deactivate)

	// Registry - requires an active tenant
	objects := resolved.Group("/objects",
		middleware.RequireTenant(),
		middleware.JWTAuthMiddleware(jwt))
	objects.POST("", objectHandler.Create)
	objects.GET("/:key", objectHandler.GetByKey)
	objects.PUT("/:id", objectHandler.Update)
	objects.DELETE("/:id", objectHandler.Delete)
	objects.GET("/:key/fields", fieldHandler.List)
	objects.POST("/:key/fields", fieldHandler.Add)

	fields := resolved.Group("/fields",
		middleware.RequireTenant(),
		middleware.JWTAuthMiddleware(jwt))
	fields.PUT("/:id", fieldHandler.Update)
	fields.DELETE("/:id", fieldHandler.Delete)

	// Audit reads - available to tenants and system admin
	auditGroup := resolved.Group("/audit", middleware.JWTAuthMiddleware(jwt))
	auditGroup.GET("/events", auditHandler.Events)
	auditGroup.GET("/changes", auditHandler.Changes)

	// Start server
	log.Info("Starting metacore on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
