package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/CyberPidgi/rentiful/internal/cache"
	"github.com/CyberPidgi/rentiful/internal/config"
	"github.com/CyberPidgi/rentiful/internal/database"
	"github.com/CyberPidgi/rentiful/internal/handlers"
	"github.com/CyberPidgi/rentiful/internal/middleware"
	"github.com/CyberPidgi/rentiful/internal/ratelimit"
	"github.com/CyberPidgi/rentiful/internal/scheduler"
	"github.com/CyberPidgi/rentiful/internal/search"
)

var (
	db           *database.DB
	searchClient *search.SearchClient
	rowCache     *cache.Cache
	appConfig    *config.Config
	rateLimiter  *ratelimit.RateLimiter
	appScheduler *scheduler.Scheduler
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	// Load configuration
	configPath := config.GetEnv("CONFIG_PATH", "config/rentiful.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}
	appConfig.ApplyEnv()

	loc, err := time.LoadLocation(appConfig.Timezone)
	if err != nil {
		log.Printf("Warning: unknown timezone %q, using UTC", appConfig.Timezone)
		loc = time.UTC
	}

	db, err = database.NewDB(appConfig.Database.Postgres, appConfig.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Keyword search is optional; handlers answer 503 without it
	var keywordIndex handlers.KeywordIndex
	var indexer scheduler.Indexer
	if meili := appConfig.Search.Meilisearch; meili.Enabled {
		searchClient = search.NewSearchClient(meili.Host, meili.APIKey, meili.Index)
		if err := searchClient.InitIndex(); err != nil {
			log.Printf("Warning: Failed to initialize search index: %v", err)
		}
		keywordIndex = searchClient
		indexer = searchClient
		log.Printf("Meilisearch enabled host=%s index=%s", meili.Host, meili.Index)
	}

	rowCache = cache.NewRedisCache(appConfig.Cache.Redis)
	if rowCache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rowCache.Ping(ctx); err != nil {
			log.Printf("Warning: Redis unavailable, search cache disabled: %v", err)
			rowCache.Close()
			rowCache = nil
		} else {
			log.Printf("Search cache enabled addr=%s ttl=%s", appConfig.Cache.Redis.Addr, appConfig.Cache.Redis.GetTTL())
		}
		cancel()
	}

	rateLimiter = ratelimit.NewRateLimiter(appConfig.RateLimit)
	log.Printf("Rate limiter initialized: %d req/min, %d req/hour (enabled: %v)",
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)

	go func() {
		for range time.Tick(time.Hour) {
			if n := rateLimiter.Prune(); n > 0 {
				log.Printf("[Rate Limit] pruned idle callers=%d", n)
			}
		}
	}()

	appScheduler = scheduler.NewScheduler(db, indexer, appConfig.Scheduler, loc)
	if err := appScheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start scheduler: %v", err)
	}
	defer appScheduler.Stop()

	// Setup Gin router
	var r *gin.Engine
	if appConfig.Logging.LogRequests {
		r = gin.Default()
	} else {
		r = gin.New()
		r.Use(gin.Recovery())
	}
	r.Use(middleware.RequestID())

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     appConfig.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID},
		AllowCredentials: true,
	}))

	var rows handlers.RowCache
	if rowCache != nil {
		rows = rowCache
	}
	properties := handlers.NewPropertyHandler(db, keywordIndex, rows)
	properties.SetRadiusKm(appConfig.Search.RadiusKm)

	var reindexer handlers.Reindexer
	if indexer != nil {
		reindexer = appScheduler
	}

	handlers.RegisterRoutes(r, handlers.Routes{
		Auth:       middleware.NewTokenParser(appConfig.Auth),
		Limiter:    rateLimiter,
		Properties: properties,
		Tenants:    handlers.NewTenantHandler(db),
		Managers:   handlers.NewManagerHandler(db),
		Leases:     handlers.NewLeaseHandler(db, rows),
		Admin:      handlers.NewAdminHandler(db, reindexer, rateLimiter),
	})

	port := appConfig.Server.Port
	if port == "" {
		port = config.GetEnv("PORT", "8080")
	}
	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
