package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dharmasatrya/flightdeals/internal/amadeus"
	"github.com/dharmasatrya/flightdeals/internal/cache"
	"github.com/dharmasatrya/flightdeals/internal/handler"
	"github.com/dharmasatrya/flightdeals/internal/pricing"
	"github.com/dharmasatrya/flightdeals/internal/ratelimit"
	"github.com/dharmasatrya/flightdeals/internal/scoring"
	"github.com/dharmasatrya/flightdeals/internal/search"
	"github.com/dharmasatrya/flightdeals/internal/store"
)

type Config struct {
	Port string

	AmadeusBaseURL   string
	AmadeusAPIKey    string
	AmadeusAPISecret string
	QueryTimeout     time.Duration
	FanOutWidth      int

	AIBaseURL string
	AIAPIKey  string
	AIModel   string
	AITimeout time.Duration

	DBPath string

	CacheEnabled bool
	RedisHost    string
	RedisPort    string
	RedisTTL     time.Duration
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := loadConfig()

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	rateLimiter := ratelimit.NewBackendLimiterWithDefaults()
	rateLimiter.SetBackendLimit("amadeus-offers", 20, 30)
	rateLimiter.SetBackendLimit("amadeus-inspiration", 10, 15)
	rateLimiter.SetBackendLimit("amadeus-locations", 10, 15)
	rateLimiter.SetBackendLimit("ai-scoring", 5, 10)

	dealStore, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open deal store: %v", err)
	}
	defer dealStore.Close()

	client := amadeus.NewClient(amadeus.Config{
		BaseURL:   cfg.AmadeusBaseURL,
		APIKey:    cfg.AmadeusAPIKey,
		APISecret: cfg.AmadeusAPISecret,
		Timeout:   cfg.QueryTimeout,
		Limiter:   rateLimiter,
	})

	var aiScorer scoring.Scorer
	if cfg.AIBaseURL != "" {
		aiScorer = scoring.NewAIScorer(scoring.AIConfig{
			BaseURL: cfg.AIBaseURL,
			APIKey:  cfg.AIAPIKey,
			Model:   cfg.AIModel,
			Timeout: cfg.AITimeout,
			Limiter: rateLimiter,
		})
	} else {
		log.Println("AI scoring disabled, using heuristic fallback only")
	}

	estimator := pricing.NewEstimator(dealStore, cfg.QueryTimeout)
	engine := scoring.NewEngine(aiScorer, dealStore, cfg.AITimeout)

	orchestrator := search.NewOrchestrator(client, estimator, engine, search.Config{
		QueryTimeout: cfg.QueryTimeout,
		FanOutWidth:  cfg.FanOutWidth,
	})

	var dealCache cache.Cache
	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Host: cfg.RedisHost,
			Port: cfg.RedisPort,
			TTL:  cfg.RedisTTL,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		dealCache = redisCache
		log.Printf("Redis cache enabled (host: %s:%s, TTL: %v)", cfg.RedisHost, cfg.RedisPort, cfg.RedisTTL)
	} else {
		dealCache = cache.NewNoOpCache()
		log.Println("Cache disabled")
	}
	defer dealCache.Close()

	searchHandler := handler.NewSearchHandler(orchestrator, dealCache, dealStore)
	airportsHandler := handler.NewAirportsHandler(client)

	api := e.Group("/api/v1")
	api.POST("/deals/search", searchHandler.Search)
	api.GET("/deals/top", searchHandler.TopDeals)
	api.GET("/airports", airportsHandler.Autocomplete)
	e.GET("/health", handler.HealthHandler)

	log.Printf("Starting flight deals server on port %s", cfg.Port)

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func loadConfig() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		AmadeusBaseURL:   getEnv("AMADEUS_BASE_URL", "https://test.api.amadeus.com"),
		AmadeusAPIKey:    getEnv("AMADEUS_API_KEY", ""),
		AmadeusAPISecret: getEnv("AMADEUS_API_SECRET", ""),
		QueryTimeout:     getEnvDuration("QUERY_TIMEOUT", 20*time.Second),
		FanOutWidth:      getEnvInt("FANOUT_WIDTH", 6),

		AIBaseURL: getEnv("AI_BASE_URL", ""),
		AIAPIKey:  getEnv("AI_API_KEY", ""),
		AIModel:   getEnv("AI_MODEL", "llama-3"),
		AITimeout: getEnvDuration("AI_TIMEOUT", 30*time.Second),

		DBPath: getEnv("DB_PATH", "flightdeals.db"),

		CacheEnabled: getEnvBool("CACHE_ENABLED", false),
		RedisHost:    getEnv("REDIS_HOST", "localhost"),
		RedisPort:    getEnv("REDIS_PORT", "6379"),
		RedisTTL:     getEnvDuration("REDIS_TTL", 5*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
