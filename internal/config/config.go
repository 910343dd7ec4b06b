package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Documents  DocumentsConfig
	MongoDB    MongoDBConfig
	Redis      RedisConfig
	Clerk      ClerkConfig
	Liveblocks LiveblocksConfig
	FAQ        FAQConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	FrontendURL  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DocumentsConfig selects and parameterizes the document repository.
// Backend is "file" (default) or "mongo".
type DocumentsConfig struct {
	Backend string
	File    string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ClerkConfig configures the identity provider client and token verifier.
type ClerkConfig struct {
	SecretKey     string
	APIURL        string
	Issuer        string // OIDC issuer (the Clerk frontend API URL)
	WebhookSecret string
	UserCacheTTL  time.Duration
}

// LiveblocksConfig configures the realtime room provider.
type LiveblocksConfig struct {
	SecretKey     string
	APIURL        string
	WebhookSecret string
}

type FAQConfig struct {
	ExternalURL string
	Timeout     time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("DOCUMENTS_BACKEND", "file")
	viper.SetDefault("DOCUMENTS_FILE", "data/documents.json")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("CLERK_API_URL", "https://api.clerk.com/v1")
	viper.SetDefault("CLERK_USER_CACHE_TTL", 300)
	viper.SetDefault("FAQ_TIMEOUT", 8)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			FrontendURL:  viper.GetString("FRONTEND_URL"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Documents: DocumentsConfig{
			Backend: viper.GetString("DOCUMENTS_BACKEND"),
			File:    viper.GetString("DOCUMENTS_FILE"),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		Clerk: ClerkConfig{
			SecretKey:     os.Getenv("CLERK_SECRET_KEY"),
			APIURL:        viper.GetString("CLERK_API_URL"),
			Issuer:        viper.GetString("CLERK_JWT_ISSUER"),
			WebhookSecret: os.Getenv("CLERK_WEBHOOK_SECRET"),
			UserCacheTTL:  time.Duration(viper.GetInt("CLERK_USER_CACHE_TTL")) * time.Second,
		},
		Liveblocks: LiveblocksConfig{
			SecretKey:     os.Getenv("LIVEBLOCKS_SECRET_KEY"),
			APIURL:        viper.GetString("LIVEBLOCKS_API_URL"),
			WebhookSecret: os.Getenv("LIVEBLOCKS_WEBHOOK_SECRET"),
		},
		FAQ: FAQConfig{
			ExternalURL: viper.GetString("FAQ_EXTERNAL_URL"),
			Timeout:     time.Duration(viper.GetInt("FAQ_TIMEOUT")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	// Basic validation
	if cfg.Clerk.SecretKey == "" {
		log.Println("WARNING: CLERK_SECRET_KEY is not set; identity lookups will fail")
	}
	if cfg.Liveblocks.SecretKey == "" {
		log.Println("WARNING: LIVEBLOCKS_SECRET_KEY is not set; room sync is disabled")
	}

	return cfg, nil
}
