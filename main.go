package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/journee-docs/livedocs/backend/handlers"
	"github.com/journee-docs/livedocs/backend/internal/config"
	"github.com/journee-docs/livedocs/backend/internal/database"
	"github.com/journee-docs/livedocs/backend/internal/document/repository"
	"github.com/journee-docs/livedocs/backend/internal/document/service"
	"github.com/journee-docs/livedocs/backend/internal/identity"
	"github.com/journee-docs/livedocs/backend/internal/rooms"
	"github.com/journee-docs/livedocs/backend/internal/storage"
	"github.com/journee-docs/livedocs/backend/pkg/logger"
	"github.com/journee-docs/livedocs/backend/pkg/metrics"
	"github.com/journee-docs/livedocs/backend/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: backend=%s clerk=%v liveblocks=%v redis=%v",
		cfg.Documents.Backend, cfg.Clerk.SecretKey != "", cfg.Liveblocks.SecretKey != "", cfg.Redis.Host != "")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS for the editor frontend. Production deployments sit
	// behind a stricter proxy policy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.Server.FrontendURL)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Connect to Redis early so both the rate limiter and the user cache can
	// use it when configured.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Identity provider: Clerk REST client, optionally wrapped in a Redis cache.
	var users identity.Provider = identity.NewClerkClient(cfg.Clerk.SecretKey, cfg.Clerk.APIURL)
	if redisClient != nil {
		users = identity.NewCachedProvider(users, redisClient, cfg.Clerk.UserCacheTTL)
	}

	// Token verification: OIDC against the Clerk issuer when configured,
	// shared-secret tokens for development, or unverified claims parsing for
	// integration tests (ALLOW_INSECURE_TOKEN=true).
	var auth identity.Authenticator
	if cfg.Clerk.Issuer != "" {
		a, err := identity.NewOIDCAuthenticator(ctx, cfg.Clerk.Issuer, users)
		if err != nil {
			logger.Warnf("failed to initialize OIDC authenticator: %v", err)
		} else {
			auth = a
		}
	}
	if auth == nil {
		if secret := os.Getenv("DEV_JWT_SECRET"); secret != "" {
			logger.Warnf("using shared-secret token verification (development mode)")
			auth = identity.NewDevAuthenticator(secret)
		} else if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
			logger.Warnf("enabling insecure token parsing (integration mode)")
			auth = identity.NewInsecureAuthenticator()
		}
	}
	if auth == nil {
		logger.Fatalf("no token verifier available: set CLERK_JWT_ISSUER, DEV_JWT_SECRET or ALLOW_INSECURE_TOKEN")
	}

	// Document repository: flat file by default, MongoDB when configured.
	var repo repository.Repository
	var mongoClient *mongo.Client
	if cfg.Documents.Backend == "mongo" && cfg.MongoDB.URI != "" {
		// Retry with backoff to tolerate container startup races.
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.Connect(ctx, cfg.MongoDB)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		}
		defer func() { _ = mongoClient.Disconnect(ctx) }()
		col := mongoClient.Database(cfg.MongoDB.Database).Collection("documents")
		repo = repository.NewMongoRepo(col)
		logger.Infof("using MongoDB document store (db=%s)", cfg.MongoDB.Database)
	} else {
		fr, err := repository.NewFileRepo(cfg.Documents.File)
		if err != nil {
			logger.Fatalf("failed to open document store %s: %v", cfg.Documents.File, err)
		}
		repo = fr
		logger.Infof("using file document store at %s", cfg.Documents.File)
	}

	// Realtime room provider. Without a secret the document service runs
	// standalone and skips room sync.
	var roomsClient *rooms.Client
	var syncer service.Syncer
	if cfg.Liveblocks.SecretKey != "" {
		roomsClient = rooms.NewClient(cfg.Liveblocks.SecretKey, cfg.Liveblocks.APIURL)
		syncer = roomsClient
	}
	docSvc := service.New(repo, syncer)

	// Media storage is optional; upload routes are mounted only when the
	// object store is reachable.
	var media *storage.MediaStorage
	if mcfg := storage.LoadMinIOConfig(); mcfg.Endpoint != "" {
		m, err := storage.NewMediaStorage(mcfg)
		if err != nil {
			logger.Warnf("media storage unavailable: %v", err)
		} else {
			media = m
			logger.Infof("media storage ready (bucket=%s)", mcfg.Bucket)
		}
	}

	// Public surface: health/readiness/stats, webhooks, FAQ.
	healthH := handlers.NewHealthHandler(docSvc)
	healthH.Register(r)

	public := r.Group("/api")
	handlers.NewWebhooksHandler(cfg.Liveblocks.WebhookSecret, cfg.Clerk.WebhookSecret).Register(public)
	handlers.NewFAQHandler(cfg.FAQ.ExternalURL, cfg.FAQ.Timeout).Register(public)

	// Authenticated surface.
	api := r.Group("/api", middleware.AuthMiddleware(auth))
	docsH := handlers.NewDocumentsHandler(docSvc, users)
	if roomsClient != nil {
		docsH.WithInviteNotifier(roomsClient)
	}
	docsH.Register(api)
	handlers.NewUsersHandler(users).Register(api)
	if roomsClient != nil {
		handlers.NewNotificationsHandler(roomsClient).Register(api)
	}
	if media != nil {
		handlers.NewUploadsHandler(media).Register(api)
	}

	// Prometheus metrics
	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("listening on %s (started %s)", addr, startTime.Format(time.RFC3339))
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
