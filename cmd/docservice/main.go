package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/journee-docs/livedocs/backend/handlers"
	"github.com/journee-docs/livedocs/backend/internal/config"
	"github.com/journee-docs/livedocs/backend/internal/database"
	"github.com/journee-docs/livedocs/backend/internal/document/repository"
	"github.com/journee-docs/livedocs/backend/internal/document/service"
	"github.com/journee-docs/livedocs/backend/internal/identity"
	"github.com/journee-docs/livedocs/backend/pkg/middleware"
)

// Standalone document API without the identity provider, rooms or media
// wiring. Useful for local frontend work and integration tests; tokens are
// parsed without verification.
func main() {
	port := os.Getenv("DOC_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// Prefer the Mongo-backed repository when MONGODB_URI is provided; fall
	// back to the flat file otherwise.
	var repo repository.Repository
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		mongoCfg := config.MongoDBConfig{URI: uri, Database: os.Getenv("MONGODB_DATABASE"), Timeout: 10 * time.Second}
		client, err := database.Connect(context.Background(), mongoCfg)
		if err != nil {
			log.Printf("warning: cannot connect to MongoDB (%v) — using file-backed repo", err)
		} else {
			col := client.Database(os.Getenv("MONGODB_DATABASE")).Collection("documents")
			repo = repository.NewMongoRepo(col)
		}
	}
	if repo == nil {
		path := os.Getenv("DOCUMENTS_FILE")
		if path == "" {
			path = "data/documents.json"
		}
		fr, err := repository.NewFileRepo(path)
		if err != nil {
			log.Fatalf("cannot open document store %s: %v", path, err)
		}
		repo = fr
	}

	svc := service.New(repo, nil)
	auth := identity.NewInsecureAuthenticator()

	api := r.Group("/api", middleware.AuthMiddleware(auth))
	handlers.NewDocumentsHandler(svc, nopUsers{}).Register(api)
	handlers.NewHealthHandler(svc).Register(r)

	log.Printf("document service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

// nopUsers satisfies the identity lookup the invite route needs; without a
// real provider every email lookup misses.
type nopUsers struct{}

func (nopUsers) GetUser(ctx context.Context, id string) (*identity.User, error) {
	return nil, identity.ErrUserNotFound
}

func (nopUsers) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	return nil, identity.ErrUserNotFound
}

func (nopUsers) SearchUsers(ctx context.Context, query string, limit int) ([]identity.User, error) {
	return []identity.User{}, nil
}
