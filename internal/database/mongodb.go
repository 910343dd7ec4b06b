package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/journee-docs/livedocs/backend/internal/config"
	"github.com/journee-docs/livedocs/backend/pkg/logger"
)

// Connect dials the configured deployment and verifies it with a ping. The
// caller owns the returned client and must Disconnect it on shutdown.
func Connect(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("dial mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	logger.Debugf("mongodb connection established (db=%s)", cfg.Database)
	return client, nil
}
