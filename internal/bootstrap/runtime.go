// Package bootstrap wires the process-level dependencies shared by the
// server and the admin CLI.
package bootstrap

import (
	"context"
	"fmt"

	"scribe/internal/cache"
	"scribe/internal/config"
	"scribe/internal/database"
	"scribe/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedGroups upserts the bundled group fixtures after connecting.
	SeedGroups bool
}

// InitRuntime connects to the database and Redis. The Redis client is nil
// when REDIS_URL is empty or unreachable. On error nothing is left open.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.SeedGroups {
		if _, err := seed.Groups(db.WithContext(ctx), seed.DefaultGroups()); err != nil {
			closeDB(db)
			return nil, nil, fmt.Errorf("failed to seed groups: %w", err)
		}
	}

	cache.InitRedis(cfg.RedisURL)
	return db, cache.GetClient(), nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
