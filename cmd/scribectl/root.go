package main

import (
	"context"
	"fmt"

	"scribe/internal/bootstrap"
	"scribe/internal/config"
	"scribe/internal/database"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "scribectl",
	Short:         "Administer a Scribe installation",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// runtime is what a command needs to talk to the installation.
type runtime struct {
	cfg *config.Config
	db  *gorm.DB
	rdb *redis.Client
}

func (r *runtime) close() {
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if r.rdb != nil {
		_ = r.rdb.Close()
	}
}

// openRuntime loads configuration and connects with the configured schema policy applied.
func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, db: db, rdb: rdb}, nil
}

// openDatabase connects without touching the schema.
func openDatabase() (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{})
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, db: db}, nil
}
