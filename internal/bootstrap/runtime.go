// Package bootstrap wires the process-level dependencies shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"avatio/internal/cache"
	"avatio/internal/config"
	"avatio/internal/database"
	"avatio/internal/middleware"
	"avatio/internal/observability"
	"avatio/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs AutoMigrate after connecting.
	ApplySchema bool
	// Tracing installs the OpenTelemetry provider described by the config.
	Tracing bool
	// ServiceName labels traces; defaults to "avatio-api".
	ServiceName string
}

// Runtime holds the connections a command needs.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	// Redis is nil when the server is unreachable. The cache, rate limits
	// and real-time push are disabled then.
	Redis *redis.Client
	Store storage.ObjectStore

	shutdownTracing func(context.Context) error
}

// InitRuntime connects to the database, Redis and the object store.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	rt := &Runtime{Config: cfg}

	if opts.Tracing {
		name := opts.ServiceName
		if name == "" {
			name = "avatio-api"
		}
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    name,
			ServiceVersion: "1.0",
			Environment:    cfg.Env,
			Enabled:        cfg.TracingEnabled,
			Exporter:       cfg.TracingExporter,
			OTLPEndpoint:   cfg.TracingEndpoint,
			SamplerRatio:   cfg.TracingSampleRatio,
		})
		if err != nil {
			return nil, fmt.Errorf("tracing init failed: %w", err)
		}
		rt.shutdownTracing = shutdown
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt.DB = db

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db); err != nil {
			rt.Close(ctx)
			return nil, err
		}
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("object store init failed: %w", err)
	}
	rt.Store = store

	rt.Redis = cache.NewRedisClient(cfg.RedisURL)
	if cfg.StorageDriver == config.StorageDriverMemory {
		middleware.Logger.Warn("using the in-memory object store; uploads are lost on restart")
	}
	return rt, nil
}

// Close releases every connection. It is safe on a partially built Runtime.
func (rt *Runtime) Close(ctx context.Context) {
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", "error", err)
		}
	}
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				middleware.Logger.Error("error closing sql DB", "error", err)
			}
		}
	}
	if rt.shutdownTracing != nil {
		if err := rt.shutdownTracing(ctx); err != nil {
			middleware.Logger.Error("error shutting down tracer", "error", err)
		}
	}
}
