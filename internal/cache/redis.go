// Package cache provides the Redis client and the entity cache built on it.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"avatio/internal/middleware"
	"avatio/internal/observability"

	"github.com/redis/go-redis/v9"
)

// errorCounter counts failed commands per command name. A miss (redis.Nil)
// is not a failure.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		return count(cmd.Name(), next(ctx, cmd))
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		return count("pipeline", next(ctx, cmds))
	}
}

func count(name string, err error) error {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrorRate.WithLabelValues(name).Inc()
	}
	return err
}

// NewRedisClient connects to addr, which may be host:port or a redis:// URL.
// It returns nil when Redis is unreachable; callers run without a cache then.
func NewRedisClient(addr string) *redis.Client {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			middleware.Logger.Warn("invalid REDIS_URL, continuing without cache", "addr", addr, "error", err)
			return nil
		}
		opts = parsed
	}
	opts.DialTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	client.AddHook(errorCounter{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("redis unreachable, continuing without cache", "error", err)
		_ = client.Close()
		return nil
	}
	middleware.Logger.Info("redis connected", "addr", opts.Addr, "db", opts.DB)
	return client
}
