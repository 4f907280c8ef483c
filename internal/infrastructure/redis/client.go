// Package redis opens the client backing the known-external-identifier
// registry. Losing this data is recoverable (the next full fetch rebuilds
// it), so a single DB with no persistence tuning is enough.
package redis

import (
	"context"
	"fmt"
	"time"

	goRedis "github.com/redis/go-redis/v9"

	"github.com/taskmirror/backend/internal/config"
)

const pingTimeout = 5 * time.Second

// NewClient connects and pings; a dead Redis at boot is fatal since the
// soft-delete safety set would silently start empty.
func NewClient(cfg config.RedisConfig) (*goRedis.Client, error) {
	opts, err := goRedis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	client := goRedis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
