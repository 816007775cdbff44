package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient creates a Redis client and pings it to make sure the server
// is reachable. conn is either a redis:// URL or a host:port address.
func NewRedisClient(ctx context.Context, conn string) (*redis.Client, error) {
	opts := &redis.Options{Addr: conn}
	if strings.Contains(conn, "://") {
		parsed, err := redis.ParseURL(conn)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis connection string: %w", err)
		}
		opts = parsed
	}
	client := redis.NewClient(opts)

	// Ping the server to ensure the connection is established.
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}

	return client, nil
}
