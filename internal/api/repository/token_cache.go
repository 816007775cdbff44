package repository

//go:generate mockgen -source=token_cache.go -destination=mocks/mock_token_cache.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ctchen222/bookshelf/internal/api/models"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// TokenCache remembers which user a bearer token belongs to so that token
// resolution can skip the database. It is only a cache: the users table
// stays authoritative, and entries never contain the password hash.
type TokenCache interface {
	Get(ctx context.Context, token string) (*models.User, error)
	Set(ctx context.Context, user *models.User, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

type redisTokenCache struct {
	rdb *redis.Client
}

// NewTokenCache creates a new Redis-based TokenCache.
func NewTokenCache(rdb *redis.Client) TokenCache {
	return &redisTokenCache{rdb: rdb}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Get returns the user cached for token, or nil on a miss.
func (r *redisTokenCache) Get(ctx context.Context, token string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "TokenCache.Get")
	defer span.End()

	data, err := r.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read session from redis")
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, errors.Wrap(err, "failed to decode session")
	}
	return &user, nil
}

// Set caches the user under their current token for ttl. A non-positive ttl
// caches without expiry.
func (r *redisTokenCache) Set(ctx context.Context, user *models.User, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "TokenCache.Set")
	defer span.End()

	data, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "failed to encode session")
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.rdb.Set(ctx, sessionKey(user.Token), data, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to write session to redis")
	}
	return nil
}

// Delete evicts token from the cache.
func (r *redisTokenCache) Delete(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "TokenCache.Delete")
	defer span.End()

	if err := r.rdb.Del(ctx, sessionKey(token)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete session from redis")
	}
	return nil
}

type nopTokenCache struct{}

// NewNopTokenCache returns a TokenCache that never holds anything, used when
// Redis is not configured.
func NewNopTokenCache() TokenCache {
	return nopTokenCache{}
}

func (nopTokenCache) Get(context.Context, string) (*models.User, error) { return nil, nil }
func (nopTokenCache) Set(context.Context, *models.User, time.Duration) error { return nil }
func (nopTokenCache) Delete(context.Context, string) error { return nil }
