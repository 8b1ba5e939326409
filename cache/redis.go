package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/tenancy"
	"github.com/xraph/tenancy/id"
)

// Compile-time interface check.
var _ tenancy.Cache = (*Redis)(nil)

// DefaultKeyPrefix prefixes every key written by the Redis cache.
const DefaultKeyPrefix = "tenancy:memberships:"

// Redis is a membership cache shared between processes. Cache failures are
// logged and treated as misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// RedisOption configures the Redis cache.
type RedisOption func(*Redis)

// WithRedisTTL sets the cache entry time-to-live.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithKeyPrefix sets the key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithLogger sets the logger used for cache failures.
func WithLogger(l *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = l }
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		ttl:    5 * time.Minute,
		prefix: DefaultKeyPrefix,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRedisFromURL creates a Redis cache from a redis:// URL.
func NewRedisFromURL(redisURL string, opts ...RedisOption) (*Redis, error) {
	o, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return NewRedis(redis.NewClient(o), opts...), nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// GetMemberships returns the cached tenant IDs of a user.
func (r *Redis) GetMemberships(ctx context.Context, userID id.UserID) ([]string, bool) {
	val, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.logger.Warn("cache get failed", slog.String("user", userID.String()), slog.String("error", err.Error()))
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(val, &ids); err != nil {
		r.logger.Warn("cache entry corrupt", slog.String("user", userID.String()), slog.String("error", err.Error()))
		return nil, false
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, true
}

// SetMemberships stores the tenant IDs of a user.
func (r *Redis) SetMemberships(ctx context.Context, userID id.UserID, tenantIDs []string) {
	if tenantIDs == nil {
		tenantIDs = []string{}
	}
	val, err := json.Marshal(tenantIDs)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.key(userID), val, r.ttl).Err(); err != nil {
		r.logger.Warn("cache set failed", slog.String("user", userID.String()), slog.String("error", err.Error()))
	}
}

// InvalidateUser removes the cached memberships of a user.
func (r *Redis) InvalidateUser(ctx context.Context, userID id.UserID) {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		r.logger.Warn("cache invalidate failed", slog.String("user", userID.String()), slog.String("error", err.Error()))
	}
}

func (r *Redis) key(userID id.UserID) string {
	return r.prefix + userID.String()
}
