package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/betdesk-service/internal/models"
)

// ErrNoSnapshot is returned when no feed snapshot has been cached yet.
var ErrNoSnapshot = errors.New("no feed snapshot cached")

// snapshotKey is the single Redis key holding the latest feed snapshot.
// Every delivery overwrites it; the engine only ever evaluates the newest
// state of the feed.
const snapshotKey = "betdesk:feed:latest"

// RedisCache stores the latest feed snapshot in Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// RedisCacheConfig holds Redis cache configuration
type RedisCacheConfig struct {
	Addr     string // e.g., "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // e.g., 30 * time.Minute
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(config RedisCacheConfig, logger zerolog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisCache{
		client: client,
		ttl:    config.TTL,
		logger: logger.With().Str("component", "snapshot_cache").Logger(),
	}
}

// SetSnapshot replaces the cached feed snapshot
func (c *RedisCache) SetSnapshot(ctx context.Context, snap *models.FeedSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := c.client.Set(ctx, snapshotKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	c.logger.Debug().
		Int64("reference_timestamp", snap.ReferenceTimestamp).
		Int("opportunity_count", len(snap.Opportunities)).
		Dur("ttl", c.ttl).
		Msg("cached feed snapshot")

	return nil
}

// GetSnapshot retrieves the latest cached feed snapshot. It returns
// ErrNoSnapshot when the feed has never delivered or the entry expired.
func (c *RedisCache) GetSnapshot(ctx context.Context) (*models.FeedSnapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, ErrNoSnapshot
	} else if err != nil {
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	var snap models.FeedSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// Ping checks Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
