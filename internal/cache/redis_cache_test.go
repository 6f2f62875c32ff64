package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/betdesk-service/internal/models"
)

// testRedisCacheSetup is a helper struct to hold test dependencies
type testRedisCacheSetup struct {
	cache     *RedisCache
	miniRedis *miniredis.Miniredis
	ctx       context.Context
}

// setupTestRedisCache creates a test cache with miniredis
func setupTestRedisCache(t *testing.T) *testRedisCacheSetup {
	// Create miniredis server
	mr, err := miniredis.Run()
	require.NoError(t, err)

	logger := zerolog.Nop()

	config := RedisCacheConfig{
		Addr:     mr.Addr(),
		Password: "",
		DB:       0,
		TTL:      30 * time.Minute,
	}

	cache := NewRedisCache(config, logger)
	ctx := context.Background()

	return &testRedisCacheSetup{
		cache:     cache,
		miniRedis: mr,
		ctx:       ctx,
	}
}

// cleanup cleans up test resources
func (s *testRedisCacheSetup) cleanup() {
	s.cache.Close()
	s.miniRedis.Close()
}

// testSnapshot builds a snapshot with the given reference timestamp
func testSnapshot(ref int64) *models.FeedSnapshot {
	return &models.FeedSnapshot{
		ReferenceTimestamp: ref,
		Opportunities: []models.Opportunity{
			{
				ID:          "opp-1",
				MatchName:   "Arsenal vs Chelsea",
				MarketType:  "totals",
				Selection:   "Over",
				Line:        decimal.NewNullDecimal(decimal.NewFromFloat(2.5)),
				OfferedOdds: decimal.NewFromFloat(2.10),
				FairOdds:    decimal.NewFromFloat(2.02),
				EVPercent:   decimal.NewFromFloat(3.96),
			},
			{
				ID:          "opp-2",
				MatchName:   "Leeds vs Everton",
				MarketType:  "h2h",
				Selection:   "Leeds",
				OfferedOdds: decimal.NewFromFloat(3.40),
				FairOdds:    decimal.NewFromFloat(3.25),
				EVPercent:   decimal.NewFromFloat(4.62),
			},
		},
		ReceivedAt: time.Unix(ref, 0).UTC(),
	}
}

// TestNewRedisCache tests cache creation
func TestNewRedisCache(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	assert.NotNil(t, setup.cache)
	assert.NotNil(t, setup.cache.client)
	assert.Equal(t, 30*time.Minute, setup.cache.ttl)
}

// TestSetSnapshot_Success tests successful snapshot caching
func TestSetSnapshot_Success(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	snap := testSnapshot(time.Now().Unix())

	err := setup.cache.SetSnapshot(setup.ctx, snap)

	assert.NoError(t, err)
	assert.True(t, setup.miniRedis.Exists(snapshotKey))
}

// TestSetSnapshot_ContextCanceled tests set operation with canceled context
func TestSetSnapshot_ContextCanceled(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := setup.cache.SetSnapshot(ctx, testSnapshot(time.Now().Unix()))

	assert.Error(t, err)
}

// TestGetSnapshot_Success tests a snapshot round trip
func TestGetSnapshot_Success(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	original := testSnapshot(1717243200)

	err := setup.cache.SetSnapshot(setup.ctx, original)
	require.NoError(t, err)

	retrieved, err := setup.cache.GetSnapshot(setup.ctx)

	assert.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, original.ReferenceTimestamp, retrieved.ReferenceTimestamp)
	require.Len(t, retrieved.Opportunities, 2)
	assert.Equal(t, "opp-1", retrieved.Opportunities[0].ID)
	assert.True(t, retrieved.Opportunities[0].Line.Valid)
	assert.True(t, retrieved.Opportunities[0].Line.Decimal.Equal(decimal.NewFromFloat(2.5)))
	assert.True(t, retrieved.Opportunities[0].OfferedOdds.Equal(decimal.NewFromFloat(2.10)))
	assert.False(t, retrieved.Opportunities[1].Line.Valid)
}

// TestGetSnapshot_NotCached tests retrieval before any feed delivery
func TestGetSnapshot_NotCached(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	retrieved, err := setup.cache.GetSnapshot(setup.ctx)

	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.Nil(t, retrieved)
}

// TestGetSnapshot_Expired tests retrieval after the entry expired
func TestGetSnapshot_Expired(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	err := setup.cache.SetSnapshot(setup.ctx, testSnapshot(time.Now().Unix()))
	require.NoError(t, err)

	// Fast forward time to expire the key
	setup.miniRedis.FastForward(31 * time.Minute)

	retrieved, err := setup.cache.GetSnapshot(setup.ctx)

	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.Nil(t, retrieved)
}

// TestSetSnapshot_ReplacesPrevious tests that each delivery overwrites the
// previous snapshot
func TestSetSnapshot_ReplacesPrevious(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	err := setup.cache.SetSnapshot(setup.ctx, testSnapshot(1717243200))
	require.NoError(t, err)

	newer := testSnapshot(1717243500)
	newer.Opportunities = newer.Opportunities[:1]
	err = setup.cache.SetSnapshot(setup.ctx, newer)
	require.NoError(t, err)

	retrieved, err := setup.cache.GetSnapshot(setup.ctx)

	assert.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, int64(1717243500), retrieved.ReferenceTimestamp)
	assert.Len(t, retrieved.Opportunities, 1)
}

// TestGetSnapshot_CorruptedPayload tests that a bad payload surfaces as an
// unmarshal error rather than a cache miss
func TestGetSnapshot_CorruptedPayload(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	setup.miniRedis.Set(snapshotKey, "invalid json data")

	retrieved, err := setup.cache.GetSnapshot(setup.ctx)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
	assert.Nil(t, retrieved)
}

// TestPing_Success tests successful Redis ping
func TestPing_Success(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	err := setup.cache.Ping(setup.ctx)

	assert.NoError(t, err)
}

// TestPing_RedisDown tests ping when Redis is down
func TestPing_RedisDown(t *testing.T) {
	setup := setupTestRedisCache(t)

	// Close Redis before ping
	setup.miniRedis.Close()

	err := setup.cache.Ping(setup.ctx)

	assert.Error(t, err)

	// Don't call cleanup() since we already closed Redis
	setup.cache.Close()
}

// TestClose tests cache closing
func TestClose(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.miniRedis.Close()

	err := setup.cache.Close()

	assert.NoError(t, err)
}

// TestSnapshot_TTLRespected tests that TTL is properly set
func TestSnapshot_TTLRespected(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	err := setup.cache.SetSnapshot(setup.ctx, testSnapshot(time.Now().Unix()))
	require.NoError(t, err)

	ttl := setup.miniRedis.TTL(snapshotKey)
	assert.True(t, ttl > 0)
	assert.True(t, ttl <= 30*time.Minute)
}

// TestCache_ConcurrentAccess tests concurrent snapshot reads and writes
func TestCache_ConcurrentAccess(t *testing.T) {
	setup := setupTestRedisCache(t)
	defer setup.cleanup()

	err := setup.cache.SetSnapshot(setup.ctx, testSnapshot(time.Now().Unix()))
	require.NoError(t, err)

	done := make(chan bool)

	// Writers
	for i := 0; i < 5; i++ {
		go func() {
			err := setup.cache.SetSnapshot(setup.ctx, testSnapshot(time.Now().Unix()))
			assert.NoError(t, err)
			done <- true
		}()
	}

	// Readers
	for i := 0; i < 5; i++ {
		go func() {
			retrieved, err := setup.cache.GetSnapshot(setup.ctx)
			assert.NoError(t, err)
			assert.NotNil(t, retrieved)
			done <- true
		}()
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}
}

// TestNewRedisCache_Configuration tests cache creation with different configurations
func TestNewRedisCache_Configuration(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	logger := zerolog.Nop()

	configs := []RedisCacheConfig{
		{
			Addr:     mr.Addr(),
			Password: "",
			DB:       0,
			TTL:      5 * time.Minute,
		},
		{
			Addr:     mr.Addr(),
			Password: "",
			DB:       1,
			TTL:      30 * time.Minute,
		},
		{
			Addr:     mr.Addr(),
			Password: "test-password",
			DB:       0,
			TTL:      1 * time.Hour,
		},
	}

	for _, config := range configs {
		cache := NewRedisCache(config, logger)
		assert.NotNil(t, cache)
		assert.Equal(t, config.TTL, cache.ttl)
		cache.Close()
	}
}
