package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/betdesk-service/internal/mocks"
	"github.com/cypherlabdev/betdesk-service/internal/models"
)

// testKafkaConsumerSetup is a helper struct to hold test dependencies
type testKafkaConsumerSetup struct {
	mockCache *mocks.MockFeedCache
	logger    zerolog.Logger
	ctrl      *gomock.Controller
}

// setupTestKafkaConsumer creates a test consumer with mocked dependencies
func setupTestKafkaConsumer(t *testing.T) *testKafkaConsumerSetup {
	ctrl := gomock.NewController(t)

	mockCache := mocks.NewMockFeedCache(ctrl)
	logger := zerolog.Nop()

	return &testKafkaConsumerSetup{
		mockCache: mockCache,
		logger:    logger,
		ctrl:      ctrl,
	}
}

// cleanup cleans up test resources
func (s *testKafkaConsumerSetup) cleanup() {
	s.ctrl.Finish()
}

func testConsumerConfig() KafkaConsumerConfig {
	return KafkaConsumerConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "feed_snapshots",
		GroupID: "test-group",
	}
}

// feedOpportunity builds a well-formed feed opportunity
func feedOpportunity(id, match string) models.Opportunity {
	return models.Opportunity{
		ID:          id,
		MatchName:   match,
		MarketType:  "h2h",
		Selection:   "Home",
		OfferedOdds: decimal.NewFromFloat(2.10),
		FairOdds:    decimal.NewFromFloat(2.02),
		EVPercent:   decimal.NewFromFloat(3.96),
	}
}

// TestNewKafkaConsumer tests consumer creation
func TestNewKafkaConsumer(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	config := testConsumerConfig()

	consumer := NewKafkaConsumer(config, setup.mockCache, setup.logger)

	assert.NotNil(t, consumer)
	assert.NotNil(t, consumer.reader)
	assert.NotNil(t, consumer.cache)
	assert.Equal(t, config.Topic, consumer.reader.Config().Topic)
	assert.Equal(t, config.GroupID, consumer.reader.Config().GroupID)

	consumer.Close()
}

// TestProcessMessage_ValidSnapshot tests that a well-formed message is cached
func TestProcessMessage_ValidSnapshot(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	ref := time.Now().Add(-time.Minute).Unix()
	feedMsg := models.KafkaFeedMessage{
		ReferenceTimestamp: ref,
		Opportunities: []models.Opportunity{
			feedOpportunity("opp-1", "Arsenal vs Chelsea"),
			feedOpportunity("opp-2", "Leeds vs Everton"),
		},
		PublishedAt: time.Now(),
		BatchID:     "batch-123",
	}
	msgBytes, err := json.Marshal(feedMsg)
	require.NoError(t, err)

	var cached *models.FeedSnapshot
	setup.mockCache.EXPECT().
		SetSnapshot(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, snap *models.FeedSnapshot) error {
			cached = snap
			return nil
		})

	consumer := NewKafkaConsumer(testConsumerConfig(), setup.mockCache, setup.logger)
	defer consumer.Close()

	err = consumer.processMessage(context.Background(), kafka.Message{Value: msgBytes})

	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, ref, cached.ReferenceTimestamp)
	assert.Len(t, cached.Opportunities, 2)
	assert.False(t, cached.ReceivedAt.IsZero())
}

// TestProcessMessage_DropsMalformed tests that bad entries are dropped while
// the rest of the snapshot is kept
func TestProcessMessage_DropsMalformed(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	bad := feedOpportunity("opp-bad", "Spurs vs West Ham")
	bad.OfferedOdds = decimal.NewFromInt(1) // odds must exceed 1

	noMatch := feedOpportunity("opp-anon", "")

	feedMsg := models.KafkaFeedMessage{
		ReferenceTimestamp: time.Now().Unix(),
		Opportunities: []models.Opportunity{
			feedOpportunity("opp-1", "Arsenal vs Chelsea"),
			bad,
			noMatch,
		},
		BatchID: "batch-456",
	}
	msgBytes, err := json.Marshal(feedMsg)
	require.NoError(t, err)

	var cached *models.FeedSnapshot
	setup.mockCache.EXPECT().
		SetSnapshot(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, snap *models.FeedSnapshot) error {
			cached = snap
			return nil
		})

	consumer := NewKafkaConsumer(testConsumerConfig(), setup.mockCache, setup.logger)
	defer consumer.Close()

	err = consumer.processMessage(context.Background(), kafka.Message{Value: msgBytes})

	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Len(t, cached.Opportunities, 1)
	assert.Equal(t, "opp-1", cached.Opportunities[0].ID)
}

// TestProcessMessage_EmptySnapshot tests that a delivered-but-empty feed is
// still cached
func TestProcessMessage_EmptySnapshot(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	feedMsg := models.KafkaFeedMessage{
		ReferenceTimestamp: time.Now().Unix(),
		Opportunities:      []models.Opportunity{},
		BatchID:            "batch-empty",
	}
	msgBytes, err := json.Marshal(feedMsg)
	require.NoError(t, err)

	var cached *models.FeedSnapshot
	setup.mockCache.EXPECT().
		SetSnapshot(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, snap *models.FeedSnapshot) error {
			cached = snap
			return nil
		})

	consumer := NewKafkaConsumer(testConsumerConfig(), setup.mockCache, setup.logger)
	defer consumer.Close()

	err = consumer.processMessage(context.Background(), kafka.Message{Value: msgBytes})

	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Empty(t, cached.Opportunities)
}

// TestProcessMessage_InvalidJSON tests processing with an unparseable payload
func TestProcessMessage_InvalidJSON(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := NewKafkaConsumer(testConsumerConfig(), setup.mockCache, setup.logger)
	defer consumer.Close()

	err := consumer.processMessage(context.Background(), kafka.Message{Value: []byte("not json")})

	assert.Error(t, err)
}

// TestProcessMessage_CacheFailure tests that a cache write failure is
// reported so the message is not committed
func TestProcessMessage_CacheFailure(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	feedMsg := models.KafkaFeedMessage{
		ReferenceTimestamp: time.Now().Unix(),
		Opportunities:      []models.Opportunity{feedOpportunity("opp-1", "Arsenal vs Chelsea")},
		BatchID:            "batch-789",
	}
	msgBytes, err := json.Marshal(feedMsg)
	require.NoError(t, err)

	setup.mockCache.EXPECT().
		SetSnapshot(gomock.Any(), gomock.Any()).
		Return(errors.New("redis down"))

	consumer := NewKafkaConsumer(testConsumerConfig(), setup.mockCache, setup.logger)
	defer consumer.Close()

	err = consumer.processMessage(context.Background(), kafka.Message{Value: msgBytes})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to cache snapshot")
}

// TestKafkaConsumerConfig tests different configurations
func TestKafkaConsumerConfig(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	tests := []struct {
		name   string
		config KafkaConsumerConfig
	}{
		{
			name: "Single broker",
			config: KafkaConsumerConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "feed_snapshots",
				GroupID: "test-group",
			},
		},
		{
			name: "Multiple brokers",
			config: KafkaConsumerConfig{
				Brokers: []string{"broker1:9092", "broker2:9092", "broker3:9092"},
				Topic:   "feed_snapshots",
				GroupID: "test-group",
			},
		},
		{
			name: "Different topic",
			config: KafkaConsumerConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "feed_snapshots_v2",
				GroupID: "test-group",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer := NewKafkaConsumer(tt.config, setup.mockCache, setup.logger)

			assert.NotNil(t, consumer)
			assert.Equal(t, tt.config.Topic, consumer.reader.Config().Topic)
			assert.Equal(t, tt.config.GroupID, consumer.reader.Config().GroupID)
			assert.Equal(t, tt.config.Brokers, consumer.reader.Config().Brokers)

			consumer.Close()
		})
	}
}

// TestKafkaConsumer_Close tests consumer closing
func TestKafkaConsumer_Close(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := NewKafkaConsumer(testConsumerConfig(), setup.mockCache, setup.logger)

	err := consumer.Close()

	assert.NoError(t, err)
}

// TestKafkaConsumer_ContextCancellation tests context cancellation handling
func TestKafkaConsumer_ContextCancellation(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := NewKafkaConsumer(testConsumerConfig(), setup.mockCache, setup.logger)
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())

	// Start consumer in goroutine
	done := make(chan error)
	go func() {
		done <- consumer.Start(ctx)
	}()

	// Cancel immediately
	cancel()

	// Wait for consumer to stop
	select {
	case err := <-done:
		// Consumer should stop without error on context cancellation
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Consumer did not stop within timeout")
	}
}

// TestKafkaConsumer_Configuration tests reader configuration
func TestKafkaConsumer_Configuration(t *testing.T) {
	setup := setupTestKafkaConsumer(t)
	defer setup.cleanup()

	consumer := NewKafkaConsumer(testConsumerConfig(), setup.mockCache, setup.logger)
	defer consumer.Close()

	readerConfig := consumer.reader.Config()

	assert.Equal(t, []string{"localhost:9092"}, readerConfig.Brokers)
	assert.Equal(t, "feed_snapshots", readerConfig.Topic)
	assert.Equal(t, "test-group", readerConfig.GroupID)
	assert.Equal(t, 1000, readerConfig.MinBytes)     // 1KB
	assert.Equal(t, 10000000, readerConfig.MaxBytes) // 10MB
}
