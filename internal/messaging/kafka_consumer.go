package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/betdesk-service/internal/models"
	"github.com/cypherlabdev/betdesk-service/internal/service"
)

// KafkaConsumer consumes feed snapshots from Kafka and caches the latest one
type KafkaConsumer struct {
	reader *kafka.Reader
	cache  service.FeedCache
	logger zerolog.Logger
}

// KafkaConsumerConfig holds Kafka consumer configuration
type KafkaConsumerConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // e.g., "feed_snapshots"
	GroupID string   // e.g., "betdesk"
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(
	config KafkaConsumerConfig,
	cache service.FeedCache,
	logger zerolog.Logger,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: 1000, // Commit every 1 second
	})

	return &KafkaConsumer{
		reader: reader,
		cache:  cache,
		logger: logger.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Start begins consuming messages from Kafka
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("started consuming from Kafka")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping Kafka consumer")
			return c.reader.Close()

		default:
			// Read message
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if err == context.Canceled {
					return nil
				}
				c.logger.Error().Err(err).Msg("failed to fetch message")
				continue
			}

			// Process message
			if err := c.processMessage(ctx, msg); err != nil {
				c.logger.Error().
					Err(err).
					Int64("offset", msg.Offset).
					Str("key", string(msg.Key)).
					Msg("failed to process message")
				// Don't commit if processing failed
				continue
			}

			// Commit message
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("failed to commit message")
			}
		}
	}
}

// processMessage caches the snapshot carried by a single Kafka message
func (c *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var feedMsg models.KafkaFeedMessage
	if err := json.Unmarshal(msg.Value, &feedMsg); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	c.logger.Debug().
		Int("opportunity_count", len(feedMsg.Opportunities)).
		Int64("reference_timestamp", feedMsg.ReferenceTimestamp).
		Str("batch_id", feedMsg.BatchID).
		Msg("processing feed snapshot")

	// Keep only well-formed opportunities; one bad entry must not sink the
	// whole snapshot.
	valid := make([]models.Opportunity, 0, len(feedMsg.Opportunities))
	for i := range feedMsg.Opportunities {
		o := &feedMsg.Opportunities[i]
		if err := o.Validate(); err != nil {
			c.logger.Warn().
				Err(err).
				Str("opportunity_id", o.ID).
				Str("match_name", o.MatchName).
				Str("batch_id", feedMsg.BatchID).
				Msg("dropping malformed opportunity")
			continue
		}
		valid = append(valid, *o)
	}

	snap := &models.FeedSnapshot{
		ReferenceTimestamp: feedMsg.ReferenceTimestamp,
		Opportunities:      valid,
		ReceivedAt:         time.Now().UTC(),
	}

	if err := c.cache.SetSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}

	c.logger.Info().
		Int("input_count", len(feedMsg.Opportunities)).
		Int("cached_count", len(valid)).
		Str("batch_id", feedMsg.BatchID).
		Msg("cached feed snapshot")

	return nil
}

// Close closes the Kafka reader
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
