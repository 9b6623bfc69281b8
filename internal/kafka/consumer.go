package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/stock-insights/internal/database"
	"github.com/trogers1052/stock-insights/internal/models"
)

const (
	initialRetryBackoff = time.Second
	maxRetryBackoff     = 30 * time.Second
)

// errImportFailed marks a message whose rows could not be written
var errImportFailed = errors.New("failed to import screened stocks")

// ImportRepository is the storage the import consumer writes to
type ImportRepository interface {
	ImportStocks(ctx context.Context, inputs []models.StockInput) (int, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ImportConsumer consumes screening batches and upserts them into the stock store.
// Offsets are committed only once a batch is stored or known to be unusable,
// so a batch that fails on a storage error is retried rather than lost.
type ImportConsumer struct {
	reader  messageReader
	topic   string
	repo    ImportRepository
	now     func() time.Time
	backoff time.Duration
}

// NewImportConsumer creates a new Kafka consumer for screening results
func NewImportConsumer(brokers []string, topic, groupID string, repo ImportRepository) *ImportConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &ImportConsumer{
		reader:  reader,
		topic:   topic,
		repo:    repo,
		now:     time.Now,
		backoff: initialRetryBackoff,
	}
}

// Start consumes messages until ctx is cancelled
func (c *ImportConsumer) Start(ctx context.Context) error {
	log.Info().Str("topic", c.topic).Msg("Starting Kafka import consumer")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Kafka import consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Error().Err(err).Msg("Error reading message")
				continue
			}

			if err := c.handleMessage(ctx, msg); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Error().Err(err).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("Failed to commit message")
			}
		}
	}
}

// handleMessage processes msg, retrying storage failures with backoff until it
// succeeds or ctx ends, then commits its offset
func (c *ImportConsumer) handleMessage(ctx context.Context, msg kafka.Message) error {
	backoff := c.backoff
	for {
		err := c.processMessage(ctx, msg)
		if err == nil {
			break
		}
		if !retryable(err) {
			log.Error().Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("Skipping unprocessable message")
			break
		}

		log.Warn().Err(err).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Dur("retry_in", backoff).
			Msg("Import failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}

	return c.reader.CommitMessages(ctx, msg)
}

// retryable reports whether a later attempt could succeed. Rows the store
// rejects as invalid will be rejected again.
func retryable(err error) bool {
	return errors.Is(err, errImportFailed) && !database.IsValidation(err)
}

func (c *ImportConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	log.Debug().
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Str("key", string(msg.Key)).
		Msg("Received message")

	var event models.StockEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal stock event: %w", err)
	}

	if event.EventType != models.EventStocksScreened {
		log.Debug().Str("event_type", event.EventType).Msg("Ignoring event")
		return nil
	}

	asOf := event.Timestamp
	if asOf.IsZero() {
		asOf = c.now()
	}

	inputs := make([]models.StockInput, 0, len(event.Screened))
	for _, s := range event.Screened {
		if s.Ticker == "" {
			log.Warn().Str("name", s.Name).Msg("Skipping screened row without ticker")
			continue
		}
		inputs = append(inputs, s.ToStockInput(asOf))
	}
	if len(inputs) == 0 {
		return nil
	}

	n, err := c.repo.ImportStocks(ctx, inputs)
	if err != nil {
		return fmt.Errorf("%w: %w", errImportFailed, err)
	}

	log.Info().Int("imported", n).Msg("Imported screened stocks")
	return nil
}

// Close closes the Kafka consumer
func (c *ImportConsumer) Close() error {
	return c.reader.Close()
}
