package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/stock-insights/internal/models"
)

// screenedKey partitions all screening batches together
const screenedKey = "screener"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishStockCreated publishes a stock created event
func (p *Producer) PublishStockCreated(ctx context.Context, stock *models.Stock) error {
	event := models.StockEvent{
		EventType: models.EventStockCreated,
		Stock:     stock,
		StockID:   stock.ID,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, stock.TickerSymbol, event)
}

// PublishStockUpdated publishes a stock updated event
func (p *Producer) PublishStockUpdated(ctx context.Context, stock *models.Stock) error {
	event := models.StockEvent{
		EventType: models.EventStockUpdated,
		Stock:     stock,
		StockID:   stock.ID,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, stock.TickerSymbol, event)
}

// PublishStockDeleted publishes a stock deleted event
func (p *Producer) PublishStockDeleted(ctx context.Context, id string) error {
	event := models.StockEvent{
		EventType: models.EventStockDeleted,
		StockID:   id,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, id, event)
}

// PublishStocksScreened publishes the rows returned by a screener fetch
func (p *Producer) PublishStocksScreened(ctx context.Context, stocks []models.ScreenedStock) error {
	event := models.StockEvent{
		EventType: models.EventStocksScreened,
		Screened:  stocks,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, screenedKey, event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.StockEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
