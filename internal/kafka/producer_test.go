package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-insights/internal/models"
)

type mockWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

func decodeEvent(t *testing.T, msg kafka.Message) models.StockEvent {
	t.Helper()
	var event models.StockEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	return event
}

func TestProducer(t *testing.T) {
	ctx := context.Background()
	roe := 21.5
	stock := &models.Stock{ID: "7f1c", StockName: "Infosys", TickerSymbol: "INFY", ROE: &roe}

	t.Run("stock lifecycle events", func(t *testing.T) {
		w := &mockWriter{}
		p := &Producer{writer: w, topic: "stock-events"}

		require.NoError(t, p.PublishStockCreated(ctx, stock))
		require.NoError(t, p.PublishStockUpdated(ctx, stock))
		require.NoError(t, p.PublishStockDeleted(ctx, stock.ID))
		require.Len(t, w.msgs, 3)

		created := decodeEvent(t, w.msgs[0])
		assert.Equal(t, models.EventStockCreated, created.EventType)
		assert.Equal(t, "INFY", string(w.msgs[0].Key))
		assert.Equal(t, "7f1c", created.StockID)
		require.NotNil(t, created.Stock)
		assert.Equal(t, 21.5, *created.Stock.ROE)
		assert.False(t, created.Timestamp.IsZero())

		assert.Equal(t, models.EventStockUpdated, decodeEvent(t, w.msgs[1]).EventType)

		deleted := decodeEvent(t, w.msgs[2])
		assert.Equal(t, models.EventStockDeleted, deleted.EventType)
		assert.Nil(t, deleted.Stock)
		assert.Equal(t, "7f1c", string(w.msgs[2].Key))
	})

	t.Run("screened batch round trips through the consumer", func(t *testing.T) {
		w := &mockWriter{}
		p := &Producer{writer: w, topic: "stock-events"}

		batch := []models.ScreenedStock{{Name: "Infosys", Ticker: "INFY", ROE: 31, Sector: "IT"}}
		require.NoError(t, p.PublishStocksScreened(ctx, batch))
		require.Len(t, w.msgs, 1)
		assert.Equal(t, screenedKey, string(w.msgs[0].Key))

		repo := NewMockRepository()
		require.NoError(t, newTestConsumer(repo).processMessage(ctx, w.msgs[0]))
		require.Len(t, repo.imported, 1)
		assert.Equal(t, "INFY", repo.imported[0][0].TickerSymbol)
		assert.Equal(t, "IT", repo.imported[0][0].Industry)
	})

	t.Run("write errors are wrapped", func(t *testing.T) {
		w := &mockWriter{err: errors.New("broker unavailable")}
		p := &Producer{writer: w}

		err := p.PublishStockDeleted(ctx, "x")
		assert.ErrorIs(t, err, w.err)
		assert.Contains(t, err.Error(), "failed to write message to kafka")
	})

	t.Run("close closes the writer", func(t *testing.T) {
		w := &mockWriter{}
		p := &Producer{writer: w}
		require.NoError(t, p.Close())
		assert.True(t, w.closed)
	})
}
