package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/artscout-ai/artscout/pkg/common/logger"
	"github.com/segmentio/kafka-go"
)

// Record is one queued delivery message as handed to a batch handler.
type Record struct {
	MessageID string
	Body      []byte
	NotBefore time.Time
}

// BatchHandler processes one batch of records. Per-record failures are
// the handler's concern; the batch is committed once it returns.
type BatchHandler func(ctx context.Context, records []Record) error

type Consumer struct {
	reader    *kafka.Reader
	batchSize int
	batchWait time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, batchSize int, batchWait time.Duration) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	if batchSize <= 0 {
		batchSize = 1
	}

	return &Consumer{reader: reader, batchSize: batchSize, batchWait: batchWait}
}

// Consume fetches batches and feeds them to the handler until the context
// is cancelled. Messages are committed after the handler returns; a crash
// mid-batch redelivers the whole batch (at-least-once).
func (c *Consumer) Consume(ctx context.Context, handler BatchHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		messages, err := c.fetchBatch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			logger.Log.WithError(err).Error("Failed to fetch messages")
			continue
		}
		if len(messages) == 0 {
			continue
		}

		records := make([]Record, 0, len(messages))
		for _, m := range messages {
			records = append(records, Record{
				MessageID: headerValue(m, HeaderMessageID),
				Body:      m.Value,
				NotBefore: parseNotBefore(headerValue(m, HeaderNotBefore)),
			})
		}

		if err := handler(ctx, records); err != nil {
			logger.Log.WithError(err).Error("Batch handler failed, leaving batch uncommitted")
			continue
		}

		if err := c.reader.CommitMessages(ctx, messages...); err != nil {
			logger.Log.WithError(err).Error("Failed to commit messages")
		}
	}
}

// fetchBatch blocks for the first message, then drains up to batchSize
// within batchWait so queued bursts are handed over together.
func (c *Consumer) fetchBatch(ctx context.Context) ([]kafka.Message, error) {
	first, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	messages := []kafka.Message{first}

	drainCtx, cancel := context.WithTimeout(ctx, c.batchWait)
	defer cancel()

	for len(messages) < c.batchSize {
		m, err := c.reader.FetchMessage(drainCtx)
		if err != nil {
			break
		}
		messages = append(messages, m)
	}

	return messages, nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func parseNotBefore(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
