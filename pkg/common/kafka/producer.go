package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/artscout-ai/artscout/pkg/common/logger"
	"github.com/artscout-ai/artscout/pkg/common/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Header names carrying the scheduling delay. Kafka has no broker-side
// delivery delay, so the chosen delay rides on the message and the
// consumer honors it before replying.
const (
	HeaderMessageID    = "message-id"
	HeaderNotBefore    = "not-before"
	HeaderDelaySeconds = "delay-seconds"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{writer: writer}
}

// SendDelivery publishes a delivery message scheduled for now+delay.
func (p *Producer) SendDelivery(ctx context.Context, msg models.DeliveryMessage, delay time.Duration) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery message: %w", err)
	}

	messageID := uuid.New().String()
	notBefore := time.Now().UTC().Add(delay)

	message := kafka.Message{
		Key:   []byte(msg.PostID),
		Value: body,
		Headers: []kafka.Header{
			{Key: HeaderMessageID, Value: []byte(messageID)},
			{Key: HeaderNotBefore, Value: []byte(notBefore.Format(time.RFC3339))},
			{Key: HeaderDelaySeconds, Value: []byte(strconv.Itoa(int(delay / time.Second)))},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"message_id": messageID,
			"post_id":    msg.PostID,
		}).Error("Failed to publish delivery message")
		return err
	}

	logger.Log.WithFields(map[string]interface{}{
		"message_id":    messageID,
		"post_id":       msg.PostID,
		"delay_seconds": int(delay / time.Second),
		"topic":         p.writer.Topic,
	}).Info("Delivery message published")

	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
