package delivery

import (
	"context"
	"encoding/json"
	"time"

	"github.com/artscout-ai/artscout/pkg/common/logger"
	"github.com/artscout-ai/artscout/pkg/common/models"
)

// QueueRecord is one delivered queue message as seen by the consumer.
type QueueRecord struct {
	MessageID string
	Body      []byte
	NotBefore time.Time
}

// Consumer performs the deferred deliveries. Each record in a batch is
// handled independently: a malformed payload or a platform error on one
// message never stops the rest. The consumer does not touch the ledger
// (that bookkeeping happened at enqueue time) and does not retry;
// redelivery of unhandled messages is the queue transport's job.
type Consumer struct {
	replier Replier

	now   func() time.Time
	sleep func(time.Duration)
}

func NewConsumer(replier Replier) *Consumer {
	return &Consumer{
		replier: replier,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

func (c *Consumer) HandleBatch(ctx context.Context, records []QueueRecord) models.BatchResult {
	var result models.BatchResult

	for _, record := range records {
		if len(record.Body) == 0 {
			logger.Log.WithField("message_id", record.MessageID).Error("Skipping record with empty body")
			result.FailedReplies++
			continue
		}

		var msg models.DeliveryMessage
		if err := json.Unmarshal(record.Body, &msg); err != nil {
			logger.Log.WithError(err).WithField("message_id", record.MessageID).Error("Failed to decode delivery message")
			result.FailedReplies++
			continue
		}

		if msg.PostID == "" || msg.ResponseBody == "" {
			logger.Log.WithFields(map[string]interface{}{
				"message_id": record.MessageID,
				"post_id":    msg.PostID,
			}).Error("Delivery message missing postId or responseBody")
			result.FailedReplies++
			continue
		}

		// Honor the scheduling delay chosen at enqueue time.
		if wait := record.NotBefore.Sub(c.now()); wait > 0 {
			logger.Log.WithFields(map[string]interface{}{
				"message_id": record.MessageID,
				"post_id":    msg.PostID,
				"wait":       wait.String(),
			}).Info("Waiting for scheduled delivery time")
			c.sleep(wait)
		}

		if err := c.replier.Reply(ctx, msg.PostID, msg.ResponseBody); err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"message_id": record.MessageID,
				"post_id":    msg.PostID,
				"title":      msg.PostTitle,
			}).Error("Failed to reply to post")
			result.FailedReplies++
			continue
		}

		logger.Log.WithFields(map[string]interface{}{
			"message_id": record.MessageID,
			"post_id":    msg.PostID,
			"title":      msg.PostTitle,
		}).Info("Replied to post")
		result.SuccessfulReplies++
	}

	logger.Log.WithFields(map[string]interface{}{
		"successful_replies": result.SuccessfulReplies,
		"failed_replies":     result.FailedReplies,
	}).Info("Batch processed")

	return result
}
