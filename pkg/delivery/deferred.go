package delivery

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/artscout-ai/artscout/pkg/common/logger"
	"github.com/artscout-ai/artscout/pkg/common/models"
	"github.com/artscout-ai/artscout/pkg/ledger"
)

// Delay bounds for enqueued replies, inclusive on both ends. Spreading
// replies over minutes keeps the account under platform rate limits and
// away from bot-pattern timing.
const (
	minDelaySeconds = 60
	maxDelaySeconds = 600
)

// DeferredEnqueue hands the generated reply to the queue transport with
// a randomized delay; a separate consumer process posts it. A nil
// enqueuer means the transport is not configured, which is recorded as
// skipped rather than treated as an error.
type DeferredEnqueue struct {
	generator Generator
	enqueuer  Enqueuer

	delaySeconds func() int
	now          func() time.Time
}

func NewDeferredEnqueue(generator Generator, enqueuer Enqueuer) *DeferredEnqueue {
	return &DeferredEnqueue{
		generator: generator,
		enqueuer:  enqueuer,
		delaySeconds: func() int {
			return minDelaySeconds + rand.Intn(maxDelaySeconds-minDelaySeconds+1)
		},
		now: time.Now,
	}
}

func (d *DeferredEnqueue) Name() string { return "deferred" }

func (d *DeferredEnqueue) Deliver(ctx context.Context, led *ledger.Ledger, slog *ledger.SuccessLog, post models.Post, confidence float64) ledger.DeliveryStatus {
	led.Mutate(post.ID, func(rec *ledger.ProcessingRecord) {
		rec.DeliveryStatus = ledger.DeliveryAttempting
	})

	response := d.generator.Generate(ctx, post.Title, post.Body)

	if d.enqueuer == nil {
		logger.Log.WithField("post_id", post.ID).Warn("Delivery queue not configured, skipping enqueue")
		led.Mutate(post.ID, func(rec *ledger.ProcessingRecord) {
			rec.DeliveryStatus = ledger.DeliverySkipped
		})
		return ledger.DeliverySkipped
	}

	delaySeconds := d.delaySeconds()
	msg := models.DeliveryMessage{
		PostID:       post.ID,
		PostTitle:    post.Title,
		PostURL:      post.URL,
		Subreddit:    post.Subreddit,
		ResponseBody: response,
		AIConfidence: confidence,
	}

	if err := d.enqueuer.SendDelivery(ctx, msg, time.Duration(delaySeconds)*time.Second); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"post_id": post.ID,
			"title":   post.Title,
		}).Error("Failed to enqueue delivery message")
		recordFailure(led, post.ID, err, fmt.Sprintf("%T", err))
		return ledger.DeliveryFailure
	}

	ts := d.now()
	led.Mutate(post.ID, func(rec *ledger.ProcessingRecord) {
		rec.DeliveryStatus = ledger.DeliverySuccess
		rec.DeliveryTimestamp = ts.Unix()
		rec.DeliverySummary = ledger.Truncate(response, recordSummaryLen)
		rec.DelaySeconds = delaySeconds
	})

	slog.Append(post.ID, ledger.SuccessEntry{
		Timestamp:    ts.Unix(),
		ReadableTime: ledger.ReadableTime(ts),
		Title:        post.Title,
		URL:          post.URL,
		Subreddit:    post.Subreddit,
		AIConfidence: confidence,
		Summary:      ledger.Truncate(response, successSummaryLen),
		DelaySeconds: delaySeconds,
	})

	logger.Log.WithFields(map[string]interface{}{
		"post_id":       post.ID,
		"title":         post.Title,
		"delay_seconds": delaySeconds,
	}).Info("Delivery message enqueued")

	return ledger.DeliverySuccess
}
