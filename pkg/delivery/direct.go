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

const directJitterMax = 15 * time.Second

// DirectReply posts the comment synchronously within the scanning
// invocation, after a short random sleep so replies don't land in a
// bot-like burst.
type DirectReply struct {
	generator Generator
	replier   Replier

	jitter func() time.Duration
	sleep  func(time.Duration)
	now    func() time.Time
}

func NewDirectReply(generator Generator, replier Replier) *DirectReply {
	return &DirectReply{
		generator: generator,
		replier:   replier,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(directJitterMax)))
		},
		sleep: time.Sleep,
		now:   time.Now,
	}
}

func (d *DirectReply) Name() string { return "direct" }

func (d *DirectReply) Deliver(ctx context.Context, led *ledger.Ledger, slog *ledger.SuccessLog, post models.Post, confidence float64) ledger.DeliveryStatus {
	led.Mutate(post.ID, func(rec *ledger.ProcessingRecord) {
		rec.DeliveryStatus = ledger.DeliveryAttempting
	})

	d.sleep(d.jitter())

	response := d.generator.Generate(ctx, post.Title, post.Body)

	if err := d.replier.Reply(ctx, post.ID, response); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"post_id": post.ID,
			"title":   post.Title,
		}).Error("Failed to post reply")
		recordFailure(led, post.ID, err, fmt.Sprintf("%T", err))
		return ledger.DeliveryFailure
	}

	ts := d.now()
	led.Mutate(post.ID, func(rec *ledger.ProcessingRecord) {
		rec.DeliveryStatus = ledger.DeliverySuccess
		rec.DeliveryTimestamp = ts.Unix()
		rec.DeliverySummary = ledger.Truncate(response, recordSummaryLen)
	})

	slog.Append(post.ID, ledger.SuccessEntry{
		Timestamp:    ts.Unix(),
		ReadableTime: ledger.ReadableTime(ts),
		Title:        post.Title,
		URL:          post.URL,
		Subreddit:    post.Subreddit,
		AIConfidence: confidence,
		Summary:      ledger.Truncate(response, successSummaryLen),
	})

	logger.Log.WithFields(map[string]interface{}{
		"post_id": post.ID,
		"title":   post.Title,
	}).Info("Replied to post")

	return ledger.DeliverySuccess
}
