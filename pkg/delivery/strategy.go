package delivery

import (
	"context"
	"time"

	"github.com/artscout-ai/artscout/pkg/common/models"
	"github.com/artscout-ai/artscout/pkg/ledger"
)

// Replier posts a comment on a submission.
type Replier interface {
	Reply(ctx context.Context, postID, body string) error
}

// Generator produces the reply body. Implementations never fail; they
// fall back to deterministic text instead.
type Generator interface {
	Generate(ctx context.Context, title, body string) string
}

// Enqueuer hands a delivery message to the queue transport with a
// scheduling delay.
type Enqueuer interface {
	SendDelivery(ctx context.Context, msg models.DeliveryMessage, delay time.Duration) error
}

// Strategy performs delivery for one relevant post and records the
// terminal outcome on the post's ledger record. Errors never propagate
// out of Deliver; they end up as a failure status. The state machine per
// post:
//
//	not_attempted -> attempting -> success | failure | skipped_not_configured
//
// Irrelevant posts never reach a strategy; the scanner marks them
// not_applicable_irrelevant directly.
type Strategy interface {
	Name() string
	Deliver(ctx context.Context, led *ledger.Ledger, slog *ledger.SuccessLog, post models.Post, confidence float64) ledger.DeliveryStatus
}

const (
	recordSummaryLen  = 100
	successSummaryLen = 200
)

func recordFailure(led *ledger.Ledger, postID string, err error, errType string) {
	led.Mutate(postID, func(rec *ledger.ProcessingRecord) {
		rec.DeliveryStatus = ledger.DeliveryFailure
		rec.DeliveryError = err.Error()
		rec.DeliveryErrorType = errType
	})
}
