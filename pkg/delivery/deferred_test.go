package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/artscout-ai/artscout/pkg/common/models"
	"github.com/artscout-ai/artscout/pkg/ledger"
)

type fakeEnqueuer struct {
	err    error
	msgs   []models.DeliveryMessage
	delays []time.Duration
}

func (e *fakeEnqueuer) SendDelivery(ctx context.Context, msg models.DeliveryMessage, delay time.Duration) error {
	e.msgs = append(e.msgs, msg)
	e.delays = append(e.delays, delay)
	return e.err
}

func TestDeferredEnqueueSuccess(t *testing.T) {
	post := testPost()
	led := preparedLedger(t, post)
	slog := ledger.NewSuccessLog()
	enqueuer := &fakeEnqueuer{}

	d := NewDeferredEnqueue(&fakeGenerator{text: "warm and whimsical reply"}, enqueuer)
	d.delaySeconds = func() int { return 120 }
	d.now = func() time.Time { return time.Unix(1700000200, 0) }

	status := d.Deliver(context.Background(), led, slog, post, 0.85)
	if status != ledger.DeliverySuccess {
		t.Fatalf("expected success, got %s", status)
	}

	if len(enqueuer.msgs) != 1 {
		t.Fatalf("expected one enqueued message, got %d", len(enqueuer.msgs))
	}
	msg := enqueuer.msgs[0]
	if msg.PostID != post.ID || msg.PostTitle != post.Title || msg.PostURL != post.URL || msg.Subreddit != post.Subreddit {
		t.Fatalf("message metadata mismatch: %+v", msg)
	}
	if msg.ResponseBody != "warm and whimsical reply" || msg.AIConfidence != 0.85 {
		t.Fatalf("message payload mismatch: %+v", msg)
	}
	if enqueuer.delays[0] != 120*time.Second {
		t.Fatalf("expected 120s delay, got %v", enqueuer.delays[0])
	}

	rec, _ := led.Get(post.ID)
	if rec.DeliveryStatus != ledger.DeliverySuccess || rec.DelaySeconds != 120 {
		t.Fatalf("unexpected record state: %+v", rec)
	}

	entry, ok := slog.Get(post.ID)
	if !ok {
		t.Fatal("expected success log entry")
	}
	if entry.DelaySeconds != 120 {
		t.Fatalf("expected delay recorded in success entry, got %d", entry.DelaySeconds)
	}
}

func TestDeferredEnqueueNotConfigured(t *testing.T) {
	post := testPost()
	led := preparedLedger(t, post)
	slog := ledger.NewSuccessLog()

	d := NewDeferredEnqueue(&fakeGenerator{text: "reply"}, nil)

	status := d.Deliver(context.Background(), led, slog, post, 0.9)
	if status != ledger.DeliverySkipped {
		t.Fatalf("expected skipped_not_configured, got %s", status)
	}

	rec, _ := led.Get(post.ID)
	if rec.DeliveryStatus != ledger.DeliverySkipped {
		t.Fatalf("unexpected record status %s", rec.DeliveryStatus)
	}
	if rec.DeliveryError != "" {
		t.Fatal("missing transport is not an error")
	}
	if slog.Len() != 0 {
		t.Fatal("skipped delivery must not reach the success log")
	}
}

func TestDeferredEnqueueFailure(t *testing.T) {
	post := testPost()
	led := preparedLedger(t, post)

	d := NewDeferredEnqueue(&fakeGenerator{text: "reply"}, &fakeEnqueuer{err: errors.New("broker unreachable")})

	status := d.Deliver(context.Background(), led, ledger.NewSuccessLog(), post, 0.8)
	if status != ledger.DeliveryFailure {
		t.Fatalf("expected failure, got %s", status)
	}

	rec, _ := led.Get(post.ID)
	if rec.DeliveryError == "" {
		t.Fatal("expected error recorded on record")
	}
}

func TestDeferredDelayBounds(t *testing.T) {
	d := NewDeferredEnqueue(&fakeGenerator{}, &fakeEnqueuer{})
	for i := 0; i < 500; i++ {
		s := d.delaySeconds()
		if s < 60 || s > 600 {
			t.Fatalf("delay %d out of [60,600]", s)
		}
	}
}
