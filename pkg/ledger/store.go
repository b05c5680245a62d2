package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/artscout-ai/artscout/pkg/blobstore"
	"github.com/artscout-ai/artscout/pkg/common/logger"
)

// Store persists the ledger and success log as two independent JSON
// blobs. Each is loaded in full at invocation start and, if dirty,
// replaced in full at invocation end. Concurrent invocations against the
// same keys race last-writer-wins; the schedule must run at most one
// invocation at a time.
type Store struct {
	blobs      blobstore.Store
	ledgerKey  string
	successKey string
}

func NewStore(blobs blobstore.Store, ledgerKey, successKey string) *Store {
	return &Store{blobs: blobs, ledgerKey: ledgerKey, successKey: successKey}
}

// Load reads both blobs. A missing blob starts empty; a read failure is
// logged and also starts empty, so log storage trouble never blocks a
// run.
func (s *Store) Load(ctx context.Context) (*Ledger, *SuccessLog) {
	led := NewLedger()
	if err := s.blobs.GetJSON(ctx, s.ledgerKey, &led.records); err != nil {
		if !errors.Is(err, blobstore.ErrNotFound) {
			logger.Log.WithError(err).WithField("key", s.ledgerKey).Error("Failed to load ledger blob, starting empty")
		}
		led.records = make(map[string]*ProcessingRecord)
	}

	slog := NewSuccessLog()
	if err := s.blobs.GetJSON(ctx, s.successKey, &slog.entries); err != nil {
		if !errors.Is(err, blobstore.ErrNotFound) {
			logger.Log.WithError(err).WithField("key", s.successKey).Error("Failed to load success log blob, starting empty")
		}
		slog.entries = make(map[string]SuccessEntry)
	}

	return led, slog
}

// Save writes back whichever blobs were mutated this run.
func (s *Store) Save(ctx context.Context, led *Ledger, slog *SuccessLog) error {
	if led.Dirty() {
		if err := s.blobs.PutJSON(ctx, s.ledgerKey, led.records); err != nil {
			return fmt.Errorf("failed to save ledger: %w", err)
		}
		logger.Log.WithField("records", len(led.records)).Info("Ledger blob saved")
	}

	if slog.Dirty() {
		if err := s.blobs.PutJSON(ctx, s.successKey, slog.entries); err != nil {
			return fmt.Errorf("failed to save success log: %w", err)
		}
		logger.Log.WithField("entries", len(slog.entries)).Info("Success log blob saved")
	}

	return nil
}
