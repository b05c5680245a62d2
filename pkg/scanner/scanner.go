package scanner

import (
	"context"
	"time"

	"github.com/artscout-ai/artscout/pkg/common/logger"
	"github.com/artscout-ai/artscout/pkg/common/models"
	"github.com/artscout-ai/artscout/pkg/delivery"
	"github.com/artscout-ai/artscout/pkg/ledger"
)

// Platform fetches the newest posts of a subreddit.
type Platform interface {
	ListNew(ctx context.Context, subreddit string, limit int) ([]models.Post, error)
}

// Classifier judges a post's relevance. It never fails; errors inside
// fail closed to (false, 0.0).
type Classifier interface {
	Classify(ctx context.Context, title, body string) (bool, float64)
}

// Scanner runs one invocation of the detection pipeline: load the blobs,
// walk every configured subreddit, gate each post on the ledger, classify
// new ones, hand relevant ones to the delivery strategy, and write the
// blobs back if anything changed.
type Scanner struct {
	platform   Platform
	classifier Classifier
	strategy   delivery.Strategy
	store      *ledger.Store

	subreddits []string
	scanLimit  int
	now        func() time.Time
}

func New(platform Platform, classifier Classifier, strategy delivery.Strategy, store *ledger.Store, subreddits []string, scanLimit int) *Scanner {
	return &Scanner{
		platform:   platform,
		classifier: classifier,
		strategy:   strategy,
		store:      store,
		subreddits: subreddits,
		scanLimit:  scanLimit,
		now:        time.Now,
	}
}

func (s *Scanner) Run(ctx context.Context) models.ScanResult {
	led, slog := s.store.Load(ctx)

	result := models.ScanResult{SubredditsChecked: s.subreddits}
	runTime := s.now()

	for _, subreddit := range s.subreddits {
		logger.Log.WithField("subreddit", subreddit).Info("Checking subreddit")

		posts, err := s.platform.ListNew(ctx, subreddit, s.scanLimit)
		if err != nil {
			logger.Log.WithError(err).WithField("subreddit", subreddit).Error("Failed to fetch posts, skipping subreddit")
			result.SubredditsSkipped = append(result.SubredditsSkipped, subreddit)
			continue
		}

		for _, post := range posts {
			result.PostsSeen++
			s.processPost(ctx, led, slog, post, runTime, &result)
		}
	}

	result.LedgerUpdated = led.Dirty()
	result.NewDeliveries = slog.Dirty()

	// Storage trouble never aborts the run; the next invocation will
	// reprocess whatever this one could not persist.
	if err := s.store.Save(ctx, led, slog); err != nil {
		logger.Log.WithError(err).Error("Failed to persist run state")
	}

	return result
}

func (s *Scanner) processPost(ctx context.Context, led *ledger.Ledger, slog *ledger.SuccessLog, post models.Post, runTime time.Time, result *models.ScanResult) {
	// The gate: any existing record, including one that ended in failure,
	// means the post was already attempted once and stays suppressed.
	if led.Has(post.ID) {
		logger.Log.WithField("post_id", post.ID).Debug("Post already processed, skipping")
		return
	}
	result.NewPosts++

	if _, err := led.Create(post.ID, ledger.PostMeta{
		Title:     post.Title,
		URL:       post.URL,
		Subreddit: post.Subreddit,
	}, runTime); err != nil {
		logger.Log.WithError(err).WithField("post_id", post.ID).Error("Failed to create ledger record")
		return
	}

	relevant, confidence := s.classifier.Classify(ctx, post.Title, post.Body)

	led.Mutate(post.ID, func(rec *ledger.ProcessingRecord) {
		if relevant {
			rec.AnalysisStatus = ledger.AnalysisRelevant
		} else {
			rec.AnalysisStatus = ledger.AnalysisIrrelevant
		}
		rec.AIConfidence = confidence
	})

	if !relevant {
		led.Mutate(post.ID, func(rec *ledger.ProcessingRecord) {
			rec.DeliveryStatus = ledger.DeliveryNotApplicable
		})
		return
	}

	result.Relevant++
	switch s.strategy.Deliver(ctx, led, slog, post, confidence) {
	case ledger.DeliverySuccess:
		result.Delivered++
	case ledger.DeliveryFailure:
		result.Failed++
	case ledger.DeliverySkipped:
		result.Skipped++
	}
}
