package runlog

import (
	"context"
	"strings"
	"time"

	"github.com/artscout-ai/artscout/pkg/common/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunModel is one scanner invocation, kept for operational audit of how
// the bot has been behaving over time.
type RunModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	StartedAt   time.Time `gorm:"index"`
	FinishedAt  time.Time
	Mode        string
	Subreddits  string
	Counts      datatypes.JSONMap `gorm:"type:jsonb"`
	NewPosts    int
	Delivered   int
	Failed      int
}

func (RunModel) TableName() string {
	return "scan_runs"
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&RunModel{})
}

func (r *Repository) RecordRun(ctx context.Context, mode string, startedAt time.Time, result models.ScanResult) error {
	run := RunModel{
		ID:         uuid.New(),
		StartedAt:  startedAt.UTC(),
		FinishedAt: time.Now().UTC(),
		Mode:       mode,
		Subreddits: strings.Join(result.SubredditsChecked, ","),
		Counts: datatypes.JSONMap{
			"posts_seen":         result.PostsSeen,
			"new_posts":          result.NewPosts,
			"relevant":           result.Relevant,
			"delivered":          result.Delivered,
			"failed":             result.Failed,
			"skipped":            result.Skipped,
			"subreddits_skipped": len(result.SubredditsSkipped),
		},
		NewPosts:  result.NewPosts,
		Delivered: result.Delivered,
		Failed:    result.Failed,
	}

	return r.db.WithContext(ctx).Create(&run).Error
}

func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]RunModel, error) {
	var runs []RunModel
	err := r.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}
