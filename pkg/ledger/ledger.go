package ledger

import (
	"errors"
	"fmt"
	"time"
)

type AnalysisStatus string

const (
	AnalysisPending    AnalysisStatus = "pending"
	AnalysisRelevant   AnalysisStatus = "relevant"
	AnalysisIrrelevant AnalysisStatus = "irrelevant"
)

type DeliveryStatus string

const (
	DeliveryNotAttempted  DeliveryStatus = "not_attempted"
	DeliveryAttempting    DeliveryStatus = "attempting"
	DeliverySuccess       DeliveryStatus = "success"
	DeliveryFailure       DeliveryStatus = "failure"
	DeliverySkipped       DeliveryStatus = "skipped_not_configured"
	DeliveryNotApplicable DeliveryStatus = "not_applicable_irrelevant"
)

var ErrRecordExists = errors.New("record already exists")

// ProcessingRecord is the per-post audit entry. Post metadata is
// denormalized at first sighting so the record can be read later without
// re-fetching the submission.
type ProcessingRecord struct {
	FirstProcessedAt   int64  `json:"first_processed_timestamp"`
	FirstProcessedTime string `json:"first_processed_readable_time"`
	Title              string `json:"title"`
	URL                string `json:"url"`
	Subreddit          string `json:"subreddit"`

	AnalysisStatus AnalysisStatus `json:"analysis_status"`
	AIConfidence   float64        `json:"ai_confidence"`

	DeliveryStatus    DeliveryStatus `json:"delivery_status"`
	DeliveryTimestamp int64          `json:"delivery_timestamp,omitempty"`
	DeliveryError     string         `json:"delivery_error,omitempty"`
	DeliveryErrorType string         `json:"delivery_error_type,omitempty"`
	DeliverySummary   string         `json:"delivery_summary,omitempty"`
	DelaySeconds      int            `json:"delay_seconds,omitempty"`
}

// PostMeta is the metadata snapshot taken when a record is created.
type PostMeta struct {
	Title     string
	URL       string
	Subreddit string
}

// Ledger maps post ids to processing records. Presence of an id, whatever
// its status, is the sole reprocessing gate: a post that ended in failure
// stays suppressed, so every post gets at most one delivery attempt.
type Ledger struct {
	records map[string]*ProcessingRecord
	dirty   bool
}

func NewLedger() *Ledger {
	return &Ledger{records: make(map[string]*ProcessingRecord)}
}

func (l *Ledger) Has(postID string) bool {
	_, ok := l.records[postID]
	return ok
}

func (l *Ledger) Get(postID string) (*ProcessingRecord, bool) {
	rec, ok := l.records[postID]
	return rec, ok
}

func (l *Ledger) Len() int {
	return len(l.records)
}

func (l *Ledger) Dirty() bool {
	return l.dirty
}

// Create registers a post at first sighting. Callers must gate on Has
// first; creating over an existing record is an error.
func (l *Ledger) Create(postID string, meta PostMeta, now time.Time) (*ProcessingRecord, error) {
	if l.Has(postID) {
		return nil, fmt.Errorf("post %s: %w", postID, ErrRecordExists)
	}

	rec := &ProcessingRecord{
		FirstProcessedAt:   now.Unix(),
		FirstProcessedTime: readableTime(now),
		Title:              meta.Title,
		URL:                meta.URL,
		Subreddit:          meta.Subreddit,
		AnalysisStatus:     AnalysisPending,
		DeliveryStatus:     DeliveryNotAttempted,
	}
	l.records[postID] = rec
	l.dirty = true
	return rec, nil
}

// Mutate applies fn to an existing record and marks the ledger dirty.
func (l *Ledger) Mutate(postID string, fn func(*ProcessingRecord)) error {
	rec, ok := l.records[postID]
	if !ok {
		return fmt.Errorf("no record for post %s", postID)
	}
	fn(rec)
	l.dirty = true
	return nil
}

// SuccessEntry is one confirmed delivery, kept so an operator can audit
// what the bot actually said without scanning the full ledger.
type SuccessEntry struct {
	Timestamp    int64   `json:"timestamp"`
	ReadableTime string  `json:"readable_time"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	Subreddit    string  `json:"subreddit"`
	AIConfidence float64 `json:"ai_confidence"`
	Summary      string  `json:"response_summary"`
	DelaySeconds int     `json:"delay_seconds,omitempty"`
}

type SuccessLog struct {
	entries map[string]SuccessEntry
	dirty   bool
}

func NewSuccessLog() *SuccessLog {
	return &SuccessLog{entries: make(map[string]SuccessEntry)}
}

func (s *SuccessLog) Append(postID string, entry SuccessEntry) {
	s.entries[postID] = entry
	s.dirty = true
}

func (s *SuccessLog) Get(postID string) (SuccessEntry, bool) {
	entry, ok := s.entries[postID]
	return entry, ok
}

func (s *SuccessLog) Len() int {
	return len(s.entries)
}

func (s *SuccessLog) Dirty() bool {
	return s.dirty
}

// Truncate shortens reply text for audit fields.
func Truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

var auditLocation = loadAuditLocation()

func loadAuditLocation() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		return time.UTC
	}
	return loc
}

// ReadableTime renders a timestamp in the operator's timezone for the
// human-facing audit fields.
func ReadableTime(t time.Time) string {
	return readableTime(t)
}

func readableTime(t time.Time) string {
	return t.In(auditLocation).Format("2006-01-02 15:04:05 MST")
}
