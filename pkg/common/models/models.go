package models

import (
	"time"
)

// Post is a submission as returned by the platform. Read-only to this
// system; never written back.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	URL       string    `json:"url"`
	Subreddit string    `json:"subreddit"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// DeliveryMessage is the queue payload produced by the deferred enqueue
// strategy and consumed by the reply service. Field names are the wire
// contract; the scheduling delay travels in message headers, not here.
type DeliveryMessage struct {
	PostID       string  `json:"postId"`
	PostTitle    string  `json:"postTitle"`
	PostURL      string  `json:"postUrl"`
	Subreddit    string  `json:"subreddit"`
	ResponseBody string  `json:"responseBody"`
	AIConfidence float64 `json:"aiConfidence"`
}

// Verdict is the structured classification result requested from the LLM.
type Verdict struct {
	IsRelevant          bool    `json:"is_relevant"`
	Confidence          float64 `json:"confidence"`
	IsArtistSeekingWork bool    `json:"is_artist_seeking_work"`
}

// ScanResult summarizes one invocation of the scanner pipeline.
type ScanResult struct {
	SubredditsChecked []string `json:"subreddits_checked"`
	SubredditsSkipped []string `json:"subreddits_skipped,omitempty"`
	PostsSeen         int      `json:"posts_seen"`
	NewPosts          int      `json:"new_posts"`
	Relevant          int      `json:"relevant"`
	Delivered         int      `json:"delivered"`
	Failed            int      `json:"failed"`
	Skipped           int      `json:"skipped"`
	LedgerUpdated     bool     `json:"ledger_updated"`
	NewDeliveries     bool     `json:"new_deliveries"`
}

// BatchResult summarizes one consumed batch of delivery messages.
type BatchResult struct {
	SuccessfulReplies int `json:"successful_replies"`
	FailedReplies     int `json:"failed_replies"`
}
