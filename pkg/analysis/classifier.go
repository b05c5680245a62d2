package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/artscout-ai/artscout/pkg/common/logger"
	"github.com/artscout-ai/artscout/pkg/common/models"
)

// RelevanceThreshold is the minimum model-reported confidence for a post
// to count as relevant. Exactly 0.7 passes.
const RelevanceThreshold = 0.7

// Classifier decides whether a post is someone seeking an illustrator in
// the configured style. It fails closed: any error from the model yields
// (false, 0.0) and the run continues.
type Classifier struct {
	llm     ChatClient
	profile *StyleProfile
	markers []string
}

func NewClassifier(llm ChatClient, profile *StyleProfile) *Classifier {
	markers := make([]string, 0, len(profile.ForHireMarkers))
	for _, m := range profile.ForHireMarkers {
		markers = append(markers, strings.ToLower(m))
	}
	return &Classifier{llm: llm, profile: profile, markers: markers}
}

func (c *Classifier) Classify(ctx context.Context, title, body string) (bool, float64) {
	lowerTitle := strings.ToLower(title)
	for _, marker := range c.markers {
		if strings.Contains(lowerTitle, marker) {
			logger.Log.WithField("title", title).Debug("Skipping artist-seeking-work post")
			return false, 0.0
		}
	}

	raw, err := c.llm.ChatJSON(ctx, classifySystemPrompt(c.profile), classifyUserPrompt(postContent(title, body)))
	if err != nil {
		logger.Log.WithError(err).WithField("title", title).Error("Classification call failed, treating as not relevant")
		return false, 0.0
	}

	var verdict models.Verdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		logger.Log.WithError(err).WithField("title", title).Error("Unparsable classification verdict, treating as not relevant")
		return false, 0.0
	}

	if verdict.IsArtistSeekingWork {
		logger.Log.WithField("title", title).Debug("Post is from an artist seeking work, ignoring")
		return false, 0.0
	}

	logger.Log.WithFields(map[string]interface{}{
		"title":      title,
		"relevant":   verdict.IsRelevant,
		"confidence": verdict.Confidence,
	}).Info("AI analysis complete")

	if verdict.IsRelevant && verdict.Confidence >= RelevanceThreshold {
		return true, verdict.Confidence
	}
	return false, verdict.Confidence
}
