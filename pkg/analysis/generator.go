package analysis

import (
	"context"
	"strings"

	"github.com/artscout-ai/artscout/pkg/common/logger"
)

// Generator produces the reply body for a relevant post: a short
// personalized blurb from the model plus a fixed portfolio footer. It
// never fails; on any model error it returns a deterministic fallback.
type Generator struct {
	llm     ChatClient
	profile *StyleProfile
}

func NewGenerator(llm ChatClient, profile *StyleProfile) *Generator {
	return &Generator{llm: llm, profile: profile}
}

func (g *Generator) Generate(ctx context.Context, title, body string) string {
	user := "Here's the Reddit post to respond to:\n\n" + postContent(title, body)

	personalized, err := g.llm.Chat(ctx, generateSystemPrompt(g.profile), user)
	if err != nil || strings.TrimSpace(personalized) == "" {
		if err != nil {
			logger.Log.WithError(err).WithField("title", title).Error("Response generation failed, using fallback")
		}
		return g.profile.FallbackIntro + g.footer()
	}

	return strings.TrimSpace(personalized) + g.footer()
}

func (g *Generator) footer() string {
	return "\n\nYou can see my portfolio and contact me at: " + g.profile.PortfolioURL
}
