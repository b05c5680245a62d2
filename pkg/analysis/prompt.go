package analysis

import (
	"fmt"
	"strings"
)

func bulletList(points []string) string {
	lines := make([]string, 0, len(points))
	for _, p := range points {
		lines = append(lines, "- "+p)
	}
	return strings.Join(lines, "\n")
}

func classifySystemPrompt(profile *StyleProfile) string {
	return fmt.Sprintf(`You are an assistant that determines if a Reddit post is seeking an artist with a specific style.

First, determine if the post is FROM an artist looking for work (which we should ignore) or FROM someone LOOKING TO HIRE an artist (which we want to respond to).

IGNORE posts where the person is an artist advertising their services or looking for clients.
ONLY consider posts where someone is looking to hire or commission an artist.

Your response MUST be a valid JSON object.

If the post is from an artist looking for work, respond with the following JSON structure: {"is_relevant": false, "confidence": 0.0, "is_artist_seeking_work": true}

If the post is from someone looking to hire an artist, then evaluate if they're looking for an artist with this style:
%s

Consider posts seeking artists for:
%s

If the post is from someone looking to hire an artist matching our style, respond with the following JSON structure:
{"is_relevant": true, "confidence": 0.X, "is_artist_seeking_work": false}

If the post is from someone looking to hire an artist but NOT matching our style, respond with the following JSON structure:
{"is_relevant": false, "confidence": 0.X, "is_artist_seeking_work": false}

Where 0.X is your confidence level from 0.0 to 1.0. Ensure your output is only the JSON object.`,
		bulletList(profile.StylePoints), bulletList(profile.ProjectTypes))
}

func classifyUserPrompt(content string) string {
	return fmt.Sprintf("Is the following Reddit post seeking an artist with a style matching or compatible with the description above? The post doesn't have to be specifically about children's books - it could be any project where this style would be appropriate. Remember to first determine if the post is FROM an artist looking for work (ignore) or FROM someone LOOKING TO HIRE an artist (consider). Provide your response as a JSON object.\n\n%s", content)
}

func generateSystemPrompt(profile *StyleProfile) string {
	return fmt.Sprintf(`You are an illustrator with a light-hearted, whimsical, warm style who specializes in children's content but is versatile across different mediums.

Your art style is:
%s

Create a VERY BRIEF personalized reply to this Reddit post (maximum 50 words). Make it friendly and directly relevant to what they're looking for. Focus only on how your style matches their specific needs.

DO NOT include your website or contact information in this part - that will be added separately.`,
		bulletList(profile.StylePoints))
}

func postContent(title, body string) string {
	return fmt.Sprintf("Title: %s\n\nContent: %s", title, body)
}
