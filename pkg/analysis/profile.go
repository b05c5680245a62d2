package analysis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StyleProfile describes the illustrator the bot represents. The default
// profile is built in; a YAML file can override it per deployment.
type StyleProfile struct {
	StylePoints    []string `yaml:"style_points"`
	ProjectTypes   []string `yaml:"project_types"`
	PortfolioURL   string   `yaml:"portfolio_url"`
	FallbackIntro  string   `yaml:"fallback_intro"`
	ForHireMarkers []string `yaml:"for_hire_markers"`
}

func DefaultProfile() *StyleProfile {
	return &StyleProfile{
		StylePoints: []string{
			"Light-hearted, healing, whimsical, humorous, and warm",
			"Aims to convey warmth and happiness while positively influencing young minds",
			"Focuses on children's books and products, but is versatile across mediums",
			"Works with illustrations, paper sculptures, fabric mascots, stop-motion animation",
			"Strong emphasis on conceptual exploration",
			"Thoughtful use of color theory",
		},
		ProjectTypes: []string{
			"Children's books or products",
			"Light-hearted, whimsical, or warm illustration styles",
			"Projects needing a positive, uplifting aesthetic",
			"Family-friendly or educational content",
			"Character design with warmth and personality",
		},
		PortfolioURL:   "https://wenqinggu.com",
		FallbackIntro:  "Hi there! I think my whimsical, light-hearted style would be perfect for your project. I specialize in warm, engaging illustrations that resonate with viewers of all ages.",
		ForHireMarkers: []string{"[for hire]"},
	}
}

// LoadProfile reads a profile from path, falling back to the default for
// any field left empty. An empty path yields the default profile.
func LoadProfile(path string) (*StyleProfile, error) {
	profile := DefaultProfile()
	if path == "" {
		return profile, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read style profile %s: %w", path, err)
	}

	var loaded StyleProfile
	if err := yaml.Unmarshal(content, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse style profile %s: %w", path, err)
	}

	if len(loaded.StylePoints) > 0 {
		profile.StylePoints = loaded.StylePoints
	}
	if len(loaded.ProjectTypes) > 0 {
		profile.ProjectTypes = loaded.ProjectTypes
	}
	if loaded.PortfolioURL != "" {
		profile.PortfolioURL = loaded.PortfolioURL
	}
	if loaded.FallbackIntro != "" {
		profile.FallbackIntro = loaded.FallbackIntro
	}
	if len(loaded.ForHireMarkers) > 0 {
		profile.ForHireMarkers = loaded.ForHireMarkers
	}

	return profile, nil
}
