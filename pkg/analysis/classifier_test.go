package analysis

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/artscout-ai/artscout/pkg/common/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type fakeChat struct {
	jsonResponse string
	jsonErr      error
	chatResponse string
	chatErr      error

	jsonCalls int
	chatCalls int
}

func (f *fakeChat) Chat(ctx context.Context, system, user string) (string, error) {
	f.chatCalls++
	return f.chatResponse, f.chatErr
}

func (f *fakeChat) ChatJSON(ctx context.Context, system, user string) (string, error) {
	f.jsonCalls++
	return f.jsonResponse, f.jsonErr
}

func TestClassifierPreFilterSkipsModel(t *testing.T) {
	chat := &fakeChat{jsonResponse: `{"is_relevant": true, "confidence": 0.99, "is_artist_seeking_work": false}`}
	c := NewClassifier(chat, DefaultProfile())

	relevant, confidence := c.Classify(context.Background(), "[FOR HIRE] Children's book illustrator available", "portfolio inside")
	if relevant || confidence != 0.0 {
		t.Fatalf("expected (false, 0.0) for for-hire post, got (%v, %v)", relevant, confidence)
	}
	if chat.jsonCalls != 0 {
		t.Fatalf("pre-filtered post must not reach the model, got %d calls", chat.jsonCalls)
	}
}

func TestClassifierConfidenceThreshold(t *testing.T) {
	cases := []struct {
		name     string
		response string
		relevant bool
		conf     float64
	}{
		{"at threshold", `{"is_relevant": true, "confidence": 0.7, "is_artist_seeking_work": false}`, true, 0.7},
		{"just below threshold", `{"is_relevant": true, "confidence": 0.69999, "is_artist_seeking_work": false}`, false, 0.69999},
		{"high confidence", `{"is_relevant": true, "confidence": 0.85, "is_artist_seeking_work": false}`, true, 0.85},
		{"confident but not relevant", `{"is_relevant": false, "confidence": 0.9, "is_artist_seeking_work": false}`, false, 0.9},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chat := &fakeChat{jsonResponse: tc.response}
			c := NewClassifier(chat, DefaultProfile())

			relevant, confidence := c.Classify(context.Background(), "Looking to hire an illustrator", "whimsical children's book")
			if relevant != tc.relevant || confidence != tc.conf {
				t.Fatalf("expected (%v, %v), got (%v, %v)", tc.relevant, tc.conf, relevant, confidence)
			}
		})
	}
}

func TestClassifierArtistSeekingWorkVerdict(t *testing.T) {
	chat := &fakeChat{jsonResponse: `{"is_relevant": true, "confidence": 0.95, "is_artist_seeking_work": true}`}
	c := NewClassifier(chat, DefaultProfile())

	relevant, confidence := c.Classify(context.Background(), "Offering my art services", "commissions open")
	if relevant || confidence != 0.0 {
		t.Fatalf("expected (false, 0.0) for artist-seeking-work verdict, got (%v, %v)", relevant, confidence)
	}
}

func TestClassifierFailsClosed(t *testing.T) {
	chat := &fakeChat{jsonErr: errors.New("rate limited")}
	c := NewClassifier(chat, DefaultProfile())

	relevant, confidence := c.Classify(context.Background(), "Need an artist", "for a project")
	if relevant || confidence != 0.0 {
		t.Fatalf("expected fail-closed (false, 0.0), got (%v, %v)", relevant, confidence)
	}

	chat = &fakeChat{jsonResponse: "not json at all"}
	c = NewClassifier(chat, DefaultProfile())

	relevant, confidence = c.Classify(context.Background(), "Need an artist", "for a project")
	if relevant || confidence != 0.0 {
		t.Fatalf("expected fail-closed on unparsable verdict, got (%v, %v)", relevant, confidence)
	}
}
