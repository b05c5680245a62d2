package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGeneratorAppendsFooter(t *testing.T) {
	chat := &fakeChat{chatResponse: "Your picture book sounds delightful! My warm, whimsical style would fit it well."}
	g := NewGenerator(chat, DefaultProfile())

	got := g.Generate(context.Background(), "Hiring illustrator for picture book", "32 pages, watercolor feel")
	want := chat.chatResponse + "\n\nYou can see my portfolio and contact me at: https://wenqinggu.com"
	if got != want {
		t.Fatalf("unexpected reply:\n%q\nwant:\n%q", got, want)
	}
}

func TestGeneratorFallbackOnError(t *testing.T) {
	chat := &fakeChat{chatErr: errors.New("model unavailable")}
	profile := DefaultProfile()
	g := NewGenerator(chat, profile)

	got := g.Generate(context.Background(), "Hiring illustrator", "")
	if got == "" {
		t.Fatal("generate must always return text")
	}
	if !strings.HasPrefix(got, profile.FallbackIntro) {
		t.Fatalf("expected fallback intro, got %q", got)
	}
	if !strings.HasSuffix(got, "You can see my portfolio and contact me at: https://wenqinggu.com") {
		t.Fatalf("expected portfolio footer, got %q", got)
	}
}

func TestGeneratorFallbackOnEmptyResponse(t *testing.T) {
	chat := &fakeChat{chatResponse: "   \n"}
	g := NewGenerator(chat, DefaultProfile())

	got := g.Generate(context.Background(), "Hiring illustrator", "")
	if !strings.HasPrefix(got, DefaultProfile().FallbackIntro) {
		t.Fatalf("expected fallback for blank model output, got %q", got)
	}
}
