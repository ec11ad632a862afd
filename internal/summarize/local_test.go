package summarize

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLocalProvider_TakesWholeLeadingSentences(t *testing.T) {
	t.Parallel()

	provider := NewLocalProvider()
	resp, err := provider.Summarize(context.Background(), Request{
		Title:    "Titular",
		Text:     "Primera frase corta. Segunda frase también corta. Tercera frase que ya no cabe dentro del presupuesto si el límite es pequeño.",
		MaxChars: 60,
	})
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if resp.Summary != "Primera frase corta. Segunda frase también corta." {
		t.Fatalf("unexpected summary: %q", resp.Summary)
	}
	if resp.ProviderName != "local" {
		t.Fatalf("unexpected provider name: %q", resp.ProviderName)
	}
}

func TestLocalProvider_ClipsOverlongFirstSentence(t *testing.T) {
	t.Parallel()

	provider := NewLocalProvider()
	resp, err := provider.Summarize(context.Background(), Request{
		Text:     strings.Repeat("palabra ", 40) + "final.",
		MaxChars: 50,
	})
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if got := len([]rune(resp.Summary)); got > 50 {
		t.Fatalf("expected summary clipped to the budget, got %d runes", got)
	}
	if !strings.HasSuffix(resp.Summary, "…") {
		t.Fatalf("expected clipped summary to end with an ellipsis, got %q", resp.Summary)
	}
}

func TestLocalProvider_FallsBackToTitle(t *testing.T) {
	t.Parallel()

	provider := NewLocalProvider()
	resp, err := provider.Summarize(context.Background(), Request{Title: "Solo un titular"})
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if resp.Summary != "Solo un titular" {
		t.Fatalf("unexpected summary: %q", resp.Summary)
	}

	if _, err := provider.Summarize(context.Background(), Request{}); err == nil {
		t.Fatalf("expected error for empty request")
	}
}

type failingProvider struct{ name string }

func (p *failingProvider) Name() string { return p.name }

func (p *failingProvider) Summarize(context.Context, Request) (*Response, error) {
	return nil, fmt.Errorf("provider down")
}

func TestSummarizer_FallsBackToLocalProvider(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("remote")
	if err := registry.Register(NewLocalProvider()); err != nil {
		t.Fatalf("register local: %v", err)
	}
	if err := registry.Register(&failingProvider{name: "remote"}); err != nil {
		t.Fatalf("register remote: %v", err)
	}

	s := NewSummarizerWithRegistry(registry, zerolog.Nop())
	resp, err := s.Summarize(context.Background(), Request{Text: "Una frase cualquiera."})
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if resp.ProviderName != "local" {
		t.Fatalf("expected the local fallback to answer, got %q", resp.ProviderName)
	}
}

func TestRegistry_RejectsDuplicatesAndUnknownProviders(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("")
	if err := registry.Register(NewLocalProvider()); err != nil {
		t.Fatalf("register local: %v", err)
	}
	if err := registry.Register(NewLocalProvider()); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if _, err := registry.Provider("nope"); err == nil {
		t.Fatalf("expected unknown provider lookup to fail")
	}
}
