// Package summarize produces the one-paragraph summaries attached to digest
// entries. Providers are registered by name; the gemini provider falls back
// to the local extractive one so a digest never blocks on a remote model.
package summarize

import "context"

// Provider summarizes article text.
type Provider interface {
	Summarize(ctx context.Context, req Request) (*Response, error)
	Name() string
}

// Request describes one summary request.
type Request struct {
	Title    string
	Text     string
	MaxChars int
}

// Response contains the summary and provider metadata.
type Response struct {
	Summary      string
	ProviderName string
	LatencyMs    int64
}
