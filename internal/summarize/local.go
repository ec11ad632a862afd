package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DefaultSummaryChars caps a summary when the request carries no limit.
const DefaultSummaryChars = 280

// LocalProvider builds an extractive summary from the article's leading
// sentences. No network, no model; always available as a fallback.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (p *LocalProvider) Name() string { return "local" }

func (p *LocalProvider) Summarize(_ context.Context, req Request) (*Response, error) {
	start := time.Now()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = strings.TrimSpace(req.Title)
	}
	if text == "" {
		return nil, fmt.Errorf("nothing to summarize")
	}

	maxChars := req.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultSummaryChars
	}

	summary := leadSentences(text, maxChars)

	return &Response{
		Summary:      summary,
		ProviderName: p.Name(),
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

// leadSentences takes whole sentences from the front of the text until the
// budget is spent, clipping mid-sentence only when the first sentence alone
// is over budget.
func leadSentences(text string, maxChars int) string {
	sentences := splitSentences(text)

	var b strings.Builder
	for _, sentence := range sentences {
		candidate := sentence
		if b.Len() > 0 {
			candidate = " " + sentence
		}
		if len([]rune(b.String()))+len([]rune(candidate)) > maxChars {
			break
		}
		b.WriteString(candidate)
	}

	if b.Len() == 0 && len(sentences) > 0 {
		runes := []rune(sentences[0])
		if len(runes) > maxChars {
			clipped := strings.TrimSpace(string(runes[:maxChars-1]))
			return clipped + "…"
		}
		return sentences[0]
	}

	return b.String()
}

func splitSentences(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}

	var sentences []string
	var current strings.Builder
	runes := []rune(normalized)
	for i, r := range runes {
		current.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Sentence ends when the terminator is followed by a space and an
		// upper-case or digit start, or by end of text.
		if i+2 < len(runes) {
			next := runes[i+1]
			after := runes[i+2]
			if next != ' ' || !(unicode.IsUpper(after) || unicode.IsDigit(after)) {
				continue
			}
		}
		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	if rest := strings.TrimSpace(current.String()); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}
