package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// DefaultGeminiModel is used when no model is configured.
	DefaultGeminiModel = "gemini-1.5-flash"

	// geminiTimeout bounds one summary call; on expiry the caller falls
	// back to the local provider.
	geminiTimeout = 25 * time.Second

	// geminiMaxInputChars limits prompt size for long articles.
	geminiMaxInputChars = 6000
)

// GeminiProvider summarizes with the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider builds a Gemini-backed provider. The API key is required.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

func (p *GeminiProvider) Summarize(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	text := clampInput(req.Text)
	if text == "" {
		return nil, fmt.Errorf("nothing to summarize")
	}

	maxChars := req.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultSummaryChars
	}

	prompt := fmt.Sprintf(`Resume la siguiente noticia en español, en un solo párrafo de máximo %d caracteres.
No uses frases introductorias como "La noticia trata de". No traduzcas nombres propios.
Responde únicamente con el resumen, sin etiquetas ni formato adicional.

TITULAR: %s

TEXTO:
%s`, maxChars, strings.TrimSpace(req.Title), text)

	callCtx, cancel := context.WithTimeout(ctx, geminiTimeout)
	defer cancel()

	model := p.client.GenerativeModel(p.model)
	resp, err := model.GenerateContent(callCtx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty gemini response")
	}

	summary := strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
	if summary == "" {
		return nil, fmt.Errorf("empty gemini summary")
	}

	return &Response{
		Summary:      summary,
		ProviderName: p.Name(),
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

func clampInput(raw string) string {
	text := strings.Join(strings.Fields(strings.ReplaceAll(raw, "\r", "")), " ")
	if utf8.RuneCountInString(text) <= geminiMaxInputChars {
		return text
	}

	runes := []rune(text)
	trimmed := string(runes[:geminiMaxInputChars])
	if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed
}
