package summarize

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"horse.fit/recorte/internal/config"
)

// Summarizer resolves the configured provider and falls back to the local
// one when the primary fails. Digest composition never blocks on a remote
// model.
type Summarizer struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewSummarizer builds a summarizer from config: the local provider is
// always registered; gemini only when an API key is present.
func NewSummarizer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Summarizer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	registry := NewRegistry(cfg.SummaryProvider)
	if err := registry.Register(NewLocalProvider()); err != nil {
		return nil, fmt.Errorf("register local provider: %w", err)
	}

	if cfg.GeminiAPIKey != "" {
		gemini, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("register gemini provider: %w", err)
		}
		if err := registry.Register(gemini); err != nil {
			return nil, fmt.Errorf("register gemini provider: %w", err)
		}
	}

	if _, err := registry.Provider(""); err != nil {
		return nil, fmt.Errorf("resolve default summary provider: %w", err)
	}

	return &Summarizer{
		registry: registry,
		logger:   logger.With().Str("component", "summarize").Logger(),
	}, nil
}

// NewSummarizerWithRegistry wires a prebuilt registry, used by tests.
func NewSummarizerWithRegistry(registry *Registry, logger zerolog.Logger) *Summarizer {
	return &Summarizer{registry: registry, logger: logger}
}

// Summarize runs the default provider and degrades to local on failure.
func (s *Summarizer) Summarize(ctx context.Context, req Request) (*Response, error) {
	provider, err := s.registry.Provider("")
	if err != nil {
		return nil, err
	}

	resp, err := provider.Summarize(ctx, req)
	if err == nil {
		return resp, nil
	}

	if provider.Name() == DefaultProviderName {
		return nil, err
	}

	s.logger.Warn().Err(err).Str("provider", provider.Name()).Msg("summary provider failed, falling back to local")

	local, lerr := s.registry.Provider(DefaultProviderName)
	if lerr != nil {
		return nil, err
	}
	return local.Summarize(ctx, req)
}

// Close releases provider resources.
func (s *Summarizer) Close() {
	for _, name := range s.registry.ProviderNames() {
		provider, err := s.registry.Provider(name)
		if err != nil {
			continue
		}
		if closer, ok := provider.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
