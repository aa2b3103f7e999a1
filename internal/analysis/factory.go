package analysis

import (
	"context"
	"fmt"

	"civicdesk/backend/internal/config"

	"go.uber.org/zap"
)

// NewFromConfig builds the scorer selected by cfg.Backend.
func NewFromConfig(ctx context.Context, cfg config.ScorerConfig, logger *zap.Logger) (*LLMScorer, error) {
	var c Completer
	switch cfg.Backend {
	case config.ScorerMistral:
		c = NewMistralClient(MistralConfig{
			APIKey:  cfg.MistralKey,
			URL:     cfg.MistralURL,
			Model:   cfg.MistralModel,
			Timeout: cfg.Timeout,
		})
	case config.ScorerGemini:
		g, err := NewGeminiClient(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		c = g
	case config.ScorerFixed:
		c = FixedCompleter{Value: cfg.FixedScore}
	default:
		return nil, fmt.Errorf("analysis: unknown scorer backend %q", cfg.Backend)
	}
	return NewLLMScorer(cfg.Backend, c, cfg.Timeout, logger), nil
}
