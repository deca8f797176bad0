// Package llm holds the text-completion providers. The engine only needs one
// operation: prompt in, raw text out.
package llm

import (
	"context"
	"fmt"

	"tagsheet/internal/config"
)

// Generator is the single upstream dependency of the classification engine.
// Any failure (network, quota, empty response) comes back as an error and is
// treated uniformly as a batch failure by the caller.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	defaultGeminiModel    = "gemini-2.5-flash"
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	defaultOpenAIModel    = "gpt-4o-mini"
)

// NewGenerator picks the provider from config. The model identifier is opaque
// here; an empty one falls back to the provider default.
func NewGenerator(cfg config.Config) (Generator, error) {
	model := cfg.LLMModel
	switch cfg.LLMProvider {
	case "gemini":
		if model == "" {
			model = defaultGeminiModel
		}
		return NewGemini(cfg.GeminiAPIKey, model), nil
	case "anthropic":
		if model == "" {
			model = defaultAnthropicModel
		}
		return NewAnthropic(cfg.AnthropicAPIKey, model), nil
	case "openai":
		if model == "" {
			model = defaultOpenAIModel
		}
		return NewOpenAI(cfg.OpenAIAPIKey, model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
