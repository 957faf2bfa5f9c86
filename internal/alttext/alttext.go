package alttext

import (
	"context"
	"fmt"
)

// Describer writes alt text for one image.
type Describer interface {
	Describe(ctx context.Context, contentType string, data []byte) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string // gemini, ollama or openai
	Model    string
	APIKey   string
	URL      string // base URL override for ollama and openai
}

// New returns the describer for cfg.Provider, or nil when no provider is set.
func New(cfg Config) (Describer, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "gemini":
		return NewGemini(cfg.APIKey, cfg.Model)
	case "ollama":
		return NewOllama(cfg.URL, cfg.Model), nil
	case "openai":
		return NewOpenAI(cfg.URL, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown alt text provider %q", cfg.Provider)
	}
}
