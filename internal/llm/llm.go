package llm

import (
	"context"
	"fmt"

	"Mnemo/internal/config"
	"Mnemo/internal/models"
)

// LLM is the common interface of all generative backend clients.
type LLM interface {
	GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error)
	// Model returns the backing model identifier, recorded in step traces.
	Model() string
}

// NewClient builds the configured generative backend client.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg.Gemini.Model, cfg.Gemini.APIKey)
	case "openai":
		return NewOpenAI(cfg.OpenAI.Model, cfg.OpenAI.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
