package chat

import (
	"context"
	"fmt"
)

// BackendConfig selects and configures a chat backend
type BackendConfig struct {
	Provider  string // "gemini" or "openai"
	Model     string
	GeminiKey string
	OpenAIKey string
}

// NewBackend creates the backend named by config.Provider
func NewBackend(ctx context.Context, config BackendConfig) (Backend, error) {
	switch config.Provider {
	case "", "gemini":
		return NewGeminiBackend(ctx, config.GeminiKey, config.Model)
	case "openai":
		return NewOpenAIBackend(config.OpenAIKey, config.Model)
	default:
		return nil, fmt.Errorf("unknown chat provider: %s", config.Provider)
	}
}
