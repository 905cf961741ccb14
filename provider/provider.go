package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohammad-safakhou/campusbot/config"
	"github.com/mohammad-safakhou/campusbot/models"
	openai_provider "github.com/mohammad-safakhou/campusbot/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI Client = "openai"
)

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	// StreamChat sends messages and calls onToken for every content delta. It returns the
	// full answer once the stream ends. An error from onToken aborts the stream.
	StreamChat(ctx context.Context, messages []models.ChatMessage, onToken func(string) error) (string, error)
	EmbeddingModel() string
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, cfg config.LLMConfig) (Provider, error) {
	switch client {
	case OpenAI, "":
		if cfg.APIKey == "" {
			return nil, errors.New("llm.api_key (or OPENAI_API_KEY) not set")
		}
		return openai_provider.NewOpenAIClient(openai_provider.Options{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			CompletionModel: cfg.ChatModel,
			EmbeddingModel:  cfg.EmbeddingModel,
			Temperature:     cfg.Temperature,
			MaxTokens:       cfg.MaxTokens,
			Timeout:         cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", client)
	}
}
