package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lox/walletwise/internal/embeddings"
)

// SetupEmbeddingProvider initializes and returns an embedding provider based on the config
func SetupEmbeddingProvider(ctx context.Context, config EmbeddingConfig, logger *log.Logger) (embeddings.Provider, error) {
	var embeddingProvider embeddings.Provider
	var err error

	switch config.Provider {
	case "huggingface":
		if config.HuggingFaceAPIKey == "" {
			return nil, fmt.Errorf("huggingface: %w", ErrMissingAPIKey)
		}
		hfConfig := embeddings.NewHuggingFaceConfig().
			WithAPIKey(config.HuggingFaceAPIKey).
			WithLogger(logger)
		if config.HuggingFaceModel != "" {
			hfConfig = hfConfig.WithModelName(config.HuggingFaceModel)
		}
		if config.HuggingFaceEndpoint != "" {
			hfConfig = hfConfig.WithEndpoint(config.HuggingFaceEndpoint)
		}
		embeddingProvider, err = embeddings.NewHuggingFaceProvider(hfConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create HuggingFace embedding provider: %w", err)
		}
		logger.Info("Using HuggingFace for embeddings", "model", hfConfig.ModelName)

	case "gemini":
		if config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
		}
		geminiConfig := embeddings.NewGeminiConfig().
			WithAPIKey(config.GeminiAPIKey).
			WithRetryAttempts(retryAttempts(config)).
			WithLogger(logger)
		if config.GeminiModel != "" {
			geminiConfig = geminiConfig.WithModelName(config.GeminiModel)
		}
		embeddingProvider, err = embeddings.NewGeminiProvider(ctx, geminiConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini embedding provider: %w", err)
		}
		logger.Info("Using Gemini API for embeddings", "model", geminiConfig.ModelName)

	case "lmstudio":
		// LMStudio exposes an OpenAI-compatible API
		embeddingProvider, err = embeddings.NewOpenAIProvider(embeddings.NewOpenAIConfig().
			WithAPIKey("dummy").
			WithModelName(config.LMStudioModel).
			WithRetryAttempts(retryAttempts(config)).
			WithLogger(logger).
			WithEndpoint(config.LMStudioEndpoint))
		if err != nil {
			return nil, fmt.Errorf("failed to create LMStudio embedding provider: %w", err)
		}
		logger.Info("Using LMStudio for embeddings", "model", config.LMStudioModel, "endpoint", config.LMStudioEndpoint)

	case "ollama":
		embeddingProvider, err = embeddings.NewOpenAIProvider(embeddings.NewOpenAIConfig().
			WithAPIKey("dummy").
			WithModelName(config.OllamaModel).
			WithRetryAttempts(retryAttempts(config)).
			WithLogger(logger).
			WithEndpoint(config.OllamaEndpoint))
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama embedding provider: %w", err)
		}
		logger.Info("Using Ollama for embeddings", "model", config.OllamaModel, "endpoint", config.OllamaEndpoint)

	case "openai":
		if config.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
		}
		openaiConfig := embeddings.NewOpenAIConfig().
			WithAPIKey(config.OpenAIAPIKey).
			WithModelName(config.OpenAIModel).
			WithRetryAttempts(retryAttempts(config)).
			WithLogger(logger)
		if config.OpenAIEndpoint != "" {
			openaiConfig = openaiConfig.WithEndpoint(config.OpenAIEndpoint)
		}
		embeddingProvider, err = embeddings.NewOpenAIProvider(openaiConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI embedding provider: %w", err)
		}
		logger.Info("Using OpenAI-compatible API for embeddings", "model", openaiConfig.ModelName, "endpoint", openaiConfig.Endpoint)

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", config.Provider)
	}

	return embeddingProvider, nil
}

func retryAttempts(config EmbeddingConfig) uint {
	if config.RetryAttempts == 0 {
		return 1
	}
	return config.RetryAttempts
}

// CloseEmbeddingProvider attempts to close the embedding provider if it implements Close
func CloseEmbeddingProvider(provider embeddings.Provider, logger *log.Logger) {
	if closer, ok := provider.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close embedding provider", "error", err)
		}
	}
}
