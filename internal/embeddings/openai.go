package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds configuration for an OpenAI-compatible embedding API
// (OpenAI, Ollama, LM Studio, llama.cpp server)
type OpenAIConfig struct {
	APIKey        string
	Endpoint      string // e.g. https://api.openai.com/v1
	ModelName     string
	RetryAttempts uint
	Logger        *log.Logger
}

func NewOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Endpoint:      "https://api.openai.com/v1",
		RetryAttempts: 1,
	}
}

func (c OpenAIConfig) WithAPIKey(apiKey string) OpenAIConfig {
	c.APIKey = apiKey
	return c
}
func (c OpenAIConfig) WithEndpoint(endpoint string) OpenAIConfig {
	c.Endpoint = endpoint
	return c
}
func (c OpenAIConfig) WithModelName(modelName string) OpenAIConfig {
	c.ModelName = modelName
	return c
}
func (c OpenAIConfig) WithRetryAttempts(attempts uint) OpenAIConfig {
	c.RetryAttempts = attempts
	return c
}
func (c OpenAIConfig) WithLogger(logger *log.Logger) OpenAIConfig {
	c.Logger = logger
	return c
}

func (c OpenAIConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("openai api key is required")
	}
	if c.ModelName == "" {
		return fmt.Errorf("model name is required")
	}
	if c.RetryAttempts == 0 {
		return fmt.Errorf("retry attempts must be greater than 0")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// OpenAIProvider implements Provider using an OpenAI-compatible API
type OpenAIProvider struct {
	config OpenAIConfig
	client *openai.Client
	logger *log.Logger
}

func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg := openai.DefaultConfig(config.APIKey)
	cfg.BaseURL = config.Endpoint
	return &OpenAIProvider{
		config: config,
		client: openai.NewClientWithConfig(cfg),
		logger: config.Logger,
	}, nil
}

func (p *OpenAIProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32
	start := time.Now()
	err := retry.Do(
		func() error {
			resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Model: openai.EmbeddingModel(p.config.ModelName),
				Input: []string{text},
			})
			if err != nil {
				return err
			}
			if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
				return fmt.Errorf("no embedding returned")
			}
			embedding = resp.Data[0].Embedding
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(p.config.RetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Warn("Retrying OpenAI embedding request", "attempt", n+1, "max_attempts", p.config.RetryAttempts, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	p.logger.Debug("Generated OpenAI embedding", "text_length", len(text), "embedding_length", len(embedding), "model", p.config.ModelName, "duration", time.Since(start))
	return embedding, nil
}

func (p *OpenAIProvider) ModelName() string {
	return p.config.ModelName
}
