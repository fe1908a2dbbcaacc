package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "text-embedding-004"

var errEmptyGeminiResponse = errors.New("gemini returned no embedding values")

// GeminiConfig configures embeddings from Google's Gemini API
type GeminiConfig struct {
	APIKey    string
	ModelName string
	// RetryAttempts is the total number of tries per request; 1 means no retry
	RetryAttempts uint
	Logger        *log.Logger
}

func NewGeminiConfig() GeminiConfig {
	return GeminiConfig{
		ModelName:     defaultGeminiModel,
		RetryAttempts: 1,
	}
}

func (c GeminiConfig) WithAPIKey(apiKey string) GeminiConfig {
	c.APIKey = apiKey
	return c
}

func (c GeminiConfig) WithModelName(modelName string) GeminiConfig {
	c.ModelName = modelName
	return c
}

func (c GeminiConfig) WithRetryAttempts(attempts uint) GeminiConfig {
	c.RetryAttempts = attempts
	return c
}

func (c GeminiConfig) WithLogger(logger *log.Logger) GeminiConfig {
	c.Logger = logger
	return c
}

func (c GeminiConfig) Validate() error {
	switch {
	case c.APIKey == "":
		return errors.New("gemini api key is required")
	case c.ModelName == "":
		return errors.New("gemini model name is required")
	case c.RetryAttempts == 0:
		return errors.New("retry attempts must be at least 1")
	case c.Logger == nil:
		return errors.New("logger is required")
	}
	return nil
}

// contentEmbedder is the part of *genai.EmbeddingModel the provider calls
type contentEmbedder interface {
	EmbedContent(ctx context.Context, parts ...genai.Part) (*genai.EmbedContentResponse, error)
}

// GeminiProvider embeds payment text with a Gemini embedding model. Vectors
// are requested for semantic similarity since queries and payments are
// compared symmetrically by cosine.
type GeminiProvider struct {
	config   GeminiConfig
	client   *genai.Client
	embedder contentEmbedder
	logger   *log.Logger
}

func NewGeminiProvider(ctx context.Context, config GeminiConfig) (*GeminiProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.EmbeddingModel(config.ModelName)
	model.TaskType = genai.TaskTypeSemanticSimilarity

	return newGeminiProvider(config, client, model), nil
}

func newGeminiProvider(config GeminiConfig, client *genai.Client, embedder contentEmbedder) *GeminiProvider {
	return &GeminiProvider{
		config:   config,
		client:   client,
		embedder: embedder,
		logger:   config.Logger,
	}
}

func (p *GeminiProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrEmbeddingFailed)
	}

	var values []float32
	start := time.Now()
	err := retry.Do(
		func() error {
			resp, err := p.embedder.EmbedContent(ctx, genai.Text(text))
			if err != nil {
				return err
			}
			values, err = geminiValues(resp)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(p.config.RetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Warn("Gemini embedding failed, retrying", "attempt", n+1, "of", p.config.RetryAttempts, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini %s: %w", ErrEmbeddingFailed, p.config.ModelName, err)
	}

	p.logger.Debug("Generated Gemini embedding",
		"model", p.config.ModelName,
		"dimensions", len(values),
		"duration", time.Since(start))
	return values, nil
}

func geminiValues(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, errEmptyGeminiResponse
	}
	return resp.Embedding.Values, nil
}

// Close releases the underlying Gemini client
func (p *GeminiProvider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

func (p *GeminiProvider) ModelName() string {
	return p.config.ModelName
}
