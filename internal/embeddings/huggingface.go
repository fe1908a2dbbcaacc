package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
)

const defaultHuggingFaceModel = "sentence-transformers/all-MiniLM-L6-v2"

// HuggingFaceConfig holds configuration for the hosted HuggingFace inference API
type HuggingFaceConfig struct {
	APIKey    string
	Endpoint  string // e.g. https://api-inference.huggingface.co/models
	ModelName string
	Timeout   time.Duration
	Logger    *log.Logger
}

func NewHuggingFaceConfig() HuggingFaceConfig {
	return HuggingFaceConfig{
		Endpoint:  "https://api-inference.huggingface.co/models",
		ModelName: defaultHuggingFaceModel,
		Timeout:   30 * time.Second,
	}
}

func (c HuggingFaceConfig) WithAPIKey(apiKey string) HuggingFaceConfig {
	c.APIKey = apiKey
	return c
}
func (c HuggingFaceConfig) WithEndpoint(endpoint string) HuggingFaceConfig {
	c.Endpoint = endpoint
	return c
}
func (c HuggingFaceConfig) WithModelName(modelName string) HuggingFaceConfig {
	c.ModelName = modelName
	return c
}
func (c HuggingFaceConfig) WithTimeout(timeout time.Duration) HuggingFaceConfig {
	c.Timeout = timeout
	return c
}
func (c HuggingFaceConfig) WithLogger(logger *log.Logger) HuggingFaceConfig {
	c.Logger = logger
	return c
}

func (c HuggingFaceConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("huggingface api key is required")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.ModelName == "" {
		return fmt.Errorf("model name is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// HuggingFaceProvider generates embeddings with a hosted feature-extraction model.
// Each call makes exactly one request.
type HuggingFaceProvider struct {
	config     HuggingFaceConfig
	httpClient *http.Client
	logger     *log.Logger
}

type huggingFaceRequest struct {
	Inputs string `json:"inputs"`
}

func NewHuggingFaceProvider(config HuggingFaceConfig) (*HuggingFaceProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &HuggingFaceProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger,
	}, nil
}

func (p *HuggingFaceProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	embedding, err := p.request(ctx, text)
	if err != nil {
		p.logger.Error("HuggingFace API error", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	p.logger.Debug("Generated HuggingFace embedding", "text_length", len(text), "embedding_length", len(embedding), "model", p.config.ModelName, "duration", time.Since(start))
	return embedding, nil
}

func (p *HuggingFaceProvider) request(ctx context.Context, text string) ([]float32, error) {
	jsonBody, err := json.Marshal(huggingFaceRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	baseURL, err := url.Parse(p.config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	modelURL := baseURL.JoinPath(p.config.ModelName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, modelURL.String(), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference API returned status %d: %s", resp.StatusCode, body)
	}
	return decodeHuggingFaceEmbedding(body)
}

// decodeHuggingFaceEmbedding accepts a batch of vectors (one per input) or a single flat vector
func decodeHuggingFaceEmbedding(body []byte) ([]float32, error) {
	var batch [][]float32
	if err := json.Unmarshal(body, &batch); err == nil {
		if len(batch) == 0 || len(batch[0]) == 0 {
			return nil, fmt.Errorf("no embeddings returned")
		}
		return batch[0], nil
	}

	var flat []float32
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}
	return flat, nil
}

func (p *HuggingFaceProvider) ModelName() string {
	return p.config.ModelName
}
