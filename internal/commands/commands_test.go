package commands

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/walletwise/internal/embeddings"
)

func TestSetupLogger(t *testing.T) {
	logger, err := SetupLogger(io.Discard, "debug")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())

	_, err = SetupLogger(io.Discard, "loud")
	assert.Error(t, err)
}

func TestSetupStore(t *testing.T) {
	logger := log.New(io.Discard)

	database, loc, err := SetupStore(CommonConfig{DataDir: t.TempDir(), Timezone: "Asia/Kolkata"}, logger)
	require.NoError(t, err)
	defer database.Close()
	assert.Equal(t, "Asia/Kolkata", loc.String())

	_, _, err = SetupStore(CommonConfig{DataDir: t.TempDir(), Timezone: "Mars/Olympus"}, logger)
	assert.Error(t, err)
}

func TestSetupEmbeddingProvider(t *testing.T) {
	logger := log.New(io.Discard)
	ctx := context.Background()

	tests := []struct {
		name    string
		config  EmbeddingConfig
		model   string
		wantErr error
	}{
		{
			name:   "huggingface",
			config: EmbeddingConfig{Provider: "huggingface", HuggingFaceAPIKey: "hf_test"},
			model:  "sentence-transformers/all-MiniLM-L6-v2",
		},
		{
			name:    "huggingface without key",
			config:  EmbeddingConfig{Provider: "huggingface"},
			wantErr: ErrMissingAPIKey,
		},
		{
			name:   "openai",
			config: EmbeddingConfig{Provider: "openai", OpenAIAPIKey: "sk-test", OpenAIModel: "text-embedding-3-small"},
			model:  "text-embedding-3-small",
		},
		{
			name:   "ollama",
			config: EmbeddingConfig{Provider: "ollama", OllamaModel: "nomic-embed-text", OllamaEndpoint: "http://localhost:11434/v1"},
			model:  "nomic-embed-text",
		},
		{
			name:    "gemini without key",
			config:  EmbeddingConfig{Provider: "gemini"},
			wantErr: ErrMissingAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := SetupEmbeddingProvider(ctx, tt.config, logger)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer CloseEmbeddingProvider(provider, logger)
			assert.Equal(t, tt.model, provider.ModelName())
		})
	}

	_, err := SetupEmbeddingProvider(ctx, EmbeddingConfig{Provider: "word2vec"}, logger)
	assert.ErrorContains(t, err, "unknown embedding provider")
}

func TestSetupVectorStorage(t *testing.T) {
	logger := log.New(io.Discard)
	provider, err := embeddings.NewHuggingFaceProvider(embeddings.NewHuggingFaceConfig().
		WithAPIKey("hf_test").
		WithLogger(logger))
	require.NoError(t, err)

	vectors, err := SetupVectorStorage(t.TempDir(), provider, logger)
	require.NoError(t, err)
	defer vectors.Close()
	assert.Equal(t, 0, vectors.Count())
}

func TestSetupAgent(t *testing.T) {
	logger := log.New(io.Discard)

	_, err := SetupAgent(LLMConfig{LLMModel: "llama3-70b-8192"}, logger)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	a, err := SetupAgent(LLMConfig{GroqKey: "gsk_test", LLMModel: "llama3-70b-8192", MaxAttempts: 2}, logger)
	require.NoError(t, err)
	assert.Equal(t, "llama3-70b-8192", a.Model())
	assert.Equal(t, 2, a.MaxAttempts())
}
