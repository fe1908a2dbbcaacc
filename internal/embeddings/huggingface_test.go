package embeddings

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHuggingFaceProvider(t *testing.T, endpoint string) *HuggingFaceProvider {
	t.Helper()
	provider, err := NewHuggingFaceProvider(NewHuggingFaceConfig().
		WithAPIKey("hf_test").
		WithEndpoint(endpoint).
		WithLogger(log.New(io.Discard)))
	require.NoError(t, err)
	return provider
}

func TestHuggingFaceProviderGenerateEmbedding(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody huggingFaceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[0.1, 0.2, 0.3]]`))
	}))
	defer srv.Close()

	provider := newTestHuggingFaceProvider(t, srv.URL)
	vec, err := provider.GenerateEmbedding(context.Background(), "coffee")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "/sentence-transformers/all-MiniLM-L6-v2", gotPath)
	assert.Equal(t, "Bearer hf_test", gotAuth)
	assert.Equal(t, "coffee", gotBody.Inputs)
	assert.Equal(t, defaultHuggingFaceModel, provider.ModelName())
}

func TestHuggingFaceProviderFlatResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[0.5, 0.25]`))
	}))
	defer srv.Close()

	vec, err := newTestHuggingFaceProvider(t, srv.URL).GenerateEmbedding(context.Background(), "tea")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
}

func TestHuggingFaceProviderFailsWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestHuggingFaceProvider(t, srv.URL).GenerateEmbedding(context.Background(), "tea")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHuggingFaceProviderEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestHuggingFaceProvider(t, srv.URL).GenerateEmbedding(context.Background(), "tea")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestHuggingFaceConfigValidate(t *testing.T) {
	logger := log.New(io.Discard)
	tests := []struct {
		name    string
		config  HuggingFaceConfig
		wantErr string
	}{
		{"missing key", NewHuggingFaceConfig().WithLogger(logger), "api key"},
		{"missing logger", NewHuggingFaceConfig().WithAPIKey("k"), "logger"},
		{"missing model", NewHuggingFaceConfig().WithAPIKey("k").WithLogger(logger).WithModelName(""), "model name"},
		{"valid", NewHuggingFaceConfig().WithAPIKey("k").WithLogger(logger), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
