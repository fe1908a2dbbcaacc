package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/walletwise/internal/agent"
	"github.com/lox/walletwise/internal/embeddings"
	"github.com/lox/walletwise/internal/types"
)

// MockEmbeddingProvider is a mock implementation of embeddings.Provider
type MockEmbeddingProvider struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (m *MockEmbeddingProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail[text] {
		return nil, embeddings.ErrEmbeddingFailed
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEmbeddingProvider) ModelName() string { return "mock-model" }

// MockVectorStorage is an in-memory embeddings.VectorStorage
type MockVectorStorage struct {
	mu      sync.Mutex
	vectors map[string][]float32
	meta    map[string]embeddings.EmbeddingMetadata
}

func NewMockVectorStorage() *MockVectorStorage {
	return &MockVectorStorage{
		vectors: map[string][]float32{},
		meta:    map[string]embeddings.EmbeddingMetadata{},
	}
}

func (m *MockVectorStorage) StoreEmbedding(ctx context.Context, id, text string, embedding []float32, metadata embeddings.EmbeddingMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[id] = embedding
	m.meta[id] = metadata
	return nil
}

func (m *MockVectorStorage) HasEmbedding(ctx context.Context, id string) (bool, embeddings.EmbeddingMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.meta[id]
	return ok, meta, nil
}

func (m *MockVectorStorage) Embedding(ctx context.Context, id string) ([]float32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vec, ok := m.vectors[id]
	return vec, ok, nil
}

func (m *MockVectorStorage) RemoveEmbedding(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, id)
	delete(m.meta, id)
	return nil
}

func (m *MockVectorStorage) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vectors)
}

func (m *MockVectorStorage) Close() error { return nil }

func testTransactions() []types.Transaction {
	return []types.Transaction{
		{ID: "1", Payee: "Chai Point", Category: "Food", Notes: "masala chai", Amount: decimal.NewFromInt(40)},
		{ID: "2", Payee: "Ola", Category: "Transportation", Amount: decimal.NewFromInt(220)},
		{ID: "3", Payee: "Airtel", Category: "Utilities", Notes: "broadband", Amount: decimal.NewFromInt(999)},
	}
}

func TestUpdateEmbeddingsSkipsCurrent(t *testing.T) {
	provider := &MockEmbeddingProvider{}
	vectors := NewMockVectorStorage()
	a := NewAnalyzer(nil, log.New(io.Discard), provider, vectors)
	ctx := context.Background()

	updated, err := a.UpdateEmbeddings(ctx, testTransactions(), Config{Concurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, updated)
	assert.Equal(t, 3, vectors.Count())
	assert.Equal(t, 3, provider.calls)

	// second run finds everything up to date
	updated, err = a.UpdateEmbeddings(ctx, testTransactions(), Config{Concurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
	assert.Equal(t, 3, provider.calls)

	// changed notes make the stored embedding stale
	txs := testTransactions()
	txs[1].Notes = "airport drop"
	updated, err = a.UpdateEmbeddings(ctx, txs, Config{Concurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
}

func TestUpdateEmbeddingsContinuesPastFailures(t *testing.T) {
	txs := testTransactions()
	provider := &MockEmbeddingProvider{fail: map[string]bool{txs[0].SearchBody(): true}}
	vectors := NewMockVectorStorage()
	a := NewAnalyzer(nil, log.New(io.Discard), provider, vectors)

	updated, err := a.UpdateEmbeddings(context.Background(), txs, Config{Concurrency: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	_, ok, _ := vectors.Embedding(context.Background(), "1")
	assert.False(t, ok)
}

func TestUpdateEmbeddingsDryRun(t *testing.T) {
	provider := &MockEmbeddingProvider{}
	vectors := NewMockVectorStorage()
	a := NewAnalyzer(nil, log.New(io.Discard), provider, vectors)

	updated, err := a.UpdateEmbeddings(context.Background(), testTransactions(), Config{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
	assert.Equal(t, 0, provider.calls)
}

func TestLoadEmbedded(t *testing.T) {
	vectors := NewMockVectorStorage()
	require.NoError(t, vectors.StoreEmbedding(context.Background(), "2", "Ola", []float32{1, 0}, embeddings.EmbeddingMetadata{ModelName: "mock-model"}))
	a := NewAnalyzer(nil, log.New(io.Discard), &MockEmbeddingProvider{}, vectors)

	out, err := a.LoadEmbedded(context.Background(), testTransactions())
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Nil(t, out[0].Embedding)
	assert.Equal(t, []float32{1, 0}, out[1].Embedding)
	assert.Equal(t, "Ola", out[1].Payee)
}

func TestLoadEmbeddedSkipsOtherModels(t *testing.T) {
	ctx := context.Background()
	vectors := NewMockVectorStorage()
	require.NoError(t, vectors.StoreEmbedding(ctx, "1", "Chai Point", []float32{1, 0, 0}, embeddings.EmbeddingMetadata{ModelName: "old-384"}))
	require.NoError(t, vectors.StoreEmbedding(ctx, "2", "Ola", []float32{0.1, 0.2, 0.3}, embeddings.EmbeddingMetadata{ModelName: "mock-model"}))
	a := NewAnalyzer(nil, log.New(io.Discard), &MockEmbeddingProvider{}, vectors)

	out, err := a.LoadEmbedded(ctx, testTransactions())
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Nil(t, out[0].Embedding, "vector from another model is treated as missing")
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, out[1].Embedding)
	assert.Nil(t, out[2].Embedding)
}

func TestBarProgress(t *testing.T) {
	var buf bytes.Buffer
	p := newBarProgress(&buf, 2, "Generating embeddings")
	require.NoError(t, p.Add(1))
	require.NoError(t, p.Add(1))
	p.Close()
	assert.Contains(t, buf.String(), "Generating embeddings")
}

func toolCallServer(t *testing.T, args ...string) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if len(args) == 0 {
			http.Error(w, "exhausted", http.StatusInternalServerError)
			return
		}
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Role: openai.ChatMessageRoleAssistant,
					ToolCalls: []openai.ToolCall{{
						ID:       "call",
						Type:     openai.ToolTypeFunction,
						Function: openai.FunctionCall{Name: classifyToolName, Arguments: args[0]},
					}},
				},
			}},
		}
		args = args[1:]
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSuggestCategory(t *testing.T) {
	srv := toolCallServer(t, `{"category":"Groceries"}`, `{"category":"Food"}`)
	ag := agent.NewCompatibleAgent(log.New(io.Discard), srv.URL, "key", "model", 3)
	a := NewAnalyzer(ag, log.New(io.Discard), &MockEmbeddingProvider{}, NewMockVectorStorage())

	category, err := a.SuggestCategory(context.Background(), types.NewTransaction{
		UPIID: "chaipoint@paytm", Payee: "Chai Point", Amount: "40",
	})
	require.NoError(t, err)
	assert.Equal(t, "Food", category)
}

func TestSuggestCategoryWithoutAgent(t *testing.T) {
	a := NewAnalyzer(nil, log.New(io.Discard), &MockEmbeddingProvider{}, NewMockVectorStorage())
	_, err := a.SuggestCategory(context.Background(), types.NewTransaction{})
	assert.True(t, errors.Is(err, ErrNoAgent))
}
