package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/philippgille/chromem-go"
)

// EmbeddingMetadata describes how a stored embedding was produced
type EmbeddingMetadata struct {
	ContentHash string    `json:"content_hash"`
	ModelName   string    `json:"model_name"`
	Length      int       `json:"length"`
	LastUpdated time.Time `json:"last_updated"`
}

func (m *EmbeddingMetadata) ToMap() map[string]string {
	return map[string]string{
		"content_hash": m.ContentHash,
		"model_name":   m.ModelName,
		"length":       strconv.Itoa(m.Length),
		"last_updated": m.LastUpdated.Format(time.RFC3339),
	}
}

func EmbeddingFromMap(metadata map[string]string) (EmbeddingMetadata, error) {
	length, err := strconv.Atoi(metadata["length"])
	if err != nil {
		return EmbeddingMetadata{}, fmt.Errorf("failed to parse length: %w", err)
	}
	lastUpdated, err := time.Parse(time.RFC3339, metadata["last_updated"])
	if err != nil {
		return EmbeddingMetadata{}, fmt.Errorf("failed to parse last updated: %w", err)
	}
	return EmbeddingMetadata{
		ContentHash: metadata["content_hash"],
		ModelName:   metadata["model_name"],
		Length:      length,
		LastUpdated: lastUpdated,
	}, nil
}

// Current reports whether the embedding was made from content by the given model
func (m *EmbeddingMetadata) Current(content, modelName string) bool {
	return m.ContentHash == Hash(content) && m.ModelName == modelName
}

// VectorStorage stores one embedding per transaction ID
type VectorStorage interface {
	// StoreEmbedding stores (or replaces) the embedding for a transaction
	StoreEmbedding(ctx context.Context, id string, text string, embedding []float32, metadata EmbeddingMetadata) error

	// HasEmbedding checks if an embedding exists for the given transaction ID
	// and returns the metadata if it does
	HasEmbedding(ctx context.Context, id string) (bool, EmbeddingMetadata, error)

	// Embedding returns the stored vector for a transaction ID
	Embedding(ctx context.Context, id string) ([]float32, bool, error)

	// RemoveEmbedding removes the embedding for a transaction ID
	RemoveEmbedding(ctx context.Context, id string) error

	// Count returns the number of stored embeddings
	Count() int

	Close() error
}

// ChromemStorage implements VectorStorage using the chromem-go vector database.
// chromem normalizes vectors on insert, so stored embeddings have unit length.
type ChromemStorage struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     *log.Logger
}

// Hash creates a SHA-256 hash of the content
func Hash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// NewChromemStorage opens (or creates) the persistent vector database under dataDir
func NewChromemStorage(dataDir string, provider Provider, logger *log.Logger) (*ChromemStorage, error) {
	dbPath := filepath.Join(dataDir, "vectors")

	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		return provider.GenerateEmbedding(ctx, text)
	}

	db, err := chromem.NewPersistentDB(dbPath, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create chromem database: %w", err)
	}

	collection, err := db.GetOrCreateCollection("transactions", nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	logger.Info("Opened vector database",
		"path", dbPath,
		"document_count", collection.Count(),
		"model_name", provider.ModelName())

	return &ChromemStorage{
		db:         db,
		collection: collection,
		logger:     logger,
	}, nil
}

func (s *ChromemStorage) StoreEmbedding(
	ctx context.Context,
	id string,
	text string,
	embedding []float32,
	metadata EmbeddingMetadata,
) error {
	doc, err := chromem.NewDocument(ctx, id, metadata.ToMap(), embedding, text, nil)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	if err := s.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to add document to collection: %w", err)
	}
	s.logger.Debug("Stored embedding", "id", id, "metadata", metadata)
	return nil
}

func (s *ChromemStorage) HasEmbedding(ctx context.Context, id string) (bool, EmbeddingMetadata, error) {
	doc, err := s.collection.GetByID(ctx, id)
	if err != nil {
		return false, EmbeddingMetadata{}, nil
	}
	metadata, err := EmbeddingFromMap(doc.Metadata)
	if err != nil {
		return false, EmbeddingMetadata{}, fmt.Errorf("failed to parse metadata for id %s: %w", id, err)
	}
	return true, metadata, nil
}

func (s *ChromemStorage) Embedding(ctx context.Context, id string) ([]float32, bool, error) {
	doc, err := s.collection.GetByID(ctx, id)
	if err != nil {
		return nil, false, nil
	}
	return doc.Embedding, true, nil
}

func (s *ChromemStorage) RemoveEmbedding(ctx context.Context, id string) error {
	return s.collection.Delete(ctx, nil, nil, id)
}

func (s *ChromemStorage) Count() int {
	return s.collection.Count()
}

// Close is a no-op; chromem persists on every write
func (s *ChromemStorage) Close() error {
	return nil
}
