package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/walletwise/internal/embeddings"
	"github.com/lox/walletwise/internal/types"
)

const (
	defaultThreshold = 0.6
	defaultLimit     = 5
)

// ErrDimensionMismatch is returned when vectors are missing or of different lengths
var ErrDimensionMismatch = errors.New("vectors must be non-nil and of equal length")

type searchOptions struct {
	threshold float64
	limit     int
}

// SearchOption is a function that modifies search options
type SearchOption func(*searchOptions)

// WithThreshold sets the minimum similarity a transaction needs to be returned
func WithThreshold(threshold float64) SearchOption {
	return func(opts *searchOptions) {
		opts.threshold = threshold
	}
}

// WithLimit sets the maximum number of results
func WithLimit(limit int) SearchOption {
	return func(opts *searchOptions) {
		opts.limit = limit
	}
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|), or 0 if either vector has zero norm
func CosineSimilarity(a, b []float32) (float64, error) {
	if a == nil || b == nil || len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Local ranks already-embedded transactions against a query. It never fails:
// any error is logged and produces an empty result.
func Local(
	ctx context.Context,
	logger *log.Logger,
	provider embeddings.Provider,
	query string,
	txs []types.EmbeddedTransaction,
	opts ...SearchOption,
) []types.ScoredTransaction {
	options := searchOptions{
		threshold: defaultThreshold,
		limit:     defaultLimit,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if len(txs) == 0 {
		return []types.ScoredTransaction{}
	}

	startTime := time.Now()
	results, err := rank(ctx, provider, query, txs, options)
	if err != nil {
		logger.Error("Local search failed", "query", query, "error", err)
		return []types.ScoredTransaction{}
	}

	logger.Info("Local search completed",
		"query", query,
		"candidates", len(txs),
		"results", len(results),
		"threshold", options.threshold,
		"duration", time.Since(startTime))

	return results
}

func rank(
	ctx context.Context,
	provider embeddings.Provider,
	query string,
	txs []types.EmbeddedTransaction,
	options searchOptions,
) ([]types.ScoredTransaction, error) {
	queryEmbedding, err := provider.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding for query: %w", err)
	}

	results := []types.ScoredTransaction{}
	for _, tx := range txs {
		if len(tx.Embedding) == 0 {
			continue
		}
		similarity, err := CosineSimilarity(queryEmbedding, tx.Embedding)
		if err != nil {
			return nil, fmt.Errorf("failed to score transaction %s: %w", tx.ID, err)
		}
		if similarity < options.threshold {
			continue
		}
		results = append(results, types.ScoredTransaction{
			EmbeddedTransaction: tx,
			Similarity:          similarity,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if options.limit >= 0 && len(results) > options.limit {
		results = results[:options.limit]
	}
	return results, nil
}
