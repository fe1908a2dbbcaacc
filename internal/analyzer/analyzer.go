package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/lox/walletwise/internal/agent"
	"github.com/lox/walletwise/internal/embeddings"
	"github.com/lox/walletwise/internal/types"
)

const classifyToolName = "classify_payment"

// ErrNoAgent is returned when category suggestions are requested without a language model
var ErrNoAgent = errors.New("no language model configured")

type Config struct {
	Concurrency int
	Progress    bool
	DryRun      bool
}

type Analyzer struct {
	agent      *agent.Agent
	logger     *log.Logger
	embeddings embeddings.Provider
	vectors    embeddings.VectorStorage
}

// NewAnalyzer creates a new analyzer with explicit dependencies; agent may be nil
func NewAnalyzer(
	agent *agent.Agent,
	logger *log.Logger,
	embeddingProvider embeddings.Provider,
	vectorStorage embeddings.VectorStorage,
) *Analyzer {
	return &Analyzer{
		agent:      agent,
		logger:     logger,
		embeddings: embeddingProvider,
		vectors:    vectorStorage,
	}
}

type classification struct {
	Category string `json:"category"`
}

func buildCategoryGuidelines() string {
	var sb strings.Builder
	sb.WriteString("Use exactly one of these categories:\n")
	for _, c := range types.Categories {
		sb.WriteString(fmt.Sprintf("- %s\n", c.Name))
	}
	return sb.String()
}

// SuggestCategory asks the language model to file a payment under one of the known categories
func (a *Analyzer) SuggestCategory(ctx context.Context, nt types.NewTransaction) (string, error) {
	if a.agent == nil {
		return "", ErrNoAgent
	}
	startTime := time.Now()

	prompt := fmt.Sprintf(`Classify this UPI payment into a spending category.

Payee: %s
UPI ID: %s
Amount: ₹%s
Notes: %s

%s
Call the %s function with the category.`,
		nt.Payee, nt.UPIID, nt.Amount, nt.Notes, buildCategoryGuidelines(), classifyToolName)

	chatMessages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: "You are a payment classifier for an Indian personal finance app. ONLY call the " + classifyToolName + " function. DO NOT explain your reasoning.",
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		},
	}

	f := openai.FunctionDefinition{
		Name:        classifyToolName,
		Description: "File a payment under a spending category",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{
					"type":        "string",
					"description": "The spending category of the payment",
					"enum":        types.CategoryNames(),
				},
			},
			"required": []string{"category"},
		},
	}

	validator := func(toolCall openai.ToolCall) (any, error) {
		if toolCall.Function.Name != classifyToolName {
			return nil, fmt.Errorf("unexpected tool call: %s", toolCall.Function.Name)
		}
		var c classification
		if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &c); err != nil {
			a.logger.Warn("Invalid JSON in tool call arguments",
				"error", err,
				"arguments", toolCall.Function.Arguments)
			return nil, fmt.Errorf("invalid JSON in tool call arguments: %w", err)
		}
		if !types.IsCategory(c.Category) {
			return nil, fmt.Errorf("invalid category='%s'. Please use only allowed values", c.Category)
		}
		return c.Category, nil
	}

	result, err := a.agent.RunLoop(ctx, chatMessages,
		[]openai.Tool{{Type: openai.ToolTypeFunction, Function: &f}},
		validator, nil, a.agent.MaxAttempts())
	if err != nil {
		return "", fmt.Errorf("failed to suggest category: %w", err)
	}
	category := result.(string)

	a.logger.Debug("Suggested category",
		"payee", nt.Payee,
		"category", category,
		"duration", time.Since(startTime))

	return category, nil
}

// UpdateEmbedding makes sure the stored embedding matches the transaction's current text and model.
// Returns true if the embedding was created/updated, false if it was already up to date
func (a *Analyzer) UpdateEmbedding(ctx context.Context, tx types.Transaction) (bool, error) {
	body := tx.SearchBody()
	if body == "" {
		a.logger.Warn("Search body is empty, skipping embedding update", "id", tx.ID)
		return false, nil
	}

	exists, meta, err := a.vectors.HasEmbedding(ctx, tx.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check embedding existence: %w", err)
	}
	if exists && meta.Current(body, a.embeddings.ModelName()) {
		a.logger.Debug("Embedding already exists and is up to date", "id", tx.ID, "payee", tx.Payee)
		return false, nil
	}

	embedding, err := a.embeddings.GenerateEmbedding(ctx, body)
	if err != nil {
		return false, fmt.Errorf("failed to generate embedding: %w", err)
	}

	err = a.vectors.StoreEmbedding(ctx, tx.ID, body, embedding, embeddings.EmbeddingMetadata{
		ContentHash: embeddings.Hash(body),
		ModelName:   a.embeddings.ModelName(),
		Length:      len(embedding),
		LastUpdated: time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to store embedding: %w", err)
	}

	a.logger.Debug("Updated transaction embedding", "id", tx.ID, "payee", tx.Payee)
	return true, nil
}

// UpdateEmbeddings brings embeddings for all given transactions up to date.
// Individual failures are logged and skipped; only cancellation aborts the run.
func (a *Analyzer) UpdateEmbeddings(ctx context.Context, txs []types.Transaction, config Config) (int, error) {
	a.logger.Info("Updating embeddings", "transactions", len(txs), "model", a.embeddings.ModelName())
	startTime := time.Now()

	var progress Progress
	if !config.Progress || len(txs) == 0 {
		progress = NewNoopProgress()
	} else {
		progress = NewBarProgress(len(txs), "Generating embeddings")
	}
	defer progress.Close()

	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var updateCount atomic.Int32
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, tx := range txs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			if config.DryRun {
				a.logger.Info("Would update embedding", "id", tx.ID, "payee", tx.Payee)
			} else {
				updated, err := a.UpdateEmbedding(gCtx, tx)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return err
					}
					a.logger.Warn("Failed to update embedding", "error", err, "id", tx.ID, "payee", tx.Payee)
				} else if updated {
					updateCount.Add(1)
				}
			}

			if err := progress.Add(1); err != nil {
				a.logger.Warn("Failed to update progress", "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			a.logger.Info("Embedding update interrupted")
		}
		return int(updateCount.Load()), err
	}

	a.logger.Info("Completed embedding update",
		"total_processed", len(txs),
		"total_updated", updateCount.Load(),
		"duration", time.Since(startTime))

	return int(updateCount.Load()), nil
}

// LoadEmbedded attaches stored vectors to transactions. Only vectors made by
// the current embedding model are attached; transactions without one are
// returned with a nil embedding.
func (a *Analyzer) LoadEmbedded(ctx context.Context, txs []types.Transaction) ([]types.EmbeddedTransaction, error) {
	model := a.embeddings.ModelName()
	out := make([]types.EmbeddedTransaction, 0, len(txs))
	missing, stale := 0, 0
	for _, tx := range txs {
		exists, meta, err := a.vectors.HasEmbedding(ctx, tx.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check embedding for %s: %w", tx.ID, err)
		}
		if !exists {
			missing++
			out = append(out, types.EmbeddedTransaction{Transaction: tx})
			continue
		}
		if meta.ModelName != model {
			stale++
			out = append(out, types.EmbeddedTransaction{Transaction: tx})
			continue
		}

		vec, ok, err := a.vectors.Embedding(ctx, tx.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load embedding for %s: %w", tx.ID, err)
		}
		if !ok {
			missing++
		}
		out = append(out, types.EmbeddedTransaction{Transaction: tx, Embedding: vec})
	}
	if missing > 0 || stale > 0 {
		a.logger.Debug("Transactions without usable embeddings",
			"missing", missing,
			"other_model", stale,
			"model", model,
			"total", len(txs))
	}
	return out, nil
}
