package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/lox/walletwise/internal/analyzer"
	"github.com/lox/walletwise/internal/commands"
	"github.com/lox/walletwise/internal/embeddings"
	"github.com/lox/walletwise/internal/search"
)

type SearchCmd struct {
	commands.EmbeddingConfig

	Query     string  `arg:"" help:"What you're looking for"`
	Limit     int     `help:"Maximum number of results" default:"5"`
	Threshold float64 `help:"Minimum similarity between 0 and 1" default:"0.6"`
	Days      int     `help:"Only search payments from the last N days (0 = all time)" default:"0"`
	Update    bool    `help:"Bring embeddings up to date before searching"`
}

func (c *SearchCmd) Run(cli *CLI) error {
	a, err := newApp(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	provider, an, closeFn, err := a.setupAnalyzer(ctx, c.EmbeddingConfig)
	if err != nil {
		return err
	}
	defer closeFn()

	txs, err := recentTransactions(ctx, a.db, c.Days)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	if c.Update {
		if _, err := an.UpdateEmbeddings(ctx, txs, analyzer.Config{Concurrency: 4}); err != nil {
			return fmt.Errorf("failed to update embeddings: %w", err)
		}
	}

	embedded, err := an.LoadEmbedded(ctx, txs)
	if err != nil {
		return err
	}
	results := search.Local(ctx, a.logger, provider, c.Query, embedded,
		search.WithThreshold(c.Threshold), search.WithLimit(c.Limit))

	a.renderer.ScoredTransactions(c.Query, results)
	return nil
}

type EmbeddingsCmd struct {
	Update EmbeddingsUpdateCmd `cmd:"" help:"Compute missing or stale embeddings for stored payments"`
}

type EmbeddingsUpdateCmd struct {
	commands.EmbeddingConfig

	Concurrency int  `help:"Number of concurrent embedding requests" default:"4"`
	NoProgress  bool `help:"Disable progress bar"`
	DryRun      bool `help:"List the payments that would be embedded without calling the provider"`
	Days        int  `help:"Only update payments from the last N days (0 = all time)" default:"0"`
}

func (c *EmbeddingsUpdateCmd) Run(cli *CLI) error {
	a, err := newApp(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, an, closeFn, err := a.setupAnalyzer(ctx, c.EmbeddingConfig)
	if err != nil {
		return err
	}
	defer closeFn()

	txs, err := recentTransactions(ctx, a.db, c.Days)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	updated, err := an.UpdateEmbeddings(ctx, txs, analyzer.Config{
		Concurrency: c.Concurrency,
		Progress:    !c.NoProgress,
		DryRun:      c.DryRun,
	})
	if err != nil {
		return fmt.Errorf("failed to update embeddings: %w", err)
	}
	a.renderer.Success(fmt.Sprintf("Updated %d of %d embeddings", updated, len(txs)))
	return nil
}

// setupAnalyzer wires the embedding provider and vector store. The returned
// func releases both.
func (a *app) setupAnalyzer(ctx context.Context, config commands.EmbeddingConfig) (embeddings.Provider, *analyzer.Analyzer, func(), error) {
	provider, err := commands.SetupEmbeddingProvider(ctx, config, a.logger)
	if err != nil {
		return nil, nil, nil, err
	}
	vectors, err := commands.SetupVectorStorage(a.dataDir, provider, a.logger)
	if err != nil {
		commands.CloseEmbeddingProvider(provider, a.logger)
		return nil, nil, nil, err
	}
	closeFn := func() {
		if err := vectors.Close(); err != nil {
			a.logger.Warn("Failed to close vector storage", "error", err)
		}
		commands.CloseEmbeddingProvider(provider, a.logger)
	}
	return provider, analyzer.NewAnalyzer(nil, a.logger, provider, vectors), closeFn, nil
}
