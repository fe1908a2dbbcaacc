package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/lox/walletwise/internal/analyzer"
	"github.com/lox/walletwise/internal/commands"
	"github.com/lox/walletwise/internal/mcp"
)

type CLI struct {
	commands.CommonConfig
	commands.EmbeddingConfig
}

func (c *CLI) Run() error {
	// stdout carries the protocol, so logs go to stderr
	logger, err := commands.SetupLogger(os.Stderr, c.LogLevel)
	if err != nil {
		return err
	}

	database, _, err := commands.SetupStore(c.CommonConfig, logger)
	if err != nil {
		return err
	}
	defer database.Close()

	provider, err := commands.SetupEmbeddingProvider(context.Background(), c.EmbeddingConfig, logger)
	if err != nil {
		return err
	}
	defer commands.CloseEmbeddingProvider(provider, logger)

	vectors, err := commands.SetupVectorStorage(c.DataDir, provider, logger)
	if err != nil {
		return err
	}
	defer vectors.Close()

	an := analyzer.NewAnalyzer(nil, logger, provider, vectors)
	return mcp.New(database, an, provider, logger).Run()
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("walletwise-mcp"),
		kong.Description("MCP server for WalletWise payments"),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, "~/.config/walletwise/config.json", "walletwise.json"),
	)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
