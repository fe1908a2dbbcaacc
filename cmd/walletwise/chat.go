package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lox/walletwise/internal/assistant"
	"github.com/lox/walletwise/internal/commands"
)

type ChatCmd struct {
	commands.LLMConfig
}

func (c *ChatCmd) Run(cli *CLI) error {
	a, err := newApp(cli)
	if err != nil {
		return err
	}
	defer a.Close()
	a.console = newConsole(os.Stdin, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ag, err := commands.SetupAgent(c.LLMConfig, a.logger)
	if err != nil {
		return err
	}
	data := assistant.LoadTransactionData(ctx, a.db, a.logger)
	session := assistant.NewSession(assistant.NewClient(ag, a.logger), data, a.logger)

	for _, m := range session.Messages() {
		a.renderer.ChatMessage(m.Role, m.Content)
	}
	a.renderer.Suggestions(assistant.Suggestions())

	for {
		text, ok := a.console.ReadLine(ctx, "> ")
		if !ok {
			return nil
		}
		switch strings.ToLower(text) {
		case "exit", "quit":
			return nil
		}

		reply, err := session.Send(ctx, text)
		if errors.Is(err, assistant.ErrEmptyMessage) {
			continue
		}
		if err != nil && ctx.Err() != nil {
			return nil
		}
		a.renderer.ChatMessage(openai.ChatMessageRoleAssistant, reply)
	}
}

type InsightsCmd struct {
	commands.LLMConfig

	Limit int `help:"Number of recent payments to analyze" default:"50"`
}

func (c *InsightsCmd) Run(cli *CLI) error {
	a, err := newApp(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ag, err := commands.SetupAgent(c.LLMConfig, a.logger)
	if err != nil {
		return err
	}
	txs, err := a.db.GetTransactions(ctx, c.Limit)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	insights, err := assistant.NewClient(ag, a.logger).Analyze(ctx, txs)
	if err != nil {
		return err
	}
	fmt.Println(insights)
	return nil
}
