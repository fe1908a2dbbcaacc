package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lox/walletwise/internal/agent"
	"github.com/lox/walletwise/internal/types"
)

const (
	// DefaultModel is the Groq-hosted chat model
	DefaultModel = "llama3-70b-8192"

	chatTemperature  = 0.7
	chatMaxTokens    = 1024
	analyzeMaxTokens = 4096

	systemPrompt = "You are a financial AI assistant helping users analyze their spending patterns and provide financial advice. Use Only Indian Rupees as currency.\n" +
		"Current transaction data: %s"
	analyzePrompt = "Analyze the following transaction data and provide insights."
)

var (
	ErrAIResponse = errors.New("failed to get AI response")
	ErrAnalysis   = errors.New("failed to analyze transactions")
)

// Message is one turn of a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TransactionData is the snapshot of spending the assistant answers questions about
type TransactionData struct {
	Transactions    []types.Transaction   `json:"transactions"`
	Categories      []types.CategoryTotal `json:"categories"`
	MonthlySpending []types.MonthlyTotal  `json:"monthlySpending"`
}

// Completer sends a chat to a language model
type Completer interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage, opts agent.CompletionOptions) (string, error)
}

// Client talks to the hosted chat model on behalf of the assistant
type Client struct {
	completer Completer
	logger    *log.Logger
}

func NewClient(completer Completer, logger *log.Logger) *Client {
	return &Client{
		completer: completer,
		logger:    logger,
	}
}

// Reply answers the conversation, grounding the model with the full transaction data.
// The data is sent as-is with no truncation.
func (c *Client) Reply(ctx context.Context, history []Message, data TransactionData) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode transaction data: %w", ErrAIResponse, err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: fmt.Sprintf(systemPrompt, payload),
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	start := time.Now()
	reply, err := c.completer.Complete(ctx, messages, agent.CompletionOptions{
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		c.logger.Error("Chat API error", "error", err)
		return "", fmt.Errorf("%w: %w", ErrAIResponse, err)
	}

	c.logger.Debug("Got assistant reply", "history", len(history), "payload_bytes", len(payload), "duration", time.Since(start))
	return reply, nil
}

// Analyze asks the model for one-shot insights over a set of transactions
func (c *Client) Analyze(ctx context.Context, txs []types.Transaction) (string, error) {
	payload, err := json.Marshal(txs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAnalysis, err)
	}

	insights, err := c.completer.Complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: analyzePrompt},
		{Role: openai.ChatMessageRoleUser, Content: string(payload)},
	}, agent.CompletionOptions{
		Temperature: chatTemperature,
		MaxTokens:   analyzeMaxTokens,
	})
	if err != nil {
		c.logger.Error("Chat API error", "error", err)
		return "", fmt.Errorf("%w: %w", ErrAnalysis, err)
	}
	return insights, nil
}
