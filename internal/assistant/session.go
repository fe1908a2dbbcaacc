package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lox/walletwise/internal/types"
)

const (
	Greeting   = "Hello! I'm your WalletWise AI assistant. How can I help you with your finances today?"
	ErrorReply = "Sorry, I encountered an error. Please try again later."
)

var ErrEmptyMessage = errors.New("message is empty")

var suggestions = []string{
	"What are my top spending categories?",
	"How much did I spend last month?",
	"Where can I save money?",
	"Give me financial advice based on my spending",
	"Show me my spending trends",
}

// Session is a single chat conversation with the assistant
type Session struct {
	client   *Client
	data     TransactionData
	messages []Message
	logger   *log.Logger
}

// NewSession starts a conversation with the greeting already in place
func NewSession(client *Client, data TransactionData, logger *log.Logger) *Session {
	return &Session{
		client: client,
		data:   data,
		messages: []Message{
			{Role: openai.ChatMessageRoleAssistant, Content: Greeting},
		},
		logger: logger,
	}
}

// Send adds the user's message and the assistant's reply to the conversation.
// On failure the apology is appended instead and the error is returned.
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}

	var history []Message
	for _, m := range s.messages {
		if m.Role == openai.ChatMessageRoleUser || m.Role == openai.ChatMessageRoleAssistant {
			history = append(history, m)
		}
	}

	user := Message{Role: openai.ChatMessageRoleUser, Content: text}
	s.messages = append(s.messages, user)
	history = append(history, user)

	reply, err := s.client.Reply(ctx, history, s.data)
	if err != nil {
		s.logger.Warn("Assistant reply failed", "error", err)
		s.messages = append(s.messages, Message{Role: openai.ChatMessageRoleAssistant, Content: ErrorReply})
		return ErrorReply, err
	}

	s.messages = append(s.messages, Message{Role: openai.ChatMessageRoleAssistant, Content: reply})
	return reply, nil
}

// Messages returns a copy of the conversation so far
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetData replaces the transaction snapshot used for later replies
func (s *Session) SetData(data TransactionData) {
	s.data = data
}

// Suggestions returns starter questions for an empty conversation
func Suggestions() []string {
	out := make([]string, len(suggestions))
	copy(out, suggestions)
	return out
}

// Store is the subset of the transaction store the assistant reads
type Store interface {
	GetTransactions(ctx context.Context, limit int) ([]types.Transaction, error)
	GetTransactionsByCategory(ctx context.Context) ([]types.CategoryTotal, error)
	GetMonthlySpending(ctx context.Context) ([]types.MonthlyTotal, error)
}

// LoadTransactionData gathers the assistant's snapshot. Failures are logged
// and leave the affected part empty.
func LoadTransactionData(ctx context.Context, store Store, logger *log.Logger) TransactionData {
	var data TransactionData
	var err error

	if data.Transactions, err = store.GetTransactions(ctx, 0); err != nil {
		logger.Error("Error loading transactions", "error", err)
	}
	if data.Categories, err = store.GetTransactionsByCategory(ctx); err != nil {
		logger.Error("Error loading category spending", "error", err)
	}
	if data.MonthlySpending, err = store.GetMonthlySpending(ctx); err != nil {
		logger.Error("Error loading monthly spending", "error", err)
	}
	return data
}
