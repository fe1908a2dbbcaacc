package agent

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/exp/slices"
)

// GroqBaseURL is Groq's OpenAI-compatible API
const GroqBaseURL = "https://api.groq.com/openai/v1"

// ToolCallValidator is a function that validates and parses the tool call arguments.
// It should return (parsedResult, nil) on success, or (nil, error) on failure.
type ToolCallValidator func(toolCall openai.ToolCall) (any, error)

// ShouldStopFunc determines if the tool call is a terminal/final action.
type ShouldStopFunc func(toolCall openai.ToolCall) bool

// Agent wraps an OpenAI-compatible chat API for plain completions and tool calling.
type Agent struct {
	logger      *log.Logger
	client      *openai.Client
	model       string
	maxAttempts int
}

// CompletionOptions tunes a single chat completion
type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
}

// NewAgent creates a new Agent.
func NewAgent(logger *log.Logger, client *openai.Client, model string, maxAttempts int) *Agent {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Agent{
		logger:      logger,
		client:      client,
		model:       model,
		maxAttempts: maxAttempts,
	}
}

// NewCompatibleAgent creates an Agent for any OpenAI-compatible endpoint (Groq, OpenAI, OpenRouter, Ollama).
func NewCompatibleAgent(logger *log.Logger, baseURL, apiKey, model string, maxAttempts int) *Agent {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return NewAgent(logger, openai.NewClientWithConfig(cfg), model, maxAttempts)
}

// Model returns the model name requests are sent with
func (a *Agent) Model() string {
	return a.model
}

// MaxAttempts is the default loop bound for RunLoop callers
func (a *Agent) MaxAttempts() int {
	return a.maxAttempts
}

// Complete sends the messages and returns the content of the first choice.
func (a *Agent) Complete(ctx context.Context, messages []openai.ChatCompletionMessage, opts CompletionOptions) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	a.logger.Debug("Chat completion finished",
		"model", a.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}

// RunLoop performs iterative tool-calling with error handling and a max loop count.
// Returns the parsed result from the validator, or an error if all attempts fail.
func (a *Agent) RunLoop(
	ctx context.Context,
	initialMessages []openai.ChatCompletionMessage,
	tools []openai.Tool,
	validator ToolCallValidator,
	shouldStop ShouldStopFunc,
	maxLoop int,
) (any, error) {
	var (
		lastToolCall string
		lastError    error
		chatMessages = slices.Clone(initialMessages)
	)

	for loop := 1; loop <= maxLoop; loop++ {
		a.logger.Debug("Running agent loop", "loop", loop)

		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:      a.model,
			Messages:   chatMessages,
			Tools:      tools,
			ToolChoice: "auto",
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastError = err
			continue
		}

		if len(resp.Choices) == 0 {
			lastError = fmt.Errorf("no choices in response")
			continue
		}

		message := resp.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			lastError = fmt.Errorf("no tool calls in response")
			continue
		}

		toolCall := message.ToolCalls[0]
		lastToolCall = toolCall.Function.Arguments

		parsed, err := validator(toolCall)
		if err == nil {
			a.logger.Debug("Tool call validated successfully", "toolCall", toolCall)
			if shouldStop == nil || shouldStop(toolCall) {
				return parsed, nil
			}
			chatMessages = append(chatMessages, message, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    fmt.Sprintf("Tool result: %v", parsed),
				Name:       toolCall.Function.Name,
				ToolCallID: toolCall.ID,
			})
			continue
		}
		a.logger.Debug("Tool call validation failed", "toolCall", toolCall, "error", err)
		lastError = err

		// feed the bad arguments and error back so the model can correct itself
		msg := ""
		if lastToolCall != "" {
			msg += "Previous tool call arguments:\n" + lastToolCall + "\n"
		}
		msg += "Error: " + lastError.Error() + "\n"
		msg += "Please correct your response using only allowed values."
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: msg,
		})
	}

	return nil, fmt.Errorf("failed to get valid tool call after %d attempts: %w", maxLoop, lastError)
}
