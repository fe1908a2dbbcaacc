package agent

import (
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatServer answers each chat completion with the next queued response
type fakeChatServer struct {
	mu        sync.Mutex
	responses []openai.ChatCompletionResponse
	requests  []openai.ChatCompletionRequest
}

func (f *fakeChatServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req openai.ChatCompletionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		http.Error(w, `{"error":{"message":"no more responses"}}`, http.StatusInternalServerError)
		return
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func textResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
		}},
	}
}

func toolResponse(name, args string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:       "call_1",
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: name, Arguments: args},
				}},
			},
		}},
	}
}

func newTestAgent(t *testing.T, fake *fakeChatServer) *Agent {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewCompatibleAgent(log.New(io.Discard), srv.URL, "test-key", "test-model", 3)
}

func TestComplete(t *testing.T) {
	fake := &fakeChatServer{responses: []openai.ChatCompletionResponse{textResponse("Spend less on snacks.")}}
	agent := newTestAgent(t, fake)

	reply, err := agent.Complete(context.Background(), []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "advice?"},
	}, CompletionOptions{Temperature: 0.7, MaxTokens: 1024})
	require.NoError(t, err)
	assert.Equal(t, "Spend less on snacks.", reply)

	require.Len(t, fake.requests, 1)
	assert.Equal(t, "test-model", fake.requests[0].Model)
	assert.Equal(t, 1024, fake.requests[0].MaxTokens)
	assert.InDelta(t, 0.7, fake.requests[0].Temperature, 1e-6)
}

func TestCompleteError(t *testing.T) {
	agent := newTestAgent(t, &fakeChatServer{})
	_, err := agent.Complete(context.Background(), nil, CompletionOptions{})
	assert.Error(t, err)
}

func TestRunLoopCorrectsInvalidToolCall(t *testing.T) {
	fake := &fakeChatServer{responses: []openai.ChatCompletionResponse{
		toolResponse("pick", `{"value":"bad"}`),
		toolResponse("pick", `{"value":"good"}`),
	}}
	agent := newTestAgent(t, fake)

	validator := func(tc openai.ToolCall) (any, error) {
		var args struct{ Value string }
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return nil, err
		}
		if args.Value != "good" {
			return nil, errors.New("value must be good")
		}
		return args.Value, nil
	}

	result, err := agent.RunLoop(context.Background(), []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "pick"},
	}, nil, validator, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, "good", result)

	require.Len(t, fake.requests, 2)
	last := fake.requests[1].Messages[len(fake.requests[1].Messages)-1]
	assert.Equal(t, openai.ChatMessageRoleUser, last.Role)
	assert.Contains(t, last.Content, "value must be good")
}

func TestRunLoopGivesUp(t *testing.T) {
	fake := &fakeChatServer{responses: []openai.ChatCompletionResponse{
		textResponse("no tools"),
		textResponse("still no tools"),
	}}
	agent := newTestAgent(t, fake)

	_, err := agent.RunLoop(context.Background(), nil, nil,
		func(openai.ToolCall) (any, error) { return nil, nil }, nil, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}
