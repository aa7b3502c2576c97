package test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"research-writer/llm/providers/shared"
)

// Responder produces the reply for a completion request.
type Responder func(req *shared.CompletionRequest) (*shared.CompletionResponse, error)

// FakeProvider implements LLMProvider for testing purposes
type FakeProvider struct {
	mu        sync.RWMutex
	responder Responder
	err       error
	callCount int
	requests  []*shared.CompletionRequest
}

// NewFakeProvider creates a new fake provider that answers every request with
// "Mock response for: <first user message>".
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

// NewEchoProvider returns a fake whose reply is the first line of the user message.
func NewEchoProvider() *FakeProvider {
	fp := NewFakeProvider()
	fp.SetResponder(func(req *shared.CompletionRequest) (*shared.CompletionResponse, error) {
		line, _, _ := strings.Cut(UserMessage(req), "\n")
		return TextResponse(line), nil
	})
	return fp
}

// SetResponder replaces the reply function
func (fp *FakeProvider) SetResponder(r Responder) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.responder = r
}

// SetError makes every call fail with err
func (fp *FakeProvider) SetError(err error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.err = err
}

// GetCallCount returns the number of calls made to the provider
func (fp *FakeProvider) GetCallCount() int {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	return fp.callCount
}

// GetLastRequest returns the last request made to the provider
func (fp *FakeProvider) GetLastRequest() *shared.CompletionRequest {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	if len(fp.requests) == 0 {
		return nil
	}
	return fp.requests[len(fp.requests)-1]
}

// Requests returns every request seen so far, oldest first
func (fp *FakeProvider) Requests() []*shared.CompletionRequest {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	out := make([]*shared.CompletionRequest, len(fp.requests))
	copy(out, fp.requests)
	return out
}

// Name returns the provider name
func (fp *FakeProvider) Name() string { return "fake" }

// Complete records the request and returns the configured reply
func (fp *FakeProvider) Complete(ctx context.Context, req *shared.CompletionRequest) (*shared.CompletionResponse, error) {
	fp.mu.Lock()
	fp.callCount++
	fp.requests = append(fp.requests, req)
	responder, err := fp.responder, fp.err
	fp.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if responder != nil {
		return responder(req)
	}
	return TextResponse(fmt.Sprintf("Mock response for: %s", UserMessage(req))), nil
}

// UserMessage returns the content of the first user message in req
func UserMessage(req *shared.CompletionRequest) string {
	for _, msg := range req.Messages {
		if msg.Role == shared.RoleUser {
			return msg.Content
		}
	}
	return ""
}

// TextResponse builds a single-choice response carrying text
func TextResponse(text string) *shared.CompletionResponse {
	return &shared.CompletionResponse{
		Content: text,
		Messages: []shared.Message{
			{Role: shared.RoleAssistant, Content: text},
		},
		Usage: shared.TokenUsage{
			PromptTokens:     10,
			CompletionTokens: 20,
			TotalTokens:      30,
		},
		StopReason: "stop",
	}
}

// EmptyResponse builds a response with no choices
func EmptyResponse() *shared.CompletionResponse {
	return &shared.CompletionResponse{StopReason: "stop"}
}
