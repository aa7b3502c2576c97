package shared

import (
	"context"
	"time"
)

// Role defines the role of a message in a conversation
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message for LLM providers
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
}

// CompletionOptions defines parameters for LLM completion requests.
// Zero values leave the provider defaults in place.
type CompletionOptions struct {
	Model       string
	MaxTokens   int
	Temperature float32
	TopP        float32
	Stop        []string
}

// CompletionRequest represents a request to complete
type CompletionRequest struct {
	Messages []Message
	Options  CompletionOptions
}

// TokenUsage tracks token consumption for billing and monitoring
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionResponse represents the response from an LLM completion.
// Messages holds one assistant message per returned choice, in order.
type CompletionResponse struct {
	Content    string
	Messages   []Message
	Usage      TokenUsage
	StopReason string
	Model      string
}

// ErrorCode defines normalized error codes across providers
type ErrorCode string

const (
	ErrRateLimited    ErrorCode = "rate_limited"
	ErrTimeout        ErrorCode = "timeout"
	ErrAuth           ErrorCode = "auth"
	ErrInvalidRequest ErrorCode = "invalid_request"
	ErrModelNotFound  ErrorCode = "model_not_found"
	ErrContextLength  ErrorCode = "context_length_exceeded"
	ErrUnavailable    ErrorCode = "service_unavailable"
	ErrDecode         ErrorCode = "decode_error"
	ErrUnknown        ErrorCode = "unknown"
)

// ProviderError represents a normalized error from any provider
type ProviderError struct {
	Code    ErrorCode
	Message string
	// Original HTTP status, zero when the request never got a response.
	HTTPStatus int
	Err        error
}

func (e *ProviderError) Error() string { return e.Message }

func (e *ProviderError) Unwrap() error { return e.Err }

// LLMProvider defines the interface the agents need from a completion backend
type LLMProvider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// ClientOptions configures the outbound HTTP transport. Headers are set on
// every request.
type ClientOptions struct {
	Headers      map[string]string
	Timeout      time.Duration
	MaxIdleConns int
	IdleConnTTL  time.Duration
}
