package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"research-writer/llm/agents"
	"research-writer/llm/providers/shared"
	"research-writer/llm/providers/transport"

	"github.com/sashabaranov/go-openai"
)

// DefaultModel is used when the configuration does not name a model.
const DefaultModel = "gpt-4o"

// Config holds OpenAI provider configuration
type Config struct {
	APIKey  string
	BaseURL string
	OrgID   string
	Model   string
	Timeout time.Duration
}

// Provider implements the LLMProvider interface for OpenAI and
// OpenAI-compatible endpoints.
type Provider struct {
	client  *openai.Client
	config  Config
	limiter *transport.Limiter
}

// NewProvider creates a new OpenAI provider. A missing or header-unsafe key
// is a ConfigError.
func NewProvider(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, agents.NewConfigError("openai", errors.New("API key is missing"))
	}
	if strings.ContainsAny(cfg.APIKey, "\r\n") {
		return nil, agents.NewConfigError("openai", errors.New("API key is not a valid header value"))
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiConfig.BaseURL = cfg.BaseURL
	}
	if cfg.OrgID != "" {
		openaiConfig.OrgID = cfg.OrgID
	}

	httpClient := transport.NewHTTPClient(shared.ClientOptions{
		Timeout: cfg.Timeout,
	})
	openaiConfig.HTTPClient = httpClient.StdClient()

	return &Provider{
		client: openai.NewClientWithConfig(openaiConfig),
		config: cfg,
	}, nil
}

// WithLimiter throttles completion calls through l. A nil limiter disables throttling.
func (p *Provider) WithLimiter(l *transport.Limiter) *Provider {
	p.limiter = l
	return p
}

// Name returns the provider name
func (p *Provider) Name() string { return "openai" }

// Model returns the model identifier every request is sent with
func (p *Provider) Model() string { return p.config.Model }

// Complete performs a completion request
func (p *Provider) Complete(ctx context.Context, req *shared.CompletionRequest) (*shared.CompletionResponse, error) {
	if req != nil && req.Options.Model == "" {
		req.Options.Model = p.config.Model
	}
	if err := shared.ValidateCompletionRequest(req); err != nil {
		return nil, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, ToOpenAIRequest(req))
	if err != nil {
		return nil, NormalizeOpenAIError(err)
	}

	return FromOpenAIResponse(resp), nil
}

// NormalizeOpenAIError converts OpenAI errors to normalized ProviderError
func NormalizeOpenAIError(err error) *shared.ProviderError {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &shared.ProviderError{
			Code:       shared.CodeForStatus(apiErr.HTTPStatusCode),
			Message:    fmt.Sprintf("openai: %s", apiErr.Message),
			HTTPStatus: apiErr.HTTPStatusCode,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &shared.ProviderError{
			Code:       shared.CodeForStatus(reqErr.HTTPStatusCode),
			Message:    fmt.Sprintf("openai: request failed with status %d: %v", reqErr.HTTPStatusCode, reqErr.Err),
			HTTPStatus: reqErr.HTTPStatusCode,
			Err:        err,
		}
	}

	if isDecodeError(err) {
		return &shared.ProviderError{
			Code:       shared.ErrDecode,
			Message:    fmt.Sprintf("openai: failed to decode response: %v", err),
			HTTPStatus: http.StatusOK,
			Err:        err,
		}
	}

	pe := shared.NormalizeError(err)
	if pe.Code == shared.ErrUnknown {
		pe.Code = shared.ErrUnavailable
	}
	pe.Message = fmt.Sprintf("openai: %s", pe.Message)
	return pe
}

// isDecodeError reports whether err came from decoding a response body. A bare
// io.EOF is an empty body; EOF inside a *url.Error is a dropped connection.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var urlErr *url.Error
	return errors.Is(err, io.EOF) && !errors.As(err, &urlErr)
}
