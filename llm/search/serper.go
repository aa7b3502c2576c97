package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"research-writer/llm/agents"
	"research-writer/llm/providers/shared"
	"research-writer/llm/providers/transport"
)

// DefaultSerperEndpoint is the Serper Google search API.
const DefaultSerperEndpoint = "https://google.serper.dev/search"

// SerperConfig holds Serper client configuration
type SerperConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Serper calls the Serper search API. The key is sent in the X-API-KEY header.
type Serper struct {
	endpoint string
	client   *transport.HTTPClient
}

// NewSerper constructs a Serper search client.
func NewSerper(cfg SerperConfig) (*Serper, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, agents.NewConfigError("serper", errors.New("API key is missing"))
	}
	if strings.ContainsAny(cfg.APIKey, "\r\n") {
		return nil, agents.NewConfigError("serper", errors.New("API key is not a valid header value"))
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultSerperEndpoint
	}

	return &Serper{
		endpoint: cfg.Endpoint,
		client: transport.NewHTTPClient(shared.ClientOptions{
			Timeout: cfg.Timeout,
			Headers: map[string]string{
				"X-API-KEY":    cfg.APIKey,
				"Content-Type": "application/json",
			},
		}),
	}, nil
}

// WithLimiter throttles searches through l.
func (s *Serper) WithLimiter(l *transport.Limiter) *Serper {
	s.client.WithLimiter(l)
	return s
}

// Search posts {"q": query} and returns the response body.
func (s *Serper) Search(ctx context.Context, query string) (json.RawMessage, error) {
	resp, err := s.client.PostJSON(ctx, s.endpoint, map[string]string{"q": query})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &shared.ProviderError{
			Code:       shared.ErrUnavailable,
			Message:    fmt.Sprintf("serper: failed to read response body: %v", err),
			HTTPStatus: resp.StatusCode,
			Err:        err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &shared.ProviderError{
			Code:       shared.CodeForStatus(resp.StatusCode),
			Message:    fmt.Sprintf("serper: http %d: %s", resp.StatusCode, truncate(string(body), 200)),
			HTTPStatus: resp.StatusCode,
		}
	}

	if !json.Valid(body) {
		return nil, &shared.ProviderError{
			Code:       shared.ErrDecode,
			Message:    fmt.Sprintf("serper: response is not valid JSON: %s", truncate(string(body), 200)),
			HTTPStatus: resp.StatusCode,
		}
	}

	return json.RawMessage(body), nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Client = (*Serper)(nil)
