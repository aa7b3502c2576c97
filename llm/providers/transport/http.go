package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"research-writer/llm/providers/shared"
)

// HTTPClient provides a tuned HTTP client for provider requests.
// Each call is attempted exactly once.
type HTTPClient struct {
	client  *http.Client
	opts    shared.ClientOptions
	limiter *Limiter
}

// NewHTTPClient creates a new HTTP client with the specified options
func NewHTTPClient(opts shared.ClientOptions) *HTTPClient {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 10
	}
	if opts.IdleConnTTL == 0 {
		opts.IdleConnTTL = 90 * time.Second
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        opts.MaxIdleConns,
		MaxIdleConnsPerHost: opts.MaxIdleConns,
		IdleConnTimeout:     opts.IdleConnTTL,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts: opts,
	}
}

// WithLimiter throttles outbound requests through l. A nil limiter disables throttling.
func (c *HTTPClient) WithLimiter(l *Limiter) *HTTPClient {
	c.limiter = l
	return c
}

// StdClient exposes the underlying *http.Client so SDK clients can share the tuned transport.
func (c *HTTPClient) StdClient() *http.Client {
	return c.client
}

// Do performs an HTTP request
func (c *HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", "research-writer/1.0")
	}

	for key, value := range c.opts.Headers {
		req.Header.Set(key, value)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, &shared.ProviderError{
			Code:    transportCode(ctx, err),
			Message: fmt.Sprintf("request to %s failed: %v", req.URL.Host, err),
			Err:     err,
		}
	}

	return resp, nil
}

// PostJSON marshals body and POSTs it to url
func (c *HTTPClient) PostJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &shared.ProviderError{
			Code:    shared.ErrInvalidRequest,
			Message: fmt.Sprintf("failed to marshal request: %v", err),
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &shared.ProviderError{
			Code:    shared.ErrInvalidRequest,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Err:     err,
		}
	}
	return c.Do(ctx, req)
}

func transportCode(ctx context.Context, err error) shared.ErrorCode {
	if ctx.Err() != nil {
		return shared.ErrTimeout
	}
	if t, ok := err.(interface{ Timeout() bool }); ok && t.Timeout() {
		return shared.ErrTimeout
	}
	return shared.ErrUnavailable
}
