// Package search turns a free-text query into the context handed to the researcher.
//
// A Client talks to a web search API and returns its raw JSON payload. The
// ContextProvider passes that payload through unmodified apart from
// pretty-printing it. There is no retry, pagination or result filtering.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"research-writer/llm/agents"

	"github.com/rs/zerolog"
)

// Source names the search stage in errors, logs and metrics.
const Source = "search"

// Client executes a query and returns the provider's JSON payload.
type Client interface {
	Search(ctx context.Context, query string) (json.RawMessage, error)
}

// ContextProvider wraps a Client for the researcher.
type ContextProvider struct {
	client Client
	logger zerolog.Logger
}

// NewContextProvider creates a provider backed by client.
func NewContextProvider(client Client, logger zerolog.Logger) (*ContextProvider, error) {
	if client == nil {
		return nil, agents.NewConfigError(Source, errors.New("search client is required"))
	}
	return &ContextProvider{
		client: client,
		logger: logger.With().Str("component", Source).Logger(),
	}, nil
}

// FetchContext runs one search for query and returns the pretty-printed payload.
func (p *ContextProvider) FetchContext(ctx context.Context, query string) (string, error) {
	start := time.Now()

	raw, err := p.client.Search(ctx, query)
	if err != nil {
		err = agents.FromProviderError(Source, err)
		p.logger.Error().Err(err).Str("kind", agents.KindOf(err)).Msg("search failed")
		return "", err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		derr := agents.NewDecodeError(Source, err)
		p.logger.Error().Err(derr).Msg("search returned malformed JSON")
		return "", derr
	}

	p.logger.Debug().Int("bytes", buf.Len()).Dur("elapsed", time.Since(start)).Msg("fetched search context")
	return buf.String(), nil
}
