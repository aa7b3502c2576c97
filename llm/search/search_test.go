package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"research-writer/llm/agents"
	"research-writer/llm/providers/shared"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	payload json.RawMessage
	err     error
	queries []string
}

func (s *stubClient) Search(_ context.Context, query string) (json.RawMessage, error) {
	s.queries = append(s.queries, query)
	return s.payload, s.err
}

func TestNewContextProviderRequiresClient(t *testing.T) {
	_, err := NewContextProvider(nil, zerolog.Nop())
	assert.ErrorIs(t, err, agents.ErrConfig)
}

func TestFetchContextPrettyPrints(t *testing.T) {
	client := &stubClient{payload: json.RawMessage(`{"results":[{"title":"X"}]}`)}
	p, err := NewContextProvider(client, zerolog.Nop())
	require.NoError(t, err)

	out, err := p.FetchContext(context.Background(), "best hiking boots")
	require.NoError(t, err)

	assert.Equal(t, []string{"best hiking boots"}, client.queries)
	assert.Equal(t, "{\n  \"results\": [\n    {\n      \"title\": \"X\"\n    }\n  ]\n}", out)
}

func TestFetchContextErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *stubClient
		kind   error
	}{
		{
			name:   "transport failure",
			client: &stubClient{err: &shared.ProviderError{Code: shared.ErrUnavailable, Message: "dial tcp: refused"}},
			kind:   agents.ErrProvider,
		},
		{
			name:   "decode failure reported by client",
			client: &stubClient{err: &shared.ProviderError{Code: shared.ErrDecode, Message: "not json"}},
			kind:   agents.ErrDecode,
		},
		{
			name:   "malformed payload",
			client: &stubClient{payload: json.RawMessage(`{"results":`)},
			kind:   agents.ErrDecode,
		},
		{
			name:   "config error passes through",
			client: &stubClient{err: agents.NewConfigError("serper", errors.New("no key"))},
			kind:   agents.ErrConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewContextProvider(tt.client, zerolog.Nop())
			require.NoError(t, err)

			out, err := p.FetchContext(context.Background(), "q")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Empty(t, out)
		})
	}
}
