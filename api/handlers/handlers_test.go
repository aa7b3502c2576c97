package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"research-writer/api"
	"research-writer/llm/agents"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPipeline struct {
	article string
	err     error
	queries []string
}

func (s *stubPipeline) Run(_ context.Context, query string) (string, error) {
	s.queries = append(s.queries, query)
	return s.article, s.err
}

func postPrompt(t *testing.T, h *PromptHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/prompt", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Prompt(rec, req)
	return rec
}

func TestPromptSuccess(t *testing.T) {
	p := &stubPipeline{article: "# Boots\n\nBuy good boots."}
	h := NewPromptHandler(p, zerolog.Nop())

	rec := postPrompt(t, h, `{"q": "  best hiking boots "}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# Boots\n\nBuy good boots.", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, []string{"best hiking boots"}, p.queries)
}

func TestPromptPipelineFailure(t *testing.T) {
	var logs bytes.Buffer
	cause := agents.NewProviderError("search", errors.New("connection refused"))
	p := &stubPipeline{err: cause}
	h := NewPromptHandler(p, zerolog.New(&logs))

	rec := postPrompt(t, h, `{"q": "best hiking boots"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, cause.Error(), rec.Body.String())

	var line map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &line))
	assert.Equal(t, "An error happened", line["message"])
	assert.Equal(t, "provider", line["kind"])
}

func TestPromptUsesRequestLogger(t *testing.T) {
	var fallback, scoped bytes.Buffer
	h := NewPromptHandler(&stubPipeline{err: agents.NewEmptyCompletion("Writer")}, zerolog.New(&fallback))

	req := httptest.NewRequest(http.MethodPost, "/prompt", strings.NewReader(`{"q":"x"}`))
	l := zerolog.New(&scoped).With().Str("request_id", "abc").Logger()
	req = req.WithContext(l.WithContext(req.Context()))
	rec := httptest.NewRecorder()
	h.Prompt(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, fallback.String())
	assert.Contains(t, scoped.String(), `"request_id":"abc"`)
}

func TestPromptBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"q": `},
		{name: "missing q", body: `{}`},
		{name: "blank q", body: `{"q": "   "}`},
		{name: "wrong type", body: `{"q": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubPipeline{}
			h := NewPromptHandler(p, zerolog.Nop())

			rec := postPrompt(t, h, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, p.queries)

			var resp api.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "Bad Request", resp.Code)
		})
	}
}

func TestRoot(t *testing.T) {
	rec := httptest.NewRecorder()
	Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, world!", rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Success bool             `json:"success"`
		Data    api.HealthStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", resp.Data.Status)
	assert.Equal(t, Version, resp.Data.Version)
}
