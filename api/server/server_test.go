package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"research-writer/internal/metrics"
	"research-writer/llm/agents/pipeline"
	"research-writer/llm/agents/researcher"
	"research-writer/llm/agents/writer"
	"research-writer/llm/providers/test"
	"research-writer/llm/search"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearch struct {
	payload string
	err     error
}

func (s *stubSearch) Search(context.Context, string) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.payload), nil
}

type stubPipeline struct{}

func (stubPipeline) Run(_ context.Context, query string) (string, error) { return query, nil }

// newTestServer wires the real agents and orchestrator over fakes.
func newTestServer(t *testing.T, client search.Client, logs io.Writer) (*Server, *test.FakeProvider, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	llm := test.NewEchoProvider()

	provider, err := search.NewContextProvider(client, zerolog.Nop())
	require.NoError(t, err)
	r, err := researcher.NewResearcherAgent(llm, provider)
	require.NoError(t, err)
	w, err := writer.NewWriterAgent(llm)
	require.NoError(t, err)
	orch, err := pipeline.NewOrchestrator(r, w, pipeline.WithRecorder(recorder))
	require.NoError(t, err)

	srv, err := NewServer(Config{}, orch, WithLogger(zerolog.New(logs)), WithMetrics(reg))
	require.NoError(t, err)
	return srv, llm, reg
}

func TestNewServerRequiresPipeline(t *testing.T) {
	_, err := NewServer(Config{}, nil)
	assert.Error(t, err)
}

func TestNewServerDefaults(t *testing.T) {
	srv, err := NewServer(Config{Address: ":9000"}, stubPipeline{})
	require.NoError(t, err)

	assert.Equal(t, ":9000", srv.server.Addr)
	assert.Equal(t, defaultConfig.ReadTimeout, srv.server.ReadTimeout)
	assert.Equal(t, defaultConfig.WriteTimeout, srv.server.WriteTimeout)
	assert.Equal(t, defaultConfig.ShutdownTimeout, srv.config.ShutdownTimeout)
}

func TestPromptEndToEnd(t *testing.T) {
	srv, llm, reg := newTestServer(t, &stubSearch{payload: `{"results":[{"title":"X"}]}`}, io.Discard)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/prompt", "application/json", strings.NewReader(`{"q":"best hiking boots"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "best hiking boots")
	assert.Equal(t, 2, llm.GetCallCount())

	_, err = uuid.Parse(resp.Header.Get(RequestIDHeader))
	assert.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestPromptSearchFailure(t *testing.T) {
	var logs bytes.Buffer
	srv, llm, _ := newTestServer(t, &stubSearch{err: errors.New("dial tcp: connection refused")}, &logs)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/prompt", strings.NewReader(`{"q":"best hiking boots"}`))
	require.NoError(t, err)
	id := uuid.NewString()
	req.Header.Set(RequestIDHeader, id)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "ProviderError")
	assert.Contains(t, string(body), "connection refused")
	assert.Equal(t, 0, llm.GetCallCount())
	assert.Equal(t, id, resp.Header.Get(RequestIDHeader))

	assert.Contains(t, logs.String(), "An error happened")
	assert.Contains(t, logs.String(), `"request_id":"`+id+`"`)
}

func TestRoutes(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubSearch{payload: `{}`}, io.Discard)
	h := srv.Handler()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "root", method: http.MethodGet, path: "/", wantStatus: http.StatusOK, wantBody: "Hello, world!"},
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK, wantBody: `"healthy"`},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK, wantBody: "pipeline_stage_total"},
		{name: "prompt preflight", method: http.MethodOptions, path: "/prompt", wantStatus: http.StatusOK},
		{name: "prompt wrong method", method: http.MethodGet, path: "/prompt", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
	}

	// Populate the metric families before scraping.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/prompt", strings.NewReader(`{"q":"x"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, err := NewServer(Config{}, stubPipeline{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/prompt", nil))

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestMetricsNotMountedWithoutGatherer(t *testing.T) {
	srv, err := NewServer(Config{}, stubPipeline{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv, err := NewServer(Config{ShutdownTimeout: time.Second}, stubPipeline{})
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
