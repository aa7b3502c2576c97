package app

import (
	"research-writer/api/server"
	"research-writer/internal/config"
	"research-writer/internal/metrics"
	"research-writer/llm/agents"
	"research-writer/llm/agents/pipeline"
	"research-writer/llm/agents/researcher"
	"research-writer/llm/agents/writer"
	"research-writer/llm/providers/openai"
	"research-writer/llm/providers/transport"
	"research-writer/llm/search"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// App holds the wired components of one process. Everything is built once
// at startup and shared by all requests.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Pipeline *pipeline.Orchestrator
}

// New builds the clients, agents and orchestrator described by cfg.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheusRecorder(reg)

	llm, err := openai.NewProvider(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		OrgID:   cfg.OpenAI.OrgID,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	})
	if err != nil {
		return nil, err
	}
	completionLimiter := transport.NewLimiter(cfg.RateLimit.CompletionRPS, cfg.RateLimit.Burst)
	llm.WithLimiter(completionLimiter)

	serper, err := search.NewSerper(search.SerperConfig{
		APIKey:   cfg.Search.APIKey,
		Endpoint: cfg.Search.Endpoint,
		Timeout:  cfg.Search.Timeout,
	})
	if err != nil {
		return nil, err
	}
	searchLimiter := transport.NewLimiter(cfg.RateLimit.SearchRPS, cfg.RateLimit.Burst)
	serper.WithLimiter(searchLimiter)

	contextProvider, err := search.NewContextProvider(serper, logger)
	if err != nil {
		return nil, err
	}

	common := []agents.Option{
		agents.WithModel(cfg.OpenAI.Model),
		agents.WithLogger(logger),
		agents.WithRecorder(recorder),
	}

	r, err := researcher.NewResearcherAgent(llm, contextProvider,
		append(common, agents.WithInstruction(cfg.Agents.ResearcherInstruction))...)
	if err != nil {
		return nil, err
	}

	w, err := writer.NewWriterAgent(llm,
		append(common, agents.WithInstruction(cfg.Agents.WriterInstruction))...)
	if err != nil {
		return nil, err
	}

	orch, err := pipeline.NewOrchestrator(r, w,
		pipeline.WithLogger(logger),
		pipeline.WithRecorder(recorder),
	)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("model", cfg.OpenAI.Model).
		Str("search_endpoint", cfg.Search.Endpoint).
		Float64("completion_rps", completionLimiter.Limit()).
		Float64("search_rps", searchLimiter.Limit()).
		Msg("pipeline ready")

	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Pipeline: orch,
	}, nil
}

// Server returns an HTTP server exposing the pipeline and its metrics.
func (a *App) Server() (*server.Server, error) {
	return server.NewServer(server.Config{
		Address:         a.Config.Server.Address,
		ReadTimeout:     a.Config.Server.ReadTimeout,
		WriteTimeout:    a.Config.Server.WriteTimeout,
		ShutdownTimeout: a.Config.Server.ShutdownTimeout,
	}, a.Pipeline,
		server.WithLogger(a.Logger),
		server.WithMetrics(a.Registry),
	)
}
