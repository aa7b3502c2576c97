// Package pipeline runs the researcher then the writer for one query.
package pipeline

import (
	"context"
	"errors"
	"time"

	"research-writer/internal/metrics"
	"research-writer/llm/agents"

	"github.com/rs/zerolog"
)

// Stage labels used in logs and metrics.
const (
	StageSearch     = "search"
	StageResearcher = "researcher"
	StageWriter     = "writer"
	StagePipeline   = "pipeline"
)

// Researcher is an agent that can also fetch its own search context.
type Researcher interface {
	agents.Agent
	FetchContext(ctx context.Context, query string) (string, error)
}

// Orchestrator sequences one Researcher and one Writer. Both are shared
// across concurrent runs; Run keeps no state between calls.
type Orchestrator struct {
	researcher Researcher
	writer     agents.Agent
	logger     zerolog.Logger
	recorder   metrics.Recorder
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger used when the request context carries none.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithRecorder sets the stage metrics recorder. Nil keeps the no-op recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// NewOrchestrator creates the pipeline
func NewOrchestrator(researcher Researcher, writer agents.Agent, opts ...Option) (*Orchestrator, error) {
	if researcher == nil || writer == nil {
		return nil, agents.NewConfigError(StagePipeline, errors.New("researcher and writer are required"))
	}

	o := &Orchestrator{
		researcher: researcher,
		writer:     writer,
		logger:     zerolog.Nop(),
		recorder:   metrics.Nop{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run produces an article for query. The first failing stage aborts the
// run and its error is returned unchanged; no partial result is returned.
func (o *Orchestrator) Run(ctx context.Context, query string) (string, error) {
	logger := o.loggerFor(ctx).With().Str("query", query).Logger()
	start := time.Now()

	article, err := o.run(ctx, logger, query)
	o.recorder.ObserveStage(StagePipeline, status(err), time.Since(start))
	if err != nil {
		logger.Error().Err(err).Str("kind", agents.KindOf(err)).Dur("elapsed", time.Since(start)).Msg("pipeline failed")
		return "", err
	}

	logger.Info().Dur("elapsed", time.Since(start)).Int("article_chars", len(article)).Msg("pipeline completed")
	return article, nil
}

func (o *Orchestrator) run(ctx context.Context, logger zerolog.Logger, query string) (string, error) {
	searchContext, err := o.stage(logger, StageSearch, func() (string, error) {
		return o.researcher.FetchContext(ctx, query)
	})
	if err != nil {
		return "", err
	}

	summary, err := o.stage(logger, StageResearcher, func() (string, error) {
		return o.researcher.Prompt(ctx, query, searchContext)
	})
	if err != nil {
		return "", err
	}

	return o.stage(logger, StageWriter, func() (string, error) {
		return o.writer.Prompt(ctx, query, summary)
	})
}

func (o *Orchestrator) stage(logger zerolog.Logger, name string, fn func() (string, error)) (string, error) {
	start := time.Now()
	out, err := fn()
	elapsed := time.Since(start)

	o.recorder.ObserveStage(name, status(err), elapsed)
	logger.Debug().Str("stage", name).Dur("elapsed", elapsed).Bool("ok", err == nil).Msg("stage finished")
	return out, err
}

// loggerFor prefers the request-scoped logger carried by ctx.
func (o *Orchestrator) loggerFor(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return o.logger
}

func status(err error) string {
	if err == nil {
		return metrics.StatusSuccess
	}
	return agents.KindOf(err)
}
