// Package agents provides the agent capability shared by every agent variant.
//
// An agent is a role-configured wrapper around a completion model: it owns a
// system instruction and a model client and turns an instruction plus some
// context into model output. Variants live in sub-packages:
//   - researcher/: fetches search results and summarizes them
//   - writer/: turns a research summary into an article
//   - pipeline/: runs researcher then writer for one query
package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"research-writer/internal/metrics"
	"research-writer/llm/providers/shared"

	"github.com/rs/zerolog"
)

// DefaultModel is the model identifier used when none is configured.
const DefaultModel = "gpt-4o"

// ContextSeparator sits between the instruction and the context in the user message.
const ContextSeparator = "\n\nProvided context:\n"

// Agent is the capability the orchestrator depends on.
type Agent interface {
	Name() string
	SystemInstruction() string
	Prompt(ctx context.Context, instruction, contextText string) (string, error)
}

// BaseAgent implements Prompt once for every variant. It holds only
// immutable configuration and is safe for concurrent use.
type BaseAgent struct {
	name               string
	defaultInstruction string
	instruction        string
	model              string
	llm                shared.LLMProvider
	logger             zerolog.Logger
	recorder           metrics.Recorder
}

// Option configures a BaseAgent at construction.
type Option func(*BaseAgent)

// WithInstruction overrides the variant's default system instruction.
// An empty string keeps the default.
func WithInstruction(instruction string) Option {
	return func(a *BaseAgent) { a.instruction = instruction }
}

// WithModel sets the model identifier sent with every request.
func WithModel(model string) Option {
	return func(a *BaseAgent) {
		if model != "" {
			a.model = model
		}
	}
}

// WithLogger sets the logger used when the request context carries none.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *BaseAgent) { a.logger = logger }
}

// WithRecorder sets the token metrics recorder. Nil keeps the no-op recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(a *BaseAgent) {
		if recorder != nil {
			a.recorder = recorder
		}
	}
}

// NewBaseAgent creates the shared agent core for a variant.
func NewBaseAgent(name, defaultInstruction string, llm shared.LLMProvider, opts ...Option) (*BaseAgent, error) {
	if llm == nil {
		return nil, NewConfigError(name, errors.New("completion client is required"))
	}

	a := &BaseAgent{
		name:               name,
		defaultInstruction: defaultInstruction,
		model:              DefaultModel,
		llm:                llm,
		logger:             zerolog.Nop(),
		recorder:           metrics.Nop{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With().Str("agent", name).Logger()
	return a, nil
}

// Name returns the agent name used in logs, metrics and errors.
func (a *BaseAgent) Name() string { return a.name }

// SystemInstruction returns the configured instruction, or the variant default.
func (a *BaseAgent) SystemInstruction() string {
	if a.instruction != "" {
		return a.instruction
	}
	return a.defaultInstruction
}

// Model returns the model identifier sent with every request.
func (a *BaseAgent) Model() string { return a.model }

// Logger returns the agent's logger, already tagged with the agent name.
func (a *BaseAgent) Logger() zerolog.Logger { return a.logger }

// BuildMessages returns the system message followed by the user message.
func (a *BaseAgent) BuildMessages(instruction, contextText string) []shared.Message {
	return []shared.Message{
		{Role: shared.RoleSystem, Content: a.SystemInstruction()},
		{Role: shared.RoleUser, Content: instruction + ContextSeparator + FormatContext(contextText)},
	}
}

// Prompt sends instruction and context to the model and returns the first choice.
func (a *BaseAgent) Prompt(ctx context.Context, instruction, contextText string) (string, error) {
	start := time.Now()
	logger := a.loggerFor(ctx)

	resp, err := a.llm.Complete(ctx, &shared.CompletionRequest{
		Messages: a.BuildMessages(instruction, contextText),
		Options:  shared.CompletionOptions{Model: a.model},
	})
	if err != nil {
		err = FromProviderError(a.name, err)
		logger.Error().Err(err).Str("kind", KindOf(err)).Dur("elapsed", time.Since(start)).Msg("prompt failed")
		return "", err
	}
	if resp == nil || len(resp.Messages) == 0 {
		err := NewEmptyCompletion(a.name)
		logger.Error().Err(err).Str("kind", KindOf(err)).Msg("prompt failed")
		return "", err
	}

	result := resp.Messages[0].Content
	a.recorder.ObserveTokens(a.name, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	logger.Info().
		Str("model", a.model).
		Int("total_tokens", resp.Usage.TotalTokens).
		Dur("elapsed", time.Since(start)).
		Str("result", result).
		Msg("retrieved result from prompt")

	return result, nil
}

// loggerFor prefers the request-scoped logger carried by ctx.
func (a *BaseAgent) loggerFor(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l.With().Str("agent", a.name).Logger()
	}
	return a.logger
}

// FormatContext pretty-prints JSON context and returns anything else verbatim.
func FormatContext(contextText string) string {
	if !json.Valid([]byte(contextText)) {
		return contextText
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(contextText), "", "  "); err != nil {
		return contextText
	}
	return buf.String()
}
