package agents

import (
	"errors"
	"strings"

	"research-writer/llm/providers/shared"
)

// Error kinds. Match them with errors.Is.
var (
	ErrProvider        = errors.New("ProviderError")
	ErrDecode          = errors.New("DecodeError")
	ErrEmptyCompletion = errors.New("EmptyCompletion")
	ErrConfig          = errors.New("ConfigError")
)

// AgentError is the failure type of every pipeline stage.
type AgentError struct {
	Kind   error
	Source string
	Err    error
}

func (e *AgentError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is and errors.As.
func (e *AgentError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewProviderError wraps a transport or upstream failure.
func NewProviderError(source string, err error) *AgentError {
	return &AgentError{Kind: ErrProvider, Source: source, Err: err}
}

// NewDecodeError wraps a response body that could not be parsed.
func NewDecodeError(source string, err error) *AgentError {
	return &AgentError{Kind: ErrDecode, Source: source, Err: err}
}

// NewEmptyCompletion reports a completion with no choices.
func NewEmptyCompletion(source string) *AgentError {
	return &AgentError{Kind: ErrEmptyCompletion, Source: source, Err: errors.New("model returned no choices")}
}

// NewConfigError reports missing or invalid configuration.
func NewConfigError(source string, err error) *AgentError {
	return &AgentError{Kind: ErrConfig, Source: source, Err: err}
}

// FromProviderError classifies an error returned by a provider or search client.
// An existing *AgentError is returned unchanged.
func FromProviderError(source string, err error) error {
	if err == nil {
		return nil
	}

	var ae *AgentError
	if errors.As(err, &ae) {
		return err
	}

	var pe *shared.ProviderError
	if errors.As(err, &pe) && pe.Code == shared.ErrDecode {
		return NewDecodeError(source, err)
	}
	return NewProviderError(source, err)
}

// KindOf returns a short label for the kind of err, used in logs and metrics.
func KindOf(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrProvider):
		return "provider"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty_completion"
	case errors.Is(err, ErrConfig):
		return "config"
	default:
		return "unknown"
	}
}
