package shared

import (
	"context"
	"errors"
	"fmt"
)

// NormalizeError normalizes different error types to ProviderError
func NormalizeError(err error) *ProviderError {
	if err == nil {
		return nil
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &ProviderError{Code: ErrTimeout, Message: err.Error(), Err: err}
	default:
		return &ProviderError{Code: ErrUnknown, Message: err.Error(), Err: err}
	}
}

// CodeForStatus maps an upstream HTTP status to a normalized error code
func CodeForStatus(status int) ErrorCode {
	switch {
	case status == 401 || status == 403:
		return ErrAuth
	case status == 404:
		return ErrModelNotFound
	case status == 408:
		return ErrTimeout
	case status == 429:
		return ErrRateLimited
	case status >= 500:
		return ErrUnavailable
	case status >= 400:
		return ErrInvalidRequest
	default:
		return ErrUnknown
	}
}

// ValidateCompletionRequest rejects requests no provider can serve: no
// messages, an unknown role, or no model.
func ValidateCompletionRequest(req *CompletionRequest) error {
	switch {
	case req == nil:
		return invalidRequest("request is nil")
	case len(req.Messages) == 0:
		return invalidRequest("request has no messages")
	case req.Options.Model == "":
		return invalidRequest("request names no model")
	}

	for i, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return invalidRequest("message %d has unsupported role %q", i, msg.Role)
		}
	}
	return nil
}

func invalidRequest(format string, args ...any) *ProviderError {
	return &ProviderError{Code: ErrInvalidRequest, Message: fmt.Sprintf(format, args...)}
}
