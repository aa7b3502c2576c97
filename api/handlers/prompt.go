package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"research-writer/api"
	"research-writer/llm/agents"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxPromptBody bounds the request body of POST /prompt.
const maxPromptBody = 1 << 20

// Pipeline turns a query into a finished article.
type Pipeline interface {
	Run(ctx context.Context, query string) (string, error)
}

// PromptHandler serves POST /prompt
type PromptHandler struct {
	pipeline Pipeline
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewPromptHandler creates a new prompt handler backed by the pipeline
func NewPromptHandler(pipeline Pipeline, logger zerolog.Logger) *PromptHandler {
	return &PromptHandler{
		pipeline: pipeline,
		validate: validator.New(),
		logger:   logger,
	}
}

//	curl -X POST http://localhost:8080/prompt \
//	  -H "Content-Type: application/json" \
//	  -d '{"q": "best hiking boots"}'
func (h *PromptHandler) Prompt(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerFor(r)

	var req api.PromptRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPromptBody)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON request", err.Error())
		return
	}
	req.Q = strings.TrimSpace(req.Q)
	if err := h.validate.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request", "field q is required")
		return
	}

	article, err := h.pipeline.Run(r.Context(), req.Q)
	if err != nil {
		logger.Error().Err(err).Str("kind", agents.KindOf(err)).Msg("An error happened")
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeText(w, http.StatusOK, article)
}

func (h *PromptHandler) loggerFor(r *http.Request) zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return h.logger
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string, details string) {
	writeJSON(w, status, api.ErrorResponse{
		Error: message,
		Code:  http.StatusText(status),
		Details: map[string]any{
			"details": details,
		},
	})
}
