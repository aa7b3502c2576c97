// Package metrics records pipeline and LLM usage metrics.
package metrics

import "time"

// Status labels used for stage outcomes.
const (
	StatusSuccess = "success"
)

// Recorder receives observations from the pipeline and the agents.
type Recorder interface {
	// ObserveStage records one pipeline stage (search, researcher, writer, pipeline).
	// status is StatusSuccess or the failing error kind.
	ObserveStage(stage, status string, duration time.Duration)
	// ObserveTokens records token usage reported by the model for one agent call.
	ObserveTokens(agent string, promptTokens, completionTokens int)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveStage(string, string, time.Duration) {}

func (Nop) ObserveTokens(string, int, int) {}
