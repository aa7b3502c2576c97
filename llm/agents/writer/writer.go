package writer

import (
	"research-writer/llm/agents"
	"research-writer/llm/providers/shared"
)

// WriterAgent turns a research summary into an article. It has no fetch
// step: the summary arrives as the prompt context.
type WriterAgent struct {
	*agents.BaseAgent
}

// NewWriterAgent creates a writer backed by llm
func NewWriterAgent(llm shared.LLMProvider, opts ...agents.Option) (*WriterAgent, error) {
	base, err := agents.NewBaseAgent(Name, DefaultInstruction, llm, opts...)
	if err != nil {
		return nil, err
	}
	return &WriterAgent{BaseAgent: base}, nil
}
