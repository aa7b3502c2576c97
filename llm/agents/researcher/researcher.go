package researcher

import (
	"context"
	"errors"

	"research-writer/llm/agents"
	"research-writer/llm/providers/shared"
)

// ContextFetcher turns a query into search context. *search.ContextProvider implements it.
type ContextFetcher interface {
	FetchContext(ctx context.Context, query string) (string, error)
}

// ResearcherAgent summarizes raw search results for a question.
// It exclusively owns its context fetcher.
type ResearcherAgent struct {
	*agents.BaseAgent
	fetcher ContextFetcher
}

// NewResearcherAgent creates a researcher backed by llm and fetcher
func NewResearcherAgent(llm shared.LLMProvider, fetcher ContextFetcher, opts ...agents.Option) (*ResearcherAgent, error) {
	if fetcher == nil {
		return nil, agents.NewConfigError(Name, errors.New("context fetcher is required"))
	}

	base, err := agents.NewBaseAgent(Name, DefaultInstruction, llm, opts...)
	if err != nil {
		return nil, err
	}

	return &ResearcherAgent{
		BaseAgent: base,
		fetcher:   fetcher,
	}, nil
}

// FetchContext retrieves the search context for query
func (r *ResearcherAgent) FetchContext(ctx context.Context, query string) (string, error) {
	return r.fetcher.FetchContext(ctx, query)
}

// Research fetches context for query and summarizes it. A fetch failure
// is returned without calling the model.
func (r *ResearcherAgent) Research(ctx context.Context, query string) (string, error) {
	searchContext, err := r.FetchContext(ctx, query)
	if err != nil {
		return "", err
	}
	return r.Prompt(ctx, query, searchContext)
}
