package openai

import (
	"research-writer/llm/providers/shared"

	"github.com/sashabaranov/go-openai"
)

// ToOpenAIRequest converts a shared CompletionRequest to OpenAI format.
// Message order is preserved exactly.
func ToOpenAIRequest(req *shared.CompletionRequest) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	o := req.Options
	return openai.ChatCompletionRequest{
		Model:       o.Model,
		Messages:    msgs,
		MaxTokens:   o.MaxTokens,
		Temperature: o.Temperature,
		TopP:        o.TopP,
		Stop:        o.Stop,
	}
}

// FromOpenAIResponse converts an OpenAI response to shared format
func FromOpenAIResponse(resp openai.ChatCompletionResponse) *shared.CompletionResponse {
	out := &shared.CompletionResponse{
		Messages: make([]shared.Message, 0, len(resp.Choices)),
		Usage: shared.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Model: resp.Model,
	}

	for _, choice := range resp.Choices {
		out.Messages = append(out.Messages, shared.Message{
			Role:    shared.RoleAssistant,
			Content: choice.Message.Content,
		})
	}

	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.StopReason = string(resp.Choices[0].FinishReason)
	}

	return out
}
