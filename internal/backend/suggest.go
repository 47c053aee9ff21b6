package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const suggestMaxTokens = 1024

const suggestSystemPrompt = "You are a code reviewer. List concrete, numbered " +
	"improvement suggestions for the submitted code. Keep each suggestion to " +
	"one sentence and reference line numbers where possible."

// suggester asks an OpenAI chat model for improvement suggestions. It is
// optional: without an API key the stub reports no suggestions.
type suggester struct {
	client *openai.Client
	model  string
}

func newSuggester(apiKey, model string) *suggester {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &suggester{client: openai.NewClient(apiKey), model: model}
}

func (s *suggester) Suggest(ctx context.Context, code string, focusConceptual bool) (string, error) {
	user := code
	if focusConceptual {
		user = "Focus on conceptual and memory-safety problems.\n\n" + code
	}
	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: suggestSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	// Reasoning models reject MaxTokens.
	if strings.HasPrefix(s.model, "o1") || strings.HasPrefix(s.model, "o3") || strings.HasPrefix(s.model, "gpt-5") {
		req.MaxCompletionTokens = suggestMaxTokens
	} else {
		req.MaxTokens = suggestMaxTokens
	}
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
