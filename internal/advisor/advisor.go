package advisor

import (
	"context"
	"fmt"
	"strings"

	"lexgate/engine/internal/llm"
	"lexgate/engine/internal/openai"
)

const (
	reviewMaxTokens = 2500
	reviseMaxTokens = 1000

	reviseTemperature = 0.5
)

// ChatClient is the slice of the provider client the advisor needs.
type ChatClient interface {
	Chat(ctx context.Context, apiKey string, params openai.ChatParams, messages []llm.Message) (string, error)
}

// Advisor issues the two labor-law call shapes against the provider.
type Advisor struct {
	client      ChatClient
	reviewModel string
	reviseModel string
}

func New(client ChatClient, reviewModel, reviseModel string) *Advisor {
	return &Advisor{client: client, reviewModel: reviewModel, reviseModel: reviseModel}
}

// ReviewContract sends the full contract text and returns the raw model
// output, expected (but not guaranteed) to contain original/recommended
// JSON pairs.
func (a *Advisor) ReviewContract(ctx context.Context, apiKey, documentText string) (string, error) {
	messages := []llm.Message{
		{Role: "system", Content: reviewSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(reviewUserPrompt, documentText)},
	}
	return a.client.Chat(ctx, apiKey, openai.ChatParams{
		Model:     a.reviewModel,
		MaxTokens: reviewMaxTokens,
	}, messages)
}

// ReviseClause sends one clause and returns the revised text only.
func (a *Advisor) ReviseClause(ctx context.Context, apiKey, originalText string) (string, error) {
	messages := []llm.Message{
		{Role: "system", Content: reviseSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(reviseUserPrompt, originalText)},
	}
	content, err := a.client.Chat(ctx, apiKey, openai.ChatParams{
		Model:       a.reviseModel,
		MaxTokens:   reviseMaxTokens,
		Temperature: reviseTemperature,
	}, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}
