package skills

import (
	"context"
	"fmt"

	"skillmatch/services/matching/internal/errors"

	"github.com/openai/openai-go"
)

// OpenAICompleter sends the prompt as a single user message to a chat model.
type OpenAICompleter struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func NewOpenAICompleter(client *openai.Client, model string, maxTokens int) *OpenAICompleter {
	return &OpenAICompleter{client: client, model: model, maxTokens: maxTokens}
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("requesting completion from %s: %w", c.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.MalformedResponse("chat completion has no choices", nil)
	}

	return resp.Choices[0].Message.Content, nil
}
