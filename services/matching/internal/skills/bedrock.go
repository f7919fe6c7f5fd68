package skills

import (
	"context"
	"encoding/json"
	"fmt"

	"skillmatch/services/matching/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type completionRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type completionResponse struct {
	Completion *string `json:"completion"`
}

// BedrockCompleter invokes a Bedrock text model with a prompt/max_tokens
// body and reads the completion field.
type BedrockCompleter struct {
	api       InvokeModelAPI
	modelID   string
	maxTokens int
}

func NewBedrockCompleter(api InvokeModelAPI, modelID string, maxTokens int) *BedrockCompleter {
	return &BedrockCompleter{api: api, modelID: modelID, maxTokens: maxTokens}
}

func (c *BedrockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{Prompt: prompt, MaxTokens: c.maxTokens})
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoking %s: %w", c.modelID, err)
	}

	var resp completionResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", errors.MalformedResponse("decoding completion response", err)
	}
	if resp.Completion == nil {
		return "", errors.MalformedResponse("completion response has no completion field", nil)
	}

	return *resp.Completion, nil
}
