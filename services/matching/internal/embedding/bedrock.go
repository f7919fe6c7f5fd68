package embedding

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"skillmatch/services/matching/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
)

// InvokeModelAPI is the subset of the Bedrock runtime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type titanRequest struct {
	InputText      string   `json:"inputText"`
	Dimensions     int      `json:"dimensions"`
	Normalize      bool     `json:"normalize"`
	EmbeddingTypes []string `json:"embeddingTypes"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// BedrockProvider calls a Titan text embedding model.
type BedrockProvider struct {
	api     InvokeModelAPI
	modelID string
}

func NewBedrockProvider(api InvokeModelAPI, modelID string) *BedrockProvider {
	return &BedrockProvider{api: api, modelID: modelID}
}

func (p *BedrockProvider) Model() string {
	return p.modelID
}

func (p *BedrockProvider) Embed(ctx context.Context, text string, dim int) ([]float32, error) {
	body, err := json.Marshal(titanRequest{
		InputText:      text,
		Dimensions:     dim,
		Normalize:      true,
		EmbeddingTypes: []string{"float"},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding titan request: %w", err)
	}

	out, err := p.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		if IsBedrockThrottle(err) {
			return nil, fmt.Errorf("%w: %w", ErrThrottled, err)
		}
		return nil, fmt.Errorf("invoking %s: %w", p.modelID, err)
	}

	var resp titanResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, errors.MalformedResponse("decoding titan response", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, errors.MalformedResponse("titan response has no embedding", nil)
	}

	return resp.Embedding, nil
}

// IsBedrockThrottle reports whether err is Bedrock's throttling signal.
func IsBedrockThrottle(err error) bool {
	var throttle *types.ThrottlingException
	if stderrors.As(err, &throttle) {
		return true
	}
	var apiErr smithy.APIError
	return stderrors.As(err, &apiErr) && apiErr.ErrorCode() == "ThrottlingException"
}
