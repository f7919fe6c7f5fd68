package embedding

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"skillmatch/services/matching/internal/errors"

	"github.com/openai/openai-go"
)

// OpenAIProvider calls an OpenAI-compatible embeddings endpoint.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(client *openai.Client, model string) *OpenAIProvider {
	return &OpenAIProvider{client: client, model: model}
}

func (p *OpenAIProvider) Model() string {
	return p.model
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string, dim int) ([]float32, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:          openai.EmbeddingModel(p.model),
		Dimensions:     openai.Int(int64(dim)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		var apiErr *openai.Error
		if stderrors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %w", ErrThrottled, err)
		}
		return nil, fmt.Errorf("requesting embedding from %s: %w", p.model, err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.MalformedResponse("embeddings response has no data", nil)
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, f := range raw {
		vec[i] = float32(f)
	}
	return vec, nil
}
