package embedding

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"skillmatch/services/matching/internal/errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL+"/"),
		option.WithMaxRetries(0),
	)
	return NewOpenAIProvider(&client, "text-embedding-3-small")
}

func TestOpenAIProviderEmbed(t *testing.T) {
	var got map[string]any
	provider := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":0,"embedding":[0.25,0.5,0.75]}],
			"usage":{"prompt_tokens":3,"total_tokens":3}}`))
	})

	vec, err := provider.Embed(context.Background(), "resume text", 3)
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vec) != 3 || vec[2] != 0.75 {
		t.Errorf("Embed() = %v", vec)
	}
	if got["input"] != "resume text" || got["dimensions"] != float64(3) || got["encoding_format"] != "float" {
		t.Errorf("unexpected request body: %v", got)
	}
}

func TestOpenAIProviderRateLimited(t *testing.T) {
	provider := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	})

	_, err := provider.Embed(context.Background(), "x", 3)
	if !stderrors.Is(err, ErrThrottled) {
		t.Errorf("expected ErrThrottled, got %v", err)
	}
}

func TestOpenAIProviderBadRequest(t *testing.T) {
	provider := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad dims","type":"invalid_request_error"}}`))
	})

	_, err := provider.Embed(context.Background(), "x", 3)
	if err == nil || stderrors.Is(err, ErrThrottled) {
		t.Errorf("expected a non-throttle error, got %v", err)
	}
}

func TestOpenAIProviderEmptyData(t *testing.T) {
	provider := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"m","data":[],"usage":{"prompt_tokens":0,"total_tokens":0}}`))
	})

	_, err := provider.Embed(context.Background(), "x", 3)
	if !errors.IsType(err, errors.ErrTypeMalformedResponse) {
		t.Errorf("expected MalformedResponse, got %v", err)
	}
}
