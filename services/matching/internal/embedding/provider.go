// Package embedding turns text into fixed-dimension vectors through a
// remote model, retrying when the service throttles.
package embedding

import (
	"context"
	"errors"
)

// ErrThrottled marks a provider error caused by the remote service
// rejecting the call for capacity reasons. Only these errors are retried.
var ErrThrottled = errors.New("embedding service throttled the request")

// Provider performs a single embedding call against a remote model.
type Provider interface {
	Embed(ctx context.Context, text string, dim int) ([]float32, error)
	Model() string
}
