package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"time"

	"skillmatch/common/cache"
	"skillmatch/common/telemetry"
	"skillmatch/services/matching/internal/errors"
	"skillmatch/services/matching/internal/models"
	"skillmatch/services/matching/internal/retry"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("skillmatch/matching/embedding")

type Options struct {
	Dimension int
	Policy    retry.Policy

	// Cache holds query embeddings. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration

	// Timer overrides the wall-clock wait between attempts.
	Timer backoff.Timer
}

// Client wraps a Provider with throttling retries, response validation and
// an optional query cache.
type Client struct {
	provider Provider
	dim      int
	policy   retry.Policy
	cache    cache.Cache
	cacheTTL time.Duration
	timer    backoff.Timer
	logger   *zap.Logger
}

func NewClient(provider Provider, opts Options, logger *zap.Logger) *Client {
	c := opts.Cache
	if c == nil {
		c = cache.Noop{}
	}
	return &Client{
		provider: provider,
		dim:      opts.Dimension,
		policy:   opts.Policy,
		cache:    c,
		cacheTTL: opts.CacheTTL,
		timer:    opts.Timer,
		logger:   logger,
	}
}

func (c *Client) Dimension() int {
	return c.dim
}

// Embed returns the model's vector for text. Throttled calls are retried
// per the policy; any other failure is returned after one attempt.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := tracer.Start(ctx, "Embed")
	defer span.End()

	span.SetAttributes(
		telemetry.String("embedding.model", c.provider.Model()),
		telemetry.Int("embedding.dimension", c.dim),
	)

	attempts := 0
	opts := []retry.Option{
		retry.WithRetryIf(func(err error) bool { return stderrors.Is(err, ErrThrottled) }),
		retry.WithNotify(func(err error, attempt int, next time.Duration) {
			c.logger.Warn("embedding request throttled, retrying",
				zap.String("model", c.provider.Model()),
				zap.Int("attempt", attempt),
				zap.Duration("delay", next),
				zap.Error(err))
		}),
	}
	if c.timer != nil {
		opts = append(opts, retry.WithTimer(c.timer))
	}

	vec, err := retry.Do(ctx, c.policy, func(ctx context.Context) ([]float32, error) {
		attempts++
		return c.provider.Embed(ctx, text, c.dim)
	}, opts...)
	span.SetAttributes(telemetry.Int("embedding.attempts", attempts))

	if err != nil {
		span.RecordError(err)
		switch {
		case stderrors.Is(err, retry.ErrExhausted):
			return nil, errors.EmbeddingFailure("max retries exceeded", errors.RateLimit("embedding service kept throttling", err))
		case errors.IsType(err, errors.ErrTypeMalformedResponse):
			return nil, err
		case ctx.Err() != nil:
			return nil, errors.EmbeddingFailure("embedding request cancelled", err)
		default:
			return nil, errors.EmbeddingFailure("embedding request failed", err)
		}
	}

	if len(vec) != c.dim {
		err := errors.MalformedResponse(fmt.Sprintf("expected %d dimensions, got %d", c.dim, len(vec)), nil)
		span.RecordError(err)
		return nil, err
	}

	return vec, nil
}

// EmbedQuery is Embed behind the query cache. Cache failures are logged
// and never fail the call.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)

	var cached models.Vector
	err := c.cache.Get(ctx, key, &cached)
	switch {
	case err == nil && len(cached) == c.dim:
		c.logger.Debug("query embedding cache hit", zap.String("key", key))
		return cached, nil
	case err != nil && !stderrors.Is(err, cache.ErrNotFound):
		c.logger.Warn("query embedding cache error", zap.String("key", key), zap.Error(err))
	}

	vec, err := c.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, models.Vector(vec), c.cacheTTL); err != nil {
		c.logger.Warn("failed to cache query embedding", zap.String("key", key), zap.Error(err))
	}

	return vec, nil
}

func (c *Client) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s:%d:%s", c.provider.Model(), c.dim, hex.EncodeToString(sum[:]))
}
