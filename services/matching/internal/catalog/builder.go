package catalog

import (
	"context"
	"fmt"
	"time"

	"skillmatch/common/telemetry"
	"skillmatch/services/matching/internal/dataset"
	"skillmatch/services/matching/internal/embedcache"
	"skillmatch/services/matching/internal/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var tracer = telemetry.GetTracer("skillmatch/matching/catalog")

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

type BuilderOptions struct {
	// Validate compares the cache fingerprint against the current dataset.
	Validate bool
	// Pacing is the minimum spacing between embedding calls.
	Pacing time.Duration
}

// Builder produces a Catalog from the embedding cache, or from the dataset
// and the embedding service when the cache is absent or stale.
type Builder struct {
	source   dataset.Source
	store    *embedcache.Store
	embedder Embedder
	opts     BuilderOptions
	logger   *zap.Logger
}

func NewBuilder(source dataset.Source, store *embedcache.Store, embedder Embedder, opts BuilderOptions, logger *zap.Logger) *Builder {
	return &Builder{
		source:   source,
		store:    store,
		embedder: embedder,
		opts:     opts,
		logger:   logger,
	}
}

func (b *Builder) Build(ctx context.Context) (*Catalog, error) {
	ctx, span := tracer.Start(ctx, "BuildCatalog")
	defer span.End()

	state := &buildState{}
	if snap := b.cached(ctx, state); snap != nil {
		span.SetAttributes(telemetry.String("cache.result", "hit"))
		return New(snap.Postings)
	}

	unlock, err := b.store.Lock(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			b.logger.Warn("failed to release cache lock", zap.Error(err))
		}
	}()

	// Another process may have written the cache while we waited.
	if snap := b.cached(ctx, state); snap != nil {
		span.SetAttributes(telemetry.String("cache.result", "hit"))
		return New(snap.Postings)
	}
	span.SetAttributes(telemetry.String("cache.result", "miss"))

	postings, err := state.load(ctx, b.source)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	embedded, err := b.embedAll(ctx, postings)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := b.store.Save(embedded, dataset.Fingerprint(postings)); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(telemetry.Int("catalog.postings", len(embedded)))
	return New(embedded)
}

type buildState struct {
	postings []models.JobPosting
	loaded   bool
}

func (s *buildState) load(ctx context.Context, source dataset.Source) ([]models.JobPosting, error) {
	if s.loaded {
		return s.postings, nil
	}
	postings, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset from %s: %w", source.Name(), err)
	}
	s.postings, s.loaded = postings, true
	return postings, nil
}

// cached returns a usable snapshot or nil when the catalog must be rebuilt.
func (b *Builder) cached(ctx context.Context, state *buildState) *embedcache.Snapshot {
	snap, err := b.store.Load()
	if err != nil {
		b.logger.Warn("embedding cache unreadable, rebuilding", zap.Error(err))
		return nil
	}
	if snap == nil {
		b.logger.Info("no embedding cache found", zap.String("path", b.store.Path()))
		return nil
	}
	if len(snap.Postings) == 0 {
		b.logger.Warn("embedding cache is empty, rebuilding")
		return nil
	}
	if dim := b.embedder.Dimension(); snap.Dim() != dim {
		b.logger.Warn("embedding cache dimension differs, rebuilding",
			zap.Int("cached", snap.Dim()),
			zap.Int("configured", dim))
		return nil
	}
	if !b.opts.Validate {
		return snap
	}

	postings, err := state.load(ctx, b.source)
	if err != nil {
		b.logger.Warn("dataset unavailable, trusting embedding cache", zap.Error(err))
		return snap
	}
	if !snap.Matches(dataset.Fingerprint(postings), len(postings)) {
		b.logger.Warn("embedding cache does not match dataset, rebuilding",
			zap.Int("cached_postings", len(snap.Postings)),
			zap.Int("dataset_postings", len(postings)))
		return nil
	}
	return snap
}

func (b *Builder) embedAll(ctx context.Context, postings []models.JobPosting) ([]models.JobPosting, error) {
	limit := rate.Inf
	if b.opts.Pacing > 0 {
		limit = rate.Every(b.opts.Pacing)
	}
	limiter := rate.NewLimiter(limit, 1)

	b.logger.Info("embedding postings",
		zap.Int("postings", len(postings)),
		zap.Duration("pacing", b.opts.Pacing))
	start := time.Now()

	embedded := make([]models.JobPosting, len(postings))
	for i, p := range postings {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting to embed posting %d: %w", i, err)
		}

		vec, err := b.embedder.Embed(ctx, p.EmbeddingText())
		if err != nil {
			return nil, fmt.Errorf("embedding posting %d (%q): %w", i, p.Title, err)
		}
		embedded[i] = p.WithEmbedding(vec)

		if (i+1)%100 == 0 {
			b.logger.Info("embedding progress",
				zap.Int("done", i+1),
				zap.Int("total", len(postings)))
		}
	}

	b.logger.Info("embedded postings",
		zap.Int("postings", len(embedded)),
		zap.Duration("elapsed", time.Since(start)))

	return embedded, nil
}
