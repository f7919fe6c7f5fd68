package main

import (
	"context"
	"fmt"
	"sync"

	"skillmatch/common/cache"
	"skillmatch/common/cache/redis"
	"skillmatch/common/database"
	"skillmatch/services/matching/internal/catalog"
	"skillmatch/services/matching/internal/config"
	"skillmatch/services/matching/internal/dataset"
	"skillmatch/services/matching/internal/embedcache"
	"skillmatch/services/matching/internal/embedding"
	"skillmatch/services/matching/internal/events"
	"skillmatch/services/matching/internal/pipeline"
	"skillmatch/services/matching/internal/retry"
	"skillmatch/services/matching/internal/skills"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func fxLogger(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
}

// modelClients builds the remote model SDK clients on first use, so a
// deployment that only talks to one provider never configures the other.
type modelClients struct {
	cfg *config.Config

	bedrockOnce sync.Once
	bedrock     *bedrockruntime.Client
	bedrockErr  error

	openAIOnce sync.Once
	openAI     *openai.Client
}

func newModelClients(cfg *config.Config) *modelClients {
	return &modelClients{cfg: cfg}
}

// Bedrock retries are disabled at the SDK level; throttling is handled by
// the embedding client's own policy.
func (m *modelClients) Bedrock() (*bedrockruntime.Client, error) {
	m.bedrockOnce.Do(func() {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(m.cfg.AWSRegion))
		if err != nil {
			m.bedrockErr = fmt.Errorf("loading aws config: %w", err)
			return
		}
		m.bedrock = bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
			o.Retryer = aws.NopRetryer{}
		})
	})
	return m.bedrock, m.bedrockErr
}

func (m *modelClients) OpenAI() *openai.Client {
	m.openAIOnce.Do(func() {
		opts := []option.RequestOption{
			option.WithAPIKey(m.cfg.OpenAIAPIKey),
			option.WithMaxRetries(0),
		}
		if m.cfg.OpenAIBaseURL != "" {
			opts = append(opts, option.WithBaseURL(m.cfg.OpenAIBaseURL))
		}
		client := openai.NewClient(opts...)
		m.openAI = &client
	})
	return m.openAI
}

func newEmbeddingProvider(cfg *config.Config, clients *modelClients) (embedding.Provider, error) {
	if cfg.EmbeddingsProvider == config.ProviderOpenAI {
		return embedding.NewOpenAIProvider(clients.OpenAI(), cfg.EmbeddingsModel), nil
	}
	client, err := clients.Bedrock()
	if err != nil {
		return nil, err
	}
	return embedding.NewBedrockProvider(client, cfg.EmbeddingsModel), nil
}

func newCompleter(cfg *config.Config, clients *modelClients) (skills.Completer, error) {
	if cfg.SkillsProvider == config.ProviderOpenAI {
		return skills.NewOpenAICompleter(clients.OpenAI(), cfg.SkillsModel, cfg.SkillsMaxTokens), nil
	}
	client, err := clients.Bedrock()
	if err != nil {
		return nil, err
	}
	return skills.NewBedrockCompleter(client, cfg.SkillsModel, cfg.SkillsMaxTokens), nil
}

func newQueryCache(cfg *config.Config, lc fx.Lifecycle, logger *zap.Logger) (cache.Cache, error) {
	if cfg.RedisAddr == "" {
		logger.Info("query embedding cache disabled")
		return cache.Noop{}, nil
	}

	c := redis.New(cache.Options{
		DefaultTTL:    cfg.CacheTTL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err := c.Ping(context.Background()); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("query embedding cache enabled", zap.String("addr", cfg.RedisAddr))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return c.Close()
		},
	})
	return c, nil
}

func newEmbeddingClient(cfg *config.Config, provider embedding.Provider, c cache.Cache, logger *zap.Logger) *embedding.Client {
	return embedding.NewClient(provider, embedding.Options{
		Dimension: cfg.EmbeddingsDim,
		Policy: retry.Policy{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: cfg.RetryInitialDelay,
			Multiplier:   cfg.RetryMultiplier,
		},
		Cache:    c,
		CacheTTL: cfg.CacheTTL,
	}, logger)
}

func newDatabase(cfg *config.Config, lc fx.Lifecycle, logger *zap.Logger) (*database.Database, error) {
	db, err := openDatabase(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.Database, error) {
	return database.New(ctx, database.Options{
		DSN:             cfg.ClickHouseDSN,
		MaxOpenConns:    cfg.ClickHouseMaxOpenConns,
		MaxIdleConns:    cfg.ClickHouseMaxIdleConns,
		ConnMaxLifetime: cfg.ClickHouseConnMaxLife,
		Username:        cfg.ClickHouseUsername,
		Password:        cfg.ClickHousePassword,
		Database:        cfg.ClickHouseDatabase,
	}, logger)
}

// newDatasetSource only opens ClickHouse when the catalog is stored there.
func newDatasetSource(cfg *config.Config, lc fx.Lifecycle, logger *zap.Logger) (dataset.Source, error) {
	if cfg.DatasetSource == config.SourceCSV {
		return dataset.NewCSVSource(cfg.DatasetPath), nil
	}
	db, err := newDatabase(cfg, lc, logger)
	if err != nil {
		return nil, err
	}
	return dataset.NewClickHouseSource(db.Conn(), logger), nil
}

func newStore(cfg *config.Config, logger *zap.Logger) *embedcache.Store {
	return embedcache.NewStore(cfg.CachePath, logger)
}

func newBuilder(cfg *config.Config, source dataset.Source, store *embedcache.Store, client *embedding.Client, logger *zap.Logger) *catalog.Builder {
	return catalog.NewBuilder(source, store, client, catalog.BuilderOptions{
		Validate: cfg.CacheValidate,
		Pacing:   cfg.EmbeddingsPacing,
	}, logger)
}

func newCatalog(builder *catalog.Builder, logger *zap.Logger) (*catalog.Catalog, error) {
	cat, err := builder.Build(context.Background())
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}
	logger.Info("catalog ready", zap.Int("postings", cat.Len()), zap.Int("dim", cat.Dim()))
	return cat, nil
}

func newPublisher(cfg *config.Config, lc fx.Lifecycle, logger *zap.Logger) (events.Publisher, error) {
	publisher, err := events.NewPublisher(cfg.NATSURL, cfg.NATSConnTimeout, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			publisher.Close()
			return nil
		},
	})
	return publisher, nil
}

func newPipeline(cat *catalog.Catalog, client *embedding.Client, extractor skills.Extractor, publisher events.Publisher, logger *zap.Logger) *pipeline.Pipeline {
	return pipeline.New(cat, client, extractor, publisher, logger)
}

// catalogModule provides everything needed to build the catalog.
var catalogModule = fx.Options(
	fx.Provide(
		config.LoadConfig,
		newLogger,
		newModelClients,
		newEmbeddingProvider,
		newQueryCache,
		newEmbeddingClient,
		newDatasetSource,
		newStore,
		newBuilder,
		newCatalog,
	),
	fx.WithLogger(fxLogger),
)
