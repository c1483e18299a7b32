package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/attachment"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/config"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation/flow"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/embeddings"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/handlers"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/healthcheck"
	pingchecker "github.com/Avashneupane9857/ChatGpt-Clone/internal/healthcheck/checkers/ping"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/media"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/media/providers/gcs"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/media/providers/localfs"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/memory"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/models"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/observability"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/providers"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/server"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/store"
)

const (
	storageLocal = "local"
	storageGCS   = "gcs"

	memoryQdrant   = "qdrant"
	memoryInMemory = "memory"
	memoryNone     = "none"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideMetrics,
			provideConversationStore,
			provideStorage,
			provideUploader,
			provideExtractionCache,
			provideIngestor,
			provideOpenAIClient,
			provideModelProvider,
			provideMemoryService,
			provideAugmenter,
			provideCatalog,
			flow.NewInvoker,
			flow.NewCoordinator,
			provideResolver,
			provideHealth,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideChatHandler),
			provideServerHandler(provideMessageHandler),
			provideServerHandler(handlers.NewMemoryHandler),
			provideServerHandler(provideMetricsHandler),
			provideServerHandler(provideFilesHandler),
			provideServer,
		),
		fx.Invoke(startServer),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideMetrics(cfg config.Config) *observability.Metrics {
	return observability.NewMetrics(cfg.Metrics.Namespace)
}

func provideConversationStore(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (conversation.Store, error) {
	st, cleanup, err := store.New(context.Background(), log, cfg)
	if err != nil {
		return nil, fmt.Errorf("init conversation store: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { cleanup(); return nil }})
	return st, nil
}

// storageSetup is the configured object storage plus the directory served
// under /files when storage is local.
type storageSetup struct {
	Provider  media.StorageProvider
	FilesRoot string
}

func provideStorage(lc fx.Lifecycle, cfg config.Config) (storageSetup, error) {
	scfg := cfg.Storage
	switch strings.ToLower(strings.TrimSpace(scfg.Backend)) {
	case "", storageLocal:
		provider, err := localfs.New(scfg.LocalRoot, scfg.PublicBaseURL)
		if err != nil {
			return storageSetup{}, fmt.Errorf("init local storage: %w", err)
		}
		return storageSetup{Provider: provider, FilesRoot: provider.Root()}, nil
	case storageGCS:
		provider, err := gcs.New(context.Background(), scfg.GCSBucket, scfg.CDNDomain)
		if err != nil {
			return storageSetup{}, fmt.Errorf("init gcs storage: %w", err)
		}
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return provider.Close() }})
		return storageSetup{Provider: provider}, nil
	default:
		return storageSetup{}, fmt.Errorf("unknown storage backend %q", scfg.Backend)
	}
}

func provideUploader(log *slog.Logger, cfg config.Config, storage storageSetup) *media.Uploader {
	return media.NewUploader(log, storage.Provider, cfg.Storage.KeyPrefix, cfg.Attachments.MaxBytes)
}

// extractionCache carries the optional shared cache so the health check can
// ping it.
type extractionCache struct {
	Cache attachment.Cache
	Redis *attachment.RedisCache
}

func provideExtractionCache(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (extractionCache, error) {
	acfg := cfg.Attachments
	if strings.TrimSpace(acfg.RedisAddr) == "" {
		return extractionCache{Cache: attachment.NewMemoryCache(acfg.CacheTTL())}, nil
	}
	cache, err := attachment.NewRedisCache(context.Background(), acfg.RedisAddr, acfg.CacheTTL())
	if err != nil {
		return extractionCache{}, fmt.Errorf("init extraction cache: %w", err)
	}
	log.Info("extraction cache uses redis", slog.String("addr", acfg.RedisAddr))
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return cache.Close() }})
	return extractionCache{Cache: cache, Redis: cache}, nil
}

func provideIngestor(log *slog.Logger, cfg config.Config, cache extractionCache, metrics *observability.Metrics) *attachment.Ingestor {
	return attachment.NewIngestor(log, cache.Cache, metrics, cfg.Attachments.ExtractTimeout(), cfg.Attachments.MaxBytes)
}

func provideOpenAIClient(cfg config.Config) (*openai.Client, error) {
	if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	return providers.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL), nil
}

func provideModelProvider(log *slog.Logger, cfg config.Config, client *openai.Client) providers.Provider {
	return providers.NewOpenAIProvider(log, client, cfg.OpenAI.APIKey)
}

func provideMemoryService(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, client *openai.Client) (memory.Service, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Memory.Backend)) {
	case memoryNone:
		log.Info("long-term memory disabled")
		return nil, nil
	case memoryInMemory:
		log.Warn("using in-memory long-term memory; memories are lost on restart")
		return memory.NewInMemoryService(), nil
	case "", memoryQdrant:
		return provideQdrantService(lc, log, cfg, client)
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.Memory.Backend)
	}
}

func provideQdrantService(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, client *openai.Client) (memory.Service, error) {
	qcfg := memory.QdrantConfig{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
		VectorSize: cfg.Qdrant.VectorSize,
	}
	qclient, err := memory.NewQdrantClient(qcfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return qclient.Close() }})

	embedder := embeddings.NewOpenAIEmbedder(log, client, cfg.OpenAI.EmbeddingModel, cfg.Qdrant.VectorSize, cfg.Memory.Timeout())
	svc, err := memory.NewQdrantService(context.Background(), log, qclient, embedder, qcfg)
	if err != nil {
		return nil, fmt.Errorf("qdrant init: %w", err)
	}
	return svc, nil
}

func provideAugmenter(log *slog.Logger, cfg config.Config, service memory.Service, metrics *observability.Metrics) *memory.Augmenter {
	return memory.NewAugmenter(log, service, metrics, cfg.Memory.SearchLimit, cfg.Memory.Timeout())
}

func provideCatalog(cfg config.Config) (models.Catalog, error) {
	return models.NewCatalog(cfg.OpenAI.TextModel, cfg.OpenAI.VisionModel, cfg.OpenAI.VisionMaxTokens)
}

func provideResolver(
	log *slog.Logger,
	cfg config.Config,
	st conversation.Store,
	ingestor *attachment.Ingestor,
	uploader *media.Uploader,
	augmenter *memory.Augmenter,
	catalog models.Catalog,
	invoker *flow.Invoker,
	coordinator *flow.Coordinator,
	metrics *observability.Metrics,
) *flow.Resolver {
	return flow.NewResolver(log, st, ingestor, uploader, augmenter, catalog, invoker, coordinator, metrics, flow.Options{
		PersistOnDisconnect: cfg.Pipeline.PersistOnDisconnect,
	})
}

func provideHealth(log *slog.Logger, cfg config.Config, st conversation.Store, service memory.Service, uploader *media.Uploader, cache extractionCache) *healthcheck.Aggregator {
	var memoryPinger pingchecker.Pinger
	if service != nil {
		memoryPinger = service
	}
	checkers := []healthcheck.Checker{
		pingchecker.NewChecker(log, cfg.Store.Backend, pingchecker.TypeStore, st),
		pingchecker.NewChecker(log, cfg.Memory.Backend, pingchecker.TypeMemory, memoryPinger),
		pingchecker.NewChecker(log, cfg.Storage.Backend, pingchecker.TypeStorage, uploader),
	}
	if cache.Redis != nil {
		checkers = append(checkers, pingchecker.NewChecker(log, "redis", pingchecker.TypeCache, cache.Redis))
	}
	return healthcheck.NewAggregator(log, checkers...)
}

func provideChatHandler(log *slog.Logger, st conversation.Store, uploader *media.Uploader) *handlers.ChatHandler {
	return handlers.NewChatHandler(log, st, uploader)
}

func provideMessageHandler(log *slog.Logger, resolver *flow.Resolver) *handlers.MessageHandler {
	return handlers.NewMessageHandler(log, resolver)
}

func provideMetricsHandler(metrics *observability.Metrics) *handlers.MetricsHandler {
	return handlers.NewMetricsHandler(metrics.Handler())
}

func provideFilesHandler(storage storageSetup) *handlers.FilesHandler {
	return handlers.NewFilesHandler(storage.FilesRoot)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) (*server.Server, error) {
	if strings.TrimSpace(params.Config.Auth.JWTSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers...), nil
}

// startServer serves HTTP until stop, then waits for in-flight memory
// write-backs so they are not cut off by process exit.
func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, coordinator *flow.Coordinator, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			coordinator.Wait()
			return nil
		},
	})
}
