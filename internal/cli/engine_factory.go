package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/blocks"
	"github.com/aretw0/blocks/internal/config"
	"github.com/aretw0/blocks/pkg/adapters/file"
	"github.com/aretw0/blocks/pkg/adapters/memory"
	"github.com/aretw0/blocks/pkg/adapters/mongo"
	"github.com/aretw0/blocks/pkg/adapters/redis"
	"github.com/aretw0/blocks/pkg/catalog"
	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/observability"
	"github.com/aretw0/blocks/pkg/persistence/middleware"
	"github.com/aretw0/blocks/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is a configured engine plus everything the transports hang off it.
type App struct {
	Engine   *blocks.Engine
	Events   *observability.Broadcaster
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []func(context.Context) error
}

// Close releases store connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	return errors.Join(errs...)
}

// NewApp builds an App from cfg: the page store and its middleware, the
// collection service, the lock manager and the observability hooks.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Events:   observability.NewBroadcaster(64),
		Registry: prometheus.NewRegistry(),
		Logger:   logger,
	}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = observability.NewMetrics(app.Registry)

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	opts := []blocks.Option{
		blocks.WithLogger(logger),
		blocks.WithCatalog(cat),
		blocks.WithLockTTL(cfg.Store.LockTTL.Duration),
		blocks.WithLifecycleHooks(domain.ChainHooks(
			app.Metrics.Hooks(),
			observability.LogHooks(logger),
			app.Events.Hooks(),
		)),
	}

	var store ports.PageStore
	switch cfg.Store.Kind {
	case config.StoreMemory:
		store = memory.NewStore()
	case config.StoreFile:
		store = file.New(cfg.Store.Path)
	case config.StoreRedis:
		rs := redis.New(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB,
			redis.WithPrefix(cfg.Store.RedisPrefix),
			redis.WithTTL(cfg.Store.RedisTTL.Duration),
		)
		app.closers = append(app.closers, func(context.Context) error { return rs.Close() })
		store = rs
		opts = append(opts, blocks.WithLocker(redis.NewLocker(rs.Client(), "blocks:")))
	case config.StoreMongo:
		client, err := mongo.Connect(ctx, cfg.Store.MongoURI)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, client.Disconnect)
		store = mongo.New(client, cfg.Store.MongoDB)
		opts = append(opts, blocks.WithCollections(mongo.NewCollections(client, cfg.Store.MongoDB, cat)))
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}

	mws, err := storeMiddleware(cfg.Security)
	if err != nil {
		return nil, err
	}
	opts = append(opts, blocks.WithStore(middleware.Chain(store, mws...)))

	eng, err := blocks.New(opts...)
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = eng
	logger.Debug("engine ready", "store", cfg.Store.Kind, "middleware", len(mws))
	return app, nil
}

// storeMiddleware masks props before encrypting, so masked values never
// reach the ciphertext.
func storeMiddleware(sec config.Security) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(sec.MaskProps) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(sec.MaskProps))
	}
	active, fallback, err := sec.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	return mws, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
