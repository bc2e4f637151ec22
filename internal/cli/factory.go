package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/quoteflow"
	"github.com/aretw0/quoteflow/internal/config"
	"github.com/aretw0/quoteflow/pkg/adapters/file"
	httpadapter "github.com/aretw0/quoteflow/pkg/adapters/http"
	loamadapter "github.com/aretw0/quoteflow/pkg/adapters/loam"
	"github.com/aretw0/quoteflow/pkg/adapters/memory"
	"github.com/aretw0/quoteflow/pkg/adapters/process"
	redisadapter "github.com/aretw0/quoteflow/pkg/adapters/redis"
	"github.com/aretw0/quoteflow/pkg/catalog"
	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/enrichment"
	"github.com/aretw0/quoteflow/pkg/observability"
	"github.com/aretw0/quoteflow/pkg/persistence/middleware"
	"github.com/aretw0/quoteflow/pkg/ports"
	"github.com/aretw0/quoteflow/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App holds everything a command needs, built once from the configuration.
type App struct {
	Config     config.Config
	Definition *domain.Definition
	Sessions   *session.Manager
	Source     *loamadapter.Source
	Registry   *prometheus.Registry
	Metrics    *observability.Metrics
	Logger     *slog.Logger

	options []quoteflow.Option
	closers []func() error
}

// NewApp loads and validates the definition and wires the configured
// session store, enrichment and submission backends.
func NewApp(cfg config.Config, logger *slog.Logger) (*App, error) {
	def, err := catalog.Load(cfg.Definition)
	if err != nil {
		return nil, err
	}
	if err := catalog.Validate(def); err != nil {
		return nil, err
	}

	app := &App{
		Config:     cfg,
		Definition: def,
		Registry:   prometheus.NewRegistry(),
		Logger:     logger,
	}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = observability.NewMetrics(app.Registry)

	store, cache, managerOpts, err := app.openStore()
	if err != nil {
		app.Close()
		return nil, err
	}
	managerOpts = append(managerOpts, session.WithLogger(logger))
	app.Sessions = session.NewManager(store, managerOpts...)

	app.options = []quoteflow.Option{
		quoteflow.WithLogger(logger),
		quoteflow.WithMetrics(app.Metrics),
	}
	if cfg.Channel != "" {
		app.options = append(app.options, quoteflow.WithForcedChannel(cfg.Channel))
	}

	enricher, submitter, err := app.backends()
	if err != nil {
		app.Close()
		return nil, err
	}
	if enricher != nil {
		cached := enrichment.NewCached(enricher, cache,
			enrichment.WithTTL(cfg.CacheTTL),
			enrichment.WithLogger(logger),
			enrichment.WithMetrics(app.Metrics),
		)
		app.options = append(app.options, quoteflow.WithEnricher(cached))
	}
	if submitter != nil {
		app.options = append(app.options, quoteflow.WithSubmitter(submitter))
	}

	if cfg.CatalogDir != "" {
		src, err := loamadapter.Open(cfg.CatalogDir, loamadapter.WithLogger(logger))
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("open catalog dir: %w", err)
		}
		app.Source = src
		app.options = append(app.options, quoteflow.WithCatalogSource(src))
	}

	return app, nil
}

// Options returns the wizard options shared by every surface.
func (a *App) Options() []quoteflow.Option {
	return append([]quoteflow.Option(nil), a.options...)
}

// Service builds the session service used by the MCP surface.
func (a *App) Service() *quoteflow.Service {
	return quoteflow.NewService(a.Definition, a.Sessions, a.Options()...)
}

// Close releases connections opened by NewApp.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openStore() (ports.SessionStore, ports.EnrichmentCache, []session.Option, error) {
	cfg := a.Config

	var (
		store ports.SessionStore
		cache ports.EnrichmentCache = memory.NewCache()
		opts  []session.Option
	)
	switch cfg.Store {
	case config.StoreFile:
		store = file.New(cfg.SessionDir)
	case config.StoreRedis:
		client := redisadapter.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		a.closers = append(a.closers, client.Close)
		store = redisadapter.NewFromClient(client,
			redisadapter.WithTTL(cfg.SessionTTL),
			redisadapter.WithPrefix(cfg.RedisPrefix),
		)
		cache = redisadapter.NewCache(client, cfg.RedisPrefix)
		opts = append(opts, session.WithLocker(redisadapter.NewLocker(client, cfg.RedisPrefix)))
	default:
		store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if cfg.MaskPII {
		pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIFields)
		if err != nil {
			return nil, nil, nil, err
		}
		mws = append(mws, pii)
	}
	if cfg.EncryptionKey != "" {
		key, err := middleware.DecodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, nil, nil, err
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, nil, nil, err
		}
		mws = append(mws, enc)
	}
	if len(mws) > 0 {
		store = middleware.Chain(store, mws...)
	}

	a.Logger.Debug("session store ready", "store", cfg.Store, "mask_pii", cfg.MaskPII, "encrypted", cfg.EncryptionKey != "")
	return store, cache, opts, nil
}

// backends picks the enrichment and submission channel: the remote API when
// a base URL is set, otherwise the local hooks file.
func (a *App) backends() (ports.Enricher, ports.Submitter, error) {
	cfg := a.Config

	if cfg.APIBaseURL != "" {
		client := httpadapter.NewClient(cfg.APIBaseURL,
			httpadapter.WithTimeout(cfg.APITimeout),
			httpadapter.WithClientLogger(a.Logger),
		)
		return client, client, nil
	}

	if cfg.HooksFile == "" {
		return nil, nil, nil
	}
	hooks, err := process.LoadHooks(cfg.HooksFile)
	if err != nil {
		return nil, nil, err
	}
	backend := process.NewBackend(
		process.WithHooks(hooks),
		process.WithBaseDir(filepath.Dir(cfg.HooksFile)),
		process.WithLogger(a.Logger),
	)

	var (
		enricher  ports.Enricher
		submitter ports.Submitter
	)
	if backend.Has(process.HookEnrich) {
		enricher = backend
	}
	if backend.Has(process.HookSubmit) {
		submitter = backend
	}
	return enricher, submitter, nil
}
