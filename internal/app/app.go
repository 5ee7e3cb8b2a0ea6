// Package app wires the console's object graph: one session store, one API
// client, one query cache and the services, wizard and router built on them.
// Both the BFA server and the CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/config"
	"github.com/uplug/einvoice-bfa-go/internal/handler"
	"github.com/uplug/einvoice-bfa-go/internal/infra/cache"
	"github.com/uplug/einvoice-bfa-go/internal/infra/client"
	"github.com/uplug/einvoice-bfa-go/internal/infra/observability"
	"github.com/uplug/einvoice-bfa-go/internal/infra/resilience"
	"github.com/uplug/einvoice-bfa-go/internal/infra/store"
	"github.com/uplug/einvoice-bfa-go/internal/onboarding"
	"github.com/uplug/einvoice-bfa-go/internal/port"
	"github.com/uplug/einvoice-bfa-go/internal/query"
	"github.com/uplug/einvoice-bfa-go/internal/service"
	"github.com/uplug/einvoice-bfa-go/internal/session"
	"github.com/uplug/einvoice-bfa-go/internal/validation"
)

// App is the assembled console.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Session  *session.Store
	Client   *client.Client
	Queries  *query.Client
	Services *service.Services
	Wizard   *onboarding.Wizard

	cache     *cache.InMemory[any]
	persister port.SessionPersister
}

// Options overrides collaborators, mostly for tests. Zero values are built
// from the config.
type Options struct {
	HTTPClient *http.Client
	Persister  port.SessionPersister
	Metrics    *observability.Metrics
}

// New builds the app and hydrates the session from its persister.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	persister := opts.Persister
	if persister == nil {
		p, err := store.FromConfig(cfg)
		if err != nil {
			return nil, err
		}
		persister = p
	}

	sess := session.NewStore(persister, logger.Named("session"))
	if err := sess.Hydrate(ctx); err != nil {
		// an unreadable session is treated as signed out
		logger.Warn("starting signed out", zap.Error(err))
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	api := client.New(cfg.APIBaseURL, cfg.APIBasePath, cfg.Endpoints, client.Deps{
		HTTPClient: httpClient,
		Tokens:     sess,
		Breaker:    resilience.NewCircuitBreaker("backend-api"),
		Bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		Metrics:    metrics,
		Logger:     logger.Named("client"),
	})

	c := cache.New[any](cfg.CacheTTL)
	queries := query.NewClient(c, metrics, logger.Named("query"))
	v := validation.New()
	svc := service.New(api, sess, queries, v, logger)

	wizard := onboarding.New(svc.Business, sess, v, onboarding.Options{AutoAdvance: cfg.TINAutoAdvance}, logger.Named("onboarding"))
	sess.OnLogout(wizard.Reset)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Session:   sess,
		Client:    api,
		Queries:   queries,
		Services:  svc,
		Wizard:    wizard,
		cache:     c,
		persister: persister,
	}, nil
}

// Router builds the BFA HTTP handler.
func (a *App) Router() http.Handler {
	return handler.NewRouter(handler.Deps{
		Services:    a.Services,
		Session:     a.Session,
		Wizard:      a.Wizard,
		Metrics:     a.Metrics,
		Logger:      a.Logger,
		CORSOrigins: a.Config.CORSOrigins,
		Readiness:   a.Ready,
	})
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ready reports whether the session backend is reachable. Backends without
// a network dependency are always ready.
func (a *App) Ready(ctx context.Context) error {
	if p, ok := a.persister.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("session store: %w", err)
		}
	}
	return nil
}

// Close releases the cache janitor and any persister connection.
func (a *App) Close() error {
	a.cache.Close()
	if c, ok := a.persister.(io.Closer); ok {
		if err := c.Close(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}
