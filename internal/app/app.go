// Package app provides application-level wiring and dependency injection
// for the assetflow governance client.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"assetflow/internal/client"
	"assetflow/internal/config"
	"assetflow/internal/db/repository"
	"assetflow/internal/domain"
	"assetflow/internal/service/cache"
	"assetflow/internal/service/coordinator"
	"assetflow/internal/service/discovery"
	"assetflow/internal/service/jobs"
	"assetflow/internal/service/lifecycle"
	"assetflow/internal/service/pii"
	"assetflow/internal/service/preferences"
)

// Deps holds the external dependencies that main() must provide.
type Deps struct {
	Cfg     *config.Config
	PrefsDB *sql.DB // optional; preferences are unavailable when nil
	// Transport overrides the base HTTP transport, mainly for tests.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Services groups the remote service adapters.
type Services struct {
	Catalog    domain.CatalogService
	Governance domain.GovernanceService
	Discovery  domain.DiscoveryService
	Connection domain.ConnectionService
}

// App holds the fully-wired client session.
type App struct {
	Client      *client.Client
	Remote      Services
	Cache       *cache.Cache
	Pages       *coordinator.Coordinator
	Lifecycle   *lifecycle.Machine
	PII         *pii.Manager
	Jobs        *jobs.Poller
	Discovery   *discovery.Service
	Scheduler   *discovery.Scheduler
	Preferences *preferences.Service // nil without a preference store

	logger *slog.Logger
}

// New wires the HTTP client, the remote adapters and every session service.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// === Transport ===
	transport := client.NewTransport(deps.Transport, cfg.RateLimitRPS, cfg.RateLimitBurst)
	c := client.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Token, client.WithTransport(transport))
	remote := client.NewServices(c)

	// === Session state ===
	assetCache := cache.New()
	pages := coordinator.New(remote.Catalog, assetCache, cfg.PageSize, logger)

	// === Workflow services ===
	machine := lifecycle.NewMachine(assetCache, remote.Catalog, remote.Governance, remote.Discovery, pages, logger)
	piiMgr := pii.NewManager(assetCache, remote.Catalog, logger)
	poller := jobs.NewPoller(remote.Discovery, pages, jobs.Config{
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxAttempts,
	}, logger)
	discoverySvc := discovery.NewService(remote.Discovery, remote.Connection, poller, pages, cfg.DiscoveryConcurrency, logger)
	scheduler := discovery.NewScheduler(discoverySvc, logger)

	a := &App{
		Client: c,
		Remote: Services{
			Catalog:    remote.Catalog,
			Governance: remote.Governance,
			Discovery:  remote.Discovery,
			Connection: remote.Connection,
		},
		Cache:     assetCache,
		Pages:     pages,
		Lifecycle: machine,
		PII:       piiMgr,
		Jobs:      poller,
		Discovery: discoverySvc,
		Scheduler: scheduler,
		logger:    logger,
	}

	// === Preferences (optional) ===
	if deps.PrefsDB != nil {
		a.Preferences = preferences.NewService(repository.NewPreferenceRepo(deps.PrefsDB), logger)
	}

	return a, nil
}

// Open loads an asset into the detail view and seeds its column edit buffers.
func (a *App) Open(ctx context.Context, assetID string) (*domain.Asset, error) {
	if assetID == "" {
		return nil, domain.ErrValidation("asset id is required")
	}
	asset, err := a.Remote.Catalog.GetAsset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("load asset %s: %w", assetID, err)
	}
	a.Cache.Open(*asset)
	if err := a.PII.SeedAsset(assetID); err != nil {
		a.logger.Warn("seed column buffers failed", "asset_id", assetID, "error", err)
	}
	detail, _ := a.Cache.Detail()
	return detail, nil
}

// Close leaves the detail view and drops unsaved column edits of the asset.
func (a *App) Close(assetID string) {
	a.Cache.CloseDetail()
	a.PII.DiscardAsset(assetID)
}
