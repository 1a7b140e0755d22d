package lifecycle

import (
	"context"
	"log/slog"
	"sync"

	"assetflow/internal/domain"
	"assetflow/internal/service/cache"
)

// DefaultPublishTarget is used when Publish is called without a target.
const DefaultPublishTarget = "catalog"

// Machine executes lifecycle commands against the cache and the remote
// services. At most one command per asset is in flight at a time.
type Machine struct {
	cache      *cache.Cache
	catalog    domain.CatalogService
	governance domain.GovernanceService
	discovery  domain.DiscoveryService
	pages      domain.PageRepairer
	logger     *slog.Logger

	mu       sync.Mutex
	inFlight map[string]domain.Action
}

// NewMachine creates a Machine.
func NewMachine(
	c *cache.Cache,
	catalog domain.CatalogService,
	governance domain.GovernanceService,
	discovery domain.DiscoveryService,
	pages domain.PageRepairer,
	logger *slog.Logger,
) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		cache:      c,
		catalog:    catalog,
		governance: governance,
		discovery:  discovery,
		pages:      pages,
		logger:     logger.With("component", "lifecycle"),
		inFlight:   make(map[string]domain.Action),
	}
}

// InFlight reports the command currently running for an asset, if any.
func (m *Machine) InFlight(assetID string) (domain.Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.inFlight[assetID]
	return a, ok
}

func (m *Machine) acquire(assetID string, action domain.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if running, ok := m.inFlight[assetID]; ok {
		return domain.ErrConflict("asset %s already has a %s in progress", assetID, running)
	}
	m.inFlight[assetID] = action
	return nil
}

func (m *Machine) release(assetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, assetID)
}

// snapshot returns a deep copy of the cached asset, loading it from the
// catalog when it has not been fetched yet.
func (m *Machine) snapshot(ctx context.Context, id string) (*domain.Asset, error) {
	if snap, err := m.cache.Snapshot(id); err == nil {
		return snap, nil
	}
	a, err := m.catalog.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cache.Put(*a)
	return m.cache.Snapshot(id)
}

// Execute runs cmd. On commit failure the cached asset is restored to its
// snapshot and a *domain.TransitionError is returned. On follow-up failure
// the committed state is kept and a *domain.PartialFailureError is returned
// together with the asset.
func (m *Machine) Execute(ctx context.Context, cmd Command) (*domain.Asset, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	if err := m.acquire(cmd.AssetID, cmd.Action); err != nil {
		return nil, err
	}
	defer m.release(cmd.AssetID)

	snap, err := m.snapshot(ctx, cmd.AssetID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckTransition(snap.State(), cmd.Action); err != nil {
		return nil, err
	}

	if err := m.cache.Update(cmd.AssetID, cmd.Apply); err != nil {
		return nil, err
	}

	delta, err := cmd.Commit(ctx)
	if err != nil {
		m.cache.Restore(snap)
		m.logger.Warn("transition rolled back", "asset_id", cmd.AssetID, "action", cmd.Action, "error", err)
		m.repair(ctx)
		return nil, &domain.TransitionError{AssetID: cmd.AssetID, Action: cmd.Action, Err: err}
	}
	if err := m.cache.Merge(cmd.AssetID, delta); err != nil {
		return nil, err
	}
	m.logger.Info("transition committed", "asset_id", cmd.AssetID, "action", cmd.Action)

	var partial error
	if cmd.FollowUp != nil {
		committed, _ := m.cache.Get(cmd.AssetID)
		followDelta, err := cmd.FollowUp(ctx, committed)
		if err != nil {
			m.logger.Warn("follow-up step failed, keeping committed transition",
				"asset_id", cmd.AssetID, "step", cmd.FollowUpStep, "error", err)
			partial = &domain.PartialFailureError{AssetID: cmd.AssetID, Step: cmd.FollowUpStep, Err: err}
		} else if err := m.cache.Merge(cmd.AssetID, followDelta); err != nil {
			return nil, err
		}
	}

	// Repair can replace the cached entry with server state, so read the
	// committed asset before it runs.
	out, _ := m.cache.Get(cmd.AssetID)
	m.repair(ctx)
	return out, partial
}

// repair resynchronises the displayed page. Its failure never masks the
// outcome of the command.
func (m *Machine) repair(ctx context.Context) {
	if m.pages == nil {
		return
	}
	if err := m.pages.Repair(ctx); err != nil {
		m.logger.Warn("page repair failed", "error", err)
	}
}
