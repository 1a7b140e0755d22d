// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"

	"assetflow/internal/domain"
)

// calls records method names in invocation order. Safe for concurrent use.
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) record(name string) {
	c.mu.Lock()
	c.log = append(c.log, name)
	c.mu.Unlock()
}

// Calls returns the recorded method names.
func (c *calls) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

// CallCount returns how often name was invoked.
func (c *calls) CallCount(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.log {
		if l == name {
			n++
		}
	}
	return n
}

// === Catalog Service Mock ===

// MockCatalogService implements domain.CatalogService for testing.
type MockCatalogService struct {
	calls
	ListAssetsFn      func(ctx context.Context, req domain.PageRequest) (*domain.AssetPage, error)
	GetAssetFn        func(ctx context.Context, id string) (*domain.Asset, error)
	UpdateAssetFn     func(ctx context.Context, id string, patch domain.BusinessDelta) (*domain.AssetDelta, error)
	UpdateColumnPIIFn func(ctx context.Context, key domain.ColumnKey, update domain.ColumnPIIUpdate) (*domain.Column, error)
}

// ListAssets implements the interface method for testing.
func (m *MockCatalogService) ListAssets(ctx context.Context, req domain.PageRequest) (*domain.AssetPage, error) {
	m.record("ListAssets")
	if m.ListAssetsFn != nil {
		return m.ListAssetsFn(ctx, req)
	}
	panic("unexpected call to MockCatalogService.ListAssets")
}

// GetAsset implements the interface method for testing.
func (m *MockCatalogService) GetAsset(ctx context.Context, id string) (*domain.Asset, error) {
	m.record("GetAsset")
	if m.GetAssetFn != nil {
		return m.GetAssetFn(ctx, id)
	}
	panic("unexpected call to MockCatalogService.GetAsset")
}

// UpdateAsset implements the interface method for testing.
func (m *MockCatalogService) UpdateAsset(ctx context.Context, id string, patch domain.BusinessDelta) (*domain.AssetDelta, error) {
	m.record("UpdateAsset")
	if m.UpdateAssetFn != nil {
		return m.UpdateAssetFn(ctx, id, patch)
	}
	panic("unexpected call to MockCatalogService.UpdateAsset")
}

// UpdateColumnPII implements the interface method for testing.
func (m *MockCatalogService) UpdateColumnPII(ctx context.Context, key domain.ColumnKey, update domain.ColumnPIIUpdate) (*domain.Column, error) {
	m.record("UpdateColumnPII")
	if m.UpdateColumnPIIFn != nil {
		return m.UpdateColumnPIIFn(ctx, key, update)
	}
	panic("unexpected call to MockCatalogService.UpdateColumnPII")
}

// === Governance Service Mock ===

// MockGovernanceService implements domain.GovernanceService for testing.
type MockGovernanceService struct {
	calls
	ApproveFn func(ctx context.Context, id string) (*domain.AssetDelta, error)
	RejectFn  func(ctx context.Context, id, reason string) (*domain.AssetDelta, error)
	PublishFn func(ctx context.Context, id, publishedTo string) (*domain.PublishResult, error)
}

// Approve implements the interface method for testing.
func (m *MockGovernanceService) Approve(ctx context.Context, id string) (*domain.AssetDelta, error) {
	m.record("Approve")
	if m.ApproveFn != nil {
		return m.ApproveFn(ctx, id)
	}
	panic("unexpected call to MockGovernanceService.Approve")
}

// Reject implements the interface method for testing.
func (m *MockGovernanceService) Reject(ctx context.Context, id, reason string) (*domain.AssetDelta, error) {
	m.record("Reject")
	if m.RejectFn != nil {
		return m.RejectFn(ctx, id, reason)
	}
	panic("unexpected call to MockGovernanceService.Reject")
}

// Publish implements the interface method for testing.
func (m *MockGovernanceService) Publish(ctx context.Context, id, publishedTo string) (*domain.PublishResult, error) {
	m.record("Publish")
	if m.PublishFn != nil {
		return m.PublishFn(ctx, id, publishedTo)
	}
	panic("unexpected call to MockGovernanceService.Publish")
}

// === Discovery Service Mock ===

// MockDiscoveryService implements domain.DiscoveryService for testing.
type MockDiscoveryService struct {
	calls
	GetDiscoveryFn      func(ctx context.Context, id string) (*domain.Discovery, error)
	RestoreDiscoveryFn  func(ctx context.Context, id string) error
	ListHiddenFn        func(ctx context.Context, page, perPage int) (*domain.DiscoveryPage, error)
	DeduplicateFn       func(ctx context.Context) (*domain.DeduplicateResult, error)
	DeduplicateStatusFn func(ctx context.Context, jobID string) (*domain.JobStatus, error)
}

// GetDiscovery implements the interface method for testing.
func (m *MockDiscoveryService) GetDiscovery(ctx context.Context, id string) (*domain.Discovery, error) {
	m.record("GetDiscovery")
	if m.GetDiscoveryFn != nil {
		return m.GetDiscoveryFn(ctx, id)
	}
	panic("unexpected call to MockDiscoveryService.GetDiscovery")
}

// RestoreDiscovery implements the interface method for testing.
func (m *MockDiscoveryService) RestoreDiscovery(ctx context.Context, id string) error {
	m.record("RestoreDiscovery")
	if m.RestoreDiscoveryFn != nil {
		return m.RestoreDiscoveryFn(ctx, id)
	}
	panic("unexpected call to MockDiscoveryService.RestoreDiscovery")
}

// ListHidden implements the interface method for testing.
func (m *MockDiscoveryService) ListHidden(ctx context.Context, page, perPage int) (*domain.DiscoveryPage, error) {
	m.record("ListHidden")
	if m.ListHiddenFn != nil {
		return m.ListHiddenFn(ctx, page, perPage)
	}
	panic("unexpected call to MockDiscoveryService.ListHidden")
}

// Deduplicate implements the interface method for testing.
func (m *MockDiscoveryService) Deduplicate(ctx context.Context) (*domain.DeduplicateResult, error) {
	m.record("Deduplicate")
	if m.DeduplicateFn != nil {
		return m.DeduplicateFn(ctx)
	}
	panic("unexpected call to MockDiscoveryService.Deduplicate")
}

// DeduplicateStatus implements the interface method for testing.
func (m *MockDiscoveryService) DeduplicateStatus(ctx context.Context, jobID string) (*domain.JobStatus, error) {
	m.record("DeduplicateStatus")
	if m.DeduplicateStatusFn != nil {
		return m.DeduplicateStatusFn(ctx, jobID)
	}
	panic("unexpected call to MockDiscoveryService.DeduplicateStatus")
}

// JobStatus implements domain.JobStatusFetcher on top of DeduplicateStatus.
func (m *MockDiscoveryService) JobStatus(ctx context.Context, jobID string) (*domain.JobStatus, error) {
	return m.DeduplicateStatus(ctx, jobID)
}

// === Connection Service Mock ===

// MockConnectionService implements domain.ConnectionService for testing.
type MockConnectionService struct {
	calls
	ListConnectionsFn   func(ctx context.Context) ([]domain.Connection, error)
	TriggerDiscoveryFn  func(ctx context.Context, connectionID string) (*domain.DiscoveryRun, error)
	DiscoveryProgressFn func(ctx context.Context, connectionID string) (*domain.DiscoveryProgress, error)
}

// ListConnections implements the interface method for testing.
func (m *MockConnectionService) ListConnections(ctx context.Context) ([]domain.Connection, error) {
	m.record("ListConnections")
	if m.ListConnectionsFn != nil {
		return m.ListConnectionsFn(ctx)
	}
	panic("unexpected call to MockConnectionService.ListConnections")
}

// TriggerDiscovery implements the interface method for testing.
func (m *MockConnectionService) TriggerDiscovery(ctx context.Context, connectionID string) (*domain.DiscoveryRun, error) {
	m.record("TriggerDiscovery")
	if m.TriggerDiscoveryFn != nil {
		return m.TriggerDiscoveryFn(ctx, connectionID)
	}
	panic("unexpected call to MockConnectionService.TriggerDiscovery")
}

// DiscoveryProgress implements the interface method for testing.
func (m *MockConnectionService) DiscoveryProgress(ctx context.Context, connectionID string) (*domain.DiscoveryProgress, error) {
	m.record("DiscoveryProgress")
	if m.DiscoveryProgressFn != nil {
		return m.DiscoveryProgressFn(ctx, connectionID)
	}
	panic("unexpected call to MockConnectionService.DiscoveryProgress")
}

// === Page Coordinator Mock ===

// MockPages implements domain.PageRepairer and domain.PageReloader.
// Calls succeed unless an Fn is set.
type MockPages struct {
	calls
	RepairFn func(ctx context.Context) error
	ReloadFn func(ctx context.Context) error
}

// Repair implements the interface method for testing.
func (m *MockPages) Repair(ctx context.Context) error {
	m.record("Repair")
	if m.RepairFn != nil {
		return m.RepairFn(ctx)
	}
	return nil
}

// Reload implements the interface method for testing.
func (m *MockPages) Reload(ctx context.Context) error {
	m.record("Reload")
	if m.ReloadFn != nil {
		return m.ReloadFn(ctx)
	}
	return nil
}

// === Preference Repository Mock ===

// MockPreferenceRepo is an in-memory domain.PreferenceRepository.
type MockPreferenceRepo struct {
	calls
	mu     sync.Mutex
	Values map[string]string
	PutFn  func(ctx context.Context, key, value string) error
}

// Get implements the interface method for testing.
func (m *MockPreferenceRepo) Get(_ context.Context, key string) (string, error) {
	m.record("Get")
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Values[key]
	if !ok {
		return "", domain.ErrNotFound("preference %q not found", key)
	}
	return v, nil
}

// Put implements the interface method for testing.
func (m *MockPreferenceRepo) Put(ctx context.Context, key, value string) error {
	m.record("Put")
	if m.PutFn != nil {
		if err := m.PutFn(ctx, key, value); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Values == nil {
		m.Values = make(map[string]string)
	}
	m.Values[key] = value
	return nil
}

// Compile-time interface checks.
var (
	_ domain.CatalogService       = (*MockCatalogService)(nil)
	_ domain.GovernanceService    = (*MockGovernanceService)(nil)
	_ domain.DiscoveryService     = (*MockDiscoveryService)(nil)
	_ domain.JobStatusFetcher     = (*MockDiscoveryService)(nil)
	_ domain.ConnectionService    = (*MockConnectionService)(nil)
	_ domain.PageRepairer         = (*MockPages)(nil)
	_ domain.PageReloader         = (*MockPages)(nil)
	_ domain.PreferenceRepository = (*MockPreferenceRepo)(nil)
)
