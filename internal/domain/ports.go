package domain

import "context"

// CatalogService reads and updates asset records.
// Implemented by client.CatalogClient.
type CatalogService interface {
	ListAssets(ctx context.Context, req PageRequest) (*AssetPage, error)
	GetAsset(ctx context.Context, id string) (*Asset, error)
	UpdateAsset(ctx context.Context, id string, patch BusinessDelta) (*AssetDelta, error)
	UpdateColumnPII(ctx context.Context, key ColumnKey, update ColumnPIIUpdate) (*Column, error)
}

// GovernanceService performs approval lifecycle calls.
// Implemented by client.GovernanceClient.
type GovernanceService interface {
	Approve(ctx context.Context, id string) (*AssetDelta, error)
	Reject(ctx context.Context, id, reason string) (*AssetDelta, error)
	Publish(ctx context.Context, id, publishedTo string) (*PublishResult, error)
}

// DiscoveryService manages discovery records and deduplication jobs.
// Implemented by client.DiscoveryClient.
type DiscoveryService interface {
	GetDiscovery(ctx context.Context, id string) (*Discovery, error)
	RestoreDiscovery(ctx context.Context, id string) error
	ListHidden(ctx context.Context, page, perPage int) (*DiscoveryPage, error)
	Deduplicate(ctx context.Context) (*DeduplicateResult, error)
	DeduplicateStatus(ctx context.Context, jobID string) (*JobStatus, error)
}

// ConnectionService lists data source connections and triggers discovery.
// Implemented by client.ConnectionClient.
type ConnectionService interface {
	ListConnections(ctx context.Context) ([]Connection, error)
	TriggerDiscovery(ctx context.Context, connectionID string) (*DiscoveryRun, error)
	DiscoveryProgress(ctx context.Context, connectionID string) (*DiscoveryProgress, error)
}

// JobStatusFetcher returns the current status of a server job.
type JobStatusFetcher interface {
	JobStatus(ctx context.Context, jobID string) (*JobStatus, error)
}

// JobStatusFunc adapts a function to JobStatusFetcher.
type JobStatusFunc func(ctx context.Context, jobID string) (*JobStatus, error)

// JobStatus implements JobStatusFetcher.
func (f JobStatusFunc) JobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	return f(ctx, jobID)
}

// PageRepairer resynchronises the displayed page after a mutation.
// Implemented by coordinator.Coordinator.
type PageRepairer interface {
	Repair(ctx context.Context) error
}

// PageReloader refetches the listing from its first page.
// Implemented by coordinator.Coordinator.
type PageReloader interface {
	Reload(ctx context.Context) error
}

// PreferenceRepository persists client-local preference values by key.
// Implemented by repository.PreferenceRepo.
type PreferenceRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}
