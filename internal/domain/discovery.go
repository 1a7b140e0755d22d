package domain

import "time"

// Discovery is a server-side record produced by scanning a connected data
// source. A published asset links to exactly one discovery.
type Discovery struct {
	ID           string
	AssetID      string
	ConnectionID string
	Name         string
	Source       string
	Status       string
	Hidden       bool
	DuplicateOf  string
	DiscoveredAt time.Time
}

// DiscoveryPage is one page of hidden duplicate discoveries.
type DiscoveryPage struct {
	Discoveries []Discovery
	Total       int64
	TotalPages  int
}

// DeduplicateResult is the response to a deduplication request. Exactly one of
// the immediate or the async fields is meaningful: JobID is empty when the
// server finished synchronously.
type DeduplicateResult struct {
	Hidden           int
	JobID            string
	Status           JobState
	TotalDiscoveries int
}

// IsAsync reports whether the server accepted the request as a job.
func (r *DeduplicateResult) IsAsync() bool { return r != nil && r.JobID != "" }

// PublishResult is the response to a publish request.
type PublishResult struct {
	Delta       *AssetDelta
	DiscoveryID string
}

// Connection is a configured data source that can be scanned for assets.
type Connection struct {
	ID     string
	Name   string
	Type   string
	Status string
}

// DiscoveryRun is the outcome of triggering discovery on one connection.
type DiscoveryRun struct {
	ConnectionID string
	Status       string
	Err          error
}

// DiscoveryProgress reports the progress of a running discovery.
type DiscoveryProgress struct {
	ConnectionID    string
	Status          string
	ProgressPercent float64
	Discovered      int
	Message         string
}
