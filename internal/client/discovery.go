package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"assetflow/internal/domain"
)

// DiscoveryClient implements domain.DiscoveryService.
type DiscoveryClient struct {
	c *Client
}

// NewDiscoveryClient creates a DiscoveryClient.
func NewDiscoveryClient(c *Client) *DiscoveryClient {
	return &DiscoveryClient{c: c}
}

// GetDiscovery fetches a discovery record.
func (s *DiscoveryClient) GetDiscovery(ctx context.Context, id string) (*domain.Discovery, error) {
	data, err := s.c.callRaw(ctx, http.MethodGet, "/discovery/"+escape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	var w wireDiscovery
	if err := json.Unmarshal(unwrapEnvelope(data, "discovery"), &w); err != nil {
		return nil, fmt.Errorf("parse discovery: %w", err)
	}
	d := w.toDomain()
	if d.ID == "" {
		d.ID = id
	}
	return &d, nil
}

// RestoreDiscovery un-hides a discovery previously hidden as a duplicate.
func (s *DiscoveryClient) RestoreDiscovery(ctx context.Context, id string) error {
	return s.c.call(ctx, http.MethodPut, "/discovery/"+escape(id)+"/restore", nil, map[string]interface{}{}, nil)
}

// ListHidden lists discoveries hidden by deduplication. page is one-based.
func (s *DiscoveryClient) ListHidden(ctx context.Context, page, perPage int) (*domain.DiscoveryPage, error) {
	data, err := s.c.callRaw(ctx, http.MethodGet, "/discovery/duplicates/hidden", pageQuery(page, perPage), nil)
	if err != nil {
		return nil, err
	}

	var (
		items      []wireDiscovery
		pagination *wirePagination
	)
	if isJSONArray(data) {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("parse hidden discoveries: %w", err)
		}
	} else {
		var body struct {
			Discoveries []wireDiscovery `json:"discoveries"`
			Pagination  *wirePagination `json:"pagination"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("parse hidden discoveries: %w", err)
		}
		items, pagination = body.Discoveries, body.Pagination
	}

	out := &domain.DiscoveryPage{Discoveries: make([]domain.Discovery, 0, len(items))}
	for _, w := range items {
		out.Discoveries = append(out.Discoveries, w.toDomain())
	}
	if pagination != nil {
		out.Total = pagination.Total
		out.TotalPages = pagination.TotalPages
	} else {
		out.Total = int64(len(items))
		if len(items) > 0 {
			out.TotalPages = 1
		}
	}
	return out, nil
}

// Deduplicate starts deduplication. The server either answers immediately
// with the number of hidden discoveries or accepts an asynchronous job.
func (s *DiscoveryClient) Deduplicate(ctx context.Context) (*domain.DeduplicateResult, error) {
	var body struct {
		Hidden           int    `json:"hidden"`
		JobID            string `json:"job_id"`
		Status           string `json:"status"`
		TotalDiscoveries int    `json:"total_discoveries"`
	}
	if err := s.c.call(ctx, http.MethodPost, "/discovery/deduplicate", nil, map[string]interface{}{}, &body); err != nil {
		return nil, err
	}
	res := &domain.DeduplicateResult{
		Hidden:           body.Hidden,
		JobID:            body.JobID,
		Status:           domain.JobState(body.Status),
		TotalDiscoveries: body.TotalDiscoveries,
	}
	if res.JobID != "" && res.Status == "" {
		res.Status = domain.JobQueued
	}
	return res, nil
}

// DeduplicateStatus reads the status of a deduplication job.
func (s *DiscoveryClient) DeduplicateStatus(ctx context.Context, jobID string) (*domain.JobStatus, error) {
	var w wireJobStatus
	if err := s.c.call(ctx, http.MethodGet, "/discovery/deduplicate/status/"+escape(jobID), nil, nil, &w); err != nil {
		return nil, err
	}
	return w.toDomain(jobID), nil
}

// JobStatus implements domain.JobStatusFetcher for deduplication jobs.
func (s *DiscoveryClient) JobStatus(ctx context.Context, jobID string) (*domain.JobStatus, error) {
	return s.DeduplicateStatus(ctx, jobID)
}

var (
	_ domain.DiscoveryService = (*DiscoveryClient)(nil)
	_ domain.JobStatusFetcher = (*DiscoveryClient)(nil)
)
