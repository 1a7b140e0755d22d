package client

import (
	"context"
	"net/http"

	"assetflow/internal/domain"
)

// GovernanceClient implements domain.GovernanceService.
type GovernanceClient struct {
	c *Client
}

// NewGovernanceClient creates a GovernanceClient.
func NewGovernanceClient(c *Client) *GovernanceClient {
	return &GovernanceClient{c: c}
}

// Approve marks an asset approved.
func (s *GovernanceClient) Approve(ctx context.Context, id string) (*domain.AssetDelta, error) {
	data, err := s.c.callRaw(ctx, http.MethodPost, "/assets/"+escape(id)+"/approve", nil, map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	return decodeDelta(data)
}

// Reject marks an asset rejected with a human-readable reason.
func (s *GovernanceClient) Reject(ctx context.Context, id, reason string) (*domain.AssetDelta, error) {
	body := map[string]string{"reason": reason}
	data, err := s.c.callRaw(ctx, http.MethodPost, "/assets/"+escape(id)+"/reject", nil, body)
	if err != nil {
		return nil, err
	}
	return decodeDelta(data)
}

// Publish marks an approved asset published and returns the id of the
// discovery record linked to it.
func (s *GovernanceClient) Publish(ctx context.Context, id, publishedTo string) (*domain.PublishResult, error) {
	body := map[string]string{"published_to": publishedTo}
	data, err := s.c.callRaw(ctx, http.MethodPost, "/assets/"+escape(id)+"/publish", nil, body)
	if err != nil {
		return nil, err
	}
	delta, err := decodeDelta(data)
	if err != nil {
		return nil, err
	}
	res := &domain.PublishResult{Delta: delta}
	if delta.DiscoveryID != nil {
		res.DiscoveryID = *delta.DiscoveryID
	}
	if res.DiscoveryID == "" {
		return nil, domain.ErrValidation("publish response for asset %s carries no discovery_id", id)
	}
	return res, nil
}

var _ domain.GovernanceService = (*GovernanceClient)(nil)
