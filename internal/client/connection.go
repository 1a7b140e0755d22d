package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"assetflow/internal/domain"
)

// ConnectionClient implements domain.ConnectionService.
type ConnectionClient struct {
	c *Client
}

// NewConnectionClient creates a ConnectionClient.
func NewConnectionClient(c *Client) *ConnectionClient {
	return &ConnectionClient{c: c}
}

type wireConnection struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// ListConnections lists configured data source connections.
func (s *ConnectionClient) ListConnections(ctx context.Context) ([]domain.Connection, error) {
	data, err := s.c.callRaw(ctx, http.MethodGet, "/connections", nil, nil)
	if err != nil {
		return nil, err
	}
	var items []wireConnection
	if isJSONArray(data) {
		err = json.Unmarshal(data, &items)
	} else {
		var body struct {
			Connections []wireConnection `json:"connections"`
		}
		err = json.Unmarshal(data, &body)
		items = body.Connections
	}
	if err != nil {
		return nil, fmt.Errorf("parse connections: %w", err)
	}

	out := make([]domain.Connection, 0, len(items))
	for _, w := range items {
		out = append(out, domain.Connection{ID: w.ID, Name: w.Name, Type: w.Type, Status: w.Status})
	}
	return out, nil
}

// TriggerDiscovery starts discovery on one connection.
func (s *ConnectionClient) TriggerDiscovery(ctx context.Context, connectionID string) (*domain.DiscoveryRun, error) {
	var body struct {
		Status string `json:"status"`
	}
	path := "/connections/" + escape(connectionID) + "/discover"
	if err := s.c.call(ctx, http.MethodPost, path, nil, map[string]interface{}{}, &body); err != nil {
		return nil, err
	}
	return &domain.DiscoveryRun{ConnectionID: connectionID, Status: body.Status}, nil
}

// DiscoveryProgress reads the progress of the discovery running on a connection.
func (s *ConnectionClient) DiscoveryProgress(ctx context.Context, connectionID string) (*domain.DiscoveryProgress, error) {
	var body struct {
		Status          string  `json:"status"`
		ProgressPercent float64 `json:"progress_percent"`
		Discovered      int     `json:"discovered"`
		Message         string  `json:"message"`
	}
	path := "/connections/" + escape(connectionID) + "/discover-progress"
	if err := s.c.call(ctx, http.MethodGet, path, nil, nil, &body); err != nil {
		return nil, err
	}
	return &domain.DiscoveryProgress{
		ConnectionID:    connectionID,
		Status:          body.Status,
		ProgressPercent: body.ProgressPercent,
		Discovered:      body.Discovered,
		Message:         body.Message,
	}, nil
}

var _ domain.ConnectionService = (*ConnectionClient)(nil)
