package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"assetflow/internal/domain"
)

// CatalogClient implements domain.CatalogService.
type CatalogClient struct {
	c *Client
}

// NewCatalogClient creates a CatalogClient.
func NewCatalogClient(c *Client) *CatalogClient {
	return &CatalogClient{c: c}
}

// ListAssets fetches one filtered page. Both the legacy bare-array shape and
// the paginated {assets, pagination} shape are accepted.
func (s *CatalogClient) ListAssets(ctx context.Context, req domain.PageRequest) (*domain.AssetPage, error) {
	q, err := assetListQuery(req)
	if err != nil {
		return nil, err
	}
	data, err := s.c.callRaw(ctx, http.MethodGet, "/assets", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeAssetPage(data, domain.ClampPageSize(req.PageSize))
}

func decodeAssetPage(data []byte, pageSize int) (*domain.AssetPage, error) {
	var (
		items      []wireAsset
		pagination *wirePagination
	)
	if isJSONArray(data) {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("parse asset list: %w", err)
		}
	} else {
		var body struct {
			Assets     []wireAsset     `json:"assets"`
			Pagination *wirePagination `json:"pagination"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("parse asset list: %w", err)
		}
		items, pagination = body.Assets, body.Pagination
	}

	page := &domain.AssetPage{Assets: make([]domain.Asset, 0, len(items))}
	for _, w := range items {
		page.Assets = append(page.Assets, w.toDomain())
	}
	switch {
	case pagination != nil:
		page.Total = pagination.Total
		page.TotalPages = pagination.TotalPages
		if page.TotalPages == 0 {
			page.TotalPages = domain.TotalPages(page.Total, pageSize)
		}
	default:
		// Unpaginated responses carry the whole result set.
		page.Total = int64(len(items))
		if len(items) > 0 {
			page.TotalPages = 1
		}
	}
	return page, nil
}

// GetAsset fetches a single asset.
func (s *CatalogClient) GetAsset(ctx context.Context, id string) (*domain.Asset, error) {
	data, err := s.c.callRaw(ctx, http.MethodGet, "/assets/"+escape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	var w wireAsset
	if err := json.Unmarshal(unwrapEnvelope(data, "asset"), &w); err != nil {
		return nil, fmt.Errorf("parse asset: %w", err)
	}
	a := w.toDomain()
	if a.ID == "" {
		a.ID = id
	}
	return &a, nil
}

// UpdateAsset writes a partial business metadata update, including custom columns.
func (s *CatalogClient) UpdateAsset(ctx context.Context, id string, patch domain.BusinessDelta) (*domain.AssetDelta, error) {
	data, err := s.c.callRaw(ctx, http.MethodPut, "/assets/"+escape(id), nil, businessBody(patch))
	if err != nil {
		return nil, err
	}
	return decodeDelta(data)
}

// UpdateColumnPII writes the PII flag, PII types and masking logic of one column.
func (s *CatalogClient) UpdateColumnPII(ctx context.Context, key domain.ColumnKey, update domain.ColumnPIIUpdate) (*domain.Column, error) {
	path := fmt.Sprintf("/assets/%s/columns/%s/pii", escape(key.AssetID), escape(key.Column))
	data, err := s.c.callRaw(ctx, http.MethodPut, path, nil, columnUpdateBody(update))
	if err != nil {
		return nil, err
	}

	col := domain.Column{
		Name:                    key.Column,
		PIIDetected:             update.PIIDetected,
		PIITypes:                update.PIITypes,
		MaskingLogicAnalytical:  update.MaskingLogicAnalytical,
		MaskingLogicOperational: update.MaskingLogicOperational,
	}
	if len(data) > 0 {
		var w wireColumn
		if err := json.Unmarshal(unwrapEnvelope(data, "column"), &w); err != nil {
			return nil, fmt.Errorf("parse column: %w", err)
		}
		// Servers that echo nothing useful leave the requested values in place.
		if w.Name != "" {
			col = w.toDomain()
		}
	}
	col.Name = key.Column
	col.Normalize()
	return &col, nil
}

var _ domain.CatalogService = (*CatalogClient)(nil)
