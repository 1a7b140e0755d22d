package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetflow/internal/domain"
	"assetflow/internal/testutil"
)

func newTestServices(t *testing.T, token string) (*Services, *testutil.FakeServer) {
	t.Helper()
	srv := testutil.NewFakeServer(t)
	c := NewClient(srv.URL+"/", "key-123", token)
	return NewServices(c), srv
}

func TestListAssets_EncodesFiltersAndPage(t *testing.T) {
	svc, srv := newTestServices(t, "")
	srv.HandleJSON(http.MethodGet, "/assets", http.StatusOK, map[string]interface{}{
		"assets": []map[string]interface{}{
			{
				"id":   "a1",
				"name": "orders",
				"operational_metadata": map[string]interface{}{
					"approval_status": "approved",
				},
				"columns": []map[string]interface{}{
					{"name": "email", "pii_detected": true, "pii_types": []string{"EMAIL"}},
				},
			},
		},
		"pagination": map[string]interface{}{"total": 51, "total_pages": 3},
	})

	page, err := svc.Catalog.ListAssets(context.Background(), domain.PageRequest{
		Filters: domain.FilterSet{
			Types:            []string{"table", "view"},
			ApprovalStatuses: []domain.ApprovalStatus{domain.ApprovalApproved},
		},
		Index:    2,
		PageSize: 25,
	})
	require.NoError(t, err)
	require.Len(t, page.Assets, 1)
	assert.Equal(t, int64(51), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, domain.StateApproved, page.Assets[0].State())
	assert.Equal(t, []string{"EMAIL"}, page.Assets[0].Columns[0].PIITypes)

	reqs := srv.RequestsFor("listAssets")
	require.Len(t, reqs, 1)
	q := reqs[0].Query
	assert.Equal(t, []string{"table", "view"}, q["type"])
	assert.Equal(t, []string{"approved"}, q["approval_status"])
	assert.Equal(t, "3", q.Get("page"))
	assert.Equal(t, "25", q.Get("per_page"))
	assert.NotContains(t, q, "search")
	assert.Equal(t, "key-123", reqs[0].Header.Get("X-API-Key"))
	assert.NotEmpty(t, reqs[0].Header.Get("Accept"))
}

func TestListAssets_LegacyArrayShape(t *testing.T) {
	svc, srv := newTestServices(t, "")
	srv.HandleJSON(http.MethodGet, "/assets", http.StatusOK, []map[string]interface{}{
		{"id": "a1"}, {"id": "a2"},
	})

	page, err := svc.Catalog.ListAssets(context.Background(), domain.PageRequest{PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Assets, 2)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, domain.StatePending, page.Assets[0].State())
}

func TestGetAsset_NotFoundMapsToDomainError(t *testing.T) {
	svc, srv := newTestServices(t, "")
	srv.HandleJSON(http.MethodGet, "/assets/{id}", http.StatusNotFound, map[string]interface{}{
		"code": 404, "message": "asset not found",
	})

	_, err := svc.Catalog.GetAsset(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.HTTPStatus)
	assert.Equal(t, "asset not found", apiErr.Message)
	assert.True(t, IsNotFound(err))
}

func TestGetAsset_Envelope(t *testing.T) {
	svc, srv := newTestServices(t, "")
	srv.HandleJSON(http.MethodGet, "/assets/{id}", http.StatusOK, map[string]interface{}{
		"asset": map[string]interface{}{"id": "a1", "name": "orders", "discovery_id": "d-9"},
	})

	a, err := svc.Catalog.GetAsset(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "orders", a.Name)
	assert.Equal(t, "d-9", a.DiscoveryID)
}

func TestUpdateAsset_SendsPartialBody(t *testing.T) {
	svc, srv := newTestServices(t, "")
	srv.HandleJSON(http.MethodPut, "/assets/{id}", http.StatusOK, map[string]interface{}{
		"business_metadata": map[string]interface{}{"tags": []string{"finance", "Rejected: Other"}},
	})

	delta, err := svc.Catalog.UpdateAsset(context.Background(), "a1", domain.BusinessDelta{
		Tags:          []string{"finance", "Rejected: Other"},
		CustomColumns: map[string]string{"steward": "ops"},
	})
	require.NoError(t, err)
	require.NotNil(t, delta.BusinessMetadata)
	assert.Equal(t, []string{"finance", "Rejected: Other"}, delta.BusinessMetadata.Tags)
	assert.Nil(t, delta.OperationalMetadata)

	reqs := srv.RequestsFor("updateAsset")
	require.Len(t, reqs, 1)
	var body map[string]map[string]interface{}
	reqs[0].DecodeBody(t, &body)
	assert.Equal(t, "ops", body["custom_columns"]["steward"])
	assert.NotContains(t, body["business_metadata"], "description")
}

func TestUpdateColumnPII(t *testing.T) {
	svc, srv := newTestServices(t, "")
	srv.Handle(http.MethodPut, "/assets/{id}/columns/{column}/pii", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	masking := "hash"
	col, err := svc.Catalog.UpdateColumnPII(context.Background(),
		domain.ColumnKey{AssetID: "a1", Column: "email"},
		domain.ColumnPIIUpdate{PIIDetected: true, PIITypes: []string{"EMAIL"}, MaskingLogicAnalytical: &masking},
	)
	require.NoError(t, err)
	assert.Equal(t, "email", col.Name)
	assert.Equal(t, []string{"EMAIL"}, col.PIITypes)

	reqs := srv.RequestsFor("updateColumnPII")
	require.Len(t, reqs, 1)
	assert.Equal(t, "/assets/a1/columns/email/pii", reqs[0].Path)
	var body struct {
		PIIDetected bool     `json:"pii_detected"`
		PIITypes    []string `json:"pii_types"`
		Analytical  *string  `json:"masking_logic_analytical"`
		Operational *string  `json:"masking_logic_operational"`
	}
	reqs[0].DecodeBody(t, &body)
	assert.True(t, body.PIIDetected)
	assert.Equal(t, "hash", *body.Analytical)
	assert.Nil(t, body.Operational)
}

func TestGovernance_ApproveRejectPublish(t *testing.T) {
	svc, srv := newTestServices(t, "")
	srv.HandleJSON(http.MethodPost, "/assets/{id}/approve", http.StatusOK, map[string]interface{}{
		"operational_metadata": map[string]interface{}{"approval_status": "approved", "approved_at": "2026-05-01T10:00:00Z"},
	})
	srv.HandleJSON(http.MethodPost, "/assets/{id}/reject", http.StatusOK, map[string]interface{}{})
	srv.HandleJSON(http.MethodPost, "/assets/{id}/publish", http.StatusOK, map[string]interface{}{
		"discovery_id":         "d-1",
		"operational_metadata": map[string]interface{}{"publish_status": "published"},
	})
	ctx := context.Background()

	delta, err := svc.Governance.Approve(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, *delta.OperationalMetadata.ApprovalStatus)
	assert.Equal(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), delta.OperationalMetadata.ApprovedAt.UTC())

	delta, err = svc.Governance.Reject(ctx, "a1", "Duplicate Asset")
	require.NoError(t, err)
	assert.Nil(t, delta.OperationalMetadata)
	var reject map[string]string
	srv.RequestsFor("rejectAsset")[0].DecodeBody(t, &reject)
	assert.Equal(t, "Duplicate Asset", reject["reason"])

	res, err := svc.Governance.Publish(ctx, "a1", "catalog")
	require.NoError(t, err)
	assert.Equal(t, "d-1", res.DiscoveryID)
	assert.Equal(t, domain.PublishPublished, *res.Delta.OperationalMetadata.PublishStatus)
}

func TestPublish_MissingDiscoveryID(t *testing.T) {
	svc, srv := newTestServices(t, "")
	srv.HandleJSON(http.MethodPost, "/assets/{id}/publish", http.StatusOK, map[string]interface{}{})

	_, err := svc.Governance.Publish(context.Background(), "a1", "catalog")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestServerErrorKeepsStatus(t *testing.T) {
	svc, srv := newTestServices(t, "")
	srv.HandleJSON(http.MethodPost, "/assets/{id}/approve", http.StatusInternalServerError, map[string]interface{}{
		"error": "database unavailable",
	})

	_, err := svc.Governance.Approve(context.Background(), "a1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatus)
	assert.Equal(t, "database unavailable", apiErr.Message)
	assert.False(t, IsNotFound(err))
}

func TestDeduplicate_Shapes(t *testing.T) {
	t.Run("immediate", func(t *testing.T) {
		svc, srv := newTestServices(t, "")
		srv.HandleJSON(http.MethodPost, "/discovery/deduplicate", http.StatusOK, map[string]interface{}{"hidden": 4})
		res, err := svc.Discovery.Deduplicate(context.Background())
		require.NoError(t, err)
		assert.False(t, res.IsAsync())
		assert.Equal(t, 4, res.Hidden)
	})

	t.Run("async", func(t *testing.T) {
		svc, srv := newTestServices(t, "")
		srv.HandleJSON(http.MethodPost, "/discovery/deduplicate", http.StatusAccepted, map[string]interface{}{
			"job_id": "job-1", "total_discoveries": 9000,
		})
		res, err := svc.Discovery.Deduplicate(context.Background())
		require.NoError(t, err)
		assert.True(t, res.IsAsync())
		assert.Equal(t, domain.JobQueued, res.Status)
		assert.Equal(t, 9000, res.TotalDiscoveries)
	})
}

func TestDeduplicateStatus_ProgressAliases(t *testing.T) {
	svc, srv := newTestServices(t, "")
	srv.HandleJSON(http.MethodGet, "/discovery/deduplicate/status/{job_id}", http.StatusOK, map[string]interface{}{
		"status": "failed", "progress": 37.5, "error": "out of memory",
	})

	st, err := svc.Discovery.JobStatus(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", st.JobID)
	assert.Equal(t, domain.JobFailed, st.Status)
	assert.Equal(t, 37.5, st.ProgressPercent)
	assert.Equal(t, "out of memory", st.ErrorMessage)
}

func TestListHidden_PageIsOneBased(t *testing.T) {
	svc, srv := newTestServices(t, "")
	srv.HandleJSON(http.MethodGet, "/discovery/duplicates/hidden", http.StatusOK, map[string]interface{}{
		"discoveries": []map[string]interface{}{{"id": "d1", "duplicate_of": "d0", "hidden": true}},
		"pagination":  map[string]interface{}{"total": 1, "total_pages": 1},
	})

	res, err := svc.Discovery.ListHidden(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, res.Discoveries, 1)
	assert.Equal(t, "d0", res.Discoveries[0].DuplicateOf)

	q := srv.RequestsFor("listHiddenDuplicates")[0].Query
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "25", q.Get("per_page"))
}

func TestConnections(t *testing.T) {
	svc, srv := newTestServices(t, "")
	srv.HandleJSON(http.MethodGet, "/connections", http.StatusOK, map[string]interface{}{
		"connections": []map[string]interface{}{{"id": "c1", "name": "warehouse", "type": "postgres"}},
	})
	srv.HandleJSON(http.MethodPost, "/connections/{id}/discover", http.StatusOK, map[string]interface{}{"status": "running"})
	srv.HandleJSON(http.MethodGet, "/connections/{id}/discover-progress", http.StatusOK, map[string]interface{}{
		"status": "running", "progress_percent": 64, "discovered": 12,
	})
	ctx := context.Background()

	conns, err := svc.Connection.ListConnections(ctx)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "warehouse", conns[0].Name)

	run, err := svc.Connection.TriggerDiscovery(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", run.ConnectionID)
	assert.Equal(t, "running", run.Status)

	p, err := svc.Connection.DiscoveryProgress(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 64.0, p.ProgressPercent)
	assert.Equal(t, 12, p.Discovered)
}

func TestBearerTokenTakesPrecedence(t *testing.T) {
	token, err := MintDevToken("steward", "secret", false, time.Hour, time.Now())
	require.NoError(t, err)
	svc, srv := newTestServices(t, token)
	srv.HandleJSON(http.MethodGet, "/connections", http.StatusOK, []interface{}{})

	_, err = svc.Connection.ListConnections(context.Background())
	require.NoError(t, err)

	h := srv.Requests()[0].Header
	assert.Equal(t, "Bearer "+token, h.Get("Authorization"))
	assert.Empty(t, h.Get("X-API-Key"))
}

func TestExpiredTokenFailsBeforeSending(t *testing.T) {
	token, err := MintDevToken("steward", "secret", true, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	svc, srv := newTestServices(t, token)

	_, err = svc.Connection.ListConnections(context.Background())
	require.ErrorIs(t, err, ErrTokenExpired)
	assert.Empty(t, srv.Requests())
}

func TestCheckTokenExpiry_OpaqueTokenPasses(t *testing.T) {
	require.NoError(t, checkTokenExpiry("not-a-jwt", time.Now()))
	require.NoError(t, checkTokenExpiry("", time.Now()))
}
