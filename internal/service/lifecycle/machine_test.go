package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetflow/internal/domain"
	"assetflow/internal/service/cache"
	"assetflow/internal/testutil"
)

type fixture struct {
	cache      *cache.Cache
	catalog    *testutil.MockCatalogService
	governance *testutil.MockGovernanceService
	discovery  *testutil.MockDiscoveryService
	pages      *testutil.MockPages
	machine    *Machine
}

func newFixture(assets ...domain.Asset) *fixture {
	f := &fixture{
		cache:      cache.New(),
		catalog:    &testutil.MockCatalogService{},
		governance: &testutil.MockGovernanceService{},
		discovery:  &testutil.MockDiscoveryService{},
		pages:      &testutil.MockPages{},
	}
	f.cache.SetPage(assets)
	f.machine = NewMachine(f.cache, f.catalog, f.governance, f.discovery, f.pages, nil)
	return f
}

func approvalDelta(status domain.ApprovalStatus) *domain.AssetDelta {
	return &domain.AssetDelta{OperationalMetadata: &domain.OperationalDelta{ApprovalStatus: &status}}
}

// requireViewsAgree checks that the full cache and the displayed page hold
// the same asset.
func requireViewsAgree(t *testing.T, c *cache.Cache, id string) *domain.Asset {
	t.Helper()
	full, ok := c.Get(id)
	require.True(t, ok)
	shown, ok := c.PageAsset(id)
	require.True(t, ok)
	require.Equal(t, full, shown)
	return full
}

func TestApprove_Success(t *testing.T) {
	f := newFixture(testutil.Assets(2)...)
	approvedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.governance.ApproveFn = func(_ context.Context, id string) (*domain.AssetDelta, error) {
		assert.Equal(t, "a1", id)
		d := approvalDelta(domain.ApprovalApproved)
		d.OperationalMetadata.ApprovedAt = &approvedAt
		return d, nil
	}

	got, err := f.machine.Approve(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateApproved, got.State())
	assert.Equal(t, approvedAt, *got.OperationalMetadata.ApprovedAt)

	full := requireViewsAgree(t, f.cache, "a1")
	assert.Equal(t, domain.StateApproved, full.State())
	assert.Equal(t, 1, f.pages.CallCount("Repair"))

	_, busy := f.machine.InFlight("a1")
	assert.False(t, busy)
}

func TestApprove_FailureRestoresSnapshot(t *testing.T) {
	f := newFixture(testutil.Assets(1)...)
	before, _ := f.cache.Get("a0")

	f.governance.ApproveFn = func(_ context.Context, _ string) (*domain.AssetDelta, error) {
		// The optimistic state is visible while the call is in flight.
		shown, _ := f.cache.PageAsset("a0")
		assert.Equal(t, domain.StateApproved, shown.State())
		return nil, errors.New("500 internal")
	}

	_, err := f.machine.Approve(context.Background(), "a0")
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.ActionApprove, te.Action)

	after := requireViewsAgree(t, f.cache, "a0")
	assert.Equal(t, before, after)
	assert.Equal(t, 1, f.pages.CallCount("Repair"))
}

func TestApprove_FromRejectedIsRefused(t *testing.T) {
	a := testutil.Asset("a0")
	a.OperationalMetadata.ApprovalStatus = domain.ApprovalRejected
	f := newFixture(a)

	_, err := f.machine.Approve(context.Background(), "a0")
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 0, f.governance.CallCount("Approve"))
	assert.Equal(t, 0, f.pages.CallCount("Repair"))
}

func TestApprove_LoadsUncachedAsset(t *testing.T) {
	f := newFixture()
	f.catalog.GetAssetFn = func(_ context.Context, id string) (*domain.Asset, error) {
		a := testutil.Asset(id)
		return &a, nil
	}
	f.governance.ApproveFn = func(_ context.Context, _ string) (*domain.AssetDelta, error) {
		return approvalDelta(domain.ApprovalApproved), nil
	}

	got, err := f.machine.Approve(context.Background(), "x9")
	require.NoError(t, err)
	assert.Equal(t, domain.StateApproved, got.State())
	assert.Equal(t, 1, f.catalog.CallCount("GetAsset"))
}

func TestExecute_OverlappingCommandsConflict(t *testing.T) {
	f := newFixture(testutil.Assets(1)...)
	entered := make(chan struct{})
	release := make(chan struct{})
	f.governance.ApproveFn = func(_ context.Context, _ string) (*domain.AssetDelta, error) {
		close(entered)
		<-release
		return approvalDelta(domain.ApprovalApproved), nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.machine.Approve(context.Background(), "a0")
		done <- err
	}()
	<-entered

	action, busy := f.machine.InFlight("a0")
	require.True(t, busy)
	assert.Equal(t, domain.ActionApprove, action)

	_, err := f.machine.Reject(context.Background(), "a0", domain.RejectRequest{ReasonCode: "001"})
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 0, f.governance.CallCount("Reject"))
}

func TestReject_WritesGovernanceTag(t *testing.T) {
	f := newFixture(testutil.Assets(1)...)
	f.governance.RejectFn = func(_ context.Context, _ string, reason string) (*domain.AssetDelta, error) {
		assert.Equal(t, "legacy export no longer used", reason)
		return approvalDelta(domain.ApprovalRejected), nil
	}
	f.catalog.UpdateAssetFn = func(_ context.Context, _ string, patch domain.BusinessDelta) (*domain.AssetDelta, error) {
		assert.Equal(t, []string{"finance", "Rejected: legacy export"}, patch.Tags)
		return &domain.AssetDelta{}, nil
	}

	got, err := f.machine.Reject(context.Background(), "a0", domain.RejectRequest{
		ReasonCode: domain.RejectionReasonOther,
		OtherText:  "legacy export no longer used",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StateRejected, got.State())
	assert.True(t, got.HasTag("Rejected: legacy export"))

	full := requireViewsAgree(t, f.cache, "a0")
	assert.Equal(t, got, full)
}

func TestReject_TagWriteFailureKeepsRejection(t *testing.T) {
	f := newFixture(testutil.Assets(1)...)
	f.governance.RejectFn = func(_ context.Context, _ string, _ string) (*domain.AssetDelta, error) {
		return approvalDelta(domain.ApprovalRejected), nil
	}
	f.catalog.UpdateAssetFn = func(_ context.Context, _ string, _ domain.BusinessDelta) (*domain.AssetDelta, error) {
		return nil, errors.New("500 internal")
	}

	got, err := f.machine.Reject(context.Background(), "a0", domain.RejectRequest{ReasonCode: "003"})
	var pe *domain.PartialFailureError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "tag write", pe.Step)

	require.NotNil(t, got)
	assert.Equal(t, domain.StateRejected, got.State())
	assert.False(t, got.HasTag("Rejected: Duplicate Asset"))

	full := requireViewsAgree(t, f.cache, "a0")
	assert.Equal(t, domain.StateRejected, full.State())
	assert.Equal(t, "Duplicate Asset", full.OperationalMetadata.RejectionReason)
	assert.Equal(t, 1, f.pages.CallCount("Repair"))
}

func TestReject_InvalidRequestTouchesNothing(t *testing.T) {
	f := newFixture(testutil.Assets(1)...)
	before := f.cache.Version()

	_, err := f.machine.Reject(context.Background(), "a0", domain.RejectRequest{ReasonCode: domain.RejectionReasonOther})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, before, f.cache.Version())
	assert.Empty(t, f.governance.Calls())
}

func approvedAsset(id string) domain.Asset {
	a := testutil.Asset(id)
	a.OperationalMetadata.ApprovalStatus = domain.ApprovalApproved
	a.DiscoveryID = "d-old"
	return a
}

func TestPublish_ConfirmsDiscovery(t *testing.T) {
	f := newFixture(approvedAsset("a0"))
	f.governance.PublishFn = func(_ context.Context, _ string, target string) (*domain.PublishResult, error) {
		assert.Equal(t, DefaultPublishTarget, target)
		return &domain.PublishResult{DiscoveryID: "d-1"}, nil
	}
	f.discovery.GetDiscoveryFn = func(_ context.Context, id string) (*domain.Discovery, error) {
		return &domain.Discovery{ID: id}, nil
	}

	got, err := f.machine.Publish(context.Background(), "a0", "  ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePublished, got.State())
	assert.Equal(t, "d-1", got.DiscoveryID)
	assert.Equal(t, DefaultPublishTarget, got.OperationalMetadata.PublishedTo)
	requireViewsAgree(t, f.cache, "a0")
}

func TestPublish_DiscoveryFetchFailureRollsBack(t *testing.T) {
	f := newFixture(approvedAsset("a0"))
	before, _ := f.cache.Get("a0")
	f.governance.PublishFn = func(_ context.Context, _ string, _ string) (*domain.PublishResult, error) {
		return &domain.PublishResult{DiscoveryID: "d-1"}, nil
	}
	f.discovery.GetDiscoveryFn = func(_ context.Context, _ string) (*domain.Discovery, error) {
		return nil, errors.New("404")
	}

	_, err := f.machine.Publish(context.Background(), "a0", "warehouse")
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)

	after := requireViewsAgree(t, f.cache, "a0")
	assert.Equal(t, before, after)
	assert.Equal(t, domain.StateApproved, after.State())
}

func TestPublish_RequiresApproval(t *testing.T) {
	f := newFixture(testutil.Assets(1)...)
	_, err := f.machine.Publish(context.Background(), "a0", "")
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
}

func TestUpdateMetadata(t *testing.T) {
	f := newFixture(testutil.Assets(1)...)
	desc := "curated orders"
	f.catalog.UpdateAssetFn = func(_ context.Context, _ string, patch domain.BusinessDelta) (*domain.AssetDelta, error) {
		return &domain.AssetDelta{BusinessMetadata: &patch}, nil
	}

	got, err := f.machine.UpdateMetadata(context.Background(), "a0", domain.BusinessDelta{
		Description:   &desc,
		CustomColumns: map[string]string{"steward": "ops"},
	})
	require.NoError(t, err)
	assert.Equal(t, desc, got.BusinessMetadata.Description)
	assert.Equal(t, "ops", got.BusinessMetadata.CustomColumns["steward"])
	assert.Equal(t, []string{"finance"}, got.BusinessMetadata.Tags)

	_, err = f.machine.UpdateMetadata(context.Background(), "a0", domain.BusinessDelta{})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestExecute_IncompleteCommand(t *testing.T) {
	f := newFixture()
	_, err := f.machine.Execute(context.Background(), Command{AssetID: "a0", Action: domain.ActionApprove})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}
