package discovery

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetflow/internal/domain"
	"assetflow/internal/service/jobs"
	"assetflow/internal/testutil"
)

type fixture struct {
	discovery   *testutil.MockDiscoveryService
	connections *testutil.MockConnectionService
	pages       *testutil.MockPages
	poller      *jobs.Poller
	svc         *Service
}

func newFixture(concurrency int) *fixture {
	f := &fixture{
		discovery:   &testutil.MockDiscoveryService{},
		connections: &testutil.MockConnectionService{},
		pages:       &testutil.MockPages{},
	}
	f.poller = jobs.NewPoller(f.discovery, f.pages, jobs.Config{Interval: time.Millisecond, MaxAttempts: 20}, nil)
	f.svc = NewService(f.discovery, f.connections, f.poller, f.pages, concurrency, nil)
	return f
}

func TestDeduplicate_ImmediateResultReloads(t *testing.T) {
	f := newFixture(0)
	f.discovery.DeduplicateFn = func(context.Context) (*domain.DeduplicateResult, error) {
		return &domain.DeduplicateResult{Hidden: 7}, nil
	}

	res, err := f.svc.Deduplicate(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, res.IsAsync())
	assert.Equal(t, 7, res.Hidden)
	assert.Equal(t, 1, f.pages.CallCount("Reload"))
	assert.Empty(t, f.poller.Active())
}

func TestDeduplicate_AsyncJobIsPolled(t *testing.T) {
	f := newFixture(0)
	f.discovery.DeduplicateFn = func(context.Context) (*domain.DeduplicateResult, error) {
		return &domain.DeduplicateResult{JobID: "job-1", Status: domain.JobQueued, TotalDiscoveries: 5000}, nil
	}
	var polls atomic.Int32
	f.discovery.DeduplicateStatusFn = func(_ context.Context, jobID string) (*domain.JobStatus, error) {
		assert.Equal(t, "job-1", jobID)
		if polls.Add(1) < 3 {
			return &domain.JobStatus{Status: domain.JobRunning, ProgressPercent: 50}, nil
		}
		return &domain.JobStatus{Status: domain.JobCompleted, HiddenCount: 120}, nil
	}

	res, err := f.svc.Deduplicate(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, res.IsAsync())
	assert.Equal(t, 0, f.pages.CallCount("Reload"), "no reload before the job completes")

	result, err := f.svc.WaitJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, result.Outcome)
	assert.Equal(t, 120, result.Last.HiddenCount)
	assert.Equal(t, 1, f.pages.CallCount("Reload"))
}

func TestDeduplicate_ServerError(t *testing.T) {
	f := newFixture(0)
	f.discovery.DeduplicateFn = func(context.Context) (*domain.DeduplicateResult, error) {
		return nil, errors.New("503")
	}
	_, err := f.svc.Deduplicate(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 0, f.pages.CallCount("Reload"))
}

func TestListHidden_ClampsPaging(t *testing.T) {
	f := newFixture(0)
	f.discovery.ListHiddenFn = func(_ context.Context, page, perPage int) (*domain.DiscoveryPage, error) {
		assert.Equal(t, 1, page)
		assert.Equal(t, domain.MaxPageSize, perPage)
		return &domain.DiscoveryPage{Total: 0}, nil
	}
	_, err := f.svc.ListHidden(context.Background(), 0, 10000)
	require.NoError(t, err)
}

func TestRestore_RepairsPage(t *testing.T) {
	f := newFixture(0)
	f.discovery.RestoreDiscoveryFn = func(_ context.Context, id string) error {
		assert.Equal(t, "d-1", id)
		return nil
	}
	require.NoError(t, f.svc.Restore(context.Background(), "d-1"))
	assert.Equal(t, 1, f.pages.CallCount("Repair"))

	var ve *domain.ValidationError
	require.ErrorAs(t, f.svc.Restore(context.Background(), ""), &ve)
}

func TestTriggerAll_FailureDoesNotAbortOthers(t *testing.T) {
	f := newFixture(2)
	f.connections.ListConnectionsFn = func(context.Context) ([]domain.Connection, error) {
		return []domain.Connection{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}, {ID: "c4"}}, nil
	}
	var inFlight, peak atomic.Int32
	f.connections.TriggerDiscoveryFn = func(_ context.Context, id string) (*domain.DiscoveryRun, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		if id == "c2" {
			return nil, errors.New("credentials expired")
		}
		return &domain.DiscoveryRun{Status: "running"}, nil
	}

	runs, err := f.svc.TriggerAll(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, runs, 4)

	ids := make([]string, 0, len(runs))
	for _, r := range runs {
		ids = append(ids, r.ConnectionID)
		if r.ConnectionID == "c2" {
			require.Error(t, r.Err)
			assert.Equal(t, "error", r.Status)
		} else {
			assert.NoError(t, r.Err)
			assert.Equal(t, "running", r.Status)
		}
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"c1", "c2", "c3", "c4"}, ids)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 4, f.connections.CallCount("TriggerDiscovery"))
	assert.Equal(t, 1, f.pages.CallCount("Reload"))
}

func TestTriggerAll_FailureKeepsSiblingContextLive(t *testing.T) {
	f := newFixture(1)
	f.connections.TriggerDiscoveryFn = func(ctx context.Context, id string) (*domain.DiscoveryRun, error) {
		if id == "c1" {
			return nil, errors.New("unreachable host")
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &domain.DiscoveryRun{Status: "running"}, nil
	}

	runs, err := f.svc.TriggerAll(context.Background(), []string{"c1", "c2", "c3"})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Error(t, runs[0].Err)
	assert.NoError(t, runs[1].Err)
	assert.NoError(t, runs[2].Err)
	assert.Equal(t, "running", runs[2].Status)
}

func TestTriggerAll_ExplicitIDs(t *testing.T) {
	f := newFixture(0)
	f.connections.TriggerDiscoveryFn = func(_ context.Context, _ string) (*domain.DiscoveryRun, error) {
		return &domain.DiscoveryRun{Status: "running"}, nil
	}
	runs, err := f.svc.TriggerAll(context.Background(), []string{"c9"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "c9", runs[0].ConnectionID)
	assert.Equal(t, 0, f.connections.CallCount("ListConnections"))
}

func TestTriggerAll_NoConnections(t *testing.T) {
	f := newFixture(0)
	f.connections.ListConnectionsFn = func(context.Context) ([]domain.Connection, error) {
		return nil, nil
	}
	runs, err := f.svc.TriggerAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.Equal(t, 0, f.pages.CallCount("Reload"))
}

func TestProgress(t *testing.T) {
	f := newFixture(0)
	f.connections.DiscoveryProgressFn = func(_ context.Context, id string) (*domain.DiscoveryProgress, error) {
		return &domain.DiscoveryProgress{ConnectionID: id, Status: "running", ProgressPercent: 12.5}, nil
	}
	p, err := f.svc.Progress(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 12.5, p.ProgressPercent)

	_, err = f.svc.Progress(context.Background(), "")
	require.Error(t, err)
}

func TestScheduler(t *testing.T) {
	f := newFixture(0)
	s := NewScheduler(f.svc, nil)

	require.NoError(t, s.Add("@every 1h", "c1"))
	require.NoError(t, s.Add("@every 1h", "c2"))
	assert.Equal(t, 1, s.Len(), "same schedule replaces the entry")

	require.NoError(t, s.Add("0 */6 * * *"))
	assert.Equal(t, 2, s.Len())

	require.Error(t, s.Add("not a schedule"))
	assert.Equal(t, 2, s.Len())

	s.Start()
	s.Stop()
}
