package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetflow/internal/domain"
	"assetflow/internal/testutil"
)

var fastConfig = Config{Interval: time.Millisecond, MaxAttempts: 50}

// sequence replays statuses in order and repeats the last one.
func sequence(statuses ...domain.JobStatus) (domain.JobStatusFetcher, *atomic.Int32) {
	var n atomic.Int32
	return domain.JobStatusFunc(func(_ context.Context, jobID string) (*domain.JobStatus, error) {
		i := int(n.Add(1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		st := statuses[i]
		st.JobID = jobID
		return &st, nil
	}), &n
}

type progressLog struct {
	mu  sync.Mutex
	got []domain.JobStatus
}

func (l *progressLog) record(st domain.JobStatus) {
	l.mu.Lock()
	l.got = append(l.got, st)
	l.mu.Unlock()
}

func (l *progressLog) percents() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]float64, 0, len(l.got))
	for _, st := range l.got {
		out = append(out, st.ProgressPercent)
	}
	return out
}

func TestRun_CompletesAndReloads(t *testing.T) {
	fetcher, calls := sequence(
		domain.JobStatus{Status: domain.JobQueued},
		domain.JobStatus{Status: domain.JobRunning, ProgressPercent: 10},
		domain.JobStatus{Status: domain.JobRunning, ProgressPercent: 55, ProcessedCount: 550},
		domain.JobStatus{Status: domain.JobCompleted, ProcessedCount: 1000, HiddenCount: 42},
	)
	pages := &testutil.MockPages{}
	p := NewPoller(fetcher, pages, fastConfig, nil)
	var log progressLog

	res, err := p.Run(context.Background(), "job-1", log.record)
	require.NoError(t, err)

	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []float64{0, 10, 55, 100}, log.percents())
	assert.Equal(t, domain.OutcomeCompleted, res.Outcome)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, 42, res.Last.HiddenCount)
	assert.Equal(t, 1, pages.CallCount("Reload"))

	assert.Empty(t, p.Active())
	_, tracked := p.Status("job-1")
	assert.False(t, tracked, "finished jobs are cleared")
}

func TestRun_ServerReportsFailure(t *testing.T) {
	fetcher, _ := sequence(
		domain.JobStatus{Status: domain.JobRunning, ProgressPercent: 30},
		domain.JobStatus{Status: domain.JobFailed, ErrorMessage: "index corrupted"},
	)
	pages := &testutil.MockPages{}
	p := NewPoller(fetcher, pages, fastConfig, nil)

	res, err := p.Run(context.Background(), "job-2", nil)
	var fe *domain.JobFailedError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "index corrupted", fe.Message)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.Equal(t, 30.0, res.Last.ProgressPercent)
	assert.Equal(t, 0, pages.CallCount("Reload"))
}

func TestRun_FailureWithoutMessage(t *testing.T) {
	fetcher, _ := sequence(domain.JobStatus{Status: domain.JobFailed})
	p := NewPoller(fetcher, nil, fastConfig, nil)

	_, err := p.Run(context.Background(), "job-3", nil)
	var fe *domain.JobFailedError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "job reported failure", fe.Message)
}

func TestRun_NetworkErrorStopsPolling(t *testing.T) {
	var n atomic.Int32
	fetcher := domain.JobStatusFunc(func(_ context.Context, _ string) (*domain.JobStatus, error) {
		n.Add(1)
		return nil, errors.New("connection reset")
	})
	p := NewPoller(fetcher, nil, fastConfig, nil)

	res, err := p.Run(context.Background(), "job-4", nil)
	var fe *domain.JobFailedError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Message, "connection reset")
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.Equal(t, int32(1), n.Load())
}

func TestRun_TimesOut(t *testing.T) {
	fetcher, calls := sequence(domain.JobStatus{Status: domain.JobRunning, ProgressPercent: 5})
	p := NewPoller(fetcher, nil, Config{Interval: time.Millisecond, MaxAttempts: 3}, nil)

	res, err := p.Run(context.Background(), "job-5", nil)
	require.True(t, IsTimeout(err))
	assert.Equal(t, domain.OutcomeTimedOut, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRun_MissingProgressKeepsLastValue(t *testing.T) {
	fetcher, _ := sequence(
		domain.JobStatus{Status: domain.JobRunning, ProgressPercent: 40},
		domain.JobStatus{Status: domain.JobRunning},
		domain.JobStatus{Status: domain.JobCompleted},
	)
	p := NewPoller(fetcher, nil, fastConfig, nil)
	var log progressLog

	_, err := p.Run(context.Background(), "job-6", log.record)
	require.NoError(t, err)
	assert.Equal(t, []float64{40, 40, 100}, log.percents())
}

func TestStart_CancelIsClientSideOnly(t *testing.T) {
	fetcher, _ := sequence(domain.JobStatus{Status: domain.JobRunning, ProgressPercent: 1})
	p := NewPoller(fetcher, nil, Config{Interval: 5 * time.Millisecond, MaxAttempts: 10000}, nil)

	require.NoError(t, p.Start(context.Background(), "job-7", nil))
	assert.Equal(t, []string{"job-7"}, p.Active())

	var ce *domain.ConflictError
	require.ErrorAs(t, p.Start(context.Background(), "job-7", nil), &ce)

	require.True(t, p.Cancel("job-7"))
	res, err := p.Wait(context.Background(), "job-7")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.OutcomeCanceled, res.Outcome)
	assert.False(t, p.Cancel("job-7"))
	assert.Empty(t, p.Active())
}

func TestStart_OutlivesCallerContext(t *testing.T) {
	fetcher, _ := sequence(
		domain.JobStatus{Status: domain.JobRunning, ProgressPercent: 50},
		domain.JobStatus{Status: domain.JobCompleted},
	)
	p := NewPoller(fetcher, nil, fastConfig, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx, "job-8", nil))
	cancel()

	res, err := p.Wait(context.Background(), "job-8")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, res.Outcome)
}

func TestDismiss_DetachesListener(t *testing.T) {
	release := make(chan struct{})
	var n atomic.Int32
	fetcher := domain.JobStatusFunc(func(_ context.Context, _ string) (*domain.JobStatus, error) {
		if n.Add(1) == 2 {
			<-release
			return &domain.JobStatus{Status: domain.JobCompleted}, nil
		}
		return &domain.JobStatus{Status: domain.JobRunning, ProgressPercent: 20}, nil
	})
	p := NewPoller(fetcher, nil, fastConfig, nil)
	var log progressLog

	require.NoError(t, p.Start(context.Background(), "job-9", log.record))
	require.Eventually(t, func() bool { return n.Load() == 2 }, time.Second, time.Millisecond)

	p.Dismiss("job-9")
	close(release)

	res, err := p.Wait(context.Background(), "job-9")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, res.Outcome)
	assert.Equal(t, []float64{20}, log.percents())
}

func TestWait_UnknownJob(t *testing.T) {
	p := NewPoller(domain.JobStatusFunc(nil), nil, fastConfig, nil)
	_, err := p.Wait(context.Background(), "nope")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = p.Run(context.Background(), "", nil)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestStart_FinishedJobLeavesClientState(t *testing.T) {
	fetcher, _ := sequence(domain.JobStatus{Status: domain.JobCompleted, HiddenCount: 3})
	p := NewPoller(fetcher, nil, fastConfig, nil)

	require.NoError(t, p.Start(context.Background(), "job-10", nil))
	require.Eventually(t, func() bool {
		_, tracked := p.Status("job-10")
		return !tracked
	}, time.Second, time.Millisecond)
	assert.Empty(t, p.Active())
	assert.False(t, p.Cancel("job-10"))

	res, err := p.Wait(context.Background(), "job-10")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Last.HiddenCount)

	_, err = p.Wait(context.Background(), "job-10")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf, "an outcome is collected once")
}

func TestDismiss_DropsUncollectedOutcome(t *testing.T) {
	fetcher, _ := sequence(domain.JobStatus{Status: domain.JobCompleted})
	p := NewPoller(fetcher, nil, fastConfig, nil)

	require.NoError(t, p.Start(context.Background(), "job-11", nil))
	require.Eventually(t, func() bool { return len(p.Active()) == 0 }, time.Second, time.Millisecond)

	p.Dismiss("job-11")
	_, err := p.Wait(context.Background(), "job-11")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestUncollectedOutcomesAreBounded(t *testing.T) {
	fetcher, _ := sequence(domain.JobStatus{Status: domain.JobCompleted})
	p := NewPoller(fetcher, nil, fastConfig, nil)

	for i := range maxUncollected + 1 {
		id := "job-b" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		require.NoError(t, p.Start(context.Background(), id, nil))
		require.Eventually(t, func() bool { return len(p.Active()) == 0 }, time.Second, time.Millisecond)
	}

	p.mu.Lock()
	n := len(p.uncollected)
	oldest := p.uncollected[0].jobID
	p.mu.Unlock()
	assert.Equal(t, maxUncollected, n)
	assert.Equal(t, "job-bba", oldest)
}
