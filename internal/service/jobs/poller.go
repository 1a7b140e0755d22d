// Package jobs polls long-running server jobs until they reach a terminal state.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"assetflow/internal/domain"
)

const (
	// DefaultInterval is the delay between two polls of the same job.
	DefaultInterval = 1 * time.Second
	// DefaultMaxAttempts caps polling at roughly ten minutes.
	DefaultMaxAttempts = 600

	// maxUncollected bounds the outcomes of background jobs kept for Wait.
	maxUncollected = 32
)

// ProgressFunc receives every status observed while polling.
type ProgressFunc func(domain.JobStatus)

// Config tunes the poll loop.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

type watch struct {
	cancel     context.CancelFunc
	onProgress ProgressFunc
	last       domain.JobStatus
	attempts   int
	done       chan struct{}
	result     *domain.JobResult
	err        error
}

// Poller runs one poll loop per job id. On completion it reloads the asset
// listing from its first page.
type Poller struct {
	fetcher  domain.JobStatusFetcher
	reloader domain.PageReloader
	cfg      Config
	logger   *slog.Logger

	mu   sync.Mutex
	jobs map[string]*watch // jobs still being polled
	// Outcomes of finished background jobs not yet collected by Wait, oldest first.
	uncollected []uncollected
}

type uncollected struct {
	jobID string
	w     *watch
}

// NewPoller creates a Poller. reloader may be nil.
func NewPoller(fetcher domain.JobStatusFetcher, reloader domain.PageReloader, cfg Config, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		fetcher:  fetcher,
		reloader: reloader,
		cfg:      cfg.withDefaults(),
		logger:   logger.With("component", "job-poller"),
		jobs:     make(map[string]*watch),
	}
}

// Run polls jobID until it completes, fails, times out or ctx is canceled.
// The first poll is issued immediately.
func (p *Poller) Run(ctx context.Context, jobID string, onProgress ProgressFunc) (*domain.JobResult, error) {
	w, ctx, err := p.register(ctx, jobID, onProgress)
	if err != nil {
		return nil, err
	}
	res, err := p.loop(ctx, jobID, w)
	p.finish(jobID, w, res, err, false)
	return res, err
}

// Start runs the poll loop in the background. Wait returns its outcome.
func (p *Poller) Start(ctx context.Context, jobID string, onProgress ProgressFunc) error {
	// The loop outlives the caller's request.
	w, loopCtx, err := p.register(context.WithoutCancel(ctx), jobID, onProgress)
	if err != nil {
		return err
	}
	go func() {
		res, err := p.loop(loopCtx, jobID, w)
		p.finish(jobID, w, res, err, true)
	}()
	return nil
}

// Wait blocks until the background loop of jobID ends and collects its
// outcome. An outcome can be collected once.
func (p *Poller) Wait(ctx context.Context, jobID string) (*domain.JobResult, error) {
	p.mu.Lock()
	w, ok := p.jobs[jobID]
	if !ok {
		w, ok = p.uncollectedLocked(jobID)
	}
	p.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound("job %q is not being polled", jobID)
	}
	select {
	case <-w.done:
		p.mu.Lock()
		p.collectLocked(jobID, w)
		res, err := w.result, w.err
		p.mu.Unlock()
		return res, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Poller) uncollectedLocked(jobID string) (*watch, bool) {
	for _, u := range p.uncollected {
		if u.jobID == jobID {
			return u.w, true
		}
	}
	return nil, false
}

func (p *Poller) collectLocked(jobID string, w *watch) {
	p.uncollected = slices.DeleteFunc(p.uncollected, func(u uncollected) bool {
		return u.jobID == jobID && u.w == w
	})
}

func (p *Poller) register(ctx context.Context, jobID string, onProgress ProgressFunc) (*watch, context.Context, error) {
	if jobID == "" {
		return nil, nil, domain.ErrValidation("job id is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.jobs[jobID]; ok {
		return nil, nil, domain.ErrConflict("job %q is already being polled", jobID)
	}
	ctx, cancel := context.WithCancel(ctx)
	w := &watch{
		cancel:     cancel,
		onProgress: onProgress,
		last:       domain.JobStatus{JobID: jobID, Status: domain.JobQueued},
		done:       make(chan struct{}),
	}
	p.jobs[jobID] = w
	p.uncollected = slices.DeleteFunc(p.uncollected, func(u uncollected) bool { return u.jobID == jobID })
	return w, ctx, nil
}

// finish clears the job from client state. Background outcomes are kept for
// Wait, bounded by maxUncollected.
func (p *Poller) finish(jobID string, w *watch, res *domain.JobResult, err error, keep bool) {
	w.cancel()
	p.mu.Lock()
	w.result = res
	w.err = err
	if p.jobs[jobID] == w {
		delete(p.jobs, jobID)
	}
	if keep {
		p.uncollected = append(p.uncollected, uncollected{jobID: jobID, w: w})
		if n := len(p.uncollected) - maxUncollected; n > 0 {
			p.uncollected = slices.Delete(p.uncollected, 0, n)
		}
	}
	p.mu.Unlock()
	close(w.done)

	switch {
	case err == nil:
		p.logger.Info("job completed", "job_id", jobID, "attempts", res.Attempts,
			"hidden", res.Last.HiddenCount, "processed", res.Last.ProcessedCount)
	case res != nil && res.Outcome == domain.OutcomeTimedOut:
		p.logger.Warn("job polling timed out", "job_id", jobID, "attempts", res.Attempts)
	default:
		p.logger.Warn("job polling stopped", "job_id", jobID, "error", err)
	}
}

func (p *Poller) loop(ctx context.Context, jobID string, w *watch) (*domain.JobResult, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer.Reset(p.cfg.Interval)
			select {
			case <-ctx.Done():
				return p.result(jobID, domain.OutcomeCanceled, attempt-1), ctx.Err()
			case <-timer.C:
			}
		} else {
			<-timer.C
		}

		st, err := p.fetcher.JobStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return p.result(jobID, domain.OutcomeCanceled, attempt), ctx.Err()
			}
			return p.result(jobID, domain.OutcomeFailed, attempt), &domain.JobFailedError{JobID: jobID, Message: err.Error()}
		}
		p.observe(jobID, attempt, st)

		switch st.Status {
		case domain.JobCompleted:
			if p.reloader != nil {
				if err := p.reloader.Reload(ctx); err != nil {
					p.logger.Warn("reload after job failed", "job_id", jobID, "error", err)
				}
			}
			return p.result(jobID, domain.OutcomeCompleted, attempt), nil
		case domain.JobFailed:
			msg := st.ErrorMessage
			if msg == "" {
				msg = "job reported failure"
			}
			return p.result(jobID, domain.OutcomeFailed, attempt), &domain.JobFailedError{JobID: jobID, Message: msg}
		}
	}
	return p.result(jobID, domain.OutcomeTimedOut, p.cfg.MaxAttempts),
		&domain.JobTimeoutError{JobID: jobID, Attempts: p.cfg.MaxAttempts}
}

// observe records st and notifies the progress listener. Progress fields are
// optional; a status without them keeps the previous values.
func (p *Poller) observe(jobID string, attempt int, st *domain.JobStatus) {
	p.mu.Lock()
	w, ok := p.jobs[jobID]
	if !ok {
		p.mu.Unlock()
		return
	}
	next := *st
	next.JobID = jobID
	if next.ProgressPercent == 0 && next.Status != domain.JobQueued {
		next.ProgressPercent = w.last.ProgressPercent
	}
	if next.Status == domain.JobCompleted {
		next.ProgressPercent = 100
	}
	w.last = next
	w.attempts = attempt
	fn := w.onProgress
	p.mu.Unlock()

	p.logger.Debug("job status", "job_id", jobID, "status", next.Status, "progress", next.ProgressPercent, "attempt", attempt)
	if fn != nil {
		fn(next)
	}
}

func (p *Poller) result(jobID string, outcome domain.JobOutcome, attempts int) *domain.JobResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := &domain.JobResult{JobID: jobID, Outcome: outcome, Attempts: attempts}
	if w, ok := p.jobs[jobID]; ok {
		res.Last = w.last
	}
	return res
}

// Cancel stops client-side polling of jobID. The server job is unaffected.
func (p *Poller) Cancel(jobID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.jobs[jobID]
	if !ok {
		return false
	}
	w.cancel()
	return true
}

// Dismiss detaches the progress listener of a running job, or drops the
// uncollected outcome of a finished one. Polling of a running job continues.
func (p *Poller) Dismiss(jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.jobs[jobID]; ok {
		w.onProgress = nil
		return
	}
	p.uncollected = slices.DeleteFunc(p.uncollected, func(u uncollected) bool { return u.jobID == jobID })
}

// Status returns the last status seen for a job still being polled.
func (p *Poller) Status(jobID string) (domain.JobStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.jobs[jobID]
	if !ok {
		return domain.JobStatus{}, false
	}
	return w.last, true
}

// Active lists the jobs still being polled.
func (p *Poller) Active() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ids []string
	for id := range p.jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsTimeout reports whether err is a polling timeout.
func IsTimeout(err error) bool {
	var te *domain.JobTimeoutError
	return errors.As(err, &te)
}
