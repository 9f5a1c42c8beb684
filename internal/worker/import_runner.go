package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ignite/gameplan-importer/internal/pkg/distlock"
	"github.com/ignite/gameplan-importer/internal/pkg/logger"
)

var (
	// ErrImportInProgress is returned when a session already has a running
	// import, in this process or in another replica holding the lock.
	ErrImportInProgress = errors.New("import already in progress")
	// ErrShuttingDown is returned by Start once Shutdown has begun.
	ErrShuttingDown = errors.New("job runner is shutting down")
)

// JobStatus is the state of a tracked import job.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobDone      JobStatus = "done"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Job is a snapshot of one tracked import.
type Job struct {
	SessionID  string    `json:"sessionId"`
	Status     JobStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// LockFactory builds the distributed lock guarding key. A nil factory
// limits exclusion to this process.
type LockFactory func(key string) distlock.DistLock

// extender is implemented by locks whose TTL can be pushed out.
type extender interface {
	Extend(ctx context.Context, ttl time.Duration) error
}

type jobEntry struct {
	job    Job
	cancel context.CancelFunc
}

// ImportRunner runs one background import per session. Jobs outlive the
// request that started them and are cancelled only through Cancel or
// Shutdown.
type ImportRunner struct {
	newLock LockFactory
	lockTTL time.Duration

	base    context.Context
	stopAll context.CancelFunc

	mu      sync.Mutex
	jobs    map[string]*jobEntry
	closing bool
	wg      sync.WaitGroup
}

// NewImportRunner returns a runner. lockTTL is the lease of the session
// lock, renewed at a third of its length while the job runs.
func NewImportRunner(newLock LockFactory, lockTTL time.Duration) *ImportRunner {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	base, stop := context.WithCancel(context.Background())
	return &ImportRunner{
		newLock: newLock,
		lockTTL: lockTTL,
		base:    base,
		stopAll: stop,
		jobs:    make(map[string]*jobEntry),
	}
}

// Start takes the session lock, runs begin synchronously and then run in
// the background. If begin fails the lock is released and its error is
// returned; run is never called.
func (r *ImportRunner) Start(ctx context.Context, sessionID string, begin, run func(context.Context) error) error {
	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		return ErrShuttingDown
	}
	if e, ok := r.jobs[sessionID]; ok && e.job.Status == JobRunning {
		r.mu.Unlock()
		return ErrImportInProgress
	}
	// Reserve the slot before taking the remote lock.
	jobCtx, cancel := context.WithCancel(r.base)
	entry := &jobEntry{
		job:    Job{SessionID: sessionID, Status: JobRunning, StartedAt: time.Now().UTC()},
		cancel: cancel,
	}
	r.jobs[sessionID] = entry
	r.wg.Add(1)
	r.mu.Unlock()

	lock, err := r.acquire(ctx, sessionID)
	if err == nil && begin != nil {
		if err = begin(ctx); err != nil {
			r.release(lock, sessionID)
		}
	}
	if err != nil {
		cancel()
		r.mu.Lock()
		delete(r.jobs, sessionID)
		r.mu.Unlock()
		r.wg.Done()
		return err
	}

	go r.execute(jobCtx, entry, lock, run)
	return nil
}

func (r *ImportRunner) acquire(ctx context.Context, sessionID string) (distlock.DistLock, error) {
	if r.newLock == nil {
		return nil, nil
	}
	lock := r.newLock(distlock.ImportKey(sessionID))
	ok, err := lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	if !ok {
		return nil, ErrImportInProgress
	}
	return lock, nil
}

func (r *ImportRunner) release(lock distlock.DistLock, sessionID string) {
	if lock == nil {
		return
	}
	if err := lock.Release(context.Background()); err != nil {
		logger.Warn("worker: release import lock failed", "session_id", sessionID, "error", err)
	}
}

func (r *ImportRunner) execute(ctx context.Context, entry *jobEntry, lock distlock.DistLock, run func(context.Context) error) {
	defer r.wg.Done()
	defer entry.cancel()
	defer r.release(lock, entry.job.SessionID)

	if ext, ok := lock.(extender); ok {
		go r.keepAlive(ctx, ext, entry.job.SessionID)
	}

	err := r.safeRun(ctx, run)

	r.mu.Lock()
	defer r.mu.Unlock()
	entry.job.FinishedAt = time.Now().UTC()
	switch {
	case err == nil:
		entry.job.Status = JobDone
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		entry.job.Status = JobCancelled
		entry.job.Error = err.Error()
	default:
		entry.job.Status = JobFailed
		entry.job.Error = err.Error()
	}
	logger.Info("worker: import job finished", "session_id", entry.job.SessionID, "status", entry.job.Status,
		"duration_ms", entry.job.FinishedAt.Sub(entry.job.StartedAt).Milliseconds())
}

func (r *ImportRunner) safeRun(ctx context.Context, run func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("import job panicked: %v", p)
		}
	}()
	if run == nil {
		return nil
	}
	return run(ctx)
}

func (r *ImportRunner) keepAlive(ctx context.Context, lock extender, sessionID string) {
	t := time.NewTicker(r.lockTTL / 3)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := lock.Extend(ctx, r.lockTTL); err != nil && ctx.Err() == nil {
				logger.Warn("worker: extend import lock failed", "session_id", sessionID, "error", err)
			}
		}
	}
}

// Job returns the tracked job of a session.
func (r *ImportRunner) Job(sessionID string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[sessionID]
	if !ok {
		return Job{}, false
	}
	return e.job, true
}

// Cancel stops the running job of a session. It reports whether a running
// job was found.
func (r *ImportRunner) Cancel(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[sessionID]
	if !ok || e.job.Status != JobRunning {
		return false
	}
	e.cancel()
	return true
}

// Shutdown refuses new jobs and waits for running ones. When ctx expires
// first, running jobs are cancelled and ctx's error is returned once they
// have exited.
func (r *ImportRunner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closing = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.stopAll()
		return nil
	case <-ctx.Done():
		r.stopAll()
		<-done
		return ctx.Err()
	}
}
