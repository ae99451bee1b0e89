package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/semaphore"

	"jobscrape-engine/internal/domain"
)

const lockRetry = 250 * time.Millisecond

// Gate admits one run at a time: in this process through a semaphore and
// across processes through a lock file.
type Gate struct {
	sem  *semaphore.Weighted
	lock *flock.Flock
}

// NewGate returns a gate locking lockPath. An empty path disables the
// cross-process lock.
func NewGate(lockPath string) *Gate {
	g := &Gate{sem: semaphore.NewWeighted(1)}
	if lockPath != "" {
		g.lock = flock.New(lockPath)
	}
	return g
}

// TryRun runs fn if no other run holds the gate, otherwise it returns
// domain.ErrRunInProgress without waiting.
func (g *Gate) TryRun(ctx context.Context, fn func(context.Context) error) error {
	if !g.sem.TryAcquire(1) {
		return eris.Wrap(domain.ErrRunInProgress, "gate: busy")
	}
	defer g.sem.Release(1)

	if g.lock != nil {
		if err := g.prepareLock(); err != nil {
			return err
		}
		ok, err := g.lock.TryLock()
		if err != nil {
			return eris.Wrap(err, "gate: lock")
		}
		if !ok {
			return eris.Wrap(domain.ErrRunInProgress, "gate: locked by another process")
		}
		defer func() { _ = g.lock.Unlock() }()
	}
	return fn(ctx)
}

// Run waits up to maxWait for the gate, then runs fn with ctx. A zero
// maxWait waits until ctx ends.
func (g *Gate) Run(ctx context.Context, maxWait time.Duration, fn func(context.Context) error) error {
	wctx := ctx
	if maxWait > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, maxWait)
		defer cancel()
	}

	if err := g.sem.Acquire(wctx, 1); err != nil {
		if ctx.Err() == nil {
			return eris.Wrap(domain.ErrRunInProgress, "gate: wait timed out")
		}
		return eris.Wrap(err, "gate: wait")
	}
	defer g.sem.Release(1)

	if g.lock != nil {
		if err := g.prepareLock(); err != nil {
			return err
		}
		ok, err := g.lock.TryLockContext(wctx, lockRetry)
		if err != nil {
			if ctx.Err() == nil {
				return eris.Wrap(domain.ErrRunInProgress, "gate: lock wait timed out")
			}
			return eris.Wrap(err, "gate: wait for lock")
		}
		if !ok {
			return eris.Wrap(domain.ErrRunInProgress, "gate: lock not acquired")
		}
		defer func() { _ = g.lock.Unlock() }()
	}
	return fn(ctx)
}

// Busy reports whether a run in this process holds the gate.
func (g *Gate) Busy() bool {
	if !g.sem.TryAcquire(1) {
		return true
	}
	g.sem.Release(1)
	return false
}

func (g *Gate) prepareLock() error {
	if err := os.MkdirAll(filepath.Dir(g.lock.Path()), 0o755); err != nil {
		return eris.Wrap(err, "gate: lock dir")
	}
	return nil
}
