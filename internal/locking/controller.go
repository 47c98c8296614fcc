package locking

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kopi-vm/kopi/internal/kopierr"
)

// Backend selects which lock primitive the controller uses.
type Backend int

const (
	BackendAuto Backend = iota
	BackendAdvisory
	BackendFallback
)

// Guard is returned by a successful Acquire; call Release (or defer
// guard.Release()) to drop the lock.
type Guard struct {
	unlock func() error
}

func (g *Guard) Release() error {
	if g == nil || g.unlock == nil {
		return nil
	}
	err := g.unlock()
	g.unlock = nil
	return err
}

// Controller is the unified lock controller of spec.md §4.3: it
// serializes mutators using OS file locks with backoff, cancellation,
// timeout budgets, and wait-feedback, mapping each Scope to a file
// under <kopi_home>/locks.
type Controller struct {
	locksDir string
	backend  Backend
}

func NewController(locksDir string, backend Backend) *Controller {
	return &Controller{locksDir: locksDir, backend: backend}
}

// Options configures one acquisition attempt.
type Options struct {
	Timeout      TimeoutValue
	Cancellation *CancellationToken
	Observer     WaitObserver
}

func (o Options) observer() WaitObserver {
	if o.Observer == nil {
		return NoopObserver{}
	}
	return o.Observer
}

// Acquire implements the algorithm of spec.md §4.3 step by step: a
// non-blocking attempt, then — on contention — a wait-start event
// followed by a cancel/timeout/sleep/retry loop using exponential
// backoff capped at the remaining budget.
func (c *Controller) Acquire(scope Scope, opts Options) (*Guard, error) {
	path := filepath.Join(c.locksDir, scope.Label()+".lock")
	budget := NewBudget(opts.Timeout)
	observer := opts.observer()

	if opts.Cancellation.IsCancelled() {
		observer.OnCancelled(scope, budget.Elapsed())
		return nil, kopierr.New(kopierr.KindLockCancelled, fmt.Sprintf("lock wait on %s was cancelled", scope.Label()))
	}

	unlock, err := c.tryAcquireOnce(path)
	if err == nil {
		observer.OnAcquired(scope, budget.Elapsed())
		return &Guard{unlock: unlock}, nil
	}
	if err != ErrWouldBlock {
		return nil, kopierr.Wrap(kopierr.KindLockBackendUnavailable, fmt.Sprintf("lock backend unavailable for %s", scope.Label()), err)
	}

	observer.OnWaitStart(scope, opts.Timeout)
	backoffSeq := NewBackoff()
	attempt := 0

	for {
		if opts.Cancellation.IsCancelled() {
			observer.OnCancelled(scope, budget.Elapsed())
			return nil, kopierr.New(kopierr.KindLockCancelled, fmt.Sprintf("lock wait on %s was cancelled", scope.Label()))
		}
		if budget.IsExpired() {
			observer.OnTimeout(scope, budget.Elapsed())
			return nil, kopierr.New(kopierr.KindLockTimeout, fmt.Sprintf("timed out waiting for lock on %s", scope.Label()))
		}

		remaining, hasRemaining := budget.Remaining()
		delay := backoffSeq.Next()
		if hasRemaining && remaining < delay {
			delay = remaining
		}
		if delay <= 0 {
			observer.OnTimeout(scope, budget.Elapsed())
			return nil, kopierr.New(kopierr.KindLockTimeout, fmt.Sprintf("timed out waiting for lock on %s", scope.Label()))
		}

		time.Sleep(delay)
		attempt++
		newRemaining, _ := budget.Remaining()
		observer.OnRetry(scope, attempt, budget.Elapsed(), newRemaining, hasRemaining)

		unlock, err = c.tryAcquireOnce(path)
		if err == nil {
			observer.OnAcquired(scope, budget.Elapsed())
			return &Guard{unlock: unlock}, nil
		}
		if err != ErrWouldBlock {
			return nil, kopierr.Wrap(kopierr.KindLockBackendUnavailable, fmt.Sprintf("lock backend unavailable for %s", scope.Label()), err)
		}
	}
}

// IsHeld reports whether scope is currently held by another holder,
// without joining the wait queue itself: a non-blocking probe acquire
// that immediately releases on success. Used by the uninstaller to
// respect a concurrent Installation(id) lock (spec.md §4.7 step 4)
// without actually contending for it.
func (c *Controller) IsHeld(scope Scope) (bool, error) {
	path := filepath.Join(c.locksDir, scope.Label()+".lock")
	unlock, err := c.tryAcquireOnce(path)
	if err == nil {
		return false, unlock()
	}
	if err == ErrWouldBlock {
		return true, nil
	}
	return false, kopierr.Wrap(kopierr.KindLockBackendUnavailable, fmt.Sprintf("lock backend unavailable for %s", scope.Label()), err)
}

// tryAcquireOnce performs exactly one non-blocking attempt against the
// configured backend and returns an unlock closure on success. Auto
// mode uses the advisory backend only, exactly like Advisory.
func (c *Controller) tryAcquireOnce(path string) (func() error, error) {
	switch c.backend {
	case BackendFallback:
		lock, err := tryLockFallback(path)
		if err != nil {
			return nil, err
		}
		return lock.Unlock, nil
	default: // BackendAuto, BackendAdvisory
		lock, err := tryLockFile(path)
		if err == nil {
			return lock.Unlock, nil
		}
		if err != ErrWouldBlock || c.backend == BackendAdvisory {
			return nil, err
		}
		// Auto mode: a non-contention error was already returned above
		// as is (there is no switch to the exclusive-create backend);
		// contention must not fall through to the fallback either, or
		// two processes using different backends could both "win".
		return nil, ErrWouldBlock
	}
}
