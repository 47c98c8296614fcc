package locking

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// fallbackPayload is written into a fallback lock file so a later
// process can tell whether the holder is still alive (spec.md §4.3:
// "Stale fallback locks are detectable by absent PID").
type fallbackPayload struct {
	PID      int       `json:"pid"`
	Host     string    `json:"host"`
	Acquired time.Time `json:"acquired"`
}

// fallbackLock is the exclusive-create backend used when advisory
// locking is unavailable (configured mode, or an incompatible
// filesystem such as some network mounts).
type fallbackLock struct {
	path string
}

// StaleGracePeriod is how long a fallback lock is honored after its
// payload's Acquired timestamp before a later acquirer is allowed to
// reclaim it as stale, absent a live PID check (PID liveness checks are
// inherently racy across machines sharing a network filesystem, so a
// grace period is the only portable signal).
var StaleGracePeriod = 2 * time.Minute

func tryLockFallback(path string) (*fallbackLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			if reclaimed := reclaimStaleFallback(path); reclaimed {
				return tryLockFallback(path)
			}
			return nil, ErrWouldBlock
		}
		return nil, fmt.Errorf("locking: create %s: %w", path, err)
	}
	defer f.Close()

	payload := fallbackPayload{PID: os.Getpid(), Host: hostname(), Acquired: time.Now()}
	enc := json.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("locking: write fallback payload: %w", err)
	}
	return &fallbackLock{path: path}, nil
}

func (l *fallbackLock) Unlock() error {
	return os.Remove(l.path)
}

// reclaimStaleFallback removes a fallback lock file whose payload is
// missing/unparseable (absent PID, per spec.md §4.3) or older than
// StaleGracePeriod, and reports whether it did so.
func reclaimStaleFallback(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var payload fallbackPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.PID == 0 {
		return os.Remove(path) == nil
	}
	if time.Since(payload.Acquired) > StaleGracePeriod {
		return os.Remove(path) == nil
	}
	return false
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
