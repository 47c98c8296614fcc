//go:build windows

package locking

import (
	"os"

	"golang.org/x/sys/windows"
)

// platformTryLock implements the primary backend on Windows using
// LockFileEx with LOCKFILE_FAIL_IMMEDIATELY, mirroring the POSIX
// flock(2) semantics through golang.org/x/sys/windows — the same
// module the teacher repo pins for its (Windows-only) registry access,
// generalized here to cross-platform file locking.
func platformTryLock(f *os.File) error {
	var overlapped windows.Overlapped
	const lockAllBytes = ^uint32(0)
	err := windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		lockAllBytes,
		lockAllBytes,
		&overlapped,
	)
	if err == windows.ERROR_LOCK_VIOLATION {
		return ErrWouldBlock
	}
	return err
}

func platformUnlock(f *os.File) error {
	var overlapped windows.Overlapped
	const lockAllBytes = ^uint32(0)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, lockAllBytes, lockAllBytes, &overlapped)
}
