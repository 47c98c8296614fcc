//go:build !windows

package locking

import (
	"os"

	"golang.org/x/sys/unix"
)

// platformTryLock implements the primary backend on POSIX using
// flock(2) via golang.org/x/sys/unix, the same dependency the teacher
// repo already carries (golang.org/x/sys), generalized here from its
// Windows-registry use to a cross-platform advisory file lock.
func platformTryLock(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return ErrWouldBlock
	}
	return err
}

func platformUnlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
