//go:build !windows

package shim

import "golang.org/x/sys/unix"

// syscallExec replaces the current process image via execve(2), the
// genuine exec-replace spec.md §4.6 step 7 requires: no child process,
// no fork, the shim's own PID becomes the tool.
func syscallExec(path string, argv, envv []string) error {
	return unix.Exec(path, argv, envv)
}
