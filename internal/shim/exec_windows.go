//go:build windows

package shim

// syscallExec is unreachable on Windows: Exec's runtime.GOOS branch
// always takes the spawn-and-propagate path there, since Windows has no
// execve(2) equivalent that replaces the calling process image.
func syscallExec(path string, argv, envv []string) error {
	panic("shim: syscallExec is unavailable on windows; Exec should have spawned instead")
}
