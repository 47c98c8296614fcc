// Package kopierr implements kopi's error taxonomy: a single error type
// carrying a semantic Kind, the exit code that Kind maps to (spec §6),
// and an optional user-facing suggestion attached by the caller closest
// to the terminal.
package kopierr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the semantic category spec.md §7 defines,
// not by its Go type. Handlers branch on Kind to decide suggestion text
// and exit code; everything else about the error is carried in Message
// and Wrapped.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNoLocalVersion
	KindVersionNotAvailable
	KindJdkNotInstalled
	KindToolNotFound
	KindCacheNotFound
	KindCacheCorrupted
	KindIO
	KindPermissionDenied
	KindDiskSpace
	KindNetwork
	KindChecksumMismatch
	KindLockTimeout
	KindLockCancelled
	KindLockBackendUnavailable
	KindAlreadyExists
	KindSecurity
)

var kindNames = map[Kind]string{
	KindUnknown:                "unknown",
	KindInvalidArgument:        "invalid_argument",
	KindNoLocalVersion:         "no_local_version",
	KindVersionNotAvailable:    "version_not_available",
	KindJdkNotInstalled:        "jdk_not_installed",
	KindToolNotFound:           "tool_not_found",
	KindCacheNotFound:          "cache_not_found",
	KindCacheCorrupted:         "cache_corrupted",
	KindIO:                     "io",
	KindPermissionDenied:       "permission_denied",
	KindDiskSpace:              "disk_space",
	KindNetwork:                "network",
	KindChecksumMismatch:       "checksum_mismatch",
	KindLockTimeout:            "lock_timeout",
	KindLockCancelled:          "lock_cancelled",
	KindLockBackendUnavailable: "lock_backend_unavailable",
	KindAlreadyExists:          "already_exists",
	KindSecurity:               "security",
}

// String names the Kind the way --json mode's "error" field and log
// lines render it; unknown kinds fall back to "unknown".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// exitCodes mirrors spec.md §6's table exactly.
var exitCodes = map[Kind]int{
	KindUnknown:                1,
	KindInvalidArgument:        2,
	KindNoLocalVersion:         3,
	KindJdkNotInstalled:        4,
	KindToolNotFound:           5,
	KindPermissionDenied:       13,
	KindAlreadyExists:          17,
	KindNetwork:                20,
	KindDiskSpace:              28,
	KindVersionNotAvailable:    1,
	KindCacheNotFound:          1,
	KindCacheCorrupted:         1,
	KindIO:                     1,
	KindChecksumMismatch:       1,
	KindLockTimeout:            1,
	KindLockCancelled:          1,
	KindLockBackendUnavailable: 1,
	KindSecurity:               1,
}

// Error is the single error type every kopi operation returns. It wraps
// an optional underlying cause but is itself the value callers match
// on via Kind or errors.As.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Wrapped: cause}
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Wrapped }

// ExitCode returns the process exit code spec.md §6 assigns this error's
// Kind. Unknown kinds fall back to the generic failure code.
func (e *Error) ExitCode() int {
	if code, ok := exitCodes[e.Kind]; ok {
		return code
	}
	return 1
}

// Is allows errors.Is(err, kopierr.New(kind, "")) style matching on Kind
// alone, ignoring Message/Wrapped.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, and
// KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ExitCodeFor computes the exit code for any error, including ones that
// never passed through this package (generic failure).
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.ExitCode()
	}
	return 1
}
