package kopierr

import "fmt"

// Context attaches a user-facing suggestion and an optional detail line
// to an *Error, the way spec.md §7 requires: only the top-level command
// handlers attach suggestions, the core packages never do.
type Context struct {
	Err        *Error
	Suggestion string
	Detail     string
}

// NewContext derives the default suggestion/detail pair for err's Kind,
// grounded in the original implementation's ErrorContext::new match arm
// by arm.
func NewContext(err *Error) Context {
	ctx := Context{Err: err}
	switch err.Kind {
	case KindVersionNotAvailable:
		ctx.Suggestion = "Run 'kopi cache search' to see available versions or 'kopi cache refresh' to update the list."
		ctx.Detail = fmt.Sprintf("Version lookup failed: %s", err.Message)
	case KindInvalidArgument:
		ctx.Suggestion = "Version format should be '<version>' or '<distribution>@<version>' (e.g. '21' or 'corretto@17')."
	case KindJdkNotInstalled:
		ctx.Suggestion = fmt.Sprintf("Run 'kopi install %s' to install this JDK.", err.Message)
	case KindNetwork:
		ctx.Suggestion = "Check your internet connection and proxy settings, then try 'kopi cache refresh'."
		ctx.Detail = fmt.Sprintf("Network issue: %s", err.Message)
	case KindChecksumMismatch:
		ctx.Suggestion = "Try downloading again. If the problem persists the file may be corrupted at the source."
		ctx.Detail = "The downloaded file's checksum does not match the expected value."
	case KindPermissionDenied:
		ctx.Suggestion = fmt.Sprintf("Ensure you have write permissions to: %s", err.Message)
	case KindDiskSpace:
		ctx.Suggestion = "Free up disk space and try again. JDK installations typically require 300-500MB."
		ctx.Detail = fmt.Sprintf("Disk space issue: %s", err.Message)
	case KindAlreadyExists:
		ctx.Suggestion = "Use --force to overwrite the existing installation."
		ctx.Detail = err.Message
	case KindCacheNotFound:
		ctx.Suggestion = "Run 'kopi cache refresh' to fetch the latest JDK metadata."
		ctx.Detail = "No cached metadata found."
	case KindCacheCorrupted:
		ctx.Suggestion = "Run 'kopi cache refresh' to force a clean metadata refresh."
		ctx.Detail = fmt.Sprintf("Cache file could not be parsed: %s", err.Message)
	case KindLockTimeout:
		ctx.Suggestion = "Another kopi process is holding this lock. Retry, or raise --lock-timeout / KOPI_LOCK_TIMEOUT."
	case KindLockCancelled:
		ctx.Suggestion = "The wait for this lock was cancelled."
	case KindLockBackendUnavailable:
		ctx.Suggestion = "The lock file could not be accessed; check permissions on <kopi_home>/locks."
	case KindToolNotFound:
		ctx.Suggestion = "This JDK does not ship that tool. Run 'kopi list' to see what's installed."
	case KindNoLocalVersion:
		ctx.Suggestion = "Set KOPI_JAVA_VERSION, add a .kopi-version file, or run 'kopi global <version>'."
	case KindSecurity:
		ctx.Suggestion = "Refusing to proceed: the input failed a safety check."
	}
	return ctx
}

func (c Context) WithSuggestion(s string) Context {
	c.Suggestion = s
	return c
}

func (c Context) WithDetail(d string) Context {
	c.Detail = d
	return c
}

// Render formats the three-part user-visible failure block spec.md §7
// describes: summary, optional detail, optional suggestion.
func (c Context) Render() string {
	out := c.Err.Message
	if c.Detail != "" {
		out += "\n  " + c.Detail
	}
	if c.Suggestion != "" {
		out += "\n  hint: " + c.Suggestion
	}
	return out
}

// JSON builds the { error, message, hints } object spec.md §7's
// --json mode emits to stdout.
func (c Context) JSON() map[string]any {
	hints := []string{}
	if c.Suggestion != "" {
		hints = append(hints, c.Suggestion)
	}
	return map[string]any{
		"error":   c.Err.Kind.String(),
		"message": c.Err.Error(),
		"hints":   hints,
	}
}
