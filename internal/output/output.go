// Package output replaces the teacher's hand-rolled ANSI escape
// constants (internal/utils/colors.go) with fatih/color, the library
// the teacher's own go.mod already carries, and adds table rendering
// for `cache search`/`list` via jedib0t/go-pretty/v6.
//
// Grounded in internal/utils/colors.go's PrintError/PrintSuccess/
// PrintInfo/PrintWarning family: same message categories, same
// "[TAG] message" convention, now backed by a real colorizer instead
// of raw escape codes so NO_COLOR and non-TTY output Just Work.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kopi-vm/kopi/internal/kopierr"
)

var (
	errorColor   = color.New(color.FgHiRed, color.Bold)
	successColor = color.New(color.FgHiGreen)
	infoColor    = color.New(color.FgHiBlue)
	warningColor = color.New(color.FgHiYellow)
	fetchColor   = color.New(color.FgHiCyan)
	sectionColor = color.New(color.Bold, color.FgHiWhite)
)

// Printer writes CLI output to an injected writer, so commands stay
// testable without capturing os.Stdout.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// Default returns a Printer writing to the process's real stdout/stderr.
func Default() *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr}
}

func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.Err, errorColor.Sprint("[ERROR] ")+fmt.Sprintf(format, args...))
}

func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.Out, successColor.Sprint("[OK] ")+fmt.Sprintf(format, args...))
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.Out, infoColor.Sprint("[INFO] ")+fmt.Sprintf(format, args...))
}

func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.Out, warningColor.Sprint("[WARN] ")+fmt.Sprintf(format, args...))
}

func (p *Printer) Fetch(format string, args ...any) {
	fmt.Fprintln(p.Out, fetchColor.Sprint("[FETCH] ")+fmt.Sprintf(format, args...))
}

func (p *Printer) Section(text string) {
	fmt.Fprintln(p.Out, sectionColor.Sprint(text))
}

// ReportError renders a kopierr.Context to Err in the three-part
// shape (message, suggestion, detail), then returns its exit code so
// cmd/kopi's main can os.Exit with it directly.
func (p *Printer) ReportError(ctx kopierr.Context) int {
	fmt.Fprintln(p.Err, errorColor.Sprint("[ERROR] ")+ctx.Err.Error())
	if ctx.Suggestion != "" {
		fmt.Fprintln(p.Err, infoColor.Sprint("  hint: ")+ctx.Suggestion)
	}
	if ctx.Detail != "" {
		fmt.Fprintln(p.Err, color.New(color.Faint).Sprint("  "+ctx.Detail))
	}
	return ctx.Err.ExitCode()
}

// ReportErrorJSON emits ctx as the single { error, message, hints }
// object spec.md §7's --json mode requires, to Out (not Err, so
// scripts consuming --json output don't need to redirect streams),
// returning the same exit code as ReportError.
func (p *Printer) ReportErrorJSON(ctx kopierr.Context) int {
	data, err := json.Marshal(ctx.JSON())
	if err != nil {
		fmt.Fprintln(p.Out, `{"error":"unknown","message":"failed to encode error"}`)
		return ctx.Err.ExitCode()
	}
	fmt.Fprintln(p.Out, string(data))
	return ctx.Err.ExitCode()
}

// Row is one line of a rendered table (a package or installation).
type Row = table.Row

// RenderTable writes a go-pretty table with the given header and rows
// to Out, used by `kopi cache search` and `kopi list`.
func (p *Printer) RenderTable(header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(p.Out)
	t.AppendHeader(header)
	for _, row := range rows {
		t.AppendRow(row)
	}
	t.Render()
}
