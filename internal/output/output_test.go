package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kopi-vm/kopi/internal/kopierr"
)

func TestReportErrorReturnsExitCodeAndRendersSuggestion(t *testing.T) {
	var errBuf bytes.Buffer
	p := &Printer{Out: &bytes.Buffer{}, Err: &errBuf}

	err := kopierr.New(kopierr.KindJdkNotInstalled, "temurin@21")
	code := p.ReportError(kopierr.NewContext(err))

	if code != err.ExitCode() {
		t.Fatalf("expected exit code %d, got %d", err.ExitCode(), code)
	}
	if !strings.Contains(errBuf.String(), "kopi install") {
		t.Fatalf("expected suggestion in output, got %q", errBuf.String())
	}
}

func TestRenderTableWritesRows(t *testing.T) {
	var out bytes.Buffer
	p := &Printer{Out: &out, Err: &bytes.Buffer{}}

	p.RenderTable(table.Row{"Distribution", "Version"}, []table.Row{
		{"temurin", "21.0.5+11"},
	})

	if !strings.Contains(out.String(), "temurin") || !strings.Contains(out.String(), "21.0.5+11") {
		t.Fatalf("expected table output to contain row data, got %q", out.String())
	}
}
