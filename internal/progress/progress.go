// Package progress abstracts the download/extraction progress feedback
// spec.md's installer and metadata sources emit, with a real TTY
// backend and a silent one so non-interactive runs (CI, shims) never
// probe a terminal that isn't there.
//
// Grounded in the teacher's cmd package, which prints fixed banners and
// spinners directly with fatih/color; generalized into an injectable
// Sink interface so the installer's download step and the HTTP
// metadata source can report progress without importing a UI library
// themselves. The TTY backend is cheggaaa/pb/v3, new to this repo but
// already present in the wider example corpus as the idiomatic choice
// for terminal progress bars in Go CLIs.
package progress

import (
	"io"
	"os"

	"github.com/cheggaaa/pb/v3"
)

// Sink receives progress updates for one unit of work (a download, an
// extraction). total of -1 means unknown/indeterminate size.
type Sink interface {
	Start(label string, total int64)
	Add(n int64)
	Finish()
}

type noopSink struct{}

func (noopSink) Start(string, int64) {}
func (noopSink) Add(int64)           {}
func (noopSink) Finish()             {}

// Noop returns a Sink that discards every update, used whenever stdout
// isn't a TTY or the caller doesn't care (tests, shim fast path).
func Noop() Sink { return noopSink{} }

// barSink wraps a cheggaaa/pb/v3 progress bar.
type barSink struct {
	bar *pb.ProgressBar
}

func (b *barSink) Start(label string, total int64) {
	bar := pb.New64(total)
	bar.Set(pb.Bytes, true)
	bar.SetTemplateString(`{{string . "label"}} {{counters . }} {{bar . }} {{percent . }} {{speed . }}`)
	bar.Set("label", label)
	bar.Start()
	b.bar = bar
}

func (b *barSink) Add(n int64) {
	if b.bar != nil {
		b.bar.Add64(n)
	}
}

func (b *barSink) Finish() {
	if b.bar != nil {
		b.bar.Finish()
	}
}

// TTY returns a real progress bar sink if out is a terminal, or Noop
// otherwise, so callers never need to probe isatty themselves.
func TTY(out *os.File) Sink {
	if out == nil || !isTerminal(out) {
		return Noop()
	}
	return &barSink{}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// NewWriterSink wraps sink in an io.Writer that reports each write's
// byte count to it, for callers that need an io.Writer rather than a Sink,
// such as io.Copy's destination during extraction.
func NewWriterSink(sink Sink) io.Writer {
	return &writerAdapter{sink: sink}
}

type writerAdapter struct {
	sink Sink
}

func (w *writerAdapter) Write(p []byte) (int, error) {
	w.sink.Add(int64(len(p)))
	return len(p), nil
}
