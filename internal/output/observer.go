package output

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/kopi-vm/kopi/internal/locking"
)

// WaitObserver renders lock-contention feedback to a Printer, throttled
// per spec.md §4.3/§9: every 1s on a TTY, every 5s otherwise, never
// when Silent. The controller itself emits every event unthrottled;
// rate-limiting is this observer's own job.
type WaitObserver struct {
	Printer *Printer
	Silent  bool

	interval time.Duration
	lastTick time.Time
	started  bool
}

// NewWaitObserver builds an observer for p, picking the throttle
// interval from whether out looks like a terminal.
func NewWaitObserver(p *Printer, out *os.File, silent bool) *WaitObserver {
	interval := 5 * time.Second
	if out != nil && isatty.IsTerminal(out.Fd()) {
		interval = 1 * time.Second
	}
	return &WaitObserver{Printer: p, Silent: silent, interval: interval}
}

func (o *WaitObserver) OnWaitStart(scope locking.Scope, timeout locking.TimeoutValue) {
	if o.Silent {
		return
	}
	o.Printer.Info("waiting for lock %q (timeout %s)...", scope.Label(), timeout.String())
	o.started = true
	o.lastTick = time.Time{}
}

func (o *WaitObserver) OnRetry(scope locking.Scope, attempt int, elapsed, remaining time.Duration, hasRemaining bool) {
	if o.Silent {
		return
	}
	now := nowFunc()
	if !o.lastTick.IsZero() && now.Sub(o.lastTick) < o.interval {
		return
	}
	o.lastTick = now
	if hasRemaining {
		o.Printer.Info("still waiting for lock %q (elapsed %s, remaining %s)", scope.Label(), elapsed.Round(time.Second), remaining.Round(time.Second))
	} else {
		o.Printer.Info("still waiting for lock %q (elapsed %s)", scope.Label(), elapsed.Round(time.Second))
	}
}

func (o *WaitObserver) OnAcquired(scope locking.Scope, waited time.Duration) {
	if o.Silent || !o.started {
		return
	}
	o.Printer.Info("acquired lock %q after %s", scope.Label(), waited.Round(time.Millisecond))
}

func (o *WaitObserver) OnTimeout(scope locking.Scope, waited time.Duration) {
	if o.Silent {
		return
	}
	o.Printer.Warning("timed out waiting for lock %q after %s", scope.Label(), waited.Round(time.Second))
}

func (o *WaitObserver) OnCancelled(scope locking.Scope, waited time.Duration) {
	if o.Silent {
		return
	}
	o.Printer.Warning("cancelled waiting for lock %q after %s", scope.Label(), waited.Round(time.Second))
}

// nowFunc is a var so tests could swap it; production always uses
// time.Now.
var nowFunc = time.Now
