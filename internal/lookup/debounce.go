package lookup

import (
	"sync"
	"time"

	"airweather-map/internal/clock"
	"airweather-map/internal/mapview"
)

// Debouncer holds at most one pending Selection and fires it once the window passes with no newer one.
type Debouncer struct {
	clock  clock.Clock
	window time.Duration
	fire   func(mapview.Selection)

	mu      sync.Mutex
	pending *mapview.Selection
	timer   clock.Timer
	gen     uint64
	stopped bool
}

func NewDebouncer(clk clock.Clock, window time.Duration, fire func(mapview.Selection)) *Debouncer {
	if clk == nil {
		clk = clock.Real()
	}
	return &Debouncer{clock: clk, window: window, fire: fire}
}

// Submit replaces the pending Selection and restarts the timer.
func (d *Debouncer) Submit(sel mapview.Selection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = &sel
	d.restartLocked()
}

// Restart re-arms the timer for the current pending Selection, if any.
func (d *Debouncer) Restart() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || d.pending == nil {
		return
	}
	d.restartLocked()
}

func (d *Debouncer) restartLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() { d.flush(gen) })
}

// Pending returns the Selection waiting for the timer.
func (d *Debouncer) Pending() (mapview.Selection, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return mapview.Selection{}, false
	}
	return *d.pending, true
}

// Stop disarms the timer and drops the pending Selection. Later Submits are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) flush(gen uint64) {
	d.mu.Lock()
	// A timer that lost the race with Stop or a restart must not fire.
	if gen != d.gen || d.stopped || d.pending == nil {
		d.mu.Unlock()
		return
	}
	sel := *d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	d.fire(sel)
}
