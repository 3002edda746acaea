package activeset

import (
	"sync"
	"time"
)

// DefaultQuietInterval is how long the enabled set must stay unchanged
// before a queued rebuild fires.
const DefaultQuietInterval = 300 * time.Millisecond

// Debouncer coalesces rapid successive toggle events into a single
// rebuild. It holds one pending timer slot: each Trigger cancels the
// previous timer and schedules a new one, so the rebuild runs once
// after a quiet period rather than once per toggle.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	rebuild  func()
	timer    *time.Timer
	closed   bool
}

// NewDebouncer creates a debouncer that calls rebuild after the quiet
// interval. A zero interval uses the default.
func NewDebouncer(interval time.Duration, rebuild func()) *Debouncer {
	if interval <= 0 {
		interval = DefaultQuietInterval
	}
	return &Debouncer{interval: interval, rebuild: rebuild}
}

// Trigger schedules a rebuild, replacing any pending one.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.rebuild)
}

// Close cancels any pending rebuild. Further Triggers are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
