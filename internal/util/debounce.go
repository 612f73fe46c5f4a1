package util

import (
	"sync"
	"time"
)

// Debouncer collapses bursts of Trigger calls into one call of fn, made once
// no Trigger has happened for the configured wait.
type Debouncer struct {
	wait    time.Duration
	fn      func()
	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// Debounce returns a Debouncer for fn.
func Debounce(wait time.Duration, fn func()) *Debouncer {
	return &Debouncer{wait: wait, fn: fn}
}

// Trigger (re)starts the wait.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

// Flush runs fn now if a call is pending.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.timer != nil && d.timer.Stop()
	d.timer = nil
	d.gen++
	d.mu.Unlock()

	if pending {
		d.fn()
	}
}

// Stop cancels any pending call; later Triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}
