package common

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DefaultDebounceDelay is the quiet period used when callers have no better value.
const DefaultDebounceDelay = 300 * time.Millisecond

type debounceOptions struct {
	clock clock.WithDelayedExecution
}

// DebounceOption configures a Debouncer or KeyedDebouncer.
type DebounceOption func(*debounceOptions)

// WithClock schedules timers on c instead of the wall clock.
func WithClock(c clock.WithDelayedExecution) DebounceOption {
	return func(o *debounceOptions) {
		o.clock = c
	}
}

func newDebounceOptions(opts []DebounceOption) debounceOptions {
	o := debounceOptions{clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Debouncer holds at most one pending call. Each Call cancels the pending one
// and schedules fn after delay, so a burst of calls runs only the last fn.
type Debouncer struct {
	delay time.Duration
	clock clock.WithDelayedExecution

	mu    sync.Mutex
	timer clock.Timer
	gen   uint64 // callback only fires if gen still matches
}

// NewDebouncer creates an idle debouncer. Negative delays are treated as zero;
// a zero delay still runs fn on the clock's goroutine, never inside Call.
func NewDebouncer(delay time.Duration, opts ...DebounceOption) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	o := newDebounceOptions(opts)
	return &Debouncer{delay: delay, clock: o.clock}
}

// Call schedules fn to run after the delay, replacing any pending call.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen

	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		fn()
	})
}

// Stop drops the pending call, if any. It reports whether a call was dropped.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// Pending reports whether a call is scheduled and has not started yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Debounce wraps fn so that rapid calls collapse into one delayed call made
// with the last argument. Pass a struct as T to forward several values.
func Debounce[T any](fn func(T), delay time.Duration, opts ...DebounceOption) func(T) {
	d := NewDebouncer(delay, opts...)
	return func(arg T) {
		d.Call(func() { fn(arg) })
	}
}

// KeyedDebouncer coalesces rapid calls on the same key into a single callback.
// Keys are independent: a call on one key never cancels another key's call.
type KeyedDebouncer struct {
	delay time.Duration
	clock clock.WithDelayedExecution

	mu    sync.Mutex
	state map[string]*Debouncer
}

func NewKeyedDebouncer(delay time.Duration, opts ...DebounceOption) *KeyedDebouncer {
	if delay < 0 {
		delay = 0
	}
	o := newDebounceOptions(opts)
	return &KeyedDebouncer{
		delay: delay,
		clock: o.clock,
		state: make(map[string]*Debouncer),
	}
}

// Call schedules fn to run after delay. If called again with the same key
// before the delay expires, the timer resets and only the latest fn fires.
func (k *KeyedDebouncer) Call(key string, fn func()) {
	k.mu.Lock()
	defer k.mu.Unlock()

	d, ok := k.state[key]
	if !ok {
		d = NewDebouncer(k.delay, WithClock(k.clock))
		k.state[key] = d
	}

	d.Call(func() {
		k.mu.Lock()
		if cur, ok := k.state[key]; ok && cur == d && !d.Pending() {
			delete(k.state, key)
		}
		k.mu.Unlock()
		fn()
	})
}

// Pending returns the number of keys with a scheduled call.
func (k *KeyedDebouncer) Pending() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	n := 0
	for _, d := range k.state {
		if d.Pending() {
			n++
		}
	}
	return n
}

// Stop drops every pending call.
func (k *KeyedDebouncer) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()

	for key, d := range k.state {
		d.Stop()
		delete(k.state, key)
	}
}
