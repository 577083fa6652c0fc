// Package countdown provides a resettable countdown timer.
//
// A Timer counts down a fixed step duration on a background goroutine.
// If the full step elapses without a Reset, the timer signals its
// Notifier (expiry) and keeps counting down again until stopped, so a
// single Timer can back a watchdog or lease that must be refreshed
// periodically. Resetting restarts the countdown; stopping terminates
// the loop.
package countdown

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// ErrAlreadyRunning is returned by Start when the timer is already
// counting down. A second concurrent loop is never spawned.
var ErrAlreadyRunning = errors.New("countdown: timer already running")

// Timer triggers its notifier after a period of inactivity, repeatedly,
// until stopped.
//
// Reset and Stop are requests, not interrupts: the background loop
// observes them at its next wake, so their effect lags by up to one
// step. Callers that need to know the loop has actually exited should
// use Join.
type Timer struct {
	step     time.Duration
	notifier Notifier

	mu             sync.Mutex
	running        bool
	resetRequested bool
	jitter         time.Duration
	sleeper        Sleeper
	done           chan struct{}
	err            error

	expiries atomic.Uint64
}

// New creates a timer that signals notifier every time step elapses
// without a reset. The timer does not start automatically.
func New(step time.Duration, notifier Notifier) *Timer {
	return &Timer{
		step:     step,
		notifier: notifier,
		sleeper:  systemSleeper{},
	}
}

// SetJitter randomizes each countdown: the loop waits step minus a
// random duration below d. Zero (the default) disables jitter; d must
// be less than step. Takes effect from the loop's next iteration.
func (t *Timer) SetJitter(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jitter = d
}

// SetSleeper replaces the sleep primitive used by the background loop.
// Must be called before Start.
func (t *Timer) SetSleeper(s Sleeper) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sleeper = s
}

// Start begins the countdown on a new background goroutine. It returns
// ErrAlreadyRunning if the timer is already counting down. If a
// previous run was stopped but its loop has not yet wound down, Start
// waits for it first (at most one step), so at most one loop is ever
// active per Timer.
func (t *Timer) Start() error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return ErrAlreadyRunning
	}
	prev := t.done
	t.mu.Unlock()

	if prev != nil {
		<-prev
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		// Lost a race with a concurrent Start.
		return ErrAlreadyRunning
	}
	t.running = true
	t.resetRequested = false
	t.err = nil
	done := make(chan struct{})
	t.done = done
	go t.run(done)
	return nil
}

// Reset restarts the countdown from zero elapsed time. The loop
// observes the reset at its next wake, so the restart becomes visible
// within one step. Calling Reset more than once in the same interval
// is the same as calling it once. No-op when the timer is not running.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.resetRequested = true
}

// Stop requests termination of the background loop. It does not block:
// the loop exits at its next wake, within one step. No-op when the
// timer is not running. After Stop, the timer may be started again.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

// Join blocks until the background loop has exited and returns the
// loop's terminal error, if any. Returns nil immediately if the timer
// was never started.
func (t *Timer) Join() error {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Running reports whether the timer is counting down. It turns false
// as soon as Stop is called, possibly before the loop has exited; use
// Join to wait for the loop itself.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Expiries returns how many times this timer has expired.
func (t *Timer) Expiries() uint64 {
	return t.expiries.Load()
}

// run is the background timing loop. It owns done and closes it on
// exit.
func (t *Timer) run(done chan struct{}) {
	defer close(done)
	for {
		wait, sleeper := t.waitDuration()
		sleeper.Sleep(wait)

		t.mu.Lock()
		if !t.running {
			t.mu.Unlock()
			return
		}
		if t.resetRequested {
			t.resetRequested = false
			t.mu.Unlock()
			continue
		}
		t.mu.Unlock()

		// Full step elapsed with no reset and no stop: expiry.
		t.expiries.Add(1)
		if err := t.signal(); err != nil {
			// A timer that can no longer signal must not keep
			// running invisibly.
			t.mu.Lock()
			t.running = false
			t.err = err
			t.mu.Unlock()
			slog.Error("countdown: notifier failed, timer stopped", "error", err)
			return
		}
	}
}

// waitDuration computes the next countdown length: step, shortened by
// a random amount below jitter when jitter is set.
func (t *Timer) waitDuration() (time.Duration, Sleeper) {
	t.mu.Lock()
	jitter, sleeper := t.jitter, t.sleeper
	t.mu.Unlock()
	if jitter <= 0 {
		return t.step, sleeper
	}
	return t.step - time.Duration(rand.Int63n(int64(jitter))), sleeper
}

// signal notifies the waiters. The notifier is caller-supplied code, so
// a panic from it is recovered and reported as the loop's terminal
// error rather than crashing the process.
func (t *Timer) signal() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()
	t.notifier.Broadcast()
	return nil
}
