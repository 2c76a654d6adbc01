package study

import (
	"time"
)

// Scheduler runs fn every interval until the returned cancel func is
// called. Implementations must invoke fn on the same logical thread that
// issues commands, and must not invoke fn again once cancel has returned.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// ManualScheduler is a Scheduler driven by an explicit virtual clock. It is
// used for tests and for the headless exec mode.
type ManualScheduler struct {
	now     time.Duration
	entries []*manualEntry
}

type manualEntry struct {
	interval  time.Duration
	next      time.Duration
	fn        func()
	cancelled bool
}

// Every implements Scheduler.
func (m *ManualScheduler) Every(interval time.Duration, fn func()) func() {
	if interval <= 0 || fn == nil {
		return func() {}
	}
	e := &manualEntry{interval: interval, next: m.now + interval, fn: fn}
	m.entries = append(m.entries, e)
	return func() { e.cancelled = true }
}

// Advance moves the virtual clock forward by d, firing every due callback
// in time order. Callbacks scheduled for the same instant fire in
// registration order. A non-positive d does nothing.
func (m *ManualScheduler) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	target := m.now + d
	for {
		var due *manualEntry
		for _, e := range m.entries {
			if e.cancelled || e.next > target {
				continue
			}
			if due == nil || e.next < due.next {
				due = e
			}
		}
		if due == nil {
			break
		}
		m.now = due.next
		due.next += due.interval
		due.fn()
	}
	m.now = target

	live := m.entries[:0]
	for _, e := range m.entries {
		if !e.cancelled {
			live = append(live, e)
		}
	}
	clear(m.entries[len(live):])
	m.entries = live
}

// Active returns the number of registered, uncancelled callbacks.
func (m *ManualScheduler) Active() int {
	n := 0
	for _, e := range m.entries {
		if !e.cancelled {
			n++
		}
	}
	return n
}
