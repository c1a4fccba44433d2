// Package ptt turns raw hotkey edge events into well-formed recording
// sessions. OS auto-repeat fires key-down many times per physical hold, and
// mechanical release often bounces; the controller debounces both so each
// physical press-and-hold produces exactly one start/stop pair.
package ptt

import (
	"sync"
	"time"
)

// Direction identifies which of the two push-to-talk hotkeys opened a
// session, and therefore which way the utterance is translated.
type Direction int

const (
	// Forward translates from the source language to the target language
	// (the source-language party speaking).
	Forward Direction = iota
	// Reverse translates from the target language back to the source.
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// KeyEvent is a raw keyboard edge, auto-repeat included.
type KeyEvent struct {
	Direction Direction
	Down      bool
}

// Hooks receives session lifecycle transitions. SessionStart returning an
// error (device busy, capture failed) leaves the controller in Idle; the
// implementation is responsible for reporting it. Both hooks are invoked
// with the controller's internal lock held, so they must not call back into
// the controller and must not block.
type Hooks interface {
	SessionStart(dir Direction) error
	SessionStop(dir Direction)
}

// Controller is the push-to-talk state machine. It is safe to call Handle
// from one goroutine while timers fire on another; all state is guarded by
// a single mutex.
type Controller struct {
	hooks    Hooks
	clock    Clock
	debounce time.Duration

	mu        sync.Mutex
	active    bool
	dir       Direction
	pressTime time.Time
	lastEdge  time.Time
	stopTimer Timer
}

// DefaultDebounce is the stop-confirmation window. A release is only
// trusted once no edge has been seen for this long.
const DefaultDebounce = 350 * time.Millisecond

func New(hooks Hooks, debounce time.Duration, clock Clock) *Controller {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if clock == nil {
		clock = NewClock()
	}
	return &Controller{hooks: hooks, clock: clock, debounce: debounce}
}

// Active reports whether a session is currently open.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Handle processes one raw edge event.
func (c *Controller) Handle(ev KeyEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()

	if ev.Down {
		if c.active {
			// Auto-repeat or re-press during the stop window: refresh the
			// edge timestamp and treat any pending stop as a continued hold.
			c.lastEdge = now
			if c.stopTimer != nil {
				c.stopTimer.Stop()
				c.stopTimer = nil
			}
			return
		}
		c.active = true
		c.dir = ev.Direction
		c.pressTime = now
		c.lastEdge = now
		if err := c.hooks.SessionStart(ev.Direction); err != nil {
			c.active = false
		}
		return
	}

	// Up edges only matter for the direction that opened the session.
	if !c.active || ev.Direction != c.dir {
		return
	}
	c.lastEdge = now
	c.armStop(c.debounce)
}

// armStop schedules (or replaces) the pending stop timer. mu must be held.
func (c *Controller) armStop(d time.Duration) {
	if c.stopTimer != nil {
		c.stopTimer.Stop()
	}
	c.stopTimer = c.clock.AfterFunc(d, c.stopTimerFired)
}

func (c *Controller) stopTimerFired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active || c.stopTimer == nil {
		// Cancelled by a newer down edge, or the session already closed.
		return
	}

	// Recompute the quiet gap instead of trusting the timer: a bounce edge
	// may have landed after this fire was scheduled, and clock anomalies
	// must never produce a premature stop. Worst case is one extra
	// rescheduling.
	gap := c.clock.Now().Sub(c.lastEdge)
	if gap < c.debounce {
		c.armStop(c.debounce - gap)
		return
	}

	c.active = false
	c.stopTimer = nil
	c.hooks.SessionStop(c.dir)
}
