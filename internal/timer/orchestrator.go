// Package timer owns the per-room turn deadlines. Each room has at most one
// scheduled callback; arming always replaces whatever was scheduled before.
package timer

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FireFunc is called once a room's deadline passes, with the deadline it was
// armed for. It runs on its own goroutine.
type FireFunc func(roomCode string, deadline time.Time)

type entry struct {
	timer    *time.Timer
	deadline time.Time
	gen      uint64
}

// Orchestrator is the single-slot timer registry, keyed by room code.
type Orchestrator struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextGen uint64
	stopped bool

	fire   FireFunc
	logger *logrus.Logger

	// Now is the clock used to compute delays; tests replace it.
	Now func() time.Time
}

// New returns an orchestrator that calls fire when a room's turn lapses.
func New(fire FireFunc, logger *logrus.Logger) *Orchestrator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Orchestrator{
		entries: make(map[string]*entry),
		fire:    fire,
		logger:  logger,
		Now:     time.Now,
	}
}

// Arm schedules the room's timeout at deadline, cancelling any earlier one.
// Deadlines in the past fire immediately.
func (o *Orchestrator) Arm(roomCode string, deadline time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.armLocked(roomCode, deadline, deadline.Sub(o.Now()))
}

// Retry re-arms a timeout whose handling failed. The callback fires after
// delay but still carries deadline, so the handler can tell it apart from a
// newer turn. Like Arm it replaces whatever is pending for the room.
func (o *Orchestrator) Retry(roomCode string, deadline time.Time, delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.armLocked(roomCode, deadline, delay)
}

// armLocked assumes o.mu is held.
func (o *Orchestrator) armLocked(roomCode string, deadline time.Time, delay time.Duration) {
	if o.stopped {
		return
	}
	o.disarmLocked(roomCode)

	if delay < 0 {
		delay = 0
	}
	o.nextGen++
	gen := o.nextGen
	e := &entry{deadline: deadline, gen: gen}
	e.timer = time.AfterFunc(delay, func() { o.expire(roomCode, gen) })
	o.entries[roomCode] = e

	o.logger.WithFields(logrus.Fields{
		"room":  roomCode,
		"delay": delay,
	}).Debug("turn timer armed")
}

// Disarm cancels the room's pending timeout, if any.
func (o *Orchestrator) Disarm(roomCode string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.disarmLocked(roomCode)
}

// disarmLocked assumes o.mu is held.
func (o *Orchestrator) disarmLocked(roomCode string) {
	if e, ok := o.entries[roomCode]; ok {
		e.timer.Stop()
		delete(o.entries, roomCode)
	}
}

// Stop disarms every room and refuses further arming. Used on shutdown so no
// callback can resurrect a room after the process stops serving.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for code, e := range o.entries {
		e.timer.Stop()
		delete(o.entries, code)
	}
	o.stopped = true
}

// Armed reports whether a timeout is pending for the room.
func (o *Orchestrator) Armed(roomCode string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.entries[roomCode]
	return ok
}

// Deadline returns the pending deadline for the room.
func (o *Orchestrator) Deadline(roomCode string) (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.entries[roomCode]
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}

// Len is the number of rooms with a pending timeout.
func (o *Orchestrator) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

// expire runs on the timer goroutine. A callback whose entry was replaced or
// removed after it was scheduled is stale and dropped here.
func (o *Orchestrator) expire(roomCode string, gen uint64) {
	o.mu.Lock()
	e, ok := o.entries[roomCode]
	if !ok || e.gen != gen || o.stopped {
		o.mu.Unlock()
		o.logger.WithField("room", roomCode).Debug("stale turn timer ignored")
		return
	}
	delete(o.entries, roomCode)
	deadline := e.deadline
	o.mu.Unlock()

	if o.fire != nil {
		o.fire(roomCode, deadline)
	}
}
