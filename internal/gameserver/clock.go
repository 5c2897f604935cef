package gameserver

import (
	"sync"
	"time"

	"github.com/cory-johannsen/buttonmen/internal/storage"
)

// ActionClock stamps game actions. It returns UTC times at storage precision
// and never returns the same instant twice, so every saved action moves a
// game's version.
type ActionClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewActionClock wraps now. A nil now uses time.Now.
func NewActionClock(now func() time.Time) *ActionClock {
	if now == nil {
		now = time.Now
	}
	return &ActionClock{now: now}
}

// Now returns the next action time.
//
// Postcondition: the result is strictly after every earlier result and has
// no sub-microsecond component.
func (c *ActionClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := storage.Version(c.now())
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
