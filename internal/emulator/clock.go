package emulator

import (
	"time"
)

// TickQuantum is the fixed amount of virtual time one tick represents.
// Changing the wall-clock tick interval compresses real time; it never
// changes this quantum, so simulated physics stay identical at any speed.
const TickQuantum = 5 * time.Minute

// VirtualClock is a per-emulator monotonic virtual timestamp, advanced by
// one fixed quantum per tick. It is only touched from the tick goroutine.
type VirtualClock struct {
	now     time.Time
	quantum time.Duration
}

func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start.UTC(), quantum: TickQuantum}
}

// Now returns the current virtual time.
func (c *VirtualClock) Now() time.Time { return c.now }

// Advance moves the clock forward by one quantum and returns the new time.
func (c *VirtualClock) Advance() time.Time {
	c.now = c.now.Add(c.quantum)
	return c.now
}

// QuantumMinutes returns the tick quantum expressed in minutes.
func (c *VirtualClock) QuantumMinutes() float64 {
	return c.quantum.Minutes()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}
