package emulator

import (
	"container/heap"
	"time"
)

// timerQueue schedules callbacks at virtual times. Entries fire inside
// the tick loop, after the clock advances, so delayed transitions never
// mutate state from another goroutine.
type timerQueue struct {
	entries timerHeap
}

type timerEntry struct {
	at time.Time
	fn func()
}

func newTimerQueue() *timerQueue {
	return &timerQueue{}
}

// Schedule registers fn to run at the first tick whose virtual time is at
// or past t.
func (q *timerQueue) Schedule(t time.Time, fn func()) {
	heap.Push(&q.entries, timerEntry{at: t, fn: fn})
}

// Fire runs every callback due at virtual time now, in schedule order.
// Returns the number of callbacks fired.
func (q *timerQueue) Fire(now time.Time) int {
	fired := 0
	for q.entries.Len() > 0 && !q.entries[0].at.After(now) {
		e := heap.Pop(&q.entries).(timerEntry)
		e.fn()
		fired++
	}
	return fired
}

// Len returns the number of pending callbacks.
func (q *timerQueue) Len() int { return q.entries.Len() }

type timerHeap []timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(timerEntry)) }

func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
