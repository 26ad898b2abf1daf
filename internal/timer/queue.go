// Package timer implements the min-heap timer queue that drives all
// periodic activity in the core: the keyspace's sampling sweep and the AOF's
// everysec fsync. It generalizes the key+priority binary heap pattern used
// elsewhere in this codebase's lineage for time-ordered eviction into a
// general-purpose one-shot/repeating callback scheduler.
package timer

import (
	"container/heap"
	"time"
)

// Callback is invoked when a timer fires. It receives the time the timer
// was due to fire (not necessarily wall-clock "now"), so repeating timers
// can compute their next deadline deterministically.
type Callback func(due time.Time)

// Handle identifies a scheduled timer so it can be distinguished from others
// sharing the same deadline. It carries no behavior; callers that need to
// cancel a timer keep the handle returned by Add (cancellation itself is not
// required by this core's use cases and is intentionally not implemented).
type Handle uint64

type timerEntry struct {
	deadline time.Time
	seq      uint64 // insertion order, used to break deadline ties
	handle   Handle
	cb       Callback
	repeat   bool
	interval time.Duration
	index    int // maintained by container/heap
}

// Queue is a min-heap of timers ordered by deadline, with ties broken by
// insertion order. It owns no wakeup source: the event loop computes
// NextDeadline() - now and uses that as its own poll timeout.
type Queue struct {
	entries []*timerEntry
	nextSeq uint64
	nextID  uint64
}

// New returns an empty timer queue.
func New() *Queue {
	q := &Queue{}
	heap.Init(q)
	return q
}

// Len, Less, Swap, Push, Pop implement heap.Interface.
func (q *Queue) Len() int { return len(q.entries) }

func (q *Queue) Less(i, j int) bool {
	if q.entries[i].deadline.Equal(q.entries[j].deadline) {
		return q.entries[i].seq < q.entries[j].seq
	}
	return q.entries[i].deadline.Before(q.entries[j].deadline)
}

func (q *Queue) Swap(i, j int) {
	q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
	q.entries[i].index = i
	q.entries[j].index = j
}

func (q *Queue) Push(x interface{}) {
	e := x.(*timerEntry)
	e.index = len(q.entries)
	q.entries = append(q.entries, e)
}

func (q *Queue) Pop() interface{} {
	old := q.entries
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	q.entries = old[:n-1]
	return e
}

// Add schedules cb to fire after delay. If repeat is true, the timer
// reinserts itself with deadline += interval each time it fires, and
// interval must be positive.
func (q *Queue) Add(delay time.Duration, cb Callback, repeat bool, interval time.Duration) Handle {
	return q.addAt(time.Now().Add(delay), cb, repeat, interval)
}

// AddAt is like Add but takes an absolute deadline; it exists so tests can
// schedule timers against a fixed clock instead of wall time.
func (q *Queue) AddAt(deadline time.Time, cb Callback, repeat bool, interval time.Duration) Handle {
	return q.addAt(deadline, cb, repeat, interval)
}

func (q *Queue) addAt(deadline time.Time, cb Callback, repeat bool, interval time.Duration) Handle {
	if repeat && interval <= 0 {
		panic("timer: repeating timer requires a positive interval")
	}
	q.nextID++
	q.nextSeq++
	e := &timerEntry{
		deadline: deadline,
		seq:      q.nextSeq,
		handle:   Handle(q.nextID),
		cb:       cb,
		repeat:   repeat,
		interval: interval,
	}
	heap.Push(q, e)
	return e.handle
}

// NextDeadline returns the deadline of the earliest pending timer and true,
// or the zero time and false if the queue is empty. The event loop uses
// this to size its poll timeout.
func (q *Queue) NextDeadline() (time.Time, bool) {
	if q.Len() == 0 {
		return time.Time{}, false
	}
	return q.entries[0].deadline, true
}

// ProcessExpired pops every timer with deadline <= now and invokes its
// callback, in deadline order with ties broken by insertion order.
// Repeating timers are reinserted with deadline += interval before their
// callback is invoked, so a repeating timer stays scheduled even if its
// callback panics (the panic propagates to the caller, which owns crash
// semantics).
func (q *Queue) ProcessExpired(now time.Time) {
	for q.Len() > 0 {
		next := q.entries[0]
		if next.deadline.After(now) {
			break
		}
		e := heap.Pop(q).(*timerEntry)
		due := e.deadline
		if e.repeat {
			e.deadline = e.deadline.Add(e.interval)
			heap.Push(q, e)
		}
		e.cb(due)
	}
}
