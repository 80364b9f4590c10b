package health

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/netdata/health-engine/types"
)

// EventLog is the append-only, bounded, RW-locked store of a host's
// alarm events (spec.md §3, Event log (L); component C6).
//
// health.c represents this as an intrusive singly-linked list with
// shared-ownership `next` pointers walked by both the log and the
// dispatcher concurrently. Per spec.md §9 Design Notes, this is
// re-architected as a slice-backed deque with single ownership by
// EventLog: Scan hands its callback borrowed pointers to events the
// log still owns, under the read lock.
type EventLog struct {
	mtx sync.RWMutex

	// events is ordered newest-first, matching the C list's head
	// insertion order (invariant I1).
	events []*types.Event
	max    int

	nextUniqueID atomic.Uint64
}

// NewEventLog returns an EventLog retaining at most max events before
// a trim is triggered.
func NewEventLog(max int) *EventLog {
	return &EventLog{max: max}
}

// Append prepends event under the write lock, assigning it the next
// host-monotonic unique ID (spec.md §4.7 append; invariant I1/P1).
func (l *EventLog) Append(event *types.Event) uint64 {
	id := l.nextUniqueID.Inc()
	event.UniqueID = id

	l.mtx.Lock()
	l.events = append([]*types.Event{event}, l.events...)
	l.mtx.Unlock()

	return id
}

// Count returns the number of retained events.
func (l *EventLog) Count() int {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return len(l.events)
}

// Head returns the most recently appended event's unique ID, or 0 if
// the log is empty (spec.md §4.8 step 1: "first_waiting = head.unique_id or 0").
func (l *EventLog) Head() uint64 {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	if len(l.events) == 0 {
		return 0
	}
	return l.events[0].UniqueID
}

// Scan walks events from the head while unique_id >= sinceID, holding
// the read lock for the duration of fn's calls (spec.md §4.7
// scan_unprocessed). fn returning false stops the scan early. Scan
// must not call back into EventLog (Append/Trim would deadlock on the
// held read lock).
func (l *EventLog) Scan(sinceID uint64, fn func(e *types.Event) bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	for _, e := range l.events {
		if e.UniqueID < sinceID {
			break
		}
		if !fn(e) {
			return
		}
	}
}

// ScanOlderThan walks events strictly older than uniqueID (in
// newest-first order among that subset), equivalent to health.c's
// `for(t = ae->next; t; t = t->next)` dedup scan in
// health_alarm_execute. fn returning false stops the scan early.
func (l *EventLog) ScanOlderThan(uniqueID uint64, fn func(e *types.Event) bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	for _, e := range l.events {
		if e.UniqueID >= uniqueID {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// Trim drops the oldest entries down to max*2/3 once Count() exceeds
// max (spec.md §4.7 trim; invariant P3). Unlike health.c's trim loop
// — which frees each detached entry twice and double-decrements count
// for non-repeating entries (spec.md §9 Design Notes, the documented
// source bug) — Trim here simply reslices: each discarded *Event is
// dropped from the single owning slice exactly once.
func (l *EventLog) Trim() {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if len(l.events) <= l.max {
		return
	}

	keep := l.max * 2 / 3
	if keep > len(l.events) {
		keep = len(l.events)
	}
	l.events = l.events[:keep]
}

// MarkUpdatedAllExceptRemoved sets the Updated flag on every event
// whose status is not Removed, suppressing their notification on the
// next dispatch pass (spec.md §4.7, used by the reload coordinator
// C10).
func (l *EventLog) MarkUpdatedAllExceptRemoved() {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	for _, e := range l.events {
		if e.NewStatus != types.StatusRemoved {
			e.Flags |= types.EventUpdated
		}
	}
}
