// File: timer/manager.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Manager keeps timers ordered by absolute deadline in a container/heap
// (the original used a std::set; a binary heap gives the same
// earliest-first ordering with faster insert). OnInsertedAtFront is the
// Go analogue of the virtual onTimerInsertedAtFront() hook the reactor
// overrides to wake its epoll_wait when a newer, earlier deadline
// arrives, grounded on original_source/timer.cpp's addTimer(timer).

package timer

import (
	"container/heap"
	"sync"
	"time"
)

type timerHeap []*Timer

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].next.Before(h[j].next) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Manager owns a set of Timers and reports which have expired.
type Manager struct {
	mu      sync.Mutex
	heap    timerHeap
	tickled bool

	previousTime time.Time
	nowFn        func() time.Time

	// OnInsertedAtFront is called, outside the manager's lock, whenever a
	// newly added timer becomes the earliest-deadline timer in the heap
	// and no other insertion has done so since the last NextTimeout call.
	// The reactor wires this to Tickle().
	OnInsertedAtFront func()
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{nowFn: time.Now, previousTime: time.Now()}
}

func (m *Manager) now() time.Time {
	if m.nowFn != nil {
		return m.nowFn()
	}
	return time.Now()
}

// Add schedules cb to run after ms, once or repeatedly.
func (m *Manager) Add(ms time.Duration, cb func(), recurring bool) *Timer {
	t := &Timer{
		ms:        ms,
		cb:        cb,
		recurring: recurring,
		manager:   m,
		index:     -1,
	}
	t.next = m.now().Add(ms)
	m.addTimer(t)
	return t
}

// AddCondition schedules cb like Add, but cb only runs if guard is still
// alive when the timer fires. This replaces the original's
// std::weak_ptr<void> condition with a liveness token, since Go has no
// stable non-experimental weak reference in this module's dependency
// set (see DESIGN.md).
func (m *Manager) AddCondition(ms time.Duration, cb func(), guard *Guard, recurring bool) *Timer {
	return m.Add(ms, func() {
		if guard.Alive() {
			cb()
		}
	}, recurring)
}

func (m *Manager) addTimer(t *Timer) {
	m.mu.Lock()
	heap.Push(&m.heap, t)
	atFront := m.heap[0] == t && !m.tickled
	if atFront {
		m.tickled = true
	}
	m.mu.Unlock()

	if atFront && m.OnInsertedAtFront != nil {
		m.OnInsertedAtFront()
	}
}

// removeLocked removes t from the heap. Callers must hold m.mu and
// t.index must still be valid.
func (m *Manager) removeLocked(t *Timer) {
	if t.index < 0 || t.index >= len(m.heap) || m.heap[t.index] != t {
		return
	}
	heap.Remove(&m.heap, t.index)
}

func (m *Manager) indexOfLocked(t *Timer) int {
	if t.index < 0 || t.index >= len(m.heap) || m.heap[t.index] != t {
		return -1
	}
	return t.index
}

func (m *Manager) pushLocked(t *Timer) {
	heap.Push(&m.heap, t)
}

// NextTimeout returns the duration until the earliest timer fires, zero
// if one has already expired, and -1 if the heap is empty. It resets the
// front-insertion de-dup flag, matching getNextTimer's "reset m_tickled".
func (m *Manager) NextTimeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickled = false

	if len(m.heap) == 0 {
		return -1
	}
	now := m.now()
	next := m.heap[0].next
	if !now.Before(next) {
		return 0
	}
	return next.Sub(now)
}

// HasTimer reports whether any timer is pending.
func (m *Manager) HasTimer() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.heap) > 0
}

// Len reports how many timers are currently pending, for metrics probes.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.heap)
}

// DrainExpired removes and returns the callbacks of every timer that has
// fired, re-arming recurring ones. A clock rollback of more than an hour
// forces every pending timer to be treated as expired, matching
// detectClockRollover.
func (m *Manager) DrainExpired() []func() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	rollover := now.Before(m.previousTime.Add(-time.Hour))
	m.previousTime = now

	var cbs []func()
	for len(m.heap) > 0 && (rollover || !m.heap[0].next.After(now)) {
		t := heap.Pop(&m.heap).(*Timer)
		t.mu.Lock()
		cb := t.cb
		if cb != nil {
			cbs = append(cbs, cb)
		}
		if t.recurring && cb != nil {
			t.next = now.Add(t.ms)
			t.mu.Unlock()
			heap.Push(&m.heap, t)
			continue
		}
		t.cb = nil
		t.mu.Unlock()
	}
	return cbs
}
