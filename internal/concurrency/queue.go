// File: internal/concurrency/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FIFO task queue with per-task thread affinity, backed by eapache/queue.
// PopFor mirrors the scan-for-affinity loop of the original scheduler run
// loop: it walks the queue from the front, skipping tasks pinned to a
// different thread, and returns the first task this thread may run.

package concurrency

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/lzz233/coroutine-lib/api"
)

type taskQueue struct {
	mu sync.Mutex
	q  *queue.Queue
}

func newTaskQueue() *taskQueue {
	return &taskQueue{q: queue.New()}
}

// Push appends t and reports whether the queue was empty beforehand, which
// callers use to decide whether a Tickle is needed.
func (tq *taskQueue) Push(t api.Task) (wasEmpty bool) {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	wasEmpty = tq.q.Length() == 0
	tq.q.Add(t)
	return wasEmpty
}

// PopFor removes and returns the first task runnable on threadID (preferred
// thread -1 or equal to threadID). ok is false if no such task exists.
// skipped reports whether any task was passed over because it is pinned to
// another thread, or whether tasks remain behind the one returned, i.e.
// the queue still needs another thread tickled.
func (tq *taskQueue) PopFor(threadID int) (t api.Task, ok bool, skipped bool) {
	tq.mu.Lock()
	defer tq.mu.Unlock()

	n := tq.q.Length()
	var matchIdx = -1
	for i := 0; i < n; i++ {
		cand := tq.q.Get(i).(api.Task)
		if cand.PreferredThread != -1 && cand.PreferredThread != threadID {
			skipped = true
			continue
		}
		matchIdx = i
		break
	}
	if matchIdx == -1 {
		return api.Task{}, false, skipped
	}

	// Rebuild the queue without the matched element, preserving order.
	// The queue is typically short (bounded by in-flight scheduling), so
	// an O(n) rebuild matches the original's linked-list erase cost.
	t = tq.q.Get(matchIdx).(api.Task)
	rest := make([]api.Task, 0, n-1)
	for i := 0; i < n; i++ {
		if i == matchIdx {
			continue
		}
		rest = append(rest, tq.q.Get(i).(api.Task))
	}
	tq.q = queue.New()
	for _, r := range rest {
		tq.q.Add(r)
	}
	skipped = skipped || matchIdx < n-1
	return t, true, skipped
}

func (tq *taskQueue) Len() int {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	return tq.q.Length()
}
