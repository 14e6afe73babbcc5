// File: api/scheduler.go
// Author: momentics <momentics@gmail.com>
//
// Scheduler and Reactor contracts. Scheduler is the multi-threaded task
// runner (internal/concurrency); Reactor is the epoll-backed event loop
// that layers on top of it (reactor package). Splitting them into
// interfaces here lets ioshim depend on behavior without importing either
// concrete package.

package api

// Hooks lets a Scheduler owner observe and influence the scheduling loop,
// mirroring the virtual tickle()/idle() extension points of the original
// coroutine scheduler.
type Hooks interface {
	// Tickle is invoked whenever a task is queued while every worker may
	// be parked; implementations typically wake a blocked poller.
	Tickle()

	// Idle runs on a worker that found no runnable task. It should block
	// for at most one scheduling quantum and then return so the loop can
	// re-check the queue.
	Idle()
}

// Scheduler runs Tasks across a fixed pool of worker threads, honoring
// per-task thread affinity.
type Scheduler interface {
	GracefulShutdown

	// Start launches the worker threads.
	Start() error

	// Schedule enqueues fn, optionally pinned to a specific worker thread.
	// thread == -1 means any worker may run it.
	Schedule(fn func(), thread int) error

	// Stopping reports whether Shutdown has been requested and all queued
	// and running work has drained.
	Stopping() bool
}

// Reactor multiplexes readiness events for registered file descriptors and
// drives a Scheduler's idle loop from epoll_wait.
type Reactor interface {
	GracefulShutdown

	// AddEvent arms dir on fd; cb runs on the scheduler once fd becomes
	// ready in that direction.
	AddEvent(fd int, dir Direction, cb func()) error

	// DelEvent disarms dir on fd without invoking cb.
	DelEvent(fd int, dir Direction) error

	// CancelEvent disarms dir on fd and schedules cb immediately, as if the
	// event had fired, so waiters observe completion instead of hanging.
	CancelEvent(fd int, dir Direction) bool

	// CancelAll disarms every direction registered for fd.
	CancelAll(fd int) bool

	// Tickle wakes the reactor's idle epoll_wait if a worker may be parked.
	Tickle()
}
