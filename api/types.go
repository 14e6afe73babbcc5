// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared vocabulary used across the scheduler, timer and reactor packages.
// Kept in api so those packages can depend on a common set of types without
// importing each other directly.

package api

import "github.com/lzz233/coroutine-lib/coro"

// Direction identifies which side of a file descriptor an event or
// cancellation applies to.
type Direction int

const (
	DirRead Direction = iota
	DirWrite
)

func (d Direction) String() string {
	if d == DirWrite {
		return "write"
	}
	return "read"
}

// Cancelable is returned by a scheduled action so callers can cancel it
// before it fires.
type Cancelable interface {
	Cancel() bool
}

// Task is a unit of work submitted to a Scheduler, mirroring the
// original run loop's FiberOrCb: either a coroutine handle to resume
// directly, or a plain callable the scheduler must wrap in a fresh
// coroutine before resuming so a blocking ioshim call inside it can park.
// Exactly one of Coroutine and Fn should be set. PreferredThread pins the
// task to a specific worker thread index; -1 means any thread.
type Task struct {
	Coroutine       *coro.Coroutine
	Fn              func()
	PreferredThread int
}
