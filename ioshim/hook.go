// File: ioshim/hook.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-goroutine "hooks enabled" flag and reactor binding, the Go
// analogue of original_source/hook.cpp's thread_local t_hook_enable and
// IOManager::GetThis(). Each worker goroutine (pinned to an OS thread by
// concurrency.WorkerThread) and each coroutine's own backing goroutine
// gets an independent slot, matching the original's "per OS thread"
// granularity as closely as Go's goroutine-per-coroutine model allows.

package ioshim

import (
	"sync"

	"github.com/lzz233/coroutine-lib/coro"
	"github.com/lzz233/coroutine-lib/internal/concurrency"
	"github.com/lzz233/coroutine-lib/reactor"
)

type threadState struct {
	enabled bool
	reactor *reactor.Reactor
}

var (
	mu     sync.Mutex
	states = map[uint64]*threadState{}
)

func init() {
	// A coroutine-per-connection workload (ioshim.Spawn per accepted
	// socket) would otherwise leak one states entry per connection for
	// the life of the process, since nothing ever called SetHookEnabled
	// or BindReactor again for that goroutine once its coroutine
	// terminated.
	coro.OnTerminate(func(gid uint64) {
		mu.Lock()
		delete(states, gid)
		mu.Unlock()
	})
}

func stateFor(gid uint64) *threadState {
	mu.Lock()
	defer mu.Unlock()
	s, ok := states[gid]
	if !ok {
		s = &threadState{}
		states[gid] = s
	}
	return s
}

func lookupState(gid uint64) (*threadState, bool) {
	mu.Lock()
	defer mu.Unlock()
	s, ok := states[gid]
	return s, ok
}

// IsHookEnabled reports whether the calling goroutine opted into the
// shims, mirroring sylar::is_hook_enable().
func IsHookEnabled() bool {
	s, ok := lookupState(coro.GoroutineID())
	return ok && s.enabled
}

// SetHookEnabled turns shimmed behavior on or off for the calling
// goroutine. It defaults to false; enabling it is the caller's
// responsibility, exactly like sylar::set_hook_enable.
func SetHookEnabled(v bool) {
	stateFor(coro.GoroutineID()).enabled = v
}

// BindReactor associates r as the calling goroutine's reactor, the Go
// analogue of IOManager::GetThis() returning the thread's own scheduler.
// A coroutine spawned with Spawn gets this called automatically before
// its body runs.
func BindReactor(r *reactor.Reactor) {
	stateFor(coro.GoroutineID()).reactor = r
}

// ActiveReactor returns the reactor bound to the calling goroutine, or
// nil if none was bound.
func ActiveReactor() *reactor.Reactor {
	s, ok := lookupState(coro.GoroutineID())
	if !ok {
		return nil
	}
	return s.reactor
}

// NewReactor builds a reactor.Reactor the way Spawn expects to be used
// against: every plain Schedule/AddEvent callback the fused scheduler
// has to auto-wrap in a coroutine (because the caller never went through
// Spawn) starts with hooks enabled and this reactor bound too, mirroring
// the original's thread-wide hook_enable, where any fiber run on a
// hook-enabled OS thread got transparent IO for free rather than only
// fibers the caller explicitly spawned. A reactor built with
// reactor.New directly does not get this; only ad hoc coroutines created
// through Spawn on it will see hook-transparent IO.
func NewReactor(cfg concurrency.Config) (*reactor.Reactor, error) {
	r, err := reactor.New(cfg)
	if err != nil {
		return nil, err
	}
	r.SetPrepareTask(func() {
		SetHookEnabled(true)
		BindReactor(r)
	})
	return r, nil
}

// Spawn creates a coroutine that runs fn with hooks enabled and r bound
// as its reactor, then schedules its first resume on r. This is the
// normal way application code gets a coroutine into a state where
// Read/Write/Connect/Sleep below can park it instead of blocking the
// worker thread outright.
func Spawn(r *reactor.Reactor, fn func()) *coro.Coroutine {
	var c *coro.Coroutine
	c = coro.New(func() {
		SetHookEnabled(true)
		BindReactor(r)
		fn()
	}, 0, true)
	r.ScheduleCoroutine(c, -1)
	return c
}
