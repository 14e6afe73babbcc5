// File: coro/coroutine.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stackful cooperative coroutines. Go gives us no swapcontext, so each
// Coroutine is backed by a dedicated goroutine; Resume and Yield hand
// control back and forth over a pair of unbuffered channels instead of
// swapping a ucontext_t. The handshake is still strictly synchronous:
// Resume blocks until the coroutine yields or returns, exactly like the
// original resume()/yield() pair.

package coro

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// State mirrors the original Fiber::State enum.
type State int

const (
	Ready State = iota
	Running
	Term
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Term:
		return "term"
	default:
		return "unknown"
	}
}

var nextID uint64

// DefaultStackSize is used by New when stackSize <= 0, mirroring the
// original's 128000-byte default child coroutine stack. A Coroutine is
// backed by a goroutine, whose stack the Go runtime grows and shrinks on
// its own, so this value does not bound anything; it is kept so New's
// signature and Coroutine.StackSize stay meaningful for callers and
// metrics ported from a stack_size-aware caller.
const DefaultStackSize = 128000

// Coroutine is a single cooperative unit of execution.
type Coroutine struct {
	id             uint64
	runInScheduler bool
	stackSize      int

	mu      sync.Mutex
	state   State
	fn      func()
	started bool

	resumeCh chan struct{}
	yieldCh  chan struct{}
}

// New creates a coroutine in the Ready state. stackSize mirrors the
// original's create(callable, stack_size, runs_under_scheduler); a value
// <= 0 is replaced by DefaultStackSize. runInScheduler picks which GLS
// slot this coroutine registers itself into on its own backing goroutine
// once it starts running (scheduler coroutine if true, main coroutine
// otherwise), and which slot Yield asserts still holds it before
// suspending, the same way the original's yield() asserted it was
// swapping against the thread's expected partner fiber.
func New(fn func(), stackSize int, runInScheduler bool) *Coroutine {
	if stackSize <= 0 {
		stackSize = DefaultStackSize
	}
	return &Coroutine{
		id:             atomic.AddUint64(&nextID, 1),
		runInScheduler: runInScheduler,
		stackSize:      stackSize,
		fn:             fn,
		state:          Ready,
		resumeCh:       make(chan struct{}),
		yieldCh:        make(chan struct{}),
	}
}

// ID returns the coroutine's unique identifier.
func (c *Coroutine) ID() uint64 { return c.id }

// StackSize returns the stack-size hint this coroutine was created
// with. It has no bearing on the goroutine backing the coroutine.
func (c *Coroutine) StackSize() int { return c.stackSize }

// State returns the coroutine's current lifecycle state.
func (c *Coroutine) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Main returns the coroutine representing the calling goroutine's own
// stack, creating it on first use. It mirrors Fiber::GetThis(): the
// first call on any goroutine establishes that goroutine's main
// coroutine and, by default, its scheduler coroutine too.
func Main() *Coroutine {
	if c := Current(); c != nil {
		return c
	}
	main := &Coroutine{
		id:    atomic.AddUint64(&nextID, 1),
		state: Running,
	}
	setCurrent(main)
	setMainCoroutine(main)
	SetSchedulerCoroutine(main)
	return main
}

// Resume transfers control to c. It blocks until c yields or terminates.
// c must be in the Ready state.
func (c *Coroutine) Resume() error {
	c.mu.Lock()
	if c.state != Ready {
		c.mu.Unlock()
		return fmt.Errorf("coro: Resume on coroutine %d in state %s", c.id, c.state)
	}
	c.state = Running
	started := c.started
	c.started = true
	c.mu.Unlock()

	prev := Current()
	setCurrent(c)

	if !started {
		go c.run()
	} else {
		c.resumeCh <- struct{}{}
	}
	<-c.yieldCh

	setCurrent(prev)
	return nil
}

// run is the coroutine's entry trampoline, the Go analogue of
// Fiber::MainFunc: it establishes this goroutine's GLS "current" pointer,
// registers c as this goroutine's scheduler or main coroutine (the
// registration has to happen here rather than in Resume, since Resume
// runs on the resumer's goroutine while Yield later runs on this one),
// runs the user function to completion, marks the coroutine TERM, drops
// this goroutine's GLS slot and notifies OnTerminate listeners, and hands
// control back without ever being resumed again.
func (c *Coroutine) run() {
	setCurrent(c)
	if c.runInScheduler {
		SetSchedulerCoroutine(c)
	} else {
		setMainCoroutine(c)
	}
	c.fn()

	c.mu.Lock()
	c.fn = nil
	c.state = Term
	c.mu.Unlock()

	gid := goroutineID()
	dropSlot(gid)
	runTerminateHooks(gid)

	c.yieldCh <- struct{}{}
}

// Yield suspends the calling coroutine, handing control back to whichever
// goroutine is blocked in Resume. It is a package function, not a method,
// because the original's yield() always acts on "the fiber currently
// running on this thread" rather than an explicit receiver.
func Yield() {
	c := Current()
	if c == nil {
		return
	}
	if c.runInScheduler {
		if got := schedulerCoroutine(); got != c {
			panic(fmt.Sprintf("coro: Yield on coroutine %d but this goroutine's scheduler coroutine is %s", c.id, idString(got)))
		}
	} else {
		if got := mainCoroutine(); got != c {
			panic(fmt.Sprintf("coro: Yield on coroutine %d but this goroutine's main coroutine is %s", c.id, idString(got)))
		}
	}
	c.mu.Lock()
	if c.state != Term {
		c.state = Ready
	}
	c.mu.Unlock()

	c.yieldCh <- struct{}{}
	<-c.resumeCh
}

func idString(c *Coroutine) string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%d", c.id)
}

// Reset reuses a TERM coroutine for a new function, avoiding another
// goroutine spawn on the next Resume only in the sense that callers reuse
// the same Coroutine value; the underlying goroutine, having already
// returned, is re-created on the next Resume.
func (c *Coroutine) Reset(fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Term {
		return fmt.Errorf("coro: Reset on coroutine %d in state %s, want %s", c.id, c.state, Term)
	}
	c.fn = fn
	c.state = Ready
	c.started = false
	c.resumeCh = make(chan struct{})
	c.yieldCh = make(chan struct{})
	return nil
}
