// File: coro/gls.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Goroutine-local storage. The original scheduler keeps three
// thread_local pointers per OS thread: the running fiber, the thread's
// main fiber, and the thread's scheduler fiber. Go has no per-goroutine
// storage, so this package keys a map by a goroutine id parsed out of
// runtime.Stack, following the gls pattern in
// dispatchrun-coroutine's gls.go but avoiding its unsafe getg() access:
// that reads runtime-internal struct offsets this module cannot verify
// without building and running against a specific Go version.

package coro

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// goroutineID parses the numeric id out of the header line runtime.Stack
// always writes first: "goroutine 123 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

type glsSlot struct {
	current   *Coroutine
	main      *Coroutine
	scheduler *Coroutine
}

var (
	glsMu sync.Mutex
	gls   = map[uint64]*glsSlot{}
)

func slotFor(gid uint64) *glsSlot {
	glsMu.Lock()
	defer glsMu.Unlock()
	s, ok := gls[gid]
	if !ok {
		s = &glsSlot{}
		gls[gid] = s
	}
	return s
}

func dropSlot(gid uint64) {
	glsMu.Lock()
	defer glsMu.Unlock()
	delete(gls, gid)
}

// Current returns the coroutine running on the calling goroutine, or nil
// if none is active.
func Current() *Coroutine {
	return slotFor(goroutineID()).current
}

func setCurrent(c *Coroutine) {
	slotFor(goroutineID()).current = c
}

// SetSchedulerCoroutine designates c as the calling goroutine's scheduler
// coroutine, mirroring Fiber::SetSchedulerFiber. A coroutine created with
// runInScheduler true calls this on itself from run(), on its own
// backing goroutine, so a later Yield on that same goroutine can assert
// it is still suspending the coroutine GLS expects.
func SetSchedulerCoroutine(c *Coroutine) {
	slotFor(goroutineID()).scheduler = c
}

func schedulerCoroutine() *Coroutine {
	return slotFor(goroutineID()).scheduler
}

// GoroutineID exposes the id GLS keys itself by, so other packages (the
// ioshim per-thread "hooks enabled" flag) can key their own state the
// same way without duplicating the runtime.Stack parsing.
func GoroutineID() uint64 { return goroutineID() }

var (
	terminateMu    sync.Mutex
	terminateHooks []func(gid uint64)
)

// OnTerminate registers fn to run whenever a coroutine's backing
// goroutine reaches Term, passing that goroutine's id. Other packages
// that key their own per-goroutine state the same way GLS does (the
// ioshim hook-enabled flag and reactor binding) use this to drop their
// entry instead of leaking one per coroutine for the life of the
// process.
func OnTerminate(fn func(gid uint64)) {
	terminateMu.Lock()
	defer terminateMu.Unlock()
	terminateHooks = append(terminateHooks, fn)
}

func runTerminateHooks(gid uint64) {
	terminateMu.Lock()
	hooks := append([]func(uint64){}, terminateHooks...)
	terminateMu.Unlock()
	for _, h := range hooks {
		h(gid)
	}
}

// mainCoroutine returns the calling goroutine's registered main
// coroutine: the one a runInScheduler-false Coroutine registers itself
// as, from run(), on its own backing goroutine.
func mainCoroutine() *Coroutine {
	return slotFor(goroutineID()).main
}

func setMainCoroutine(c *Coroutine) {
	slotFor(goroutineID()).main = c
}
