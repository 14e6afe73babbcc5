// File: ioshim/sleep.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// sleep/usleep/nanosleep all collapse to the same shape in
// original_source/hook.cpp: schedule a one-shot timer that re-enqueues
// the current coroutine, then yield. The timer's preferred thread is
// left unconstrained ("any"), matching scheduleLock(fiber, -1): a
// sleeping task has no reason to demand its original worker back.

package ioshim

import (
	"time"

	"github.com/lzz233/coroutine-lib/coro"
)

// Sleep parks the calling coroutine for d, or falls back to time.Sleep
// when hooks are off or there is no coroutine/reactor to park on.
func Sleep(d time.Duration) {
	if !IsHookEnabled() {
		time.Sleep(d)
		return
	}
	cur := coro.Current()
	r := ActiveReactor()
	if cur == nil || r == nil {
		time.Sleep(d)
		return
	}
	r.Timers.Add(d, func() { cur.Resume() }, false)
	coro.Yield()
}

// SleepSeconds mirrors libc sleep(3). It always reports 0 remaining
// seconds, matching the original's unconditional "return 0".
func SleepSeconds(seconds uint) uint {
	Sleep(time.Duration(seconds) * time.Second)
	return 0
}

// Usleep mirrors libc usleep(3).
func Usleep(usec uint) int {
	Sleep(time.Duration(usec) * time.Microsecond)
	return 0
}

// Nanosleep mirrors libc nanosleep(3), degrading to millisecond
// resolution by truncating rather than rounding: tv_sec*1000 +
// tv_nsec/1_000_000, matching integer division discarding the
// sub-millisecond remainder rather than rounding to the nearest
// millisecond.
func Nanosleep(d time.Duration) int {
	Sleep(d.Truncate(time.Millisecond))
	return 0
}
