// File: ioshim/doio.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// DoIO is the universal template original_source/hook.cpp calls do_io:
// every read/write-family primitive normalizes its call through this
// retry/park/cancel-timer loop. A C++ template parameterized on the
// underlying function becomes a closure argument here.

package ioshim

import (
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/lzz233/coroutine-lib/api"
	"github.com/lzz233/coroutine-lib/coro"
	"github.com/lzz233/coroutine-lib/fdctx"
	"github.com/lzz233/coroutine-lib/timer"
)

// DoIO drives op (one non-blocking attempt at the real primitive)
// through hook-transparency, EINTR retry, and EAGAIN park-on-dir with an
// optional timeout, exactly as original_source/hook.cpp's do_io does for
// read/write/accept. op must report EAGAIN/EWOULDBLOCK/EINTR as
// unix.Errno values for the retry/park logic to recognize them.
func DoIO(fd int, dir api.Direction, timeoutKind fdctx.TimeoutKind, op func() (int, error)) (int, error) {
	if !IsHookEnabled() {
		return op()
	}

	ctx := fdctx.Shared().Get(fd, false)
	if ctx == nil {
		return op()
	}
	if ctx.IsClosed() {
		return -1, ErrBadFd
	}
	if !ctx.IsSocket() || ctx.UserNonblock() {
		return op()
	}

	timeout := ctx.Timeout(timeoutKind)

	for {
		n, err := op()
		for err == unix.EINTR {
			n, err = op()
		}
		if err != unix.EAGAIN && err != unix.EWOULDBLOCK {
			return n, err
		}

		r := ActiveReactor()
		cur := coro.Current()
		if r == nil || cur == nil {
			// No reactor to park on: surface the would-block result
			// rather than spin or fake a blocking wait.
			return n, err
		}

		guard := timer.NewGuard()
		var timedOut int32
		var cancelTimer *timer.Timer
		if timeout > 0 {
			cancelTimer = r.Timers.AddCondition(timeout, func() {
				atomic.StoreInt32(&timedOut, 1)
				r.CancelEvent(fd, dir)
			}, guard, false)
		}

		if armErr := r.AddEvent(fd, dir, func() { cur.Resume() }); armErr != nil {
			if cancelTimer != nil {
				cancelTimer.Cancel()
			}
			guard.Invalidate()
			return -1, armErr
		}

		coro.Yield()

		if cancelTimer != nil {
			cancelTimer.Cancel()
		}
		guard.Invalidate()

		if atomic.LoadInt32(&timedOut) == 1 {
			return -1, ErrTimedOut
		}
	}
}
