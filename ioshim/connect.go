// File: ioshim/connect.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ConnectWithTimeout mirrors original_source/hook.cpp's
// connect_with_timeout: identical skeleton to DoIO except the first call
// is connect(2), "would block" means EINPROGRESS, the watched direction
// is always WRITE, and resolution on resume comes from SO_ERROR rather
// than the return value of a retried call.

package ioshim

import (
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/lzz233/coroutine-lib/api"
	"github.com/lzz233/coroutine-lib/coro"
	"github.com/lzz233/coroutine-lib/fdctx"
	"github.com/lzz233/coroutine-lib/timer"
)

// Forever is the "never time out" sentinel, matching the original's
// s_connect_timeout defaulting to (uint64_t)-1.
const Forever time.Duration = -1

// ConnectWithTimeout connects fd to sa, parking the calling coroutine on
// the write direction until the connection completes or timeout elapses.
func ConnectWithTimeout(fd int, sa unix.Sockaddr, timeout time.Duration) error {
	if !IsHookEnabled() {
		return unix.Connect(fd, sa)
	}

	ctx := fdctx.Shared().Get(fd, false)
	if ctx == nil || ctx.IsClosed() {
		return ErrBadFd
	}
	if !ctx.IsSocket() || ctx.UserNonblock() {
		return unix.Connect(fd, sa)
	}

	err := unix.Connect(fd, sa)
	if err == nil {
		return nil
	}
	if err != unix.EINPROGRESS {
		return err
	}

	r := ActiveReactor()
	cur := coro.Current()
	if r == nil || cur == nil {
		return err
	}

	guard := timer.NewGuard()
	var timedOut int32
	var cancelTimer *timer.Timer
	if timeout >= 0 {
		cancelTimer = r.Timers.AddCondition(timeout, func() {
			atomic.StoreInt32(&timedOut, 1)
			r.CancelEvent(fd, api.DirWrite)
		}, guard, false)
	}

	if armErr := r.AddEvent(fd, api.DirWrite, func() { cur.Resume() }); armErr != nil {
		if cancelTimer != nil {
			cancelTimer.Cancel()
		}
		guard.Invalidate()
		return armErr
	}

	coro.Yield()

	if cancelTimer != nil {
		cancelTimer.Cancel()
	}
	guard.Invalidate()

	if atomic.LoadInt32(&timedOut) == 1 {
		return ErrTimedOut
	}

	soErr, gerr := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if gerr != nil {
		return gerr
	}
	if soErr != 0 {
		return unix.Errno(soErr)
	}
	return nil
}

// Connect is the user-visible connect(2) wrapper: no explicit timeout,
// exactly matching the original's default connect() delegating to
// connect_with_timeout(..., s_connect_timeout).
func Connect(fd int, sa unix.Sockaddr) error {
	return ConnectWithTimeout(fd, sa, Forever)
}
