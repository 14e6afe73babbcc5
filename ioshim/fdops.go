// File: ioshim/fdops.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// socket/close/fcntl/ioctl/setsockopt/getsockopt, grounded on
// original_source/hook.cpp's corresponding wrappers.

package ioshim

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/lzz233/coroutine-lib/fdctx"
	"github.com/lzz233/coroutine-lib/reactor"
)

// Socket forwards to socket(2) and, on success, registers the new fd in
// the process-wide fd table so later do_io calls on it find a context.
func Socket(domain, typ, proto int) (int, error) {
	fd, err := unix.Socket(domain, typ, proto)
	if err != nil {
		return fd, err
	}
	fdctx.Shared().Get(fd, true)
	return fd, nil
}

// Close cancels every pending event on fd (waking parked coroutines,
// which see bad-fd on their retry), drops fd from the table, then
// forwards to close(2). r may be nil if fd was never registered with a
// reactor.
func Close(fd int, r *reactor.Reactor) error {
	if ctx := fdctx.Shared().Get(fd, false); ctx != nil {
		if r != nil {
			r.CancelAll(fd)
		}
		ctx.MarkClosed()
		fdctx.Shared().Del(fd)
	}
	return unix.Close(fd)
}

// Fcntl reproduces the original's fcntl switch: F_SETFL and F_GETFL
// special-case the O_NONBLOCK bit against the fd's recorded user/system
// preference; every other command forwards unchanged.
func Fcntl(fd int, cmd int, arg int) (int, error) {
	switch cmd {
	case unix.F_SETFL:
		ctx := fdctx.Shared().Get(fd, false)
		if ctx == nil || ctx.IsClosed() || !ctx.IsSocket() {
			return unix.FcntlInt(uintptr(fd), cmd, arg)
		}
		ctx.SetUserNonblock(arg&unix.O_NONBLOCK != 0)
		if ctx.SysNonblock() {
			arg |= unix.O_NONBLOCK
		} else {
			arg &^= unix.O_NONBLOCK
		}
		return unix.FcntlInt(uintptr(fd), cmd, arg)

	case unix.F_GETFL:
		got, err := unix.FcntlInt(uintptr(fd), cmd, 0)
		if err != nil {
			return got, err
		}
		ctx := fdctx.Shared().Get(fd, false)
		if ctx == nil || ctx.IsClosed() || !ctx.IsSocket() {
			return got, nil
		}
		if ctx.UserNonblock() {
			return got | unix.O_NONBLOCK, nil
		}
		return got &^ unix.O_NONBLOCK, nil

	default:
		// F_DUPFD, F_SETFD, F_GETFD, F_SETOWN, F_GETOWN, F_SETLEASE, and
		// the rest: forward the int arg unchanged through FcntlInt.
		// Commands whose argument is a pointer (F_SETLK, F_GETLK and the
		// other record-lock commands) cannot be passed through this
		// int-only signature.
		return unix.FcntlInt(uintptr(fd), cmd, arg)
	}
}

// Ioctl handles FIONBIO on a socket with a context by recording the
// user's non-blocking preference, then always forwards the real
// requested value.
func Ioctl(fd int, request uint, value int) error {
	if request == unix.FIONBIO {
		if ctx := fdctx.Shared().Get(fd, false); ctx != nil && !ctx.IsClosed() && ctx.IsSocket() {
			ctx.SetUserNonblock(value != 0)
		}
	}
	return unix.IoctlSetInt(fd, request, value)
}

// SetsockoptTimeout handles SOL_SOCKET/{SO_RCVTIMEO,SO_SNDTIMEO}: the
// value is cached on the fd context (as a duration) before the call is
// forwarded, so later do_io calls pick it up via fdctx.TimeoutKind.
func SetsockoptTimeout(fd, level, optname int, tv *unix.Timeval) error {
	if level == unix.SOL_SOCKET && (optname == unix.SO_RCVTIMEO || optname == unix.SO_SNDTIMEO) {
		if ctx := fdctx.Shared().Get(fd, false); ctx != nil {
			d := time.Duration(tv.Sec)*time.Second + time.Duration(tv.Usec)*time.Microsecond
			kind := fdctx.RecvTimeout
			if optname == unix.SO_SNDTIMEO {
				kind = fdctx.SendTimeout
			}
			ctx.SetTimeout(kind, d)
		}
	}
	return unix.SetsockoptTimeval(fd, level, optname, tv)
}

// GetsockoptInt forwards unchanged; the original never caches anything
// on the getsockopt path either.
func GetsockoptInt(fd, level, optname int) (int, error) {
	return unix.GetsockoptInt(fd, level, optname)
}
