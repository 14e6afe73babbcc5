// File: ioshim/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ioshim

import "golang.org/x/sys/unix"

// ErrTimedOut is returned when a shimmed operation's per-direction
// timeout elapses before the fd becomes ready. It is synthesised by the
// shim itself rather than read off the underlying primitive, exactly
// like the original's errno = ETIMEDOUT on tinfo->cancelled, but kept as
// a plain alias of unix.ETIMEDOUT so callers can compare against either
// name.
var ErrTimedOut = unix.ETIMEDOUT

// ErrBadFd is returned for operations on an fd the table has already
// marked closed, matching errno = EBADF in do_io.
var ErrBadFd = unix.EBADF
