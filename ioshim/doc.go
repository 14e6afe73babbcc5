// File: ioshim/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package ioshim provides coroutine-aware replacements for the blocking
// libc-style primitives a hooked application would otherwise call
// directly: sleep/usleep/nanosleep, socket/connect/accept, the
// read/write family, close, fcntl, ioctl and the socket-timeout options
// of setsockopt/getsockopt.
//
// The C++ original intercepts these by dlsym(RTLD_NEXT, ...) so existing
// callers of the real libc symbols get rerouted transparently. Go offers
// no symbol-interposition mechanism reachable without cgo, so an
// implementation free of that legacy constraint takes the direct route
// instead: the shims here are ordinary exported functions (ioshim.Read,
// ioshim.Connect, …) that a coroutine body calls directly instead of a
// dlsym-hooked read().
// The "hooks enabled" per-goroutine flag is preserved verbatim as a real
// on/off switch on every call path, because it keeps its original
// meaning even without the interposition trick: code that never opts in
// sees ordinary blocking-equivalent behavior forwarded straight to
// golang.org/x/sys/unix.
package ioshim
