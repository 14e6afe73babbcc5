//go:build linux
// +build linux

// File: reactor/fdentry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// fdEntry is the Go analogue of original_source/ioscheduler.h's
// IOManager::FdContext: per-fd registered-events bitmask plus one
// callback slot per direction. Event registration is one-shot, exactly
// like the original: triggerEvent clears the direction's bit and
// callback before scheduling it, so a caller must re-arm AddEvent after
// each firing to keep watching.

package reactor

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/lzz233/coroutine-lib/api"
)

func epollBit(dir api.Direction) uint32 {
	if dir == api.DirWrite {
		return unix.EPOLLOUT
	}
	return unix.EPOLLIN
}

type fdEntry struct {
	mu     sync.Mutex
	fd     int
	events uint32 // bitmask of unix.EPOLLIN/EPOLLOUT currently armed
	read   func()
	write  func()
}

func (e *fdEntry) cbSlot(dir api.Direction) *func() {
	if dir == api.DirWrite {
		return &e.write
	}
	return &e.read
}
