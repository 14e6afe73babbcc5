//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The reactor's IO multiplexing is epoll-only; every other platform gets
// a constructor that fails cleanly instead of a half-working poller.

package reactor

import (
	"errors"

	"github.com/lzz233/coroutine-lib/coro"
	"github.com/lzz233/coroutine-lib/internal/concurrency"
	"github.com/lzz233/coroutine-lib/timer"
)

// Reactor is an unusable placeholder on non-Linux platforms. Its fields
// mirror reactor_linux.go's shape so callers that only read Timers or
// call PendingEvents for metrics still compile; New never actually
// produces one.
type Reactor struct {
	Timers *timer.Manager
}

// New always fails: this reactor is epoll-backed and Linux-only.
func New(cfg concurrency.Config) (*Reactor, error) {
	return nil, errors.New("reactor: epoll is only supported on linux")
}

// PendingEvents always reports zero on this placeholder.
func (r *Reactor) PendingEvents() int { return 0 }

// Scheduler always returns nil on this placeholder, since New never
// produces a Reactor with a fused scheduler on a non-Linux build.
func (r *Reactor) Scheduler() *concurrency.Scheduler { return nil }

// Schedule is unreachable since New always fails.
func (r *Reactor) Schedule(fn func(), thread int) error {
	return errors.New("reactor: epoll is only supported on linux")
}

// ScheduleCoroutine is unreachable since New always fails.
func (r *Reactor) ScheduleCoroutine(c *coro.Coroutine, thread int) error {
	return errors.New("reactor: epoll is only supported on linux")
}

// SetPrepareTask is a no-op on this placeholder.
func (r *Reactor) SetPrepareTask(fn func()) {}

// Shutdown is a no-op on this placeholder.
func (r *Reactor) Shutdown() error { return nil }
