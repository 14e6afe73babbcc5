//go:build linux
// +build linux

// File: reactor/reactor_linux_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/lzz233/coroutine-lib/api"
	"github.com/lzz233/coroutine-lib/internal/concurrency"
)

func TestReactor_AddEventFiresOnReadable(t *testing.T) {
	r, err := New(concurrency.Config{Threads: 2, Name: "rt1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Shutdown()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])
	unix.SetNonblock(fds[0], true)

	fired := make(chan struct{})
	if err := r.AddEvent(fds[0], api.DirRead, func() { close(fired) }); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}

	unix.Write(fds[1], []byte("x"))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("read callback never fired")
	}
}

func TestReactor_CancelEventFiresImmediately(t *testing.T) {
	r, err := New(concurrency.Config{Threads: 2, Name: "rt2"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Shutdown()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])
	unix.SetNonblock(fds[0], true)

	fired := make(chan struct{})
	if err := r.AddEvent(fds[0], api.DirRead, func() { close(fired) }); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if !r.CancelEvent(fds[0], api.DirRead) {
		t.Fatal("CancelEvent returned false")
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("canceled callback never ran")
	}
}

func TestReactor_TimerFires(t *testing.T) {
	r, err := New(concurrency.Config{Threads: 2, Name: "rt3"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Shutdown()

	fired := make(chan struct{})
	r.Timers.Add(10*time.Millisecond, func() { close(fired) }, false)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestReactor_DoubleArmFails(t *testing.T) {
	r, err := New(concurrency.Config{Threads: 1, Name: "rt4"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Shutdown()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	if err := r.AddEvent(fds[0], api.DirRead, func() {}); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if err := r.AddEvent(fds[0], api.DirRead, func() {}); err == nil {
		t.Fatal("second AddEvent on the same direction should fail")
	}
	// Shutdown waits until no event is armed, so disarm the first one.
	r.DelEvent(fds[0], api.DirRead)
}
