// File: ioshim/ioshim_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ioshim

import (
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/lzz233/coroutine-lib/fdctx"
	"github.com/lzz233/coroutine-lib/internal/concurrency"
	"github.com/lzz233/coroutine-lib/reactor"
)

func newTestReactor(t *testing.T, threads int) *reactor.Reactor {
	t.Helper()
	r, err := NewReactor(concurrency.Config{Threads: threads, Name: "ioshim-test"})
	if err != nil {
		t.Fatalf("reactor.New: %v", err)
	}
	t.Cleanup(func() { r.Shutdown() })
	return r
}

func TestSleep_YieldsAndResumes(t *testing.T) {
	r := newTestReactor(t, 2)

	start := time.Now()
	done := make(chan struct{})
	var otherRan int32

	Spawn(r, func() { atomic.StoreInt32(&otherRan, 1) })
	Spawn(r, func() {
		Sleep(50 * time.Millisecond)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sleeping coroutine never resumed")
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("returned too early: %v", elapsed)
	}
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&otherRan) == 0 {
		t.Fatal("worker never ran the other coroutine during the sleep")
	}
}

func TestRecv_TimesOut(t *testing.T) {
	r := newTestReactor(t, 2)

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	defer unix.Close(fds[1])

	fdctxSetup(fds[0])
	SetsockoptTimeout(fds[0], unix.SOL_SOCKET, unix.SO_RCVTIMEO, &unix.Timeval{Sec: 0, Usec: 100000})

	result := make(chan error, 1)
	start := time.Now()
	Spawn(r, func() {
		buf := make([]byte, 16)
		_, err := Recv(fds[0], buf, 0)
		result <- err
	})

	select {
	case err := <-result:
		if err != ErrTimedOut {
			t.Fatalf("expected ErrTimedOut, got %v", err)
		}
		if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
			t.Fatalf("timed out too early: %v", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("recv never returned")
	}
	unix.Close(fds[0])
}

func TestRead_ReadyData(t *testing.T) {
	r := newTestReactor(t, 2)

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])
	fdctxSetup(fds[0])

	Spawn(r, func() {
		Sleep(20 * time.Millisecond)
		unix.Write(fds[1], []byte("abc"))
	})

	result := make(chan string, 1)
	Spawn(r, func() {
		buf := make([]byte, 16)
		n, err := Read(fds[0], buf)
		if err != nil {
			result <- "err:" + err.Error()
			return
		}
		result <- string(buf[:n])
	})

	select {
	case got := <-result:
		if got != "abc" {
			t.Fatalf("got %q, want \"abc\"", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("read never returned")
	}
}

func TestClose_WakesReader(t *testing.T) {
	r := newTestReactor(t, 2)

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	defer unix.Close(fds[1])
	fdctxSetup(fds[0])

	result := make(chan error, 1)
	Spawn(r, func() {
		buf := make([]byte, 16)
		_, err := Read(fds[0], buf)
		result <- err
	})

	time.Sleep(20 * time.Millisecond)
	if err := Close(fds[0], r); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-result:
		if err == nil {
			t.Fatal("expected an error after close, got nil")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reader never woke up after close")
	}
}

func TestRecurringTimer_FiresNTimes(t *testing.T) {
	r := newTestReactor(t, 2)

	var fires int32
	tm := r.Timers.Add(30*time.Millisecond, func() { atomic.AddInt32(&fires, 1) }, true)

	time.Sleep(300 * time.Millisecond)
	got := atomic.LoadInt32(&fires)
	// Shutdown (run by Cleanup) waits until no timer is pending, so the
	// recurring timer has to be canceled first.
	tm.Cancel()
	want := int32(300 / 30)
	if got < want-1 || got > want+1 {
		t.Fatalf("got %d fires, want %d +/-1", got, want)
	}
}

// fdctxSetup forces an fdctx.Table entry into existence and enables
// hooks for the calling test goroutine. The coroutines under test get
// their own hook flag from Spawn; SetsockoptTimeout caches its value on
// the fd context whether or not hooks are enabled.
func fdctxSetup(fd int) {
	fdctx.Shared().Get(fd, true)
	SetHookEnabled(true)
}
