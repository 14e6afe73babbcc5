// File: internal/concurrency/scheduler_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RunsAllTasks(t *testing.T) {
	s := New(Config{Threads: 4, Name: "t1"})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	const n = 200
	var ran int32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		if err := s.Schedule(func() {
			atomic.AddInt32(&ran, 1)
			wg.Done()
		}, -1); err != nil {
			t.Fatalf("Schedule: %v", err)
		}
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not complete in time")
	}
	if got := atomic.LoadInt32(&ran); got != n {
		t.Fatalf("ran = %d, want %d", got, n)
	}
	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestScheduler_ThreadAffinity(t *testing.T) {
	s := New(Config{Threads: 3, Name: "t2"})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got := make(chan int, 1)
	if err := s.Schedule(func() {
		got <- 1 // dispatched by worker 1's runLoop, run on its wrapping coroutine
	}, 1); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("pinned task never ran")
	}
	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestScheduler_ShutdownDrainsQueue(t *testing.T) {
	s := New(Config{Threads: 2, Name: "t3"})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var ran int32
	for i := 0; i < 10; i++ {
		_ = s.Schedule(func() { atomic.AddInt32(&ran, 1) }, -1)
	}
	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := atomic.LoadInt32(&ran); got != 10 {
		t.Fatalf("ran = %d, want 10", got)
	}
	if err := s.Schedule(func() {}, -1); err == nil {
		t.Fatal("Schedule after Shutdown should fail")
	}
}

func TestScheduler_UseCaller(t *testing.T) {
	s := New(Config{Threads: 2, UseCaller: true, Name: "t4"})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = s.Shutdown()
	}()
	go func() {
		s.RunOnCallerThread()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("caller-thread loop never returned")
	}
}
