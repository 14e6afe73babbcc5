// File: coro/coroutine_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package coro

import (
	"testing"
)

func TestCoroutine_ResumeYieldSequence(t *testing.T) {
	var trace []string
	c := New(func() {
		trace = append(trace, "a")
		Yield()
		trace = append(trace, "b")
		Yield()
		trace = append(trace, "c")
	}, 0, false)

	if err := c.Resume(); err != nil {
		t.Fatalf("Resume 1: %v", err)
	}
	if c.State() != Ready {
		t.Fatalf("state after first yield = %v, want Ready", c.State())
	}
	if err := c.Resume(); err != nil {
		t.Fatalf("Resume 2: %v", err)
	}
	if err := c.Resume(); err != nil {
		t.Fatalf("Resume 3: %v", err)
	}
	if c.State() != Term {
		t.Fatalf("state after completion = %v, want Term", c.State())
	}

	want := []string{"a", "b", "c"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestCoroutine_ResumeOnNonReadyFails(t *testing.T) {
	c := New(func() {}, 0, false)
	if err := c.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := c.Resume(); err == nil {
		t.Fatal("Resume on TERM coroutine should fail")
	}
}

func TestCoroutine_Reset(t *testing.T) {
	ran := 0
	c := New(func() { ran++ }, 0, false)
	if err := c.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := c.Reset(func() { ran++ }); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if c.State() != Ready {
		t.Fatalf("state after Reset = %v, want Ready", c.State())
	}
	if err := c.Resume(); err != nil {
		t.Fatalf("Resume after Reset: %v", err)
	}
	if ran != 2 {
		t.Fatalf("ran = %d, want 2", ran)
	}
}

func TestCurrent_NilOutsideCoroutine(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if Current() != nil {
			t.Error("Current() should be nil on a fresh goroutine with no Main()/coroutine")
		}
	}()
	<-done
}
