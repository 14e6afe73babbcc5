// File: timer/manager_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timer

import (
	"testing"
	"time"
)

func TestManager_FiresInOrder(t *testing.T) {
	m := NewManager()
	var order []int
	m.Add(30*time.Millisecond, func() { order = append(order, 3) }, false)
	m.Add(10*time.Millisecond, func() { order = append(order, 1) }, false)
	m.Add(20*time.Millisecond, func() { order = append(order, 2) }, false)

	deadline := time.Now().Add(200 * time.Millisecond)
	for len(order) < 3 && time.Now().Before(deadline) {
		d := m.NextTimeout()
		if d > 0 {
			time.Sleep(d)
		}
		for _, cb := range m.DrainExpired() {
			cb()
		}
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("order = %v, want [1 2 3]", order)
	}
}

func TestManager_CancelPreventsFiring(t *testing.T) {
	m := NewManager()
	fired := false
	timer := m.Add(5*time.Millisecond, func() { fired = true }, false)
	if !timer.Cancel() {
		t.Fatal("Cancel returned false")
	}
	time.Sleep(20 * time.Millisecond)
	for _, cb := range m.DrainExpired() {
		cb()
	}
	if fired {
		t.Fatal("canceled timer fired")
	}
	if timer.Cancel() {
		t.Fatal("second Cancel should return false")
	}
}

func TestManager_Recurring(t *testing.T) {
	m := NewManager()
	count := 0
	m.Add(2*time.Millisecond, func() { count++ }, true)

	deadline := time.Now().Add(100 * time.Millisecond)
	for count < 3 && time.Now().Before(deadline) {
		d := m.NextTimeout()
		if d > 0 {
			time.Sleep(d)
		}
		for _, cb := range m.DrainExpired() {
			cb()
		}
	}
	if count < 3 {
		t.Fatalf("count = %d, want >= 3", count)
	}
}

func TestManager_ConditionGuard(t *testing.T) {
	m := NewManager()
	g := NewGuard()
	ran := false
	m.AddCondition(2*time.Millisecond, func() { ran = true }, g, false)
	g.Invalidate()

	time.Sleep(10 * time.Millisecond)
	for _, cb := range m.DrainExpired() {
		cb()
	}
	if ran {
		t.Fatal("callback ran after guard invalidated")
	}
}

func TestManager_OnInsertedAtFrontFiresOnce(t *testing.T) {
	m := NewManager()
	calls := 0
	m.OnInsertedAtFront = func() { calls++ }

	m.Add(50*time.Millisecond, func() {}, false)
	m.Add(100*time.Millisecond, func() {}, false) // later deadline, not a new front
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	m.NextTimeout() // resets the tickled flag
	m.Add(10*time.Millisecond, func() {}, false) // new earliest deadline
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestManager_ClockRolloverExpiresEverything(t *testing.T) {
	m := NewManager()
	fired := 0
	m.Add(time.Hour, func() { fired++ }, false)
	m.Add(2*time.Hour, func() { fired++ }, false)

	base := m.now()
	m.nowFn = func() time.Time { return base.Add(-2 * time.Hour) }
	for _, cb := range m.DrainExpired() {
		cb()
	}
	if fired != 2 {
		t.Fatalf("fired = %d, want 2 after simulated clock rollback", fired)
	}
}
