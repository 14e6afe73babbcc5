// File: internal/concurrency/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "github.com/lzz233/coroutine-lib/api"

// Config controls how a Scheduler builds its worker pool.
type Config struct {
	// Threads is the total number of worker threads, including the
	// caller's own thread when UseCaller is set.
	Threads int

	// UseCaller reserves worker id 0 for the thread that calls
	// RunOnCallerThread instead of spawning a background goroutine for
	// it. Start returns immediately either way; with UseCaller the
	// caller must invoke RunOnCallerThread itself to staff that slot.
	UseCaller bool

	// Name identifies the scheduler in logs and worker thread names.
	Name string

	// Hooks lets callers observe Tickle/Idle; DefaultHooks is used when
	// nil.
	Hooks api.Hooks
}

func (c Config) withDefaults() Config {
	if c.Threads <= 0 {
		c.Threads = 1
	}
	if c.Name == "" {
		c.Name = "scheduler"
	}
	return c
}
