// File: internal/concurrency/hooks.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"time"

	"github.com/lzz233/coroutine-lib/api"
)

// DefaultHooks is a no-op Tickle paired with a short-sleep Idle, matching
// the original scheduler's bare idle loop for a scheduler that isn't
// fused with a reactor.
type DefaultHooks struct{}

func (DefaultHooks) Tickle() {}

func (DefaultHooks) Idle() {
	time.Sleep(time.Millisecond)
}

var _ api.Hooks = DefaultHooks{}
