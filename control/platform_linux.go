//go:build linux
// +build linux

// File: control/platform_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux is this module's only epoll-backed platform, so its probes
// include the goroutine count alongside CPU count: since each parked
// coroutine is a blocked goroutine here rather than a suspended ucontext
// stack, goroutine count is the closest analogue to the original's
// live-fiber count.

package control

import (
	"runtime"
)

// RegisterPlatformProbes sets Linux-specific debug metrics.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
}
