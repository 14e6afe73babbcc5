//go:build windows
// +build windows

// File: control/platform_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The reactor itself is epoll/Linux-only (see reactor/reactor_stub.go),
// so on Windows only the bare scheduler (no fused reactor) can ever
// reach RegisterPlatformProbes; it still gets the same probe set for
// parity with the Linux build.

package control

import (
	"runtime"
)

// RegisterPlatformProbes sets Windows-specific debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
}
