// File: coro/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package coro implements stackful cooperative coroutines and the
// goroutine-local bookkeeping (current/main/scheduler coroutine) that
// the scheduler and IO shim rely on to find "the coroutine running here"
// without an explicit handle.
package coro
