// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package concurrency implements the multi-threaded task scheduler that
// coroutines and the reactor run on top of: a FIFO task queue with
// per-task thread affinity, a fixed pool of worker threads, and the
// Start/Schedule/Shutdown/Tickle/Idle lifecycle the reactor uses to fuse
// epoll readiness with scheduled coroutine resumption.
package concurrency
