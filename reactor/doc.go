// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor fuses an epoll(7) event loop with a concurrency.Scheduler
// and a timer.Manager: AddEvent/CancelEvent register interest in a
// readable or writable fd, and the scheduler's idle worker drives
// epoll_wait, converting both expired timers and newly ready fds into
// scheduled callbacks.
package reactor
