// File: timer/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package timer implements an absolute-deadline timer heap shared by the
// reactor: Manager.NextTimeout feeds epoll_wait's timeout, and
// Manager.DrainExpired supplies the callbacks to run once epoll_wait
// returns.
package timer
