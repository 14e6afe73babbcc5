//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reactor fuses epoll(7) with a concurrency.Scheduler and a timer.Manager,
// grounded on original_source/ioscheduler.h/.cpp's IOManager. The wake
// pipe, one-shot edge-triggered registration, EPOLLERR/EPOLLHUP
// translation and the min(next timer, 5s) idle timeout are all carried
// over from that file; only the fiber-vs-callback distinction is
// collapsed, since every armed callback here is a plain func().

package reactor

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/lzz233/coroutine-lib/api"
	"github.com/lzz233/coroutine-lib/coro"
	"github.com/lzz233/coroutine-lib/internal/concurrency"
	"github.com/lzz233/coroutine-lib/timer"
)

const maxEpollEvents = 256
const maxIdleTimeout = 5 * time.Second

// Reactor is the epoll-backed implementation of api.Reactor. It owns and
// drives a concurrency.Scheduler: callers submit work through Schedule,
// AddEvent, or the timer Manager, and the scheduler's idle workers spin
// the epoll_wait loop.
type Reactor struct {
	sched  *concurrency.Scheduler
	Timers *timer.Manager

	epfd             int
	tickleR, tickleW int

	mu      sync.RWMutex
	fds     []*fdEntry
	pending int32

	closed int32
}

// New builds and starts a Reactor whose scheduler is configured by cfg.
// cfg.Hooks is overwritten: the reactor itself must be the scheduler's
// Hooks implementation so Tickle/Idle drive epoll_wait.
func New(cfg concurrency.Config) (*Reactor, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}

	fds2, err := unixPipe2NonblockRead()
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}

	r := &Reactor{
		epfd:    epfd,
		tickleR: fds2[0],
		tickleW: fds2[1],
		fds:     make([]*fdEntry, 32),
	}
	r.Timers = timer.NewManager()
	r.Timers.OnInsertedAtFront = r.Tickle

	ev := unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLET, Fd: int32(r.tickleR)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, r.tickleR, &ev); err != nil {
		r.closeFds()
		return nil, err
	}

	cfg.Hooks = r
	r.sched = concurrency.New(cfg)
	r.sched.SetStopGate(r.ioStopping)

	if err := r.sched.Start(); err != nil {
		r.closeFds()
		return nil, err
	}
	return r, nil
}

func unixPipe2NonblockRead() ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK); err != nil {
		return fds, err
	}
	return fds, nil
}

// RunOnCallerThread staffs worker id 0 on the calling goroutine; only
// meaningful when the scheduler was built with UseCaller.
func (r *Reactor) RunOnCallerThread() { r.sched.RunOnCallerThread() }

// Scheduler returns the concurrency.Scheduler fused into this reactor,
// for callers (control.NewSchedulerControl) that need to introspect it
// directly.
func (r *Reactor) Scheduler() *concurrency.Scheduler { return r.sched }

// Schedule enqueues fn on the fused scheduler.
func (r *Reactor) Schedule(fn func(), thread int) error { return r.sched.Schedule(fn, thread) }

// ScheduleCoroutine enqueues an already-built coroutine to be resumed
// directly on the fused scheduler, skipping the auto-wrap Schedule
// applies to a plain func().
func (r *Reactor) ScheduleCoroutine(c *coro.Coroutine, thread int) error {
	return r.sched.ScheduleCoroutine(c, thread)
}

// SetPrepareTask installs fn to run, on its own backing goroutine,
// before every plain func() task the fused scheduler auto-wraps in a
// coroutine. ioshim uses this so a bare Schedule/AddEvent callback gets
// hook-transparent IO for free, the same way any fiber running on the
// original's hook-enabled OS thread did, without requiring the caller to
// go through Spawn.
func (r *Reactor) SetPrepareTask(fn func()) { r.sched.SetPrepareTask(fn) }

func (r *Reactor) getOrCreate(fd int) *fdEntry {
	r.mu.RLock()
	if fd < len(r.fds) {
		e := r.fds[fd]
		r.mu.RUnlock()
		if e != nil {
			return e
		}
	} else {
		r.mu.RUnlock()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if fd >= len(r.fds) {
		grown := make([]*fdEntry, fd+fd/2+1)
		copy(grown, r.fds)
		r.fds = grown
	}
	if r.fds[fd] == nil {
		r.fds[fd] = &fdEntry{fd: fd}
	}
	return r.fds[fd]
}

func (r *Reactor) lookup(fd int) *fdEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fd < 0 || fd >= len(r.fds) {
		return nil
	}
	return r.fds[fd]
}

// AddEvent arms dir on fd. Registration is one-shot: once the event
// fires (or is canceled), the caller must AddEvent again to keep
// watching, matching the original's "register -> fire once -> re-arm"
// contract.
func (r *Reactor) AddEvent(fd int, dir api.Direction, cb func()) error {
	if cb == nil {
		return api.ErrInvalidArgument
	}
	e := r.getOrCreate(fd)
	e.mu.Lock()
	defer e.mu.Unlock()

	bit := epollBit(dir)
	if e.events&bit != 0 {
		return api.ErrEventArmed
	}
	op := unix.EPOLL_CTL_ADD
	if e.events != 0 {
		op = unix.EPOLL_CTL_MOD
	}
	newMask := e.events | bit
	ev := unix.EpollEvent{Events: newMask | unix.EPOLLET, Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, op, fd, &ev); err != nil {
		return err
	}
	atomic.AddInt32(&r.pending, 1)
	e.events = newMask
	*e.cbSlot(dir) = cb
	return nil
}

// DelEvent disarms dir on fd without invoking its callback.
func (r *Reactor) DelEvent(fd int, dir api.Direction) error {
	e := r.lookup(fd)
	if e == nil {
		return api.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	bit := epollBit(dir)
	if e.events&bit == 0 {
		return api.ErrNotFound
	}
	newMask := e.events &^ bit
	op := unix.EPOLL_CTL_MOD
	if newMask == 0 {
		op = unix.EPOLL_CTL_DEL
	}
	ev := unix.EpollEvent{Events: newMask | unix.EPOLLET, Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, op, fd, &ev); err != nil {
		return err
	}
	atomic.AddInt32(&r.pending, -1)
	e.events = newMask
	*e.cbSlot(dir) = nil
	return nil
}

// CancelEvent disarms dir on fd and schedules its callback immediately,
// as if the event had fired.
func (r *Reactor) CancelEvent(fd int, dir api.Direction) bool {
	e := r.lookup(fd)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	bit := epollBit(dir)
	if e.events&bit == 0 {
		return false
	}
	newMask := e.events &^ bit
	op := unix.EPOLL_CTL_MOD
	if newMask == 0 {
		op = unix.EPOLL_CTL_DEL
	}
	ev := unix.EpollEvent{Events: newMask | unix.EPOLLET, Fd: int32(fd)}
	unix.EpollCtl(r.epfd, op, fd, &ev)
	e.events = newMask
	r.triggerLocked(e, dir)
	return true
}

// CancelAll disarms every direction registered for fd and schedules
// whichever callbacks were armed.
func (r *Reactor) CancelAll(fd int) bool {
	e := r.lookup(fd)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.events == 0 {
		return false
	}
	unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, &unix.EpollEvent{Fd: int32(fd)})

	if e.events&unix.EPOLLIN != 0 {
		r.triggerLocked(e, api.DirRead)
	}
	if e.events&unix.EPOLLOUT != 0 {
		r.triggerLocked(e, api.DirWrite)
	}
	e.events = 0
	return true
}

// triggerLocked assumes e.mu is held. It clears dir's armed bit and
// callback and schedules the callback on the fused scheduler.
func (r *Reactor) triggerLocked(e *fdEntry, dir api.Direction) {
	slot := e.cbSlot(dir)
	cb := *slot
	*slot = nil
	if cb != nil {
		atomic.AddInt32(&r.pending, -1)
		r.sched.Schedule(cb, -1)
	}
}

// Tickle wakes a blocked epoll_wait by writing to the wake pipe, but only
// if a worker may actually be parked there.
func (r *Reactor) Tickle() {
	if r.sched.IdleCount() == 0 {
		return
	}
	unix.Write(r.tickleW, []byte{'T'})
}

// PendingEvents reports how many (fd, direction) pairs are currently
// armed, for metrics probes.
func (r *Reactor) PendingEvents() int {
	return int(atomic.LoadInt32(&r.pending))
}

func (r *Reactor) ioStopping() bool {
	return atomic.LoadInt32(&r.pending) == 0 && !r.Timers.HasTimer()
}

// Idle runs one epoll_wait cycle: it blocks for at most
// min(next timer deadline, 5s), drains expired timers and ready fds into
// scheduled callbacks, and returns so the scheduler can re-check for
// runnable work.
func (r *Reactor) Idle() {
	timeoutMs := r.nextTimeoutMs()

	var events [maxEpollEvents]unix.EpollEvent
	var n int
	for {
		var err error
		n, err = unix.EpollWait(r.epfd, events[:], timeoutMs)
		if err == unix.EINTR {
			continue
		}
		break
	}

	for _, cb := range r.Timers.DrainExpired() {
		cb := cb
		r.sched.Schedule(cb, -1)
	}

	for i := 0; i < n; i++ {
		ev := events[i]
		fd := int(ev.Fd)
		if fd == r.tickleR {
			r.drainTickle()
			continue
		}

		e := r.lookup(fd)
		if e == nil {
			continue
		}
		e.mu.Lock()
		mask := ev.Events
		if mask&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			mask |= (unix.EPOLLIN | unix.EPOLLOUT) & e.events
		}
		var real uint32
		if mask&unix.EPOLLIN != 0 {
			real |= unix.EPOLLIN
		}
		if mask&unix.EPOLLOUT != 0 {
			real |= unix.EPOLLOUT
		}
		if e.events&real == 0 {
			e.mu.Unlock()
			continue
		}

		left := e.events &^ real
		op := unix.EPOLL_CTL_MOD
		if left == 0 {
			op = unix.EPOLL_CTL_DEL
		}
		newEv := unix.EpollEvent{Events: left | unix.EPOLLET, Fd: int32(fd)}
		unix.EpollCtl(r.epfd, op, fd, &newEv)
		e.events = left

		if real&unix.EPOLLIN != 0 {
			r.triggerLocked(e, api.DirRead)
		}
		if real&unix.EPOLLOUT != 0 {
			r.triggerLocked(e, api.DirWrite)
		}
		e.mu.Unlock()
	}
}

func (r *Reactor) nextTimeoutMs() int {
	d := r.Timers.NextTimeout()
	if d < 0 {
		return int(maxIdleTimeout / time.Millisecond)
	}
	ms := int(d / time.Millisecond)
	if maxMs := int(maxIdleTimeout / time.Millisecond); ms > maxMs {
		return maxMs
	}
	return ms
}

func (r *Reactor) drainTickle() {
	var buf [256]byte
	for {
		n, err := unix.Read(r.tickleR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (r *Reactor) closeFds() {
	unix.Close(r.epfd)
	unix.Close(r.tickleR)
	unix.Close(r.tickleW)
}

// Shutdown stops the scheduler and releases the epoll instance and wake
// pipe.
func (r *Reactor) Shutdown() error {
	if !atomic.CompareAndSwapInt32(&r.closed, 0, 1) {
		return nil
	}
	err := r.sched.Shutdown()
	r.closeFds()
	return err
}

var _ api.Reactor = (*Reactor)(nil)
