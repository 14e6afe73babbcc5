// File: internal/concurrency/scheduler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Scheduler runs Tasks across a fixed pool of worker threads. Each
// worker repeatedly scans the shared FIFO queue for a task it may run
// (respecting PreferredThread affinity), executes it, and falls back to
// Hooks.Idle when nothing is runnable. Shutdown flips a stopping flag,
// tickles every worker so none stays parked, and waits for all of them
// to notice there is no more work and exit.

package concurrency

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lzz233/coroutine-lib/api"
	"github.com/lzz233/coroutine-lib/coro"
)

// Scheduler is the multi-threaded task runner described in api.Scheduler.
type Scheduler struct {
	name      string
	threads   int
	useCaller bool
	hooks     api.Hooks

	tasks *taskQueue

	activeCount int32
	idleCount   int32
	stopping    int32

	mu      sync.Mutex
	started bool
	workers []*WorkerThread
	wg      sync.WaitGroup

	// stopGate is an extra predicate Stopping must also satisfy, letting a
	// composed component (the reactor, which layers epoll readiness and
	// timers on top of this scheduler) withhold shutdown until its own
	// pending work, in-flight IO registrations and armed timers, has
	// drained too.
	stopGate func() bool

	// prepareTask, when set, runs inside every auto-wrapped callable
	// task's own coroutine body before the task's Fn runs, on that
	// coroutine's own dedicated goroutine. The reactor uses this to
	// enable hook-transparent IO and bind itself for tasks the caller
	// never ran through ioshim.Spawn directly, mirroring the original's
	// thread-wide hook_enable: any fiber run on a hook-enabled thread
	// got transparent IO for free, not just ones the caller spawned.
	prepareTask func()
}

// New builds a Scheduler from cfg. The scheduler is not running until
// Start is called.
func New(cfg Config) *Scheduler {
	cfg = cfg.withDefaults()
	hooks := cfg.Hooks
	if hooks == nil {
		hooks = DefaultHooks{}
	}
	return &Scheduler{
		name:      cfg.Name,
		threads:   cfg.Threads,
		useCaller: cfg.UseCaller,
		hooks:     hooks,
		tasks:     newTaskQueue(),
	}
}

// Name returns the scheduler's diagnostic name.
func (s *Scheduler) Name() string { return s.name }

// Start launches the background worker threads. When the scheduler was
// built with UseCaller, worker id 0 is reserved: the caller must invoke
// RunOnCallerThread to staff it, since that slot runs on the calling
// goroutine's own locked OS thread rather than a spawned one.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if atomic.LoadInt32(&s.stopping) == 1 {
		return api.ErrSchedulerStopped
	}
	if s.started {
		return fmt.Errorf("scheduler %s: already started", s.name)
	}
	s.started = true

	first := 0
	if s.useCaller {
		first = 1
	}
	for id := first; id < s.threads; id++ {
		w := newWorkerThread(id, fmt.Sprintf("%s_%d", s.name, id))
		s.workers = append(s.workers, w)
		s.wg.Add(1)
		w.start(func() {
			defer s.wg.Done()
			s.runLoop(w.ID)
		})
		<-w.ready
	}
	return nil
}

// RunOnCallerThread runs worker id 0 on the calling goroutine, blocking
// until Shutdown drains the scheduler. Only valid when the scheduler was
// configured with UseCaller.
func (s *Scheduler) RunOnCallerThread() {
	if !s.useCaller {
		return
	}
	s.runLoop(0)
}

// Schedule enqueues fn to run on any worker (thread == -1) or pins it to
// a specific worker id.
func (s *Scheduler) Schedule(fn func(), thread int) error {
	if fn == nil {
		return api.ErrInvalidArgument
	}
	if atomic.LoadInt32(&s.stopping) == 1 {
		return api.ErrSchedulerStopped
	}
	wasEmpty := s.tasks.Push(api.Task{Fn: fn, PreferredThread: thread})
	if wasEmpty {
		s.hooks.Tickle()
	}
	return nil
}

// ScheduleCoroutine enqueues an already-built coroutine to be resumed
// directly, skipping the auto-wrap executeTask applies to a plain Fn
// task. ioshim.Spawn uses this for a coroutine's first resume, to avoid
// spawning a second, throwaway coroutine just to call Resume on the
// first. Later resumes of a parked coroutine (after IO readiness or a
// sleep timer) arrive as plain Fn callbacks that call Resume.
func (s *Scheduler) ScheduleCoroutine(c *coro.Coroutine, thread int) error {
	if c == nil {
		return api.ErrInvalidArgument
	}
	if atomic.LoadInt32(&s.stopping) == 1 {
		return api.ErrSchedulerStopped
	}
	wasEmpty := s.tasks.Push(api.Task{Coroutine: c, PreferredThread: thread})
	if wasEmpty {
		s.hooks.Tickle()
	}
	return nil
}

// SetPrepareTask installs fn; see the prepareTask field comment.
func (s *Scheduler) SetPrepareTask(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepareTask = fn
}

// SetStopGate installs fn; see the stopGate field comment.
func (s *Scheduler) SetStopGate(fn func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopGate = fn
}

// Stopping reports whether Shutdown has been requested and every worker
// has drained: no queued tasks, no task currently executing, and any
// installed stop gate also agrees.
func (s *Scheduler) Stopping() bool {
	if atomic.LoadInt32(&s.stopping) != 1 ||
		s.tasks.Len() != 0 ||
		atomic.LoadInt32(&s.activeCount) != 0 {
		return false
	}
	s.mu.Lock()
	gate := s.stopGate
	s.mu.Unlock()
	return gate == nil || gate()
}

// Shutdown requests that every worker exit once the queue drains, wakes
// any parked worker, and waits for all worker goroutines to return.
func (s *Scheduler) Shutdown() error {
	atomic.StoreInt32(&s.stopping, 1)
	for i := 0; i < s.threads; i++ {
		s.hooks.Tickle()
	}
	s.wg.Wait()
	return nil
}

// ActiveCount returns the number of workers currently executing a task.
func (s *Scheduler) ActiveCount() int { return int(atomic.LoadInt32(&s.activeCount)) }

// IdleCount returns the number of workers currently parked in Hooks.Idle.
func (s *Scheduler) IdleCount() int { return int(atomic.LoadInt32(&s.idleCount)) }

// QueueLen reports the number of tasks waiting to run.
func (s *Scheduler) QueueLen() int { return s.tasks.Len() }

func (s *Scheduler) runLoop(threadID int) {
	for {
		task, ok, skipped := s.tasks.PopFor(threadID)
		if ok {
			if skipped {
				s.hooks.Tickle()
			}
			atomic.AddInt32(&s.activeCount, 1)
			s.executeTask(task)
			atomic.AddInt32(&s.activeCount, -1)
			continue
		}
		if skipped {
			s.hooks.Tickle()
		}
		if s.Stopping() {
			return
		}
		atomic.AddInt32(&s.idleCount, 1)
		s.hooks.Idle()
		atomic.AddInt32(&s.idleCount, -1)
	}
}

// executeTask runs t to completion. A Coroutine task is resumed
// directly. A plain Fn task is wrapped in a fresh coroutine and resumed,
// so a blocking ioshim call inside it parks the coroutine instead of
// finding coro.Current nil and falling back to raw, non-cooperative
// behavior; prepareTask (if installed) runs first, inside that same
// coroutine, so hook-transparent IO is available to it too.
func (s *Scheduler) executeTask(t api.Task) {
	defer func() {
		recover()
	}()
	if t.Coroutine != nil {
		t.Coroutine.Resume()
		return
	}
	if t.Fn == nil {
		return
	}
	fn := t.Fn
	s.mu.Lock()
	prepare := s.prepareTask
	s.mu.Unlock()
	coro.New(func() {
		if prepare != nil {
			prepare()
		}
		fn()
	}, 0, true).Resume()
}

var _ api.Scheduler = (*Scheduler)(nil)
