// File: control/runtime.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SchedulerControl adapts a concurrency.Scheduler, and optionally the
// reactor.Reactor fused with it, to api.Control and api.Debug using the
// same ConfigStore/MetricsRegistry/DebugProbes primitives the rest of
// this package already provides.

package control

import (
	"github.com/lzz233/coroutine-lib/api"
	"github.com/lzz233/coroutine-lib/internal/concurrency"
	"github.com/lzz233/coroutine-lib/reactor"
)

// SchedulerControl is the runtime introspection surface for one
// scheduler (and, if fused, its reactor).
type SchedulerControl struct {
	cfg     *ConfigStore
	metrics *MetricsRegistry
	probes  *DebugProbes

	sched *concurrency.Scheduler
	react *reactor.Reactor
}

// NewSchedulerControl builds a SchedulerControl for sched. react may be
// nil when sched is not fused with a reactor.
func NewSchedulerControl(sched *concurrency.Scheduler, react *reactor.Reactor) *SchedulerControl {
	sc := &SchedulerControl{
		cfg:     NewConfigStore(),
		metrics: NewMetricsRegistry(),
		probes:  NewDebugProbes(),
		sched:   sched,
		react:   react,
	}

	sc.probes.RegisterProbe("scheduler.active", func() any { return sched.ActiveCount() })
	sc.probes.RegisterProbe("scheduler.idle", func() any { return sched.IdleCount() })
	sc.probes.RegisterProbe("scheduler.queue_len", func() any { return sched.QueueLen() })
	sc.probes.RegisterProbe("scheduler.stopping", func() any { return sched.Stopping() })
	if react != nil {
		sc.probes.RegisterProbe("reactor.pending_events", func() any { return react.PendingEvents() })
		if react.Timers != nil {
			sc.probes.RegisterProbe("reactor.timers", func() any { return react.Timers.Len() })
		}
	}
	RegisterPlatformProbes(sc.probes)

	return sc
}

// GetConfig returns a snapshot of the dynamic config store.
func (sc *SchedulerControl) GetConfig() map[string]any { return sc.cfg.GetSnapshot() }

// SetConfig merges cfg into the store and fires reload listeners.
func (sc *SchedulerControl) SetConfig(cfg map[string]any) error {
	sc.cfg.SetConfig(cfg)
	return nil
}

// Stats refreshes and returns a snapshot of scheduler/reactor metrics.
func (sc *SchedulerControl) Stats() map[string]any {
	sc.metrics.Inc("scheduler.stats_polls", 1)
	sc.metrics.Set("scheduler.active", sc.sched.ActiveCount())
	sc.metrics.Set("scheduler.idle", sc.sched.IdleCount())
	sc.metrics.Set("scheduler.queue_len", sc.sched.QueueLen())
	if sc.react != nil {
		sc.metrics.Set("reactor.pending_events", sc.react.PendingEvents())
		if sc.react.Timers != nil {
			sc.metrics.Set("reactor.timers", sc.react.Timers.Len())
		}
	}
	return sc.metrics.GetSnapshot()
}

// OnReload registers fn to run whenever SetConfig changes the store.
func (sc *SchedulerControl) OnReload(fn func()) { sc.cfg.OnReload(fn) }

// RegisterDebugProbe adds a named probe, satisfying api.Control.
func (sc *SchedulerControl) RegisterDebugProbe(name string, fn func() any) {
	sc.probes.RegisterProbe(name, fn)
}

// RegisterProbe adds a named probe, satisfying api.Debug.
func (sc *SchedulerControl) RegisterProbe(name string, fn func() any) {
	sc.probes.RegisterProbe(name, fn)
}

// DumpState runs every registered probe and returns their results.
func (sc *SchedulerControl) DumpState() map[string]any { return sc.probes.DumpState() }

var (
	_ api.Control = (*SchedulerControl)(nil)
	_ api.Debug   = (*SchedulerControl)(nil)
)
