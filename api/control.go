// File: api/control.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Control is the admin-plane contract a running Scheduler/Reactor pair
// satisfies: dynamic config, point-in-time metrics, and reload
// notification, independent of control's own concrete store types so
// other packages can depend on the shape without importing control.

package api

// Control manages dynamic config and runtime metrics for a scheduler or
// reactor.
type Control interface {
	// GetConfig returns the current dynamic config snapshot.
	GetConfig() map[string]any
	// SetConfig merges cfg into the store and fires reload listeners.
	SetConfig(cfg map[string]any) error
	// Stats refreshes and returns a metrics snapshot (queue depth,
	// active/idle worker counts, pending IO events, armed timers).
	Stats() map[string]any
	// OnReload registers fn to run whenever SetConfig changes the store.
	OnReload(fn func())
	// RegisterDebugProbe adds a named probe surfaced through Debug too.
	RegisterDebugProbe(name string, fn func() any)
}
