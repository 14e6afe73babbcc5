// File: fdctx/table.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Table is the process-wide FdCtx registry, grounded on
// original_source/fd_manager.h/.cpp's FdManager: a growable slice indexed
// by fd number, grown by 1.5x on demand exactly like the original's
// std::vector::resize(fd*1.5).

package fdctx

import "sync"

// Table maps file descriptors to their FdCtx.
type Table struct {
	mu   sync.RWMutex
	data []*FdCtx
}

// NewTable returns an empty Table pre-sized the way FdManager's
// constructor reserves an initial 64 slots.
func NewTable() *Table {
	return &Table{data: make([]*FdCtx, 64)}
}

// shared is the process-wide singleton the IO shim uses, mirroring
// FdMgr::GetInstance().
var shared = NewTable()

// Shared returns the process-wide Table.
func Shared() *Table { return shared }

// Get returns the FdCtx for fd, creating one if autoCreate is true and
// none exists yet. It returns nil for fd == -1 or if autoCreate is false
// and no entry exists.
func (t *Table) Get(fd int, autoCreate bool) *FdCtx {
	if fd < 0 {
		return nil
	}

	t.mu.RLock()
	if fd < len(t.data) {
		c := t.data[fd]
		if c != nil || !autoCreate {
			t.mu.RUnlock()
			return c
		}
	} else if !autoCreate {
		t.mu.RUnlock()
		return nil
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if fd < len(t.data) {
		if t.data[fd] != nil {
			return t.data[fd]
		}
	} else {
		newSize := fd + fd/2 + 1
		grown := make([]*FdCtx, newSize)
		copy(grown, t.data)
		t.data = grown
	}
	c := New(fd)
	t.data[fd] = c
	return c
}

// Del removes fd's FdCtx, if any.
func (t *Table) Del(fd int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fd >= 0 && fd < len(t.data) {
		t.data[fd] = nil
	}
}
