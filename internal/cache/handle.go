package cache

import (
	"runtime"
	"sync/atomic"

	"github.com/hupe1980/sctable/table"
)

// Handle is a counted reference to a resident table.
type Handle struct {
	r       *handleRef
	cleanup runtime.Cleanup
}

// handleRef is kept separate from Handle so the runtime cleanup can release
// it without keeping the Handle itself reachable.
type handleRef struct {
	ent  *entry
	done atomic.Bool
}

func (r *handleRef) release() {
	if r.done.CompareAndSwap(false, true) {
		r.ent.unref()
	}
}

func newHandle(ent *entry) *Handle {
	r := &handleRef{ent: ent}
	h := &Handle{r: r}
	h.cleanup = runtime.AddCleanup(h, func(r *handleRef) { r.release() }, r)
	return h
}

// Table returns the parsed table. It stays valid for reads even after
// Release, but the cache no longer accounts for it.
func (h *Handle) Table() *table.Table {
	return h.r.ent.table
}

// ID returns the table identity.
func (h *Handle) ID() table.ID {
	return h.r.ent.id
}

// Release drops the reference. It is idempotent.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.cleanup.Stop()
	h.r.release()
}
