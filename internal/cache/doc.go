// Package cache keeps parsed tables resident in memory under a fixed budget.
//
// # Budget
//
// The Manager's LRU capacity is the slot count of its resource.Controller.
// The same number therefore bounds two things independently: how many tables
// the LRU map may hold, and how many table permits may exist at once. Every
// resident table owns one permit; a table that was evicted but is still
// referenced by a Handle keeps its permit until the last Handle is released.
//
// # Handles
//
// Get, Add and GetOrLoad return a *Handle, a counted reference to a resident
// table. Readers use Handle.Table without taking any cache lock:
//
//	h, _, err := m.GetOrLoad(ctx, id, load)
//	if err != nil {
//	    return err
//	}
//	defer h.Release()
//	v, ok := h.Table().Get(cmp, key)
//
// A Handle that becomes unreachable without Release is released by a runtime
// cleanup, but callers should not rely on garbage collection timing.
//
// # Misses
//
// Concurrent GetOrLoad calls for the same table coalesce into one admission
// and one parse.
package cache
