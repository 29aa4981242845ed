package cache

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/sctable/internal/resource"
	"github.com/hupe1980/sctable/table"
)

// ErrClosed is returned by GetOrLoad after Close.
var ErrClosed = errors.New("table cache closed")

// LoadFunc reads and parses a table, handing permit to table.Parse.
// On error the Manager releases the permit.
type LoadFunc func(ctx context.Context, permit *resource.Permit) (*table.Table, error)

// Manager is an LRU of parsed tables with admission control.
type Manager struct {
	mu        sync.Mutex
	capacity  int
	items     map[table.ID]*list.Element
	evictList *list.List
	closed    bool
	// added is closed and replaced whenever a table becomes resident.
	added chan struct{}

	rc     *resource.Controller
	flight singleflight.Group

	onEvict func(id table.ID)

	hits      atomic.Int64
	misses    atomic.Int64
	loads     atomic.Int64
	evictions atomic.Int64
}

type entry struct {
	id    table.ID
	table *table.Table
	// refs counts the LRU's own reference plus one per live Handle.
	refs atomic.Int64
}

func (e *entry) tryRef() bool {
	for {
		n := e.refs.Load()
		if n <= 0 {
			return false
		}
		if e.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// unref drops one reference and reports whether it was the last, in which
// case the table's permit has been released.
func (e *entry) unref() bool {
	if e.refs.Add(-1) == 0 {
		_ = e.table.Close()
		return true
	}
	return false
}

// Option configures a Manager.
type Option func(*Manager)

// WithEvictionCallback registers fn to run after a table leaves the LRU.
// fn runs without the cache lock held.
func WithEvictionCallback(fn func(id table.ID)) Option {
	return func(m *Manager) {
		m.onEvict = fn
	}
}

// NewManager creates a Manager whose capacity is rc's table slot count.
// The Manager takes over rc's lifecycle: Close closes rc.
func NewManager(rc *resource.Controller, optFns ...Option) *Manager {
	if rc == nil {
		rc = resource.NewController(resource.Config{})
	}
	m := &Manager{
		capacity:  int(rc.TableSlots()),
		items:     make(map[table.ID]*list.Element),
		evictList: list.New(),
		added:     make(chan struct{}),
		rc:        rc,
	}
	for _, fn := range optFns {
		fn(m)
	}
	return m
}

// AcquireQuota returns a permit for one more resident table.
//
// If every slot is taken it evicts least-recently-used tables until a slot
// frees. An evicted table still pinned by a Handle returns its slot when
// the last such handle is released. Once the LRU is empty the call blocks
// until a permit is released, re-evicting if a table becomes resident in
// the meantime. It fails with resource.ErrClosed once the Manager is
// closed, or with ctx.Err().
func (m *Manager) AcquireQuota(ctx context.Context) (*resource.Permit, error) {
	for {
		if p, ok := m.rc.TryAcquireTable(); ok {
			return p, nil
		}
		if m.rc.Closed() {
			return nil, resource.ErrClosed
		}
		evicted, added := m.evictOldest()
		if evicted {
			continue
		}

		// Every remaining permit is held by a handle or an in-flight load.
		p, err := m.waitTable(ctx, added)
		if err == nil {
			return p, nil
		}
		if ctx.Err() != nil || errors.Is(err, resource.ErrClosed) {
			return nil, err
		}
	}
}

// waitTable blocks for a permit until added is closed.
func (m *Manager) waitTable(ctx context.Context, added <-chan struct{}) (*resource.Permit, error) {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-added:
			cancel()
		case <-wctx.Done():
		}
	}()
	return m.rc.AcquireTable(wctx)
}

// Get returns a handle to a resident table and marks it most recently used.
// It never blocks on I/O.
func (m *Manager) Get(id table.ID) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[id]; ok {
		m.hits.Add(1)
		m.evictList.MoveToFront(elem)
		ent := elem.Value.(*entry)
		// The LRU holds a reference while the entry is in the map.
		ent.refs.Add(1)
		return newHandle(ent), true
	}
	m.misses.Add(1)
	return nil, false
}

// Add inserts a freshly parsed table and returns a handle to it.
//
// The table must own a permit from this Manager's controller. If id is
// already resident, t is closed (returning its permit) and the resident table
// is returned instead. Inserting beyond capacity evicts the least recently
// used table. After Close, t is not cached and lives only as long as the
// returned handle.
func (m *Manager) Add(id table.ID, t *table.Table) *Handle {
	m.mu.Lock()

	if elem, ok := m.items[id]; ok {
		m.evictList.MoveToFront(elem)
		ent := elem.Value.(*entry)
		ent.refs.Add(1)
		m.mu.Unlock()
		_ = t.Close()
		return newHandle(ent)
	}

	ent := &entry{id: id, table: t}
	if m.closed {
		m.mu.Unlock()
		ent.refs.Store(1)
		return newHandle(ent)
	}

	ent.refs.Store(2)
	m.items[id] = m.evictList.PushFront(ent)
	close(m.added)
	m.added = make(chan struct{})

	var evicted []*entry
	for len(m.items) > m.capacity {
		evicted = append(evicted, m.removeElement(m.evictList.Back()))
	}
	m.mu.Unlock()

	m.finishEvictions(evicted)
	return newHandle(ent)
}

// GetOrLoad returns a handle to id, loading it on a miss. The bool reports
// whether the table was already resident.
//
// Concurrent misses for the same id share one AcquireQuota and one load.
// The shared load runs with the context of the caller that started it.
// Every caller stops waiting when its own ctx is done, and if the starting
// caller gives up the others retry with a load of their own.
func (m *Manager) GetOrLoad(ctx context.Context, id table.ID, load LoadFunc) (*Handle, bool, error) {
	for {
		if h, ok := m.Get(id); ok {
			return h, true, nil
		}
		if m.isClosed() {
			return nil, false, ErrClosed
		}

		ch := m.flight.DoChan(id.String(), func() (any, error) {
			if ent := m.peek(id); ent != nil {
				return ent, nil
			}

			p, err := m.AcquireQuota(ctx)
			if err != nil {
				return nil, abandoned(ctx, err)
			}
			t, err := load(ctx, p)
			if err != nil {
				p.Release()
				return nil, abandoned(ctx, err)
			}
			m.loads.Add(1)

			h := m.Add(id, t)
			ent := h.r.ent
			h.Release()
			return ent, nil
		})

		var res singleflight.Result
		select {
		case res = <-ch:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
		if res.Err != nil {
			var ab *abandonedError
			switch {
			case errors.As(res.Err, &ab):
				if err := ctx.Err(); err != nil {
					return nil, false, err
				}
				continue
			case errors.Is(res.Err, resource.ErrClosed):
				return nil, false, ErrClosed
			}
			return nil, false, res.Err
		}

		ent := res.Val.(*entry)
		if ent.tryRef() {
			return newHandle(ent), false, nil
		}
		// Evicted and released before we could reference it; try again.
	}
}

// abandonedError marks a shared load that failed because the caller that
// started it went away.
type abandonedError struct {
	err error
}

func (e *abandonedError) Error() string { return e.err.Error() }

func (e *abandonedError) Unwrap() error { return e.err }

func abandoned(ctx context.Context, err error) error {
	if ctx.Err() != nil && !errors.Is(err, resource.ErrClosed) {
		return &abandonedError{err: err}
	}
	return err
}

// Evict removes id from the LRU. Its permit returns once no handle remains.
func (m *Manager) Evict(id table.ID) bool {
	m.mu.Lock()
	elem, ok := m.items[id]
	var ent *entry
	if ok {
		ent = m.removeElement(elem)
	}
	m.mu.Unlock()

	if ok {
		m.finishEvictions([]*entry{ent})
	}
	return ok
}

// Invalidate evicts every table whose id matches predicate and returns how
// many were removed.
func (m *Manager) Invalidate(predicate func(id table.ID) bool) int {
	m.mu.Lock()
	var evicted []*entry
	for id, elem := range m.items {
		if predicate(id) {
			evicted = append(evicted, m.removeElement(elem))
		}
	}
	m.mu.Unlock()

	m.finishEvictions(evicted)
	return len(evicted)
}

// Contains reports whether id is resident without promoting it.
func (m *Manager) Contains(id table.ID) bool {
	return m.peek(id) != nil
}

// Len returns the number of resident tables.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Capacity returns the LRU capacity.
func (m *Manager) Capacity() int {
	return m.capacity
}

// Controller returns the admission controller.
func (m *Manager) Controller() *resource.Controller {
	return m.rc
}

// Close drops every resident table and closes the controller, waking callers
// blocked in AcquireQuota. Tables still referenced by handles are released
// when those handles are.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	evicted := make([]*entry, 0, len(m.items))
	for e := m.evictList.Front(); e != nil; e = e.Next() {
		evicted = append(evicted, e.Value.(*entry))
	}
	clear(m.items)
	m.evictList.Init()
	m.mu.Unlock()

	for _, ent := range evicted {
		ent.unref()
	}
	return m.rc.Close()
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) peek(id table.ID) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if elem, ok := m.items[id]; ok {
		return elem.Value.(*entry)
	}
	return nil
}

// evictOldest removes the least recently used table. If the LRU is empty it
// returns a channel that is closed when a table is next added.
func (m *Manager) evictOldest() (evicted bool, added <-chan struct{}) {
	m.mu.Lock()
	back := m.evictList.Back()
	if back == nil {
		added = m.added
		m.mu.Unlock()
		return false, added
	}
	ent := m.removeElement(back)
	m.mu.Unlock()

	m.finishEvictions([]*entry{ent})
	return true, nil
}

// removeElement must be called with mu held.
func (m *Manager) removeElement(e *list.Element) *entry {
	m.evictList.Remove(e)
	ent := e.Value.(*entry)
	delete(m.items, ent.id)
	m.evictions.Add(1)
	return ent
}

func (m *Manager) finishEvictions(evicted []*entry) {
	for _, ent := range evicted {
		ent.unref()
		if m.onEvict != nil {
			m.onEvict(ent.id)
		}
	}
}
