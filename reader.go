package sctable

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/sctable/blobstore"
	"github.com/hupe1980/sctable/internal/cache"
	"github.com/hupe1980/sctable/internal/resource"
	"github.com/hupe1980/sctable/table"
)

// Reader serves reads from immutable tables through a bounded cache.
//
// Tables are loaded from a Source on first use, validated, and kept
// resident until evicted. A Reader is safe for concurrent use.
type Reader struct {
	src     Source
	cache   *cache.Manager
	logger  *Logger
	metrics MetricsCollector
	cmp     table.Comparator
	warmN   int

	closeOnce sync.Once
}

// Open creates a Reader over src. CacheCount bounds resident tables.
// MaxOpenFiles and IOLimitBytesPerSec apply to sources that draw on
// Controller, such as the BlobSource built by OpenBlobStore.
func Open(src Source, opts Options, optFns ...Option) (*Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(optFns)

	rc := resource.NewController(resource.Config{
		TableSlots:         int64(opts.CacheCount),
		MaxOpenFiles:       int64(opts.MaxOpenFiles),
		IOLimitBytesPerSec: opts.IOLimitBytesPerSec,
	})

	r := &Reader{
		src:     src,
		logger:  o.logger,
		metrics: o.metricsCollector,
		cmp:     o.comparator,
		warmN:   o.warmConcurrency,
	}
	r.cache = cache.NewManager(rc, cache.WithEvictionCallback(func(id table.ID) {
		r.metrics.RecordEviction()
		r.logger.LogEviction(context.Background(), id)
	}))
	return r, nil
}

// OpenBlobStore is Open over a BlobSource that shares the Reader's
// resource limits.
func OpenBlobStore(store blobstore.BlobStore, opts Options, optFns ...Option) (*Reader, error) {
	r, err := Open(nil, opts, optFns...)
	if err != nil {
		return nil, err
	}
	r.src = NewBlobSource(store, r.cache.Controller())
	return r, nil
}

// Controller exposes the Reader's resource controller so that custom
// sources can share its open-file and IO limits.
func (r *Reader) Controller() *resource.Controller {
	return r.cache.Controller()
}

// TableHandle pins a resident table. Release it when done reading.
type TableHandle struct {
	h *cache.Handle
}

// Table returns the pinned table.
func (t *TableHandle) Table() *table.Table { return t.h.Table() }

// ID returns the table identity.
func (t *TableHandle) ID() table.ID { return t.h.ID() }

// Release unpins the table. It is idempotent.
func (t *TableHandle) Release() { t.h.Release() }

// Table returns a pinned handle to id, loading the table on a miss.
//
// Concurrent misses for the same table share a single load. A load blocks
// while every cache slot is pinned by outstanding handles.
func (r *Reader) Table(ctx context.Context, id table.ID) (*TableHandle, error) {
	start := time.Now()
	h, hit, err := r.cache.GetOrLoad(ctx, id, func(ctx context.Context, p *resource.Permit) (*table.Table, error) {
		return r.load(ctx, id, p)
	})
	r.metrics.RecordTableAccess(hit, time.Since(start), err)
	if err != nil {
		return nil, translateError(id, err)
	}
	return &TableHandle{h: h}, nil
}

func (r *Reader) load(ctx context.Context, id table.ID, p *resource.Permit) (*table.Table, error) {
	if r.src == nil {
		return nil, errors.New("sctable: reader has no source")
	}

	start := time.Now()
	var (
		t    *table.Table
		size int
	)
	err := r.src.ReadTable(ctx, id, func(raw []byte) error {
		size = len(raw)
		var err error
		t, err = table.Parse(raw, p)
		return err
	})
	if err != nil && t != nil {
		// The source failed after a successful parse.
		_ = t.Close()
		t = nil
	}

	d := time.Since(start)
	r.metrics.RecordLoad(size, d, err)
	r.logger.LogLoad(ctx, id, size, d, err)
	if err != nil {
		return nil, &TableError{ID: id, Err: err}
	}
	return t, nil
}

// Get returns the value stored under exactly (key, seq).
// It returns ErrNotFound for a missing key or a tombstone.
func (r *Reader) Get(ctx context.Context, id table.ID, key []byte, seq uint64) ([]byte, error) {
	h, err := r.Table(ctx, id)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	start := time.Now()
	v, ok := h.Table().Get(r.cmp, table.InternalKey{UserKey: key, Seq: seq})
	r.metrics.RecordLookup(ok, time.Since(start))
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// GetVisible returns the newest version of key with a sequence number at
// most seq, and that version's sequence number.
// It returns ErrNotFound if there is none or it is a tombstone.
func (r *Reader) GetVisible(ctx context.Context, id table.ID, key []byte, seq uint64) ([]byte, uint64, error) {
	h, err := r.Table(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	defer h.Release()

	start := time.Now()
	v, found, ok := h.Table().GetVisible(r.cmp, table.InternalKey{UserKey: key, Seq: seq})
	r.metrics.RecordLookup(ok, time.Since(start))
	if !ok {
		return nil, 0, ErrNotFound
	}
	return v, found, nil
}

// Scan calls fn for every catalog entry of id in order until fn returns
// false. Items alias the table and are valid only during the call.
func (r *Reader) Scan(ctx context.Context, id table.ID, fn func(n int, it table.Item) bool) error {
	h, err := r.Table(ctx, id)
	if err != nil {
		return err
	}
	defer h.Release()

	for n, it := range h.Table().All() {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if !fn(n, it) {
			return nil
		}
	}
	return nil
}

// Warm loads ids into the cache in parallel. Loading more tables than the
// cache holds evicts the earliest ones again.
func (r *Reader) Warm(ctx context.Context, ids ...table.ID) error {
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.warmN)
	for _, id := range ids {
		g.Go(func() error {
			h, err := r.Table(ctx, id)
			if err != nil {
				return err
			}
			h.Release()
			return nil
		})
	}
	err := g.Wait()
	r.logger.LogWarm(ctx, len(ids), time.Since(start), err)
	return err
}

// Evict drops id from the cache. Its slot is returned once every handle to
// it is released.
func (r *Reader) Evict(id table.ID) bool {
	return r.cache.Evict(id)
}

// EvictLevel drops every resident table of level.
func (r *Reader) EvictLevel(level int) int {
	return r.cache.Invalidate(func(id table.ID) bool { return id.Level == level })
}

// Contains reports whether id is resident.
func (r *Reader) Contains(id table.ID) bool {
	return r.cache.Contains(id)
}

// Stats is a snapshot of Reader activity.
type Stats struct {
	Hits        int64
	Misses      int64
	Loads       int64
	Evictions   int64
	Resident    int
	Capacity    int
	PermitsHeld int64
	FilesOpen   int64
}

// Stats returns current cache and resource counters.
func (r *Reader) Stats() Stats {
	cs := r.cache.Stats()
	return Stats{
		Hits:        cs.Hits,
		Misses:      cs.Misses,
		Loads:       cs.Loads,
		Evictions:   cs.Evictions,
		Resident:    cs.Resident,
		Capacity:    r.cache.Capacity(),
		PermitsHeld: cs.PermitsHeld,
		FilesOpen:   r.cache.Controller().FilesOpen(),
	}
}

// Close drops all cached tables and wakes callers blocked on admission with
// ErrClosed. Outstanding handles stay readable until released.
func (r *Reader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.cache.Close()
		r.logger.LogClose(context.Background(), r.Stats())
	})
	return err
}
