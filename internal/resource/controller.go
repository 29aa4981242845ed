package resource

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrClosed is returned by acquisitions on a closed Controller, including
// callers that were blocked when Close ran.
var ErrClosed = errors.New("resource controller closed")

// Config holds resource limits.
type Config struct {
	// TableSlots is the number of tables that may be resident at once.
	// If <= 0, defaults to 1.
	TableSlots int64

	// MaxOpenFiles bounds concurrently open table blobs.
	// If 0, unlimited.
	MaxOpenFiles int64

	// IOLimitBytesPerSec is the maximum read throughput for table loads.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages the table residency budget, open file handles and IO.
type Controller struct {
	cfg Config

	// Table slots
	tableSem  *semaphore.Weighted
	tableHeld atomic.Int64

	// Open files
	fileSem   *semaphore.Weighted // nil if unlimited
	filesOpen atomic.Int64

	// IO
	ioLimiter *rate.Limiter

	closed   context.Context
	closeFn  context.CancelFunc
	isClosed atomic.Bool
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.TableSlots <= 0 {
		cfg.TableSlots = 1
	}

	closed, closeFn := context.WithCancel(context.Background())
	c := &Controller{
		cfg:      cfg,
		tableSem: semaphore.NewWeighted(cfg.TableSlots),
		closed:   closed,
		closeFn:  closeFn,
	}

	if cfg.MaxOpenFiles > 0 {
		c.fileSem = semaphore.NewWeighted(cfg.MaxOpenFiles)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireTable blocks until a table slot is free and returns a Permit for it.
// Waiters are served in FIFO order.
// Returns ErrClosed if the controller is or becomes closed, or ctx.Err().
func (c *Controller) AcquireTable(ctx context.Context) (*Permit, error) {
	if c == nil {
		return &Permit{}, nil
	}
	if err := c.acquire(ctx, c.tableSem); err != nil {
		return nil, err
	}
	c.tableHeld.Add(1)
	return &Permit{c: c}, nil
}

// TryAcquireTable returns a Permit if a slot is free, without blocking.
func (c *Controller) TryAcquireTable() (*Permit, bool) {
	if c == nil {
		return &Permit{}, true
	}
	if c.isClosed.Load() || !c.tableSem.TryAcquire(1) {
		return nil, false
	}
	c.tableHeld.Add(1)
	return &Permit{c: c}, true
}

func (c *Controller) releaseTable() {
	c.tableHeld.Add(-1)
	c.tableSem.Release(1)
}

// TablesHeld returns the number of outstanding table permits.
func (c *Controller) TablesHeld() int64 {
	if c == nil {
		return 0
	}
	return c.tableHeld.Load()
}

// TableSlots returns the configured slot count.
func (c *Controller) TableSlots() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.TableSlots
}

// AcquireFile reserves an open-file slot. The returned release function is
// safe to call more than once.
func (c *Controller) AcquireFile(ctx context.Context) (func(), error) {
	if c == nil || c.fileSem == nil {
		if c != nil && c.isClosed.Load() {
			return nil, ErrClosed
		}
		return func() {}, nil
	}
	if err := c.acquire(ctx, c.fileSem); err != nil {
		return nil, err
	}
	c.filesOpen.Add(1)

	var done atomic.Bool
	return func() {
		if done.CompareAndSwap(false, true) {
			c.filesOpen.Add(-1)
			c.fileSem.Release(1)
		}
	}, nil
}

// FilesOpen returns the number of open-file slots in use.
func (c *Controller) FilesOpen() int64 {
	if c == nil {
		return 0
	}
	return c.filesOpen.Load()
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the limiter burst are split.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// TryAcquireIO attempts to acquire IO tokens without blocking.
func (c *Controller) TryAcquireIO(bytes int) bool {
	if c == nil || c.ioLimiter == nil {
		return true
	}
	return c.ioLimiter.AllowN(time.Now(), bytes)
}

// Close fences the controller. Blocked and future acquisitions fail with
// ErrClosed. Outstanding permits stay valid and may still be released.
func (c *Controller) Close() error {
	if c == nil {
		return nil
	}
	c.isClosed.Store(true)
	c.closeFn()
	return nil
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	if c == nil {
		return false
	}
	return c.isClosed.Load()
}

func (c *Controller) acquire(ctx context.Context, sem *semaphore.Weighted) error {
	if c.isClosed.Load() {
		return ErrClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.closed, cancel)
	defer stop()

	if err := sem.Acquire(ctx, 1); err != nil {
		if c.isClosed.Load() {
			return ErrClosed
		}
		return err
	}
	if c.isClosed.Load() {
		sem.Release(1)
		return ErrClosed
	}
	return nil
}
