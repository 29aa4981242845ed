// Package resource implements the Controller that bounds table residency,
// open table files and read bandwidth.
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                         Controller                          │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Table Slots    │  Open Files     │  IO Rate Limiter        │
//	│  (blocking sem) │  (blocking sem) │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  AcquireTable   │  AcquireFile    │  AcquireIO              │
//	│  TryAcquire-    │                 │  RateLimitedReader      │
//	│  Table          │                 │                         │
//	│  Permit.Release │  release()      │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// # Table Slots
//
// Every parsed table that the cache tracks owns exactly one Permit. A permit
// is obtained with AcquireTable, which blocks (FIFO) until a slot is free:
//
//	p, err := rc.AcquireTable(ctx)
//	if err != nil {
//	    return err // ErrClosed or ctx.Err()
//	}
//	t, err := table.Parse(raw, p)
//	if err != nil {
//	    p.Release()
//	    return err
//	}
//
// Release is idempotent, so error paths can release unconditionally.
//
// # Shutdown
//
// Close wakes every blocked acquisition with ErrClosed and rejects new ones.
// A Permit holds a reference to its Controller, so releasing a permit after
// Close is always safe.
//
// # Nil Safety
//
// All methods handle a nil Controller: acquisitions succeed immediately and
// releases are no-ops.
package resource
