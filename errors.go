package sctable

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/sctable/internal/cache"
	"github.com/hupe1980/sctable/internal/resource"
	"github.com/hupe1980/sctable/table"
)

var (
	// ErrClosed is returned by every Reader method after Close.
	ErrClosed = errors.New("sctable: reader closed")

	// ErrNotFound is returned when a key has no live version in a table.
	ErrNotFound = errors.New("sctable: not found")
)

// TableError reports a failure to load one table.
//
// The cause is available through errors.Unwrap; corrupt tables match
// table.ErrCorrupt and missing blobs match blobstore.ErrNotFound.
type TableError struct {
	ID  table.ID
	Err error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table %s: %v", e.ID, e.Err)
}

func (e *TableError) Unwrap() error { return e.Err }

func translateError(id table.ID, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, cache.ErrClosed) || errors.Is(err, resource.ErrClosed) {
		return ErrClosed
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var te *TableError
	if errors.As(err, &te) {
		return err
	}
	return &TableError{ID: id, Err: err}
}
