package sctable

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/sctable/blobstore"
	"github.com/hupe1980/sctable/internal/compress"
	"github.com/hupe1980/sctable/internal/resource"
	"github.com/hupe1980/sctable/table"
)

// Source supplies raw table bytes.
type Source interface {
	// ReadTable calls parse with the bytes of table id. raw is only valid
	// until parse returns and must not be retained.
	ReadTable(ctx context.Context, id table.ID, parse func(raw []byte) error) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, id table.ID, parse func(raw []byte) error) error

// ReadTable implements Source.
func (f SourceFunc) ReadTable(ctx context.Context, id table.ID, parse func(raw []byte) error) error {
	return f(ctx, id, parse)
}

// BlobSource reads tables from a BlobStore. Blob names are id.String().
//
// Each read holds an open-file slot of the controller and is charged to its
// IO rate limit. Compressed envelopes are unwrapped transparently; blobs
// that can be memory-mapped are parsed without an intermediate copy.
type BlobSource struct {
	store   blobstore.BlobStore
	rc      *resource.Controller
	maxSize int
}

// NewBlobSource creates a BlobSource. rc may be nil for unlimited access.
func NewBlobSource(store blobstore.BlobStore, rc *resource.Controller) *BlobSource {
	return &BlobSource{store: store, rc: rc, maxSize: table.MaxSize}
}

// ReadTable implements Source.
func (s *BlobSource) ReadTable(ctx context.Context, id table.ID, parse func(raw []byte) error) error {
	release, err := s.rc.AcquireFile(ctx)
	if err != nil {
		return err
	}
	defer release()

	b, err := s.store.Open(ctx, id.String())
	if err != nil {
		return err
	}
	defer b.Close()

	if b.Size() > int64(s.maxSize)+compress.HeaderSize {
		return fmt.Errorf("%w: blob is %d bytes", table.ErrTooLarge, b.Size())
	}

	var raw []byte
	if m, ok := b.(blobstore.Mappable); ok {
		if raw, err = m.Bytes(); err != nil {
			return err
		}
		if err := s.rc.AcquireIO(ctx, len(raw)); err != nil {
			return err
		}
	} else {
		raw = make([]byte, b.Size())
		r := resource.NewRateLimitedReader(ctx, blobstore.NewReader(ctx, b), s.rc)
		if _, err := io.ReadFull(r, raw); err != nil {
			return err
		}
	}

	raw, _, err = compress.Unwrap(raw, s.maxSize)
	if err != nil {
		return err
	}
	return parse(raw)
}
