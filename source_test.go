package sctable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sctable/blobstore"
	"github.com/hupe1980/sctable/internal/compress"
	"github.com/hupe1980/sctable/internal/resource"
	"github.com/hupe1980/sctable/table"
)

func TestBlobSource_ReadTable(t *testing.T) {
	raw := buildTable(t, kv{"a", 1, "x"}, kv{"b", 1, "y"})
	id := table.ID{Level: 1, Number: 3}

	for _, tc := range []struct {
		name  string
		store blobstore.BlobStore
		codec compress.Codec
	}{
		{"memory", blobstore.NewMemoryStore(), compress.None},
		{"local mmap", blobstore.NewLocalStore(t.TempDir()), compress.None},
		{"local zstd", blobstore.NewLocalStore(t.TempDir()), compress.Zstd},
		{"memory lz4", blobstore.NewMemoryStore(), compress.LZ4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data := raw
			if tc.codec != compress.None {
				var err error
				data, err = compress.Wrap(raw, tc.codec)
				require.NoError(t, err)
			}
			require.NoError(t, tc.store.Put(context.Background(), id.String(), data))

			rc := resource.NewController(resource.Config{MaxOpenFiles: 1, IOLimitBytesPerSec: 1 << 20})
			src := NewBlobSource(tc.store, rc)

			var got []byte
			err := src.ReadTable(context.Background(), id, func(b []byte) error {
				assert.Equal(t, int64(1), rc.FilesOpen())
				got = append([]byte(nil), b...)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, raw, got)
			assert.Equal(t, int64(0), rc.FilesOpen())
		})
	}
}

func TestBlobSource_Missing(t *testing.T) {
	src := NewBlobSource(blobstore.NewMemoryStore(), nil)
	err := src.ReadTable(context.Background(), table.ID{Number: 1}, func([]byte) error { return nil })
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestBlobSource_CorruptEnvelope(t *testing.T) {
	raw := buildTable(t, kv{"a", 1, "x"})
	env, err := compress.Wrap(raw, compress.None)
	require.NoError(t, err)
	env[len(env)-1] ^= 0xff

	store := blobstore.NewMemoryStore()
	id := table.ID{Number: 2}
	require.NoError(t, store.Put(context.Background(), id.String(), env))

	err = NewBlobSource(store, nil).ReadTable(context.Background(), id, func([]byte) error {
		t.Fatal("parse must not run on a corrupt envelope")
		return nil
	})
	assert.ErrorIs(t, err, compress.ErrCorrupt)
}

func TestBlobSource_ClosedController(t *testing.T) {
	rc := resource.NewController(resource.Config{MaxOpenFiles: 2})
	require.NoError(t, rc.Close())

	err := NewBlobSource(blobstore.NewMemoryStore(), rc).ReadTable(context.Background(), table.ID{}, func([]byte) error { return nil })
	assert.ErrorIs(t, err, resource.ErrClosed)
}
