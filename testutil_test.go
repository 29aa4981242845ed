package sctable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sctable/blobstore"
	"github.com/hupe1980/sctable/table"
)

type kv struct {
	key   string
	seq   uint64
	value string
}

// tomb marks a kv as a deletion.
const tomb = "\x00tombstone"

func buildTable(t testing.TB, kvs ...kv) []byte {
	t.Helper()
	b := table.NewBuilder(nil)
	for _, e := range kvs {
		if e.value == tomb {
			b.Delete([]byte(e.key), e.seq)
			continue
		}
		b.Add([]byte(e.key), e.seq, []byte(e.value))
	}
	raw, err := b.Finish()
	require.NoError(t, err)
	return raw
}

func putTable(t testing.TB, store blobstore.BlobStore, id table.ID, kvs ...kv) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), id.String(), buildTable(t, kvs...)))
}

func testOptions(cacheCount int) Options {
	opts := DefaultOptions()
	opts.CacheCount = cacheCount
	return opts
}
