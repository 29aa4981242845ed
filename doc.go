// Package sctable is the read path of an LSM table store.
//
// Tables are immutable sorted files of (user key, sequence number) records.
// A Reader loads them on demand from a Source, validates their structure
// and checksums, and keeps a bounded number resident in an LRU cache.
//
// # Quick Start
//
//	store := blobstore.NewLocalStore("./data")
//	r, err := sctable.OpenBlobStore(store, sctable.DefaultOptions())
//	if err != nil { ... }
//	defer r.Close()
//
//	id := table.ID{Level: 0, Number: 42}
//	v, err := r.Get(ctx, id, []byte("user:1"), 7)
//
// # Resource Model
//
// Options.CacheCount is both the LRU capacity and the number of admission
// permits. Every resident table owns one permit. A table that is evicted
// while pinned by a TableHandle keeps its permit until the last handle is
// released, so the number of parsed tables in memory never exceeds
// CacheCount. When all permits are pinned, loads wait.
//
// # Table Format
//
// See package table for the on-disk layout. Blobs may additionally be
// wrapped in a zstd or lz4 envelope; BlobSource unwraps it.
package sctable
