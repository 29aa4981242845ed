package table

import (
	"bytes"
	"fmt"
	"iter"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/sctable/internal/hash"
	"github.com/hupe1980/sctable/internal/resource"
)

// Table is a parsed, validated table held in memory.
//
// A Table is immutable after Parse and safe for concurrent readers without
// locking. Slices returned by NthItem and All alias the table's buffer and
// must not be modified.
type Table struct {
	header     Header
	catalog    []CatalogEntry
	data       []byte
	tombstones *roaring.Bitmap
	permit     *resource.Permit
}

// Item is one catalog entry resolved against the data segment.
type Item struct {
	Seq       uint64
	Key       []byte
	Value     []byte // nil for tombstones
	Tombstone bool
}

// Parse validates raw table bytes and builds a Table that owns permit.
//
// Validation stops at the first failure and returns a *CorruptionError; no
// partially loaded table is ever returned. On error the caller still owns
// permit. raw is not retained, so it may be a memory-mapped region.
// permit may be nil for tables that are not tracked by a cache.
func Parse(raw []byte, permit *resource.Permit, optFns ...ParseOption) (*Table, error) {
	o := parseOptions{maxSize: MaxSize}
	for _, fn := range optFns {
		fn(&o)
	}

	if len(raw) < MinSize {
		return nil, corrupt("too small to be a table file")
	}
	if len(raw) > o.maxSize {
		return nil, corrupt("too large to be a table file")
	}

	if !bytes.Equal(raw[len(raw)-MagicSize:], Magic[:]) {
		return nil, corrupt("incorrect table magic")
	}

	h := DecodeHeader(raw[:HeaderSize])

	if h.CatalogSize%CatalogEntrySize != 0 {
		return nil, corrupt(fmt.Sprintf("catalog size %d is not a multiple of %d", h.CatalogSize, CatalogEntrySize))
	}

	if uint64(h.CatalogSize)+uint64(h.DataSize)+MinSize != uint64(len(raw)) {
		return nil, corrupt("incorrect table size")
	}

	catalogEnd := HeaderSize + int(h.CatalogSize)
	rawCatalog := raw[HeaderSize:catalogEnd]
	rawData := raw[catalogEnd : catalogEnd+int(h.DataSize)]

	if hash.CRC32(rawCatalog) != h.CatalogCRC {
		return nil, corrupt("incorrect catalog crc")
	}
	if hash.CRC32(rawData) != h.DataCRC {
		return nil, corrupt("incorrect data crc")
	}

	n := int(h.CatalogSize) / CatalogEntrySize
	catalog := make([]CatalogEntry, n)
	tombstones := roaring.New()
	for i := range n {
		base := i * CatalogEntrySize
		e := DecodeCatalogEntry(rawCatalog[base : base+CatalogEntrySize])
		// Tombstones carry no payload and are not range checked.
		if e.IsTombstone() {
			tombstones.Add(uint32(i))
		} else if !e.inBounds(len(rawData)) {
			return nil, corrupt(fmt.Sprintf("entry %d: key/value range out of bounds", i))
		}
		catalog[i] = e
	}
	tombstones.RunOptimize()

	return &Table{
		header:     h,
		catalog:    catalog,
		data:       bytes.Clone(rawData),
		tombstones: tombstones,
		permit:     permit,
	}, nil
}

// ParseOption configures Parse.
type ParseOption func(*parseOptions)

type parseOptions struct {
	maxSize int
}

// WithMaxSize lowers the largest accepted table size. Values <= 0 or above
// MaxSize are ignored.
func WithMaxSize(n int) ParseOption {
	return func(o *parseOptions) {
		if n > 0 && n < MaxSize {
			o.maxSize = n
		}
	}
}

// Close releases the table's permit. It is idempotent.
// The cache calls Close once the table is evicted and no handle remains.
func (t *Table) Close() error {
	t.permit.Release()
	return nil
}

// Get returns a copy of the value stored under exactly key (user key and
// sequence number). A tombstone or a missing key yields ok=false.
// A nil comparator means Bytewise.
func (t *Table) Get(c Comparator, key InternalKey) (value []byte, ok bool) {
	i, found := t.search(c, key)
	if !found {
		return nil, false
	}
	e := t.catalog[i]
	if e.IsTombstone() {
		return nil, false
	}
	return bytes.Clone(t.value(e)), true
}

// GetVisible returns a copy of the newest version of key.UserKey whose
// sequence number is <= key.Seq. If that version is a tombstone, ok=false.
func (t *Table) GetVisible(c Comparator, key InternalKey) (value []byte, seq uint64, ok bool) {
	if c == nil {
		c = Bytewise
	}
	i, _ := t.search(c, key)
	if i >= len(t.catalog) {
		return nil, 0, false
	}
	e := t.catalog[i]
	if c.Compare(t.key(e), key.UserKey) != 0 || e.IsTombstone() {
		return nil, 0, false
	}
	return bytes.Clone(t.value(e)), e.KeySeq, true
}

// search returns the position of key in the catalog, or where it would be
// inserted. The catalog element is always the left operand of
// CompareInternal, matching the order the catalog was sorted in.
func (t *Table) search(c Comparator, key InternalKey) (int, bool) {
	if c == nil {
		c = Bytewise
	}
	return slices.BinarySearchFunc(t.catalog, key, func(e CatalogEntry, target InternalKey) int {
		return CompareInternal(c, InternalKey{UserKey: t.key(e), Seq: e.KeySeq}, target)
	})
}

// CatalogSize returns the number of catalog entries.
func (t *Table) CatalogSize() int {
	return len(t.catalog)
}

// NthItem returns the n-th catalog entry in catalog order. The value is nil
// for tombstones. It panics unless 0 <= n < CatalogSize().
func (t *Table) NthItem(n int) (seq uint64, key, value []byte) {
	it := t.Item(n)
	return it.Seq, it.Key, it.Value
}

// Item returns the n-th catalog entry. It panics unless 0 <= n < CatalogSize().
func (t *Table) Item(n int) Item {
	if n < 0 || n >= len(t.catalog) {
		panic(fmt.Sprintf("table: index %d out of range [0, %d)", n, len(t.catalog)))
	}
	e := t.catalog[n]
	it := Item{Seq: e.KeySeq, Key: t.key(e), Tombstone: e.IsTombstone()}
	if !it.Tombstone {
		it.Value = t.value(e)
	}
	return it
}

// IsTombstone reports whether the n-th entry is a deletion.
func (t *Table) IsTombstone(n int) bool {
	return t.tombstones.Contains(uint32(n))
}

// All iterates the catalog in order.
func (t *Table) All() iter.Seq2[int, Item] {
	return func(yield func(int, Item) bool) {
		for i := range t.catalog {
			if !yield(i, t.Item(i)) {
				return
			}
		}
	}
}

// Tombstones returns a copy of the set of tombstone catalog indices.
func (t *Table) Tombstones() *roaring.Bitmap {
	return t.tombstones.Clone()
}

// TombstoneCount returns the number of tombstone entries.
func (t *Table) TombstoneCount() int {
	return int(t.tombstones.GetCardinality())
}

// SmallestKey returns the first internal key in catalog order.
func (t *Table) SmallestKey() (InternalKey, bool) {
	if len(t.catalog) == 0 {
		return InternalKey{}, false
	}
	e := t.catalog[0]
	return InternalKey{UserKey: t.key(e), Seq: e.KeySeq}, true
}

// LargestKey returns the last internal key in catalog order.
func (t *Table) LargestKey() (InternalKey, bool) {
	if len(t.catalog) == 0 {
		return InternalKey{}, false
	}
	e := t.catalog[len(t.catalog)-1]
	return InternalKey{UserKey: t.key(e), Seq: e.KeySeq}, true
}

// Header returns the decoded file header.
func (t *Table) Header() Header {
	return t.header
}

// DataSize returns the size of the in-memory data segment.
func (t *Table) DataSize() int {
	return len(t.data)
}

// key returns nil for a tombstone whose key range lies outside the data
// segment.
func (t *Table) key(e CatalogEntry) []byte {
	if !e.keyInBounds(len(t.data)) {
		return nil
	}
	end := uint64(e.KeyOffset) + uint64(e.KeyLength)
	return t.data[e.KeyOffset:end:end]
}

func (t *Table) value(e CatalogEntry) []byte {
	off := e.ValueOff()
	return t.data[off : off+e.ValueLength : off+e.ValueLength]
}
