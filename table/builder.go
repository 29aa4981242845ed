package table

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/hupe1980/sctable/internal/hash"
)

type record struct {
	key       []byte
	seq       uint64
	value     []byte
	tombstone bool
}

// Builder assembles a table file from unordered records.
//
// It exists for tooling and tests; the engine's flush and compaction paths
// produce tables with the same layout.
type Builder struct {
	cmp     Comparator
	records []record
}

// NewBuilder returns a Builder ordering keys with c (Bytewise if nil).
func NewBuilder(c Comparator) *Builder {
	if c == nil {
		c = Bytewise
	}
	return &Builder{cmp: c}
}

// Add records value for key at seq.
func (b *Builder) Add(key []byte, seq uint64, value []byte) {
	b.records = append(b.records, record{key: bytes.Clone(key), seq: seq, value: bytes.Clone(value)})
}

// Delete records a tombstone for key at seq.
func (b *Builder) Delete(key []byte, seq uint64) {
	b.records = append(b.records, record{key: bytes.Clone(key), seq: seq, tombstone: true})
}

// Len returns the number of records added.
func (b *Builder) Len() int {
	return len(b.records)
}

// Finish sorts the records and encodes the table.
func (b *Builder) Finish() ([]byte, error) {
	slices.SortFunc(b.records, func(x, y record) int {
		return CompareInternal(b.cmp, InternalKey{UserKey: x.key, Seq: x.seq}, InternalKey{UserKey: y.key, Seq: y.seq})
	})

	var dataSize int
	for i, r := range b.records {
		if i > 0 && b.cmp.Compare(b.records[i-1].key, r.key) == 0 && b.records[i-1].seq == r.seq {
			return nil, fmt.Errorf("%w: %q@%d", ErrDuplicateKey, r.key, r.seq)
		}
		dataSize += len(r.key) + len(r.value)
	}

	catalogSize := len(b.records) * CatalogEntrySize
	if dataSize > MaxDataSize || MinSize+catalogSize+dataSize > MaxSize {
		return nil, ErrTooLarge
	}

	catalog := make([]byte, 0, catalogSize)
	data := make([]byte, 0, dataSize)
	for _, r := range b.records {
		e := CatalogEntry{
			KeySeq:    r.seq,
			KeyOffset: uint32(len(data)),
			KeyLength: uint32(len(r.key)),
		}
		data = append(data, r.key...)
		if r.tombstone {
			e.ValueOffset = TombstoneMask
		} else {
			e.ValueOffset = uint32(len(data))
			e.ValueLength = uint32(len(r.value))
			data = append(data, r.value...)
		}
		catalog = e.AppendTo(catalog)
	}

	h := Header{
		CatalogSize: uint32(len(catalog)),
		DataSize:    uint32(len(data)),
		CatalogCRC:  hash.CRC32(catalog),
		DataCRC:     hash.CRC32(data),
	}

	out := make([]byte, 0, MinSize+len(catalog)+len(data))
	out = h.AppendTo(out)
	out = append(out, catalog...)
	out = append(out, data...)
	return append(out, Magic[:]...), nil
}
