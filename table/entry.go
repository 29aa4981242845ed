package table

import (
	"fmt"

	"github.com/hupe1980/sctable/internal/coding"
)

// CatalogEntrySize is the encoded width of a CatalogEntry.
const CatalogEntrySize = 24

// CatalogEntry locates one record version inside the data segment.
type CatalogEntry struct {
	KeySeq      uint64
	KeyOffset   uint32
	KeyLength   uint32
	ValueOffset uint32 // bit 31 is the tombstone flag
	ValueLength uint32
}

// IsTombstone reports whether the entry records a deletion.
func (e CatalogEntry) IsTombstone() bool {
	return e.ValueOffset&TombstoneMask != 0
}

// ValueOff returns the value offset without the tombstone flag.
func (e CatalogEntry) ValueOff() uint32 {
	return e.ValueOffset &^ TombstoneMask
}

// AppendTo appends the 24-byte encoding to dst.
func (e CatalogEntry) AppendTo(dst []byte) []byte {
	dst = coding.AppendFixed64(dst, e.KeySeq)
	dst = coding.AppendFixed32(dst, e.KeyOffset)
	dst = coding.AppendFixed32(dst, e.KeyLength)
	dst = coding.AppendFixed32(dst, e.ValueOffset)
	return coding.AppendFixed32(dst, e.ValueLength)
}

// DecodeCatalogEntry decodes exactly CatalogEntrySize bytes.
// It panics on any other length.
func DecodeCatalogEntry(b []byte) CatalogEntry {
	if len(b) != CatalogEntrySize {
		panic(fmt.Sprintf("table: catalog entry must be %d bytes, got %d", CatalogEntrySize, len(b)))
	}
	return CatalogEntry{
		KeySeq:      coding.Fixed64(b[0:8]),
		KeyOffset:   coding.Fixed32(b[8:12]),
		KeyLength:   coding.Fixed32(b[12:16]),
		ValueOffset: coding.Fixed32(b[16:20]),
		ValueLength: coding.Fixed32(b[20:24]),
	}
}

// inBounds reports whether the entry's key and value ranges lie within a data
// segment of dataLen bytes. Sums are 64-bit so they cannot wrap.
func (e CatalogEntry) inBounds(dataLen int) bool {
	return e.keyInBounds(dataLen) && uint64(e.ValueOffset)+uint64(e.ValueLength) <= uint64(dataLen)
}

func (e CatalogEntry) keyInBounds(dataLen int) bool {
	return uint64(e.KeyOffset)+uint64(e.KeyLength) <= uint64(dataLen)
}
