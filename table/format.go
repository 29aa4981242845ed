package table

import (
	"github.com/hupe1980/sctable/internal/coding"
)

// Table file layout:
//
//	+----------------------------------------------------------------+
//	| catalog_size u32 | data_size u32 | catalog_crc u32 | data_crc u32 |
//	+----------------------------------------------------------------+
//	| catalog: catalog_size bytes, CatalogEntrySize-byte entries       |
//	+----------------------------------------------------------------+
//	| data: data_size bytes of key/value payloads                      |
//	+----------------------------------------------------------------+
//	| magic: MagicSize bytes                                           |
//	+----------------------------------------------------------------+
//
// All integers are little-endian. Checksums are CRC-32/IEEE.
const (
	// HeaderSize is the size of the fixed table header.
	HeaderSize = 16
	// MagicSize is the size of the trailer.
	MagicSize = 8
	// MinSize is the size of a table with no entries.
	MinSize = HeaderSize + MagicSize
	// MaxSize bounds the size of a table file.
	MaxSize = 1 << 30

	// TombstoneMask marks a catalog entry as a deletion when set in ValueOffset.
	TombstoneMask uint32 = 1 << 31
	// MaxDataSize is the largest data segment a value offset can address.
	MaxDataSize = int(TombstoneMask - 1)
)

// Magic is the trailer of every table file.
var Magic = [MagicSize]byte{'s', 'c', 't', 'a', 'b', 'l', 'e', '1'}

// Header is the fixed-size table header.
type Header struct {
	CatalogSize uint32
	DataSize    uint32
	CatalogCRC  uint32
	DataCRC     uint32
}

// AppendTo appends the encoded header to dst.
func (h Header) AppendTo(dst []byte) []byte {
	dst = coding.AppendFixed32(dst, h.CatalogSize)
	dst = coding.AppendFixed32(dst, h.DataSize)
	dst = coding.AppendFixed32(dst, h.CatalogCRC)
	return coding.AppendFixed32(dst, h.DataCRC)
}

// DecodeHeader decodes a HeaderSize-byte slice.
func DecodeHeader(b []byte) Header {
	if len(b) != HeaderSize {
		panic("table: header must be 16 bytes")
	}
	return Header{
		CatalogSize: coding.Fixed32(b[0:4]),
		DataSize:    coding.Fixed32(b[4:8]),
		CatalogCRC:  coding.Fixed32(b[8:12]),
		DataCRC:     coding.Fixed32(b[12:16]),
	}
}
