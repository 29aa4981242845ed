package coding

import (
	"encoding/binary"
	"fmt"
)

const (
	// Fixed32Size is the encoded width of a fixed32 value.
	Fixed32Size = 4
	// Fixed64Size is the encoded width of a fixed64 value.
	Fixed64Size = 8
)

// PutFixed32 writes v into dst, which must be exactly 4 bytes.
func PutFixed32(dst []byte, v uint32) {
	mustLen(dst, Fixed32Size)
	binary.LittleEndian.PutUint32(dst, v)
}

// PutFixed64 writes v into dst, which must be exactly 8 bytes.
func PutFixed64(dst []byte, v uint64) {
	mustLen(dst, Fixed64Size)
	binary.LittleEndian.PutUint64(dst, v)
}

// AppendFixed32 appends the encoding of v to dst.
func AppendFixed32(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

// AppendFixed64 appends the encoding of v to dst.
func AppendFixed64(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

// Fixed32 decodes a 4-byte slice.
func Fixed32(b []byte) uint32 {
	mustLen(b, Fixed32Size)
	return binary.LittleEndian.Uint32(b)
}

// Fixed64 decodes an 8-byte slice.
func Fixed64(b []byte) uint64 {
	mustLen(b, Fixed64Size)
	return binary.LittleEndian.Uint64(b)
}

func mustLen(b []byte, n int) {
	if len(b) != n {
		panic(fmt.Sprintf("coding: expected %d bytes, got %d", n, len(b)))
	}
}
