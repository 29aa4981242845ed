package hash

import (
	"hash"
	"hash/crc32"
)

// castagnoliTable is built once; crc32.IEEETable is provided by the runtime.
var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32 computes the CRC-32/IEEE checksum of data.
// This is the checksum stored in table headers.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoliTable)
}

// NewCRC32 returns a streaming CRC-32/IEEE hash.
func NewCRC32() hash.Hash32 {
	return crc32.NewIEEE()
}
