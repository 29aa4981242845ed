// Package hash provides the checksums used for data integrity.
//
// # Table checksums
//
// Table files protect their catalog and data segments with CRC-32 using the
// IEEE polynomial. The polynomial is part of the on-disk format and must not
// change:
//
//	sum := hash.CRC32(segment)
//
// # Envelope checksums
//
// The compressed envelope around stored table bytes uses CRC32-Castagnoli,
// which Go accelerates with SSE4.2 / ARM CRC instructions:
//
//	sum := hash.CRC32C(payload)
package hash
