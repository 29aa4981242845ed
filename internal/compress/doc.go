// Package compress wraps stored table bytes in an optional compressed
// envelope.
//
// Envelope layout (little-endian):
//
//	+--------+-------+----------+------------+-----------+---------+
//	| "sczp" | codec | reserved | raw length | raw crc32c| payload |
//	|   4    |   1   |    3     |     4      |     4     |   ...   |
//	+--------+-------+----------+------------+-----------+---------+
//
// The magic read as a little-endian uint32 exceeds any valid catalog size,
// so an envelope can never be mistaken for a bare table and Unwrap passes
// bare tables through untouched.
package compress
