// Package coding provides the fixed-width integer primitives used by the
// table file format.
//
// All integers are little-endian. Decoders are total over correctly sized
// input and panic otherwise: a wrongly sized slice is a caller bug, never a
// property of the data being decoded. Structural validation of untrusted bytes
// happens one layer up, in package table.
package coding
