package table

import (
	"bytes"
	"cmp"
)

// Comparator is a total order over user keys.
//
// The same comparator must be used to build a table and to read it.
type Comparator interface {
	// Compare returns -1, 0 or +1 when a is less than, equal to or greater than b.
	Compare(a, b []byte) int
	// Name identifies the order.
	Name() string
}

type bytewise struct{}

func (bytewise) Compare(a, b []byte) int { return bytes.Compare(a, b) }
func (bytewise) Name() string            { return "bytewise" }

// Bytewise orders keys lexicographically by byte value.
var Bytewise Comparator = bytewise{}

// InternalKey is a user key at a sequence number.
type InternalKey struct {
	UserKey []byte
	Seq     uint64
}

// CompareInternal orders internal keys by user key ascending under c, then by
// sequence number descending, so the newest version of a key sorts first.
//
// Catalogs are sorted ascending by this function and searched with the
// catalog element as a and the lookup key as b.
func CompareInternal(c Comparator, a, b InternalKey) int {
	if r := c.Compare(a.UserKey, b.UserKey); r != 0 {
		return r
	}
	return cmp.Compare(b.Seq, a.Seq)
}
