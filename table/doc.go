// Package table implements the immutable sorted table file: its binary
// format, the validating parser, and lookups over a parsed table.
//
// # Format
//
// A table is a 16-byte header, a catalog of fixed 24-byte entries, a data
// segment and an 8-byte magic trailer. Each catalog entry points at a key and
// a value inside the data segment; bit 31 of the value offset marks a
// tombstone. The catalog and data segments are each protected by CRC-32.
//
// # Ordering
//
// Catalog entries are sorted by CompareInternal: user key ascending under the
// table's Comparator, then sequence number descending. The newest version of
// a key therefore comes first among its versions.
//
// # Lookups
//
// Get is an exact match on (user key, sequence). GetVisible is a snapshot
// read returning the newest version at or below a sequence number:
//
//	t, err := table.Parse(raw, permit)
//	if err != nil {
//	    return err // errors.Is(err, table.ErrCorrupt)
//	}
//	v, ok := t.Get(table.Bytewise, table.InternalKey{UserKey: k, Seq: 7})
//	v, seq, ok := t.GetVisible(table.Bytewise, table.InternalKey{UserKey: k, Seq: 5})
//
// NthItem and All expose the catalog in order for merge and compaction.
package table
