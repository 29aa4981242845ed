package table

import (
	"testing"

	"github.com/hupe1980/sctable/internal/hash"
	"github.com/stretchr/testify/require"
)

type kv struct {
	key   string
	seq   uint64
	value string
	del   bool
}

func buildTable(t *testing.T, records ...kv) []byte {
	t.Helper()
	b := NewBuilder(Bytewise)
	for _, r := range records {
		if r.del {
			b.Delete([]byte(r.key), r.seq)
		} else {
			b.Add([]byte(r.key), r.seq, []byte(r.value))
		}
	}
	raw, err := b.Finish()
	require.NoError(t, err)
	return raw
}

func mustParse(t *testing.T, raw []byte) *Table {
	t.Helper()
	tbl, err := Parse(raw, nil)
	require.NoError(t, err)
	return tbl
}

// rewriteCatalog lets a test edit catalog entries and re-seals both CRCs, so
// the range checks are reached.
func rewriteCatalog(t *testing.T, raw []byte, edit func(entries []CatalogEntry)) []byte {
	t.Helper()
	h := DecodeHeader(raw[:HeaderSize])
	catEnd := HeaderSize + int(h.CatalogSize)

	entries := make([]CatalogEntry, int(h.CatalogSize)/CatalogEntrySize)
	for i := range entries {
		base := HeaderSize + i*CatalogEntrySize
		entries[i] = DecodeCatalogEntry(raw[base : base+CatalogEntrySize])
	}
	edit(entries)

	out := make([]byte, 0, len(raw))
	catalog := make([]byte, 0, h.CatalogSize)
	for _, e := range entries {
		catalog = e.AppendTo(catalog)
	}
	data := raw[catEnd : catEnd+int(h.DataSize)]
	h.CatalogCRC = hash.CRC32(catalog)
	h.DataCRC = hash.CRC32(data)
	out = h.AppendTo(out)
	out = append(out, catalog...)
	out = append(out, data...)
	return append(out, Magic[:]...)
}
