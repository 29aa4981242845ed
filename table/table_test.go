package table

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ikey(k string, seq uint64) InternalKey {
	return InternalKey{UserKey: []byte(k), Seq: seq}
}

func TestTable_Get(t *testing.T) {
	tbl := mustParse(t, buildTable(t,
		kv{key: "K1", seq: 10, value: "a"},
		kv{key: "K2", seq: 7, value: "b"},
		kv{key: "K2", seq: 3, value: "c"},
	))

	// Catalog order: user key ascending, newest first within a key.
	var order []string
	for _, it := range tbl.All() {
		order = append(order, fmt.Sprintf("%s@%d", it.Key, it.Seq))
	}
	assert.Equal(t, []string{"K1@10", "K2@7", "K2@3"}, order)

	v, ok := tbl.Get(Bytewise, ikey("K2", 7))
	require.True(t, ok)
	assert.Equal(t, "b", string(v))

	v, ok = tbl.Get(Bytewise, ikey("K2", 3))
	require.True(t, ok)
	assert.Equal(t, "c", string(v))

	v, ok = tbl.Get(Bytewise, ikey("K1", 10))
	require.True(t, ok)
	assert.Equal(t, "a", string(v))

	// Get is an exact match: there is no entry at seq 5.
	_, ok = tbl.Get(Bytewise, ikey("K2", 5))
	assert.False(t, ok)

	_, ok = tbl.Get(Bytewise, ikey("K0", 10))
	assert.False(t, ok)
	_, ok = tbl.Get(Bytewise, ikey("K3", 1))
	assert.False(t, ok)

	// nil comparator defaults to bytewise
	v, ok = tbl.Get(nil, ikey("K2", 7))
	require.True(t, ok)
	assert.Equal(t, "b", string(v))
}

func TestTable_GetVisible(t *testing.T) {
	tbl := mustParse(t, buildTable(t,
		kv{key: "K1", seq: 10, value: "a"},
		kv{key: "K2", seq: 7, value: "b"},
		kv{key: "K2", seq: 3, value: "c"},
	))

	tests := []struct {
		key     InternalKey
		want    string
		wantSeq uint64
		ok      bool
	}{
		{key: ikey("K2", 5), want: "c", wantSeq: 3, ok: true},
		{key: ikey("K2", 7), want: "b", wantSeq: 7, ok: true},
		{key: ikey("K2", 100), want: "b", wantSeq: 7, ok: true},
		{key: ikey("K2", 2), ok: false},
		{key: ikey("K1", 9), ok: false},
		{key: ikey("K1", 10), want: "a", wantSeq: 10, ok: true},
		{key: ikey("K15", 10), ok: false},
		{key: ikey("K9", 10), ok: false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s@%d", tt.key.UserKey, tt.key.Seq), func(t *testing.T) {
			v, seq, ok := tbl.GetVisible(Bytewise, tt.key)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, string(v))
				assert.Equal(t, tt.wantSeq, seq)
			}
		})
	}
}

func TestTable_Tombstone(t *testing.T) {
	tbl := mustParse(t, buildTable(t,
		kv{key: "K", seq: 5, del: true},
		kv{key: "K", seq: 3, value: "v"},
	))

	_, ok := tbl.Get(Bytewise, ikey("K", 5))
	assert.False(t, ok)

	v, ok := tbl.Get(Bytewise, ikey("K", 3))
	require.True(t, ok)
	assert.Equal(t, "v", string(v))

	_, _, ok = tbl.GetVisible(Bytewise, ikey("K", 6))
	assert.False(t, ok, "the newest visible version is a deletion")

	v, _, ok = tbl.GetVisible(Bytewise, ikey("K", 4))
	require.True(t, ok)
	assert.Equal(t, "v", string(v))

	assert.True(t, tbl.IsTombstone(0))
	assert.False(t, tbl.IsTombstone(1))
	assert.Equal(t, []uint32{0}, tbl.Tombstones().ToArray())
}

func TestTable_GetReturnsCopy(t *testing.T) {
	tbl := mustParse(t, buildTable(t, kv{key: "k", seq: 1, value: "value"}))

	v, ok := tbl.Get(Bytewise, ikey("k", 1))
	require.True(t, ok)
	v[0] = 'X'

	v2, _ := tbl.Get(Bytewise, ikey("k", 1))
	assert.Equal(t, "value", string(v2))
}

func TestTable_NthItem(t *testing.T) {
	records := []kv{
		{key: "a", seq: 1, value: "1"},
		{key: "b", seq: 2, del: true},
		{key: "c", seq: 3, value: ""},
		{key: "c", seq: 2, value: "2"},
	}
	tbl := mustParse(t, buildTable(t, records...))

	type row struct {
		Seq   uint64
		Key   string
		Value []byte
	}
	var got []row
	for i := range tbl.CatalogSize() {
		seq, k, v := tbl.NthItem(i)
		got = append(got, row{seq, string(k), v})
	}
	want := []row{
		{1, "a", []byte("1")},
		{2, "b", nil},
		{3, "c", []byte{}},
		{2, "c", []byte("2")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NthItem mismatch (-want +got):\n%s", diff)
	}

	assert.Panics(t, func() { tbl.NthItem(-1) })
	assert.Panics(t, func() { tbl.NthItem(tbl.CatalogSize()) })
}

func TestTable_SequentialScanReproducesInput(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	b := NewBuilder(Bytewise)

	type version struct {
		key   string
		seq   uint64
		value string
		del   bool
	}
	var input []version
	for i := range 500 {
		v := version{key: fmt.Sprintf("key-%03d", rng.IntN(120)), seq: uint64(i + 1)}
		if rng.IntN(5) == 0 {
			v.del = true
			b.Delete([]byte(v.key), v.seq)
		} else {
			v.value = fmt.Sprintf("val-%d", i)
			b.Add([]byte(v.key), v.seq, []byte(v.value))
		}
		input = append(input, v)
	}
	raw, err := b.Finish()
	require.NoError(t, err)
	tbl := mustParse(t, raw)
	require.Equal(t, len(input), tbl.CatalogSize())

	seen := make(map[uint64]int)
	var prev *InternalKey
	for i, it := range tbl.All() {
		seen[it.Seq]++
		cur := InternalKey{UserKey: it.Key, Seq: it.Seq}
		if prev != nil {
			require.Negative(t, CompareInternal(Bytewise, *prev, cur), "entry %d out of order", i)
		}
		prev = &cur

		in := input[it.Seq-1]
		assert.Equal(t, in.key, string(it.Key))
		assert.Equal(t, in.del, it.Tombstone)
		if !in.del {
			assert.Equal(t, in.value, string(it.Value))
		}
	}
	for _, v := range input {
		assert.Equal(t, 1, seen[v.seq], "seq %d", v.seq)
	}
	assert.Equal(t, tbl.Tombstones().GetCardinality(), uint64(tbl.TombstoneCount()))
}

// Every inserted version must be found by an exact lookup regardless of how
// keys are distributed. A search predicate with its operands mirrored relative
// to the catalog sort order passes on small or uniform tables and fails here.
func TestTable_GetFindsEveryEntry_SkewedDistributions(t *testing.T) {
	distributions := map[string]func(rng *rand.Rand, i int) string{
		"uniform":    func(rng *rand.Rand, _ int) string { return fmt.Sprintf("%08d", rng.IntN(1_000_000)) },
		"hot key":    func(rng *rand.Rand, _ int) string { return fmt.Sprintf("k%d", min(rng.IntN(50), 3)) },
		"ascending":  func(_ *rand.Rand, i int) string { return fmt.Sprintf("%06d", i/4) },
		"single key": func(_ *rand.Rand, _ int) string { return "only" },
		"prefixes":   func(rng *rand.Rand, _ int) string { return string(bytes.Repeat([]byte("a"), 1+rng.IntN(40))) },
	}

	for name, gen := range distributions {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(42, uint64(len(name))))
			b := NewBuilder(Bytewise)
			type version struct {
				key string
				seq uint64
			}
			var versions []version
			for i := range 1000 {
				v := version{key: gen(rng, i), seq: uint64(i + 1)}
				versions = append(versions, v)
				b.Add([]byte(v.key), v.seq, []byte(fmt.Sprint(v.seq)))
			}
			raw, err := b.Finish()
			require.NoError(t, err)
			tbl := mustParse(t, raw)

			for _, v := range versions {
				got, ok := tbl.Get(Bytewise, ikey(v.key, v.seq))
				require.True(t, ok, "%s@%d not found", v.key, v.seq)
				require.Equal(t, fmt.Sprint(v.seq), string(got))

				// A sequence number that was never written for this key misses.
				_, ok = tbl.Get(Bytewise, ikey(v.key, v.seq+100_000))
				require.False(t, ok)
			}
		})
	}
}

type reverse struct{}

func (reverse) Compare(a, b []byte) int { return bytes.Compare(b, a) }
func (reverse) Name() string            { return "reverse" }

func TestTable_CustomComparator(t *testing.T) {
	b := NewBuilder(reverse{})
	for i, k := range []string{"a", "c", "b"} {
		b.Add([]byte(k), uint64(i+1), []byte(k))
	}
	raw, err := b.Finish()
	require.NoError(t, err)
	tbl := mustParse(t, raw)

	var keys []string
	for _, it := range tbl.All() {
		keys = append(keys, string(it.Key))
	}
	assert.Equal(t, []string{"c", "b", "a"}, keys)

	for i, k := range []string{"a", "c", "b"} {
		v, ok := tbl.Get(reverse{}, ikey(k, uint64(i+1)))
		require.True(t, ok, k)
		assert.Equal(t, k, string(v))
	}

	small, _ := tbl.SmallestKey()
	large, _ := tbl.LargestKey()
	assert.Equal(t, "c", string(small.UserKey))
	assert.Equal(t, "a", string(large.UserKey))
}

func TestTable_AllStopsEarly(t *testing.T) {
	tbl := mustParse(t, buildTable(t, kv{key: "a", seq: 1}, kv{key: "b", seq: 1}, kv{key: "c", seq: 1}))
	n := 0
	for range tbl.All() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestCompareInternal(t *testing.T) {
	keys := []InternalKey{ikey("b", 1), ikey("a", 1), ikey("b", 9), ikey("a", 5), ikey("c", 0)}
	slices.SortFunc(keys, func(x, y InternalKey) int { return CompareInternal(Bytewise, x, y) })

	var got []string
	for _, k := range keys {
		got = append(got, fmt.Sprintf("%s@%d", k.UserKey, k.Seq))
	}
	assert.Equal(t, []string{"a@5", "a@1", "b@9", "b@1", "c@0"}, got)

	assert.Equal(t, 0, CompareInternal(Bytewise, ikey("x", 3), ikey("x", 3)))
	assert.Equal(t, -1, CompareInternal(Bytewise, ikey("x", 4), ikey("x", 3)))
	assert.Equal(t, 1, CompareInternal(Bytewise, ikey("x", 3), ikey("x", 4)))
}
