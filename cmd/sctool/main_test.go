package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sctable/internal/compress"
	"github.com/hupe1980/sctable/table"
)

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	b := table.NewBuilder(nil)
	b.Add([]byte("apple"), 2, []byte("red"))
	b.Add([]byte("apple"), 1, []byte("green"))
	b.Delete([]byte("kiwi"), 3)
	raw, err := b.Finish()
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "L0"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "L0", "000001.sct"), raw, 0o600))

	raw[len(raw)-1] ^= 0xff
	require.NoError(t, os.WriteFile(filepath.Join(dir, "L0", "000002.sct"), raw, 0o600))
	return dir
}

func sctool(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut, func(string) string { return "" })
	return code, out.String(), errOut.String()
}

func TestVerify(t *testing.T) {
	dir := setup(t)

	code, out, _ := sctool(t, "--root", dir, "verify", "L0/000001.sct")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "L0/000001.sct\tOK")

	code, out, errOut := sctool(t, "--root", dir, "verify", "L0/000001.sct", "L0/000002.sct")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "L0/000002.sct\tFAIL")
	assert.Contains(t, out, "incorrect table magic")
	assert.Contains(t, errOut, "1 of 2 tables failed")
}

func TestStatAndDump(t *testing.T) {
	dir := setup(t)

	code, out, _ := sctool(t, "--root", dir, "stat", "L0/000001.sct")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "ENTRIES")
	assert.Contains(t, out, `"apple"@2`)
	assert.Contains(t, out, `"kiwi"@3`)

	code, out, _ = sctool(t, "--root", dir, "dump", "L0/000001.sct")
	require.Equal(t, 0, code)
	assert.Equal(t, "0\t\"apple\"\t@2\t\"red\"\n1\t\"apple\"\t@1\t\"green\"\n2\t\"kiwi\"\t@3\t<deleted>\n", out)

	code, out, _ = sctool(t, "--root", dir, "dump", "-n", "1", "L0/000001.sct")
	require.Equal(t, 0, code)
	assert.Equal(t, "0\t\"apple\"\t@2\t\"red\"\n", out)
}

func TestGet(t *testing.T) {
	dir := setup(t)

	code, out, _ := sctool(t, "--root", dir, "get", "L0/000001.sct", "apple")
	require.Equal(t, 0, code)
	assert.Equal(t, "\"red\"\t@2\n", out)

	code, out, _ = sctool(t, "--root", dir, "get", "--seq", "1", "L0/000001.sct", "apple")
	require.Equal(t, 0, code)
	assert.Equal(t, "\"green\"\t@1\n", out)

	code, _, errOut := sctool(t, "--root", dir, "get", "L0/000001.sct", "kiwi")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")

	code, _, _ = sctool(t, "--root", dir, "get", "--seq", "x", "L0/000001.sct", "apple")
	assert.Equal(t, 2, code)
}

func TestPack(t *testing.T) {
	dir := setup(t)

	code, out, _ := sctool(t, "--root", dir, "pack", "--codec", "lz4", "L0/000001.sct")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "lz4")

	data, err := os.ReadFile(filepath.Join(dir, "L0", "000001.sct"))
	require.NoError(t, err)
	assert.True(t, compress.IsEnvelope(data))

	// Packed tables still read transparently.
	code, out, _ = sctool(t, "--root", dir, "get", "L0/000001.sct", "apple")
	require.Equal(t, 0, code)
	assert.Equal(t, "\"red\"\t@2\n", out)

	code, _, _ = sctool(t, "--root", dir, "pack", "L0/000002.sct")
	assert.Equal(t, 1, code)
}

func TestList(t *testing.T) {
	dir := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o600))

	code, out, _ := sctool(t, "--root", dir, "ls")
	require.Equal(t, 0, code)
	assert.Equal(t, "L0/000001.sct\nL0/000002.sct\n", out)
}

func TestUsageErrors(t *testing.T) {
	code, out, _ := sctool(t)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Commands:")

	code, _, _ = sctool(t, "frobnicate")
	assert.Equal(t, 2, code)

	code, _, _ = sctool(t, "verify", "not-a-table")
	assert.Equal(t, 2, code)

	code, _, _ = sctool(t, "--store", "s3", "ls")
	assert.Equal(t, 2, code)

	code, _, _ = sctool(t, "--store", "ftp", "ls")
	assert.Equal(t, 2, code)
}
