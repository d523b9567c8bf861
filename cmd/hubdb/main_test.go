package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--path", dir, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPutGetDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hub")

	_, err := run(t, dir, "put", "greeting", "hello")
	require.NoError(t, err)

	out, err := run(t, dir, "get", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	_, err = run(t, dir, "del", "greeting")
	require.NoError(t, err)

	_, err = run(t, dir, "get", "greeting")
	assert.ErrorContains(t, err, "not_found")
}

func TestHexKeys(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hub")

	_, err := run(t, dir, "--hex", "put", "0x0102", "ff00")
	require.NoError(t, err)

	out, err := run(t, dir, "--hex", "get", "0102")
	require.NoError(t, err)
	assert.Equal(t, "0xff00\n", out)

	_, err = run(t, dir, "--hex", "get", "zz")
	assert.ErrorContains(t, err, "invalid hex")
}

func TestCommitAndScan(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hub")

	_, err := run(t, dir, "commit", "u/a=1", "u/b=2", "u/c=3", "v/a=4")
	require.NoError(t, err)
	_, err = run(t, dir, "commit", "u/b=")
	require.NoError(t, err)

	out, err := run(t, dir, "scan", "--prefix", "u/")
	require.NoError(t, err)
	assert.Contains(t, out, "u/a")
	assert.NotContains(t, out, "u/b")
	assert.Contains(t, out, "u/c")
	assert.NotContains(t, out, "v/a")

	out, err = run(t, dir, "scan", "--prefix", "u/", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "next page token: a\n")

	out, err = run(t, dir, "scan", "--prefix", "u/", "--page-token", "a")
	require.NoError(t, err)
	assert.NotContains(t, out, "u/a")
	assert.Contains(t, out, "u/c")

	out, err = run(t, dir, "scan", "--gt", "u/a", "--lt", "v/b")
	require.NoError(t, err)
	assert.NotContains(t, out, "u/a")
	assert.Contains(t, out, "u/c")
	assert.Contains(t, out, "v/a")

	_, err = run(t, dir, "scan", "--gt", "a", "--gte", "a", "--lt", "b")
	assert.ErrorContains(t, err, "gte and gt cannot be set at the same time")

	_, err = run(t, dir, "scan", "--prefix", "u/", "--lt", "b")
	assert.Error(t, err)

	_, err = run(t, dir, "commit", "novalue")
	assert.ErrorContains(t, err, "missing '='")
}

// tableKeys returns the key column of a rendered key/value table.
func tableKeys(out string) []string {
	var keys []string
	for _, line := range strings.Split(out, "\n") {
		cols := strings.Split(line, "|")
		if len(cols) < 3 {
			continue
		}
		if k := strings.TrimSpace(cols[1]); k != "key" {
			keys = append(keys, k)
		}
	}
	return keys
}

// scanAll follows the continuation printed after each page until none is left.
func scanAll(t *testing.T, dir string, args ...string) []string {
	t.Helper()

	var seen []string
	for page := 0; page < 10; page++ {
		out, err := run(t, dir, append([]string{"scan", "--limit", "1"}, args...)...)
		require.NoError(t, err)
		seen = append(seen, tableKeys(out)...)

		switch {
		case strings.Contains(out, "next page token: "):
			token := strings.TrimSpace(out[strings.Index(out, "next page token: ")+len("next page token: "):])
			args = []string{"--prefix", args[1], "--page-token", token}
		case strings.Contains(out, "next page: "):
			args = strings.Fields(out[strings.Index(out, "next page: ")+len("next page: "):])
		default:
			return seen
		}
	}
	t.Fatalf("scan did not finish, saw %v", seen)
	return nil
}

func TestScanPagesResumeFromPrintedContinuation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hub")

	_, err := run(t, dir, "--hex", "commit", "70=76", "7001=76", "7002=76", "71=76")
	require.NoError(t, err)

	// The first page ends on the prefix itself, which no page token can
	// resume from.
	out, err := run(t, dir, "scan", "--prefix", "p", "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, tableKeys(out))
	assert.Contains(t, out, "next page: --gt p --lt q\n")

	assert.Equal(t, []string{"p", "0x7001", "0x7002"}, scanAll(t, dir, "--prefix", "p"))

	// A printed non-printable token reads back without --hex.
	out, err = run(t, dir, "scan", "--prefix", "p", "--page-token", "0x01")
	require.NoError(t, err)
	assert.Equal(t, []string{"0x7002"}, tableKeys(out))

	out, err = run(t, dir, "scan", "--prefix", "p", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "next page token: 0x01\n")

	// Reverse pages end once the prefix itself was visited.
	out, err = run(t, dir, "scan", "--prefix", "p", "--reverse", "--page-token", "0x01")
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, tableKeys(out))
	out, err = run(t, dir, "scan", "--prefix", "p", "--reverse", "--page-token", "0x01", "--limit", "1")
	require.NoError(t, err)
	assert.NotContains(t, out, "next page")
}

func TestFormatRoundTrips(t *testing.T) {
	for _, hexMode := range []bool{false, true} {
		a := &app{hexMode: hexMode}
		for _, b := range [][]byte{{}, []byte("plain"), []byte("0xbeef"), {0x70, 0x01}, {0xff}} {
			decoded, err := a.decode(a.format(b))
			require.NoError(t, err)
			assert.Equal(t, b, decoded, "hex=%v %q", hexMode, b)
		}
	}
}

func TestClearExportImport(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	dst := filepath.Join(tmp, "dst")
	file := filepath.Join(tmp, "dump.msgpack")

	_, err := run(t, src, "commit", "a=1", "b=2", "c=3")
	require.NoError(t, err)

	out, err := run(t, src, "export", file)
	require.NoError(t, err)
	assert.Equal(t, "exported 3 entries\n", out)

	out, err = run(t, dst, "import", file)
	require.NoError(t, err)
	assert.Equal(t, "imported 3 entries\n", out)

	out, err = run(t, dst, "get", "b")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = run(t, src, "clear")
	require.NoError(t, err)
	assert.Equal(t, "deleted 3 entries\n", out)

	out, err = run(t, src, "get-many", "a", "b")
	require.NoError(t, err)
	assert.NotContains(t, out, "1")
}

func TestLocationAndDestroy(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hub")

	out, err := run(t, dir, "location")
	require.NoError(t, err)
	assert.Equal(t, dir+"\n", out)

	_, err = run(t, dir, "destroy")
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestConfigFile(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "hub")
	cfg := filepath.Join(tmp, "hub.hcl")
	require.NoError(t, os.WriteFile(cfg, []byte("engine = \"bbolt\"\n"), 0o600))

	_, err := run(t, dir, "--config", cfg, "put", "k", "v")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "hub.db"))
	assert.NoError(t, err)

	require.NoError(t, os.WriteFile(cfg, []byte("colour = \"red\"\n"), 0o600))
	_, err = run(t, dir, "--config", cfg, "location")
	assert.ErrorContains(t, err, "colour is not a config variable")
}
