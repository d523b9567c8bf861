package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	file := filepath.Join(t.TempDir(), "hubdb.hcl")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func newFlags(t *testing.T, cfg *Config, args ...string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "pebble", cfg.Engine)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.True(t, cfg.Sync)
}

func TestLoad(t *testing.T) {
	file := writeFile(t, `
engine = "bbolt"
path = "/var/lib/hub"
lock-timeout = "2s"
cache-size = 1048576
sync = false
`)

	cfg := Default()
	fs := newFlags(t, &cfg, "--engine", "badger")

	require.NoError(t, Load(file, fs))

	// Flags win over the file
	assert.Equal(t, "badger", cfg.Engine)
	assert.Equal(t, "/var/lib/hub", cfg.Path)
	assert.Equal(t, 2*time.Second, cfg.LockTimeout)
	assert.Equal(t, int64(1048576), cfg.CacheSize)
	assert.False(t, cfg.Sync)

	sc := cfg.Store(zerolog.Nop())
	assert.Equal(t, "badger", sc.Engine)
	assert.Equal(t, 2*time.Second, sc.LockTimeout)
	assert.False(t, sc.Sync)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{name: "unknown_key", content: `colour = "blue"`, msg: "colour is not a config variable"},
		{name: "bad_value", content: `lock-timeout = "soon"`, msg: "lock-timeout"},
		{name: "bad_syntax", content: `engine = `, msg: "hubdb.hcl"},
		{name: "missing_value", content: "sync = true\nengine =", msg: "line 2: engine has no value"},
		{name: "missing_value_before_comment", content: "engine = # pebble\n", msg: "engine has no value"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			err := Load(writeFile(t, tc.content), newFlags(t, &cfg))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}

	cfg := Default()
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.hcl"), newFlags(t, &cfg)))
}

func TestLoadKeepsAssignmentsFollowedByComments(t *testing.T) {
	cfg := Default()
	fs := newFlags(t, &cfg)

	require.NoError(t, Load(writeFile(t, "# hub settings\nengine = \"bbolt\" # local\n"), fs))
	assert.Equal(t, "bbolt", cfg.Engine)
}
