package store

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/hubstore/pkg/db/memory"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()

	cfg := DefaultConfig()
	cfg.Engine = memory.Name
	cfg.Registerer = reg

	s, err := Open(filepath.Join(t.TempDir(), "hub"), cfg)
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	require.NoError(t, s.Put([]byte("b"), []byte("2")))
	_, err = s.Get([]byte("missing"))
	require.Error(t, err)
	require.NoError(t, s.ForEachByPrefix(nil, PageOptions{}, func(_, _ []byte) (bool, error) {
		return true, nil
	}))
	err = s.ForEachByOptions(IteratorOptions{}, func(_, _ []byte) (bool, error) { return true, nil })
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.operations.WithLabelValues("put")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.operations.WithLabelValues("get")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		s.metrics.failures.WithLabelValues("scan_options", string(CodeInvalidIteratorOptions))))
	assert.Equal(t, 1, testutil.CollectAndCount(s.metrics.failures))
	assert.Equal(t, 1, testutil.CollectAndCount(s.metrics.scanEntries))

	// A second store on the same registry collides
	_, err = Open(filepath.Join(t.TempDir(), "other"), cfg)
	assert.ErrorIs(t, err, ErrInternal)
}
