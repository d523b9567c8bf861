package bbolt

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/eigerco/hubstore/pkg/db"
	"github.com/eigerco/hubstore/pkg/db/dbtest"
)

func TestKVStore(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) db.KVStore {
		store, err := Driver{}.Open(t.TempDir(), db.Options{LockTimeout: time.Second})
		require.NoError(t, err)
		return store
	})
}

func TestOpenTimesOutOnLockedFile(t *testing.T) {
	path := t.TempDir()

	store, err := NewKVStore(path, db.Options{LockTimeout: time.Second})
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	start := time.Now()
	_, err = NewKVStore(path, db.Options{LockTimeout: 100 * time.Millisecond})
	assert.ErrorIs(t, err, bolt.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestLockTimeoutCoversBboltEarlyCutoff(t *testing.T) {
	assert.Equal(t, time.Duration(0), lockTimeout(0))
	assert.Equal(t, 150*time.Millisecond, lockTimeout(100*time.Millisecond))
}

func TestDestroy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub")

	store, err := NewKVStore(path, db.Options{LockTimeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, store.Put([]byte("k"), []byte("v")))
	require.NoError(t, store.Close())

	require.NoError(t, Driver{}.Destroy(path))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
