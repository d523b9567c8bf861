package store

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/eigerco/hubstore/pkg/db"
	"github.com/eigerco/hubstore/pkg/db/badger"
	"github.com/eigerco/hubstore/pkg/db/bbolt"
	"github.com/eigerco/hubstore/pkg/db/memory"
	"github.com/eigerco/hubstore/pkg/db/pebble"
	"github.com/eigerco/hubstore/pkg/log"
)

// DefaultLockTimeout bounds how long a transactional commit waits for the
// writer lock.
const DefaultLockTimeout = 5 * time.Second

var drivers = map[string]db.Driver{
	pebble.Name: pebble.Driver{},
	bbolt.Name:  bbolt.Driver{},
	badger.Name: badger.Driver{},
	memory.Name: memory.Driver{},
}

// Engines lists the engine names Open accepts.
func Engines() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Config struct {
	// Engine selects the driver, pebble by default.
	Engine      string
	LockTimeout time.Duration
	// CacheSize is the block cache size in bytes for engines that have one.
	CacheSize int64
	Sync      bool
	Logger    zerolog.Logger
	// Registerer receives the store metrics. Nil disables them.
	Registerer prometheus.Registerer
}

func DefaultConfig() Config {
	return Config{
		Engine:      pebble.Name,
		LockTimeout: DefaultLockTimeout,
		Sync:        true,
		Logger:      log.Storage,
	}
}

func (c Config) withDefaults() Config {
	if c.Engine == "" {
		c.Engine = pebble.Name
	}
	if c.LockTimeout <= 0 {
		c.LockTimeout = DefaultLockTimeout
	}
	return c
}

func (c Config) engineOptions() db.Options {
	return db.Options{
		CacheSize:   c.CacheSize,
		Sync:        c.Sync,
		LockTimeout: c.LockTimeout,
		Logger:      c.Logger.With().Str("engine", c.Engine).Logger(),
	}
}
