// Package config holds the hubdb command line settings. Values come from
// flags first, then from an optional HCL file, then from defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/hashicorp/hcl/hcl/scanner"
	"github.com/hashicorp/hcl/hcl/token"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/eigerco/hubstore/pkg/store"
)

type Config struct {
	Path        string
	Engine      string
	LockTimeout time.Duration
	CacheSize   int64
	Sync        bool
	LogLevel    string
	LogJSON     bool
}

func Default() Config {
	def := store.DefaultConfig()
	return Config{
		Path:        ".rocks/hub",
		Engine:      def.Engine,
		LockTimeout: def.LockTimeout,
		Sync:        def.Sync,
		LogLevel:    "info",
	}
}

// RegisterFlags binds every setting to a flag of the same name as the HCL key.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Path, "path", c.Path, "`directory` of the store")
	fs.StringVar(&c.Engine, "engine", c.Engine, fmt.Sprintf("storage engine: %v", store.Engines()))
	fs.DurationVar(&c.LockTimeout, "lock-timeout", c.LockTimeout, "how long a commit waits for the transaction lock")
	fs.Int64Var(&c.CacheSize, "cache-size", c.CacheSize, "engine block cache size in bytes, 0 for the engine default")
	fs.BoolVar(&c.Sync, "sync", c.Sync, "sync every write to disk")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: trace, debug, info, warn, error")
	fs.BoolVar(&c.LogJSON, "log-json", c.LogJSON, "log as JSON instead of console text")
}

// Load reads the HCL file and applies every value whose flag was not set on
// the command line. Unknown keys are an error.
func Load(file string, fs *pflag.FlagSet) error {
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	if err := checkAssignments(b); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	var values map[string]interface{}
	if err := hcl.Decode(&values, string(b)); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	for name, val := range values {
		flg := fs.Lookup(name)
		if flg == nil {
			return fmt.Errorf("%s: %s is not a config variable", file, name)
		}
		if val == nil {
			return fmt.Errorf("%s: %s has no value", file, name)
		}
		if flg.Changed {
			continue
		}
		if err := flg.Value.Set(fmt.Sprintf("%v", val)); err != nil {
			return fmt.Errorf("%s: %s: %w", file, name, err)
		}
	}
	return nil
}

// Store converts the settings into a store configuration.
func (c Config) Store(logger zerolog.Logger) store.Config {
	cfg := store.DefaultConfig()
	cfg.Engine = c.Engine
	cfg.LockTimeout = c.LockTimeout
	cfg.CacheSize = c.CacheSize
	cfg.Sync = c.Sync
	cfg.Logger = logger
	return cfg
}

// checkAssignments rejects a trailing `key =` with no value. The hcl parser
// treats the early EOF as the end of the file and drops the key.
func checkAssignments(src []byte) error {
	s := scanner.New(src)
	s.Error = func(token.Pos, string) {}

	var key, prev token.Token
	for {
		tok := s.Scan()
		switch tok.Type {
		case token.COMMENT:
			continue
		case token.EOF:
			if prev.Type == token.ASSIGN {
				return fmt.Errorf("line %d: %s has no value", prev.Pos.Line, key.Text)
			}
			return nil
		case token.ASSIGN:
			key = prev
		}
		prev = tok
	}
}
