package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/eigerco/hubstore/internal/config"
	"github.com/eigerco/hubstore/pkg/log"
	"github.com/eigerco/hubstore/pkg/store"
)

type app struct {
	out        io.Writer
	cfg        config.Config
	configFile string
	hexMode    bool
	store      *store.Store
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, cfg: config.Default()}

	root := &cobra.Command{
		Use:               "hubdb",
		Short:             "Inspect and edit a hub key-value store",
		SilenceUsage:      true,
		PersistentPreRunE: a.preRun,
	}

	fs := root.PersistentFlags()
	a.cfg.RegisterFlags(fs)
	fs.StringVar(&a.configFile, "config", "", "HCL `file` to load settings from")
	fs.BoolVar(&a.hexMode, "hex", false, "keys and values are hex encoded; without it only 0x-prefixed arguments are")

	root.AddCommand(
		a.getCmd(),
		a.getManyCmd(),
		a.putCmd(),
		a.delCmd(),
		a.commitCmd(),
		a.scanCmd(),
		a.clearCmd(),
		a.destroyCmd(),
		a.locationCmd(),
		a.exportCmd(),
		a.importCmd(),
	)
	return root
}

func (a *app) preRun(cmd *cobra.Command, _ []string) error {
	if a.configFile != "" {
		if err := config.Load(a.configFile, cmd.Flags()); err != nil {
			return fmt.Errorf("hubdb: %w", err)
		}
	}

	level, err := log.ParseLogLevel(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("hubdb: %w", err)
	}
	logType := log.ConsoleLogger
	if a.cfg.LogJSON {
		logType = log.JSONLogger
	}
	log.Init(log.Options{LogLevel: level, Type: logType})
	return nil
}

// withStore opens the configured store around fn.
func (a *app) withStore(fn func(s *store.Store) error) error {
	s, err := store.Open(a.cfg.Path, a.cfg.Store(log.Storage))
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.CLI.Error().Err(err).Msg("close store")
		}
	}()
	return fn(s)
}

// decode reads an argument as text, or as hex when --hex is set or the
// argument starts with 0x. It is the inverse of format.
func (a *app) decode(arg string) ([]byte, error) {
	if !a.hexMode && !strings.HasPrefix(arg, "0x") {
		return []byte(arg), nil
	}
	b, err := hex.DecodeString(strings.TrimPrefix(arg, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", arg, err)
	}
	return b, nil
}

func (a *app) decodeAll(args []string) ([][]byte, error) {
	out := make([][]byte, len(args))
	for i, arg := range args {
		b, err := a.decode(arg)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// format prints printable text as is and anything else as 0x-prefixed hex.
// Text that itself starts with 0x is printed as hex so decode reads it back.
func (a *app) format(b []byte) string {
	if !a.hexMode && utf8.Valid(b) && !bytes.HasPrefix(b, []byte("0x")) &&
		strings.IndexFunc(string(b), func(r rune) bool { return !unicode.IsPrint(r) }) < 0 {
		return string(b)
	}
	return "0x" + hex.EncodeToString(b)
}

// arg is format quoted for a shell when needed, for hints meant to be pasted
// back on the command line.
func (a *app) arg(b []byte) string {
	s := a.format(b)
	if s == "" || strings.ContainsAny(s, " \t'\"\\$`") {
		return strconv.Quote(s)
	}
	return s
}
