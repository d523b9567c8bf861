package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/eigerco/hubstore/pkg/db/keys"
	"github.com/eigerco/hubstore/pkg/log"
	"github.com/eigerco/hubstore/pkg/store"
)

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			key, err := a.decode(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(s *store.Store) error {
				value, err := s.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, a.format(value))
				return nil
			})
		},
	}
}

func (a *app) getManyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-many KEY...",
		Short: "Print the values of several keys, empty for missing ones",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ks, err := a.decodeAll(args)
			if err != nil {
				return err
			}
			return a.withStore(func(s *store.Store) error {
				values, err := s.GetMany(ks)
				if err != nil {
					return err
				}
				tw := a.table("key", "value")
				for i := range ks {
					tw.Append([]string{a.format(ks[i]), a.format(values[i])})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func (a *app) putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put KEY VALUE",
		Short: "Set the value of a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			kv, err := a.decodeAll(args)
			if err != nil {
				return err
			}
			return a.withStore(func(s *store.Store) error {
				return s.Put(kv[0], kv[1])
			})
		},
	}
}

func (a *app) delCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del KEY",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			key, err := a.decode(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(s *store.Store) error {
				return s.Delete(key)
			})
		},
	}
}

func (a *app) commitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commit KEY=VALUE...",
		Short: "Apply puts and deletes atomically; KEY= deletes KEY",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			entries := make([]store.Entry, 0, len(args))
			for _, arg := range args {
				k, v, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("entry %q: missing '='", arg)
				}
				key, err := a.decode(k)
				if err != nil {
					return err
				}
				value, err := a.decode(v)
				if err != nil {
					return err
				}
				entries = append(entries, store.Entry{Key: key, Value: value})
			}
			return a.withStore(func(s *store.Store) error {
				return s.Commit(store.BatchFromEntries(entries))
			})
		},
	}
}

type scanFlags struct {
	prefix    string
	pageToken string
	gt        string
	gte       string
	lt        string
	reverse   bool
	limit     int
}

func (a *app) scanCmd() *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List entries by prefix, or by --gt/--gte and --lt bounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.scan(cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.prefix, "prefix", "", "only keys starting with this prefix")
	fs.StringVar(&f.pageToken, "page-token", "", "resume after this key suffix, as printed by the previous page")
	fs.StringVar(&f.gt, "gt", "", "exclusive lower bound")
	fs.StringVar(&f.gte, "gte", "", "inclusive lower bound")
	fs.StringVar(&f.lt, "lt", "", "exclusive upper bound")
	fs.BoolVar(&f.reverse, "reverse", false, "descending key order")
	fs.IntVar(&f.limit, "limit", 0, "stop after this many entries, 0 for no limit")
	return cmd
}

func (a *app) scan(cmd *cobra.Command, f scanFlags) error {
	flags := cmd.Flags()
	explicit := flags.Changed("gt") || flags.Changed("gte") || flags.Changed("lt")
	if explicit && (flags.Changed("prefix") || flags.Changed("page-token")) {
		return fmt.Errorf("--prefix and --page-token cannot be combined with --gt, --gte or --lt")
	}

	tw := a.table("key", "value")
	var last []byte
	count := 0
	visit := func(key, value []byte) (bool, error) {
		tw.Append([]string{a.format(key), a.format(value)})
		last = append(last[:0], key...)
		count++
		return f.limit <= 0 || count < f.limit, nil
	}
	limited := func() bool { return f.limit > 0 && count == f.limit }

	var next string
	err := a.withStore(func(s *store.Store) error {
		if !explicit {
			prefix, err := a.decode(f.prefix)
			if err != nil {
				return err
			}
			token, err := a.decode(f.pageToken)
			if err != nil {
				return err
			}
			err = s.ForEachByPrefix(prefix, store.PageOptions{Reverse: f.reverse, PageToken: token}, visit)
			if err == nil && limited() {
				next = a.nextPrefixPage(prefix, last, f.reverse)
			}
			return err
		}

		opts := store.IteratorOptions{Reverse: f.reverse}
		var err error
		if flags.Changed("gte") {
			if opts.Gte, err = a.decode(f.gte); err != nil {
				return err
			}
		}
		if flags.Changed("gt") {
			if opts.Gt, err = a.decode(f.gt); err != nil {
				return err
			}
		}
		if flags.Changed("lt") {
			if opts.Lt, err = a.decode(f.lt); err != nil {
				return err
			}
		}
		err = s.ForEachByOptions(opts, visit)
		if err == nil && limited() {
			next = a.nextRangePage(opts, last)
		}
		return err
	})
	if err != nil {
		return err
	}

	tw.Render()
	if next != "" {
		fmt.Fprintln(a.out, next)
	}
	return nil
}

// nextPrefixPage tells the caller how to continue a prefix scan that stopped
// at last. A page token cannot express every position: an empty token starts
// over, and the empty prefix ignores tokens. Those pages resume with bounds.
func (a *app) nextPrefixPage(prefix, last []byte, reverse bool) string {
	switch {
	case len(prefix) == 0 && reverse:
		return a.rangeHint("gte", []byte{}, last)
	case len(prefix) == 0:
		return a.rangeHint("gt", last, []byte{0xff})
	}

	token := keys.PageToken(prefix, last)
	switch {
	case len(token) > 0:
		return "next page token: " + a.arg(token)
	case reverse:
		// last is the prefix itself, the smallest key of the family
		return ""
	default:
		return a.rangeHint("gt", last, keys.Increment(prefix))
	}
}

func (a *app) nextRangePage(opts store.IteratorOptions, last []byte) string {
	switch {
	case !opts.Reverse:
		return a.rangeHint("gt", last, opts.Lt)
	case opts.Gt != nil:
		return a.rangeHint("gt", opts.Gt, last)
	default:
		return a.rangeHint("gte", opts.Gte, last)
	}
}

func (a *app) rangeHint(lowerFlag string, lower, upper []byte) string {
	return fmt.Sprintf("next page: --%s %s --lt %s", lowerFlag, a.arg(lower), a.arg(upper))
}

func (a *app) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.withStore(func(s *store.Store) error {
				n, err := s.Clear()
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "deleted %d entries\n", n)
				return nil
			})
		},
	}
}

func (a *app) destroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Remove the store and all of its files",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := store.Open(a.cfg.Path, a.cfg.Store(log.Storage))
			if err != nil {
				return err
			}
			return s.Destroy()
		},
	}
}

func (a *app) locationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "location",
		Short: "Print the absolute path of the store",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.withStore(func(s *store.Store) error {
				loc, err := s.Location()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, loc)
				return nil
			})
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write entries to a msgpack file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := a.decode(prefix)
			if err != nil {
				return err
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck

			w := bufio.NewWriter(f)
			return a.withStore(func(s *store.Store) error {
				n, err := s.Export(w, p)
				if err != nil {
					return err
				}
				if err := w.Flush(); err != nil {
					return err
				}
				log.CLI.Info().Int("records", n).Str("file", args[0]).Msg("export done")
				fmt.Fprintf(a.out, "exported %d entries\n", n)
				return f.Sync()
			})
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only export keys starting with this prefix")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var batchSize int
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load entries from a msgpack file written by export",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck

			return a.withStore(func(s *store.Store) error {
				n, err := s.Import(bufio.NewReader(f), batchSize)
				if err != nil {
					return err
				}
				log.CLI.Info().Int("records", n).Str("file", args[0]).Msg("import done")
				fmt.Fprintf(a.out, "imported %d entries\n", n)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", store.DefaultImportBatchSize, "records per commit")
	return cmd
}

func (a *app) table(header ...string) *tablewriter.Table {
	tw := tablewriter.NewWriter(a.out)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetHeader(header)
	return tw
}
