package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/atermkit/aterm"
	"github.com/joshuapare/atermkit/aterm/codec"
	"github.com/joshuapare/atermkit/aterm/printer"
	"github.com/joshuapare/atermkit/aterm/termdb"
	"github.com/joshuapare/atermkit/internal/logger"
)

func init() {
	db := &cobra.Command{
		Use:   "db",
		Short: "Keep named terms in a term database",
		Long: `The db commands store terms under names in a database directory and read
them back into a fresh store.

Example:
  atermctl db put ./terms start states.taf
  atermctl db get ./terms start
  atermctl db ls ./terms`,
	}
	db.AddCommand(
		&cobra.Command{
			Use:   "put <dir> <name> <file>",
			Short: "Store the first term of a file under name",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDBPut(args[0], args[1], args[2])
			},
		},
		&cobra.Command{
			Use:   "get <dir> <name> [out]",
			Short: "Print a stored term, or write it to a binary file",
			Args:  cobra.RangeArgs(2, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				out := ""
				if len(args) == 3 {
					out = args[2]
				}
				return runDBGet(args[0], args[1], out)
			},
		},
		&cobra.Command{
			Use:   "ls <dir>",
			Short: "List stored names",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDBList(args[0])
			},
		},
		&cobra.Command{
			Use:   "rm <dir> <name>...",
			Short: "Delete stored names",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDBRemove(args[0], args[1:])
			},
		},
	)
	rootCmd.AddCommand(db)
}

func openDB(dir string) (*termdb.DB, error) {
	cfg := termdb.DefaultConfig(dir)
	if verbose {
		cfg.Logger = logger.L
	}
	return termdb.Open(cfg)
}

func runDBPut(dir, name, path string) error {
	s, err := newStore()
	if err != nil {
		return err
	}
	l, err := load(s, path)
	if err != nil {
		return err
	}
	defer l.Release()
	if len(l.Terms) == 0 {
		return fmt.Errorf("%s holds no terms", path)
	}
	if len(l.Terms) > 1 {
		printVerbose("%s holds %d terms, storing the first\n", path, len(l.Terms))
	}

	db, err := openDB(dir)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Put(name, s, l.Terms[0]); err != nil {
		return err
	}
	printInfo("stored %s\n", name)
	return nil
}

func runDBGet(dir, name, out string) error {
	db, err := openDB(dir)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := newStore()
	if err != nil {
		return err
	}
	t, err := db.Get(name, s)
	if err != nil {
		return err
	}
	root := s.Protect(t)
	defer root.Release()

	if out != "" {
		return codec.WriteFile(s, out, t)
	}
	if jsonOut {
		rec, err := db.Stat(name)
		if err != nil {
			return err
		}
		return printJSON(struct {
			termdb.Record
			Term string `json:"term"`
		}{rec, printer.String(s, t)})
	}
	return writeTerm(s, t)
}

func writeTerm(s *aterm.Store, t aterm.Term) error {
	if err := printer.Write(stdout, s, t); err != nil {
		return err
	}
	_, err := fmt.Fprintln(stdout)
	return err
}

func runDBList(dir string) error {
	db, err := openDB(dir)
	if err != nil {
		return err
	}
	defer db.Close()

	names, err := db.Names()
	if err != nil {
		return err
	}
	if jsonOut {
		recs := make([]termdb.Record, 0, len(names))
		for _, n := range names {
			rec, err := db.Stat(n)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return printJSON(recs)
	}
	for _, n := range names {
		fmt.Fprintln(stdout, n)
	}
	return nil
}

func runDBRemove(dir string, names []string) error {
	db, err := openDB(dir)
	if err != nil {
		return err
	}
	defer db.Close()
	for _, n := range names {
		if err := db.Delete(n); err != nil {
			return err
		}
		printVerbose("deleted %s\n", n)
	}
	return nil
}
