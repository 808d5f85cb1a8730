package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/cobra"

	"github.com/oleg578/csvfile"
	"github.com/oleg578/csvfile/internal/loader"
)

// strictFactory builds iterators that reject rows not matching the column names.
type strictFactory struct{}

func (strictFactory) NewIterator(path string, d csvfile.Dialect, columns []string) (csvfile.RowIterator, error) {
	it, err := csvfile.OpenIterator(path, d)
	if err != nil {
		return nil, err
	}
	return it.SetColumnNames(columns).SetStrict(true), nil
}

func newCountCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "count <path>",
		Short: "Print the number of physical lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.file(args[0])
			if err != nil {
				return err
			}
			n, err := f.NumLines()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func newInfoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info <path>",
		Short: "Show path, size and line count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.file(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path       : %s\n", f.Path())
			fmt.Fprintf(out, "Exists     : %v\n", f.Exists())
			if !f.Exists() {
				return nil
			}
			size, err := f.Size()
			if err != nil {
				return err
			}
			lines, err := f.NumLines()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Size       : %s\n", datasize.ByteSize(size).HumanReadable())
			fmt.Fprintf(out, "Lines      : %d\n", lines)
			fmt.Fprintf(out, "Delimiter  : %q\n", f.Comma())
			fmt.Fprintf(out, "Enclosure  : %q\n", f.Quote())
			return nil
		},
	}
}

func newRmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a CSV file (no error if it is missing)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.file(args[0])
			if err != nil {
				return err
			}
			return f.Delete()
		},
	}
}

func newLoadCmd(opts *options) *cobra.Command {
	var (
		table string
		dsn   string
	)
	cmd := &cobra.Command{
		Use:   "load <path>",
		Short: "Insert rows into a MySQL table",
		Long: `Stream rows into a MySQL table using batched INSERTs.

Column names come from --columns. The DSN comes from --dsn or CSVTOOL_DSN,
for example user:pass@tcp(127.0.0.1:3306)/db.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				dsn = opts.cfg.DSN
			}
			if dsn == "" {
				return errors.New("load: --dsn or CSVTOOL_DSN is required")
			}
			f, err := opts.file(args[0])
			if err != nil {
				return err
			}
			it, err := f.Iterator()
			if err != nil {
				return err
			}
			defer it.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			db, err := loader.Open(ctx, dsn, opts.cfg.DBTimeout)
			if err != nil {
				return err
			}
			defer db.Close()

			start := time.Now()
			l := &loader.Loader{DB: db, Table: table, Columns: opts.columnNames(), BatchSize: opts.cfg.BatchSize}
			n, err := l.Load(ctx, it)
			if err != nil {
				return err
			}
			log.Printf("loaded %d rows into %s in %v", n, table, time.Since(start))
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Target table")
	cmd.Flags().StringVar(&dsn, "dsn", "", "MySQL DSN")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}
