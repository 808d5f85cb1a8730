package main

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

// rowJSON keeps numbers as json.Number so large integers reach the file unchanged.
var rowJSON = sonic.Config{UseNumber: true}.Froze()

func newWriteCmd(opts *options) *cobra.Command {
	var (
		appendMode  bool
		alwaysQuote bool
	)
	cmd := &cobra.Command{
		Use:   "write <path>",
		Short: "Write rows read from stdin",
		Long: `Read one JSON array per line from stdin and write each as a row.

Example:
  printf '["1","david",1979]\n' | csvtool write people.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.file(args[0])
			if err != nil {
				return err
			}
			f.SetAppend(appendMode).SetAlwaysQuote(alwaysQuote)
			defer f.Close()

			// Open even when stdin is empty so the file exists afterwards.
			if err := f.WriteAll(nil); err != nil {
				return err
			}

			sc := bufio.NewScanner(cmd.InOrStdin())
			sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
			n, lineNo := 0, 0
			for sc.Scan() {
				lineNo++
				line := bytes.TrimSpace(sc.Bytes())
				if len(line) == 0 {
					continue
				}
				var vals []any
				if err := rowJSON.Unmarshal(line, &vals); err != nil {
					return fmt.Errorf("stdin line %d: %w", lineNo, err)
				}
				if err := f.WriteValues(vals...); err != nil {
					return err
				}
				n++
			}
			if err := sc.Err(); err != nil {
				return err
			}
			log.Printf("wrote %d rows to %s", n, f)
			return f.Close()
		},
	}
	cmd.Flags().BoolVarP(&appendMode, "append", "a", false, "Append instead of truncating")
	cmd.Flags().BoolVar(&alwaysQuote, "always-quote", false, "Enclose every field")
	return cmd
}

func newCatCmd(opts *options) *cobra.Command {
	var (
		asJSON bool
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Print rows",
		Long: `Print every row of a CSV file.

With --columns, rows whose width differs from the column list are skipped
unless --strict is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.file(args[0])
			if err != nil {
				return err
			}
			if strict {
				f.SetIteratorFactory(strictFactory{})
			}

			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush()

			for row, err := range f.All() {
				if err != nil {
					return err
				}
				if !asJSON {
					if row.Named() {
						pairs := make([]string, row.Len())
						for i, name := range row.Names() {
							pairs[i] = name + "=" + row.Fields[i]
						}
						fmt.Fprintln(out, strings.Join(pairs, " "))
					} else {
						fmt.Fprintln(out, strings.Join(row.Fields, "\t"))
					}
					continue
				}
				var b []byte
				if row.Named() {
					b, err = sonic.ConfigStd.Marshal(row.Map())
				} else {
					b, err = sonic.ConfigStd.Marshal(row.Fields)
				}
				if err != nil {
					return err
				}
				out.Write(b)
				out.WriteByte('\n')
			}
			return out.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rows as JSON lines")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on rows that do not match --columns")
	return cmd
}
