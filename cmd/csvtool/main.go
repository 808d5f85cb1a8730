package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oleg578/csvfile"
	"github.com/oleg578/csvfile/internal/config"
)

var version = "v0.3.0"

type options struct {
	cfg     *config.Config
	columns string
	crlf    bool
}

func main() {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("csvtool: ")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "csvtool",
		Short: "Read and write CSV files",
		Long: `csvtool writes rows to CSV files and reads them back.

Dialect settings come from flags, then CSVTOOL_* environment variables
(a .env file in the working directory is loaded if present), then an
optional YAML dialect file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			for name, dst := range map[string]*string{
				"delimiter":  &cfg.Delimiter,
				"enclosure":  &cfg.Enclosure,
				"escape":     &cfg.Escape,
				"terminator": &cfg.Terminator,
				"dialect":    &cfg.DialectPath,
			} {
				if flags.Changed(name) {
					*dst, _ = flags.GetString(name)
				}
			}
			if opts.crlf {
				cfg.Terminator = "crlf"
			}
			opts.cfg = cfg
			return nil
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.String("delimiter", "", "Field delimiter (single byte, or \\t)")
	pf.String("enclosure", "", "Field enclosure (single byte)")
	pf.String("escape", "", "Escape byte inside enclosed fields (empty disables)")
	pf.String("terminator", "", "Line terminator: lf, crlf, cr or a literal string")
	pf.String("dialect", "", "YAML dialect file")
	pf.BoolVar(&opts.crlf, "crlf", false, "Terminate rows with \\r\\n")
	pf.StringVar(&opts.columns, "columns", "", "Comma-separated column names for keyed rows")

	rootCmd.AddCommand(
		newWriteCmd(opts),
		newCatCmd(opts),
		newCountCmd(opts),
		newInfoCmd(opts),
		newRmCmd(opts),
		newLoadCmd(opts),
	)
	return rootCmd
}

// file builds a csvfile.File for path from the resolved configuration.
func (o *options) file(path string) (*csvfile.File, error) {
	d, err := o.cfg.Dialect()
	if err != nil {
		return nil, err
	}
	f := csvfile.New(path).SetDialect(d)
	if cols := o.columnNames(); len(cols) > 0 {
		f.SetColumnNames(cols)
	}
	return f, nil
}

func (o *options) columnNames() []string {
	if strings.TrimSpace(o.columns) == "" {
		return nil
	}
	parts := strings.Split(o.columns, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
