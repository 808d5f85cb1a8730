// Package loader copies rows from a csvfile.RowIterator into a SQL table.
package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/oleg578/csvfile"
)

const defaultBatchSize = 500

var (
	errNoTable   = errors.New("loader: table name is required")
	errNoColumns = errors.New("loader: column names are required for positional rows")
)

// Execer is the subset of *sql.DB and *sql.Tx the loader needs.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Loader inserts rows in multi-row INSERT batches.
type Loader struct {
	DB    Execer
	Table string
	// Columns names the target columns. When empty, the names of the first named row are used.
	Columns []string
	// BatchSize is the number of rows per INSERT. Zero means 500.
	BatchSize int
}

// Load drains it and returns the number of rows inserted. Rows already sent in earlier
// batches stay inserted when a later batch fails.
func (l *Loader) Load(ctx context.Context, it csvfile.RowIterator) (int64, error) {
	if l.Table == "" {
		return 0, errNoTable
	}
	chunk := l.BatchSize
	if chunk <= 0 {
		chunk = defaultBatchSize
	}

	cols := l.Columns
	batch := make([][]any, 0, chunk)
	var total int64

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := bulkInsert(ctx, l.DB, l.Table, cols, batch); err != nil {
			return fmt.Errorf("loader: insert into %s: %w", l.Table, err)
		}
		total += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for it.Next() {
		row := it.Row()
		if cols == nil {
			if !row.Named() {
				return total, errNoColumns
			}
			cols = row.Names()
		}
		if row.Len() != len(cols) {
			return total, fmt.Errorf("loader: row has %d fields, want %d: %w", row.Len(), len(cols), csvfile.ErrFieldCount)
		}
		vals := make([]any, row.Len())
		for i, v := range row.Fields {
			vals[i] = v
		}
		batch = append(batch, vals)
		if len(batch) == chunk {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := it.Err(); err != nil {
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

func bulkInsert(ctx context.Context, db Execer, table string, cols []string, rows [][]any) error {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	pl := "(" + strings.TrimRight(strings.Repeat("?,", len(cols)), ",") + ")"
	valPlace := strings.TrimRight(strings.Repeat(pl+",", len(rows)), ",")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", quoteIdent(table), strings.Join(quoted, ","), valPlace)

	args := make([]any, 0, len(rows)*len(cols))
	for _, r := range rows {
		args = append(args, r...)
	}
	_, err := db.ExecContext(ctx, query, args...)
	return err
}

// quoteIdent quotes a MySQL identifier. A dotted name is quoted per part.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
	}
	return strings.Join(parts, ".")
}

// Open connects to MySQL using dsn and checks the connection within timeout.
func Open(ctx context.Context, dsn string, timeout time.Duration) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("loader: parse dsn: %w", err)
	}
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
