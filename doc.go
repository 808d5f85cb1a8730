// # csvfile: CSV files bound to a path
//
// csvfile reads and writes delimited text files. A File is bound to one path and a Dialect; it opens the
// underlying handle lazily on the first write, and hands out forward-only iterators for reading rows back,
// optionally keyed by column name.
//
// # Features
//
// - Streaming CSV Reader with custom delimiter, quote and escape bytes; `\n`, `\r\n` and bare `\r` all end a record.
// - Buffered CSV Writer with configurable delimiter, quote, escape, line terminator and forced quoting.
// - File with truncate or append mode, chainable configuration, Delete, Size and NumLines queries.
// - RowIterator/IteratorFactory interfaces so callers can plug in their own row source.
// - Named rows: with column names set, rows of a different width are skipped (or rejected in strict mode).
// - Structured error reporting via `ParseError`, `ErrOpen`, `ErrWrite`, `ErrNotFound` and `ErrFieldCount`.
//
// # Getting Started
//
//	f := csvfile.New("/tmp/people.csv").SetColumnNames([]string{"id", "name", "year"})
//	defer f.Close()
//	if err := f.Write([]string{"1", "david", "1979"}); err != nil {
//		return err
//	}
//	for row, err := range f.All() {
//		if err != nil {
//			return err
//		}
//		id, _ := row.Get("id")
//		fmt.Println(id)
//	}
package csvfile
