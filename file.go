package csvfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"strconv"
)

// File is a CSV file bound to one path. The write handle is opened on the first Write or
// WriteAll, truncating the file unless append mode is set, and stays open until Close or
// Delete. Configuration must be set before the first write; the open handle keeps the
// dialect it was opened with.
//
// A File is not safe for concurrent use.
type File struct {
	path    string
	append  bool
	dialect Dialect
	columns []string
	factory IteratorFactory

	fh  *os.File
	w   *Writer
	err error
}

// New returns a File for path that truncates on first write.
func New(path string) *File {
	return &File{path: path, dialect: DefaultDialect()}
}

// NewAppend returns a File for path that appends to existing content.
func NewAppend(path string) *File {
	return New(path).SetAppend(true)
}

// SetComma sets the field delimiter.
func (f *File) SetComma(c byte) *File {
	f.dialect.Comma = c
	return f
}

// SetQuote sets the field enclosure.
func (f *File) SetQuote(q byte) *File {
	f.dialect.Quote = q
	return f
}

// SetEscape sets the escape byte. Zero disables escaping. A written field that ends with the
// escape byte leaves the file unreadable from that row on; see Writer.Escape.
func (f *File) SetEscape(e byte) *File {
	f.dialect.Escape = e
	return f
}

// SetTerminator sets the line terminator written after each row.
func (f *File) SetTerminator(t string) *File {
	f.dialect.Terminator = t
	return f
}

// SetAlwaysQuote forces every written field to be enclosed.
func (f *File) SetAlwaysQuote(v bool) *File {
	f.dialect.AlwaysQuote = v
	return f
}

// SetDialect replaces the whole dialect.
func (f *File) SetDialect(d Dialect) *File {
	f.dialect = d
	return f
}

// SetAppend selects append (true) or truncate (false) mode for the next open.
func (f *File) SetAppend(v bool) *File {
	f.append = v
	return f
}

// SetColumnNames makes iterators key rows by names.
func (f *File) SetColumnNames(names []string) *File {
	f.columns = append([]string(nil), names...)
	return f
}

// SetIteratorFactory overrides how iterators are built. nil restores the default.
func (f *File) SetIteratorFactory(factory IteratorFactory) *File {
	f.factory = factory
	return f
}

// Path returns the bound path.
func (f *File) Path() string { return f.path }

// String returns the bound path.
func (f *File) String() string { return f.path }

// Comma returns the field delimiter.
func (f *File) Comma() byte { return f.dialect.Comma }

// Quote returns the field enclosure.
func (f *File) Quote() byte { return f.dialect.Quote }

// Escape returns the escape byte.
func (f *File) Escape() byte { return f.dialect.Escape }

// Terminator returns the line terminator.
func (f *File) Terminator() string { return f.dialect.Terminator }

// Append reports whether the file is opened in append mode.
func (f *File) Append() bool { return f.append }

// Dialect returns the configured dialect.
func (f *File) Dialect() Dialect { return f.dialect }

// ColumnNames returns a copy of the configured column names.
func (f *File) ColumnNames() []string {
	if f.columns == nil {
		return nil
	}
	return append([]string(nil), f.columns...)
}

// Write appends one row. An empty row writes nothing but still opens the file. The row is
// flushed before Write returns so a separate reader of the same path sees it.
//
// A failure to open is returned wrapped in ErrOpen and every later write on this File
// returns it again. A failure to write is returned wrapped in ErrWrite; rows written before
// it stay on disk.
func (f *File) Write(row []string) error {
	if err := f.open(); err != nil {
		return err
	}
	if len(row) == 0 {
		return nil
	}
	if err := f.w.Write(row); err != nil {
		return writeError(f.path, err)
	}
	if err := f.w.Flush(); err != nil {
		return writeError(f.path, err)
	}
	return nil
}

// WriteValues formats scalar values and writes them as one row.
func (f *File) WriteValues(values ...any) error {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = formatValue(v)
	}
	return f.Write(row)
}

// WriteAll writes rows in order. The file is opened even when rows is empty. It is not
// transactional: on failure the rows before the failing one remain written and the rest
// are not attempted.
func (f *File) WriteAll(rows [][]string) error {
	if err := f.open(); err != nil {
		return err
	}
	for _, row := range rows {
		if err := f.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and releases the write handle. Closing an unopened or closed File is a
// no-op. A later write opens the path again in the configured mode, so a File in truncate
// mode starts over.
func (f *File) Close() error {
	if f.fh == nil {
		return nil
	}
	flushErr := f.w.Flush()
	closeErr := f.fh.Close()
	f.fh, f.w = nil, nil
	if flushErr != nil {
		return writeError(f.path, flushErr)
	}
	return closeErr
}

// Delete closes the File and removes the path. A missing file is not an error.
func (f *File) Delete() error {
	closeErr := f.Close()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return closeErr
}

// Exists reports whether the path exists.
func (f *File) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Size returns the size of the file in bytes, or an error wrapping ErrNotFound.
func (f *File) Size() (int64, error) {
	fi, err := os.Stat(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, notFoundError(f.path)
		}
		return 0, err
	}
	return fi.Size(), nil
}

// NumLines counts physical lines. \n, \r\n and \r each end a line, and a final line without
// a terminator is counted. Line breaks inside quoted fields count as well.
func (f *File) NumLines() (int, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, notFoundError(f.path)
		}
		return 0, openError(f.path, err)
	}
	defer fh.Close()
	return countLines(fh)
}

// Iterator returns a new single-pass iterator over the file using the configured dialect,
// column names and iterator factory.
func (f *File) Iterator() (RowIterator, error) {
	if !f.Exists() {
		return nil, notFoundError(f.path)
	}
	factory := f.factory
	if factory == nil {
		factory = DefaultIteratorFactory
	}
	return factory.NewIterator(f.path, f.dialect, f.ColumnNames())
}

// All iterates the file's rows. An error ends the sequence and is yielded with a zero Row.
// The iterator is closed when the loop ends.
func (f *File) All() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		it, err := f.Iterator()
		if err != nil {
			yield(Row{}, err)
			return
		}
		defer it.Close()
		for it.Next() {
			if !yield(it.Row(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(Row{}, err)
		}
	}
}

// ReadAll returns every row of the file.
func (f *File) ReadAll() ([]Row, error) {
	var rows []Row
	for row, err := range f.All() {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (f *File) open() error {
	if f.fh != nil {
		return nil
	}
	if f.err != nil {
		return f.err
	}
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if f.append {
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	fh, err := os.OpenFile(f.path, flag, 0o644)
	if err != nil {
		f.err = openError(f.path, err)
		return f.err
	}
	f.fh = fh
	f.w = f.dialect.NewWriter(fh)
	return nil
}

func countLines(src io.Reader) (int, error) {
	buf := make([]byte, 32*1024)
	var (
		lines   int
		afterCR bool
		last    byte
		seen    bool
	)
	for {
		n, err := src.Read(buf)
		for _, c := range buf[:n] {
			switch c {
			case '\r':
				lines++
				afterCR = true
			case '\n':
				if !afterCR {
					lines++
				}
				afterCR = false
			default:
				afterCR = false
			}
			last = c
			seen = true
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if seen && last != '\n' && last != '\r' {
		lines++
	}
	return lines, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
