package csvfile

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// RowIterator is a forward-only, single-pass sequence of rows. It cannot be restarted;
// reading the rows again needs a new iterator.
type RowIterator interface {
	// Next advances to the next row and reports whether one is available.
	Next() bool
	// Row returns the current row. It is valid after Next returns true.
	Row() Row
	// Err returns the error that stopped iteration, or nil at a clean end of file.
	Err() error
	// Close releases the underlying resources. It is safe to call more than once.
	Close() error
}

// IteratorFactory produces rows for a path read with a dialect. columns may be nil.
type IteratorFactory interface {
	NewIterator(path string, d Dialect, columns []string) (RowIterator, error)
}

// IteratorFactoryFunc adapts a function to IteratorFactory.
type IteratorFactoryFunc func(path string, d Dialect, columns []string) (RowIterator, error)

// NewIterator calls fn.
func (fn IteratorFactoryFunc) NewIterator(path string, d Dialect, columns []string) (RowIterator, error) {
	return fn(path, d, columns)
}

// DefaultIteratorFactory builds FileIterators.
var DefaultIteratorFactory IteratorFactory = IteratorFactoryFunc(func(path string, d Dialect, columns []string) (RowIterator, error) {
	it, err := OpenIterator(path, d)
	if err != nil {
		return nil, err
	}
	if len(columns) > 0 {
		it.SetColumnNames(columns)
	}
	return it, nil
})

// FileIterator reads rows from a file on disk.
//
// With column names set, a row whose width differs from the names is dropped and counted in
// Skipped. That hides malformed data; SetStrict makes such a row stop iteration with
// ErrFieldCount instead.
type FileIterator struct {
	fh     *os.File
	r      *Reader
	names  []string
	strict bool

	row     Row
	err     error
	done    bool
	skipped int
}

// OpenIterator opens path for reading with dialect d. It returns an error wrapping
// ErrNotFound when path does not exist.
func OpenIterator(path string, d Dialect) (*FileIterator, error) {
	fh, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFoundError(path)
		}
		return nil, openError(path, err)
	}
	return &FileIterator{fh: fh, r: d.NewReader(fh)}, nil
}

// SetColumnNames keys subsequent rows by names. It takes effect from the next call to Next.
func (it *FileIterator) SetColumnNames(names []string) *FileIterator {
	if len(names) == 0 {
		it.names = nil
		return it
	}
	it.names = append([]string(nil), names...)
	return it
}

// SetStrict makes a width mismatch against the column names an error.
func (it *FileIterator) SetStrict(strict bool) *FileIterator {
	it.strict = strict
	return it
}

// Next implements RowIterator.
func (it *FileIterator) Next() bool {
	if it.done {
		return false
	}
	for {
		rec, err := it.r.Read()
		if err == io.EOF {
			it.stop(nil)
			return false
		}
		if err != nil {
			it.stop(err)
			return false
		}
		if it.names == nil {
			it.row = Row{Fields: rec}
			return true
		}
		if len(rec) != len(it.names) {
			if it.strict {
				it.stop(&ParseError{Line: it.r.Line(), Err: ErrFieldCount})
				return false
			}
			it.skipped++
			continue
		}
		it.row = NamedRow(it.names, rec)
		return true
	}
}

// Row implements RowIterator.
func (it *FileIterator) Row() Row { return it.row }

// Err implements RowIterator.
func (it *FileIterator) Err() error { return it.err }

// Skipped returns how many rows were dropped for not matching the column names.
func (it *FileIterator) Skipped() int { return it.skipped }

// Close implements RowIterator.
func (it *FileIterator) Close() error {
	it.done = true
	if it.fh == nil {
		return nil
	}
	err := it.fh.Close()
	it.fh = nil
	return err
}

func (it *FileIterator) stop(err error) {
	it.err = err
	it.done = true
	it.row = Row{}
}
