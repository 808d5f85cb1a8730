package csvfile

import (
	"errors"
	"os"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRaw(t *testing.T, content string) string {
	t.Helper()
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func collect(t *testing.T, it RowIterator) []Row {
	t.Helper()
	var rows []Row
	for it.Next() {
		rows = append(rows, it.Row())
	}
	return rows
}

func TestFileIteratorPositional(t *testing.T) {
	t.Parallel()

	it, err := OpenIterator(writeRaw(t, "a,b\n\"c,d\",e\n"), DefaultDialect())
	require.NoError(t, err)
	defer it.Close()

	rows := collect(t, it)
	require.NoError(t, it.Err())
	require.Len(t, rows, 2, spew.Sdump(rows))
	assert.Equal(t, []string{"a", "b"}, rows[0].Fields)
	assert.Equal(t, []string{"c,d", "e"}, rows[1].Fields)
	assert.Nil(t, rows[0].Map())
}

func TestFileIteratorNotRestartable(t *testing.T) {
	t.Parallel()

	it, err := OpenIterator(writeRaw(t, "a\nb\n"), DefaultDialect())
	require.NoError(t, err)
	defer it.Close()

	assert.Len(t, collect(t, it), 2)
	assert.False(t, it.Next())
	assert.Empty(t, collect(t, it))
	assert.NoError(t, it.Err())
}

func TestFileIteratorColumnNamesMidIteration(t *testing.T) {
	t.Parallel()

	it, err := OpenIterator(writeRaw(t, "1,x\n2,y\n3,z\n"), DefaultDialect())
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next())
	assert.False(t, it.Row().Named())

	it.SetColumnNames([]string{"id", "name"})
	require.True(t, it.Next())
	first := it.Row()
	name, ok := first.Get("name")
	require.True(t, ok)
	assert.Equal(t, "y", name)

	it.SetColumnNames([]string{"key", "value"})
	require.True(t, it.Next())
	v, ok := it.Row().Get("value")
	require.True(t, ok)
	assert.Equal(t, "z", v)
	assert.Equal(t, []string{"id", "name"}, first.Names(), "earlier rows keep their names")

	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
}

func TestFileIteratorSkipsAndCounts(t *testing.T) {
	t.Parallel()

	it, err := OpenIterator(writeRaw(t, "1,david\n2,barry,1989\n\n3\n4,sam,1969\n"), DefaultDialect())
	require.NoError(t, err)
	defer it.Close()
	it.SetColumnNames([]string{"id", "name", "year"})

	rows := collect(t, it)
	require.NoError(t, it.Err())
	require.Len(t, rows, 2, spew.Sdump(rows))
	assert.Equal(t, "2", rows[0].Map()["id"])
	assert.Equal(t, "4", rows[1].Map()["id"])
	assert.Equal(t, 2, it.Skipped())
}

func TestFileIteratorStrict(t *testing.T) {
	t.Parallel()

	it, err := OpenIterator(writeRaw(t, "1,david,1979\n2,barry\n3,terry,1980\n"), DefaultDialect())
	require.NoError(t, err)
	defer it.Close()
	it.SetColumnNames([]string{"id", "name", "year"}).SetStrict(true)

	rows := collect(t, it)
	assert.Len(t, rows, 1)

	err = it.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFieldCount)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Line)
	assert.False(t, it.Next())
}

func TestFileIteratorParseError(t *testing.T) {
	t.Parallel()

	it, err := OpenIterator(writeRaw(t, "ok,row\nbad\"quote,x\nnever,seen\n"), DefaultDialect())
	require.NoError(t, err)
	defer it.Close()

	rows := collect(t, it)
	assert.Len(t, rows, 1)
	assert.ErrorIs(t, it.Err(), ErrBareQuote)
	assert.Equal(t, Row{}, it.Row())
}

func TestFileIteratorMissingFile(t *testing.T) {
	t.Parallel()

	_, err := OpenIterator(tempPath(t), DefaultDialect())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileIteratorCloseIdempotent(t *testing.T) {
	t.Parallel()

	it, err := OpenIterator(writeRaw(t, "a\n"), DefaultDialect())
	require.NoError(t, err)
	require.NoError(t, it.Close())
	require.NoError(t, it.Close())
	assert.False(t, it.Next())
}

type sliceIterator struct {
	rows   []Row
	pos    int
	closed bool
}

func (s *sliceIterator) Next() bool {
	if s.pos >= len(s.rows) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceIterator) Row() Row     { return s.rows[s.pos-1] }
func (s *sliceIterator) Err() error   { return nil }
func (s *sliceIterator) Close() error { s.closed = true; return nil }

func TestFileCustomIteratorFactory(t *testing.T) {
	t.Parallel()

	path := tempPath(t)
	f := New(path).SetComma(';').SetColumnNames([]string{"k"})
	require.NoError(t, f.Write([]string{"ignored"}))
	require.NoError(t, f.Close())

	var (
		gotPath    string
		gotDialect Dialect
		gotColumns []string
		built      *sliceIterator
	)
	f.SetIteratorFactory(IteratorFactoryFunc(func(p string, d Dialect, columns []string) (RowIterator, error) {
		gotPath, gotDialect, gotColumns = p, d, columns
		built = &sliceIterator{rows: []Row{NamedRow(columns, []string{"custom"})}}
		return built, nil
	}))

	rows, err := f.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	v, _ := rows[0].Get("k")
	assert.Equal(t, "custom", v)
	assert.Equal(t, path, gotPath)
	assert.Equal(t, byte(';'), gotDialect.Comma)
	assert.Equal(t, []string{"k"}, gotColumns)
	assert.True(t, built.closed)

	f.SetIteratorFactory(nil)
	rows, err = f.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	v, _ = rows[0].Get("k")
	assert.Equal(t, "ignored", v)
}

func TestFileIteratorFactoryError(t *testing.T) {
	t.Parallel()

	f := New(writeRaw(t, "a\n"))
	boom := errors.New("boom")
	f.SetIteratorFactory(IteratorFactoryFunc(func(string, Dialect, []string) (RowIterator, error) {
		return nil, boom
	}))

	var errs []error
	for _, err := range f.All() {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
}
