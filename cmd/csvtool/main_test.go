package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	log.SetOutput(io.Discard)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestWriteAndCat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")

	_, err := run(t, "[\"1\",\"david\",1979]\n\n[2,\"barry, alan\",1989]\n", "write", "--terminator", "lf", path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1,david,1979\n2,\"barry, alan\",1989\n", string(raw))

	out, err := run(t, "", "cat", path)
	require.NoError(t, err)
	assert.Equal(t, "1\tdavid\t1979\n2\tbarry, alan\t1989\n", out)

	out, err = run(t, "", "cat", "--json", "--columns", "id,name,year", path)
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":\"1\",\"name\":\"david\",\"year\":\"1979\"}\n{\"id\":\"2\",\"name\":\"barry, alan\",\"year\":\"1989\"}\n", out)

	out, err = run(t, "", "cat", "--columns", "id,name", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, "", "cat", "--strict", "--columns", "id,name", path)
	assert.Error(t, err)
}

func TestWriteAppendAndCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")

	_, err := run(t, "[\"a\"]\n[\"b\"]\n", "write", path)
	require.NoError(t, err)
	_, err = run(t, "[\"c\"]\n", "write", "--append", path)
	require.NoError(t, err)

	out, err := run(t, "", "count", path)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	_, err = run(t, "", "write", path)
	require.NoError(t, err)
	out, err = run(t, "", "count", path)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestWriteRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	_, err := run(t, "[\"ok\"]\nnot json\n", "write", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdin line 2")
}

func TestWriteKeepsLargeNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.csv")

	_, err := run(t, "[\"id\",9007199254740993,12345678901234567890,1e21,-0.5]\n", "write", "--terminator", "lf", path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,9007199254740993,12345678901234567890,1e21,-0.5\n", string(raw))
}

func TestDelimiterFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semi.csv")

	_, err := run(t, "[\"a;b\",\"c\"]\n", "write", "--delimiter", ";", "--crlf", path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"a;b\";c\r\n", string(raw))

	out, err := run(t, "", "cat", "--json", "--delimiter", ";", path)
	require.NoError(t, err)
	assert.Equal(t, "[\"a;b\",\"c\"]\n", out)
}

func TestInfoAndRm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "info.csv")
	_, err := run(t, "[\"x\",\"y\"]\n", "write", "--terminator", "lf", path)
	require.NoError(t, err)

	out, err := run(t, "", "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exists     : true")
	assert.Contains(t, out, "Size       : 4 B")
	assert.Contains(t, out, "Lines      : 1")

	_, err = run(t, "", "rm", path)
	require.NoError(t, err)
	_, err = run(t, "", "rm", path)
	require.NoError(t, err)

	out, err = run(t, "", "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exists     : false")

	_, err = run(t, "", "cat", path)
	assert.Error(t, err)
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("CSVTOOL_DSN", "")
	path := filepath.Join(t.TempDir(), "load.csv")
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o644))

	_, err := run(t, "", "load", "--table", "t", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSVTOOL_DSN")
}
