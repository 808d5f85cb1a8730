package csvfile

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Dialect describes how rows are delimited, enclosed and terminated. The library does not
// persist or detect a dialect; readers and writers agree only when given the same one.
type Dialect struct {
	Comma       byte
	Quote       byte
	Escape      byte
	Terminator  string
	AlwaysQuote bool
}

// DefaultDialect returns comma-separated fields enclosed in double quotes, no escape byte,
// and the platform line ending.
func DefaultDialect() Dialect {
	return Dialect{
		Comma:      ',',
		Quote:      '"',
		Terminator: DefaultTerminator,
	}
}

// NewWriter returns a Writer for dst configured with d.
func (d Dialect) NewWriter(dst io.Writer) *Writer {
	w := NewWriter(dst)
	w.Comma = d.Comma
	w.Quote = d.Quote
	w.Escape = d.Escape
	w.Terminator = d.Terminator
	w.AlwaysQuote = d.AlwaysQuote
	return w
}

// NewReader returns a Reader for src configured with d. Width checking is disabled.
func (d Dialect) NewReader(src io.Reader) *Reader {
	r := NewReader(src)
	r.Comma = d.Comma
	r.Quote = d.Quote
	r.Escape = d.Escape
	r.FieldsPerRecord = -1
	return r
}

type dialectDoc struct {
	Delimiter   *string `yaml:"delimiter"`
	Enclosure   *string `yaml:"enclosure"`
	Escape      *string `yaml:"escape"`
	Terminator  *string `yaml:"terminator"`
	AlwaysQuote *bool   `yaml:"always_quote"`
}

// LoadDialectFile reads a YAML dialect description from path.
func LoadDialectFile(path string) (Dialect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dialect{}, fmt.Errorf("failed to read dialect file %s: %w", path, err)
	}
	return ParseDialect(data)
}

// ParseDialect parses a YAML dialect description. Keys that are absent keep their
// DefaultDialect values. delimiter and enclosure must be exactly one byte; escape may be
// empty to disable escaping. terminator accepts lf, crlf, cr or a literal string.
func ParseDialect(data []byte) (Dialect, error) {
	var doc dialectDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Dialect{}, fmt.Errorf("failed to parse dialect YAML: %w", err)
	}

	d := DefaultDialect()
	var err error
	if doc.Delimiter != nil {
		if d.Comma, err = ParseByte("delimiter", *doc.Delimiter); err != nil {
			return Dialect{}, err
		}
	}
	if doc.Enclosure != nil {
		if d.Quote, err = ParseByte("enclosure", *doc.Enclosure); err != nil {
			return Dialect{}, err
		}
	}
	if doc.Escape != nil && *doc.Escape != "" {
		if d.Escape, err = ParseByte("escape", *doc.Escape); err != nil {
			return Dialect{}, err
		}
	}
	if doc.Terminator != nil && *doc.Terminator != "" {
		d.Terminator = ParseTerminator(*doc.Terminator)
	}
	if doc.AlwaysQuote != nil {
		d.AlwaysQuote = *doc.AlwaysQuote
	}
	return d, nil
}

// ParseTerminator maps the names lf, crlf and cr to their line endings and returns any
// other value unchanged.
func ParseTerminator(s string) string {
	switch s {
	case "lf", "LF":
		return "\n"
	case "crlf", "CRLF":
		return "\r\n"
	case "cr", "CR":
		return "\r"
	}
	return s
}

// ParseByte reads a single-byte dialect setting named key. The names \t and tab mean a tab.
func ParseByte(key, s string) (byte, error) {
	if s == `\t` || s == "tab" {
		return '\t', nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("dialect: %s must be a single byte, got %q", key, s)
	}
	return s[0], nil
}
