package csvfile

import (
	"bufio"
	"errors"
	"io"
)

var (
	errNilWriter      = errors.New("csvfile: writer is nil")
	errWriterNoTarget = errors.New("csvfile: writer destination cannot be nil")
)

// Writer emits delimited records through an internal buffer.
type Writer struct {
	dst *bufio.Writer

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the enclosure character. Default is '"'.
	Quote byte
	// Escape, when non-zero, is copied through together with the byte after it instead of
	// the quote being doubled. A field that ends with the escape byte escapes its own closing
	// quote, so reading fails at that record and nothing after it can be read.
	Escape byte
	// Terminator is written after every record. Empty means DefaultTerminator.
	Terminator string
	// AlwaysQuote forces quoting for all fields when enabled.
	AlwaysQuote bool

	err error
}

// NewWriter creates a new Writer that buffers output to w.
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	return &Writer{
		dst:        bufio.NewWriterSize(w, defaultBufferSize),
		Comma:      ',',
		Quote:      '"',
		Terminator: DefaultTerminator,
	}
}

// Reset updates the underlying writer while preserving the configuration.
func (w *Writer) Reset(dst io.Writer) {
	if w == nil {
		panic(errNilWriter.Error())
	}
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, defaultBufferSize)
	} else {
		w.dst.Reset(dst)
	}
	w.err = nil
}

// Write emits a single record followed by the terminator. A record holding one empty
// field is written as an empty quoted field so that it does not read back as a blank line.
func (w *Writer) Write(record []string) error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}

	comma := w.Comma
	if comma == 0 {
		comma = ','
	}
	quote := w.Quote
	if quote == 0 {
		quote = '"'
	}
	escape := w.Escape
	if escape == quote {
		escape = 0
	}
	term := w.Terminator
	if term == "" {
		term = DefaultTerminator
	}

	lone := len(record) == 1 && record[0] == ""
	for i := range record {
		if i > 0 {
			if err := w.dst.WriteByte(comma); err != nil {
				w.err = err
				return err
			}
		}
		if err := w.writeField(record[i], comma, quote, escape, lone); err != nil {
			w.err = err
			return err
		}
	}

	if _, err := w.dst.WriteString(term); err != nil {
		w.err = err
		return err
	}
	return nil
}

// WriteAll writes multiple records, stopping at the first error.
func (w *Writer) WriteAll(records [][]string) error {
	if w == nil {
		return errNilWriter
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes pending buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}

func (w *Writer) writeField(field string, comma, quote, escape byte, force bool) error {
	if !force && !w.AlwaysQuote && !fieldNeedsQuote(field, comma, quote, escape) {
		_, err := w.dst.WriteString(field)
		return err
	}
	if err := w.dst.WriteByte(quote); err != nil {
		return err
	}

	start := 0
	for i := 0; i < len(field); i++ {
		c := field[i]
		if escape != 0 && c == escape {
			i++
			continue
		}
		if c != quote {
			continue
		}
		if start < i {
			if _, err := w.dst.WriteString(field[start:i]); err != nil {
				return err
			}
		}
		if _, err := w.dst.Write([]byte{quote, quote}); err != nil {
			return err
		}
		start = i + 1
	}
	if start < len(field) {
		if _, err := w.dst.WriteString(field[start:]); err != nil {
			return err
		}
	}
	return w.dst.WriteByte(quote)
}

func fieldNeedsQuote(field string, comma, quote, escape byte) bool {
	for i := 0; i < len(field); i++ {
		switch c := field[i]; c {
		case quote, comma, '\n', '\r':
			return true
		default:
			if escape != 0 && c == escape {
				return true
			}
		}
	}
	return false
}
