package csvfile

import (
	"bytes"
	"io"
	"unsafe"
)

const defaultBufferSize = 1 << 12 // 4096 bytes

// Reader parses delimited records from a byte stream.
type Reader struct {
	src io.Reader

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the enclosure character. Default is '"'.
	Quote byte
	// Escape, when non-zero, protects the byte that follows it inside a quoted field.
	// Both bytes are kept in the decoded value. Zero disables escaping.
	Escape byte
	// ReuseRecord indicates whether Read should reuse the backing array of the returned slice.
	ReuseRecord bool
	// FieldsPerRecord expects each record to contain this many fields. Zero captures the width
	// of the first record; a negative value disables the check.
	FieldsPerRecord int

	buf    []byte
	bufPos int
	bufLen int
	bufErr error

	record       []string
	dataBuf      []byte
	fieldBounds  []int
	recordQuoted bool
	finished     bool
	line         int
	recordLine   int
}

// NewReader creates a Reader that consumes CSV data from r. It panics if r is nil.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic("csvfile: reader source cannot be nil")
	}

	return &Reader{
		src:         r,
		Comma:       ',',
		Quote:       '"',
		buf:         make([]byte, defaultBufferSize),
		record:      make([]string, 0, 16),
		dataBuf:     make([]byte, 0, 512),
		fieldBounds: make([]int, 0, 32),
		line:        1,
	}
}

// Read returns the next record. Blank lines are skipped. io.EOF signals that no more
// records remain. When the width check fails the record is returned along with ErrFieldCount.
func (r *Reader) Read() (record []string, err error) {
	if r == nil || r.src == nil {
		return nil, io.EOF
	}
	for {
		record, err = r.readRecord()
		if err != nil {
			return record, err
		}
		if len(record) == 1 && record[0] == "" && !r.recordQuoted {
			continue
		}
		return record, r.checkWidth(record)
	}
}

// ReadAll exhausts the reader and returns the accumulated records plus the first
// non-EOF error encountered.
func (r *Reader) ReadAll() (records [][]string, err error) {
	for {
		record, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

// Line reports the physical line on which the most recently returned record started.
func (r *Reader) Line() int {
	return r.recordLine
}

func (r *Reader) checkWidth(record []string) error {
	switch {
	case r.FieldsPerRecord < 0:
		return nil
	case r.FieldsPerRecord == 0:
		r.FieldsPerRecord = len(record)
		return nil
	case len(record) != r.FieldsPerRecord:
		return ErrFieldCount
	}
	return nil
}

func (r *Reader) readRecord() ([]string, error) {
	if r.finished {
		return nil, io.EOF
	}

	comma := r.Comma
	if comma == 0 {
		comma = ','
	}
	quote := r.Quote
	if quote == 0 {
		quote = '"'
	}
	escape := r.Escape
	if escape == quote {
		escape = 0
	}

	// Reset state for assembling the next record, reusing slices when allowed.
	if r.ReuseRecord {
		r.record = r.record[:0]
	} else {
		r.record = nil
	}
	r.dataBuf = r.dataBuf[:0]
	r.fieldBounds = r.fieldBounds[:0]
	r.recordQuoted = false
	r.recordLine = r.line

	inQuotes := false
	sawQuotedField := false
	column := 1
	fieldStart := 0

	for {
		if r.bufPos >= r.bufLen {
			if r.bufErr != nil {
				curColumn := column
				err := r.bufErr
				r.bufErr = nil
				if err == io.EOF {
					if inQuotes {
						r.finished = true
						return nil, r.wrapError(curColumn, ErrUnterminatedQuote)
					}
					// Flush a trailing field if data ended without a terminator.
					if len(r.fieldBounds) > 0 || len(r.dataBuf) > 0 || sawQuotedField {
						r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
						r.finished = true
						return r.buildRecord(), nil
					}
					r.finished = true
					return nil, io.EOF
				}
				return nil, err
			}

			n, err := r.src.Read(r.buf)
			if n == 0 {
				if err != nil {
					r.bufErr = err
				}
				continue
			}
			r.bufPos = 0
			r.bufLen = n
			r.bufErr = err
		}

		if !inQuotes {
			data := r.buf[r.bufPos:r.bufLen]
			if len(data) == 0 {
				continue
			}

			quoteIdx := bytes.IndexByte(data, quote)
			switch {
			case quoteIdx == -1:
				recordDone, err := r.consumePlain(comma, r.bufLen, &column, &fieldStart, &sawQuotedField)
				if err != nil {
					return nil, err
				}
				if recordDone {
					return r.buildRecord(), nil
				}
				if r.bufPos >= r.bufLen {
					continue
				}
			case quoteIdx > 0:
				// Only the bytes before the quote take the fast path.
				recordDone, err := r.consumePlain(comma, r.bufPos+quoteIdx, &column, &fieldStart, &sawQuotedField)
				if err != nil {
					return nil, err
				}
				if recordDone {
					return r.buildRecord(), nil
				}
				if r.bufPos >= r.bufLen {
					continue
				}
			}
		}

		curColumn := column
		b := r.buf[r.bufPos]
		r.bufPos++

		if inQuotes {
			switch {
			case escape != 0 && b == escape:
				r.dataBuf = append(r.dataBuf, b)
				next, err := r.peekByte()
				if err != nil && err != io.EOF {
					return nil, err
				}
				if err == io.EOF {
					column = curColumn + 1
					continue
				}
				r.bufPos++
				r.dataBuf = append(r.dataBuf, next)
				if next == '\n' {
					r.line++
					column = 1
				} else {
					column = curColumn + 2
				}
				continue
			case b == quote:
				// Doubled quote inside quotes is a literal quote.
				next, err := r.peekByte()
				if err == nil && next == quote {
					r.bufPos++
					r.dataBuf = append(r.dataBuf, quote)
					column = curColumn + 2
					continue
				}
				if err != nil && err != io.EOF {
					return nil, err
				}
				inQuotes = false
				column = curColumn + 1
				continue
			case b == '\n':
				r.dataBuf = append(r.dataBuf, b)
				r.line++
				column = 1
				continue
			}

			start := r.bufPos - 1
			run := 1
			if r.bufPos < r.bufLen {
				data := r.buf[r.bufPos:r.bufLen]
				for i := 0; i < len(data); i++ {
					c := data[i]
					if c == quote || c == '\n' || (escape != 0 && c == escape) {
						break
					}
					run++
				}
				r.bufPos += run - 1
			}
			column = curColumn + run
			r.dataBuf = append(r.dataBuf, r.buf[start:start+run]...)
			continue
		}

		switch b {
		case comma:
			r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
			fieldStart = len(r.dataBuf)
			sawQuotedField = false
			column = curColumn + 1
		case '\n':
			r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
			r.line++
			return r.buildRecord(), nil
		case '\r':
			next, err := r.peekByte()
			if err == nil && next == '\n' {
				r.bufPos++
			}
			if err != nil && err != io.EOF {
				return nil, err
			}
			r.fieldBounds = append(r.fieldBounds, fieldStart, len(r.dataBuf))
			r.line++
			return r.buildRecord(), nil
		case quote:
			// A quote opens a quoted field only at the start of the field.
			if len(r.dataBuf) == fieldStart && !sawQuotedField {
				inQuotes = true
				sawQuotedField = true
				r.recordQuoted = true
				column = curColumn + 1
				continue
			}
			return nil, r.wrapError(curColumn, ErrBareQuote)
		default:
			start := r.bufPos - 1
			run := 1
			if r.bufPos < r.bufLen {
				data := r.buf[r.bufPos:r.bufLen]
				for i := 0; i < len(data); i++ {
					c := data[i]
					if c == comma || c == '\n' || c == '\r' || c == quote {
						break
					}
					run++
				}
				r.bufPos += run - 1
			}
			column = curColumn + run
			r.dataBuf = append(r.dataBuf, r.buf[start:start+run]...)
		}
	}
}

// buildRecord maps the accumulated fieldBounds onto the data buffer, respecting ReuseRecord.
func (r *Reader) buildRecord() []string {
	fieldCount := len(r.fieldBounds) / 2

	var recordStr string
	if r.ReuseRecord {
		if len(r.dataBuf) > 0 {
			// Fields share a single backing buffer until the next Read.
			recordStr = unsafe.String(unsafe.SliceData(r.dataBuf), len(r.dataBuf))
		}
		if cap(r.record) < fieldCount {
			r.record = make([]string, fieldCount)
		}
		r.record = r.record[:fieldCount]
	} else {
		recordStr = string(r.dataBuf)
		r.record = make([]string, fieldCount)
	}

	for i := 0; i < fieldCount; i++ {
		r.record[i] = recordStr[r.fieldBounds[2*i]:r.fieldBounds[2*i+1]]
	}
	return r.record
}

func (r *Reader) wrapError(column int, err error) error {
	return &ParseError{Line: r.line, Column: column, Err: err}
}

// consumePlain consumes unquoted field data in r.buf[r.bufPos:end]. It reports whether a
// record terminator was seen.
func (r *Reader) consumePlain(comma byte, end int, column *int, fieldStart *int, sawQuotedField *bool) (bool, error) {
	for {
		if r.bufPos >= end {
			return false, nil
		}

		data := r.buf[r.bufPos:end]
		idxComma := bytes.IndexByte(data, comma)
		idxNewline := bytes.IndexByte(data, '\n')
		idxCR := bytes.IndexByte(data, '\r')

		next := len(data)
		delim := byte(0)

		if idxComma >= 0 && idxComma < next {
			next = idxComma
			delim = comma
		}
		if idxNewline >= 0 && idxNewline < next {
			next = idxNewline
			delim = '\n'
		}
		if idxCR >= 0 && idxCR < next {
			next = idxCR
			delim = '\r'
		}

		if next > 0 {
			r.dataBuf = append(r.dataBuf, data[:next]...)
			r.bufPos += next
			*column += next
		}

		if delim == 0 {
			return false, nil
		}

		r.bufPos++
		switch delim {
		case comma:
			r.fieldBounds = append(r.fieldBounds, *fieldStart, len(r.dataBuf))
			*fieldStart = len(r.dataBuf)
			*sawQuotedField = false
			*column = *column + 1
		case '\n':
			r.fieldBounds = append(r.fieldBounds, *fieldStart, len(r.dataBuf))
			r.line++
			return true, nil
		case '\r':
			nextByte, err := r.peekByte()
			if err == nil && nextByte == '\n' {
				r.bufPos++
			} else if err != nil && err != io.EOF {
				return false, err
			}
			r.fieldBounds = append(r.fieldBounds, *fieldStart, len(r.dataBuf))
			r.line++
			return true, nil
		}
	}
}

// peekByte returns the next buffered byte, refilling from src as needed.
func (r *Reader) peekByte() (byte, error) {
	for {
		if r.bufPos < r.bufLen {
			return r.buf[r.bufPos], nil
		}
		if r.bufErr != nil {
			return 0, r.bufErr
		}

		n, err := r.src.Read(r.buf)
		if n == 0 && err != nil {
			return 0, err
		}
		if n == 0 {
			continue
		}
		r.bufPos = 0
		r.bufLen = n
		r.bufErr = err
	}
}
