//go:build windows

package csvfile

// DefaultTerminator is the line ending written after each record when none is configured.
const DefaultTerminator = "\r\n"
