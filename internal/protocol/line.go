package protocol

import (
	"errors"
	"strings"
)

// MaxLineLen is the line cap in bytes. A client that sends more than this
// between terminators loses the whole buffered line.
const MaxLineLen = 512

// ErrLineTooLong reports a discarded oversized buffer. It is recoverable:
// the assembler resets and the next byte starts a fresh line.
var ErrLineTooLong = errors.New("line exceeds maximum length, buffer discarded")

// Assembler reconstructs newline-delimited command lines from a raw byte
// stream. Printable bytes (>= 0x20) accumulate; CR or LF completes the
// current line; everything else is dropped. CRLF framing works because the
// LF then arrives on an empty buffer and is ignored.
type Assembler struct {
	buf []byte
	max int
}

// NewAssembler returns an assembler with the standard line cap.
func NewAssembler() *Assembler {
	return NewAssemblerSize(MaxLineLen)
}

// NewAssemblerSize returns an assembler with a custom line cap.
func NewAssemblerSize(max int) *Assembler {
	if max <= 0 {
		max = MaxLineLen
	}
	return &Assembler{buf: make([]byte, 0, 64), max: max}
}

// Feed consumes one byte. When the byte completes a line, the line is
// returned with surrounding whitespace trimmed and ok is true. Feeding a
// terminator into an empty buffer yields nothing. A byte that would push the
// buffer past the cap discards the buffer and returns ErrLineTooLong; the
// assembler stays usable.
func (a *Assembler) Feed(b byte) (line string, ok bool, err error) {
	switch {
	case b == '\r' || b == '\n':
		if len(a.buf) == 0 {
			return "", false, nil
		}
		line = strings.TrimSpace(string(a.buf))
		a.buf = a.buf[:0]
		if line == "" {
			// Whitespace-only buffer, nothing to dispatch.
			return "", false, nil
		}
		return line, true, nil
	case b >= 0x20:
		if len(a.buf) >= a.max {
			a.buf = a.buf[:0]
			return "", false, ErrLineTooLong
		}
		a.buf = append(a.buf, b)
		return "", false, nil
	default:
		// Control bytes other than CR/LF carry nothing.
		return "", false, nil
	}
}

// Reset discards any partially assembled line. Called on session teardown so
// a reused assembler never leaks bytes across connections.
func (a *Assembler) Reset() {
	a.buf = a.buf[:0]
}

// Pending returns the number of buffered bytes awaiting a terminator.
func (a *Assembler) Pending() int {
	return len(a.buf)
}
