package lang

import (
	"bufio"
	"io"
)

// recognized is the exact symbol set the compiler understands, outside the
// 62 procedure identifier characters which are checked separately.
var recognized = map[byte]bool{
	'+': true, '-': true, '<': true, '>': true, '.': true, ',': true,
	'[': true, ']': true, '{': true, '}': true, '(': true, '|': true, ')': true,
	':': true, ';': true, '$': true, '`': true, '\'': true,
	'^': true, '_': true, '%': true, '&': true, '#': true, '~': true,
	'*': true, '@': true, '=': true, '!': true,
}

// IsRecognized reports whether b is one of the filter's recognized symbols
// or a procedure identifier character.
func IsRecognized(b byte) bool {
	if recognized[b] {
		return true
	}
	_, isProc := ProcIndex(b)
	return isProc
}

// Filter produces a restartable sequence of recognized source characters
// from an underlying byte stream, silently discarding anything else. Once
// EOF is observed it is returned permanently. A '!' is returned as '@' and
// recorded for BangSeen, so the driver can hand the remaining stream to the
// runtime as program input.
type Filter struct {
	r        *bufio.Reader
	eof      bool
	bangSeen bool
}

// NewFilter wraps r in a Filter. r is retained and read further (for ','
// program input) once BangSeen reports true.
func NewFilter(r *bufio.Reader) *Filter {
	return &Filter{r: r}
}

// Next returns the next recognized character and true, or (0, false) once
// input is exhausted. A '!' is translated to '@' here, matching the
// compiler's contract, and also marks the stream as ready to be handed off
// as program input.
func (f *Filter) Next() (byte, bool) {
	if f.eof {
		return 0, false
	}
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			f.eof = true
			return 0, false
		}
		if !IsRecognized(b) {
			continue
		}
		if b == '!' {
			f.bangSeen = true
			return '@', true
		}
		return b, true
	}
}

// BangSeen reports whether a '!' has been translated yet.
func (f *Filter) BangSeen() bool { return f.bangSeen }

// InputReader returns the underlying reader so the driver can read raw
// program input from the exact point the source stream was left at. It is
// only meaningful after BangSeen returns true.
func (f *Filter) InputReader() io.Reader { return f.r }
