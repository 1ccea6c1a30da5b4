package lang

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	if !cond {
		t.Fatalf(format, args...)
	}
}

func drain(f *Filter) []byte {
	var out []byte
	for {
		b, ok := f.Next()
		if !ok {
			return out
		}
		out = append(out, b)
	}
}

func TestFilterDiscardsUnrecognized(t *testing.T) {
	f := NewFilter(bufio.NewReader(strings.NewReader("hello +++ world [[[ ]]]")))
	out := drain(f)
	// Letters are procedure identifiers, so only the spaces are discarded.
	assert(t, string(out) == "hello+++world[[[]]]", "unexpected filtered output: %q", out)
}

func TestFilterPassesProcedureIdentifiers(t *testing.T) {
	f := NewFilter(bufio.NewReader(strings.NewReader(":A+++;0Az")))
	out := drain(f)
	assert(t, string(out) == ":A+++;0Az", "unexpected filtered output: %q", out)
}

func TestFilterEOFIsSticky(t *testing.T) {
	f := NewFilter(bufio.NewReader(strings.NewReader("+")))
	b, ok := f.Next()
	require.True(t, ok)
	require.Equal(t, byte('+'), b)

	for i := 0; i < 3; i++ {
		_, ok := f.Next()
		require.False(t, ok, "EOF must be returned permanently once observed")
	}
}

func TestFilterTranslatesBangAndExposesReader(t *testing.T) {
	f := NewFilter(bufio.NewReader(strings.NewReader("+++!rest-of-input")))
	var out []byte
	for {
		b, ok := f.Next()
		if !ok {
			t.Fatalf("filter ended before seeing the translated '@'")
		}
		out = append(out, b)
		if b == '@' {
			break
		}
	}
	assert(t, string(out) == "+++@", "unexpected output before bang: %q", out)
	require.True(t, f.BangSeen())

	buf := make([]byte, len("rest-of-input"))
	n, err := f.InputReader().Read(buf)
	require.NoError(t, err)
	require.Equal(t, "rest-of-input", string(buf[:n]))
}

func TestFilterEveryBangTranslated(t *testing.T) {
	f := NewFilter(bufio.NewReader(strings.NewReader("+!+!+")))
	out := drain(f)
	// Every '!' is translated to '@', same as an explicit separator; only
	// the first sighting flips BangSeen and hands off the stdin stream.
	assert(t, string(out) == "+@+@+", "unexpected output: %q", out)
}
