package tagcode_test

import (
	"errors"
	"strings"
	"testing"

	"remaster/internal/tagcode"
)

func TestEncodeKnownValue(t *testing.T) {
	// 'A' = 0x41 = 01000001
	got, err := tagcode.Encode("A")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if want := " \t     \t"; got != want {
		t.Fatalf("Encode(A) = %q, want %q", got, want)
	}
}

func TestRoundTripPrintableASCII(t *testing.T) {
	var all strings.Builder
	for c := byte(0x20); c < 0x7f; c++ {
		all.WriteByte(c)
	}
	inputs := []string{"", "Remastered by: Team CoinOPS", all.String(), "café"}
	for _, in := range inputs {
		code, err := tagcode.Encode(in)
		if err != nil {
			t.Fatalf("Encode(%q): %v", in, err)
		}
		if len(code) != 8*len([]rune(in)) {
			t.Fatalf("Encode(%q) length %d, want %d", in, len(code), 8*len([]rune(in)))
		}
		if strings.Trim(code, " \t") != "" {
			t.Fatalf("Encode(%q) produced non-whitespace output", in)
		}
		out, err := tagcode.Decode(code)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if out != in {
			t.Fatalf("round trip mismatch: %q -> %q", in, out)
		}
	}
}

func TestEncodeRejectsWideRunes(t *testing.T) {
	if _, err := tagcode.Encode("tag ✓"); !errors.Is(err, tagcode.ErrUnencodable) {
		t.Fatalf("expected ErrUnencodable, got %v", err)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"short":      "  \t",
		"bad char":   " \t   x \t",
		"nine chars": "         ",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := tagcode.Decode(in); !errors.Is(err, tagcode.ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestLine(t *testing.T) {
	code, _ := tagcode.Encode("ok")
	if got, ok := tagcode.Line(code + "\r\n"); !ok || got != code {
		t.Fatalf("expected encoded line to be recognised, got %q ok=%v", got, ok)
	}
	if _, ok := tagcode.Line("volume 6"); ok {
		t.Fatal("text line must not be recognised")
	}
	if _, ok := tagcode.Line(""); ok {
		t.Fatal("empty line must not be recognised")
	}
}
