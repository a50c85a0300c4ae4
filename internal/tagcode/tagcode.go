// Package tagcode hides a short tag string in whitespace. Each byte becomes
// eight characters, most significant bit first, with 0 written as a space
// and 1 as a horizontal tab. The scheme is reversible and not a cipher.
package tagcode

import (
	"errors"
	"fmt"
	"strings"
)

const (
	zero = ' '
	one  = '\t'
)

var (
	// ErrUnencodable reports a rune that does not fit in eight bits.
	ErrUnencodable = errors.New("tag contains a character outside 8 bits")
	// ErrMalformed reports input that is not a whitespace-encoded tag.
	ErrMalformed = errors.New("malformed encoded tag")
)

// Encode turns text into its whitespace representation.
func Encode(text string) (string, error) {
	var b strings.Builder
	b.Grow(len(text) * 8)
	for i, r := range text {
		if r > 0xFF {
			return "", fmt.Errorf("%w: %q at offset %d", ErrUnencodable, r, i)
		}
		for bit := 7; bit >= 0; bit-- {
			if (r>>bit)&1 == 1 {
				b.WriteByte(one)
			} else {
				b.WriteByte(zero)
			}
		}
	}
	return b.String(), nil
}

// Decode reverses Encode. The length must be a multiple of eight and only
// spaces and tabs are accepted.
func Decode(code string) (string, error) {
	if len(code)%8 != 0 {
		return "", fmt.Errorf("%w: length %d is not a multiple of 8", ErrMalformed, len(code))
	}
	var b strings.Builder
	b.Grow(len(code) / 8)
	for i := 0; i < len(code); i += 8 {
		var r rune
		for _, c := range []byte(code[i : i+8]) {
			r <<= 1
			switch c {
			case zero:
			case one:
				r |= 1
			default:
				return "", fmt.Errorf("%w: unexpected byte %q at offset %d", ErrMalformed, c, i)
			}
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// Line trims everything but spaces and tabs from both ends of an ini line
// and reports whether what remains looks like an encoded tag.
func Line(line string) (string, bool) {
	line = strings.Trim(line, "\r\n")
	if line == "" || strings.Trim(line, " \t") != "" {
		return "", false
	}
	return line, len(line)%8 == 0
}
