// Package wchar converts between Go strings and the NUL-terminated wchar_t
// buffers used by the RTSA API. The width of wchar_t is platform dependent:
// 4 bytes (UTF-32) on Linux and macOS, 2 bytes (UTF-16) on Windows.
package wchar

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

const (
	UTF16 = 2
	UTF32 = 4
)

func codec(width int) (encoding.Encoding, error) {
	switch width {
	case UTF16:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case UTF32:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	}
	return nil, fmt.Errorf("unsupported wchar_t width %d", width)
}

// Encode returns s as a NUL-terminated wide string.
func Encode(s string, width int) ([]byte, error) {
	enc, err := codec(width)
	if err != nil {
		return nil, err
	}
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("unable to encode %q: %s", s, err)
	}
	return append(b, make([]byte, width)...), nil
}

// Decode reads a wide string from b up to the first NUL character or the end
// of the buffer, whichever comes first. Invalid code units are replaced by
// U+FFFD.
func Decode(b []byte, width int) (string, error) {
	dec, err := codec(width)
	if err != nil {
		return "", err
	}
	n := Len(b, width) * width
	out, err := dec.NewDecoder().Bytes(b[:n])
	if err != nil {
		return "", fmt.Errorf("unable to decode wide string: %s", err)
	}
	return string(out), nil
}

// Len returns the number of code units in b before the terminating NUL.
func Len(b []byte, width int) int {
	units := len(b) / width
	for i := 0; i < units; i++ {
		zero := true
		for _, c := range b[i*width : (i+1)*width] {
			if c != 0 {
				zero = false
				break
			}
		}
		if zero {
			return i
		}
	}
	return units
}
