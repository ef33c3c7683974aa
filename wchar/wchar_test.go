package wchar

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		desc  string
		in    string
		width int
	}{
		{desc: "ascii utf32", in: "spectranv6/raw", width: UTF32},
		{desc: "ascii utf16", in: "spectranv6/raw", width: UTF16},
		{desc: "umlaut utf32", in: "Frequenz ändern", width: UTF32},
		{desc: "astral utf16", in: "📡 Rx1+Rx2", width: UTF16},
		{desc: "empty", in: "", width: UTF32},
	}
	for _, tc := range tests {
		b, err := Encode(tc.in, tc.width)
		if err != nil {
			t.Errorf("Encode(%s): %s", tc.desc, err)
			continue
		}
		if len(b)%tc.width != 0 {
			t.Errorf("Encode(%s): length %d is not a multiple of %d", tc.desc, len(b), tc.width)
		}
		if !bytes.Equal(b[len(b)-tc.width:], make([]byte, tc.width)) {
			t.Errorf("Encode(%s): missing NUL terminator", tc.desc)
		}
		got, err := Decode(b, tc.width)
		if err != nil {
			t.Errorf("Decode(%s): %s", tc.desc, err)
			continue
		}
		if got != tc.in {
			t.Errorf("Decode(%s) = %q, want %q", tc.desc, got, tc.in)
		}
	}
}

func TestDecodeStopsAtNUL(t *testing.T) {
	buf := make([]byte, 10*UTF32)
	copy(buf, []byte{'R', 0, 0, 0, 'x', 0, 0, 0, '1', 0, 0, 0})
	// Garbage after the terminator must be ignored.
	copy(buf[5*UTF32:], []byte{'Z', 0, 0, 0})
	got, err := Decode(buf, UTF32)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Rx1" {
		t.Errorf("Decode() = %q, want %q", got, "Rx1")
	}
}

func TestDecodeWithoutTerminator(t *testing.T) {
	buf := []byte{'a', 0, 'b', 0, 'c', 0}
	got, err := Decode(buf, UTF16)
	if err != nil {
		t.Fatal(err)
	}
	if got != "abc" {
		t.Errorf("Decode() = %q, want %q", got, "abc")
	}
	if n := Len(buf, UTF16); n != 3 {
		t.Errorf("Len() = %d, want 3", n)
	}
}

func TestUnsupportedWidth(t *testing.T) {
	if _, err := Encode("x", 3); err == nil {
		t.Error("Encode() with width 3 succeeded, want error")
	}
	if _, err := Decode([]byte{1, 2, 3}, 1); err == nil {
		t.Error("Decode() with width 1 succeeded, want error")
	}
}
