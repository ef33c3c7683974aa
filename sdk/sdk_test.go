package sdk

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

func TestSymbols(t *testing.T) {
	if len(symbols) != numSymbols {
		t.Fatalf("%d symbol names for %d entry points", len(symbols), numSymbols)
	}
	seen := map[string]bool{}
	for _, s := range symbols {
		if !strings.HasPrefix(s, "AARTSAAPI_") {
			t.Errorf("symbol %q lacks the API prefix", s)
		}
		if seen[s] {
			t.Errorf("symbol %q listed twice", s)
		}
		seen[s] = true
	}
	if symbols[symConfigGetString] != "AARTSAAPI_ConfigGetString" || symbols[symSendPacket] != "AARTSAAPI_SendPacket" {
		t.Error("symbol names are out of order")
	}
}

func TestLoadMissingLibrary(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "libAaroniaRTSAAPI.so"))
	if err == nil {
		t.Fatal("Load() of a missing library succeeded")
	}
	if l.Loaded() {
		t.Error("Loaded() = true after a failed Load")
	}
}

func TestMissingSymbolsError(t *testing.T) {
	err := &MissingSymbolsError{Path: "lib.so", Symbols: []string{"AARTSAAPI_Init", "AARTSAAPI_Open"}}
	want := "lib.so is missing 2 RTSA API symbol(s): AARTSAAPI_Init, AARTSAAPI_Open"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestSampleCount(t *testing.T) {
	tests := []struct {
		name string
		p    rtsa.Packet
		want int
	}{
		{name: "empty", p: rtsa.Packet{Num: 0, Size: 2, Stride: 2}, want: 0},
		{name: "no size", p: rtsa.Packet{Num: 4, Size: 0, Stride: 2}, want: 0},
		{name: "iq", p: rtsa.Packet{Num: 1024, Size: 2, Stride: 2}, want: 2048},
		{name: "single row", p: rtsa.Packet{Num: 1, Size: 4096, Stride: 4096}, want: 4096},
		{name: "padded rows", p: rtsa.Packet{Num: 3, Size: 1000, Stride: 1024}, want: 3048},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := sampleCount(&tc.p); got != tc.want {
				t.Errorf("sampleCount() = %d, want %d", got, tc.want)
			}
		})
	}
}
