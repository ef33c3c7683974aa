package session

import (
	"context"
	"testing"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/sim"
)

func TestOpenSim(t *testing.T) {
	s, err := Open(Config{Backend: BackendSim, Memory: rtsa.MemorySmall})
	if err != nil {
		t.Fatalf("Open() = %s", err)
	}
	d, err := s.Device(context.Background(), rtsa.ModeSweepSA)
	if err != nil {
		t.Fatalf("Device() = %s", err)
	}
	if d.Serial() != "SIM000001" || d.Mode() != rtsa.ModeSweepSA {
		t.Errorf("Device() = %s in mode %s", d, d.Mode())
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() = %s", err)
	}
	if _, err := d.State(); err != rtsa.ErrClosed {
		t.Errorf("device State() after Close = %v, want %v", err, rtsa.ErrClosed)
	}
}

func TestOpenSerial(t *testing.T) {
	s, err := Open(Config{Backend: BackendSim, Serial: "nope"})
	if err != nil {
		t.Fatalf("Open() = %s", err)
	}
	defer s.Close()
	if _, err := s.Device(context.Background(), rtsa.ModeRaw); err == nil {
		t.Error("Device() with an unknown serial succeeded")
	}
}

func TestNewBackend(t *testing.T) {
	b, lib, err := NewBackend(Config{Backend: "SIM"})
	if err != nil || lib != nil {
		t.Fatalf("NewBackend(SIM) = %v, %v, %v", b, lib, err)
	}
	if _, ok := b.(*sim.Backend); !ok {
		t.Errorf("NewBackend(SIM) = %T, want *sim.Backend", b)
	}
	if _, _, err := NewBackend(Config{Backend: "hackrf"}); err == nil {
		t.Error("NewBackend(hackrf) succeeded")
	}
	if _, _, err := NewBackend(Config{Backend: BackendSDK, Library: "/nonexistent/libAaroniaRTSAAPI.so"}); err == nil {
		t.Error("NewBackend(sdk) with a missing library succeeded")
	}
}
