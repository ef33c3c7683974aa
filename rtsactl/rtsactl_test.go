package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/dsp"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/profile"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/session"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/sim"
)

func newSim() *sim.Backend {
	b := sim.Default()
	b.IQSamples = 16
	return b
}

// run executes rtsactl with args on b and returns what it printed.
func run(t *testing.T, b *sim.Backend, stdin string, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	a.open = func(cfg session.Config) (*session.Session, error) {
		return session.OpenBackend(b, cfg)
	}
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func lines(out string, prefix string) []string {
	var matched []string
	for _, l := range strings.Split(out, "\n") {
		if strings.HasPrefix(l, prefix) {
			matched = append(matched, l)
		}
	}
	return matched
}

func TestDevices(t *testing.T) {
	b := sim.New(sim.DeviceSpec{Serial: "A1", Ready: true}, sim.DeviceSpec{Serial: "B2", Boost: true})
	b.RescanRetries = 2
	out, err := run(t, b, "", "devices")
	if err != nil {
		t.Fatalf("devices: %s\n%s", err, out)
	}
	for _, want := range []string{" - Serial Number: A1\n   ready: true\n", " - Serial Number: B2\n   ready: false\n   boost: true\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("devices output misses %q:\n%s", want, out)
		}
	}
}

func TestBackendFlag(t *testing.T) {
	a := newApp()
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--backend", "sim", "devices"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("devices: %s", err)
	}
	if !strings.Contains(out.String(), "SIM000001") {
		t.Errorf("devices on the sim backend = %q", out.String())
	}

	cmd = newRootCmd(newApp())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--backend", "hackrf", "devices"})
	if err := cmd.Execute(); err == nil {
		t.Error("devices on an unknown backend succeeded")
	}
}

func TestProfiles(t *testing.T) {
	out, err := run(t, newSim(), "", "profiles")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(strings.Split(strings.TrimRight(out, "\n"), "\n")), len(profile.Builtin()); got != want {
		t.Errorf("profiles listed %d lines, want %d:\n%s", got, want, out)
	}
	if !strings.Contains(out, "sweep ") || !strings.Contains(out, "sweepsa") {
		t.Errorf("profiles output = %s", out)
	}

	out, err = run(t, newSim(), "", "profiles", "--dump", "sweep")
	if err != nil {
		t.Fatal(err)
	}
	got, err := profile.Parse([]byte(out))
	if err != nil {
		t.Fatalf("Parse(dump) = %s\n%s", err, out)
	}
	if len(got) != 1 || got[0].Name != "sweep" || got[0].Mode != rtsa.ModeSweepSA {
		t.Errorf("dumped profiles = %+v", got)
	}

	if _, err := run(t, newSim(), "", "profiles", "nosuch"); err == nil {
		t.Error("profiles of a missing profile succeeded")
	}
}

func TestConfigTree(t *testing.T) {
	out, err := run(t, newSim(), "", "configtree", "--mode", "sweepsa")
	if err != nil {
		t.Fatalf("configtree: %s\n%s", err, out)
	}
	for _, want := range []string{"main(", ". startfreq(Start Frequency, Hz, ) : \"2400000000\"", "Health:", "temperature(Temperature, °C, ) : \"42.5\""} {
		if !strings.Contains(out, want) {
			t.Errorf("configtree output misses %q:\n%s", want, out)
		}
	}

	if _, err := run(t, newSim(), "", "configtree", "--mode", "turbo"); err == nil {
		t.Error("configtree in an unknown mode succeeded")
	}
}

func TestIQReceiver(t *testing.T) {
	out, err := run(t, newSim(), "", "iqreceiver", "--packets", "2")
	if err != nil {
		t.Fatalf("iqreceiver: %s\n%s", err, out)
	}
	iq := lines(out, "|")
	if len(iq) != 32 {
		t.Errorf("iqreceiver drew %d lines, want 32", len(iq))
	}
	for _, l := range iq {
		if len(l) != 101 {
			t.Fatalf("line %q is %d wide, want 101", l, len(l))
		}
	}
	if len(lines(out, "Power ")) != 1 {
		t.Errorf("iqreceiver printed no summary:\n%s", out)
	}
}

func TestRawIQ(t *testing.T) {
	out, err := run(t, newSim(), "", "rawiq", "3")
	if err != nil {
		t.Fatalf("rawiq: %s\n%s", err, out)
	}
	rows := lines(out, "|")
	if len(rows) != 5 {
		t.Fatalf("rawiq printed %d table lines, want header, rule and 3 rows:\n%s", len(rows), out)
	}
	if !strings.HasPrefix(rows[2], "|       0 |        0 | 0x") {
		t.Errorf("first row = %q", rows[2])
	}

	if _, err := run(t, newSim(), "", "rawiq", "many"); err == nil {
		t.Error("rawiq with a bad count succeeded")
	}
}

func TestRawIQ2RX(t *testing.T) {
	b := newSim()
	// Each poll moves the stream a fraction of a 16 sample packet ahead, so
	// neither channel queue overflows and both stay aligned.
	clock := sim.NewManualClock(time.Unix(1700000000, 0))
	clock.SetStep(time.Microsecond)
	b.Clock = clock
	out, err := run(t, b, "", "rawiq2rx", "--packets", "3")
	if err != nil {
		t.Fatalf("rawiq2rx: %s\n%s", err, out)
	}
	iq := lines(out, "|")
	if got, want := len(iq), 3*b.IQSamples; got != want {
		t.Fatalf("rawiq2rx drew %d lines, want %d:\n%s", got, want, out)
	}
	for _, l := range iq {
		if len(l) != 81 || l[40] != '|' {
			t.Fatalf("line %q is not two 40 character panels", l)
		}
	}
}

func TestSampleRate(t *testing.T) {
	b := newSim()
	b.IQSamples = 1024
	out, err := run(t, b, "", "samplerate", "--count", "4", "--report", "2")
	if err != nil {
		t.Fatalf("samplerate: %s\n%s", err, out)
	}
	if got := len(lines(out, "Samples : ")); got != 2 {
		t.Errorf("samplerate reported %d times, want 2:\n%s", got, out)
	}
	if _, err := run(t, b, "", "samplerate", "--report", "0"); err == nil {
		t.Error("samplerate with a zero report interval succeeded")
	}
}

func TestRawSpectrum(t *testing.T) {
	out, err := run(t, newSim(), "", "rawspectrum", "--packets", "2", "--width", "64")
	if err != nil {
		t.Fatalf("rawspectrum: %s\n%s", err, out)
	}
	rows := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(rows) != 2 {
		t.Fatalf("rawspectrum drew %d rows, want 2:\n%s", len(rows), out)
	}
	for _, r := range rows {
		if len(r) != 64 || !strings.Contains(r, "_") {
			t.Errorf("row %q", r)
		}
	}
}

func TestSweepPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.png")
	out, err := run(t, newSim(), "", "sweep", "--packets", "3", "--plot", path,
		"--set", "main/startfreq=2400e6", "--set", "main/stopfreq=2500e6", "--set", "main/rbwfreq=1e6")
	if err != nil {
		t.Fatalf("sweep: %s\n%s", err, out)
	}
	rows := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(rows) != 3 {
		t.Fatalf("sweep drew %d rows, want 3:\n%s", len(rows), out)
	}
	for _, r := range rows {
		if len(r) != 129 || !strings.HasSuffix(r, "|") {
			t.Errorf("row %q", r)
		}
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("plot was not written: %v", err)
	}

	if _, err := run(t, newSim(), "", "sweep", "--set", "main/startfreq"); err == nil {
		t.Error("sweep with a malformed setting succeeded")
	}
}

func TestSweepStress(t *testing.T) {
	out, err := run(t, newSim(), "", "sweepstress", "--iterations", "1")
	if err != nil {
		t.Fatalf("sweepstress: %s\n%s", err, out)
	}
	want := []string{
		"I: 8e+08, 1e+09, 100000 O: 8e+08, 1e+09, 100000 S: 2000",
		"I: 9e+08, 9.2e+08, 20000 O: 9e+08, 9.2e+08, 20000 S: 1000",
		"I: 1e+09, 1.3e+09, 1e+06 O: 1e+09, 1.3e+09, 1e+06 S: 300",
		"I: 2e+09, 2.4e+09, 1e+06 O: 2e+09, 2.4e+09, 1e+06 S: 400",
	}
	if got := strings.Split(strings.TrimRight(out, "\n"), "\n"); strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("sweepstress output:\n%s\nwant:\n%s", out, strings.Join(want, "\n"))
	}
}

func TestGenerator(t *testing.T) {
	out, err := run(t, newSim(), "\n", "generator")
	if err != nil {
		t.Fatalf("generator: %s\n%s", err, out)
	}
	if !strings.Contains(out, "bringing up device (SN: SIM000001)") || !strings.Contains(out, "starting generator") {
		t.Errorf("generator output:\n%s", out)
	}
}

func TestTransmitter(t *testing.T) {
	b := newSim()
	out, err := run(t, b, "", "transmitter", "--packets", "3", "--samples", "1000")
	if err != nil {
		t.Fatalf("transmitter: %s\n%s", err, out)
	}
	sent := b.Sent("SIM000001")
	if len(sent) != 3 {
		t.Fatalf("sent %d packets, want 3", len(sent))
	}
	if !sent[0].Flags.Has(rtsa.FlagStreamStart) || !sent[2].Flags.Has(rtsa.FlagStreamEnd) || sent[1].Flags != 0 {
		t.Errorf("packet flags = %v, %v, %v", sent[0].Flags, sent[1].Flags, sent[2].Flags)
	}
	for i, p := range sent {
		if p.StartFrequency != 2430e6 || p.Num != 1000 || len(p.Samples) != 2000 {
			t.Errorf("packet %d = %+v", i, p)
		}
		if i > 0 && p.StartTime != sent[i-1].EndTime {
			t.Errorf("packet %d starts at %f, previous ended at %f", i, p.StartTime, sent[i-1].EndTime)
		}
	}
	if sent[0].Samples[0] == sent[1].Samples[0] && sent[0].Samples[2] == sent[1].Samples[2] {
		t.Error("up and down chirps are the same")
	}
}

func TestTransceiver(t *testing.T) {
	b := newSim()
	out, err := run(t, b, "", "transceiver", "--packets", "3")
	if err != nil {
		t.Fatalf("transceiver: %s\n%s", err, out)
	}
	sent := b.Sent("SIM000001")
	if !strings.Contains(out, "retransmitted 3 packets") || len(sent) != 3 {
		t.Fatalf("transceiver sent %d packets:\n%s", len(sent), out)
	}
	if got := sent[0].StartFrequency + 0.5*sent[0].StepFrequency; got != 2450e6 {
		t.Errorf("retransmitted center = %f, want 2450e6", got)
	}
}

func TestGPSTime(t *testing.T) {
	out, err := run(t, newSim(), "", "gpstime", "--count", "2", "--interval", "1ms")
	if err != nil {
		t.Fatalf("gpstime: %s\n%s", err, out)
	}
	if got := len(lines(out, "GPS 9 Sats true Valid ")); got != 2 {
		t.Errorf("gpstime output:\n%s", out)
	}
}

func TestTransferRate(t *testing.T) {
	out, err := run(t, newSim(), "", "transferrate", "--count", "2", "--interval", "1ms")
	if err != nil {
		t.Fatalf("transferrate: %s\n%s", err, out)
	}
	rows := lines(out, "Transfer ")
	if len(rows) != 2 || !strings.HasPrefix(rows[1], "Transfer 1 : ") || !strings.HasSuffix(rows[1], "Samples: 2.4576e+08") {
		t.Errorf("transferrate output:\n%s", out)
	}
}

func TestProfileFromEnvironment(t *testing.T) {
	t.Setenv("RTSA_PROFILE", "nosuch")
	out, err := run(t, newSim(), "", "iqreceiver", "--packets", "1")
	if err == nil || !strings.Contains(out, `no profile named "nosuch"`) {
		t.Errorf("iqreceiver with RTSA_PROFILE=nosuch = %v:\n%s", err, out)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "rtsactl.yaml")
	profiles := filepath.Join(dir, "profiles.yaml")
	if err := os.WriteFile(cfg, []byte("profiles: "+profiles+"\nprofile: narrow\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	narrow := "profiles:\n- name: narrow\n  mode: sweepsa\n  settings:\n  - {path: main/startfreq, value: 2440e6}\n  - {path: main/stopfreq, value: 2442e6}\n  - {path: main/rbwfreq, value: 1e6}\n"
	if err := os.WriteFile(profiles, []byte(narrow), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, newSim(), "", "--config", cfg, "sweep", "--packets", "1", "--width", "2")
	if err != nil {
		t.Fatalf("sweep: %s\n%s", err, out)
	}
	// Two bins, the second holds the -60 dBm tone at 2441 MHz.
	if got, want := strings.TrimRight(out, "\n"), " "+string(dsp.Ramp[60])+"|"; got != want {
		t.Errorf("sweep = %q, want %q", got, want)
	}

	if _, err := run(t, newSim(), "", "--config", filepath.Join(dir, "missing.yaml"), "devices"); err == nil {
		t.Error("missing config file was ignored")
	}
}

func TestParseSettings(t *testing.T) {
	got, err := parseSettings([]string{"main/centerfreq=2.44e9", "device/receiverchannel=Rx1+Rx2", "main/decimation=1 / 64"})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Value != 2.44e9 || got[1].Value != "Rx1+Rx2" || got[2].Value != "1 / 64" {
		t.Errorf("parseSettings() = %+v", got)
	}
	for _, bad := range []string{"main/centerfreq", "=1"} {
		if _, err := parseSettings([]string{bad}); err == nil {
			t.Errorf("parseSettings(%q) succeeded", bad)
		}
	}
}
