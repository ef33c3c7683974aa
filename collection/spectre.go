package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/discovery"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/export"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/filter"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdr"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/session"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/spectran"

	// Blind import support for sqlite3 used by export.SQLite.
	_ "github.com/mattn/go-sqlite3"
)

// Flags
var (
	identifier          = flag.String("id", "", "unique identifier of source instance (defaults to a random UUID)")
	lowFreq             = flag.Int64("lowFreq", 2400000000, "lower frequency boundary in Hz")
	highFreq            = flag.Int64("highFreq", 2500000000, "upper frequency boundary in Hz")
	binSize             = flag.Int64("binSize", 100000, "size of the bin (RBW) in Hz")
	integrationInterval = flag.Duration("integrationInterval", 5*time.Second, "duration to aggregate samples")
	minDB               = flag.Float64("minDB", -200, "drop samples whose peak level stays below this value in dBm")
	output              = flag.String("output", "", "Export mechanism to use (one of: csv, sqlite, spectre)")

	// Spectran
	backend = flag.String("backend", session.BackendSDK, "RTSA backend to use (one of: sdk, sim)")
	libPath = flag.String("lib", "", "Path of the RTSA API shared library (defaults to the RTSA Suite install location).")
	xmlDir  = flag.String("xml", "", "Directory holding the RTSA API XML device descriptions.")
	memory  = flag.String("memory", "medium", "RTSA API memory mode (one of: small, medium, large, ludicrous)")
	serial  = flag.String("serial", "", "Serial number of the Spectran to use (defaults to the first one found).")

	// CSV
	csvFile       = flag.String("csvFile", "", "File to write CSV to, stdout when empty.")
	csvMaxSizeMB  = flag.Int("csvMaxSizeMB", 100, "Size in MB after which the CSV file is rotated.")
	csvMaxBackups = flag.Int("csvMaxBackups", 10, "Number of rotated CSV files to keep.")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/spectre", "File path of the sqlite DB file to use.")

	// Spectre Server
	spectreServer           = flag.String("spectreServer", "https://localhost:8443", "URL scheme, address and port of the spectre server.")
	spectreServerSamples    = flag.Int("spectreServerSamples", 0, "Defines how many samples should be sent to the server at once.")
	spectreServerDiscover   = flag.Duration("spectreServerDiscover", 0, "Look for a spectre server via mDNS for this long instead of using -spectreServer.")
	spectreServerSecretFile = flag.String("spectreServerSecretFile", "", "Path to the file containing the secret used to sign bearer tokens for the spectre server.")
)

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()
	defer glog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *identifier == "" {
		*identifier = uuid.NewString()
	}

	// SDR setup
	mem, err := rtsa.ParseMemoryMode(*memory)
	if err != nil {
		glog.Exit(err)
	}
	s, err := session.Open(session.Config{
		Backend: *backend,
		Library: *libPath,
		XMLDir:  *xmlDir,
		Memory:  mem,
		Serial:  *serial,
	})
	if err != nil {
		glog.Exitf("unable to open RTSA API: %s", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			glog.Warningf("error closing RTSA API: %s", err)
		}
	}()
	device, err := s.Device(ctx, rtsa.ModeSweepSA)
	if err != nil {
		glog.Errorf("unable to open Spectran: %s", err)
		return
	}
	radio := &spectran.SDR{
		Identifier: *identifier,
		Device:     device,
	}
	opts := &sdr.Options{
		LowFreq:             *lowFreq,
		HighFreq:            *highFreq,
		BinSize:             *binSize,
		IntegrationInterval: *integrationInterval,
	}

	// Exporter setup
	var exporter export.Exporter
	switch strings.ToLower(*output) {
	case "csv":
		exporter = &export.CSV{
			File:       *csvFile,
			MaxSizeMB:  *csvMaxSizeMB,
			MaxBackups: *csvMaxBackups,
		}
	case "sqlite":
		db, err := sql.Open("sqlite3", *sqliteFile)
		if err != nil {
			glog.Errorf("unable to open sqlite DB %q: %s", *sqliteFile, err)
			return
		}
		defer db.Close()
		exporter = &export.SQLite{
			DB: db,
		}
	case "spectre":
		var secret string
		if *spectreServerSecretFile != "" {
			b, err := os.ReadFile(*spectreServerSecretFile)
			if err != nil {
				glog.Errorf("unable to read secret file %q: %s", *spectreServerSecretFile, err)
				return
			}
			secret = strings.TrimSpace(string(b))
		}
		server := *spectreServer
		if *spectreServerDiscover > 0 {
			dctx, cancel := context.WithTimeout(ctx, *spectreServerDiscover)
			servers, err := discovery.Browse(dctx)
			cancel()
			if err != nil || len(servers) == 0 {
				glog.Errorf("no spectre server found via mDNS: %v", err)
				return
			}
			server = servers[0].URL()
			glog.Infof("found spectre server %q at %s", servers[0].Instance, server)
		}
		exporter = &export.SpectreServer{
			Server:            server,
			SendSamplesAmount: *spectreServerSamples,
			Secret:            secret,
			Identifier:        *identifier,
		}
	default:
		glog.Errorf("%q is not a supported export method, pick one of: csv, sqlite, spectre", *output)
		return
	}

	// Run. Only the sweep watches ctx, the stages after it run until their
	// input is closed so the last integration interval is still exported.
	drain := context.WithoutCancel(ctx)
	samples := make(chan sdr.Sample)
	filtered := make(chan sdr.Sample)
	swept := make(chan struct{})
	go func() {
		defer close(swept)
		if err := radio.Sweep(ctx, opts, samples); err != nil {
			glog.Errorf("sweep failed: %s", err)
			stop()
		}
	}()
	go func() {
		filters := []filter.Filterer{
			&filter.FilterFreq{FreqLow: *lowFreq, FreqHigh: *highFreq},
			&filter.FilterLevel{MinDB: *minDB},
		}
		if err := filter.Filter(drain, samples, filtered, filters); err != nil {
			glog.V(1).Infof("filter stopped: %s", err)
		}
	}()

	glog.Infof("collecting as %q from %s", *identifier, device)
	if err := exporter.Write(drain, filtered); err != nil {
		glog.Error(err)
	}
	// The device must be stopped before the session closes it.
	stop()
	<-swept
}
