// Package session opens the RTSA API on the backend the tools were asked to
// use and releases it again in the right order.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdk"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/sim"
)

const (
	BackendSDK = "sdk"
	BackendSim = "sim"
)

var Backends = []string{BackendSDK, BackendSim}

type Config struct {
	// Backend is one of Backends.
	Backend string
	// Library is the path of the vendor shared library, sdk.DefaultLibraryPath
	// when empty.
	Library string
	// XMLDir points the library at its device descriptions.
	XMLDir string
	Memory rtsa.MemoryMode
	// Serial selects a device, the first one found is used when empty.
	Serial string
}

type Session struct {
	API *rtsa.API

	cfg Config
	lib *sdk.Library
}

// NewBackend returns the named backend. The library of the sdk backend is
// returned as well so it can be unloaded.
func NewBackend(cfg Config) (rtsa.Backend, *sdk.Library, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendSDK, "":
		lib, err := sdk.Load(cfg.Library)
		if err != nil {
			return nil, nil, err
		}
		return lib, lib, nil
	case BackendSim:
		return sim.Default(), nil, nil
	}
	return nil, nil, fmt.Errorf("%q is not a supported backend, pick one of: %s", cfg.Backend, strings.Join(Backends, ", "))
}

// Open loads the backend and opens the API on it.
func Open(cfg Config) (*Session, error) {
	b, lib, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	s, err := OpenBackend(b, cfg)
	if err != nil {
		if lib != nil {
			lib.Unload()
		}
		return nil, err
	}
	s.lib = lib
	return s, nil
}

// OpenBackend opens the API on b. cfg.Backend and cfg.Library are not used.
func OpenBackend(b rtsa.Backend, cfg Config) (*Session, error) {
	opts := []rtsa.Option{rtsa.WithMemoryMode(cfg.Memory)}
	if cfg.XMLDir != "" {
		opts = append(opts, rtsa.WithXMLPath(cfg.XMLDir))
	}
	api, err := rtsa.New(b, opts...)
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("using %s backend", cfg.Backend)
	return &Session{API: api, cfg: cfg}, nil
}

// Device finds the configured Spectran and opens it in mode.
func (s *Session) Device(ctx context.Context, mode rtsa.DeviceMode) (*rtsa.Device, error) {
	d, err := s.API.DeviceBySerial(ctx, rtsa.SpectranV6, s.cfg.Serial)
	if err != nil {
		return nil, err
	}
	if err := d.Open(mode); err != nil {
		return nil, err
	}
	return d, nil
}

// Close closes the API and all devices opened through it, then unloads the
// library.
func (s *Session) Close() error {
	var errs []error
	if err := s.API.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.lib != nil {
		if err := s.lib.Unload(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
