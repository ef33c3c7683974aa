// Package rtsa wraps the Aaronia RTSA API with owned Go objects.
//
// An API owns the library handle and every Device opened through it. A
// Device owns the config nodes read from it. Closing a parent closes its
// children first, so the library is always torn down in the order it
// expects: stop, disconnect, close device, close handle, shutdown.
package rtsa

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
)

const (
	DefaultRescanTimeout = 30 * time.Second
)

type options struct {
	memory MemoryMode
	xmlDir string
}

type Option func(*options)

// WithMemoryMode sets the memory mode passed to Init. Defaults to medium.
func WithMemoryMode(m MemoryMode) Option {
	return func(o *options) {
		o.memory = m
	}
}

// WithXMLPath makes the library look for its XML device descriptions in dir.
func WithXMLPath(dir string) Option {
	return func(o *options) {
		o.xmlDir = dir
	}
}

type API struct {
	// RescanTimeout is passed to every RescanDevices call.
	RescanTimeout time.Duration

	backend Backend
	handle  HandleRef

	mu      sync.Mutex
	devices map[*Device]struct{}
	closed  bool
}

// New initializes the library and opens an API handle.
func New(b Backend, opts ...Option) (*API, error) {
	o := options{memory: MemoryMedium}
	for _, opt := range opts {
		opt(&o)
	}

	var r Result
	if o.xmlDir != "" {
		r = b.InitWithPath(o.memory, o.xmlDir)
	} else {
		r = b.Init(o.memory)
	}
	if err := check("initialize RTSA API", r); err != nil {
		return nil, err
	}

	h, r := b.Open()
	if err := check("open RTSA API library handle", r); err != nil {
		b.Shutdown()
		return nil, err
	}
	glog.V(1).Infof("RTSA API version %d opened (memory mode %s)", b.Version(), o.memory)

	return &API{
		RescanTimeout: DefaultRescanTimeout,
		backend:       b,
		handle:        h,
		devices:       map[*Device]struct{}{},
	}, nil
}

func (a *API) Version() uint32 {
	return a.backend.Version()
}

func (a *API) Backend() Backend {
	return a.backend
}

func (a *API) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// Devices lists the devices of type t. With rescan set, the bus is rescanned
// first; the rescan is repeated for as long as the library asks to retry or
// until ctx is done.
func (a *API) Devices(ctx context.Context, t DeviceType, rescan bool) ([]*Device, error) {
	if a.isClosed() {
		return nil, ErrClosed
	}

	for rescan {
		r := a.backend.RescanDevices(a.handle, int(a.RescanTimeout.Milliseconds()))
		if r == Retry {
			glog.V(2).Infoln("device rescan asked to retry")
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			continue
		}
		if err := check("scan for devices", r); err != nil {
			return nil, err
		}
		break
	}

	var devices []*Device
	for i := 0; ; i++ {
		info, r := a.backend.EnumDevice(a.handle, string(t), i)
		if r != OK {
			break
		}
		devices = append(devices, &Device{
			api:        a,
			deviceType: t,
			info:       info,
		})
	}
	glog.V(1).Infof("found %d %s device(s)", len(devices), t)
	return devices, nil
}

// Device returns the first device of type t after a rescan.
func (a *API) Device(ctx context.Context, t DeviceType) (*Device, error) {
	return a.DeviceBySerial(ctx, t, "")
}

// DeviceBySerial returns the device of type t with the given serial number
// after a rescan. An empty serial selects the first device.
func (a *API) DeviceBySerial(ctx context.Context, t DeviceType, serial string) (*Device, error) {
	devices, err := a.Devices(ctx, t, true)
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if serial == "" || d.Serial() == serial {
			return d, nil
		}
	}
	if serial != "" {
		return nil, fmt.Errorf("serial %s: %w", serial, ErrNoDevice)
	}
	return nil, ErrNoDevice
}

// ResetDevices resets all devices attached to the handle.
func (a *API) ResetDevices() error {
	if a.isClosed() {
		return ErrClosed
	}
	return check("reset devices", a.backend.ResetDevices(a.handle))
}

func (a *API) track(d *Device) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	a.devices[d] = struct{}{}
	return nil
}

func (a *API) untrack(d *Device) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.devices, d)
}

// Close closes all open devices, the API handle and shuts the library down.
// Calling Close more than once is a no-op.
func (a *API) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	devices := make([]*Device, 0, len(a.devices))
	for d := range a.devices {
		devices = append(devices, d)
	}
	a.mu.Unlock()

	var errs []error
	for _, d := range devices {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := check("close RTSA API library handle", a.backend.Close(a.handle)); err != nil {
		errs = append(errs, err)
	}
	if err := check("shut down RTSA API", a.backend.Shutdown()); err != nil {
		errs = append(errs, err)
	}
	glog.V(1).Infoln("RTSA API closed")
	return errors.Join(errs...)
}
