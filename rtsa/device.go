package rtsa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
)

var (
	// PollInterval is the sleep between packet polls while the queue is empty.
	PollInterval = 5 * time.Millisecond
	// StatePollInterval is the sleep between device state polls in WaitState.
	StatePollInterval = 100 * time.Millisecond
)

type deviceState int

const (
	stateClosed deviceState = iota
	stateOpen
	stateConnected
	stateStarted
)

// Device is one Spectran unit. Devices are returned by API.Devices and must
// be opened before use. A Device is not safe for concurrent use.
type Device struct {
	api        *API
	deviceType DeviceType
	info       DeviceInfo

	mode  DeviceMode
	ref   DeviceRef
	state deviceState
}

func (d *Device) Info() DeviceInfo {
	return d.info
}

func (d *Device) Serial() string {
	return d.info.SerialNumber
}

func (d *Device) Mode() DeviceMode {
	return d.mode
}

func (d *Device) String() string {
	return fmt.Sprintf("%s %s", d.deviceType, d.info.SerialNumber)
}

func (d *Device) backend() Backend {
	return d.api.backend
}

func (d *Device) ensureOpen() error {
	if d.state == stateClosed {
		return ErrClosed
	}
	return nil
}

// Open opens the device in the given mode.
func (d *Device) Open(mode DeviceMode) error {
	if d.state != stateClosed {
		return fmt.Errorf("device %s is already open in mode %s", d.info.SerialNumber, d.mode)
	}
	if d.api.isClosed() {
		return ErrClosed
	}
	ref, r := d.backend().OpenDevice(d.api.handle, mode.Path(d.deviceType), d.info.SerialNumber)
	if err := check("open device", r); err != nil {
		return err
	}
	d.ref = ref
	d.mode = mode
	d.state = stateOpen
	if err := d.api.track(d); err != nil {
		d.backend().CloseDevice(d.api.handle, ref)
		d.state = stateClosed
		return err
	}
	glog.V(1).Infof("opened %s in mode %s", d, mode)
	return nil
}

// Connect connects the device. Configuration that affects the hardware setup
// should be done before connecting.
func (d *Device) Connect() error {
	if err := d.ensureOpen(); err != nil {
		return err
	}
	if d.state >= stateConnected {
		return nil
	}
	if err := check("connect device", d.backend().ConnectDevice(d.ref)); err != nil {
		return err
	}
	d.state = stateConnected
	glog.V(1).Infof("connected %s", d)
	return nil
}

// Start starts streaming. The device is connected first if necessary.
func (d *Device) Start() error {
	if err := d.Connect(); err != nil {
		return err
	}
	if d.state == stateStarted {
		return nil
	}
	if err := check("start device", d.backend().StartDevice(d.ref)); err != nil {
		return err
	}
	d.state = stateStarted
	glog.V(1).Infof("started %s", d)
	return nil
}

func (d *Device) Stop() error {
	if err := d.ensureOpen(); err != nil {
		return err
	}
	if d.state != stateStarted {
		return nil
	}
	if err := check("stop device", d.backend().StopDevice(d.ref)); err != nil {
		return err
	}
	d.state = stateConnected
	glog.V(1).Infof("stopped %s", d)
	return nil
}

// Disconnect disconnects the device, stopping it first if it is running.
func (d *Device) Disconnect() error {
	if err := d.Stop(); err != nil {
		return err
	}
	if d.state != stateConnected {
		return nil
	}
	if err := check("disconnect device", d.backend().DisconnectDevice(d.ref)); err != nil {
		return err
	}
	d.state = stateOpen
	glog.V(1).Infof("disconnected %s", d)
	return nil
}

// Close stops, disconnects and closes the device. Teardown continues past
// failing steps so the device handle is always released. Calling Close on a
// closed device is a no-op.
func (d *Device) Close() error {
	if d.state == stateClosed {
		return nil
	}
	var errs []error
	if d.state == stateStarted {
		if err := check("stop device", d.backend().StopDevice(d.ref)); err != nil {
			errs = append(errs, err)
		}
		d.state = stateConnected
	}
	if d.state == stateConnected {
		if err := check("disconnect device", d.backend().DisconnectDevice(d.ref)); err != nil {
			errs = append(errs, err)
		}
		d.state = stateOpen
	}
	if err := check("close device", d.backend().CloseDevice(d.api.handle, d.ref)); err != nil {
		errs = append(errs, err)
	}
	d.state = stateClosed
	d.api.untrack(d)
	glog.V(1).Infof("closed %s", d)
	return errors.Join(errs...)
}

// State returns the device state as reported by the library, one of the
// Status results.
func (d *Device) State() (Result, error) {
	if err := d.ensureOpen(); err != nil {
		return 0, err
	}
	r := d.backend().GetDeviceState(d.ref)
	if r.IsError() {
		return r, &Error{Op: "get device state", Result: r}
	}
	return r, nil
}

// WaitState polls the device state until it equals want or ctx is done.
func (d *Device) WaitState(ctx context.Context, want Result) error {
	for {
		s, err := d.State()
		if err != nil {
			return err
		}
		if s == want {
			return nil
		}
		glog.V(2).Infof("%s is %s, waiting for %s", d, s, want)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(StatePollInterval):
		}
	}
}

// AvailPackets returns the number of packets queued on channel.
func (d *Device) AvailPackets(channel int) (int, error) {
	if err := d.ensureOpen(); err != nil {
		return 0, err
	}
	n, r := d.backend().AvailPackets(d.ref, channel)
	if err := check("get available packets", r); err != nil {
		return 0, err
	}
	return n, nil
}

// TryPacket returns the packet at index in the channel queue without waiting.
// The returned bool is false if the queue holds no such packet yet.
func (d *Device) TryPacket(channel, index int) (*Packet, bool, error) {
	if err := d.ensureOpen(); err != nil {
		return nil, false, err
	}
	p, r := d.backend().GetPacket(d.ref, channel, index)
	if r == Empty {
		return nil, false, nil
	}
	if err := check("get packet", r); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// GetPacket waits for the packet at index in the channel queue. The queue is
// polled every PollInterval until a packet arrives, timeout elapses
// (ErrTimeout) or ctx is done. The packet stays queued until it is consumed
// with ConsumePackets.
func (d *Device) GetPacket(ctx context.Context, channel, index int, timeout time.Duration) (*Packet, error) {
	deadline := time.Now().Add(timeout)
	for {
		p, ok, err := d.TryPacket(channel, index)
		if err != nil {
			return nil, err
		}
		if ok {
			return p, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(PollInterval):
		}
	}
}

// ConsumePackets removes num packets from the head of the channel queue.
func (d *Device) ConsumePackets(channel, num int) error {
	if err := d.ensureOpen(); err != nil {
		return err
	}
	return check("consume packets", d.backend().ConsumePackets(d.ref, channel, num))
}

// DrainPackets consumes every packet currently queued on channel and returns
// how many were dropped.
func (d *Device) DrainPackets(channel int) (int, error) {
	n, err := d.AvailPackets(channel)
	if err != nil || n == 0 {
		return 0, err
	}
	return n, d.ConsumePackets(channel, n)
}

// SendPacket queues p for transmission on channel. The library copies the
// samples, p may be reused after the call returns.
func (d *Device) SendPacket(channel int, p *Packet) error {
	if err := d.ensureOpen(); err != nil {
		return err
	}
	return check("send packet", d.backend().SendPacket(d.ref, channel, p))
}

// StreamTime returns the current master stream time in seconds.
func (d *Device) StreamTime() (float64, error) {
	if err := d.ensureOpen(); err != nil {
		return 0, err
	}
	t, r := d.backend().GetMasterStreamTime(d.ref)
	if err := check("get master stream time", r); err != nil {
		return 0, err
	}
	return t, nil
}

// ConfigRoot returns the root of the device configuration tree.
func (d *Device) ConfigRoot() (*ConfigNode, error) {
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	ref, r := d.backend().ConfigRoot(d.ref)
	if err := check("get config root", r); err != nil {
		return nil, err
	}
	return &ConfigNode{dev: d, ref: ref}, nil
}

// HealthRoot returns the root of the device health tree.
func (d *Device) HealthRoot() (*ConfigNode, error) {
	if err := d.ensureOpen(); err != nil {
		return nil, err
	}
	ref, r := d.backend().ConfigHealth(d.ref)
	if err := check("get health root", r); err != nil {
		return nil, err
	}
	return &ConfigNode{dev: d, ref: ref}, nil
}

// Setting is a config value addressed by its slash separated path below the
// config root, e.g. "main/centerfreq".
type Setting struct {
	Path  string
	Value any
}

// Configure applies settings in order and stops at the first failure.
func (d *Device) Configure(settings []Setting) error {
	root, err := d.ConfigRoot()
	if err != nil {
		return err
	}
	for _, s := range settings {
		if err := root.SetPath(s.Path, s.Value); err != nil {
			return err
		}
		glog.V(2).Infof("%s: set %s = %v", d, s.Path, s.Value)
	}
	return nil
}

// StreamTimeToTime converts a stream time in seconds to a time.Time.
func StreamTimeToTime(t float64) time.Time {
	sec := int64(t)
	return time.Unix(sec, int64((t-float64(sec))*float64(time.Second)))
}

// TimeToStreamTime converts t to a stream time in seconds.
func TimeToStreamTime(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
