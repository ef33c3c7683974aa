//go:build cgo && (linux || darwin)

package sdk

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>
#include <wchar.h>

typedef uint32_t rtsa_result;

typedef struct { void *d; } rtsa_handle;
typedef struct { void *d; } rtsa_device;
typedef struct { void *d; } rtsa_config;

typedef struct {
	int64_t cbsize;
	wchar_t serialNumber[120];
	bool ready;
	bool boost;
	bool superspeed;
	bool active;
} rtsa_device_info;

typedef struct {
	int64_t cbsize;
	wchar_t name[80];
	wchar_t title[120];
	int32_t ctype;
	double minValue;
	double maxValue;
	double stepValue;
	wchar_t unit[10];
	wchar_t options[1000];
	uint64_t disabledOptions;
} rtsa_config_info;

typedef struct {
	int64_t cbsize;
	uint64_t streamID;
	uint64_t flags;
	double startTime;
	double endTime;
	double startFrequency;
	double stepFrequency;
	double spanFrequency;
	double rbwFrequency;
	int64_t num;
	int64_t total;
	int64_t size;
	int64_t stride;
	float *fp32;
	int64_t interleave;
} rtsa_packet;

static rtsa_result call_u32(void *fn, uint32_t a) { return ((rtsa_result (*)(uint32_t))fn)(a); }
static rtsa_result call_u32_ws(void *fn, uint32_t a, const wchar_t *b) { return ((rtsa_result (*)(uint32_t, const wchar_t *))fn)(a, b); }
static rtsa_result call_void(void *fn) { return ((rtsa_result (*)(void))fn)(); }
static uint32_t call_version(void *fn) { return ((uint32_t (*)(void))fn)(); }

static rtsa_result call_h(void *fn, rtsa_handle *h) { return ((rtsa_result (*)(rtsa_handle *))fn)(h); }
static rtsa_result call_h_int(void *fn, rtsa_handle *h, int t) { return ((rtsa_result (*)(rtsa_handle *, int))fn)(h, t); }
static rtsa_result call_enum_device(void *fn, rtsa_handle *h, const wchar_t *type, int32_t i, rtsa_device_info *info) {
	return ((rtsa_result (*)(rtsa_handle *, const wchar_t *, int32_t, rtsa_device_info *))fn)(h, type, i, info);
}
static rtsa_result call_open_device(void *fn, rtsa_handle *h, rtsa_device *d, const wchar_t *type, const wchar_t *serial) {
	return ((rtsa_result (*)(rtsa_handle *, rtsa_device *, const wchar_t *, const wchar_t *))fn)(h, d, type, serial);
}
static rtsa_result call_h_d(void *fn, rtsa_handle *h, rtsa_device *d) { return ((rtsa_result (*)(rtsa_handle *, rtsa_device *))fn)(h, d); }

static rtsa_result call_d(void *fn, rtsa_device *d) { return ((rtsa_result (*)(rtsa_device *))fn)(d); }
static rtsa_result call_avail(void *fn, rtsa_device *d, int32_t ch, int32_t *n) { return ((rtsa_result (*)(rtsa_device *, int32_t, int32_t *))fn)(d, ch, n); }
static rtsa_result call_get_packet(void *fn, rtsa_device *d, int32_t ch, int32_t i, rtsa_packet *p) {
	return ((rtsa_result (*)(rtsa_device *, int32_t, int32_t, rtsa_packet *))fn)(d, ch, i, p);
}
static rtsa_result call_consume(void *fn, rtsa_device *d, int32_t ch, int32_t n) { return ((rtsa_result (*)(rtsa_device *, int32_t, int32_t))fn)(d, ch, n); }
static rtsa_result call_stream_time(void *fn, rtsa_device *d, double *t) { return ((rtsa_result (*)(rtsa_device *, double *))fn)(d, t); }
static rtsa_result call_send_packet(void *fn, rtsa_device *d, int32_t ch, const rtsa_packet *p) {
	return ((rtsa_result (*)(rtsa_device *, int32_t, const rtsa_packet *))fn)(d, ch, p);
}

static rtsa_result call_d_c(void *fn, rtsa_device *d, rtsa_config *c) { return ((rtsa_result (*)(rtsa_device *, rtsa_config *))fn)(d, c); }
static rtsa_result call_d_c_c(void *fn, rtsa_device *d, rtsa_config *g, rtsa_config *c) {
	return ((rtsa_result (*)(rtsa_device *, rtsa_config *, rtsa_config *))fn)(d, g, c);
}
static rtsa_result call_find(void *fn, rtsa_device *d, rtsa_config *g, rtsa_config *c, const wchar_t *name) {
	return ((rtsa_result (*)(rtsa_device *, rtsa_config *, rtsa_config *, const wchar_t *))fn)(d, g, c, name);
}
static rtsa_result call_get_name(void *fn, rtsa_device *d, rtsa_config *c, wchar_t *name) {
	return ((rtsa_result (*)(rtsa_device *, rtsa_config *, wchar_t *))fn)(d, c, name);
}
static rtsa_result call_get_info(void *fn, rtsa_device *d, rtsa_config *c, rtsa_config_info *info) {
	return ((rtsa_result (*)(rtsa_device *, rtsa_config *, rtsa_config_info *))fn)(d, c, info);
}
static rtsa_result call_set_float(void *fn, rtsa_device *d, rtsa_config *c, double v) { return ((rtsa_result (*)(rtsa_device *, rtsa_config *, double))fn)(d, c, v); }
static rtsa_result call_get_float(void *fn, rtsa_device *d, rtsa_config *c, double *v) { return ((rtsa_result (*)(rtsa_device *, rtsa_config *, double *))fn)(d, c, v); }
static rtsa_result call_set_string(void *fn, rtsa_device *d, rtsa_config *c, const wchar_t *v) {
	return ((rtsa_result (*)(rtsa_device *, rtsa_config *, const wchar_t *))fn)(d, c, v);
}
static rtsa_result call_get_string(void *fn, rtsa_device *d, rtsa_config *c, wchar_t *v, int64_t *size) {
	return ((rtsa_result (*)(rtsa_device *, rtsa_config *, wchar_t *, int64_t *))fn)(d, c, v, size);
}
static rtsa_result call_set_integer(void *fn, rtsa_device *d, rtsa_config *c, int64_t v) { return ((rtsa_result (*)(rtsa_device *, rtsa_config *, int64_t))fn)(d, c, v); }
static rtsa_result call_get_integer(void *fn, rtsa_device *d, rtsa_config *c, int64_t *v) { return ((rtsa_result (*)(rtsa_device *, rtsa_config *, int64_t *))fn)(d, c, v); }
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/golang/glog"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
	"github.com/Aaronia-Open-source/RTSA-API-Samples/wchar"
)

const (
	wcharWidth = int(C.sizeof_wchar_t)
	nameLength = 256
)

var _ rtsa.Backend = (*Library)(nil)

// Library is a loaded RTSA API library. Handles and devices live in C memory
// so the library can keep pointers to them across calls.
type Library struct {
	path string
	lib  unsafe.Pointer
	fn   [numSymbols]unsafe.Pointer

	mu      sync.Mutex
	nextRef uintptr
	handles map[rtsa.HandleRef]*C.rtsa_handle
	devices map[rtsa.DeviceRef]*C.rtsa_device
	configs map[rtsa.ConfigRef]C.rtsa_config
}

// Load opens the library at path and resolves all API entry points. An empty
// path loads DefaultLibraryPath.
func Load(path string) (*Library, error) {
	if path == "" {
		path = DefaultLibraryPath
	}
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	C.dlerror()
	lib := C.dlopen(cpath, C.RTLD_LAZY)
	if lib == nil {
		return nil, fmt.Errorf("unable to load RTSA API library %s: %s", path, dlerror())
	}

	l := &Library{
		path:    path,
		lib:     lib,
		handles: map[rtsa.HandleRef]*C.rtsa_handle{},
		devices: map[rtsa.DeviceRef]*C.rtsa_device{},
		configs: map[rtsa.ConfigRef]C.rtsa_config{},
	}
	var missing []string
	for i, name := range symbols {
		cname := C.CString(name)
		l.fn[i] = C.dlsym(lib, cname)
		C.free(unsafe.Pointer(cname))
		if l.fn[i] == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		C.dlclose(lib)
		return nil, &MissingSymbolsError{Path: path, Symbols: missing}
	}
	glog.V(1).Infof("loaded RTSA API library %s", path)
	return l, nil
}

func dlerror() string {
	if e := C.dlerror(); e != nil {
		return C.GoString(e)
	}
	return "unknown error"
}

// Loaded reports whether the library is loaded and all symbols resolved.
func (l *Library) Loaded() bool {
	return l != nil && l.lib != nil
}

func (l *Library) Path() string {
	return l.path
}

// Unload frees the handles and devices still held and unloads the library.
// The API must have been shut down before.
func (l *Library) Unload() error {
	if !l.Loaded() {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for ref, h := range l.handles {
		C.free(unsafe.Pointer(h))
		delete(l.handles, ref)
	}
	for ref, d := range l.devices {
		C.free(unsafe.Pointer(d))
		delete(l.devices, ref)
	}
	clear(l.configs)
	l.fn = [numSymbols]unsafe.Pointer{}
	lib := l.lib
	l.lib = nil
	if C.dlclose(lib) != 0 {
		return fmt.Errorf("unable to unload %s: %s", l.path, dlerror())
	}
	return nil
}

func (l *Library) sym(i int) unsafe.Pointer {
	return l.fn[i]
}

func (l *Library) ref() uintptr {
	l.nextRef++
	return l.nextRef
}

func (l *Library) handle(h rtsa.HandleRef) *C.rtsa_handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handles[h]
}

func (l *Library) device(d rtsa.DeviceRef) *C.rtsa_device {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.devices[d]
}

func (l *Library) config(c rtsa.ConfigRef) (C.rtsa_config, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cfg, ok := l.configs[c]
	return cfg, ok
}

// configRef registers cfg and returns its reference. The library hands out
// stable config pointers, so the pointer value itself is the reference.
func (l *Library) configRef(cfg C.rtsa_config) rtsa.ConfigRef {
	ref := rtsa.ConfigRef(uintptr(cfg.d))
	l.mu.Lock()
	defer l.mu.Unlock()
	l.configs[ref] = cfg
	return ref
}

// cwstring returns s as a wchar_t string in C memory, to be freed by the
// caller.
func cwstring(s string) (*C.wchar_t, error) {
	b, err := wchar.Encode(s, wcharWidth)
	if err != nil {
		return nil, err
	}
	return (*C.wchar_t)(C.CBytes(b)), nil
}

// gowstring decodes the wchar_t array at p holding up to n characters.
func gowstring(p *C.wchar_t, n int) string {
	b := C.GoBytes(unsafe.Pointer(p), C.int(n*wcharWidth))
	s, err := wchar.Decode(b, wcharWidth)
	if err != nil {
		glog.Warningf("unable to decode wide string: %s", err)
	}
	return s
}

func result(r C.rtsa_result) rtsa.Result {
	return rtsa.Result(r)
}

func (l *Library) Init(memory rtsa.MemoryMode) rtsa.Result {
	fn := l.sym(symInit)
	if fn == nil {
		return rtsa.ErrorNotInitialized
	}
	return result(C.call_u32(fn, C.uint32_t(memory)))
}

func (l *Library) InitWithPath(memory rtsa.MemoryMode, xmlDir string) rtsa.Result {
	fn := l.sym(symInitWithPath)
	if fn == nil {
		return rtsa.ErrorNotInitialized
	}
	dir, err := cwstring(xmlDir)
	if err != nil {
		return rtsa.ErrorInvalidParameter
	}
	defer C.free(unsafe.Pointer(dir))
	return result(C.call_u32_ws(fn, C.uint32_t(memory), dir))
}

func (l *Library) Shutdown() rtsa.Result {
	fn := l.sym(symShutdown)
	if fn == nil {
		return rtsa.ErrorNotInitialized
	}
	return result(C.call_void(fn))
}

func (l *Library) Version() uint32 {
	fn := l.sym(symVersion)
	if fn == nil {
		return 0
	}
	return uint32(C.call_version(fn))
}

func (l *Library) Open() (rtsa.HandleRef, rtsa.Result) {
	fn := l.sym(symOpen)
	if fn == nil {
		return 0, rtsa.ErrorNotInitialized
	}
	h := (*C.rtsa_handle)(C.calloc(1, C.sizeof_rtsa_handle))
	if r := result(C.call_h(fn, h)); r != rtsa.OK {
		C.free(unsafe.Pointer(h))
		return 0, r
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ref := rtsa.HandleRef(l.ref())
	l.handles[ref] = h
	return ref, rtsa.OK
}

func (l *Library) Close(ref rtsa.HandleRef) rtsa.Result {
	fn := l.sym(symClose)
	if fn == nil {
		return rtsa.ErrorNotInitialized
	}
	h := l.handle(ref)
	if h == nil {
		return rtsa.ErrorNotOpen
	}
	r := result(C.call_h(fn, h))
	if r == rtsa.OK {
		l.mu.Lock()
		delete(l.handles, ref)
		l.mu.Unlock()
		C.free(unsafe.Pointer(h))
	}
	return r
}

func (l *Library) RescanDevices(ref rtsa.HandleRef, timeoutMillis int) rtsa.Result {
	fn := l.sym(symRescanDevices)
	if fn == nil {
		return rtsa.ErrorNotInitialized
	}
	h := l.handle(ref)
	if h == nil {
		return rtsa.ErrorNotOpen
	}
	return result(C.call_h_int(fn, h, C.int(timeoutMillis)))
}

func (l *Library) ResetDevices(ref rtsa.HandleRef) rtsa.Result {
	fn := l.sym(symResetDevices)
	if fn == nil {
		return rtsa.ErrorNotInitialized
	}
	h := l.handle(ref)
	if h == nil {
		return rtsa.ErrorNotOpen
	}
	return result(C.call_h(fn, h))
}

func (l *Library) EnumDevice(ref rtsa.HandleRef, deviceType string, index int) (rtsa.DeviceInfo, rtsa.Result) {
	fn := l.sym(symEnumDevice)
	h := l.handle(ref)
	if fn == nil || h == nil {
		return rtsa.DeviceInfo{}, rtsa.ErrorInvalidParameter
	}
	typ, err := cwstring(deviceType)
	if err != nil {
		return rtsa.DeviceInfo{}, rtsa.ErrorInvalidParameter
	}
	defer C.free(unsafe.Pointer(typ))

	var info C.rtsa_device_info
	info.cbsize = C.sizeof_rtsa_device_info
	r := result(C.call_enum_device(fn, h, typ, C.int32_t(index), &info))
	if r != rtsa.OK {
		return rtsa.DeviceInfo{}, r
	}
	return rtsa.DeviceInfo{
		SerialNumber: gowstring(&info.serialNumber[0], len(info.serialNumber)),
		Ready:        bool(info.ready),
		Boost:        bool(info.boost),
		SuperSpeed:   bool(info.superspeed),
		Active:       bool(info.active),
	}, rtsa.OK
}

func (l *Library) OpenDevice(ref rtsa.HandleRef, deviceType, serial string) (rtsa.DeviceRef, rtsa.Result) {
	fn := l.sym(symOpenDevice)
	if fn == nil {
		return 0, rtsa.ErrorNotInitialized
	}
	h := l.handle(ref)
	if h == nil {
		return 0, rtsa.ErrorNotOpen
	}
	typ, err := cwstring(deviceType)
	if err != nil {
		return 0, rtsa.ErrorInvalidParameter
	}
	defer C.free(unsafe.Pointer(typ))
	sn, err := cwstring(serial)
	if err != nil {
		return 0, rtsa.ErrorInvalidParameter
	}
	defer C.free(unsafe.Pointer(sn))

	d := (*C.rtsa_device)(C.calloc(1, C.sizeof_rtsa_device))
	if r := result(C.call_open_device(fn, h, d, typ, sn)); r != rtsa.OK {
		C.free(unsafe.Pointer(d))
		return 0, r
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	dref := rtsa.DeviceRef(l.ref())
	l.devices[dref] = d
	return dref, rtsa.OK
}

func (l *Library) CloseDevice(ref rtsa.HandleRef, dref rtsa.DeviceRef) rtsa.Result {
	fn := l.sym(symCloseDevice)
	if fn == nil {
		return rtsa.ErrorNotInitialized
	}
	h, d := l.handle(ref), l.device(dref)
	if h == nil || d == nil {
		return rtsa.ErrorNotOpen
	}
	r := result(C.call_h_d(fn, h, d))
	if r == rtsa.OK {
		l.mu.Lock()
		delete(l.devices, dref)
		l.mu.Unlock()
		C.free(unsafe.Pointer(d))
	}
	return r
}

func (l *Library) deviceCall(i int, dref rtsa.DeviceRef) rtsa.Result {
	fn := l.sym(i)
	if fn == nil {
		return rtsa.ErrorNotInitialized
	}
	d := l.device(dref)
	if d == nil {
		return rtsa.ErrorNotOpen
	}
	return result(C.call_d(fn, d))
}

func (l *Library) ConnectDevice(d rtsa.DeviceRef) rtsa.Result {
	return l.deviceCall(symConnectDevice, d)
}

func (l *Library) DisconnectDevice(d rtsa.DeviceRef) rtsa.Result {
	return l.deviceCall(symDisconnectDevice, d)
}

func (l *Library) StartDevice(d rtsa.DeviceRef) rtsa.Result {
	return l.deviceCall(symStartDevice, d)
}

func (l *Library) StopDevice(d rtsa.DeviceRef) rtsa.Result {
	return l.deviceCall(symStopDevice, d)
}

func (l *Library) GetDeviceState(d rtsa.DeviceRef) rtsa.Result {
	return l.deviceCall(symGetDeviceState, d)
}

func (l *Library) AvailPackets(dref rtsa.DeviceRef, channel int) (int, rtsa.Result) {
	fn := l.sym(symAvailPackets)
	if fn == nil {
		return 0, rtsa.ErrorNotInitialized
	}
	d := l.device(dref)
	if d == nil {
		return 0, rtsa.ErrorNotOpen
	}
	var n C.int32_t
	r := result(C.call_avail(fn, d, C.int32_t(channel), &n))
	return int(n), r
}

func (l *Library) GetPacket(dref rtsa.DeviceRef, channel, index int) (*rtsa.Packet, rtsa.Result) {
	fn := l.sym(symGetPacket)
	if fn == nil {
		return nil, rtsa.ErrorNotInitialized
	}
	d := l.device(dref)
	if d == nil {
		return nil, rtsa.ErrorNotOpen
	}
	var cp C.rtsa_packet
	cp.cbsize = C.sizeof_rtsa_packet
	r := result(C.call_get_packet(fn, d, C.int32_t(channel), C.int32_t(index), &cp))
	if r != rtsa.OK {
		return nil, r
	}

	p := &rtsa.Packet{
		StreamID:       uint64(cp.streamID),
		Flags:          rtsa.PacketFlags(cp.flags),
		StartTime:      float64(cp.startTime),
		EndTime:        float64(cp.endTime),
		StartFrequency: float64(cp.startFrequency),
		StepFrequency:  float64(cp.stepFrequency),
		SpanFrequency:  float64(cp.spanFrequency),
		RBWFrequency:   float64(cp.rbwFrequency),
		Num:            int64(cp.num),
		Total:          int64(cp.total),
		Size:           int64(cp.size),
		Stride:         int64(cp.stride),
		Interleave:     int64(cp.interleave),
	}
	// The sample buffer belongs to the library and is only valid until the
	// packet is consumed.
	if n := sampleCount(p); n > 0 && cp.fp32 != nil {
		p.Samples = make([]float32, n)
		copy(p.Samples, unsafe.Slice((*float32)(unsafe.Pointer(cp.fp32)), n))
	}
	return p, rtsa.OK
}

func (l *Library) ConsumePackets(dref rtsa.DeviceRef, channel, num int) rtsa.Result {
	fn := l.sym(symConsumePackets)
	if fn == nil {
		return rtsa.ErrorNotInitialized
	}
	d := l.device(dref)
	if d == nil {
		return rtsa.ErrorNotOpen
	}
	return result(C.call_consume(fn, d, C.int32_t(channel), C.int32_t(num)))
}

func (l *Library) GetMasterStreamTime(dref rtsa.DeviceRef) (float64, rtsa.Result) {
	fn := l.sym(symGetMasterStreamTime)
	if fn == nil {
		return 0, rtsa.ErrorNotInitialized
	}
	d := l.device(dref)
	if d == nil {
		return 0, rtsa.ErrorNotOpen
	}
	var t C.double
	r := result(C.call_stream_time(fn, d, &t))
	return float64(t), r
}

func (l *Library) SendPacket(dref rtsa.DeviceRef, channel int, p *rtsa.Packet) rtsa.Result {
	fn := l.sym(symSendPacket)
	if fn == nil {
		return rtsa.ErrorNotInitialized
	}
	d := l.device(dref)
	if d == nil {
		return rtsa.ErrorNotOpen
	}
	n := sampleCount(p)
	if n > len(p.Samples) {
		return rtsa.ErrorInvalidSize
	}

	var cp C.rtsa_packet
	cp.cbsize = C.sizeof_rtsa_packet
	cp.streamID = C.uint64_t(p.StreamID)
	cp.flags = C.uint64_t(p.Flags)
	cp.startTime = C.double(p.StartTime)
	cp.endTime = C.double(p.EndTime)
	cp.startFrequency = C.double(p.StartFrequency)
	cp.stepFrequency = C.double(p.StepFrequency)
	cp.spanFrequency = C.double(p.SpanFrequency)
	cp.rbwFrequency = C.double(p.RBWFrequency)
	cp.num = C.int64_t(p.Num)
	cp.total = C.int64_t(p.Total)
	cp.size = C.int64_t(p.Size)
	cp.stride = C.int64_t(p.Stride)
	cp.interleave = C.int64_t(p.Interleave)
	if n > 0 {
		buf := C.malloc(C.size_t(n) * C.sizeof_float)
		defer C.free(buf)
		copy(unsafe.Slice((*float32)(buf), n), p.Samples[:n])
		cp.fp32 = (*C.float)(buf)
	}
	return result(C.call_send_packet(fn, d, C.int32_t(channel), &cp))
}

func (l *Library) rootCall(i int, dref rtsa.DeviceRef) (rtsa.ConfigRef, rtsa.Result) {
	fn := l.sym(i)
	if fn == nil {
		return 0, rtsa.ErrorNotInitialized
	}
	d := l.device(dref)
	if d == nil {
		return 0, rtsa.ErrorNotOpen
	}
	var cfg C.rtsa_config
	if r := result(C.call_d_c(fn, d, &cfg)); r != rtsa.OK {
		return 0, r
	}
	return l.configRef(cfg), rtsa.OK
}

func (l *Library) ConfigRoot(d rtsa.DeviceRef) (rtsa.ConfigRef, rtsa.Result) {
	return l.rootCall(symConfigRoot, d)
}

func (l *Library) ConfigHealth(d rtsa.DeviceRef) (rtsa.ConfigRef, rtsa.Result) {
	return l.rootCall(symConfigHealth, d)
}

// configArgs resolves the function, device and config of a config call.
func (l *Library) configArgs(i int, dref rtsa.DeviceRef, c rtsa.ConfigRef) (unsafe.Pointer, *C.rtsa_device, C.rtsa_config, rtsa.Result) {
	var cfg C.rtsa_config
	fn := l.sym(i)
	if fn == nil {
		return nil, nil, cfg, rtsa.ErrorNotInitialized
	}
	d := l.device(dref)
	if d == nil {
		return nil, nil, cfg, rtsa.ErrorNotOpen
	}
	cfg, ok := l.config(c)
	if !ok {
		return nil, nil, cfg, rtsa.ErrorInvalidConfig
	}
	return fn, d, cfg, rtsa.OK
}

func (l *Library) ConfigFirst(dref rtsa.DeviceRef, group rtsa.ConfigRef) (rtsa.ConfigRef, rtsa.Result) {
	fn, d, g, r := l.configArgs(symConfigFirst, dref, group)
	if r != rtsa.OK {
		return 0, r
	}
	var cfg C.rtsa_config
	if r := result(C.call_d_c_c(fn, d, &g, &cfg)); r != rtsa.OK {
		return 0, r
	}
	return l.configRef(cfg), rtsa.OK
}

func (l *Library) ConfigNext(dref rtsa.DeviceRef, group, config rtsa.ConfigRef) (rtsa.ConfigRef, rtsa.Result) {
	fn, d, g, r := l.configArgs(symConfigNext, dref, group)
	if r != rtsa.OK {
		return 0, r
	}
	cfg, ok := l.config(config)
	if !ok {
		return 0, rtsa.ErrorInvalidConfig
	}
	if r := result(C.call_d_c_c(fn, d, &g, &cfg)); r != rtsa.OK {
		return 0, r
	}
	return l.configRef(cfg), rtsa.OK
}

func (l *Library) ConfigFind(dref rtsa.DeviceRef, group rtsa.ConfigRef, name string) (rtsa.ConfigRef, rtsa.Result) {
	fn, d, g, r := l.configArgs(symConfigFind, dref, group)
	if r != rtsa.OK {
		return 0, r
	}
	wname, err := cwstring(name)
	if err != nil {
		return 0, rtsa.ErrorInvalidParameter
	}
	defer C.free(unsafe.Pointer(wname))
	var cfg C.rtsa_config
	if r := result(C.call_find(fn, d, &g, &cfg, wname)); r != rtsa.OK {
		return 0, r
	}
	return l.configRef(cfg), rtsa.OK
}

func (l *Library) ConfigGetName(dref rtsa.DeviceRef, c rtsa.ConfigRef) (string, rtsa.Result) {
	fn, d, cfg, r := l.configArgs(symConfigGetName, dref, c)
	if r != rtsa.OK {
		return "", r
	}
	buf := (*C.wchar_t)(C.calloc(nameLength, C.sizeof_wchar_t))
	defer C.free(unsafe.Pointer(buf))
	if r := result(C.call_get_name(fn, d, &cfg, buf)); r != rtsa.OK {
		return "", r
	}
	return gowstring(buf, nameLength), rtsa.OK
}

func (l *Library) ConfigGetInfo(dref rtsa.DeviceRef, c rtsa.ConfigRef) (rtsa.ConfigInfo, rtsa.Result) {
	fn, d, cfg, r := l.configArgs(symConfigGetInfo, dref, c)
	if r == rtsa.ErrorNotInitialized {
		return rtsa.ConfigInfo{}, rtsa.ErrorInvalidParameter
	}
	if r != rtsa.OK {
		return rtsa.ConfigInfo{}, r
	}
	var info C.rtsa_config_info
	info.cbsize = C.sizeof_rtsa_config_info
	if r := result(C.call_get_info(fn, d, &cfg, &info)); r != rtsa.OK {
		return rtsa.ConfigInfo{}, r
	}
	return rtsa.ConfigInfo{
		Name:            gowstring(&info.name[0], len(info.name)),
		Title:           gowstring(&info.title[0], len(info.title)),
		Type:            rtsa.ConfigType(info.ctype),
		Min:             float64(info.minValue),
		Max:             float64(info.maxValue),
		Step:            float64(info.stepValue),
		Unit:            gowstring(&info.unit[0], len(info.unit)),
		Options:         gowstring(&info.options[0], len(info.options)),
		DisabledOptions: uint64(info.disabledOptions),
	}, rtsa.OK
}

func (l *Library) ConfigSetFloat(dref rtsa.DeviceRef, c rtsa.ConfigRef, v float64) rtsa.Result {
	fn, d, cfg, r := l.configArgs(symConfigSetFloat, dref, c)
	if r != rtsa.OK {
		return r
	}
	return result(C.call_set_float(fn, d, &cfg, C.double(v)))
}

func (l *Library) ConfigGetFloat(dref rtsa.DeviceRef, c rtsa.ConfigRef) (float64, rtsa.Result) {
	fn, d, cfg, r := l.configArgs(symConfigGetFloat, dref, c)
	if r != rtsa.OK {
		return 0, r
	}
	var v C.double
	r = result(C.call_get_float(fn, d, &cfg, &v))
	return float64(v), r
}

func (l *Library) ConfigSetString(dref rtsa.DeviceRef, c rtsa.ConfigRef, v string) rtsa.Result {
	fn, d, cfg, r := l.configArgs(symConfigSetString, dref, c)
	if r != rtsa.OK {
		return r
	}
	wv, err := cwstring(v)
	if err != nil {
		return rtsa.ErrorValueMalformed
	}
	defer C.free(unsafe.Pointer(wv))
	return result(C.call_set_string(fn, d, &cfg, wv))
}

// ConfigGetString asks the library for the value length first and reads the
// value into a buffer of that size.
func (l *Library) ConfigGetString(dref rtsa.DeviceRef, c rtsa.ConfigRef) (string, rtsa.Result) {
	fn, d, cfg, r := l.configArgs(symConfigGetString, dref, c)
	if r != rtsa.OK {
		return "", r
	}
	var size C.int64_t
	r = result(C.call_get_string(fn, d, &cfg, nil, &size))
	if r != rtsa.OK && r != rtsa.ErrorBufferSize {
		return "", r
	}
	if size <= 0 {
		return "", rtsa.OK
	}

	size++
	buf := (*C.wchar_t)(C.calloc(C.size_t(size), C.sizeof_wchar_t))
	defer C.free(unsafe.Pointer(buf))
	if r := result(C.call_get_string(fn, d, &cfg, buf, &size)); r != rtsa.OK {
		return "", r
	}
	return gowstring(buf, int(size)), rtsa.OK
}

func (l *Library) ConfigSetInteger(dref rtsa.DeviceRef, c rtsa.ConfigRef, v int64) rtsa.Result {
	fn, d, cfg, r := l.configArgs(symConfigSetInteger, dref, c)
	if r != rtsa.OK {
		return r
	}
	return result(C.call_set_integer(fn, d, &cfg, C.int64_t(v)))
}

func (l *Library) ConfigGetInteger(dref rtsa.DeviceRef, c rtsa.ConfigRef) (int64, rtsa.Result) {
	fn, d, cfg, r := l.configArgs(symConfigGetInteger, dref, c)
	if r != rtsa.OK {
		return 0, r
	}
	var v C.int64_t
	r = result(C.call_get_integer(fn, d, &cfg, &v))
	return int64(v), r
}
