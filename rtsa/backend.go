package rtsa

// HandleRef, DeviceRef and ConfigRef are opaque references to objects owned
// by a Backend. Their values are only meaningful to the backend that issued
// them.
type (
	HandleRef uintptr
	DeviceRef uintptr
	ConfigRef uintptr
)

// Backend is the raw RTSA API. Every method maps to one library call and
// returns its result code unchanged. Implementations are the dynamically
// loaded vendor library (package sdk) and an in-process simulator (package
// sim).
type Backend interface {
	Init(memory MemoryMode) Result
	InitWithPath(memory MemoryMode, xmlDir string) Result
	Shutdown() Result
	Version() uint32

	Open() (HandleRef, Result)
	Close(h HandleRef) Result
	RescanDevices(h HandleRef, timeoutMillis int) Result
	ResetDevices(h HandleRef) Result
	EnumDevice(h HandleRef, deviceType string, index int) (DeviceInfo, Result)

	OpenDevice(h HandleRef, deviceType, serial string) (DeviceRef, Result)
	CloseDevice(h HandleRef, d DeviceRef) Result
	ConnectDevice(d DeviceRef) Result
	DisconnectDevice(d DeviceRef) Result
	StartDevice(d DeviceRef) Result
	StopDevice(d DeviceRef) Result
	GetDeviceState(d DeviceRef) Result

	AvailPackets(d DeviceRef, channel int) (int, Result)
	GetPacket(d DeviceRef, channel, index int) (*Packet, Result)
	ConsumePackets(d DeviceRef, channel, num int) Result
	GetMasterStreamTime(d DeviceRef) (float64, Result)
	SendPacket(d DeviceRef, channel int, p *Packet) Result

	ConfigRoot(d DeviceRef) (ConfigRef, Result)
	ConfigHealth(d DeviceRef) (ConfigRef, Result)
	ConfigFirst(d DeviceRef, group ConfigRef) (ConfigRef, Result)
	ConfigNext(d DeviceRef, group, config ConfigRef) (ConfigRef, Result)
	ConfigFind(d DeviceRef, group ConfigRef, name string) (ConfigRef, Result)
	ConfigGetName(d DeviceRef, c ConfigRef) (string, Result)
	ConfigGetInfo(d DeviceRef, c ConfigRef) (ConfigInfo, Result)
	ConfigSetFloat(d DeviceRef, c ConfigRef, v float64) Result
	ConfigGetFloat(d DeviceRef, c ConfigRef) (float64, Result)
	ConfigSetString(d DeviceRef, c ConfigRef, v string) Result
	ConfigGetString(d DeviceRef, c ConfigRef) (string, Result)
	ConfigSetInteger(d DeviceRef, c ConfigRef, v int64) Result
	ConfigGetInteger(d DeviceRef, c ConfigRef) (int64, Result)
}
