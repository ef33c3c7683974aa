// Package sdk loads the Aaronia RTSA API shared library at runtime and
// exposes it as an rtsa.Backend.
//
// The library is opened with dlopen rather than linked, so binaries build
// and run on hosts without the RTSA Suite installed; only Load fails there.
package sdk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

// DefaultLibraryPath is where the RTSA Suite PRO installs the API library.
const DefaultLibraryPath = "/opt/aaronia-rtsa-suite/Aaronia-RTSA-Suite-PRO/libAaroniaRTSAAPI.so"

// ErrUnsupported is returned by Load on builds without cgo or on platforms
// the loader does not support.
var ErrUnsupported = errors.New("loading the RTSA API library is not supported on this platform")

// symbols lists the library entry points in the order of the sym* indices.
var symbols = []string{
	"AARTSAAPI_Init",
	"AARTSAAPI_Init_With_Path",
	"AARTSAAPI_Shutdown",
	"AARTSAAPI_Version",
	"AARTSAAPI_Open",
	"AARTSAAPI_Close",
	"AARTSAAPI_RescanDevices",
	"AARTSAAPI_ResetDevices",
	"AARTSAAPI_EnumDevice",
	"AARTSAAPI_OpenDevice",
	"AARTSAAPI_CloseDevice",
	"AARTSAAPI_ConnectDevice",
	"AARTSAAPI_DisconnectDevice",
	"AARTSAAPI_StartDevice",
	"AARTSAAPI_StopDevice",
	"AARTSAAPI_GetDeviceState",
	"AARTSAAPI_AvailPackets",
	"AARTSAAPI_GetPacket",
	"AARTSAAPI_ConsumePackets",
	"AARTSAAPI_GetMasterStreamTime",
	"AARTSAAPI_SendPacket",
	"AARTSAAPI_ConfigRoot",
	"AARTSAAPI_ConfigHealth",
	"AARTSAAPI_ConfigFirst",
	"AARTSAAPI_ConfigNext",
	"AARTSAAPI_ConfigFind",
	"AARTSAAPI_ConfigGetName",
	"AARTSAAPI_ConfigGetInfo",
	"AARTSAAPI_ConfigSetFloat",
	"AARTSAAPI_ConfigGetFloat",
	"AARTSAAPI_ConfigSetString",
	"AARTSAAPI_ConfigGetString",
	"AARTSAAPI_ConfigSetInteger",
	"AARTSAAPI_ConfigGetInteger",
}

const (
	symInit = iota
	symInitWithPath
	symShutdown
	symVersion
	symOpen
	symClose
	symRescanDevices
	symResetDevices
	symEnumDevice
	symOpenDevice
	symCloseDevice
	symConnectDevice
	symDisconnectDevice
	symStartDevice
	symStopDevice
	symGetDeviceState
	symAvailPackets
	symGetPacket
	symConsumePackets
	symGetMasterStreamTime
	symSendPacket
	symConfigRoot
	symConfigHealth
	symConfigFirst
	symConfigNext
	symConfigFind
	symConfigGetName
	symConfigGetInfo
	symConfigSetFloat
	symConfigGetFloat
	symConfigSetString
	symConfigGetString
	symConfigSetInteger
	symConfigGetInteger
	numSymbols
)

// MissingSymbolsError is returned by Load when the library lacks entry points.
type MissingSymbolsError struct {
	Path    string
	Symbols []string
}

func (e *MissingSymbolsError) Error() string {
	return fmt.Sprintf("%s is missing %d RTSA API symbol(s): %s", e.Path, len(e.Symbols), strings.Join(e.Symbols, ", "))
}

// sampleCount is the number of floats spanned by the rows of p. The last row
// need not be padded to the stride.
func sampleCount(p *rtsa.Packet) int {
	if p.Num <= 0 || p.Size <= 0 {
		return 0
	}
	return int((p.Num-1)*p.Stride + p.Size)
}
