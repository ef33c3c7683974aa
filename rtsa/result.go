package rtsa

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
)

// Result is the bit-flagged status code returned by every RTSA API call.
// The upper bits carry the category (error, warning, status or plain return
// value) and the low byte indexes into the category.
type Result uint32

// Return values.
const (
	OK    Result = 0x00000000
	Empty Result = 0x00000001
	Retry Result = 0x00000002
)

// Device states as returned by GetDeviceState.
const (
	StatusIdle          Result = 0x10000000
	StatusConnecting    Result = 0x10000001
	StatusConnected     Result = 0x10000002
	StatusStarting      Result = 0x10000003
	StatusRunning       Result = 0x10000004
	StatusStopping      Result = 0x10000005
	StatusDisconnecting Result = 0x10000006
)

// Warnings. A call returning a warning has still been applied.
const (
	Warning              Result = 0x40000000
	WarningValueAdjusted Result = 0x40000001
	WarningValueDisabled Result = 0x40000002
)

// Errors.
const (
	ErrorGeneric          Result = 0x80000000
	ErrorNotInitialized   Result = 0x80000001
	ErrorNotFound         Result = 0x80000002
	ErrorBusy             Result = 0x80000003
	ErrorNotOpen          Result = 0x80000004
	ErrorNotConnected     Result = 0x80000005
	ErrorInvalidConfig    Result = 0x80000006
	ErrorBufferSize       Result = 0x80000007
	ErrorInvalidChannel   Result = 0x80000008
	ErrorInvalidParameter Result = 0x80000009
	ErrorInvalidSize      Result = 0x8000000a
	ErrorMissingPathsFile Result = 0x8000000b
	ErrorValueInvalid     Result = 0x8000000c
	ErrorValueMalformed   Result = 0x8000000d
)

const (
	categoryMask  = 0xF0000000
	indexMask     = 0xFF
	noTranslation = "Internal error: There is no translation for this error code available!"
)

var (
	returnMessages = []string{
		"Operation performed successfully.",
		"No data available.",
		"Retry operation!",
	}
	statusMessages = []string{
		"Status: Idle",
		"Status: Connecting",
		"Status: Connected",
		"Status: Starting",
		"Status: Running",
		"Status: Stopping",
		"Status: Disconnecting",
	}
	warningMessages = []string{
		"Warning: Value adjusted!",
		"Warning: Value disabled!",
	}
	errorMessages = []string{
		"Error: Target not initialized!",
		"Error: Target not found!",
		"Error: Target busy!",
		"Error: Target not open!",
		"Error: Target not connected!",
		"Error: Invalid configuration!",
		"Error: Bad buffer size!",
		"Error: Invalid channel selected!",
		"Error: Invalid parameter!",
		"Error: Invalid size!",
		"Error: Missing paths.xml file!",
		"Error: Value is invalid!",
		"Error: Value is malformed!",
	}

	names = map[Result]string{
		OK:                    "OK",
		Empty:                 "Empty",
		Retry:                 "Retry",
		StatusIdle:            "Idle",
		StatusConnecting:      "Connecting",
		StatusConnected:       "Connected",
		StatusStarting:        "Starting",
		StatusRunning:         "Running",
		StatusStopping:        "Stopping",
		StatusDisconnecting:   "Disconnecting",
		Warning:               "Warning",
		WarningValueAdjusted:  "Warning: Value adjusted",
		WarningValueDisabled:  "Warning: Value disabled",
		ErrorGeneric:          "Error",
		ErrorNotInitialized:   "Error: Not initialized",
		ErrorNotFound:         "Error: Not found",
		ErrorBusy:             "Error: Busy",
		ErrorNotOpen:          "Error: Not open",
		ErrorNotConnected:     "Error: Not connected",
		ErrorInvalidConfig:    "Error: Invalid configuration",
		ErrorBufferSize:       "Error: Buffer size",
		ErrorInvalidChannel:   "Error: Invalid channel",
		ErrorInvalidParameter: "Error: Invalid parameter",
		ErrorInvalidSize:      "Error: Invalid size",
		ErrorMissingPathsFile: "Error: Missing paths file",
		ErrorValueInvalid:     "Error: Value invalid",
		ErrorValueMalformed:   "Error: Value malformed",
	}
)

func (r Result) IsError() bool {
	return r&ErrorGeneric == ErrorGeneric
}

func (r Result) IsWarning() bool {
	return !r.IsError() && r&Warning == Warning
}

func (r Result) IsStatus() bool {
	return r&categoryMask == StatusIdle
}

// Failed reports whether r is an error or any non-OK return value.
// Warnings do not count as failures.
func (r Result) Failed() bool {
	return r != OK && !r.IsWarning()
}

// String returns the short name of the result, e.g. "Error: Not found".
func (r Result) String() string {
	if n, ok := names[r]; ok {
		return n
	}
	switch {
	case r.IsError():
		return "Generic Error (unknown code)"
	case r.IsWarning():
		return "Generic Warning (unknown code)"
	}
	return "Unknown result code"
}

// Message returns the long human readable description of the result, e.g.
// "Error: Target not found!".
func (r Result) Message() string {
	var table []string
	switch {
	case r.IsError():
		table = errorMessages
	case r.IsWarning():
		table = warningMessages
	case r.IsStatus():
		table = statusMessages
	case r&categoryMask == 0:
		table = returnMessages
	}
	idx := int(r & indexMask)
	// Error and warning tables start at the first specific code.
	if r.IsError() || r.IsWarning() {
		idx--
	}
	if idx < 0 || idx >= len(table) {
		return noTranslation
	}
	return table[idx]
}

// Error makes a Result usable as an error value so callers can match
// specific codes with errors.Is.
func (r Result) Error() string {
	return r.Message()
}

// Error is returned by the wrapper when an RTSA API call does not succeed.
type Error struct {
	Op     string
	Result Result
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Op, e.Result.Message())
}

func (e *Error) Unwrap() error {
	return e.Result
}

var (
	ErrClosed   = errors.New("rtsa: use of closed object")
	ErrTimeout  = errors.New("rtsa: timeout waiting for packet")
	ErrNoDevice = errors.New("rtsa: no device found")
)

// check turns a raw result into an error. Warnings are logged and treated as
// success.
func check(op string, r Result) error {
	if r == OK {
		return nil
	}
	if r.IsWarning() {
		glog.Warningf("%s: %s", op, r.Message())
		return nil
	}
	return &Error{Op: op, Result: r}
}

// ResultOf extracts the Result carried by err. Returns OK for nil and
// ErrorGeneric for errors that do not carry a Result.
func ResultOf(err error) Result {
	if err == nil {
		return OK
	}
	var r Result
	if errors.As(err, &r) {
		return r
	}
	return ErrorGeneric
}
