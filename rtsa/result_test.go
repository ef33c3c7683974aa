package rtsa

import (
	"errors"
	"fmt"
	"testing"
)

func TestResultMessage(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{OK, "Operation performed successfully."},
		{Empty, "No data available."},
		{Retry, "Retry operation!"},
		{StatusIdle, "Status: Idle"},
		{StatusRunning, "Status: Running"},
		{StatusDisconnecting, "Status: Disconnecting"},
		{WarningValueAdjusted, "Warning: Value adjusted!"},
		{WarningValueDisabled, "Warning: Value disabled!"},
		{ErrorNotInitialized, "Error: Target not initialized!"},
		{ErrorNotFound, "Error: Target not found!"},
		{ErrorBufferSize, "Error: Bad buffer size!"},
		{ErrorMissingPathsFile, "Error: Missing paths.xml file!"},
		{ErrorValueMalformed, "Error: Value is malformed!"},
		{Result(0x80000042), noTranslation},
		{Result(0x00000007), noTranslation},
		{ErrorGeneric, noTranslation},
	}
	for _, tc := range tests {
		if got := tc.r.Message(); got != tc.want {
			t.Errorf("Result(0x%08x).Message() = %q, want %q", uint32(tc.r), got, tc.want)
		}
	}
}

func TestResultString(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{OK, "OK"},
		{Retry, "Retry"},
		{StatusConnected, "Connected"},
		{Warning, "Warning"},
		{WarningValueAdjusted, "Warning: Value adjusted"},
		{ErrorGeneric, "Error"},
		{ErrorInvalidParameter, "Error: Invalid parameter"},
		{ErrorMissingPathsFile, "Error: Missing paths file"},
		{Result(0x800000ff), "Generic Error (unknown code)"},
		{Result(0x400000ff), "Generic Warning (unknown code)"},
		{Result(0x10000042), "Unknown result code"},
	}
	for _, tc := range tests {
		if got := tc.r.String(); got != tc.want {
			t.Errorf("Result(0x%08x).String() = %q, want %q", uint32(tc.r), got, tc.want)
		}
	}
}

func TestResultCategories(t *testing.T) {
	tests := []struct {
		r                       Result
		isErr, isWarn, isStatus bool
		failed                  bool
	}{
		{r: OK},
		{r: Empty, failed: true},
		{r: StatusRunning, isStatus: true, failed: true},
		{r: WarningValueAdjusted, isWarn: true},
		{r: ErrorBusy, isErr: true, failed: true},
	}
	for _, tc := range tests {
		if got := tc.r.IsError(); got != tc.isErr {
			t.Errorf("%s.IsError() = %t, want %t", tc.r, got, tc.isErr)
		}
		if got := tc.r.IsWarning(); got != tc.isWarn {
			t.Errorf("%s.IsWarning() = %t, want %t", tc.r, got, tc.isWarn)
		}
		if got := tc.r.IsStatus(); got != tc.isStatus {
			t.Errorf("%s.IsStatus() = %t, want %t", tc.r, got, tc.isStatus)
		}
		if got := tc.r.Failed(); got != tc.failed {
			t.Errorf("%s.Failed() = %t, want %t", tc.r, got, tc.failed)
		}
	}
}

func TestCheck(t *testing.T) {
	if err := check("do nothing", OK); err != nil {
		t.Errorf("check(OK) = %v, want nil", err)
	}
	if err := check("adjust", WarningValueAdjusted); err != nil {
		t.Errorf("check(WarningValueAdjusted) = %v, want nil", err)
	}

	err := check("scan for devices", ErrorNotFound)
	if err == nil {
		t.Fatal("check(ErrorNotFound) = nil, want error")
	}
	if want := "failed to scan for devices: Error: Target not found!"; err.Error() != want {
		t.Errorf("error = %q, want %q", err, want)
	}
	wrapped := fmt.Errorf("setup: %w", err)
	if !errors.Is(wrapped, ErrorNotFound) {
		t.Error("errors.Is(wrapped, ErrorNotFound) = false, want true")
	}
	if errors.Is(wrapped, ErrorBusy) {
		t.Error("errors.Is(wrapped, ErrorBusy) = true, want false")
	}
	if got := ResultOf(wrapped); got != ErrorNotFound {
		t.Errorf("ResultOf() = %s, want %s", got, ErrorNotFound)
	}
	if got := ResultOf(errors.New("other")); got != ErrorGeneric {
		t.Errorf("ResultOf(other) = %s, want %s", got, ErrorGeneric)
	}
}
