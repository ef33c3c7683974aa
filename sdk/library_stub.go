//go:build !cgo || !(linux || darwin)

package sdk

import (
	"github.com/Aaronia-Open-source/RTSA-API-Samples/rtsa"
)

var _ rtsa.Backend = (*Library)(nil)

// Library is never returned on this platform. The embedded Backend only makes
// the type satisfy rtsa.Backend for callers that are built everywhere.
type Library struct {
	rtsa.Backend
}

func Load(path string) (*Library, error) {
	return nil, ErrUnsupported
}

func (l *Library) Loaded() bool {
	return false
}

func (l *Library) Path() string {
	return ""
}

func (l *Library) Unload() error {
	return nil
}
