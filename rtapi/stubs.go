//go:build !linux || !cgo || !linuxcnc

package rtapi

import "errors"

// ErrNotSupported is returned by NativeSink when the package was built
// without the LinuxCNC libraries.
var ErrNotSupported = errors.New("rtapi: native LinuxCNC RTAPI not linked")

// NativeSink returns ErrNotSupported; use a WriterSink instead.
func NativeSink() (Sink, error) {
	return nil, ErrNotSupported
}
