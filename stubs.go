//go:build !linux || !cgo || !linuxcnc

package hal

// Supported returns false when the package was built without the native
// binding.
func Supported() (bool, error) {
	return false, ErrNotSupported
}

// NativeAPI returns ErrNotSupported when the package was built without the
// native binding. Pass WithAPI to run against another implementation.
func NativeAPI() (API, error) {
	return nil, ErrNotSupported
}
