//go:build linux && cgo && linuxcnc

package hal

import (
	"os"
	"path/filepath"
)

// Supported reports whether the native HAL is linked in and a LinuxCNC
// runtime appears to be installed.
func Supported() (bool, error) {
	if dir := os.Getenv("EMC2_HOME"); dir != "" {
		if _, err := os.Stat(filepath.Join(dir, "bin")); err != nil {
			return false, err
		}
	}
	return true, nil
}
