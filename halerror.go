package hal

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// HAL status codes. The hal_* functions report failure as a negated errno.
const (
	StatusOK      int32 = 0
	StatusInvalid int32 = -int32(unix.EINVAL)
	StatusPerm    int32 = -int32(unix.EPERM)
	StatusNoMem   int32 = -int32(unix.ENOMEM)
)

// ErrorClass groups HAL errors by the phase that detects them.
type ErrorClass uint8

const (
	ClassStorage ErrorClass = iota + 1
	ClassNaming
	ClassRegistration
	ClassLifecycle
)

func (c ErrorClass) String() string {
	switch c {
	case ClassStorage:
		return "storage"
	case ClassNaming:
		return "naming"
	case ClassRegistration:
		return "registration"
	case ClassLifecycle:
		return "lifecycle"
	default:
		return "unknown"
	}
}

// HALError is a classified HAL fault.
// Code stores the raw hal_* status when the fault came from the HAL, and 0
// when it was detected before any foreign call was made.
type HALError struct {
	Code    int32
	Class   ErrorClass
	message string
	hint    string
	// same is a sentinel from another class reporting the same HAL status.
	same *HALError
}

func (e *HALError) Error() string {
	// Security: Check if we should sanitize error messages
	if isProductionEnv() || e.hint == "" {
		return e.message
	}
	return e.message + " - " + e.hint
}

// Is lets a sentinel match the sentinel of another class that reports the
// same HAL status, so ErrInitMemory also matches ErrMemory.
func (e *HALError) Is(target error) bool {
	return e.same != nil && target == error(e.same)
}

// isProductionEnv checks if we're running in production environment
func isProductionEnv() bool {
	env := os.Getenv("HAL_ENV")
	if env == "production" || env == "prod" {
		return true
	}

	// Check if debug mode is explicitly disabled
	if debug := os.Getenv("HAL_DEBUG"); debug != "" {
		if val, err := strconv.ParseBool(debug); err == nil && !val {
			return true
		}
	}

	return false
}

// Storage faults.
var (
	ErrNullStorage = &HALError{Class: ClassStorage, message: "hal: storage pointer is null",
		hint: "the arena allocation failed or the resource handle was released"}
	ErrMisaligned = &HALError{Class: ClassStorage, message: "hal: storage pointer is not aligned",
		hint: "the arena returned an address unsuitable for the value type"}
)

// Naming faults.
var (
	ErrNameLength = &HALError{Class: ClassNaming, message: fmt.Sprintf("hal: name is too long (max %d bytes)", MaxNameLen),
		hint: "resource names include the component name and a '.' separator"}
	ErrNameConversion = &HALError{Class: ClassNaming, message: "hal: resource name cannot be converted to a C string",
		hint: "names must not contain NUL bytes"}
	ErrInvalidName = &HALError{Class: ClassNaming, message: "hal: component name cannot be converted to a C string",
		hint: "names must not contain NUL bytes"}
)

// Registration faults.
var (
	ErrInvalid = &HALError{Code: StatusInvalid, Class: ClassRegistration, message: "hal: invalid argument (EINVAL)",
		hint: "check the LinuxCNC log; duplicate names and unknown component ids are common causes"}
	ErrLockedHAL = &HALError{Code: StatusPerm, Class: ClassRegistration, message: "hal: HAL is locked (EPERM)",
		hint: "resources must be registered before the component is made ready"}
	ErrMemory = &HALError{Code: StatusNoMem, Class: ClassRegistration, message: "hal: not enough HAL shared memory (ENOMEM)",
		hint: "the HAL arena is exhausted"}
)

// Lifecycle faults.
var (
	ErrInit = &HALError{Code: StatusInvalid, Class: ClassLifecycle, message: "hal: failed to initialise component",
		hint: "hal_init rejected the name; it may already be in use"}
	ErrInitMemory = &HALError{Code: StatusNoMem, Class: ClassLifecycle, message: "hal: not enough HAL shared memory to initialise component (ENOMEM)",
		hint: "the HAL arena is exhausted", same: ErrMemory}
	ErrReady = &HALError{Code: StatusInvalid, Class: ClassLifecycle, message: "hal: failed to ready component",
		hint: "the component was not found or is already ready"}
	ErrSignals = &HALError{Class: ClassLifecycle, message: "hal: failed to register signal handlers",
		hint: "the shutdown watcher is already armed or was closed"}
	ErrResourceRegistration = &HALError{Class: ClassLifecycle, message: "hal: failed to register resources with component"}
	ErrComponentClosed      = &HALError{Class: ClassLifecycle, message: "hal: component is closed"}
	ErrNotSupported         = &HALError{Class: ClassLifecycle, message: "hal: native LinuxCNC HAL not linked",
		hint: "build with cgo and the 'linuxcnc' tag on linux"}
)

// ResourceError attributes a fault to a single pin or parameter.
type ResourceError struct {
	Resource string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("hal: resource %q: %v", e.Resource, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// ComponentError attributes a fault to a component and the lifecycle step
// that produced it.
type ComponentError struct {
	Component string
	Op        string
	Err       error
}

func (e *ComponentError) Error() string {
	if e.Op == opRegister {
		return fmt.Sprintf("hal: component %q: %s: %v", e.Component, ErrResourceRegistration.message, e.Err)
	}
	return fmt.Sprintf("hal: component %q: %s: %v", e.Component, e.Op, e.Err)
}

// Unwrap exposes ErrResourceRegistration alongside the underlying fault when
// registration failed, so both match with errors.Is.
func (e *ComponentError) Unwrap() []error {
	if e.Op == opRegister {
		return []error{ErrResourceRegistration, e.Err}
	}
	return []error{e.Err}
}

// ContractViolation is the panic value used when a HAL function returns a
// status outside its documented set. It points at an ABI mismatch between
// this package and the linked liblinuxcnchal.
type ContractViolation struct {
	Op   string
	Code int32
}

func (v *ContractViolation) Error() string {
	return fmt.Sprintf("hal: %s returned undocumented status %d", v.Op, v.Code)
}

const (
	opInit     = "hal_init"
	opRegister = "register"
	opPinNew   = "hal_pin_new"
	opParamNew = "hal_param_new"
	opReady    = "hal_ready"
	opExit     = "hal_exit"
)

func violate(op string, code int32) {
	panic(&ContractViolation{Op: op, Code: code})
}

// initStatus maps a hal_init return value to a component id.
func initStatus(code int32) (int32, error) {
	switch {
	case code == StatusInvalid:
		return 0, ErrInit
	case code == StatusNoMem:
		return 0, ErrInitMemory
	case code > 0:
		return code, nil
	}
	violate(opInit, code)
	return 0, nil
}

// registerStatus maps a hal_pin_*_new / hal_param_*_new return value.
func registerStatus(op string, code int32) error {
	switch code {
	case StatusOK:
		return nil
	case StatusInvalid:
		return ErrInvalid
	case StatusPerm:
		return ErrLockedHAL
	case StatusNoMem:
		return ErrMemory
	}
	violate(op, code)
	return nil
}

// readyStatus maps a hal_ready return value.
func readyStatus(code int32) error {
	switch code {
	case StatusOK:
		return nil
	case StatusInvalid:
		return ErrReady
	}
	violate(opReady, code)
	return nil
}

// exitStatus maps a hal_exit return value. hal_exit is called on teardown
// paths, so an unexpected status is reported rather than panicking.
func exitStatus(code int32) error {
	if code == StatusOK {
		return nil
	}
	return &HALError{Code: code, Class: ClassLifecycle, message: fmt.Sprintf("hal: hal_exit returned status %d", code)}
}

// IsContractViolation reports whether v, typically a recovered panic value,
// is a *ContractViolation.
func IsContractViolation(v any) bool {
	err, ok := v.(error)
	if !ok {
		return false
	}
	var cv *ContractViolation
	return errors.As(err, &cv)
}
