package hal

import "unsafe"

// API is the boundary to the HAL library. Each method mirrors one hal_*
// function and returns its raw status so the caller owns the mapping into
// HALError values.
//
// NativeAPI returns the cgo implementation; the halsim package provides an
// in-process simulator with the same status contract.
type API interface {
	// Init wraps hal_init. It returns a positive component id, or
	// StatusInvalid / StatusNoMem.
	Init(name string) int32

	// Malloc wraps hal_malloc. The returned memory lives in the HAL arena
	// and is never freed individually. Exhaustion returns nil.
	Malloc(size int64) unsafe.Pointer

	// PinNew wraps hal_pin_<type>_new. slot is the address of a pointer the
	// HAL points at the pin value.
	PinNew(t ValueType, name string, dir PinDirection, slot unsafe.Pointer, compID int32) int32

	// ParamNew wraps hal_param_<type>_new. addr is the value itself.
	ParamNew(t ValueType, name string, dir ParamDirection, addr unsafe.Pointer, compID int32) int32

	// Ready wraps hal_ready.
	Ready(compID int32) int32

	// Exit wraps hal_exit and releases the component id.
	Exit(compID int32) int32
}
