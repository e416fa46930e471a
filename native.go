//go:build linux && cgo && linuxcnc

package hal

/*
#cgo CFLAGS: -DULAPI -I/usr/include/linuxcnc
#cgo LDFLAGS: -llinuxcnchal
#include <errno.h>
#include <stdlib.h>
#include <hal.h>

// The typed hal_*_new entry points take volatile pointers; these helpers keep
// the casts on the C side.
static int go_hal_pin_new(int typ, const char *name, int dir, void *slot, int comp_id) {
	switch (typ) {
	case HAL_BIT:
		return hal_pin_bit_new(name, (hal_pin_dir_t)dir, (hal_bit_t **)slot, comp_id);
	case HAL_FLOAT:
		return hal_pin_float_new(name, (hal_pin_dir_t)dir, (hal_float_t **)slot, comp_id);
	case HAL_S32:
		return hal_pin_s32_new(name, (hal_pin_dir_t)dir, (hal_s32_t **)slot, comp_id);
	case HAL_U32:
		return hal_pin_u32_new(name, (hal_pin_dir_t)dir, (hal_u32_t **)slot, comp_id);
	}
	return -EINVAL;
}

static int go_hal_param_new(int typ, const char *name, int dir, void *addr, int comp_id) {
	switch (typ) {
	case HAL_BIT:
		return hal_param_bit_new(name, (hal_param_dir_t)dir, (hal_bit_t *)addr, comp_id);
	case HAL_FLOAT:
		return hal_param_float_new(name, (hal_param_dir_t)dir, (hal_float_t *)addr, comp_id);
	case HAL_S32:
		return hal_param_s32_new(name, (hal_param_dir_t)dir, (hal_s32_t *)addr, comp_id);
	case HAL_U32:
		return hal_param_u32_new(name, (hal_param_dir_t)dir, (hal_u32_t *)addr, comp_id);
	}
	return -EINVAL;
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

func init() {
	if int(C.HAL_NAME_LEN) != MaxNameLen {
		panic(fmt.Sprintf("hal: HAL_NAME_LEN is %d, package built for %d", int(C.HAL_NAME_LEN), MaxNameLen))
	}
}

type nativeAPI struct{}

// NativeAPI returns the binding to liblinuxcnchal.
func NativeAPI() (API, error) {
	return nativeAPI{}, nil
}

func (nativeAPI) Init(name string) int32 {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return int32(C.hal_init(cname))
}

func (nativeAPI) Malloc(size int64) unsafe.Pointer {
	return C.hal_malloc(C.long(size))
}

func (nativeAPI) PinNew(t ValueType, name string, dir PinDirection, slot unsafe.Pointer, compID int32) int32 {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return int32(C.go_hal_pin_new(C.int(cType(t)), cname, C.int(dir), slot, C.int(compID)))
}

func (nativeAPI) ParamNew(t ValueType, name string, dir ParamDirection, addr unsafe.Pointer, compID int32) int32 {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return int32(C.go_hal_param_new(C.int(cType(t)), cname, C.int(dir), addr, C.int(compID)))
}

func (nativeAPI) Ready(compID int32) int32 {
	return int32(C.hal_ready(C.int(compID)))
}

func (nativeAPI) Exit(compID int32) int32 {
	return int32(C.hal_exit(C.int(compID)))
}

func cType(t ValueType) C.int {
	switch t {
	case TypeBit:
		return C.HAL_BIT
	case TypeFloat:
		return C.HAL_FLOAT
	case TypeS32:
		return C.HAL_S32
	case TypeU32:
		return C.HAL_U32
	}
	return -1
}
