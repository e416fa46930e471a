//go:build linux && cgo && linuxcnc

package rtapi

/*
#cgo CFLAGS: -DULAPI -I/usr/include/linuxcnc
#cgo LDFLAGS: -llinuxcnchal
#include <stdlib.h>
#include <rtapi.h>

static void go_rtapi_print(int level, const char *msg) {
	rtapi_print_msg((msg_level_t)level, "%s", msg);
}
*/
import "C"

import "unsafe"

type nativeSink struct{}

// NativeSink returns the sink backed by rtapi_print_msg.
func NativeSink() (Sink, error) {
	return nativeSink{}, nil
}

func (nativeSink) Print(level Level, msg string) {
	cmsg := C.CString(msg)
	defer C.free(unsafe.Pointer(cmsg))
	C.go_rtapi_print(C.int(level), cmsg)
}

func (nativeSink) MsgLevel() Level {
	return Level(C.rtapi_get_msg_level())
}
