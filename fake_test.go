package hal

import (
	"sync"
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"
)

// fakeAPI is a scripted HAL backed by an anonymous mapping. Zero-valued
// status fields mean success.
type fakeAPI struct {
	mu    sync.Mutex
	arena []byte
	off   uintptr
	calls map[string]int

	id         int32
	initCode   int32
	pinCode    int32
	paramCode  int32
	exitCode   int32
	readyCodes []int32
	nullMalloc bool
	nullSlot   bool
	skew       uintptr

	onExit func(id int32)
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	arena, err := unix.Mmap(-1, 0, 4096, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		t.Fatalf("Failed to mmap: %v", err)
	}
	t.Cleanup(func() {
		if err := unix.Munmap(arena); err != nil {
			t.Errorf("Failed to munmap: %v", err)
		}
	})
	return &fakeAPI{arena: arena, calls: map[string]int{}, id: 7}
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) alloc(n uintptr) unsafe.Pointer {
	off := (f.off + 7) &^ 7
	if off+n > uintptr(len(f.arena)) {
		return nil
	}
	f.off = off + n
	return unsafe.Pointer(&f.arena[off])
}

func (f *fakeAPI) Init(name string) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["init"]++
	if f.initCode != 0 {
		return f.initCode
	}
	return f.id
}

func (f *fakeAPI) Malloc(size int64) unsafe.Pointer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["malloc"]++
	if f.nullMalloc {
		return nil
	}
	p := f.alloc(uintptr(size) + f.skew)
	if p == nil {
		return nil
	}
	return unsafe.Add(p, f.skew)
}

func (f *fakeAPI) PinNew(t ValueType, name string, dir PinDirection, slot unsafe.Pointer, compID int32) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["pin"]++
	if f.pinCode != 0 {
		return f.pinCode
	}
	if !f.nullSlot {
		*(*unsafe.Pointer)(slot) = f.alloc(t.Size())
	}
	return StatusOK
}

func (f *fakeAPI) ParamNew(t ValueType, name string, dir ParamDirection, addr unsafe.Pointer, compID int32) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["param"]++
	return f.paramCode
}

func (f *fakeAPI) Ready(compID int32) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ready"]++
	if len(f.readyCodes) == 0 {
		if f.calls["ready"] > 1 {
			return StatusInvalid
		}
		return StatusOK
	}
	code := f.readyCodes[0]
	f.readyCodes = f.readyCodes[1:]
	return code
}

func (f *fakeAPI) Exit(compID int32) int32 {
	f.mu.Lock()
	f.calls["exit"]++
	code, hook := f.exitCode, f.onExit
	f.mu.Unlock()
	if hook != nil {
		hook(compID)
	}
	return code
}

var _ API = (*fakeAPI)(nil)
