package hal

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// Storage is a checked handle to one scalar living in HAL shared memory.
//
// For pins the allocated address is a slot holding a pointer that the HAL
// repoints at the pin value (and again whenever the pin is linked to a
// signal), so every access follows the slot. For parameters the allocated
// address is the value itself.
//
// Storage never owns the bytes it points at: they belong to the HAL arena and
// outlive the handle. All unsafe dereferences in this package happen here.
type Storage[S Scalar] struct {
	addr     unsafe.Pointer
	typ      ValueType
	indirect bool
}

func isAligned(addr, align uintptr) bool {
	return addr&(align-1) == 0
}

// allocateStorage reserves arena memory for one S. indirect selects a
// pointer-sized slot (pins) instead of the value itself (parameters).
func allocateStorage[S Scalar](api API, indirect bool) (*Storage[S], error) {
	t := valueTypeOf[S]()
	size, align := t.Size(), t.Align()
	if indirect {
		size, align = ptrSize, ptrSize
	}

	p := api.Malloc(int64(size))
	if p == nil {
		recordStorageFault()
		return nil, ErrNullStorage
	}
	if !isAligned(uintptr(p), align) {
		recordStorageFault()
		return nil, ErrMisaligned
	}

	recordAllocation(size)
	Logger().Sugar().Debugf("allocated %d bytes for %s storage at %p", size, t, p)
	return &Storage[S]{addr: p, typ: t, indirect: indirect}, nil
}

// ptr returns the address handed to the HAL at registration time.
func (s *Storage[S]) ptr() unsafe.Pointer {
	return atomic.LoadPointer(&s.addr)
}

// release drops the handle. Later accesses fail with ErrNullStorage; the
// arena bytes are untouched.
func (s *Storage[S]) release() {
	atomic.StorePointer(&s.addr, nil)
}

// Valid reports whether the handle still refers to arena memory.
func (s *Storage[S]) Valid() bool {
	return s != nil && s.ptr() != nil
}

// Type returns the HAL value type stored behind the handle.
func (s *Storage[S]) Type() ValueType {
	return s.typ
}

func (s *Storage[S]) target() (unsafe.Pointer, error) {
	if s == nil {
		return nil, ErrNullStorage
	}
	p := atomic.LoadPointer(&s.addr)
	if p == nil {
		return nil, ErrNullStorage
	}
	if s.indirect {
		p = atomic.LoadPointer((*unsafe.Pointer)(p))
		if p == nil {
			return nil, ErrNullStorage
		}
	}
	if !isAligned(uintptr(p), s.typ.Align()) {
		return nil, ErrMisaligned
	}
	return p, nil
}

// Get reads the current value.
func (s *Storage[S]) Get() (S, error) {
	var zero S
	p, err := s.target()
	if err != nil {
		recordStorageFault()
		return zero, err
	}
	return load[S](p), nil
}

// Set overwrites the value in place.
func (s *Storage[S]) Set(v S) error {
	p, err := s.target()
	if err != nil {
		recordStorageFault()
		return err
	}
	store(p, v)
	return nil
}

// load reads an S at p. Word-sized values use atomics because the runtime
// may write the same slot from its own thread.
func load[S Scalar](p unsafe.Pointer) S {
	var v S
	switch any(v).(type) {
	case float64:
		return any(math.Float64frombits(atomic.LoadUint64((*uint64)(p)))).(S)
	case int32:
		return any(atomic.LoadInt32((*int32)(p))).(S)
	case uint32:
		return any(atomic.LoadUint32((*uint32)(p))).(S)
	case bool:
		return any(*(*uint8)(p) != 0).(S)
	}
	return v
}

func store[S Scalar](p unsafe.Pointer, v S) {
	switch x := any(v).(type) {
	case float64:
		atomic.StoreUint64((*uint64)(p), math.Float64bits(x))
	case int32:
		atomic.StoreInt32((*int32)(p), x)
	case uint32:
		atomic.StoreUint32((*uint32)(p), x)
	case bool:
		var b uint8
		if x {
			b = 1
		}
		*(*uint8)(p) = b
	}
}
