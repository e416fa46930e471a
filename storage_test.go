package hal

import (
	"testing"
	"unsafe"
)

func TestValueTypes(t *testing.T) {
	tests := []struct {
		name string
		got  ValueType
		want ValueType
		size uintptr
		str  string
	}{
		{"float64", ValueTypeOf[float64](), TypeFloat, 8, "float"},
		{"int32", ValueTypeOf[int32](), TypeS32, 4, "s32"},
		{"uint32", ValueTypeOf[uint32](), TypeU32, 4, "u32"},
		{"bool", ValueTypeOf[bool](), TypeBit, 1, "bit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("ValueTypeOf = %v, want %v", tt.got, tt.want)
			}
			if tt.got.Size() != tt.size {
				t.Errorf("Size() = %d, want %d", tt.got.Size(), tt.size)
			}
			if tt.got.String() != tt.str {
				t.Errorf("String() = %q, want %q", tt.got.String(), tt.str)
			}
		})
	}
}

func TestDirectionConstants(t *testing.T) {
	// Values from hal.h.
	if PinIn != 16 || PinOut != 32 || PinIO != 48 {
		t.Errorf("pin directions = %d/%d/%d, want 16/32/48", PinIn, PinOut, PinIO)
	}
	if ParamRO != 64 || ParamRW != 192 {
		t.Errorf("param directions = %d/%d, want 64/192", ParamRO, ParamRW)
	}
}

func roundTrip[S Scalar](t *testing.T, api *fakeAPI, indirect bool, v S) {
	t.Helper()
	s, err := allocateStorage[S](api, indirect)
	if err != nil {
		t.Fatalf("allocateStorage() error = %v", err)
	}
	if indirect {
		// Stand in for hal_pin_new repointing the slot.
		*(*unsafe.Pointer)(s.ptr()) = api.alloc(s.typ.Size())
	}
	if err := s.Set(v); err != nil {
		t.Fatalf("Set(%v) error = %v", v, err)
	}
	got, err := s.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != v {
		t.Errorf("Get() = %v, want %v", got, v)
	}
}

func TestStorageRoundTrip(t *testing.T) {
	for _, indirect := range []bool{false, true} {
		name := "direct"
		if indirect {
			name = "indirect"
		}
		t.Run(name, func(t *testing.T) {
			api := newFakeAPI(t)
			roundTrip(t, api, indirect, 42.0)
			roundTrip(t, api, indirect, int32(-7))
			roundTrip(t, api, indirect, uint32(0xdeadbeef))
			roundTrip(t, api, indirect, true)
			roundTrip(t, api, indirect, false)
		})
	}
}

func TestStorageNullAllocation(t *testing.T) {
	api := newFakeAPI(t)
	api.nullMalloc = true

	ResetMetrics()
	if _, err := allocateStorage[float64](api, true); err != ErrNullStorage {
		t.Errorf("allocateStorage() error = %v, want ErrNullStorage", err)
	}
	if m := GetMetrics(); m.StorageFaults != 1 {
		t.Errorf("StorageFaults = %d, want 1", m.StorageFaults)
	}
}

func TestStorageMisalignedAllocation(t *testing.T) {
	api := newFakeAPI(t)
	api.skew = 2

	if _, err := allocateStorage[uint32](api, false); err != ErrMisaligned {
		t.Errorf("allocateStorage() error = %v, want ErrMisaligned", err)
	}
	// A bit is a single byte and never misaligned.
	if _, err := allocateStorage[bool](api, false); err != nil {
		t.Errorf("allocateStorage[bool]() error = %v", err)
	}
}

func TestStorageNullSlot(t *testing.T) {
	api := newFakeAPI(t)
	s, err := allocateStorage[float64](api, true)
	if err != nil {
		t.Fatalf("allocateStorage() error = %v", err)
	}
	// The slot was never pointed anywhere.
	if _, err := s.Get(); err != ErrNullStorage {
		t.Errorf("Get() error = %v, want ErrNullStorage", err)
	}
	if err := s.Set(1); err != ErrNullStorage {
		t.Errorf("Set() error = %v, want ErrNullStorage", err)
	}
}

func TestStorageMisalignedTarget(t *testing.T) {
	api := newFakeAPI(t)
	s, err := allocateStorage[int32](api, true)
	if err != nil {
		t.Fatalf("allocateStorage() error = %v", err)
	}
	*(*unsafe.Pointer)(s.ptr()) = unsafe.Add(api.alloc(8), 1)
	if _, err := s.Get(); err != ErrMisaligned {
		t.Errorf("Get() error = %v, want ErrMisaligned", err)
	}
}

func TestStorageRelease(t *testing.T) {
	api := newFakeAPI(t)
	s, err := allocateStorage[uint32](api, false)
	if err != nil {
		t.Fatalf("allocateStorage() error = %v", err)
	}
	if !s.Valid() {
		t.Fatal("fresh storage is not valid")
	}
	s.release()
	if s.Valid() {
		t.Error("released storage is still valid")
	}
	if _, err := s.Get(); err != ErrNullStorage {
		t.Errorf("Get() after release error = %v, want ErrNullStorage", err)
	}
	if err := s.Set(1); err != ErrNullStorage {
		t.Errorf("Set() after release error = %v, want ErrNullStorage", err)
	}
}

func TestStorageNilHandle(t *testing.T) {
	var s *Storage[bool]
	if s.Valid() {
		t.Error("nil storage is valid")
	}
	if _, err := s.Get(); err != ErrNullStorage {
		t.Errorf("Get() error = %v, want ErrNullStorage", err)
	}
}
