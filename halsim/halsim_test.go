package halsim

import (
	"errors"
	"strings"
	"testing"
	"unsafe"

	hal "github.com/blacktop/go-linuxcnc-hal"
)

func newTestHAL(t *testing.T, opts ...Option) *HAL {
	t.Helper()
	h, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestInit(t *testing.T) {
	h := newTestHAL(t)

	id := h.Init("comp")
	if id <= 0 {
		t.Fatalf("Init() = %d, want > 0", id)
	}
	if got := h.Init("comp"); got != hal.StatusInvalid {
		t.Errorf("duplicate Init() = %d, want -EINVAL", got)
	}
	if got := h.Init(strings.Repeat("x", hal.MaxNameLen+1)); got != hal.StatusInvalid {
		t.Errorf("long Init() = %d, want -EINVAL", got)
	}
	other := h.Init("other")
	if other <= 0 || other == id {
		t.Errorf("second component id = %d", other)
	}
	if s := h.Stats(); s.Inits != 4 || s.Rejected != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestMalloc(t *testing.T) {
	h := newTestHAL(t, ArenaSize(32))

	a := h.Malloc(1)
	b := h.Malloc(4)
	if a == nil || b == nil {
		t.Fatal("Malloc() returned nil")
	}
	if uintptr(b)%8 != 0 {
		t.Errorf("block %p is not 8-byte aligned", b)
	}
	if uintptr(b)-uintptr(a) != 8 {
		t.Errorf("blocks %p and %p are not packed", a, b)
	}
	if p := h.Malloc(64); p != nil {
		t.Error("Malloc() beyond the arena returned memory")
	}

	h.FailMalloc(2)
	if h.Malloc(1) != nil || h.Malloc(1) != nil {
		t.Error("FailMalloc did not fail")
	}
	if h.Malloc(1) == nil {
		t.Error("Malloc() still failing after FailMalloc budget")
	}

	h.SkewMalloc(1)
	if p := h.Malloc(1); p == nil || uintptr(p)%8 != 1 {
		t.Errorf("skewed Malloc() = %p", p)
	}
}

func TestPinNew(t *testing.T) {
	h := newTestHAL(t)
	id := h.Init("comp")

	slot := h.Malloc(8)
	if code := h.PinNew(hal.TypeFloat, "comp.out", hal.PinOut, slot, id); code != hal.StatusOK {
		t.Fatalf("PinNew() = %d", code)
	}
	if *(*unsafe.Pointer)(slot) == nil {
		t.Fatal("slot not pointed at pin storage")
	}

	tests := []struct {
		name string
		typ  hal.ValueType
		pin  string
		dir  hal.PinDirection
		slot unsafe.Pointer
		id   int32
		want int32
	}{
		{"duplicate", hal.TypeFloat, "comp.out", hal.PinOut, h.Malloc(8), id, hal.StatusInvalid},
		{"unknown component", hal.TypeFloat, "comp.a", hal.PinIn, h.Malloc(8), 999, hal.StatusInvalid},
		{"bad direction", hal.TypeFloat, "comp.b", hal.PinDirection(5), h.Malloc(8), id, hal.StatusInvalid},
		{"bad type", hal.ValueType(0), "comp.c", hal.PinIn, h.Malloc(8), id, hal.StatusInvalid},
		{"outside arena", hal.TypeBit, "comp.d", hal.PinIn, unsafe.Pointer(new(uint64)), id, hal.StatusInvalid},
		{"long name", hal.TypeBit, strings.Repeat("p", hal.MaxNameLen+1), hal.PinIn, h.Malloc(8), id, hal.StatusInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.PinNew(tt.typ, tt.pin, tt.dir, tt.slot, tt.id); got != tt.want {
				t.Errorf("PinNew() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResourcesAfterReady(t *testing.T) {
	h := newTestHAL(t)
	id := h.Init("comp")

	if code := h.Ready(id); code != hal.StatusOK {
		t.Fatalf("Ready() = %d", code)
	}
	if code := h.Ready(id); code != hal.StatusInvalid {
		t.Errorf("second Ready() = %d, want -EINVAL", code)
	}
	if code := h.PinNew(hal.TypeS32, "comp.late", hal.PinIn, h.Malloc(8), id); code != hal.StatusInvalid {
		t.Errorf("PinNew() after ready = %d, want -EINVAL", code)
	}
	if code := h.ParamNew(hal.TypeS32, "comp.late", hal.ParamRW, h.Malloc(4), id); code != hal.StatusInvalid {
		t.Errorf("ParamNew() after ready = %d, want -EINVAL", code)
	}
	if code := h.Ready(12345); code != hal.StatusInvalid {
		t.Errorf("Ready(unknown) = %d, want -EINVAL", code)
	}
}

func TestLock(t *testing.T) {
	h := newTestHAL(t)
	id := h.Init("comp")

	h.Lock()
	if code := h.ParamNew(hal.TypeU32, "comp.p", hal.ParamRO, h.Malloc(4), id); code != hal.StatusPerm {
		t.Errorf("ParamNew() while locked = %d, want -EPERM", code)
	}
	h.Unlock()
	if code := h.ParamNew(hal.TypeU32, "comp.p", hal.ParamRO, h.Malloc(4), id); code != hal.StatusOK {
		t.Errorf("ParamNew() after unlock = %d, want 0", code)
	}
}

func TestPinStorageExhausted(t *testing.T) {
	h := newTestHAL(t, ArenaSize(8))
	id := h.Init("comp")

	slot := h.Malloc(8)
	if code := h.PinNew(hal.TypeBit, "comp.bit", hal.PinIn, slot, id); code != hal.StatusNoMem {
		t.Errorf("PinNew() = %d, want -ENOMEM", code)
	}
}

func TestExit(t *testing.T) {
	h := newTestHAL(t)
	id := h.Init("comp")
	keep := h.Init("keep")

	h.PinNew(hal.TypeBit, "comp.a", hal.PinIn, h.Malloc(8), id)
	h.ParamNew(hal.TypeBit, "comp.b", hal.ParamRW, h.Malloc(1), id)
	h.PinNew(hal.TypeBit, "keep.a", hal.PinIn, h.Malloc(8), keep)

	if code := h.Exit(id); code != hal.StatusOK {
		t.Fatalf("Exit() = %d", code)
	}
	if code := h.Exit(id); code != hal.StatusInvalid {
		t.Errorf("second Exit() = %d, want -EINVAL", code)
	}
	pins := h.Pins()
	if len(pins) != 1 || pins[0].Name != "keep.a" || pins[0].Owner != "keep" {
		t.Errorf("Pins() = %+v", pins)
	}
	if len(h.Params()) != 0 {
		t.Errorf("Params() = %+v", h.Params())
	}
	comps := h.Components()
	if len(comps) != 1 || comps[0].Name != "keep" {
		t.Errorf("Components() = %+v", comps)
	}
}

func TestGetSet(t *testing.T) {
	h := newTestHAL(t)
	id := h.Init("comp")
	h.PinNew(hal.TypeS32, "comp.count", hal.PinOut, h.Malloc(8), id)
	h.ParamNew(hal.TypeBit, "comp.enable", hal.ParamRW, h.Malloc(1), id)

	if err := Set[int32](h, "comp.count", -3); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, err := Get[int32](h, "comp.count"); err != nil || v != -3 {
		t.Errorf("Get() = %v, %v; want -3", v, err)
	}
	if err := Set(h, "comp.enable", true); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, _ := Get[bool](h, "comp.enable"); !v {
		t.Error("Get() = false, want true")
	}

	h.ParamNew(hal.TypeU32, "comp.limit", hal.ParamRO, h.Malloc(4), id)
	if err := Set[uint32](h, "comp.limit", 5); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Set() on ro param error = %v, want ErrReadOnly", err)
	}
	if err := Poke[uint32](h, "comp.limit", 5); err != nil {
		t.Fatalf("Poke() error = %v", err)
	}
	if v, _ := Get[uint32](h, "comp.limit"); v != 5 {
		t.Errorf("Get() = %v, want 5", v)
	}

	if _, err := Get[float64](h, "comp.count"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Get() type mismatch error = %v", err)
	}
	if _, err := Get[bool](h, "comp.missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() missing error = %v", err)
	}

	if err := h.Detach("comp.count"); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	if _, err := Get[int32](h, "comp.count"); !errors.Is(err, ErrDetached) {
		t.Errorf("Get() detached error = %v", err)
	}
	if err := h.Detach("comp.enable"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Detach(param) error = %v", err)
	}

	pins := h.Pins()
	if len(pins) != 1 || pins[0].Value != "<detached>" || pins[0].Dir != "out" {
		t.Errorf("Pins() = %+v", pins)
	}
	params := h.Params()
	if len(params) != 2 || params[0].Value != "TRUE" || params[1].Value != "0x5" {
		t.Errorf("Params() = %+v", params)
	}
}

func TestNet(t *testing.T) {
	h := newTestHAL(t)
	id := h.Init("comp")
	h.PinNew(hal.TypeU32, "comp.a", hal.PinOut, h.Malloc(8), id)
	h.PinNew(hal.TypeU32, "comp.b", hal.PinIn, h.Malloc(8), id)
	h.PinNew(hal.TypeFloat, "comp.f", hal.PinIn, h.Malloc(8), id)

	if err := h.Net("sig", "comp.a", "comp.b"); err != nil {
		t.Fatalf("Net() error = %v", err)
	}
	if err := Set[uint32](h, "comp.a", 0xff); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, _ := Get[uint32](h, "comp.b"); v != 0xff {
		t.Errorf("linked pin = %#x, want 0xff", v)
	}
	if err := h.Net("sig", "comp.f"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Net() type mismatch error = %v", err)
	}
	if err := h.Net("empty"); err == nil {
		t.Error("Net() without pins succeeded")
	}
	if err := h.Net("sig", "comp.nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Net() missing pin error = %v", err)
	}
}

func TestClose(t *testing.T) {
	h, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if h.Malloc(8) != nil {
		t.Error("Malloc() after Close returned memory")
	}
	if h.Init("late") != hal.StatusInvalid {
		t.Error("Init() after Close succeeded")
	}
}

func TestInvalidArenaSize(t *testing.T) {
	if _, err := New(ArenaSize(0)); err == nil {
		t.Error("New(ArenaSize(0)) succeeded")
	}
}
