package hal

import (
	"errors"
	"strings"
	"testing"
)

func TestRegistryFullName(t *testing.T) {
	r := newRegistry("pins", 3, nil)
	if got := r.FullName("input-1"); got != "pins.input-1" {
		t.Errorf("FullName() = %q, want %q", got, "pins.input-1")
	}
	if r.Name() != "pins" || r.ID() != 3 {
		t.Errorf("Name(), ID() = %q, %d", r.Name(), r.ID())
	}
}

func TestRegisterPinsAndParams(t *testing.T) {
	api := newFakeAPI(t)
	r := newRegistry("comp", api.id, api)

	in, err := RegisterInputPin[float64](r, "in")
	if err != nil {
		t.Fatalf("RegisterInputPin() error = %v", err)
	}
	out, err := RegisterOutputPin[int32](r, "out")
	if err != nil {
		t.Fatalf("RegisterOutputPin() error = %v", err)
	}
	io, err := RegisterBidirectionalPin[bool](r, "io")
	if err != nil {
		t.Fatalf("RegisterBidirectionalPin() error = %v", err)
	}
	ro, err := RegisterReadOnlyParam[uint32](r, "ro")
	if err != nil {
		t.Fatalf("RegisterReadOnlyParam() error = %v", err)
	}
	rw, err := RegisterReadWriteParam[float64](r, "rw")
	if err != nil {
		t.Fatalf("RegisterReadWriteParam() error = %v", err)
	}

	if r.Len() != 5 {
		t.Errorf("Len() = %d, want 5", r.Len())
	}
	if api.count("pin") != 3 || api.count("param") != 2 {
		t.Errorf("pin/param calls = %d/%d, want 3/2", api.count("pin"), api.count("param"))
	}

	if in.Name() != "comp.in" || in.Direction() != PinIn || in.Type() != TypeFloat {
		t.Errorf("input pin = %s %v %v", in.Name(), in.Direction(), in.Type())
	}
	if out.Direction() != PinOut || io.Direction() != PinIO {
		t.Errorf("directions = %v, %v", out.Direction(), io.Direction())
	}
	if ro.Direction() != ParamRO || rw.Direction() != ParamRW {
		t.Errorf("param directions = %v, %v", ro.Direction(), rw.Direction())
	}

	if err := out.Set(-5); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, err := out.Value(); err != nil || v != -5 {
		t.Errorf("Value() = %v, %v; want -5", v, err)
	}
	if err := io.Set(true); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, _ := io.Value(); !v {
		t.Error("bidirectional pin did not read back true")
	}
	if err := rw.Set(0.5); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, _ := rw.Value(); v != 0.5 {
		t.Errorf("rw Value() = %v, want 0.5", v)
	}
	if v, err := ro.Value(); err != nil || v != 0 {
		t.Errorf("ro Value() = %v, %v; want 0", v, err)
	}
}

func TestRegisterNameTooLong(t *testing.T) {
	api := newFakeAPI(t)
	r := newRegistry("comp", api.id, api)

	// "comp." plus 43 bytes is one over the limit.
	local := strings.Repeat("x", MaxNameLen-len("comp.")+1)
	_, err := RegisterInputPin[float64](r, local)
	if !errors.Is(err, ErrNameLength) {
		t.Fatalf("error = %v, want ErrNameLength", err)
	}
	var rerr *ResourceError
	if !errors.As(err, &rerr) || rerr.Resource != "comp."+local {
		t.Errorf("ResourceError = %v", rerr)
	}
	if api.count("pin") != 0 || api.count("malloc") != 0 {
		t.Errorf("foreign calls made: pin=%d malloc=%d", api.count("pin"), api.count("malloc"))
	}

	// Exactly at the limit is fine.
	if _, err := RegisterInputPin[float64](r, local[1:]); err != nil {
		t.Errorf("name of MaxNameLen bytes rejected: %v", err)
	}
}

func TestRegisterNameWithNUL(t *testing.T) {
	api := newFakeAPI(t)
	r := newRegistry("comp", api.id, api)

	_, err := RegisterReadWriteParam[int32](r, "bad\x00name")
	if !errors.Is(err, ErrNameConversion) {
		t.Errorf("error = %v, want ErrNameConversion", err)
	}
	if api.count("param") != 0 {
		t.Errorf("param calls = %d, want 0", api.count("param"))
	}
}

func TestRegisterForeignStatus(t *testing.T) {
	tests := []struct {
		name string
		code int32
		want error
	}{
		{"EINVAL", StatusInvalid, ErrInvalid},
		{"EPERM", StatusPerm, ErrLockedHAL},
		{"ENOMEM", StatusNoMem, ErrMemory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t)
			api.pinCode = tt.code
			api.paramCode = tt.code
			r := newRegistry("comp", api.id, api)

			if _, err := RegisterOutputPin[float64](r, "out"); !errors.Is(err, tt.want) {
				t.Errorf("pin error = %v, want %v", err, tt.want)
			}
			if _, err := RegisterReadOnlyParam[bool](r, "ro"); !errors.Is(err, tt.want) {
				t.Errorf("param error = %v, want %v", err, tt.want)
			}
			if r.Len() != 0 {
				t.Errorf("failed registrations tracked: Len() = %d", r.Len())
			}
		})
	}
}

func TestRegisterUndocumentedStatusPanics(t *testing.T) {
	api := newFakeAPI(t)
	api.pinCode = -95
	r := newRegistry("comp", api.id, api)

	defer func() {
		if r := recover(); !IsContractViolation(r) {
			t.Errorf("recover() = %v, want *ContractViolation", r)
		}
	}()
	RegisterInputPin[uint32](r, "in")
	t.Fatal("expected panic")
}

func TestRegisterNullStorage(t *testing.T) {
	api := newFakeAPI(t)
	api.nullMalloc = true
	r := newRegistry("comp", api.id, api)

	_, err := RegisterInputPin[float64](r, "in")
	if !errors.Is(err, ErrNullStorage) {
		t.Errorf("error = %v, want ErrNullStorage", err)
	}
	if api.count("pin") != 0 {
		t.Errorf("pin calls = %d, want 0", api.count("pin"))
	}
}

func TestConsumedRegistry(t *testing.T) {
	api := newFakeAPI(t)
	r := newRegistry("comp", api.id, api)

	if _, err := RegisterInputPin[float64](r, "in"); err != nil {
		t.Fatalf("RegisterInputPin() error = %v", err)
	}
	handles := r.consume()
	if len(handles) != 1 || handles[0].Name() != "comp.in" {
		t.Fatalf("consume() = %v", handles)
	}
	if !r.Consumed() || r.Len() != 0 {
		t.Errorf("Consumed(), Len() = %v, %d", r.Consumed(), r.Len())
	}

	_, err := RegisterOutputPin[float64](r, "late")
	if !errors.Is(err, ErrLockedHAL) {
		t.Errorf("error = %v, want ErrLockedHAL", err)
	}
	if api.count("pin") != 1 || api.count("malloc") != 1 {
		t.Errorf("foreign calls after consume: pin=%d malloc=%d", api.count("pin"), api.count("malloc"))
	}

	var nilRegistry *Registry
	if _, err := RegisterReadWriteParam[bool](nilRegistry, "x"); !errors.Is(err, ErrLockedHAL) {
		t.Errorf("nil registry error = %v, want ErrLockedHAL", err)
	}
}

func TestReleasedResource(t *testing.T) {
	api := newFakeAPI(t)
	r := newRegistry("comp", api.id, api)

	p, err := RegisterOutputPin[uint32](r, "out")
	if err != nil {
		t.Fatalf("RegisterOutputPin() error = %v", err)
	}
	for _, h := range r.consume() {
		h.release()
	}
	if !p.Released() {
		t.Error("Released() = false after release")
	}
	if err := p.Set(1); !errors.Is(err, ErrNullStorage) {
		t.Errorf("Set() after release error = %v, want ErrNullStorage", err)
	}
}
