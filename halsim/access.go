package halsim

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync/atomic"
	"unsafe"

	hal "github.com/blacktop/go-linuxcnc-hal"
)

var (
	// ErrNotFound is returned when no pin, parameter or signal has the name.
	ErrNotFound = errors.New("halsim: object not found")
	// ErrTypeMismatch is returned when the requested Go type does not match
	// the HAL type of the object.
	ErrTypeMismatch = errors.New("halsim: type mismatch")
	// ErrDetached is returned when a pin slot no longer points anywhere.
	ErrDetached = errors.New("halsim: pin is not attached to storage")
	// ErrReadOnly is returned by Set for a HAL_RO parameter.
	ErrReadOnly = errors.New("halsim: parameter is read-only")
)

func storePointer(slot, p unsafe.Pointer) {
	atomic.StorePointer((*unsafe.Pointer)(slot), p)
}

func loadPointer(slot unsafe.Pointer) unsafe.Pointer {
	return atomic.LoadPointer((*unsafe.Pointer)(slot))
}

// value returns the address the object's value currently lives at. Callers
// hold h.mu.
func (o *object) value() (unsafe.Pointer, error) {
	p := o.addr
	if o.kind == kindPin {
		p = loadPointer(o.slot)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrDetached, o.name)
	}
	if uintptr(p)%o.typ.Size() != 0 {
		return nil, fmt.Errorf("halsim: %s: storage is misaligned", o.name)
	}
	return p, nil
}

func (h *HAL) lookup(name string, t hal.ValueType) (*object, error) {
	o, ok := h.objects[name]
	if !ok {
		o, ok = h.signals[name]
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if o.typ != t {
		return nil, fmt.Errorf("%w: %s is %s, not %s", ErrTypeMismatch, name, o.typ, t)
	}
	return o, nil
}

// Get reads a pin, parameter or signal the way the runtime sees it.
func Get[S hal.Scalar](h *HAL, name string) (S, error) {
	var zero S
	h.mu.Lock()
	defer h.mu.Unlock()

	o, err := h.lookup(name, hal.ValueTypeOf[S]())
	if err != nil {
		return zero, err
	}
	p, err := o.value()
	if err != nil {
		return zero, err
	}
	return any(read(o.typ, p)).(S), nil
}

// Set writes a pin, parameter or signal from the runtime side, as "halcmd
// setp" and "halcmd sets" do. Like setp it refuses read-only parameters.
func Set[S hal.Scalar](h *HAL, name string, v S) error {
	return set(h, name, v, false)
}

// Poke writes any object, read-only parameters included. It stands in for
// the component's own realtime side and has no halcmd equivalent.
func Poke[S hal.Scalar](h *HAL, name string, v S) error {
	return set(h, name, v, true)
}

func set[S hal.Scalar](h *HAL, name string, v S, force bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	o, err := h.lookup(name, hal.ValueTypeOf[S]())
	if err != nil {
		return err
	}
	if !force && o.kind == kindParam && hal.ParamDirection(o.dir) == hal.ParamRO {
		return fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	p, err := o.value()
	if err != nil {
		return err
	}
	write(o.typ, p, v)
	return nil
}

// Detach clears the storage pointer of a pin, leaving its slot null.
func (h *HAL) Detach(pin string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	o, ok := h.objects[pin]
	if !ok || o.kind != kindPin {
		return fmt.Errorf("%w: pin %s", ErrNotFound, pin)
	}
	storePointer(o.slot, nil)
	return nil
}

// Net creates signal sig if needed and links every pin to it, as "halcmd net"
// does: each pin slot is repointed at the signal's storage.
func (h *HAL) Net(sig string, pins ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(sig) > hal.MaxNameLen {
		return fmt.Errorf("halsim: signal name %q is too long", sig)
	}

	targets := make([]*object, 0, len(pins))
	for _, name := range pins {
		o, ok := h.objects[name]
		if !ok || o.kind != kindPin {
			return fmt.Errorf("%w: pin %s", ErrNotFound, name)
		}
		targets = append(targets, o)
	}

	s, ok := h.signals[sig]
	if !ok {
		if len(targets) == 0 {
			return fmt.Errorf("halsim: signal %s needs at least one pin", sig)
		}
		t := targets[0].typ
		addr := h.alloc(t.Size())
		if addr == nil {
			return fmt.Errorf("halsim: no arena space for signal %s", sig)
		}
		s = &object{name: sig, kind: kindSignal, typ: t, addr: addr}
		h.signals[sig] = s
	}

	for _, o := range targets {
		if o.typ != s.typ {
			return fmt.Errorf("%w: pin %s is %s, signal %s is %s", ErrTypeMismatch, o.name, o.typ, sig, s.typ)
		}
	}
	for _, o := range targets {
		storePointer(o.slot, s.addr)
	}
	return nil
}

// Unlink points a pin back at its private storage.
func (h *HAL) Unlink(pin string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	o, ok := h.objects[pin]
	if !ok || o.kind != kindPin {
		return fmt.Errorf("%w: pin %s", ErrNotFound, pin)
	}
	storePointer(o.slot, o.dummy)
	return nil
}

// Info describes a pin or parameter as "halcmd show" lists it.
type Info struct {
	Owner string
	Name  string
	Type  hal.ValueType
	Dir   string
	Value string
}

// Pins lists every pin ordered by name.
func (h *HAL) Pins() []Info { return h.list(kindPin) }

// Params lists every parameter ordered by name.
func (h *HAL) Params() []Info { return h.list(kindParam) }

func (h *HAL) list(k kind) []Info {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Info
	for _, o := range h.objects {
		if o.kind != k {
			continue
		}
		info := Info{Name: o.name, Type: o.typ, Value: "<detached>"}
		if c, ok := h.comps[o.owner]; ok {
			info.Owner = c.name
		}
		if k == kindPin {
			info.Dir = hal.PinDirection(o.dir).String()
		} else {
			info.Dir = hal.ParamDirection(o.dir).String()
		}
		if p, err := o.value(); err == nil {
			info.Value = format(read(o.typ, p))
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func read(t hal.ValueType, p unsafe.Pointer) any {
	switch t {
	case hal.TypeFloat:
		return math.Float64frombits(atomic.LoadUint64((*uint64)(p)))
	case hal.TypeS32:
		return atomic.LoadInt32((*int32)(p))
	case hal.TypeU32:
		return atomic.LoadUint32((*uint32)(p))
	case hal.TypeBit:
		return *(*uint8)(p) != 0
	}
	return nil
}

func write(t hal.ValueType, p unsafe.Pointer, v any) {
	switch t {
	case hal.TypeFloat:
		atomic.StoreUint64((*uint64)(p), math.Float64bits(v.(float64)))
	case hal.TypeS32:
		atomic.StoreInt32((*int32)(p), v.(int32))
	case hal.TypeU32:
		atomic.StoreUint32((*uint32)(p), v.(uint32))
	case hal.TypeBit:
		var b uint8
		if v.(bool) {
			b = 1
		}
		*(*uint8)(p) = b
	}
}

func format(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint32:
		return "0x" + strconv.FormatUint(uint64(x), 16)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	}
	return "?"
}
