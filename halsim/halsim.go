// Package halsim is an in-process stand-in for the LinuxCNC HAL.
//
// A *HAL implements hal.API on top of an anonymous shared mapping and follows
// the status contract of hal_lib: names are unique across the HAL, resources
// may only be created while their component is not yet ready, and a locked
// HAL rejects new resources with -EPERM. It also plays the runtime's side of
// the arena, so tests can read and write pins the way halcmd would.
package halsim

import (
	"fmt"
	"sort"
	"sync"
	"unsafe"

	hal "github.com/blacktop/go-linuxcnc-hal"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// DefaultArenaSize is the size of the shared mapping when no ArenaSize option
// is given.
const DefaultArenaSize = 64 << 10

const arenaAlign = 8

// Option configures a simulator.
type Option func(*HAL)

// ArenaSize sets the size of the shared arena in bytes.
func ArenaSize(n int) Option {
	return func(h *HAL) { h.size = n }
}

// WithLogger logs every rejected call the way hal_lib prints to the RTAPI
// message log.
func WithLogger(l *zap.Logger) Option {
	return func(h *HAL) { h.log = l }
}

type component struct {
	name  string
	id    int32
	ready bool
}

type kind uint8

const (
	kindPin kind = iota + 1
	kindParam
	kindSignal
)

type object struct {
	name  string
	kind  kind
	typ   hal.ValueType
	dir   int32
	owner int32

	// slot is the user's pointer-to-value for pins; addr is the value for
	// parameters and signals.
	slot  unsafe.Pointer
	addr  unsafe.Pointer
	dummy unsafe.Pointer
}

// HAL is a simulated HAL instance. It is safe for concurrent use.
type HAL struct {
	size int
	log  *zap.Logger

	mu      sync.Mutex
	arena   []byte
	off     uintptr
	closed  bool
	locked  bool
	nextID  int32
	comps   map[int32]*component
	objects map[string]*object
	signals map[string]*object

	failMalloc int
	skew       uintptr
	stats      Stats
}

// New maps a fresh arena and returns an empty HAL.
func New(opts ...Option) (*HAL, error) {
	h := &HAL{
		size:    DefaultArenaSize,
		log:     zap.NewNop(),
		nextID:  1,
		comps:   make(map[int32]*component),
		objects: make(map[string]*object),
		signals: make(map[string]*object),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.size <= 0 {
		return nil, fmt.Errorf("halsim: invalid arena size %d", h.size)
	}

	arena, err := unix.Mmap(-1, 0, h.size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("halsim: failed to map arena: %w", err)
	}
	h.arena = arena
	return h, nil
}

// Close unmaps the arena. Every component using the simulator must be closed
// first; handles into the arena are invalid afterwards.
func (h *HAL) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.comps = map[int32]*component{}
	h.objects = map[string]*object{}
	h.signals = map[string]*object{}
	if err := unix.Munmap(h.arena); err != nil {
		return fmt.Errorf("halsim: failed to unmap arena: %w", err)
	}
	h.arena = nil
	return nil
}

var _ hal.API = (*HAL)(nil)

// Init implements hal_init.
func (h *HAL) Init(name string) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.Inits++

	if h.closed {
		return hal.StatusInvalid
	}
	if len(name) > hal.MaxNameLen {
		h.reject("hal_init", name, "component name too long")
		return hal.StatusInvalid
	}
	for _, c := range h.comps {
		if c.name == name {
			h.reject("hal_init", name, "duplicate component name")
			return hal.StatusInvalid
		}
	}

	id := h.nextID
	h.nextID++
	h.comps[id] = &component{name: name, id: id}
	return id
}

// Malloc implements hal_malloc. Blocks are 8-byte aligned and never freed.
func (h *HAL) Malloc(size int64) unsafe.Pointer {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.Mallocs++

	if h.failMalloc > 0 {
		h.failMalloc--
		return nil
	}
	p := h.alloc(uintptr(size) + h.skew)
	if p == nil {
		h.reject("hal_malloc", "", "arena exhausted")
		return nil
	}
	return unsafe.Add(p, h.skew)
}

// alloc carves n bytes from the arena. Callers hold h.mu.
func (h *HAL) alloc(n uintptr) unsafe.Pointer {
	if h.closed || n == 0 {
		return nil
	}
	off := (h.off + arenaAlign - 1) &^ (arenaAlign - 1)
	if off+n > uintptr(len(h.arena)) {
		return nil
	}
	h.off = off + n
	h.stats.BytesUsed = int64(h.off)
	return unsafe.Pointer(&h.arena[off])
}

func (h *HAL) inArena(p unsafe.Pointer) bool {
	if p == nil || len(h.arena) == 0 {
		return false
	}
	base := uintptr(unsafe.Pointer(&h.arena[0]))
	return uintptr(p) >= base && uintptr(p) < base+uintptr(len(h.arena))
}

// PinNew implements hal_pin_<type>_new. The pin gets private storage in the
// arena, and its address is written into slot.
func (h *HAL) PinNew(t hal.ValueType, name string, dir hal.PinDirection, slot unsafe.Pointer, compID int32) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.PinNews++

	switch dir {
	case hal.PinIn, hal.PinOut, hal.PinIO:
	default:
		h.reject("hal_pin_new", name, "invalid direction")
		return hal.StatusInvalid
	}
	if code := h.checkNew("hal_pin_new", t, name, slot, compID); code != hal.StatusOK {
		return code
	}

	if uintptr(slot)%unsafe.Sizeof(uintptr(0)) != 0 {
		h.reject("hal_pin_new", name, "misaligned pin slot")
		return hal.StatusInvalid
	}

	dummy := h.alloc(t.Size())
	if dummy == nil {
		h.reject("hal_pin_new", name, "insufficient memory for pin")
		return hal.StatusNoMem
	}
	storePointer(slot, dummy)

	h.objects[name] = &object{name: name, kind: kindPin, typ: t, dir: int32(dir), owner: compID, slot: slot, dummy: dummy}
	return hal.StatusOK
}

// ParamNew implements hal_param_<type>_new.
func (h *HAL) ParamNew(t hal.ValueType, name string, dir hal.ParamDirection, addr unsafe.Pointer, compID int32) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.ParamNews++

	switch dir {
	case hal.ParamRO, hal.ParamRW:
	default:
		h.reject("hal_param_new", name, "invalid direction")
		return hal.StatusInvalid
	}
	if code := h.checkNew("hal_param_new", t, name, addr, compID); code != hal.StatusOK {
		return code
	}

	h.objects[name] = &object{name: name, kind: kindParam, typ: t, dir: int32(dir), owner: compID, addr: addr}
	return hal.StatusOK
}

// checkNew applies the checks hal_lib runs before creating a pin or
// parameter, in the same order. Callers hold h.mu.
func (h *HAL) checkNew(op string, t hal.ValueType, name string, p unsafe.Pointer, compID int32) int32 {
	if h.closed {
		return hal.StatusInvalid
	}
	if t.Size() == 0 {
		h.reject(op, name, "invalid type")
		return hal.StatusInvalid
	}
	if len(name) > hal.MaxNameLen {
		h.reject(op, name, "name too long")
		return hal.StatusInvalid
	}
	if h.locked {
		h.reject(op, name, "called while HAL locked")
		return hal.StatusPerm
	}
	comp, ok := h.comps[compID]
	if !ok {
		h.reject(op, name, "component not found")
		return hal.StatusInvalid
	}
	if !h.inArena(p) {
		h.reject(op, name, "storage not in HAL shared memory")
		return hal.StatusInvalid
	}
	if comp.ready {
		h.reject(op, name, "called after hal_ready")
		return hal.StatusInvalid
	}
	if _, dup := h.objects[name]; dup {
		h.reject(op, name, "duplicate name")
		return hal.StatusInvalid
	}
	return hal.StatusOK
}

// Ready implements hal_ready.
func (h *HAL) Ready(compID int32) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.Readies++

	comp, ok := h.comps[compID]
	if !ok {
		h.reject("hal_ready", "", "component not found")
		return hal.StatusInvalid
	}
	if comp.ready {
		h.reject("hal_ready", comp.name, "component already ready")
		return hal.StatusInvalid
	}
	comp.ready = true
	return hal.StatusOK
}

// Exit implements hal_exit. The component's pins and parameters are removed;
// their arena bytes stay allocated.
func (h *HAL) Exit(compID int32) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.Exits++

	comp, ok := h.comps[compID]
	if !ok {
		h.reject("hal_exit", "", "component not found")
		return hal.StatusInvalid
	}
	for name, obj := range h.objects {
		if obj.owner == compID {
			delete(h.objects, name)
		}
	}
	delete(h.comps, compID)
	h.log.Debug("component removed", zap.String("component", comp.name), zap.Int32("id", compID))
	return hal.StatusOK
}

func (h *HAL) reject(op, name, reason string) {
	h.stats.Rejected++
	h.log.Debug("HAL: ERROR", zap.String("op", op), zap.String("name", name), zap.String("reason", reason))
}

// Lock sets the load lock, as "halcmd lock load" does. New pins and
// parameters are rejected with -EPERM until Unlock.
func (h *HAL) Lock() {
	h.mu.Lock()
	h.locked = true
	h.mu.Unlock()
}

// Unlock clears the load lock.
func (h *HAL) Unlock() {
	h.mu.Lock()
	h.locked = false
	h.mu.Unlock()
}

// FailMalloc makes the next n Malloc calls return nil.
func (h *HAL) FailMalloc(n int) {
	h.mu.Lock()
	h.failMalloc = n
	h.mu.Unlock()
}

// SkewMalloc offsets every following Malloc result by off bytes, producing
// misaligned storage. Zero restores normal behaviour.
func (h *HAL) SkewMalloc(off uintptr) {
	h.mu.Lock()
	h.skew = off
	h.mu.Unlock()
}

// Stats counts calls into the simulator.
type Stats struct {
	Inits     int
	Mallocs   int
	PinNews   int
	ParamNews int
	Readies   int
	Exits     int
	Rejected  int
	BytesUsed int64
}

// Stats returns a snapshot of the call counters.
func (h *HAL) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// ComponentInfo describes a live component.
type ComponentInfo struct {
	ID    int32
	Name  string
	Ready bool
}

// Components lists live components ordered by id.
func (h *HAL) Components() []ComponentInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]ComponentInfo, 0, len(h.comps))
	for _, c := range h.comps {
		out = append(out, ComponentInfo{ID: c.id, Name: c.name, Ready: c.ready})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
