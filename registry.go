package hal

import "sync"

// Registry registers pins and parameters against one component while it is
// being built. Every resource name is prefixed with the component name and a
// '.', so a pin "input-1" on component "pins" shows up in the HAL as
// "pins.input-1".
//
// The registry is consumed when the component becomes ready. Registering on
// a consumed registry fails with ErrLockedHAL without calling into the HAL.
type Registry struct {
	name string
	id   int32
	api  API

	mu       sync.Mutex
	consumed bool
	handles  []releaser
}

func newRegistry(name string, id int32, api API) *Registry {
	return &Registry{name: name, id: id, api: api}
}

// Name returns the component name.
func (r *Registry) Name() string { return r.name }

// ID returns the HAL component id.
func (r *Registry) ID() int32 { return r.id }

// FullName returns the HAL name a resource called local would be registered
// under.
func (r *Registry) FullName(local string) string {
	return r.name + "." + local
}

// Consumed reports whether the component has left the registration phase.
func (r *Registry) Consumed() bool {
	if r == nil {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.consumed
}

// Len returns the number of resources registered so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

func (r *Registry) open(local string) error {
	if r.Consumed() {
		recordRegistrationError()
		full := local
		if r != nil {
			full = r.FullName(local)
		}
		return &ResourceError{Resource: full, Err: ErrLockedHAL}
	}
	return nil
}

func (r *Registry) track(h releaser) {
	r.mu.Lock()
	r.handles = append(r.handles, h)
	r.mu.Unlock()
}

// consume ends the registration phase and hands the tracked handles to the
// caller, which becomes responsible for releasing them.
func (r *Registry) consume() []releaser {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumed = true
	handles := r.handles
	r.handles = nil
	return handles
}

// RegisterInputPin registers an input pin called name on the component.
func RegisterInputPin[S Scalar](r *Registry, name string) (*InputPin[S], error) {
	if err := r.open(name); err != nil {
		return nil, err
	}
	res, err := registerPin[S](r.api, r.FullName(name), PinIn, r.id)
	if err != nil {
		return nil, err
	}
	p := &InputPin[S]{res}
	r.track(p)
	return p, nil
}

// RegisterOutputPin registers an output pin called name on the component.
func RegisterOutputPin[S Scalar](r *Registry, name string) (*OutputPin[S], error) {
	if err := r.open(name); err != nil {
		return nil, err
	}
	res, err := registerPin[S](r.api, r.FullName(name), PinOut, r.id)
	if err != nil {
		return nil, err
	}
	p := &OutputPin[S]{res}
	r.track(p)
	return p, nil
}

// RegisterBidirectionalPin registers an I/O pin called name on the component.
func RegisterBidirectionalPin[S Scalar](r *Registry, name string) (*BidirectionalPin[S], error) {
	if err := r.open(name); err != nil {
		return nil, err
	}
	res, err := registerPin[S](r.api, r.FullName(name), PinIO, r.id)
	if err != nil {
		return nil, err
	}
	p := &BidirectionalPin[S]{res}
	r.track(p)
	return p, nil
}

// RegisterReadOnlyParam registers a parameter the rest of the HAL cannot set.
func RegisterReadOnlyParam[S Scalar](r *Registry, name string) (*ReadOnlyParam[S], error) {
	if err := r.open(name); err != nil {
		return nil, err
	}
	res, err := registerParam[S](r.api, r.FullName(name), ParamRO, r.id)
	if err != nil {
		return nil, err
	}
	p := &ReadOnlyParam[S]{res}
	r.track(p)
	return p, nil
}

// RegisterReadWriteParam registers a parameter that can be changed with setp.
func RegisterReadWriteParam[S Scalar](r *Registry, name string) (*ReadWriteParam[S], error) {
	if err := r.open(name); err != nil {
		return nil, err
	}
	res, err := registerParam[S](r.api, r.FullName(name), ParamRW, r.id)
	if err != nil {
		return nil, err
	}
	p := &ReadWriteParam[S]{res}
	r.track(p)
	return p, nil
}
