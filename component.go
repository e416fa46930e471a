package hal

import (
	"errors"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the lifecycle phase of a component.
type State uint8

const (
	StateCreated State = iota
	StateRegistering
	StateReady
	StateExited
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRegistering:
		return "registering"
	case StateReady:
		return "ready"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Builder is a component in its registration phase. Resources are registered
// through Registry and the builder is turned into a running Component by
// Ready. R is the caller's resource bundle, usually a struct of pins and
// parameters.
type Builder[R any] struct {
	name     string
	id       int32
	opts     *options
	registry *Registry

	mu        sync.Mutex
	state     State
	component *Component[R]
}

// NewBuilder initialises a HAL component called name. The name is checked
// before any HAL call is made.
func NewBuilder[R any](name string, opts ...Option) (*Builder[R], error) {
	start := time.Now()

	if err := checkName(name, ErrInvalidName); err != nil {
		recordLifecycleError()
		return nil, &ComponentError{Component: name, Op: opInit, Err: err}
	}

	o, err := buildOptions(opts)
	if err != nil {
		recordLifecycleError()
		return nil, &ComponentError{Component: name, Op: opInit, Err: err}
	}

	id, err := initStatus(o.api.Init(name))
	if err != nil {
		recordLifecycleError()
		return nil, &ComponentError{Component: name, Op: opInit, Err: err}
	}

	b := &Builder[R]{
		name:     name,
		id:       id,
		opts:     o,
		registry: newRegistry(name, id, o.api),
		state:    StateRegistering,
	}
	runtime.SetFinalizer(b, (*Builder[R]).finalize)

	recordComponentCreate(time.Since(start))
	o.log.Debug("component initialised", zap.String("component", name), zap.Int32("id", id))
	return b, nil
}

// Name returns the component name.
func (b *Builder[R]) Name() string { return b.name }

// ID returns the HAL component id.
func (b *Builder[R]) ID() int32 { return b.id }

// State returns the current lifecycle phase.
func (b *Builder[R]) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Registry returns the registry for this component. It stops accepting
// registrations once Ready succeeds.
func (b *Builder[R]) Registry() *Registry { return b.registry }

// Ready marks the component ready in the HAL, arms the shutdown watcher and
// hands ownership of resources to the returned Component.
//
// Calling Ready again forwards to hal_ready once more and reports its status:
// the HAL rejects the second call, which surfaces as ErrReady. Once the
// component is closed Ready fails with ErrComponentClosed.
func (b *Builder[R]) Ready(resources R) (*Component[R], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateExited:
		return nil, &ComponentError{Component: b.name, Op: opReady, Err: ErrComponentClosed}
	case StateReady:
		if b.component.State() == StateExited {
			return nil, &ComponentError{Component: b.name, Op: opReady, Err: ErrComponentClosed}
		}
		if err := readyStatus(b.opts.api.Ready(b.id)); err != nil {
			recordLifecycleError()
			return nil, &ComponentError{Component: b.name, Op: opReady, Err: err}
		}
		return b.component, nil
	}

	if err := readyStatus(b.opts.api.Ready(b.id)); err != nil {
		recordLifecycleError()
		return nil, &ComponentError{Component: b.name, Op: opReady, Err: err}
	}

	watcher := NewShutdownWatcher()
	if !b.opts.noWatch {
		if err := watcher.Arm(b.opts.signals...); err != nil {
			recordLifecycleError()
			return nil, &ComponentError{Component: b.name, Op: opReady, Err: err}
		}
	}

	handles := b.registry.consume()
	c := &Component[R]{
		name:      b.name,
		id:        b.id,
		api:       b.opts.api,
		log:       b.opts.log,
		watcher:   watcher,
		handles:   handles,
		resources: resources,
		state:     StateReady,
	}
	runtime.SetFinalizer(c, (*Component[R]).finalize)

	b.state = StateReady
	b.component = c
	runtime.SetFinalizer(b, nil)

	recordComponentReady()
	c.log.Debug("component ready",
		zap.String("component", c.name),
		zap.Int32("id", c.id),
		zap.Int("resources", len(handles)))
	return c, nil
}

// Close abandons a builder that never became ready: every registered handle
// is released and the component id is returned with hal_exit. Closing a
// builder whose component is ready is a no-op; close the Component instead.
func (b *Builder[R]) Close() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateRegistering {
		return nil
	}
	b.state = StateExited
	runtime.SetFinalizer(b, nil)

	for _, h := range b.registry.consume() {
		h.release()
	}
	err := exitStatus(b.opts.api.Exit(b.id))
	recordComponentExit()
	if err != nil {
		recordLifecycleError()
		b.opts.log.Warn("hal_exit failed", zap.String("component", b.name), zap.Int32("id", b.id), zap.Error(err))
		return &ComponentError{Component: b.name, Op: opExit, Err: err}
	}
	b.opts.log.Debug("component abandoned", zap.String("component", b.name), zap.Int32("id", b.id))
	return nil
}

func (b *Builder[R]) finalize() {
	if b.mu.TryLock() {
		registering := b.state == StateRegistering
		b.mu.Unlock()
		if registering {
			b.Close()
		}
	}
}

// New creates a component, runs register against its registry and makes it
// ready. If register fails the component id is released and the error is
// returned as a *ComponentError matching both ErrResourceRegistration and the
// underlying fault. No partially built component escapes.
func New[R any](name string, register func(*Registry) (R, error), opts ...Option) (*Component[R], error) {
	b, err := NewBuilder[R](name, opts...)
	if err != nil {
		return nil, err
	}

	done := false
	defer func() {
		if !done {
			b.Close()
		}
	}()

	resources, err := register(b.Registry())
	if err != nil {
		recordLifecycleError()
		return nil, &ComponentError{Component: name, Op: opRegister, Err: err}
	}

	c, err := b.Ready(resources)
	if err != nil {
		return nil, err
	}
	done = true
	return c, nil
}

// Component is a ready HAL component. It owns its resource bundle and its
// shutdown watcher; Close tears all three down in order.
type Component[R any] struct {
	name    string
	id      int32
	api     API
	log     *zap.Logger
	watcher *ShutdownWatcher

	closeMu   sync.Mutex // guards everything below against Close and the finalizer
	state     State
	handles   []releaser
	resources R
}

// Name returns the component name.
func (c *Component[R]) Name() string { return c.name }

// ID returns the HAL component id. It stays readable after Close.
func (c *Component[R]) ID() int32 { return c.id }

// State returns StateReady, or StateExited once Close has run.
func (c *Component[R]) State() State {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.state
}

// Resources returns the resource bundle. After Close it returns the zero R.
func (c *Component[R]) Resources() R {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.resources
}

// ShouldExit reports whether a termination signal arrived since the last
// call. It never blocks and always reports true once the component is closed.
func (c *Component[R]) ShouldExit() bool {
	c.closeMu.Lock()
	exited := c.state == StateExited
	c.closeMu.Unlock()
	if exited {
		return true
	}
	return c.watcher.ShouldExit()
}

// Close tears the component down: resource handles are released and the
// bundle dropped, the shutdown watcher is closed, and hal_exit runs. hal_exit
// is attempted even when an earlier step fails. Close is idempotent.
func (c *Component[R]) Close() error {
	if c == nil {
		return nil
	}
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.state == StateExited {
		return nil
	}
	err := c.teardown()
	runtime.SetFinalizer(c, nil)
	return err
}

func (c *Component[R]) teardown() error {
	c.state = StateExited

	for _, h := range c.handles {
		h.release()
	}
	c.handles = nil
	var zero R
	c.resources = zero

	var errs []error
	if err := c.watcher.Close(); err != nil {
		errs = append(errs, &ComponentError{Component: c.name, Op: "signals", Err: err})
	}
	if err := exitStatus(c.api.Exit(c.id)); err != nil {
		errs = append(errs, &ComponentError{Component: c.name, Op: opExit, Err: err})
	}

	recordComponentExit()
	if err := errors.Join(errs...); err != nil {
		recordLifecycleError()
		c.log.Warn("component teardown incomplete",
			zap.String("component", c.name), zap.Int32("id", c.id), zap.Error(err))
		return err
	}
	c.log.Debug("component exited", zap.String("component", c.name), zap.Int32("id", c.id))
	return nil
}

func (c *Component[R]) finalize() {
	// Never block in a finalizer.
	if c.closeMu.TryLock() {
		defer c.closeMu.Unlock()
		if c.state != StateExited {
			c.teardown()
		}
	}
}
