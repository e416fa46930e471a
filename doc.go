// Package hal provides Go bindings for writing LinuxCNC HAL userspace
// components.
//
// A component registers typed pins and parameters whose storage lives in the
// HAL shared memory arena, marks itself ready, and then polls its resources
// until LinuxCNC asks it to exit.
//
// # Requirements
//
//   - Linux with LinuxCNC installed (liblinuxcnchal and its headers)
//   - cgo enabled and the build tag "linuxcnc"
//
// Without the tag the package still builds; NativeAPI and Supported report
// ErrNotSupported, and components can run against the halsim simulator.
//
// # Basic Usage
//
// Describe the component's resources as a struct and register them:
//
//	type Pins struct {
//		Input  *hal.InputPin[float64]
//		Output *hal.OutputPin[float64]
//	}
//
//	comp, err := hal.New("pins", func(r *hal.Registry) (Pins, error) {
//		in, err := hal.RegisterInputPin[float64](r, "input-1")
//		if err != nil {
//			return Pins{}, err
//		}
//		out, err := hal.RegisterOutputPin[float64](r, "output-1")
//		if err != nil {
//			return Pins{}, err
//		}
//		return Pins{Input: in, Output: out}, nil
//	})
//	if err != nil {
//		log.Fatal("Failed to create component:", err)
//	}
//	defer comp.Close()
//
// Poll until LinuxCNC sends SIGTERM (or the user hits ^C):
//
//	pins := comp.Resources()
//	for !comp.ShouldExit() {
//		v, err := pins.Input.Value()
//		if err != nil {
//			log.Fatal(err)
//		}
//		if err := pins.Output.Set(v * 2); err != nil {
//			log.Fatal(err)
//		}
//		time.Sleep(10 * time.Millisecond)
//	}
//
// Run wraps the same loop with a period and a context.
//
// # Lifecycle
//
// Resources can only be registered before the component is ready. NewBuilder
// exposes the two phases separately; New runs both. Close releases every
// resource handle, stops signal delivery and then calls hal_exit, in that
// order. Pin and parameter accessors return ErrNullStorage once their
// component is closed.
//
// # Error Handling
//
// All errors wrap *HALError sentinels and match with errors.Is:
//
//	_, err := hal.RegisterInputPin[bool](r, "enable")
//	if errors.Is(err, hal.ErrLockedHAL) {
//		// component is already ready
//	}
//
// A status code the HAL does not document panics with *ContractViolation;
// it indicates the package was built against a different liblinuxcnchal.
//
// Set HAL_ENV=production or HAL_DEBUG=false to drop the troubleshooting hints
// from error messages.
//
// # Logging
//
// Lifecycle events go to a zap logger, a no-op until SetLogger is called. The
// rtapi subpackage provides a zapcore.Core that writes to the LinuxCNC
// message log.
//
// # Thread Safety
//
// Pin and parameter values are read and written with atomic word access, since
// the realtime side of LinuxCNC may touch them at any moment. Component
// lifecycle methods are safe for concurrent use.
package hal
