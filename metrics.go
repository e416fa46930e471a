package hal

import (
	"sync/atomic"
	"time"
)

// Counters for HAL operations performed by this process
var (
	// Lifecycle counters
	componentsCreated uint64
	componentsReady   uint64
	componentsExited  uint64
	pinsRegistered    uint64
	paramsRegistered  uint64
	loopIterations    uint64

	// Arena usage
	allocations    uint64
	bytesAllocated uint64

	// Timing metrics (nanoseconds)
	totalInitTime uint64
	totalLoopTime uint64

	// Error counters
	storageFaults      uint64
	registrationErrors uint64
	lifecycleErrors    uint64
)

// Metrics is a snapshot of the package counters.
type Metrics struct {
	ComponentsCreated  uint64 `json:"components_created"`
	ComponentsReady    uint64 `json:"components_ready"`
	ComponentsExited   uint64 `json:"components_exited"`
	PinsRegistered     uint64 `json:"pins_registered"`
	ParamsRegistered   uint64 `json:"params_registered"`
	Allocations        uint64 `json:"allocations"`
	BytesAllocated     uint64 `json:"bytes_allocated"`
	LoopIterations     uint64 `json:"loop_iterations"`
	AvgInitTimeNs      uint64 `json:"avg_init_time_ns"`
	AvgLoopTimeNs      uint64 `json:"avg_loop_time_ns"`
	StorageFaults      uint64 `json:"storage_faults"`
	RegistrationErrors uint64 `json:"registration_errors"`
	LifecycleErrors    uint64 `json:"lifecycle_errors"`
}

// GetMetrics returns current metrics
func GetMetrics() Metrics {
	created := atomic.LoadUint64(&componentsCreated)
	iterations := atomic.LoadUint64(&loopIterations)

	var avgInit, avgLoop uint64
	if created > 0 {
		avgInit = atomic.LoadUint64(&totalInitTime) / created
	}
	if iterations > 0 {
		avgLoop = atomic.LoadUint64(&totalLoopTime) / iterations
	}

	return Metrics{
		ComponentsCreated:  created,
		ComponentsReady:    atomic.LoadUint64(&componentsReady),
		ComponentsExited:   atomic.LoadUint64(&componentsExited),
		PinsRegistered:     atomic.LoadUint64(&pinsRegistered),
		ParamsRegistered:   atomic.LoadUint64(&paramsRegistered),
		Allocations:        atomic.LoadUint64(&allocations),
		BytesAllocated:     atomic.LoadUint64(&bytesAllocated),
		LoopIterations:     iterations,
		AvgInitTimeNs:      avgInit,
		AvgLoopTimeNs:      avgLoop,
		StorageFaults:      atomic.LoadUint64(&storageFaults),
		RegistrationErrors: atomic.LoadUint64(&registrationErrors),
		LifecycleErrors:    atomic.LoadUint64(&lifecycleErrors),
	}
}

// ResetMetrics clears all counters
func ResetMetrics() {
	atomic.StoreUint64(&componentsCreated, 0)
	atomic.StoreUint64(&componentsReady, 0)
	atomic.StoreUint64(&componentsExited, 0)
	atomic.StoreUint64(&pinsRegistered, 0)
	atomic.StoreUint64(&paramsRegistered, 0)
	atomic.StoreUint64(&allocations, 0)
	atomic.StoreUint64(&bytesAllocated, 0)
	atomic.StoreUint64(&loopIterations, 0)
	atomic.StoreUint64(&totalInitTime, 0)
	atomic.StoreUint64(&totalLoopTime, 0)
	atomic.StoreUint64(&storageFaults, 0)
	atomic.StoreUint64(&registrationErrors, 0)
	atomic.StoreUint64(&lifecycleErrors, 0)
}

func recordComponentCreate(duration time.Duration) {
	atomic.AddUint64(&componentsCreated, 1)
	atomic.AddUint64(&totalInitTime, uint64(duration.Nanoseconds()))
}

func recordComponentReady() {
	atomic.AddUint64(&componentsReady, 1)
}

func recordComponentExit() {
	atomic.AddUint64(&componentsExited, 1)
}

func recordPin() {
	atomic.AddUint64(&pinsRegistered, 1)
}

func recordParam() {
	atomic.AddUint64(&paramsRegistered, 1)
}

func recordAllocation(size uintptr) {
	atomic.AddUint64(&allocations, 1)
	atomic.AddUint64(&bytesAllocated, uint64(size))
}

func recordLoop(duration time.Duration) {
	atomic.AddUint64(&loopIterations, 1)
	atomic.AddUint64(&totalLoopTime, uint64(duration.Nanoseconds()))
}

func recordStorageFault() {
	atomic.AddUint64(&storageFaults, 1)
}

func recordRegistrationError() {
	atomic.AddUint64(&registrationErrors, 1)
}

func recordLifecycleError() {
	atomic.AddUint64(&lifecycleErrors, 1)
}
