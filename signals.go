package hal

import (
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

// TerminationSignals are the signals a component arms once it is ready.
// LinuxCNC sends SIGTERM when unloading a userspace component; SIGINT covers
// interactive runs.
var TerminationSignals = []os.Signal{unix.SIGTERM, unix.SIGINT}

// ShutdownWatcher observes termination requests without blocking. It is
// owned by a single component, armed when the component becomes ready and
// closed during teardown.
type ShutdownWatcher struct {
	mu     sync.Mutex
	ch     chan os.Signal
	sigs   []os.Signal
	armed  bool
	closed bool
}

// NewShutdownWatcher returns an unarmed watcher.
func NewShutdownWatcher() *ShutdownWatcher {
	return &ShutdownWatcher{}
}

// Arm starts delivering sigs, or TerminationSignals when none are given.
// Arming twice, or after Close, fails with ErrSignals.
func (w *ShutdownWatcher) Arm(sigs ...os.Signal) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.armed || w.closed {
		return ErrSignals
	}
	if len(sigs) == 0 {
		sigs = TerminationSignals
	}

	// Buffer so bursts of signals are not dropped between polls.
	w.ch = make(chan os.Signal, 8)
	w.sigs = append([]os.Signal(nil), sigs...)
	signal.Notify(w.ch, w.sigs...)
	w.armed = true
	return nil
}

// Armed reports whether the watcher is currently receiving signals.
func (w *ShutdownWatcher) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed && !w.closed
}

// ShouldExit drains pending signals and reports whether one of the armed
// signals arrived since the previous call. It never blocks.
func (w *ShutdownWatcher) ShouldExit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.armed || w.closed {
		return false
	}

	seen := false
	for {
		select {
		case sig := <-w.ch:
			if w.watches(sig) {
				seen = true
			}
		default:
			return seen
		}
	}
}

// Close stops signal delivery. It is idempotent.
func (w *ShutdownWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	if w.armed {
		signal.Stop(w.ch)
	}
	w.closed = true
	return nil
}

// watches reports whether sig is in the armed set. Callers hold w.mu.
func (w *ShutdownWatcher) watches(sig os.Signal) bool {
	for _, s := range w.sigs {
		if s == sig {
			return true
		}
	}
	return false
}
