// Package lifecycle tracks the process phase reported by /health.
package lifecycle

import "sync/atomic"

// Phase is the process lifecycle phase.
type Phase int32

const (
	// PhaseStarting lasts until the engine has applied its boot state.
	PhaseStarting Phase = iota
	PhaseRunning
	// PhaseShuttingDown is set on SIGTERM/SIGINT and never cleared.
	PhaseShuttingDown
)

func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseShuttingDown:
		return "shutting-down"
	default:
		return "unknown"
	}
}

var phase atomic.Int32

// SetPhase records the current phase.
func SetPhase(p Phase) {
	phase.Store(int32(p))
}

// Current returns the current phase.
func Current() Phase {
	return Phase(phase.Load())
}

// IsShuttingDown reports whether the process is draining.
func IsShuttingDown() bool {
	return Current() == PhaseShuttingDown
}
