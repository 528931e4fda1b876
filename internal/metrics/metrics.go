// Package metrics records launch lifecycle measurements.
package metrics

import (
	"time"
)

// Probe attempt results.
const (
	ResultAlive     = "alive"
	ResultNotReady  = "not_ready"
	ResultCancelled = "cancelled"
)

// Collector receives lifecycle measurements.
type Collector interface {
	// ProbeAttempt counts one readiness attempt by result.
	ProbeAttempt(result string)
	// EndpointResolved records how long resolution took and whether it succeeded.
	EndpointResolved(mode string, d time.Duration, ok bool)
	// BackendReady records the time from launch to readiness.
	BackendReady(d time.Duration)
	// LifecycleOutcome counts the terminal state of a launch.
	LifecycleOutcome(outcome string)
}

type noop struct{}

func NewNoop() Collector {
	return noop{}
}

func (noop) ProbeAttempt(string)                          {}
func (noop) EndpointResolved(string, time.Duration, bool) {}
func (noop) BackendReady(time.Duration)                   {}
func (noop) LifecycleOutcome(string)                      {}
