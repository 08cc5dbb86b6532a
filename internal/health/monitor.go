package health

import (
	"context"
	"time"

	"dockhand/internal/runtime"
	"dockhand/internal/service"
	"dockhand/pkg/logging"
)

const healthSubsystem = "Health"

// Defaults used when an instance has no probe spec.
const (
	DefaultInterval = 2 * time.Second
	DefaultMaxWait  = 60 * time.Second
)

// Monitor composes a liveness check against the runtime with an optional
// readiness probe executed inside the container. It is the only component
// that produces health values.
type Monitor struct {
	runtime runtime.Runtime
}

// NewMonitor creates a health monitor over the given runtime.
func NewMonitor(rt runtime.Runtime) *Monitor {
	return &Monitor{runtime: rt}
}

// Check determines the current status and health of the runtime object with
// the given deterministic name.
//
// Liveness comes first: a missing object is (unknown, unknown), a stopped one
// is (stopped, unknown) and no probe is attempted. For a running object with
// no probe, running alone counts as healthy; this is a weak guarantee, the
// backing process may still be warming up.
func (m *Monitor) Check(ctx context.Context, identity string, probe *service.Probe) (service.Status, service.Health, error) {
	obj, found, err := m.findObject(ctx, identity)
	if err != nil {
		return service.StatusUnknown, service.HealthUnknown, err
	}
	if !found {
		return service.StatusUnknown, service.HealthUnknown, nil
	}

	switch runtime.ParseStatus(obj.StatusText) {
	case runtime.StateRunning:
		// fall through to the probe
	case runtime.StateExited, runtime.StateCreated:
		return service.StatusStopped, service.HealthUnknown, nil
	default:
		return service.StatusUnknown, service.HealthUnknown, nil
	}

	if probe == nil || len(probe.Command) == 0 {
		return service.StatusRunning, service.HealthHealthy, nil
	}

	probeCtx := ctx
	if probe.Timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, probe.Timeout)
		defer cancel()
	}

	if _, err := m.runtime.Exec(probeCtx, identity, probe.Command); err != nil {
		if ctx.Err() != nil {
			return service.StatusRunning, service.HealthUnknown, ctx.Err()
		}
		logging.Debug(healthSubsystem, "Probe failed for %s: %v", identity, err)
		return service.StatusRunning, service.HealthUnhealthy, nil
	}

	return service.StatusRunning, service.HealthHealthy, nil
}

// Wait polls Check at a fixed interval until the instance is healthy, the
// bounded wait elapses, or ctx is cancelled. The first success short-circuits.
// Exhausting the budget is not an error: the last observed status and health
// are returned so the caller can record them. Only context cancellation
// produces a non-nil error.
func (m *Monitor) Wait(ctx context.Context, identity string, probe *service.Probe, interval, maxWait time.Duration) (service.Status, service.Health, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	deadline := time.Now().Add(maxWait)
	status, health := service.StatusUnknown, service.HealthUnknown

	for {
		if err := ctx.Err(); err != nil {
			return status, health, err
		}

		var err error
		status, health, err = m.Check(ctx, identity, probe)
		if err != nil && ctx.Err() != nil {
			return status, health, ctx.Err()
		}
		if health == service.HealthHealthy {
			return status, health, nil
		}

		if time.Now().After(deadline) {
			logging.Debug(healthSubsystem, "Health wait exhausted for %s (status=%s health=%s)", identity, status, health)
			return status, health, nil
		}

		// Suspend without holding any lock so registry operations proceed.
		select {
		case <-ctx.Done():
			return status, health, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// IntervalFor returns the polling interval and bounded wait derived from a
// probe spec, falling back to the monitor defaults.
func IntervalFor(probe *service.Probe) (interval, maxWait time.Duration) {
	interval, maxWait = DefaultInterval, DefaultMaxWait
	if probe == nil {
		return interval, maxWait
	}
	if probe.Interval > 0 {
		interval = probe.Interval
	}
	if probe.Retries > 0 {
		maxWait = time.Duration(probe.Retries) * interval
	}
	return interval, maxWait
}

func (m *Monitor) findObject(ctx context.Context, identity string) (runtime.Object, bool, error) {
	objects, err := m.runtime.List(ctx, identity)
	if err != nil {
		return runtime.Object{}, false, err
	}
	// The runtime filter is a substring match; require the exact name.
	for _, obj := range objects {
		if obj.Name == identity {
			return obj, true, nil
		}
	}
	return runtime.Object{}, false, nil
}
