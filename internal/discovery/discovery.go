package discovery

import (
	"context"
	"sync"
	"time"

	"dockhand/internal/health"
	"dockhand/internal/persist"
	"dockhand/internal/runtime"
	"dockhand/internal/service"
	"dockhand/pkg/logging"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const discoverySubsystem = "Discovery"

// Reconciler merges persisted service records and the live runtime inventory
// into the registry, exactly once per process lifetime until Reset is called.
//
// The once-guard is a mutex-protected flag combined with a singleflight group:
// a plain boolean alone is racy, since two callers can observe it false before
// either sets it. With singleflight, concurrent callers share one in-flight
// reconciliation instead of re-running it.
type Reconciler struct {
	registry *service.Registry
	runtime  runtime.Runtime
	store    persist.Store // nil when the node runs without a record store
	monitor  *health.Monitor
	nodeID   string

	mu    sync.Mutex
	done  bool
	group singleflight.Group
}

// New creates a reconciler. store may be nil.
func New(registry *service.Registry, rt runtime.Runtime, store persist.Store, monitor *health.Monitor, nodeID string) *Reconciler {
	return &Reconciler{
		registry: registry,
		runtime:  rt,
		store:    store,
		monitor:  monitor,
		nodeID:   nodeID,
	}
}

// Ensure runs discovery if it has not completed yet. Concurrent callers block
// on the same in-flight pass and observe its result. A failed pass leaves the
// guard unset so a later call can retry.
func (r *Reconciler) Ensure(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done {
		return nil
	}

	_, err, _ := r.group.Do("discovery", func() (interface{}, error) {
		r.mu.Lock()
		done := r.done
		r.mu.Unlock()
		if done {
			return nil, nil
		}

		if err := r.reconcile(ctx); err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.done = true
		r.mu.Unlock()
		return nil, nil
	})
	return err
}

// Reset clears the registry and the once-guard, forcing the next Ensure call
// to reconcile again.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	r.done = false
	r.mu.Unlock()
	r.registry.Clear()
	logging.Info(discoverySubsystem, "Discovery reset; registry cleared")
}

// reconcile produces a registry state consistent with both history and
// present runtime reality. Tie-break rule: persisted metadata wins on
// conflict; the runtime is authoritative only for liveness and port bindings.
func (r *Reconciler) reconcile(ctx context.Context) error {
	r.loadPersisted(ctx)

	objects, err := r.runtime.List(ctx, "")
	if err != nil {
		// Without the live inventory the merge would be one-sided; abort so
		// the guard stays unset and a later call retries.
		return err
	}

	adopted, refreshed := 0, 0
	for _, obj := range objects {
		kind, name, ok := service.ParseIdentity(obj.Name)
		if !ok {
			continue // not one of ours
		}

		state := runtime.ParseStatus(obj.StatusText)
		bindings := runtime.ParsePorts(obj.PortsText)

		if existing, found := r.registry.GetByName(kind, name); found {
			r.refresh(existing, state, bindings)
			refreshed++
			continue
		}

		r.adopt(kind, name, state, bindings)
		adopted++
	}

	r.checkAll(ctx)

	logging.Info(discoverySubsystem, "Discovery complete: %d instances (%d refreshed from runtime, %d adopted)",
		r.registry.Len(), refreshed, adopted)
	return nil
}

// loadPersisted seeds the registry from the record store. Persisted metadata
// is authoritative for fields the runtime cannot observe (owner, resource
// shape, env, probe spec). Store failures degrade to runtime-only discovery.
func (r *Reconciler) loadPersisted(ctx context.Context) {
	if r.store == nil {
		return
	}

	records, err := r.store.LoadAll(ctx)
	if err != nil {
		logging.Warn(discoverySubsystem, "Failed to load persisted records, continuing with runtime inventory only: %v", err)
		return
	}

	for _, rec := range records {
		inst, err := rec.ToInstance()
		if err != nil {
			logging.Warn(discoverySubsystem, "Skipping unreadable record %s: %v", rec.ServiceID, err)
			continue
		}
		r.registry.Upsert(inst)
	}

	logging.Debug(discoverySubsystem, "Loaded %d persisted records", len(records))
}

// refresh updates only the volatile fields of a known instance from the live
// observation; the richer persisted metadata is never overwritten.
func (r *Reconciler) refresh(inst *service.Instance, state runtime.State, bindings []runtime.PortBinding) {
	inst.Status = statusFrom(state)
	if state == runtime.StateRunning && len(bindings) > 0 {
		inst.Ports = toPortMappings(bindings)
		if p := inst.PrimaryPort(); p != nil {
			inst.Endpoint = service.EndpointFor(p.HostPort)
		}
	}
	r.registry.Upsert(*inst)
}

// adopt synthesizes a minimal instance for a runtime object that matches the
// naming convention but has no record: a resource created by a previous
// process incarnation that was never persisted. The owner is unknown and the
// resource shape is the kind's best guess.
func (r *Reconciler) adopt(kind service.Kind, name string, state runtime.State, bindings []runtime.PortBinding) {
	inst := service.Instance{
		ID:        uuid.NewString(),
		Kind:      kind,
		Name:      name,
		Identity:  service.Identity(kind, name),
		NodeID:    r.nodeID,
		Ports:     toPortMappings(bindings),
		CreatedAt: time.Now(),
		Status:    statusFrom(state),
		Health:    service.HealthUnknown,
		Config:    service.ApplyDefaults(service.Definition{Kind: kind, Name: name}),
	}
	if p := inst.PrimaryPort(); p != nil {
		inst.Endpoint = service.EndpointFor(p.HostPort)
	}

	r.registry.Upsert(inst)
	logging.Info(discoverySubsystem, "Adopted unmanaged runtime object %s", inst.Identity)
}

// checkAll populates health for every instance now in the registry.
func (r *Reconciler) checkAll(ctx context.Context) {
	for _, inst := range r.registry.List("") {
		status, healthVal, err := r.monitor.Check(ctx, inst.Identity, inst.Config.Probe)
		if err != nil {
			logging.Warn(discoverySubsystem, "Health check failed for %s: %v", inst.Identity, err)
			continue
		}
		now := time.Now()
		inst.Status = status
		inst.Health = healthVal
		inst.LastHealthCheck = &now
		r.registry.Upsert(inst)
	}
}

func statusFrom(state runtime.State) service.Status {
	switch state {
	case runtime.StateRunning:
		return service.StatusRunning
	case runtime.StateExited, runtime.StateCreated:
		return service.StatusStopped
	default:
		return service.StatusUnknown
	}
}

func toPortMappings(bindings []runtime.PortBinding) []service.PortMapping {
	if len(bindings) == 0 {
		return nil
	}
	out := make([]service.PortMapping, len(bindings))
	for i, b := range bindings {
		out[i] = service.PortMapping{ContainerPort: b.ContainerPort, HostPort: b.HostPort}
	}
	return out
}
