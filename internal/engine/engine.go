package engine

import (
	"context"
	"sync"
	"time"

	"dockhand/internal/discovery"
	"dockhand/internal/health"
	"dockhand/internal/persist"
	"dockhand/internal/runtime"
	"dockhand/internal/service"
	"dockhand/pkg/logging"

	"github.com/google/uuid"
)

const engineSubsystem = "Engine"

// Engine is the provisioning orchestrator: it turns desired-state definitions
// into running, healthy service instances, reusing or repairing existing
// resources when possible. All public operations are safe for concurrent use;
// provisioning calls for the same (kind, name) are serialized on a per-identity
// lock, while independent identities provision fully in parallel.
type Engine struct {
	registry  *service.Registry
	runtime   runtime.Runtime
	store     persist.Store // nil when the node runs without a record store
	monitor   *health.Monitor
	discovery *discovery.Reconciler
	nodeID    string

	mu   sync.Mutex
	keys map[string]*sync.Mutex // resource identity -> provisioning lock
}

// Config holds the collaborators for an Engine.
type Config struct {
	Runtime runtime.Runtime
	Store   persist.Store // optional
	NodeID  string
}

// New creates an engine and its registry, health monitor, and reconciler.
func New(cfg Config) *Engine {
	registry := service.NewRegistry()
	monitor := health.NewMonitor(cfg.Runtime)

	return &Engine{
		registry:  registry,
		runtime:   cfg.Runtime,
		store:     cfg.Store,
		monitor:   monitor,
		discovery: discovery.New(registry, cfg.Runtime, cfg.Store, monitor, cfg.NodeID),
		nodeID:    cfg.NodeID,
		keys:      make(map[string]*sync.Mutex),
	}
}

// Provision drives a definition to a running, healthy instance.
//
// The call is idempotent: if a healthy instance for (kind, name) already
// exists it is returned unchanged and no runtime object is created. A stopped
// or unhealthy instance is repaired by restarting its runtime object, or
// recreated if the object vanished out-of-band.
//
// A health-gate timeout is not an error: the instance comes back with status
// failed so the caller can decide to retry, inspect logs, or remove it. Only
// validation failures and runtime invocation failures produce errors.
func (e *Engine) Provision(ctx context.Context, def service.Definition, owner string) (*service.Instance, error) {
	if err := service.Validate(def); err != nil {
		return nil, err
	}

	if err := e.discovery.Ensure(ctx); err != nil {
		return nil, err
	}

	effective := service.ApplyDefaults(def)
	identity := effective.Identity()

	// Serialize same-identity provisioning: without this, two concurrent
	// callers can both pass the lookup below and create duplicate resources.
	unlock := e.lockIdentity(identity)
	defer unlock()

	if existing, found := e.registry.GetByName(def.Kind, def.Name); found {
		status, healthVal, err := e.monitor.Check(ctx, identity, existing.Config.Probe)
		if err != nil {
			return nil, err
		}

		if status == service.StatusRunning && healthVal == service.HealthHealthy {
			now := time.Now()
			existing.Status = status
			existing.Health = healthVal
			existing.LastHealthCheck = &now
			e.registry.Upsert(*existing)
			logging.Debug(engineSubsystem, "Reusing healthy instance %s", identity)
			return existing, nil
		}

		obj, objFound, err := e.findObject(ctx, identity)
		if err != nil {
			return nil, err
		}

		if objFound {
			logging.Info(engineSubsystem, "Repairing instance %s (status=%s health=%s)", identity, status, healthVal)
			if runtime.ParseStatus(obj.StatusText) != runtime.StateRunning {
				if err := e.runtime.Start(ctx, identity); err != nil {
					return nil, err
				}
			}
			keepOwner := existing.Owner
			if keepOwner == "" {
				keepOwner = owner
			}
			return e.finalize(ctx, existing.ID, existing.CreatedAt, keepOwner, effective)
		}

		// The backing object vanished out-of-band; the registry entry and
		// its record are stale. Drop both and create from scratch.
		logging.Info(engineSubsystem, "Instance %s lost its runtime object, recreating", identity)
		e.registry.Delete(existing.ID)
		e.deleteRecordBestEffort(ctx, existing.ID)
	}

	// Creation. Check the runtime directly first: the registry and runtime
	// can diverge in ways the lookup above does not catch.
	obj, objFound, err := e.findObject(ctx, identity)
	if err != nil {
		return nil, err
	}

	if objFound {
		if runtime.ParseStatus(obj.StatusText) != runtime.StateRunning {
			if err := e.runtime.Start(ctx, identity); err != nil {
				return nil, err
			}
		}
	} else {
		if err := e.runtime.Create(ctx, createConfig(identity, effective, owner, e.nodeID)); err != nil {
			return nil, err
		}
		if err := e.runtime.Start(ctx, identity); err != nil {
			return nil, err
		}
	}

	return e.finalize(ctx, uuid.NewString(), time.Now(), owner, effective)
}

// GetServiceByName returns the instance registered under (kind, name), or nil
// if none exists. The first call triggers discovery.
func (e *Engine) GetServiceByName(ctx context.Context, kind service.Kind, name string) (*service.Instance, error) {
	if err := e.discovery.Ensure(ctx); err != nil {
		return nil, err
	}

	inst, found := e.registry.GetByName(kind, name)
	if !found {
		return nil, nil
	}
	return inst, nil
}

// List returns all known instances, optionally filtered by owner. The first
// call triggers discovery.
func (e *Engine) List(ctx context.Context, owner string) ([]service.Instance, error) {
	if err := e.discovery.Ensure(ctx); err != nil {
		return nil, err
	}
	return e.registry.List(owner), nil
}

// Stop stops the instance's runtime object. Stopping an already-stopped
// instance is a no-op success; an unknown id returns false.
func (e *Engine) Stop(ctx context.Context, id string) (bool, error) {
	if err := e.discovery.Ensure(ctx); err != nil {
		return false, err
	}

	inst, found := e.registry.Get(id)
	if !found {
		return false, nil
	}

	if inst.Status == service.StatusStopped {
		return true, nil
	}

	if err := e.runtime.Stop(ctx, inst.Identity); err != nil {
		return false, err
	}

	inst.Status = service.StatusStopped
	inst.Health = service.HealthUnknown
	e.registry.Upsert(*inst)
	logging.Info(engineSubsystem, "Stopped %s", inst.Identity)
	return true, nil
}

// Remove erases the instance: stop-then-remove on the runtime regardless of
// recorded status, then unconditionally delete the registry entry and the
// persisted record. Absence of the runtime object is not a failure; remove is
// idempotent and terminal.
func (e *Engine) Remove(ctx context.Context, id string) (bool, error) {
	if err := e.discovery.Ensure(ctx); err != nil {
		return false, err
	}

	inst, found := e.registry.Get(id)
	if !found {
		return false, nil
	}

	// The object may already be gone; stop failures are expected here.
	if err := e.runtime.Stop(ctx, inst.Identity); err != nil {
		logging.Debug(engineSubsystem, "Stop before remove failed for %s: %v", inst.Identity, err)
	}

	removeErr := e.runtime.Remove(ctx, inst.Identity)

	// Registry and record go regardless of what the runtime said, so a
	// half-deleted resource cannot wedge the engine.
	e.registry.Delete(id)
	e.deleteRecordBestEffort(ctx, id)

	if removeErr != nil {
		return false, removeErr
	}

	logging.Info(engineSubsystem, "Removed %s", inst.Identity)
	return true, nil
}

// CheckHealth refreshes the instance's status and health from the runtime and
// returns the updated instance, or nil for an unknown id.
func (e *Engine) CheckHealth(ctx context.Context, id string) (*service.Instance, error) {
	if err := e.discovery.Ensure(ctx); err != nil {
		return nil, err
	}

	inst, found := e.registry.Get(id)
	if !found {
		return nil, nil
	}

	status, healthVal, err := e.monitor.Check(ctx, inst.Identity, inst.Config.Probe)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inst.Status = status
	inst.Health = healthVal
	inst.LastHealthCheck = &now
	e.registry.Upsert(*inst)
	return inst, nil
}

// ResetDiscovery clears the registry and the discovery guard, forcing the
// next operation to re-reconcile. Administrative use only.
func (e *Engine) ResetDiscovery() {
	e.discovery.Reset()
}

// Registry exposes the underlying registry for read-side integrations.
func (e *Engine) Registry() *service.Registry {
	return e.registry
}

// finalize blocks on the health gate, builds the resulting instance, records
// it in the registry and best-effort in the store. The gate is hard: an
// instance that never turned healthy is reported as failed, never as running.
func (e *Engine) finalize(ctx context.Context, id string, createdAt time.Time, owner string, effective service.Definition) (*service.Instance, error) {
	identity := effective.Identity()

	interval, maxWait := health.IntervalFor(effective.Probe)
	_, healthVal, err := e.monitor.Wait(ctx, identity, effective.Probe, interval, maxWait)
	if err != nil {
		return nil, err
	}

	ports := effective.Ports
	if obj, found, err := e.findObject(ctx, identity); err == nil && found {
		if live := runtime.ParsePorts(obj.PortsText); len(live) > 0 {
			ports = make([]service.PortMapping, len(live))
			for i, b := range live {
				ports[i] = service.PortMapping{ContainerPort: b.ContainerPort, HostPort: b.HostPort}
			}
		}
	}

	now := time.Now()
	inst := service.Instance{
		ID:              id,
		Kind:            effective.Kind,
		Name:            effective.Name,
		Identity:        identity,
		Owner:           owner,
		NodeID:          e.nodeID,
		Ports:           ports,
		CreatedAt:       createdAt,
		LastHealthCheck: &now,
		Config:          effective,
	}
	if p := inst.PrimaryPort(); p != nil {
		inst.Endpoint = service.EndpointFor(p.HostPort)
	}

	if healthVal == service.HealthHealthy {
		inst.Status = service.StatusRunning
		inst.Health = service.HealthHealthy
		inst.StartedAt = &now
		logging.Info(engineSubsystem, "Provisioned %s (id=%s)", identity, id)
	} else {
		inst.Status = service.StatusFailed
		inst.Health = service.HealthUnhealthy
		logging.Warn(engineSubsystem, "Health gate expired for %s; reporting failed", identity)
	}

	e.registry.Upsert(inst)
	e.persistBestEffort(ctx, inst)
	return &inst, nil
}

func (e *Engine) findObject(ctx context.Context, identity string) (runtime.Object, bool, error) {
	objects, err := e.runtime.List(ctx, identity)
	if err != nil {
		return runtime.Object{}, false, err
	}
	for _, obj := range objects {
		if obj.Name == identity {
			return obj, true, nil
		}
	}
	return runtime.Object{}, false, nil
}

// lockIdentity acquires the per-identity provisioning lock, creating it on
// first use, and returns the unlock func.
func (e *Engine) lockIdentity(identity string) func() {
	e.mu.Lock()
	m, ok := e.keys[identity]
	if !ok {
		m = &sync.Mutex{}
		e.keys[identity] = m
	}
	e.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// persistBestEffort writes the record and swallows failures: persistence is
// recovery metadata, the runtime stays the source of truth for existence.
func (e *Engine) persistBestEffort(ctx context.Context, inst service.Instance) {
	if e.store == nil {
		return
	}
	rec, err := persist.FromInstance(inst)
	if err != nil {
		logging.Error(engineSubsystem, err, "Failed to encode record for %s", inst.ID)
		return
	}
	if err := e.store.Upsert(ctx, rec); err != nil {
		logging.Error(engineSubsystem, err, "Failed to persist record for %s", inst.ID)
	}
}

func (e *Engine) deleteRecordBestEffort(ctx context.Context, id string) {
	if e.store == nil {
		return
	}
	if err := e.store.Delete(ctx, id); err != nil {
		logging.Error(engineSubsystem, err, "Failed to delete record for %s", id)
	}
}

// createConfig translates an effective definition into the runtime's create
// contract, including the kind-specific command arguments and informational
// labels.
func createConfig(identity string, effective service.Definition, owner, nodeID string) runtime.CreateConfig {
	ports := make([]runtime.PortBinding, len(effective.Ports))
	for i, p := range effective.Ports {
		ports[i] = runtime.PortBinding{HostPort: p.HostPort, ContainerPort: p.ContainerPort}
	}

	var mounts []string
	for _, m := range effective.Mounts {
		mounts = append(mounts, m.HostPath+":"+m.ContainerPath)
	}

	labels := map[string]string{
		"dockhand.kind": string(effective.Kind),
		"dockhand.name": effective.Name,
	}
	if owner != "" {
		labels["dockhand.owner"] = owner
	}
	if nodeID != "" {
		labels["dockhand.node"] = nodeID
	}

	return runtime.CreateConfig{
		Name:     identity,
		Image:    service.ImageFor(effective),
		Env:      effective.Env,
		Ports:    ports,
		Mounts:   mounts,
		CPUCores: effective.Resources.CPUCores,
		MemoryMB: effective.Resources.MemoryMB,
		Labels:   labels,
		Args:     service.ArgsFor(effective.Kind),
	}
}
