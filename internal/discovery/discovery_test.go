package discovery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dockhand/internal/health"
	"dockhand/internal/persist"
	"dockhand/internal/runtime"
	"dockhand/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRuntime implements runtime.Runtime for testing
type fakeRuntime struct {
	mu        sync.Mutex
	objects   []runtime.Object
	listErr   error
	listCalls int32
}

func (f *fakeRuntime) List(ctx context.Context, filter string) ([]runtime.Object, error) {
	atomic.AddInt32(&f.listCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if filter == "" {
		return f.objects, nil
	}
	var out []runtime.Object
	for _, obj := range f.objects {
		if obj.Name == filter {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (f *fakeRuntime) Create(ctx context.Context, cfg runtime.CreateConfig) error { return nil }
func (f *fakeRuntime) Start(ctx context.Context, name string) error               { return nil }
func (f *fakeRuntime) Stop(ctx context.Context, name string) error                { return nil }
func (f *fakeRuntime) Remove(ctx context.Context, name string) error              { return nil }
func (f *fakeRuntime) Exec(ctx context.Context, name string, command []string) (string, error) {
	return "ok", nil
}

// fakeStore implements persist.Store for testing
type fakeStore struct {
	mu        sync.Mutex
	records   map[string]persist.Record
	loadErr   error
	loadCalls int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]persist.Record)}
}

func (f *fakeStore) Upsert(ctx context.Context, rec persist.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.ServiceID] = rec
	return nil
}

func (f *fakeStore) LoadAll(ctx context.Context) ([]persist.Record, error) {
	atomic.AddInt32(&f.loadCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make([]persist.Record, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeStore) Delete(ctx context.Context, serviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, serviceID)
	return nil
}

func persistedInstance(id string, kind service.Kind, name, owner string) persist.Record {
	inst := service.Instance{
		ID:        id,
		Kind:      kind,
		Name:      name,
		Identity:  service.Identity(kind, name),
		Owner:     owner,
		NodeID:    "node-1",
		Ports:     []service.PortMapping{{ContainerPort: 6379, HostPort: 16379}},
		CreatedAt: time.Now(),
		Config:    service.ApplyDefaults(service.Definition{Kind: kind, Name: name}),
	}
	rec, err := persist.FromInstance(inst)
	if err != nil {
		panic(err)
	}
	return rec
}

func newReconciler(rt *fakeRuntime, store persist.Store) (*Reconciler, *service.Registry) {
	registry := service.NewRegistry()
	monitor := health.NewMonitor(rt)
	return New(registry, rt, store, monitor, "node-1"), registry
}

func TestDiscoveryConvergence(t *testing.T) {
	store := newFakeStore()
	// N=2 persisted records, no live containers for them.
	require.NoError(t, store.Upsert(context.Background(), persistedInstance("id-1", service.KindCache, "sessions", "tenant-a")))
	require.NoError(t, store.Upsert(context.Background(), persistedInstance("id-2", service.KindRelationalDB, "orders", "tenant-a")))

	// M=2 live-but-unpersisted runtime objects, plus one foreign container.
	rt := &fakeRuntime{objects: []runtime.Object{
		{Name: "broker-events", Image: "nats:2.10-alpine", StatusText: "Up 3 minutes", PortsText: "0.0.0.0:14222->4222/tcp"},
		{Name: "object-store-media", Image: "minio/minio:latest", StatusText: "Exited (0) 1 hour ago"},
		{Name: "unrelated-app", Image: "nginx:latest", StatusText: "Up 10 days"},
	}}

	r, registry := newReconciler(rt, store)
	require.NoError(t, r.Ensure(context.Background()))

	// Exactly N+M entries, the foreign container is ignored.
	assert.Equal(t, 4, registry.Len())

	_, ok := registry.GetByName(service.KindCache, "sessions")
	assert.True(t, ok)
	_, ok = registry.GetByName(service.KindBroker, "events")
	assert.True(t, ok)
}

func TestDiscoveryMergePrecedence(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.Upsert(context.Background(), persistedInstance("id-1", service.KindCache, "sessions", "tenant-a")))

	// The same service is live with a different observed host port.
	rt := &fakeRuntime{objects: []runtime.Object{
		{Name: "cache-sessions", Image: "redis:7-alpine", StatusText: "Up 5 minutes", PortsText: "0.0.0.0:26379->6379/tcp"},
	}}

	r, registry := newReconciler(rt, store)
	require.NoError(t, r.Ensure(context.Background()))

	inst, ok := registry.GetByName(service.KindCache, "sessions")
	require.True(t, ok)

	// Persisted metadata wins: id and owner survive the merge.
	assert.Equal(t, "id-1", inst.ID)
	assert.Equal(t, "tenant-a", inst.Owner)

	// The runtime is authoritative for liveness and port bindings.
	assert.Equal(t, service.StatusRunning, inst.Status)
	require.Len(t, inst.Ports, 1)
	assert.Equal(t, 26379, inst.Ports[0].HostPort)
	assert.Equal(t, "127.0.0.1:26379", inst.Endpoint)
}

func TestDiscoveryAdoptsUnmanagedObjects(t *testing.T) {
	rt := &fakeRuntime{objects: []runtime.Object{
		{Name: "relational-db-legacy", Image: "postgres:16-alpine", StatusText: "Up 2 days", PortsText: "0.0.0.0:15432->5432/tcp"},
	}}

	r, registry := newReconciler(rt, newFakeStore())
	require.NoError(t, r.Ensure(context.Background()))

	inst, ok := registry.GetByName(service.KindRelationalDB, "legacy")
	require.True(t, ok)
	assert.NotEmpty(t, inst.ID)
	assert.Empty(t, inst.Owner, "adopted instances have an unknown owner")
	assert.Equal(t, service.StatusRunning, inst.Status)
	assert.Equal(t, "node-1", inst.NodeID)
	// Best-guess resource shape from kind defaults.
	assert.Equal(t, int64(1024), inst.Config.Resources.MemoryMB)
}

func TestDiscoveryPopulatesHealth(t *testing.T) {
	rt := &fakeRuntime{objects: []runtime.Object{
		{Name: "broker-events", StatusText: "Up 3 minutes", PortsText: "0.0.0.0:14222->4222/tcp"},
	}}

	r, registry := newReconciler(rt, newFakeStore())
	require.NoError(t, r.Ensure(context.Background()))

	inst, ok := registry.GetByName(service.KindBroker, "events")
	require.True(t, ok)
	assert.Equal(t, service.HealthHealthy, inst.Health)
	assert.NotNil(t, inst.LastHealthCheck)
}

func TestDiscoveryRunsOncePerProcess(t *testing.T) {
	rt := &fakeRuntime{}
	store := newFakeStore()
	r, _ := newReconciler(rt, store)

	require.NoError(t, r.Ensure(context.Background()))
	require.NoError(t, r.Ensure(context.Background()))
	require.NoError(t, r.Ensure(context.Background()))

	assert.Equal(t, int32(1), atomic.LoadInt32(&store.loadCalls))
}

func TestDiscoverySingleFlightUnderConcurrency(t *testing.T) {
	rt := &fakeRuntime{}
	store := newFakeStore()
	r, _ := newReconciler(rt, store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Ensure(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&store.loadCalls))
}

func TestDiscoveryFailureAllowsRetry(t *testing.T) {
	rt := &fakeRuntime{listErr: errors.New("daemon unreachable")}
	store := newFakeStore()
	r, _ := newReconciler(rt, store)

	require.Error(t, r.Ensure(context.Background()))

	// Clear the failure; the guard must not have latched.
	rt.mu.Lock()
	rt.listErr = nil
	rt.mu.Unlock()

	require.NoError(t, r.Ensure(context.Background()))
}

func TestDiscoveryStoreFailureDegradesToRuntimeOnly(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("connection refused")

	rt := &fakeRuntime{objects: []runtime.Object{
		{Name: "cache-sessions", StatusText: "Up 1 minute", PortsText: "0.0.0.0:16379->6379/tcp"},
	}}

	r, registry := newReconciler(rt, store)
	require.NoError(t, r.Ensure(context.Background()))
	assert.Equal(t, 1, registry.Len())
}

func TestResetForcesRediscovery(t *testing.T) {
	rt := &fakeRuntime{objects: []runtime.Object{
		{Name: "cache-sessions", StatusText: "Up 1 minute"},
	}}
	store := newFakeStore()
	r, registry := newReconciler(rt, store)

	require.NoError(t, r.Ensure(context.Background()))
	assert.Equal(t, 1, registry.Len())

	r.Reset()
	assert.Equal(t, 0, registry.Len())

	require.NoError(t, r.Ensure(context.Background()))
	assert.Equal(t, 1, registry.Len())
	assert.Equal(t, int32(2), atomic.LoadInt32(&store.loadCalls))
}
