package health

import (
	"context"
	"sync"
	"testing"
	"time"

	"dockhand/internal/runtime"
	"dockhand/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRuntime implements runtime.Runtime for testing
type fakeRuntime struct {
	mu        sync.Mutex
	objects   []runtime.Object
	execErr   error
	execCalls int
	listErr   error

	// execResults, when non-empty, is consumed one entry per Exec call;
	// a true entry means the probe succeeds.
	execResults []bool
}

func (f *fakeRuntime) List(ctx context.Context, filter string) ([]runtime.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.objects, nil
}

func (f *fakeRuntime) Create(ctx context.Context, cfg runtime.CreateConfig) error { return nil }
func (f *fakeRuntime) Start(ctx context.Context, name string) error               { return nil }
func (f *fakeRuntime) Stop(ctx context.Context, name string) error                { return nil }
func (f *fakeRuntime) Remove(ctx context.Context, name string) error              { return nil }

func (f *fakeRuntime) Exec(ctx context.Context, name string, command []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execCalls++
	if len(f.execResults) > 0 {
		ok := f.execResults[0]
		f.execResults = f.execResults[1:]
		if !ok {
			return "probe failed", &runtime.InvocationError{Op: "exec", Object: name, Output: "probe failed"}
		}
		return "ok", nil
	}
	if f.execErr != nil {
		return "", f.execErr
	}
	return "ok", nil
}

func runningObject(identity string) runtime.Object {
	return runtime.Object{Name: identity, StatusText: "Up 3 minutes"}
}

func TestCheckMissingObject(t *testing.T) {
	m := NewMonitor(&fakeRuntime{})

	status, health, err := m.Check(context.Background(), "cache-sessions", nil)
	require.NoError(t, err)
	assert.Equal(t, service.StatusUnknown, status)
	assert.Equal(t, service.HealthUnknown, health)
}

func TestCheckStoppedObjectSkipsProbe(t *testing.T) {
	rt := &fakeRuntime{objects: []runtime.Object{
		{Name: "cache-sessions", StatusText: "Exited (0) 2 hours ago"},
	}}
	m := NewMonitor(rt)

	probe := &service.Probe{Command: []string{"redis-cli", "ping"}}
	status, health, err := m.Check(context.Background(), "cache-sessions", probe)
	require.NoError(t, err)
	assert.Equal(t, service.StatusStopped, status)
	assert.Equal(t, service.HealthUnknown, health)
	assert.Zero(t, rt.execCalls)
}

func TestCheckRunningWithoutProbeIsHealthy(t *testing.T) {
	rt := &fakeRuntime{objects: []runtime.Object{runningObject("broker-events")}}
	m := NewMonitor(rt)

	status, health, err := m.Check(context.Background(), "broker-events", nil)
	require.NoError(t, err)
	assert.Equal(t, service.StatusRunning, status)
	assert.Equal(t, service.HealthHealthy, health)
}

func TestCheckProbeOutcomes(t *testing.T) {
	probe := &service.Probe{Command: []string{"pg_isready"}, Timeout: time.Second}

	t.Run("passing probe", func(t *testing.T) {
		rt := &fakeRuntime{objects: []runtime.Object{runningObject("relational-db-orders")}}
		m := NewMonitor(rt)

		status, health, err := m.Check(context.Background(), "relational-db-orders", probe)
		require.NoError(t, err)
		assert.Equal(t, service.StatusRunning, status)
		assert.Equal(t, service.HealthHealthy, health)
	})

	t.Run("failing probe", func(t *testing.T) {
		rt := &fakeRuntime{
			objects:     []runtime.Object{runningObject("relational-db-orders")},
			execResults: []bool{false},
		}
		m := NewMonitor(rt)

		status, health, err := m.Check(context.Background(), "relational-db-orders", probe)
		require.NoError(t, err)
		assert.Equal(t, service.StatusRunning, status)
		assert.Equal(t, service.HealthUnhealthy, health)
	})
}

func TestCheckIgnoresSubstringMatches(t *testing.T) {
	rt := &fakeRuntime{objects: []runtime.Object{runningObject("cache-sessions-backup")}}
	m := NewMonitor(rt)

	status, _, err := m.Check(context.Background(), "cache-sessions", nil)
	require.NoError(t, err)
	assert.Equal(t, service.StatusUnknown, status)
}

func TestWaitShortCircuitsOnFirstSuccess(t *testing.T) {
	rt := &fakeRuntime{
		objects:     []runtime.Object{runningObject("cache-sessions")},
		execResults: []bool{false, false, true},
	}
	m := NewMonitor(rt)

	probe := &service.Probe{Command: []string{"redis-cli", "ping"}}
	status, health, err := m.Wait(context.Background(), "cache-sessions", probe, 5*time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.Equal(t, service.StatusRunning, status)
	assert.Equal(t, service.HealthHealthy, health)
	assert.Equal(t, 3, rt.execCalls)
}

func TestWaitBoundedOnPersistentFailure(t *testing.T) {
	rt := &fakeRuntime{
		objects: []runtime.Object{runningObject("cache-sessions")},
		execErr: &runtime.InvocationError{Op: "exec", Output: "nope"},
	}
	m := NewMonitor(rt)

	probe := &service.Probe{Command: []string{"redis-cli", "ping"}}
	interval := 10 * time.Millisecond
	maxWait := 50 * time.Millisecond

	start := time.Now()
	status, health, err := m.Wait(context.Background(), "cache-sessions", probe, interval, maxWait)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, service.StatusRunning, status)
	assert.Equal(t, service.HealthUnhealthy, health)
	// Bounded within maxWait plus one poll interval of slack.
	assert.Less(t, elapsed, maxWait+10*interval)
	assert.GreaterOrEqual(t, elapsed, maxWait)
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	rt := &fakeRuntime{
		objects: []runtime.Object{runningObject("cache-sessions")},
		execErr: &runtime.InvocationError{Op: "exec", Output: "nope"},
	}
	m := NewMonitor(rt)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	probe := &service.Probe{Command: []string{"redis-cli", "ping"}}
	_, _, err := m.Wait(ctx, "cache-sessions", probe, 10*time.Millisecond, 10*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIntervalFor(t *testing.T) {
	interval, maxWait := IntervalFor(nil)
	assert.Equal(t, DefaultInterval, interval)
	assert.Equal(t, DefaultMaxWait, maxWait)

	interval, maxWait = IntervalFor(&service.Probe{Interval: time.Second, Retries: 10})
	assert.Equal(t, time.Second, interval)
	assert.Equal(t, 10*time.Second, maxWait)
}
