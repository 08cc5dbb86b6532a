package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaultsFillsUnsetFields(t *testing.T) {
	def := ApplyDefaults(Definition{Kind: KindRelationalDB, Name: "orders"})

	assert.Equal(t, "16-alpine", def.Version)
	assert.Equal(t, float64(1), def.Resources.CPUCores)
	assert.Equal(t, int64(1024), def.Resources.MemoryMB)
	require.Len(t, def.Ports, 1)
	assert.Equal(t, 5432, def.Ports[0].ContainerPort)
	assert.Equal(t, 5432+HostPortOffset, def.Ports[0].HostPort)
	require.NotNil(t, def.Probe)
	assert.Equal(t, []string{"pg_isready", "-U", "postgres"}, def.Probe.Command)
	assert.Equal(t, 2*time.Second, def.Probe.Interval)
	assert.Equal(t, 3*time.Second, def.Probe.Timeout)
	assert.Equal(t, 30, def.Probe.Retries)
	assert.Equal(t, "dockhand", def.Env["POSTGRES_PASSWORD"])
}

func TestApplyDefaultsCallerValuesWin(t *testing.T) {
	def := ApplyDefaults(Definition{
		Kind:      KindRelationalDB,
		Name:      "orders",
		Version:   "15-alpine",
		Resources: Resources{CPUCores: 2},
		Env:       map[string]string{"POSTGRES_PASSWORD": "sekret"},
		Ports:     []PortMapping{{ContainerPort: 5432, HostPort: 6000}},
	})

	// Explicit values preserved.
	assert.Equal(t, "15-alpine", def.Version)
	assert.Equal(t, float64(2), def.Resources.CPUCores)
	assert.Equal(t, "sekret", def.Env["POSTGRES_PASSWORD"])
	require.Len(t, def.Ports, 1)
	assert.Equal(t, 6000, def.Ports[0].HostPort)

	// Unset fields still inherit defaults, field by field.
	assert.Equal(t, int64(1024), def.Resources.MemoryMB)
	assert.Equal(t, int64(10240), def.Resources.StorageMB)
}

func TestApplyDefaultsCallerProbeMergesIntervals(t *testing.T) {
	def := ApplyDefaults(Definition{
		Kind:  KindCache,
		Name:  "sessions",
		Probe: &Probe{Command: []string{"redis-cli", "-a", "x", "ping"}},
	})

	require.NotNil(t, def.Probe)
	assert.Equal(t, []string{"redis-cli", "-a", "x", "ping"}, def.Probe.Command)
	assert.Equal(t, defaultProbeInterval, def.Probe.Interval)
	assert.Equal(t, defaultProbeRetries, def.Probe.Retries)
}

func TestApplyDefaultsBrokerHasNoProbe(t *testing.T) {
	def := ApplyDefaults(Definition{Kind: KindBroker, Name: "events"})
	assert.Nil(t, def.Probe)
	require.Len(t, def.Ports, 1)
	assert.Equal(t, 4222, def.Ports[0].ContainerPort)
}

func TestApplyDefaultsDoesNotMutateInput(t *testing.T) {
	in := Definition{
		Kind: KindObjectStore,
		Name: "media",
		Env:  map[string]string{"MINIO_ROOT_USER": "custom"},
	}
	_ = ApplyDefaults(in)

	assert.Equal(t, map[string]string{"MINIO_ROOT_USER": "custom"}, in.Env)
	assert.Nil(t, in.Probe)
	assert.Empty(t, in.Ports)
}

func TestApplyDefaultsDoesNotShareDefaultProbe(t *testing.T) {
	a := ApplyDefaults(Definition{Kind: KindCache, Name: "a"})
	b := ApplyDefaults(Definition{Kind: KindCache, Name: "b"})

	require.NotNil(t, a.Probe)
	require.NotNil(t, b.Probe)
	assert.NotSame(t, a.Probe, b.Probe)
}

func TestImageFor(t *testing.T) {
	assert.Equal(t, "postgres:16-alpine", ImageFor(Definition{Kind: KindRelationalDB}))
	assert.Equal(t, "postgres:15", ImageFor(Definition{Kind: KindRelationalDB, Version: "15"}))
	assert.Equal(t, "redis:7-alpine", ImageFor(Definition{Kind: KindCache}))
	assert.Equal(t, "minio/minio:latest", ImageFor(Definition{Kind: KindObjectStore}))
}

func TestArgsFor(t *testing.T) {
	assert.Equal(t, []string{"server", "/data"}, ArgsFor(KindObjectStore))
	assert.Nil(t, ArgsFor(KindRelationalDB))
}
