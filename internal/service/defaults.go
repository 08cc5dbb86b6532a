package service

import (
	"time"

	"dario.cat/mergo"
)

// HostPortOffset is the conventional offset added to a container port to pick
// the default host port when the caller did not request one.
const HostPortOffset = 10000

const (
	defaultProbeInterval = 2 * time.Second
	defaultProbeTimeout  = 3 * time.Second
	defaultProbeRetries  = 30
)

// kindSpec carries the built-in defaults for one service kind.
type kindSpec struct {
	Image     string // image repository, tag comes from Definition.Version
	Version   string
	Resources Resources
	Ports     []PortMapping
	Probe     *Probe
	Env       map[string]string
	Args      []string // container command arguments appended after the image
}

var kindSpecs = map[Kind]kindSpec{
	KindRelationalDB: {
		Image:     "postgres",
		Version:   "16-alpine",
		Resources: Resources{CPUCores: 1, MemoryMB: 1024, StorageMB: 10240},
		Ports:     []PortMapping{{ContainerPort: 5432}},
		Probe:     &Probe{Command: []string{"pg_isready", "-U", "postgres"}},
		Env:       map[string]string{"POSTGRES_PASSWORD": "dockhand"},
	},
	KindCache: {
		Image:     "redis",
		Version:   "7-alpine",
		Resources: Resources{CPUCores: 0.5, MemoryMB: 256, StorageMB: 1024},
		Ports:     []PortMapping{{ContainerPort: 6379}},
		Probe:     &Probe{Command: []string{"redis-cli", "ping"}},
		Args:      []string{"redis-server", "--appendonly", "yes"},
	},
	// The broker kind has no default probe: a running nats-server is treated
	// as healthy, the documented weak guarantee for probe-less kinds.
	KindBroker: {
		Image:     "nats",
		Version:   "2.10-alpine",
		Resources: Resources{CPUCores: 0.5, MemoryMB: 256, StorageMB: 1024},
		Ports:     []PortMapping{{ContainerPort: 4222}},
		Args:      []string{"-js"},
	},
	KindObjectStore: {
		Image:     "minio/minio",
		Version:   "latest",
		Resources: Resources{CPUCores: 1, MemoryMB: 512, StorageMB: 20480},
		Ports:     []PortMapping{{ContainerPort: 9000}},
		Probe:     &Probe{Command: []string{"curl", "-f", "http://127.0.0.1:9000/minio/health/live"}},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "dockhand",
			"MINIO_ROOT_PASSWORD": "dockhand-secret",
		},
		Args: []string{"server", "/data"},
	},
}

// ApplyDefaults computes the effective configuration for a definition:
// kind defaults first, caller overrides field by field. Explicit caller values
// always win; unset fields inherit the defaults. Host ports left at zero are
// assigned the conventional container-port+offset value.
func ApplyDefaults(def Definition) Definition {
	spec := kindSpecs[def.Kind]

	merged := def
	if def.Env != nil {
		merged.Env = make(map[string]string, len(def.Env))
		for k, v := range def.Env {
			merged.Env[k] = v
		}
	}

	defaults := Definition{
		Version:   spec.Version,
		Resources: spec.Resources,
		Env:       spec.Env,
		Ports:     spec.Ports,
		Probe:     spec.Probe,
	}

	// mergo fills zero-value fields in merged from defaults and leaves
	// caller-set fields untouched, recursing into structs and maps.
	if err := mergo.Merge(&merged, defaults); err != nil {
		// The only merge failures are programming errors (mismatched types).
		panic(err)
	}

	if merged.Probe != nil {
		p := *merged.Probe
		if p.Interval == 0 {
			p.Interval = defaultProbeInterval
		}
		if p.Timeout == 0 {
			p.Timeout = defaultProbeTimeout
		}
		if p.Retries == 0 {
			p.Retries = defaultProbeRetries
		}
		merged.Probe = &p
	}

	ports := make([]PortMapping, len(merged.Ports))
	copy(ports, merged.Ports)
	for i := range ports {
		if ports[i].HostPort == 0 {
			ports[i].HostPort = ports[i].ContainerPort + HostPortOffset
		}
	}
	merged.Ports = ports

	return merged
}

// ImageFor returns the fully-qualified image reference for an effective
// definition.
func ImageFor(def Definition) string {
	spec := kindSpecs[def.Kind]
	version := def.Version
	if version == "" {
		version = spec.Version
	}
	return spec.Image + ":" + version
}

// ArgsFor returns the kind-specific container command arguments.
func ArgsFor(kind Kind) []string {
	return kindSpecs[kind].Args
}
