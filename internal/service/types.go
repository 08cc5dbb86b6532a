package service

import (
	"fmt"
	"time"
)

// Kind identifies the category of infrastructure service being provisioned.
type Kind string

const (
	KindRelationalDB Kind = "relational-db"
	KindCache        Kind = "cache"
	KindBroker       Kind = "broker"
	KindObjectStore  Kind = "object-store"
)

// Kinds returns all supported service kinds.
func Kinds() []Kind {
	return []Kind{KindRelationalDB, KindCache, KindBroker, KindObjectStore}
}

// ParseKind converts a string to a Kind, rejecting unknown values.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown service kind %q", s)}
}

// Status is the lifecycle state of a service instance. Status and Health are
// independent axes: an instance can be running with a failing probe.
type Status string

const (
	StatusProvisioning Status = "provisioning"
	StatusRunning      Status = "running"
	StatusStopped      Status = "stopped"
	StatusFailed       Status = "failed"
	StatusUnknown      Status = "unknown"
)

// Health is the probe-derived readiness of a service instance. Only the health
// monitor writes this field.
type Health string

const (
	HealthHealthy   Health = "healthy"
	HealthUnhealthy Health = "unhealthy"
	HealthUnknown   Health = "unknown"
)

// Resources describes the resource shape requested for a service.
type Resources struct {
	CPUCores  float64 `yaml:"cpuCores,omitempty" json:"cpuCores,omitempty"`
	MemoryMB  int64   `yaml:"memoryMb,omitempty" json:"memoryMb,omitempty"`
	StorageMB int64   `yaml:"storageMb,omitempty" json:"storageMb,omitempty"`
}

// PortMapping maps a container port to a host port. A zero HostPort means the
// engine assigns the conventional default (container port + offset).
type PortMapping struct {
	ContainerPort int `yaml:"containerPort" json:"containerPort"`
	HostPort      int `yaml:"hostPort,omitempty" json:"hostPort,omitempty"`
}

// Probe is a readiness check executed inside the running container.
type Probe struct {
	Command  []string      `yaml:"command" json:"command"`
	Interval time.Duration `yaml:"interval,omitempty" json:"interval,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Retries  int           `yaml:"retries,omitempty" json:"retries,omitempty"`
}

// Mount is a host path mounted into the container.
type Mount struct {
	HostPath      string `yaml:"hostPath" json:"hostPath"`
	ContainerPath string `yaml:"containerPath" json:"containerPath"`
}

// Definition is the caller-supplied desired state for a service. Unset fields
// inherit kind defaults when the definition is resolved.
type Definition struct {
	Kind      Kind              `yaml:"kind" json:"kind"`
	Name      string            `yaml:"name" json:"name"`
	Version   string            `yaml:"version,omitempty" json:"version,omitempty"`
	Resources Resources         `yaml:"resources,omitempty" json:"resources,omitempty"`
	Env       map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Ports     []PortMapping     `yaml:"ports,omitempty" json:"ports,omitempty"`
	Probe     *Probe            `yaml:"probe,omitempty" json:"probe,omitempty"`
	Mounts    []Mount           `yaml:"mounts,omitempty" json:"mounts,omitempty"`
}

// Identity returns the deterministic runtime object name for this definition.
func (d Definition) Identity() string {
	return Identity(d.Kind, d.Name)
}

// Instance is the engine's record of an actually-provisioned service,
// including observed status and health.
type Instance struct {
	ID              string        `yaml:"id" json:"id"`
	Kind            Kind          `yaml:"kind" json:"kind"`
	Name            string        `yaml:"name" json:"name"`
	Identity        string        `yaml:"identity" json:"identity"`
	Owner           string        `yaml:"owner,omitempty" json:"owner,omitempty"`
	NodeID          string        `yaml:"nodeId,omitempty" json:"nodeId,omitempty"`
	Endpoint        string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Ports           []PortMapping `yaml:"ports,omitempty" json:"ports,omitempty"`
	CreatedAt       time.Time     `yaml:"createdAt" json:"createdAt"`
	StartedAt       *time.Time    `yaml:"startedAt,omitempty" json:"startedAt,omitempty"`
	LastHealthCheck *time.Time    `yaml:"lastHealthCheck,omitempty" json:"lastHealthCheck,omitempty"`
	Status          Status        `yaml:"status" json:"status"`
	Health          Health        `yaml:"health" json:"health"`
	Config          Definition    `yaml:"config" json:"config"`
}

// PrimaryPort returns the first resolved port mapping, or nil if none exist.
func (i *Instance) PrimaryPort() *PortMapping {
	if len(i.Ports) == 0 {
		return nil
	}
	return &i.Ports[0]
}

// EndpointFor returns the network endpoint for a host port on this node.
func EndpointFor(hostPort int) string {
	return fmt.Sprintf("127.0.0.1:%d", hostPort)
}
