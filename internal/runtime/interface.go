package runtime

import "context"

// Object is one entry of the runtime's container inventory. StatusText and
// PortsText are the runtime's human-readable columns; ParseStatus and
// ParsePorts interpret them so the rest of the engine never touches raw
// runtime output.
type Object struct {
	Name       string
	Image      string
	StatusText string
	PortsText  string
}

// PortBinding maps a published host port to a container port.
type PortBinding struct {
	HostPort      int
	ContainerPort int
}

// CreateConfig holds everything needed to create a container.
type CreateConfig struct {
	Name     string            // deterministic object name
	Image    string            // fully-qualified image reference
	Env      map[string]string // environment variables
	Ports    []PortBinding     // published ports
	Mounts   []string          // volume mounts (host:container)
	CPUCores float64           // CPU limit, 0 = unlimited
	MemoryMB int64             // memory limit in MB, 0 = unlimited
	Labels   map[string]string // informational labels
	Args     []string          // command arguments appended after the image
}

// Runtime is the narrow command contract over a container runtime. Every
// failure carries the runtime's raw output via InvocationError.
type Runtime interface {
	// List enumerates containers (running or not) whose name contains filter.
	// An empty filter lists everything.
	List(ctx context.Context, filter string) ([]Object, error)

	// Create creates a container without starting it.
	Create(ctx context.Context, cfg CreateConfig) error

	// Start starts an existing container.
	Start(ctx context.Context, name string) error

	// Stop stops a running container. Stopping a stopped container succeeds.
	Stop(ctx context.Context, name string) error

	// Remove force-removes a container. Removing a container that no longer
	// exists succeeds: absence is the desired outcome, not a failure.
	Remove(ctx context.Context, name string) error

	// Exec runs a command inside a running container and returns its combined
	// output. A non-zero exit code is reported as an InvocationError.
	Exec(ctx context.Context, name string, command []string) (string, error)
}
