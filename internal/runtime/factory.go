package runtime

import (
	"fmt"
	"strings"
)

// Type selects the container runtime implementation.
type Type string

const (
	TypeDocker Type = "docker"
	TypePodman Type = "podman"
)

// New creates a Runtime for the given type. An empty type defaults to Docker.
func New(runtimeType string) (Runtime, error) {
	switch Type(strings.ToLower(runtimeType)) {
	case TypeDocker, "":
		return NewDockerRuntime()
	case TypePodman:
		return NewPodmanRuntime()
	default:
		return nil, fmt.Errorf("unsupported container runtime: %s", runtimeType)
	}
}
