package service

import (
	"fmt"
	"regexp"
)

// Names are embedded into the deterministic runtime object name, so the
// charset is restricted to what every container runtime accepts.
var namePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

const maxNameLength = 63

// Resource bounds for a single-node engine. Requests outside these ranges are
// rejected rather than clamped.
const (
	maxCPUCores  = 64.0
	maxMemoryMB  = 512 * 1024
	maxStorageMB = 4 * 1024 * 1024
)

// Validate checks a caller-supplied definition before it reaches the engine.
func Validate(def Definition) error {
	if _, err := ParseKind(string(def.Kind)); err != nil {
		return err
	}

	if def.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if len(def.Name) > maxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("name exceeds %d characters", maxNameLength)}
	}
	if !namePattern.MatchString(def.Name) {
		return &ValidationError{Field: "name", Message: "name must be lowercase alphanumeric with interior hyphens"}
	}

	if def.Resources.CPUCores < 0 || def.Resources.CPUCores > maxCPUCores {
		return &ValidationError{Field: "resources.cpuCores", Message: fmt.Sprintf("must be between 0 and %v", maxCPUCores)}
	}
	if def.Resources.MemoryMB < 0 || def.Resources.MemoryMB > maxMemoryMB {
		return &ValidationError{Field: "resources.memoryMb", Message: fmt.Sprintf("must be between 0 and %d", maxMemoryMB)}
	}
	if def.Resources.StorageMB < 0 || def.Resources.StorageMB > maxStorageMB {
		return &ValidationError{Field: "resources.storageMb", Message: fmt.Sprintf("must be between 0 and %d", maxStorageMB)}
	}

	for i, p := range def.Ports {
		if p.ContainerPort <= 0 || p.ContainerPort > 65535 {
			return &ValidationError{Field: fmt.Sprintf("ports[%d].containerPort", i), Message: "must be between 1 and 65535"}
		}
		if p.HostPort < 0 || p.HostPort > 65535 {
			return &ValidationError{Field: fmt.Sprintf("ports[%d].hostPort", i), Message: "must be between 0 and 65535"}
		}
	}

	if def.Probe != nil && len(def.Probe.Command) == 0 {
		return &ValidationError{Field: "probe.command", Message: "probe requires a command"}
	}

	return nil
}
