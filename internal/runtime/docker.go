package runtime

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"dockhand/pkg/logging"
)

const dockerSubsystem = "Runtime"

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// CLIRuntime implements Runtime by shelling out to a docker-compatible CLI
// (docker or podman; both speak the same command surface used here).
type CLIRuntime struct {
	binary string
}

// NewDockerRuntime creates a Runtime backed by the docker CLI.
func NewDockerRuntime() (*CLIRuntime, error) {
	return newCLIRuntime("docker")
}

// NewPodmanRuntime creates a Runtime backed by the podman CLI.
func NewPodmanRuntime() (*CLIRuntime, error) {
	return newCLIRuntime("podman")
}

func newCLIRuntime(binary string) (*CLIRuntime, error) {
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("%s command not found in PATH: %w", binary, err)
	}

	cmd := execCommandContext(context.Background(), binary, "info")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s daemon not accessible: %w", binary, err)
	}

	return &CLIRuntime{binary: binary}, nil
}

// run executes one CLI invocation and wraps failures with the raw output.
func (r *CLIRuntime) run(ctx context.Context, op, object string, args ...string) (string, error) {
	logging.Debug(dockerSubsystem, "Running: %s %s", r.binary, strings.Join(args, " "))

	cmd := execCommandContext(ctx, r.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), &InvocationError{Op: op, Object: object, Output: string(output), Err: err}
	}
	return string(output), nil
}

// List enumerates containers whose name contains filter, running or not.
func (r *CLIRuntime) List(ctx context.Context, filter string) ([]Object, error) {
	args := []string{"ps", "-a", "--no-trunc", "--format", "{{.Names}}\t{{.Image}}\t{{.Status}}\t{{.Ports}}"}
	if filter != "" {
		args = append(args, "--filter", "name="+filter)
	}

	output, err := r.run(ctx, "list", "", args...)
	if err != nil {
		return nil, err
	}

	var objects []Object
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 4)
		obj := Object{Name: fields[0]}
		if len(fields) > 1 {
			obj.Image = fields[1]
		}
		if len(fields) > 2 {
			obj.StatusText = fields[2]
		}
		if len(fields) > 3 {
			obj.PortsText = fields[3]
		}
		objects = append(objects, obj)
	}

	return objects, nil
}

// Create creates a container without starting it.
func (r *CLIRuntime) Create(ctx context.Context, cfg CreateConfig) error {
	args := []string{"create", "--name", cfg.Name}

	// Map iteration order is random; sort for reproducible invocations.
	for _, k := range sortedKeys(cfg.Env) {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, cfg.Env[k]))
	}
	for _, p := range cfg.Ports {
		args = append(args, "-p", fmt.Sprintf("%d:%d", p.HostPort, p.ContainerPort))
	}
	for _, m := range cfg.Mounts {
		args = append(args, "-v", m)
	}
	if cfg.CPUCores > 0 {
		args = append(args, fmt.Sprintf("--cpus=%g", cfg.CPUCores))
	}
	if cfg.MemoryMB > 0 {
		args = append(args, fmt.Sprintf("--memory=%dm", cfg.MemoryMB))
	}
	for _, k := range sortedKeys(cfg.Labels) {
		args = append(args, "--label", fmt.Sprintf("%s=%s", k, cfg.Labels[k]))
	}

	args = append(args, cfg.Image)
	args = append(args, cfg.Args...)

	if _, err := r.run(ctx, "create", cfg.Name, args...); err != nil {
		return err
	}

	logging.Info(dockerSubsystem, "Created container %s from %s", cfg.Name, cfg.Image)
	return nil
}

// Start starts an existing container.
func (r *CLIRuntime) Start(ctx context.Context, name string) error {
	if _, err := r.run(ctx, "start", name, "start", name); err != nil {
		return err
	}
	logging.Info(dockerSubsystem, "Started container %s", name)
	return nil
}

// Stop stops a running container. The CLI already treats stopping a stopped
// container as success.
func (r *CLIRuntime) Stop(ctx context.Context, name string) error {
	if _, err := r.run(ctx, "stop", name, "stop", name); err != nil {
		return err
	}
	logging.Info(dockerSubsystem, "Stopped container %s", name)
	return nil
}

// Remove force-removes a container. A container that is already gone counts
// as removed.
func (r *CLIRuntime) Remove(ctx context.Context, name string) error {
	output, err := r.run(ctx, "remove", name, "rm", "-f", name)
	if err != nil {
		if isNoSuchContainer(output) {
			logging.Debug(dockerSubsystem, "Container %s already gone", name)
			return nil
		}
		return err
	}
	logging.Info(dockerSubsystem, "Removed container %s", name)
	return nil
}

// Exec runs a command inside a running container.
func (r *CLIRuntime) Exec(ctx context.Context, name string, command []string) (string, error) {
	args := append([]string{"exec", name}, command...)
	return r.run(ctx, "exec", name, args...)
}

func isNoSuchContainer(output string) bool {
	return strings.Contains(output, "No such container")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
