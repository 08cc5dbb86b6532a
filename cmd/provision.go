package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dockhand/internal/service"

	"github.com/briandowns/spinner"
	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

var (
	provisionOwner   string
	provisionVersion string
	provisionCPUs    float64
	provisionMemory  string
	provisionStorage string
	provisionPorts   []string
	provisionEnv     []string
	provisionMounts  []string
	provisionQuiet   bool
)

// provisionCmd represents the provision command.
var provisionCmd = &cobra.Command{
	Use:   "provision <kind> <name>",
	Short: "Provision a service instance and wait for it to become healthy",
	Long: `Provision a service of the given kind under the given name.

Unset fields inherit the kind's defaults (image, ports, resource shape,
readiness probe). Provisioning is idempotent: if a healthy instance with the
same kind and name already exists it is returned unchanged.

Supported kinds: ` + kindList() + `

Examples:
  dockhand provision cache sessions
  dockhand provision relational-db orders --owner tenant-a --memory 2GiB
  dockhand provision object-store media --publish 19000:9000
  dockhand provision cache scratch --env MAXMEMORY=128mb --version 7.2-alpine`,
	Args: cobra.ExactArgs(2),
	RunE: runProvision,
}

func init() {
	rootCmd.AddCommand(provisionCmd)

	provisionCmd.Flags().StringVar(&provisionOwner, "owner", "", "Owner recorded on the instance")
	provisionCmd.Flags().StringVar(&provisionVersion, "version", "", "Image version (defaults to the kind's pinned tag)")
	provisionCmd.Flags().Float64Var(&provisionCPUs, "cpus", 0, "CPU cores (fractional allowed)")
	provisionCmd.Flags().StringVar(&provisionMemory, "memory", "", "Memory limit (e.g. 512MiB, 2GiB)")
	provisionCmd.Flags().StringVar(&provisionStorage, "storage", "", "Storage request (e.g. 10GiB)")
	provisionCmd.Flags().StringArrayVar(&provisionPorts, "publish", nil, "Port mapping host:container (repeatable)")
	provisionCmd.Flags().StringArrayVar(&provisionEnv, "env", nil, "Environment variable KEY=VALUE (repeatable)")
	provisionCmd.Flags().StringArrayVar(&provisionMounts, "mount", nil, "Mount hostPath:containerPath (repeatable)")
	provisionCmd.Flags().BoolVarP(&provisionQuiet, "quiet", "q", false, "Suppress the progress indicator")
}

func runProvision(cmd *cobra.Command, args []string) error {
	kind, err := service.ParseKind(args[0])
	if err != nil {
		return err
	}

	def := service.Definition{
		Kind:    kind,
		Name:    args[1],
		Version: provisionVersion,
	}
	def.Resources.CPUCores = provisionCPUs

	if def.Resources.MemoryMB, err = parseSizeMB(provisionMemory); err != nil {
		return fmt.Errorf("invalid --memory: %w", err)
	}
	if def.Resources.StorageMB, err = parseSizeMB(provisionStorage); err != nil {
		return fmt.Errorf("invalid --storage: %w", err)
	}
	if def.Ports, err = parsePortFlags(provisionPorts); err != nil {
		return err
	}
	if def.Env, err = parseEnvFlags(provisionEnv); err != nil {
		return err
	}
	if def.Mounts, err = parseMountFlags(provisionMounts); err != nil {
		return err
	}

	ctx := cmd.Context()
	e, cleanup, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var sp *spinner.Spinner
	if !provisionQuiet {
		sp = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		sp.Suffix = fmt.Sprintf(" Provisioning %s %s...", kind, def.Name)
		sp.Start()
	}

	inst, err := e.Provision(ctx, def, provisionOwner)

	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", inst.ID)
	fmt.Fprintf(out, "Identity: %s\n", inst.Identity)
	fmt.Fprintf(out, "Status:   %s\n", inst.Status)
	fmt.Fprintf(out, "Health:   %s\n", inst.Health)
	if inst.Endpoint != "" {
		fmt.Fprintf(out, "Endpoint: %s\n", inst.Endpoint)
	}

	if inst.Status == service.StatusFailed {
		return fmt.Errorf("service %s did not become healthy", inst.Identity)
	}
	return nil
}

// parseSizeMB converts a human-readable size ("512MiB", "2GiB") to megabytes.
// An empty string means unset.
func parseSizeMB(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	bytes, err := units.RAMInBytes(s)
	if err != nil {
		return 0, err
	}
	return bytes / units.MiB, nil
}

// parsePortFlags parses repeatable "host:container" or bare "container"
// mappings.
func parsePortFlags(flags []string) ([]service.PortMapping, error) {
	var out []service.PortMapping
	for _, f := range flags {
		parts := strings.Split(f, ":")
		switch len(parts) {
		case 1:
			container, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, fmt.Errorf("invalid --publish %q: %w", f, err)
			}
			out = append(out, service.PortMapping{ContainerPort: container})
		case 2:
			host, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, fmt.Errorf("invalid --publish %q: %w", f, err)
			}
			container, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("invalid --publish %q: %w", f, err)
			}
			out = append(out, service.PortMapping{HostPort: host, ContainerPort: container})
		default:
			return nil, fmt.Errorf("invalid --publish %q: expected host:container", f)
		}
	}
	return out, nil
}

func parseEnvFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(flags))
	for _, f := range flags {
		key, value, found := strings.Cut(f, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --env %q: expected KEY=VALUE", f)
		}
		out[key] = value
	}
	return out, nil
}

func parseMountFlags(flags []string) ([]service.Mount, error) {
	var out []service.Mount
	for _, f := range flags {
		host, container, found := strings.Cut(f, ":")
		if !found || host == "" || container == "" {
			return nil, fmt.Errorf("invalid --mount %q: expected hostPath:containerPath", f)
		}
		out = append(out, service.Mount{HostPath: host, ContainerPath: container})
	}
	return out, nil
}

func kindList() string {
	var names []string
	for _, k := range service.Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}
