package cmd

import (
	"fmt"

	"dockhand/internal/service"

	"github.com/spf13/cobra"
)

// healthCmd represents the health command.
var healthCmd = &cobra.Command{
	Use:   "health <id>",
	Short: "Run a health check against a service instance",
	Long: `Refresh the status and health of the given instance id from the
runtime and its readiness probe, and print the result.

Use 'dockhand list' to find instance ids.`,
	Args: cobra.ExactArgs(1),
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, cleanup, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := resolveID(ctx, e, args[0])
	if err != nil {
		return err
	}

	inst, err := e.CheckHealth(ctx, id)
	if err != nil {
		return err
	}
	if inst == nil {
		return service.NewServiceNotFoundError(args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Identity: %s\n", inst.Identity)
	fmt.Fprintf(out, "Status:   %s\n", inst.Status)
	fmt.Fprintf(out, "Health:   %s\n", inst.Health)
	if inst.LastHealthCheck != nil {
		fmt.Fprintf(out, "Checked:  %s\n", inst.LastHealthCheck.Format("2006-01-02 15:04:05"))
	}
	return nil
}
