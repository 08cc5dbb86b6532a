package cmd

import (
	"fmt"

	"dockhand/internal/service"

	"github.com/spf13/cobra"
)

// stopCmd represents the stop command.
var stopCmd = &cobra.Command{
	Use:   "stop <id>",
	Short: "Stop a service instance",
	Long: `Stop the runtime object backing the given instance id. The instance
stays registered and can be provisioned again later. Stopping an
already-stopped instance is a no-op.

Use 'dockhand list' to find instance ids.`,
	Args: cobra.ExactArgs(1),
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
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

	ok, err := e.Stop(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return service.NewServiceNotFoundError(args[0])
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stopped %s\n", id)
	return nil
}
