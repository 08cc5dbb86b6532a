package cmd

import (
	"fmt"

	"dockhand/internal/service"

	"github.com/spf13/cobra"
)

// removeCmd represents the remove command.
var removeCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a service instance and its runtime object",
	Long: `Stop and remove the runtime object backing the given instance id,
then delete the instance from the registry and the record store. Remove
succeeds even when the runtime object is already gone.

Use 'dockhand list' to find instance ids.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
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

	ok, err := e.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return service.NewServiceNotFoundError(args[0])
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
	return nil
}
