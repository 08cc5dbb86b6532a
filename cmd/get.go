package cmd

import (
	"fmt"

	"dockhand/internal/service"

	"github.com/spf13/cobra"
)

var getOutputFormat string

// getCmd represents the get command.
var getCmd = &cobra.Command{
	Use:   "get <kind> <name>",
	Short: "Show a service instance by kind and name",
	Long: `Look up the service instance registered under the given kind and
name and print it.

Examples:
  dockhand get cache sessions
  dockhand get relational-db orders --output json`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVarP(&getOutputFormat, "output", "o", "yaml", "Output format (json, yaml)")
}

func runGet(cmd *cobra.Command, args []string) error {
	kind, err := service.ParseKind(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	e, cleanup, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	inst, err := e.GetServiceByName(ctx, kind, args[1])
	if err != nil {
		return err
	}
	if inst == nil {
		return service.NewServiceNotFoundError(string(kind) + "/" + args[1])
	}

	switch getOutputFormat {
	case "json":
		return printJSON(cmd, inst)
	case "yaml":
		return printYAML(cmd, inst)
	default:
		return fmt.Errorf("unknown output format %q (json, yaml)", getOutputFormat)
	}
}
