package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"dockhand/internal/service"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	listOwner        string
	listOutputFormat string
)

// listCmd represents the list command.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List service instances",
	Long: `List all known service instances, including instances discovered
from the runtime and from persisted records.

Examples:
  dockhand list
  dockhand list --owner tenant-a
  dockhand list --output json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listOwner, "owner", "", "Only show instances with this owner")
	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, cleanup, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	instances, err := e.List(ctx, listOwner)
	if err != nil {
		return err
	}

	switch listOutputFormat {
	case "json":
		return printJSON(cmd, instances)
	case "yaml":
		return printYAML(cmd, instances)
	case "table":
		renderTable(cmd, instances)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (table, json, yaml)", listOutputFormat)
	}
}

func renderTable(cmd *cobra.Command, instances []service.Instance) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "KIND", "NAME", "STATUS", "HEALTH", "ENDPOINT", "OWNER", "AGE"})

	for _, inst := range instances {
		t.AppendRow(table.Row{
			shortID(inst.ID),
			inst.Kind,
			inst.Name,
			inst.Status,
			inst.Health,
			inst.Endpoint,
			inst.Owner,
			age(inst.CreatedAt),
		})
	}

	t.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func age(createdAt time.Time) string {
	d := time.Since(createdAt)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(cmd *cobra.Command, v interface{}) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	defer enc.Close()
	return enc.Encode(v)
}
