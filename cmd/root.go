package cmd

import (
	"errors"
	"os"

	"dockhand/internal/service"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands. These follow common conventions so scripts can
// distinguish bad input from operational failures.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (runtime failure, store failure).
	ExitCodeError = 1
	// ExitCodeInvalidInput indicates the definition or arguments were rejected.
	ExitCodeInvalidInput = 2
)

// rootCmd represents the base command for the dockhand application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dockhand",
	Short: "Provision and manage infrastructure services on a container runtime",
	Long: `dockhand provisions long-lived infrastructure services (relational
databases, caches, message brokers, object stores) as containers on the local
container runtime, tracks them across restarts, and gates provisioning on
service health.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This is called from the main package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "dockhand version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps error types to semantic exit codes.
func getExitCode(err error) int {
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		return ExitCodeInvalidInput
	}
	return ExitCodeError
}
