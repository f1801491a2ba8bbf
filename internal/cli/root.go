// Package cli implements the prlens command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apperr "github.com/prlens/prlens/internal/errors"
)

const version = "0.1.0"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitIssues       = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var rootCmd = &cobra.Command{
	Use:   "prlens",
	Short: "LLM-assisted pull request review",
	Long:  "prlens fetches a pull request diff, filters the changed files, asks an LLM for an accessibility or code review, and renders the validated comments as an HTML report.",
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

// fail prints err and records the exit code derived from its category.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	exitCode = exitCodeFor(err)
}

func exitCodeFor(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.ErrCodeConfiguration:
		return ExitUsageError
	case apperr.ErrCodeAccessDenied:
		return ExitAuthError
	default:
		return ExitRuntimeError
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print prlens version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "prlens version %s\n", version)
	},
}
