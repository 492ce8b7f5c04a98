// Package main provides the attendctl command line: local evaluation of
// attendance files and smoke runs against a live server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "attendctl",
		Short:         "Attendance evaluator tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newSmokeCmd())

	return rootCmd
}
