// Package main is the entry point for the provwatch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set by ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "provwatch:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "provwatch",
		Short:         "Health checks for AI providers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "provwatch.yaml", "path to configuration file")
	root.AddCommand(versionCmd(), checkCmd(), serveCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "provwatch %s (commit: %s, built: %s)\n", version, commit, date)
			return err
		},
	}
}
