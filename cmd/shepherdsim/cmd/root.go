// Package cmd provides the command-line interface for shepherdsim.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shepherdsim",
	Short: "shepherdsim drives a Shepherd Cache tag store from a trace file",
	Long: `shepherdsim replays a trace of memory accesses against an ` +
		`OptTagStore and reports the resulting replacement statistics.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintln(os.Stderr, "shepherdsim: no .env file found, using process environment")
		}
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
