package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backendctl",
	Short: "Run and manage the sites and users backend",
	Long: `backendctl runs the sites and users REST backend and manages its
database schema, configuration and accounts.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
