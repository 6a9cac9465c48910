package main

import (
	"fmt"
	"os"

	"github.com/fluentive/fluentive/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "fluentive-configure",
		Short: "Configuration tool for the Fluentive accuracy worker",
		Long:  "CLI tool for managing scoring weight profiles and verifying service connectivity",
	}

	rootCmd.AddCommand(commands.NewWeightsCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
