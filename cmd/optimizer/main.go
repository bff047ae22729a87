// Package main is the entry point for the loadout optimizer CLI
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loadout-api",
	Short: "Loadout optimizer CLI",
	Long:  `Searches an item catalog for the best legal nine-slot loadouts under configurable weights, targets, and budgets.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(loadCmd)
}
