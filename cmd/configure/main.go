package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/storekit/storefront-api/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "storefront-configure",
		Short: "Administration tool for the Storefront API",
		Long:  "CLI tool for managing user roles and checking backing services",
	}

	rootCmd.AddCommand(commands.NewRoleCmd())
	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
