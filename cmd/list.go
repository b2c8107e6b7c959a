package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available recipe types",
		Long:  "List the declarative recipe types that pipeline files can reference.",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			ui.DisplayRecipeTypes(context.Background(), registry.Types())
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
