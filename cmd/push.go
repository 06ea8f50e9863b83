package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Replace the place graph with the curated import files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := app.Push(cmd.Context())
			if err != nil {
				return fmt.Errorf("push: %w", err)
			}
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), res.Message())
			return nil
		},
	}
}
