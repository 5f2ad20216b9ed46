package main

import (
	"github.com/aretw0/blocks/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <page-id>",
	Short: "Print a page as an outline",
	Long:  `Prints the stored page tree. Markdown blocks are rendered when stdout is a terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		page, err := app.Engine.Page(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		tui.NewOutline(cmd.OutOrStdout()).Print(page)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
