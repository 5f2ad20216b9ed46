package main

import (
	"fmt"

	"github.com/aretw0/blocks/internal/presentation/graph"
	"github.com/aretw0/blocks/pkg/registry"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <page-id>",
	Short: "Export the page tree as a Mermaid diagram",
	Long:  `Outputs a Mermaid flowchart (graph TD) of the stored page tree. Nodes showing a collection field are highlighted.`,
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

		overlay := &graph.GraphOverlay{}
		overlay.Current, _ = cmd.Flags().GetString("current")
		reg := registry.NewRegistry()
		if err := reg.Rebuild(page.Root); err != nil {
			return err
		}
		for _, name := range reg.Names() {
			n, _ := reg.Get(name)
			overlay.Displayed = append(overlay.Displayed, n.Key)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(page.Root, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("current", "", "Key of a node to highlight")
}
