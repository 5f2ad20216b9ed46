package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/blocks"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of blocks",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "blocks version %s\n", strings.TrimSpace(blocks.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
