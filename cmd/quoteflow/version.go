package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/quoteflow"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of quoteflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "quoteflow version %s\n", strings.TrimSpace(quoteflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
