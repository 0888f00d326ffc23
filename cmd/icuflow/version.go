package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaktimishra84/icuflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of icuflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("icuflow version %s\n", strings.TrimSpace(icuflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
