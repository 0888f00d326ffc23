package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [document-id]",
	Short: "Check decision graphs for consistency",
	Long:  `Crawls each document's decision graph from its start node and reports dead links and unreachable nodes. Without an argument, every document in the library is checked.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, _, err := newApp(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		var ids []string
		if len(args) > 0 {
			ids = args
		} else {
			for _, e := range app.Documents() {
				if e.HasFlow {
					ids = append(ids, e.ID)
				}
			}
		}

		failed := false
		for _, id := range ids {
			report, err := app.Validate(id)
			if err != nil {
				fmt.Printf("%s: %v\n", id, err)
				failed = true
				continue
			}
			if report.OK() {
				fmt.Printf("%s: ok\n", id)
				continue
			}

			failed = true
			if report.MissingStart {
				fmt.Printf("%s: start node does not exist\n", id)
			}
			for _, d := range report.Dangling {
				fmt.Printf("%s: dead link %s --[%s]--> %s\n", id, d.FromNodeID, d.Label, d.Target)
			}
			for _, n := range report.Unreachable {
				fmt.Printf("%s: unreachable node %s\n", id, n)
			}
		}

		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
