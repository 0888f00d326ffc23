package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available algorithm documents",
	Run: func(cmd *cobra.Command, args []string) {
		app, cfg, err := newApp(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		query, _ := cmd.Flags().GetString("search")
		entries := app.Search(query)
		if len(entries) == 0 {
			fmt.Printf("No algorithm documents found in %s\n", cfg.Data.Dir)
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tNODES")
		for _, e := range entries {
			nodes := "-"
			if e.HasFlow {
				nodes = fmt.Sprintf("%d", e.Nodes)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Title, nodes)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("search", "s", "", "Filter documents by id or title substring")
}
