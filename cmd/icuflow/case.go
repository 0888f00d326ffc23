package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaktimishra84/icuflow/pkg/adapters/file"
)

var caseCmd = &cobra.Command{
	Use:   "case",
	Short: "Manage persisted cases",
	Long:  `List, inspect, and remove cases stored by the file backend.`,
}

var caseLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all persisted cases",
	Run: func(cmd *cobra.Command, args []string) {
		store := getStore(cmd)
		cases, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing cases: %v\n", err)
			os.Exit(1)
		}

		if len(cases) == 0 {
			fmt.Println("No cases found.")
			return
		}

		fmt.Println("Cases:")
		for _, id := range cases {
			fmt.Println("- " + id)
		}
	},
}

var caseInspectCmd = &cobra.Command{
	Use:   "inspect <case-id>",
	Short: "Inspect the state and transcript of a case",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		caseID := args[0]
		store := getStore(cmd)

		c, err := store.Load(cmd.Context(), caseID)
		if err != nil {
			fmt.Printf("Error loading case '%s': %v\n", caseID, err)
			os.Exit(1)
		}

		// Pretty print JSON
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling case: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(data))
	},
}

var caseRmCmd = &cobra.Command{
	Use:   "rm <case-id>...",
	Short: "Remove one or more cases",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := getStore(cmd)
		hasError := false

		for _, caseID := range args {
			if err := store.Delete(cmd.Context(), caseID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", caseID, err)
				hasError = true
			} else {
				fmt.Printf("Removed case '%s'\n", caseID)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(caseCmd)
	caseCmd.AddCommand(caseLsCmd)
	caseCmd.AddCommand(caseInspectCmd)
	caseCmd.AddCommand(caseRmCmd)
}

func getStore(cmd *cobra.Command) *file.Store {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return file.New("")
	}
	return file.New(cfg.Store.Path)
}
