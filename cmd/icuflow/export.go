package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaktimishra84/icuflow"
	"github.com/shaktimishra84/icuflow/internal/logging"
	"github.com/shaktimishra84/icuflow/pkg/adapters/file"
)

var exportCmd = &cobra.Command{
	Use:   "export <case-id>",
	Short: "Export the transcript of a persisted case",
	Long: `Projects a case into its portable export record. By default the record
is printed as JSON; --format csv prints the transcript table instead,
and --out writes both files into a directory.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		caseID := args[0]
		format, _ := cmd.Flags().GetString("format")
		outDir, _ := cmd.Flags().GetString("out")

		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		app, err := icuflow.New(cfg.Data.Dir,
			icuflow.WithLogger(logging.New(logging.ParseLevel(cfg.Logging.Level))),
			icuflow.WithStore(file.New(cfg.Store.Path)),
		)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		rec, err := app.Transcript(cmd.Context(), caseID)
		if err != nil {
			fmt.Printf("Error exporting '%s': %v\n", caseID, err)
			os.Exit(1)
		}

		if outDir != "" {
			exporter := file.NewExporter(outDir)
			if err := exporter.Export(cmd.Context(), rec); err != nil {
				fmt.Printf("Error writing export: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Wrote %s.json and %s.csv to %s\n", caseID, caseID, exporter.Dir)
			return
		}

		switch format {
		case "csv":
			if err := rec.WriteCSV(os.Stdout); err != nil {
				fmt.Printf("Error writing csv: %v\n", err)
				os.Exit(1)
			}
		default:
			data, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				fmt.Printf("Error marshaling record: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "json", "Output format: 'json' or 'csv'")
	exportCmd.Flags().StringP("out", "o", "", "Write <case-id>.json and <case-id>.csv into this directory")
}
