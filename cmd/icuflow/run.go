package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shaktimishra84/icuflow"
	"github.com/shaktimishra84/icuflow/internal/logging"
	"github.com/shaktimishra84/icuflow/internal/presentation/tui"
	"github.com/shaktimishra84/icuflow/pkg/adapters/file"
	"github.com/shaktimishra84/icuflow/pkg/caselog"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <document-id>",
	Short: "Walk an algorithm interactively",
	Long: `Opens a case against the given document and walks its decision tree
step by step. Every choice is appended to the case transcript, which is
persisted so it can be inspected or exported later.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		metaPairs, _ := cmd.Flags().GetStringArray("meta")
		metadata, err := parseMetadata(metaPairs)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		// Interactive cases persist to the file store so they show up
		// in `icuflow case ls` afterwards.
		app, err := icuflow.New(cfg.Data.Dir,
			icuflow.WithLogger(logging.New(logging.ParseLevel(cfg.Logging.Level))),
			icuflow.WithStore(file.New(cfg.Store.Path)),
		)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if err := runInteractive(cmd, app, args[0], metadata); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringArray("meta", nil, "Case metadata as key=value (repeatable)")
}

func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q, want key=value", p)
		}
		meta[key] = value
	}
	return meta, nil
}

func runInteractive(cmd *cobra.Command, app *icuflow.App, documentID string, metadata map[string]string) error {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	render := func(s string) (string, error) { return s + "\n", nil }
	if interactive {
		tui.PrintBanner(icuflow.Version)
		render = tui.NewRenderer()
	}

	ctx := cmd.Context()
	c, err := app.StartCase(ctx, documentID, metadata)
	if err != nil {
		return err
	}
	runner, err := app.Runner(c)
	if err != nil {
		return err
	}

	fmt.Printf("Case %s (%s)\n", c.ID, c.DocumentID)
	reader := bufio.NewReader(os.Stdin)

	for {
		node, ok := runner.Current(c)
		if !ok {
			fmt.Printf("Reached unknown step '%s'. The document has a dead link here; restart the case or fix the document.\n", c.CurrentNodeID)
			break
		}

		out, err := render(node.Text)
		if err != nil {
			out = node.Text + "\n"
		}
		fmt.Print(out)

		if c.Status != caselog.StatusActive {
			fmt.Println("End of algorithm.")
			break
		}

		for i, opt := range node.Options {
			fmt.Printf("  %d) %s\n", i+1, opt.Label)
		}
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			// EOF ends the session; the case stays persisted.
			fmt.Println()
			break
		}
		input := strings.TrimSpace(line)

		switch input {
		case "exit", "quit":
			fmt.Println("Bye! Case saved as", c.ID)
			return nil
		case "restart":
			if c, err = app.Restart(ctx, c.ID); err != nil {
				return err
			}
			continue
		case "":
			continue
		}

		label := input
		if n, convErr := strconv.Atoi(input); convErr == nil && n >= 1 && n <= len(node.Options) {
			label = node.Options[n-1].Label
		}

		c, err = app.Choose(ctx, c.ID, label)
		if err != nil {
			fmt.Printf("  %v\n", err)
			c, _ = app.Case(ctx, c.ID)
		}
	}

	printSummary(c)
	return nil
}

func printSummary(c *caselog.Case) {
	fmt.Printf("\nTranscript (%d steps, status %s):\n", len(c.Transcript), c.Status)
	for _, entry := range c.Transcript {
		fmt.Printf("  %s  %s --[%s]--> %s\n",
			entry.Timestamp.Format("15:04:05"), entry.FromNodeID, entry.ChoiceLabel, entry.ToNodeID)
	}
	fmt.Printf("Case saved as %s\n", c.ID)
}
