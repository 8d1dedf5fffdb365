package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/owizdom/mind-agent/internal/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive triage shell",
	Long: `Start an interactive shell for triaging sighted issues.

The shell drives issues through their lifecycle by hand: list sightings,
inspect briefs and audit trails, hand issues to an assistant, and record
fixes and pushes.

Type 'help' in the shell for available commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		r, err := repl.New(&repl.Config{
			Store: store,
			Actor: actor,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create shell: %v\n", err)
			os.Exit(1)
		}

		if err := r.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
