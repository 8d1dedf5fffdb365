package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/owizdom/mind-agent/internal/assistant"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance [repo#number]",
	Short: "Append an AI triage note to an issue's task brief",
	Long: `Use AI to append a triage note to a task brief.

The note suggests a likely root cause, a starting file, and risks the fix
must not break. Re-running replaces the previous note.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		model, _ := cmd.Flags().GetString("model")

		issue := mustFindIssue(args[0])
		if issue.BriefPath == "" {
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(os.Stderr, "%s No brief for %s (state: %s)\n", red("✗"), issue.Key(), issue.State)
			os.Exit(1)
		}

		data, err := os.ReadFile(issue.BriefPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read brief: %v\n", err)
			os.Exit(1)
		}

		enhancer, err := assistant.NewEnhancer(&assistant.Config{Model: model})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s Requesting triage note for %s...\n", cyan("→"), issue.Key())

		enhanced, err := enhancer.Enhance(context.Background(), string(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: enhancement failed: %v\n", err)
			os.Exit(1)
		}

		if dryRun {
			fmt.Println(enhanced)
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("\n%s Dry run mode - brief not modified\n", yellow("⚠"))
			return
		}

		if err := os.WriteFile(issue.BriefPath, []byte(enhanced), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to write brief: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Triage note added to %s\n", green("✓"), issue.BriefPath)
	},
}

func init() {
	enhanceCmd.Flags().Bool("dry-run", false, "Print the enhanced brief without writing it")
	enhanceCmd.Flags().String("model", "", "Model to use (default: "+assistant.DefaultModel+")")
	rootCmd.AddCommand(enhanceCmd)
}
