package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/owizdom/mind-agent/internal/types"
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "List sighted issues",
	Run: func(cmd *cobra.Command, args []string) {
		repo, _ := cmd.Flags().GetString("repo")
		stateFlag, _ := cmd.Flags().GetString("state")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := types.IssueFilter{Repo: repo, Limit: limit}
		if stateFlag != "" {
			state := types.State(stateFlag)
			if !state.IsValid() {
				fmt.Fprintf(os.Stderr, "Error: invalid state %q\n", stateFlag)
				os.Exit(1)
			}
			filter.State = &state
		}

		issues, err := store.ListIssues(context.Background(), filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list issues: %v\n", err)
			os.Exit(1)
		}

		if len(issues) == 0 {
			gray := color.New(color.FgHiBlack).SprintFunc()
			fmt.Printf("%s\n", gray("No issues."))
			return
		}

		for _, issue := range issues {
			fmt.Printf("%-12s %-35s %s\n", colorState(issue.State), issue.Key(), issue.Title)
		}
	},
}

func colorState(s types.State) string {
	switch s {
	case types.StateNew:
		return color.New(color.FgYellow).Sprint(string(s))
	case types.StateReady:
		return color.New(color.FgGreen).Sprint(string(s))
	case types.StateInProgress:
		return color.New(color.FgCyan).Sprint(string(s))
	case types.StateFixed, types.StatePushed:
		return color.New(color.FgBlue).Sprint(string(s))
	case types.StateSkipped:
		return color.New(color.FgRed).Sprint(string(s))
	default:
		return string(s)
	}
}

func init() {
	issuesCmd.Flags().String("repo", "", "Filter by repository path")
	issuesCmd.Flags().String("state", "", "Filter by lifecycle state")
	issuesCmd.Flags().Int("limit", 100, "Maximum issues to list")
	rootCmd.AddCommand(issuesCmd)
}
