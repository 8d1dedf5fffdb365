package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/owizdom/mind-agent/internal/brief"
	"github.com/owizdom/mind-agent/internal/scan"
	"github.com/owizdom/mind-agent/internal/types"
	"github.com/owizdom/mind-agent/internal/workspace"
)

var briefCmd = &cobra.Command{
	Use:   "brief [repo#number]",
	Short: "Print or regenerate the task brief for an issue",
	Long: `Print the task brief for a sighted issue.

With --regenerate, the workspace is refreshed and the relevance scan and
brief are rebuilt from the stored sighting, superseding the previous brief
file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pathOnly, _ := cmd.Flags().GetBool("path")
		regenerate, _ := cmd.Flags().GetBool("regenerate")

		issue := mustFindIssue(args[0])

		if regenerate {
			path, err := regenerateBrief(context.Background(), issue)
			if err != nil {
				return fmt.Errorf("failed to regenerate brief: %w", err)
			}
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintf(os.Stderr, "%s Brief regenerated: %s\n", green("✓"), path)
			issue.BriefPath = path
		}

		if issue.BriefPath == "" {
			return fmt.Errorf("no brief for %s (state: %s)", issue.Key(), issue.State)
		}

		if pathOnly {
			fmt.Println(issue.BriefPath)
			return nil
		}

		data, err := os.ReadFile(issue.BriefPath)
		if err != nil {
			return fmt.Errorf("failed to read brief: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

// regenerateBrief refreshes the workspace, re-runs the relevance scan and
// rewrites the brief at its deterministic path.
func regenerateBrief(ctx context.Context, issue *types.Issue) (string, error) {
	workspaces, err := workspace.NewManager(workspace.Config{
		Root:         cfg.Workspace.Root,
		ForgeBaseURL: cfg.Forge.BaseURL,
		Token:        cfg.Forge.Token,
	})
	if err != nil {
		return "", err
	}

	path, err := workspaces.Ensure(ctx, issue.Repo, issue.WorkBranch())
	if err != nil {
		return "", err
	}

	comments, err := store.GetComments(ctx, issue.Repo, issue.Number)
	if err != nil {
		return "", err
	}

	text := issue.Title + "\n" + issue.Body
	for _, c := range comments {
		text += "\n" + c.Body
	}

	rules := scan.DefaultRules()
	if cfg.Briefs.ScanRules != "" {
		rules, err = scan.LoadRules(cfg.Briefs.ScanRules)
		if err != nil {
			return "", err
		}
	}

	files, err := scan.NewScorer(rules).Rank(path, scan.FileRefs(text), scan.Keywords(text))
	if err != nil {
		return "", err
	}

	generator, err := brief.NewGenerator()
	if err != nil {
		return "", err
	}
	document, err := generator.Render(issue, comments, files, path)
	if err != nil {
		return "", err
	}
	return brief.Write(cfg.Briefs.Dir, issue.Repo, issue.Number, document)
}

// parseIssueArg parses "repo#number".
func parseIssueArg(arg string) (string, int, error) {
	idx := strings.LastIndex(arg, "#")
	if idx <= 0 || idx == len(arg)-1 {
		return "", 0, fmt.Errorf("expected repo#number (got %q)", arg)
	}
	number, err := strconv.Atoi(arg[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid issue number in %q", arg)
	}
	return arg[:idx], number, nil
}

// mustFindIssue loads a sighting or exits with an error.
func mustFindIssue(arg string) *types.Issue {
	repo, number, err := parseIssueArg(arg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	issue, err := store.GetIssue(context.Background(), repo, number)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if issue == nil {
		fmt.Fprintf(os.Stderr, "No sighting of %s#%d\n", repo, number)
		os.Exit(1)
	}
	return issue
}

func init() {
	briefCmd.Flags().Bool("path", false, "Print only the brief file path")
	briefCmd.Flags().Bool("regenerate", false, "Rebuild the workspace, scan and brief before printing")
	rootCmd.AddCommand(briefCmd)
}
