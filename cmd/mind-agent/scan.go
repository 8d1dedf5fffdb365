package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/owizdom/mind-agent/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Run the relevance scan against a directory",
	Long: `Run the relevance scan for ad-hoc issue text against a local
directory and print the ranked files.

The issue text is taken from --text, or from stdin when --text is empty.
Useful for tuning scan rules without polling a forge.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		rulesPath, _ := cmd.Flags().GetString("rules")

		if text == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read issue text from stdin: %w", err)
			}
			text = string(data)
		}
		if text == "" {
			return fmt.Errorf("no issue text (use --text or pipe to stdin)")
		}

		rules := scan.DefaultRules()
		if rulesPath != "" {
			var err error
			rules, err = scan.LoadRules(rulesPath)
			if err != nil {
				return fmt.Errorf("failed to load scan rules: %w", err)
			}
		}

		keywords := scan.Keywords(text)
		refs := scan.FileRefs(text)

		files, err := scan.NewScorer(rules).Rank(args[0], refs, keywords)
		if err != nil {
			return err
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("%s\n", gray(fmt.Sprintf("%d keyword(s), %d file reference(s)", len(keywords), len(refs))))

		if len(files) == 0 {
			fmt.Println("No relevant files.")
			return nil
		}
		bold := color.New(color.Bold).SprintFunc()
		for _, f := range files {
			fmt.Printf("  %3d  %-40s %s\n", f.Score, bold(f.Path), gray(f.Reason))
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().String("text", "", "Issue text to extract keywords and references from")
	scanCmd.Flags().String("rules", "", "Path to a scan rules YAML file")
	rootCmd.AddCommand(scanCmd)
}
