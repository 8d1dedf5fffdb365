package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/owizdom/mind-agent/internal/config"
	"github.com/owizdom/mind-agent/internal/storage"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize mind-agent state in the current directory",
	Long: `Initialize mind-agent by creating the .mind-agent/ state directory.

This creates:
  - .mind-agent/config.yaml (default configuration to edit)
  - .mind-agent/sightings.db (SQLite database)
  - .mind-agent/workspaces/ and .mind-agent/briefs/

Example:
  cd ~/myproject
  mind-agent init
  $EDITOR .mind-agent/config.yaml   # add forge groups or repos
  MIND_AGENT_FORGE_TOKEN=... mind-agent run`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		configPath := filepath.Join(configDir, "config.yaml")
		if _, err := os.Stat(configPath); err == nil && !force {
			fmt.Fprintf(os.Stderr, "Error: %s already exists (use --force to overwrite)\n", configPath)
			os.Exit(1)
		}

		defaults := config.Default()
		if err := defaults.Save(configDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		for _, dir := range []string{defaults.Workspace.Root, defaults.Briefs.Dir} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to create %s: %v\n", dir, err)
				os.Exit(1)
			}
		}

		// Create the schema by opening and closing the database
		db, err := storage.NewStorage(context.Background(), &storage.Config{Path: defaults.Database.Path})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to initialize database: %v\n", err)
			os.Exit(1)
		}
		_ = db.Close()

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized mind-agent\n\n", green("✓"))
		fmt.Printf("  Config:   %s\n", cyan(configPath))
		fmt.Printf("  Database: %s\n", cyan(defaults.Database.Path))
		fmt.Println()
		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray("edit "+configPath+" and add forge groups or repos"))
		fmt.Printf("  %s\n", gray("export MIND_AGENT_FORGE_TOKEN=<token>"))
		fmt.Printf("  %s\n", gray("mind-agent doctor"))
		fmt.Printf("  %s\n", gray("mind-agent run"))
		fmt.Println()
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing config.yaml")
	rootCmd.AddCommand(initCmd)
}
