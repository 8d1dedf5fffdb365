package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/owizdom/mind-agent/internal/config"
	"github.com/owizdom/mind-agent/internal/storage"
)

// Shared state for subcommands, populated by the root pre-run.
var (
	configDir string
	actor     string
	cfg       *config.Config
	store     storage.Storage
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "mind-agent",
	Short: "Issue-polling agent that prepares task briefs for coding assistants",
	Long: `mind-agent polls a forge for open issues, records each sighting,
prepares a local git workspace per issue, and writes a task brief ranking
the files most relevant to the problem. Briefs are handed off to an
external coding assistant; the triage shell tracks the fix through to
push.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init and version must work before any state exists
		switch cmd.Name() {
		case "init", "version", "scan", "help", "completion":
			return nil
		}

		var err error
		cfg, err = config.Load(configDir)
		if err != nil {
			return err
		}

		store, err = storage.NewStorage(context.Background(), &storage.Config{
			Path: cfg.Database.Path,
		})
		if err != nil {
			return fmt.Errorf("failed to open sighting database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to close database: %v\n", err)
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", config.DefaultDir,
		"Directory holding config.yaml and agent state")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "user",
		"Actor name recorded in the audit trail")
}
