package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/owizdom/mind-agent/internal/forge"
	"github.com/owizdom/mind-agent/internal/notify"
	"github.com/owizdom/mind-agent/internal/poller"
	"github.com/owizdom/mind-agent/internal/scan"
	"github.com/owizdom/mind-agent/internal/workspace"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the polling event loop",
	Long: `Start the poller that continuously sights open issues.

Each cycle the poller will:
1. Expand configured groups into project lists
2. List open issues per repository and record sightings
3. Clone or update a workspace and check out a work branch per new issue
4. Scan the workspace for relevant files and write a task brief
5. Mark the issue ready and announce it

Continue until stopped with Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")
		pollSeconds, _ := cmd.Flags().GetInt("poll-interval")

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		p, err := buildPoller(pollSeconds)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		green := color.New(color.FgGreen).SprintFunc()

		if once {
			if err := p.RunCycle(ctx); err != nil {
				return err
			}
			fmt.Printf("%s Poll cycle complete\n", green("✓"))
			return nil
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		if err := p.Start(ctx); err != nil {
			return fmt.Errorf("failed to start poller: %w", err)
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s Poller started (version %s)\n", green("✓"), cyan(Version))
		fmt.Printf("  Forge: %s\n", cfg.Forge.BaseURL)
		fmt.Printf("  Polling every %v\n", effectiveInterval(pollSeconds))
		fmt.Printf("  Press Ctrl+C to stop\n\n")

		<-sigCh
		fmt.Println("\n\nShutting down poller...")

		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := p.Stop(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error during shutdown: %v\n", err)
		}

		fmt.Printf("%s Poller stopped\n", green("✓"))
		return nil
	},
}

// buildPoller wires the forge client, workspace manager, scan rules and
// notifier from the loaded configuration.
func buildPoller(pollSeconds int) (*poller.Poller, error) {
	client, err := forge.NewGitLabClient(forge.GitLabConfig{
		Token:             cfg.Forge.Token,
		BaseURL:           cfg.Forge.BaseURL,
		RequestsPerSecond: cfg.Forge.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create forge client: %w", err)
	}

	workspaces, err := workspace.NewManager(workspace.Config{
		Root:         cfg.Workspace.Root,
		ForgeBaseURL: cfg.Forge.BaseURL,
		Token:        cfg.Forge.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace manager: %w", err)
	}

	rules := scan.DefaultRules()
	if cfg.Briefs.ScanRules != "" {
		rules, err = scan.LoadRules(cfg.Briefs.ScanRules)
		if err != nil {
			return nil, fmt.Errorf("failed to load scan rules: %w", err)
		}
	}

	var notifier notify.Notifier = &notify.StderrNotifier{}
	if len(cfg.Notify.Command) > 0 {
		notifier, err = notify.NewCommandNotifier(cfg.Notify.Command)
		if err != nil {
			return nil, fmt.Errorf("invalid notify command: %w", err)
		}
	}

	pcfg := poller.DefaultConfig()
	pcfg.Store = store
	pcfg.Forge = client
	pcfg.Workspaces = workspaces
	pcfg.Notifier = notifier
	pcfg.Version = Version
	pcfg.Groups = cfg.Forge.Groups
	pcfg.Repos = cfg.Forge.Repos
	pcfg.BriefsDir = cfg.Briefs.Dir
	pcfg.ScanRules = rules
	pcfg.PollInterval = effectiveInterval(pollSeconds)
	pcfg.HeartbeatInterval = cfg.Poll.HeartbeatInterval
	pcfg.StaleThreshold = cfg.Poll.StaleAfter

	return poller.New(pcfg)
}

func effectiveInterval(pollSeconds int) time.Duration {
	if pollSeconds > 0 {
		return time.Duration(pollSeconds) * time.Second
	}
	return cfg.Poll.Interval
}

func init() {
	runCmd.Flags().Bool("once", false, "Run a single poll cycle and exit")
	runCmd.Flags().IntP("poll-interval", "i", 0, "Poll interval in seconds (overrides config)")
	rootCmd.AddCommand(runCmd)
}
