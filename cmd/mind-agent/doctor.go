package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

// minGitVersion is the oldest git the workspace manager is tested with.
// Older versions lack reliable --prune fetch semantics.
const minGitVersion = "v2.20.0"

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check installation and environment health",
	Long: `Run health checks to diagnose common configuration and environment
issues.

This command checks for:
- A usable git binary of a supported version
- Valid configuration with at least one poll target
- Forge token availability
- Database accessibility
- Briefs and workspace directories

Exit codes:
  0 - All checks passed
  1 - One or more checks failed`,
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("Running mind-agent health checks...\n\n")

		var failures []string
		var warnings []string

		// Check 1: git binary and version
		fmt.Printf("%s Git installation\n", cyan("→"))
		if gitVersion, err := detectGitVersion(); err != nil {
			failures = append(failures, fmt.Sprintf("git not usable: %v", err))
			fmt.Printf("  %s git not found or not runnable\n", red("✗"))
			if verbose {
				fmt.Printf("    Error: %v\n", err)
			}
		} else {
			fmt.Printf("  %s git %s\n", green("✓"), strings.TrimPrefix(gitVersion, "v"))
			if semver.Compare(gitVersion, minGitVersion) < 0 {
				warnings = append(warnings, fmt.Sprintf("git %s is older than %s", gitVersion, minGitVersion))
				fmt.Printf("  %s WARNING: git older than %s\n", yellow("⚠"), strings.TrimPrefix(minGitVersion, "v"))
			}
		}

		// Check 2: configuration
		fmt.Printf("%s Configuration\n", cyan("→"))
		if err := cfg.Validate(); err != nil {
			failures = append(failures, fmt.Sprintf("invalid configuration: %v", err))
			fmt.Printf("  %s Configuration invalid\n", red("✗"))
			if verbose {
				fmt.Printf("    Error: %v\n", err)
			}
		} else {
			targets := len(cfg.Forge.Repos) + len(cfg.Forge.Groups)
			fmt.Printf("  %s Configuration valid (%d poll target(s))\n", green("✓"), targets)
		}

		// Check 3: forge token
		fmt.Printf("%s Forge token\n", cyan("→"))
		if cfg.Forge.Token == "" {
			warnings = append(warnings, "no forge token configured (private repos will fail)")
			fmt.Printf("  %s No token (set MIND_AGENT_FORGE_TOKEN)\n", yellow("⚠"))
		} else {
			fmt.Printf("  %s Token configured\n", green("✓"))
		}

		// Check 4: database
		fmt.Printf("%s Sighting database\n", cyan("→"))
		if stats, err := store.GetStatistics(context.Background()); err != nil {
			failures = append(failures, fmt.Sprintf("database not usable: %v", err))
			fmt.Printf("  %s Database query failed\n", red("✗"))
			if verbose {
				fmt.Printf("    Error: %v\n", err)
			}
		} else {
			fmt.Printf("  %s Database accessible (%d sighting(s))\n", green("✓"), stats.TotalIssues)
		}

		// Check 5: directories
		fmt.Printf("%s Directories\n", cyan("→"))
		for _, dir := range []string{cfg.Briefs.Dir, cfg.Workspace.Root} {
			if err := checkWritableDir(dir); err != nil {
				failures = append(failures, fmt.Sprintf("directory %s not writable: %v", dir, err))
				fmt.Printf("  %s %s not writable\n", red("✗"), dir)
				if verbose {
					fmt.Printf("    Error: %v\n", err)
				}
			} else {
				fmt.Printf("  %s %s\n", green("✓"), dir)
			}
		}

		// Summary
		fmt.Println()
		for _, w := range warnings {
			fmt.Printf("%s %s\n", yellow("⚠"), w)
		}
		if len(failures) > 0 {
			fmt.Printf("%s %d check(s) failed\n", red("✗"), len(failures))
			os.Exit(1)
		}
		fmt.Printf("%s All checks passed\n", green("✓"))
	},
}

// detectGitVersion returns the installed git version as a semver string.
func detectGitVersion() (string, error) {
	output, err := exec.Command("git", "--version").Output()
	if err != nil {
		return "", err
	}
	// "git version 2.39.2" or "git version 2.39.2.windows.1"
	fields := strings.Fields(strings.TrimSpace(string(output)))
	raw := fields[len(fields)-1]
	parts := strings.Split(raw, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	version := "v" + strings.Join(parts, ".")
	if !semver.IsValid(version) {
		return "", fmt.Errorf("unparseable git version %q", raw)
	}
	return version, nil
}

// checkWritableDir makes sure the directory exists and accepts writes.
func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

func init() {
	doctorCmd.Flags().BoolP("verbose", "v", false, "Show detailed error output")
	rootCmd.AddCommand(doctorCmd)
}
