package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show agent instances and sighting statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("\n%s\n\n", cyan("=== mind-agent Status ==="))

		instances, err := store.GetActiveInstances(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get agent instances: %v\n", err)
			os.Exit(1)
		}

		yellow := color.New(color.FgYellow).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("%s\n", yellow("Agent Instances:"))
		if len(instances) == 0 {
			fmt.Printf("  %s\n", gray("No active agents"))
		} else {
			for _, inst := range instances {
				statusColor := green
				statusIcon := "●"
				// Flag a heartbeat more than two minutes old
				if time.Since(inst.LastHeartbeat) > 2*time.Minute {
					statusColor = color.New(color.FgYellow).SprintFunc()
					statusIcon = "⚠"
				}

				fmt.Printf("  %s %s\n", statusColor(statusIcon), statusColor(string(inst.Status)))
				fmt.Printf("    Instance:  %s\n", inst.InstanceID)
				fmt.Printf("    Host:      %s (PID %d)\n", inst.Hostname, inst.PID)
				fmt.Printf("    Started:   %s\n", inst.StartedAt.Format("2006-01-02 15:04:05"))
				fmt.Printf("    Heartbeat: %s (%v ago)\n",
					inst.LastHeartbeat.Format("15:04:05"),
					time.Since(inst.LastHeartbeat).Round(time.Second))
				fmt.Println()
			}
		}

		stats, err := store.GetStatistics(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get statistics: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s\n", yellow("Sightings:"))
		fmt.Printf("  Total:   %d\n", stats.TotalIssues)
		fmt.Printf("  New:     %d\n", stats.NewIssues)
		fmt.Printf("  Ready:   %s\n", green(fmt.Sprintf("%d", stats.ReadyIssues)))
		fmt.Printf("  Skipped: %d\n", stats.SkippedIssues)
		fmt.Printf("  Pushed:  %d\n", stats.PushedIssues)
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
