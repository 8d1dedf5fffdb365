// Package notify announces issues that became ready for work. Delivery is
// best-effort: a failed notification is logged and never blocks the poll
// loop or changes issue state.
package notify

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/owizdom/mind-agent/internal/types"
)

// commandTimeout bounds how long an external notifier may run.
const commandTimeout = 30 * time.Second

// Notifier announces a ready issue.
type Notifier interface {
	// Notify announces that an issue brief is ready at briefPath.
	Notify(ctx context.Context, issue *types.Issue, briefPath string) error
}

// StderrNotifier writes a one-line announcement to stderr. It is the
// default when no notify command is configured.
type StderrNotifier struct{}

// Notify writes the announcement to stderr.
func (n *StderrNotifier) Notify(_ context.Context, issue *types.Issue, briefPath string) error {
	_, err := fmt.Fprintf(os.Stderr, "[mind-agent] %s ready: %s (brief: %s)\n",
		issue.Key(), issue.Title, briefPath)
	return err
}

// CommandNotifier runs a user-configured command for each ready issue.
// Occurrences of {repo}, {number}, {title}, {url} and {brief} in the argv
// are replaced before execution.
type CommandNotifier struct {
	argv []string
}

// NewCommandNotifier builds a notifier from an argv template. The first
// element is the program, the rest are arguments.
func NewCommandNotifier(argv []string) (*CommandNotifier, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("notify command is empty")
	}
	return &CommandNotifier{argv: argv}, nil
}

// Notify runs the command with placeholders expanded.
func (n *CommandNotifier) Notify(ctx context.Context, issue *types.Issue, briefPath string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	expanded := make([]string, len(n.argv))
	for i, arg := range n.argv {
		expanded[i] = expand(arg, issue, briefPath)
	}

	cmd := exec.CommandContext(ctx, expanded[0], expanded[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("notify command failed: %w (output: %s)", err, output)
	}
	return nil
}

func expand(arg string, issue *types.Issue, briefPath string) string {
	r := strings.NewReplacer(
		"{repo}", issue.Repo,
		"{number}", strconv.Itoa(issue.Number),
		"{title}", issue.Title,
		"{url}", issue.URL,
		"{brief}", briefPath,
	)
	return r.Replace(arg)
}

// Announce sends the notification and swallows failures. The error is
// logged so operators can see misconfigured commands.
func Announce(ctx context.Context, n Notifier, issue *types.Issue, briefPath string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, issue, briefPath); err != nil {
		log.Printf("notification for %s failed: %v", issue.Key(), err)
	}
}
