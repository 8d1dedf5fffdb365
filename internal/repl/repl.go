// Package repl implements the interactive triage shell. It drives issue
// sightings through their lifecycle by hand: inspect briefs, hand issues
// to an assistant, and record fixes and pushes.
package repl

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/owizdom/mind-agent/internal/storage"
	"github.com/owizdom/mind-agent/internal/types"
)

// REPL represents the interactive triage shell
type REPL struct {
	store    storage.Storage
	rl       *readline.Instance
	ctx      context.Context
	actor    string
	commands map[string]CommandHandler
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// Config holds REPL configuration
type Config struct {
	Store storage.Storage
	Actor string
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}

	actor := cfg.Actor
	if actor == "" {
		actor = "user"
	}

	r := &REPL{
		store:    cfg.Store,
		actor:    actor,
		commands: make(map[string]CommandHandler),
	}
	r.registerCommands()
	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("mind> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	r.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			} else if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := r.processInput(line); err != nil {
			if err == io.EOF {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Printf("%s %v\n", red("Error:"), err)
		}
	}
}

// processInput dispatches a single line of input
func (r *REPL) processInput(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	command := parts[0]
	args := parts[1:]

	if handler, ok := r.commands[command]; ok {
		return handler(args)
	}

	return fmt.Errorf("unknown command %q (try 'help')", command)
}

func (r *REPL) registerCommands() {
	r.commands["help"] = r.cmdHelp
	r.commands["?"] = r.cmdHelp
	r.commands["list"] = r.cmdList
	r.commands["show"] = r.cmdShow
	r.commands["events"] = r.cmdEvents
	r.commands["stats"] = r.cmdStats
	r.commands["start"] = r.transitionCmd(types.StateInProgress)
	r.commands["fixed"] = r.transitionCmd(types.StateFixed)
	r.commands["pushed"] = r.transitionCmd(types.StatePushed)
	r.commands["skip"] = r.transitionCmd(types.StateSkipped)
	r.commands["exit"] = r.cmdExit
	r.commands["quit"] = r.cmdExit
}

func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n", cyan("mind-agent triage shell"))
	fmt.Println("Type 'help' for available commands, 'exit' to quit")
	fmt.Println()
}

// parseIssueRef accepts "repo#number" or "repo number".
func parseIssueRef(args []string) (string, int, error) {
	switch len(args) {
	case 1:
		idx := strings.LastIndex(args[0], "#")
		if idx <= 0 || idx == len(args[0])-1 {
			return "", 0, fmt.Errorf("expected repo#number (got %q)", args[0])
		}
		number, err := strconv.Atoi(args[0][idx+1:])
		if err != nil {
			return "", 0, fmt.Errorf("invalid issue number in %q", args[0])
		}
		return args[0][:idx], number, nil
	case 2:
		number, err := strconv.Atoi(args[1])
		if err != nil {
			return "", 0, fmt.Errorf("invalid issue number %q", args[1])
		}
		return args[0], number, nil
	default:
		return "", 0, fmt.Errorf("expected repo#number")
	}
}

func (r *REPL) cmdList(args []string) error {
	filter := types.IssueFilter{Limit: 50}
	if len(args) > 0 {
		state := types.State(args[0])
		if !state.IsValid() {
			return fmt.Errorf("invalid state %q", args[0])
		}
		filter.State = &state
	}

	issues, err := r.store.ListIssues(r.ctx, filter)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		fmt.Println("No issues.")
		return nil
	}

	for _, issue := range issues {
		fmt.Printf("  %-12s %-30s %s\n", stateColor(issue.State), issue.Key(), issue.Title)
	}
	return nil
}

func (r *REPL) cmdShow(args []string) error {
	repo, number, err := parseIssueRef(args)
	if err != nil {
		return err
	}
	issue, err := r.store.GetIssue(r.ctx, repo, number)
	if err != nil {
		return err
	}
	if issue == nil {
		return fmt.Errorf("no sighting of %s#%d", repo, number)
	}

	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("\n%s %s\n", bold(issue.Key()), issue.Title)
	fmt.Printf("  State:  %s\n", stateColor(issue.State))
	if issue.URL != "" {
		fmt.Printf("  URL:    %s\n", issue.URL)
	}
	if issue.Branch != "" {
		fmt.Printf("  Branch: %s\n", issue.Branch)
	}
	if issue.BriefPath != "" {
		fmt.Printf("  Brief:  %s\n", issue.BriefPath)
	}
	if len(issue.Labels) > 0 {
		fmt.Printf("  Labels: %s\n", strings.Join(issue.Labels, ", "))
	}
	fmt.Printf("  Seen:   %s\n", issue.SeenAt.Format("2006-01-02 15:04:05"))

	comments, err := r.store.GetComments(r.ctx, repo, number)
	if err != nil {
		return err
	}
	if len(comments) > 0 {
		fmt.Printf("\n  %d comment(s), latest by %s\n", len(comments), comments[len(comments)-1].Author)
	}
	fmt.Println()
	return nil
}

func (r *REPL) cmdEvents(args []string) error {
	repo, number, err := parseIssueRef(args)
	if err != nil {
		return err
	}
	events, err := r.store.GetEvents(r.ctx, repo, number, 20)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No events.")
		return nil
	}
	for _, ev := range events {
		fmt.Printf("  %s  %-14s %s\n",
			ev.CreatedAt.Format("2006-01-02 15:04:05"), ev.EventType, ev.Detail)
	}
	return nil
}

func (r *REPL) cmdStats(args []string) error {
	stats, err := r.store.GetStatistics(r.ctx)
	if err != nil {
		return err
	}
	fmt.Printf("  Total:   %d\n", stats.TotalIssues)
	fmt.Printf("  New:     %d\n", stats.NewIssues)
	fmt.Printf("  Ready:   %d\n", stats.ReadyIssues)
	fmt.Printf("  Skipped: %d\n", stats.SkippedIssues)
	fmt.Printf("  Pushed:  %d\n", stats.PushedIssues)
	return nil
}

// transitionCmd builds a handler that moves an issue to the target state.
func (r *REPL) transitionCmd(to types.State) CommandHandler {
	return func(args []string) error {
		repo, number, err := parseIssueRef(args)
		if err != nil {
			return err
		}
		if err := r.store.TransitionIssue(r.ctx, repo, number, to, r.actor, "via triage shell"); err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s %s#%d -> %s\n", green("✓"), repo, number, to)
		return nil
	}
}

func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"list [state]", "List sighted issues, optionally filtered by state"},
		{"show repo#n", "Show one issue sighting"},
		{"events repo#n", "Show the audit trail for an issue"},
		{"stats", "Show aggregate sighting statistics"},
		{"start repo#n", "Mark a ready issue as in progress"},
		{"fixed repo#n", "Mark an in-progress issue as fixed"},
		{"pushed repo#n", "Mark a fixed issue as pushed"},
		{"skip repo#n", "Skip a new issue"},
		{"help, ?", "Show this help message"},
		{"exit, quit", "Exit the shell"},
	}
	green := color.New(color.FgGreen).SprintFunc()
	for _, cmd := range commands {
		fmt.Printf("  %-16s %s\n", green(cmd.name), cmd.desc)
	}
	fmt.Println()
	return nil
}

func (r *REPL) cmdExit(args []string) error {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s Goodbye!\n", green("✓"))
	return io.EOF
}

func stateColor(s types.State) string {
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
