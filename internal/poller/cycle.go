package poller

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/owizdom/mind-agent/internal/brief"
	"github.com/owizdom/mind-agent/internal/notify"
	"github.com/owizdom/mind-agent/internal/scan"
	"github.com/owizdom/mind-agent/internal/types"
)

// RunCycle performs one full poll: discover repositories, sight their open
// issues, and prepare any issue still in the new state. Per-repo and
// per-issue failures are reported but never abort the cycle.
func (p *Poller) RunCycle(ctx context.Context) error {
	repos, err := p.resolveRepos(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve repositories: %w", err)
	}

	for _, repo := range repos {
		issues, err := p.forge.ListOpenIssues(ctx, repo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list issues for %s: %v\n", repo, err)
			continue
		}
		for _, issue := range issues {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := p.processIssue(ctx, issue); err != nil {
				fmt.Fprintf(os.Stderr, "failed to process %s: %v\n", issue.Key(), err)
			}
		}
	}
	return nil
}

// resolveRepos merges the directly configured repos with the projects of
// every configured group, deduplicated and sorted. Groups are expanded
// concurrently.
func (p *Poller) resolveRepos(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var mu sync.Mutex
	for _, repo := range p.config.Repos {
		seen[repo] = true
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, group := range p.config.Groups {
		g.Go(func() error {
			projects, err := p.forge.ListGroupProjects(ctx, group)
			if err != nil {
				return fmt.Errorf("failed to list projects of group %s: %w", group, err)
			}
			mu.Lock()
			for _, project := range projects {
				seen[project] = true
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	repos := make([]string, 0, len(seen))
	for repo := range seen {
		repos = append(repos, repo)
	}
	sort.Strings(repos)
	return repos, nil
}

// processIssue records a sighting and, for issues still in the new state,
// runs the preparation pipeline: workspace, relevance scan, task brief.
func (p *Poller) processIssue(ctx context.Context, issue *types.Issue) error {
	issue.State = types.StateNew
	if err := p.store.UpsertIssue(ctx, issue); err != nil {
		return fmt.Errorf("failed to record sighting: %w", err)
	}

	// Keep the comment thread current on every sighting
	comments, err := p.forge.GetComments(ctx, issue.Repo, issue.Number)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to fetch comments for %s: %v\n", issue.Key(), err)
		comments = nil
	} else if err := p.store.ReplaceComments(ctx, issue.Repo, issue.Number, comments); err != nil {
		fmt.Fprintf(os.Stderr, "failed to store comments for %s: %v\n", issue.Key(), err)
	}

	stored, err := p.store.GetIssue(ctx, issue.Repo, issue.Number)
	if err != nil {
		return fmt.Errorf("failed to load sighting: %w", err)
	}
	if stored == nil || stored.State != types.StateNew {
		// Already prepared, handed off, or skipped
		return nil
	}

	if err := p.prepare(ctx, stored, comments); err != nil {
		detail := fmt.Sprintf("preparation failed: %v", err)
		if terr := p.store.TransitionIssue(ctx, issue.Repo, issue.Number,
			types.StateSkipped, p.instanceID, detail); terr != nil {
			fmt.Fprintf(os.Stderr, "failed to skip %s: %v\n", issue.Key(), terr)
		}
		return err
	}
	return nil
}

// prepare builds the workspace and brief for a newly sighted issue and
// marks it ready.
func (p *Poller) prepare(ctx context.Context, issue *types.Issue, comments []types.Comment) error {
	branch := issue.WorkBranch()
	path, err := p.workspaces.Ensure(ctx, issue.Repo, branch)
	if err != nil {
		return fmt.Errorf("workspace: %w", err)
	}

	text := issue.Title + "\n" + issue.Body
	for _, c := range comments {
		text += "\n" + c.Body
	}
	keywords := scan.Keywords(text)
	refs := scan.FileRefs(text)

	files, err := p.scorer.Rank(path, refs, keywords)
	if err != nil {
		return fmt.Errorf("relevance scan: %w", err)
	}

	document, err := p.generator.Render(issue, comments, files, path)
	if err != nil {
		return fmt.Errorf("brief render: %w", err)
	}
	briefPath, err := brief.Write(p.config.BriefsDir, issue.Repo, issue.Number, document)
	if err != nil {
		return fmt.Errorf("brief write: %w", err)
	}

	if err := p.store.MarkReady(ctx, issue.Repo, issue.Number, branch, briefPath, p.instanceID); err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}

	notify.Announce(ctx, p.notifier, issue, briefPath)
	return nil
}
