package forge

import (
	"context"
	"fmt"
	"strings"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"

	"github.com/owizdom/mind-agent/internal/types"
)

// perPage is the page size for list calls.
const perPage = 100

// GitLabClient implements Client against the GitLab REST API.
type GitLabClient struct {
	client  *gitlab.Client
	limiter *rate.Limiter
}

// GitLabConfig holds GitLab connection settings
type GitLabConfig struct {
	// Token is a personal or project access token with read_api scope.
	Token string
	// BaseURL is the instance URL (empty for gitlab.com).
	BaseURL string
	// RequestsPerSecond throttles API calls. Zero means a conservative
	// default of 5 req/s.
	RequestsPerSecond float64
}

// NewGitLabClient creates a rate-limited GitLab forge client.
func NewGitLabClient(cfg GitLabConfig) (*GitLabClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("gitlab token is required")
	}

	var client *gitlab.Client
	var err error
	if cfg.BaseURL == "" {
		client, err = gitlab.NewClient(cfg.Token)
	} else {
		apiURL := strings.TrimSuffix(cfg.BaseURL, "/") + "/api/v4"
		client, err = gitlab.NewClient(cfg.Token, gitlab.WithBaseURL(apiURL))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	return &GitLabClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// ListOpenIssues returns the open issues for a project path.
func (g *GitLabClient) ListOpenIssues(ctx context.Context, repo string) ([]*types.Issue, error) {
	var issues []*types.Issue

	opts := &gitlab.ListProjectIssuesOptions{
		State:       gitlab.Ptr("opened"),
		ListOptions: gitlab.ListOptions{PerPage: perPage, Page: 1},
	}

	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, resp, err := g.client.Issues.ListProjectIssues(repo, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing issues for %s: %w", repo, err)
		}

		for _, gi := range page {
			issues = append(issues, mapIssue(repo, gi))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return issues, nil
}

// GetComments returns an issue's notes oldest-first, excluding system notes.
func (g *GitLabClient) GetComments(ctx context.Context, repo string, number int) ([]types.Comment, error) {
	var comments []types.Comment

	opts := &gitlab.ListIssueNotesOptions{
		OrderBy:     gitlab.Ptr("created_at"),
		Sort:        gitlab.Ptr("asc"),
		ListOptions: gitlab.ListOptions{PerPage: perPage, Page: 1},
	}

	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, resp, err := g.client.Notes.ListIssueNotes(repo, int64(number), opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing notes for %s#%d: %w", repo, number, err)
		}

		for _, note := range page {
			if note.System {
				continue
			}
			comments = append(comments, mapNote(note))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}

// ListGroupProjects expands a group path into its project paths, including
// subgroups.
func (g *GitLabClient) ListGroupProjects(ctx context.Context, group string) ([]string, error) {
	var projects []string

	opts := &gitlab.ListGroupProjectsOptions{
		IncludeSubGroups: gitlab.Ptr(true),
		Archived:         gitlab.Ptr(false),
		ListOptions:      gitlab.ListOptions{PerPage: perPage, Page: 1},
	}

	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, resp, err := g.client.Groups.ListGroupProjects(group, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing projects for group %s: %w", group, err)
		}

		for _, p := range page {
			projects = append(projects, p.PathWithNamespace)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return projects, nil
}

// mapIssue converts a GitLab issue to the internal sighting model.
func mapIssue(repo string, gi *gitlab.Issue) *types.Issue {
	issue := &types.Issue{
		ID:     int64(gi.ID),
		Repo:   repo,
		Number: int(gi.IID),
		Title:  gi.Title,
		Body:   gi.Description,
		URL:    gi.WebURL,
		Labels: []string(gi.Labels),
		State:  types.StateNew,
		SeenAt: time.Now(),
	}
	if gi.UpdatedAt != nil {
		issue.UpdatedAt = *gi.UpdatedAt
	}
	return issue
}

// mapNote converts a GitLab note to a comment.
func mapNote(note *gitlab.Note) types.Comment {
	c := types.Comment{
		ID:     int64(note.ID),
		Author: note.Author.Username,
		Body:   note.Body,
	}
	if note.CreatedAt != nil {
		c.CreatedAt = *note.CreatedAt
	}
	return c
}
