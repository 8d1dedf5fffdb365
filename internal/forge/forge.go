// Package forge abstracts the issue-hosting forge API. The only concrete
// implementation is GitLab; the interface keeps the poller forge-agnostic.
package forge

import (
	"context"

	"github.com/owizdom/mind-agent/internal/types"
)

// Client is the forge API surface the poller consumes.
type Client interface {
	// ListOpenIssues returns the open issues for a project path
	// (e.g. "acme/widgets").
	ListOpenIssues(ctx context.Context, repo string) ([]*types.Issue, error)

	// GetComments returns an issue's comment thread oldest-first, with
	// forge-generated system notes filtered out.
	GetComments(ctx context.Context, repo string, number int) ([]types.Comment, error)

	// ListGroupProjects expands a group/organization path into the project
	// paths it contains.
	ListGroupProjects(ctx context.Context, group string) ([]string, error)
}
