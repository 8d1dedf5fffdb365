// Package workspace manages local checked-out copies of forge repositories.
// Each configured repository gets one clone under the workspace root; per
// issue, a dedicated work branch is created and checked out before the
// relevance scan runs.
package workspace

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Manager provides filesystem roots for repositories.
type Manager struct {
	root    string
	baseURL string
	token   string
}

// Config holds workspace settings
type Config struct {
	// Root is the directory holding one clone per repository.
	Root string
	// ForgeBaseURL is the https base of the forge (e.g. "https://gitlab.com").
	ForgeBaseURL string
	// Token authenticates clone/fetch over https. Optional for public repos.
	Token string
}

// NewManager creates a workspace manager, creating the root directory if needed.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("workspace root is required")
	}
	if err := os.MkdirAll(cfg.Root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}

	baseURL := cfg.ForgeBaseURL
	if baseURL == "" {
		baseURL = "https://gitlab.com"
	}

	return &Manager{
		root:    cfg.Root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   cfg.Token,
	}, nil
}

// PathFor returns the deterministic clone location for a repository.
func (m *Manager) PathFor(repo string) string {
	return filepath.Join(m.root, strings.ReplaceAll(repo, "/", "-"))
}

// CloneURL builds the authenticated https remote for a repository.
func (m *Manager) CloneURL(repo string) (string, error) {
	u, err := url.Parse(m.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid forge base URL: %w", err)
	}
	if m.token != "" {
		u.User = url.UserPassword("oauth2", m.token)
	}
	u.Path = "/" + repo + ".git"
	return u.String(), nil
}

// Ensure makes sure a repository clone exists and is up to date, then
// creates (or reuses) and checks out the given work branch. Returns the
// workspace path.
func (m *Manager) Ensure(ctx context.Context, repo, branch string) (string, error) {
	path := m.PathFor(repo)

	if _, err := os.Stat(filepath.Join(path, ".git")); os.IsNotExist(err) {
		if err := m.clone(ctx, repo, path); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", fmt.Errorf("failed to stat workspace: %w", err)
	} else {
		if err := m.fetch(ctx, path); err != nil {
			return "", err
		}
	}

	if err := checkoutBranch(ctx, path, branch); err != nil {
		return "", err
	}

	return path, nil
}

// clone clones the repository into path.
func (m *Manager) clone(ctx context.Context, repo, path string) error {
	remote, err := m.CloneURL(repo)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "git", "clone", remote, path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		// Clean up a partial clone so the next attempt starts fresh
		os.RemoveAll(path)
		return fmt.Errorf("git clone failed for %s: %w (output: %s)", repo, err, sanitizeOutput(string(output), m.token))
	}
	return nil
}

// fetch updates an existing clone from its remote.
func (m *Manager) fetch(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, "git", "fetch", "--prune", "origin")
	cmd.Dir = path

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git fetch failed: %w (output: %s)", err, sanitizeOutput(string(output), m.token))
	}
	return nil
}

// checkoutBranch checks out the work branch, creating it from the current
// HEAD if it does not exist yet.
func checkoutBranch(ctx context.Context, path, branch string) error {
	check := exec.CommandContext(ctx, "git", "rev-parse", "--verify", branch)
	check.Dir = path
	if err := check.Run(); err == nil {
		cmd := exec.CommandContext(ctx, "git", "checkout", branch)
		cmd.Dir = path
		if output, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("git checkout failed: %w (output: %s)", err, string(output))
		}
		return nil
	}

	cmd := exec.CommandContext(ctx, "git", "checkout", "-b", branch)
	cmd.Dir = path
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git checkout -b failed: %w (output: %s)", err, string(output))
	}
	return nil
}

// Validate checks that a path is a usable git workspace. Works for both
// regular clones and worktrees (.git may be a file).
func Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", path)
		}
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("not a git repository (no .git found): %s", path)
		}
		return fmt.Errorf("failed to check for .git: %w", err)
	}
	return nil
}

// sanitizeOutput removes the access token from git output before it reaches
// logs or error messages.
func sanitizeOutput(output, token string) string {
	if token == "" {
		return output
	}
	return strings.ReplaceAll(output, token, "[redacted]")
}
