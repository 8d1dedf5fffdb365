package brief

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Path returns the deterministic brief location for (repo, number) under
// briefsDir. Later runs for the same issue overwrite the same path, so a
// regenerated brief supersedes the previous one.
func Path(briefsDir, repo string, number int) string {
	return filepath.Join(briefsDir, fmt.Sprintf("%s-issue-%d.md", sanitizeRepo(repo), number))
}

// Write renders the document to its deterministic path, creating briefsDir
// if needed, and returns the path.
func Write(briefsDir, repo string, number int, document string) (string, error) {
	if err := os.MkdirAll(briefsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create briefs directory: %w", err)
	}

	path := Path(briefsDir, repo, number)
	if err := os.WriteFile(path, []byte(document), 0644); err != nil {
		return "", fmt.Errorf("failed to write brief: %w", err)
	}
	return path, nil
}

// sanitizeRepo flattens a "group/project" repo name into a filename-safe token.
func sanitizeRepo(repo string) string {
	return strings.NewReplacer("/", "-", "\\", "-", ":", "-").Replace(repo)
}
