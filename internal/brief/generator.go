// Package brief renders task briefs: a single markdown document per issue
// combining issue metadata, the comment thread, and the content of the files
// the relevance scorer ranked highest. The document is handed off to an
// external coding assistant.
package brief

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/owizdom/mind-agent/internal/types"
)

// maxFileLines caps how much of each relevant file is inlined into the brief.
const maxFileLines = 500

// truncationMarker is appended when a file's content is capped.
const truncationMarker = "... (truncated)"

// briefTemplate defines the brief document structure. Section order is
// stable; conditional sections collapse when their data is absent.
const briefTemplate = `# Issue #{{.Issue.Number}}: {{.Issue.Title}}

- **Repository**: {{.Issue.Repo}}
- **Branch**: {{.Issue.WorkBranch}}
- **URL**: {{.Issue.URL}}
- **Local path**: {{.WorkspacePath}}
{{- if .Issue.Labels}}
- **Labels**: {{join .Issue.Labels ", "}}
{{- end}}

## Description

{{if .Issue.Body}}{{.Issue.Body}}{{else}}(no description provided){{end}}
{{if .Comments}}
## Comments
{{range .Comments}}
### {{.Author}} ({{formatTime .CreatedAt}})

{{.Body}}
{{end}}{{end}}
{{- if .Files}}
## Relevant Files
{{range .Files}}
### {{.Path}}

*{{.Reason}}*

` + "```" + `
{{.Content}}
` + "```" + `
{{end}}{{end}}
## How To Fix

1. Work in the local path above; the work branch is already checked out.
2. Reproduce the problem described in the issue before changing anything.
3. Make the smallest change that fixes the issue, starting from the relevant
   files listed above.
4. Run the project's tests and add coverage for the fix.
5. Commit to the work branch with a message referencing issue #{{.Issue.Number}}.
`

// renderedFile is a relevant file with its content loaded for rendering.
type renderedFile struct {
	Path    string
	Reason  string
	Content string
}

// Generator renders task brief documents.
type Generator struct {
	template *template.Template
}

// NewGenerator creates a Generator with the default brief template.
func NewGenerator() (*Generator, error) {
	tmpl := template.New("brief").Funcs(template.FuncMap{
		"formatTime": formatTime,
		"join":       strings.Join,
	})

	tmpl, err := tmpl.Parse(briefTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse brief template: %w", err)
	}

	return &Generator{template: tmpl}, nil
}

// Render produces the brief document for an issue. Comments must be ordered
// oldest-first. Each scored file is re-read from workspacePath and capped to
// maxFileLines; a file that cannot be read renders an inline error marker
// instead of aborting the document.
func (g *Generator) Render(issue *types.Issue, comments []types.Comment, files []types.ScoredFile, workspacePath string) (string, error) {
	if issue == nil {
		return "", fmt.Errorf("issue cannot be nil")
	}

	rendered := make([]renderedFile, 0, len(files))
	for _, f := range files {
		rendered = append(rendered, renderedFile{
			Path:    f.Path,
			Reason:  f.Reason,
			Content: readCapped(filepath.Join(workspacePath, f.Path)),
		})
	}

	data := struct {
		Issue         *types.Issue
		Comments      []types.Comment
		Files         []renderedFile
		WorkspacePath string
	}{
		Issue:         issue,
		Comments:      comments,
		Files:         rendered,
		WorkspacePath: workspacePath,
	}

	var buf bytes.Buffer
	if err := g.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute brief template: %w", err)
	}

	return buf.String(), nil
}

// readCapped reads a file, capping it to maxFileLines. Read failures degrade
// to an inline marker so the brief still renders.
func readCapped(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("[error reading file: %v]", err)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) <= maxFileLines {
		return strings.TrimRight(string(data), "\n")
	}
	capped := strings.Join(lines[:maxFileLines], "\n")
	return capped + "\n" + truncationMarker
}

// formatTime formats a timestamp for comment headers.
func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
