package notify

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/owizdom/mind-agent/internal/types"
)

func sampleIssue() *types.Issue {
	return &types.Issue{
		Repo:   "acme/widgets",
		Number: 7,
		Title:  "Login broken",
		URL:    "https://gitlab.com/acme/widgets/-/issues/7",
	}
}

func TestExpand(t *testing.T) {
	got := expand("{repo}#{number}: {title} -> {brief}", sampleIssue(), "/tmp/brief.md")
	want := "acme/widgets#7: Login broken -> /tmp/brief.md"
	if got != want {
		t.Errorf("expand = %q, want %q", got, want)
	}
}

func TestNewCommandNotifierRejectsEmpty(t *testing.T) {
	if _, err := NewCommandNotifier(nil); err == nil {
		t.Error("expected error for empty argv")
	}
}

func TestCommandNotifierRunsCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	n, err := NewCommandNotifier([]string{"sh", "-c", "echo {repo}#{number} > " + out})
	if err != nil {
		t.Fatalf("NewCommandNotifier failed: %v", err)
	}

	if err := n.Notify(context.Background(), sampleIssue(), "/tmp/brief.md"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "acme/widgets#7" {
		t.Errorf("command output = %q, want acme/widgets#7", got)
	}
}

func TestCommandNotifierReportsFailure(t *testing.T) {
	n, err := NewCommandNotifier([]string{"sh", "-c", "exit 3"})
	if err != nil {
		t.Fatalf("NewCommandNotifier failed: %v", err)
	}
	if err := n.Notify(context.Background(), sampleIssue(), ""); err == nil {
		t.Error("expected error from failing command")
	}
}

func TestAnnounceSwallowsFailure(t *testing.T) {
	n, err := NewCommandNotifier([]string{"sh", "-c", "exit 1"})
	if err != nil {
		t.Fatalf("NewCommandNotifier failed: %v", err)
	}
	// Must not panic or propagate the failure
	Announce(context.Background(), n, sampleIssue(), "")
	Announce(context.Background(), nil, sampleIssue(), "")
}
