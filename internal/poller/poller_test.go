package poller

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/owizdom/mind-agent/internal/storage"
	"github.com/owizdom/mind-agent/internal/types"
	"github.com/owizdom/mind-agent/internal/workspace"
)

// fakeForge is an in-memory forge for tests.
type fakeForge struct {
	mu       sync.Mutex
	issues   map[string][]*types.Issue
	comments map[string][]types.Comment
	groups   map[string][]string
	failRepo string
}

func newFakeForge() *fakeForge {
	return &fakeForge{
		issues:   make(map[string][]*types.Issue),
		comments: make(map[string][]types.Comment),
		groups:   make(map[string][]string),
	}
}

func (f *fakeForge) ListOpenIssues(_ context.Context, repo string) ([]*types.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if repo == f.failRepo {
		return nil, fmt.Errorf("forge unavailable")
	}
	return f.issues[repo], nil
}

func (f *fakeForge) GetComments(_ context.Context, repo string, number int) ([]types.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments[fmt.Sprintf("%s#%d", repo, number)], nil
}

func (f *fakeForge) ListGroupProjects(_ context.Context, group string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	projects, ok := f.groups[group]
	if !ok {
		return nil, fmt.Errorf("group not found: %s", group)
	}
	return projects, nil
}

// recordingNotifier captures announcements.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) Notify(_ context.Context, issue *types.Issue, briefPath string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, issue.Key()+" "+briefPath)
	return nil
}

func memStore(t *testing.T) storage.Storage {
	t.Helper()
	store, err := storage.NewStorage(context.Background(), &storage.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// fixtureOrigin creates a committed git repository usable as a clone source.
func fixtureOrigin(t *testing.T, files map[string]string) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if output, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v (%s)", args, err, output)
		}
	}

	run("init")
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	run("add", ".")
	run("commit", "-m", "initial commit")
	return dir
}

// testPoller wires a poller whose workspace is pre-cloned, so prepare()
// only needs local git operations.
func testPoller(t *testing.T, fg *fakeForge, repo string, origin string) (*Poller, storage.Storage, *recordingNotifier) {
	t.Helper()
	store := memStore(t)
	notifier := &recordingNotifier{}

	wsRoot := t.TempDir()
	mgr, err := workspace.NewManager(workspace.Config{Root: wsRoot})
	if err != nil {
		t.Fatalf("workspace manager: %v", err)
	}

	// Seed the clone so Ensure takes the existing-repo path
	clone := exec.Command("git", "clone", origin, mgr.PathFor(repo))
	if output, err := clone.CombinedOutput(); err != nil {
		t.Fatalf("seed clone failed: %v (%s)", err, output)
	}
	// Point origin at the local fixture so fetch works offline
	setURL := exec.Command("git", "remote", "set-url", "origin", origin)
	setURL.Dir = mgr.PathFor(repo)
	if output, err := setURL.CombinedOutput(); err != nil {
		t.Fatalf("set-url failed: %v (%s)", err, output)
	}

	cfg := DefaultConfig()
	cfg.Store = store
	cfg.Forge = fg
	cfg.Workspaces = mgr
	cfg.Notifier = notifier
	cfg.Repos = []string{repo}
	cfg.BriefsDir = filepath.Join(t.TempDir(), "briefs")

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p, store, notifier
}

func TestNewValidation(t *testing.T) {
	mgr, err := workspace.NewManager(workspace.Config{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("workspace manager: %v", err)
	}
	store := memStore(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing store", func(c *Config) { c.Store = nil }},
		{"missing forge", func(c *Config) { c.Forge = nil }},
		{"missing workspaces", func(c *Config) { c.Workspaces = nil }},
		{"no targets", func(c *Config) { c.Repos = nil; c.Groups = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Store = store
			cfg.Forge = newFakeForge()
			cfg.Workspaces = mgr
			cfg.Repos = []string{"acme/widgets"}
			tt.mutate(cfg)
			if _, err := New(cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResolveReposMergesGroupsAndRepos(t *testing.T) {
	fg := newFakeForge()
	fg.groups["platform"] = []string{"platform/api", "platform/web", "acme/widgets"}

	origin := fixtureOrigin(t, map[string]string{"README.md": "hello"})
	p, _, _ := testPoller(t, fg, "acme/widgets", origin)
	p.config.Groups = []string{"platform"}

	repos, err := p.resolveRepos(context.Background())
	if err != nil {
		t.Fatalf("resolveRepos failed: %v", err)
	}
	want := []string{"acme/widgets", "platform/api", "platform/web"}
	if len(repos) != len(want) {
		t.Fatalf("repos = %v, want %v", repos, want)
	}
	for i := range want {
		if repos[i] != want[i] {
			t.Errorf("repos[%d] = %q, want %q", i, repos[i], want[i])
		}
	}
}

func TestRunCyclePreparesNewIssue(t *testing.T) {
	origin := fixtureOrigin(t, map[string]string{
		"README.md":       "widgets",
		"src/auth.ts":     "export function login() {}",
		"src/payments.ts": "export function charge() {}",
	})

	fg := newFakeForge()
	fg.issues["acme/widgets"] = []*types.Issue{{
		ID:     101,
		Repo:   "acme/widgets",
		Number: 7,
		Title:  "Fix login crash",
		Body:   "The crash happens in src/auth.ts when the session expires.",
		URL:    "https://gitlab.example.com/acme/widgets/-/issues/7",
		State:  types.StateNew,
	}}
	fg.comments["acme/widgets#7"] = []types.Comment{
		{ID: 1, Author: "alice", Body: "Reproduced on main.", CreatedAt: time.Now()},
	}

	p, store, notifier := testPoller(t, fg, "acme/widgets", origin)
	ctx := context.Background()

	if err := p.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	stored, err := store.GetIssue(ctx, "acme/widgets", 7)
	if err != nil {
		t.Fatalf("GetIssue failed: %v", err)
	}
	if stored == nil {
		t.Fatal("issue was not sighted")
	}
	if stored.State != types.StateReady {
		t.Errorf("state = %s, want ready", stored.State)
	}
	if stored.Branch != "mind/issue-7" {
		t.Errorf("branch = %q, want mind/issue-7", stored.Branch)
	}
	if stored.BriefPath == "" {
		t.Fatal("brief path not recorded")
	}

	data, err := os.ReadFile(stored.BriefPath)
	if err != nil {
		t.Fatalf("failed to read brief: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, "Fix login crash") {
		t.Error("brief missing issue title")
	}
	if !strings.Contains(body, "src/auth.ts") {
		t.Error("brief missing referenced file")
	}
	if !strings.Contains(body, "Reproduced on main.") {
		t.Error("brief missing comment")
	}

	comments, err := store.GetComments(ctx, "acme/widgets", 7)
	if err != nil {
		t.Fatalf("GetComments failed: %v", err)
	}
	if len(comments) != 1 || comments[0].Author != "alice" {
		t.Errorf("comments = %v", comments)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.calls) != 1 || !strings.HasPrefix(notifier.calls[0], "acme/widgets#7 ") {
		t.Errorf("notifications = %v", notifier.calls)
	}
}

func TestRunCycleIsIdempotentForReadyIssues(t *testing.T) {
	origin := fixtureOrigin(t, map[string]string{"README.md": "widgets"})
	fg := newFakeForge()
	fg.issues["acme/widgets"] = []*types.Issue{{
		ID: 101, Repo: "acme/widgets", Number: 7, Title: "Fix login crash", State: types.StateNew,
	}}

	p, store, notifier := testPoller(t, fg, "acme/widgets", origin)
	ctx := context.Background()

	if err := p.RunCycle(ctx); err != nil {
		t.Fatalf("first cycle failed: %v", err)
	}
	if err := p.RunCycle(ctx); err != nil {
		t.Fatalf("second cycle failed: %v", err)
	}

	stored, err := store.GetIssue(ctx, "acme/widgets", 7)
	if err != nil {
		t.Fatalf("GetIssue failed: %v", err)
	}
	if stored.State != types.StateReady {
		t.Errorf("state = %s, want ready", stored.State)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.calls) != 1 {
		t.Errorf("expected a single notification, got %d", len(notifier.calls))
	}
}

func TestProcessIssueSkipsOnWorkspaceFailure(t *testing.T) {
	origin := fixtureOrigin(t, map[string]string{"README.md": "widgets"})
	fg := newFakeForge()
	p, store, _ := testPoller(t, fg, "acme/widgets", origin)
	ctx := context.Background()

	// No seeded clone and an unreachable forge, so Ensure fails fast
	mgr, err := workspace.NewManager(workspace.Config{
		Root:         t.TempDir(),
		ForgeBaseURL: "https://127.0.0.1:1",
	})
	if err != nil {
		t.Fatalf("workspace manager: %v", err)
	}
	p.workspaces = mgr

	issue := &types.Issue{
		ID: 5, Repo: "acme/disconnected", Number: 3, Title: "Broken", State: types.StateNew,
	}
	if err := p.processIssue(ctx, issue); err == nil {
		t.Fatal("expected processing error")
	}

	stored, err := store.GetIssue(ctx, "acme/disconnected", 3)
	if err != nil {
		t.Fatalf("GetIssue failed: %v", err)
	}
	if stored == nil {
		t.Fatal("failed issue was not recorded")
	}
	if stored.State != types.StateSkipped {
		t.Errorf("state = %s, want skipped", stored.State)
	}
}

func TestRunCycleContinuesPastFailingRepo(t *testing.T) {
	origin := fixtureOrigin(t, map[string]string{"README.md": "widgets"})
	fg := newFakeForge()
	fg.failRepo = "acme/broken"
	fg.issues["acme/widgets"] = []*types.Issue{{
		ID: 101, Repo: "acme/widgets", Number: 7, Title: "Fix login crash", State: types.StateNew,
	}}

	p, store, _ := testPoller(t, fg, "acme/widgets", origin)
	p.config.Repos = []string{"acme/broken", "acme/widgets"}
	ctx := context.Background()

	if err := p.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	stored, err := store.GetIssue(ctx, "acme/widgets", 7)
	if err != nil {
		t.Fatalf("GetIssue failed: %v", err)
	}
	if stored == nil || stored.State != types.StateReady {
		t.Error("healthy repo was not processed")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	origin := fixtureOrigin(t, map[string]string{"README.md": "widgets"})
	fg := newFakeForge()
	p, store, _ := testPoller(t, fg, "acme/widgets", origin)
	p.config.PollInterval = time.Hour // only the immediate first cycle runs
	ctx := context.Background()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !p.IsRunning() {
		t.Error("expected running after Start")
	}
	if err := p.Start(ctx); err == nil {
		t.Error("second Start must fail")
	}

	instances, err := store.GetActiveInstances(ctx)
	if err != nil {
		t.Fatalf("GetActiveInstances failed: %v", err)
	}
	if len(instances) != 1 || instances[0].InstanceID != p.InstanceID() {
		t.Errorf("active instances = %v", instances)
	}

	stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if p.IsRunning() {
		t.Error("expected stopped after Stop")
	}

	instances, err = store.GetActiveInstances(ctx)
	if err != nil {
		t.Fatalf("GetActiveInstances failed: %v", err)
	}
	if len(instances) != 0 {
		t.Errorf("expected no active instances, got %d", len(instances))
	}
}

func TestRestartAfterStop(t *testing.T) {
	origin := fixtureOrigin(t, map[string]string{"README.md": "widgets"})
	fg := newFakeForge()
	p, store, _ := testPoller(t, fg, "acme/widgets", origin)
	p.config.PollInterval = time.Hour
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := p.Start(ctx); err != nil {
			t.Fatalf("Start (round %d) failed: %v", i+1, err)
		}
		stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := p.Stop(stopCtx); err != nil {
			cancel()
			t.Fatalf("Stop (round %d) failed: %v", i+1, err)
		}
		cancel()
	}

	if p.IsRunning() {
		t.Error("expected stopped after final Stop")
	}
	instances, err := store.GetActiveInstances(ctx)
	if err != nil {
		t.Fatalf("GetActiveInstances failed: %v", err)
	}
	if len(instances) != 0 {
		t.Errorf("expected no active instances, got %d", len(instances))
	}
}
