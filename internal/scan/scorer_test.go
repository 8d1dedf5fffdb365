package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTree creates files under root, making parent directories as needed.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("mkdir failed: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
}

func TestRank_ReferenceMatch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/auth.ts":  "export function login() {}",
		"src/other.ts": "export function misc() {}",
	})

	scorer := NewScorer(DefaultRules())
	ranked, err := scorer.Rank(root, []string{"auth.ts"}, nil)
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}

	if len(ranked) != 1 {
		t.Fatalf("Rank() returned %d files, want 1: %v", len(ranked), ranked)
	}
	if ranked[0].Path != "src/auth.ts" {
		t.Errorf("Rank() top file = %s, want src/auth.ts", ranked[0].Path)
	}
	if ranked[0].Score != 10 {
		t.Errorf("Rank() score = %d, want 10", ranked[0].Score)
	}
	if ranked[0].Reason != "referenced in issue" {
		t.Errorf("Rank() reason = %q, want %q", ranked[0].Reason, "referenced in issue")
	}
}

func TestRank_KeywordMatch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"loginHandler.ts": "handler code",
	})

	scorer := NewScorer(DefaultRules())
	ranked, err := scorer.Rank(root, nil, []string{"login"})
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}

	if len(ranked) != 1 {
		t.Fatalf("Rank() returned %d files, want 1", len(ranked))
	}
	if ranked[0].Score != 3 {
		t.Errorf("Rank() score = %d, want 3", ranked[0].Score)
	}
	if ranked[0].Reason != "matches keyword: login" {
		t.Errorf("Rank() reason = %q, want %q", ranked[0].Reason, "matches keyword: login")
	}
}

func TestRank_Readme(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"README.md": "# project",
	})

	scorer := NewScorer(DefaultRules())
	ranked, err := scorer.Rank(root, nil, nil)
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}

	if len(ranked) != 1 {
		t.Fatalf("Rank() returned %d files, want 1", len(ranked))
	}
	if ranked[0].Score != 2 {
		t.Errorf("Rank() score = %d, want 2", ranked[0].Score)
	}
	if ranked[0].Reason != "README file" {
		t.Errorf("Rank() reason = %q, want %q", ranked[0].Reason, "README file")
	}
}

func TestRank_ZeroScoresDiscarded(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"helpers.go": "package helpers",
	})

	scorer := NewScorer(DefaultRules())
	ranked, err := scorer.Rank(root, nil, nil)
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}

	for _, f := range ranked {
		if f.Score <= 0 {
			t.Errorf("Rank() returned non-positive score %d for %s", f.Score, f.Path)
		}
	}
	if len(ranked) != 0 {
		t.Errorf("Rank() = %v, want empty (no rule matched)", ranked)
	}
}

func TestRank_SkipsNodeModules(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"node_modules/lodash/index.js": "module.exports = {}",
		"src/index.js":                 "main entry",
	})

	scorer := NewScorer(DefaultRules())
	ranked, err := scorer.Rank(root, nil, nil)
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}

	for _, f := range ranked {
		if strings.HasPrefix(f.Path, "node_modules") {
			t.Errorf("Rank() visited node_modules: %s", f.Path)
		}
	}
	if len(ranked) != 1 || ranked[0].Path != "src/index.js" {
		t.Errorf("Rank() = %v, want only src/index.js", ranked)
	}
}

func TestRank_SkipsDotDirectories(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".git/hooks/main.sh": "#!/bin/sh",
		"main.go":            "package main",
	})

	scorer := NewScorer(DefaultRules())
	ranked, err := scorer.Rank(root, nil, nil)
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}

	if len(ranked) != 1 || ranked[0].Path != "main.go" {
		t.Errorf("Rank() = %v, want only main.go", ranked)
	}
}

func TestRank_DepthBound(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a/b/c/d/e/deep.go": "package deep", // depth 6, beyond the bound
		"a/shallow.go":      "package a",
	})

	rules := DefaultRules()
	scorer := NewScorer(rules)
	ranked, err := scorer.Rank(root, []string{"deep.go", "shallow.go"}, nil)
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}

	if len(ranked) != 1 || ranked[0].Path != "a/shallow.go" {
		t.Errorf("Rank() = %v, want only a/shallow.go (deep file beyond depth bound)", ranked)
	}
}

func TestRank_TruncatesToMaxFiles(t *testing.T) {
	root := t.TempDir()
	files := make(map[string]string)
	for i := 0; i < 25; i++ {
		files[fmt.Sprintf("login%d.go", i)] = "package login"
	}
	writeTree(t, root, files)

	scorer := NewScorer(DefaultRules())
	ranked, err := scorer.Rank(root, nil, []string{"login"})
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}

	if len(ranked) > DefaultRules().MaxFiles {
		t.Errorf("Rank() returned %d files, want at most %d", len(ranked), DefaultRules().MaxFiles)
	}
}

func TestRank_Monotonicity(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"loginHandler.ts":   "a",
		"sessionStore.ts":   "b",
		"profileService.ts": "c",
	})

	scorer := NewScorer(DefaultRules())
	k1 := []string{"login"}
	k2 := []string{"login", "session", "profile"}

	under := func(keywords []string) map[string]int {
		ranked, err := scorer.Rank(root, nil, keywords)
		if err != nil {
			t.Fatalf("Rank() failed: %v", err)
		}
		scores := make(map[string]int)
		for _, f := range ranked {
			scores[f.Path] = f.Score
		}
		return scores
	}

	s1 := under(k1)
	s2 := under(k2)

	for path, score := range s1 {
		if s2[path] < score {
			t.Errorf("score for %s decreased from %d to %d when keywords grew", path, score, s2[path])
		}
	}
}

func TestRank_MonotonicityBeyondKeywordWindow(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"zz_target.go": "package target",
	})

	// The matching keyword sits at position 20, the last slot inside the
	// scored window. Growing the set must only append past the window.
	var k1 []string
	for i := 0; i < 19; i++ {
		k1 = append(k1, fmt.Sprintf("filler%02d", i))
	}
	k1 = append(k1, "zz_target")
	k2 := append(append([]string{}, k1...), "aaaa")

	scorer := NewScorer(DefaultRules())
	score := func(keywords []string) int {
		ranked, err := scorer.Rank(root, nil, keywords)
		if err != nil {
			t.Fatalf("Rank() failed: %v", err)
		}
		for _, f := range ranked {
			if f.Path == "zz_target.go" {
				return f.Score
			}
		}
		return 0
	}

	s1 := score(k1)
	s2 := score(k2)
	if s1 != 3 {
		t.Fatalf("score under base keywords = %d, want 3", s1)
	}
	if s2 < s1 {
		t.Errorf("score dropped from %d to %d when keyword set grew", s1, s2)
	}
}

func TestRank_StableTieOrder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"alpha/login_a.go": "a",
		"beta/login_b.go":  "b",
	})

	scorer := NewScorer(DefaultRules())
	ranked, err := scorer.Rank(root, nil, []string{"login"})
	if err != nil {
		t.Fatalf("Rank() failed: %v", err)
	}

	if len(ranked) != 2 {
		t.Fatalf("Rank() returned %d files, want 2", len(ranked))
	}
	// Equal scores keep directory-walk order: alpha before beta.
	if ranked[0].Path != "alpha/login_a.go" || ranked[1].Path != "beta/login_b.go" {
		t.Errorf("Rank() tie order = [%s, %s], want walk order", ranked[0].Path, ranked[1].Path)
	}
}

func TestRank_MissingRoot(t *testing.T) {
	scorer := NewScorer(DefaultRules())
	if _, err := scorer.Rank(filepath.Join(t.TempDir(), "missing"), nil, nil); err == nil {
		t.Error("Rank() should fail for a missing root")
	}
}
