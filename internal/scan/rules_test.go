package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	if rules.MaxDepth != 5 {
		t.Errorf("MaxDepth = %d, want 5", rules.MaxDepth)
	}
	if rules.MaxFiles != 10 {
		t.Errorf("MaxFiles = %d, want 10", rules.MaxFiles)
	}
	if !rules.skipDir("node_modules") {
		t.Error("node_modules should be skipped")
	}
	if !rules.skipDir(".git") {
		t.Error("dot directories should be skipped")
	}
	if rules.skipDir("src") {
		t.Error("src should not be skipped")
	}
	if !rules.scoreableExt(".go") {
		t.Error(".go should be scoreable")
	}
	if rules.scoreableExt(".exe") {
		t.Error(".exe should not be scoreable")
	}
}

func TestLoadRules_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan-rules.yaml")
	content := "skip_dirs: [generated]\nmax_files: 5\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() failed: %v", err)
	}

	if !rules.skipDir("generated") {
		t.Error("override skip dir not applied")
	}
	if rules.skipDir("node_modules") {
		t.Error("skip_dirs override should replace the default list")
	}
	if rules.MaxFiles != 5 {
		t.Errorf("MaxFiles = %d, want 5", rules.MaxFiles)
	}
	// Unset fields keep defaults
	if rules.MaxDepth != 5 {
		t.Errorf("MaxDepth = %d, want default 5", rules.MaxDepth)
	}
}

func TestLoadRules_Missing(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadRules() should fail for a missing file")
	}
}
