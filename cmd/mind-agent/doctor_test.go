package main

import (
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/mod/semver"
)

func TestDetectGitVersion(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	version, err := detectGitVersion()
	if err != nil {
		t.Fatalf("detectGitVersion failed: %v", err)
	}
	if !semver.IsValid(version) {
		t.Errorf("invalid semver: %q", version)
	}
	if !strings.HasPrefix(version, "v") {
		t.Errorf("expected v prefix, got %q", version)
	}
}

func TestCheckWritableDir(t *testing.T) {
	if err := checkWritableDir(filepath.Join(t.TempDir(), "nested")); err != nil {
		t.Errorf("expected writable dir, got %v", err)
	}
}
