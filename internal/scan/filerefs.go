package scan

import (
	"regexp"
	"strings"
)

// sourceRootPrefixes are common repository-relative path prefixes. A token
// starting with one of these is treated as a file reference even without a
// recognized extension.
var sourceRootPrefixes = []string{
	"src/", "lib/", "packages/", "internal/", "cmd/", "pkg/", "app/",
	"test/", "tests/", "docs/",
}

var (
	// Bare filename with a known source or doc extension, optionally with
	// leading directory components.
	bareFilePattern = regexp.MustCompile(`\b[\w./-]+\.(?:go|ts|tsx|js|jsx|py|rb|rs|java|kt|c|h|cc|cpp|hpp|cs|php|swift|scala|sql|sh|yaml|yml|toml|json|md|txt|proto|html|css|scss|vue|svelte)\b`)

	// Quoted tokens following words like "in", "from", "file", "module".
	quotedAfterHint = regexp.MustCompile("(?i)\\b(?:in|from|file|module)\\s+[`'\"]([^`'\"]+)[`'\"]")

	pathToken = regexp.MustCompile(`\b[\w./-]+\b`)
)

// FileRefs extracts literal path-like tokens from free text, in order of
// first appearance with duplicates dropped. Surrounding quote characters are
// stripped.
func FileRefs(text string) []string {
	var refs []string
	seen := make(map[string]bool)

	add := func(tok string) {
		tok = strings.Trim(tok, "`'\"")
		if tok == "" || seen[tok] {
			return
		}
		seen[tok] = true
		refs = append(refs, tok)
	}

	for _, m := range bareFilePattern.FindAllString(text, -1) {
		add(m)
	}

	for _, tok := range pathToken.FindAllString(text, -1) {
		for _, prefix := range sourceRootPrefixes {
			if strings.HasPrefix(tok, prefix) && len(tok) > len(prefix) {
				add(tok)
				break
			}
		}
	}

	for _, m := range quotedAfterHint.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	return refs
}
