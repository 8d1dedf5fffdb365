package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/owizdom/mind-agent/internal/types"
)

// Scoring weights, additive across rules. Within each rule the first match
// wins and further candidates for that rule are not considered.
const (
	scoreReference = 10
	scoreKeyword   = 3
	scoreReadme    = 2
	scoreEntry     = 1

	// Only the first maxScoredKeywords keywords participate in filename
	// matching; issue text can produce hundreds.
	maxScoredKeywords = 20
)

// Scorer ranks workspace files against signals extracted from issue text.
type Scorer struct {
	rules Rules
}

// NewScorer creates a scorer with the given walk rules.
func NewScorer(rules Rules) *Scorer {
	return &Scorer{rules: rules}
}

// Rank walks the tree rooted at root and returns at most rules.MaxFiles
// scored files, ranked descending by score with walk order breaking ties.
// Files scoring zero are discarded. Unreadable directories are skipped and
// the walk continues with their siblings.
func (s *Scorer) Rank(root string, refs, keywords []string) ([]types.ScoredFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("workspace root not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root is not a directory: %s", root)
	}

	if len(keywords) > maxScoredKeywords {
		keywords = keywords[:maxScoredKeywords]
	}

	var scored []types.ScoredFile
	s.walk(root, "", 0, refs, keywords, &scored)

	// Stable: ties keep discovery order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > s.rules.MaxFiles {
		scored = scored[:s.rules.MaxFiles]
	}
	return scored, nil
}

// walk recurses depth-first in directory order, accumulating scored files.
// Per-directory read errors are swallowed so one unreadable subtree does not
// abort the scan.
func (s *Scorer) walk(dir, rel string, depth int, refs, keywords []string, scored *[]types.ScoredFile) {
	if depth >= s.rules.MaxDepth {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		entryRel := name
		if rel != "" {
			entryRel = rel + "/" + name
		}

		if entry.IsDir() {
			if s.rules.skipDir(name) {
				continue
			}
			s.walk(filepath.Join(dir, name), entryRel, depth+1, refs, keywords, scored)
			continue
		}

		if !s.rules.scoreableExt(filepath.Ext(name)) {
			continue
		}

		if score, reason := s.scoreFile(entryRel, name, refs, keywords); score > 0 {
			*scored = append(*scored, types.ScoredFile{Path: entryRel, Score: score, Reason: reason})
		}
	}
}

// scoreFile applies the scoring rules to one file. Rules are additive and
// evaluated in fixed order; the reported reason is from the first rule that
// matched.
func (s *Scorer) scoreFile(relPath, name string, refs, keywords []string) (int, string) {
	score := 0
	reason := ""

	for _, ref := range refs {
		if strings.Contains(relPath, ref) || strings.Contains(name, ref) {
			score += scoreReference
			reason = "referenced in issue"
			break
		}
	}

	lowerName := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lowerName, strings.ToLower(kw)) {
			score += scoreKeyword
			if reason == "" {
				reason = fmt.Sprintf("matches keyword: %s", kw)
			}
			break
		}
	}

	base := strings.TrimSuffix(lowerName, filepath.Ext(lowerName))
	if base == "readme" {
		score += scoreReadme
		if reason == "" {
			reason = "README file"
		}
	}

	if strings.Contains(lowerName, "index") || strings.Contains(lowerName, "main") || strings.Contains(lowerName, "lib") {
		score += scoreEntry
		if reason == "" {
			reason = "entry point or core file"
		}
	}

	return score, reason
}
