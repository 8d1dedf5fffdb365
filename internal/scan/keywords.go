// Package scan implements the relevance heuristics used to pick candidate
// files for an issue: keyword extraction from issue text, literal file
// reference extraction, and a scored walk of the workspace tree.
package scan

import (
	"regexp"
	"sort"
	"strings"
)

// stopWords are common words excluded from keyword extraction.
var stopWords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"when": true, "then": true, "than": true, "there": true, "their": true,
	"would": true, "could": true, "should": true, "about": true, "which": true,
	"will": true, "been": true, "were": true, "what": true, "your": true,
	"does": true, "doesn": true, "into": true, "only": true, "also": true,
	"some": true, "them": true, "after": true, "before": true, "because": true,
	"where": true, "while": true, "here": true, "just": true, "like": true,
	"make": true, "makes": true, "using": true, "used": true, "uses": true,
	"issue": true, "error": true, "errors": true, "problem": true, "please": true,
	"fails": true, "failed": true, "failing": true, "expected": true, "actual": true,
}

var (
	// Identifier-shaped tokens: camelCase/PascalCase compounds, snake_case
	// compounds, and SCREAMING_SNAKE constants. A lone capitalized word is
	// not a compound and is left to the plain-word pass.
	camelPattern     = regexp.MustCompile(`\b(?:[a-z]+[A-Z][A-Za-z0-9]*|(?:[A-Z][a-z0-9]+){2,})\b`)
	snakePattern     = regexp.MustCompile(`\b[a-z]+(?:_[a-z0-9]+)+\b`)
	screamingPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]*(?:_[A-Z0-9]+)+\b`)

	wordPattern = regexp.MustCompile(`[A-Za-z]+`)
)

// Keywords extracts candidate search terms from free text: lowercase words
// longer than three characters minus the stop-word set, unioned with
// identifier-shaped substrings. The result is ordered-unique by first
// appearance in the text, so appending text (a new comment, say) only ever
// appends keywords and the leading ones stay stable.
func Keywords(text string) []string {
	type match struct {
		pos int
		tok string
	}
	var matches []match

	for _, loc := range wordPattern.FindAllStringIndex(text, -1) {
		lower := strings.ToLower(text[loc[0]:loc[1]])
		if len(lower) > 3 && !stopWords[lower] {
			matches = append(matches, match{loc[0], lower})
		}
	}

	for _, pattern := range []*regexp.Regexp{camelPattern, snakePattern, screamingPattern} {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			matches = append(matches, match{loc[0], text[loc[0]:loc[1]]})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	seen := make(map[string]bool)
	var keywords []string
	for _, m := range matches {
		if seen[m.tok] {
			continue
		}
		seen[m.tok] = true
		keywords = append(keywords, m.tok)
	}
	return keywords
}
