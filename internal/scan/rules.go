package scan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules controls which parts of a workspace tree the scorer visits.
type Rules struct {
	// SkipDirs are directory names never descended into, at any depth.
	SkipDirs []string `yaml:"skip_dirs"`
	// Extensions is the allow-list of scoreable file extensions (with dot).
	Extensions []string `yaml:"extensions"`
	// MaxDepth bounds the recursive walk. Zero means the default.
	MaxDepth int `yaml:"max_depth"`
	// MaxFiles bounds the ranked result. Zero means the default.
	MaxFiles int `yaml:"max_files"`
}

// DefaultRules returns the built-in walk configuration: version control
// directories, dependency caches, and build output are skipped, and only
// common source/doc extensions are scored.
func DefaultRules() Rules {
	return Rules{
		SkipDirs: []string{
			"node_modules", "vendor", "dist", "build", "out", "target",
			"coverage", "__pycache__", "venv", "bower_components",
		},
		Extensions: []string{
			".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".rb", ".rs",
			".java", ".kt", ".c", ".h", ".cc", ".cpp", ".cs", ".php",
			".swift", ".scala", ".sql", ".sh", ".yaml", ".yml", ".toml",
			".json", ".md",
		},
		MaxDepth: 5,
		MaxFiles: 10,
	}
}

// LoadRules reads a YAML rules file and merges it over the defaults.
// Absent fields keep their default values.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("failed to read scan rules: %w", err)
	}

	var override Rules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return rules, fmt.Errorf("failed to parse scan rules: %w", err)
	}

	if len(override.SkipDirs) > 0 {
		rules.SkipDirs = override.SkipDirs
	}
	if len(override.Extensions) > 0 {
		rules.Extensions = override.Extensions
	}
	if override.MaxDepth > 0 {
		rules.MaxDepth = override.MaxDepth
	}
	if override.MaxFiles > 0 {
		rules.MaxFiles = override.MaxFiles
	}

	return rules, nil
}

func (r Rules) skipDir(name string) bool {
	if len(name) > 0 && name[0] == '.' {
		return true
	}
	for _, d := range r.SkipDirs {
		if name == d {
			return true
		}
	}
	return false
}

func (r Rules) scoreableExt(ext string) bool {
	for _, e := range r.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
