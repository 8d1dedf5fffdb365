// Package config loads agent configuration from .mind-agent/config.yaml,
// with environment variable overrides under the MIND_AGENT_ prefix.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultDir is the per-project state directory.
const DefaultDir = ".mind-agent"

// Config is the full agent configuration.
type Config struct {
	Forge     ForgeConfig     `yaml:"forge" mapstructure:"forge"`
	Poll      PollConfig      `yaml:"poll" mapstructure:"poll"`
	Workspace WorkspaceConfig `yaml:"workspace" mapstructure:"workspace"`
	Briefs    BriefsConfig    `yaml:"briefs" mapstructure:"briefs"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
}

// ForgeConfig describes the issue forge to poll.
type ForgeConfig struct {
	// BaseURL is the https base of the forge, e.g. "https://gitlab.com".
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Token authenticates API and git access. Usually set via
	// MIND_AGENT_FORGE_TOKEN rather than the config file.
	Token string `yaml:"token" mapstructure:"token"`
	// Groups are forge groups whose projects are discovered each cycle.
	Groups []string `yaml:"groups" mapstructure:"groups"`
	// Repos are individual repositories polled directly.
	Repos []string `yaml:"repos" mapstructure:"repos"`
	// RequestsPerSecond caps outbound API calls.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// PollConfig controls the polling loop.
type PollConfig struct {
	// Interval between poll cycles.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// HeartbeatInterval for the agent instance registry.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`
	// StaleAfter is how long without a heartbeat before an instance is
	// considered dead and cleaned up.
	StaleAfter time.Duration `yaml:"stale_after" mapstructure:"stale_after"`
}

// WorkspaceConfig controls local clones.
type WorkspaceConfig struct {
	Root string `yaml:"root" mapstructure:"root"`
}

// BriefsConfig controls task brief output.
type BriefsConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
	// ScanRules optionally points at a YAML file overriding the default
	// relevance-scan rules (skip dirs, extensions, depth, max files).
	ScanRules string `yaml:"scan_rules" mapstructure:"scan_rules"`
}

// NotifyConfig controls ready-issue announcements.
type NotifyConfig struct {
	// Command is an argv template run per ready issue. Empty means
	// announce on stderr only.
	Command []string `yaml:"command" mapstructure:"command"`
}

// DatabaseConfig controls the sightings database.
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Forge: ForgeConfig{
			BaseURL:           "https://gitlab.com",
			RequestsPerSecond: 5,
		},
		Poll: PollConfig{
			Interval:          5 * time.Minute,
			HeartbeatInterval: 30 * time.Second,
			StaleAfter:        5 * time.Minute,
		},
		Workspace: WorkspaceConfig{
			Root: filepath.Join(DefaultDir, "workspaces"),
		},
		Briefs: BriefsConfig{
			Dir: filepath.Join(DefaultDir, "briefs"),
		},
		Database: DatabaseConfig{
			Path: filepath.Join(DefaultDir, "sightings.db"),
		},
	}
}

// Load reads config.yaml from dir (falling back to defaults when the file
// is absent) and applies MIND_AGENT_* environment overrides.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultDir
	}

	v := viper.New()
	def := Default()
	v.SetDefault("forge.base_url", def.Forge.BaseURL)
	v.SetDefault("forge.requests_per_second", def.Forge.RequestsPerSecond)
	v.SetDefault("poll.interval", def.Poll.Interval)
	v.SetDefault("poll.heartbeat_interval", def.Poll.HeartbeatInterval)
	v.SetDefault("poll.stale_after", def.Poll.StaleAfter)
	v.SetDefault("workspace.root", def.Workspace.Root)
	v.SetDefault("briefs.dir", def.Briefs.Dir)
	v.SetDefault("database.path", def.Database.Path)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("MIND_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Token via env wins over the file; never require it in yaml
	if tok := os.Getenv("MIND_AGENT_FORGE_TOKEN"); tok != "" {
		cfg.Forge.Token = tok
	}

	return &cfg, nil
}

// Validate checks that the configuration can drive a poll loop.
func (c *Config) Validate() error {
	if c.Forge.BaseURL == "" {
		return fmt.Errorf("forge.base_url is required")
	}
	if !strings.HasPrefix(c.Forge.BaseURL, "http://") && !strings.HasPrefix(c.Forge.BaseURL, "https://") {
		return fmt.Errorf("forge.base_url must be an http(s) URL (got %q)", c.Forge.BaseURL)
	}
	if len(c.Forge.Groups) == 0 && len(c.Forge.Repos) == 0 {
		return fmt.Errorf("at least one forge group or repo must be configured")
	}
	if c.Forge.RequestsPerSecond <= 0 {
		return fmt.Errorf("forge.requests_per_second must be positive (got %v)", c.Forge.RequestsPerSecond)
	}
	if c.Poll.Interval < time.Second {
		return fmt.Errorf("poll.interval must be at least 1s (got %v)", c.Poll.Interval)
	}
	if c.Poll.HeartbeatInterval <= 0 {
		return fmt.Errorf("poll.heartbeat_interval must be positive (got %v)", c.Poll.HeartbeatInterval)
	}
	if c.Poll.StaleAfter < c.Poll.HeartbeatInterval {
		return fmt.Errorf("poll.stale_after (%v) must be >= poll.heartbeat_interval (%v)",
			c.Poll.StaleAfter, c.Poll.HeartbeatInterval)
	}
	if c.Workspace.Root == "" {
		return fmt.Errorf("workspace.root is required")
	}
	if c.Briefs.Dir == "" {
		return fmt.Errorf("briefs.dir is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// Save writes the configuration as YAML into dir/config.yaml, creating the
// directory if needed. Used by `mind-agent init`.
func (c *Config) Save(dir string) error {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	// The token never goes to disk
	clean := *c
	clean.Forge.Token = ""

	data, err := yaml.Marshal(&clean)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644)
}
