// Package storage defines the persistent sighting store and its SQLite
// backend.
package storage

import (
	"context"

	"github.com/owizdom/mind-agent/internal/storage/sqlite"
	"github.com/owizdom/mind-agent/internal/types"
)

// Storage defines the interface for sighting storage backends
type Storage interface {
	// Sightings. UpsertIssue is last-write-wins on (repo, number); the
	// lifecycle state of an existing row is preserved across upserts.
	UpsertIssue(ctx context.Context, issue *types.Issue) error
	GetIssue(ctx context.Context, repo string, number int) (*types.Issue, error)
	ListIssues(ctx context.Context, filter types.IssueFilter) ([]*types.Issue, error)

	// Lifecycle
	TransitionIssue(ctx context.Context, repo string, number int, to types.State, actor, detail string) error
	MarkReady(ctx context.Context, repo string, number int, branch, briefPath, actor string) error

	// Comments, replaced wholesale on each sighting
	ReplaceComments(ctx context.Context, repo string, number int, comments []types.Comment) error
	GetComments(ctx context.Context, repo string, number int) ([]types.Comment, error)

	// Audit trail
	GetEvents(ctx context.Context, repo string, number int, limit int) ([]*types.Event, error)

	// Agent instances
	RegisterInstance(ctx context.Context, instance *types.AgentInstance) error
	UpdateHeartbeat(ctx context.Context, instanceID string) error
	MarkInstanceStopped(ctx context.Context, instanceID string) error
	GetActiveInstances(ctx context.Context) ([]*types.AgentInstance, error)
	CleanupStaleInstances(ctx context.Context, staleSeconds int) (int, error)

	// Statistics
	GetStatistics(ctx context.Context) (*types.Statistics, error)

	// Config
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path.
	// Special value ":memory:" creates an in-memory database (useful for tests).
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".mind-agent/sightings.db",
	}
}

// NewStorage creates a new SQLite storage backend
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	return sqlite.New(cfg.Path)
}
