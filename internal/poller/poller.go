// Package poller runs the polling event loop: it discovers repositories,
// sights open issues, prepares workspaces and writes task briefs, recording
// every step in the sighting store.
package poller

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/owizdom/mind-agent/internal/brief"
	"github.com/owizdom/mind-agent/internal/forge"
	"github.com/owizdom/mind-agent/internal/notify"
	"github.com/owizdom/mind-agent/internal/scan"
	"github.com/owizdom/mind-agent/internal/storage"
	"github.com/owizdom/mind-agent/internal/types"
	"github.com/owizdom/mind-agent/internal/workspace"
)

// Poller manages the issue sighting event loop
type Poller struct {
	store      storage.Storage
	forge      forge.Client
	workspaces *workspace.Manager
	scorer     *scan.Scorer
	generator  *brief.Generator
	notifier   notify.Notifier
	config     *Config
	instanceID string
	hostname   string
	pid        int
	version    string

	// Control channels
	stopCh          chan struct{}
	doneCh          chan struct{}
	heartbeatStopCh chan struct{}
	heartbeatDoneCh chan struct{}

	// State
	mu      sync.RWMutex
	running bool
}

// Config holds poller configuration
type Config struct {
	Store      storage.Storage
	Forge      forge.Client
	Workspaces *workspace.Manager
	Notifier   notify.Notifier
	Version    string

	// Groups are expanded into project lists each cycle.
	Groups []string
	// Repos are polled directly.
	Repos []string

	// BriefsDir is where task briefs are written.
	BriefsDir string
	// ScanRules drive the relevance scorer.
	ScanRules scan.Rules

	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	StaleThreshold    time.Duration
}

// DefaultConfig returns default poller configuration
func DefaultConfig() *Config {
	return &Config{
		Version:           "0.1.0",
		BriefsDir:         ".mind-agent/briefs",
		ScanRules:         scan.DefaultRules(),
		PollInterval:      5 * time.Minute,
		HeartbeatInterval: 30 * time.Second,
		StaleThreshold:    5 * time.Minute,
	}
}

// New creates a new poller instance
func New(cfg *Config) (*Poller, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.Forge == nil {
		return nil, fmt.Errorf("forge client is required")
	}
	if cfg.Workspaces == nil {
		return nil, fmt.Errorf("workspace manager is required")
	}
	if len(cfg.Groups) == 0 && len(cfg.Repos) == 0 {
		return nil, fmt.Errorf("at least one group or repo is required")
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to get hostname: %w", err)
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Minute
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.StaleThreshold == 0 {
		cfg.StaleThreshold = 5 * time.Minute
	}
	if cfg.BriefsDir == "" {
		cfg.BriefsDir = ".mind-agent/briefs"
	}
	if cfg.ScanRules.MaxFiles == 0 {
		cfg.ScanRules = scan.DefaultRules()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = &notify.StderrNotifier{}
	}

	generator, err := brief.NewGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create brief generator: %w", err)
	}

	return &Poller{
		store:           cfg.Store,
		forge:           cfg.Forge,
		workspaces:      cfg.Workspaces,
		scorer:          scan.NewScorer(cfg.ScanRules),
		generator:       generator,
		notifier:        notifier,
		config:          cfg,
		instanceID:      uuid.New().String(),
		hostname:        hostname,
		pid:             os.Getpid(),
		version:         cfg.Version,
	}, nil
}

// InstanceID returns the unique ID of this poller instance.
func (p *Poller) InstanceID() string {
	return p.instanceID
}

// Start registers the instance and launches the poll and heartbeat loops.
// The first cycle runs immediately rather than waiting one interval.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller is already running")
	}
	p.running = true
	// Fresh channel pairs per run so a stopped poller can be started again.
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.heartbeatStopCh = make(chan struct{})
	p.heartbeatDoneCh = make(chan struct{})
	p.mu.Unlock()

	instance := &types.AgentInstance{
		InstanceID:    p.instanceID,
		Hostname:      p.hostname,
		PID:           p.pid,
		Status:        types.AgentStatusRunning,
		StartedAt:     time.Now(),
		LastHeartbeat: time.Now(),
		Version:       p.version,
	}
	if err := p.store.RegisterInstance(ctx, instance); err != nil {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		return fmt.Errorf("failed to register agent instance: %w", err)
	}

	// Reap instances that died without marking themselves stopped
	staleSecs := int(p.config.StaleThreshold.Seconds())
	cleaned, err := p.store.CleanupStaleInstances(ctx, staleSecs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to cleanup stale instances on startup: %v\n", err)
	} else if cleaned > 0 {
		fmt.Printf("Cleanup: marked %d stale instance(s) as stopped\n", cleaned)
	}

	go p.eventLoop(ctx)
	go p.heartbeatLoop(ctx)

	return nil
}

// Stop gracefully stops the poller
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller is not running")
	}
	p.mu.Unlock()

	close(p.stopCh)
	close(p.heartbeatStopCh)

	eventDone := false
	heartbeatDone := false
	for !eventDone || !heartbeatDone {
		select {
		case <-p.doneCh:
			eventDone = true
		case <-p.heartbeatDoneCh:
			heartbeatDone = true
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := p.store.MarkInstanceStopped(ctx, p.instanceID); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to mark instance as stopped: %v\n", err)
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the poller is currently running
func (p *Poller) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// eventLoop runs poll cycles until stopped
func (p *Poller) eventLoop(ctx context.Context) {
	defer close(p.doneCh)

	// First cycle immediately
	if err := p.RunCycle(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "poll cycle failed: %v\n", err)
	}

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.RunCycle(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "poll cycle failed: %v\n", err)
			}
		}
	}
}

// heartbeatLoop keeps the instance registration fresh
func (p *Poller) heartbeatLoop(ctx context.Context) {
	defer close(p.heartbeatDoneCh)

	ticker := time.NewTicker(p.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.heartbeatStopCh:
			return
		case <-ticker.C:
			if err := p.store.UpdateHeartbeat(ctx, p.instanceID); err != nil {
				fmt.Fprintf(os.Stderr, "warning: heartbeat failed: %v\n", err)
			}
		}
	}
}
