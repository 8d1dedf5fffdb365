package types

import (
	"fmt"
	"time"
)

// Issue is a sighting of a forge issue, identified by (repository, number).
type Issue struct {
	ID        int64      `json:"id"` // forge-global issue ID
	Repo      string     `json:"repo"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	URL       string     `json:"url"`
	Labels    []string   `json:"labels,omitempty"`
	State     State      `json:"state"`
	Branch    string     `json:"branch,omitempty"`
	BriefPath string     `json:"brief_path,omitempty"`
	SeenAt    time.Time  `json:"seen_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ReadyAt   *time.Time `json:"ready_at,omitempty"`
}

// Validate checks if the issue has valid field values
func (i *Issue) Validate() error {
	if i.Repo == "" {
		return fmt.Errorf("repo is required")
	}
	if i.Number <= 0 {
		return fmt.Errorf("number must be positive (got %d)", i.Number)
	}
	if len(i.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if !i.State.IsValid() {
		return fmt.Errorf("invalid state: %s", i.State)
	}
	return nil
}

// Key returns the canonical "repo#number" identity used in logs and events.
func (i *Issue) Key() string {
	return fmt.Sprintf("%s#%d", i.Repo, i.Number)
}

// WorkBranch returns the branch name the workspace is checked out to for this issue.
func (i *Issue) WorkBranch() string {
	if i.Branch != "" {
		return i.Branch
	}
	return fmt.Sprintf("mind/issue-%d", i.Number)
}

// State represents the current lifecycle state of a sighted issue
type State string

const (
	StateNew        State = "new"         // Sighted, not yet processed
	StateReady      State = "ready"       // Workspace prepared and brief written
	StateInProgress State = "in_progress" // Handed to an assistant
	StateFixed      State = "fixed"       // Fix applied locally
	StatePushed     State = "pushed"      // Fix pushed to the forge
	StateSkipped    State = "skipped"     // Processing failed, absorbing state
)

// IsValid checks if the state value is valid
func (s State) IsValid() bool {
	switch s {
	case StateNew, StateReady, StateInProgress, StateFixed, StatePushed, StateSkipped:
		return true
	}
	return false
}

// ValidTransitions defines the valid transitions for the issue lifecycle.
//
//	new → ready → in_progress → fixed → pushed
//	 ↓
//	skipped (absorbing, reachable from new on any processing failure)
func (s State) ValidTransitions() []State {
	switch s {
	case StateNew:
		return []State{StateReady, StateSkipped}
	case StateReady:
		return []State{StateInProgress}
	case StateInProgress:
		return []State{StateFixed}
	case StateFixed:
		return []State{StatePushed}
	case StatePushed:
		return []State{} // Terminal state
	case StateSkipped:
		return []State{} // Absorbing state
	default:
		return []State{}
	}
}

// CanTransitionTo checks if a transition from this state to the target state is valid
func (s State) CanTransitionTo(target State) bool {
	for _, valid := range s.ValidTransitions() {
		if valid == target {
			return true
		}
	}
	return false
}

// Comment is a single issue comment, oldest-first as returned by the forge.
type Comment struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoredFile is a file ranked by the relevance scorer.
// The reason records the first scoring rule that applied.
type ScoredFile struct {
	Path   string `json:"path"` // relative to the workspace root
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Event is an audit trail entry for an issue sighting
type Event struct {
	ID        int64     `json:"id"`
	Repo      string    `json:"repo"`
	Number    int       `json:"number"`
	EventType EventType `json:"event_type"`
	Actor     string    `json:"actor"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventType categorizes audit trail events
type EventType string

const (
	EventSighted      EventType = "sighted"
	EventStateChanged EventType = "state_changed"
	EventBriefWritten EventType = "brief_written"
	EventSkipped      EventType = "skipped"
	EventNotified     EventType = "notified"
)

// AgentStatus represents the state of a polling agent instance
type AgentStatus string

const (
	AgentStatusRunning AgentStatus = "running"
	AgentStatusStopped AgentStatus = "stopped"
)

// IsValid checks if the agent status value is valid
func (s AgentStatus) IsValid() bool {
	return s == AgentStatusRunning || s == AgentStatusStopped
}

// AgentInstance represents a running polling agent
type AgentInstance struct {
	InstanceID    string      `json:"instance_id"`
	Hostname      string      `json:"hostname"`
	PID           int         `json:"pid"`
	Status        AgentStatus `json:"status"`
	StartedAt     time.Time   `json:"started_at"`
	LastHeartbeat time.Time   `json:"last_heartbeat"`
	Version       string      `json:"version"`
}

// Validate checks if the agent instance has valid field values
func (a *AgentInstance) Validate() error {
	if a.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if a.Hostname == "" {
		return fmt.Errorf("hostname is required")
	}
	if a.PID <= 0 {
		return fmt.Errorf("pid must be positive (got %d)", a.PID)
	}
	if !a.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", a.Status)
	}
	return nil
}

// IssueFilter is used to filter sighting queries
type IssueFilter struct {
	Repo  string
	State *State
	Limit int
}

// Statistics provides aggregate sighting metrics
type Statistics struct {
	TotalIssues   int `json:"total_issues"`
	NewIssues     int `json:"new_issues"`
	ReadyIssues   int `json:"ready_issues"`
	SkippedIssues int `json:"skipped_issues"`
	PushedIssues  int `json:"pushed_issues"`
}
