package types

import (
	"testing"
	"time"
)

func TestIssueValidate(t *testing.T) {
	issue := &Issue{
		Repo:   "acme/widgets",
		Number: 42,
		Title:  "Login button does nothing",
		State:  StateNew,
		SeenAt: time.Now(),
	}
	if err := issue.Validate(); err != nil {
		t.Fatalf("Validate() failed for valid issue: %v", err)
	}
}

func TestIssueValidate_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		issue Issue
	}{
		{"missing repo", Issue{Number: 1, Title: "t", State: StateNew}},
		{"zero number", Issue{Repo: "a/b", Title: "t", State: StateNew}},
		{"missing title", Issue{Repo: "a/b", Number: 1, State: StateNew}},
		{"bad state", Issue{Repo: "a/b", Number: 1, Title: "t", State: State("bogus")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.issue.Validate(); err == nil {
				t.Errorf("Validate() should have failed for %s", tt.name)
			}
		})
	}
}

func TestIssueKey(t *testing.T) {
	issue := &Issue{Repo: "acme/widgets", Number: 7}
	if got := issue.Key(); got != "acme/widgets#7" {
		t.Errorf("Key() = %q, want %q", got, "acme/widgets#7")
	}
}

func TestWorkBranch(t *testing.T) {
	issue := &Issue{Repo: "acme/widgets", Number: 7}
	if got := issue.WorkBranch(); got != "mind/issue-7" {
		t.Errorf("WorkBranch() = %q, want %q", got, "mind/issue-7")
	}

	issue.Branch = "custom-branch"
	if got := issue.WorkBranch(); got != "custom-branch" {
		t.Errorf("WorkBranch() = %q, want %q", got, "custom-branch")
	}
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from    State
		to      State
		allowed bool
	}{
		{StateNew, StateReady, true},
		{StateNew, StateSkipped, true},
		{StateNew, StateInProgress, false},
		{StateReady, StateInProgress, true},
		{StateReady, StateSkipped, false},
		{StateInProgress, StateFixed, true},
		{StateFixed, StatePushed, true},
		{StatePushed, StateNew, false},
		{StateSkipped, StateReady, false},
		{StateSkipped, StateNew, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("CanTransitionTo(%s → %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []State{StatePushed, StateSkipped} {
		if transitions := s.ValidTransitions(); len(transitions) != 0 {
			t.Errorf("%s should be terminal, got transitions %v", s, transitions)
		}
	}
}

func TestStateIsValid(t *testing.T) {
	valid := []State{StateNew, StateReady, StateInProgress, StateFixed, StatePushed, StateSkipped}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("IsValid(%s) = false, want true", s)
		}
	}
	if State("open").IsValid() {
		t.Error(`IsValid("open") = true, want false`)
	}
}

func TestAgentInstanceValidate(t *testing.T) {
	inst := &AgentInstance{
		InstanceID: "abc-123",
		Hostname:   "devbox",
		PID:        4242,
		Status:     AgentStatusRunning,
	}
	if err := inst.Validate(); err != nil {
		t.Fatalf("Validate() failed for valid instance: %v", err)
	}

	inst.PID = 0
	if err := inst.Validate(); err == nil {
		t.Error("Validate() should reject non-positive PID")
	}
}
