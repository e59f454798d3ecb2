package sync

import (
	"sync"
	"time"
)

// State tracks the progress of the current or most recent sync run. It
// is injected wherever progress is read or written, so tests get an
// isolated instance instead of sharing process-global state.
type State struct {
	mu        sync.Mutex
	running   bool
	progress  string
	startedAt *time.Time
	lastError string
}

// NewState creates an idle state.
func NewState() *State {
	return &State{}
}

// Snapshot is a point-in-time copy of the sync state.
type Snapshot struct {
	Running   bool       `json:"running"`
	Progress  string     `json:"progress,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Running:  s.running,
		Progress: s.progress,
		Error:    s.lastError,
	}
	if s.startedAt != nil {
		started := *s.startedAt
		snap.StartedAt = &started
	}
	return snap
}

// begin marks a run as started and clears the previous error.
func (s *State) begin() {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.startedAt = &now
	s.progress = "Starting..."
	s.lastError = ""
}

// setProgress updates the human-readable progress line.
func (s *State) setProgress(progress string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = progress
}

// finish marks the run as done; errMsg is empty on success.
func (s *State) finish(progress, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.progress = progress
	s.lastError = errMsg
}
