package orchestrator

import (
	"fmt"
	"rtfctl/internal/host"
	"time"
)

// State is the orchestrator's position in a run.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateExecuting
	StateCleanup
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateExecuting:
		return "executing"
	case StateCleanup:
		return "cleanup"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// UnitResult records how one execution unit finished.
type UnitResult struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Assembly string `json:"assembly"`
	Fixture  string `json:"fixture,omitempty"`
	Test     string `json:"test,omitempty"`
	Expected int    `json:"expected"`

	host.Outcome
	StartTime time.Time `json:"startTime"`
}

// RunSummary is the record of a single Execute pass.
type RunSummary struct {
	RunID       string        `json:"runId"`
	Target      string        `json:"target"`
	Fixture     string        `json:"fixture,omitempty"`
	Test        string        `json:"test,omitempty"`
	RunCount    int           `json:"runCount"`
	ResultsPath string        `json:"resultsPath,omitempty"`
	Concatenate bool          `json:"concatenate"`
	Parallel    int           `json:"parallel"`
	Units       []UnitResult  `json:"units"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	TimedOut    int           `json:"timedOut"`
	Skipped     int           `json:"skipped"`
	Stopped     bool          `json:"stopped"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
	Duration    time.Duration `json:"duration"`
}

// Succeeded reports whether no unit failed or timed out.
func (s *RunSummary) Succeeded() bool {
	return s.Failed == 0 && s.TimedOut == 0
}

// updateCounters updates the summary counters for one unit result
func (s *RunSummary) updateCounters(r UnitResult) {
	switch r.Status {
	case host.StatusSuccess:
		s.Passed++
	case host.StatusFailure:
		s.Failed++
	case host.StatusTimeout:
		s.TimedOut++
	case host.StatusSkipped:
		s.Skipped++
	}
}

// EventType identifies an Event.
type EventType int

const (
	EventStateChanged EventType = iota
	EventUnitStarted
	EventUnitFinished
)

// Event is published to subscribers as a run progresses.
type Event struct {
	Type      EventType
	State     State
	Unit      host.Unit
	Result    *UnitResult
	Completed int
	Total     int
}
