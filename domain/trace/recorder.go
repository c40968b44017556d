package trace

import (
	"fmt"
	"sync"
	"time"

	"github.com/inkwell-labs/storyplan/domain/world"
)

// Recorder is the append-only trace log for one run. Append is safe under
// the concurrent writers the parallel dispatch modes produce; every entry
// has a single writer.
type Recorder struct {
	runID   string
	entries []Entry
	seq     uint64
	mu      sync.RWMutex
}

// NewRecorder creates a recorder for the given run.
func NewRecorder(runID string) *Recorder {
	return &Recorder{
		runID:   runID,
		entries: make([]Entry, 0),
	}
}

// RunID returns the associated run ID.
func (r *Recorder) RunID() string {
	return r.runID
}

// Append adds an entry, assigning its sequence number and ID.
func (r *Recorder) Append(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.RunID = r.runID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	r.seq++
	entry.Sequence = r.seq
	entry.ID = fmt.Sprintf("%s-%06d", r.runID, r.seq)

	r.entries = append(r.entries, entry)
}

// Entries returns a copy of all entries in append order.
func (r *Recorder) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// EntriesByType returns entries filtered by type.
func (r *Recorder) EntriesByType(entryType EntryType) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	for _, e := range r.entries {
		if e.Type == entryType {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of entries.
func (r *Recorder) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// RecordRunStarted records the start of a run.
func (r *Recorder) RecordRunStarted(goal []world.Fact, mode string) {
	keys := make([]string, len(goal))
	for i, f := range goal {
		keys[i] = f.Key
	}
	r.Append(NewEntry(EntryRunStarted, r.runID, map[string]any{
		"goal_facts": keys,
		"mode":       mode,
	}))
}

// RecordPlanCreated records the plan emitted by the planner.
func (r *Recorder) RecordPlanCreated(actionIDs []string, totalCost float64, nodes int) {
	r.Append(NewEntry(EntryPlanCreated, r.runID, PlanCreatedDetails{
		ActionIDs:     actionIDs,
		TotalCost:     totalCost,
		NodesExpanded: nodes,
	}))
}

// RecordDecision records why an action was chosen over alternatives.
func (r *Recorder) RecordDecision(actionID, fact string, alternatives []string, reason string) {
	r.Append(NewEntry(EntryAgentDecision, r.runID, AgentDecisionDetails{
		ActionID:     actionID,
		Fact:         fact,
		Alternatives: alternatives,
		Reason:       reason,
	}))
}

// RecordRejection records a candidate branch excluded during search.
func (r *Recorder) RecordRejection(actionID, fact string, reason RejectReason, detail string) {
	r.Append(NewEntry(EntryRejectedAction, r.runID, RejectedActionDetails{
		ActionID: actionID,
		Fact:     fact,
		Reason:   reason,
		Detail:   detail,
	}))
}

// RecordDispatch records an action handed to an agent.
func (r *Recorder) RecordDispatch(actionID, agent, mode string, speculative bool) {
	r.Append(NewEntry(EntryActionDispatched, r.runID, ActionDispatchedDetails{
		ActionID:    actionID,
		Agent:       agent,
		Mode:        mode,
		Speculative: speculative,
	}))
}

// RecordActionStep records a completed action invocation.
func (r *Recorder) RecordActionStep(d ActionStepDetails) {
	r.Append(NewEntry(EntryActionStep, r.runID, d))
}

// RecordActionFailed records a terminal action failure and the dependent
// actions it aborted.
func (r *Recorder) RecordActionFailed(actionID, agent, kind string, err error, aborted []string) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.Append(NewEntry(EntryActionFailed, r.runID, ActionFailedDetails{
		ActionID: actionID,
		Agent:    agent,
		Kind:     kind,
		Error:    msg,
		Aborted:  aborted,
	}))
}

// RecordPhase records a run lifecycle transition.
func (r *Recorder) RecordPhase(from, to, reason string) {
	r.Append(NewEntry(EntryPhaseTransition, r.runID, PhaseTransitionDetails{
		From:   from,
		To:     to,
		Reason: reason,
	}))
}

// RecordDuplicateDropped records a discarded speculative result.
func (r *Recorder) RecordDuplicateDropped(actionID, agent, winner string) {
	r.Append(NewEntry(EntryDuplicateDropped, r.runID, DuplicateDroppedDetails{
		ActionID: actionID,
		Agent:    agent,
		Winner:   winner,
	}))
}

// RecordRunCompleted records the run outcome.
func (r *Recorder) RecordRunCompleted(satisfied, unsatisfied []string, degraded bool) {
	r.Append(NewEntry(EntryRunCompleted, r.runID, RunCompletedDetails{
		Satisfied:   satisfied,
		Unsatisfied: unsatisfied,
		Degraded:    degraded,
	}))
}

// RecordRunFailed records a run-level failure.
func (r *Recorder) RecordRunFailed(reason string) {
	r.Append(NewEntry(EntryRunFailed, r.runID, map[string]string{
		"reason": reason,
	}))
}
