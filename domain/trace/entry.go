// Package trace provides the append-only audit record of planning
// decisions, rejected candidates, and action outcomes. Entries are owned
// by the recorder and read-only to everything else; external visualization
// tooling consumes them through the store.
package trace

import (
	"encoding/json"
	"time"

	"github.com/inkwell-labs/storyplan/domain/world"
)

// EntryType classifies the type of trace entry.
type EntryType string

const (
	EntryRunStarted       EntryType = "run_started"
	EntryRunCompleted     EntryType = "run_completed"
	EntryRunFailed        EntryType = "run_failed"
	EntryPhaseTransition  EntryType = "phase_transition"
	EntryPlanCreated      EntryType = "plan_created"
	EntryAgentDecision    EntryType = "agent_decision"
	EntryRejectedAction   EntryType = "rejected_action"
	EntryActionDispatched EntryType = "action_dispatched"
	EntryActionStep       EntryType = "action_step"
	EntryActionFailed     EntryType = "action_failed"
	EntryDuplicateDropped EntryType = "duplicate_dropped"
)

// Entry is a single record in the trace.
type Entry struct {
	ID        string          `json:"id"`
	Sequence  uint64          `json:"sequence"`
	Timestamp time.Time       `json:"timestamp"`
	Type      EntryType       `json:"type"`
	RunID     string          `json:"run_id"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// RejectReason says why a candidate action was excluded during search.
type RejectReason string

const (
	// RejectPreconditionUnmet means regression could not satisfy a
	// precondition of the candidate.
	RejectPreconditionUnmet RejectReason = "precondition_unmet"

	// RejectCycle means the candidate would revisit a fact already being
	// resolved on the search path.
	RejectCycle RejectReason = "cycle_detected"

	// RejectBudget means the node budget ran out before the branch could
	// be explored.
	RejectBudget RejectReason = "budget_exhausted"

	// RejectCost means a cheaper plan had already satisfied the frontier.
	RejectCost RejectReason = "cost_too_high"
)

// PlanCreatedDetails records the emitted plan.
type PlanCreatedDetails struct {
	ActionIDs     []string `json:"action_ids"`
	TotalCost     float64  `json:"total_cost"`
	NodesExpanded int      `json:"nodes_expanded"`
}

// AgentDecisionDetails records why an action was chosen over alternatives.
type AgentDecisionDetails struct {
	ActionID     string   `json:"action_id"`
	Fact         string   `json:"fact"`
	Alternatives []string `json:"alternatives,omitempty"`
	Reason       string   `json:"reason"`
}

// RejectedActionDetails records why a candidate branch was excluded.
type RejectedActionDetails struct {
	ActionID string       `json:"action_id"`
	Fact     string       `json:"fact,omitempty"`
	Reason   RejectReason `json:"reason"`
	Detail   string       `json:"detail,omitempty"`
}

// ActionDispatchedDetails records an action handed to an agent.
type ActionDispatchedDetails struct {
	ActionID    string `json:"action_id"`
	Agent       string `json:"agent"`
	Mode        string `json:"mode"`
	Speculative bool   `json:"speculative,omitempty"`
}

// ActionStepDetails records what happened when an action ran: timing,
// retries, and the resulting world-state delta.
type ActionStepDetails struct {
	ActionID string        `json:"action_id"`
	Agent    string        `json:"agent"`
	Model    string        `json:"model,omitempty"`
	Duration time.Duration `json:"duration"`
	Retries  int           `json:"retries"`
	Degraded bool          `json:"degraded,omitempty"`
	Delta    world.Patch   `json:"delta,omitempty"`
}

// ActionFailedDetails records a terminal action failure.
type ActionFailedDetails struct {
	ActionID string `json:"action_id"`
	Agent    string `json:"agent,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Error    string `json:"error"`
	Aborted  []string `json:"aborted,omitempty"`
}

// PhaseTransitionDetails records a run lifecycle transition.
type PhaseTransitionDetails struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// RunCompletedDetails records the outcome of a run.
type RunCompletedDetails struct {
	Satisfied   []string `json:"satisfied,omitempty"`
	Unsatisfied []string `json:"unsatisfied,omitempty"`
	Degraded    bool     `json:"degraded"`
}

// DuplicateDroppedDetails records a speculative duplicate whose result was
// discarded after another invocation won.
type DuplicateDroppedDetails struct {
	ActionID string `json:"action_id"`
	Agent    string `json:"agent"`
	Winner   string `json:"winner"`
}

// NewEntry creates a trace entry with marshalled details.
func NewEntry(entryType EntryType, runID string, details any) Entry {
	var detailsJSON json.RawMessage
	if details != nil {
		detailsJSON, _ = json.Marshal(details)
	}
	return Entry{
		Timestamp: time.Now(),
		Type:      entryType,
		RunID:     runID,
		Details:   detailsJSON,
	}
}

// DecodeDetails unmarshals the entry details into the given struct.
func (e Entry) DecodeDetails(v any) error {
	if e.Details == nil {
		return nil
	}
	return json.Unmarshal(e.Details, v)
}
