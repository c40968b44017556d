// Package agent provides the agent capability model: named executors, each
// authorized to run the actions of a single role.
package agent

import "fmt"

// Role identifies the kind of authoring work an agent is authorized for.
type Role string

const (
	// RoleArchitect plans story structure and outlines.
	RoleArchitect Role = "architect"
	// RoleWriter drafts prose.
	RoleWriter Role = "writer"
	// RoleEditor revises and polishes drafts.
	RoleEditor Role = "editor"
	// RoleDoctor diagnoses consistency and continuity problems.
	RoleDoctor Role = "doctor"
	// RoleProfiler builds and maintains character profiles.
	RoleProfiler Role = "profiler"
	// RoleBuilder constructs world and setting material.
	RoleBuilder Role = "builder"
)

// Roles returns all canonical roles in a stable order.
func Roles() []Role {
	return []Role{RoleArchitect, RoleWriter, RoleEditor, RoleDoctor, RoleProfiler, RoleBuilder}
}

// ValidRole reports whether the role is one of the canonical roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleArchitect, RoleWriter, RoleEditor, RoleDoctor, RoleProfiler, RoleBuilder:
		return true
	default:
		return false
	}
}

// Agent is a named executor. Agents are stateless beyond their role
// authorization: an agent may run an action iff the action declares its role.
type Agent struct {
	Name string
	Role Role
}

// New creates an agent for the given role. The name encodes the role and a
// worker index, e.g. "writer-2".
func New(role Role, index int) (Agent, error) {
	if !ValidRole(role) {
		return Agent{}, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	return Agent{
		Name: fmt.Sprintf("%s-%d", role, index),
		Role: role,
	}, nil
}

// CanRun reports whether the agent is authorized for actions of the role.
func (a Agent) CanRun(role Role) bool {
	return a.Role == role
}
