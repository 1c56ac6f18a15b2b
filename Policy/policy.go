package Policy

import "K9Ops/Models"

// Operation names the action being attempted against a target entity.
type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpSubmit Operation = "submit"
	OpReview Operation = "review"
)

// Effect is the outcome of a policy evaluation.
type Effect int

const (
	Allow Effect = iota
	Deny
	NotFound
	// InvalidState refuses a write because of the target's lifecycle
	// state rather than the caller's identity; it maps to a conflict at
	// the boundary, not a forbidden.
	InvalidState
)

// Decision carries the effect plus a human-readable reason for logs and
// error bodies.
type Decision struct {
	Effect Effect
	Reason string
}

// Target describes the entity the caller wants to act on, reduced to the
// attributes the policy cares about. Exists=false stands for a lookup
// miss so missing and hidden entities flow through one code path.
type Target struct {
	Exists    bool
	ProjectID *uint
	HandlerID uint
	Locked    bool
	// AuthorOnly marks mutations that belong to the report's author:
	// create/update/submit are denied to everyone except the author and
	// admins, while read and review keep their usual scoping.
	AuthorOnly bool
}

func allow() Decision             { return Decision{Effect: Allow} }
func deny(reason string) Decision { return Decision{Effect: Deny, Reason: reason} }

// Evaluate is the single authorization decision point. Every handler
// routes its role/scope/lock branching through here so the rules live in
// one tested place instead of scattered conditionals.
//
// Rules:
//   - a missing entity is NotFound for everyone, never a Deny
//   - create/update against a locked schedule is InvalidState for every
//     role, admins included; lock overrides would be a separate audited
//     surface
//   - admins may do anything else
//   - project managers are confined to their assigned project, reads
//     included; they may read and review reports there but never draft,
//     edit, or submit one on a handler's behalf
//   - handlers may act only on their own assignments and reports, and may
//     never review
func Evaluate(caller Models.User, op Operation, target Target) Decision {
	if !target.Exists {
		return Decision{Effect: NotFound, Reason: "no such entity"}
	}

	if target.Locked && (op == OpCreate || op == OpUpdate) {
		return Decision{Effect: InvalidState, Reason: "schedule is locked"}
	}

	switch caller.Role {
	case Models.RoleAdmin:
		return allow()

	case Models.RoleProjectManager:
		if caller.ProjectID == nil {
			return deny("no project assigned")
		}
		if target.ProjectID == nil || *target.ProjectID != *caller.ProjectID {
			return deny("outside assigned project")
		}
		if target.AuthorOnly && (op == OpCreate || op == OpUpdate || op == OpSubmit) {
			return deny("only the report author may do this")
		}
		return allow()

	case Models.RoleHandler:
		if op == OpReview {
			return deny("handlers cannot review reports")
		}
		if target.HandlerID == 0 || target.HandlerID != caller.ID {
			return deny("not the assigned handler")
		}
		return allow()
	}

	return deny("unknown role")
}
