package Policy

import (
	"testing"

	"K9Ops/Models"

	"github.com/stretchr/testify/assert"
)

func userWith(id uint, role string, projectID *uint) Models.User {
	user := Models.User{Role: role, ProjectID: projectID}
	user.ID = id
	return user
}

func uintPtr(v uint) *uint { return &v }

func TestEvaluate(t *testing.T) {
	projectA := uintPtr(1)
	projectB := uintPtr(2)

	admin := userWith(10, Models.RoleAdmin, nil)
	manager := userWith(20, Models.RoleProjectManager, projectA)
	unassignedManager := userWith(21, Models.RoleProjectManager, nil)
	handler := userWith(30, Models.RoleHandler, projectA)

	tests := []struct {
		name   string
		caller Models.User
		op     Operation
		target Target
		want   Effect
	}{
		{
			name:   "missing entity is not found for admins too",
			caller: admin,
			op:     OpRead,
			target: Target{Exists: false},
			want:   NotFound,
		},
		{
			name:   "admin may update inside any project",
			caller: admin,
			op:     OpUpdate,
			target: Target{Exists: true, ProjectID: projectB},
			want:   Allow,
		},
		{
			name:   "admin cannot write to a locked schedule",
			caller: admin,
			op:     OpCreate,
			target: Target{Exists: true, ProjectID: projectA, Locked: true},
			want:   InvalidState,
		},
		{
			name:   "locked target still allows review",
			caller: manager,
			op:     OpReview,
			target: Target{Exists: true, ProjectID: projectA, Locked: true},
			want:   Allow,
		},
		{
			name:   "locked target still allows read",
			caller: handler,
			op:     OpRead,
			target: Target{Exists: true, ProjectID: projectA, HandlerID: 30, Locked: true},
			want:   Allow,
		},
		{
			name:   "manager confined to own project",
			caller: manager,
			op:     OpUpdate,
			target: Target{Exists: true, ProjectID: projectB},
			want:   Deny,
		},
		{
			name:   "manager reads are project scoped too",
			caller: manager,
			op:     OpRead,
			target: Target{Exists: true, ProjectID: projectB},
			want:   Deny,
		},
		{
			name:   "manager allowed inside own project",
			caller: manager,
			op:     OpCreate,
			target: Target{Exists: true, ProjectID: projectA},
			want:   Allow,
		},
		{
			name:   "manager without a project is denied",
			caller: unassignedManager,
			op:     OpRead,
			target: Target{Exists: true, ProjectID: projectA},
			want:   Deny,
		},
		{
			name:   "handler may submit own report",
			caller: handler,
			op:     OpSubmit,
			target: Target{Exists: true, ProjectID: projectA, HandlerID: 30},
			want:   Allow,
		},
		{
			name:   "handler denied on a peer's report",
			caller: handler,
			op:     OpRead,
			target: Target{Exists: true, ProjectID: projectA, HandlerID: 31},
			want:   Deny,
		},
		{
			name:   "manager cannot edit a handler's report",
			caller: manager,
			op:     OpUpdate,
			target: Target{Exists: true, ProjectID: projectA, HandlerID: 30, AuthorOnly: true},
			want:   Deny,
		},
		{
			name:   "manager cannot submit a handler's report",
			caller: manager,
			op:     OpSubmit,
			target: Target{Exists: true, ProjectID: projectA, HandlerID: 30, AuthorOnly: true},
			want:   Deny,
		},
		{
			name:   "manager may still review an author-only target",
			caller: manager,
			op:     OpReview,
			target: Target{Exists: true, ProjectID: projectA, HandlerID: 30, AuthorOnly: true},
			want:   Allow,
		},
		{
			name:   "admin may edit an author-only target",
			caller: admin,
			op:     OpUpdate,
			target: Target{Exists: true, ProjectID: projectA, HandlerID: 30, AuthorOnly: true},
			want:   Allow,
		},
		{
			name:   "author keeps edit rights on own report",
			caller: handler,
			op:     OpUpdate,
			target: Target{Exists: true, ProjectID: projectA, HandlerID: 30, AuthorOnly: true},
			want:   Allow,
		},
		{
			name:   "handler may never review",
			caller: handler,
			op:     OpReview,
			target: Target{Exists: true, ProjectID: projectA, HandlerID: 30},
			want:   Deny,
		},
		{
			name:   "handler denied when target has no handler",
			caller: handler,
			op:     OpUpdate,
			target: Target{Exists: true, ProjectID: projectA},
			want:   Deny,
		},
		{
			name:   "unknown role is denied",
			caller: userWith(40, "INTERN", projectA),
			op:     OpRead,
			target: Target{Exists: true, ProjectID: projectA},
			want:   Deny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Evaluate(tt.caller, tt.op, tt.target)
			assert.Equal(t, tt.want, decision.Effect)
			if tt.want != Allow {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}
