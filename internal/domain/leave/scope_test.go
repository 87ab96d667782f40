package leave

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leavehub/internal/domain/auth"
	"leavehub/internal/domain/org"
)

func TestScopeFor(t *testing.T) {
	tests := []struct {
		name             string
		actor            org.Actor
		hasDirectReports bool
		wantKind         ScopeKind
	}{
		{"admin sees all", org.Actor{ID: "a1", Role: auth.RoleAdmin}, false, ScopeAll},
		{"hr sees all", org.Actor{ID: "h1", Role: auth.RoleHR}, false, ScopeAll},
		{"manager sees direct reports", org.Actor{ID: "m1", Role: auth.RoleManager}, false, ScopeDirectReports},
		{"team lead with team sees team", org.Actor{ID: "t1", Role: auth.RoleTeamLead, TeamID: "team-9"}, false, ScopeTeam},
		{"team lead without team falls through to reports", org.Actor{ID: "t2", Role: auth.RoleTeamLead}, true, ScopeDirectReports},
		{"team lead without team or reports sees own", org.Actor{ID: "t3", Role: auth.RoleTeamLead}, false, ScopeOwn},
		{"employee with reports sees them", org.Actor{ID: "e1", Role: auth.RoleEmployee}, true, ScopeDirectReports},
		{"employee sees own", org.Actor{ID: "e2", Role: auth.RoleEmployee}, false, ScopeOwn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := ScopeFor(tt.actor, tt.hasDirectReports)
			assert.Equal(t, tt.wantKind, scope.Kind)
			assert.Equal(t, tt.actor.ID, scope.ActorID)
		})
	}
}

func TestScopeLabel(t *testing.T) {
	assert.Equal(t, "all", Scope{Kind: ScopeAll}.Label())
	assert.Equal(t, "direct_reports", Scope{Kind: ScopeDirectReports}.Label())
	assert.Equal(t, "team", Scope{Kind: ScopeTeam}.Label())
	assert.Equal(t, "own", Scope{Kind: ScopeOwn}.Label())
}

func TestScopeIncludes(t *testing.T) {
	owner := org.Actor{ID: "emp-1", ManagerID: "mgr-1", TeamID: "team-1"}

	assert.True(t, Scope{Kind: ScopeAll}.Includes(owner))

	assert.True(t, Scope{Kind: ScopeDirectReports, ActorID: "mgr-1"}.Includes(owner))
	assert.False(t, Scope{Kind: ScopeDirectReports, ActorID: "mgr-2"}.Includes(owner))
	assert.False(t, Scope{Kind: ScopeDirectReports, ActorID: ""}.Includes(org.Actor{ID: "emp-2"}))

	assert.True(t, Scope{Kind: ScopeTeam, ActorID: "lead-1", TeamID: "team-1"}.Includes(owner))
	assert.False(t, Scope{Kind: ScopeTeam, ActorID: "lead-1", TeamID: "team-2"}.Includes(owner))
	assert.False(t, Scope{Kind: ScopeTeam, ActorID: "lead-1", TeamID: ""}.Includes(org.Actor{ID: "emp-3"}))

	assert.True(t, Scope{Kind: ScopeOwn, ActorID: "emp-1"}.Includes(owner))
	assert.False(t, Scope{Kind: ScopeOwn, ActorID: "emp-9"}.Includes(owner))
}

// A team lead assigned to a team may decide for teammates but not for a
// direct report who sits on a different team.
func TestTeamScopeExcludesOffTeamReport(t *testing.T) {
	lead := org.Actor{ID: "lead-1", Role: auth.RoleTeamLead, TeamID: "team-1"}
	scope := ScopeFor(lead, true)

	teammate := org.Actor{ID: "emp-1", TeamID: "team-1", ManagerID: "mgr-9"}
	offTeamReport := org.Actor{ID: "emp-2", TeamID: "team-2", ManagerID: "lead-1"}

	assert.Equal(t, ScopeTeam, scope.Kind)
	assert.True(t, scope.Includes(teammate))
	assert.False(t, scope.Includes(offTeamReport))
}
