package leave

import (
	"leavehub/internal/domain/auth"
	"leavehub/internal/domain/org"
)

// ScopeKind enumerates the visibility scopes a viewer can resolve to.
type ScopeKind int

const (
	ScopeAll ScopeKind = iota
	ScopeDirectReports
	ScopeTeam
	ScopeOwn
)

// Scope bounds which requests and ledgers an actor may see or decide on.
// The same predicate backs listing and transition authorization.
type Scope struct {
	Kind    ScopeKind
	ActorID string
	TeamID  string
}

func (s Scope) Label() string {
	switch s.Kind {
	case ScopeAll:
		return "all"
	case ScopeDirectReports:
		return "direct_reports"
	case ScopeTeam:
		return "team"
	default:
		return "own"
	}
}

// ScopeFor resolves the actor's visibility scope. Resolution order, first
// match wins: ADMIN/HR see everything; MANAGER sees direct reports; a
// TEAM_LEAD with a team sees the team; anyone else sees direct reports if
// they have any, otherwise only themselves.
func ScopeFor(actor org.Actor, hasDirectReports bool) Scope {
	switch actor.Role {
	case auth.RoleAdmin, auth.RoleHR:
		return Scope{Kind: ScopeAll, ActorID: actor.ID}
	case auth.RoleManager:
		return Scope{Kind: ScopeDirectReports, ActorID: actor.ID}
	case auth.RoleTeamLead:
		if actor.TeamID != "" {
			return Scope{Kind: ScopeTeam, ActorID: actor.ID, TeamID: actor.TeamID}
		}
	}
	if hasDirectReports {
		return Scope{Kind: ScopeDirectReports, ActorID: actor.ID}
	}
	return Scope{Kind: ScopeOwn, ActorID: actor.ID}
}

// Includes reports whether the request owner falls inside the scope.
func (s Scope) Includes(owner org.Actor) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeDirectReports:
		return owner.ManagerID != "" && owner.ManagerID == s.ActorID
	case ScopeTeam:
		return s.TeamID != "" && owner.TeamID == s.TeamID
	default:
		return owner.ID == s.ActorID
	}
}
