package leave

import (
	"leavehub/internal/domain/auth"
	"leavehub/internal/domain/settings"
)

// CanApprove reports whether the role may approve or reject leave requests
// under the current org toggles. ADMIN is always authorized. Scope is checked
// separately; both must pass for a decision to be legal.
func CanApprove(role auth.Role, cfg settings.OrgSettings) bool {
	switch role {
	case auth.RoleAdmin:
		return true
	case auth.RoleHR:
		return cfg.HRCanApproveLeaves
	case auth.RoleManager:
		return cfg.ManagerCanApproveLeaves
	case auth.RoleTeamLead:
		return cfg.TeamLeadCanApproveLeaves
	default:
		return false
	}
}
