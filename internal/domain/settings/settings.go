package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"leavehub/internal/db"
)

// OrgSettings carries the organization-wide leave toggles. Approval toggles
// default to true when the settings row is absent, visibility toggles to false.
type OrgSettings struct {
	TeamLeadCanApproveLeaves   bool `json:"teamLeadCanApproveLeaves"`
	ManagerCanApproveLeaves    bool `json:"managerCanApproveLeaves"`
	HRCanApproveLeaves         bool `json:"hrCanApproveLeaves"`
	EmployeesCanViewTeamLeaves bool `json:"employeesCanViewTeamLeaves"`
	EmployeesCanViewDeptLeaves bool `json:"employeesCanViewDepartmentLeaves"`
}

func Defaults() OrgSettings {
	return OrgSettings{
		TeamLeadCanApproveLeaves: true,
		ManagerCanApproveLeaves:  true,
		HRCanApproveLeaves:       true,
	}
}

type Store struct {
	DB db.Conn
}

func NewStore(conn db.Conn) *Store {
	return &Store{DB: conn}
}

func (s *Store) Load(ctx context.Context) (OrgSettings, error) {
	out := Defaults()
	err := s.DB.QueryRow(ctx, `
    SELECT team_lead_can_approve_leaves, manager_can_approve_leaves, hr_can_approve_leaves,
           employees_can_view_team_leaves, employees_can_view_department_leaves
    FROM org_settings
    WHERE id = 1
  `).Scan(
		&out.TeamLeadCanApproveLeaves,
		&out.ManagerCanApproveLeaves,
		&out.HRCanApproveLeaves,
		&out.EmployeesCanViewTeamLeaves,
		&out.EmployeesCanViewDeptLeaves,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Defaults(), nil
	}
	if err != nil {
		return OrgSettings{}, err
	}
	return out, nil
}
