package settings

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{
	"team_lead_can_approve_leaves", "manager_can_approve_leaves", "hr_can_approve_leaves",
	"employees_can_view_team_leaves", "employees_can_view_department_leaves",
}

func TestLoad(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM org_settings").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(false, true, true, true, false))

	cfg, err := NewStore(mock).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, cfg.TeamLeadCanApproveLeaves)
	assert.True(t, cfg.ManagerCanApproveLeaves)
	assert.True(t, cfg.EmployeesCanViewTeamLeaves)
	assert.False(t, cfg.EmployeesCanViewDeptLeaves)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An absent settings row yields the defaults: approvals on, peer visibility off.
func TestLoadDefaults(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM org_settings").
		WillReturnRows(pgxmock.NewRows(cols))

	cfg, err := NewStore(mock).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.NoError(t, mock.ExpectationsWereMet())
}
