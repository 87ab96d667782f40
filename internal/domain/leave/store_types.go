package leave

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) ListTypes(ctx context.Context, includeInactive bool) ([]LeaveType, error) {
	query := `
    SELECT id, name, code, default_days_per_year, max_days, is_paid, requires_approval,
           carry_forward_allowed, max_carry_forward, min_days_notice, is_active, created_at
    FROM leave_types
  `
	if !includeInactive {
		query += " WHERE is_active"
	}
	query += " ORDER BY name"

	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []LeaveType
	for rows.Next() {
		var t LeaveType
		if err := rows.Scan(&t.ID, &t.Name, &t.Code, &t.DefaultDaysPerYear, &t.MaxDays, &t.IsPaid, &t.RequiresApproval,
			&t.CarryForwardAllowed, &t.MaxCarryForward, &t.MinDaysNotice, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *Store) TypeByID(ctx context.Context, typeID string) (LeaveType, error) {
	var t LeaveType
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, code, default_days_per_year, max_days, is_paid, requires_approval,
           carry_forward_allowed, max_carry_forward, min_days_notice, is_active, created_at
    FROM leave_types
    WHERE id = $1
  `, typeID).Scan(&t.ID, &t.Name, &t.Code, &t.DefaultDaysPerYear, &t.MaxDays, &t.IsPaid, &t.RequiresApproval,
		&t.CarryForwardAllowed, &t.MaxCarryForward, &t.MinDaysNotice, &t.IsActive, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveType{}, ErrNotFound
	}
	if err != nil {
		return LeaveType{}, err
	}
	return t, nil
}

func (s *Store) CreateType(ctx context.Context, payload LeaveType) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_types (name, code, default_days_per_year, max_days, is_paid, requires_approval,
                             carry_forward_allowed, max_carry_forward, min_days_notice, is_active)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,true)
    RETURNING id
  `, payload.Name, payload.Code, payload.DefaultDaysPerYear, payload.MaxDays, payload.IsPaid, payload.RequiresApproval,
		payload.CarryForwardAllowed, payload.MaxCarryForward, payload.MinDaysNotice).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateType applies administrative edits. Deactivation hides the type from
// new allocations but existing ledger rows are never retracted.
func (s *Store) UpdateType(ctx context.Context, typeID string, payload LeaveType) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_types
    SET name = $2, code = $3, default_days_per_year = $4, max_days = $5, is_paid = $6,
        requires_approval = $7, carry_forward_allowed = $8, max_carry_forward = $9,
        min_days_notice = $10, is_active = $11
    WHERE id = $1
  `, typeID, payload.Name, payload.Code, payload.DefaultDaysPerYear, payload.MaxDays, payload.IsPaid,
		payload.RequiresApproval, payload.CarryForwardAllowed, payload.MaxCarryForward,
		payload.MinDaysNotice, payload.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
