package leave

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"leavehub/internal/db"
)

const accountColumns = `id, user_id, leave_type_id, year, allocated, carried_over, adjusted, used, notes, updated_at`

func scanAccount(row pgx.Row) (LeaveAccount, error) {
	var (
		acct  LeaveAccount
		notes *string
	)
	err := row.Scan(&acct.ID, &acct.UserID, &acct.LeaveTypeID, &acct.Year,
		&acct.Allocated, &acct.CarriedOver, &acct.Adjusted, &acct.Used, &notes, &acct.UpdatedAt)
	if err != nil {
		return LeaveAccount{}, err
	}
	if notes != nil {
		acct.Notes = *notes
	}
	return acct, nil
}

func (s *Store) Account(ctx context.Context, userID, leaveTypeID string, year int) (LeaveAccount, error) {
	acct, err := scanAccount(s.DB.QueryRow(ctx, `
    SELECT `+accountColumns+`
    FROM leave_accounts
    WHERE user_id = $1 AND leave_type_id = $2 AND year = $3
  `, userID, leaveTypeID, year))
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveAccount{}, ErrNoAllocation
	}
	return acct, err
}

// GetOrCreateAccount returns the ledger row, lazily seeding one with the
// type's default allocation on first use. The insert is idempotent under
// concurrent first use. An inactive or unknown type yields ErrNoAllocation.
func (s *Store) GetOrCreateAccount(ctx context.Context, userID, leaveTypeID string, year int) (LeaveAccount, error) {
	acct, err := s.Account(ctx, userID, leaveTypeID, year)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, ErrNoAllocation) {
		return LeaveAccount{}, err
	}

	if _, err := s.DB.Exec(ctx, `
    INSERT INTO leave_accounts (user_id, leave_type_id, year, allocated)
    SELECT $1, id, $3, default_days_per_year
    FROM leave_types
    WHERE id = $2 AND is_active
    ON CONFLICT (user_id, leave_type_id, year) DO NOTHING
  `, userID, leaveTypeID, year); err != nil {
		return LeaveAccount{}, err
	}

	return s.Account(ctx, userID, leaveTypeID, year)
}

// EnsureAccounts seeds one ledger row per active leave type for the user,
// skipping rows that already exist. Used at onboarding.
func (s *Store) EnsureAccounts(ctx context.Context, userID string, year int) (int, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO leave_accounts (user_id, leave_type_id, year, allocated)
    SELECT $1, id, $2, default_days_per_year
    FROM leave_types
    WHERE is_active
    ON CONFLICT (user_id, leave_type_id, year) DO NOTHING
  `, userID, year)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) AccountsForUser(ctx context.Context, userID string, year int) ([]LeaveAccount, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+accountColumns+`
    FROM leave_accounts
    WHERE user_id = $1 AND year = $2
    ORDER BY leave_type_id
  `, userID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []LeaveAccount
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func (s *Store) AllAccounts(ctx context.Context, year int) ([]LeaveAccount, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+accountColumns+`
    FROM leave_accounts
    WHERE year = $1
    ORDER BY user_id, leave_type_id
  `, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []LeaveAccount
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

// ApplyUsedDelta adds delta to the row's used counter as one guarded update.
// The guard refuses a positive delta that would drive used past
// allocated + carried_over + adjusted, so an approval can never overdraw the
// account. Negative deltas release a reservation and always pass: an admin
// shrinking the cap via adjusted must not strand an outstanding reservation.
// Callers pass the transaction running the status write so both commit or
// roll back together.
func (s *Store) ApplyUsedDelta(ctx context.Context, q db.Conn, userID, leaveTypeID string, year int, delta decimal.Decimal) (LeaveAccount, error) {
	acct, err := scanAccount(q.QueryRow(ctx, `
    UPDATE leave_accounts
    SET used = used + $4, updated_at = now()
    WHERE user_id = $1 AND leave_type_id = $2 AND year = $3
      AND ($4 <= 0 OR used + $4 <= allocated + carried_over + adjusted)
    RETURNING `+accountColumns+`
  `, userID, leaveTypeID, year, delta))
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaveAccount{}, ErrConflictRetryable
	}
	return acct, err
}

// Administrative writes. Not part of the request lifecycle.

func (s *Store) SetAllocated(ctx context.Context, userID, leaveTypeID string, year int, allocated decimal.Decimal) error {
	if allocated.IsNegative() {
		return ErrInvalidRange
	}
	return s.adminUpdate(ctx, "allocated", userID, leaveTypeID, year, allocated)
}

func (s *Store) SetAdjusted(ctx context.Context, userID, leaveTypeID string, year int, adjusted decimal.Decimal) error {
	return s.adminUpdate(ctx, "adjusted", userID, leaveTypeID, year, adjusted)
}

func (s *Store) SetNotes(ctx context.Context, userID, leaveTypeID string, year int, notes string) error {
	return s.adminUpdate(ctx, "notes", userID, leaveTypeID, year, notes)
}

func (s *Store) adminUpdate(ctx context.Context, column, userID, leaveTypeID string, year int, value any) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_accounts
    SET `+column+` = $4, updated_at = now()
    WHERE user_id = $1 AND leave_type_id = $2 AND year = $3
  `, userID, leaveTypeID, year, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoAllocation
	}
	return nil
}
