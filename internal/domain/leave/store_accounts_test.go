package leave

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountCols = []string{"id", "user_id", "leave_type_id", "year", "allocated", "carried_over", "adjusted", "used", "notes", "updated_at"}

func strPtr(s string) *string { return &s }

// numeric columns are fed as strings so the decimal scanner accepts them,
// matching how pgx delivers numeric values.
func accountRow(now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(accountCols).
		AddRow("acct-1", "user-1", "type-1", 2026, "20", "3", "0", "5", strPtr("seeded"), now)
}

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewStore(mock)
}

func TestAccount(t *testing.T) {
	mock, store := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM leave_accounts").
		WithArgs("user-1", "type-1", 2026).
		WillReturnRows(accountRow(now))

	acct, err := store.Account(context.Background(), "user-1", "type-1", 2026)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", acct.ID)
	assert.True(t, acct.Allocated.Equal(dec("20")))
	assert.True(t, acct.Used.Equal(dec("5")))
	assert.Equal(t, "seeded", acct.Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountMissing(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM leave_accounts").
		WithArgs("user-1", "type-404", 2026).
		WillReturnRows(pgxmock.NewRows(accountCols))

	_, err := store.Account(context.Background(), "user-1", "type-404", 2026)
	assert.ErrorIs(t, err, ErrNoAllocation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateAccountSeedsOnFirstUse(t *testing.T) {
	mock, store := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM leave_accounts").
		WithArgs("user-1", "type-1", 2026).
		WillReturnRows(pgxmock.NewRows(accountCols))
	mock.ExpectExec("INSERT INTO leave_accounts").
		WithArgs("user-1", "type-1", 2026).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT (.+) FROM leave_accounts").
		WithArgs("user-1", "type-1", 2026).
		WillReturnRows(accountRow(now))

	acct, err := store.GetOrCreateAccount(context.Background(), "user-1", "type-1", 2026)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", acct.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An inactive or unknown type seeds nothing; the re-select still comes back
// empty and the caller sees ErrNoAllocation.
func TestGetOrCreateAccountInactiveType(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM leave_accounts").
		WithArgs("user-1", "type-off", 2026).
		WillReturnRows(pgxmock.NewRows(accountCols))
	mock.ExpectExec("INSERT INTO leave_accounts").
		WithArgs("user-1", "type-off", 2026).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT (.+) FROM leave_accounts").
		WithArgs("user-1", "type-off", 2026).
		WillReturnRows(pgxmock.NewRows(accountCols))

	_, err := store.GetOrCreateAccount(context.Background(), "user-1", "type-off", 2026)
	assert.ErrorIs(t, err, ErrNoAllocation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureAccounts(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec("INSERT INTO leave_accounts").
		WithArgs("user-1", 2026).
		WillReturnResult(pgxmock.NewResult("INSERT", 3))

	created, err := store.EnsureAccounts(context.Background(), "user-1", 2026)
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyUsedDelta(t *testing.T) {
	mock, store := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("UPDATE leave_accounts").
		WithArgs("user-1", "type-1", 2026, dec("2")).
		WillReturnRows(pgxmock.NewRows(accountCols).
			AddRow("acct-1", "user-1", "type-1", 2026, "20", "3", "0", "7", nil, now))

	acct, err := store.ApplyUsedDelta(context.Background(), mock, "user-1", "type-1", 2026, dec("2"))
	require.NoError(t, err)
	assert.True(t, acct.Used.Equal(dec("7")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

/// The guard refuses a delta that would overdraw the account: zero rows back
// means the caller must abort its transaction and retry or fail.
func TestApplyUsedDeltaGuard(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectQuery("UPDATE leave_accounts").
		WithArgs("user-1", "type-1", 2026, dec("30")).
		WillReturnRows(pgxmock.NewRows(accountCols))

	_, err := store.ApplyUsedDelta(context.Background(), mock, "user-1", "type-1", 2026, dec("30"))
	assert.ErrorIs(t, err, ErrConflictRetryable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Releasing a reservation must always land, even when a negative adjustment
// has pushed the cap below the current usage. The overdraw guard applies to
// positive deltas only.
func TestApplyUsedDeltaNegativeBypassesGuard(t *testing.T) {
	mock, store := newMockStore(t)
	now := time.Now()

	// used 7 against a cap of 20 + 3 - 22 = 1: a positive delta could never
	// pass, but releasing three days still must.
	mock.ExpectQuery(`\(\$4 <= 0 OR used \+ \$4 <= allocated \+ carried_over \+ adjusted\)`).
		WithArgs("user-1", "type-1", 2026, dec("-3")).
		WillReturnRows(pgxmock.NewRows(accountCols).
			AddRow("acct-1", "user-1", "type-1", 2026, "20", "3", "-22", "4", nil, now))

	acct, err := store.ApplyUsedDelta(context.Background(), mock, "user-1", "type-1", 2026, dec("-3"))
	require.NoError(t, err)
	assert.True(t, acct.Used.Equal(dec("4")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAllocatedRejectsNegative(t *testing.T) {
	_, store := newMockStore(t)

	err := store.SetAllocated(context.Background(), "user-1", "type-1", 2026, dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSetAdjustedMissingAccount(t *testing.T) {
	mock, store := newMockStore(t)

	mock.ExpectExec("UPDATE leave_accounts").
		WithArgs("user-1", "type-1", 2026, dec("-2.5")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.SetAdjusted(context.Background(), "user-1", "type-1", 2026, dec("-2.5"))
	assert.ErrorIs(t, err, ErrNoAllocation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
