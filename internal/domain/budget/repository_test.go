package budget

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFingerprint(t *testing.T) {
	owner := uuid.New()
	until := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	a := Budget{OwnerID: owner, DeviceModel: "iPhone 12", ClientName: "Maria", TotalPriceCents: 35000, ValidUntil: &until}
	b := Budget{OwnerID: owner, DeviceModel: "iphone 12", ClientName: "maria", TotalPriceCents: 35000, ValidUntil: &until}
	c := Budget{OwnerID: owner, DeviceModel: "iPhone 12", ClientName: "Maria", TotalPriceCents: 36000, ValidUntil: &until}

	assert.Equal(t, a.ComputeFingerprint(), b.ComputeFingerprint())
	assert.NotEqual(t, a.ComputeFingerprint(), c.ComputeFingerprint())
}

func TestBulkInsert_CountsOnlyNewRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	owner := uuid.New()
	budgets := []Budget{
		{OwnerID: owner, DeviceModel: "iPhone 12", TotalPriceCents: 35000},
		{OwnerID: owner, DeviceModel: "Galaxy S21", TotalPriceCents: 25000},
	}

	mock.ExpectExec(`INSERT INTO budgets`).
		WithArgs(insertArgs(22)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// Duplicate fingerprint hits the conflict clause and affects no rows.
	mock.ExpectExec(`INSERT INTO budgets`).
		WithArgs(insertArgs(22)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	repo := NewPostgresRepository(mock)
	inserted, err := repo.BulkInsert(context.Background(), budgets)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsert_FillsDefaults(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO budgets`).
		WithArgs(insertArgs(22)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresRepository(mock)
	budgets := []Budget{{OwnerID: uuid.New(), DeviceModel: "Moto G", TotalPriceCents: 18000}}
	_, err = repo.BulkInsert(context.Background(), budgets)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, budgets[0].ID)
	assert.NotEmpty(t, budgets[0].Fingerprint)
	assert.Equal(t, StatusPending, budgets[0].Status)
}

func TestUpdateStatus_NoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE budgets SET status = $2, updated_at = now() WHERE id = $1`)).
		WithArgs(id, StatusApproved).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPostgresRepository(mock)
	err = repo.UpdateStatus(context.Background(), id, StatusApproved)
	assert.Error(t, err)
}

func TestMarkExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectExec(`UPDATE budgets SET status`).
		WithArgs(now, StatusExpired, StatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	repo := NewPostgresRepository(mock)
	n, err := repo.MarkExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func insertArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}
