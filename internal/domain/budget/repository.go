package budget

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to
// allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PgxPool = (*pgxpool.Pool)(nil)

// Repository is the persistence boundary for quotes.
type Repository interface {
	BulkInsert(ctx context.Context, budgets []Budget) (inserted int, err error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Budget, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	pgpool PgxPool
}

func NewPostgresRepository(pgpool PgxPool) *PostgresRepository {
	return &PostgresRepository{pgpool: pgpool}
}

const insertBudgetQuery = `
	INSERT INTO budgets (
		id, owner_id, device_type, device_model, device_issue,
		total_price_cents, cash_price_cents, installment_price_cents,
		installments, payment_condition, warranty_months,
		includes_delivery, includes_screen_protector, valid_until,
		client_name, client_phone, status, workflow_status, notes,
		fingerprint, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		$15, $16, $17, $18, $19, $20, $21, $22)
	ON CONFLICT (owner_id, fingerprint) DO NOTHING
`

// BulkInsert writes quotes one statement at a time with a dedupe conflict
// clause instead of a wrapping transaction: re-importing the same file after
// a partial failure is safe because already-inserted rows no-op.
func (r *PostgresRepository) BulkInsert(ctx context.Context, budgets []Budget) (int, error) {
	inserted := 0
	now := time.Now()
	for i := range budgets {
		b := &budgets[i]
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		if b.Fingerprint == "" {
			b.Fingerprint = b.ComputeFingerprint()
		}
		if b.Status == "" {
			b.Status = StatusPending
		}

		tag, err := r.pgpool.Exec(ctx, insertBudgetQuery,
			b.ID, b.OwnerID, b.DeviceType, b.DeviceModel, b.DeviceIssue,
			b.TotalPriceCents, b.CashPriceCents, b.InstallmentPriceCents,
			b.Installments, b.PaymentCondition, b.WarrantyMonths,
			b.IncludesDelivery, b.IncludesScreenProtector, b.ValidUntil,
			b.ClientName, b.ClientPhone, b.Status, b.WorkflowStatus, b.Notes,
			b.Fingerprint, now, now,
		)
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

const listByOwnerQuery = `
	SELECT id, owner_id, device_type, device_model, device_issue,
		total_price_cents, cash_price_cents, installment_price_cents,
		installments, payment_condition, warranty_months,
		includes_delivery, includes_screen_protector, valid_until,
		client_name, client_phone, status, workflow_status, notes,
		fingerprint, created_at, updated_at
	FROM budgets
	WHERE owner_id = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3
`

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Budget, error) {
	rows, err := r.pgpool.Query(ctx, listByOwnerQuery, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Budget])
}

const updateStatusQuery = `
	UPDATE budgets SET status = $2, updated_at = now() WHERE id = $1
`

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pgpool.Exec(ctx, updateStatusQuery, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const markExpiredQuery = `
	UPDATE budgets SET status = $2, updated_at = now()
	WHERE status = $3 AND valid_until IS NOT NULL AND valid_until < $1
`

// MarkExpired flips pending quotes whose validity window has passed. Run
// periodically by the scheduler.
func (r *PostgresRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pgpool.Exec(ctx, markExpiredQuery, now, StatusExpired, StatusPending)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
