package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/data/pgxutil"
	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
)

const transferColumns = `id, transfer_id, idempotency_key, account_id, payment_intent_id, job_id,
	milestone_id, amount, currency, status, status_rank, failure_reason, created_at, updated_at`

// TransferRepo is the ledger of payouts to connected accounts.
type TransferRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewTransferRepo creates a TransferRepo using the real clock.
func NewTransferRepo(db *sql.DB) *TransferRepo {
	return &TransferRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewTransferRepoWithTimeProvider creates a TransferRepo with a custom clock.
func NewTransferRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *TransferRepo {
	return &TransferRepo{DB: db, timeProvider: tp}
}

var _ core.TransferRepository = (*TransferRepo)(nil)

// Create records a transfer attempt. Attempts sharing an idempotency key
// collapse onto the first stored row, returned with created=false.
func (r *TransferRepo) Create(ctx context.Context, t *model.Transfer) (*model.Transfer, bool, error) {
	if t == nil {
		return nil, false, errors.New("transfer is required")
	}
	if !t.Status.Valid() {
		t.Status = model.TransferStatusPending
	}
	now := r.timeProvider.Now()

	var (
		out     *model.Transfer
		created bool
	)
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		inserted, err := pgxutil.CollectOne[model.Transfer](ctx, conn, `
			INSERT INTO transfers (
				transfer_id, idempotency_key, account_id, payment_intent_id, job_id, milestone_id,
				amount, currency, status, status_rank, failure_reason, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
			ON CONFLICT (idempotency_key) DO NOTHING
			RETURNING `+transferColumns,
			t.TransferID, t.IdempotencyKey, t.AccountID, t.PaymentIntentID, t.JobID, t.SourceID,
			t.Amount, model.NormalizeCurrency(t.Currency), t.Status, t.Status.Rank(), t.FailureReason, now,
		)
		if err == nil {
			out, created = inserted, true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		out, err = pgxutil.CollectOne[model.Transfer](ctx, conn,
			`SELECT `+transferColumns+` FROM transfers WHERE idempotency_key = $1`, t.IdempotencyKey)
		return err
	})
	if err != nil {
		return nil, false, apperrors.MapDBError(err)
	}
	return out, created, nil
}

// GetByTransferID loads a transfer by its processor id.
func (r *TransferRepo) GetByTransferID(ctx context.Context, transferID string) (*model.Transfer, error) {
	out, err := pgxutil.QueryOne[model.Transfer](ctx, r.DB,
		`SELECT `+transferColumns+` FROM transfers WHERE transfer_id = $1`, transferID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("transfer not found")
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// ListByMilestone returns the milestone's transfer attempts, oldest first.
func (r *TransferRepo) ListByMilestone(ctx context.Context, jobID, milestoneID string) ([]*model.Transfer, error) {
	out, err := pgxutil.QueryAll[model.Transfer](ctx, r.DB, `
		SELECT `+transferColumns+` FROM transfers
		WHERE job_id = $1 AND milestone_id = $2
		ORDER BY created_at, id`,
		jobID, milestoneID)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// CountDeadAttempts counts the milestone's failed or canceled transfers.
func (r *TransferRepo) CountDeadAttempts(ctx context.Context, jobID, milestoneID string) (int, error) {
	var n int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT count(*) FROM transfers
			WHERE job_id = $1 AND milestone_id = $2 AND status IN ('failed', 'canceled')`,
			jobID, milestoneID).Scan(&n)
	})
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return n, nil
}

// Advance moves a transfer to a strictly higher-ranked status.
func (r *TransferRepo) Advance(ctx context.Context, params model.AdvanceTransferParams) (*model.Transfer, bool, error) {
	if !params.Status.Valid() {
		return nil, false, apperrors.Validationf("unknown transfer status %q", params.Status)
	}
	var (
		out      *model.Transfer
		advanced bool
	)
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		updated, err := pgxutil.CollectOne[model.Transfer](ctx, conn, `
			UPDATE transfers
			SET status = $2, status_rank = $3, failure_reason = COALESCE($4, failure_reason), updated_at = $5
			WHERE transfer_id = $1 AND status_rank < $3
			RETURNING `+transferColumns,
			params.TransferID, params.Status, params.Status.Rank(), params.FailureReason, r.timeProvider.Now())
		if err == nil {
			out, advanced = updated, true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		out, err = pgxutil.CollectOne[model.Transfer](ctx, conn,
			`SELECT `+transferColumns+` FROM transfers WHERE transfer_id = $1`, params.TransferID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("transfer not found")
		}
		return err
	})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, false, err
		}
		return nil, false, apperrors.MapDBError(err)
	}
	return out, advanced, nil
}

// ListAll pages through the transfer ledger in creation order.
func (r *TransferRepo) ListAll(ctx context.Context, limit, offset int) ([]*model.Transfer, error) {
	if limit <= 0 {
		limit = 500
	}
	out, err := pgxutil.QueryAll[model.Transfer](ctx, r.DB,
		`SELECT `+transferColumns+` FROM transfers ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		limit, max(offset, 0))
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}
