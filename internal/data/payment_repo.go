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

const paymentColumns = `id, payment_intent_id, idempotency_key, payment_type, job_id,
	milestone_id, payer_id, payee_id, amount, currency, status, status_rank, client_secret,
	failure_reason, created_at, updated_at`

// PaymentRepo is the ledger of processor holds. Status only moves to a
// strictly higher rank, so replayed or reordered updates are no-ops.
type PaymentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewPaymentRepo creates a PaymentRepo using the real clock.
func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	return &PaymentRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewPaymentRepoWithTimeProvider creates a PaymentRepo with a custom clock.
func NewPaymentRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *PaymentRepo {
	return &PaymentRepo{DB: db, timeProvider: tp}
}

var _ core.PaymentRepository = (*PaymentRepo)(nil)

// Create inserts p unless its idempotency key is already recorded, in which
// case the stored row is returned with created=false.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) (*model.Payment, bool, error) {
	if p == nil {
		return nil, false, errors.New("payment is required")
	}
	if !p.Status.Valid() {
		p.Status = model.PaymentStatusPending
	}
	now := r.timeProvider.Now()

	var (
		out     *model.Payment
		created bool
	)
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		inserted, err := pgxutil.CollectOne[model.Payment](ctx, conn, `
			INSERT INTO payments (
				payment_intent_id, idempotency_key, payment_type, job_id, milestone_id, payer_id, payee_id,
				amount, currency, status, status_rank, client_secret, failure_reason, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
			ON CONFLICT (idempotency_key) DO NOTHING
			RETURNING `+paymentColumns,
			p.PaymentIntentID, p.IdempotencyKey, p.PaymentType, p.JobID, p.MilestoneID, p.PayerID, p.PayeeID,
			p.Amount, model.NormalizeCurrency(p.Currency), p.Status, p.Status.Rank(), p.ClientSecret,
			p.FailureReason, now,
		)
		if err == nil {
			out, created = inserted, true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		out, err = pgxutil.CollectOne[model.Payment](ctx, conn,
			`SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = $1`, p.IdempotencyKey)
		return err
	})
	if err != nil {
		return nil, false, apperrors.MapDBError(err)
	}
	return out, created, nil
}

// GetByIntentID loads the payment for a processor hold id.
func (r *PaymentRepo) GetByIntentID(ctx context.Context, paymentIntentID string) (*model.Payment, error) {
	out, err := pgxutil.QueryOne[model.Payment](ctx, r.DB,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_intent_id = $1`, paymentIntentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("payment not found")
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// FindActive returns the newest hold of type t for the milestone that is
// neither failed nor canceled, or nil.
func (r *PaymentRepo) FindActive(
	ctx context.Context,
	jobID, milestoneID string,
	t model.PaymentType,
) (*model.Payment, error) {
	out, err := pgxutil.QueryOne[model.Payment](ctx, r.DB, `
		SELECT `+paymentColumns+` FROM payments
		WHERE job_id = $1 AND milestone_id = $2 AND payment_type = $3
			AND status NOT IN ('failed', 'canceled')
		ORDER BY created_at DESC, id
		LIMIT 1`,
		jobID, milestoneID, t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// ListByMilestone returns every hold recorded for the milestone, oldest first.
func (r *PaymentRepo) ListByMilestone(ctx context.Context, jobID, milestoneID string) ([]*model.Payment, error) {
	out, err := pgxutil.QueryAll[model.Payment](ctx, r.DB, `
		SELECT `+paymentColumns+` FROM payments
		WHERE job_id = $1 AND milestone_id = $2
		ORDER BY created_at, id`,
		jobID, milestoneID)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// CountDeadAttempts counts holds of type t that ended failed or canceled.
func (r *PaymentRepo) CountDeadAttempts(
	ctx context.Context,
	jobID, milestoneID string,
	t model.PaymentType,
) (int, error) {
	var n int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT count(*) FROM payments
			WHERE job_id = $1 AND milestone_id = $2 AND payment_type = $3
				AND status IN ('failed', 'canceled')`,
			jobID, milestoneID, t).Scan(&n)
	})
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return n, nil
}

// Advance moves a payment to params.Status if that ranks strictly higher
// than the stored status. Otherwise the stored row is returned with advanced=false.
func (r *PaymentRepo) Advance(ctx context.Context, params model.AdvancePaymentParams) (*model.Payment, bool, error) {
	if !params.Status.Valid() {
		return nil, false, apperrors.Validationf("unknown payment status %q", params.Status)
	}
	var (
		out      *model.Payment
		advanced bool
	)
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		updated, err := pgxutil.CollectOne[model.Payment](ctx, conn, `
			UPDATE payments
			SET status = $2, status_rank = $3, failure_reason = COALESCE($4, failure_reason), updated_at = $5
			WHERE payment_intent_id = $1 AND status_rank < $3
			RETURNING `+paymentColumns,
			params.PaymentIntentID, params.Status, params.Status.Rank(), params.FailureReason, r.timeProvider.Now())
		if err == nil {
			out, advanced = updated, true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		out, err = pgxutil.CollectOne[model.Payment](ctx, conn,
			`SELECT `+paymentColumns+` FROM payments WHERE payment_intent_id = $1`, params.PaymentIntentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("payment not found")
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

// ListStale returns unsettled holds last touched before q.OlderThan.
func (r *PaymentRepo) ListStale(ctx context.Context, q model.StalePaymentQuery) ([]*model.Payment, error) {
	statuses := make([]string, len(q.Statuses))
	for i, s := range q.Statuses {
		statuses[i] = string(s)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	out, err := pgxutil.QueryAll[model.Payment](ctx, r.DB, `
		SELECT `+paymentColumns+` FROM payments
		WHERE status = ANY($1) AND updated_at < $2
		ORDER BY updated_at, id
		LIMIT $3`,
		statuses, q.OlderThan, limit)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// ListAll pages through the ledger in creation order.
func (r *PaymentRepo) ListAll(ctx context.Context, limit, offset int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 500
	}
	out, err := pgxutil.QueryAll[model.Payment](ctx, r.DB,
		`SELECT `+paymentColumns+` FROM payments ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		limit, max(offset, 0))
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}
