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

const connectedAccountColumns = `account_id, user_id, charges_enabled, payouts_enabled, transfers_active,
	deauthorized, last_payout_status, last_payout_at, updated_at`

// ConnectedAccountRepo mirrors payee processor accounts.
type ConnectedAccountRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewConnectedAccountRepo creates a ConnectedAccountRepo using the real clock.
func NewConnectedAccountRepo(db *sql.DB) *ConnectedAccountRepo {
	return &ConnectedAccountRepo{DB: db, timeProvider: RealTimeProvider{}}
}

var _ core.ConnectedAccountRepository = (*ConnectedAccountRepo)(nil)

// Upsert records the account's capabilities. Deauthorization is sticky and
// a missing user id never clears a known one.
func (r *ConnectedAccountRepo) Upsert(
	ctx context.Context,
	acct *model.ConnectedAccount,
) (*model.ConnectedAccount, error) {
	if acct == nil || acct.AccountID == "" {
		return nil, apperrors.ValidationField("accountId", "account id is required")
	}
	out, err := pgxutil.QueryOne[model.ConnectedAccount](ctx, r.DB, `
		INSERT INTO connected_accounts (
			account_id, user_id, charges_enabled, payouts_enabled, transfers_active, deauthorized, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account_id) DO UPDATE SET
			user_id = COALESCE(EXCLUDED.user_id, connected_accounts.user_id),
			charges_enabled = EXCLUDED.charges_enabled,
			payouts_enabled = EXCLUDED.payouts_enabled,
			transfers_active = EXCLUDED.transfers_active,
			deauthorized = connected_accounts.deauthorized OR EXCLUDED.deauthorized,
			updated_at = EXCLUDED.updated_at
		RETURNING `+connectedAccountColumns,
		acct.AccountID, acct.UserID, acct.ChargesEnabled, acct.PayoutsEnabled, acct.TransfersActive,
		acct.Deauthorized, r.timeProvider.Now(),
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID loads a mirrored account.
func (r *ConnectedAccountRepo) GetByID(ctx context.Context, accountID string) (*model.ConnectedAccount, error) {
	out, err := pgxutil.QueryOne[model.ConnectedAccount](ctx, r.DB,
		`SELECT `+connectedAccountColumns+` FROM connected_accounts WHERE account_id = $1`, accountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("connected account not found")
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// MarkDeauthorized flags the account; it reports whether this call changed it.
func (r *ConnectedAccountRepo) MarkDeauthorized(ctx context.Context, accountID string) (bool, error) {
	var changed bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			INSERT INTO connected_accounts (account_id, deauthorized, transfers_active, payouts_enabled, updated_at)
			VALUES ($1, true, false, false, $2)
			ON CONFLICT (account_id) DO UPDATE SET
				deauthorized = true, transfers_active = false, payouts_enabled = false, updated_at = EXCLUDED.updated_at
			WHERE connected_accounts.deauthorized = false`,
			accountID, r.timeProvider.Now())
		if err != nil {
			return err
		}
		changed = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return changed, nil
}

// RecordPayout stores the latest payout outcome. Events older than the
// stored one are ignored.
func (r *ConnectedAccountRepo) RecordPayout(ctx context.Context, ev model.PayoutEvent) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO connected_accounts (account_id, last_payout_status, last_payout_at, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (account_id) DO UPDATE SET
				last_payout_status = EXCLUDED.last_payout_status,
				last_payout_at = EXCLUDED.last_payout_at,
				updated_at = EXCLUDED.updated_at
			WHERE connected_accounts.last_payout_at IS NULL
				OR connected_accounts.last_payout_at <= EXCLUDED.last_payout_at`,
			ev.AccountID, ev.Status, ev.At, r.timeProvider.Now())
		return err
	})
	return apperrors.MapDBError(err)
}
