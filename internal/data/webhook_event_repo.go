package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/data/pgxutil"
	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
)

// WebhookEventRepo remembers processed processor event ids.
type WebhookEventRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewWebhookEventRepo creates a WebhookEventRepo using the real clock.
func NewWebhookEventRepo(db *sql.DB) *WebhookEventRepo {
	return &WebhookEventRepo{DB: db, timeProvider: RealTimeProvider{}}
}

var _ core.WebhookEventRepository = (*WebhookEventRepo)(nil)

// MarkProcessed records eventID and reports whether it was new.
func (r *WebhookEventRepo) MarkProcessed(ctx context.Context, eventID string, eventType model.EventType) (bool, error) {
	var fresh bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `
			INSERT INTO webhook_events (event_id, event_type, processed_at) VALUES ($1, $2, $3)
			ON CONFLICT (event_id) DO NOTHING`,
			eventID, string(eventType), r.timeProvider.Now())
		if err != nil {
			return err
		}
		fresh = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return fresh, nil
}

// Forget removes eventID so a redelivery is processed again.
func (r *WebhookEventRepo) Forget(ctx context.Context, eventID string) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `DELETE FROM webhook_events WHERE event_id = $1`, eventID)
		return err
	})
	return apperrors.MapDBError(err)
}

// Prune deletes marks older than retention; the processor stops redelivering
// long before that.
func (r *WebhookEventRepo) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	var n int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM webhook_events WHERE processed_at < $1`,
			r.timeProvider.Now().Add(-retention))
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return n, nil
}
