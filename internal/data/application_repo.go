package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/data/pgxutil"
	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
)

const applicationColumns = `id, job_id, talent_id, cover_letter, status, client_notes, created_at, updated_at`

// ApplicationRepo stores applications and performs the transactional accept.
type ApplicationRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewApplicationRepo creates an ApplicationRepo using the real clock.
func NewApplicationRepo(db *sql.DB) *ApplicationRepo {
	return &ApplicationRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewApplicationRepoWithTimeProvider creates an ApplicationRepo with a custom clock.
func NewApplicationRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ApplicationRepo {
	return &ApplicationRepo{DB: db, timeProvider: tp}
}

var _ core.ApplicationRepository = (*ApplicationRepo)(nil)

// Create inserts a pending application. A second application by the same
// talent to the same job is a conflict.
func (r *ApplicationRepo) Create(ctx context.Context, app *model.Application) (*model.Application, error) {
	if app == nil {
		return nil, errors.New("application is required")
	}
	now := r.timeProvider.Now()
	out, err := pgxutil.QueryOne[model.Application](ctx, r.DB, `
		INSERT INTO applications (job_id, talent_id, cover_letter, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'pending', $4, $4)
		RETURNING `+applicationColumns,
		app.JobID, app.TalentID, app.CoverLetter, now,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID loads one application.
func (r *ApplicationRepo) GetByID(ctx context.Context, id string) (*model.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("application not found")
	}
	out, err := pgxutil.QueryOne[model.Application](ctx, r.DB,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("application not found")
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// ListByJob returns a job's applications, oldest first.
func (r *ApplicationRepo) ListByJob(ctx context.Context, jobID string) ([]*model.Application, error) {
	out, err := pgxutil.QueryAll[model.Application](ctx, r.DB,
		`SELECT `+applicationColumns+` FROM applications WHERE job_id = $1 ORDER BY created_at, id`, jobID)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// Accept assigns the job and settles every application on it in one
// transaction. The job row is claimed with a conditional update, so of two
// concurrent accepts only one finds it published and unassigned; the other
// gets core.ErrAlreadyAssigned and its transaction rolls back untouched.
func (r *ApplicationRepo) Accept(
	ctx context.Context,
	params model.AcceptApplicationParams,
) (*model.Job, *model.Application, error) {
	now := params.Now
	if now.IsZero() {
		now = r.timeProvider.Now()
	}

	var (
		job *model.Job
		app *model.Application
	)
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx pgx.Tx) error {
			locked, err := pgxutil.CollectOne[model.Application](ctx, tx,
				`SELECT `+applicationColumns+` FROM applications WHERE id = $1 AND job_id = $2 FOR UPDATE`,
				params.ApplicationID, params.JobID)
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("application not found")
			}
			if err != nil {
				return err
			}
			if locked.Status != model.ApplicationStatusPending {
				return apperrors.StateGuard("application", string(locked.Status), string(model.ApplicationStatusPending))
			}

			job, err = pgxutil.CollectOne[model.Job](ctx, tx, `
				UPDATE jobs
				SET status = 'assigned', assigned_to = $2, version = version + 1, updated_at = $3
				WHERE id = $1 AND status = 'published' AND assigned_to IS NULL
				RETURNING `+jobColumns,
				params.JobID, locked.TalentID, now)
			if errors.Is(err, pgx.ErrNoRows) {
				return core.ErrAlreadyAssigned
			}
			if err != nil {
				return err
			}

			app, err = pgxutil.CollectOne[model.Application](ctx, tx, `
				UPDATE applications
				SET status = 'accepted', client_notes = COALESCE($2, client_notes), updated_at = $3
				WHERE id = $1
				RETURNING `+applicationColumns,
				params.ApplicationID, params.ClientNotes, now)
			if err != nil {
				return err
			}

			_, err = tx.Exec(ctx, `
				UPDATE applications SET status = 'rejected', updated_at = $3
				WHERE job_id = $1 AND id <> $2 AND status = 'pending'`,
				params.JobID, params.ApplicationID, now)
			return err
		},
	})
	if err != nil {
		if errors.Is(err, core.ErrAlreadyAssigned) {
			return nil, nil, err
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, nil, err
		}
		return nil, nil, apperrors.MapDBError(err)
	}
	return job, app, nil
}

// Reject moves a pending application to rejected.
func (r *ApplicationRepo) Reject(ctx context.Context, id string, notes *string) (*model.Application, error) {
	var out *model.Application
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		updated, err := pgxutil.CollectOne[model.Application](ctx, conn, `
			UPDATE applications
			SET status = 'rejected', client_notes = COALESCE($2, client_notes), updated_at = $3
			WHERE id = $1 AND status = 'pending'
			RETURNING `+applicationColumns,
			id, notes, r.timeProvider.Now())
		if errors.Is(err, pgx.ErrNoRows) {
			var status string
			if sErr := conn.QueryRow(ctx, `SELECT status FROM applications WHERE id = $1`, id).Scan(&status); sErr != nil {
				if errors.Is(sErr, pgx.ErrNoRows) {
					return apperrors.NotFound("application not found")
				}
				return sErr
			}
			return apperrors.StateGuard("application", status, string(model.ApplicationStatusPending))
		}
		out = updated
		return err
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// Withdraw deletes the application unless it was accepted.
func (r *ApplicationRepo) Withdraw(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM applications WHERE id = $1 AND status <> 'accepted'`, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return deleted, nil
}
