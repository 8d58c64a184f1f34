package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/data/pgxutil"
	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
)

const jobColumns = `id, title, description, budget, status, client_id, assigned_to,
	milestones, version, created_at, updated_at`

// JobRepo stores Job documents. Milestones live in the jobs.milestones JSONB
// array and every write is a compare-and-swap on jobs.version.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewJobRepo creates a JobRepo using the real clock.
func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewJobRepoWithTimeProvider creates a JobRepo with a custom clock (useful for tests).
func NewJobRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *JobRepo {
	return &JobRepo{DB: db, timeProvider: tp}
}

var _ core.JobRepository = (*JobRepo)(nil)

func encodeMilestones(ms []model.Milestone) ([]byte, error) {
	if ms == nil {
		ms = []model.Milestone{}
	}
	b, err := json.Marshal(ms)
	if err != nil {
		return nil, fmt.Errorf("encode milestones: %w", err)
	}
	return b, nil
}

// Create inserts a new job at version 1.
func (r *JobRepo) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	if job == nil {
		return nil, errors.New("job is required")
	}
	milestones, err := encodeMilestones(job.Milestones)
	if err != nil {
		return nil, err
	}
	now := r.timeProvider.Now()
	out, err := pgxutil.QueryOne[model.Job](ctx, r.DB, `
		INSERT INTO jobs (title, description, budget, status, client_id, assigned_to, milestones, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $8)
		RETURNING `+jobColumns,
		job.Title, job.Description, job.Budget, job.Status, job.ClientID, job.AssignedTo, milestones, now,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID loads a job and the ids of its applications.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFound("job not found")
	}
	var out *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		job, err := pgxutil.CollectOne[model.Job](ctx, conn,
			`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows, err := conn.Query(ctx,
			`SELECT id::text FROM applications WHERE job_id = $1 ORDER BY created_at, id`, id)
		if err != nil {
			return err
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return err
		}
		job.ApplicationIDs = ids
		out = job
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("job not found")
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// List returns jobs matching opts, newest first. ClientID and AssignedTo
// filters are OR-ed so a caller can see jobs they own or work on.
func (r *JobRepo) List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	var parties []string
	if opts.ClientID != nil {
		parties = append(parties, "client_id = "+next(*opts.ClientID))
	}
	if opts.AssignedTo != nil {
		parties = append(parties, "assigned_to = "+next(*opts.AssignedTo))
	}
	if opts.IncludePublished {
		parties = append(parties, "status = "+next(string(model.JobStatusPublished)))
	}
	if len(parties) > 0 {
		where = append(where, "("+strings.Join(parties, " OR ")+")")
	}
	if opts.Status != nil {
		where = append(where, "status = "+next(string(*opts.Status)))
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id LIMIT " + next(limit) + " OFFSET " + next(offset)

	out, err := pgxutil.QueryAll[model.Job](ctx, r.DB, query, args...)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// Update writes the mutable job fields when the stored version equals
// job.Version, bumping the version. core.ErrVersionConflict when it moved.
func (r *JobRepo) Update(ctx context.Context, job *model.Job) (*model.Job, error) {
	if job == nil {
		return nil, errors.New("job is required")
	}
	milestones, err := encodeMilestones(job.Milestones)
	if err != nil {
		return nil, err
	}
	var out *model.Job
	err = pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		updated, qErr := pgxutil.CollectOne[model.Job](ctx, conn, `
			UPDATE jobs
			SET title = $3, description = $4, budget = $5, status = $6, assigned_to = $7,
				milestones = $8, version = version + 1, updated_at = $9
			WHERE id = $1 AND version = $2
			RETURNING `+jobColumns,
			job.ID, job.Version, job.Title, job.Description, job.Budget, job.Status,
			job.AssignedTo, milestones, r.timeProvider.Now(),
		)
		if errors.Is(qErr, pgx.ErrNoRows) {
			var exists bool
			if sErr := conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM jobs WHERE id = $1)`, job.ID).Scan(&exists); sErr != nil {
				return sErr
			}
			if exists {
				return core.ErrVersionConflict
			}
			return apperrors.NotFound("job not found")
		}
		out = updated
		return qErr
	})
	if err != nil {
		if errors.Is(err, core.ErrVersionConflict) || apperrors.IsNotFound(err) {
			return nil, err
		}
		return nil, apperrors.MapDBError(err)
	}
	out.ApplicationIDs = job.ApplicationIDs
	return out, nil
}

// Delete removes the job while its status is one of allowed. It reports
// false when the job exists but is in another status.
func (r *JobRepo) Delete(ctx context.Context, id string, allowed []model.JobStatus) (bool, error) {
	statuses := make([]string, len(allowed))
	for i, s := range allowed {
		statuses[i] = string(s)
	}
	var deleted bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM jobs WHERE id = $1 AND status = ANY($2)`, id, statuses)
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

// ListByMilestoneStatus returns jobs with at least one milestone in status,
// least recently updated first.
func (r *JobRepo) ListByMilestoneStatus(
	ctx context.Context,
	status model.MilestoneStatus,
	limit int,
) ([]*model.Job, error) {
	if limit <= 0 {
		limit = 100
	}
	probe, err := json.Marshal([]map[string]string{{"status": string(status)}})
	if err != nil {
		return nil, err
	}
	out, err := pgxutil.QueryAll[model.Job](ctx, r.DB,
		`SELECT `+jobColumns+` FROM jobs WHERE milestones @> $1::jsonb ORDER BY updated_at, id LIMIT $2`,
		string(probe), limit,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}
