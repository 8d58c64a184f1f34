package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/domain/auth"
	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
)

const (
	defaultMutateAttempts = 3
	defaultJobListLimit   = 50
	maxJobListLimit       = 200
)

// errNoChange lets a mutation report that the stored document is already in
// the desired state, so nothing is written.
var errNoChange = errors.New("no change")

// jobWriter applies read-modify-write mutations to a job document under its
// version counter, reloading and retrying when another writer got there first.
type jobWriter struct {
	repo     core.JobRepository
	attempts int
	logger   *slog.Logger
}

func newJobWriter(repo core.JobRepository, attempts int, logger *slog.Logger) jobWriter {
	if attempts <= 0 {
		attempts = defaultMutateAttempts
	}
	return jobWriter{repo: repo, attempts: attempts, logger: logger}
}

// mutate loads the job, applies fn and writes it back conditioned on the
// version it read. fn runs again on a fresh copy after a version conflict, so
// guards inside fn always see the latest state.
func (w jobWriter) mutate(ctx context.Context, jobID string, fn func(job *model.Job) error) (*model.Job, error) {
	for attempt := 1; ; attempt++ {
		job, err := w.repo.GetByID(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if err := fn(job); err != nil {
			if errors.Is(err, errNoChange) {
				return job, nil
			}
			return nil, err
		}
		if !job.AssigneeConsistent() {
			return nil, apperrors.Internalf("job %s would have assignee inconsistent with status %s", job.ID, job.Status)
		}

		updated, err := w.repo.Update(ctx, job)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, core.ErrVersionConflict) {
			return nil, err
		}
		if attempt >= w.attempts {
			return nil, apperrors.Conflict("the job was modified concurrently; retry the request")
		}
		w.logger.DebugContext(ctx, "job version conflict, retrying",
			"job_id", jobID,
			"attempt", attempt,
		)
	}
}

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo           core.JobRepository // Required: job repository
	Logger         *slog.Logger       // Optional: structured logger
	MutateAttempts int                // Optional: version-conflict retries, defaults to 3
}

// JobService manages job CRUD and the job-level status machine.
type JobService struct {
	repo   core.JobRepository
	writer jobWriter
	logger *slog.Logger
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "job_service")
	return &JobService{
		repo:   opts.Repo,
		writer: newJobWriter(opts.Repo, opts.MutateAttempts, logger),
		logger: logger,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// CreateJob posts a new job owned by the calling client.
func (s *JobService) CreateJob(ctx context.Context, id *auth.Identity, req *model.CreateJobRequest) (*model.Job, error) {
	if err := auth.Authorize(id, auth.Requirement{Action: "create job", AnyOf: []auth.Role{auth.RoleClient}}); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	status := model.JobStatusDraft
	if req.Publish {
		status = model.JobStatusPublished
	}
	job, err := s.repo.Create(ctx, &model.Job{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Budget:      model.RoundMoney(req.Budget),
		Status:      status,
		ClientID:    id.UserID,
		Milestones:  []model.Milestone{},
	})
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.logger.InfoContext(ctx, "job created", "job_id", job.ID, "client_id", job.ClientID, "status", job.Status)
	return job, nil
}

// canView reports whether id may read job. Published jobs are visible to talents.
func canView(id auth.Identity, job *model.Job) bool {
	switch {
	case id.IsAdmin(), id.UserID == job.ClientID, job.IsAssignedTo(id.UserID):
		return true
	case id.HasRole(auth.RoleTalent) && job.Status == model.JobStatusPublished:
		return true
	default:
		return false
	}
}

// isParty reports whether id is the job's client or its assigned talent.
func isParty(job *model.Job) func(auth.Identity) bool {
	return func(id auth.Identity) bool {
		return id.UserID == job.ClientID || job.IsAssignedTo(id.UserID)
	}
}

// GetJob returns a job visible to the caller.
func (s *JobService) GetJob(ctx context.Context, id *auth.Identity, jobID string) (*model.Job, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(id, auth.Requirement{
		Action:      "view job",
		Owner:       func(i auth.Identity) bool { return canView(i, job) },
		AdminBypass: true,
	}); err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobs lists the jobs a caller can see. Clients see their own; talents see
// published jobs and the jobs assigned to them; admins see everything.
func (s *JobService) ListJobs(ctx context.Context, id *auth.Identity, req model.ListJobsRequest) ([]*model.Job, error) {
	if err := auth.Authorize(id, auth.Requirement{
		Action: "list jobs",
		AnyOf:  []auth.Role{auth.RoleAdmin, auth.RoleClient, auth.RoleTalent},
	}); err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, apperrors.ValidationField("status", "invalid status")
	}
	opts := model.JobListOptions{Status: req.Status, Limit: req.Limit, Offset: req.Offset}
	if opts.Limit <= 0 {
		opts.Limit = defaultJobListLimit
	}
	if opts.Limit > maxJobListLimit {
		opts.Limit = maxJobListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	switch {
	case id.IsAdmin():
	case id.HasRole(auth.RoleClient):
		opts.ClientID = &id.UserID
	default:
		return s.listForTalent(ctx, id.UserID, opts)
	}

	jobs, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// listForTalent returns the talent's own jobs and the published board in one
// query, so Limit and Offset page over the combined list.
func (s *JobService) listForTalent(ctx context.Context, talentID string, opts model.JobListOptions) ([]*model.Job, error) {
	opts.AssignedTo = &talentID
	opts.IncludePublished = true
	jobs, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list talent jobs: %w", err)
	}
	return jobs, nil
}

// UpdateJob edits a job owned by the caller. Status changes follow
// JobStatus.CanEditTo; an assigned job may only move to completed, and only
// once every milestone is settled.
func (s *JobService) UpdateJob(
	ctx context.Context,
	id *auth.Identity,
	jobID string,
	req *model.UpdateJobRequest,
) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	updated, err := s.writer.mutate(ctx, jobID, func(job *model.Job) error {
		if err := auth.Authorize(id, auth.Requirement{Action: "update job", Owner: auth.Owns(job.ClientID)}); err != nil {
			return err
		}
		if job.Status == model.JobStatusCompleted || job.Status == model.JobStatusCancelled {
			return apperrors.StateGuard("job", string(job.Status),
				string(model.JobStatusDraft), string(model.JobStatusPublished), string(model.JobStatusAssigned))
		}
		if req.Status != nil && *req.Status != job.Status {
			if err := checkJobEdit(job, *req.Status); err != nil {
				return err
			}
			job.Status = *req.Status
		}
		if req.Title != nil {
			job.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			job.Description = *req.Description
		}
		if req.Budget != nil {
			job.Budget = model.RoundMoney(*req.Budget)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "job updated", "job_id", updated.ID, "status", updated.Status, "version", updated.Version)
	return updated, nil
}

func checkJobEdit(job *model.Job, next model.JobStatus) error {
	if !job.Status.CanEditTo(next) {
		return apperrors.StateGuardf("job cannot move from %s to %s", job.Status, next)
	}
	if next == model.JobStatusCompleted && !job.MilestonesSettled() {
		return apperrors.StateGuardf("job cannot be completed until every milestone is released or cancelled")
	}
	return nil
}

// DeleteJob removes a draft or cancelled job owned by the caller.
func (s *JobService) DeleteJob(ctx context.Context, id *auth.Identity, jobID string) error {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if err := auth.Authorize(id, auth.Requirement{Action: "delete job", Owner: auth.Owns(job.ClientID)}); err != nil {
		return err
	}
	if !job.Status.Deletable() {
		return apperrors.StateGuard("job", string(job.Status), string(model.JobStatusDraft), string(model.JobStatusCancelled))
	}

	deleted, err := s.repo.Delete(ctx, jobID, []model.JobStatus{model.JobStatusDraft, model.JobStatusCancelled})
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if !deleted {
		return apperrors.StateGuardf("job %s changed status before it could be deleted", jobID)
	}
	s.logger.InfoContext(ctx, "job deleted", "job_id", jobID)
	return nil
}

// CompleteJob closes an assigned job once every milestone is released or cancelled.
func (s *JobService) CompleteJob(ctx context.Context, id *auth.Identity, jobID string) (*model.Job, error) {
	updated, err := s.writer.mutate(ctx, jobID, func(job *model.Job) error {
		if err := auth.Authorize(id, auth.Requirement{Action: "complete job", Owner: auth.Owns(job.ClientID)}); err != nil {
			return err
		}
		if job.Status != model.JobStatusAssigned {
			return apperrors.StateGuard("job", string(job.Status), string(model.JobStatusAssigned))
		}
		if err := checkJobEdit(job, model.JobStatusCompleted); err != nil {
			return err
		}
		job.Status = model.JobStatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "job completed", "job_id", jobID)
	return updated, nil
}

func nowUTC(now func() time.Time) time.Time {
	return now().UTC().Truncate(time.Microsecond)
}
