package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/domain/auth"
	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
)

// ApplicationServiceOptions groups dependencies for ApplicationService.
type ApplicationServiceOptions struct {
	Repo   core.ApplicationRepository // Required: application repository
	Jobs   core.JobRepository         // Required: job repository
	Logger *slog.Logger               // Optional: structured logger
	Now    func() time.Time           // Optional: clock for tests
}

// ApplicationService manages talent bids and the atomic accept.
type ApplicationService struct {
	repo   core.ApplicationRepository
	jobs   core.JobRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(opts ApplicationServiceOptions) (*ApplicationService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ApplicationRepository is required")
	}
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ApplicationService{
		repo:   opts.Repo,
		jobs:   opts.Jobs,
		logger: logger.With("component", "application_service"),
		now:    now,
	}, nil
}

// MustNewApplicationService constructs an ApplicationService and panics on error.
func MustNewApplicationService(opts ApplicationServiceOptions) *ApplicationService {
	svc, err := NewApplicationService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ApplicationService: %v", err))
	}
	return svc
}

// Apply records the calling talent's bid on a published job.
func (s *ApplicationService) Apply(
	ctx context.Context,
	id *auth.Identity,
	jobID string,
	req *model.CreateApplicationRequest,
) (*model.Application, error) {
	if err := auth.Authorize(id, auth.Requirement{Action: "apply to job", AnyOf: []auth.Role{auth.RoleTalent}}); err != nil {
		return nil, err
	}
	if req == nil {
		req = &model.CreateApplicationRequest{}
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusPublished {
		return nil, apperrors.StateGuard("job", string(job.Status), string(model.JobStatusPublished))
	}
	if job.ClientID == id.UserID {
		return nil, apperrors.Forbidden("clients cannot apply to their own jobs")
	}

	app, err := s.repo.Create(ctx, &model.Application{
		JobID:       jobID,
		TalentID:    id.UserID,
		CoverLetter: req.CoverLetter,
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, apperrors.Conflict("you have already applied to this job")
		}
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.logger.InfoContext(ctx, "application submitted", "job_id", jobID, "application_id", app.ID, "talent_id", id.UserID)
	return app, nil
}

// ListForJob returns every application to the job's client and only their
// own application to a talent.
func (s *ApplicationService) ListForJob(ctx context.Context, id *auth.Identity, jobID string) ([]*model.Application, error) {
	if err := auth.Authorize(id, auth.Requirement{
		Action: "list applications",
		AnyOf:  []auth.Role{auth.RoleAdmin, auth.RoleClient, auth.RoleTalent},
	}); err != nil {
		return nil, err
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	apps, err := s.repo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	if id.IsAdmin() || id.UserID == job.ClientID {
		return apps, nil
	}

	own := make([]*model.Application, 0, 1)
	for _, a := range apps {
		if a.TalentID == id.UserID {
			own = append(own, a)
		}
	}
	return own, nil
}

// loadForOwner fetches an application and its job and checks the caller owns the job.
func (s *ApplicationService) loadForOwner(
	ctx context.Context,
	id *auth.Identity,
	applicationID, action string,
) (*model.Application, *model.Job, error) {
	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}
	job, err := s.jobs.GetByID(ctx, app.JobID)
	if err != nil {
		return nil, nil, err
	}
	if err := auth.Authorize(id, auth.Requirement{Action: action, Owner: auth.Owns(job.ClientID)}); err != nil {
		return nil, nil, err
	}
	return app, job, nil
}

// Accept assigns the job to the applicant. The job's transition out of
// published, the accept and the rejection of every sibling commit together;
// of two concurrent accepts exactly one wins.
func (s *ApplicationService) Accept(
	ctx context.Context,
	id *auth.Identity,
	applicationID string,
	req *model.DecideApplicationRequest,
) (*model.AcceptResult, error) {
	app, job, err := s.loadForOwner(ctx, id, applicationID, "accept application")
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusPublished || job.AssignedTo != nil {
		return nil, apperrors.StateGuard("job", string(job.Status), string(model.JobStatusPublished))
	}
	if app.Status != model.ApplicationStatusPending {
		return nil, apperrors.StateGuard("application", string(app.Status), string(model.ApplicationStatusPending))
	}

	var notes *string
	if req != nil {
		notes = req.ClientNotes
	}
	updatedJob, accepted, err := s.repo.Accept(ctx, model.AcceptApplicationParams{
		JobID:         job.ID,
		ApplicationID: app.ID,
		TalentID:      app.TalentID,
		ClientNotes:   notes,
		Now:           nowUTC(s.now),
	})
	if errors.Is(err, core.ErrAlreadyAssigned) {
		s.logger.InfoContext(ctx, "accept lost race", "job_id", job.ID, "application_id", app.ID)
		return nil, apperrors.StateGuardf("job already assigned")
	}
	if err != nil {
		return nil, fmt.Errorf("accept application: %w", err)
	}

	s.logger.InfoContext(ctx, "application accepted",
		"job_id", updatedJob.ID,
		"application_id", accepted.ID,
		"talent_id", accepted.TalentID,
	)
	return &model.AcceptResult{Job: updatedJob, Application: accepted}, nil
}

// Reject declines a pending application.
func (s *ApplicationService) Reject(
	ctx context.Context,
	id *auth.Identity,
	applicationID string,
	req *model.DecideApplicationRequest,
) (*model.Application, error) {
	app, _, err := s.loadForOwner(ctx, id, applicationID, "reject application")
	if err != nil {
		return nil, err
	}
	if app.Status != model.ApplicationStatusPending {
		return nil, apperrors.StateGuard("application", string(app.Status), string(model.ApplicationStatusPending))
	}
	var notes *string
	if req != nil {
		notes = req.ClientNotes
	}
	rejected, err := s.repo.Reject(ctx, applicationID, notes)
	if err != nil {
		return nil, fmt.Errorf("reject application: %w", err)
	}
	return rejected, nil
}

// Withdraw deletes the caller's own application unless it was accepted.
func (s *ApplicationService) Withdraw(ctx context.Context, id *auth.Identity, applicationID string) error {
	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if err := auth.Authorize(id, auth.Requirement{Action: "withdraw application", Owner: auth.Owns(app.TalentID)}); err != nil {
		return err
	}
	if app.Status == model.ApplicationStatusAccepted {
		return apperrors.StateGuard("application", string(app.Status),
			string(model.ApplicationStatusPending), string(model.ApplicationStatusRejected))
	}
	deleted, err := s.repo.Withdraw(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("withdraw application: %w", err)
	}
	if !deleted {
		return apperrors.StateGuardf("application %s was accepted before it could be withdrawn", applicationID)
	}
	s.logger.InfoContext(ctx, "application withdrawn", "job_id", app.JobID, "application_id", applicationID)
	return nil
}
