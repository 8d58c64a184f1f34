package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/domain/auth"
	"github.com/target/escrow-api/internal/domain/model"
)

const defaultStuckScanLimit = 500

// AdminServiceOptions groups dependencies for AdminService.
type AdminServiceOptions struct {
	Milestones *MilestoneService   // Required: shared release flow
	Jobs       core.JobRepository  // Required: job repository
	Payments   core.PaymentGateway // Required: ledger access
	Logger     *slog.Logger        // Optional: structured logger
	ScanLimit  int                 // Optional: escrowed jobs inspected per scan
}

// AdminService is the privileged escape hatch for milestones whose normal
// client-driven release has stalled.
type AdminService struct {
	milestones *MilestoneService
	jobs       core.JobRepository
	payments   core.PaymentGateway
	logger     *slog.Logger
	scanLimit  int
}

// NewAdminService constructs an AdminService.
func NewAdminService(opts AdminServiceOptions) (*AdminService, error) {
	switch {
	case opts.Milestones == nil:
		return nil, errors.New("MilestoneService is required")
	case opts.Jobs == nil:
		return nil, errors.New("JobRepository is required")
	case opts.Payments == nil:
		return nil, errors.New("PaymentGateway is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := opts.ScanLimit
	if limit <= 0 {
		limit = defaultStuckScanLimit
	}
	return &AdminService{
		milestones: opts.Milestones,
		jobs:       opts.Jobs,
		payments:   opts.Payments,
		logger:     logger.With("component", "admin_service"),
		scanLimit:  limit,
	}, nil
}

// MustNewAdminService constructs an AdminService and panics on error.
func MustNewAdminService(opts AdminServiceOptions) *AdminService {
	svc, err := NewAdminService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create AdminService: %v", err))
	}
	return svc
}

func adminOnly(action string) func(*model.Job) auth.Requirement {
	return func(*model.Job) auth.Requirement {
		return auth.Requirement{Action: action, AnyOf: []auth.Role{auth.RoleAdmin}}
	}
}

// ReleaseMilestoneFunds force-releases an escrowed milestone: capture anything
// still authorised, transfer to the talent's payout account, mark released.
func (s *AdminService) ReleaseMilestoneFunds(
	ctx context.Context,
	id *auth.Identity,
	jobID, milestoneID string,
) (*model.Milestone, error) {
	if err := auth.Authorize(id, adminOnly("release milestone funds")(nil)); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "admin release requested",
		"job_id", jobID,
		"milestone_id", milestoneID,
		"admin_id", id.UserID,
	)
	return s.milestones.release(ctx, jobID, milestoneID, adminOnly("release milestone funds"), id)
}

// ListStuckMilestones returns escrowed milestones that have no paid transfer:
// funds captured into platform balance but never paid out.
func (s *AdminService) ListStuckMilestones(ctx context.Context, id *auth.Identity) ([]model.StuckMilestone, error) {
	if err := auth.Authorize(id, adminOnly("list stuck milestones")(nil)); err != nil {
		return nil, err
	}
	return s.FindStuckMilestones(ctx)
}

// FindStuckMilestones is the unauthenticated scan shared by the admin
// endpoint, the CLI and the sweeper.
func (s *AdminService) FindStuckMilestones(ctx context.Context) ([]model.StuckMilestone, error) {
	jobs, err := s.jobs.ListByMilestoneStatus(ctx, model.MilestoneStatusEscrowed, s.scanLimit)
	if err != nil {
		return nil, fmt.Errorf("list escrowed jobs: %w", err)
	}

	stuck := []model.StuckMilestone{}
	for _, job := range jobs {
		for i := range job.Milestones {
			m := &job.Milestones[i]
			if m.Status != model.MilestoneStatusEscrowed {
				continue
			}
			ledger, err := s.payments.MilestoneLedger(ctx, job.ID, m.ID)
			if err != nil {
				return nil, fmt.Errorf("load ledger for %s/%s: %w", job.ID, m.ID, err)
			}
			last, paid := lastTransfer(ledger.Transfers)
			if paid {
				continue
			}
			entry := model.StuckMilestone{
				JobID:          job.ID,
				MilestoneID:    m.ID,
				ClientID:       job.ClientID,
				Amount:         m.Amount,
				CapturedAmount: m.CapturedAmount,
				EscrowedAt:     m.EscrowedAt,
				LastTransfer:   last,
			}
			if job.AssignedTo != nil {
				entry.TalentID = *job.AssignedTo
			}
			stuck = append(stuck, entry)
		}
	}
	return stuck, nil
}

// lastTransfer returns the newest transfer attempt and whether any attempt was paid.
func lastTransfer(transfers []*model.Transfer) (*model.Transfer, bool) {
	var last *model.Transfer
	for _, t := range transfers {
		if t.Status == model.TransferStatusPaid {
			return t, true
		}
		if last == nil || t.CreatedAt.After(last.CreatedAt) {
			last = t
		}
	}
	return last, false
}
