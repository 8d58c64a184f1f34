package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/domain/auth"
	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
	"github.com/target/escrow-api/internal/observability/metrics"
	"github.com/target/escrow-api/internal/observability/statsd"
)

// MilestoneServiceOptions groups dependencies for MilestoneService.
type MilestoneServiceOptions struct {
	Jobs           core.JobRepository  // Required: job repository
	Payments       core.PaymentGateway // Required: payment orchestrator
	Directory      core.UserDirectory  // Required: payout account lookup
	Logger         *slog.Logger        // Optional: structured logger
	Metrics        statsd.Sink         // Optional: metrics sink
	MutateAttempts int                 // Optional: version-conflict retries, defaults to 3
	Currency       string              // Optional: hold currency, defaults to usd
	Now            func() time.Time    // Optional: clock for tests
}

// MilestoneService owns the milestone state machine embedded in each job and
// calls the payment orchestrator at the deposit, review and release points.
// It is also the orchestrator's MilestonePaymentListener.
type MilestoneService struct {
	jobs      core.JobRepository
	payments  core.PaymentGateway
	directory core.UserDirectory
	writer    jobWriter
	logger    *slog.Logger
	metrics   statsd.Sink
	currency  string
	now       func() time.Time
}

var _ core.MilestonePaymentListener = (*MilestoneService)(nil)

// NewMilestoneService constructs a MilestoneService.
func NewMilestoneService(opts MilestoneServiceOptions) (*MilestoneService, error) {
	switch {
	case opts.Jobs == nil:
		return nil, errors.New("JobRepository is required")
	case opts.Payments == nil:
		return nil, errors.New("PaymentGateway is required")
	case opts.Directory == nil:
		return nil, errors.New("UserDirectory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "milestone_service")
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &MilestoneService{
		jobs:      opts.Jobs,
		payments:  opts.Payments,
		directory: opts.Directory,
		writer:    newJobWriter(opts.Jobs, opts.MutateAttempts, logger),
		logger:    logger,
		metrics:   statsd.OrNop(opts.Metrics),
		currency:  model.NormalizeCurrency(opts.Currency),
		now:       now,
	}, nil
}

// MustNewMilestoneService constructs a MilestoneService and panics on error.
func MustNewMilestoneService(opts MilestoneServiceOptions) *MilestoneService {
	svc, err := NewMilestoneService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create MilestoneService: %v", err))
	}
	return svc
}

func milestoneOf(job *model.Job, milestoneID string) (*model.Milestone, error) {
	m := job.Milestone(milestoneID)
	if m == nil {
		return nil, apperrors.NotFound("milestone not found")
	}
	return m, nil
}

func requireStatus(m *model.Milestone, want ...model.MilestoneStatus) error {
	for _, w := range want {
		if m.Status == w {
			return nil
		}
	}
	required := make([]string, len(want))
	for i, w := range want {
		required[i] = string(w)
	}
	return apperrors.StateGuard("milestone", string(m.Status), required...)
}

func requireTalentStatus(m *model.Milestone, want model.TalentStatus) error {
	if m.TalentStatus == want {
		return nil
	}
	return apperrors.StateGuard("milestone work", string(m.TalentStatus), string(want))
}

func payeeOf(job *model.Job) (string, error) {
	if job.AssignedTo == nil {
		return "", apperrors.StateGuard("job", string(job.Status), string(model.JobStatusAssigned))
	}
	return *job.AssignedTo, nil
}

func ownerOnly(action string, job *model.Job) auth.Requirement {
	return auth.Requirement{Action: action, AnyOf: []auth.Role{auth.RoleClient}, Owner: auth.Owns(job.ClientID)}
}

func assigneeOnly(action string, job *model.Job) auth.Requirement {
	return auth.Requirement{
		Action: action,
		AnyOf:  []auth.Role{auth.RoleTalent},
		Owner:  func(id auth.Identity) bool { return job.IsAssignedTo(id.UserID) },
	}
}

// advance moves m to next and counts the transition.
func (s *MilestoneService) advance(m *model.Milestone, next model.MilestoneStatus) error {
	from := m.Status
	if err := m.Advance(next, nowUTC(s.now)); err != nil {
		return apperrors.StateGuardf("%s", err.Error())
	}
	if from != next {
		metrics.EmitMilestoneTransition(s.metrics, string(from), string(next))
	}
	return nil
}

func snapshot(job *model.Job, milestoneID string) (*model.Milestone, error) {
	m, err := milestoneOf(job, milestoneID)
	if err != nil {
		return nil, err
	}
	out := *m
	return &out, nil
}

// AddMilestone appends a pending milestone to an assigned job. The deposit
// defaults to 10% of the amount.
func (s *MilestoneService) AddMilestone(
	ctx context.Context,
	id *auth.Identity,
	jobID string,
	req *model.AddMilestoneRequest,
) (*model.Milestone, error) {
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	milestoneID := uuid.NewString()
	job, err := s.writer.mutate(ctx, jobID, func(job *model.Job) error {
		if err := auth.Authorize(id, ownerOnly("add milestone", job)); err != nil {
			return err
		}
		if job.Status != model.JobStatusAssigned {
			return apperrors.StateGuard("job", string(job.Status), string(model.JobStatusAssigned))
		}
		job.Milestones = append(job.Milestones, model.Milestone{
			ID:             milestoneID,
			Description:    strings.TrimSpace(req.Description),
			Amount:         model.RoundMoney(req.Amount),
			DepositAmount:  req.Deposit(),
			CapturedAmount: decimal.Zero,
			Status:         model.MilestoneStatusPending,
			TalentStatus:   model.TalentStatusNotStarted,
			CreatedAt:      nowUTC(s.now),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	m, err := snapshot(job, milestoneID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "milestone added",
		"job_id", jobID,
		"milestone_id", milestoneID,
		"amount", m.Amount.StringFixed(2),
		"deposit", m.DepositAmount.StringFixed(2),
	)
	return m, nil
}

// UpdateMilestone edits a milestone's terms while it is still pending.
func (s *MilestoneService) UpdateMilestone(
	ctx context.Context,
	id *auth.Identity,
	jobID, milestoneID string,
	req *model.UpdateMilestoneRequest,
) (*model.Milestone, error) {
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.writer.mutate(ctx, jobID, func(job *model.Job) error {
		if err := auth.Authorize(id, ownerOnly("update milestone", job)); err != nil {
			return err
		}
		m, err := milestoneOf(job, milestoneID)
		if err != nil {
			return err
		}
		if err := requireStatus(m, model.MilestoneStatusPending); err != nil {
			return err
		}
		if err := req.Apply(m); err != nil {
			return apperrors.Validation(err.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot(job, milestoneID)
}

// GetMilestone returns a milestone and its ledger to either party or an admin.
func (s *MilestoneService) GetMilestone(
	ctx context.Context,
	id *auth.Identity,
	jobID, milestoneID string,
) (*model.MilestoneDetail, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(id, auth.Requirement{Action: "view milestone", Owner: isParty(job), AdminBypass: true}); err != nil {
		return nil, err
	}
	m, err := snapshot(job, milestoneID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.payments.MilestoneLedger(ctx, jobID, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("load milestone ledger: %w", err)
	}
	return &model.MilestoneDetail{JobID: jobID, Milestone: *m, Ledger: ledger}, nil
}

// CreateHold authorises the deposit, remaining or full amount of a milestone
// on behalf of the job's client. Amount and parties come from the milestone.
func (s *MilestoneService) CreateHold(
	ctx context.Context,
	id *auth.Identity,
	req *model.CreateHoldIntentRequest,
) (*model.HoldResult, error) {
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	job, err := s.jobs.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(id, ownerOnly("pay milestone", job)); err != nil {
		return nil, err
	}
	m, err := milestoneOf(job, req.MilestoneID)
	if err != nil {
		return nil, err
	}

	var amount decimal.Decimal
	switch req.PaymentType {
	case model.PaymentTypeDeposit:
		if err := requireStatus(m, model.MilestoneStatusPending); err != nil {
			return nil, err
		}
		amount = m.DepositAmount
	case model.PaymentTypeFull:
		if err := requireStatus(m, model.MilestoneStatusPending); err != nil {
			return nil, err
		}
		amount = m.Amount
	case model.PaymentTypeRemaining:
		if err := requireStatus(m, model.MilestoneStatusCompleted); err != nil {
			return nil, err
		}
		amount = m.RemainingAmount()
	}
	if !amount.IsPositive() {
		return nil, apperrors.StateGuardf("milestone has no %s amount to authorise", req.PaymentType)
	}
	payee, err := payeeOf(job)
	if err != nil {
		return nil, err
	}

	ledger, err := s.payments.MilestoneLedger(ctx, job.ID, m.ID)
	if err != nil {
		return nil, fmt.Errorf("load milestone ledger: %w", err)
	}
	if err := checkHoldFits(m, ledger, req.PaymentType, amount); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}
	return s.payments.ProcessMilestonePayment(ctx, model.HoldRequest{
		JobID:       job.ID,
		MilestoneID: m.ID,
		PaymentType: req.PaymentType,
		Amount:      amount,
		Currency:    currency,
		PayerID:     job.ClientID,
		PayeeID:     payee,
	})
}

// liveHold reports whether a hold still commits client funds to the milestone.
func liveHold(status model.PaymentStatus) bool {
	switch status {
	case model.PaymentStatusPending, model.PaymentStatusRequiresCapture,
		model.PaymentStatusSucceeded, model.PaymentStatusPartiallyRefunded:
		return true
	}
	return false
}

// checkHoldFits rejects a hold that would collect more than the milestone is
// worth. Deposit and full holds exclude each other; holds of the same type are
// left to the gateway, which replays or rejects them.
func checkHoldFits(m *model.Milestone, ledger *model.MilestoneLedger, typ model.PaymentType, amount decimal.Decimal) error {
	committed := decimal.Zero
	if ledger != nil {
		for _, p := range ledger.Payments {
			if p.PaymentType == typ || !liveHold(p.Status) {
				continue
			}
			if (typ == model.PaymentTypeDeposit && p.PaymentType == model.PaymentTypeFull) ||
				(typ == model.PaymentTypeFull && p.PaymentType == model.PaymentTypeDeposit) {
				return apperrors.StateGuardf("milestone already has a %s payment in status %s", p.PaymentType, p.Status)
			}
			committed = committed.Add(p.Amount)
		}
	}
	if committed.Add(amount).GreaterThan(m.Amount) || m.CapturedAmount.Add(amount).GreaterThan(m.Amount) {
		return apperrors.StateGuardf("a %s hold of %s would exceed the milestone amount %s",
			typ, amount.StringFixed(2), m.Amount.StringFixed(2))
	}
	return nil
}

// CaptureHold captures a hold on a milestone for the job's client or an admin.
func (s *MilestoneService) CaptureHold(
	ctx context.Context,
	id *auth.Identity,
	req *model.CapturePaymentRequest,
) (*model.CaptureResult, error) {
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	job, err := s.jobs.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	owner := ownerOnly("capture payment", job)
	owner.AdminBypass = true
	if err := auth.Authorize(id, owner); err != nil {
		return nil, err
	}
	if _, err := milestoneOf(job, req.MilestoneID); err != nil {
		return nil, err
	}

	ledger, err := s.payments.MilestoneLedger(ctx, req.JobID, req.MilestoneID)
	if err != nil {
		return nil, fmt.Errorf("load milestone ledger: %w", err)
	}
	for _, p := range ledger.Payments {
		if p.PaymentIntentID == req.PaymentIntentID {
			return s.payments.CaptureHold(ctx, req.PaymentIntentID)
		}
	}
	return nil, apperrors.NotFound("payment not found for this milestone")
}

// StartWork lets the assigned talent begin once the deposit is paid.
func (s *MilestoneService) StartWork(ctx context.Context, id *auth.Identity, jobID, milestoneID string) (*model.Milestone, error) {
	job, err := s.writer.mutate(ctx, jobID, func(job *model.Job) error {
		if err := auth.Authorize(id, assigneeOnly("start milestone work", job)); err != nil {
			return err
		}
		m, err := milestoneOf(job, milestoneID)
		if err != nil {
			return err
		}
		if err := requireStatus(m, model.MilestoneStatusDepositPaid); err != nil {
			return err
		}
		m.TalentStatus = model.TalentStatusInProgress
		return s.advance(m, model.MilestoneStatusInProgress)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "milestone work started", "job_id", jobID, "milestone_id", milestoneID)
	return snapshot(job, milestoneID)
}

// CompleteWork records the talent's submission. Payment status is unchanged
// until the client reviews.
func (s *MilestoneService) CompleteWork(
	ctx context.Context,
	id *auth.Identity,
	jobID, milestoneID string,
	req *model.CompleteWorkRequest,
) (*model.Milestone, error) {
	job, err := s.writer.mutate(ctx, jobID, func(job *model.Job) error {
		if err := auth.Authorize(id, assigneeOnly("complete milestone work", job)); err != nil {
			return err
		}
		m, err := milestoneOf(job, milestoneID)
		if err != nil {
			return err
		}
		if err := requireStatus(m, model.MilestoneStatusInProgress); err != nil {
			return err
		}
		if err := requireTalentStatus(m, model.TalentStatusInProgress); err != nil {
			return err
		}
		m.TalentStatus = model.TalentStatusCompleted
		if req != nil {
			m.SubmissionDetails = req.SubmissionDetails
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "milestone work submitted", "job_id", jobID, "milestone_id", milestoneID)
	return snapshot(job, milestoneID)
}

func checkReviewable(job *model.Job, milestoneID string) (*model.Milestone, error) {
	m, err := milestoneOf(job, milestoneID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(m, model.MilestoneStatusInProgress); err != nil {
		return nil, err
	}
	if err := requireTalentStatus(m, model.TalentStatusCompleted); err != nil {
		return nil, err
	}
	return m, nil
}

// Review approves submitted work or sends it back. Approval authorises the
// remaining amount before the milestone moves to completed, so a processor
// failure leaves the milestone untouched and the review retryable.
func (s *MilestoneService) Review(
	ctx context.Context,
	id *auth.Identity,
	jobID, milestoneID string,
	req *model.ReviewRequest,
) (*model.ReviewResult, error) {
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.ValidationField("approve", err.Error())
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(id, ownerOnly("review milestone", job)); err != nil {
		return nil, err
	}
	current, err := checkReviewable(job, milestoneID)
	if err != nil {
		return nil, err
	}

	if !*req.Approve {
		return s.requestChanges(ctx, id, jobID, milestoneID, req.Feedback)
	}

	payee, err := payeeOf(job)
	if err != nil {
		return nil, err
	}

	var hold *model.HoldResult
	if remaining := current.RemainingAmount(); remaining.IsPositive() {
		hold, err = s.payments.ProcessMilestonePayment(ctx, model.HoldRequest{
			JobID:       jobID,
			MilestoneID: milestoneID,
			PaymentType: model.PaymentTypeRemaining,
			Amount:      remaining,
			Currency:    s.currency,
			PayerID:     job.ClientID,
			PayeeID:     payee,
		})
		if err != nil {
			return nil, fmt.Errorf("create remaining hold: %w", err)
		}
	}

	updated, err := s.writer.mutate(ctx, jobID, func(job *model.Job) error {
		if err := auth.Authorize(id, ownerOnly("review milestone", job)); err != nil {
			return err
		}
		m, err := checkReviewable(job, milestoneID)
		if err != nil {
			return err
		}
		m.ClientApproved = true
		m.ClientFeedback = req.Feedback
		if err := s.advance(m, model.MilestoneStatusCompleted); err != nil {
			return err
		}
		if hold != nil {
			m.PaymentIntentID = hold.PaymentIntentID
			return nil
		}
		// Fully paid up front: nothing left to authorise.
		return s.advance(m, model.MilestoneStatusEscrowed)
	})
	if err != nil {
		return nil, err
	}

	m, err := snapshot(updated, milestoneID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "milestone approved",
		"job_id", jobID,
		"milestone_id", milestoneID,
		"status", m.Status,
		"remaining_hold", hold != nil,
	)
	return &model.ReviewResult{Milestone: *m, Hold: hold}, nil
}

func (s *MilestoneService) requestChanges(
	ctx context.Context,
	id *auth.Identity,
	jobID, milestoneID, feedback string,
) (*model.ReviewResult, error) {
	updated, err := s.writer.mutate(ctx, jobID, func(job *model.Job) error {
		if err := auth.Authorize(id, ownerOnly("review milestone", job)); err != nil {
			return err
		}
		m, err := checkReviewable(job, milestoneID)
		if err != nil {
			return err
		}
		m.TalentStatus = model.TalentStatusInProgress
		m.ClientApproved = false
		m.ClientFeedback = feedback
		return s.advance(m, model.MilestoneStatusInProgress)
	})
	if err != nil {
		return nil, err
	}
	m, err := snapshot(updated, milestoneID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "milestone changes requested", "job_id", jobID, "milestone_id", milestoneID)
	return &model.ReviewResult{Milestone: *m}, nil
}

// CancelMilestone moves a non-terminal milestone to cancelled. Captured funds
// are not refunded here; the cancellation is logged for follow-up.
func (s *MilestoneService) CancelMilestone(
	ctx context.Context,
	id *auth.Identity,
	jobID, milestoneID string,
) (*model.Milestone, error) {
	job, err := s.writer.mutate(ctx, jobID, func(job *model.Job) error {
		req := ownerOnly("cancel milestone", job)
		req.AdminBypass = true
		if err := auth.Authorize(id, req); err != nil {
			return err
		}
		m, err := milestoneOf(job, milestoneID)
		if err != nil {
			return err
		}
		if m.Status.Terminal() {
			return apperrors.StateGuard("milestone", string(m.Status),
				string(model.MilestoneStatusPending), string(model.MilestoneStatusDepositPaid),
				string(model.MilestoneStatusInProgress), string(model.MilestoneStatusCompleted),
				string(model.MilestoneStatusEscrowed))
		}
		return s.advance(m, model.MilestoneStatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	m, err := snapshot(job, milestoneID)
	if err != nil {
		return nil, err
	}
	if m.CapturedAmount.IsPositive() {
		s.logger.WarnContext(ctx, "milestone cancelled with captured funds in platform balance",
			"job_id", jobID,
			"milestone_id", milestoneID,
			"captured_amount", m.CapturedAmount.StringFixed(2),
		)
	} else {
		s.logger.InfoContext(ctx, "milestone cancelled", "job_id", jobID, "milestone_id", milestoneID)
	}
	return m, nil
}

// ReleaseFunds pays an escrowed milestone out to the talent at the client's request.
func (s *MilestoneService) ReleaseFunds(
	ctx context.Context,
	id *auth.Identity,
	jobID, milestoneID string,
) (*model.Milestone, error) {
	return s.release(ctx, jobID, milestoneID, func(job *model.Job) auth.Requirement {
		return ownerOnly("release milestone funds", job)
	}, id)
}

// release is the one release flow shared by the client and the admin override:
// look up the payee's account, capture anything still authorised, transfer,
// then mark the milestone released.
func (s *MilestoneService) release(
	ctx context.Context,
	jobID, milestoneID string,
	requirement func(job *model.Job) auth.Requirement,
	id *auth.Identity,
) (*model.Milestone, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(id, requirement(job)); err != nil {
		return nil, err
	}
	m, err := milestoneOf(job, milestoneID)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(m, model.MilestoneStatusEscrowed); err != nil {
		return nil, err
	}
	payee, err := payeeOf(job)
	if err != nil {
		return nil, err
	}

	accountID, err := s.directory.PayoutAccountID(ctx, payee)
	if err != nil {
		return nil, fmt.Errorf("resolve payout account: %w", err)
	}

	ledger, err := s.payments.MilestoneLedger(ctx, jobID, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("load milestone ledger: %w", err)
	}
	intentID := sourceIntent(ledger)

	transfer, err := s.payments.TransferToPayee(ctx, model.TransferRequest{
		JobID:           jobID,
		MilestoneID:     milestoneID,
		AccountID:       accountID,
		PayeeID:         payee,
		Amount:          m.Amount,
		PaymentIntentID: intentID,
	})
	if err != nil {
		return nil, fmt.Errorf("transfer milestone funds: %w", err)
	}

	updated, err := s.writer.mutate(ctx, jobID, func(job *model.Job) error {
		m, err := milestoneOf(job, milestoneID)
		if err != nil {
			return err
		}
		if m.Status == model.MilestoneStatusReleased && m.TransferID == transfer.TransferID {
			return errNoChange
		}
		if err := requireStatus(m, model.MilestoneStatusEscrowed); err != nil {
			return err
		}
		m.TransferID = transfer.TransferID
		return s.advance(m, model.MilestoneStatusReleased)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "funds transferred but milestone not marked released",
			"job_id", jobID,
			"milestone_id", milestoneID,
			"transfer_id", transfer.TransferID,
			"error", err,
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "milestone funds released",
		"job_id", jobID,
		"milestone_id", milestoneID,
		"transfer_id", transfer.TransferID,
		"account_id", accountID,
		"released_by", id.UserID,
	)
	return snapshot(updated, milestoneID)
}

// sourceIntent picks the captured intent that funds a transfer, preferring
// the full or remaining capture over the deposit.
func sourceIntent(ledger *model.MilestoneLedger) string {
	var intentID string
	for _, p := range ledger.Payments {
		if p.Status != model.PaymentStatusSucceeded {
			continue
		}
		if p.PaymentType != model.PaymentTypeDeposit || intentID == "" {
			intentID = p.PaymentIntentID
		}
	}
	return intentID
}

// OnHoldCaptured applies a settled hold to its milestone. A deposit or full
// capture on a pending milestone pays the deposit; a remaining capture on a
// completed milestone escrows it. Replays and out-of-order captures only
// record the amount, so the status never regresses.
func (s *MilestoneService) OnHoldCaptured(ctx context.Context, ev model.HoldCapturedEvent) error {
	var (
		from, to model.MilestoneStatus
		applied  bool
	)
	_, err := s.writer.mutate(ctx, ev.JobID, func(job *model.Job) error {
		applied = false
		m, err := milestoneOf(job, ev.MilestoneID)
		if err != nil {
			return err
		}
		if !m.ApplyCapture(ev.PaymentIntentID, ev.Amount) {
			return errNoChange
		}
		applied = true
		from, to = m.Status, m.Status

		switch {
		case (ev.PaymentType == model.PaymentTypeDeposit || ev.PaymentType == model.PaymentTypeFull) &&
			m.Status == model.MilestoneStatusPending:
			to = model.MilestoneStatusDepositPaid
		case ev.PaymentType == model.PaymentTypeRemaining && m.Status == model.MilestoneStatusCompleted:
			to = model.MilestoneStatusEscrowed
		}
		if to != from {
			m.PaymentIntentID = ev.PaymentIntentID
			return s.advance(m, to)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply capture %s: %w", ev.PaymentIntentID, err)
	}

	switch {
	case !applied:
		s.logger.DebugContext(ctx, "capture already applied",
			"job_id", ev.JobID, "milestone_id", ev.MilestoneID, "payment_intent_id", ev.PaymentIntentID)
	case from == to:
		level := slog.LevelInfo
		if from == model.MilestoneStatusCancelled {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "capture recorded without status change",
			"job_id", ev.JobID,
			"milestone_id", ev.MilestoneID,
			"payment_intent_id", ev.PaymentIntentID,
			"payment_type", ev.PaymentType,
			"status", from,
		)
	default:
		s.logger.InfoContext(ctx, "milestone advanced by capture",
			"job_id", ev.JobID,
			"milestone_id", ev.MilestoneID,
			"payment_intent_id", ev.PaymentIntentID,
			"from", from,
			"to", to,
		)
	}
	return nil
}
