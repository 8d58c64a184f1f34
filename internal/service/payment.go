package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
	obserrors "github.com/target/escrow-api/internal/observability/errors"
	"github.com/target/escrow-api/internal/observability/metrics"
	"github.com/target/escrow-api/internal/observability/notify"
	"github.com/target/escrow-api/internal/observability/statsd"
	"github.com/target/escrow-api/internal/service/failurenotifier"
)

const defaultClaimTTL = 30 * time.Second

// PaymentServiceOptions groups dependencies for PaymentService.
type PaymentServiceOptions struct {
	Payments    core.PaymentRepository          // Required: hold ledger
	Transfers   core.TransferRepository         // Required: transfer ledger
	Accounts    core.ConnectedAccountRepository // Required: connected account mirror
	Processor   core.PaymentProcessor           // Required: processor adapter
	Idempotency core.IdempotencyStore           // Required: in-flight claims
	Listener    core.MilestonePaymentListener   // Optional: may be set later with SetListener
	Notifier    *failurenotifier.Service        // Optional: partial-failure alerts
	Metrics     statsd.Sink                     // Optional: metrics sink
	Logger      *slog.Logger                    // Optional: structured logger
	ClaimTTL    time.Duration                   // Optional: defaults to 30s
	Currency    string                          // Optional: defaults to usd
	Now         func() time.Time                // Optional: clock for tests
}

// PaymentService orchestrates processor holds, captures and transfers and keeps
// the local ledger in step with the processor's answers.
//
// Capture and transfer are never chained automatically: each is a separate,
// independently retryable call keyed by a deterministic idempotency key.
type PaymentService struct {
	payments    core.PaymentRepository
	transfers   core.TransferRepository
	accounts    core.ConnectedAccountRepository
	processor   core.PaymentProcessor
	idempotency core.IdempotencyStore
	listener    core.MilestonePaymentListener
	notifier    *failurenotifier.Service
	metrics     statsd.Sink
	logger      *slog.Logger
	claimTTL    time.Duration
	currency    string
	now         func() time.Time
}

var _ core.PaymentGateway = (*PaymentService)(nil)

// NewPaymentService constructs a PaymentService.
func NewPaymentService(opts PaymentServiceOptions) (*PaymentService, error) {
	switch {
	case opts.Payments == nil:
		return nil, errors.New("PaymentRepository is required")
	case opts.Transfers == nil:
		return nil, errors.New("TransferRepository is required")
	case opts.Accounts == nil:
		return nil, errors.New("ConnectedAccountRepository is required")
	case opts.Processor == nil:
		return nil, errors.New("PaymentProcessor is required")
	case opts.Idempotency == nil:
		return nil, errors.New("IdempotencyStore is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.ClaimTTL
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &PaymentService{
		payments:    opts.Payments,
		transfers:   opts.Transfers,
		accounts:    opts.Accounts,
		processor:   opts.Processor,
		idempotency: opts.Idempotency,
		listener:    opts.Listener,
		notifier:    opts.Notifier,
		metrics:     statsd.OrNop(opts.Metrics),
		logger:      logger.With("component", "payment_service"),
		claimTTL:    ttl,
		currency:    model.NormalizeCurrency(opts.Currency),
		now:         now,
	}, nil
}

// MustNewPaymentService constructs a PaymentService and panics on error.
func MustNewPaymentService(opts PaymentServiceOptions) *PaymentService {
	svc, err := NewPaymentService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create PaymentService: %v", err))
	}
	return svc
}

// SetListener registers the milestone side. It must be called before the
// service handles requests; the lifecycle manager and the orchestrator depend
// on each other and cannot both be passed in at construction.
func (s *PaymentService) SetListener(l core.MilestonePaymentListener) {
	s.listener = l
}

func holdKey(jobID, milestoneID string, t model.PaymentType, attempt int) string {
	return fmt.Sprintf("escrow:%s:%s:%s:hold:%d", jobID, milestoneID, t, attempt)
}

func captureKey(p *model.Payment) string {
	return fmt.Sprintf("escrow:%s:%s:%s:capture:%s", p.JobID, p.MilestoneID, p.PaymentType, p.PaymentIntentID)
}

func transferKey(jobID, milestoneID string, attempt int) string {
	return fmt.Sprintf("escrow:%s:%s:release:transfer:%d", jobID, milestoneID, attempt)
}

func transferGroup(jobID, milestoneID string) string {
	return jobID + ":" + milestoneID
}

// CreateDepositHold authorises the milestone deposit.
func (s *PaymentService) CreateDepositHold(ctx context.Context, req model.HoldRequest) (*model.HoldResult, error) {
	req.PaymentType = model.PaymentTypeDeposit
	return s.ProcessMilestonePayment(ctx, req)
}

// CreateRemainingHold authorises what is left of the milestone after the deposit.
func (s *PaymentService) CreateRemainingHold(ctx context.Context, req model.HoldRequest) (*model.HoldResult, error) {
	req.PaymentType = model.PaymentTypeRemaining
	return s.ProcessMilestonePayment(ctx, req)
}

// CreateFullHold authorises the whole milestone amount up front.
func (s *PaymentService) CreateFullHold(ctx context.Context, req model.HoldRequest) (*model.HoldResult, error) {
	req.PaymentType = model.PaymentTypeFull
	return s.ProcessMilestonePayment(ctx, req)
}

// ProcessMilestonePayment creates a manual-capture hold for req.PaymentType.
// It never captures or transfers. A live hold of the same type for the
// milestone is returned unchanged, so client retries are safe.
func (s *PaymentService) ProcessMilestonePayment(
	ctx context.Context,
	req model.HoldRequest,
) (*model.HoldResult, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if req.Currency == "" {
		req.Currency = s.currency
	}
	req.Currency = model.NormalizeCurrency(req.Currency)
	start := time.Now()

	existing, err := s.payments.FindActive(ctx, req.JobID, req.MilestoneID, req.PaymentType)
	if err != nil {
		return nil, fmt.Errorf("find active hold: %w", err)
	}
	if existing != nil {
		if !existing.Amount.Equal(req.Amount) {
			return nil, apperrors.Conflictf("an active %s hold of %s already exists for this milestone",
				req.PaymentType, existing.Amount.StringFixed(2))
		}
		s.emit("hold", req.PaymentType, metrics.ResultReplay, start, nil)
		return holdResult(existing, true), nil
	}

	dead, err := s.payments.CountDeadAttempts(ctx, req.JobID, req.MilestoneID, req.PaymentType)
	if err != nil {
		return nil, fmt.Errorf("count hold attempts: %w", err)
	}
	key := holdKey(req.JobID, req.MilestoneID, req.PaymentType, dead+1)

	release, err := s.claim(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	hold, err := s.processor.CreateHold(ctx, model.CreateHoldParams{
		Amount:         model.ToMinorUnits(req.Amount),
		Currency:       req.Currency,
		IdempotencyKey: key,
		Description:    fmt.Sprintf("Milestone %s %s payment", req.MilestoneID, req.PaymentType),
		TransferGroup:  transferGroup(req.JobID, req.MilestoneID),
		Metadata: map[string]string{
			"job_id":       req.JobID,
			"milestone_id": req.MilestoneID,
			"payment_type": string(req.PaymentType),
			"payer_id":     req.PayerID,
			"payee_id":     req.PayeeID,
		},
	})
	if err != nil {
		s.emit("hold", req.PaymentType, metrics.ResultError, start, err)
		s.logger.WarnContext(ctx, "processor rejected hold",
			"job_id", req.JobID,
			"milestone_id", req.MilestoneID,
			"payment_type", req.PaymentType,
			"idempotency_key", key,
			"error", err,
		)
		return nil, processorFailure(err, "the payment processor could not create the hold")
	}

	secret := hold.ClientSecret
	stored, created, err := s.payments.Create(ctx, &model.Payment{
		PaymentIntentID: hold.ID,
		IdempotencyKey:  key,
		PaymentType:     req.PaymentType,
		JobID:           req.JobID,
		MilestoneID:     req.MilestoneID,
		PayerID:         req.PayerID,
		PayeeID:         req.PayeeID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Status:          hold.Status,
		ClientSecret:    &secret,
	})
	if err != nil {
		// The hold exists on the processor; the next attempt reuses the key and
		// gets the same intent back.
		s.logger.ErrorContext(ctx, "hold created but ledger write failed",
			"job_id", req.JobID,
			"milestone_id", req.MilestoneID,
			"payment_intent_id", hold.ID,
			"error", err,
		)
		return nil, fmt.Errorf("record hold: %w", err)
	}

	result := metrics.ResultSuccess
	if !created {
		result = metrics.ResultReplay
	}
	s.emit("hold", req.PaymentType, result, start, nil)
	s.logger.InfoContext(ctx, "hold created",
		"job_id", req.JobID,
		"milestone_id", req.MilestoneID,
		"payment_type", req.PaymentType,
		"payment_intent_id", stored.PaymentIntentID,
		"status", stored.Status,
	)
	return holdResult(stored, !created), nil
}

func holdResult(p *model.Payment, replayed bool) *model.HoldResult {
	out := &model.HoldResult{
		PaymentIntentID: p.PaymentIntentID,
		Status:          p.Status,
		Amount:          p.Amount,
		Currency:        p.Currency,
		PaymentType:     p.PaymentType,
		Replayed:        replayed,
	}
	if p.ClientSecret != nil {
		out.ClientSecret = *p.ClientSecret
	}
	return out
}

// CaptureHold settles an authorised hold into platform balance. The
// processor's current view decides: anything other than requires_capture is a
// state-guard error and leaves the ledger untouched.
func (s *PaymentService) CaptureHold(ctx context.Context, paymentIntentID string) (*model.CaptureResult, error) {
	if paymentIntentID == "" {
		return nil, apperrors.ValidationField("paymentIntentId", "paymentIntentId is required")
	}
	start := time.Now()

	p, err := s.payments.GetByIntentID(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}

	hold, err := s.processor.RetrieveHold(ctx, paymentIntentID)
	if err != nil {
		s.emit("capture", p.PaymentType, metrics.ResultError, start, err)
		return nil, processorFailure(err, "the payment processor could not be reached")
	}
	if hold.Status != model.PaymentStatusRequiresCapture {
		return nil, apperrors.StateGuard("payment", string(hold.Status), string(model.PaymentStatusRequiresCapture))
	}

	key := captureKey(p)
	release, err := s.claim(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	captured, err := s.processor.CaptureHold(ctx, model.CaptureHoldParams{
		PaymentIntentID: paymentIntentID,
		IdempotencyKey:  key,
	})
	if err != nil {
		s.emit("capture", p.PaymentType, metrics.ResultError, start, err)
		s.logger.ErrorContext(ctx, "capture failed",
			"job_id", p.JobID,
			"milestone_id", p.MilestoneID,
			"payment_intent_id", paymentIntentID,
			"error", err,
		)
		return nil, processorFailure(err, "the payment processor could not capture the hold")
	}

	updated, _, err := s.payments.Advance(ctx, model.AdvancePaymentParams{
		PaymentIntentID: paymentIntentID,
		Status:          captured.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("record capture: %w", err)
	}

	amount := p.Amount
	if captured.AmountReceived > 0 {
		amount = model.FromMinorUnits(captured.AmountReceived)
	}
	if captured.Status.Captured() {
		s.notifyCaptured(ctx, updated, amount)
	}

	s.emit("capture", p.PaymentType, metrics.ResultSuccess, start, nil)
	s.logger.InfoContext(ctx, "hold captured",
		"job_id", p.JobID,
		"milestone_id", p.MilestoneID,
		"payment_intent_id", paymentIntentID,
		"amount", amount.StringFixed(2),
	)
	return &model.CaptureResult{
		PaymentIntentID: paymentIntentID,
		Status:          updated.Status,
		Amount:          amount,
		JobID:           p.JobID,
		MilestoneID:     p.MilestoneID,
	}, nil
}

// notifyCaptured tells the milestone side about a settled hold. The ledger is
// already correct at this point, so a listener failure is reported and left for
// the webhook or sweeper to repeat.
func (s *PaymentService) notifyCaptured(ctx context.Context, p *model.Payment, amount decimal.Decimal) {
	if s.listener == nil || p == nil {
		return
	}
	err := s.listener.OnHoldCaptured(ctx, model.HoldCapturedEvent{
		JobID:           p.JobID,
		MilestoneID:     p.MilestoneID,
		PaymentType:     p.PaymentType,
		PaymentIntentID: p.PaymentIntentID,
		Amount:          amount,
	})
	if err == nil {
		return
	}
	s.logger.ErrorContext(ctx, "milestone listener failed after capture",
		"job_id", p.JobID,
		"milestone_id", p.MilestoneID,
		"payment_intent_id", p.PaymentIntentID,
		"error", err,
	)
	s.notifier.NotifyPaymentFailure(ctx, notify.PaymentFailurePayload{
		Kind:            notify.KindListenerFailed,
		JobID:           p.JobID,
		MilestoneID:     p.MilestoneID,
		PaymentIntentID: p.PaymentIntentID,
		Amount:          amount.StringFixed(2),
		Currency:        p.Currency,
		Error:           err.Error(),
		ErrorClass:      obserrors.Classify(err),
		Severity:        notify.SeverityWarning,
		OccurredAt:      s.now(),
	})
}

// TransferToPayee pays captured milestone funds out to the payee's connected
// account. A failure after capture leaves the funds in platform balance; it is
// recorded, alerted and returned, never reversed.
func (s *PaymentService) TransferToPayee(ctx context.Context, req model.TransferRequest) (*model.TransferResult, error) {
	if req.JobID == "" || req.MilestoneID == "" || req.AccountID == "" {
		return nil, apperrors.Validation("jobId, milestoneId and accountId are required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.ValidationField("amount", "amount must be positive")
	}
	start := time.Now()

	currency, err := s.checkCaptured(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Currency == "" {
		req.Currency = currency
	}
	req.Currency = model.NormalizeCurrency(req.Currency)

	existing, err := s.transfers.ListByMilestone(ctx, req.JobID, req.MilestoneID)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	for _, t := range existing {
		if t.Status == model.TransferStatusPaid && t.TransferID != nil {
			s.emit("transfer", "", metrics.ResultReplay, start, nil)
			return transferResult(t, true), nil
		}
	}

	if err := s.ensurePayoutCapable(ctx, req.AccountID, req.PayeeID); err != nil {
		s.emit("transfer", "", metrics.ResultError, start, err)
		return nil, err
	}

	dead, err := s.transfers.CountDeadAttempts(ctx, req.JobID, req.MilestoneID)
	if err != nil {
		return nil, fmt.Errorf("count transfer attempts: %w", err)
	}
	key := transferKey(req.JobID, req.MilestoneID, dead+1)

	release, err := s.claim(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	var intentID *string
	if req.PaymentIntentID != "" {
		intentID = &req.PaymentIntentID
	}
	pt, err := s.processor.CreateTransfer(ctx, model.CreateTransferParams{
		Amount:         model.ToMinorUnits(req.Amount),
		Currency:       req.Currency,
		Destination:    req.AccountID,
		TransferGroup:  transferGroup(req.JobID, req.MilestoneID),
		IdempotencyKey: key,
		Metadata: map[string]string{
			"job_id":       req.JobID,
			"milestone_id": req.MilestoneID,
			"payee_id":     req.PayeeID,
		},
	})
	if err != nil {
		s.emit("transfer", "", metrics.ResultError, start, err)
		s.transferFailed(ctx, req, key, intentID, err)
		return nil, processorFailure(err, "funds are captured but the transfer to the payee failed")
	}

	tid := pt.ID
	stored, _, err := s.transfers.Create(ctx, &model.Transfer{
		TransferID:      &tid,
		IdempotencyKey:  key,
		AccountID:       req.AccountID,
		PaymentIntentID: intentID,
		JobID:           req.JobID,
		SourceID:        req.MilestoneID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Status:          model.TransferStatusPaid,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "transfer created but ledger write failed",
			"job_id", req.JobID,
			"milestone_id", req.MilestoneID,
			"transfer_id", pt.ID,
			"error", err,
		)
		return nil, fmt.Errorf("record transfer: %w", err)
	}

	s.emit("transfer", "", metrics.ResultSuccess, start, nil)
	s.logger.InfoContext(ctx, "transfer created",
		"job_id", req.JobID,
		"milestone_id", req.MilestoneID,
		"transfer_id", pt.ID,
		"account_id", req.AccountID,
		"amount", req.Amount.StringFixed(2),
	)
	return transferResult(stored, false), nil
}

// checkCaptured verifies every authorised hold on the milestone has been
// captured and that captured funds cover the transfer. It returns the ledger currency.
func (s *PaymentService) checkCaptured(ctx context.Context, req model.TransferRequest) (string, error) {
	payments, err := s.payments.ListByMilestone(ctx, req.JobID, req.MilestoneID)
	if err != nil {
		return "", fmt.Errorf("list payments: %w", err)
	}
	total := decimal.Zero
	currency := ""
	for _, p := range payments {
		switch {
		case p.Status == model.PaymentStatusRequiresCapture:
			return "", apperrors.StateGuard("payment "+p.PaymentIntentID,
				string(p.Status), string(model.PaymentStatusSucceeded))
		case p.Status == model.PaymentStatusSucceeded:
			total = total.Add(p.Amount)
			currency = p.Currency
		}
	}
	if total.LessThan(req.Amount) {
		return "", apperrors.StateGuardf("captured funds %s do not cover the transfer of %s",
			total.StringFixed(2), req.Amount.StringFixed(2))
	}
	return currency, nil
}

// ensurePayoutCapable refreshes the account mirror from the processor.
func (s *PaymentService) ensurePayoutCapable(ctx context.Context, accountID, payeeID string) error {
	acct, err := s.processor.RetrieveAccount(ctx, accountID)
	if err != nil {
		return processorFailure(err, "the payee account could not be verified")
	}
	mirror := &model.ConnectedAccount{
		AccountID:       acct.ID,
		ChargesEnabled:  acct.ChargesEnabled,
		PayoutsEnabled:  acct.PayoutsEnabled,
		TransfersActive: acct.TransfersActive,
	}
	if payeeID != "" {
		mirror.UserID = &payeeID
	}
	stored, err := s.accounts.Upsert(ctx, mirror)
	if err != nil {
		return fmt.Errorf("record connected account: %w", err)
	}
	if !stored.PayoutCapable() {
		return apperrors.Upstream(
			fmt.Errorf("account %s: transfers_active=%t payouts_enabled=%t deauthorized=%t",
				stored.AccountID, stored.TransfersActive, stored.PayoutsEnabled, stored.Deauthorized),
			"the payee account cannot receive payouts",
		)
	}
	return nil
}

// transferFailed records a definitive failure as a dead attempt and alerts.
// An unknown outcome keeps the key live so the retry lands on the same transfer.
func (s *PaymentService) transferFailed(
	ctx context.Context,
	req model.TransferRequest,
	key string,
	intentID *string,
	cause error,
) {
	var perr *model.ProcessorError
	temporary := !errors.As(cause, &perr) || perr.Temporary

	s.logger.ErrorContext(ctx, "captured funds not transferred",
		"job_id", req.JobID,
		"milestone_id", req.MilestoneID,
		"account_id", req.AccountID,
		"amount", req.Amount.StringFixed(2),
		"idempotency_key", key,
		"outcome_unknown", temporary,
		"error", cause,
	)

	if !temporary {
		reason := cause.Error()
		if _, _, err := s.transfers.Create(ctx, &model.Transfer{
			IdempotencyKey:  key,
			AccountID:       req.AccountID,
			PaymentIntentID: intentID,
			JobID:           req.JobID,
			SourceID:        req.MilestoneID,
			Amount:          req.Amount,
			Currency:        req.Currency,
			Status:          model.TransferStatusFailed,
			FailureReason:   &reason,
		}); err != nil {
			s.logger.ErrorContext(ctx, "record failed transfer", "idempotency_key", key, "error", err)
		}
	}

	s.metrics.Count(metrics.PartialFailures, 1, map[string]string{"kind": "transfer"})
	s.notifier.NotifyPaymentFailure(ctx, notify.PaymentFailurePayload{
		Kind:        notify.KindTransferFailed,
		JobID:       req.JobID,
		MilestoneID: req.MilestoneID,
		AccountID:   req.AccountID,
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Error:       cause.Error(),
		ErrorClass:  obserrors.Classify(cause),
		Severity:    notify.SeverityCritical,
		OccurredAt:  s.now(),
	})
}

func transferResult(t *model.Transfer, replayed bool) *model.TransferResult {
	out := &model.TransferResult{
		AccountID: t.AccountID,
		Amount:    t.Amount,
		Status:    t.Status,
		Replayed:  replayed,
	}
	if t.TransferID != nil {
		out.TransferID = *t.TransferID
	}
	return out
}

// MilestoneLedger returns the payments and transfers recorded for a milestone.
func (s *PaymentService) MilestoneLedger(ctx context.Context, jobID, milestoneID string) (*model.MilestoneLedger, error) {
	payments, err := s.payments.ListByMilestone(ctx, jobID, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	transfers, err := s.transfers.ListByMilestone(ctx, jobID, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	if payments == nil {
		payments = []*model.Payment{}
	}
	if transfers == nil {
		transfers = []*model.Transfer{}
	}
	return &model.MilestoneLedger{Payments: payments, Transfers: transfers}, nil
}

// SyncPayment pulls the processor's view of a hold and applies it forward-only.
// A hold found settled is reported to the milestone listener.
func (s *PaymentService) SyncPayment(ctx context.Context, paymentIntentID string) (*model.Payment, error) {
	start := time.Now()
	hold, err := s.processor.RetrieveHold(ctx, paymentIntentID)
	if err != nil {
		s.emit("sync", "", metrics.ResultError, start, err)
		return nil, processorFailure(err, "the payment processor could not be reached")
	}
	p, advanced, err := s.payments.Advance(ctx, model.AdvancePaymentParams{
		PaymentIntentID: paymentIntentID,
		Status:          hold.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("sync payment: %w", err)
	}
	if !advanced {
		s.emit("sync", p.PaymentType, metrics.ResultNoop, start, nil)
		return p, nil
	}
	if p.Status.Captured() {
		amount := p.Amount
		if hold.AmountReceived > 0 {
			amount = model.FromMinorUnits(hold.AmountReceived)
		}
		s.notifyCaptured(ctx, p, amount)
	}
	s.emit("sync", p.PaymentType, metrics.ResultSuccess, start, nil)
	s.logger.InfoContext(ctx, "payment re-synced",
		"payment_intent_id", paymentIntentID,
		"status", p.Status,
	)
	return p, nil
}

// claim takes the short-lived lock on key. The returned func releases it.
func (s *PaymentService) claim(ctx context.Context, key string) (func(), error) {
	ok, err := s.idempotency.Claim(ctx, key, s.claimTTL)
	if err != nil {
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if !ok {
		return nil, apperrors.Conflict("the same payment operation is already in progress; retry shortly")
	}
	return func() {
		if err := s.idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.WarnContext(ctx, "release idempotency claim", "key", key, "error", err)
		}
	}, nil
}

func (s *PaymentService) emit(op string, t model.PaymentType, result string, start time.Time, err error) {
	metrics.EmitPayment(s.metrics, metrics.PaymentMetric{
		Operation:   op,
		PaymentType: string(t),
		Result:      result,
		Duration:    time.Since(start),
		Err:         err,
	})
}

// processorFailure turns a processor error into an upstream AppError. message
// is what production callers see; the cause stays attached for dev detail and logs.
func processorFailure(err error, message string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	var perr *model.ProcessorError
	if errors.As(err, &perr) && perr.Temporary {
		message += "; the outcome is unknown, retry with the same request"
	}
	return apperrors.Upstream(err, message)
}
