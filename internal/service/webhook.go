package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
	"github.com/target/escrow-api/internal/observability/metrics"
	"github.com/target/escrow-api/internal/observability/notify"
	"github.com/target/escrow-api/internal/observability/statsd"
	"github.com/target/escrow-api/internal/service/failurenotifier"
)

// WebhookServiceOptions groups dependencies for WebhookService.
type WebhookServiceOptions struct {
	Verifier  core.EventVerifier              // Required: signature verification
	Events    core.WebhookEventRepository     // Required: event-id dedupe
	Payments  core.PaymentRepository          // Required: hold ledger
	Transfers core.TransferRepository         // Required: transfer ledger
	Accounts  core.ConnectedAccountRepository // Required: connected account mirror
	Listener  core.MilestonePaymentListener   // Optional: milestone side
	Notifier  *failurenotifier.Service        // Optional: alerts for reversals and payout failures
	Metrics   statsd.Sink                     // Optional: metrics sink
	Logger    *slog.Logger                    // Optional: structured logger
	Now       func() time.Time                // Optional: clock for tests
}

// WebhookService reconciles the ledger with processor events delivered out of
// band. Delivery is at-least-once and unordered, so every handler keys off the
// processor's object id and only ever moves records forward.
type WebhookService struct {
	verifier  core.EventVerifier
	events    core.WebhookEventRepository
	payments  core.PaymentRepository
	transfers core.TransferRepository
	accounts  core.ConnectedAccountRepository
	listener  core.MilestonePaymentListener
	notifier  *failurenotifier.Service
	metrics   statsd.Sink
	logger    *slog.Logger
	schemas   eventSchemas
	handlers  map[model.EventType]eventHandler
	now       func() time.Time
}

type eventHandler func(ctx context.Context, ev *model.ProcessorEvent) error

// NewWebhookService constructs a WebhookService.
func NewWebhookService(opts WebhookServiceOptions) (*WebhookService, error) {
	switch {
	case opts.Verifier == nil:
		return nil, errors.New("EventVerifier is required")
	case opts.Events == nil:
		return nil, errors.New("WebhookEventRepository is required")
	case opts.Payments == nil:
		return nil, errors.New("PaymentRepository is required")
	case opts.Transfers == nil:
		return nil, errors.New("TransferRepository is required")
	case opts.Accounts == nil:
		return nil, errors.New("ConnectedAccountRepository is required")
	}
	schemas, err := compileEventSchemas()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &WebhookService{
		verifier:  opts.Verifier,
		events:    opts.Events,
		payments:  opts.Payments,
		transfers: opts.Transfers,
		accounts:  opts.Accounts,
		listener:  opts.Listener,
		notifier:  opts.Notifier,
		metrics:   statsd.OrNop(opts.Metrics),
		logger:    logger.With("component", "webhook_service"),
		schemas:   schemas,
		now:       now,
	}
	s.handlers = map[model.EventType]eventHandler{
		model.EventHoldCapturable:      s.onHoldStatus(model.PaymentStatusRequiresCapture),
		model.EventHoldSucceeded:       s.onHoldSucceeded,
		model.EventHoldFailed:          s.onHoldStatus(model.PaymentStatusFailed),
		model.EventHoldCanceled:        s.onHoldStatus(model.PaymentStatusCanceled),
		model.EventChargeRefunded:      s.onChargeRefunded,
		model.EventTransferCreated:     s.onTransfer,
		model.EventTransferUpdated:     s.onTransfer,
		model.EventTransferReversed:    s.onTransfer,
		model.EventPayoutPaid:          s.onPayout,
		model.EventPayoutFailed:        s.onPayout,
		model.EventAccountUpdated:      s.onAccountUpdated,
		model.EventAccountDeauthorized: s.onAccountDeauthorized,
	}
	return s, nil
}

// MustNewWebhookService constructs a WebhookService and panics on error.
func MustNewWebhookService(opts WebhookServiceOptions) *WebhookService {
	svc, err := NewWebhookService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create WebhookService: %v", err))
	}
	return svc
}

// SetListener registers the milestone side after construction.
func (s *WebhookService) SetListener(l core.MilestonePaymentListener) {
	s.listener = l
}

// HandleEvent verifies and applies one delivery. A verification failure is a
// webhook_verification error and nothing is processed. Unknown event types,
// duplicates, malformed objects and events for objects the ledger never saw
// are acknowledged. Any other error is returned so the processor redelivers.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	ev, err := s.verifier.Verify(payload, signatureHeader)
	if err != nil {
		s.logger.WarnContext(ctx, "webhook signature rejected", "error", err)
		metrics.EmitWebhook(s.metrics, "unverified", metrics.ResultError)
		if apperrors.IsWebhookVerification(err) {
			return err
		}
		return apperrors.WebhookVerification(err)
	}

	log := s.logger.With("event_id", ev.ID, "event_type", ev.Type)
	handler, ok := s.handlers[ev.Type]
	if !ok {
		log.InfoContext(ctx, "ignoring unhandled webhook event type")
		metrics.EmitWebhook(s.metrics, string(ev.Type), metrics.ResultNoop)
		return nil
	}

	first, err := s.events.MarkProcessed(ctx, ev.ID, ev.Type)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	if !first {
		log.DebugContext(ctx, "duplicate webhook event")
		metrics.EmitWebhook(s.metrics, string(ev.Type), metrics.ResultReplay)
		return nil
	}

	if err := s.schemas.validate(ev.Type, ev.Object); err != nil {
		log.WarnContext(ctx, "acknowledging malformed webhook event", "error", err)
		metrics.EmitWebhook(s.metrics, string(ev.Type), metrics.ResultNoop)
		return nil
	}

	if err := handler(ctx, ev); err != nil {
		if ferr := s.events.Forget(context.WithoutCancel(ctx), ev.ID); ferr != nil {
			log.ErrorContext(ctx, "forget failed webhook event", "error", ferr)
		}
		log.ErrorContext(ctx, "webhook event handling failed", "error", err)
		metrics.EmitWebhook(s.metrics, string(ev.Type), metrics.ResultError)
		return fmt.Errorf("handle %s: %w", ev.Type, err)
	}

	metrics.EmitWebhook(s.metrics, string(ev.Type), metrics.ResultSuccess)
	return nil
}

type paymentIntentObject struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	AmountReceived   int64  `json:"amount_received"`
	LastPaymentError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type chargeObject struct {
	ID             string `json:"id"`
	PaymentIntent  string `json:"payment_intent"`
	Amount         int64  `json:"amount"`
	AmountRefunded int64  `json:"amount_refunded"`
	Refunded       bool   `json:"refunded"`
}

type transferObject struct {
	ID             string          `json:"id"`
	Amount         int64           `json:"amount"`
	AmountReversed int64           `json:"amount_reversed"`
	Currency       string          `json:"currency"`
	Destination    json.RawMessage `json:"destination"`
	Reversed       bool            `json:"reversed"`
}

type payoutObject struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	ArrivalDate    int64  `json:"arrival_date"`
	FailureMessage string `json:"failure_message"`
}

type accountObject struct {
	ID             string            `json:"id"`
	ChargesEnabled bool              `json:"charges_enabled"`
	PayoutsEnabled bool              `json:"payouts_enabled"`
	Capabilities   map[string]string `json:"capabilities"`
}

func decodeObject[T any](ev *model.ProcessorEvent) (*T, error) {
	var out T
	if err := json.Unmarshal(ev.Object, &out); err != nil {
		return nil, fmt.Errorf("decode %s object: %w", ev.Type, err)
	}
	return &out, nil
}

// advancePayment applies status to the payment with intentID. A payment the
// ledger has never recorded is logged and skipped.
func (s *WebhookService) advancePayment(
	ctx context.Context,
	ev *model.ProcessorEvent,
	intentID string,
	status model.PaymentStatus,
	reason *string,
) (*model.Payment, error) {
	p, advanced, err := s.payments.Advance(ctx, model.AdvancePaymentParams{
		PaymentIntentID: intentID,
		Status:          status,
		FailureReason:   reason,
	})
	if apperrors.IsNotFound(err) {
		s.logger.InfoContext(ctx, "webhook for unknown payment",
			"event_id", ev.ID,
			"payment_intent_id", intentID,
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if advanced {
		s.logger.InfoContext(ctx, "payment advanced from webhook",
			"event_id", ev.ID,
			"payment_intent_id", intentID,
			"status", p.Status,
		)
	}
	return p, nil
}

func (s *WebhookService) onHoldStatus(status model.PaymentStatus) eventHandler {
	return func(ctx context.Context, ev *model.ProcessorEvent) error {
		pi, err := decodeObject[paymentIntentObject](ev)
		if err != nil {
			return err
		}
		var reason *string
		if status == model.PaymentStatusFailed && pi.LastPaymentError != nil {
			msg := pi.LastPaymentError.Message
			if pi.LastPaymentError.Code != "" {
				msg = pi.LastPaymentError.Code + ": " + msg
			}
			reason = &msg
		}
		_, err = s.advancePayment(ctx, ev, pi.ID, status, reason)
		return err
	}
}

// onHoldSucceeded records the capture and tells the milestone side. The
// listener runs whenever the stored status is settled, not only on the first
// advance, so a redelivery after a listener failure finishes the job.
func (s *WebhookService) onHoldSucceeded(ctx context.Context, ev *model.ProcessorEvent) error {
	pi, err := decodeObject[paymentIntentObject](ev)
	if err != nil {
		return err
	}
	p, err := s.advancePayment(ctx, ev, pi.ID, model.PaymentStatusSucceeded, nil)
	if err != nil || p == nil {
		return err
	}
	if s.listener == nil || !p.Status.Captured() {
		return nil
	}
	amount := p.Amount
	if pi.AmountReceived > 0 {
		amount = model.FromMinorUnits(pi.AmountReceived)
	}
	return s.listener.OnHoldCaptured(ctx, model.HoldCapturedEvent{
		JobID:           p.JobID,
		MilestoneID:     p.MilestoneID,
		PaymentType:     p.PaymentType,
		PaymentIntentID: p.PaymentIntentID,
		Amount:          amount,
	})
}

func (s *WebhookService) onChargeRefunded(ctx context.Context, ev *model.ProcessorEvent) error {
	ch, err := decodeObject[chargeObject](ev)
	if err != nil {
		return err
	}
	status := model.PaymentStatusPartiallyRefunded
	if ch.Refunded || (ch.Amount > 0 && ch.AmountRefunded >= ch.Amount) {
		status = model.PaymentStatusRefunded
	}
	p, err := s.advancePayment(ctx, ev, ch.PaymentIntent, status, nil)
	if err != nil || p == nil {
		return err
	}
	s.logger.WarnContext(ctx, "escrowed charge refunded",
		"job_id", p.JobID,
		"milestone_id", p.MilestoneID,
		"payment_intent_id", p.PaymentIntentID,
		"amount_refunded", model.FromMinorUnits(ch.AmountRefunded).StringFixed(2),
	)
	return nil
}

// onTransfer applies transfer lifecycle events. Creation confirms a transfer
// the orchestrator already recorded; a reversal moves it to canceled and alerts.
func (s *WebhookService) onTransfer(ctx context.Context, ev *model.ProcessorEvent) error {
	tr, err := decodeObject[transferObject](ev)
	if err != nil {
		return err
	}
	status := model.TransferStatusPaid
	if ev.Type == model.EventTransferReversed || tr.Reversed {
		status = model.TransferStatusCanceled
	}

	t, advanced, err := s.transfers.Advance(ctx, model.AdvanceTransferParams{TransferID: tr.ID, Status: status})
	if apperrors.IsNotFound(err) {
		s.logger.InfoContext(ctx, "webhook for unknown transfer", "event_id", ev.ID, "transfer_id", tr.ID)
		return nil
	}
	if err != nil {
		return err
	}
	if !advanced || t.Status != model.TransferStatusCanceled {
		return nil
	}

	s.logger.ErrorContext(ctx, "transfer reversed",
		"job_id", t.JobID,
		"milestone_id", t.SourceID,
		"transfer_id", tr.ID,
		"amount_reversed", model.FromMinorUnits(tr.AmountReversed).StringFixed(2),
	)
	s.notifier.NotifyPaymentFailure(ctx, notify.PaymentFailurePayload{
		Kind:        notify.KindTransferReverse,
		JobID:       t.JobID,
		MilestoneID: t.SourceID,
		TransferID:  tr.ID,
		AccountID:   t.AccountID,
		Amount:      model.FromMinorUnits(tr.AmountReversed).StringFixed(2),
		Currency:    t.Currency,
		Severity:    notify.SeverityWarning,
		OccurredAt:  s.now(),
		Metadata:    map[string]string{"event_id": ev.ID, "livemode": fmt.Sprint(ev.Livemode)},
	})
	return nil
}

func (s *WebhookService) onPayout(ctx context.Context, ev *model.ProcessorEvent) error {
	po, err := decodeObject[payoutObject](ev)
	if err != nil {
		return err
	}
	if ev.Account == "" {
		// Platform payouts are not tracked.
		return nil
	}
	at := ev.Created
	if po.ArrivalDate > 0 {
		at = time.Unix(po.ArrivalDate, 0).UTC()
	}
	if err := s.accounts.RecordPayout(ctx, model.PayoutEvent{
		AccountID: ev.Account,
		PayoutID:  po.ID,
		Status:    po.Status,
		At:        at,
	}); err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.InfoContext(ctx, "payout for unknown account", "event_id", ev.ID, "account_id", ev.Account)
			return nil
		}
		return err
	}

	if ev.Type == model.EventPayoutFailed {
		s.notifier.NotifyPaymentFailure(ctx, notify.PaymentFailurePayload{
			Kind:       notify.KindPayoutFailed,
			AccountID:  ev.Account,
			Error:      po.FailureMessage,
			Severity:   notify.SeverityWarning,
			OccurredAt: s.now(),
			Metadata:   map[string]string{"payout_id": po.ID, "livemode": fmt.Sprint(ev.Livemode)},
		})
	}
	return nil
}

func (s *WebhookService) onAccountUpdated(ctx context.Context, ev *model.ProcessorEvent) error {
	acct, err := decodeObject[accountObject](ev)
	if err != nil {
		return err
	}
	_, err = s.accounts.Upsert(ctx, &model.ConnectedAccount{
		AccountID:       acct.ID,
		ChargesEnabled:  acct.ChargesEnabled,
		PayoutsEnabled:  acct.PayoutsEnabled,
		TransfersActive: acct.Capabilities["transfers"] == "active",
	})
	return err
}

func (s *WebhookService) onAccountDeauthorized(ctx context.Context, ev *model.ProcessorEvent) error {
	if ev.Account == "" {
		return nil
	}
	changed, err := s.accounts.MarkDeauthorized(ctx, ev.Account)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	s.logger.WarnContext(ctx, "connected account deauthorized", "account_id", ev.Account)
	s.notifier.NotifyPaymentFailure(ctx, notify.PaymentFailurePayload{
		Kind:       notify.KindAccountRevoked,
		AccountID:  ev.Account,
		Severity:   notify.SeverityWarning,
		OccurredAt: s.now(),
		Metadata:   map[string]string{"livemode": fmt.Sprint(ev.Livemode)},
	})
	return nil
}
