// Package stripe adapts the Stripe API to the escrow processor ports. It
// holds no business logic: holds, captures, transfers and account reads are
// passed through with their idempotency keys and mapped to domain types.
package stripe

import (
	"context"
	"errors"
	"net/http"
	"time"

	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/domain/model"
)

// Config configures the processor client.
type Config struct {
	SecretKey string
	// Timeout bounds every call. Calls are never retried by the client.
	Timeout time.Duration
	// BaseURL overrides the API endpoint (tests, stripe-mock).
	BaseURL string
}

// Processor implements core.PaymentProcessor on the Stripe API.
type Processor struct {
	api     *client.API
	timeout time.Duration
}

var _ core.PaymentProcessor = (*Processor)(nil)

// NewProcessor builds a Stripe-backed processor.
func NewProcessor(cfg Config) (*Processor, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	backendCfg := &stripego.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripego.Int64(0),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripego.String(cfg.BaseURL)
	}
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, backendCfg)

	api := &client.API{}
	api.Init(cfg.SecretKey, &stripego.Backends{API: backend, Connect: backend, Uploads: backend})
	return &Processor{api: api, timeout: timeout}, nil
}

func (p *Processor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

// CreateHold creates a manual-capture payment intent.
func (p *Processor) CreateHold(ctx context.Context, in model.CreateHoldParams) (*model.Hold, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	params := &stripego.PaymentIntentParams{
		Amount:        stripego.Int64(in.Amount),
		Currency:      stripego.String(in.Currency),
		CaptureMethod: stripego.String(string(stripego.PaymentIntentCaptureMethodManual)),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	if in.Description != "" {
		params.Description = stripego.String(in.Description)
	}
	if in.TransferGroup != "" {
		params.TransferGroup = stripego.String(in.TransferGroup)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	params.SetIdempotencyKey(in.IdempotencyKey)

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, classify("create hold", err)
	}
	return toHold(pi), nil
}

// CaptureHold settles an authorised payment intent.
func (p *Processor) CaptureHold(ctx context.Context, in model.CaptureHoldParams) (*model.Hold, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	params := &stripego.PaymentIntentCaptureParams{}
	params.Context = ctx
	params.SetIdempotencyKey(in.IdempotencyKey)

	pi, err := p.api.PaymentIntents.Capture(in.PaymentIntentID, params)
	if err != nil {
		return nil, classify("capture hold", err)
	}
	return toHold(pi), nil
}

// RetrieveHold reads a payment intent.
func (p *Processor) RetrieveHold(ctx context.Context, paymentIntentID string) (*model.Hold, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	params := &stripego.PaymentIntentParams{}
	params.Context = ctx
	pi, err := p.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return nil, classify("retrieve hold", err)
	}
	return toHold(pi), nil
}

// CreateTransfer moves platform balance to a connected account.
func (p *Processor) CreateTransfer(
	ctx context.Context,
	in model.CreateTransferParams,
) (*model.ProcessorTransfer, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	params := &stripego.TransferParams{
		Amount:      stripego.Int64(in.Amount),
		Currency:    stripego.String(in.Currency),
		Destination: stripego.String(in.Destination),
	}
	if in.TransferGroup != "" {
		params.TransferGroup = stripego.String(in.TransferGroup)
	}
	if in.SourceTransaction != "" {
		params.SourceTransaction = stripego.String(in.SourceTransaction)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	params.SetIdempotencyKey(in.IdempotencyKey)

	tr, err := p.api.Transfers.New(params)
	if err != nil {
		return nil, classify("create transfer", err)
	}
	return toTransfer(tr), nil
}

// RetrieveAccount reads a connected account's capabilities.
func (p *Processor) RetrieveAccount(ctx context.Context, accountID string) (*model.ProcessorAccount, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	params := &stripego.AccountParams{}
	params.Context = ctx
	acct, err := p.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, classify("retrieve account", err)
	}
	return toAccount(acct), nil
}

func toHold(pi *stripego.PaymentIntent) *model.Hold {
	return &model.Hold{
		ID:               pi.ID,
		ClientSecret:     pi.ClientSecret,
		Status:           HoldStatus(pi.Status),
		Amount:           pi.Amount,
		AmountCapturable: pi.AmountCapturable,
		AmountReceived:   pi.AmountReceived,
		Currency:         string(pi.Currency),
		Metadata:         pi.Metadata,
	}
}

func toTransfer(tr *stripego.Transfer) *model.ProcessorTransfer {
	out := &model.ProcessorTransfer{
		ID:       tr.ID,
		Amount:   tr.Amount,
		Currency: string(tr.Currency),
		Reversed: tr.Reversed,
		Metadata: tr.Metadata,
	}
	if tr.Destination != nil {
		out.Destination = tr.Destination.ID
	}
	return out
}

func toAccount(acct *stripego.Account) *model.ProcessorAccount {
	out := &model.ProcessorAccount{
		ID:             acct.ID,
		ChargesEnabled: acct.ChargesEnabled,
		PayoutsEnabled: acct.PayoutsEnabled,
	}
	if acct.Capabilities != nil {
		out.TransfersActive = acct.Capabilities.Transfers == stripego.AccountCapabilityStatusActive
	}
	return out
}

// HoldStatus maps a payment intent status onto the ledger vocabulary.
// Statuses that still need customer action are pending.
func HoldStatus(s stripego.PaymentIntentStatus) model.PaymentStatus {
	switch s {
	case stripego.PaymentIntentStatusRequiresCapture:
		return model.PaymentStatusRequiresCapture
	case stripego.PaymentIntentStatusSucceeded:
		return model.PaymentStatusSucceeded
	case stripego.PaymentIntentStatusCanceled:
		return model.PaymentStatusCanceled
	default:
		return model.PaymentStatusPending
	}
}

// classify converts a Stripe error into a model.ProcessorError. An error
// is Temporary when the request may or may not have taken effect.
func classify(op string, err error) error {
	out := &model.ProcessorError{Op: op, Message: err.Error(), Err: err}

	var se *stripego.Error
	if !errors.As(err, &se) {
		// No response body: the request may have reached the processor.
		out.Temporary = true
		return out
	}
	out.Code = string(se.Code)
	out.HTTPStatus = se.HTTPStatusCode
	if se.Msg != "" {
		out.Message = se.Msg
	}
	out.Temporary = se.Type == stripego.ErrorTypeAPI ||
		se.HTTPStatusCode == http.StatusTooManyRequests ||
		se.HTTPStatusCode >= http.StatusInternalServerError
	return out
}
