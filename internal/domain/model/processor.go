//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"encoding/json"
	"time"
)

// Hold is the processor's view of an authorisation. Amounts are minor units.
type Hold struct {
	ID               string
	ClientSecret     string
	Status           PaymentStatus
	Amount           int64
	AmountCapturable int64
	AmountReceived   int64
	Currency         string
	Metadata         map[string]string
}

// CreateHoldParams are the inputs to a manual-capture hold.
type CreateHoldParams struct {
	Amount         int64
	Currency       string
	IdempotencyKey string
	Description    string
	TransferGroup  string
	Metadata       map[string]string
}

// CaptureHoldParams identifies a hold to settle.
type CaptureHoldParams struct {
	PaymentIntentID string
	IdempotencyKey  string
}

// ProcessorTransfer is the processor's view of a transfer. Amount is minor units.
type ProcessorTransfer struct {
	ID          string
	Destination string
	Amount      int64
	Currency    string
	Reversed    bool
	Metadata    map[string]string
}

// CreateTransferParams are the inputs to a transfer.
type CreateTransferParams struct {
	Amount            int64
	Currency          string
	Destination       string
	TransferGroup     string
	SourceTransaction string
	IdempotencyKey    string
	Metadata          map[string]string
}

// ProcessorAccount is the processor's view of a connected account.
type ProcessorAccount struct {
	ID              string
	ChargesEnabled  bool
	PayoutsEnabled  bool
	TransfersActive bool
}

// EventType is a normalised processor event type.
type EventType string

const (
	EventHoldCapturable      EventType = "payment_intent.amount_capturable_updated"
	EventHoldSucceeded       EventType = "payment_intent.succeeded"
	EventHoldFailed          EventType = "payment_intent.payment_failed"
	EventHoldCanceled        EventType = "payment_intent.canceled"
	EventChargeRefunded      EventType = "charge.refunded"
	EventTransferCreated     EventType = "transfer.created"
	EventTransferUpdated     EventType = "transfer.updated"
	EventTransferReversed    EventType = "transfer.reversed"
	EventPayoutPaid          EventType = "payout.paid"
	EventPayoutFailed        EventType = "payout.failed"
	EventAccountUpdated      EventType = "account.updated"
	EventAccountDeauthorized EventType = "account.application.deauthorized"
)

// ProcessorEvent is a verified webhook event. Object holds the raw data.object.
type ProcessorEvent struct {
	ID       string
	Type     EventType
	Account  string
	Created  time.Time
	Object   json.RawMessage
	Livemode bool
}

// ProcessorError is a failed call to the payment processor. Temporary is set
// when the outcome is unknown (network failure, timeout, 5xx, rate limit); the
// same idempotency key must then be reused on retry.
type ProcessorError struct {
	Op         string
	Code       string
	Message    string
	HTTPStatus int
	Temporary  bool
	Err        error
}

func (e *ProcessorError) Error() string {
	msg := e.Op + ": " + e.Message
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	return msg
}

func (e *ProcessorError) Unwrap() error { return e.Err }
