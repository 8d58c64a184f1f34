//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType names which part of a milestone a hold covers.
type PaymentType string

const (
	PaymentTypeDeposit   PaymentType = "deposit"
	PaymentTypeRemaining PaymentType = "remaining"
	PaymentTypeFull      PaymentType = "full"
)

// Valid reports whether the payment type is supported.
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeDeposit, PaymentTypeRemaining, PaymentTypeFull:
		return true
	default:
		return false
	}
}

// PaymentStatus mirrors the processor's hold status.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRequiresCapture   PaymentStatus = "requires_capture"
	PaymentStatusCanceled          PaymentStatus = "canceled"
	PaymentStatusSucceeded         PaymentStatus = "succeeded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentStatusRefunded          PaymentStatus = "refunded"
)

// paymentRanks orders statuses along the processor's intent graph. A record
// only ever moves to a strictly higher rank. failed, canceled and succeeded
// share a rank: once a hold is counted dead a late requires_capture cannot
// revive it, and neither outcome can overwrite the other.
var paymentRanks = map[PaymentStatus]int{
	PaymentStatusPending:           0,
	PaymentStatusRequiresCapture:   1,
	PaymentStatusFailed:            2,
	PaymentStatusCanceled:          2,
	PaymentStatusSucceeded:         2,
	PaymentStatusPartiallyRefunded: 3,
	PaymentStatusRefunded:          4,
}

// Valid reports whether the payment status is supported.
func (s PaymentStatus) Valid() bool {
	_, ok := paymentRanks[s]
	return ok
}

// Rank returns the position of s in the forward-only status order.
func (s PaymentStatus) Rank() int {
	return paymentRanks[s]
}

// Supersedes reports whether moving from prev to s is a forward move.
func (s PaymentStatus) Supersedes(prev PaymentStatus) bool {
	return s.Rank() > prev.Rank()
}

// Captured reports whether funds for this hold have settled into platform balance.
func (s PaymentStatus) Captured() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusPartiallyRefunded || s == PaymentStatusRefunded
}

// Payment is the local mirror of a processor-side hold.
type Payment struct {
	ID              string          `json:"id"                      db:"id"`
	PaymentIntentID string          `json:"paymentIntentId"         db:"payment_intent_id"`
	IdempotencyKey  string          `json:"idempotencyKey"          db:"idempotency_key"`
	PaymentType     PaymentType     `json:"paymentType"             db:"payment_type"`
	JobID           string          `json:"jobId"                   db:"job_id"`
	MilestoneID     string          `json:"milestoneId"             db:"milestone_id"`
	PayerID         string          `json:"payerId"                 db:"payer_id"`
	PayeeID         string          `json:"payeeId"                 db:"payee_id"`
	Amount          decimal.Decimal `json:"amount"                  db:"amount"`
	Currency        string          `json:"currency"                db:"currency"`
	Status          PaymentStatus   `json:"status"                  db:"status"`
	StatusRank      int             `json:"-"                       db:"status_rank"`
	ClientSecret    *string         `json:"-"                       db:"client_secret"`
	FailureReason   *string         `json:"failureReason,omitempty" db:"failure_reason"`
	CreatedAt       time.Time       `json:"createdAt"               db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt"               db:"updated_at"`
}

// AdvancePaymentParams moves a payment forward by processor id.
type AdvancePaymentParams struct {
	PaymentIntentID string
	Status          PaymentStatus
	FailureReason   *string
}

// StalePaymentQuery selects payments that have not settled.
type StalePaymentQuery struct {
	Statuses  []PaymentStatus
	OlderThan time.Time
	Limit     int
}

// HoldRequest asks the orchestrator to authorise funds for a milestone.
type HoldRequest struct {
	JobID       string          `json:"jobId"`
	MilestoneID string          `json:"milestoneId"`
	PaymentType PaymentType     `json:"paymentType"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	PayerID     string          `json:"payerId"`
	PayeeID     string          `json:"payeeId"`
}

// Validate validates HoldRequest.
func (r *HoldRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.JobID) == "" {
		missing = append(missing, "jobId")
	}
	if strings.TrimSpace(r.MilestoneID) == "" {
		missing = append(missing, "milestoneId")
	}
	if strings.TrimSpace(r.PayerID) == "" {
		missing = append(missing, "payerId")
	}
	if strings.TrimSpace(r.PayeeID) == "" {
		missing = append(missing, "payeeId")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if !r.PaymentType.Valid() {
		return errors.New("paymentType must be deposit, remaining or full")
	}
	if !validAmount(r.Amount) {
		return errors.New("amount must be a positive amount with at most two decimal places")
	}
	return nil
}

// HoldResult is returned to the payer so they can confirm the hold with the processor.
type HoldResult struct {
	PaymentIntentID string          `json:"paymentIntentId"`
	ClientSecret    string          `json:"clientSecret,omitempty"`
	Status          PaymentStatus   `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentType     PaymentType     `json:"paymentType"`
	Replayed        bool            `json:"replayed"`
}

// CaptureResult reports the hold state after a capture.
type CaptureResult struct {
	PaymentIntentID string          `json:"paymentIntentId"`
	Status          PaymentStatus   `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	JobID           string          `json:"jobId"`
	MilestoneID     string          `json:"milestoneId"`
}

// CapturePaymentRequest is the body of a capture call.
type CapturePaymentRequest struct {
	JobID           string `json:"jobId"`
	MilestoneID     string `json:"milestoneId"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// Validate validates CapturePaymentRequest.
func (r *CapturePaymentRequest) Validate() error {
	if strings.TrimSpace(r.JobID) == "" || strings.TrimSpace(r.MilestoneID) == "" {
		return errors.New("jobId and milestoneId are required")
	}
	if strings.TrimSpace(r.PaymentIntentID) == "" {
		return errors.New("paymentIntentId is required")
	}
	return nil
}

// CreateHoldIntentRequest is the body of a hold creation call. Amounts and
// parties come from the milestone, not the caller.
type CreateHoldIntentRequest struct {
	JobID       string      `json:"jobId"`
	MilestoneID string      `json:"milestoneId"`
	PaymentType PaymentType `json:"paymentType"`
	Currency    string      `json:"currency,omitempty"`
}

// Validate validates CreateHoldIntentRequest.
func (r *CreateHoldIntentRequest) Validate() error {
	if strings.TrimSpace(r.JobID) == "" || strings.TrimSpace(r.MilestoneID) == "" {
		return errors.New("jobId and milestoneId are required")
	}
	if !r.PaymentType.Valid() {
		return errors.New("paymentType must be deposit, remaining or full")
	}
	return nil
}

// HoldCapturedEvent tells the lifecycle side that a hold settled.
type HoldCapturedEvent struct {
	JobID           string
	MilestoneID     string
	PaymentType     PaymentType
	PaymentIntentID string
	Amount          decimal.Decimal
}

// MilestoneLedger is the financial view of one milestone.
type MilestoneLedger struct {
	Payments  []*Payment  `json:"payments"`
	Transfers []*Transfer `json:"transfers"`
}
