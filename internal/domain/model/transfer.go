//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus mirrors a payout from platform balance to a connected account.
type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "pending"
	TransferStatusPaid     TransferStatus = "paid"
	TransferStatusFailed   TransferStatus = "failed"
	TransferStatusCanceled TransferStatus = "canceled"
)

var transferRanks = map[TransferStatus]int{
	TransferStatusPending:  0,
	TransferStatusFailed:   1,
	TransferStatusPaid:     1,
	TransferStatusCanceled: 2,
}

// Valid reports whether the transfer status is supported.
func (s TransferStatus) Valid() bool {
	_, ok := transferRanks[s]
	return ok
}

// Rank returns the position of s in the forward-only status order.
func (s TransferStatus) Rank() int { return transferRanks[s] }

// Transfer is the local mirror of a processor transfer. SourceID is the milestone.
type Transfer struct {
	ID              string          `json:"id"                        db:"id"`
	TransferID      *string         `json:"transferId,omitempty"      db:"transfer_id"`
	IdempotencyKey  string          `json:"idempotencyKey"            db:"idempotency_key"`
	AccountID       string          `json:"accountId"                 db:"account_id"`
	PaymentIntentID *string         `json:"paymentIntentId,omitempty" db:"payment_intent_id"`
	JobID           string          `json:"jobId"                     db:"job_id"`
	SourceID        string          `json:"sourceId"                  db:"milestone_id"`
	Amount          decimal.Decimal `json:"amount"                    db:"amount"`
	Currency        string          `json:"currency"                  db:"currency"`
	Status          TransferStatus  `json:"status"                    db:"status"`
	StatusRank      int             `json:"-"                         db:"status_rank"`
	FailureReason   *string         `json:"failureReason,omitempty"   db:"failure_reason"`
	CreatedAt       time.Time       `json:"createdAt"                 db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt"                 db:"updated_at"`
}

// AdvanceTransferParams moves a transfer forward by processor id.
type AdvanceTransferParams struct {
	TransferID    string
	Status        TransferStatus
	FailureReason *string
}

// TransferRequest asks the orchestrator to pay captured funds out to the payee.
type TransferRequest struct {
	JobID       string
	MilestoneID string
	AccountID   string
	PayeeID     string
	Amount      decimal.Decimal
	Currency    string
	// PaymentIntentID optionally names the hold the funds came from.
	PaymentIntentID string
}

// TransferResult is returned once a transfer exists on the processor.
type TransferResult struct {
	TransferID string          `json:"transferId"`
	AccountID  string          `json:"accountId"`
	Amount     decimal.Decimal `json:"amount"`
	Status     TransferStatus  `json:"status"`
	Replayed   bool            `json:"replayed"`
}
