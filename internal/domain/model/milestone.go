//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const maxMilestoneDescriptionLen = 2000

// MilestoneStatus tracks the payment side of a milestone.
//
//	pending → deposit_paid → in_progress → completed → escrowed → released
//
// cancelled is reachable from every non-terminal status. in_progress → in_progress
// is the "changes requested" self-loop driven by TalentStatus.
type MilestoneStatus string

const (
	MilestoneStatusPending     MilestoneStatus = "pending"
	MilestoneStatusDepositPaid MilestoneStatus = "deposit_paid"
	MilestoneStatusInProgress  MilestoneStatus = "in_progress"
	MilestoneStatusCompleted   MilestoneStatus = "completed"
	MilestoneStatusEscrowed    MilestoneStatus = "escrowed"
	MilestoneStatusReleased    MilestoneStatus = "released"
	MilestoneStatusCancelled   MilestoneStatus = "cancelled"
)

var milestoneTransitions = map[MilestoneStatus][]MilestoneStatus{
	MilestoneStatusPending:     {MilestoneStatusDepositPaid, MilestoneStatusCancelled},
	MilestoneStatusDepositPaid: {MilestoneStatusInProgress, MilestoneStatusCancelled},
	MilestoneStatusInProgress:  {MilestoneStatusInProgress, MilestoneStatusCompleted, MilestoneStatusCancelled},
	MilestoneStatusCompleted:   {MilestoneStatusEscrowed, MilestoneStatusCancelled},
	MilestoneStatusEscrowed:    {MilestoneStatusReleased, MilestoneStatusCancelled},
}

// Valid reports whether the milestone status is part of the vocabulary.
func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestoneStatusPending, MilestoneStatusDepositPaid, MilestoneStatusInProgress,
		MilestoneStatusCompleted, MilestoneStatusEscrowed, MilestoneStatusReleased, MilestoneStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no transition leaves s.
func (s MilestoneStatus) Terminal() bool {
	return s == MilestoneStatusReleased || s == MilestoneStatusCancelled
}

// Frozen reports whether the milestone's terms are locked. Only release
// bookkeeping may change once funds are escrowed.
func (s MilestoneStatus) Frozen() bool {
	return s == MilestoneStatusEscrowed || s.Terminal()
}

// CanTransitionTo reports whether s → next is an edge of the status machine.
func (s MilestoneStatus) CanTransitionTo(next MilestoneStatus) bool {
	return slices.Contains(milestoneTransitions[s], next)
}

// TalentStatus tracks the work side of a milestone.
type TalentStatus string

const (
	TalentStatusNotStarted TalentStatus = "not_started"
	TalentStatusInProgress TalentStatus = "in_progress"
	TalentStatusCompleted  TalentStatus = "completed"
)

// Valid reports whether the talent status is supported.
func (s TalentStatus) Valid() bool {
	switch s {
	case TalentStatusNotStarted, TalentStatusInProgress, TalentStatusCompleted:
		return true
	default:
		return false
	}
}

// Milestone is a payable unit of assigned work, embedded in its Job.
type Milestone struct {
	ID                string          `json:"id"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	DepositAmount     decimal.Decimal `json:"depositAmount"`
	CapturedAmount    decimal.Decimal `json:"capturedAmount"`
	Status            MilestoneStatus `json:"status"`
	TalentStatus      TalentStatus    `json:"talentStatus"`
	PaymentIntentID   string          `json:"paymentIntentId,omitempty"`
	CapturedIntentIDs []string        `json:"capturedIntentIds,omitempty"`
	TransferID        string          `json:"transferId,omitempty"`
	SubmissionDetails string          `json:"submissionDetails,omitempty"`
	ClientApproved    bool            `json:"clientApproved"`
	ClientFeedback    string          `json:"clientFeedback,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	StartedAt         *time.Time      `json:"startedAt,omitempty"`
	CompletedAt       *time.Time      `json:"completedAt,omitempty"`
	EscrowedAt        *time.Time      `json:"escrowedAt,omitempty"`
	ReleasedAt        *time.Time      `json:"releasedAt,omitempty"`
	CancelledAt       *time.Time      `json:"cancelledAt,omitempty"`
}

// RemainingAmount is the part of Amount not yet captured.
func (m *Milestone) RemainingAmount() decimal.Decimal {
	rest := m.Amount.Sub(m.CapturedAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// HasCaptured reports whether the capture of intentID has already been applied.
func (m *Milestone) HasCaptured(intentID string) bool {
	return slices.Contains(m.CapturedIntentIDs, intentID)
}

// ApplyCapture records a captured hold once. It returns false when the
// capture had already been applied.
func (m *Milestone) ApplyCapture(intentID string, amount decimal.Decimal) bool {
	if m.HasCaptured(intentID) {
		return false
	}
	m.CapturedIntentIDs = append(m.CapturedIntentIDs, intentID)
	m.CapturedAmount = m.CapturedAmount.Add(amount)
	return true
}

// Advance moves the milestone to next, stamping the matching timestamp.
func (m *Milestone) Advance(next MilestoneStatus, now time.Time) error {
	if !m.Status.CanTransitionTo(next) {
		return errors.New("illegal milestone transition " + string(m.Status) + " → " + string(next))
	}
	m.Status = next
	switch next {
	case MilestoneStatusInProgress:
		if m.StartedAt == nil {
			m.StartedAt = &now
		}
	case MilestoneStatusCompleted:
		m.CompletedAt = &now
	case MilestoneStatusEscrowed:
		m.EscrowedAt = &now
	case MilestoneStatusReleased:
		m.ReleasedAt = &now
	case MilestoneStatusCancelled:
		m.CancelledAt = &now
	case MilestoneStatusPending, MilestoneStatusDepositPaid:
	}
	return nil
}

// AddMilestoneRequest represents parameters to add a milestone to a Job.
type AddMilestoneRequest struct {
	Description   string           `json:"description"`
	Amount        decimal.Decimal  `json:"amount"`
	DepositAmount *decimal.Decimal `json:"depositAmount,omitempty"`
}

// Validate validates AddMilestoneRequest.
func (r *AddMilestoneRequest) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return errors.New("description is required")
	}
	if utf8.RuneCountInString(r.Description) > maxMilestoneDescriptionLen {
		return errors.New("description is too long")
	}
	if !validAmount(r.Amount) {
		return errors.New("amount must be a positive amount with at most two decimal places")
	}
	return validateDeposit(r.DepositAmount, r.Amount)
}

// Deposit returns the requested deposit or the default 10% of Amount.
func (r *AddMilestoneRequest) Deposit() decimal.Decimal {
	if r.DepositAmount != nil {
		return RoundMoney(*r.DepositAmount)
	}
	return DefaultDeposit(r.Amount)
}

// UpdateMilestoneRequest represents parameters to update a pending milestone.
type UpdateMilestoneRequest struct {
	Description   *string          `json:"description,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	DepositAmount *decimal.Decimal `json:"depositAmount,omitempty"`
}

// HasUpdates reports whether any field is set.
func (r *UpdateMilestoneRequest) HasUpdates() bool {
	return r.Description != nil || r.Amount != nil || r.DepositAmount != nil
}

// Validate validates UpdateMilestoneRequest.
func (r *UpdateMilestoneRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Description != nil && strings.TrimSpace(*r.Description) == "" {
		return errors.New("description cannot be empty")
	}
	if r.Amount != nil && !validAmount(*r.Amount) {
		return errors.New("amount must be a positive amount with at most two decimal places")
	}
	return nil
}

// Apply writes the update onto m. A new amount without an explicit deposit
// recomputes the default deposit.
func (r *UpdateMilestoneRequest) Apply(m *Milestone) error {
	if r.Description != nil {
		m.Description = strings.TrimSpace(*r.Description)
	}
	if r.Amount != nil {
		m.Amount = RoundMoney(*r.Amount)
		if r.DepositAmount == nil {
			m.DepositAmount = DefaultDeposit(m.Amount)
		}
	}
	if r.DepositAmount != nil {
		if err := validateDeposit(r.DepositAmount, m.Amount); err != nil {
			return err
		}
		m.DepositAmount = RoundMoney(*r.DepositAmount)
	}
	return nil
}

func validateDeposit(deposit *decimal.Decimal, amount decimal.Decimal) error {
	if deposit == nil {
		return nil
	}
	if deposit.IsNegative() {
		return errors.New("depositAmount cannot be negative")
	}
	if !deposit.Equal(RoundMoney(*deposit)) {
		return errors.New("depositAmount must have at most two decimal places")
	}
	if deposit.GreaterThan(amount) {
		return errors.New("depositAmount cannot exceed amount")
	}
	return nil
}

// CompleteWorkRequest carries the talent's submission.
type CompleteWorkRequest struct {
	SubmissionDetails string `json:"submissionDetails,omitempty"`
}

// ReviewRequest carries the client's review of submitted work.
type ReviewRequest struct {
	Approve  *bool  `json:"approve"`
	Feedback string `json:"feedback,omitempty"`
}

// Validate validates ReviewRequest.
func (r *ReviewRequest) Validate() error {
	if r.Approve == nil {
		return errors.New("approve is required")
	}
	return nil
}

// StuckMilestone is an escrowed milestone whose funds were captured but never transferred.
type StuckMilestone struct {
	JobID          string          `json:"jobId"`
	MilestoneID    string          `json:"milestoneId"`
	ClientID       string          `json:"clientId"`
	TalentID       string          `json:"talentId"`
	Amount         decimal.Decimal `json:"amount"`
	CapturedAmount decimal.Decimal `json:"capturedAmount"`
	EscrowedAt     *time.Time      `json:"escrowedAt,omitempty"`
	LastTransfer   *Transfer       `json:"lastTransfer,omitempty"`
}

// MilestoneDetail is a milestone together with its financial ledger.
type MilestoneDetail struct {
	JobID     string           `json:"jobId"`
	Milestone Milestone        `json:"milestone"`
	Ledger    *MilestoneLedger `json:"ledger,omitempty"`
}

// ReviewResult reports the milestone after a review and, on approval, the
// hold created for the remaining amount.
type ReviewResult struct {
	Milestone Milestone   `json:"milestone"`
	Hold      *HoldResult `json:"hold,omitempty"`
}
