// Package core defines the ports between the escrow services and their storage and remote collaborators.
package core

import (
	"context"
	"errors"
	"time"

	"github.com/target/escrow-api/internal/domain/model"
)

// ErrVersionConflict is returned by JobRepository.Update when the stored
// version no longer matches the version the caller read.
var ErrVersionConflict = errors.New("job version conflict")

// ErrAlreadyAssigned is returned by ApplicationRepository.Accept when the job
// was no longer open for assignment at commit time.
var ErrAlreadyAssigned = errors.New("job already assigned")

// JobRepository persists Job documents with embedded milestones.
type JobRepository interface {
	Create(ctx context.Context, job *model.Job) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error)
	// Update writes job if its stored version equals job.Version and returns
	// the stored document with the incremented version. ErrVersionConflict otherwise.
	Update(ctx context.Context, job *model.Job) (*model.Job, error)
	// Delete removes the job only while its status is one of allowed.
	Delete(ctx context.Context, id string, allowed []model.JobStatus) (bool, error)
	// ListByMilestoneStatus returns jobs holding at least one milestone in status.
	ListByMilestoneStatus(ctx context.Context, status model.MilestoneStatus, limit int) ([]*model.Job, error)
}

// ApplicationRepository persists applications and performs the atomic accept.
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) (*model.Application, error)
	GetByID(ctx context.Context, id string) (*model.Application, error)
	ListByJob(ctx context.Context, jobID string) ([]*model.Application, error)
	// Accept assigns the job to the applicant, accepts the application and
	// rejects its siblings in one transaction. ErrAlreadyAssigned when the job
	// is no longer published and unassigned.
	Accept(ctx context.Context, params model.AcceptApplicationParams) (*model.Job, *model.Application, error)
	// Reject moves a pending application to rejected.
	Reject(ctx context.Context, id string, notes *string) (*model.Application, error)
	// Withdraw deletes an application unless it was accepted.
	Withdraw(ctx context.Context, id string) (bool, error)
}

// PaymentRepository is the ledger of processor holds.
type PaymentRepository interface {
	// Create inserts a payment. If a row with the same idempotency key
	// exists, that row is returned and created is false.
	Create(ctx context.Context, p *model.Payment) (out *model.Payment, created bool, err error)
	GetByIntentID(ctx context.Context, paymentIntentID string) (*model.Payment, error)
	// FindActive returns the newest non-failed payment of type for the milestone, or nil.
	FindActive(ctx context.Context, jobID, milestoneID string, t model.PaymentType) (*model.Payment, error)
	ListByMilestone(ctx context.Context, jobID, milestoneID string) ([]*model.Payment, error)
	// CountDeadAttempts counts holds of type that ended failed or canceled. Each
	// one retires an idempotency key, so the next attempt number is this plus one.
	CountDeadAttempts(ctx context.Context, jobID, milestoneID string, t model.PaymentType) (int, error)
	// Advance moves a payment forward. advanced is false when the stored
	// status already ranks at or above the requested one.
	Advance(ctx context.Context, params model.AdvancePaymentParams) (p *model.Payment, advanced bool, err error)
	ListStale(ctx context.Context, q model.StalePaymentQuery) ([]*model.Payment, error)
	ListAll(ctx context.Context, limit, offset int) ([]*model.Payment, error)
}

// TransferRepository is the ledger of processor transfers.
type TransferRepository interface {
	// Create inserts a transfer attempt; same-key rows are returned with created=false.
	Create(ctx context.Context, t *model.Transfer) (out *model.Transfer, created bool, err error)
	GetByTransferID(ctx context.Context, transferID string) (*model.Transfer, error)
	ListByMilestone(ctx context.Context, jobID, milestoneID string) ([]*model.Transfer, error)
	// CountDeadAttempts counts transfer attempts that ended failed or canceled.
	CountDeadAttempts(ctx context.Context, jobID, milestoneID string) (int, error)
	Advance(ctx context.Context, params model.AdvanceTransferParams) (t *model.Transfer, advanced bool, err error)
	ListAll(ctx context.Context, limit, offset int) ([]*model.Transfer, error)
}

// ConnectedAccountRepository mirrors payee accounts.
type ConnectedAccountRepository interface {
	Upsert(ctx context.Context, acct *model.ConnectedAccount) (*model.ConnectedAccount, error)
	GetByID(ctx context.Context, accountID string) (*model.ConnectedAccount, error)
	MarkDeauthorized(ctx context.Context, accountID string) (bool, error)
	RecordPayout(ctx context.Context, ev model.PayoutEvent) error
}

// WebhookEventRepository deduplicates processor events by id.
type WebhookEventRepository interface {
	// MarkProcessed returns true the first time eventID is seen.
	MarkProcessed(ctx context.Context, eventID string, eventType model.EventType) (bool, error)
	// Forget removes a mark so a failed event can be redelivered.
	Forget(ctx context.Context, eventID string) error
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// IdempotencyStore provides short-lived claims on idempotency keys so that
// concurrent duplicates of a financial call do not race each other.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// PaymentProcessor wraps the external processor's primitives. No business logic.
type PaymentProcessor interface {
	CreateHold(ctx context.Context, params model.CreateHoldParams) (*model.Hold, error)
	CaptureHold(ctx context.Context, params model.CaptureHoldParams) (*model.Hold, error)
	RetrieveHold(ctx context.Context, paymentIntentID string) (*model.Hold, error)
	CreateTransfer(ctx context.Context, params model.CreateTransferParams) (*model.ProcessorTransfer, error)
	RetrieveAccount(ctx context.Context, accountID string) (*model.ProcessorAccount, error)
}

// EventVerifier authenticates a raw webhook body against its signature header.
type EventVerifier interface {
	Verify(payload []byte, signatureHeader string) (*model.ProcessorEvent, error)
}

// UserDirectory resolves a user's payout account.
type UserDirectory interface {
	PayoutAccountID(ctx context.Context, userID string) (string, error)
}

// PaymentGateway is the orchestrator surface the lifecycle side calls into.
type PaymentGateway interface {
	ProcessMilestonePayment(ctx context.Context, req model.HoldRequest) (*model.HoldResult, error)
	CaptureHold(ctx context.Context, paymentIntentID string) (*model.CaptureResult, error)
	TransferToPayee(ctx context.Context, req model.TransferRequest) (*model.TransferResult, error)
	MilestoneLedger(ctx context.Context, jobID, milestoneID string) (*model.MilestoneLedger, error)
}

// MilestonePaymentListener receives settled-payment notifications from the
// orchestrator and the webhook reconciler. Implementations must be idempotent.
type MilestonePaymentListener interface {
	OnHoldCaptured(ctx context.Context, ev model.HoldCapturedEvent) error
}

// PaymentSyncer re-reads a hold from the processor and applies it to the ledger.
type PaymentSyncer interface {
	SyncPayment(ctx context.Context, paymentIntentID string) (*model.Payment, error)
}

// StuckMilestoneFinder lists escrowed milestones that were never paid out.
type StuckMilestoneFinder interface {
	FindStuckMilestones(ctx context.Context) ([]model.StuckMilestone, error)
}
