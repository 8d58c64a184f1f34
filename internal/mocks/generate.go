// Package mocks provides mock implementations for testing the escrow services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().GetByID(gomock.Any(), jobID).Return(job, nil)
package mocks

// JobRepository: Create, GetByID, List, Update, Delete, ListByMilestoneStatus
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/target/escrow-api/internal/core JobRepository

// ApplicationRepository: Create, GetByID, ListByJob, Accept, Reject, Withdraw
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=application_repository_mock.go github.com/target/escrow-api/internal/core ApplicationRepository

// PaymentRepository: Create, GetByIntentID, FindActive, ListByMilestone, CountDeadAttempts, Advance, ListStale, ListAll
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=payment_repository_mock.go github.com/target/escrow-api/internal/core PaymentRepository

// TransferRepository: Create, GetByTransferID, ListByMilestone, CountDeadAttempts, Advance, ListAll
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=transfer_repository_mock.go github.com/target/escrow-api/internal/core TransferRepository

// ConnectedAccountRepository: Upsert, GetByID, MarkDeauthorized, RecordPayout
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=connected_account_repository_mock.go github.com/target/escrow-api/internal/core ConnectedAccountRepository

// WebhookEventRepository: MarkProcessed, Forget, Prune
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=webhook_event_repository_mock.go github.com/target/escrow-api/internal/core WebhookEventRepository

// IdempotencyStore: Claim, Release
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=idempotency_store_mock.go github.com/target/escrow-api/internal/core IdempotencyStore

// PaymentProcessor: CreateHold, CaptureHold, RetrieveHold, CreateTransfer, RetrieveAccount
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=payment_processor_mock.go github.com/target/escrow-api/internal/core PaymentProcessor

// EventVerifier: Verify
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=event_verifier_mock.go github.com/target/escrow-api/internal/core EventVerifier

// UserDirectory: PayoutAccountID
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=user_directory_mock.go github.com/target/escrow-api/internal/core UserDirectory

// PaymentGateway: ProcessMilestonePayment, CaptureHold, TransferToPayee, MilestoneLedger
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=payment_gateway_mock.go github.com/target/escrow-api/internal/core PaymentGateway

// MilestonePaymentListener: OnHoldCaptured
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=milestone_payment_listener_mock.go github.com/target/escrow-api/internal/core MilestonePaymentListener

// TokenVerifier (ports): Verify
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=token_verifier_mock.go github.com/target/escrow-api/internal/ports TokenVerifier

// PaymentSyncer: SyncPayment
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=payment_syncer_mock.go github.com/target/escrow-api/internal/core PaymentSyncer

// StuckMilestoneFinder: FindStuckMilestones
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=stuck_milestone_finder_mock.go github.com/target/escrow-api/internal/core StuckMilestoneFinder
