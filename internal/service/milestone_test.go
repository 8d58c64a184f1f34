package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
	"github.com/target/escrow-api/internal/mocks"
	"github.com/target/escrow-api/internal/testutil"
)

type milestoneFixture struct {
	repo      *memJobRepo
	gateway   *mocks.MockPaymentGateway
	directory *mocks.MockUserDirectory
	svc       *MilestoneService
	job       *model.Job
}

func newMilestoneFixture(t *testing.T, milestones ...model.Milestone) *milestoneFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	b := testutil.NewJob("client-1").AssignedTo("talent-1")
	for _, m := range milestones {
		b = b.WithMilestone(m)
	}
	job := b.Build()
	f := &milestoneFixture{
		repo:      newMemJobRepo(job),
		gateway:   mocks.NewMockPaymentGateway(ctrl),
		directory: mocks.NewMockUserDirectory(ctrl),
		job:       job,
	}
	f.svc = MustNewMilestoneService(MilestoneServiceOptions{
		Jobs:      f.repo,
		Payments:  f.gateway,
		Directory: f.directory,
		Now:       testutil.FixedTimeFunc(testutil.TestTime()),
	})
	return f
}

func (f *milestoneFixture) stored(t *testing.T, milestoneID string) model.Milestone {
	t.Helper()
	job := f.repo.get(f.job.ID)
	require.NotNil(t, job)
	m := job.Milestone(milestoneID)
	require.NotNil(t, m)
	return *m
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMilestoneService_AddMilestone(t *testing.T) {
	t.Parallel()

	t.Run("owner adds pending milestone with default deposit", func(t *testing.T) {
		t.Parallel()
		f := newMilestoneFixture(t)

		m, err := f.svc.AddMilestone(context.Background(), clientID("client-1"), f.job.ID, &model.AddMilestoneRequest{
			Description: "  Design mockups ",
			Amount:      money("1000"),
		})
		require.NoError(t, err)
		assert.Equal(t, model.MilestoneStatusPending, m.Status)
		assert.Equal(t, model.TalentStatusNotStarted, m.TalentStatus)
		assert.Equal(t, "Design mockups", m.Description)
		assert.True(t, m.DepositAmount.Equal(money("100")))
		assert.Len(t, f.repo.get(f.job.ID).Milestones, 1)
	})

	t.Run("other client is forbidden", func(t *testing.T) {
		t.Parallel()
		f := newMilestoneFixture(t)
		_, err := f.svc.AddMilestone(context.Background(), clientID("client-2"), f.job.ID, &model.AddMilestoneRequest{
			Description: "x",
			Amount:      money("10"),
		})
		assert.True(t, apperrors.IsForbidden(err))
	})

	t.Run("job must be assigned", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		t.Cleanup(ctrl.Finish)
		job := testutil.NewJob("client-1").Build()
		svc := MustNewMilestoneService(MilestoneServiceOptions{
			Jobs:      newMemJobRepo(job),
			Payments:  mocks.NewMockPaymentGateway(ctrl),
			Directory: mocks.NewMockUserDirectory(ctrl),
		})
		_, err := svc.AddMilestone(context.Background(), clientID("client-1"), job.ID, &model.AddMilestoneRequest{
			Description: "x",
			Amount:      money("10"),
		})
		assert.True(t, apperrors.IsStateGuard(err))
	})

	t.Run("deposit above amount is rejected", func(t *testing.T) {
		t.Parallel()
		f := newMilestoneFixture(t)
		dep := money("20")
		_, err := f.svc.AddMilestone(context.Background(), clientID("client-1"), f.job.ID, &model.AddMilestoneRequest{
			Description:   "x",
			Amount:        money("10"),
			DepositAmount: &dep,
		})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestMilestoneService_UpdateMilestone(t *testing.T) {
	t.Parallel()
	pending := testutil.NewMilestone("1000.00", model.MilestoneStatusPending)
	paid := testutil.NewMilestone("500.00", model.MilestoneStatusDepositPaid)
	f := newMilestoneFixture(t, pending, paid)
	amount := money("2000")

	m, err := f.svc.UpdateMilestone(context.Background(), clientID("client-1"), f.job.ID, pending.ID,
		&model.UpdateMilestoneRequest{Amount: &amount})
	require.NoError(t, err)
	assert.True(t, m.Amount.Equal(amount))
	assert.True(t, m.DepositAmount.Equal(money("200")))

	_, err = f.svc.UpdateMilestone(context.Background(), clientID("client-1"), f.job.ID, paid.ID,
		&model.UpdateMilestoneRequest{Amount: &amount})
	assert.True(t, apperrors.IsStateGuard(err))
}

func TestMilestoneService_CreateHold(t *testing.T) {
	t.Parallel()

	t.Run("deposit uses milestone deposit amount", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("1000.00", model.MilestoneStatusPending)
		f := newMilestoneFixture(t, m)
		f.gateway.EXPECT().MilestoneLedger(gomock.Any(), f.job.ID, m.ID).Return(&model.MilestoneLedger{}, nil)
		f.gateway.EXPECT().ProcessMilestonePayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req model.HoldRequest) (*model.HoldResult, error) {
				assert.True(t, req.Amount.Equal(money("100")))
				assert.Equal(t, "client-1", req.PayerID)
				assert.Equal(t, "talent-1", req.PayeeID)
				assert.Equal(t, "usd", req.Currency)
				return &model.HoldResult{PaymentIntentID: "pi_dep", ClientSecret: "sec", PaymentType: req.PaymentType}, nil
			})

		res, err := f.svc.CreateHold(context.Background(), clientID("client-1"), &model.CreateHoldIntentRequest{
			JobID: f.job.ID, MilestoneID: m.ID, PaymentType: model.PaymentTypeDeposit,
		})
		require.NoError(t, err)
		assert.Equal(t, "pi_dep", res.PaymentIntentID)
	})

	t.Run("remaining requires completed", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("1000.00", model.MilestoneStatusInProgress)
		f := newMilestoneFixture(t, m)
		_, err := f.svc.CreateHold(context.Background(), clientID("client-1"), &model.CreateHoldIntentRequest{
			JobID: f.job.ID, MilestoneID: m.ID, PaymentType: model.PaymentTypeRemaining,
		})
		assert.True(t, apperrors.IsStateGuard(err))
	})

	t.Run("talent cannot pay", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("1000.00", model.MilestoneStatusPending)
		f := newMilestoneFixture(t, m)
		_, err := f.svc.CreateHold(context.Background(), talentID("talent-1"), &model.CreateHoldIntentRequest{
			JobID: f.job.ID, MilestoneID: m.ID, PaymentType: model.PaymentTypeFull,
		})
		assert.True(t, apperrors.IsForbidden(err))
	})
}

func TestMilestoneService_CreateHoldExclusivity(t *testing.T) {
	t.Parallel()

	payment := func(f *milestoneFixture, msID string, typ model.PaymentType, amount string, status model.PaymentStatus) *model.Payment {
		p := testutil.NewPayment(f.job.ID, msID, typ, amount)
		p.PaymentIntentID = "pi_" + string(typ) + "_" + string(status)
		p.Status = status
		return p
	}

	tests := []struct {
		name     string
		typ      model.PaymentType
		existing func(f *milestoneFixture, msID string) []*model.Payment
		wantErr  bool
	}{
		{
			name: "full after captured deposit",
			typ:  model.PaymentTypeFull,
			existing: func(f *milestoneFixture, msID string) []*model.Payment {
				return []*model.Payment{payment(f, msID, model.PaymentTypeDeposit, "50.00", model.PaymentStatusSucceeded)}
			},
			wantErr: true,
		},
		{
			name: "full while deposit hold is open",
			typ:  model.PaymentTypeFull,
			existing: func(f *milestoneFixture, msID string) []*model.Payment {
				return []*model.Payment{payment(f, msID, model.PaymentTypeDeposit, "50.00", model.PaymentStatusRequiresCapture)}
			},
			wantErr: true,
		},
		{
			name: "deposit after captured full",
			typ:  model.PaymentTypeDeposit,
			existing: func(f *milestoneFixture, msID string) []*model.Payment {
				return []*model.Payment{payment(f, msID, model.PaymentTypeFull, "500.00", model.PaymentStatusSucceeded)}
			},
			wantErr: true,
		},
		{
			name: "deposit while full hold is pending",
			typ:  model.PaymentTypeDeposit,
			existing: func(f *milestoneFixture, msID string) []*model.Payment {
				return []*model.Payment{payment(f, msID, model.PaymentTypeFull, "500.00", model.PaymentStatusPending)}
			},
			wantErr: true,
		},
		{
			name: "full after failed deposit",
			typ:  model.PaymentTypeFull,
			existing: func(f *milestoneFixture, msID string) []*model.Payment {
				return []*model.Payment{
					payment(f, msID, model.PaymentTypeDeposit, "50.00", model.PaymentStatusFailed),
					payment(f, msID, model.PaymentTypeDeposit, "50.00", model.PaymentStatusCanceled),
				}
			},
		},
		{
			name: "deposit with nothing on file",
			typ:  model.PaymentTypeDeposit,
			existing: func(*milestoneFixture, string) []*model.Payment {
				return nil
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := testutil.NewMilestone("500.00", model.MilestoneStatusPending)
			f := newMilestoneFixture(t, m)
			f.gateway.EXPECT().MilestoneLedger(gomock.Any(), f.job.ID, m.ID).
				Return(&model.MilestoneLedger{Payments: tt.existing(f, m.ID)}, nil)
			if !tt.wantErr {
				f.gateway.EXPECT().ProcessMilestonePayment(gomock.Any(), gomock.Any()).
					Return(&model.HoldResult{PaymentIntentID: "pi_new", PaymentType: tt.typ}, nil)
			}

			_, err := f.svc.CreateHold(context.Background(), clientID("client-1"), &model.CreateHoldIntentRequest{
				JobID: f.job.ID, MilestoneID: m.ID, PaymentType: tt.typ,
			})
			if tt.wantErr {
				assert.True(t, apperrors.IsStateGuard(err), "got %v", err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMilestoneService_CreateHoldNeverOverCollects(t *testing.T) {
	t.Parallel()

	t.Run("deposit on a partly captured milestone", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("500.00", model.MilestoneStatusPending)
		m.CapturedAmount = money("480")
		m.CapturedIntentIDs = []string{"pi_manual"}
		f := newMilestoneFixture(t, m)
		f.gateway.EXPECT().MilestoneLedger(gomock.Any(), f.job.ID, m.ID).Return(&model.MilestoneLedger{}, nil)

		_, err := f.svc.CreateHold(context.Background(), clientID("client-1"), &model.CreateHoldIntentRequest{
			JobID: f.job.ID, MilestoneID: m.ID, PaymentType: model.PaymentTypeDeposit,
		})
		assert.True(t, apperrors.IsStateGuard(err))
	})

	t.Run("remaining beside a captured deposit fits exactly", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("500.00", model.MilestoneStatusCompleted)
		m.CapturedAmount = money("50")
		m.CapturedIntentIDs = []string{"pi_dep"}
		f := newMilestoneFixture(t, m)
		dep := testutil.NewPayment(f.job.ID, m.ID, model.PaymentTypeDeposit, "50.00")
		dep.Status = model.PaymentStatusSucceeded
		f.gateway.EXPECT().MilestoneLedger(gomock.Any(), f.job.ID, m.ID).
			Return(&model.MilestoneLedger{Payments: []*model.Payment{dep}}, nil)
		f.gateway.EXPECT().ProcessMilestonePayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req model.HoldRequest) (*model.HoldResult, error) {
				assert.True(t, req.Amount.Equal(money("450")))
				return &model.HoldResult{PaymentIntentID: "pi_rem", PaymentType: req.PaymentType}, nil
			})

		res, err := f.svc.CreateHold(context.Background(), clientID("client-1"), &model.CreateHoldIntentRequest{
			JobID: f.job.ID, MilestoneID: m.ID, PaymentType: model.PaymentTypeRemaining,
		})
		require.NoError(t, err)
		assert.Equal(t, "pi_rem", res.PaymentIntentID)
	})
}

func TestMilestoneService_CaptureHold(t *testing.T) {
	t.Parallel()
	m := testutil.NewMilestone("1000.00", model.MilestoneStatusPending)
	f := newMilestoneFixture(t, m)
	p := testutil.NewPayment(f.job.ID, m.ID, model.PaymentTypeDeposit, "100.00")

	f.gateway.EXPECT().MilestoneLedger(gomock.Any(), f.job.ID, m.ID).
		Return(&model.MilestoneLedger{Payments: []*model.Payment{p}}, nil).Times(2)
	f.gateway.EXPECT().CaptureHold(gomock.Any(), p.PaymentIntentID).
		Return(&model.CaptureResult{PaymentIntentID: p.PaymentIntentID, Status: model.PaymentStatusSucceeded}, nil)

	res, err := f.svc.CaptureHold(context.Background(), clientID("client-1"), &model.CapturePaymentRequest{
		JobID: f.job.ID, MilestoneID: m.ID, PaymentIntentID: p.PaymentIntentID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSucceeded, res.Status)

	_, err = f.svc.CaptureHold(context.Background(), clientID("client-1"), &model.CapturePaymentRequest{
		JobID: f.job.ID, MilestoneID: m.ID, PaymentIntentID: "pi_someone_else",
	})
	assert.True(t, apperrors.IsNotFound(err))
}

// Deposit, work, review, remaining capture and release, end to end.
func TestMilestoneService_DepositThenReleaseFlow(t *testing.T) {
	t.Parallel()
	m := testutil.NewMilestone("1000.00", model.MilestoneStatusPending)
	f := newMilestoneFixture(t, m)
	ctx := context.Background()
	client, talent := clientID("client-1"), talentID("talent-1")

	// Deposit captured.
	require.NoError(t, f.svc.OnHoldCaptured(ctx, model.HoldCapturedEvent{
		JobID: f.job.ID, MilestoneID: m.ID, PaymentType: model.PaymentTypeDeposit,
		PaymentIntentID: "pi_dep", Amount: money("100"),
	}))
	got := f.stored(t, m.ID)
	assert.Equal(t, model.MilestoneStatusDepositPaid, got.Status)
	assert.True(t, got.CapturedAmount.Equal(money("100")))

	// Redelivery of the same capture changes nothing.
	before := f.repo.updates
	require.NoError(t, f.svc.OnHoldCaptured(ctx, model.HoldCapturedEvent{
		JobID: f.job.ID, MilestoneID: m.ID, PaymentType: model.PaymentTypeDeposit,
		PaymentIntentID: "pi_dep", Amount: money("100"),
	}))
	assert.Equal(t, before, f.repo.updates)

	started, err := f.svc.StartWork(ctx, talent, f.job.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusInProgress, started.Status)
	assert.Equal(t, model.TalentStatusInProgress, started.TalentStatus)
	assert.NotNil(t, started.StartedAt)

	done, err := f.svc.CompleteWork(ctx, talent, f.job.ID, m.ID, &model.CompleteWorkRequest{SubmissionDetails: "repo link"})
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusInProgress, done.Status)
	assert.Equal(t, model.TalentStatusCompleted, done.TalentStatus)

	f.gateway.EXPECT().ProcessMilestonePayment(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.HoldRequest) (*model.HoldResult, error) {
			assert.Equal(t, model.PaymentTypeRemaining, req.PaymentType)
			assert.True(t, req.Amount.Equal(money("900")))
			return &model.HoldResult{PaymentIntentID: "pi_rem", Status: model.PaymentStatusPending}, nil
		})
	review, err := f.svc.Review(ctx, client, f.job.ID, m.ID, &model.ReviewRequest{Approve: boolPtr(true), Feedback: "great"})
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusCompleted, review.Milestone.Status)
	assert.Equal(t, "pi_rem", review.Milestone.PaymentIntentID)
	require.NotNil(t, review.Hold)

	require.NoError(t, f.svc.OnHoldCaptured(ctx, model.HoldCapturedEvent{
		JobID: f.job.ID, MilestoneID: m.ID, PaymentType: model.PaymentTypeRemaining,
		PaymentIntentID: "pi_rem", Amount: money("900"),
	}))
	got = f.stored(t, m.ID)
	assert.Equal(t, model.MilestoneStatusEscrowed, got.Status)
	assert.True(t, got.CapturedAmount.Equal(money("1000")))

	rem := testutil.NewPayment(f.job.ID, m.ID, model.PaymentTypeRemaining, "900.00")
	rem.PaymentIntentID = "pi_rem"
	rem.Status = model.PaymentStatusSucceeded
	f.directory.EXPECT().PayoutAccountID(gomock.Any(), "talent-1").Return("acct_talent", nil)
	f.gateway.EXPECT().MilestoneLedger(gomock.Any(), f.job.ID, m.ID).
		Return(&model.MilestoneLedger{Payments: []*model.Payment{rem}}, nil)
	f.gateway.EXPECT().TransferToPayee(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.TransferRequest) (*model.TransferResult, error) {
			assert.Equal(t, "acct_talent", req.AccountID)
			assert.True(t, req.Amount.Equal(money("1000")))
			assert.Equal(t, "pi_rem", req.PaymentIntentID)
			return &model.TransferResult{TransferID: "tr_1", Status: model.TransferStatusPaid}, nil
		})

	released, err := f.svc.ReleaseFunds(ctx, client, f.job.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusReleased, released.Status)
	assert.Equal(t, "tr_1", released.TransferID)
	assert.NotNil(t, released.ReleasedAt)
}

func TestMilestoneService_ReviewFullyPaidEscrowsDirectly(t *testing.T) {
	t.Parallel()
	m := testutil.NewMilestone("500.00", model.MilestoneStatusInProgress)
	m.TalentStatus = model.TalentStatusCompleted
	m.CapturedAmount = money("500")
	m.CapturedIntentIDs = []string{"pi_full"}
	f := newMilestoneFixture(t, m)

	res, err := f.svc.Review(context.Background(), clientID("client-1"), f.job.ID, m.ID,
		&model.ReviewRequest{Approve: boolPtr(true)})
	require.NoError(t, err)
	assert.Nil(t, res.Hold)
	assert.Equal(t, model.MilestoneStatusEscrowed, res.Milestone.Status)
	assert.True(t, res.Milestone.ClientApproved)
}

func TestMilestoneService_ReviewRequestChanges(t *testing.T) {
	t.Parallel()
	m := testutil.NewMilestone("500.00", model.MilestoneStatusInProgress)
	m.TalentStatus = model.TalentStatusCompleted
	f := newMilestoneFixture(t, m)

	res, err := f.svc.Review(context.Background(), clientID("client-1"), f.job.ID, m.ID,
		&model.ReviewRequest{Approve: boolPtr(false), Feedback: "fix the header"})
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusInProgress, res.Milestone.Status)
	assert.Equal(t, model.TalentStatusInProgress, res.Milestone.TalentStatus)
	assert.Equal(t, "fix the header", res.Milestone.ClientFeedback)
	assert.False(t, res.Milestone.ClientApproved)
}

func TestMilestoneService_ReviewHoldFailureLeavesMilestone(t *testing.T) {
	t.Parallel()
	m := testutil.NewMilestone("500.00", model.MilestoneStatusInProgress)
	m.TalentStatus = model.TalentStatusCompleted
	f := newMilestoneFixture(t, m)
	f.gateway.EXPECT().ProcessMilestonePayment(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.Upstream(errors.New("card declined"), "the payment processor could not create the hold"))

	_, err := f.svc.Review(context.Background(), clientID("client-1"), f.job.ID, m.ID,
		&model.ReviewRequest{Approve: boolPtr(true)})
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
	assert.Equal(t, model.MilestoneStatusInProgress, f.stored(t, m.ID).Status)
	assert.Zero(t, f.repo.updates)
}

func TestMilestoneService_ReviewRequiresSubmittedWork(t *testing.T) {
	t.Parallel()
	m := testutil.NewMilestone("500.00", model.MilestoneStatusInProgress)
	f := newMilestoneFixture(t, m)

	_, err := f.svc.Review(context.Background(), clientID("client-1"), f.job.ID, m.ID,
		&model.ReviewRequest{Approve: boolPtr(true)})
	assert.True(t, apperrors.IsStateGuard(err))

	_, err = f.svc.Review(context.Background(), clientID("client-1"), f.job.ID, m.ID, &model.ReviewRequest{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestMilestoneService_StartWorkGuards(t *testing.T) {
	t.Parallel()
	pending := testutil.NewMilestone("500.00", model.MilestoneStatusPending)
	paid := testutil.NewMilestone("500.00", model.MilestoneStatusDepositPaid)
	f := newMilestoneFixture(t, pending, paid)
	ctx := context.Background()

	_, err := f.svc.StartWork(ctx, talentID("talent-1"), f.job.ID, pending.ID)
	assert.True(t, apperrors.IsStateGuard(err))

	_, err = f.svc.StartWork(ctx, talentID("talent-2"), f.job.ID, paid.ID)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.svc.StartWork(ctx, clientID("client-1"), f.job.ID, paid.ID)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.svc.StartWork(ctx, talentID("talent-1"), f.job.ID, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMilestoneService_ReleaseFundsFromCapturedIntent(t *testing.T) {
	t.Parallel()
	m := testutil.NewMilestone("500.00", model.MilestoneStatusEscrowed)
	f := newMilestoneFixture(t, m)

	dep := testutil.NewPayment(f.job.ID, m.ID, model.PaymentTypeDeposit, "50.00")
	dep.PaymentIntentID, dep.Status = "pi_dep", model.PaymentStatusSucceeded
	rem := testutil.NewPayment(f.job.ID, m.ID, model.PaymentTypeRemaining, "450.00")
	rem.PaymentIntentID, rem.Status = "pi_rem", model.PaymentStatusSucceeded
	stale := testutil.NewPayment(f.job.ID, m.ID, model.PaymentTypeRemaining, "450.00")
	stale.PaymentIntentID, stale.Status = "pi_rem_old", model.PaymentStatusFailed

	// No CaptureHold expectation: release never captures.
	gomock.InOrder(
		f.directory.EXPECT().PayoutAccountID(gomock.Any(), "talent-1").Return("acct_t", nil),
		f.gateway.EXPECT().MilestoneLedger(gomock.Any(), f.job.ID, m.ID).
			Return(&model.MilestoneLedger{Payments: []*model.Payment{dep, rem, stale}}, nil),
		f.gateway.EXPECT().TransferToPayee(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req model.TransferRequest) (*model.TransferResult, error) {
				assert.Equal(t, "pi_rem", req.PaymentIntentID)
				return &model.TransferResult{TransferID: "tr_9", Status: model.TransferStatusPaid}, nil
			}),
	)

	out, err := f.svc.ReleaseFunds(context.Background(), clientID("client-1"), f.job.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusReleased, out.Status)
}

func TestSourceIntent(t *testing.T) {
	t.Parallel()

	pay := func(id string, typ model.PaymentType, status model.PaymentStatus) *model.Payment {
		return &model.Payment{PaymentIntentID: id, PaymentType: typ, Status: status}
	}
	tests := []struct {
		name     string
		payments []*model.Payment
		want     string
	}{
		{"empty", nil, ""},
		{"deposit only", []*model.Payment{pay("pi_d", model.PaymentTypeDeposit, model.PaymentStatusSucceeded)}, "pi_d"},
		{"full beats deposit", []*model.Payment{
			pay("pi_f", model.PaymentTypeFull, model.PaymentStatusSucceeded),
			pay("pi_d", model.PaymentTypeDeposit, model.PaymentStatusSucceeded),
		}, "pi_f"},
		{"uncaptured hold ignored", []*model.Payment{
			pay("pi_d", model.PaymentTypeDeposit, model.PaymentStatusSucceeded),
			pay("pi_r", model.PaymentTypeRemaining, model.PaymentStatusRequiresCapture),
		}, "pi_d"},
		{"failed hold ignored", []*model.Payment{
			pay("pi_r", model.PaymentTypeRemaining, model.PaymentStatusFailed),
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sourceIntent(&model.MilestoneLedger{Payments: tt.payments}))
		})
	}
}

func TestMilestoneService_ReleaseGuards(t *testing.T) {
	t.Parallel()

	t.Run("not escrowed", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("500.00", model.MilestoneStatusCompleted)
		f := newMilestoneFixture(t, m)
		_, err := f.svc.ReleaseFunds(context.Background(), clientID("client-1"), f.job.ID, m.ID)
		assert.True(t, apperrors.IsStateGuard(err))
	})

	t.Run("talent cannot release", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("500.00", model.MilestoneStatusEscrowed)
		f := newMilestoneFixture(t, m)
		_, err := f.svc.ReleaseFunds(context.Background(), talentID("talent-1"), f.job.ID, m.ID)
		assert.True(t, apperrors.IsForbidden(err))
	})

	t.Run("transfer failure keeps milestone escrowed", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("500.00", model.MilestoneStatusEscrowed)
		f := newMilestoneFixture(t, m)
		f.directory.EXPECT().PayoutAccountID(gomock.Any(), "talent-1").Return("acct_t", nil)
		f.gateway.EXPECT().MilestoneLedger(gomock.Any(), f.job.ID, m.ID).Return(&model.MilestoneLedger{}, nil)
		f.gateway.EXPECT().TransferToPayee(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.Upstream(errors.New("insufficient_funds"), "funds are captured but the transfer to the payee failed"))

		_, err := f.svc.ReleaseFunds(context.Background(), clientID("client-1"), f.job.ID, m.ID)
		assert.True(t, apperrors.IsUpstream(err))
		assert.Equal(t, model.MilestoneStatusEscrowed, f.stored(t, m.ID).Status)
	})

	t.Run("payee without payout account", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("500.00", model.MilestoneStatusEscrowed)
		f := newMilestoneFixture(t, m)
		f.directory.EXPECT().PayoutAccountID(gomock.Any(), "talent-1").
			Return("", apperrors.StateGuardf("talent has no payout account"))

		_, err := f.svc.ReleaseFunds(context.Background(), clientID("client-1"), f.job.ID, m.ID)
		assert.True(t, apperrors.IsStateGuard(err))
	})
}

func TestMilestoneService_OnHoldCapturedOutOfOrder(t *testing.T) {
	t.Parallel()
	m := testutil.NewMilestone("1000.00", model.MilestoneStatusInProgress)
	f := newMilestoneFixture(t, m)

	require.NoError(t, f.svc.OnHoldCaptured(context.Background(), model.HoldCapturedEvent{
		JobID: f.job.ID, MilestoneID: m.ID, PaymentType: model.PaymentTypeRemaining,
		PaymentIntentID: "pi_rem", Amount: money("900"),
	}))
	got := f.stored(t, m.ID)
	assert.Equal(t, model.MilestoneStatusInProgress, got.Status)
	assert.True(t, got.CapturedAmount.Equal(money("900")))
	assert.Contains(t, got.CapturedIntentIDs, "pi_rem")
}

func TestMilestoneService_VersionConflictRetry(t *testing.T) {
	t.Parallel()

	t.Run("retries until the write lands", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("500.00", model.MilestoneStatusDepositPaid)
		f := newMilestoneFixture(t, m)
		f.repo.conflicts = 2

		out, err := f.svc.StartWork(context.Background(), talentID("talent-1"), f.job.ID, m.ID)
		require.NoError(t, err)
		assert.Equal(t, model.MilestoneStatusInProgress, out.Status)
	})

	t.Run("one conflict rereads and keeps the other write", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("500.00", model.MilestoneStatusDepositPaid)
		f := newMilestoneFixture(t, m)
		f.repo.conflicts = 1
		f.repo.onConflict = func(job *model.Job) {
			job.Milestone(m.ID).ApplyCapture("pi_late", money("25"))
		}

		out, err := f.svc.StartWork(context.Background(), talentID("talent-1"), f.job.ID, m.ID)
		require.NoError(t, err)
		assert.Equal(t, model.MilestoneStatusInProgress, out.Status)
		assert.Equal(t, 2, f.repo.attempts)
		assert.Equal(t, 1, f.repo.updates)

		got := f.stored(t, m.ID)
		assert.True(t, got.CapturedAmount.Equal(money("25")))
		assert.Contains(t, got.CapturedIntentIDs, "pi_late")
	})

	t.Run("gives up with conflict", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("500.00", model.MilestoneStatusDepositPaid)
		f := newMilestoneFixture(t, m)
		f.repo.conflicts = defaultMutateAttempts

		_, err := f.svc.StartWork(context.Background(), talentID("talent-1"), f.job.ID, m.ID)
		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, model.MilestoneStatusDepositPaid, f.stored(t, m.ID).Status)
		assert.Equal(t, defaultMutateAttempts, f.repo.attempts)
		assert.Zero(t, f.repo.updates)
	})

	t.Run("concurrent redelivery applies once", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("1000.00", model.MilestoneStatusPending)
		f := newMilestoneFixture(t, m)
		f.repo.conflicts = 1

		var wg sync.WaitGroup
		for _, ev := range []model.HoldCapturedEvent{
			{JobID: f.job.ID, MilestoneID: m.ID, PaymentType: model.PaymentTypeDeposit, PaymentIntentID: "pi_dep", Amount: money("100")},
			{JobID: f.job.ID, MilestoneID: m.ID, PaymentType: model.PaymentTypeDeposit, PaymentIntentID: "pi_dep", Amount: money("100")},
		} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, f.svc.OnHoldCaptured(context.Background(), ev))
			}()
		}
		wg.Wait()

		got := f.stored(t, m.ID)
		assert.Equal(t, model.MilestoneStatusDepositPaid, got.Status)
		assert.True(t, got.CapturedAmount.Equal(money("100")), "redelivered capture counted once, got %s", got.CapturedAmount)
	})
}

func TestMilestoneService_CancelMilestone(t *testing.T) {
	t.Parallel()
	open := testutil.NewMilestone("500.00", model.MilestoneStatusEscrowed)
	done := testutil.NewMilestone("500.00", model.MilestoneStatusReleased)
	f := newMilestoneFixture(t, open, done)

	out, err := f.svc.CancelMilestone(context.Background(), adminID(), f.job.ID, open.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusCancelled, out.Status)

	_, err = f.svc.CancelMilestone(context.Background(), clientID("client-1"), f.job.ID, done.ID)
	assert.True(t, apperrors.IsStateGuard(err))

	_, err = f.svc.CancelMilestone(context.Background(), talentID("talent-1"), f.job.ID, open.ID)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestMilestoneService_GetMilestone(t *testing.T) {
	t.Parallel()
	m := testutil.NewMilestone("500.00", model.MilestoneStatusPending)
	f := newMilestoneFixture(t, m)
	f.gateway.EXPECT().MilestoneLedger(gomock.Any(), f.job.ID, m.ID).
		Return(&model.MilestoneLedger{Payments: []*model.Payment{}, Transfers: []*model.Transfer{}}, nil).Times(2)

	detail, err := f.svc.GetMilestone(context.Background(), talentID("talent-1"), f.job.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, detail.Milestone.ID)

	_, err = f.svc.GetMilestone(context.Background(), adminID(), f.job.ID, m.ID)
	require.NoError(t, err)

	_, err = f.svc.GetMilestone(context.Background(), talentID("talent-9"), f.job.ID, m.ID)
	assert.True(t, apperrors.IsForbidden(err))
}
