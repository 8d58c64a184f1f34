package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
	"github.com/target/escrow-api/internal/mocks"
	"github.com/target/escrow-api/internal/testutil"
)

type adminFixture struct {
	repo      *memJobRepo
	gateway   *mocks.MockPaymentGateway
	directory *mocks.MockUserDirectory
	svc       *AdminService
}

func newAdminFixture(t *testing.T, jobs ...*model.Job) *adminFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &adminFixture{
		repo:      newMemJobRepo(jobs...),
		gateway:   mocks.NewMockPaymentGateway(ctrl),
		directory: mocks.NewMockUserDirectory(ctrl),
	}
	milestones := MustNewMilestoneService(MilestoneServiceOptions{
		Jobs:      f.repo,
		Payments:  f.gateway,
		Directory: f.directory,
		Now:       testutil.FixedTimeFunc(testutil.TestTime()),
	})
	f.svc = MustNewAdminService(AdminServiceOptions{
		Milestones: milestones,
		Jobs:       f.repo,
		Payments:   f.gateway,
	})
	return f
}

func transferAttempt(status model.TransferStatus, age time.Duration) *model.Transfer {
	return &model.Transfer{
		AccountID: "acct_1",
		Amount:    money("500"),
		Currency:  model.DefaultCurrency,
		Status:    status,
		CreatedAt: testutil.TestTime().Add(-age),
	}
}

func TestNewAdminService_RequiresDependencies(t *testing.T) {
	t.Parallel()
	_, err := NewAdminService(AdminServiceOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MilestoneService")
}

func TestAdminService_FindStuckMilestones(t *testing.T) {
	t.Parallel()
	stuck := testutil.NewMilestone("500", model.MilestoneStatusEscrowed)
	paid := testutil.NewMilestone("300", model.MilestoneStatusEscrowed)
	released := testutil.NewMilestone("200", model.MilestoneStatusReleased)
	job := testutil.NewJob("client-1").AssignedTo("talent-1").
		WithMilestone(stuck).
		WithMilestone(paid).
		WithMilestone(released).
		Build()
	f := newAdminFixture(t, job)

	failedOld := transferAttempt(model.TransferStatusFailed, 2*time.Hour)
	failedNew := transferAttempt(model.TransferStatusFailed, time.Minute)
	f.gateway.EXPECT().MilestoneLedger(gomock.Any(), job.ID, stuck.ID).Return(&model.MilestoneLedger{
		Transfers: []*model.Transfer{failedOld, failedNew},
	}, nil)
	f.gateway.EXPECT().MilestoneLedger(gomock.Any(), job.ID, paid.ID).Return(&model.MilestoneLedger{
		Transfers: []*model.Transfer{transferAttempt(model.TransferStatusFailed, time.Hour), transferAttempt(model.TransferStatusPaid, 0)},
	}, nil)

	out, err := f.svc.FindStuckMilestones(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, stuck.ID, out[0].MilestoneID)
	assert.Equal(t, "client-1", out[0].ClientID)
	assert.Equal(t, "talent-1", out[0].TalentID)
	assert.Same(t, failedNew, out[0].LastTransfer)
}

func TestAdminService_ListStuckMilestones_AdminOnly(t *testing.T) {
	t.Parallel()
	f := newAdminFixture(t)

	_, err := f.svc.ListStuckMilestones(context.Background(), clientID("client-1"))
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.svc.ListStuckMilestones(context.Background(), nil)
	assert.True(t, apperrors.IsUnauthorized(err))

	out, err := f.svc.ListStuckMilestones(context.Background(), adminID())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAdminService_ReleaseMilestoneFunds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("admin releases an escrowed milestone", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("500", model.MilestoneStatusEscrowed)
		job := testutil.NewJob("client-1").AssignedTo("talent-1").WithMilestone(m).Build()
		f := newAdminFixture(t, job)

		f.directory.EXPECT().PayoutAccountID(gomock.Any(), "talent-1").Return("acct_1", nil)
		f.gateway.EXPECT().MilestoneLedger(gomock.Any(), job.ID, m.ID).Return(&model.MilestoneLedger{}, nil)
		f.gateway.EXPECT().TransferToPayee(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req model.TransferRequest) (*model.TransferResult, error) {
				assert.Equal(t, "acct_1", req.AccountID)
				assert.True(t, money("500").Equal(req.Amount))
				return &model.TransferResult{TransferID: "tr_1", AccountID: "acct_1", Amount: req.Amount, Status: model.TransferStatusPaid}, nil
			})

		out, err := f.svc.ReleaseMilestoneFunds(ctx, adminID(), job.ID, m.ID)
		require.NoError(t, err)
		assert.Equal(t, model.MilestoneStatusReleased, out.Status)

		stored := f.repo.get(job.ID).Milestone(m.ID)
		require.NotNil(t, stored)
		assert.Equal(t, model.MilestoneStatusReleased, stored.Status)
	})

	t.Run("job owner cannot use the admin path", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("500", model.MilestoneStatusEscrowed)
		job := testutil.NewJob("client-1").AssignedTo("talent-1").WithMilestone(m).Build()
		f := newAdminFixture(t, job)

		_, err := f.svc.ReleaseMilestoneFunds(ctx, clientID("client-1"), job.ID, m.ID)
		assert.True(t, apperrors.IsForbidden(err))
	})

	t.Run("milestone must be escrowed", func(t *testing.T) {
		t.Parallel()
		m := testutil.NewMilestone("500", model.MilestoneStatusCompleted)
		job := testutil.NewJob("client-1").AssignedTo("talent-1").WithMilestone(m).Build()
		f := newAdminFixture(t, job)

		_, err := f.svc.ReleaseMilestoneFunds(ctx, adminID(), job.ID, m.ID)
		assert.True(t, apperrors.IsStateGuard(err))
	})
}
