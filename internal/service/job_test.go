package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
	"github.com/target/escrow-api/internal/mocks"
	"github.com/target/escrow-api/internal/testutil"
)

func TestNewJobService(t *testing.T) {
	t.Parallel()
	_, err := NewJobService(JobServiceOptions{})
	require.Error(t, err)

	assert.Panics(t, func() { MustNewJobService(JobServiceOptions{}) })
}

func TestJobService_CreateJob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		req        *model.CreateJobRequest
		caller     string
		wantStatus model.JobStatus
		wantErr    func(error) bool
	}{
		{
			name:       "draft by default",
			req:        &model.CreateJobRequest{Title: " Landing page ", Budget: money("1000")},
			caller:     "client",
			wantStatus: model.JobStatusDraft,
		},
		{
			name:       "publish on create",
			req:        &model.CreateJobRequest{Title: "Landing page", Budget: money("1000"), Publish: true},
			caller:     "client",
			wantStatus: model.JobStatusPublished,
		},
		{
			name:    "talent cannot post",
			req:     &model.CreateJobRequest{Title: "x", Budget: money("1")},
			caller:  "talent",
			wantErr: apperrors.IsForbidden,
		},
		{
			name:    "missing title",
			req:     &model.CreateJobRequest{Budget: money("1")},
			caller:  "client",
			wantErr: apperrors.IsValidation,
		},
		{
			name:    "budget with sub-cent precision",
			req:     &model.CreateJobRequest{Title: "x", Budget: money("1.005")},
			caller:  "client",
			wantErr: apperrors.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := newMemJobRepo()
			svc := MustNewJobService(JobServiceOptions{Repo: repo})
			id := clientID("client-1")
			if tt.caller == "talent" {
				id = talentID("talent-1")
			}

			job, err := svc.CreateJob(context.Background(), id, tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, job.Status)
			assert.Equal(t, "client-1", job.ClientID)
			assert.Equal(t, "Landing page", job.Title)
			assert.Nil(t, job.AssignedTo)
			assert.Empty(t, job.Milestones)
		})
	}
}

func TestJobService_GetJob(t *testing.T) {
	t.Parallel()
	draft := testutil.NewJob("client-1").WithStatus(model.JobStatusDraft).Build()
	published := testutil.NewJob("client-1").Build()
	svc := MustNewJobService(JobServiceOptions{Repo: newMemJobRepo(draft, published)})
	ctx := context.Background()

	_, err := svc.GetJob(ctx, clientID("client-1"), draft.ID)
	require.NoError(t, err)

	_, err = svc.GetJob(ctx, talentID("talent-1"), draft.ID)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = svc.GetJob(ctx, talentID("talent-1"), published.ID)
	require.NoError(t, err)

	_, err = svc.GetJob(ctx, adminID(), draft.ID)
	require.NoError(t, err)

	_, err = svc.GetJob(ctx, nil, draft.ID)
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = svc.GetJob(ctx, clientID("client-1"), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestJobService_ListJobs(t *testing.T) {
	t.Parallel()

	t.Run("client is scoped to own jobs", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		t.Cleanup(ctrl.Finish)
		repo := mocks.NewMockJobRepository(ctrl)
		svc := MustNewJobService(JobServiceOptions{Repo: repo})

		repo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, opts model.JobListOptions) ([]*model.Job, error) {
				require.NotNil(t, opts.ClientID)
				assert.Equal(t, "client-1", *opts.ClientID)
				assert.Equal(t, maxJobListLimit, opts.Limit)
				assert.Zero(t, opts.Offset)
				return []*model.Job{}, nil
			})

		_, err := svc.ListJobs(context.Background(), clientID("client-1"), model.ListJobsRequest{Limit: 1000, Offset: -4})
		require.NoError(t, err)
	})

	t.Run("admin is unscoped with default limit", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		t.Cleanup(ctrl.Finish)
		repo := mocks.NewMockJobRepository(ctrl)
		svc := MustNewJobService(JobServiceOptions{Repo: repo})

		repo.EXPECT().List(gomock.Any(), model.JobListOptions{Limit: defaultJobListLimit}).Return(nil, nil)

		_, err := svc.ListJobs(context.Background(), adminID(), model.ListJobsRequest{})
		require.NoError(t, err)
	})

	t.Run("talent sees assigned and published", func(t *testing.T) {
		t.Parallel()
		mine := testutil.NewJob("client-1").AssignedTo("talent-1").Build()
		theirs := testutil.NewJob("client-1").AssignedTo("talent-2").Build()
		open := testutil.NewJob("client-2").Build()
		draft := testutil.NewJob("client-2").WithStatus(model.JobStatusDraft).Build()
		svc := MustNewJobService(JobServiceOptions{Repo: newMemJobRepo(mine, theirs, open, draft)})

		jobs, err := svc.ListJobs(context.Background(), talentID("talent-1"), model.ListJobsRequest{})
		require.NoError(t, err)
		ids := make([]string, 0, len(jobs))
		for _, j := range jobs {
			ids = append(ids, j.ID)
		}
		assert.ElementsMatch(t, []string{mine.ID, open.ID}, ids)
	})

	t.Run("talent listing is a single paged query", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		t.Cleanup(ctrl.Finish)
		repo := mocks.NewMockJobRepository(ctrl)
		svc := MustNewJobService(JobServiceOptions{Repo: repo})

		repo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, opts model.JobListOptions) ([]*model.Job, error) {
				require.NotNil(t, opts.AssignedTo)
				assert.Equal(t, "talent-1", *opts.AssignedTo)
				assert.True(t, opts.IncludePublished)
				assert.Nil(t, opts.ClientID)
				assert.Equal(t, 2, opts.Limit)
				assert.Equal(t, 4, opts.Offset)
				return []*model.Job{}, nil
			}).Times(1)

		_, err := svc.ListJobs(context.Background(), talentID("talent-1"), model.ListJobsRequest{Limit: 2, Offset: 4})
		require.NoError(t, err)
	})

	t.Run("talent pages never repeat or overflow", func(t *testing.T) {
		t.Parallel()
		mine := testutil.NewJob("client-1").AssignedTo("talent-1").Build()
		theirs := testutil.NewJob("client-1").AssignedTo("talent-2").Build()
		open1 := testutil.NewJob("client-2").Build()
		open2 := testutil.NewJob("client-3").Build()
		draft := testutil.NewJob("client-2").WithStatus(model.JobStatusDraft).Build()
		svc := MustNewJobService(JobServiceOptions{Repo: newMemJobRepo(mine, theirs, open1, open2, draft)})

		seen := map[string]int{}
		for offset := 0; offset < 6; offset += 2 {
			page, err := svc.ListJobs(context.Background(), talentID("talent-1"),
				model.ListJobsRequest{Limit: 2, Offset: offset})
			require.NoError(t, err)
			assert.LessOrEqual(t, len(page), 2)
			for _, j := range page {
				seen[j.ID]++
			}
		}
		assert.Equal(t, map[string]int{mine.ID: 1, open1.ID: 1, open2.ID: 1}, seen)
	})

	t.Run("talent status filter narrows the combined list", func(t *testing.T) {
		t.Parallel()
		mine := testutil.NewJob("client-1").AssignedTo("talent-1").Build()
		open := testutil.NewJob("client-2").Build()
		svc := MustNewJobService(JobServiceOptions{Repo: newMemJobRepo(mine, open)})

		published := model.JobStatusPublished
		jobs, err := svc.ListJobs(context.Background(), talentID("talent-1"), model.ListJobsRequest{Status: &published})
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, open.ID, jobs[0].ID)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		t.Parallel()
		svc := MustNewJobService(JobServiceOptions{Repo: newMemJobRepo()})
		bad := model.JobStatus("archived")
		_, err := svc.ListJobs(context.Background(), adminID(), model.ListJobsRequest{Status: &bad})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestJobService_UpdateJob(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	status := func(s model.JobStatus) *model.JobStatus { return &s }

	t.Run("publishes draft and edits fields", func(t *testing.T) {
		t.Parallel()
		job := testutil.NewJob("client-1").WithStatus(model.JobStatusDraft).Build()
		svc := MustNewJobService(JobServiceOptions{Repo: newMemJobRepo(job)})
		title := "  New title "

		out, err := svc.UpdateJob(ctx, clientID("client-1"), job.ID, &model.UpdateJobRequest{
			Title:  &title,
			Status: status(model.JobStatusPublished),
		})
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPublished, out.Status)
		assert.Equal(t, "New title", out.Title)
		assert.Equal(t, job.Version+1, out.Version)
	})

	t.Run("assigned job cannot go back to published", func(t *testing.T) {
		t.Parallel()
		job := testutil.NewJob("client-1").AssignedTo("talent-1").Build()
		svc := MustNewJobService(JobServiceOptions{Repo: newMemJobRepo(job)})

		_, err := svc.UpdateJob(ctx, clientID("client-1"), job.ID, &model.UpdateJobRequest{
			Status: status(model.JobStatusPublished),
		})
		assert.True(t, apperrors.IsStateGuard(err))
	})

	t.Run("completed job is frozen", func(t *testing.T) {
		t.Parallel()
		job := testutil.NewJob("client-1").AssignedTo("talent-1").WithStatus(model.JobStatusCompleted).Build()
		svc := MustNewJobService(JobServiceOptions{Repo: newMemJobRepo(job)})
		title := "x"

		_, err := svc.UpdateJob(ctx, clientID("client-1"), job.ID, &model.UpdateJobRequest{Title: &title})
		assert.True(t, apperrors.IsStateGuard(err))
	})

	t.Run("only the owner", func(t *testing.T) {
		t.Parallel()
		job := testutil.NewJob("client-1").Build()
		svc := MustNewJobService(JobServiceOptions{Repo: newMemJobRepo(job)})
		title := "x"

		_, err := svc.UpdateJob(ctx, clientID("client-2"), job.ID, &model.UpdateJobRequest{Title: &title})
		assert.True(t, apperrors.IsForbidden(err))
	})

	t.Run("empty update", func(t *testing.T) {
		t.Parallel()
		svc := MustNewJobService(JobServiceOptions{Repo: newMemJobRepo()})
		_, err := svc.UpdateJob(ctx, clientID("client-1"), "job", &model.UpdateJobRequest{})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestJobService_DeleteJob(t *testing.T) {
	t.Parallel()
	draft := testutil.NewJob("client-1").WithStatus(model.JobStatusDraft).Build()
	assigned := testutil.NewJob("client-1").AssignedTo("talent-1").Build()
	repo := newMemJobRepo(draft, assigned)
	svc := MustNewJobService(JobServiceOptions{Repo: repo})
	ctx := context.Background()

	err := svc.DeleteJob(ctx, clientID("client-1"), assigned.ID)
	assert.True(t, apperrors.IsStateGuard(err))

	err = svc.DeleteJob(ctx, clientID("client-2"), draft.ID)
	assert.True(t, apperrors.IsForbidden(err))

	require.NoError(t, svc.DeleteJob(ctx, clientID("client-1"), draft.ID))
	assert.Nil(t, repo.get(draft.ID))
}

func TestJobService_CompleteJob(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("requires settled milestones", func(t *testing.T) {
		t.Parallel()
		job := testutil.NewJob("client-1").AssignedTo("talent-1").
			WithMilestone(testutil.NewMilestone("100.00", model.MilestoneStatusReleased)).
			WithMilestone(testutil.NewMilestone("100.00", model.MilestoneStatusEscrowed)).
			Build()
		svc := MustNewJobService(JobServiceOptions{Repo: newMemJobRepo(job)})

		_, err := svc.CompleteJob(ctx, clientID("client-1"), job.ID)
		assert.True(t, apperrors.IsStateGuard(err))
	})

	t.Run("completes when every milestone is terminal", func(t *testing.T) {
		t.Parallel()
		job := testutil.NewJob("client-1").AssignedTo("talent-1").
			WithMilestone(testutil.NewMilestone("100.00", model.MilestoneStatusReleased)).
			WithMilestone(testutil.NewMilestone("100.00", model.MilestoneStatusCancelled)).
			Build()
		svc := MustNewJobService(JobServiceOptions{Repo: newMemJobRepo(job)})

		out, err := svc.CompleteJob(ctx, clientID("client-1"), job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, out.Status)
		require.NotNil(t, out.AssignedTo)
		assert.Equal(t, "talent-1", *out.AssignedTo)
	})

	t.Run("published job cannot complete", func(t *testing.T) {
		t.Parallel()
		job := testutil.NewJob("client-1").Build()
		svc := MustNewJobService(JobServiceOptions{Repo: newMemJobRepo(job)})

		_, err := svc.CompleteJob(ctx, clientID("client-1"), job.ID)
		assert.True(t, apperrors.IsStateGuard(err))
	})
}
