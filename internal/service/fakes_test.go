package service

import (
	"context"
	"sort"
	"sync"

	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/domain/auth"
	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
)

// memJobRepo is a versioned in-memory JobRepository. conflicts makes the next
// n Update calls fail with ErrVersionConflict after bumping the stored version,
// as if another writer had committed first; onConflict, when set, is that
// writer's change. attempts counts every Update call, updates only the ones
// that landed.
type memJobRepo struct {
	mu         sync.Mutex
	jobs       map[string]*model.Job
	conflicts  int
	onConflict func(job *model.Job)
	attempts   int
	updates    int
}

var _ core.JobRepository = (*memJobRepo)(nil)

func newMemJobRepo(jobs ...*model.Job) *memJobRepo {
	r := &memJobRepo{jobs: map[string]*model.Job{}}
	for _, j := range jobs {
		r.jobs[j.ID] = cloneJob(j)
	}
	return r
}

func cloneJob(j *model.Job) *model.Job {
	out := *j
	out.Milestones = make([]model.Milestone, len(j.Milestones))
	for i, m := range j.Milestones {
		m.CapturedIntentIDs = append([]string(nil), m.CapturedIntentIDs...)
		out.Milestones[i] = m
	}
	if j.AssignedTo != nil {
		a := *j.AssignedTo
		out.AssignedTo = &a
	}
	return &out
}

func (r *memJobRepo) get(id string) *model.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		return cloneJob(j)
	}
	return nil
}

func (r *memJobRepo) Create(_ context.Context, job *model.Job) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID == "" {
		job.ID = "job-new"
	}
	job.Version = 1
	r.jobs[job.ID] = cloneJob(job)
	return cloneJob(job), nil
}

func (r *memJobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	if j := r.get(id); j != nil {
		return j, nil
	}
	return nil, apperrors.NotFound("job not found")
}

func (r *memJobRepo) List(_ context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	scoped := opts.ClientID != nil || opts.AssignedTo != nil || opts.IncludePublished
	out := []*model.Job{}
	for _, j := range r.jobs {
		party := !scoped ||
			(opts.ClientID != nil && j.ClientID == *opts.ClientID) ||
			(opts.AssignedTo != nil && j.IsAssignedTo(*opts.AssignedTo)) ||
			(opts.IncludePublished && j.Status == model.JobStatusPublished)
		if !party {
			continue
		}
		if opts.Status != nil && j.Status != *opts.Status {
			continue
		}
		out = append(out, cloneJob(j))
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID < out[b].ID
	})

	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := min(max(opts.Offset, 0), len(out))
	return out[offset:min(offset+limit, len(out))], nil
}

func (r *memJobRepo) Update(_ context.Context, job *model.Job) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.jobs[job.ID]
	if !ok {
		return nil, apperrors.NotFound("job not found")
	}
	r.attempts++
	if r.conflicts > 0 {
		r.conflicts--
		if r.onConflict != nil {
			r.onConflict(stored)
		}
		stored.Version++
		return nil, core.ErrVersionConflict
	}
	if stored.Version != job.Version {
		return nil, core.ErrVersionConflict
	}
	next := cloneJob(job)
	next.Version++
	r.jobs[job.ID] = next
	r.updates++
	return cloneJob(next), nil
}

func (r *memJobRepo) Delete(_ context.Context, id string, allowed []model.JobStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return false, nil
	}
	for _, s := range allowed {
		if j.Status == s {
			delete(r.jobs, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *memJobRepo) ListByMilestoneStatus(
	_ context.Context,
	status model.MilestoneStatus,
	limit int,
) ([]*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Job{}
	for _, j := range r.jobs {
		for _, m := range j.Milestones {
			if m.Status == status {
				out = append(out, cloneJob(j))
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func clientID(id string) *auth.Identity {
	return &auth.Identity{UserID: id, Roles: []auth.Role{auth.RoleClient}}
}

func talentID(id string) *auth.Identity {
	return &auth.Identity{UserID: id, Roles: []auth.Role{auth.RoleTalent}}
}

func adminID() *auth.Identity {
	return &auth.Identity{UserID: "ops-1", Roles: []auth.Role{auth.RoleAdmin}}
}

func boolPtr(b bool) *bool { return &b }
