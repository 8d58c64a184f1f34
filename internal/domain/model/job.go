//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxJobTitleLen       = 200
	maxJobDescriptionLen = 10000
)

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobStatusDraft     JobStatus = "draft"
	JobStatusPublished JobStatus = "published"
	JobStatusAssigned  JobStatus = "assigned"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Valid reports whether the job status is supported.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusDraft, JobStatusPublished, JobStatusAssigned, JobStatusCompleted, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// HasAssignee reports whether a job in this status must carry assignedTo.
func (s JobStatus) HasAssignee() bool {
	return s == JobStatusAssigned || s == JobStatusCompleted
}

// Deletable reports whether a job in this status may be deleted.
func (s JobStatus) Deletable() bool {
	return s == JobStatusDraft || s == JobStatusCancelled
}

// jobEdits lists the status changes a client may request through an update.
// assigned → completed is handled by CompleteJob, which checks milestones.
var jobEdits = map[JobStatus][]JobStatus{
	JobStatusDraft:     {JobStatusPublished, JobStatusCancelled},
	JobStatusPublished: {JobStatusDraft, JobStatusCancelled},
	JobStatusAssigned:  {JobStatusCompleted},
}

// CanEditTo reports whether an update may move a job from s to next.
func (s JobStatus) CanEditTo(next JobStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range jobEdits[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Job is a unit of work posted by a client. Milestones are embedded and the
// whole document is versioned for optimistic concurrency.
type Job struct {
	ID             string          `json:"id"                       db:"id"`
	Title          string          `json:"title"                    db:"title"`
	Description    string          `json:"description"              db:"description"`
	Budget         decimal.Decimal `json:"budget"                   db:"budget"`
	Status         JobStatus       `json:"status"                   db:"status"`
	ClientID       string          `json:"clientId"                 db:"client_id"`
	AssignedTo     *string         `json:"assignedTo,omitempty"     db:"assigned_to"`
	Milestones     []Milestone     `json:"milestones"               db:"milestones"`
	Version        int64           `json:"version"                  db:"version"`
	CreatedAt      time.Time       `json:"createdAt"                db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt"                db:"updated_at"`
	ApplicationIDs []string        `json:"applicationIds,omitempty" db:"-"`
}

// Milestone returns a pointer into j.Milestones for id, or nil.
func (j *Job) Milestone(id string) *Milestone {
	for i := range j.Milestones {
		if j.Milestones[i].ID == id {
			return &j.Milestones[i]
		}
	}
	return nil
}

// IsAssignedTo reports whether userID is the assigned talent.
func (j *Job) IsAssignedTo(userID string) bool {
	return j.AssignedTo != nil && *j.AssignedTo == userID
}

// AssigneeConsistent reports whether assignedTo is set exactly when the status requires it.
func (j *Job) AssigneeConsistent() bool {
	return (j.AssignedTo != nil) == j.Status.HasAssignee()
}

// MilestonesSettled reports whether every milestone is released or cancelled.
func (j *Job) MilestonesSettled() bool {
	for i := range j.Milestones {
		if !j.Milestones[i].Status.Terminal() {
			return false
		}
	}
	return true
}

// JobListOptions controls filtering for listing jobs. ClientID, AssignedTo
// and IncludePublished are alternatives: a job matches when any of them does.
// Status narrows the result further.
type JobListOptions struct {
	ClientID         *string
	AssignedTo       *string
	IncludePublished bool
	Status           *JobStatus
	Limit            int
	Offset           int
}

// CreateJobRequest represents parameters to create a Job.
type CreateJobRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Budget      decimal.Decimal `json:"budget"`
	Publish     bool            `json:"publish"`
}

// Validate validates CreateJobRequest.
func (r *CreateJobRequest) Validate() error {
	if err := validateJobText(r.Title, r.Description); err != nil {
		return err
	}
	if !validAmount(r.Budget) {
		return errors.New("budget must be a positive amount with at most two decimal places")
	}
	return nil
}

// UpdateJobRequest represents parameters to update a Job.
type UpdateJobRequest struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Budget      *decimal.Decimal `json:"budget,omitempty"`
	Status      *JobStatus       `json:"status,omitempty"`
}

// HasUpdates reports whether any field is set.
func (r *UpdateJobRequest) HasUpdates() bool {
	return r.Title != nil || r.Description != nil || r.Budget != nil || r.Status != nil
}

// Validate validates UpdateJobRequest.
func (r *UpdateJobRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return errors.New("title cannot be empty")
	}
	if r.Title != nil && utf8.RuneCountInString(*r.Title) > maxJobTitleLen {
		return errors.New("title cannot exceed 200 characters")
	}
	if r.Description != nil && utf8.RuneCountInString(*r.Description) > maxJobDescriptionLen {
		return errors.New("description is too long")
	}
	if r.Budget != nil && !validAmount(*r.Budget) {
		return errors.New("budget must be a positive amount with at most two decimal places")
	}
	if r.Status != nil && !r.Status.Valid() {
		return errors.New("invalid status")
	}
	return nil
}

func validateJobText(title, description string) error {
	t := strings.TrimSpace(title)
	if t == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(t) > maxJobTitleLen {
		return errors.New("title cannot exceed 200 characters")
	}
	if utf8.RuneCountInString(description) > maxJobDescriptionLen {
		return errors.New("description is too long")
	}
	return nil
}

// ListJobsRequest is the caller-facing filter for listing jobs.
type ListJobsRequest struct {
	Status *JobStatus
	Limit  int
	Offset int
}
