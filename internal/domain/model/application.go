//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"time"
	"unicode/utf8"
)

const maxCoverLetterLen = 5000

// ApplicationStatus is the state of a talent's bid.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Application is a talent's bid on a Job. (JobID, TalentID) is unique.
type Application struct {
	ID          string            `json:"id"                    db:"id"`
	JobID       string            `json:"jobId"                 db:"job_id"`
	TalentID    string            `json:"talentId"              db:"talent_id"`
	CoverLetter string            `json:"coverLetter"           db:"cover_letter"`
	Status      ApplicationStatus `json:"status"                db:"status"`
	ClientNotes *string           `json:"clientNotes,omitempty" db:"client_notes"`
	CreatedAt   time.Time         `json:"createdAt"             db:"created_at"`
	UpdatedAt   time.Time         `json:"updatedAt"             db:"updated_at"`
}

// CreateApplicationRequest represents parameters to apply to a Job.
type CreateApplicationRequest struct {
	CoverLetter string `json:"coverLetter"`
}

// Validate validates CreateApplicationRequest.
func (r *CreateApplicationRequest) Validate() error {
	if utf8.RuneCountInString(r.CoverLetter) > maxCoverLetterLen {
		return errors.New("coverLetter is too long")
	}
	return nil
}

// DecideApplicationRequest carries the client's notes when accepting or rejecting.
type DecideApplicationRequest struct {
	ClientNotes *string `json:"clientNotes,omitempty"`
}

// AcceptApplicationParams groups inputs for the atomic accept operation.
type AcceptApplicationParams struct {
	JobID         string
	ApplicationID string
	TalentID      string
	ClientNotes   *string
	Now           time.Time
}

// AcceptResult is the job and application after an accept.
type AcceptResult struct {
	Job         *Job         `json:"job"`
	Application *Application `json:"application"`
}
