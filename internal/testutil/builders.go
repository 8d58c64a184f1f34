// Package testutil provides database, redis and fixture helpers for escrow tests.
package testutil

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/target/escrow-api/internal/domain/model"
)

// JobBuilder provides a fluent interface for building model.Job fixtures.
type JobBuilder struct {
	job model.Job
}

// NewJob returns a published job owned by clientID with a 1000.00 budget.
func NewJob(clientID string) *JobBuilder {
	now := TestTime()
	return &JobBuilder{job: model.Job{
		ID:          uuid.NewString(),
		Title:       "Build a landing page",
		Description: "Responsive marketing page",
		Budget:      decimal.RequireFromString("1000.00"),
		Status:      model.JobStatusPublished,
		ClientID:    clientID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}}
}

// AssignedTo marks the job assigned to talentID.
func (b *JobBuilder) AssignedTo(talentID string) *JobBuilder {
	b.job.Status = model.JobStatusAssigned
	b.job.AssignedTo = &talentID
	return b
}

// WithStatus overrides the status.
func (b *JobBuilder) WithStatus(s model.JobStatus) *JobBuilder {
	b.job.Status = s
	return b
}

// WithMilestone appends m.
func (b *JobBuilder) WithMilestone(m model.Milestone) *JobBuilder {
	b.job.Milestones = append(b.job.Milestones, m)
	return b
}

// Build returns a copy of the job.
func (b *JobBuilder) Build() *model.Job {
	j := b.job
	j.Milestones = append([]model.Milestone(nil), b.job.Milestones...)
	return &j
}

// NewMilestone returns a milestone of amount in status with the default deposit.
func NewMilestone(amount string, status model.MilestoneStatus) model.Milestone {
	a := decimal.RequireFromString(amount)
	talent := model.TalentStatusNotStarted
	switch status {
	case model.MilestoneStatusInProgress:
		talent = model.TalentStatusInProgress
	case model.MilestoneStatusCompleted, model.MilestoneStatusEscrowed, model.MilestoneStatusReleased:
		talent = model.TalentStatusCompleted
	case model.MilestoneStatusPending, model.MilestoneStatusDepositPaid, model.MilestoneStatusCancelled:
	}
	return model.Milestone{
		ID:            uuid.NewString(),
		Description:   "Milestone",
		Amount:        a,
		DepositAmount: model.DefaultDeposit(a),
		Status:        status,
		TalentStatus:  talent,
		CreatedAt:     TestTime(),
	}
}

// NewPayment returns a ledger row for a hold on the milestone.
func NewPayment(jobID, milestoneID string, t model.PaymentType, amount string) *model.Payment {
	intent := "pi_" + uuid.NewString()[:12]
	return &model.Payment{
		PaymentIntentID: intent,
		IdempotencyKey:  "escrow:" + jobID + ":" + milestoneID + ":" + string(t) + ":hold:1",
		PaymentType:     t,
		JobID:           jobID,
		MilestoneID:     milestoneID,
		PayerID:         "client-1",
		PayeeID:         "talent-1",
		Amount:          decimal.RequireFromString(amount),
		Currency:        model.DefaultCurrency,
		Status:          model.PaymentStatusPending,
		CreatedAt:       TestTime(),
		UpdatedAt:       TestTime(),
	}
}
