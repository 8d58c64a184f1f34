package httpx

import (
	"net/http"

	"github.com/target/escrow-api/internal/domain/model"
	"github.com/target/escrow-api/internal/service"
)

// MilestoneHandlers provides HTTP handlers for the milestone lifecycle and
// the payment endpoints that drive it.
type MilestoneHandlers struct {
	Svc    *service.MilestoneService
	Errors *ErrorRenderer
}

type milestoneAction func(r *http.Request, jobID, milestoneID string) (any, error)

// run resolves the path ids, invokes fn and writes the result.
func (h *MilestoneHandlers) run(w http.ResponseWriter, r *http.Request, message string, fn milestoneAction) {
	out, err := fn(r, r.PathValue("jobId"), r.PathValue("milestoneId"))
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, message, out)
}

// AddMilestone handles POST /jobs/{jobId}/milestones.
func (h *MilestoneHandlers) AddMilestone(w http.ResponseWriter, r *http.Request) {
	var req model.AddMilestoneRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	m, err := h.Svc.AddMilestone(r.Context(), IdentityFromContext(r.Context()), r.PathValue("jobId"), &req)
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusCreated, "Milestone added", m)
}

// GetMilestone handles GET /jobs/{jobId}/milestones/{milestoneId}.
func (h *MilestoneHandlers) GetMilestone(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "", func(r *http.Request, jobID, milestoneID string) (any, error) {
		return h.Svc.GetMilestone(r.Context(), IdentityFromContext(r.Context()), jobID, milestoneID)
	})
}

// UpdateMilestone handles PATCH /jobs/{jobId}/milestones/{milestoneId}.
func (h *MilestoneHandlers) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateMilestoneRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	h.run(w, r, "Milestone updated", func(r *http.Request, jobID, milestoneID string) (any, error) {
		return h.Svc.UpdateMilestone(r.Context(), IdentityFromContext(r.Context()), jobID, milestoneID, &req)
	})
}

// StartWork handles POST /jobs/{jobId}/milestones/{milestoneId}/start.
func (h *MilestoneHandlers) StartWork(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "Work started", func(r *http.Request, jobID, milestoneID string) (any, error) {
		return h.Svc.StartWork(r.Context(), IdentityFromContext(r.Context()), jobID, milestoneID)
	})
}

// CompleteWork handles POST /jobs/{jobId}/milestones/{milestoneId}/complete.
func (h *MilestoneHandlers) CompleteWork(w http.ResponseWriter, r *http.Request) {
	var req model.CompleteWorkRequest
	if !DecodeOptionalJSON(w, r, &req) {
		return
	}
	h.run(w, r, "Work submitted for review", func(r *http.Request, jobID, milestoneID string) (any, error) {
		return h.Svc.CompleteWork(r.Context(), IdentityFromContext(r.Context()), jobID, milestoneID, &req)
	})
}

// Review handles POST /jobs/{jobId}/milestones/{milestoneId}/review.
func (h *MilestoneHandlers) Review(w http.ResponseWriter, r *http.Request) {
	var req model.ReviewRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	h.run(w, r, "Review recorded", func(r *http.Request, jobID, milestoneID string) (any, error) {
		return h.Svc.Review(r.Context(), IdentityFromContext(r.Context()), jobID, milestoneID, &req)
	})
}

// CancelMilestone handles POST /jobs/{jobId}/milestones/{milestoneId}/cancel.
func (h *MilestoneHandlers) CancelMilestone(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "Milestone cancelled", func(r *http.Request, jobID, milestoneID string) (any, error) {
		return h.Svc.CancelMilestone(r.Context(), IdentityFromContext(r.Context()), jobID, milestoneID)
	})
}

// ReleaseFunds handles POST /jobs/{jobId}/milestones/{milestoneId}/release.
func (h *MilestoneHandlers) ReleaseFunds(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "Funds released", func(r *http.Request, jobID, milestoneID string) (any, error) {
		return h.Svc.ReleaseFunds(r.Context(), IdentityFromContext(r.Context()), jobID, milestoneID)
	})
}

// CreatePaymentIntent handles POST /payment/milestone/intent.
func (h *MilestoneHandlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateHoldIntentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.CreateHold(r.Context(), IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	WriteData(w, status, "Payment intent ready", res)
}

// CapturePayment handles POST /payment/milestone/capture.
func (h *MilestoneHandlers) CapturePayment(w http.ResponseWriter, r *http.Request) {
	var req model.CapturePaymentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.CaptureHold(r.Context(), IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, "Payment captured", res)
}
