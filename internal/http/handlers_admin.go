package httpx

import (
	"net/http"

	"github.com/target/escrow-api/internal/service"
)

// AdminHandlers exposes the operator override endpoints.
type AdminHandlers struct {
	Svc    *service.AdminService
	Errors *ErrorRenderer
}

// ReleaseMilestoneFunds handles POST /admin/jobs/{jobId}/milestones/{milestoneId}/release-funds.
func (h *AdminHandlers) ReleaseMilestoneFunds(w http.ResponseWriter, r *http.Request) {
	m, err := h.Svc.ReleaseMilestoneFunds(r.Context(), IdentityFromContext(r.Context()),
		r.PathValue("jobId"), r.PathValue("milestoneId"))
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, "Funds released", m)
}

// ListStuckMilestones handles GET /admin/milestones/stuck.
func (h *AdminHandlers) ListStuckMilestones(w http.ResponseWriter, r *http.Request) {
	stuck, err := h.Svc.ListStuckMilestones(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, "", stuck)
}
