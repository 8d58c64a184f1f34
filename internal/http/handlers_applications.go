package httpx

import (
	"net/http"

	"github.com/target/escrow-api/internal/domain/model"
	"github.com/target/escrow-api/internal/service"
)

// ApplicationHandlers provides HTTP handlers for talent applications.
type ApplicationHandlers struct {
	Svc    *service.ApplicationService
	Errors *ErrorRenderer
}

// Apply handles POST /jobs/{jobId}/applications.
func (h *ApplicationHandlers) Apply(w http.ResponseWriter, r *http.Request) {
	var req model.CreateApplicationRequest
	if !DecodeOptionalJSON(w, r, &req) {
		return
	}

	app, err := h.Svc.Apply(r.Context(), IdentityFromContext(r.Context()), r.PathValue("jobId"), &req)
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusCreated, "Application submitted", app)
}

// ListForJob handles GET /jobs/{jobId}/applications.
func (h *ApplicationHandlers) ListForJob(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Svc.ListForJob(r.Context(), IdentityFromContext(r.Context()), r.PathValue("jobId"))
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, "", apps)
}

// Accept handles POST /applications/{applicationId}/accept.
func (h *ApplicationHandlers) Accept(w http.ResponseWriter, r *http.Request) {
	var req model.DecideApplicationRequest
	if !DecodeOptionalJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.Accept(r.Context(), IdentityFromContext(r.Context()), r.PathValue("applicationId"), &req)
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, "Application accepted", res)
}

// Reject handles POST /applications/{applicationId}/reject.
func (h *ApplicationHandlers) Reject(w http.ResponseWriter, r *http.Request) {
	var req model.DecideApplicationRequest
	if !DecodeOptionalJSON(w, r, &req) {
		return
	}

	app, err := h.Svc.Reject(r.Context(), IdentityFromContext(r.Context()), r.PathValue("applicationId"), &req)
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, "Application rejected", app)
}

// Withdraw handles DELETE /applications/{applicationId}.
func (h *ApplicationHandlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Withdraw(r.Context(), IdentityFromContext(r.Context()), r.PathValue("applicationId")); err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, "Application withdrawn", nil)
}
