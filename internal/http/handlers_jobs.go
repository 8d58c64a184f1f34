// Package httpx provides the JSON HTTP surface of the escrow API.
package httpx

import (
	"net/http"

	"github.com/target/escrow-api/internal/domain/model"
	"github.com/target/escrow-api/internal/service"
)

// JobHandlers provides HTTP handlers for job-related operations.
type JobHandlers struct {
	Svc    *service.JobService
	Errors *ErrorRenderer
}

// CreateJob handles POST /jobs.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req model.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.CreateJob(r.Context(), IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusCreated, "Job created", job)
}

// ListJobs handles GET /jobs?status=&limit=&offset=.
func (h *JobHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	req, err := listJobsQuery(r)
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}

	jobs, err := h.Svc.ListJobs(r.Context(), IdentityFromContext(r.Context()), req)
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, "", jobs)
}

// GetJob handles GET /jobs/{jobId}.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.GetJob(r.Context(), IdentityFromContext(r.Context()), r.PathValue("jobId"))
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, "", job)
}

// UpdateJob handles PATCH /jobs/{jobId}.
func (h *JobHandlers) UpdateJob(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.UpdateJob(r.Context(), IdentityFromContext(r.Context()), r.PathValue("jobId"), &req)
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, "Job updated", job)
}

// DeleteJob handles DELETE /jobs/{jobId}.
func (h *JobHandlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteJob(r.Context(), IdentityFromContext(r.Context()), r.PathValue("jobId")); err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, "Job deleted", nil)
}

// CompleteJob handles POST /jobs/{jobId}/complete.
func (h *JobHandlers) CompleteJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.CompleteJob(r.Context(), IdentityFromContext(r.Context()), r.PathValue("jobId"))
	if err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, "Job completed", job)
}
