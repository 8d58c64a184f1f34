package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/escrow-api/internal/ports"
	"github.com/target/escrow-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs         *service.JobService
	Applications *service.ApplicationService
	Milestones   *service.MilestoneService
	Webhooks     *service.WebhookService
	Admin        *service.AdminService
	Verifier     ports.TokenVerifier
	// Optional: readiness probe target
	DB Pinger
	// Configuration
	IsDev  bool         // Exposes upstream error detail
	Logger *slog.Logger // Logger for HTTP errors (optional)
}

// NewRouter creates and configures the HTTP router wrapped in recovery and
// access logging.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errs := &ErrorRenderer{IsDev: services.IsDev, Logger: logger.With("component", "http")}
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.DB))

	authed := RequireAuth(services.Verifier)
	if services.Jobs != nil {
		registerJobRoutes(mux, authed, &JobHandlers{Svc: services.Jobs, Errors: errs})
	}
	if services.Applications != nil {
		registerApplicationRoutes(mux, authed, &ApplicationHandlers{Svc: services.Applications, Errors: errs})
	}
	if services.Milestones != nil {
		registerMilestoneRoutes(mux, authed, &MilestoneHandlers{Svc: services.Milestones, Errors: errs})
	}
	if services.Webhooks != nil {
		wh := &WebhookHandlers{Svc: services.Webhooks, Errors: errs}
		mux.Handle("POST /webhooks/processor", http.HandlerFunc(wh.HandleProcessorEvent))
	}
	if services.Admin != nil {
		registerAdminRoutes(mux, authed, &AdminHandlers{Svc: services.Admin, Errors: errs})
	}

	return Recover(logger)(Logging(logger)(mux))
}

func registerJobRoutes(mux *http.ServeMux, authed func(http.Handler) http.Handler, h *JobHandlers) {
	mux.Handle("POST /jobs", authed(http.HandlerFunc(h.CreateJob)))
	mux.Handle("GET /jobs", authed(http.HandlerFunc(h.ListJobs)))
	mux.Handle("GET /jobs/{jobId}", authed(http.HandlerFunc(h.GetJob)))
	mux.Handle("PATCH /jobs/{jobId}", authed(http.HandlerFunc(h.UpdateJob)))
	mux.Handle("DELETE /jobs/{jobId}", authed(http.HandlerFunc(h.DeleteJob)))
	mux.Handle("POST /jobs/{jobId}/complete", authed(http.HandlerFunc(h.CompleteJob)))
}

func registerApplicationRoutes(mux *http.ServeMux, authed func(http.Handler) http.Handler, h *ApplicationHandlers) {
	mux.Handle("POST /jobs/{jobId}/applications", authed(http.HandlerFunc(h.Apply)))
	mux.Handle("GET /jobs/{jobId}/applications", authed(http.HandlerFunc(h.ListForJob)))
	mux.Handle("POST /applications/{applicationId}/accept", authed(http.HandlerFunc(h.Accept)))
	mux.Handle("POST /applications/{applicationId}/reject", authed(http.HandlerFunc(h.Reject)))
	mux.Handle("DELETE /applications/{applicationId}", authed(http.HandlerFunc(h.Withdraw)))
}

func registerMilestoneRoutes(mux *http.ServeMux, authed func(http.Handler) http.Handler, h *MilestoneHandlers) {
	const base = "/jobs/{jobId}/milestones/{milestoneId}"
	mux.Handle("POST /jobs/{jobId}/milestones", authed(http.HandlerFunc(h.AddMilestone)))
	mux.Handle("GET "+base, authed(http.HandlerFunc(h.GetMilestone)))
	mux.Handle("PATCH "+base, authed(http.HandlerFunc(h.UpdateMilestone)))
	mux.Handle("POST "+base+"/start", authed(http.HandlerFunc(h.StartWork)))
	mux.Handle("POST "+base+"/complete", authed(http.HandlerFunc(h.CompleteWork)))
	mux.Handle("POST "+base+"/review", authed(http.HandlerFunc(h.Review)))
	mux.Handle("POST "+base+"/cancel", authed(http.HandlerFunc(h.CancelMilestone)))
	mux.Handle("POST "+base+"/release", authed(http.HandlerFunc(h.ReleaseFunds)))

	mux.Handle("POST /payment/milestone/intent", authed(http.HandlerFunc(h.CreatePaymentIntent)))
	mux.Handle("POST /payment/milestone/capture", authed(http.HandlerFunc(h.CapturePayment)))
}

func registerAdminRoutes(mux *http.ServeMux, authed func(http.Handler) http.Handler, h *AdminHandlers) {
	mux.Handle("POST /admin/jobs/{jobId}/milestones/{milestoneId}/release-funds",
		authed(http.HandlerFunc(h.ReleaseMilestoneFunds)))
	mux.Handle("GET /admin/milestones/stuck", authed(http.HandlerFunc(h.ListStuckMilestones)))
}
