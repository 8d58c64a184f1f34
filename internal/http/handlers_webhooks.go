package httpx

import (
	"errors"
	"io"
	"net/http"

	"github.com/target/escrow-api/internal/service"
)

// HeaderStripeSignature carries the processor's webhook signature.
const HeaderStripeSignature = "Stripe-Signature"

// WebhookHandlers receives processor event deliveries.
type WebhookHandlers struct {
	Svc    *service.WebhookService
	Errors *ErrorRenderer
}

// HandleProcessorEvent handles POST /webhooks/processor. The raw body is read
// whole since the signature covers the exact bytes.
func (h *WebhookHandlers) HandleProcessorEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_body", Err: err})
		return
	}
	if len(body) > MaxBodyBytes {
		WriteError(w, ErrorParams{
			Code:    http.StatusRequestEntityTooLarge,
			ErrCode: "body_too_large",
			Err:     errors.New("webhook payload exceeds 1 MiB"),
		})
		return
	}

	if err := h.Svc.HandleEvent(r.Context(), body, r.Header.Get(HeaderStripeSignature)); err != nil {
		h.Errors.Render(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, Response{Success: true, Data: map[string]bool{"received": true}})
}
