package stripe

import (
	"errors"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/target/escrow-api/internal/core"
	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
)

// DefaultSignatureTolerance is the maximum age of a signed payload.
const DefaultSignatureTolerance = 5 * time.Minute

// WebhookVerifier checks Stripe-Signature headers.
type WebhookVerifier struct {
	secret    string
	tolerance time.Duration
}

var _ core.EventVerifier = (*WebhookVerifier)(nil)

// NewWebhookVerifier returns a verifier for the endpoint signing secret.
func NewWebhookVerifier(secret string, tolerance time.Duration) (*WebhookVerifier, error) {
	if secret == "" {
		return nil, errors.New("stripe: webhook secret is required")
	}
	if tolerance <= 0 {
		tolerance = DefaultSignatureTolerance
	}
	return &WebhookVerifier{secret: secret, tolerance: tolerance}, nil
}

// Verify authenticates payload and decodes the event envelope.
func (v *WebhookVerifier) Verify(payload []byte, signatureHeader string) (*model.ProcessorEvent, error) {
	if signatureHeader == "" {
		return nil, apperrors.WebhookVerification(errors.New("missing signature header"))
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, apperrors.WebhookVerification(err)
	}
	out := &model.ProcessorEvent{
		ID:       ev.ID,
		Type:     model.EventType(ev.Type),
		Account:  ev.Account,
		Created:  time.Unix(ev.Created, 0).UTC(),
		Livemode: ev.Livemode,
	}
	if ev.Data != nil {
		out.Object = ev.Data.Raw
	}
	return out, nil
}
