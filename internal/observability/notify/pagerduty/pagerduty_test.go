package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/escrow-api/internal/observability/notify"
)

func TestNewClientRequiresRoutingKey(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{RoutingKey: " "})
	require.Error(t, err)
}

func TestEventShape(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{RoutingKey: "rk"})
	require.NoError(t, err)

	ev := c.event(notify.PaymentFailurePayload{
		Kind:        notify.KindStuckMilestone,
		JobID:       "job-1",
		MilestoneID: "ms-1",
		Amount:      "250.00",
		Currency:    "usd",
		Severity:    "bogus",
		OccurredAt:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Metadata:    map[string]string{"job_id": "overridden", "livemode": "true"},
	})

	assert.Equal(t, "rk", ev.RoutingKey)
	assert.Equal(t, "trigger", ev.EventAction)
	assert.Equal(t, "stuck_milestone:job-1:ms-1", ev.DedupKey)
	assert.Equal(t, "Escrow stuck_milestone on job job-1 milestone ms-1 (250.00 USD)", ev.Payload.Summary)
	assert.Equal(t, notify.SeverityCritical, ev.Payload.Severity)
	assert.Equal(t, "escrow-api", ev.Payload.Source)
	assert.Equal(t, "payments", ev.Payload.Component)
	assert.Equal(t, "2026-05-01T00:00:00Z", ev.Payload.Timestamp)
	assert.Equal(t, "job-1", ev.Payload.CustomDetails["job_id"])
	assert.Equal(t, "true", ev.Payload.CustomDetails["livemode"])
	assert.NotContains(t, ev.Payload.CustomDetails, "transfer_id")
}

func TestAccountSummary(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{RoutingKey: "rk"})
	require.NoError(t, err)

	ev := c.event(notify.PaymentFailurePayload{Kind: notify.KindAccountRevoked, AccountID: "acct_1", Severity: "warning"})
	assert.Equal(t, "Escrow account_deauthorized for account acct_1", ev.Payload.Summary)
	assert.Equal(t, "warning", ev.Payload.Severity)
}

func TestSendPaymentFailure(t *testing.T) {
	t.Parallel()

	var got event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{RoutingKey: "rk", Endpoint: srv.URL, Client: srv.Client()})
	require.NoError(t, err)
	require.NoError(t, c.SendPaymentFailure(context.Background(), notify.PaymentFailurePayload{Kind: notify.KindPayoutFailed}))
	assert.Equal(t, "payout_failed", got.Payload.Class)
}
