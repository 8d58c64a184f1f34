package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hi", body["text"])
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	d := Delivery{Name: "test", URL: srv.URL, Client: srv.Client(), Attempts: 3, Backoff: time.Millisecond}
	require.NoError(t, d.PostJSON(context.Background(), map[string]string{"text": "hi"}))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeliveryDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	d := Delivery{Name: "slack", URL: srv.URL, Client: srv.Client(), Attempts: 5, Backoff: time.Millisecond}
	err := d.PostJSON(context.Background(), struct{}{})
	require.ErrorContains(t, err, "slack: 403")
	require.ErrorContains(t, err, "invalid_token")
	assert.Equal(t, int32(1), calls.Load())
}

func TestDeliveryStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	d := Delivery{Name: "pd", URL: srv.URL, Client: srv.Client(), Attempts: 3, Backoff: time.Hour}
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	require.ErrorIs(t, d.PostJSON(ctx, struct{}{}), context.Canceled)
}

func TestPayloadHelpers(t *testing.T) {
	t.Parallel()

	p := PaymentFailurePayload{Kind: KindStuckMilestone, JobID: "job-1", MilestoneID: "ms-2", Amount: "12.50", Currency: "usd"}
	assert.Equal(t, "stuck_milestone:job-1:ms-2", p.DedupKey())
	assert.Equal(t, "12.50 USD", p.Money())

	revoked := PaymentFailurePayload{Kind: KindAccountRevoked, AccountID: "acct_9"}
	assert.Equal(t, "account_deauthorized:acct_9", revoked.DedupKey())
	assert.Empty(t, revoked.Money())
}
