package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/escrow-api/internal/domain/model"
)

type recordedRequest struct {
	Method         string
	Path           string
	IdempotencyKey string
	Form           map[string][]string
}

type fakeStripe struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeStripe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:         r.Method,
		Path:           r.URL.Path,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		Form:           r.PostForm,
	})
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	f.handler(w, r)
}

func (f *fakeStripe) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestProcessor(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Processor, *fakeStripe) {
	t.Helper()
	fake := &fakeStripe{handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	p, err := NewProcessor(Config{SecretKey: "sk_test_123", Timeout: 2 * time.Second, BaseURL: srv.URL})
	require.NoError(t, err)
	return p, fake
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestNewProcessor_RequiresKey(t *testing.T) {
	t.Parallel()
	_, err := NewProcessor(Config{})
	require.Error(t, err)
}

func TestProcessor_CreateHold(t *testing.T) {
	t.Parallel()

	p, fake := newTestProcessor(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"id":                "pi_123",
			"object":            "payment_intent",
			"amount":            5000,
			"amount_capturable": 0,
			"currency":          "usd",
			"status":            "requires_payment_method",
			"client_secret":     "pi_123_secret_abc",
			"metadata":          map[string]string{"jobId": "job-1"},
		})
	})

	hold, err := p.CreateHold(context.Background(), model.CreateHoldParams{
		Amount:         5000,
		Currency:       "usd",
		IdempotencyKey: "escrow:job-1:ms-1:deposit:hold:1",
		TransferGroup:  "job-1:ms-1",
		Metadata:       map[string]string{"jobId": "job-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", hold.ID)
	assert.Equal(t, "pi_123_secret_abc", hold.ClientSecret)
	assert.Equal(t, model.PaymentStatusPending, hold.Status)
	assert.Equal(t, int64(5000), hold.Amount)

	req := fake.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v1/payment_intents", req.Path)
	assert.Equal(t, "escrow:job-1:ms-1:deposit:hold:1", req.IdempotencyKey)
	assert.Equal(t, []string{"manual"}, req.Form["capture_method"])
	assert.Equal(t, []string{"5000"}, req.Form["amount"])
	assert.Equal(t, []string{"job-1:ms-1"}, req.Form["transfer_group"])
	assert.Equal(t, []string{"job-1"}, req.Form["metadata[jobId]"])
}

func TestProcessor_CaptureAndRetrieve(t *testing.T) {
	t.Parallel()

	p, fake := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		status := "requires_capture"
		if r.Method == http.MethodPost {
			status = "succeeded"
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"id":              "pi_9",
			"object":          "payment_intent",
			"amount":          45000,
			"amount_received": 45000,
			"currency":        "usd",
			"status":          status,
		})
	})

	hold, err := p.RetrieveHold(context.Background(), "pi_9")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRequiresCapture, hold.Status)
	assert.Equal(t, "/v1/payment_intents/pi_9", fake.last().Path)

	hold, err = p.CaptureHold(context.Background(), model.CaptureHoldParams{
		PaymentIntentID: "pi_9",
		IdempotencyKey:  "escrow:job-1:ms-1:remaining:capture:pi_9",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSucceeded, hold.Status)
	req := fake.last()
	assert.Equal(t, "/v1/payment_intents/pi_9/capture", req.Path)
	assert.Equal(t, "escrow:job-1:ms-1:remaining:capture:pi_9", req.IdempotencyKey)
}

func TestProcessor_CreateTransferAndAccount(t *testing.T) {
	t.Parallel()

	p, fake := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/transfers" {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"id":          "tr_1",
				"object":      "transfer",
				"amount":      50000,
				"currency":    "usd",
				"destination": "acct_1",
			})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"id":              "acct_1",
			"object":          "account",
			"charges_enabled": true,
			"payouts_enabled": true,
			"capabilities":    map[string]string{"transfers": "active"},
		})
	})

	acct, err := p.RetrieveAccount(context.Background(), "acct_1")
	require.NoError(t, err)
	assert.True(t, acct.PayoutsEnabled)
	assert.True(t, acct.TransfersActive)
	assert.Equal(t, "/v1/accounts/acct_1", fake.last().Path)

	tr, err := p.CreateTransfer(context.Background(), model.CreateTransferParams{
		Amount:         50000,
		Currency:       "usd",
		Destination:    "acct_1",
		TransferGroup:  "job-1:ms-1",
		IdempotencyKey: "escrow:job-1:ms-1:release:transfer:1",
	})
	require.NoError(t, err)
	assert.Equal(t, "tr_1", tr.ID)
	assert.Equal(t, "acct_1", tr.Destination)
	req := fake.last()
	assert.Equal(t, "escrow:job-1:ms-1:release:transfer:1", req.IdempotencyKey)
	assert.Equal(t, []string{"acct_1"}, req.Form["destination"])
}

func TestProcessor_ClassifiesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		errType   string
		code      string
		temporary bool
	}{
		{name: "card declined", status: http.StatusPaymentRequired, errType: "card_error", code: "card_declined"},
		{name: "insufficient balance", status: http.StatusBadRequest, errType: "invalid_request_error", code: "balance_insufficient"},
		{name: "rate limited", status: http.StatusTooManyRequests, errType: "invalid_request_error", code: "rate_limit", temporary: true},
		{name: "server error", status: http.StatusInternalServerError, errType: "api_error", temporary: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, _ := newTestProcessor(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, tt.status, map[string]any{
					"error": map[string]string{"type": tt.errType, "code": tt.code, "message": "boom"},
				})
			})

			_, err := p.CreateTransfer(context.Background(), model.CreateTransferParams{
				Amount: 100, Currency: "usd", Destination: "acct_1", IdempotencyKey: "k",
			})
			require.Error(t, err)
			var perr *model.ProcessorError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.code, perr.Code)
			assert.Equal(t, tt.status, perr.HTTPStatus)
			assert.Equal(t, tt.temporary, perr.Temporary)
			assert.Equal(t, "create transfer", perr.Op)
		})
	}
}

func TestHoldStatus(t *testing.T) {
	t.Parallel()
	assert.Equal(t, model.PaymentStatusPending, HoldStatus("requires_action"))
	assert.Equal(t, model.PaymentStatusPending, HoldStatus("processing"))
	assert.Equal(t, model.PaymentStatusRequiresCapture, HoldStatus("requires_capture"))
	assert.Equal(t, model.PaymentStatusSucceeded, HoldStatus("succeeded"))
	assert.Equal(t, model.PaymentStatusCanceled, HoldStatus("canceled"))
}
