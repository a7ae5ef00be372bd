package pesapal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/pkg/utils"
)

type gatewayStub struct {
	mu             sync.Mutex
	authCalls      int
	statusCalls    int
	submitCalls    int
	failStatusLeft int
	errorReplyLeft int
	statusCode     int
	tokenExpiry    time.Time
}

func newGatewayStub() *gatewayStub {
	return &gatewayStub{statusCode: StatusCodeCompleted}
}

func (g *gatewayStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/Auth/RequestToken", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.authCalls++
		expiry := g.tokenExpiry
		g.mu.Unlock()
		if expiry.IsZero() {
			expiry = time.Now().Add(5 * time.Minute)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"token":      "tok-abc",
			"expiryDate": expiry.Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/api/Transactions/GetTransactionStatus", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.statusCalls++
		fail := g.failStatusLeft > 0
		if fail {
			g.failStatusLeft--
		}
		errorReply := g.errorReplyLeft > 0
		if errorReply {
			g.errorReplyLeft--
		}
		code := g.statusCode
		g.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if errorReply {
			// HTTP 200 with an error envelope and a zero status_code.
			json.NewEncoder(w).Encode(map[string]any{
				"status_code": 0,
				"error":       map[string]string{"code": "500", "message": "unable to process request"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status_code":                code,
			"payment_status_description": "Completed",
			"confirmation_code":          "QJX777",
			"merchant_reference":         r.URL.Query().Get("orderTrackingId"),
		})
	})
	mux.HandleFunc("/api/Transactions/SubmitOrderRequest", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.submitCalls++
		g.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{
			"order_tracking_id":  "trk-remote-1",
			"merchant_reference": "TKT-1",
			"redirect_url":       "https://pay.example.com/trk-remote-1",
		})
	})
	mux.HandleFunc("/api/URLSetup/RegisterIPN", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"ipn_id": "ipn-777",
			"url":    "https://tickets.example.com/payments/ipn",
		})
	})
	return mux
}

func newTestClient(t *testing.T, stub *gatewayStub) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)
	client := NewClient(ClientConfig{
		BaseURL:        srv.URL,
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
	}, zap.NewNop())
	return client, srv
}

func TestTokenIsCachedAcrossCalls(t *testing.T) {
	stub := newGatewayStub()
	client, _ := newTestClient(t, stub)
	ctx := context.Background()

	_, err := client.GetTransactionStatus(ctx, "trk-1")
	require.NoError(t, err)
	_, err = client.GetTransactionStatus(ctx, "trk-2")
	require.NoError(t, err)

	assert.Equal(t, 1, stub.authCalls, "token fetched once")
	assert.Equal(t, 2, stub.statusCalls)
}

func TestTokenRefreshInsideSafetyMargin(t *testing.T) {
	stub := newGatewayStub()
	client, _ := newTestClient(t, stub)
	ctx := context.Background()

	_, err := client.GetTransactionStatus(ctx, "trk-1")
	require.NoError(t, err)
	require.Equal(t, 1, stub.authCalls)

	// Move the clock to 10s before expiry, inside the 30s margin.
	client.mu.Lock()
	expiry := client.tokenExpiry
	client.mu.Unlock()
	client.now = func() time.Time { return expiry.Add(-10 * time.Second) }

	_, err = client.GetTransactionStatus(ctx, "trk-2")
	require.NoError(t, err)
	assert.Equal(t, 2, stub.authCalls, "token refreshed before it could expire mid-flight")
}

func TestConcurrentCallsSingleTokenFetch(t *testing.T) {
	stub := newGatewayStub()
	client, _ := newTestClient(t, stub)

	var wg sync.WaitGroup
	var failures int64
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.GetTransactionStatus(context.Background(), "trk-c"); err != nil {
				atomic.AddInt64(&failures, 1)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, failures)
	assert.Equal(t, 1, stub.authCalls, "concurrent callers share one refresh")
}

func TestGetTransactionStatusRetries(t *testing.T) {
	stub := newGatewayStub()
	stub.failStatusLeft = 2
	client, _ := newTestClient(t, stub)

	status, err := client.GetTransactionStatus(context.Background(), "trk-retry")
	require.NoError(t, err)
	assert.Equal(t, StatusCodeCompleted, status.StatusCode)
	assert.Equal(t, "QJX777", status.ConfirmationCode)
	assert.NotEmpty(t, status.Raw)
	assert.Equal(t, 3, stub.statusCalls, "two failures then success")
}

func TestStatusErrorEnvelopeIsRetried(t *testing.T) {
	stub := newGatewayStub()
	stub.errorReplyLeft = 1
	client, _ := newTestClient(t, stub)

	status, err := client.GetTransactionStatus(context.Background(), "trk-env")
	require.NoError(t, err)
	assert.Equal(t, StatusCodeCompleted, status.StatusCode)
	assert.Equal(t, 2, stub.statusCalls, "envelope retried, then the real status")
}

func TestStatusErrorEnvelopeNeverReadsAsFailed(t *testing.T) {
	stub := newGatewayStub()
	stub.errorReplyLeft = 10
	client, _ := newTestClient(t, stub)

	_, err := client.GetTransactionStatus(context.Background(), "trk-env-down")
	assert.ErrorIs(t, err, utils.ErrGatewayUnavailable)
	assert.Equal(t, 3, stub.statusCalls)
}

func TestGetTransactionStatusGivesUpAfterAttempts(t *testing.T) {
	stub := newGatewayStub()
	stub.failStatusLeft = 10
	client, _ := newTestClient(t, stub)

	_, err := client.GetTransactionStatus(context.Background(), "trk-down")
	assert.ErrorIs(t, err, utils.ErrGatewayUnavailable)
	assert.Equal(t, 3, stub.statusCalls, "bounded attempts")
}

func TestSubmitOrderIsNeverRetried(t *testing.T) {
	var submitCalls int64
	countingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/Auth/RequestToken" {
			json.NewEncoder(w).Encode(map[string]string{"token": "tok", "expiryDate": time.Now().Add(time.Hour).Format(time.RFC3339)})
			return
		}
		atomic.AddInt64(&submitCalls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer countingSrv.Close()

	client := NewClient(ClientConfig{BaseURL: countingSrv.URL, ConsumerKey: "k", ConsumerSecret: "s"}, zap.NewNop())
	_, err := client.SubmitOrder(context.Background(), OrderRequest{
		ID:       "TKT-1",
		Currency: "KES",
		Amount:   decimal.NewFromInt(1000),
	})
	assert.ErrorIs(t, err, utils.ErrGatewayUnavailable)
	assert.Equal(t, int64(1), atomic.LoadInt64(&submitCalls), "mutating call goes out once")
}

func TestUnauthorizedClearsCachedToken(t *testing.T) {
	var authCalls int64
	var statusUnauthorized atomic.Bool
	statusUnauthorized.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/Auth/RequestToken" {
			atomic.AddInt64(&authCalls, 1)
			json.NewEncoder(w).Encode(map[string]string{"token": "tok", "expiryDate": time.Now().Add(time.Hour).Format(time.RFC3339)})
			return
		}
		if statusUnauthorized.Load() {
			statusUnauthorized.Store(false)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"status_code": 1, "payment_status_description": "Completed"})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, ConsumerKey: "k", ConsumerSecret: "s"}, zap.NewNop())
	status, err := client.GetTransactionStatus(context.Background(), "trk-401")
	require.NoError(t, err)
	assert.Equal(t, StatusCodeCompleted, status.StatusCode)
	assert.Equal(t, int64(2), atomic.LoadInt64(&authCalls), "401 dropped the cache, retry re-authenticated")
}

func TestAuthFailureSurfacesAsGatewayAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"code": "invalid_consumer_key", "message": "bad key"}})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, ConsumerKey: "bad", ConsumerSecret: "bad"}, zap.NewNop())
	_, err := client.SubmitOrder(context.Background(), OrderRequest{ID: "TKT-1"})
	assert.ErrorIs(t, err, utils.ErrGatewayAuth)
}

func TestRegisterIPN(t *testing.T) {
	stub := newGatewayStub()
	client, _ := newTestClient(t, stub)

	reg, err := client.RegisterIPN(context.Background(), "https://tickets.example.com/payments/ipn")
	require.NoError(t, err)
	assert.Equal(t, "ipn-777", reg.IPNID)
}
