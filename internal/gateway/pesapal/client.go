package pesapal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/okwareddevnest/eventpass/pkg/monitoring"
	"github.com/okwareddevnest/eventpass/pkg/utils"
)

// tokenSafetyMargin forces a refresh when the cached token has less remaining
// validity than this, so a request never goes out with a token about to die
// mid-flight.
const tokenSafetyMargin = 30 * time.Second

const statusFetchAttempts = 3

type ClientConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
}

// Client talks to the Pesapal v3 API. The bearer token is cached in-process
// and refreshed under a mutex, so concurrent callers hitting an expired token
// trigger exactly one refresh request.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string

	// mu guards token and tokenExpiry. Refresh happens while holding it,
	// which is what single-flights concurrent refreshes.
	mu          sync.Mutex
	token       string
	tokenExpiry time.Time

	hc     *http.Client
	logger *zap.Logger

	// now is swappable for expiry tests.
	now func() time.Time
}

func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:        cfg.BaseURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		hc: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

// AuthHeaders returns the headers for a signed gateway request, refreshing
// the cached token when it is absent or inside the safety margin. A refresh
// failure surfaces as ErrGatewayAuth; an expired token is never reused.
func (c *Client) AuthHeaders(ctx context.Context) (map[string]string, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"Authorization": "Bearer " + token,
		"Content-Type":  "application/json",
		"Accept":        "application/json",
	}, nil
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.tokenExpiry.Sub(c.now()) > tokenSafetyMargin {
		return c.token, nil
	}

	token, expiry, err := c.requestToken(ctx)
	if err != nil {
		c.token = ""
		return "", err
	}
	c.token = token
	c.tokenExpiry = expiry
	return token, nil
}

func (c *Client) requestToken(ctx context.Context) (string, time.Time, error) {
	started := c.now()
	body, _ := json.Marshal(map[string]string{
		"consumer_key":    c.consumerKey,
		"consumer_secret": c.consumerSecret,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/Auth/RequestToken", bytes.NewReader(body))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", utils.ErrGatewayAuth, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		monitoring.TrackGatewayRequest("auth", "error", c.now().Sub(started))
		return "", time.Time{}, fmt.Errorf("%w: %v", utils.ErrGatewayAuth, err)
	}
	defer resp.Body.Close()

	var reply tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		monitoring.TrackGatewayRequest("auth", "error", c.now().Sub(started))
		return "", time.Time{}, fmt.Errorf("%w: decode: %v", utils.ErrGatewayAuth, err)
	}
	if resp.StatusCode != http.StatusOK || reply.Token == "" || !reply.Error.empty() {
		monitoring.TrackGatewayRequest("auth", "rejected", c.now().Sub(started))
		return "", time.Time{}, fmt.Errorf("%w: status %d", utils.ErrGatewayAuth, resp.StatusCode)
	}

	expiry, err := time.Parse(time.RFC3339, reply.ExpiryDate)
	if err != nil {
		// Pesapal tokens are valid for 5 minutes; fall back to that when the
		// expiry date does not parse.
		expiry = c.now().Add(5 * time.Minute)
	}

	monitoring.TrackGatewayRequest("auth", "ok", c.now().Sub(started))
	return reply.Token, expiry, nil
}

// SubmitOrder registers a new order with the gateway. Never retried: a
// duplicate submission would create a second remote order.
func (c *Client) SubmitOrder(ctx context.Context, order OrderRequest) (*OrderResponse, error) {
	var reply OrderResponse
	if err := c.post(ctx, "submit_order", "/api/Transactions/SubmitOrderRequest", order, &reply); err != nil {
		return nil, err
	}
	if !reply.Error.empty() || reply.OrderTrackingID == "" {
		return nil, fmt.Errorf("%w: submit order rejected: %s", utils.ErrGatewayUnavailable, reply.errMessage())
	}
	return &reply, nil
}

// RegisterIPN registers the IPN callback URL. Never retried (mutating call).
func (c *Client) RegisterIPN(ctx context.Context, url string) (*IPNRegistration, error) {
	payload := map[string]string{
		"url":                   url,
		"ipn_notification_type": "POST",
	}
	var reply IPNRegistration
	if err := c.post(ctx, "register_ipn", "/api/URLSetup/RegisterIPN", payload, &reply); err != nil {
		return nil, err
	}
	if !reply.Error.empty() || reply.IPNID == "" {
		return nil, fmt.Errorf("%w: IPN registration rejected", utils.ErrGatewayUnavailable)
	}
	return &reply, nil
}

// GetTransactionStatus fetches the authoritative payment state. This is the
// one idempotent read in the contract, so it retries with backoff.
func (c *Client) GetTransactionStatus(ctx context.Context, orderTrackingID string) (*TransactionStatus, error) {
	var lastErr error
	backoff := 500 * time.Millisecond

	for attempt := 0; attempt < statusFetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", utils.ErrGatewayUnavailable, ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		status, err := c.fetchStatus(ctx, orderTrackingID)
		if err == nil {
			return status, nil
		}
		lastErr = err
		c.logger.Warn("gateway status fetch failed",
			zap.String("order_tracking_id", orderTrackingID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return nil, lastErr
}

func (c *Client) fetchStatus(ctx context.Context, orderTrackingID string) (*TransactionStatus, error) {
	started := c.now()
	headers, err := c.AuthHeaders(ctx)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/api/Transactions/GetTransactionStatus?orderTrackingId=" + orderTrackingID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrGatewayUnavailable, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		monitoring.TrackGatewayRequest("transaction_status", "error", c.now().Sub(started))
		return nil, fmt.Errorf("%w: %v", utils.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		monitoring.TrackGatewayRequest("transaction_status", "error", c.now().Sub(started))
		return nil, fmt.Errorf("%w: %v", utils.ErrGatewayUnavailable, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// Token invalidated server-side; drop the cache so the next attempt
		// refreshes.
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		monitoring.TrackGatewayRequest("transaction_status", "unauthorized", c.now().Sub(started))
		return nil, fmt.Errorf("%w: unauthorized", utils.ErrGatewayUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		monitoring.TrackGatewayRequest("transaction_status", "error", c.now().Sub(started))
		return nil, fmt.Errorf("%w: status %d", utils.ErrGatewayUnavailable, resp.StatusCode)
	}

	var status TransactionStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		monitoring.TrackGatewayRequest("transaction_status", "error", c.now().Sub(started))
		return nil, fmt.Errorf("%w: decode: %v", utils.ErrGatewayUnavailable, err)
	}
	if !status.Error.empty() {
		// An error envelope arrives with status_code 0, which would read as a
		// terminal failure. Keep the intent retryable instead.
		monitoring.TrackGatewayRequest("transaction_status", "rejected", c.now().Sub(started))
		return nil, fmt.Errorf("%w: %s", utils.ErrGatewayUnavailable, status.Error.Message)
	}
	status.Raw = raw

	monitoring.TrackGatewayRequest("transaction_status", "ok", c.now().Sub(started))
	return &status, nil
}

func (c *Client) post(ctx context.Context, op, path string, payload any, out any) error {
	started := c.now()
	headers, err := c.AuthHeaders(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", utils.ErrGatewayUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrGatewayUnavailable, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		monitoring.TrackGatewayRequest(op, "error", c.now().Sub(started))
		return fmt.Errorf("%w: %v", utils.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		monitoring.TrackGatewayRequest(op, "unauthorized", c.now().Sub(started))
		return fmt.Errorf("%w: unauthorized", utils.ErrGatewayUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		monitoring.TrackGatewayRequest(op, "error", c.now().Sub(started))
		return fmt.Errorf("%w: status %d", utils.ErrGatewayUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		monitoring.TrackGatewayRequest(op, "error", c.now().Sub(started))
		return fmt.Errorf("%w: decode: %v", utils.ErrGatewayUnavailable, err)
	}

	monitoring.TrackGatewayRequest(op, "ok", c.now().Sub(started))
	return nil
}

func (r *OrderResponse) errMessage() string {
	if r.Error == nil {
		return "unknown error"
	}
	return r.Error.Message
}
