package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// HTTPClient is the production Client implementation: typed requests over
// net/http with per-credential auth headers and bounded retries on 429/5xx
// and socket timeouts.
type HTTPClient struct {
	baseURL       string
	hc            *http.Client
	retryAttempts int
	retryBase     time.Duration
}

// NewHTTPClient constructs an HTTPClient. timeout bounds each individual
// attempt (HTTP_TIMEOUT_MS); retryAttempts/retryBase configure the retry
// policy (HTTP_RETRY_ATTEMPTS/HTTP_RETRY_BASE_MS).
func NewHTTPClient(baseURL string, timeout time.Duration, retryAttempts int, retryBase time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		hc:            &http.Client{Timeout: timeout},
		retryAttempts: retryAttempts,
		retryBase:     retryBase,
	}
}

var _ Client = (*HTTPClient)(nil)

// apiError is a non-retryable HTTP failure surfaced verbatim.
type apiError struct {
	status int
	code   int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("marketplace: http %d (code=%d): %s", e.status, e.code, e.body)
}

// codeEnvelope captures the "code" field present on most error bodies
// without requiring a full schema per endpoint.
type codeEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *HTTPClient) do(ctx context.Context, endpoint string, creds Credentials, reqBody, respBody any, draftInfoCall bool) error {
	var payload []byte
	var err error
	if reqBody != nil {
		payload, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marketplace: marshal request: %w", err)
		}
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.retryBase
	expo.Multiplier = 1 // fixed base delay, not exponential growth
	expo.RandomizationFactor = 0
	expo.MaxElapsedTime = 0
	bo := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(maxInt(c.retryAttempts-1, 0))), ctx)

	var rawResp []byte
	var statusCode int
	op := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("marketplace: build request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Client-Id", creds.ClientID)
		httpReq.Header.Set("Api-Key", creds.APIKey)

		resp, err := c.hc.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			log.Warn().Err(err).Str("endpoint", endpoint).Msg("marketplace request transport error, retrying")
			return err // socket timeout / connection error: retryable
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("marketplace: read response body: %w", readErr)
		}
		statusCode = resp.StatusCode

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			rawResp = body
			return nil
		}

		var env codeEnvelope
		_ = json.Unmarshal(body, &env)

		if resp.StatusCode == http.StatusForbidden && (env.Code == 7 || strings.Contains(string(body), "api-key is deactivated")) {
			return backoff.Permanent(ErrCredentialsRevoked)
		}
		if draftInfoCall && resp.StatusCode == http.StatusNotFound && env.Code == 5 {
			return backoff.Permanent(ErrDraftExpired)
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			log.Warn().Int("status", resp.StatusCode).Str("endpoint", endpoint).Msg("marketplace transient error, retrying")
			return &apiError{status: resp.StatusCode, code: env.Code, body: string(body)}
		}
		return backoff.Permanent(&apiError{status: resp.StatusCode, code: env.Code, body: string(body)})
	}

	// backoff.Retry unwraps a backoff.Permanent error to its cause before
	// returning, so by this point err is already either a sentinel (
	// ErrCredentialsRevoked, ErrDraftExpired), an *apiError, or ctx.Err().
	if err := backoff.Retry(op, bo); err != nil {
		return fmt.Errorf("marketplace: %s failed (last status %d): %w", endpoint, statusCode, err)
	}

	if respBody != nil && len(rawResp) > 0 {
		if err := json.Unmarshal(rawResp, respBody); err != nil {
			return fmt.Errorf("marketplace: unmarshal %s response: %w", endpoint, err)
		}
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (c *HTTPClient) CreateDraft(ctx context.Context, creds Credentials, req CreateDraftRequest) (CreateDraftResponse, error) {
	var resp CreateDraftResponse
	err := c.do(ctx, "/v1/draft/create", creds, req, &resp, false)
	return resp, err
}

func (c *HTTPClient) DraftInfo(ctx context.Context, creds Credentials, operationID string) (DraftInfoResponse, error) {
	var resp DraftInfoResponse
	err := c.do(ctx, "/v1/draft/create/info", creds, map[string]string{"operation_id": operationID}, &resp, true)
	return resp, err
}

func (c *HTTPClient) DraftTimeslots(ctx context.Context, creds Credentials, req DraftTimeslotInfoRequest) (DraftTimeslotInfoResponse, error) {
	var resp DraftTimeslotInfoResponse
	err := c.do(ctx, "/v1/draft/timeslot/info", creds, req, &resp, false)
	return resp, err
}

func (c *HTTPClient) CreateSupply(ctx context.Context, creds Credentials, req CreateSupplyRequest) (CreateSupplyResponse, error) {
	var resp CreateSupplyResponse
	err := c.do(ctx, "/v1/draft/supply/create", creds, req, &resp, false)
	return resp, err
}

func (c *HTTPClient) SupplyStatus(ctx context.Context, creds Credentials, operationID string) (SupplyStatusResponse, error) {
	var resp SupplyStatusResponse
	err := c.do(ctx, "/v1/draft/supply/create/status", creds, map[string]string{"operation_id": operationID}, &resp, false)
	return resp, err
}

func (c *HTTPClient) CancelSupply(ctx context.Context, creds Credentials, orderID int64) (CancelSupplyResponse, error) {
	var resp CancelSupplyResponse
	err := c.do(ctx, "/v1/supply-order/cancel", creds, map[string]int64{"order_id": orderID}, &resp, false)
	return resp, err
}

func (c *HTTPClient) CancelStatus(ctx context.Context, creds Credentials, operationID string) (CancelStatusResponse, error) {
	var resp CancelStatusResponse
	err := c.do(ctx, "/v1/supply-order/cancel/status", creds, map[string]string{"operation_id": operationID}, &resp, false)
	return resp, err
}

func (c *HTTPClient) ListClusters(ctx context.Context, creds Credentials, clusterIDs []string, clusterType string) (ListClustersResponse, error) {
	var resp ListClustersResponse
	err := c.do(ctx, "/v1/cluster/list", creds, map[string]any{
		"cluster_ids":  clusterIDs,
		"cluster_type": clusterType,
	}, &resp, false)
	return resp, err
}

func (c *HTTPClient) SearchDropOffs(ctx context.Context, creds Credentials, filterBySupplyType string, search string) (SearchDropOffsResponse, error) {
	var resp SearchDropOffsResponse
	err := c.do(ctx, "/v1/warehouse/fbo/list", creds, map[string]any{
		"filter_by_supply_type": filterBySupplyType,
		"search":                search,
	}, &resp, false)
	return resp, err
}

func (c *HTTPClient) ResolveOffersToSKUs(ctx context.Context, creds Credentials, offerIDs []string) (ResolveOffersResponse, error) {
	var resp ResolveOffersResponse
	err := c.do(ctx, "/v3/product/info/list", creds, map[string]any{
		"offer_id": offerIDs,
	}, &resp, false)
	return resp, err
}
