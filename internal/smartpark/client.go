package smartpark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickrooney09/tiba-update-user/internal/logger"
	"github.com/patrickrooney09/tiba-update-user/internal/metrics"
)

const resultCodeOK = "0"

// Config carries the credential pair and the five fixed identification
// parameters attached to every SmartPark call. Built once at startup,
// immutable afterwards.
type Config struct {
	BaseURL      string
	APIUsername  string
	APIPassword  string
	FacilityCode string
	TerminalID   string
	ProviderID   string
	Username     string
	Password     string
	Timeout      time.Duration
}

// APIError is an application-level rejection from the provider: either a
// non-2xx HTTP status or a 200 carrying a non-zero result code. The raw
// response body rides along for diagnostics.
type APIError struct {
	Status      int
	RC          string
	Description string
	Body        string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("smartpark: request rejected (status %d, rc %q): %s", e.Status, e.RC, e.Description)
	}
	return fmt.Sprintf("smartpark: request rejected (status %d, rc %q)", e.Status, e.RC)
}

// Client wraps the SmartPark management API. A single attempt per call;
// retries, if ever wanted, belong to the caller.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a client around cfg. Passing a nil httpClient gets a
// plain client with cfg.Timeout applied.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// envelope is the result-code pair every SmartPark response embeds.
type envelope struct {
	RC          string `json:"RC"`
	Description string `json:"Description"`
}

type accessProfilesResponse struct {
	envelope
	AccessProfiles []AccessProfile `json:"AccessProfiles"`
}

type monthlyResponse struct {
	envelope
	Monthly
}

func (c *Client) GetAccessProfiles(ctx context.Context) ([]AccessProfile, error) {
	var resp accessProfilesResponse
	if err := c.do(ctx, http.MethodGet, "GetAccessProfileList", nil, &resp); err != nil {
		return nil, err
	}
	return resp.AccessProfiles, nil
}

func (c *Client) GetMonthlyDetails(ctx context.Context, monthlyID string) (*Monthly, error) {
	body := map[string]string{"MonthlyId": monthlyID}
	var resp monthlyResponse
	if err := c.do(ctx, http.MethodPost, "GetMonthlyDetails", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Monthly, nil
}

// UpdateMonthly submits a full replacement record. The provider echoes
// the persisted record back on success.
func (c *Client) UpdateMonthly(ctx context.Context, record MonthlyUpdate) (*Monthly, error) {
	var resp monthlyResponse
	if err := c.do(ctx, http.MethodPut, "UpdateMonthly", record, &resp); err != nil {
		return nil, err
	}
	return &resp.Monthly, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	reqURL := fmt.Sprintf("%s/%s?%s", strings.TrimRight(c.cfg.BaseURL, "/"), endpoint, c.query())

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("smartpark: marshal %s request: %w", endpoint, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("smartpark: build %s request: %w", endpoint, err)
	}
	req.SetBasicAuth(c.cfg.APIUsername, c.cfg.APIPassword)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordSmartParkCall(endpoint, "transport_error")
		return fmt.Errorf("smartpark: %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordSmartParkCall(endpoint, "transport_error")
		return fmt.Errorf("smartpark: read %s response: %w", endpoint, err)
	}

	// The provider signals failure through the embedded result code as
	// often as through the HTTP status, so both are checked.
	var env envelope
	_ = json.Unmarshal(raw, &env)

	httpOK := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !httpOK || (env.RC != "" && env.RC != resultCodeOK) {
		metrics.RecordSmartParkCall(endpoint, "rejected")
		logger.Error("smartpark request rejected",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"rc", env.RC,
		)
		return &APIError{
			Status:      resp.StatusCode,
			RC:          env.RC,
			Description: env.Description,
			Body:        string(raw),
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			metrics.RecordSmartParkCall(endpoint, "bad_body")
			return fmt.Errorf("smartpark: decode %s response: %w", endpoint, err)
		}
	}

	metrics.RecordSmartParkCall(endpoint, "ok")
	return nil
}

func (c *Client) query() string {
	params := url.Values{}
	params.Set("ver", "1")
	params.Set("facilityCode", c.cfg.FacilityCode)
	params.Set("terminalID", c.cfg.TerminalID)
	params.Set("providerID", c.cfg.ProviderID)
	params.Set("userName", c.cfg.Username)
	params.Set("password", c.cfg.Password)
	return params.Encode()
}

// IsAPIError reports whether err is a provider rejection as opposed to a
// transport-level failure.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
