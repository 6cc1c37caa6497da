package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/carelink/clinic-alerts/pkg/config"
	"github.com/carelink/clinic-alerts/pkg/logger"
	"github.com/carelink/clinic-alerts/pkg/monitoring"
	"github.com/carelink/clinic-alerts/pkg/types"
)

// requestIDHeader carries the inbound request id through to the
// registry so both sides of a failed call can be correlated
const requestIDHeader = "X-Request-ID"

type contextKey string

// RequestIDKey is the context key under which handlers stash the
// inbound request id
const RequestIDKey contextKey = "request_id"

// Client is the HTTP client for the alert registry and the patient
// directory. Retries are off unless configured; mutations are not
// assumed idempotent registry-side.
type Client struct {
	baseURL        string
	patientBaseURL string
	http           *retryablehttp.Client
	logger         *logger.Logger
	metrics        *monitoring.MetricsCollector
}

// errorEnvelope is the registry's error response body
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a registry client from configuration
func NewClient(cfg config.RegistryConfig, log *logger.Logger, metrics *monitoring.MetricsCollector) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.HTTPClient.Timeout = time.Duration(cfg.RequestTimeout) * time.Second
	rc.Logger = nil

	patientBase := cfg.PatientBaseURL
	if patientBase == "" {
		patientBase = cfg.BaseURL
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		patientBaseURL: patientBase,
		http:           rc,
		logger:         log,
		metrics:        metrics,
	}
}

// ListHolds fetches the full dosing hold collection
func (c *Client) ListHolds(ctx context.Context) ([]*types.DosingHold, error) {
	var holds []*types.DosingHold
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/holds", "holds", nil, &holds); err != nil {
		return nil, err
	}
	return holds, nil
}

// CreateHold persists a new dosing hold
func (c *Client) CreateHold(ctx context.Context, hold *types.DosingHold) (*types.DosingHold, error) {
	var created types.DosingHold
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/holds", "holds", hold, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateHold applies a partial update to an existing hold
func (c *Client) UpdateHold(ctx context.Context, holdID string, update *types.HoldUpdate) (*types.DosingHold, error) {
	var updated types.DosingHold
	url := fmt.Sprintf("%s/holds/%s", c.baseURL, holdID)
	if err := c.do(ctx, http.MethodPut, url, "holds", update, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListPrecautions fetches the full precaution collection
func (c *Client) ListPrecautions(ctx context.Context) ([]*types.PatientPrecaution, error) {
	var precautions []*types.PatientPrecaution
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/precautions", "precautions", nil, &precautions); err != nil {
		return nil, err
	}
	return precautions, nil
}

// CreatePrecaution persists a new patient precaution
func (c *Client) CreatePrecaution(ctx context.Context, precaution *types.PatientPrecaution) (*types.PatientPrecaution, error) {
	var created types.PatientPrecaution
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/precautions", "precautions", precaution, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListFacilityAlerts fetches the full facility alert collection
func (c *Client) ListFacilityAlerts(ctx context.Context) ([]*types.FacilityAlert, error) {
	var alerts []*types.FacilityAlert
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/facility-alerts", "facility_alerts", nil, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// CreateFacilityAlert persists a new facility alert
func (c *Client) CreateFacilityAlert(ctx context.Context, alert *types.FacilityAlert) (*types.FacilityAlert, error) {
	var created types.FacilityAlert
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/facility-alerts", "facility_alerts", alert, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateFacilityAlert replaces the editable fields of a facility alert
func (c *Client) UpdateFacilityAlert(ctx context.Context, alertID string, input *types.FacilityAlertInput) (*types.FacilityAlert, error) {
	var updated types.FacilityAlert
	url := fmt.Sprintf("%s/facility-alerts/%s", c.baseURL, alertID)
	if err := c.do(ctx, http.MethodPut, url, "facility_alerts", input, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DismissFacilityAlert deactivates a facility alert registry-side.
// The registry models dismissal as a partial update, not a delete.
func (c *Client) DismissFacilityAlert(ctx context.Context, alertID string) (*types.FacilityAlert, error) {
	var dismissed types.FacilityAlert
	url := fmt.Sprintf("%s/facility-alerts/%s", c.baseURL, alertID)
	if err := c.do(ctx, http.MethodPatch, url, "facility_alerts", map[string]bool{"active": false}, &dismissed); err != nil {
		return nil, err
	}
	return &dismissed, nil
}

// ListPatients fetches the patient directory
func (c *Client) ListPatients(ctx context.Context) ([]*types.Patient, error) {
	var patients []*types.Patient
	if err := c.do(ctx, http.MethodGet, c.patientBaseURL+"/patients", "patients", nil, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// do executes one registry request and decodes the response into out.
// Non-2xx responses are decoded as the registry's error envelope; the
// registry's message is surfaced verbatim when present.
func (c *Client) do(ctx context.Context, method, url, resource string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return types.NewRequestError("failed to encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return types.NewRequestError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		req.Header.Set(requestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.metrics.RecordRegistryRequest(method, resource, "error", duration)
		c.logger.RegistryCall(method, url, 0, duration.Milliseconds(), err)
		return types.NewRequestError("registry unreachable", err)
	}
	defer resp.Body.Close()

	c.metrics.RecordRegistryRequest(method, resource, strconv.Itoa(resp.StatusCode), duration)
	c.logger.RegistryCall(method, url, resp.StatusCode, duration.Milliseconds(), nil)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewRequestError("failed to decode registry response", err)
	}
	return nil
}

// decodeError turns a non-2xx registry response into a request failure.
// An unparseable body falls back to a generic message rather than
// leaking raw payload to callers.
func (c *Client) decodeError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && len(body) > 0 {
		var envelope errorEnvelope
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil && envelope.Error.Message != "" {
			reqErr := types.NewRequestError(envelope.Error.Message,
				fmt.Errorf("registry returned %d (%s)", resp.StatusCode, envelope.Error.Code))
			reqErr.StatusCode = resp.StatusCode
			return reqErr
		}
	}
	reqErr := types.NewRequestError("request failed, please try again",
		fmt.Errorf("registry returned %d", resp.StatusCode))
	reqErr.StatusCode = resp.StatusCode
	return reqErr
}
