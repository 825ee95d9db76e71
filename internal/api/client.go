// Package api is the HTTP client for the event platform's REST API. The
// API itself is an external collaborator; this package only encodes its
// contract: JSON payloads, problem+json rejections, cookie/bearer auth.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gatherkit/gatekit/internal/log"
	"github.com/gatherkit/gatekit/pkg/types"
)

// Client talks to one platform instance.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.Timeout = timeout }
}

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.http = httpClient }
}

// NewClient creates a client for the platform at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ActiveForm fetches the active registration form for an event.
func (c *Client) ActiveForm(ctx context.Context, eventID string) (*types.Form, error) {
	var form types.Form
	path := fmt.Sprintf("/api/v1/events/%s/forms/active", eventID)
	if err := c.do(ctx, http.MethodGet, path, nil, &form); err != nil {
		return nil, err
	}
	return &form, nil
}

type draftResponse struct {
	Draft types.AnswerSet `json:"draft,omitempty"`
}

// Draft fetches the saved draft for a form, if any. A form with no draft
// returns (nil, nil).
func (c *Client) Draft(ctx context.Context, formID string) (types.AnswerSet, error) {
	var resp draftResponse
	path := fmt.Sprintf("/api/v1/forms/%s/draft", formID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Draft, nil
}

// SaveDraft replaces the stored draft for a form wholesale.
func (c *Client) SaveDraft(ctx context.Context, formID string, data types.AnswerSet) error {
	path := fmt.Sprintf("/api/v1/forms/%s/draft", formID)
	return c.do(ctx, http.MethodPut, path, map[string]any{"data": data}, nil)
}

// SubmitForm submits the final answer set for a form.
func (c *Client) SubmitForm(ctx context.Context, formID string, answers types.AnswerSet) error {
	path := fmt.Sprintf("/api/v1/forms/%s/submit", formID)
	return c.do(ctx, http.MethodPost, path, map[string]any{"answers": answers}, nil)
}

// ScanCheckin submits a scanned QR token for an event.
func (c *Client) ScanCheckin(ctx context.Context, eventID, qrCode string) (*types.CheckinRecord, error) {
	var record types.CheckinRecord
	path := fmt.Sprintf("/api/v1/events/%s/checkin/scan", eventID)
	if err := c.do(ctx, http.MethodPost, path, map[string]any{"qr_code": qrCode}, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ManualCheckin checks a user in by explicit user id.
func (c *Client) ManualCheckin(ctx context.Context, eventID, userID string) (*types.CheckinRecord, error) {
	var record types.CheckinRecord
	path := fmt.Sprintf("/api/v1/events/%s/checkin/manual", eventID)
	if err := c.do(ctx, http.MethodPost, path, map[string]any{"user_id": userID}, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// TicketQR fetches the caller's own admission token for an event.
func (c *Client) TicketQR(ctx context.Context, eventID string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	path := fmt.Sprintf("/api/v1/tickets/%s/qr", eventID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Me fetches the authenticated identity behind the configured token.
func (c *Client) Me(ctx context.Context) (*types.Identity, error) {
	var identity types.Identity
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// do performs one request. A non-2xx response becomes an *APIError; any
// failure before a response arrives is returned as-is so callers can
// classify it as a transport/offline failure.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log.Debugf("api: %s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debugf("api: transport failure on %s %s: %v", method, path, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &APIError{
		Status: resp.StatusCode,
		Problem: ProblemDetails{
			Type:   "about:blank",
			Title:  http.StatusText(resp.StatusCode),
			Status: resp.StatusCode,
		},
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/problem+json") {
		var problem ProblemDetails
		if err := json.NewDecoder(resp.Body).Decode(&problem); err == nil {
			apiErr.Problem = problem
		}
	}
	return apiErr
}
