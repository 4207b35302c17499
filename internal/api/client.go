// Package api is a typed client for the remote trace-store HTTP API.
// All data is owned by the remote service; the client only reads it and
// requests mutations (delete, reset), never mutating locally cached copies.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every request. Polling runs on a 5s interval, so a
// request that outlives one full cycle is abandoned rather than stacked.
const DefaultTimeout = 10 * time.Second

// Client talks to the trace store at a fixed base URL. No authentication;
// the store is assumed reachable directly.
type Client struct {
	http *resty.Client
}

// NewClient creates a client for the given base URL, e.g. "http://localhost:8000".
func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json"),
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.http.BaseURL }

// statusErr converts a non-2xx response into an error carrying enough
// context to log usefully. Transport and application failures deliberately
// share one error path; callers treat both the same way.
func statusErr(method, path string, resp *resty.Response) error {
	return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode())
}

// ListTraces fetches the trace summary list (GET /traces).
func (c *Client) ListTraces(ctx context.Context) ([]Trace, error) {
	var traces []Trace
	resp, err := c.http.NewRequest().
		SetContext(ctx).
		SetResult(&traces).
		Get("/traces")
	if err != nil {
		return nil, fmt.Errorf("list traces: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, statusErr("GET", "/traces", resp)
	}
	return traces, nil
}

// GetTrace fetches the full span list for one trace (GET /traces/{id}).
func (c *Client) GetTrace(ctx context.Context, traceID string) ([]Span, error) {
	var spans []Span
	resp, err := c.http.NewRequest().
		SetContext(ctx).
		SetPathParam("id", traceID).
		SetResult(&spans).
		Get("/traces/{id}")
	if err != nil {
		return nil, fmt.Errorf("get trace %s: %w", traceID, err)
	}
	if !resp.IsSuccess() {
		return nil, statusErr("GET", "/traces/"+traceID, resp)
	}
	return spans, nil
}

// DeleteTrace removes one trace server-side (DELETE /traces/{id}).
func (c *Client) DeleteTrace(ctx context.Context, traceID string) error {
	resp, err := c.http.NewRequest().
		SetContext(ctx).
		SetPathParam("id", traceID).
		Delete("/traces/{id}")
	if err != nil {
		return fmt.Errorf("delete trace %s: %w", traceID, err)
	}
	if !resp.IsSuccess() {
		return statusErr("DELETE", "/traces/"+traceID, resp)
	}
	return nil
}

// Analytics fetches the aggregate dashboard snapshot
// (GET /analytics/dashboard), passing start/end query parameters only when
// the filter sets them. An empty filter sends no query parameters at all.
func (c *Client) Analytics(ctx context.Context, filter FilterParams) (*AnalyticsSnapshot, error) {
	var snapshot AnalyticsSnapshot
	req := c.http.NewRequest().
		SetContext(ctx).
		SetResult(&snapshot)
	if filter.Start != "" {
		req.SetQueryParam("start", filter.Start)
	}
	if filter.End != "" {
		req.SetQueryParam("end", filter.End)
	}
	resp, err := req.Get("/analytics/dashboard")
	if err != nil {
		return nil, fmt.Errorf("fetch analytics: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, statusErr("GET", "/analytics/dashboard", resp)
	}
	return &snapshot, nil
}

// ResetMetrics clears the server's analytics store (DELETE /analytics/reset).
func (c *Client) ResetMetrics(ctx context.Context) error {
	resp, err := c.http.NewRequest().SetContext(ctx).Delete("/analytics/reset")
	if err != nil {
		return fmt.Errorf("reset metrics: %w", err)
	}
	if !resp.IsSuccess() {
		return statusErr("DELETE", "/analytics/reset", resp)
	}
	return nil
}

// ResetAll clears all traces and analytics server-side (DELETE /traces/reset).
func (c *Client) ResetAll(ctx context.Context) error {
	resp, err := c.http.NewRequest().SetContext(ctx).Delete("/traces/reset")
	if err != nil {
		return fmt.Errorf("reset all: %w", err)
	}
	if !resp.IsSuccess() {
		return statusErr("DELETE", "/traces/reset", resp)
	}
	return nil
}
