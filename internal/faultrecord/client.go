// Package faultrecord is the client for the external fault-record API the
// scrapers feed into.
package faultrecord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DateLayout is the date format used in record payloads and filters.
const DateLayout = "2006-01-02"

type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a fault-record API client for the given base URL.
func NewClient(baseURL string, httpClient *http.Client, userAgent string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// CreateFault posts a new fault record and returns the id the API assigned
// to it.
func (c *Client) CreateFault(ctx context.Context, fault FaultRequest) (int64, error) {
	var resp struct {
		FaultID int64 `json:"fault_id"`
	}
	if err := c.post(ctx, "/api/v1/faults", fault, &resp); err != nil {
		return 0, fmt.Errorf("failed to create fault: %w", err)
	}
	return resp.FaultID, nil
}

// CreateUpdate posts a follow-up update to an existing fault record.
func (c *Client) CreateUpdate(ctx context.Context, update UpdateRequest) error {
	if err := c.post(ctx, "/api/v1/updates", update, nil); err != nil {
		return fmt.Errorf("failed to create update: %w", err)
	}
	return nil
}

// UserByEmail returns the id of the directory user whose email matches
// exactly. No match is an error; callers decide the fallback.
func (c *Client) UserByEmail(ctx context.Context, email string) (int64, error) {
	filters, err := encodeFilters([]filter{
		{Field: "email", Op: "=", Value: email},
	})
	if err != nil {
		return 0, err
	}

	var resp struct {
		Users []User `json:"users"`
	}
	if err := c.get(ctx, "/api/v1/users", filters, &resp); err != nil {
		return 0, fmt.Errorf("failed to look up user: %w", err)
	}
	if len(resp.Users) == 0 {
		return 0, fmt.Errorf("no user with email %s", email)
	}
	return resp.Users[0].ID, nil
}

// SignalsBySource returns the ids of the named signals under source, in
// API response order.
func (c *Client) SignalsBySource(ctx context.Context, source string, names []string) ([]int64, error) {
	filters, err := encodeFilters([]filter{
		{Field: "source", Op: "=", Value: source},
		{Field: "signal", Op: "in", Value: names},
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Signals []Signal `json:"signals"`
	}
	if err := c.get(ctx, "/api/v1/signals", filters, &resp); err != nil {
		return nil, fmt.Errorf("failed to look up signals: %w", err)
	}

	ids := make([]int64, 0, len(resp.Signals))
	for _, signal := range resp.Signals {
		ids = append(ids, signal.ID)
	}
	return ids, nil
}

// FaultsSince returns the fault records created after the given date.
func (c *Client) FaultsSince(ctx context.Context, since time.Time) ([]Fault, error) {
	filters, err := encodeFilters([]filter{
		{Field: "record_date", Op: ">", Value: since.UTC().Format(DateLayout)},
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Faults []Fault `json:"faults"`
	}
	if err := c.get(ctx, "/api/v1/faults", filters, &resp); err != nil {
		return nil, fmt.Errorf("failed to list faults: %w", err)
	}
	return resp.Faults, nil
}

// filter is one clause of the API's filters query parameter.
type filter struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

func encodeFilters(filters []filter) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// Keep ops like ">" literal rather than HTML-escaped.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(filters); err != nil {
		return "", fmt.Errorf("failed to encode filters: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path, filters string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	query := url.Values{}
	query.Set("filters", filters)
	req.URL.RawQuery = query.Encode()

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP error: %d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
