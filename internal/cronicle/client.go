// Package cronicle is a thin client for the Cronicle scheduler API,
// covering the event lifecycle the runner drives: create, run, poll,
// delete.
package cronicle

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client talks to one Cronicle master.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a scheduler client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Event describes a one-shot scheduler event. Params become the
// environment of the plugin run.
type Event struct {
	Title    string            `json:"title"`
	Category string            `json:"category"`
	Plugin   string            `json:"plugin"`
	Target   string            `json:"target"`
	Enabled  int               `json:"enabled"`
	Params   map[string]string `json:"params"`
}

// Job is the status of one scheduled run. TimeEnd is a unix timestamp
// with fraction, zero while the job still runs.
type Job struct {
	ID      string  `json:"id"`
	Code    int     `json:"code"`
	TimeEnd float64 `json:"time_end"`
}

// eventRef addresses an existing event or job.
type eventRef struct {
	ID     string `json:"id"`
	APIKey string `json:"api_key"`
}

// CreateEvent registers event and returns its id.
func (c *Client) CreateEvent(ctx context.Context, event Event) (string, error) {
	body := struct {
		Event
		APIKey string `json:"api_key"`
	}{event, c.apiKey}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, "create_event", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("create_event returned no event id")
	}
	return out.ID, nil
}

// RunEvent starts the event immediately and returns the job id.
func (c *Client) RunEvent(ctx context.Context, eventID string) (string, error) {
	var out struct {
		IDs []string `json:"ids"`
	}
	if err := c.call(ctx, http.MethodPost, "run_event", eventRef{eventID, c.apiKey}, &out); err != nil {
		return "", err
	}
	if len(out.IDs) == 0 {
		return "", errors.New("run_event returned no job id")
	}
	return out.IDs[0], nil
}

// JobStatus fetches the current state of a running or finished job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*Job, error) {
	var out struct {
		Job *Job `json:"job"`
	}
	if err := c.call(ctx, http.MethodGet, "get_job_status", eventRef{jobID, c.apiKey}, &out); err != nil {
		return nil, err
	}
	if out.Job == nil {
		return nil, errors.New("get_job_status returned no job")
	}
	return out.Job, nil
}

// DeleteEvent removes the event from the schedule.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	return c.call(ctx, http.MethodPost, "delete_event", eventRef{eventID, c.apiKey}, nil)
}

// WaitForJob polls the job at interval until it reports an end time. Poll
// failures are logged and retried on the next tick.
func (c *Client) WaitForJob(ctx context.Context, jobID string, interval time.Duration) (*Job, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		job, err := c.JobStatus(ctx, jobID)
		if err != nil {
			slog.Warn("Job status poll failed", "job_id", jobID, "error", err)
			continue
		}
		if job.TimeEnd > 0 {
			return job, nil
		}
		slog.Debug("Job still running", "job_id", jobID)
	}
}

// call sends one API request. The scheduler expects the api key inside a
// JSON body even on GET, and signals failures with a non-zero code field
// in an HTTP 200 response.
func (c *Client) call(ctx context.Context, method, op string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/api/app/%s/v1", c.baseURL, op)
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope struct {
		Code        json.RawMessage `json:"code"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(envelope.Code) > 0 && string(envelope.Code) != "0" {
		return fmt.Errorf("%s rejected: %s", op, cmp.Or(envelope.Description, string(envelope.Code)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
