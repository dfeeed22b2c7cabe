package checkinsdk

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

// Client talks to one checkin server: the attendance API or the key server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Header is added to every request, e.g. X-Forwarded-For behind a
	// trusted proxy.
	Header http.Header
}

// NewClient creates a client with a 10 second timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Login binds studentID to this device using the live key.
func (c *Client) Login(ctx context.Context, studentID, key string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/login", LoginRequest{StudentID: studentID, InputKey: key}, &out)
	return &out, err
}

// Logout releases studentID's binding from this device.
func (c *Client) Logout(ctx context.Context, studentID, key string) (*MessageResponse, error) {
	var out MessageResponse
	err := c.do(ctx, http.MethodPost, "/api/logout", LogoutRequest{StudentID: studentID, InputKey: key}, &out)
	return &out, err
}

func (c *Client) CheckIn(ctx context.Context, studentID string) (*CheckInResponse, error) {
	var out CheckInResponse
	err := c.do(ctx, http.MethodPost, "/api/checkin", AttendanceRequest{ID: studentID}, &out)
	return &out, err
}

func (c *Client) CheckOut(ctx context.Context, studentID string) (*CheckOutResponse, error) {
	var out CheckOutResponse
	err := c.do(ctx, http.MethodPost, "/api/checkout", AttendanceRequest{ID: studentID}, &out)
	return &out, err
}

func (c *Client) Status(ctx context.Context, studentID string) (*StatusResponse, error) {
	var out StatusResponse
	err := c.do(ctx, http.MethodGet, "/api/status/"+url.PathEscape(studentID), nil, &out)
	return &out, err
}

func (c *Client) History(ctx context.Context) (*HistoryResponse, error) {
	var out HistoryResponse
	err := c.do(ctx, http.MethodGet, "/api/history", nil, &out)
	return &out, err
}

// WeeklyReport totals attendance between two YYYY-MM-DD dates, inclusive.
// Empty bounds select the current week.
func (c *Client) WeeklyReport(ctx context.Context, start, end string) (*WeeklyReportResponse, error) {
	q := url.Values{}
	if start != "" {
		q.Set("start", start)
	}
	if end != "" {
		q.Set("end", end)
	}

	path := "/api/reports/weekly"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out WeeklyReportResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return &out, err
}

// DynamicKey fetches the live key from the key server.
func (c *Client) DynamicKey(ctx context.Context) (*DynamicKey, error) {
	var out DynamicKey
	err := c.do(ctx, http.MethodGet, "/api/dynamic-key", nil, &out)
	return &out, err
}

func (c *Client) Livez(ctx context.Context) error {
	var out HealthResponse
	return c.do(ctx, http.MethodGet, "/livez", nil, &out)
}

func (c *Client) Readyz(ctx context.Context) error {
	var out HealthResponse
	return c.do(ctx, http.MethodGet, "/readyz", nil, &out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range c.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
