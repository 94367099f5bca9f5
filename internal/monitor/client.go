package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Metrics is one sample of the metrics endpoint.
type Metrics struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemUsedGB  float64 `json:"mem_used_gb"`
	MemTotalGB float64 `json:"mem_total_gb"`
	MemPercent float64 `json:"mem_percent"`
	TempC      float64 `json:"temp_c"`
	GPUPercent float64 `json:"gpu_percent"`
}

// ServiceStatus is the body returned by the server control endpoints.
type ServiceStatus struct {
	Status string `json:"status"`
}

// Client talks to the metrics and server control APIs. Every non-2xx
// response and every transport error is reported as an error.
type Client struct {
	http      *http.Client
	keyHeader string
	key       string
}

// NewClient creates a client that sends key in keyHeader on every request
// when key is set.
func NewClient(keyHeader, key string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		keyHeader: keyHeader,
		key:       key,
	}
}

// FetchMetrics retrieves one metrics sample.
func (c *Client) FetchMetrics(ctx context.Context, url string) (Metrics, error) {
	var m Metrics
	if err := c.do(ctx, http.MethodGet, url, &m); err != nil {
		return Metrics{}, err
	}
	return m, nil
}

// Command posts to a server control endpoint such as /minecraft/start and
// returns the reported status line.
func (c *Client) Command(ctx context.Context, baseURL, path string) (string, error) {
	url := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")

	var s ServiceStatus
	if err := c.do(ctx, http.MethodPost, url, &s); err != nil {
		return "", err
	}
	return s.Status, nil
}

func (c *Client) do(ctx context.Context, method, url string, out interface{}) error {
	var body io.Reader
	if method == http.MethodPost {
		body = bytes.NewReader([]byte("{}"))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.key != "" && c.keyHeader != "" {
		req.Header.Set(c.keyHeader, c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
