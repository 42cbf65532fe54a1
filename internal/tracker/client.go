// Package tracker fetches users, time entries and rates from the supported
// time-tracking providers and normalizes them for analysis. Provider quirks
// (pagination, ID formats, task identification) stay inside this package.
package tracker

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3
)

// httpClient is the shared GET-with-retry transport for provider APIs.
type httpClient struct {
	baseURL string
	headers map[string]string
	client  *http.Client
	logger  *zap.Logger
}

func newHTTPClient(baseURL string, headers map[string]string, logger *zap.Logger) *httpClient {
	return &httpClient{
		baseURL: baseURL,
		headers: headers,
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// getJSON fetches a JSON document with retries and backoff between attempts.
func (c *httpClient) getJSON(path string, query url.Values, result interface{}) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= defaultRetries; attempt++ {
		err := c.getJSONOnce(fullURL, result)
		if err == nil {
			return nil
		}

		lastErr = err
		c.logger.Warn("Request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", defaultRetries),
			zap.Error(err))

		if attempt < defaultRetries {
			time.Sleep(time.Second * time.Duration(attempt))
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", defaultRetries, lastErr)
}

func (c *httpClient) getJSONOnce(fullURL string, result interface{}) error {
	req, err := http.NewRequest(http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// rateTable maps (projectID, taskID) pairs to hourly rates.
type rateTable map[string]float64

func rateKey(projectID, taskID string) string {
	return projectID + "/" + taskID
}

func (t rateTable) Rate(projectID, taskID string) (float64, bool) {
	rate, ok := t[rateKey(projectID, taskID)]
	return rate, ok
}
