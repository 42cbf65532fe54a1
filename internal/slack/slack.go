// Package slack delivers report headers and message lists to Slack, either
// through an incoming webhook or the Web API.
package slack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultAPIBaseURL = "https://slack.com/api"

type attachment struct {
	Text string `json:"text"`
}

type message struct {
	Channel     string       `json:"channel,omitempty"`
	Text        string       `json:"text"`
	Attachments []attachment `json:"attachments,omitempty"`
}

// Client posts messages to Slack. With a webhook URL set, Post goes through
// the webhook; otherwise it goes to the configured channel via the Web API.
type Client struct {
	apiBaseURL string
	token      string
	webhookURL string
	channelID  string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(token, webhookURL, channelID string, logger *zap.Logger) *Client {
	return &Client{
		apiBaseURL: defaultAPIBaseURL,
		token:      token,
		webhookURL: webhookURL,
		channelID:  channelID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Post sends a header with an optional attachment built from messages.
func (c *Client) Post(header string, messages []string) error {
	msg := message{Text: header}
	if len(messages) > 0 {
		msg.Attachments = []attachment{{Text: strings.Join(messages, "\n")}}
	}

	if c.webhookURL != "" {
		return c.postJSON(c.webhookURL, msg)
	}

	msg.Channel = c.channelID
	return c.postJSON(c.apiBaseURL+"/chat.postMessage", msg)
}

// PostToUser sends a header and messages as a direct message to one user.
func (c *Client) PostToUser(userID, header string, messages []string) error {
	msg := message{Channel: userID, Text: header}
	if len(messages) > 0 {
		msg.Attachments = []attachment{{Text: strings.Join(messages, "\n")}}
	}
	return c.postJSON(c.apiBaseURL+"/chat.postMessage", msg)
}

// UserEmail resolves a Slack user ID to the email on their profile.
// Deleted accounts and channel guests resolve to an error so they never
// receive internal reports.
func (c *Client) UserEmail(userID string) (string, error) {
	endpoint := c.apiBaseURL + "/users.info?user=" + url.QueryEscape(userID)
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("users.info failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info struct {
		OK   bool `json:"ok"`
		User struct {
			Deleted           bool `json:"deleted"`
			IsRestricted      bool `json:"is_restricted"`
			IsUltraRestricted bool `json:"is_ultra_restricted"`
			Profile           struct {
				Email string `json:"email"`
			} `json:"profile"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("failed to parse users.info response: %w", err)
	}
	if !info.OK {
		return "", fmt.Errorf("users.info rejected for %s", userID)
	}
	if info.User.Deleted || info.User.IsRestricted || info.User.IsUltraRestricted {
		return "", fmt.Errorf("user %s is deleted or a guest account", userID)
	}
	return info.User.Profile.Email, nil
}

func (c *Client) postJSON(endpoint string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("message post failed with status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Info("Message posted", zap.String("endpoint", endpoint))
	return nil
}
