package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.giddycycles.app/v1"

// Client is a minimal client for the obligations backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *logrus.Logger
}

// New creates a client using the default backend base URL.
func New(token string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: logrus.StandardLogger(),
	}
}

// NewWithBaseURL creates a client with a custom base URL.
func NewWithBaseURL(token, baseURL string) *Client {
	c := New(token)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// WithLogger sets the logger used for request debug logs.
func (c *Client) WithLogger(log *logrus.Logger) *Client {
	if log != nil {
		c.log = log
	}
	return c
}

// APIError is a non-2xx response. Title and Detail come from the first
// JSON:API error object when the body has one.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("backend returned status %d", e.StatusCode)
	if e.Title != "" {
		msg += ": " + e.Title
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Unauthorized reports whether the API key was rejected.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.getURL(ctx, u, out)
}

func (c *Client) getURL(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": time.Since(started).String(),
	}).Debug("backend request")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, body)
	}

	if out == nil || len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}
	var payload struct {
		Errors []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Errors) > 0 {
		apiErr.Title = payload.Errors[0].Title
		apiErr.Detail = payload.Errors[0].Detail
	}
	return apiErr
}
