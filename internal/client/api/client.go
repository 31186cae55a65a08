// Package api implements the client side of the auth endpoint contract:
// POST /login, POST /register, and GET /user/me. Success and failure are
// decided by the response status code alone; error bodies are decoded
// only to extract the server's message.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/akovalenko/sessionauth/internal/models"
)

// RejectedError reports that the server answered with a non-2xx status.
// Message carries the server-provided error message verbatim, so callers
// can surface it to the user unchanged. Any other error returned by the
// client is a transport-level failure.
type RejectedError struct {
	// StatusCode is the HTTP status the server responded with.
	StatusCode int
	// Message is the server's error message, or empty if the body
	// carried none.
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server rejected request with status %d", e.StatusCode)
}

// Client issues requests against one auth server.
type Client struct {
	// BaseURL is the server's base URL, without a trailing slash.
	BaseURL string
	// HTTPClient performs the requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// New returns a Client for the given base URL.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: http.DefaultClient}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// rejected reads the response body of a non-2xx response and builds the
// RejectedError. A body that is not JSON or has no "message" field still
// yields a RejectedError, just without a message.
func rejected(res *http.Response) *RejectedError {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&body)
	return &RejectedError{StatusCode: res.StatusCode, Message: body.Message}
}

func success(res *http.Response) bool {
	return res.StatusCode >= 200 && res.StatusCode < 300
}

// postJSON sends payload to the given path and returns the response.
func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient().Do(req)
}

// Login submits credentials and returns the issued bearer token.
// A non-2xx response yields a *RejectedError carrying the server's message.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	res, err := c.postJSON(ctx, "/login", models.Credentials{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if !success(res) {
		return "", rejected(res)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("login response carries no token")
	}
	return body.Token, nil
}

// Register submits the registration payload unmodified.
// A non-2xx response yields a *RejectedError carrying the server's message.
func (c *Client) Register(ctx context.Context, reg models.Registration) error {
	res, err := c.postJSON(ctx, "/register", reg)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if !success(res) {
		return rejected(res)
	}
	return nil
}

// Me asks the server which user the token belongs to. Any non-2xx
// response, regardless of body shape, is reported as a *RejectedError.
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/user/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if !success(res) {
		return nil, rejected(res)
	}

	var body struct {
		User *models.User `json:"user"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	if body.User == nil {
		return nil, fmt.Errorf("user response carries no user")
	}
	return body.User, nil
}
