package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the auth-gate HTTP API and replays the stored token.
// It does not retry and does not track expiry.
type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore
}

// New builds a client. httpClient may be nil.
func New(baseURL string, store TokenStore, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, store: store}
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenBody struct {
	Token string `json:"token"`
}

// Login posts credentials to /login and stores the returned token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	return c.obtainToken(ctx, "/login", username, password)
}

// Register creates an account via POST /users and stores the returned token.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	return c.obtainToken(ctx, "/users", username, password)
}

func (c *Client) obtainToken(ctx context.Context, path, username, password string) (string, error) {
	payload, err := json.Marshal(credentials{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var body tokenBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.Token == "" {
		return "", errors.New("token response has no token")
	}
	if err := c.store.Store(body.Token); err != nil {
		return "", err
	}
	return body.Token, nil
}

// Attach sets the Authorization header from the stored token.
func (c *Client) Attach(req *http.Request) error {
	token, err := c.store.Load()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Do attaches the stored token and sends req.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.Attach(req); err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

// Get fetches path with the stored token and returns the response body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
}
