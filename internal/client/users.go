// Package client provides the HTTP client for the internal Users API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUserNotFound is returned when the Users API has no user for the email.
var ErrUserNotFound = errors.New("user not found")

// User is the identity returned by the Users API lookup.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UsersClient calls the Users API over HTTP with the internal API key.
type UsersClient struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewUsersClient creates a Users API client. A zero timeout relies on the
// caller's context and the http.Client alone.
func NewUsersClient(baseURL, apiKey string, timeout time.Duration, httpClient *http.Client) *UsersClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &UsersClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: httpClient,
	}
}

// LookupUser resolves an email to a user.
func (c *UsersClient) LookupUser(ctx context.Context, email string) (*User, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + "/api/v1/internal/users/lookup?email=" + url.QueryEscape(email)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrUserNotFound
	default:
		return nil, fmt.Errorf("looking up user: unexpected status %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decoding user response: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("decoding user response: missing id")
	}
	return &user, nil
}

// LookupUserID resolves an email to a user id.
func (c *UsersClient) LookupUserID(ctx context.Context, email string) (string, error) {
	user, err := c.LookupUser(ctx, email)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
