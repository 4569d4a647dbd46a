// Package client is the Go client for the authbox API.
//
// It plays the role a browser frontend would: it calls the register/login/me
// endpoints, persists the resulting session (token + user) locally, and
// classifies failures into the three kinds a user interface cares about:
//
//   - *NetworkError — no response was received at all (server down, DNS,
//     timeout). Retrying later might help; nothing is wrong with the account.
//   - *APIError — the server answered with a non-2xx status. The server's
//     own message is preserved for display.
//   - 401 specifically — an *APIError that also matches ErrUnauthorized via
//     errors.Is, meaning the stored session is no longer any good.
//
// The split matters because each kind demands a different reaction: show a
// connectivity message, show the server's message, or silently discard the
// stored session and present the login form again.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/arefin/authbox/internal/model"
)

// requestTimeout is the wall-clock budget for one API call, connection
// setup and body included. Matches the frontend's 10-second axios timeout.
const requestTimeout = 10 * time.Second

// ErrUnauthorized matches (via errors.Is) any *APIError carrying a 401.
// Callers use it to tell "session is dead" apart from other API failures.
var ErrUnauthorized = errors.New("client: unauthorized")

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("client: network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx response from the server. Message is the server's
// own "message" field when the body parsed, or a generic fallback.
type APIError struct {
	StatusCode int
	Status     string // the envelope's "fail" or "error"
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: api error (%d): %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 APIErrors without
// callers inspecting StatusCode themselves.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Client is a thin HTTP wrapper around the authbox API.
//
// It holds the current bearer token (if any) and attaches it to every
// request, like the frontend's request interceptor. Client itself doesn't
// persist anything — that's the Manager's job (session.go).
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New creates a Client for the API at baseURL, e.g. "http://localhost:5000".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// SetToken sets the bearer token attached to subsequent requests.
// An empty string detaches it.
func (c *Client) SetToken(token string) { c.token = token }

// envelope mirrors the server's response shape — both the success fields
// and the error fields, since a failed call still has a parseable body.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token"`
	Data    struct {
		User model.UserView `json:"user"`
	} `json:"data"`
}

// AuthResponse is what register and login return: the minted token and the
// user it belongs to.
type AuthResponse struct {
	Token string
	User  model.UserView
}

// Register creates a new account and returns its first session.
func (c *Client) Register(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.authCall(ctx, "/api/users/register", email, password)
}

// Login authenticates existing credentials and returns a fresh session.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.authCall(ctx, "/api/users/login", email, password)
}

// Me returns the identity behind the current token. An ErrUnauthorized-
// matching error means the token is missing, expired, invalid, or orphaned.
func (c *Client) Me(ctx context.Context) (model.UserView, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/users/me", nil)
	if err != nil {
		return model.UserView{}, err
	}
	return env.Data.User, nil
}

func (c *Client) authCall(ctx context.Context, path, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	env, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: env.Token, User: env.Data.User}, nil
}

// do runs one API call and applies the error classification.
func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return nil, fmt.Errorf("client: encoding request body: %w", err)
		}
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("client: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// No HTTP response at all — connectivity, DNS, timeout
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Status:     env.Status,
			Message:    env.Message,
		}
		if apiErr.Message == "" {
			// Body didn't parse or carried no message — don't hide the status
			apiErr.Message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return nil, apiErr
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("client: decoding response: %w", decodeErr)
	}

	return &env, nil
}
