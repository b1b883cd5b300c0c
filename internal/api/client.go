// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the backend client.
const (
	// DefaultTimeout applies to auth and chatbot CRUD requests.
	DefaultTimeout = 30 * time.Second

	// ChatTimeout applies to the synchronous chat endpoint. The backend's
	// model invocation is the slow part; past this the client reports the
	// server unreachable rather than hang the send control.
	ChatTimeout = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// requestsPerSecond / requestBurst bound outbound request rate so a
	// scripted caller cannot hammer the backend through this client.
	requestsPerSecond = 5
	requestBurst      = 10
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// One transport shared by the timed and streaming clients.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// Sentinel errors for the backend's failure conditions. The chat surfaces
// match on these to pick the user-facing message.
var (
	// ErrUnreachable indicates a network failure or timeout before any
	// backend response arrived.
	ErrUnreachable = errors.New("unable to reach server")

	// ErrNotAuthenticated indicates the session cookie is missing or
	// expired (HTTP 401).
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrForbidden indicates the chatbot is not shared with or accessible
	// to the caller (HTTP 403).
	ErrForbidden = errors.New("chatbot is not shared or not accessible")

	// ErrNotFound indicates the requested chatbot does not exist (HTTP 404).
	ErrNotFound = errors.New("chatbot does not exist")

	// ErrServer indicates a backend failure (HTTP 5xx); the user should
	// retry later.
	ErrServer = errors.New("server error, try again later")
)

// APIError is a backend error response with its HTTP status and the
// message from the body's "error" field.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// Is maps an APIError onto the matching sentinel so callers can use
// errors.Is without caring which form they got.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotAuthenticated:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrServer:
		return e.Status >= 500
	}
	return false
}

// AsAPIError unwraps err into an APIError when one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// errorResponse is the backend's JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chatbot-management backend. All methods take a
// context; the streaming path has no client timeout and is cancelled only
// through the context.
type Client struct {
	baseURL string
	jar     *cookiejar.Jar

	httpClient   *http.Client // auth + CRUD, DefaultTimeout
	chatClient   *http.Client // sync chat, ChatTimeout
	streamClient *http.Client // streaming chat, context-controlled

	limiter   *rate.Limiter
	userAgent string
}

// NewClient creates a client for the given base URL (e.g.
// "https://bots.example.com/api"). The cookie jar is created here and
// shared across all three underlying HTTP clients, so a login cookie set
// by one is presented by all.
func NewClient(baseURL string) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("server base URL is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: baseURL,
		jar:     jar,
		httpClient: &http.Client{
			Transport: sharedTransport,
			Jar:       jar,
			Timeout:   DefaultTimeout,
		},
		chatClient: &http.Client{
			Transport: sharedTransport,
			Jar:       jar,
			Timeout:   ChatTimeout,
		},
		streamClient: &http.Client{
			Transport: sharedTransport,
			Jar:       jar,
			// No timeout for streaming - controlled via context
		},
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		userAgent: "botdeck/0.1.0",
	}, nil
}

// WithTimeout overrides the timeout for auth and CRUD requests.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithChatTimeout overrides the sync chat timeout.
func (c *Client) WithChatTimeout(timeout time.Duration) *Client {
	c.chatClient.Timeout = timeout
	return c
}

// WithUserAgent overrides the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// do rate-limits, sends, and normalizes transport failures onto
// ErrUnreachable. Status handling stays with the caller.
func (c *Client) do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return resp, nil
}

// readResponse reads the response body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts a non-2xx backend response into an error.
// The backend's "error" field is preserved verbatim so the UI can surface
// it; the status maps onto a sentinel through APIError.Is.
func handleErrorResponse(statusCode int, body []byte) error {
	var envelope errorResponse
	message := ""
	if err := json.Unmarshal(body, &envelope); err == nil {
		message = envelope.Error
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	return &APIError{Status: statusCode, Message: message}
}

// getJSON issues a GET and decodes a JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(ctx, c.httpClient, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return handleErrorResponse(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
