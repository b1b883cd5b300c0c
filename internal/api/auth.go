// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/jeranaias/botdeck-tui/internal/model"
)

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Login posts credentials as multipart form data. On success the backend
// sets the session cookie in the shared jar and returns the user record.
func (c *Client) Login(ctx context.Context, username, password string) (*model.User, error) {
	body, err := c.postCredentials(ctx, "/user/login", username, password, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse login response: %w", err)
	}
	if user.Username == "" {
		user.Username = username
	}
	return &user, nil
}

// Register creates an account. The backend answers 201 on success;
// callers typically chain straight into Login with the same credentials.
func (c *Client) Register(ctx context.Context, username, password string) error {
	_, err := c.postCredentials(ctx, "/user/register", username, password, http.StatusCreated)
	return err
}

// Logout tells the backend to clear the session cookie. Callers treat this
// as fire-and-forget: local session state is cleared whether or not the
// backend call succeeds.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user/logout", nil)
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
	if resp.StatusCode != http.StatusOK {
		return handleErrorResponse(resp.StatusCode, body)
	}
	return nil
}

// CheckAuth asks the backend whether the stored session cookie is still
// valid, returning the current user on success. A network failure and an
// expired session both come back as errors; the session manager treats
// either as anonymous.
func (c *Client) CheckAuth(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.getJSON(ctx, "/user/auth/check", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// postCredentials sends username/password as multipart form data and
// returns the raw body on the expected status.
func (c *Client) postCredentials(ctx context.Context, path, username, password string, wantStatus int) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("username", username); err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}
	if err := w.WriteField("password", password); err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.do(ctx, c.httpClient, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != wantStatus {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}
