// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/jeranaias/botdeck-tui/internal/util"
)

// The browser keeps the session cookie alive between page loads; a CLI
// runs as many short processes, so the jar's cookies for the backend are
// persisted to disk between invocations.

// storedCookie is the serialized form of one session cookie.
type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HTTPOnly bool      `json:"httponly,omitempty"`
}

// SaveSession writes the backend's cookies to path with owner-only
// permissions. Call after Login and Logout.
func (c *Client) SaveSession(path string) error {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	cookies := c.jar.Cookies(base)
	stored := make([]storedCookie, 0, len(cookies))
	for _, ck := range cookies {
		stored = append(stored, storedCookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Path:     ck.Path,
			Domain:   ck.Domain,
			Expires:  ck.Expires,
			Secure:   ck.Secure,
			HTTPOnly: ck.HttpOnly,
		})
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// SECURITY: Session cookie grants account access; 0600 like the config
	return util.AtomicWriteFilePrivate(path, data, 0600)
}

// RestoreSession loads previously saved cookies into the jar. A missing
// file is not an error; the client is simply anonymous. Expired cookies
// are dropped here rather than presented to the backend.
func (c *Client) RestoreSession(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		if !sc.Expires.IsZero() && sc.Expires.Before(now) {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			Domain:   sc.Domain,
			Expires:  sc.Expires,
			Secure:   sc.Secure,
			HttpOnly: sc.HTTPOnly,
		})
	}
	c.jar.SetCookies(base, cookies)
	return nil
}

// ClearSession removes the saved session file. Used by logout, which
// clears local state regardless of the backend call's outcome.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
