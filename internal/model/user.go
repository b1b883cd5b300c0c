// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"regexp"
)

// =============================================================================
// USER
// =============================================================================

// User is the authenticated account as reported by the backend.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Registration validation errors. Messages are fixed strings surfaced
// verbatim to the user, matching what the backend would reject anyway.
var (
	ErrUsernameTooShort = errors.New("username must be at least 3 characters")
	ErrUsernameCharset  = errors.New("username may only contain letters and digits")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// ValidateUsername checks the registration username rules: alphanumeric,
// length >= 3.
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return ErrUsernameTooShort
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameCharset
	}
	return nil
}

// ValidatePassword checks the registration password rule: length >= 8.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateRegistration validates a full registration submission. The
// confirmation must match before anything is sent to the backend.
func ValidateRegistration(username, password, confirm string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
