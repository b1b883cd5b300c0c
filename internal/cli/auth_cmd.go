// auth_cmd.go - login, register, logout and whoami handlers.
//
// Command: login
// Short:   Authenticate against the backend and persist the session
//
// Command: register
// Short:   Create an account, then log in with it
//
// Command: logout
// Short:   End the backend session and clear local state
//
// Command: whoami
// Short:   Show the authenticated user
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/botdeck-tui/internal/api"
	"github.com/jeranaias/botdeck-tui/internal/model"
)

// HandleLogin authenticates and persists the session cookie.
func HandleLogin(app *App, args *ArgParser) error {
	username := args.Flag("username")
	if username == "" {
		username = args.Arg(0)
	}
	if username == "" {
		var err error
		username, err = readLine("Username: ")
		if err != nil {
			return fmt.Errorf("username required")
		}
	}
	username = strings.TrimSpace(username)

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	user, err := app.Auth.Login(context.Background(), username, password)
	if err != nil {
		if errors.Is(err, api.ErrNotAuthenticated) {
			return fmt.Errorf("invalid username or password")
		}
		return err
	}

	PrintSuccess("logged in as %s", user.Username)
	return nil
}

// HandleRegister creates an account and logs in with it.
func HandleRegister(app *App, args *ArgParser) error {
	username := args.Flag("username")
	if username == "" {
		username = args.Arg(0)
	}
	if username == "" {
		var err error
		username, err = readLine("Username: ")
		if err != nil {
			return fmt.Errorf("username required")
		}
	}
	username = strings.TrimSpace(username)

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return err
	}

	user, err := app.Auth.Register(context.Background(), username, password, confirm)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUsernameTooShort),
			errors.Is(err, model.ErrUsernameCharset),
			errors.Is(err, model.ErrPasswordTooShort),
			errors.Is(err, model.ErrPasswordMismatch):
			return err
		}
		return fmt.Errorf("registration failed: %w", err)
	}

	PrintSuccess("registered and logged in as %s", user.Username)
	return nil
}

// HandleLogout ends the session. Local state is cleared even when the
// backend call fails, so a dead server cannot pin a stale login.
func HandleLogout(app *App, _ *ArgParser) error {
	app.Auth.Logout(context.Background())
	PrintSuccess("logged out")
	return nil
}

// HandleWhoami prints the authenticated user, checking the persisted
// session against the backend first.
func HandleWhoami(app *App, _ *ArgParser) error {
	if err := app.Auth.Bootstrap(context.Background()); err != nil {
		return err
	}
	if !app.Auth.IsAuthenticated() {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("%s %s\n", LabelStyle.Render("User"), ValueStyle.Render(app.Auth.Username()))
	fmt.Printf("%s %s\n", LabelStyle.Render("Server"), ValueStyle.Render(app.Config.ServerURL))
	return nil
}
