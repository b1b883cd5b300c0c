// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/botdeck-tui/internal/api"
	"github.com/jeranaias/botdeck-tui/internal/auth"
	"github.com/jeranaias/botdeck-tui/internal/config"
	"github.com/jeranaias/botdeck-tui/internal/registry"
)

// App carries the shared wiring for all command handlers.
type App struct {
	Config *config.Config
	Client *api.Client
	Auth   *auth.Manager
}

// NewApp loads configuration and builds the API client and auth
// manager. The persisted session, if any, is restored lazily by
// Bootstrap.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig builds an App over an already-loaded configuration.
func NewAppWithConfig(cfg *config.Config) (*App, error) {
	client, err := api.NewClient(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	sessionPath, err := config.SessionPath()
	if err != nil {
		// Auth still works for this process; it just will not persist
		sessionPath = ""
	}
	if err := config.EnsureConfigDir(); err != nil {
		sessionPath = ""
	}

	return &App{
		Config: cfg,
		Client: client,
		Auth:   auth.NewManager(client, sessionPath),
	}, nil
}

// RequireAuth bootstraps the session and fails with a uniform message
// when no authenticated user is available.
func (a *App) RequireAuth(ctx context.Context) error {
	if err := a.Auth.Bootstrap(ctx); err != nil {
		return err
	}
	if !a.Auth.IsAuthenticated() {
		return fmt.Errorf("not logged in; run `botdeck login` first")
	}
	return nil
}

// NewRegistry returns a chatbot registry over this App's client.
func (a *App) NewRegistry() *registry.Registry {
	return registry.New(a.Client)
}
