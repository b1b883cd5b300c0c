// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/botdeck-tui/internal/api"
	"github.com/jeranaias/botdeck-tui/internal/model"
)

// =============================================================================
// SESSION STATE
// =============================================================================

// State is the session lifecycle position.
type State int

const (
	// StateUninitialized means Bootstrap has not run yet.
	StateUninitialized State = iota

	// StateChecking means the startup auth check is in flight.
	StateChecking

	// StateAuthenticated means the backend confirmed the session.
	StateAuthenticated

	// StateAnonymous means there is no valid session.
	StateAnonymous
)

// String returns a short label for display and logging.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// ErrNotAuthenticated is returned by operations that need a session when
// the manager is anonymous.
var ErrNotAuthenticated = errors.New("not logged in")

// ChangeFunc is notified after every state transition. Called outside the
// manager's lock, so callbacks may call back into the manager.
type ChangeFunc func(state State, user *model.User)

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns the session lifecycle. Safe for concurrent use; the TUI
// reads state from its render loop while commands transition it.
type Manager struct {
	mu          sync.Mutex
	state       State
	user        *model.User
	client      *api.Client
	sessionPath string
	onChange    ChangeFunc
}

// NewManager creates a session manager over the given backend client.
// sessionPath is where the cookie jar persists between processes; empty
// disables persistence (used by the TUI's in-process flows and tests).
func NewManager(client *api.Client, sessionPath string) *Manager {
	return &Manager{
		state:       StateUninitialized,
		client:      client,
		sessionPath: sessionPath,
	}
}

// SetOnChange registers the transition callback.
func (m *Manager) SetOnChange(fn ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User returns the current user, or nil while not authenticated.
func (m *Manager) User() *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Username returns the current user's name, or "" while not authenticated.
func (m *Manager) Username() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return ""
	}
	return m.user.Username
}

// IsAuthenticated reports whether a confirmed session exists.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// transition updates state under the lock and fires the callback outside it.
func (m *Manager) transition(state State, user *model.User) {
	m.mu.Lock()
	m.state = state
	m.user = user
	fn := m.onChange
	m.mu.Unlock()

	if fn != nil {
		fn(state, user)
	}
}

// =============================================================================
// LIFECYCLE OPERATIONS
// =============================================================================

// Bootstrap restores any persisted session and asks the backend whether
// it is still valid. A failed check is terminal for this process: the
// manager goes anonymous, local state is cleared, and a best-effort
// backend logout fires. No retry.
func (m *Manager) Bootstrap(ctx context.Context) error {
	m.transition(StateChecking, nil)

	if m.sessionPath != "" {
		if err := m.client.RestoreSession(m.sessionPath); err != nil {
			m.clearLocal()
			return fmt.Errorf("failed to restore session: %w", err)
		}
	}

	user, err := m.client.CheckAuth(ctx)
	if err != nil {
		m.Logout(ctx)
		return err
	}

	m.transition(StateAuthenticated, user)
	return nil
}

// Login authenticates with the backend and persists the session cookie.
func (m *Manager) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := m.client.Login(ctx, username, password)
	if err != nil {
		m.transition(StateAnonymous, nil)
		return nil, err
	}

	if m.sessionPath != "" {
		if err := m.client.SaveSession(m.sessionPath); err != nil {
			return nil, fmt.Errorf("logged in but failed to persist session: %w", err)
		}
	}

	m.transition(StateAuthenticated, user)
	return user, nil
}

// Register validates the submission locally, creates the account, and on
// success chains straight into Login with the same credentials.
func (m *Manager) Register(ctx context.Context, username, password, confirm string) (*model.User, error) {
	if err := model.ValidateRegistration(username, password, confirm); err != nil {
		return nil, err
	}
	if err := m.client.Register(ctx, username, password); err != nil {
		return nil, err
	}
	return m.Login(ctx, username, password)
}

// Logout clears local session state unconditionally. The backend call is
// fire-and-forget with a short deadline: its failure never blocks the
// local transition to anonymous.
func (m *Manager) Logout(ctx context.Context) {
	logoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = m.client.Logout(logoutCtx)

	m.clearLocal()
}

// clearLocal drops the in-memory user, the persisted session file, and
// moves to anonymous.
func (m *Manager) clearLocal() {
	if m.sessionPath != "" {
		_ = api.ClearSession(m.sessionPath)
	}
	m.transition(StateAnonymous, nil)
}

// RequireUser returns the current user or ErrNotAuthenticated. Commands
// that need a session call this first for a uniform error message.
func (m *Manager) RequireUser() (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated || m.user == nil {
		return nil, ErrNotAuthenticated
	}
	return m.user, nil
}
