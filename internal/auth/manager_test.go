// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jeranaias/botdeck-tui/internal/api"
	"github.com/jeranaias/botdeck-tui/internal/model"
)

func newTestManager(t *testing.T, handler http.Handler) (*Manager, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	sessionPath := filepath.Join(t.TempDir(), "session.json")
	return NewManager(client, sessionPath), sessionPath
}

func TestLifecycleStartsUninitialized(t *testing.T) {
	mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	if mgr.State() != StateUninitialized {
		t.Errorf("initial state = %v", mgr.State())
	}
	if mgr.IsAuthenticated() {
		t.Error("fresh manager must not be authenticated")
	}
}

func TestBootstrapValidSession(t *testing.T) {
	mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/user/auth/check" {
			fmt.Fprint(w, `{"id":"u1","username":"alice"}`)
		}
	}))

	var states []State
	mgr.SetOnChange(func(s State, _ *model.User) {
		states = append(states, s)
	})

	if err := mgr.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if mgr.State() != StateAuthenticated {
		t.Errorf("state = %v", mgr.State())
	}
	if mgr.Username() != "alice" {
		t.Errorf("username = %q", mgr.Username())
	}
	if len(states) != 2 || states[0] != StateChecking || states[1] != StateAuthenticated {
		t.Errorf("transitions = %v, want [checking authenticated]", states)
	}
}

func TestBootstrapFailedCheckGoesAnonymous(t *testing.T) {
	mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/auth/check":
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"session expired"}`)
		case "/user/logout":
			// Backend logout is best-effort; answer fine here
		}
	}))

	err := mgr.Bootstrap(context.Background())
	if !errors.Is(err, api.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
	if mgr.State() != StateAnonymous {
		t.Errorf("state = %v, want anonymous", mgr.State())
	}
	if mgr.User() != nil {
		t.Error("user must be cleared after failed check")
	}
}

func TestLoginPersistsSession(t *testing.T) {
	mgr, sessionPath := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/user/login" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok", Path: "/"})
			fmt.Fprint(w, `{"id":"u1","username":"alice"}`)
		}
	}))

	user, err := mgr.Login(context.Background(), "alice", "pw-longenough")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Username != "alice" || !mgr.IsAuthenticated() {
		t.Errorf("login state wrong: user=%+v state=%v", user, mgr.State())
	}
	if _, err := os.Stat(sessionPath); err != nil {
		t.Errorf("session file not persisted: %v", err)
	}
}

func TestRegisterChainsIntoLogin(t *testing.T) {
	var registered, loggedIn bool
	mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/register":
			registered = true
			w.WriteHeader(http.StatusCreated)
		case "/user/login":
			if !registered {
				t.Error("login before register")
			}
			loggedIn = true
			fmt.Fprint(w, `{"id":"u1","username":"bob"}`)
		}
	}))

	user, err := mgr.Register(context.Background(), "bob", "hunter2hunter2", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !registered || !loggedIn {
		t.Error("register must chain into login")
	}
	if user.Username != "bob" || !mgr.IsAuthenticated() {
		t.Errorf("state after register: user=%+v state=%v", user, mgr.State())
	}
}

func TestRegisterValidatesLocallyBeforeNetwork(t *testing.T) {
	var calls int
	mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	cases := []struct {
		username, password, confirm string
		want                        error
	}{
		{"ab", "hunter2hunter2", "hunter2hunter2", model.ErrUsernameTooShort},
		{"alice", "short", "short", model.ErrPasswordTooShort},
		{"alice", "hunter2hunter2", "different-pass", model.ErrPasswordMismatch},
	}
	for _, tc := range cases {
		if _, err := mgr.Register(context.Background(), tc.username, tc.password, tc.confirm); !errors.Is(err, tc.want) {
			t.Errorf("Register(%q): got %v, want %v", tc.username, err, tc.want)
		}
	}
	if calls != 0 {
		t.Errorf("local validation failures must not hit the network, saw %d calls", calls)
	}
}

func TestLogoutClearsLocallyEvenWhenBackendFails(t *testing.T) {
	mgr, sessionPath := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok", Path: "/"})
			fmt.Fprint(w, `{"id":"u1","username":"alice"}`)
		case "/user/logout":
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"backend down"}`)
		}
	}))

	if _, err := mgr.Login(context.Background(), "alice", "pw-longenough"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	mgr.Logout(context.Background())

	if mgr.State() != StateAnonymous {
		t.Errorf("state = %v, want anonymous", mgr.State())
	}
	if mgr.User() != nil {
		t.Error("user must be nil after logout")
	}
	if _, err := os.Stat(sessionPath); !os.IsNotExist(err) {
		t.Error("session file must be removed on logout")
	}
}

func TestRequireUser(t *testing.T) {
	mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/user/login" {
			fmt.Fprint(w, `{"id":"u1","username":"alice"}`)
		}
	}))

	if _, err := mgr.RequireUser(); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}

	if _, err := mgr.Login(context.Background(), "alice", "pw-longenough"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	user, err := mgr.RequireUser()
	if err != nil || user.Username != "alice" {
		t.Errorf("RequireUser = (%+v, %v)", user, err)
	}
}
