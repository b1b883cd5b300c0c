// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/botdeck-tui/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, server
}

// =============================================================================
// AUTH
// =============================================================================

func TestLoginSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("expected multipart form: %v", err)
		}
		if got := r.FormValue("username"); got != "alice" {
			t.Errorf("username = %q", got)
		}
		if got := r.FormValue("password"); got != "hunter2hunter2" {
			t.Errorf("password = %q", got)
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok-1"})
		fmt.Fprint(w, `{"id":"u1","username":"alice"}`)
	}))

	user, err := client.Login(context.Background(), "alice", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID != "u1" || user.Username != "alice" {
		t.Errorf("user = %+v", user)
	}
}

func TestLoginSendsSessionCookieOnLaterCalls(t *testing.T) {
	var sawCookie bool
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok-1"})
			fmt.Fprint(w, `{"id":"u1","username":"alice"}`)
		case "/chatbot/list":
			if ck, err := r.Cookie("session"); err == nil && ck.Value == "tok-1" {
				sawCookie = true
			}
			fmt.Fprint(w, `[]`)
		}
	}))

	if _, err := client.Login(context.Background(), "alice", "pw-longenough"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := client.ListChatbots(context.Background()); err != nil {
		t.Fatalf("ListChatbots failed: %v", err)
	}
	if !sawCookie {
		t.Error("session cookie was not replayed on the follow-up request")
	}
}

func TestLoginBackendErrorSurfacedVerbatim(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid username or password"}`)
	}))

	_, err := client.Login(context.Background(), "alice", "wrong-password")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid username or password") {
		t.Errorf("backend message not surfaced: %v", err)
	}
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestRegisterExpects201(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/register" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
	}))

	if err := client.Register(context.Background(), "alice", "hunter2hunter2"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}

func TestCheckAuthExpiredSession(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"session expired"}`)
	}))

	_, err := client.CheckAuth(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestUnreachableServer(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	client.WithTimeout(500 * time.Millisecond)

	_, err = client.CheckAuth(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

// =============================================================================
// CHATBOTS
// =============================================================================

func TestListChatbots(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"chatbotid":"b1","chatbotname":"helper","isshared":true}]`)
	}))

	bots, err := client.ListChatbots(context.Background())
	if err != nil {
		t.Fatalf("ListChatbots failed: %v", err)
	}
	if len(bots) != 1 || bots[0].ID != "b1" || bots[0].Name != "helper" || !bots[0].Shared {
		t.Errorf("bots = %+v", bots)
	}
}

func TestCreateChatbotValidationBlocksRequest(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	bot := model.NewChatbot("u1")
	bot.Name = "bad name!"
	_, err := client.CreateChatbot(context.Background(), bot)
	if !errors.Is(err, model.ErrNameCharset) {
		t.Fatalf("expected name validation error, got %v", err)
	}
	if calls != 0 {
		t.Errorf("validation failure must not issue a network call, saw %d", calls)
	}
}

func TestCreateChatbotMultipartFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chatbot" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			t.Fatalf("expected multipart form: %v", err)
		}
		if got := r.FormValue("chatbotname"); got != "helper" {
			t.Errorf("chatbotname = %q", got)
		}
		if got := r.FormValue("isshared"); got != "true" {
			t.Errorf("isshared = %q", got)
		}
		fmt.Fprint(w, `{"chatbotid":"b-new","chatbotname":"helper"}`)
	}))

	bot := model.NewChatbot("u1")
	bot.Name = "helper"
	bot.Shared = true

	saved, err := client.CreateChatbot(context.Background(), bot)
	if err != nil {
		t.Fatalf("CreateChatbot failed: %v", err)
	}
	if saved.ID != "b-new" {
		t.Errorf("saved.ID = %q, want backend-assigned id", saved.ID)
	}
}

func TestUpdateChatbotRequiresID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	bot := model.NewChatbot("u1")
	bot.Name = "helper"
	if _, err := client.UpdateChatbot(context.Background(), bot); err == nil {
		t.Error("expected error updating unsaved chatbot")
	}
}

func TestDeleteChatbotHardFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"db locked"}`)
	}))

	err := client.DeleteChatbot(context.Background(), "b1")
	if !errors.Is(err, ErrServer) {
		t.Errorf("expected ErrServer, got %v", err)
	}
}

// =============================================================================
// CONVERSATION
// =============================================================================

func TestStartConversationMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", http.StatusNotFound, `{"error":"no such chatbot"}`, ErrNotFound},
		{"forbidden", http.StatusForbidden, `{"error":"chatbot not shared"}`, ErrForbidden},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))

			_, err := client.StartConversation(context.Background(), "alice", "helper")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestStartConversationSuccess(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversation/start/alice/helper" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"conversationid":"c1","description":"a helper"}`)
	}))

	session, err := client.StartConversation(context.Background(), "alice", "helper")
	if err != nil {
		t.Fatalf("StartConversation failed: %v", err)
	}
	if session.ConversationID != "c1" || session.Description != "a helper" {
		t.Errorf("session = %+v", session)
	}
}

func TestChatSync(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversation/chat/alice/helper" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"response":"Hi"}`)
	}))

	reply, err := client.Chat(context.Background(), "alice", "helper", "c1", "Hello")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply != "Hi" {
		t.Errorf("reply = %q, want %q", reply, "Hi")
	}
}

func TestChatForbiddenCarriesStatusAndMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"chatbot not shared"}`)
	}))

	_, err := client.Chat(context.Background(), "alice", "helper", "c1", "Hello")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Status != http.StatusForbidden {
		t.Errorf("status = %d", apiErr.Status)
	}
	if !strings.Contains(apiErr.Message, "chatbot not shared") {
		t.Errorf("message = %q", apiErr.Message)
	}
}

// =============================================================================
// STREAMING
// =============================================================================

func TestChatStreamAssemblesSentinelTerminatedReply(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversation/chat/stream/alice/helper" {
			t.Errorf("path = %s", r.URL.Path)
		}
		flusher := w.(http.Flusher)
		for _, chunk := range []string{"data: Hel\n\n", "data: lo\n\n", "event: close\ndata: done\n\n"} {
			fmt.Fprint(w, chunk)
			flusher.Flush()
		}
	}))

	var tokens []string
	err := client.ChatStream(context.Background(), "alice", "helper", "c1", "greet", func(chunk StreamChunk) {
		tokens = append(tokens, chunk.Token)
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if got := strings.Join(tokens, ""); got != "Hello" {
		t.Errorf("assembled reply = %q, want %q", got, "Hello")
	}
}

func TestChatStreamFinalizesOnEOFWithoutSentinel(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: partial reply\n\n")
	}))

	acc := NewStreamAccumulator()
	err := client.ChatStream(context.Background(), "alice", "helper", "c1", "hi", acc.Callback())
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if acc.Content() != "partial reply" {
		t.Errorf("content = %q", acc.Content())
	}
}

func TestChatStreamPreservesTokenWhitespace(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: Hello\n\ndata:  world\n\nevent: close\ndata: done\n\n")
	}))

	got, err := client.ChatStreamAccumulate(context.Background(), "alice", "helper", "c1", "hi")
	if err != nil {
		t.Fatalf("ChatStreamAccumulate failed: %v", err)
	}
	if got != "Hello world" {
		t.Errorf("reply = %q, want %q", got, "Hello world")
	}
}

func TestChatStreamErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"chatbot not shared"}`)
	}))

	err := client.ChatStream(context.Background(), "alice", "helper", "c1", "hi", func(StreamChunk) {})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestChatStreamChanClosesBothChannels(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: Hi\n\nevent: close\ndata: done\n\n")
	}))

	chunks, errs := client.ChatStreamChan(context.Background(), "alice", "helper", "c1", "hi")

	var got strings.Builder
	for chunk := range chunks {
		got.WriteString(chunk.Token)
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if got.String() != "Hi" {
		t.Errorf("reply = %q", got.String())
	}
}

func TestChatStreamCancellation(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: started\n\n")
		flusher.Flush()
		<-release
	}))
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- client.ChatStream(ctx, "alice", "helper", "c1", "hi", func(StreamChunk) {})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected cancellation error")
		}
		var streamErr *StreamError
		if errors.As(err, &streamErr) {
			if streamErr.Partial != "started" {
				t.Errorf("partial = %q", streamErr.Partial)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not terminate after cancel")
	}
}

// =============================================================================
// EVENT READER
// =============================================================================

func TestEventReader(t *testing.T) {
	input := "data: one\n\nevent: close\ndata: done\n\n"
	reader := NewEventReader(strings.NewReader(input))

	event, data, err := reader.ReadEvent()
	if err != nil || event != "" || data != "one" {
		t.Errorf("first event = (%q, %q, %v)", event, data, err)
	}

	event, data, err = reader.ReadEvent()
	if err != nil || event != "close" || data != "done" {
		t.Errorf("second event = (%q, %q, %v)", event, data, err)
	}

	if _, _, err = reader.ReadEvent(); err == nil {
		t.Error("expected io.EOF at end of stream")
	}
}

func TestEventReaderUnterminatedFinalEvent(t *testing.T) {
	reader := NewEventReader(strings.NewReader("data: tail"))
	_, data, err := reader.ReadEvent()
	if err != nil || data != "tail" {
		t.Errorf("final event = (%q, %v)", data, err)
	}
}

// =============================================================================
// SESSION PERSISTENCE
// =============================================================================

func TestSessionSaveRestoreRoundtrip(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok-persist", Path: "/"})
			fmt.Fprint(w, `{"id":"u1","username":"alice"}`)
		case "/user/auth/check":
			if ck, err := r.Cookie("session"); err != nil || ck.Value != "tok-persist" {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error":"session expired"}`)
				return
			}
			fmt.Fprint(w, `{"id":"u1","username":"alice"}`)
		}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	sessionPath := filepath.Join(t.TempDir(), "session.json")

	first, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := first.Login(context.Background(), "alice", "pw-longenough"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := first.SaveSession(sessionPath); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	// A fresh client (new process) restores the cookie and is authenticated
	second, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if err := second.RestoreSession(sessionPath); err != nil {
		t.Fatalf("RestoreSession failed: %v", err)
	}
	user, err := second.CheckAuth(context.Background())
	if err != nil {
		t.Fatalf("CheckAuth after restore failed: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("user = %+v", user)
	}
}

func TestRestoreSessionMissingFileIsAnonymous(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	if err := client.RestoreSession(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Errorf("missing session file should not error: %v", err)
	}
}
