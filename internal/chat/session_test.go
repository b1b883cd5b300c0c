// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/botdeck-tui/internal/api"
	"github.com/jeranaias/botdeck-tui/internal/model"
)

func newTestSession(t *testing.T, handler http.Handler) *Session {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := Start(context.Background(), client, "alice", "helper")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return session
}

func startHandler(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/conversation/start/") {
			fmt.Fprint(w, `{"conversationid":"c1","description":"a helper bot"}`)
			return
		}
		next(w, r)
	})
}

func TestStartPopulatesSession(t *testing.T) {
	session := newTestSession(t, startHandler(func(w http.ResponseWriter, r *http.Request) {}))

	conv := session.Conversation()
	if conv.SessionID != "c1" || conv.Description != "a helper bot" {
		t.Errorf("conversation = %+v", conv)
	}
	if session.Busy() {
		t.Error("fresh session must not be busy")
	}
}

func TestStartErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusNotFound, "chatbot does not exist"},
		{http.StatusForbidden, "chatbot is not shared or not accessible"},
		{http.StatusInternalServerError, "server error, try again later"},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			fmt.Fprint(w, `{"error":"backend detail"}`)
		}))
		client, _ := api.NewClient(server.URL)

		_, err := Start(context.Background(), client, "alice", "helper")
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if got := UserMessage(err); got != tt.want {
			t.Errorf("status %d: UserMessage = %q, want %q", tt.status, got, tt.want)
		}
		server.Close()
	}
}

func TestUserMessageUnreachable(t *testing.T) {
	client, _ := api.NewClient("http://127.0.0.1:1")
	client.WithTimeout(300 * time.Millisecond)

	_, err := Start(context.Background(), client, "alice", "helper")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := UserMessage(err); got != "unable to reach server" {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestSyncSendTranscriptOrder(t *testing.T) {
	session := newTestSession(t, startHandler(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":"Hi"}`)
	}))

	if _, err := session.Send(context.Background(), "Hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	turns := session.Turns()
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Speaker != model.SpeakerUser || turns[0].Text != "Hello" {
		t.Errorf("turns[0] = %+v", turns[0])
	}
	if turns[1].Speaker != model.SpeakerChatbot || turns[1].Text != "Hi" {
		t.Errorf("turns[1] = %+v", turns[1])
	}
	if session.Busy() {
		t.Error("busy flag must release after send")
	}
}

func TestSyncSendForbiddenBecomesSyntheticTurn(t *testing.T) {
	session := newTestSession(t, startHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"chatbot not shared"}`)
	}))

	turn, err := session.Send(context.Background(), "Hello")
	if !errors.Is(err, api.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if turn.Speaker != model.SpeakerChatbot {
		t.Errorf("synthetic turn speaker = %v", turn.Speaker)
	}
	if !strings.Contains(turn.Text, "403") {
		t.Errorf("turn text missing status: %q", turn.Text)
	}
	if !strings.Contains(turn.Text, "chatbot not shared") {
		t.Errorf("turn text missing backend message: %q", turn.Text)
	}
	if session.Busy() {
		t.Error("busy flag must release after failed send")
	}

	turns := session.Turns()
	if len(turns) != 2 {
		t.Errorf("transcript = %+v", turns)
	}
}

func TestStreamSendAssemblesOneTurn(t *testing.T) {
	session := newTestSession(t, startHandler(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, chunk := range []string{"data: Hel\n\n", "data: lo\n\n", "event: close\ndata: done\n\n"} {
			fmt.Fprint(w, chunk)
			flusher.Flush()
		}
	}))

	var mu sync.Mutex
	var streamed []string
	turn, err := session.SendStream(context.Background(), "greet me", func(token string) {
		mu.Lock()
		streamed = append(streamed, token)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("SendStream failed: %v", err)
	}

	if turn.Text != "Hello" {
		t.Errorf("final turn text = %q, want %q", turn.Text, "Hello")
	}
	if session.LiveText() != "" {
		t.Errorf("live buffer = %q, want empty after finalize", session.LiveText())
	}

	turns := session.Turns()
	if len(turns) != 2 {
		t.Fatalf("transcript has %d turns, want 2", len(turns))
	}
	if turns[1].Speaker != model.SpeakerChatbot || turns[1].Text != "Hello" {
		t.Errorf("chatbot turn = %+v", turns[1])
	}

	mu.Lock()
	if got := strings.Join(streamed, ""); got != "Hello" {
		t.Errorf("streamed tokens = %q", got)
	}
	mu.Unlock()
}

func TestStreamSendErrorKeepsPartialAndAppendsErrorTurn(t *testing.T) {
	session := newTestSession(t, startHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"chatbot not shared"}`)
	}))

	turn, err := session.SendStream(context.Background(), "hi", nil)
	if !errors.Is(err, api.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if !strings.Contains(turn.Text, "403") || !strings.Contains(turn.Text, "chatbot not shared") {
		t.Errorf("error turn = %q", turn.Text)
	}
	if session.LiveText() != "" {
		t.Error("live buffer must be empty after stream error")
	}
	if session.Busy() {
		t.Error("busy flag must release after stream error")
	}
}

func TestBusyGuardRejectsOverlappingSend(t *testing.T) {
	release := make(chan struct{})
	session := newTestSession(t, startHandler(func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, `{"response":"slow"}`)
	}))

	done := make(chan struct{})
	go func() {
		session.Send(context.Background(), "first")
		close(done)
	}()

	// Wait for the first send to take the flag
	deadline := time.After(2 * time.Second)
	for !session.Busy() {
		select {
		case <-deadline:
			t.Fatal("first send never became busy")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if _, err := session.Send(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	close(release)
	<-done
	if session.Busy() {
		t.Error("busy flag stuck after completion")
	}
}

func TestResumeContinuesTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":"welcome back"}`)
	}))
	defer server.Close()
	client, _ := api.NewClient(server.URL)

	conv := model.NewConversation("c9", "alice", "helper", "")
	conv.AddUserTurn("earlier message")
	conv.AddChatbotTurn("earlier reply")

	session := Resume(client, conv)
	if _, err := session.Send(context.Background(), "again"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got := len(session.Turns()); got != 4 {
		t.Errorf("transcript length = %d, want 4", got)
	}
}
