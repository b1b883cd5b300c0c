// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeranaias/botdeck-tui/internal/api"
	"github.com/jeranaias/botdeck-tui/internal/model"
)

func newTestRegistry(t *testing.T, handler http.Handler) *Registry {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return New(client)
}

func TestLoadFetchesOnce(t *testing.T) {
	var fetches int
	reg := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		fmt.Fprint(w, `[{"chatbotid":"b1","chatbotname":"zeta"},{"chatbotid":"b2","chatbotname":"alpha"}]`)
	}))

	ctx := context.Background()
	if err := reg.Load(ctx, false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := reg.Load(ctx, false); err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1 (fetch-once semantics)", fetches)
	}

	bots := reg.List()
	if len(bots) != 2 || bots[0].Name != "alpha" || bots[1].Name != "zeta" {
		t.Errorf("List() = %+v, want name-sorted", bots)
	}

	if err := reg.Load(ctx, true); err != nil {
		t.Fatalf("forced Load failed: %v", err)
	}
	if fetches != 2 {
		t.Errorf("forced reload did not fetch, fetches = %d", fetches)
	}
}

func TestSaveCreateMirrorsAfterConfirmation(t *testing.T) {
	reg := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/chatbot/list":
			fmt.Fprint(w, `[]`)
		case r.Method == http.MethodPost && r.URL.Path == "/chatbot":
			fmt.Fprint(w, `{"chatbotid":"b-new","chatbotname":"helper"}`)
		}
	}))

	ctx := context.Background()
	if err := reg.Load(ctx, false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	draft := model.NewChatbot("u1")
	draft.Name = "helper"
	saved, err := reg.Save(ctx, draft)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID != "b-new" {
		t.Errorf("saved id = %q", saved.ID)
	}
	if got, ok := reg.Get("b-new"); !ok || got.Name != "helper" {
		t.Errorf("cache entry = (%+v, %v)", got, ok)
	}
}

func TestSaveFailureLeavesCacheUntouched(t *testing.T) {
	reg := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/chatbot/list":
			fmt.Fprint(w, `[{"chatbotid":"b1","chatbotname":"helper","description":"old"}]`)
		case r.Method == http.MethodPut:
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"name taken"}`)
		}
	}))

	ctx := context.Background()
	if err := reg.Load(ctx, false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cached, _ := reg.Get("b1")
	draft := cached.Clone()
	draft.Description = "new"

	if _, err := reg.Save(ctx, draft); err == nil {
		t.Fatal("expected save error")
	}

	after, _ := reg.Get("b1")
	if after.Description != "old" {
		t.Errorf("cache mutated on failed save: %+v", after)
	}
}

func TestDeleteRemovesOnlyAfterBackendOK(t *testing.T) {
	var allow bool
	reg := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/chatbot/list":
			fmt.Fprint(w, `[{"chatbotid":"b1","chatbotname":"helper"}]`)
		case r.Method == http.MethodDelete:
			if !allow {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"error":"boom"}`)
				return
			}
			fmt.Fprint(w, `{}`)
		}
	}))

	ctx := context.Background()
	if err := reg.Load(ctx, false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := reg.Delete(ctx, "b1"); err == nil {
		t.Fatal("expected delete failure")
	}
	if _, ok := reg.Get("b1"); !ok {
		t.Error("entry removed despite backend failure")
	}

	allow = true
	if err := reg.Delete(ctx, "b1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := reg.Get("b1"); ok {
		t.Error("entry still cached after confirmed delete")
	}

	if err := reg.Delete(ctx, "b-missing"); !errors.Is(err, ErrUnknownChatbot) {
		t.Errorf("expected ErrUnknownChatbot, got %v", err)
	}
}

func TestGetByName(t *testing.T) {
	reg := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"chatbotid":"b1","chatbotname":"Helper"}]`)
	}))

	if err := reg.Load(context.Background(), false); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if bot, ok := reg.GetByName("helper"); !ok || bot.ID != "b1" {
		t.Errorf("GetByName = (%+v, %v)", bot, ok)
	}
}
