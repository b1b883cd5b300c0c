// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/jeranaias/botdeck-tui/internal/api"
	"github.com/jeranaias/botdeck-tui/internal/model"
)

// ErrUnknownChatbot is returned when a lookup misses the cache.
var ErrUnknownChatbot = errors.New("unknown chatbot")

// Registry is the session-scoped chatbot cache. Reads are frequent (every
// TUI render of the bot list), mutations rare, hence the RWMutex.
type Registry struct {
	mu     sync.RWMutex
	client *api.Client
	bots   map[string]model.Chatbot
	loaded bool
}

// New creates an empty registry over the backend client.
func New(client *api.Client) *Registry {
	return &Registry{
		client: client,
		bots:   make(map[string]model.Chatbot),
	}
}

// Load fetches the chatbot list if it has not been fetched yet. Pass
// force to refresh after external changes. A fetch failure leaves any
// previously loaded cache intact.
func (r *Registry) Load(ctx context.Context, force bool) error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded && !force {
		return nil
	}

	bots, err := r.client.ListChatbots(ctx)
	if err != nil {
		return err
	}

	fresh := make(map[string]model.Chatbot, len(bots))
	for _, bot := range bots {
		fresh[bot.ID] = bot
	}

	r.mu.Lock()
	r.bots = fresh
	r.loaded = true
	r.mu.Unlock()
	return nil
}

// Loaded reports whether the initial fetch has happened.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// List returns a snapshot of all cached chatbots sorted by name.
func (r *Registry) List() []model.Chatbot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Chatbot, 0, len(r.bots))
	for _, bot := range r.bots {
		out = append(out, bot)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Get returns the cached chatbot with the given id.
func (r *Registry) Get(id string) (model.Chatbot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bot, ok := r.bots[id]
	return bot, ok
}

// GetByName returns the cached chatbot with the given name
// (case-insensitive).
func (r *Registry) GetByName(name string) (model.Chatbot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, bot := range r.bots {
		if strings.EqualFold(bot.Name, name) {
			return bot, true
		}
	}
	return model.Chatbot{}, false
}

// Len returns the number of cached chatbots.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bots)
}

// Save validates and uploads the record, creating or updating depending
// on whether it has an id, and mirrors the confirmed result into the
// cache. On any error the cache is untouched.
func (r *Registry) Save(ctx context.Context, bot *model.Chatbot) (*model.Chatbot, error) {
	var saved *model.Chatbot
	var err error
	if bot.IsNew() {
		saved, err = r.client.CreateChatbot(ctx, bot)
	} else {
		saved, err = r.client.UpdateChatbot(ctx, bot)
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.bots[saved.ID] = *saved
	r.mu.Unlock()
	return saved, nil
}

// Delete removes the chatbot on the backend, then from the cache. Any
// backend failure is hard: the entry stays.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if _, ok := r.Get(id); !ok {
		return ErrUnknownChatbot
	}
	if err := r.client.DeleteChatbot(ctx, id); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.bots, id)
	r.mu.Unlock()
	return nil
}
