// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines all Bubble Tea message types used by the botdeck
// TUI. Messages are organized by concern: authentication, registry,
// conversation, streaming, and UI state. All message types are
// immutable.
package chat

import (
	"time"

	"github.com/jeranaias/botdeck-tui/internal/auth"
	chatcore "github.com/jeranaias/botdeck-tui/internal/chat"
	"github.com/jeranaias/botdeck-tui/internal/config"
	"github.com/jeranaias/botdeck-tui/internal/model"
)

// =============================================================================
// AUTHENTICATION MESSAGES
// =============================================================================

// BootstrapMsg reports the result of the session restore at startup.
type BootstrapMsg struct {
	State auth.State
	Err   error
}

// AuthResultMsg reports a completed login or register attempt.
type AuthResultMsg struct {
	User *model.User
	Err  error
}

// LogoutMsg reports a completed logout. Local state is always cleared,
// so there is nothing to carry.
type LogoutMsg struct{}

// =============================================================================
// REGISTRY MESSAGES
// =============================================================================

// BotsLoadedMsg delivers the chatbot list.
type BotsLoadedMsg struct {
	Bots []model.Chatbot
	Err  error
}

// BotSavedMsg reports a completed create or update.
type BotSavedMsg struct {
	Bot *model.Chatbot
	Err error
}

// BotDeletedMsg reports a completed delete.
type BotDeletedMsg struct {
	ID  string
	Err error
}

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// SessionStartedMsg reports that a conversation was established (or
// not).
type SessionStartedMsg struct {
	ChatbotName string
	Session     *chatcore.Session
	Err         error
}

// SendCompleteMsg reports a finished sync exchange. The turn is the
// chatbot's reply, real or synthetic.
type SendCompleteMsg struct {
	Turn model.Turn
	Err  error
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamStartMsg signals that streaming has begun.
type StreamStartMsg struct {
	StartTime time.Time
}

// StreamTickMsg drives the batched render loop while streaming.
type StreamTickMsg struct {
	Time time.Time
}

// StreamCompleteMsg signals that the stream finished. The turn holds
// the assembled reply; Err is set when the stream broke early.
type StreamCompleteMsg struct {
	Turn model.Turn
	Err  error
}

// =============================================================================
// UI STATE MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a configuration picked up from disk by
// the file watcher.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// ErrorMsg displays a transient error banner.
type ErrorMsg struct {
	Err error
}

// ClearNoticeMsg hides the banner after its timeout.
type ClearNoticeMsg struct{}
