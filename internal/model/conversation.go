// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SPEAKER
// =============================================================================

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser    Speaker = "user"
	SpeakerChatbot Speaker = "chatbot"
)

// DisplayName returns the label used when rendering or exporting a turn.
// The chatbot speaker renders under the persona's name, which the caller
// supplies; this returns the generic fallback.
func (s Speaker) DisplayName() string {
	switch s {
	case SpeakerUser:
		return "You"
	case SpeakerChatbot:
		return "Chatbot"
	default:
		return string(s)
	}
}

// =============================================================================
// TURN
// =============================================================================

// Turn is one message in a conversation, attributed to a speaker.
// Turns are append-only; a finalized turn is never mutated.
type Turn struct {
	ID      string    `json:"id"`
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	Time    time.Time `json:"time"`
}

// NewTurn creates a finalized turn.
func NewTurn(speaker Speaker, text string) Turn {
	return Turn{
		ID:      uuid.NewString(),
		Speaker: speaker,
		Text:    text,
		Time:    time.Now(),
	}
}

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation is an ordered transcript of turns with one chatbot,
// scoped by a backend-assigned session id.
//
// While a streaming reply is in flight the partial text accumulates in a
// live buffer separate from the turn list; FinalizeStream moves it into a
// permanent chatbot turn and empties the buffer. The type itself is not
// goroutine-safe: ownership rests with a single consumer (the TUI update
// loop or the REPL), and stream goroutines hand tokens over as messages.
type Conversation struct {
	SessionID   string    `json:"conversationid"`
	ChatbotName string    `json:"chatbotname"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
	Started     time.Time `json:"started"`
	Turns       []Turn    `json:"turns"`

	live      strings.Builder
	streaming bool
}

// NewConversation creates a transcript for a backend conversation session.
func NewConversation(sessionID, username, chatbotName, description string) *Conversation {
	return &Conversation{
		SessionID:   sessionID,
		ChatbotName: chatbotName,
		Username:    username,
		Description: description,
		Started:     time.Now(),
		Turns:       make([]Turn, 0, 16),
	}
}

// AddUserTurn appends the user's message. Called optimistically before the
// send goes out, per the one-way data flow of the chat screen.
func (c *Conversation) AddUserTurn(text string) Turn {
	t := NewTurn(SpeakerUser, text)
	c.Turns = append(c.Turns, t)
	return t
}

// AddChatbotTurn appends a complete chatbot reply (sync path, or a
// synthetic error turn).
func (c *Conversation) AddChatbotTurn(text string) Turn {
	t := NewTurn(SpeakerChatbot, text)
	c.Turns = append(c.Turns, t)
	return t
}

// BeginStream marks a streaming chatbot reply as in flight and clears any
// stale live content.
func (c *Conversation) BeginStream() {
	c.live.Reset()
	c.streaming = true
}

// AppendToken adds a decoded stream chunk to the live buffer.
func (c *Conversation) AppendToken(token string) {
	c.live.WriteString(token)
}

// LiveText returns the partial reply accumulated so far.
func (c *Conversation) LiveText() string {
	return c.live.String()
}

// IsStreaming reports whether a streaming reply is in flight.
func (c *Conversation) IsStreaming() bool {
	return c.streaming
}

// FinalizeStream moves the accumulated live buffer into a permanent
// chatbot turn and empties the buffer. Finalizing an empty buffer appends
// nothing. Safe to call on both the sentinel and EOF paths; the second
// call is a no-op.
func (c *Conversation) FinalizeStream() (Turn, bool) {
	c.streaming = false
	text := c.live.String()
	c.live.Reset()
	if text == "" {
		return Turn{}, false
	}
	return c.AddChatbotTurn(text), true
}

// AbortStream drops the live buffer without appending a turn. Used when a
// read error already produced a synthetic error turn.
func (c *Conversation) AbortStream() string {
	c.streaming = false
	partial := c.live.String()
	c.live.Reset()
	return partial
}

// Len returns the number of finalized turns.
func (c *Conversation) Len() int {
	return len(c.Turns)
}
