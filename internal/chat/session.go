// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jeranaias/botdeck-tui/internal/api"
	"github.com/jeranaias/botdeck-tui/internal/model"
)

// ErrBusy is returned when a send is attempted while another is in
// flight. The UI disables the send control, but scripted callers get the
// same guard.
var ErrBusy = errors.New("a message is already in flight")

// TokenFunc receives each decoded stream token as it arrives, for live
// display. May be nil.
type TokenFunc func(token string)

// =============================================================================
// SESSION
// =============================================================================

// Session is one open conversation with a chatbot. The transcript and
// busy flag are mutex-protected because the TUI's render loop reads while
// a send runs in a command goroutine.
type Session struct {
	mu     sync.Mutex
	client *api.Client
	conv   *model.Conversation
	busy   bool
}

// Start establishes a conversation session for the (username, chatbot
// name) pair. Errors map through UserMessage for display; each condition
// is terminal until the user retries.
func Start(ctx context.Context, client *api.Client, username, chatbotName string) (*Session, error) {
	backendSession, err := client.StartConversation(ctx, username, chatbotName)
	if err != nil {
		return nil, err
	}

	return &Session{
		client: client,
		conv: model.NewConversation(
			backendSession.ConversationID,
			username,
			chatbotName,
			backendSession.Description,
		),
	}, nil
}

// Resume wraps an already-loaded transcript, letting a stored
// conversation continue where it left off.
func Resume(client *api.Client, conv *model.Conversation) *Session {
	return &Session{client: client, conv: conv}
}

// Conversation returns the underlying transcript. Callers must not
// mutate it while a send is in flight.
func (s *Session) Conversation() *model.Conversation {
	return s.conv
}

// Busy reports whether a send is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Turns returns a snapshot of the finalized transcript.
func (s *Session) Turns() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Turn, len(s.conv.Turns))
	copy(out, s.conv.Turns)
	return out
}

// LiveText returns the partial streamed reply for live rendering.
func (s *Session) LiveText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.LiveText()
}

// acquire flips the busy flag, failing if a send is already in flight.
func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

// release clears the busy flag. Deferred by every send path so the flag
// cannot leak on error.
func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// =============================================================================
// SYNC SEND
// =============================================================================

// Send posts one message and appends the reply. The user turn is appended
// optimistically before the request goes out; a failed request appends a
// synthetic chatbot turn carrying the formatted error instead of failing
// silently. The returned turn is the chatbot's (real or synthetic).
func (s *Session) Send(ctx context.Context, text string) (model.Turn, error) {
	if err := s.acquire(); err != nil {
		return model.Turn{}, err
	}
	defer s.release()

	s.mu.Lock()
	s.conv.AddUserTurn(text)
	s.mu.Unlock()

	reply, err := s.client.Chat(ctx, s.conv.Username, s.conv.ChatbotName, s.conv.SessionID, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		turn := s.conv.AddChatbotTurn(FormatSendError(err))
		return turn, err
	}
	return s.conv.AddChatbotTurn(reply), nil
}

// =============================================================================
// STREAMING SEND
// =============================================================================

// SendStream posts one message and assembles the reply incrementally.
// Tokens land in the conversation's live buffer (and onToken, when set);
// the sentinel or end-of-stream finalizes the accumulated text into one
// chatbot turn and empties the buffer. A read error keeps whatever
// partial content arrived as a turn, then appends a synthetic error turn.
// Cancellation comes from ctx; the underlying body is closed on every
// path.
func (s *Session) SendStream(ctx context.Context, text string, onToken TokenFunc) (model.Turn, error) {
	if err := s.acquire(); err != nil {
		return model.Turn{}, err
	}
	defer s.release()

	s.mu.Lock()
	s.conv.AddUserTurn(text)
	s.conv.BeginStream()
	s.mu.Unlock()

	err := s.client.ChatStream(ctx, s.conv.Username, s.conv.ChatbotName, s.conv.SessionID, text,
		func(chunk api.StreamChunk) {
			s.mu.Lock()
			s.conv.AppendToken(chunk.Token)
			s.mu.Unlock()
			if onToken != nil {
				onToken(chunk.Token)
			}
		})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// Keep delivered content, then record the failure as a turn
		s.conv.FinalizeStream()
		turn := s.conv.AddChatbotTurn(FormatSendError(err))
		return turn, err
	}

	turn, ok := s.conv.FinalizeStream()
	if !ok {
		// Stream closed without delivering anything
		turn = s.conv.AddChatbotTurn("")
	}
	return turn, nil
}

// =============================================================================
// ERROR PRESENTATION
// =============================================================================

// UserMessage maps a session-establishment error onto the fixed
// user-facing strings: not-found, forbidden, server failure, unreachable.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, api.ErrNotFound):
		return "chatbot does not exist"
	case errors.Is(err, api.ErrForbidden):
		return "chatbot is not shared or not accessible"
	case errors.Is(err, api.ErrServer):
		return "server error, try again later"
	case errors.Is(err, api.ErrUnreachable):
		return "unable to reach server"
	default:
		return err.Error()
	}
}

// FormatSendError renders a failed send as transcript text. Backend
// errors keep their HTTP status and message; transport failures collapse
// to the unreachable message.
func FormatSendError(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("[error] HTTP %d: %s", apiErr.Status, apiErr.Message)
	}

	var streamErr *api.StreamError
	if errors.As(err, &streamErr) {
		return fmt.Sprintf("[error] stream interrupted: %s", UserMessage(streamErr.Err))
	}

	return "[error] " + UserMessage(err)
}
