// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// STREAMING: Robust event-stream parsing with guaranteed body cleanup.

// =============================================================================
// STREAMING CONSTANTS
// =============================================================================

// MaxChunkSize is the maximum allowed size for a single stream event (64KB).
const MaxChunkSize = 64 * 1024

// The backend terminates a streamed reply with an explicit sentinel event
// in addition to closing the body. Either one finalizes the turn; seeing
// both must not duplicate it.
const (
	closeEvent   = "close"
	closePayload = "done"
)

// =============================================================================
// STREAMING TYPES
// =============================================================================

// StreamChunk is one decoded piece of a streamed chatbot reply.
// Errors travel in-band for channel-based consumers.
type StreamChunk struct {
	Token string
	Error error
}

// HasError returns true if the chunk carries an error.
func (c StreamChunk) HasError() bool {
	return c.Error != nil
}

// StreamCallback is called for each decoded token.
type StreamCallback func(chunk StreamChunk)

// StreamError is a streaming failure that preserves any partial content
// received before the error, so the UI can keep what was already shown.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// EVENT READER
// =============================================================================

// EventReader parses the backend's chunked reply format: events separated
// by blank lines, each carrying "event:" and/or "data:" fields. The
// "data: " prefix is stripped exactly; payload whitespace is preserved
// because tokens may legitimately start or end with spaces.
type EventReader struct {
	reader *bufio.Reader
}

// NewEventReader wraps an io.Reader in an event parser.
func NewEventReader(r io.Reader) *EventReader {
	return &EventReader{reader: bufio.NewReader(r)}
}

// ReadEvent reads the next event, returning its type (usually empty) and
// data payload. Multi-line data joins with a newline. Returns io.EOF when
// the stream ends; a final unterminated event is returned before EOF.
func (r *EventReader) ReadEvent() (string, string, error) {
	var eventType string
	var dataLines []string
	var have bool
	var size int

	for {
		line, err := r.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if have {
					return eventType, strings.Join(dataLines, "\n"), nil
				}
				return "", "", io.EOF
			}
			return "", "", err
		}

		size += len(line)
		if size > MaxChunkSize {
			return "", "", fmt.Errorf("stream event too large: %d bytes", size)
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line ends the event
		if len(line) == 0 {
			if have {
				return eventType, strings.Join(dataLines, "\n"), nil
			}
			continue
		}

		switch {
		case bytes.HasPrefix(line, []byte("event: ")):
			eventType = string(line[7:])
			have = true
		case bytes.HasPrefix(line, []byte("event:")):
			eventType = string(bytes.TrimSpace(line[6:]))
			have = true
		case bytes.HasPrefix(line, []byte("data: ")):
			dataLines = append(dataLines, string(line[6:]))
			have = true
		case bytes.HasPrefix(line, []byte("data:")):
			dataLines = append(dataLines, string(line[5:]))
			have = true
		}
		// Ignore other fields (id:, retry:, comments starting with :)
	}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream sends one message and delivers the reply incrementally
// through the callback. The request uses the streaming client (no
// timeout); cancellation comes from ctx and is the caller's tie to the
// consuming view's lifetime. The response body is always closed, on every
// exit path.
func (c *Client) ChatStream(ctx context.Context, username, chatbotName, conversationID, message string, callback StreamCallback) error {
	path := "/conversation/chat/stream/" + url.PathEscape(username) + "/" + url.PathEscape(chatbotName)

	bodyBytes, err := json.Marshal(chatRequest{
		ConversationID: conversationID,
		Message:        message,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.do(ctx, c.streamClient, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return handleErrorResponse(resp.StatusCode, body)
	}

	return processStream(ctx, resp.Body, callback)
}

// processStream decodes events until the close sentinel, EOF, or an
// error. A read error is wrapped in a StreamError carrying the content
// delivered so far.
func processStream(ctx context.Context, body io.Reader, callback StreamCallback) error {
	reader := NewEventReader(body)
	var delivered strings.Builder

	for {
		select {
		case <-ctx.Done():
			return &StreamError{Partial: delivered.String(), Err: ctx.Err()}
		default:
		}

		event, data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				// Normal end-of-stream finalizes like the sentinel
				return nil
			}
			return &StreamError{Partial: delivered.String(), Err: err}
		}

		// Terminal sentinel
		if event == closeEvent && data == closePayload {
			return nil
		}
		if event != "" && event != "message" {
			// Unknown event types are ignored, matching the backend's
			// freedom to add keepalives
			continue
		}
		if data == "" {
			continue
		}

		delivered.WriteString(data)
		callback(StreamChunk{Token: data})
	}
}

// =============================================================================
// CHANNEL-BASED STREAMING
// =============================================================================

// ChatStreamChan runs ChatStream in a goroutine and returns a channel of
// chunks plus an error channel. Both channels close when the stream ends,
// so a consumer can tie cleanup to channel closure instead of best-effort
// error paths.
func (c *Client) ChatStreamChan(ctx context.Context, username, chatbotName, conversationID, message string) (<-chan StreamChunk, <-chan error) {
	chunkChan := make(chan StreamChunk, 64)
	errChan := make(chan error, 1)

	go func() {
		defer close(chunkChan)
		defer close(errChan)

		err := c.ChatStream(ctx, username, chatbotName, conversationID, message, func(chunk StreamChunk) {
			select {
			case chunkChan <- chunk:
			case <-ctx.Done():
			}
		})
		if err != nil {
			select {
			case errChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	return chunkChan, errChan
}

// ChatStreamAccumulate streams for progress but returns the complete
// reply. On a StreamError the partial content comes back with the error.
func (c *Client) ChatStreamAccumulate(ctx context.Context, username, chatbotName, conversationID, message string) (string, error) {
	var accumulated strings.Builder

	err := c.ChatStream(ctx, username, chatbotName, conversationID, message, func(chunk StreamChunk) {
		accumulated.WriteString(chunk.Token)
	})
	if err != nil {
		var streamErr *StreamError
		if errors.As(err, &streamErr) && streamErr.Partial != "" {
			return streamErr.Partial, err
		}
		return accumulated.String(), err
	}
	return accumulated.String(), nil
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// StreamAccumulator collects chunks into a complete reply with timing.
type StreamAccumulator struct {
	content      strings.Builder
	TokenCount   int
	StartTime    time.Time
	FirstTokenAt time.Time
}

// NewStreamAccumulator creates an accumulator stamped with the start time.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{StartTime: time.Now()}
}

// Add processes one chunk.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	if chunk.Token == "" {
		return
	}
	a.TokenCount++
	if a.FirstTokenAt.IsZero() {
		a.FirstTokenAt = time.Now()
	}
	a.content.WriteString(chunk.Token)
}

// Content returns the accumulated reply.
func (a *StreamAccumulator) Content() string {
	return a.content.String()
}

// TimeToFirstToken returns the latency before the first token, or zero if
// none arrived.
func (a *StreamAccumulator) TimeToFirstToken() time.Duration {
	if a.FirstTokenAt.IsZero() {
		return 0
	}
	return a.FirstTokenAt.Sub(a.StartTime)
}

// Callback returns a StreamCallback that feeds this accumulator.
func (a *StreamAccumulator) Callback() StreamCallback {
	return func(chunk StreamChunk) {
		a.Add(chunk)
	}
}
