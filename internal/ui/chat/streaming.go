// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file implements streaming optimization for smooth, flicker-free
// rendering while a reply streams in. Tokens are batched in a buffer
// and flushed either when the batch size threshold is reached or when
// enough time has passed, capping the render rate.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	chatcore "github.com/jeranaias/botdeck-tui/internal/chat"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches tokens for efficient rendering.
//
// PERFORMANCE: flushing on every token can exceed 1000 renders per
// second on a fast stream; batching caps it at maxFPS.
//
// Thread-safety: tokens arrive from the streaming goroutine while
// flushes happen on the Bubble Tea loop, so all operations lock.
type StreamingBuffer struct {
	mu         sync.Mutex
	buffer     strings.Builder
	tokenCount int
	lastFlush  time.Time

	batchSize  int
	minFlushMs time.Duration
}

// NewStreamingBuffer creates a buffer with the default settings:
// 15 tokens per batch, 30fps cap.
func NewStreamingBuffer() *StreamingBuffer {
	const (
		defaultBatchSize = 15
		defaultMaxFPS    = 30
	)
	return &StreamingBuffer{
		batchSize:  defaultBatchSize,
		minFlushMs: time.Duration(1000/defaultMaxFPS) * time.Millisecond,
		lastFlush:  time.Now(),
	}
}

// Write adds a token to the buffer. Called from the streaming
// goroutine.
func (sb *StreamingBuffer) Write(token string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.WriteString(token)
	sb.tokenCount++
}

// Flush returns accumulated content when a flush is due: either the
// batch size or the time threshold was reached.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 || !sb.shouldFlushLocked() {
		return "", false
	}
	return sb.drainLocked(), true
}

// ForceFlush returns everything buffered regardless of thresholds.
// Used when the stream completes so no token is left unrendered.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.drainLocked(), true
}

// Reset clears the buffer without flushing. Used on cancellation.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
}

// Pending returns the number of tokens waiting to be flushed.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.tokenCount
}

func (sb *StreamingBuffer) shouldFlushLocked() bool {
	if sb.tokenCount >= sb.batchSize {
		return true
	}
	return time.Since(sb.lastFlush) >= sb.minFlushMs
}

func (sb *StreamingBuffer) drainLocked() string {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
	return content
}

// =============================================================================
// STREAM RUNNER
// =============================================================================

// StreamRunner owns one in-flight streamed exchange: the goroutine
// running the request, the token buffer, and the cancel hook. The
// Bubble Tea model polls the buffer on ticks and collects the result
// through WaitCmd, so cancellation is guaranteed a single path.
type StreamRunner struct {
	Buffer *StreamingBuffer

	cancel context.CancelFunc
	done   chan StreamCompleteMsg
	once   sync.Once
}

// StartStream begins a streamed exchange on the session.
func StartStream(session *chatcore.Session, text string) *StreamRunner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &StreamRunner{
		Buffer: NewStreamingBuffer(),
		cancel: cancel,
		done:   make(chan StreamCompleteMsg, 1),
	}

	go func() {
		turn, err := session.SendStream(ctx, text, func(token string) {
			r.Buffer.Write(token)
		})
		r.done <- StreamCompleteMsg{Turn: turn, Err: err}
	}()

	return r
}

// WaitCmd returns a command that delivers the completion message.
func (r *StreamRunner) WaitCmd() tea.Cmd {
	return func() tea.Msg {
		return <-r.done
	}
}

// Cancel aborts the in-flight request. Safe to call more than once,
// and safe after completion.
func (r *StreamRunner) Cancel() {
	r.once.Do(r.cancel)
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd sends StreamTickMsg at ~30fps to drive batched
// rendering.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
