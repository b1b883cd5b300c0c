// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/botdeck-tui/internal/model"
	"github.com/jeranaias/botdeck-tui/internal/ui/styles"
)

// =============================================================================
// TURN BUBBLE
// =============================================================================

// TurnBubble renders one conversation turn.
type TurnBubble struct {
	turn      model.Turn
	theme     *styles.Theme
	width     int
	label     string
	streaming bool
}

// NewTurnBubble creates a bubble for a turn. label overrides the
// default speaker name (used to show the chatbot's persona name).
func NewTurnBubble(turn model.Turn, theme *styles.Theme, label string) *TurnBubble {
	if label == "" {
		label = turn.Speaker.DisplayName()
	}
	return &TurnBubble{
		turn:  turn,
		theme: theme,
		width: 80,
		label: label,
	}
}

// SetWidth sets the rendering width.
func (b *TurnBubble) SetWidth(width int) {
	b.width = width
}

// SetStreaming marks the bubble as still receiving tokens, which adds
// the trailing cursor.
func (b *TurnBubble) SetStreaming(streaming bool) {
	b.streaming = streaming
}

// View renders the bubble.
func (b *TurnBubble) View() string {
	style := b.theme.ChatbotBubble
	switch {
	case b.turn.Speaker == model.SpeakerUser:
		style = b.theme.UserBubble
	case strings.HasPrefix(b.turn.Text, "[error]"):
		// Failed sends surface as system notices, not chatbot speech
		style = b.theme.SystemBubble
	}

	header := b.theme.SpeakerLabel.Render(b.label)
	if !b.turn.Time.IsZero() {
		header += " " + b.theme.Timestamp.Render(formatClock(b.turn.Time))
	}

	text := b.turn.Text
	if b.streaming {
		text += "▌"
	}

	bodyWidth := b.width - 4
	if bodyWidth < 20 {
		bodyWidth = 20
	}
	body := ParseCodeBlocks(WordWrap(text, bodyWidth), bodyWidth)

	return header + "\n" + style.Render(body)
}

// =============================================================================
// TURN LIST
// =============================================================================

// TurnList renders a whole transcript plus the live streaming tail.
type TurnList struct {
	theme        *styles.Theme
	width        int
	chatbotLabel string
}

// NewTurnList creates a transcript renderer.
func NewTurnList(theme *styles.Theme, chatbotLabel string) *TurnList {
	return &TurnList{theme: theme, width: 80, chatbotLabel: chatbotLabel}
}

// SetWidth sets the rendering width.
func (l *TurnList) SetWidth(width int) {
	l.width = width
}

// View renders all turns. live, when non-empty, is the in-flight
// chatbot reply appended as a streaming bubble.
func (l *TurnList) View(turns []model.Turn, live string) string {
	var parts []string
	for _, turn := range turns {
		label := ""
		if turn.Speaker == model.SpeakerChatbot {
			label = l.chatbotLabel
		}
		bubble := NewTurnBubble(turn, l.theme, label)
		bubble.SetWidth(l.width)
		parts = append(parts, bubble.View())
	}

	if live != "" {
		bubble := NewTurnBubble(model.Turn{
			Speaker: model.SpeakerChatbot,
			Text:    live,
			Time:    time.Now(),
		}, l.theme, l.chatbotLabel)
		bubble.SetWidth(l.width)
		bubble.SetStreaming(true)
		parts = append(parts, bubble.View())
	}

	return strings.Join(parts, "\n\n")
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// WordWrap wraps text to fit within the given display width.
// UNICODE: widths are terminal cells, not runes, so CJK text wraps
// correctly.
func WordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	for lineIdx, line := range strings.Split(text, "\n") {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		current := words[0]
		for _, word := range words[1:] {
			if runewidth.StringWidth(current)+1+runewidth.StringWidth(word) <= width {
				current += " " + word
			} else {
				result.WriteString(current)
				result.WriteString("\n")
				current = word
			}
		}
		result.WriteString(current)
	}
	return result.String()
}

// formatClock formats a timestamp as "3:04 PM".
func formatClock(t time.Time) string {
	return t.Format("3:04 PM")
}
