// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/botdeck-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar renders the bottom status line: auth state, active
// chatbot, busy indicator and key hints.
type StatusBar struct {
	theme *styles.Theme
	width int

	Username string
	Chatbot  string
	Busy     bool
	Notice   string
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme, width: 80}
}

// SetWidth sets the rendering width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// View renders the status bar.
func (s *StatusBar) View() string {
	var left []string

	if s.Username != "" {
		left = append(left, s.theme.StatusAuthed.Render("● "+s.Username))
	} else {
		left = append(left, s.theme.StatusAnon.Render("○ anonymous"))
	}
	if s.Chatbot != "" {
		left = append(left, s.theme.MutedText.Render("│"), s.Chatbot)
	}
	if s.Busy {
		left = append(left, s.theme.StatusBusy.Render("… replying"))
	}
	if s.Notice != "" {
		left = append(left, s.theme.WarningBanner.Render(s.Notice))
	}

	hints := []string{
		s.theme.ShortcutKey.Render("tab") + s.theme.ShortcutDesc.Render(" switch"),
		s.theme.ShortcutKey.Render("esc") + s.theme.ShortcutDesc.Render(" cancel"),
		s.theme.ShortcutKey.Render("ctrl+c") + s.theme.ShortcutDesc.Render(" quit"),
	}

	leftStr := strings.Join(left, " ")
	rightStr := strings.Join(hints, "  ")

	gap := s.width - runewidth.StringWidth(stripForWidth(leftStr)) - runewidth.StringWidth(stripForWidth(rightStr)) - 2
	if gap < 1 {
		gap = 1
	}

	return s.theme.StatusBar.Render(leftStr + strings.Repeat(" ", gap) + rightStr)
}

// stripForWidth drops ANSI escape sequences before width measurement.
func stripForWidth(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == 0x1b:
			inEscape = true
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
