// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/botdeck-tui/internal/ui/styles"
)

// =============================================================================
// SPINNER
// =============================================================================

// Spinner is a loading indicator shown while a reply is pending.
type Spinner struct {
	spinner   spinner.Model
	message   string
	startTime time.Time
	active    bool
}

// NewSpinner creates a spinner with ASCII-safe frames.
func NewSpinner(message string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(styles.Cyan)

	return Spinner{
		spinner: s,
		message: message,
	}
}

// Start activates the spinner and resets its timer.
func (s *Spinner) Start() tea.Cmd {
	s.active = true
	s.startTime = time.Now()
	return s.spinner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.active = false
}

// Active reports whether the spinner is running.
func (s *Spinner) Active() bool {
	return s.active
}

// Update advances the animation.
func (s *Spinner) Update(msg tea.Msg) tea.Cmd {
	if !s.active {
		return nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

// View renders the spinner line, or "" when inactive.
func (s *Spinner) View() string {
	if !s.active {
		return ""
	}
	elapsed := time.Since(s.startTime).Round(time.Second)
	label := fmt.Sprintf("%s %s", s.message, lipgloss.NewStyle().Foreground(styles.TextMuted).Render(fmt.Sprintf("(%s)", elapsed)))
	return s.spinner.View() + " " + label
}
