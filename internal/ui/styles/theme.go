// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble    lipgloss.Style
	ChatbotBubble lipgloss.Style
	SystemBubble  lipgloss.Style
	SpeakerLabel  lipgloss.Style
	Timestamp     lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar     lipgloss.Style
	StatusAuthed  lipgloss.Style
	StatusAnon    lipgloss.Style
	StatusBusy    lipgloss.Style
	ShortcutKey   lipgloss.Style
	ShortcutDesc  lipgloss.Style

	// ==========================================================================
	// LIST STYLES (chatbot picker, editor)
	// ==========================================================================

	ListTitle      lipgloss.Style
	ListItem       lipgloss.Style
	ListSelected   lipgloss.Style
	ListDesc       lipgloss.Style
	FieldLabel     lipgloss.Style
	FieldError     lipgloss.Style

	// ==========================================================================
	// FEEDBACK STYLES
	// ==========================================================================

	ErrorBanner   lipgloss.Style
	WarningBanner lipgloss.Style
	SuccessText   lipgloss.Style
	MutedText     lipgloss.Style
}

// NewTheme builds a theme for the detected terminal. mode is "dark",
// "light" or "auto".
func NewTheme(mode string) *Theme {
	isDark := termenv.HasDarkBackground()
	switch mode {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// SetSize records the terminal dimensions for styles that depend on
// width.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
	t.StatusBar = t.StatusBar.Width(width)
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBubbleBorder).
		PaddingLeft(1)

	t.ChatbotBubble = lipgloss.NewStyle().
		Foreground(ChatbotBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(ChatbotBubbleBorder).
		PaddingLeft(1)

	t.SystemBubble = lipgloss.NewStyle().
		Foreground(SystemBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(SystemBubbleBorder).
		PaddingLeft(1)

	t.SpeakerLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.StatusAuthed = lipgloss.NewStyle().
		Bold(true).
		Foreground(Emerald)

	t.StatusAnon = lipgloss.NewStyle().
		Bold(true).
		Foreground(Amber)

	t.StatusBusy = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Lists and forms
	t.ListTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)

	t.ListItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.ListSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		PaddingLeft(0)

	t.ListDesc = lipgloss.NewStyle().
		Foreground(TextMuted).
		PaddingLeft(4)

	t.FieldLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		Width(14)

	t.FieldError = lipgloss.NewStyle().
		Foreground(Rose)

	// Feedback
	t.ErrorBanner = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.WarningBanner = lipgloss.NewStyle().
		Bold(true).
		Foreground(Amber)

	t.SuccessText = lipgloss.NewStyle().
		Bold(true).
		Foreground(Emerald)

	t.MutedText = lipgloss.NewStyle().
		Foreground(TextMuted)
}
