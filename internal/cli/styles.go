// styles.go - Centralized styling for all botdeck CLI commands.
//
// USABILITY: TTY detection for proper terminal handling
//
// All commands use these shared styles instead of defining their own.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// init configures the lipgloss color profile from terminal capabilities.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")). // Cyan
			MarginBottom(1)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(16)

	// ValueStyle is used for regular values
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Off-white

	// SuccessStyle is used for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")). // Green
			Bold(true)

	// ErrorStyle is used for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// WarningStyle is used for warnings
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // Amber
			Bold(true)

	// MutedStyle is used for secondary information
	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")) // Gray
)

// PrintError writes a tagged error line to stderr.
func PrintError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("[Error]"), fmt.Sprintf(format, args...))
}

// PrintWarning writes a tagged warning line to stderr.
func PrintWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", WarningStyle.Render("[Warning]"), fmt.Sprintf(format, args...))
}

// PrintSuccess writes a tagged confirmation line to stdout.
func PrintSuccess(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", SuccessStyle.Render("[OK]"), fmt.Sprintf(format, args...))
}
