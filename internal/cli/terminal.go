// terminal.go - Terminal detection and handling for the botdeck CLI.
//
// USABILITY: TTY detection for proper terminal handling
//
// Colors are disabled for piped output, NO_COLOR is respected, and
// FORCE_COLOR overrides detection.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// GetColorProfile returns the color profile for lipgloss output.
func GetColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return termenv.ANSI256
	}
	if !IsStdoutTTY() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// TerminalWidth returns the stdout width, or a sane default.
func TerminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// =============================================================================
// PASSWORD INPUT
// =============================================================================

// readPassword prompts for a password without echoing it.
//
// SECURITY: passwords never touch the liner history file.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	if !IsTTY() {
		return "", fmt.Errorf("password prompt requires a terminal")
	}
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

// readLine prompts on stderr and reads one line from stdin.
func readLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", err
	}
	return line, nil
}
