// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the botdeck TUI:
// message bubbles, the status bar, the header, spinners, and code
// block rendering. Components are pure view helpers; state lives in
// the chat model that composes them.
package components
