// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the botdeck command line interface.
//
// Every subcommand (login, bots, chat, export, ...) is a handler on an
// App, which carries the shared wiring: configuration, the API client,
// and the authentication manager. Running botdeck with no command
// starts the TUI instead; that path lives in main.
package cli
