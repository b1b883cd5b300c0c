// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the botdeck TUI.
//
// One Bubble Tea model drives the whole app through a small set of
// screens: login/register, the chatbot list, the chatbot editor, and
// the conversation view. Streaming replies are batched through a
// StreamingBuffer and rendered at a capped frame rate, so fast token
// streams do not flicker or burn CPU.
package chat
