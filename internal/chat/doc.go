// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat assembles conversation transcripts.
//
// A Session wraps one backend conversation: it establishes the
// conversation id, sends user messages either synchronously or as a
// token stream, and folds every outcome into the ordered turn list.
// Failures never escape as bare errors mid-conversation; a failed send
// becomes a synthetic chatbot turn carrying the status and backend
// message, and the busy flag releases on every path.
package chat
