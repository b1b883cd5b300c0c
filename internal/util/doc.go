// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the botdeck client.
//
// String helpers are UTF-8 safe (rune- and display-width-aware) so chatbot
// replies containing CJK or emoji never get split mid-character. File
// helpers write atomically so local transcripts and session state survive
// a crash mid-write.
package util
