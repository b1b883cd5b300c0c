// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the core value types of the botdeck client:
// users, chatbot records, and conversation transcripts.
//
// Validation lives on the types themselves rather than at save time, so a
// record that reaches the API layer is already known to be well formed.
// Chatbot field rules (name charset, attachment size/name/MIME) mirror
// what the backend enforces, letting the client reject bad input before
// any network call is made.
package model
