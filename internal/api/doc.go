// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the chatbot-management
// backend.
//
// The backend speaks three dialects on one base URL: multipart form posts
// for auth and chatbot CRUD, plain JSON for sync chat, and a chunked
// event-stream for incremental chat replies. One Client covers all three,
// sharing a cookie jar so the session established by Login rides along on
// every later call.
//
// Error handling follows a fixed mapping rather than a retry policy: each
// backend status becomes a sentinel error the UI can translate into a
// user-facing message, and every failure is terminal until the user acts
// again.
package api
