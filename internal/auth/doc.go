// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth manages the client's login session as an explicit state
// machine: Uninitialized -> Checking -> Authenticated or Anonymous.
//
// The Manager is constructed once and handed to whatever needs it; there
// is no package-level session state. A bootstrap check on startup decides
// whether the persisted cookie still holds, and logout always clears
// local state even when the backend cannot be reached.
package auth
