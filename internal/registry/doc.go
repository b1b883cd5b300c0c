// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry caches the user's chatbots client-side.
//
// The list is fetched once per session; after that every local mutation
// mirrors a backend response that already succeeded. A failed save or
// delete leaves the cache exactly as it was, so the list on screen never
// shows state the backend rejected.
package registry
