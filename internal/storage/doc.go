// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides transcript persistence for spotcore.
//
// Transcripts are stored in a single SQLite database (pure Go driver,
// no cgo), one row per transcript plus one row per message. Assistant
// payloads are stored as their wire JSON and rebuilt through the
// protocol registry on load, so a loaded transcript carries the same
// typed payloads the dispatcher originally produced.
package storage
