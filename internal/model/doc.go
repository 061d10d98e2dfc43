// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the conversation log.
//
// A Log is an append-only ordered sequence of Messages. Every message
// carries an Origin (who produced it) and, for assistant messages, the
// typed payload the dispatcher decoded. The Log is safe for concurrent
// use; Snapshot returns a copy so renderers never race appends.
package model
