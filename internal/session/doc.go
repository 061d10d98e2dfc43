// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session orchestrates one conversation turn at a time.
//
// The Controller owns the sequencing: append the user's message, query
// the backend, dispatch the raw response, append the assistant's
// message, and optionally speak the answer. A turn either completes or
// surfaces an error; it never leaves a half-written conversation log.
//
// Overlapping submissions are rejected with ErrBusy rather than queued.
// The renderer is expected to disable its input controls from the
// controller's state, but the guard holds even if it does not.
package session
