// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech coordinates the audio side-channel of a conversation:
// recording, transcription, synthesis, and playback.
//
// The Gate is the heart of the package. It is a four-state machine
// (Idle, Recording, Synthesizing, Playing) that guarantees at most one
// non-idle audio activity at a time. Every other type here is a thin
// collaborator: Synthesizer and Transcriber wrap the cloud speech API,
// Player abstracts the audio output device, and Announcer strings the
// three together for one spoken response.
//
// The cloud clients are network wrappers only. What gets announced and
// when is the session controller's decision.
package speech
