// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch turns raw backend response bytes into typed payloads.
//
// Dispatch is the single entry point. It never panics and never lets a
// decoding failure escape as a Go error to the caller's control flow:
// every outcome is a Result, either carrying a protocol.Payload or a
// *Error describing exactly what was wrong with the bytes.
//
// The decode pipeline has two phases. First the envelope is parsed
// generically and the "tool" discriminator is read. Then the registered
// schema for that tool validates the exact wire keys and performs the
// strict typed decode. Unknown tool names are not errors; they produce
// a protocol.UnrecognizedTool that preserves the raw bytes unchanged.
package dispatch
