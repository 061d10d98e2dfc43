// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package protocol defines the typed payload shapes returned by the
// multi-tool assistant backend.
//
// Every response from the backend is a JSON object. Responses carrying a
// top-level "tool" string belong to one of the known tool schemas declared
// here; responses without a "tool" key are plain chat answers. The schema
// registry maps each tool name to its exact wire layout so the dispatcher
// can decode strictly without knowing any tool-specific detail itself.
//
// # Key Types
//
//   - Payload: the closed union over all response variants
//   - Schema: a registry entry (tool name, wire shape, decoder)
//   - Shape/Field: declarative description of an object's required keys
//
// # Adding a tool
//
// Declare the wire struct, implement Payload, and add a Schema to the
// registry in registry.go. The dispatcher needs no change.
package protocol
