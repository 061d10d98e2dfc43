// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client provides the HTTP client for the spotcore assistant backend.
//
// The backend runs every query server-side (including its external tool
// calls) and answers with one JSON payload envelope. The client returns
// that body verbatim; decoding it belongs to the dispatch package.
//
// # Key Types
//
//   - Client: HTTP client for the query endpoint
//   - ClientConfig: Base URL and timeout configuration
//   - ClientError: Typed error with connection/timeout/server classification
//
// # Usage
//
// Create a client and issue a query:
//
//	c := client.NewClientWithConfig(&client.ClientConfig{
//		BaseURL: "http://127.0.0.1:8000",
//	})
//	raw, err := c.Query(ctx, "weather tomorrow?")
package client
