// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package protocol defines the typed payload shapes returned by the
// multi-tool assistant backend.
package protocol

import "encoding/json"

// =============================================================================
// TOOL NAMES
// =============================================================================

// Tool discriminator strings as the backend emits them. These are exact
// matches; the backend mixes naming conventions and they must not be
// normalized.
const (
	ToolMovieShowtimes = "IMDb Showtimes"
	ToolMovieInfo      = "TMDB-API"
	ToolDirections     = "Maps Directions"
	ToolWebSearch      = "Google Search"
	ToolEncyclopedia   = "Wikipedia"
	ToolHourlyForecast = "AccuWeather Hourly Forecast"
	ToolDailyForecast  = "AccuWeather Daily Forecast"
	ToolPlaces         = "Google Serper Places"
	ToolImageSearch    = "Image Search"
)

// =============================================================================
// PAYLOAD UNION
// =============================================================================

// Payload is the closed union over all message payload variants. Exactly one
// variant is selected at decode time and never re-evaluated.
//
// SpokenText returns the text a speech synthesizer should announce for the
// variant, or "" when the variant has nothing worth announcing (image grids,
// map links). Announceable reports whether the variant is announced in
// "auto" announce mode; it mirrors which responses the companion apps read
// aloud.
type Payload interface {
	// Tool returns the discriminator string that selected this variant.
	// Plain text and bare chat answers return "".
	Tool() string

	// SpokenText returns the announcement text for this variant.
	SpokenText() string

	// Announceable reports whether auto-announce mode reads this variant.
	Announceable() bool

	// sealed prevents variants outside this package.
	sealed()
}

// =============================================================================
// PLAIN TEXT
// =============================================================================

// PlainText is free-form text, used for user-entered queries and for
// diagnostic messages the session controller appends on decode failures.
type PlainText struct {
	Text string
}

func (p *PlainText) Tool() string       { return "" }
func (p *PlainText) SpokenText() string { return p.Text }
func (p *PlainText) Announceable() bool { return false }
func (p *PlainText) sealed()            {}

// =============================================================================
// UNRECOGNIZED TOOL
// =============================================================================

// UnrecognizedTool carries a response whose tool discriminator is not in the
// registry. It is a defined fallback, not an error: the raw object is passed
// through unchanged so a renderer can still show something useful.
type UnrecognizedTool struct {
	Name string
	Raw  json.RawMessage
}

func (u *UnrecognizedTool) Tool() string       { return u.Name }
func (u *UnrecognizedTool) SpokenText() string { return "" }
func (u *UnrecognizedTool) Announceable() bool { return false }
func (u *UnrecognizedTool) sealed()            {}
