// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package protocol defines the typed payload shapes returned by the
// multi-tool assistant backend.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
)

// =============================================================================
// FIELD ERRORS
// =============================================================================

// FieldError reports a wire field that is missing or has the wrong type.
// Field is a dotted path from the envelope root, e.g.
// "response.DailyForecasts[2].Temperature.Maximum".
type FieldError struct {
	Field string
	Cause error
}

func (e *FieldError) Error() string {
	if e.Cause != nil {
		return "field " + e.Field + ": " + e.Cause.Error()
	}
	return "field " + e.Field + ": missing or mistyped"
}

func (e *FieldError) Unwrap() error {
	return e.Cause
}

// =============================================================================
// WIRE SHAPES
// =============================================================================

// Shape declares the required key set of one JSON object level. Keys are
// matched exactly, byte for byte: encoding/json alone matches struct tags
// case-insensitively, which would let a lowercase "datetime" satisfy
// AccuWeather's "DateTime". Shapes close that hole.
type Shape struct {
	Fields []Field
}

// Field is one declared key in a Shape.
type Field struct {
	// Key is the exact wire key.
	Key string

	// Optional marks keys the backend omits or nulls freely.
	Optional bool

	// Object, when set, requires the value to be an object of this shape.
	Object *Shape

	// Elem, when set, requires the value to be an array whose elements are
	// objects of this shape.
	Elem *Shape
}

// CheckShape validates raw against s and returns the first violation.
// path is the prefix for reported field paths ("" at the envelope root).
func CheckShape(raw json.RawMessage, path string, s *Shape) *FieldError {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return &FieldError{Field: orRoot(path), Cause: err}
	}

	for _, f := range s.Fields {
		val, ok := obj[f.Key]
		fieldPath := joinPath(path, f.Key)

		if !ok || isNull(val) {
			if f.Optional {
				continue
			}
			return &FieldError{Field: fieldPath}
		}

		switch {
		case f.Object != nil:
			if err := CheckShape(val, fieldPath, f.Object); err != nil {
				return err
			}
		case f.Elem != nil:
			var elems []json.RawMessage
			if err := json.Unmarshal(val, &elems); err != nil {
				return &FieldError{Field: fieldPath, Cause: err}
			}
			for i, elem := range elems {
				if err := CheckShape(elem, indexPath(fieldPath, i), f.Elem); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func orRoot(path string) string {
	if path == "" {
		return "."
	}
	return path
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return path + "[" + itoa(i) + "]"
}

// itoa avoids pulling strconv into the hot path for small indexes.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// =============================================================================
// SCHEMA REGISTRY
// =============================================================================

// Schema is one registry entry: the tool's exact wire shape and its decoder.
// Schemas are purely declarative; the dispatcher drives them.
type Schema struct {
	// Tool is the discriminator string ("" for the bare chat schema).
	Tool string

	// Shape is the required key set, checked before typed decoding.
	Shape *Shape

	// Decode strictly decodes a validated envelope into its variant.
	// Returns a *FieldError when a value has the wrong type.
	Decode func(raw []byte) (Payload, error)
}

// BareChat is the schema used when the envelope has no "tool" key.
var BareChat = &Schema{
	Shape: &Shape{Fields: []Field{
		{Key: "final_answer"},
	}},
	Decode: func(raw []byte) (Payload, error) {
		var v ChatAnswer
		if err := strictUnmarshal(raw, &v); err != nil {
			return nil, err
		}
		return &v, nil
	},
}

// Lookup returns the schema registered for a tool name, by exact match.
func Lookup(tool string) (*Schema, bool) {
	s, ok := registry[tool]
	return s, ok
}

// Tools returns all registered tool names, sorted.
func Tools() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// strictUnmarshal decodes raw into v, converting type mismatches into
// FieldErrors carrying the offending path.
func strictUnmarshal(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &FieldError{Field: typeErr.Field, Cause: err}
		}
		return &FieldError{Field: ".", Cause: err}
	}
	return nil
}

// =============================================================================
// SHARED SUB-SHAPES
// =============================================================================

var temperatureValueShape = &Shape{Fields: []Field{
	{Key: "Unit"},
	{Key: "UnitType"},
	{Key: "Value"},
}}

var dayPartShape = &Shape{Fields: []Field{
	{Key: "HasPrecipitation"},
	{Key: "Icon"},
	{Key: "IconPhrase"},
	{Key: "PrecipitationIntensity", Optional: true},
	{Key: "PrecipitationType", Optional: true},
}}

var routeInfoShape = &Shape{Fields: []Field{
	{Key: "apple_maps_url"},
	{Key: "destination"},
	{Key: "google_maps_url"},
	{Key: "origin"},
}}

var imageListShape = &Shape{Fields: []Field{
	{Key: "images", Elem: &Shape{Fields: []Field{
		{Key: "imageUrl"},
		{Key: "sourceUrl"},
		{Key: "title"},
	}}},
}}

var movieDetailsShape = &Shape{Fields: []Field{
	{Key: "adult"},
	{Key: "backdrop_path", Optional: true},
	{Key: "budget"},
	{Key: "genres", Elem: &Shape{Fields: []Field{
		{Key: "id"},
		{Key: "name"},
	}}},
	{Key: "homepage", Optional: true},
	{Key: "id"},
	{Key: "imdb_id"},
	{Key: "original_language"},
	{Key: "original_title"},
	{Key: "overview"},
	{Key: "popularity"},
	{Key: "poster_path", Optional: true},
	{Key: "production_companies", Elem: &Shape{Fields: []Field{
		{Key: "id"},
		{Key: "logo_path", Optional: true},
		{Key: "name"},
		{Key: "origin_country"},
	}}},
	{Key: "production_countries", Elem: &Shape{Fields: []Field{
		{Key: "iso_3166_1"},
		{Key: "name"},
	}}},
	{Key: "release_date"},
	{Key: "revenue"},
	{Key: "runtime"},
	{Key: "spoken_languages", Elem: &Shape{Fields: []Field{
		{Key: "english_name"},
		{Key: "iso_639_1"},
		{Key: "name"},
	}}},
	{Key: "status"},
	{Key: "tagline", Optional: true},
	{Key: "title"},
	{Key: "video"},
	{Key: "vote_average"},
	{Key: "vote_count"},
}}

var movieRecordShape = &Shape{Fields: []Field{
	{Key: "details", Object: movieDetailsShape},
	{Key: "overview"},
	{Key: "poster_url"},
	{Key: "recommendations"},
	{Key: "release_date"},
	{Key: "title"},
}}

// =============================================================================
// REGISTRY TABLE
// =============================================================================

var registry = map[string]*Schema{
	ToolImageSearch: {
		Tool: ToolImageSearch,
		Shape: &Shape{Fields: []Field{
			{Key: "tool"},
			{Key: "final_answer", Object: imageListShape},
			{Key: "response", Object: imageListShape},
		}},
		Decode: func(raw []byte) (Payload, error) {
			var v ImageSearch
			if err := strictUnmarshal(raw, &v); err != nil {
				return nil, err
			}
			return &v, nil
		},
	},

	ToolMovieShowtimes: {
		Tool: ToolMovieShowtimes,
		Shape: &Shape{Fields: []Field{
			{Key: "tool"},
			{Key: "final_answer"},
			{Key: "response", Elem: &Shape{Fields: []Field{
				{Key: "imdb_page_url"},
				{Key: "movie"},
				{Key: "poster_url"},
				{Key: "showtimes"},
				{Key: "theatre"},
			}}},
		}},
		Decode: func(raw []byte) (Payload, error) {
			var v MovieShowtimes
			if err := strictUnmarshal(raw, &v); err != nil {
				return nil, err
			}
			return &v, nil
		},
	},

	ToolMovieInfo: {
		Tool: ToolMovieInfo,
		Shape: &Shape{Fields: []Field{
			{Key: "tool"},
			{Key: "final_answer", Elem: movieRecordShape},
			{Key: "response", Elem: movieRecordShape},
		}},
		Decode: func(raw []byte) (Payload, error) {
			var v MovieInfo
			if err := strictUnmarshal(raw, &v); err != nil {
				return nil, err
			}
			return &v, nil
		},
	},

	ToolDirections: {
		Tool: ToolDirections,
		Shape: &Shape{Fields: []Field{
			{Key: "tool"},
			{Key: "final_answer", Object: routeInfoShape},
			{Key: "response", Object: routeInfoShape},
		}},
		Decode: func(raw []byte) (Payload, error) {
			var v Directions
			if err := strictUnmarshal(raw, &v); err != nil {
				return nil, err
			}
			return &v, nil
		},
	},

	ToolWebSearch: {
		Tool: ToolWebSearch,
		Shape: &Shape{Fields: []Field{
			{Key: "tool"},
			{Key: "final_answer"},
			{Key: "response", Object: &Shape{Fields: []Field{
				{Key: "searchParameters", Object: &Shape{Fields: []Field{
					{Key: "q"},
					{Key: "gl"},
					{Key: "hl"},
					{Key: "num"},
					{Key: "type"},
					{Key: "engine"},
				}}},
				{Key: "answerBox", Optional: true},
				{Key: "organic", Elem: &Shape{Fields: []Field{
					{Key: "title"},
					{Key: "link"},
					{Key: "snippet"},
					{Key: "position"},
				}}},
				{Key: "peopleAlsoAsk", Optional: true},
				{Key: "relatedSearches", Optional: true},
				{Key: "topStories", Optional: true},
			}}},
		}},
		Decode: func(raw []byte) (Payload, error) {
			var v WebSearch
			if err := strictUnmarshal(raw, &v); err != nil {
				return nil, err
			}
			return &v, nil
		},
	},

	ToolEncyclopedia: {
		Tool: ToolEncyclopedia,
		Shape: &Shape{Fields: []Field{
			{Key: "tool"},
			{Key: "final_answer"},
			{Key: "image_url", Optional: true},
			{Key: "page_url"},
			{Key: "response"},
		}},
		Decode: func(raw []byte) (Payload, error) {
			var v Encyclopedia
			if err := strictUnmarshal(raw, &v); err != nil {
				return nil, err
			}
			return &v, nil
		},
	},

	ToolHourlyForecast: {
		Tool: ToolHourlyForecast,
		Shape: &Shape{Fields: []Field{
			{Key: "tool"},
			{Key: "final_answer"},
			{Key: "response", Elem: &Shape{Fields: []Field{
				{Key: "DateTime"},
				{Key: "EpochDateTime"},
				{Key: "HasPrecipitation"},
				{Key: "IconPhrase"},
				{Key: "IsDaylight"},
				{Key: "Link"},
				{Key: "MobileLink"},
				{Key: "PrecipitationProbability"},
				{Key: "Temperature", Object: temperatureValueShape},
				{Key: "WeatherIcon"},
			}}},
		}},
		Decode: func(raw []byte) (Payload, error) {
			var v HourlyForecast
			if err := strictUnmarshal(raw, &v); err != nil {
				return nil, err
			}
			return &v, nil
		},
	},

	ToolDailyForecast: {
		Tool: ToolDailyForecast,
		Shape: &Shape{Fields: []Field{
			{Key: "tool"},
			{Key: "final_answer"},
			{Key: "response", Object: &Shape{Fields: []Field{
				{Key: "DailyForecasts", Elem: &Shape{Fields: []Field{
					{Key: "Date"},
					{Key: "Day", Object: dayPartShape},
					{Key: "EpochDate"},
					{Key: "Link"},
					{Key: "MobileLink"},
					{Key: "Night", Object: dayPartShape},
					{Key: "Sources"},
					{Key: "Temperature", Object: &Shape{Fields: []Field{
						{Key: "Maximum", Object: temperatureValueShape},
						{Key: "Minimum", Object: temperatureValueShape},
					}}},
				}}},
				{Key: "Headline", Object: &Shape{Fields: []Field{
					{Key: "Category"},
					{Key: "EffectiveDate"},
					{Key: "EffectiveEpochDate"},
					{Key: "EndDate"},
					{Key: "EndEpochDate"},
					{Key: "Link"},
					{Key: "MobileLink"},
					{Key: "Severity"},
					{Key: "Text"},
				}}},
			}}},
		}},
		Decode: func(raw []byte) (Payload, error) {
			var v DailyForecast
			if err := strictUnmarshal(raw, &v); err != nil {
				return nil, err
			}
			return &v, nil
		},
	},

	ToolPlaces: {
		Tool: ToolPlaces,
		Shape: &Shape{Fields: []Field{
			{Key: "tool"},
			{Key: "final_answer"},
			{Key: "response", Object: &Shape{Fields: []Field{
				{Key: "places", Elem: &Shape{Fields: []Field{
					{Key: "address"},
					{Key: "category"},
					{Key: "cid"},
					{Key: "latitude"},
					{Key: "longitude"},
					{Key: "position"},
					{Key: "rating"},
					{Key: "ratingCount"},
					{Key: "thumbnailUrl"},
					{Key: "title"},
				}}},
			}}},
		}},
		Decode: func(raw []byte) (Payload, error) {
			var v Places
			if err := strictUnmarshal(raw, &v); err != nil {
				return nil, err
			}
			return &v, nil
		},
	},
}
