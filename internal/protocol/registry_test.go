// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AllToolsRegistered(t *testing.T) {
	want := []string{
		ToolDailyForecast,
		ToolDirections,
		ToolEncyclopedia,
		ToolHourlyForecast,
		ToolImageSearch,
		ToolMovieInfo,
		ToolMovieShowtimes,
		ToolPlaces,
		ToolWebSearch,
	}
	assert.ElementsMatch(t, want, Tools())

	for _, name := range want {
		s, ok := Lookup(name)
		require.True(t, ok, "tool %q not registered", name)
		assert.Equal(t, name, s.Tool)
		assert.NotNil(t, s.Shape)
		assert.NotNil(t, s.Decode)
	}
}

func TestLookup_ExactMatchOnly(t *testing.T) {
	tests := []struct {
		name string
		tool string
	}{
		{"lowercased", "google search"},
		{"trailing space", "Google Search "},
		{"unknown", "Stock Ticker"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Lookup(tt.tool)
			assert.False(t, ok)
		})
	}
}

func TestCheckShape_ExactKeyCase(t *testing.T) {
	shape := &Shape{Fields: []Field{
		{Key: "DateTime"},
		{Key: "Temperature", Object: temperatureValueShape},
	}}

	t.Run("exact keys pass", func(t *testing.T) {
		raw := json.RawMessage(`{
			"DateTime": "2026-08-30T14:00:00-04:00",
			"Temperature": {"Unit": "F", "UnitType": 18, "Value": 74.0}
		}`)
		assert.Nil(t, CheckShape(raw, "", shape))
	})

	t.Run("lowercase key rejected", func(t *testing.T) {
		raw := json.RawMessage(`{
			"datetime": "2026-08-30T14:00:00-04:00",
			"Temperature": {"Unit": "F", "UnitType": 18, "Value": 74.0}
		}`)
		err := CheckShape(raw, "", shape)
		require.NotNil(t, err)
		assert.Equal(t, "DateTime", err.Field)
	})

	t.Run("nested miss reports dotted path", func(t *testing.T) {
		raw := json.RawMessage(`{
			"DateTime": "2026-08-30T14:00:00-04:00",
			"Temperature": {"Unit": "F", "UnitType": 18}
		}`)
		err := CheckShape(raw, "", shape)
		require.NotNil(t, err)
		assert.Equal(t, "Temperature.Value", err.Field)
	})
}

func TestCheckShape_ArrayElements(t *testing.T) {
	shape := &Shape{Fields: []Field{
		{Key: "response", Elem: &Shape{Fields: []Field{
			{Key: "title"},
			{Key: "link"},
		}}},
	}}

	t.Run("every element checked", func(t *testing.T) {
		raw := json.RawMessage(`{"response": [
			{"title": "a", "link": "https://a"},
			{"title": "b"}
		]}`)
		err := CheckShape(raw, "", shape)
		require.NotNil(t, err)
		assert.Equal(t, "response[1].link", err.Field)
	})

	t.Run("empty array passes", func(t *testing.T) {
		raw := json.RawMessage(`{"response": []}`)
		assert.Nil(t, CheckShape(raw, "", shape))
	})

	t.Run("object where array expected", func(t *testing.T) {
		raw := json.RawMessage(`{"response": {"title": "a", "link": "b"}}`)
		err := CheckShape(raw, "", shape)
		require.NotNil(t, err)
		assert.Equal(t, "response", err.Field)
	})
}

func TestCheckShape_OptionalAndNull(t *testing.T) {
	shape := &Shape{Fields: []Field{
		{Key: "page_url"},
		{Key: "image_url", Optional: true},
	}}

	t.Run("optional absent", func(t *testing.T) {
		assert.Nil(t, CheckShape(json.RawMessage(`{"page_url": "u"}`), "", shape))
	})

	t.Run("optional null", func(t *testing.T) {
		assert.Nil(t, CheckShape(json.RawMessage(`{"page_url": "u", "image_url": null}`), "", shape))
	})

	t.Run("required null rejected", func(t *testing.T) {
		err := CheckShape(json.RawMessage(`{"page_url": null}`), "", shape)
		require.NotNil(t, err)
		assert.Equal(t, "page_url", err.Field)
	})
}

func TestBareChat_Decode(t *testing.T) {
	raw := []byte(`{"final_answer": "Demons is a novel by Dostoevsky."}`)
	require.Nil(t, CheckShape(raw, "", BareChat.Shape))

	p, err := BareChat.Decode(raw)
	require.NoError(t, err)

	chat, ok := p.(*ChatAnswer)
	require.True(t, ok)
	assert.Equal(t, "Demons is a novel by Dostoevsky.", chat.FinalAnswer)
	assert.Equal(t, "Demons is a novel by Dostoevsky.", chat.SpokenText())
	assert.True(t, chat.Announceable())
}

func TestSchema_Decode_TypeMismatch(t *testing.T) {
	s, ok := Lookup(ToolEncyclopedia)
	require.True(t, ok)

	raw := []byte(`{
		"tool": "Wikipedia",
		"final_answer": 42,
		"page_url": "https://en.wikipedia.org/wiki/Go",
		"response": "Go is a programming language."
	}`)

	_, err := s.Decode(raw)
	require.Error(t, err)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "final_answer", fieldErr.Field)
}

func TestSchema_Decode_DailyForecast(t *testing.T) {
	s, ok := Lookup(ToolDailyForecast)
	require.True(t, ok)

	raw := []byte(sampleDailyForecast)
	require.Nil(t, CheckShape(raw, "", s.Shape))

	p, err := s.Decode(raw)
	require.NoError(t, err)

	forecast, ok := p.(*DailyForecast)
	require.True(t, ok)
	assert.Equal(t, ToolDailyForecast, forecast.Tool())
	assert.Equal(t, "Rain tomorrow.", forecast.SpokenText())
	assert.True(t, forecast.Announceable())
	require.Len(t, forecast.Response.DailyForecasts, 1)

	day := forecast.Response.DailyForecasts[0]
	assert.Equal(t, "Showers", day.Day.IconPhrase)
	assert.InDelta(t, 78.0, day.Temperature.Maximum.Value, 0.001)
	assert.Equal(t, "Expect rainy weather tomorrow", forecast.Response.Headline.Text)
}

func TestSchema_Decode_Places(t *testing.T) {
	s, ok := Lookup(ToolPlaces)
	require.True(t, ok)

	raw := []byte(`{
		"tool": "Google Serper Places",
		"final_answer": "I found two coffee shops nearby.",
		"response": {"places": [
			{
				"address": "1 Main St", "category": "Coffee shop", "cid": "123",
				"latitude": 40.7, "longitude": -74.0, "position": 1,
				"rating": 4.5, "ratingCount": 120,
				"thumbnailUrl": "https://example.com/t.jpg", "title": "Bean There"
			},
			{
				"address": "2 Oak Ave", "category": "Cafe", "cid": "456",
				"latitude": 40.8, "longitude": -74.1, "position": 2,
				"rating": 4.2, "ratingCount": 88,
				"thumbnailUrl": "https://example.com/u.jpg", "title": "Grind House"
			}
		]}
	}`)

	require.Nil(t, CheckShape(raw, "", s.Shape))
	p, err := s.Decode(raw)
	require.NoError(t, err)

	places, ok := p.(*Places)
	require.True(t, ok)
	require.Len(t, places.Response.Places, 2)
	assert.Equal(t, "Bean There", places.Response.Places[0].Title)
	assert.Equal(t, 2, places.Response.Places[1].Position)
}

const sampleDailyForecast = `{
	"tool": "AccuWeather Daily Forecast",
	"final_answer": "Rain tomorrow.",
	"response": {
		"DailyForecasts": [
			{
				"Date": "2026-08-31T07:00:00-04:00",
				"EpochDate": 1787266800,
				"Day": {
					"HasPrecipitation": true,
					"Icon": 12,
					"IconPhrase": "Showers",
					"PrecipitationIntensity": "Moderate",
					"PrecipitationType": "Rain"
				},
				"Night": {
					"HasPrecipitation": false,
					"Icon": 34,
					"IconPhrase": "Mostly clear"
				},
				"Temperature": {
					"Maximum": {"Unit": "F", "UnitType": 18, "Value": 78.0},
					"Minimum": {"Unit": "F", "UnitType": 18, "Value": 63.0}
				},
				"Sources": ["AccuWeather"],
				"Link": "https://www.accuweather.com/d/1",
				"MobileLink": "https://m.accuweather.com/d/1"
			}
		],
		"Headline": {
			"Category": "rain",
			"EffectiveDate": "2026-08-31T08:00:00-04:00",
			"EffectiveEpochDate": 1787270400,
			"EndDate": "2026-08-31T20:00:00-04:00",
			"EndEpochDate": 1787313600,
			"Link": "https://www.accuweather.com/h/1",
			"MobileLink": "https://m.accuweather.com/h/1",
			"Severity": 4,
			"Text": "Expect rainy weather tomorrow"
		}
	}
}`
