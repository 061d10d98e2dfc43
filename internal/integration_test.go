// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal provides integration tests for the complete spotcore
// pipeline: backend client, dispatch, session turn loop, and transcript
// persistence working together against a fake backend.
package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/spotcore/internal/client"
	"github.com/jeranaias/spotcore/internal/dispatch"
	"github.com/jeranaias/spotcore/internal/model"
	"github.com/jeranaias/spotcore/internal/protocol"
	"github.com/jeranaias/spotcore/internal/session"
	"github.com/jeranaias/spotcore/internal/speech"
	"github.com/jeranaias/spotcore/internal/storage"
)

// dailyForecastBody builds a Daily Forecast envelope with n entries.
func dailyForecastBody(n int) string {
	entries := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			entries += ","
		}
		entries += fmt.Sprintf(`{
			"Date": "2025-03-0%dT07:00:00+01:00",
			"Day": {"HasPrecipitation": true, "Icon": 18, "IconPhrase": "Rain"},
			"EpochDate": %d,
			"Link": "https://weather.example/day/%d",
			"MobileLink": "https://m.weather.example/day/%d",
			"Night": {"HasPrecipitation": false, "Icon": 35, "IconPhrase": "Partly cloudy"},
			"Sources": ["AccuWeather"],
			"Temperature": {
				"Maximum": {"Unit": "C", "UnitType": 17, "Value": %d},
				"Minimum": {"Unit": "C", "UnitType": 17, "Value": %d}
			}
		}`, i+1, 1740891600+i*86400, i+1, i+1, 10+i, 2+i)
	}
	return `{
		"tool": "AccuWeather Daily Forecast",
		"final_answer": "Rain tomorrow.",
		"response": {
			"DailyForecasts": [` + entries + `],
			"Headline": {
				"Category": "rain",
				"EffectiveDate": "2025-03-01T07:00:00+01:00",
				"EffectiveEpochDate": 1740805200,
				"EndDate": "2025-03-02T07:00:00+01:00",
				"EndEpochDate": 1740891600,
				"Link": "https://weather.example/headline",
				"MobileLink": "https://m.weather.example/headline",
				"Severity": 4,
				"Text": "Expect rainy weather tomorrow"
			}
		}
	}`
}

// newBackend fakes the assistant backend: every query returns body.
func newBackend(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/query":
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.NotEmpty(t, req["query"])
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newPipeline(t *testing.T, server *httptest.Server) (*session.Controller, *model.Log) {
	t.Helper()
	backend := client.NewClientWithConfig(&client.ClientConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	})
	log := model.NewLog()
	controller := session.NewController(log, backend, speech.NewGate(), nil, session.Config{
		Timeout:  5 * time.Second,
		Announce: session.AnnounceOff,
	})
	return controller, log
}

func TestIntegration_DailyForecastTurn(t *testing.T) {
	server := newBackend(t, dailyForecastBody(5))
	controller, log := newPipeline(t, server)

	result, err := controller.Submit(context.Background(), "weather tomorrow?")
	require.NoError(t, err)
	require.Nil(t, result.DispatchErr)
	require.NotNil(t, result.Assistant)

	forecast, ok := result.Assistant.Payload.(*protocol.DailyForecast)
	require.True(t, ok)
	assert.Equal(t, "Rain tomorrow.", forecast.FinalAnswer)
	require.Len(t, forecast.Response.DailyForecasts, 5)
	// Entries stay in wire order.
	for i, entry := range forecast.Response.DailyForecasts {
		assert.Equal(t, float64(10+i), entry.Temperature.Maximum.Value)
	}
	assert.Equal(t, "Expect rainy weather tomorrow", forecast.Response.Headline.Text)

	require.Equal(t, 2, log.Len())
	assert.Equal(t, model.OriginUser, log.Snapshot()[0].Origin)
	assert.Equal(t, model.OriginAssistant, log.Snapshot()[1].Origin)
}

func TestIntegration_BareChatTurn(t *testing.T) {
	server := newBackend(t, `{"final_answer": "Demons is a novel by Dostoevsky."}`)
	controller, _ := newPipeline(t, server)

	result, err := controller.Submit(context.Background(), "who wrote Demons?")
	require.NoError(t, err)

	chat, ok := result.Assistant.Payload.(*protocol.ChatAnswer)
	require.True(t, ok)
	assert.Equal(t, "Demons is a novel by Dostoevsky.", chat.FinalAnswer)
}

func TestIntegration_MalformedResponseStillCompletesTurn(t *testing.T) {
	server := newBackend(t, `{not json`)
	controller, log := newPipeline(t, server)

	result, err := controller.Submit(context.Background(), "hello")
	require.NoError(t, err)
	require.NotNil(t, result.DispatchErr)
	assert.True(t, dispatch.IsMalformed(result.DispatchErr))

	// The turn still produced a visible diagnostic message.
	require.NotNil(t, result.Assistant)
	_, ok := result.Assistant.Payload.(*protocol.PlainText)
	assert.True(t, ok)
	assert.Equal(t, 2, log.Len())
}

func TestIntegration_UnknownToolPassesThrough(t *testing.T) {
	server := newBackend(t, `{"tool": "Stock Quotes", "final_answer": "AAPL is up.", "symbol": "AAPL"}`)
	controller, _ := newPipeline(t, server)

	result, err := controller.Submit(context.Background(), "how is apple doing?")
	require.NoError(t, err)
	require.Nil(t, result.DispatchErr)

	unknown, ok := result.Assistant.Payload.(*protocol.UnrecognizedTool)
	require.True(t, ok)
	assert.Equal(t, "Stock Quotes", unknown.Name)
	assert.JSONEq(t,
		`{"tool": "Stock Quotes", "final_answer": "AAPL is up.", "symbol": "AAPL"}`,
		string(unknown.Raw))
}

func TestIntegration_SingleTurnAtATime(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, `{"final_answer": "done"}`)
	}))
	defer server.Close()

	controller, log := newPipeline(t, server)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := controller.Submit(context.Background(), "slow query")
		assert.NoError(t, err)
	}()

	require.Eventually(t, controller.Busy, time.Second, 5*time.Millisecond)

	_, err := controller.Submit(context.Background(), "second query")
	assert.ErrorIs(t, err, session.ErrBusy)

	close(release)
	wg.Wait()

	// The rejected submit left no trace in the log.
	require.Equal(t, 2, log.Len())
	assert.Equal(t, "slow query", log.Snapshot()[0].Text)
}

func TestIntegration_TurnPersistsAndReloads(t *testing.T) {
	server := newBackend(t, dailyForecastBody(5))
	controller, log := newPipeline(t, server)

	_, err := controller.Submit(context.Background(), "weather tomorrow?")
	require.NoError(t, err)

	store, err := storage.NewTranscriptStore(filepath.Join(t.TempDir(), "transcripts.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(log))

	loaded, err := store.Load(log.ID())
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 2)

	forecast, ok := loaded.Messages[1].Payload.(*protocol.DailyForecast)
	require.True(t, ok)
	assert.Equal(t, "Rain tomorrow.", forecast.FinalAnswer)
	assert.Len(t, forecast.Response.DailyForecasts, 5)
}
