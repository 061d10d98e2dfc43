// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// SYNTHESIZER TESTS
// =============================================================================

func TestSynthesize(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	s := NewSynthesizer(&SynthesizerConfig{BaseURL: server.URL, APIKey: "sk-test"})

	audio, err := s.Synthesize(context.Background(), "Rain tomorrow.")
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(audio))
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, map[string]string{
		"model":           "tts-1",
		"input":           "Rain tomorrow.",
		"voice":           "alloy",
		"response_format": "mp3",
	}, gotBody)
}

func TestSynthesize_EmptyText(t *testing.T) {
	s := NewSynthesizer(&SynthesizerConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := s.Synthesize(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsSynthesisFailure(err))
}

func TestSynthesize_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := NewSynthesizer(&SynthesizerConfig{BaseURL: server.URL})
	_, err := s.Synthesize(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, IsSynthesisFailure(err))
	assert.False(t, IsTranscriptionFailure(err))
}

// =============================================================================
// TRANSCRIBER TESTS
// =============================================================================

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "recording.m4a", header.Filename)

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "audio-bytes", string(data))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "what's the weather tomorrow"}`))
	}))
	defer server.Close()

	tr := NewTranscriber(&TranscriberConfig{BaseURL: server.URL, APIKey: "sk-test"})

	text, err := tr.Transcribe(context.Background(), "recording.m4a", []byte("audio-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "what's the weather tomorrow", text)
}

func TestTranscribe_EmptyRecording(t *testing.T) {
	tr := NewTranscriber(nil)
	_, err := tr.Transcribe(context.Background(), "recording.m4a", nil)
	require.Error(t, err)
	assert.True(t, IsTranscriptionFailure(err))
}

// =============================================================================
// ANNOUNCER TESTS
// =============================================================================

type fakePlayer struct {
	played [][]byte
	err    error
	delay  time.Duration
}

func (p *fakePlayer) Play(ctx context.Context, audio []byte) error {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.played = append(p.played, audio)
	return p.err
}

func newTestAnnouncer(t *testing.T, player Player) (*Announcer, *Gate) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mp3-bytes"))
	}))
	t.Cleanup(server.Close)

	gate := NewGate()
	synth := NewSynthesizer(&SynthesizerConfig{BaseURL: server.URL})
	return NewAnnouncer(gate, synth, player), gate
}

func TestAnnounce_HoldsGateThenReleases(t *testing.T) {
	player := &fakePlayer{}
	announcer, gate := newTestAnnouncer(t, player)

	var states []PlaybackState
	gate.OnChange(func(s PlaybackState) { states = append(states, s) })

	require.NoError(t, announcer.Announce(context.Background(), "Rain tomorrow."))

	assert.Equal(t, [][]byte{[]byte("mp3-bytes")}, player.played)
	assert.Equal(t, []PlaybackState{Synthesizing, Playing, Idle}, states)
	assert.True(t, gate.IsIdle())
}

func TestAnnounce_BusyGateRejected(t *testing.T) {
	player := &fakePlayer{}
	announcer, gate := newTestAnnouncer(t, player)
	require.NoError(t, gate.StartRecording())

	err := announcer.Announce(context.Background(), "hello")
	require.Error(t, err)

	var ge *GateError
	assert.ErrorAs(t, err, &ge)
	assert.Empty(t, player.played)
	assert.Equal(t, Recording, gate.State(), "a rejected announce must not disturb the holder")
}

func TestAnnounce_PlayerFailureReleasesGate(t *testing.T) {
	player := &fakePlayer{err: errors.New("device gone")}
	announcer, gate := newTestAnnouncer(t, player)

	err := announcer.Announce(context.Background(), "hello")
	require.Error(t, err)

	var se *SpeechError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrTypePlayback, se.Type)
	assert.True(t, gate.IsIdle())
}

func TestAnnounce_SynthesisFailureReleasesGate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	gate := NewGate()
	synth := NewSynthesizer(&SynthesizerConfig{BaseURL: server.URL})
	announcer := NewAnnouncer(gate, synth, &fakePlayer{})

	err := announcer.Announce(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, IsSynthesisFailure(err))
	assert.True(t, gate.IsIdle())
}
