// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// SYNTHESIZER CONFIGURATION
// =============================================================================

// SynthesizerConfig holds configuration for the text-to-speech client.
type SynthesizerConfig struct {
	// BaseURL is the speech API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// APIKey authenticates with the speech API.
	APIKey string

	// Model is the synthesis model (default: "tts-1").
	Model string

	// Voice is the synthesis voice (default: "alloy").
	Voice string

	// Timeout bounds a synthesis request (default: 30s).
	Timeout time.Duration

	// RequestsPerMinute throttles outbound synthesis calls
	// (default: 50, the API's documented per-minute ceiling).
	RequestsPerMinute int
}

// DefaultSynthesizerConfig returns the default synthesizer configuration.
func DefaultSynthesizerConfig() *SynthesizerConfig {
	return &SynthesizerConfig{
		BaseURL:           "https://api.openai.com/v1",
		Model:             "tts-1",
		Voice:             "alloy",
		Timeout:           30 * time.Second,
		RequestsPerMinute: 50,
	}
}

// =============================================================================
// SYNTHESIZER
// =============================================================================

// Synthesizer converts text to audio bytes via the cloud speech API.
// It rate-limits itself; callers can fire per-message without tracking
// the API's request budget.
//
// The Synthesizer is thread-safe for concurrent use.
type Synthesizer struct {
	config     *SynthesizerConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSynthesizer creates a synthesizer with the given configuration.
func NewSynthesizer(config *SynthesizerConfig) *Synthesizer {
	if config == nil {
		config = DefaultSynthesizerConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "tts-1"
	}
	if config.Voice == "" {
		config.Voice = "alloy"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerMinute == 0 {
		config.RequestsPerMinute = 50
	}

	return &Synthesizer{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(config.RequestsPerMinute)/60.0), 1),
	}
}

// synthesisRequest is the wire shape of a synthesis call.
type synthesisRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize converts text to MP3 audio bytes.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, &SpeechError{Type: ErrTypeSynthesis, Message: "nothing to synthesize"}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &SpeechError{Type: ErrTypeSynthesis, Message: "rate limit wait interrupted", Cause: err}
	}

	body, err := json.Marshal(synthesisRequest{
		Model:          s.config.Model,
		Input:          text,
		Voice:          s.config.Voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, &SpeechError{Type: ErrTypeSynthesis, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, &SpeechError{Type: ErrTypeSynthesis, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &SpeechError{Type: ErrTypeSynthesis, Message: "synthesis request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SpeechError{
			Type:    ErrTypeSynthesis,
			Message: "unexpected status from speech API: " + resp.Status,
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SpeechError{Type: ErrTypeSynthesis, Message: "failed to read audio body", Cause: err}
	}
	return audio, nil
}
