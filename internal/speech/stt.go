// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"time"
)

// =============================================================================
// TRANSCRIBER CONFIGURATION
// =============================================================================

// TranscriberConfig holds configuration for the speech-to-text client.
type TranscriberConfig struct {
	// BaseURL is the speech API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// APIKey authenticates with the speech API.
	APIKey string

	// Model is the transcription model (default: "whisper-1").
	Model string

	// Timeout bounds a transcription request (default: 30s).
	Timeout time.Duration
}

// DefaultTranscriberConfig returns the default transcriber configuration.
func DefaultTranscriberConfig() *TranscriberConfig {
	return &TranscriberConfig{
		BaseURL: "https://api.openai.com/v1",
		Model:   "whisper-1",
		Timeout: 30 * time.Second,
	}
}

// =============================================================================
// TRANSCRIBER
// =============================================================================

// Transcriber converts recorded audio to text via the cloud speech API.
//
// The Transcriber is thread-safe for concurrent use.
type Transcriber struct {
	config     *TranscriberConfig
	httpClient *http.Client
}

// NewTranscriber creates a transcriber with the given configuration.
func NewTranscriber(config *TranscriberConfig) *Transcriber {
	if config == nil {
		config = DefaultTranscriberConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "whisper-1"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Transcriber{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// transcriptionResponse is the wire shape of a transcription result.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads one recorded utterance and returns its text.
// filename tells the API the container format ("recording.m4a" etc.).
func (t *Transcriber) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", &SpeechError{Type: ErrTypeTranscription, Message: "empty recording"}
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	if err := form.WriteField("model", t.config.Model); err != nil {
		return "", &SpeechError{Type: ErrTypeTranscription, Message: "failed to build form", Cause: err}
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", &SpeechError{Type: ErrTypeTranscription, Message: "failed to build form", Cause: err}
	}
	if _, err := part.Write(audio); err != nil {
		return "", &SpeechError{Type: ErrTypeTranscription, Message: "failed to build form", Cause: err}
	}
	if err := form.Close(); err != nil {
		return "", &SpeechError{Type: ErrTypeTranscription, Message: "failed to build form", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.BaseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", &SpeechError{Type: ErrTypeTranscription, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.config.APIKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", &SpeechError{Type: ErrTypeTranscription, Message: "transcription request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &SpeechError{
			Type:    ErrTypeTranscription,
			Message: "unexpected status from speech API: " + resp.Status,
		}
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &SpeechError{Type: ErrTypeTranscription, Message: "failed to decode response", Cause: err}
	}
	return result.Text, nil
}
