// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import "errors"

// =============================================================================
// ERROR TYPES
// =============================================================================

// SpeechError represents a failure in a cloud speech call or playback.
type SpeechError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *SpeechError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *SpeechError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes speech errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeSynthesis
	ErrTypeTranscription
	ErrTypePlayback
)

// IsSynthesisFailure reports whether err came from text-to-speech.
func IsSynthesisFailure(err error) bool {
	var se *SpeechError
	return errors.As(err, &se) && se.Type == ErrTypeSynthesis
}

// IsTranscriptionFailure reports whether err came from speech-to-text.
func IsTranscriptionFailure(err error) bool {
	var se *SpeechError
	return errors.As(err, &se) && se.Type == ErrTypeTranscription
}
