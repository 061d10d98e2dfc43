// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/spotcore/internal/protocol"
	"github.com/jeranaias/spotcore/internal/util"
)

// =============================================================================
// ORIGIN TYPE
// =============================================================================

// Origin represents the sender of a message.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
	OriginSystem    Origin = "system"
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	return string(o)
}

// DisplayName returns a human-readable name for the origin.
func (o Origin) DisplayName() string {
	switch o {
	case OriginUser:
		return "You"
	case OriginAssistant:
		return "Assistant"
	case OriginSystem:
		return "System"
	default:
		return string(o)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single entry in the conversation log.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Origin    Origin    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`

	// Text is the user's query text, or a system notice. Assistant
	// messages leave it empty unless the payload decoded to plain text.
	Text string `json:"text,omitempty"`

	// Payload is the typed tool response for assistant messages.
	// Nil for user and system messages.
	Payload protocol.Payload `json:"-"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(text string) *Message {
	return &Message{
		ID:        generateID(),
		Origin:    OriginUser,
		Timestamp: time.Now(),
		Text:      text,
	}
}

// NewAssistantMessage creates a new assistant message carrying a decoded
// payload.
func NewAssistantMessage(payload protocol.Payload) *Message {
	msg := &Message{
		ID:        generateID(),
		Origin:    OriginAssistant,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	if plain, ok := payload.(*protocol.PlainText); ok {
		msg.Text = plain.Text
	}
	return msg
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(text string) *Message {
	return &Message{
		ID:        generateID(),
		Origin:    OriginSystem,
		Timestamp: time.Now(),
		Text:      text,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// SpokenText returns the text the speech layer would read aloud for this
// message, or "" when there is nothing to speak.
func (m *Message) SpokenText() string {
	if m.Payload != nil {
		return m.Payload.SpokenText()
	}
	if m.Origin == OriginUser {
		return ""
	}
	return m.Text
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := m.Text
	if content == "" && m.Payload != nil {
		content = m.Payload.SpokenText()
	}
	return util.TruncateRunes(content, maxLen)
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return m.Text == "" && m.Payload == nil
}

// generateID creates a unique message ID.
func generateID() string {
	return "msg_" + uuid.NewString()
}
