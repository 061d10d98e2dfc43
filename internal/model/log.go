// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/spotcore/internal/protocol"
)

// MaxMessages is the maximum number of messages to keep in the log.
// When exceeded, the oldest messages are pruned to prevent unbounded
// memory growth.
const MaxMessages = 1000

// =============================================================================
// LOG TYPE
// =============================================================================

// Log is the ordered conversation history for one session.
//
// All methods are safe for concurrent use.
type Log struct {
	mu sync.RWMutex

	id        string
	title     string
	createdAt time.Time
	updatedAt time.Time
	messages  []*Message
}

// NewLog creates an empty conversation log with a generated ID.
func NewLog() *Log {
	now := time.Now()
	return &Log{
		id:        "conv_" + uuid.NewString(),
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the log's stable identifier.
func (l *Log) ID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.id
}

// Title returns the log title, derived from the first user message.
func (l *Log) Title() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.title
}

// CreatedAt returns when the log was created.
func (l *Log) CreatedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.createdAt
}

// UpdatedAt returns when the log last changed.
func (l *Log) UpdatedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.updatedAt
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the end of the log.
func (l *Log) Append(msg *Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendLocked(msg)
}

// AppendUser creates, appends, and returns a user message.
func (l *Log) AppendUser(text string) *Message {
	msg := NewUserMessage(text)
	l.Append(msg)
	return msg
}

// AppendAssistant creates, appends, and returns an assistant message.
func (l *Log) AppendAssistant(payload protocol.Payload) *Message {
	msg := NewAssistantMessage(payload)
	l.Append(msg)
	return msg
}

// AppendSystem creates, appends, and returns a system message.
func (l *Log) AppendSystem(text string) *Message {
	msg := NewSystemMessage(text)
	l.Append(msg)
	return msg
}

func (l *Log) appendLocked(msg *Message) {
	l.messages = append(l.messages, msg)
	l.updatedAt = time.Now()

	if l.title == "" && msg.Origin == OriginUser {
		l.title = msg.Preview(50)
	}

	if len(l.messages) > MaxMessages {
		// Drop the oldest overflow in one cut rather than one at a time.
		excess := len(l.messages) - MaxMessages
		l.messages = append([]*Message(nil), l.messages[excess:]...)
	}
}

// Snapshot returns a copy of the message slice in append order. The
// returned slice is the caller's to keep; the Messages themselves are
// shared and must be treated as read-only.
func (l *Log) Snapshot() []*Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Last returns the most recent message, or nil if the log is empty.
func (l *Log) Last() *Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.messages) == 0 {
		return nil
	}
	return l.messages[len(l.messages)-1]
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Clear removes all messages and resets the title. The log keeps its ID.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
	l.title = ""
	l.updatedAt = time.Now()
}
