// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/spotcore/internal/protocol"
)

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("what's the weather")

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, OriginUser, msg.Origin)
	assert.Equal(t, "what's the weather", msg.Text)
	assert.Nil(t, msg.Payload)
	assert.False(t, msg.Timestamp.IsZero())
	assert.Empty(t, msg.SpokenText())
}

func TestNewAssistantMessage(t *testing.T) {
	t.Run("typed payload", func(t *testing.T) {
		msg := NewAssistantMessage(&protocol.ChatAnswer{FinalAnswer: "It is sunny."})
		assert.Equal(t, OriginAssistant, msg.Origin)
		assert.Equal(t, "It is sunny.", msg.SpokenText())
		assert.Empty(t, msg.Text)
	})

	t.Run("plain text payload mirrors into Text", func(t *testing.T) {
		msg := NewAssistantMessage(&protocol.PlainText{Text: "couldn't read that response"})
		assert.Equal(t, "couldn't read that response", msg.Text)
	})
}

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   string
	}{
		{"short stays whole", "hello", 10, "hello"},
		{"long truncated", "0123456789abcdef", 10, "0123456..."},
		{"unicode safe", "日本語のテキストです長い", 8, "日本語のテ..."},
		{"tiny budget keeps plain cut", "hello", 3, "hel"},
		{"zero budget", "hello", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewUserMessage(tt.text)
			assert.Equal(t, tt.want, msg.Preview(tt.maxLen))
		})
	}
}

func TestLog_AppendOrderPreserved(t *testing.T) {
	log := NewLog()
	for i := 1; i <= 1000; i++ {
		log.AppendUser(strconv.Itoa(i))
	}

	require.Equal(t, 1000, log.Len())
	snap := log.Snapshot()
	for i, msg := range snap {
		assert.Equal(t, strconv.Itoa(i+1), msg.Text)
	}
}

func TestLog_PrunesOldestBeyondCap(t *testing.T) {
	log := NewLog()
	for i := 1; i <= MaxMessages+5; i++ {
		log.AppendUser(strconv.Itoa(i))
	}

	require.Equal(t, MaxMessages, log.Len())
	snap := log.Snapshot()
	assert.Equal(t, "6", snap[0].Text)
	assert.Equal(t, strconv.Itoa(MaxMessages+5), snap[len(snap)-1].Text)
}

func TestLog_TitleFromFirstUserMessage(t *testing.T) {
	log := NewLog()
	assert.Empty(t, log.Title())

	log.AppendSystem("session started")
	assert.Empty(t, log.Title(), "system messages never title the log")

	log.AppendUser("recommend a movie for tonight")
	assert.Equal(t, "recommend a movie for tonight", log.Title())

	log.AppendUser("something else")
	assert.Equal(t, "recommend a movie for tonight", log.Title(), "title is sticky")
}

func TestLog_Clear(t *testing.T) {
	log := NewLog()
	id := log.ID()
	log.AppendUser("hello")
	log.AppendAssistant(&protocol.ChatAnswer{FinalAnswer: "hi"})

	log.Clear()

	assert.Equal(t, 0, log.Len())
	assert.Nil(t, log.Last())
	assert.Empty(t, log.Title())
	assert.Equal(t, id, log.ID(), "clearing keeps the identity")
}

func TestLog_SnapshotIsDetached(t *testing.T) {
	log := NewLog()
	log.AppendUser("one")

	snap := log.Snapshot()
	log.AppendUser("two")

	assert.Len(t, snap, 1)
	assert.Equal(t, 2, log.Len())
}

func TestLog_ConcurrentAppend(t *testing.T) {
	log := NewLog()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				log.AppendUser("x")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, log.Len())
}
