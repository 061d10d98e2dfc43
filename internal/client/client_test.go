// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	return NewClientWithConfig(&ClientConfig{BaseURL: serverURL, Timeout: 2 * time.Second})
}

func TestQuery_SendsQueryBody(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"final_answer": "hello"}`))
	}))
	defer server.Close()

	raw, err := newTestClient(server.URL).Query(context.Background(), "what's new")
	require.NoError(t, err)

	assert.Equal(t, "/query", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]string{"query": "what's new"}, gotBody)
	assert.JSONEq(t, `{"final_answer": "hello"}`, string(raw))
}

func TestQuery_ReturnsBodyVerbatim(t *testing.T) {
	// Broken JSON must come back untouched; the dispatcher decides what
	// to do with it.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	raw, err := newTestClient(server.URL).Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw))
}

func TestQuery_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Query(context.Background(), "q")
	require.Error(t, err)

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrTypeServerError, ce.Type)
}

func TestQuery_Unreachable(t *testing.T) {
	// Nothing listens on this port.
	c := newTestClient("http://127.0.0.1:1")

	_, err := c.Query(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.False(t, IsTimeout(err))
}

func TestQuery_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{"final_answer": "late"}`))
	}))
	defer server.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond})

	_, err := c.Query(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestQuery_ContextCancel(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The body must be drained: an unread request body keeps the
		// HTTP/1 server from watching the connection, so it would never
		// cancel r.Context() on client disconnect and Close would hang.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := newTestClient(server.URL).Query(ctx, "q")
	require.Error(t, err)
	assert.False(t, IsTimeout(err))
}

func TestCheckRunning(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		assert.NoError(t, newTestClient(server.URL).CheckRunning(context.Background()))
	})

	t.Run("down", func(t *testing.T) {
		err := newTestClient("http://127.0.0.1:1").CheckRunning(context.Background())
		assert.True(t, IsUnreachable(err))
	})
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(nil)
	assert.Equal(t, "http://127.0.0.1:8000", c.BaseURL())
	assert.Equal(t, 30*time.Second, c.config.Timeout)

	c = NewClientWithConfig(&ClientConfig{BaseURL: "http://example.com"})
	assert.Equal(t, 30*time.Second, c.config.Timeout)
}
