// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/spotcore/internal/dispatch"
	"github.com/jeranaias/spotcore/internal/model"
	"github.com/jeranaias/spotcore/internal/protocol"
	"github.com/jeranaias/spotcore/internal/speech"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy means a turn is already in flight or audio is being
	// recorded. The submission is rejected before any log append.
	ErrBusy = errors.New("a turn is already in progress")

	// ErrEmptyQuery means the submitted text was empty or whitespace.
	ErrEmptyQuery = errors.New("query text is empty")
)

// =============================================================================
// ANNOUNCE MODE
// =============================================================================

// AnnounceMode controls when a decoded answer is spoken aloud.
type AnnounceMode string

const (
	// AnnounceAll speaks every answer that has spoken text.
	AnnounceAll AnnounceMode = "all"

	// AnnounceAuto speaks only the variants that read well aloud.
	// Visual results like images and maps stay silent.
	AnnounceAuto AnnounceMode = "auto"

	// AnnounceOff never speaks.
	AnnounceOff AnnounceMode = "off"
)

// shouldAnnounce decides whether a payload gets spoken under a mode.
func shouldAnnounce(mode AnnounceMode, payload protocol.Payload) bool {
	if payload.SpokenText() == "" {
		return false
	}
	switch mode {
	case AnnounceAll:
		return true
	case AnnounceAuto:
		return payload.Announceable()
	default:
		return false
	}
}

// =============================================================================
// TURN STATE
// =============================================================================

// TurnState is where the controller is within the current turn.
type TurnState int

const (
	StateIdle TurnState = iota
	StateAwaitingResponse
	StateDispatching
	StateAnnouncing
)

// String returns the string representation of the turn state.
func (s TurnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting-response"
	case StateDispatching:
		return "dispatching"
	case StateAnnouncing:
		return "announcing"
	default:
		return "unknown"
	}
}

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// QueryClient issues one backend query and returns the raw body.
type QueryClient interface {
	Query(ctx context.Context, text string) ([]byte, error)
}

// Speaker speaks one answer aloud, blocking until playback ends.
type Speaker interface {
	Announce(ctx context.Context, text string) error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Config holds configuration for the session controller.
type Config struct {
	// Timeout bounds one full turn's network round trip (default: 30s).
	Timeout time.Duration

	// Announce controls speech announcement (default: AnnounceAuto).
	Announce AnnounceMode
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:  30 * time.Second,
		Announce: AnnounceAuto,
	}
}

// TurnResult is the outcome of one completed turn.
type TurnResult struct {
	// User is the appended user message.
	User *model.Message

	// Assistant is the appended assistant message. Nil when the
	// network request failed and nothing came back to decode.
	Assistant *model.Message

	// DispatchErr records a decode failure. The turn still completed;
	// Assistant carries the diagnostic message.
	DispatchErr *dispatch.Error

	// AnnounceErr records a speech failure. Announcement problems
	// never fail the turn.
	AnnounceErr error
}

// Controller runs the query turn loop against a conversation log.
//
// One turn at a time: concurrent Submit calls beyond the first are
// rejected with ErrBusy. All methods are safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	state    TurnState
	inFlight bool

	log     *model.Log
	client  QueryClient
	gate    *speech.Gate
	speaker Speaker
	config  Config
}

// NewController creates a controller. gate and speaker may be nil when
// the process has no audio channel; announcement is then skipped.
func NewController(log *model.Log, client QueryClient, gate *speech.Gate, speaker Speaker, config Config) *Controller {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Announce == "" {
		config.Announce = AnnounceAuto
	}
	return &Controller{
		log:     log,
		client:  client,
		gate:    gate,
		speaker: speaker,
		config:  config,
	}
}

// Log returns the conversation log the controller appends to.
func (c *Controller) Log() *model.Log {
	return c.log
}

// State returns the controller's position in the current turn.
func (c *Controller) State() TurnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a turn is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// SetAnnounceMode changes the announcement policy for future turns.
func (c *Controller) SetAnnounceMode(mode AnnounceMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Announce = mode
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit runs one full turn for typed input and blocks until it
// completes. Rejections (ErrBusy, ErrEmptyQuery) happen before any log
// append. A network failure returns the error with the user message
// still in the log and no assistant message.
func (c *Controller) Submit(ctx context.Context, text string) (TurnResult, error) {
	return c.run(ctx, text)
}

// SubmitTranscription runs one full turn for transcribed voice input.
// Identical downstream behavior to Submit.
func (c *Controller) SubmitTranscription(ctx context.Context, text string) (TurnResult, error) {
	return c.run(ctx, text)
}

// SubmitAsync runs the turn on its own goroutine and invokes done
// exactly once with the outcome.
func (c *Controller) SubmitAsync(ctx context.Context, text string, done func(TurnResult, error)) {
	go func() {
		result, err := c.run(ctx, text)
		done(result, err)
	}()
}

func (c *Controller) run(ctx context.Context, text string) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrEmptyQuery
	}

	if err := c.begin(); err != nil {
		return TurnResult{}, err
	}
	defer c.finish()

	result := TurnResult{User: c.log.AppendUser(text)}

	queryCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	raw, err := c.client.Query(queryCtx, text)
	if err != nil {
		// The user message stays; nothing partial is appended.
		return result, err
	}

	c.setState(StateDispatching)

	payload, dispatchErr := c.decode(raw)
	result.DispatchErr = dispatchErr
	result.Assistant = c.log.AppendAssistant(payload)

	if c.speaker != nil && dispatchErr == nil && shouldAnnounce(c.announceMode(), payload) {
		c.setState(StateAnnouncing)
		result.AnnounceErr = c.speaker.Announce(ctx, payload.SpokenText())
	}

	return result, nil
}

// decode dispatches raw bytes, converting decode failures into a
// visible diagnostic payload so the conversation stream stays whole.
func (c *Controller) decode(raw []byte) (protocol.Payload, *dispatch.Error) {
	result := dispatch.Dispatch(raw)
	if result.OK() {
		return result.Payload, nil
	}
	return &protocol.PlainText{Text: "Sorry, I couldn't read that response: " + result.Err.Error()}, result.Err
}

// begin takes the turn slot or reports busy. Recording also blocks
// submission: the compose control is re-targeted while the mic is open.
func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrBusy
	}
	if c.gate != nil && c.gate.State() == speech.Recording {
		return ErrBusy
	}
	c.inFlight = true
	c.state = StateAwaitingResponse
	return nil
}

func (c *Controller) finish() {
	c.mu.Lock()
	c.inFlight = false
	c.state = StateIdle
	c.mu.Unlock()
}

func (c *Controller) setState(s TurnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) announceMode() AnnounceMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.Announce
}

// Reset clears the conversation log. Rejected while a turn is in
// flight so the log cannot lose a half-finished turn.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrBusy
	}
	c.log.Clear()
	return nil
}
