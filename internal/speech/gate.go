// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"sync"
)

// =============================================================================
// PLAYBACK STATE
// =============================================================================

// PlaybackState is the current audio activity of the process.
type PlaybackState int

const (
	Idle PlaybackState = iota
	Recording
	Synthesizing
	Playing
)

// String returns the string representation of the state.
func (s PlaybackState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Synthesizing:
		return "synthesizing"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// =============================================================================
// GATE ERRORS
// =============================================================================

// GateError reports a rejected state transition.
type GateError struct {
	From PlaybackState
	To   PlaybackState
}

func (e *GateError) Error() string {
	return "cannot enter " + e.To.String() + " while " + e.From.String()
}

// =============================================================================
// GATE
// =============================================================================

// Gate enforces the single-active-audio invariant: at most one of
// Recording, Synthesizing, Playing at any time. All non-idle entries
// require the gate to be Idle; the one exception is Synthesizing to
// Playing, which is the hand-off inside a single announcement.
//
// The gate is safe for concurrent use. The optional change callback is
// invoked outside the lock.
type Gate struct {
	mu       sync.Mutex
	state    PlaybackState
	onChange func(PlaybackState)
}

// NewGate creates an idle gate.
func NewGate() *Gate {
	return &Gate{state: Idle}
}

// OnChange registers a callback invoked after every state change.
// Must be set before the gate is shared between goroutines.
func (g *Gate) OnChange(fn func(PlaybackState)) {
	g.mu.Lock()
	g.onChange = fn
	g.mu.Unlock()
}

// State returns the current playback state.
func (g *Gate) State() PlaybackState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// IsIdle reports whether no audio activity is in progress.
func (g *Gate) IsIdle() bool {
	return g.State() == Idle
}

// StartRecording transitions Idle to Recording.
func (g *Gate) StartRecording() error {
	return g.transition(Recording, Idle)
}

// StartSynthesizing transitions Idle to Synthesizing.
func (g *Gate) StartSynthesizing() error {
	return g.transition(Synthesizing, Idle)
}

// StartPlaying transitions to Playing from Idle or from Synthesizing.
func (g *Gate) StartPlaying() error {
	return g.transition(Playing, Idle, Synthesizing)
}

// Finish returns the gate to Idle from any state. Finishing an already
// idle gate is a no-op. Used for normal completion and error exits alike.
func (g *Gate) Finish() {
	g.mu.Lock()
	if g.state == Idle {
		g.mu.Unlock()
		return
	}
	g.state = Idle
	fn := g.onChange
	g.mu.Unlock()

	if fn != nil {
		fn(Idle)
	}
}

func (g *Gate) transition(to PlaybackState, from ...PlaybackState) error {
	g.mu.Lock()
	allowed := false
	for _, f := range from {
		if g.state == f {
			allowed = true
			break
		}
	}
	if !allowed {
		err := &GateError{From: g.state, To: to}
		g.mu.Unlock()
		return err
	}
	g.state = to
	fn := g.onChange
	g.mu.Unlock()

	if fn != nil {
		fn(to)
	}
	return nil
}

// =============================================================================
// PRIMARY ACTION
// =============================================================================

// Action is what the renderer's primary control should do right now.
type Action int

const (
	// ActionRecord starts voice capture.
	ActionRecord Action = iota

	// ActionSend submits the typed text.
	ActionSend

	// ActionStopRecording ends voice capture and hands off to
	// transcription.
	ActionStopRecording

	// ActionStopPlayback interrupts synthesis or playback.
	ActionStopPlayback
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionRecord:
		return "record"
	case ActionSend:
		return "send"
	case ActionStopRecording:
		return "stop-recording"
	case ActionStopPlayback:
		return "stop-playback"
	default:
		return "unknown"
	}
}

// PrimaryAction maps the playback state and the compose box's emptiness
// to the control's behavior. Pure function; labels belong to the UI.
func PrimaryAction(state PlaybackState, inputEmpty bool) Action {
	switch state {
	case Recording:
		return ActionStopRecording
	case Synthesizing, Playing:
		return ActionStopPlayback
	default:
		if inputEmpty {
			return ActionRecord
		}
		return ActionSend
	}
}
