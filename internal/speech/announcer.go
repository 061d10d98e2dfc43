// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
)

// Player outputs synthesized audio on the local device. Play blocks
// until playback ends or ctx is canceled.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// Announcer speaks one response aloud: synthesize, then play, holding
// the gate for the whole announcement so nothing else can grab the
// audio channel mid-sentence.
type Announcer struct {
	gate        *Gate
	synthesizer *Synthesizer
	player      Player
}

// NewAnnouncer wires an announcer from its collaborators.
func NewAnnouncer(gate *Gate, synthesizer *Synthesizer, player Player) *Announcer {
	return &Announcer{
		gate:        gate,
		synthesizer: synthesizer,
		player:      player,
	}
}

// Announce speaks text and returns when playback finishes. The gate is
// released on every exit path. A busy gate surfaces as a GateError.
func (a *Announcer) Announce(ctx context.Context, text string) error {
	if err := a.gate.StartSynthesizing(); err != nil {
		return err
	}
	defer a.gate.Finish()

	audio, err := a.synthesizer.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	if err := a.gate.StartPlaying(); err != nil {
		return err
	}

	if err := a.player.Play(ctx, audio); err != nil {
		return &SpeechError{Type: ErrTypePlayback, Message: "playback failed", Cause: err}
	}
	return nil
}
