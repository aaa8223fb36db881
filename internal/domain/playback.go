package domain

import (
	"context"
	"time"
)

// PlaybackState is the state reported by a media player
type PlaybackState int

const (
	PlaybackUnstarted PlaybackState = iota
	PlaybackStarted
	PlaybackPaused
	PlaybackEnded
)

// String returns a human-readable representation of the playback state
func (s PlaybackState) String() string {
	switch s {
	case PlaybackStarted:
		return "playing"
	case PlaybackPaused:
		return "paused"
	case PlaybackEnded:
		return "ended"
	default:
		return "unstarted"
	}
}

// Player is the capability interface of an embeddable media player.
// Release must be idempotent.
type Player interface {
	Play() error
	Pause() error
	Seek(offset time.Duration) error
	SetMuted(muted bool) error
	SetVolume(percent int) error

	// State returns the last known playback state
	State() PlaybackState

	// Events delivers state changes; it is closed after Release or when the player exits
	Events() <-chan PlaybackState

	Release() error
}

// PlayerFactory creates a player for a video. Callers own the returned Player.
type PlayerFactory interface {
	Open(ctx context.Context, video Video) (Player, error)
}
