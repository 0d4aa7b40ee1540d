// Package backend is the playback transport contract every audio output
// target implements. Concrete backends (local decoder, remote cast
// target) are out of scope for this repository; NullBackend is the
// reference/test implementation.
package backend

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/daedal00/muse/internal/model"
)

// State discriminates the transport's three-way playback state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// Backend is the playback transport contract. State is authoritative and
// consistent with the last externally observable transport action; setting
// volume outside [0,1] is clamped; SetTrack while playing implies
// stop-then-load-then-play of the same logical state.
type Backend interface {
	SetTrack(ctx context.Context, track *model.Track, streamURL string) error
	SetState(ctx context.Context, state State) error
	State() State
	SetVolume(v float64)
	Volume() float64
	SetBlendTime(d time.Duration)
	BlendTime() time.Duration
	Seek(ctx context.Context, d time.Duration) error
	Close() error
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var errClosed = fmt.Errorf("backend: closed")

func logPlaybackError(tag string, err error) {
	log.Printf("[PLAYER] %s: playback error: %v", tag, err)
}
