package backend

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/daedal00/muse/internal/model"
	"github.com/daedal00/muse/internal/player/bus"
)

// NullBackend is the reference Backend implementation: it tracks
// transport state and volume faithfully but drives no real audio output.
// Tests and cmd/museserver's default wiring use it so the player subsystem
// has something real to run against without a concrete decoder.
// State and volume are atomics so State()/Volume() polling (the tests do
// this constantly) never contends with the mutex held
// across track loads.
type NullBackend struct {
	mu sync.Mutex

	bus    *bus.Bus
	state  *atomic.Int32
	vol    *atomic.Float64
	track  *model.Track
	blend  time.Duration
	pos    time.Duration
	closed bool
}

// NewNullBackend constructs a backend bound to b. On end-of-stream (signaled
// by a caller invoking SimulateEndOfStream, since NullBackend has no real
// decoder to observe) it emits bus.QueueCommand{}.
func NewNullBackend(b *bus.Bus) *NullBackend {
	return &NullBackend{
		bus:   b,
		state: atomic.NewInt32(int32(StateStopped)),
		vol:   atomic.NewFloat64(1.0),
	}
}

func (n *NullBackend) SetTrack(ctx context.Context, track *model.Track, streamURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return errClosed
	}
	// SetTrack while playing implies stop-then-load-then-play of the same
	// logical state.
	n.track = track
	n.pos = 0
	n.state.Store(int32(StatePlaying))
	n.bus.Publish(bus.Event{Kind: bus.TrackChanged, Track: track})
	n.bus.Publish(bus.Event{Kind: bus.StateChanged, Playing: true})
	return nil
}

func (n *NullBackend) SetState(ctx context.Context, state State) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return errClosed
	}
	n.state.Store(int32(state))
	n.bus.Publish(bus.Event{Kind: bus.StateChanged, Playing: state == StatePlaying})
	return nil
}

func (n *NullBackend) State() State {
	return State(n.state.Load())
}

func (n *NullBackend) SetVolume(v float64) {
	vol := clampVolume(v)
	n.vol.Store(vol)
	n.bus.Publish(bus.Event{Kind: bus.VolumeChanged, Volume: vol})
}

func (n *NullBackend) Volume() float64 {
	return n.vol.Load()
}

func (n *NullBackend) SetBlendTime(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blend = d
}

func (n *NullBackend) BlendTime() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.blend
}

func (n *NullBackend) Seek(ctx context.Context, d time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return errClosed
	}
	n.pos = d
	n.bus.Publish(bus.Event{Kind: bus.Seek, SeekTo: d})
	return nil
}

func (n *NullBackend) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}

// SimulateEndOfStream stands in for the real decoder's end-of-stream signal:
// it emits QueueCommand::Next on the bus and never touches the queue
// directly, per the canonical contract shared across backends.
func (n *NullBackend) SimulateEndOfStream() {
	n.bus.SendQueueCommand(bus.QueueCommand{})
}

// SimulatePlaybackError stands in for a decoder error: same bus signal as
// end-of-stream, plus a log line.
func (n *NullBackend) SimulatePlaybackError(err error) {
	logPlaybackError("nullbackend", err)
	n.bus.SendQueueCommand(bus.QueueCommand{})
}

var _ Backend = (*NullBackend)(nil)
