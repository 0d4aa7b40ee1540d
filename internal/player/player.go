// Package player is the composition: a named {backend, queue, bus}
// triple plus the dispatch task that glues them together and drives
// end-of-track -> next-track advancement. It depends only on a narrow
// StreamResolver capability, never on the aggregator package directly, so
// the aggregator can own the player registry without an import cycle.
package player

import (
	"context"
	"log"

	"github.com/daedal00/muse/internal/model"
	"github.com/daedal00/muse/internal/player/backend"
	"github.com/daedal00/muse/internal/player/bus"
	"github.com/daedal00/muse/internal/player/queue"
)

// StreamResolver is the slice of the aggregator's capability a composition
// needs: turning a track into a transport-ready stream URL. The
// aggregator satisfies this trivially.
type StreamResolver interface {
	StreamURL(ctx context.Context, track *model.Track) (string, error)
}

// Composition owns a named backend/queue/bus triple and the single task that
// reads the bus's merged player+queue commands and dispatches them.
type Composition struct {
	name     string
	backend  backend.Backend
	queue    *queue.Queue
	bus      *bus.Bus
	resolver StreamResolver

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a composition and spawns its dispatch task. newBackend
// constructs the transport bound to the composition's own bus -- the bus
// must exist before the backend does, since the backend publishes events
// and end-of-stream/error signals onto it.
func New(name string, newBackend func(*bus.Bus) backend.Backend, resolver StreamResolver) *Composition {
	b := bus.New()
	q := queue.New(b)
	ctx, cancel := context.WithCancel(context.Background())

	c := &Composition{
		name:     name,
		backend:  newBackend(b),
		queue:    q,
		bus:      b,
		resolver: resolver,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go c.run(ctx)
	return c
}

// Name returns the player's registration name.
func (c *Composition) Name() string { return c.name }

// Queue returns the player's queue, for direct manipulation by callers
// (enqueue, reorder, repeat mode).
func (c *Composition) Queue() *queue.Queue { return c.queue }

// Bus returns the player's event bus, for subscribers observing
// TrackChanged/StateChanged/etc.
func (c *Composition) Bus() *bus.Bus { return c.bus }

// Backend returns the underlying transport, mainly for tests that need to
// simulate end-of-stream/errors.
func (c *Composition) Backend() backend.Backend { return c.backend }

// run is the single dispatch task: it reads the bus's merged player
// and queue commands in send order and runs until the player is removed.
func (c *Composition) run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-c.bus.PlayerCommands():
			if !ok {
				return
			}
			c.handlePlayerCommand(ctx, cmd)
		case _, ok := <-c.bus.QueueCommands():
			if !ok {
				return
			}
			c.handleNext(ctx)
		}
	}
}

func (c *Composition) handlePlayerCommand(ctx context.Context, cmd bus.PlayerCommand) {
	switch cmd.Kind {
	case bus.Play:
		c.play(ctx, cmd.Track)
	case bus.Stop:
		if err := c.backend.SetState(ctx, backend.StateStopped); err != nil {
			log.Printf("[PLAYER] %s: stop failed: %v", c.name, err)
		}
	}
}

// play resolves a stream URL via the aggregator and loads it into the
// backend. On stream_url failure, the chosen behavior is
// resolved here as: log and leave queue state unchanged rather than
// skip-to-next, matching what the source does.
func (c *Composition) play(ctx context.Context, track *model.Track) {
	url, err := c.resolver.StreamURL(ctx, track)
	if err != nil {
		log.Printf("[PLAYER] %s: stream_url failed for %s: %v", c.name, track.URI, err)
		return
	}
	if err := c.backend.SetTrack(ctx, track, url); err != nil {
		log.Printf("[PLAYER] %s: set_track failed for %s: %v", c.name, track.URI, err)
	}
}

// handleNext advances the queue. Queue.Next already emits the matching
// Play/Stop player command on this same bus as a side effect (queue
// invariant), so there is nothing further to publish here.
func (c *Composition) handleNext(ctx context.Context) {
	c.queue.Next()
}

// Close tears down the dispatch task and the bus: composition tasks run
// until the player is removed; on removal the bus is closed and the task
// exits.
func (c *Composition) Close() error {
	c.cancel()
	c.bus.Close()
	<-c.done
	return c.backend.Close()
}
