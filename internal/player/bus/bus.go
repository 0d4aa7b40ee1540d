// Package bus is the per-player in-process message hub: player commands,
// queue commands, and a broadcast event stream. A bus is never shared
// across players. The broadcast side follows this codebase's Redis
// subscription manager: a registry of subscriber channels, non-blocking
// fan-out, and cleanup on unsubscribe.
package bus

import (
	"sync"
	"time"

	"github.com/daedal00/muse/internal/model"
)

// PlayerCommandKind discriminates the player command union.
type PlayerCommandKind int

const (
	Play PlayerCommandKind = iota
	Stop
)

// PlayerCommand is {Play(track) | Stop}.
type PlayerCommand struct {
	Kind  PlayerCommandKind
	Track *model.Track
}

// QueueCommand is the single-variant {Next} queue command.
type QueueCommand struct{}

// EventKind discriminates the broadcast event union.
type EventKind int

const (
	TrackChanged EventKind = iota
	Buffering
	Seek
	StateChanged
	VolumeChanged
	QueueUpdated
)

// Event is a single broadcast player event.
type Event struct {
	Kind    EventKind
	Track   *model.Track
	SeekTo  time.Duration
	Playing bool
	Volume  float64
	Tracks  []*model.Track
}

// commandBuffer bounds how many pending commands a bus holds before a send
// with no consumer is dropped.
const commandBuffer = 16

// eventBuffer bounds how many pending events a single subscriber holds
// before new events are dropped for that subscriber.
const eventBuffer = 32

// Bus is the three-channel hub a single player composition owns.
type Bus struct {
	playerCommands chan PlayerCommand
	queueCommands  chan QueueCommand

	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	closed      bool
}

// New constructs an unconsumed bus; commands sent before a consumer starts
// reading are held up to commandBuffer and then dropped, per contract.
func New() *Bus {
	return &Bus{
		playerCommands: make(chan PlayerCommand, commandBuffer),
		queueCommands:  make(chan QueueCommand, commandBuffer),
		subscribers:    make(map[chan Event]struct{}),
	}
}

// SendPlayerCommand enqueues a player command. If the channel is full
// (no consumer reading, or consumer far behind) the command is dropped
// silently — not a protocol error.
func (b *Bus) SendPlayerCommand(cmd PlayerCommand) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.playerCommands <- cmd:
	default:
	}
}

// SendQueueCommand enqueues a queue command, same drop-on-full semantics as
// SendPlayerCommand.
func (b *Bus) SendQueueCommand(cmd QueueCommand) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.queueCommands <- cmd:
	default:
	}
}

// PlayerCommands exposes the player command channel for the single consumer
// (the player composition's dispatch loop).
func (b *Bus) PlayerCommands() <-chan PlayerCommand { return b.playerCommands }

// QueueCommands exposes the queue command channel for the single consumer.
func (b *Bus) QueueCommands() <-chan QueueCommand { return b.queueCommands }

// Subscribe registers a new event subscriber. The returned cancel function
// must be called to stop receiving and release the channel. Late
// subscribers see only events published after Subscribe returns.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, eventBuffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Publish fans e out to every current subscriber, non-blocking: a
// subscriber that is not keeping up misses the event rather than stalling
// the publisher.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// Close tears down the bus. A player composition's dispatch task exits when
// its command channels are closed; Close is called on player removal.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.playerCommands)
	close(b.queueCommands)
	for ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
