// Package queue is the ordered playback queue: current index, repeat mode,
// and the bus notifications its mutations produce.
package queue

import (
	"fmt"
	"sync"

	"github.com/daedal00/muse/internal/model"
	"github.com/daedal00/muse/internal/player/bus"
)

// RepeatMode discriminates the three-way queue wraparound behavior.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatSingle
	RepeatAll
)

// Queue is the ordered playback queue. All operations are safe for
// concurrent use; mutations emit QueueUpdated and, where current changes, a
// Play or Stop player command on the attached bus.
type Queue struct {
	mu      sync.Mutex
	tracks  []*model.Track
	current int
	repeat  RepeatMode
	bus     *bus.Bus
}

// New constructs an empty queue bound to b. b receives every QueueUpdated
// event and every Play/Stop command this queue's mutations produce.
func New(b *bus.Bus) *Queue {
	return &Queue{bus: b}
}

func (q *Queue) emitUpdated() {
	tracks := make([]*model.Track, len(q.tracks))
	copy(tracks, q.tracks)
	q.bus.Publish(bus.Event{Kind: bus.QueueUpdated, Tracks: tracks})
}

// QueueSingle appends t and emits QueueUpdated. If the queue was empty,
// current newly points at a real track, so a Play command is emitted too
// (invariant: "When current changes, either a Play command ... or a
// Stop command is emitted exactly once on the bus").
func (q *Queue) QueueSingle(t *model.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	wasEmpty := len(q.tracks) == 0
	q.tracks = append(q.tracks, t)
	q.emitUpdated()
	if wasEmpty {
		q.bus.SendPlayerCommand(bus.PlayerCommand{Kind: bus.Play, Track: q.tracks[q.current]})
	}
}

// QueueMultiple appends ts in order and emits QueueUpdated once, with the
// same empty-to-non-empty Play emission as QueueSingle.
func (q *Queue) QueueMultiple(ts []*model.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	wasEmpty := len(q.tracks) == 0
	q.tracks = append(q.tracks, ts...)
	q.emitUpdated()
	if wasEmpty && len(q.tracks) > 0 {
		q.bus.SendPlayerCommand(bus.PlayerCommand{Kind: bus.Play, Track: q.tracks[q.current]})
	}
}

// QueueNext inserts t immediately after the current track and emits
// QueueUpdated.
func (q *Queue) QueueNext(t *model.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	at := q.current + 1
	if at > len(q.tracks) {
		at = len(q.tracks)
	}
	q.tracks = append(q.tracks, nil)
	copy(q.tracks[at+1:], q.tracks[at:])
	q.tracks[at] = t
	q.emitUpdated()
}

// Remove deletes the track at i. If i was the current index, the track now
// occupying that slot becomes current; if the queue becomes empty, current
// resets and the player is stopped.
func (q *Queue) Remove(i int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < 0 || i >= len(q.tracks) {
		return fmt.Errorf("queue: index %d out of range [0,%d)", i, len(q.tracks))
	}

	wasCurrent := i == q.current
	q.tracks = append(q.tracks[:i], q.tracks[i+1:]...)

	if len(q.tracks) == 0 {
		q.current = 0
		q.emitUpdated()
		q.bus.SendPlayerCommand(bus.PlayerCommand{Kind: bus.Stop})
		return nil
	}

	if i < q.current {
		q.current--
	} else if wasCurrent {
		if q.current >= len(q.tracks) {
			q.current = len(q.tracks) - 1
		}
		q.emitUpdated()
		q.bus.SendPlayerCommand(bus.PlayerCommand{Kind: bus.Play, Track: q.tracks[q.current]})
		return nil
	}
	q.emitUpdated()
	return nil
}

// Reorder moves the element at iBefore to iAfter. Out-of-range indices are
// an error.
func (q *Queue) Reorder(iBefore, iAfter int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.tracks)
	if iBefore < 0 || iBefore >= n || iAfter < 0 || iAfter >= n {
		return fmt.Errorf("queue: reorder indices out of range [0,%d)", n)
	}
	t := q.tracks[iBefore]
	remaining := make([]*model.Track, 0, n-1)
	remaining = append(remaining, q.tracks[:iBefore]...)
	remaining = append(remaining, q.tracks[iBefore+1:]...)

	reordered := make([]*model.Track, 0, n)
	reordered = append(reordered, remaining[:iAfter]...)
	reordered = append(reordered, t)
	reordered = append(reordered, remaining[iAfter:]...)
	q.tracks = reordered

	switch q.current {
	case iBefore:
		q.current = iAfter
	default:
		if iBefore < q.current && iAfter >= q.current {
			q.current--
		} else if iBefore > q.current && iAfter <= q.current {
			q.current++
		}
	}
	q.emitUpdated()
	return nil
}

// Clear empties the queue, resets current to 0, emits QueueUpdated, and
// stops the player.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = nil
	q.current = 0
	q.emitUpdated()
	q.bus.SendPlayerCommand(bus.PlayerCommand{Kind: bus.Stop})
}

// Current returns the track at the current index, or false if the queue is
// empty.
func (q *Queue) Current() (*model.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return nil, false
	}
	return q.tracks[q.current], true
}

// Prev moves to the previous track. At index 0 there is no wraparound: it
// returns false and leaves current unchanged. Otherwise it decrements and
// emits Play for the new current.
func (q *Queue) Prev() (*model.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 || q.current == 0 {
		return nil, false
	}
	q.current--
	track := q.tracks[q.current]
	q.bus.SendPlayerCommand(bus.PlayerCommand{Kind: bus.Play, Track: track})
	return track, true
}

// Next advances the queue per the active RepeatMode. It returns the
// new current track and true if playback continues, or false if the queue
// ran out under RepeatNone (the caller's Stop is emitted here, on the bus).
func (q *Queue) Next() (*model.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 {
		q.bus.SendPlayerCommand(bus.PlayerCommand{Kind: bus.Stop})
		return nil, false
	}

	if q.current+1 >= len(q.tracks) {
		switch q.repeat {
		case RepeatAll:
			q.current = 0
		case RepeatSingle:
			// stay at current, re-emit Play
		default: // RepeatNone
			q.bus.SendPlayerCommand(bus.PlayerCommand{Kind: bus.Stop})
			return nil, false
		}
	} else {
		q.current++
	}

	track := q.tracks[q.current]
	q.bus.SendPlayerCommand(bus.PlayerCommand{Kind: bus.Play, Track: track})
	return track, true
}

// SetRepeat changes the active repeat mode.
func (q *Queue) SetRepeat(m RepeatMode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repeat = m
}

// Repeat returns the active repeat mode.
func (q *Queue) Repeat() RepeatMode {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.repeat
}

// Len reports the number of tracks currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}
