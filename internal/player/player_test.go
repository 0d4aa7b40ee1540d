package player_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/daedal00/muse/internal/model"
	"github.com/daedal00/muse/internal/player"
	"github.com/daedal00/muse/internal/player/backend"
	"github.com/daedal00/muse/internal/player/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	url string
	err error
}

func (f *fakeResolver) StreamURL(ctx context.Context, track *model.Track) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// newNullComposition wires a composition to a NullBackend bound to that
// composition's own bus, mirroring how cmd/museserver wires a real backend.
func newNullComposition(resolver player.StreamResolver) (*player.Composition, *backend.NullBackend) {
	var nb *backend.NullBackend
	comp := player.New("test", func(b *bus.Bus) backend.Backend {
		nb = backend.NewNullBackend(b)
		return nb
	}, resolver)
	return comp, nb
}

func drainEventsUntil(t *testing.T, events <-chan bus.Event, want bus.EventKind, timeout time.Duration) bus.Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case e := <-events:
			if e.Kind == want {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %v", want)
		}
	}
}

// TestEnqueueAndPlaySingleTrack covers enqueueing a single track: it drives
// QueueUpdated, TrackChanged, StateChanged(true), and lands the backend in
// StatePlaying with the queue's current pointing at the track.
func TestEnqueueAndPlaySingleTrack(t *testing.T) {
	resolver := &fakeResolver{url: "https://stream.fake/a"}
	comp, nb := newNullComposition(resolver)
	defer comp.Close()

	events, cancel := comp.Bus().Subscribe()
	defer cancel()

	tr := &model.Track{URI: "local://track/a.mp3", Title: "a", Provider: "local"}
	comp.Queue().QueueSingle(tr)

	drainEventsUntil(t, events, bus.QueueUpdated, time.Second)
	changed := drainEventsUntil(t, events, bus.TrackChanged, time.Second)
	state := drainEventsUntil(t, events, bus.StateChanged, time.Second)

	assert.Equal(t, tr.URI, changed.Track.URI)
	assert.True(t, state.Playing)
	assert.Eventually(t, func() bool { return nb.State() == backend.StatePlaying }, time.Second, 10*time.Millisecond)

	cur, ok := comp.Queue().Current()
	require.True(t, ok)
	assert.Equal(t, tr.URI, cur.URI)
}

// TestAutomaticAdvancement covers end-of-stream on a two-track queue: it
// advances to the second track, and a second end-of-stream under
// RepeatNone stops, leaving current pointing at the last track.
func TestAutomaticAdvancement(t *testing.T) {
	resolver := &fakeResolver{url: "https://stream.fake/x"}
	comp, nb := newNullComposition(resolver)
	defer comp.Close()

	events, cancel := comp.Bus().Subscribe()
	defer cancel()

	t1 := &model.Track{URI: "local://track/1", Title: "t1", Provider: "local"}
	t2 := &model.Track{URI: "local://track/2", Title: "t2", Provider: "local"}
	comp.Queue().QueueMultiple([]*model.Track{t1, t2})

	drainEventsUntil(t, events, bus.TrackChanged, time.Second)

	nb.SimulateEndOfStream()

	changed := drainEventsUntil(t, events, bus.TrackChanged, time.Second)
	assert.Equal(t, t2.URI, changed.Track.URI)
	cur, _ := comp.Queue().Current()
	assert.Equal(t, t2.URI, cur.URI)

	nb.SimulateEndOfStream()

	assert.Eventually(t, func() bool { return nb.State() == backend.StateStopped }, time.Second, 10*time.Millisecond)
	cur, _ = comp.Queue().Current()
	assert.Equal(t, t2.URI, cur.URI)
}

// TestStreamURLFailureLeavesQueueUnchanged covers the chosen behavior:
// on stream_url failure the composition logs and leaves the queue/backend
// state alone rather than skipping ahead.
func TestStreamURLFailureLeavesQueueUnchanged(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("boom")}
	comp, nb := newNullComposition(resolver)
	defer comp.Close()

	tr := &model.Track{URI: "local://track/a.mp3", Title: "a", Provider: "local"}
	comp.Queue().QueueSingle(tr)

	time.Sleep(100 * time.Millisecond)

	cur, ok := comp.Queue().Current()
	require.True(t, ok)
	assert.Equal(t, tr.URI, cur.URI)
	assert.Equal(t, backend.StateStopped, nb.State())
}

func TestCloseStopsDispatchTask(t *testing.T) {
	comp, _ := newNullComposition(&fakeResolver{url: "https://stream.fake/a"})
	require.NoError(t, comp.Close())
}
