package bus_test

import (
	"testing"

	"github.com/daedal00/muse/internal/model"
	"github.com/daedal00/muse/internal/player/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerCommandsPreserveSendOrder(t *testing.T) {
	b := bus.New()
	track := &model.Track{Title: "x"}

	b.SendPlayerCommand(bus.PlayerCommand{Kind: bus.Stop})
	b.SendPlayerCommand(bus.PlayerCommand{Kind: bus.Play, Track: track})

	first := <-b.PlayerCommands()
	second := <-b.PlayerCommands()

	assert.Equal(t, bus.Stop, first.Kind)
	assert.Equal(t, bus.Play, second.Kind)
}

func TestSubscribeOnlySeesEventsAfterSubscribing(t *testing.T) {
	b := bus.New()
	b.Publish(bus.Event{Kind: bus.Buffering})

	events, cancel := b.Subscribe()
	defer cancel()

	b.Publish(bus.Event{Kind: bus.StateChanged, Playing: true})

	select {
	case e := <-events:
		assert.Equal(t, bus.StateChanged, e.Kind)
		assert.True(t, e.Playing)
	default:
		t.Fatal("expected the post-subscribe event to be delivered")
	}
}

func TestPublishDoesNotBlockWhenNoSubscribers(t *testing.T) {
	b := bus.New()
	assert.NotPanics(t, func() {
		b.Publish(bus.Event{Kind: bus.Buffering})
	})
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := bus.New()
	events, cancel := b.Subscribe()
	cancel()

	b.Publish(bus.Event{Kind: bus.Buffering})

	_, ok := <-events
	assert.False(t, ok, "channel should be closed after cancel")
}

func TestSendCommandAfterCloseIsNoOp(t *testing.T) {
	b := bus.New()
	b.Close()

	require.NotPanics(t, func() {
		b.SendPlayerCommand(bus.PlayerCommand{Kind: bus.Stop})
		b.SendQueueCommand(bus.QueueCommand{})
	})
}

func TestCloseClosesSubscriberChannels(t *testing.T) {
	b := bus.New()
	events, _ := b.Subscribe()
	b.Close()

	_, ok := <-events
	assert.False(t, ok)
}
