package aggregator_test

import (
	"context"

	"github.com/daedal00/muse/internal/model"
	"github.com/daedal00/muse/internal/player"
	"github.com/daedal00/muse/internal/player/backend"
	"github.com/daedal00/muse/internal/player/bus"
	"github.com/google/uuid"
)

func newUUID() uuid.UUID { return uuid.New() }

// noopResolver satisfies player.StreamResolver without touching a real
// provider; aggregator tests that only care about queue/filter behavior use
// it instead of wiring a full provider fake.
type noopResolver struct{}

func (noopResolver) StreamURL(ctx context.Context, track *model.Track) (string, error) {
	return "https://stream.fake/" + string(track.URI), nil
}

func newTestComposition(resolver player.StreamResolver) *player.Composition {
	return player.New("test", func(b *bus.Bus) backend.Backend {
		return backend.NewNullBackend(b)
	}, resolver)
}
