// Package extensiontest provides a test double extension for exercising the
// host's lifecycle and filter chaining without a real dynamically loaded
// plugin.
package extensiontest

import (
	"context"
	"fmt"
	"sync"

	"github.com/daedal00/muse/internal/extension"
	"github.com/daedal00/muse/internal/model"
)

// Fake is a configurable extension.Extension. AddTag is appended to every
// track title it sees, so chaining order is observable in tests. Hang blocks
// every filter call until Release is closed, for testing isolation.
type Fake struct {
	mu sync.Mutex

	ID      string
	AddTag  string
	FailOn  string // filter name to always error on, "" disables
	Hang    bool
	Release chan struct{}

	Runtime    extension.Runtime
	EnableErr  error
	DisableErr error

	setupCalls   int
	enableCalls  int
	disableCalls int
}

func New(id, tag string) *Fake {
	return &Fake{ID: id, AddTag: tag, Release: make(chan struct{})}
}

func (f *Fake) Metadata() extension.Metadata {
	return extension.Metadata{ID: f.ID, Name: f.ID, Version: "test"}
}

func (f *Fake) Setup(ctx context.Context, runtime extension.Runtime) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setupCalls++
	f.Runtime = runtime
	return nil
}

func (f *Fake) OnEnable(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enableCalls++
	return f.EnableErr
}

func (f *Fake) OnDisable(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disableCalls++
	return f.DisableErr
}

func (f *Fake) block(ctx context.Context) error {
	if f.Hang {
		select {
		case <-f.Release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.FailOn != "" {
		return fmt.Errorf("fake extension %s: forced failure", f.ID)
	}
	return nil
}

func (f *Fake) OnAddToQueue(ctx context.Context, tracks []*model.Track) ([]*model.Track, error) {
	if f.FailOn == "on_add_to_queue" || f.Hang {
		if err := f.block(ctx); err != nil {
			return nil, err
		}
	}
	out := make([]*model.Track, len(tracks))
	for i, t := range tracks {
		cp := *t
		cp.Title = cp.Title + f.AddTag
		out[i] = &cp
	}
	return out, nil
}

func (f *Fake) ResolveTrack(ctx context.Context, track *model.Track) (*model.Track, error) {
	if f.FailOn == "resolve_track" || f.Hang {
		if err := f.block(ctx); err != nil {
			return nil, err
		}
	}
	cp := *track
	cp.Title = cp.Title + f.AddTag
	return &cp, nil
}

func (f *Fake) ResolveAlbum(ctx context.Context, album *model.Album) (*model.Album, error) {
	if f.FailOn == "resolve_album" || f.Hang {
		if err := f.block(ctx); err != nil {
			return nil, err
		}
	}
	cp := *album
	cp.Title = cp.Title + f.AddTag
	return &cp, nil
}

func (f *Fake) ResolveArtist(ctx context.Context, artist *model.Artist) (*model.Artist, error) {
	if f.FailOn == "resolve_artist" || f.Hang {
		if err := f.block(ctx); err != nil {
			return nil, err
		}
	}
	cp := *artist
	cp.Name = cp.Name + f.AddTag
	return &cp, nil
}

func (f *Fake) ResolvePlaylist(ctx context.Context, playlist *model.Playlist) (*model.Playlist, error) {
	if f.FailOn == "resolve_playlist" || f.Hang {
		if err := f.block(ctx); err != nil {
			return nil, err
		}
	}
	cp := *playlist
	cp.Title = cp.Title + f.AddTag
	return &cp, nil
}

var _ extension.Extension = (*Fake)(nil)
