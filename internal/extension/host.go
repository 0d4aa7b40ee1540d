package extension

import (
	"context"
	"fmt"
	"log"

	"github.com/daedal00/muse/internal/library"
	"github.com/daedal00/muse/internal/model"
	"github.com/daedal00/muse/internal/storage"
	"go.uber.org/atomic"
)

// commandQueueSize bounds how many filter calls can be queued against a
// single extension before callers start waiting on its single consumer.
const commandQueueSize = 8

type command struct {
	filter string
	run    func() (any, error)
	reply  chan result
}

type result struct {
	value any
	err   error
}

type entry struct {
	ext      Extension
	meta     Metadata
	enabled  *atomic.Bool
	commands chan command
}

// Host registers extensions, persists their enabled state, and runs every
// filter call through a single-consumer command channel per extension so one
// hung extension can never block another.
type Host struct {
	lib     library.Store
	opener  storage.Opener
	state   storage.Collection
	entries []*entry
}

// NewHost opens the host's persisted enabled-state collection. lib and
// opener are threaded into each extension's Runtime.
func NewHost(ctx context.Context, lib library.Store, opener storage.Opener) (*Host, error) {
	state, err := opener.Collection(ctx, "extensions")
	if err != nil {
		return nil, fmt.Errorf("extension: opening state collection: %w", err)
	}
	return &Host{lib: lib, opener: opener, state: state}, nil
}

// Register runs an extension through metadata → setup(runtime) →
// persisted-enabled-state check → optional on_enable, then starts its
// command consumer goroutine.
func (h *Host) Register(ctx context.Context, ext Extension) error {
	meta := ext.Metadata()

	runtime, err := newHostRuntime(ctx, h.lib, h.opener, meta.ID)
	if err != nil {
		return fmt.Errorf("extension %s: %w", meta.ID, err)
	}
	if err := ext.Setup(ctx, runtime); err != nil {
		return fmt.Errorf("extension %s: setup failed: %w", meta.ID, err)
	}

	enabled := h.loadEnabled(ctx, meta.ID)

	e := &entry{
		ext:      ext,
		meta:     meta,
		enabled:  atomic.NewBool(enabled),
		commands: make(chan command, commandQueueSize),
	}
	go e.consume()
	h.entries = append(h.entries, e)

	if enabled {
		if err := ext.OnEnable(ctx); err != nil {
			return fmt.Errorf("extension %s: on_enable failed: %w", meta.ID, err)
		}
	}
	return nil
}

func (e *entry) consume() {
	for cmd := range e.commands {
		value, err := cmd.run()
		cmd.reply <- result{value: value, err: err}
	}
}

// loadEnabled reads the persisted enabled flag. A never-persisted extension
// is disabled until explicitly enabled; only a stored "true" enables it.
func (h *Host) loadEnabled(ctx context.Context, id string) bool {
	raw, err := h.state.Get(ctx, id)
	if err != nil {
		return false
	}
	return string(raw) == "true"
}

// SetEnabled toggles an extension's runtime state, persists it, and invokes
// the matching lifecycle hook.
func (h *Host) SetEnabled(ctx context.Context, id string, enabled bool) error {
	e := h.find(id)
	if e == nil {
		return fmt.Errorf("extension: unknown extension %q", id)
	}

	value := "false"
	if enabled {
		value = "true"
	}
	if err := h.state.Put(ctx, id, []byte(value)); err != nil {
		return fmt.Errorf("extension %s: persisting enabled state: %w", id, err)
	}
	e.enabled.Store(enabled)

	if enabled {
		return e.ext.OnEnable(ctx)
	}
	return e.ext.OnDisable(ctx)
}

func (h *Host) find(id string) *entry {
	for _, e := range h.entries {
		if e.meta.ID == id {
			return e
		}
	}
	return nil
}

// Enabled lists the metadata of every currently enabled extension, in
// registration order.
func (h *Host) Enabled() []Metadata {
	var out []Metadata
	for _, e := range h.entries {
		if e.enabled.Load() {
			out = append(out, e.meta)
		}
	}
	return out
}

// call sends a command to e's single consumer and awaits its reply,
// honoring ctx cancellation on both the send and the receive so a stuck
// extension only ever blocks this one call.
func (h *Host) call(ctx context.Context, e *entry, filter string, run func() (any, error)) (any, error) {
	reply := make(chan result, 1)
	select {
	case e.commands <- command{filter: filter, run: run, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-reply:
		if res.err != nil {
			return res.value, &FilterError{ExtensionID: e.meta.ID, Filter: filter, Cause: res.err}
		}
		return res.value, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FilterAddToQueue chains on_add_to_queue across enabled extensions in
// registration order. Fail-closed: the first extension error aborts the
// whole operation.
func (h *Host) FilterAddToQueue(ctx context.Context, tracks []*model.Track) ([]*model.Track, error) {
	for _, e := range h.entries {
		if !e.enabled.Load() {
			continue
		}
		cur := tracks
		v, err := h.call(ctx, e, "on_add_to_queue", func() (any, error) {
			return e.ext.OnAddToQueue(ctx, cur)
		})
		if err != nil {
			return nil, err
		}
		tracks = v.([]*model.Track)
	}
	return tracks, nil
}

// FilterResolveTrack chains resolve_track across enabled extensions.
// Fail-open: an extension error is logged and the prior value passes through
// to the next extension unchanged.
func (h *Host) FilterResolveTrack(ctx context.Context, track *model.Track) *model.Track {
	for _, e := range h.entries {
		if !e.enabled.Load() {
			continue
		}
		cur := track
		v, err := h.call(ctx, e, "resolve_track", func() (any, error) {
			return e.ext.ResolveTrack(ctx, cur)
		})
		if err != nil {
			log.Printf("[EXTENSION] %s: resolve_track failed, passing value through: %v", e.meta.ID, err)
			continue
		}
		track = v.(*model.Track)
	}
	return track
}

// FilterResolveAlbum is FilterResolveTrack's album counterpart.
func (h *Host) FilterResolveAlbum(ctx context.Context, album *model.Album) *model.Album {
	for _, e := range h.entries {
		if !e.enabled.Load() {
			continue
		}
		cur := album
		v, err := h.call(ctx, e, "resolve_album", func() (any, error) {
			return e.ext.ResolveAlbum(ctx, cur)
		})
		if err != nil {
			log.Printf("[EXTENSION] %s: resolve_album failed, passing value through: %v", e.meta.ID, err)
			continue
		}
		album = v.(*model.Album)
	}
	return album
}

// FilterResolveArtist is FilterResolveTrack's artist counterpart.
func (h *Host) FilterResolveArtist(ctx context.Context, artist *model.Artist) *model.Artist {
	for _, e := range h.entries {
		if !e.enabled.Load() {
			continue
		}
		cur := artist
		v, err := h.call(ctx, e, "resolve_artist", func() (any, error) {
			return e.ext.ResolveArtist(ctx, cur)
		})
		if err != nil {
			log.Printf("[EXTENSION] %s: resolve_artist failed, passing value through: %v", e.meta.ID, err)
			continue
		}
		artist = v.(*model.Artist)
	}
	return artist
}

// FilterResolvePlaylist is FilterResolveTrack's playlist counterpart.
func (h *Host) FilterResolvePlaylist(ctx context.Context, playlist *model.Playlist) *model.Playlist {
	for _, e := range h.entries {
		if !e.enabled.Load() {
			continue
		}
		cur := playlist
		v, err := h.call(ctx, e, "resolve_playlist", func() (any, error) {
			return e.ext.ResolvePlaylist(ctx, cur)
		})
		if err != nil {
			log.Printf("[EXTENSION] %s: resolve_playlist failed, passing value through: %v", e.meta.ID, err)
			continue
		}
		playlist = v.(*model.Playlist)
	}
	return playlist
}
