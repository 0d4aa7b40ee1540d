package aggregator

import (
	"context"
	"fmt"
	"strings"

	"github.com/daedal00/muse/internal/cursor"
	"github.com/daedal00/muse/internal/library"
	"github.com/daedal00/muse/internal/model"
)

// An aggregated cursor ("a:" + c1 + ":" + c2 + ...) represents identity
// spanning multiple providers. Resolving one means splitting it, resolving
// each sub-cursor independently, and merging the results by union, deduped
// by name/title.

// AggregatedTrack is the cursor-resolution result for a track cursor: one
// entry per sub-cursor that actually resolved.
type AggregatedTrack struct {
	Entries []*model.Track
}

// AggregatedAlbum is the cursor-resolution result for an album cursor, with
// each sub-resolution's tracks unioned (deduped by title).
type AggregatedAlbum struct {
	Entries []*model.Album
	Tracks  []*model.Track
}

// AggregatedArtist is the cursor-resolution result for an artist cursor,
// with each sub-resolution's albums unioned (deduped by title) -- a
// multi-entry result when the cursor is aggregated, and a single-entry
// result otherwise.
type AggregatedArtist struct {
	Entries []*model.Artist
	Albums  []*model.Album
}

// AggregatedPlaylist is the cursor-resolution result for a playlist cursor,
// with each sub-resolution's tracks unioned (deduped by title).
type AggregatedPlaylist struct {
	Entries []*model.Playlist
	Tracks  []*model.Track
}

func splitCursor(c cursor.Cursor) ([]cursor.Cursor, error) {
	if !cursor.IsAggregated(c) {
		return []cursor.Cursor{c}, nil
	}
	parts, err := cursor.Split(c)
	if err != nil {
		return nil, fmt.Errorf("aggregator: splitting aggregated cursor: %w", err)
	}
	return parts, nil
}

// ResolveTrackCursor splits c (if aggregated), resolves each sub-cursor via
// QueryTrack, and returns the sub-resolutions in cursor order.
func (a *Aggregator) ResolveTrackCursor(ctx context.Context, c cursor.Cursor, joins library.Joins) (*AggregatedTrack, error) {
	parts, err := splitCursor(c)
	if err != nil {
		return nil, err
	}
	agg := &AggregatedTrack{}
	for _, p := range parts {
		uri, err := cursor.FromCursor(p)
		if err != nil {
			return nil, fmt.Errorf("aggregator: decoding cursor: %w", err)
		}
		t, err := a.QueryTrack(ctx, library.ByURI(uri), joins)
		if err != nil {
			return nil, err
		}
		if t != nil {
			agg.Entries = append(agg.Entries, t)
		}
	}
	return agg, nil
}

// ResolveAlbumCursor is ResolveTrackCursor's album counterpart, additionally
// unioning each sub-resolution's tracks deduped by title.
func (a *Aggregator) ResolveAlbumCursor(ctx context.Context, c cursor.Cursor, joins library.Joins) (*AggregatedAlbum, error) {
	parts, err := splitCursor(c)
	if err != nil {
		return nil, err
	}
	agg := &AggregatedAlbum{}
	seen := map[string]bool{}
	for _, p := range parts {
		uri, err := cursor.FromCursor(p)
		if err != nil {
			return nil, fmt.Errorf("aggregator: decoding cursor: %w", err)
		}
		al, err := a.QueryAlbum(ctx, library.ByURI(uri), joins)
		if err != nil {
			return nil, err
		}
		if al == nil {
			continue
		}
		agg.Entries = append(agg.Entries, al)
		for _, t := range al.Tracks {
			key := strings.ToLower(t.Title)
			if seen[key] {
				continue
			}
			seen[key] = true
			agg.Tracks = append(agg.Tracks, t)
		}
	}
	return agg, nil
}

// ResolveArtistCursor is ResolveTrackCursor's artist counterpart, additionally
// unioning each sub-resolution's albums deduped by title: a two-provider
// aggregated cursor yields an Entries slice of exactly the two
// sub-resolutions, with Albums the deduped union.
func (a *Aggregator) ResolveArtistCursor(ctx context.Context, c cursor.Cursor, joins library.Joins) (*AggregatedArtist, error) {
	parts, err := splitCursor(c)
	if err != nil {
		return nil, err
	}
	agg := &AggregatedArtist{}
	seen := map[string]bool{}
	for _, p := range parts {
		uri, err := cursor.FromCursor(p)
		if err != nil {
			return nil, fmt.Errorf("aggregator: decoding cursor: %w", err)
		}
		ar, err := a.QueryArtist(ctx, library.ByURI(uri), joins)
		if err != nil {
			return nil, err
		}
		if ar == nil {
			continue
		}
		agg.Entries = append(agg.Entries, ar)
		for _, al := range ar.Albums {
			key := strings.ToLower(al.Title)
			if seen[key] {
				continue
			}
			seen[key] = true
			agg.Albums = append(agg.Albums, al)
		}
	}
	return agg, nil
}

// ResolvePlaylistCursor is ResolveTrackCursor's playlist counterpart,
// additionally unioning each sub-resolution's tracks deduped by title.
func (a *Aggregator) ResolvePlaylistCursor(ctx context.Context, c cursor.Cursor, joins library.Joins) (*AggregatedPlaylist, error) {
	parts, err := splitCursor(c)
	if err != nil {
		return nil, err
	}
	agg := &AggregatedPlaylist{}
	seen := map[string]bool{}
	for _, p := range parts {
		uri, err := cursor.FromCursor(p)
		if err != nil {
			return nil, fmt.Errorf("aggregator: decoding cursor: %w", err)
		}
		pl, err := a.QueryPlaylist(ctx, library.ByURI(uri), joins)
		if err != nil {
			return nil, err
		}
		if pl == nil {
			continue
		}
		agg.Entries = append(agg.Entries, pl)
		for _, t := range pl.Tracks {
			key := strings.ToLower(t.Title)
			if seen[key] {
				continue
			}
			seen[key] = true
			agg.Tracks = append(agg.Tracks, t)
		}
	}
	return agg, nil
}
