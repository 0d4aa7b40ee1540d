// Package library defines the sync-by-URI upsert contract every provider
// relies on and the query surface clients consume, following the
// per-entity repository shape of this codebase's postgres/redis repository
// interfaces but generalized to the URI-addressed sync semantics this
// contract requires.
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/daedal00/muse/internal/model"
	"github.com/google/uuid"
)

// Joins is a bitset over {Track, Album, Artist} requesting that nested
// references be populated on a query result.
type Joins uint8

const (
	JoinTrack Joins = 1 << iota
	JoinAlbum
	JoinArtist
)

func (j Joins) Has(flag Joins) bool { return j&flag != 0 }

// Ref identifies a single entity either by its library id or its URI.
// Exactly one of ID/URI should be set; the single-entity lookups
// (QueryTrack, QueryAlbum, QueryArtist, QueryPlaylist) treat a non-nil ID as
// taking precedence.
type Ref struct {
	ID  *uuid.UUID
	URI model.URI
}

// ByID builds a Ref addressed by library id.
func ByID(id uuid.UUID) Ref { return Ref{ID: &id} }

// ByURI builds a Ref addressed by URI.
func ByURI(u model.URI) Ref { return Ref{URI: u} }

// MultiQuery controls a list query: which joins to resolve, an optional
// result limit, and an optional provider-tag filter. The provider filter is
// applied by QueryTracks and QueryPlaylists; QueryAlbums and QueryArtists
// ignore it.
type MultiQuery struct {
	Joins    Joins
	Limit    *int
	Provider *string
}

// ErrNotFound is returned only where the contract calls for a hard error
// rather than an absent-value (option) result; most lookups instead return
// (nil, nil) on a miss, matching the rest of the store's option semantics.
var ErrNotFound = errors.New("library: not found")

// ErrAlreadyExists is returned by Insert when the URI is already present.
var ErrAlreadyExists = errors.New("library: uri already present")

// SearchResult groups substring, case-insensitive matches across all four
// kinds.
type SearchResult struct {
	Tracks    []*model.Track
	Albums    []*model.Album
	Artists   []*model.Artist
	Playlists []*model.Playlist
}

// EventKind discriminates library change notifications.
type EventKind int

const (
	EventTrackAdded EventKind = iota
	EventTrackRemoved
	EventAlbumAdded
	EventAlbumRemoved
	EventArtistAdded
	EventArtistRemoved
	EventPlaylistAdded
	EventPlaylistRemoved
)

// Event is a single library change notification.
// Added events carry the full entity as Entity (opaque to avoid four event
// types); Removed events carry only the URI in URI.
type Event struct {
	Kind   EventKind
	Entity any
	URI    model.URI
}

// TrackStore is the sync-by-URI contract for tracks.
type TrackStore interface {
	QueryTrack(ctx context.Context, ref Ref, joins Joins) (*model.Track, error)
	QueryTracks(ctx context.Context, q MultiQuery) ([]*model.Track, error)
	InsertTrack(ctx context.Context, t *model.Track) error
	SyncTrack(ctx context.Context, t *model.Track) error
	RemoveTrack(ctx context.Context, t *model.Track) error
}

// AlbumStore is the sync-by-URI contract for albums.
type AlbumStore interface {
	QueryAlbum(ctx context.Context, ref Ref, joins Joins) (*model.Album, error)
	QueryAlbums(ctx context.Context, q MultiQuery) ([]*model.Album, error)
	InsertAlbum(ctx context.Context, a *model.Album) error
	SyncAlbum(ctx context.Context, a *model.Album) error
	RemoveAlbum(ctx context.Context, a *model.Album) error
}

// ArtistStore is the sync-by-URI contract for artists.
type ArtistStore interface {
	QueryArtist(ctx context.Context, ref Ref, joins Joins) (*model.Artist, error)
	QueryArtists(ctx context.Context, q MultiQuery) ([]*model.Artist, error)
	InsertArtist(ctx context.Context, a *model.Artist) error
	SyncArtist(ctx context.Context, a *model.Artist) error
	RemoveArtist(ctx context.Context, a *model.Artist) error
}

// PlaylistStore is the sync-by-URI contract for playlists.
type PlaylistStore interface {
	QueryPlaylist(ctx context.Context, ref Ref, joins Joins) (*model.Playlist, error)
	QueryPlaylists(ctx context.Context, q MultiQuery) ([]*model.Playlist, error)
	InsertPlaylist(ctx context.Context, p *model.Playlist) error
	SyncPlaylist(ctx context.Context, p *model.Playlist) error
	RemovePlaylist(ctx context.Context, p *model.Playlist) error
}

// Store is the full library contract: the four per-kind stores plus
// search, a flush signal for stores that defer durability, and a change
// event stream.
type Store interface {
	TrackStore
	AlbumStore
	ArtistStore
	PlaylistStore

	Search(ctx context.Context, query string) (SearchResult, error)
	Flush(ctx context.Context) error
	Observe() <-chan Event
	Close() error
}

// NewNotFoundError wraps a miss with the offending ref for diagnostics; it is
// intentionally not returned from the option-returning query methods
// (those return (nil, nil) on miss), only from code paths that must fail.
func NewNotFoundError(kind model.Kind, ref Ref) error {
	return fmt.Errorf("%s %w: %+v", kind, ErrNotFound, ref)
}
