// Package model defines the entity value types shared by every provider,
// the library store, and the player subsystem: tracks, albums, artists,
// and playlists, all addressed by URI and (once persisted) a library id.
package model

import (
	"strings"

	"github.com/google/uuid"
)

// URI is a provider-addressed identity string of the form
// "<scheme>://<opaque>". The scheme names the provider that owns the entity;
// "internal" is reserved for library-only entities with no provider origin.
type URI string

// Scheme returns the scheme portion of the URI, or "" if the URI is malformed
// (no "://" separator).
func (u URI) Scheme() string {
	s := string(u)
	idx := strings.Index(s, "://")
	if idx < 0 {
		return ""
	}
	return s[:idx]
}

// Valid reports whether the URI has a non-empty scheme and opaque part.
func (u URI) Valid() bool {
	s := string(u)
	idx := strings.Index(s, "://")
	return idx > 0 && idx+3 < len(s)
}

// Kind discriminates the four entity kinds the library understands.
type Kind int

const (
	KindTrack Kind = iota
	KindAlbum
	KindArtist
	KindPlaylist
)

func (k Kind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindAlbum:
		return "album"
	case KindArtist:
		return "artist"
	case KindPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// Identifiable is the capability every entity provides: a way to report
// whatever identity it currently has, library id if assigned, URI always.
type Identifiable interface {
	Identity() (id *uuid.UUID, uri URI)
}

// ThumbnailState models the three-way union: no thumbnail, a remote
// URL, or embedded bytes with a MIME type.
type ThumbnailState struct {
	URL  string
	Data []byte
	MIME string
}

// None reports whether no thumbnail information is present.
func (t ThumbnailState) None() bool {
	return t.URL == "" && len(t.Data) == 0
}

// Rating models the four-way union: absent, liked, disliked, or an
// explicit star count.
type Rating struct {
	Kind  RatingKind
	Stars int
}

type RatingKind int

const (
	RatingNone RatingKind = iota
	RatingLike
	RatingDislike
	RatingStars
)

// MetaValue is the free-form meta map's value union: string, int, float, or
// bool. Exactly one field is meaningful, discriminated by Kind.
type MetaValue struct {
	Kind  MetaKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
}

type MetaKind int

const (
	MetaString MetaKind = iota
	MetaInt
	MetaFloat
	MetaBool
)

func MetaStr(s string) MetaValue      { return MetaValue{Kind: MetaString, Str: s} }
func MetaInt64(i int64) MetaValue     { return MetaValue{Kind: MetaInt, Int: i} }
func MetaFloat64(f float64) MetaValue { return MetaValue{Kind: MetaFloat, Float: f} }
func MetaBoolV(b bool) MetaValue      { return MetaValue{Kind: MetaBool, Bool: b} }

// Meta is a namespaced free-form attribute map. Providers own the keys they
// write; keys are conventionally "<provider>.<name>".
type Meta map[string]MetaValue

// Track is the atomic playable unit. ArtistURI/AlbumURI are the persisted
// cross-references; Artist/Album are populated only when a library query
// requests the corresponding join (see "cyclic references" below).
type Track struct {
	ID        *uuid.UUID
	URI       URI
	Title     string
	ArtistURI URI
	AlbumURI  URI
	Artist    *Artist
	Album     *Album
	Provider  string
	Duration  *int // milliseconds; nil if unknown
	Thumb     ThumbnailState
	Explicit  bool
	Rating    Rating
	Track     int // position within album/disc, 1-based; 0 if unknown
	Disc      int
	Meta      Meta
}

func (t *Track) Identity() (*uuid.UUID, URI) { return t.ID, t.URI }

// Album is an ordered collection of tracks. TrackURIs is the persisted
// ordering; Tracks is populated only when a library query requests the
// track join.
type Album struct {
	ID        *uuid.UUID
	URI       URI
	Title     string
	ArtistURI URI
	Artist    *Artist
	TrackURIs []URI
	Tracks    []*Track
	Thumb     ThumbnailState
	Explicit  bool
	Meta      Meta
}

func (a *Album) Identity() (*uuid.UUID, URI) { return a.ID, a.URI }

// Artist publishes albums and playlists. AlbumURIs is the persisted
// ordering; Albums is populated only when a library query requests the
// album join. Playlists is outside the library's join bitset (joins only
// covers TRACK/ALBUM/ARTIST) and is therefore only ever what a provider
// supplied directly.
type Artist struct {
	ID        *uuid.UUID
	URI       URI
	Name      string
	AlbumURIs []URI
	Albums    []*Album
	Playlists []*Playlist
	Image     ThumbnailState
	Meta      Meta
}

func (a *Artist) Identity() (*uuid.UUID, URI) { return a.ID, a.URI }

// Playlist is an ordered, provider-tagged track list. TrackURIs is the
// persisted ordering; Tracks is populated only when a library query
// requests the track join.
type Playlist struct {
	ID        *uuid.UUID
	URI       URI
	Title     string
	TrackURIs []URI
	Tracks    []*Track
	Provider  string
	Meta      Meta
}

func (p *Playlist) Identity() (*uuid.UUID, URI) { return p.ID, p.URI }

// Flat strips nested references down to URIs only, matching the "flat view"
// conversion. Callers that only need identity (cursor encoding, cache
// keys, provider dispatch) should use this rather than holding a full graph.
func (t *Track) Flat() *Track {
	if t == nil {
		return nil
	}
	flat := *t
	flat.Artist = nil
	flat.Album = nil
	return &flat
}

// Flat strips the album's joined artist/track references down to URIs only.
func (a *Album) Flat() *Album {
	if a == nil {
		return nil
	}
	flat := *a
	flat.Artist = nil
	flat.Tracks = nil
	return &flat
}

// Flat strips the artist's joined albums down to URIs only. Playlists have no
// URI-list counterpart on Artist, so they are dropped entirely.
func (a *Artist) Flat() *Artist {
	if a == nil {
		return nil
	}
	flat := *a
	flat.Albums = nil
	flat.Playlists = nil
	return &flat
}

// Flat strips the playlist's joined tracks down to URIs only.
func (p *Playlist) Flat() *Playlist {
	if p == nil {
		return nil
	}
	flat := *p
	flat.Tracks = nil
	return &flat
}
