// Package providertest supplies a minimal in-memory Provider double used by
// the aggregator tests. It is not a concrete
// provider implementation in the product sense — it exists purely as a test
// fixture, the way this codebase's repository tests stub out postgres/redis
// behind the same interfaces.
package providertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/daedal00/muse/internal/library"
	"github.com/daedal00/muse/internal/model"
	"github.com/daedal00/muse/internal/provider"
)

// Fake is a configurable in-memory Provider. Zero value is usable; populate
// Tracks/Albums/Artists/Playlists by URI to control what Resolve* returns.
type Fake struct {
	mu sync.Mutex

	Tag    provider.Tag
	Scheme string

	Tracks    map[model.URI]*model.Track
	Albums    map[model.URI]*model.Album
	Artists   map[model.URI]*model.Artist
	Playlists map[model.URI]*model.Playlist

	// ShareHost, if set, makes ResolveShareURL succeed for URLs containing it.
	ShareHost string

	// Authenticated controls AuthState(); New sets it to true.
	Authenticated bool

	// NoAuthNeeded makes AuthState report AuthNoneNeeded regardless of
	// Authenticated, like a local-files provider would.
	NoAuthNeeded bool

	// SyncErr, if set, makes Sync fail (for partial-failure scenarios).
	SyncErr error
	// StreamURLErr, if set, makes StreamURL fail.
	StreamURLErr error

	SyncCalls int
}

// New constructs a Fake with empty maps and Authenticated=true.
func New(tag provider.Tag, scheme string) *Fake {
	return &Fake{
		Tag:           tag,
		Scheme:        scheme,
		Tracks:        map[model.URI]*model.Track{},
		Albums:        map[model.URI]*model.Album{},
		Artists:       map[model.URI]*model.Artist{},
		Playlists:     map[model.URI]*model.Playlist{},
		Authenticated: true,
	}
}

func (f *Fake) Title() string             { return string(f.Tag) }
func (f *Fake) URIScheme() string         { return f.Scheme }
func (f *Fake) ProviderTag() provider.Tag { return f.Tag }

func (f *Fake) Setup(ctx context.Context, creds provider.CredentialStore) error { return nil }

func (f *Fake) AuthState(ctx context.Context) (provider.AuthState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NoAuthNeeded {
		return provider.AuthState{Kind: provider.AuthNoneNeeded}, nil
	}
	if f.Authenticated {
		return provider.AuthState{Kind: provider.AuthAuthenticated}, nil
	}
	return provider.AuthState{Kind: provider.AuthNeedsPassword}, nil
}

func (f *Fake) Authenticate(ctx context.Context, creds provider.Credentials, store provider.CredentialStore) error {
	f.mu.Lock()
	f.Authenticated = true
	f.mu.Unlock()
	return nil
}

func (f *Fake) Sync(ctx context.Context, lib library.Store) (provider.SyncCounts, error) {
	f.mu.Lock()
	f.SyncCalls++
	if f.SyncErr != nil {
		err := f.SyncErr
		f.mu.Unlock()
		return provider.SyncCounts{}, err
	}
	tracks := make([]*model.Track, 0, len(f.Tracks))
	for _, t := range f.Tracks {
		tracks = append(tracks, t)
	}
	albums := make([]*model.Album, 0, len(f.Albums))
	for _, a := range f.Albums {
		albums = append(albums, a)
	}
	artists := make([]*model.Artist, 0, len(f.Artists))
	for _, a := range f.Artists {
		artists = append(artists, a)
	}
	playlists := make([]*model.Playlist, 0, len(f.Playlists))
	for _, p := range f.Playlists {
		playlists = append(playlists, p)
	}
	f.mu.Unlock()

	for _, a := range artists {
		if err := lib.SyncArtist(ctx, a); err != nil {
			return provider.SyncCounts{}, err
		}
	}
	for _, a := range albums {
		if err := lib.SyncAlbum(ctx, a); err != nil {
			return provider.SyncCounts{}, err
		}
	}
	for _, t := range tracks {
		if err := lib.SyncTrack(ctx, t); err != nil {
			return provider.SyncCounts{}, err
		}
	}
	for _, p := range playlists {
		if err := lib.SyncPlaylist(ctx, p); err != nil {
			return provider.SyncCounts{}, err
		}
	}
	return provider.SyncCounts{
		Tracks: len(tracks), Albums: len(albums), Artists: len(artists), Playlists: len(playlists),
	}, nil
}

func (f *Fake) Root(ctx context.Context) (provider.Folder, error) { return provider.Folder{}, nil }
func (f *Fake) Navigate(ctx context.Context, path string) (provider.Folder, error) {
	return provider.Folder{}, nil
}
func (f *Fake) Search(ctx context.Context, query string) ([]provider.Item, error) { return nil, nil }

func (f *Fake) ResolveTrack(ctx context.Context, uri model.URI) (*model.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.Tracks[uri]; ok {
		return t, nil
	}
	return nil, nil
}

func (f *Fake) ResolveAlbum(ctx context.Context, uri model.URI) (*model.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.Albums[uri]; ok {
		return a, nil
	}
	return nil, nil
}

func (f *Fake) ResolveArtist(ctx context.Context, uri model.URI) (*model.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.Artists[uri]; ok {
		return a, nil
	}
	return nil, nil
}

func (f *Fake) ResolvePlaylist(ctx context.Context, uri model.URI) (*model.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.Playlists[uri]; ok {
		return p, nil
	}
	return nil, nil
}

func (f *Fake) StreamURL(ctx context.Context, track *model.Track) (string, error) {
	if f.StreamURLErr != nil {
		return "", f.StreamURLErr
	}
	return fmt.Sprintf("https://stream.fake/%s", track.URI), nil
}

func (f *Fake) CoverArt(ctx context.Context, identity model.Identifiable) (*provider.CoverArt, error) {
	return nil, nil
}

func (f *Fake) ResolveShareURL(ctx context.Context, rawURL string) (*model.URI, error) {
	if f.ShareHost == "" || !strings.Contains(rawURL, f.ShareHost) {
		return nil, nil
	}
	u := model.URI(f.Scheme + "://shared/" + strings.TrimPrefix(rawURL, "https://"+f.ShareHost+"/"))
	return &u, nil
}

var _ provider.Provider = (*Fake)(nil)
