// Package aggregator is the application layer: it holds the
// library, the registered providers, the player registry, the cover-art
// cache, and the sync-state broadcaster, and implements the library-
// fallthrough query surface, share-URL reverse resolution, and the
// periodic sync loop every client-facing frontend (HTTP, MPD, GUI — all
// out of scope here) is built on top of.
package aggregator

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/daedal00/muse/internal/cache"
	"github.com/daedal00/muse/internal/extension"
	"github.com/daedal00/muse/internal/library"
	"github.com/daedal00/muse/internal/model"
	"github.com/daedal00/muse/internal/player"
	"github.com/daedal00/muse/internal/provider"
)

// defaultSyncInterval is the sync loop tick period when the caller does
// not override it.
const defaultSyncInterval = 5 * time.Minute

// DefaultPlayerName is the name Player() treats, like "", as a request for
// the current default player (the first one AddPlayer registered, or the
// last one added with isDefault).
const DefaultPlayerName = "default"

// Aggregator is the near-global application value: constructed once at
// startup, shared by reference with every player, provider, and frontend,
// and alive until shutdown.
type Aggregator struct {
	lib  library.Store
	host *extension.Host
	art  *cache.CoverArt

	mu                sync.RWMutex
	providers         []provider.Provider
	providersByScheme map[string]provider.Provider
	providersByTag    map[provider.Tag]provider.Provider

	playersMu     sync.Mutex
	players       map[string]*player.Composition
	defaultPlayer string

	syncInterval time.Duration
	broadcaster  *syncBroadcaster

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs an Aggregator over an already-open library store. host and
// art are optional (nil disables extension filtering / cover-art caching,
// respectively) so tests can exercise the aggregator without the full
// ambient stack.
func New(lib library.Store, host *extension.Host, art *cache.CoverArt, syncInterval time.Duration) *Aggregator {
	if syncInterval <= 0 {
		syncInterval = defaultSyncInterval
	}
	return &Aggregator{
		lib:               lib,
		host:              host,
		art:               art,
		providersByScheme: make(map[string]provider.Provider),
		providersByTag:    make(map[provider.Tag]provider.Provider),
		players:           make(map[string]*player.Composition),
		syncInterval:      syncInterval,
		broadcaster:       newSyncBroadcaster(),
	}
}

// RegisterProvider adds p to the provider list, in registration order.
// Order matters: ResolveShareURL walks providers in registration order.
func (a *Aggregator) RegisterProvider(p provider.Provider) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.providers = append(a.providers, p)
	a.providersByScheme[p.URIScheme()] = p
	a.providersByTag[p.ProviderTag()] = p
}

func (a *Aggregator) providerByScheme(scheme string) (provider.Provider, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.providersByScheme[scheme]
	return p, ok
}

func (a *Aggregator) providerByTag(tag string) (provider.Provider, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.providersByTag[provider.Tag(tag)]
	return p, ok
}

// Providers returns the registered providers in registration order. Callers
// must not mutate the returned slice.
func (a *Aggregator) Providers() []provider.Provider {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]provider.Provider, len(a.providers))
	copy(out, a.providers)
	return out
}

// Library exposes the underlying store for callers that need direct access
// (e.g. an HTTP frontend's remove-from-library operation).
func (a *Aggregator) Library() library.Store { return a.lib }

// --- Query fallthrough ---

// QueryTrack implements the library-then-provider fallthrough for
// tracks: a library hit wins; on a miss addressed by URI, the provider whose
// scheme matches resolves it; a miss addressed by id returns none, since
// only library entities carry ids.
func (a *Aggregator) QueryTrack(ctx context.Context, ref library.Ref, joins library.Joins) (*model.Track, error) {
	t, err := a.lib.QueryTrack(ctx, ref, joins)
	if err != nil {
		return nil, fmt.Errorf("aggregator: querying track: %w", err)
	}
	if t != nil {
		return a.filterTrack(ctx, t), nil
	}
	if ref.ID != nil {
		return nil, nil
	}
	p, ok, err := a.resolveProviderForURI(ref.URI)
	if err != nil || !ok {
		return nil, err
	}
	t, err = p.ResolveTrack(ctx, ref.URI)
	if err != nil {
		return nil, &provider.RemoteError{Tag: p.ProviderTag(), Cause: err}
	}
	if t == nil {
		return nil, nil
	}
	return a.filterTrack(ctx, t), nil
}

// QueryAlbum is QueryTrack's album counterpart.
func (a *Aggregator) QueryAlbum(ctx context.Context, ref library.Ref, joins library.Joins) (*model.Album, error) {
	al, err := a.lib.QueryAlbum(ctx, ref, joins)
	if err != nil {
		return nil, fmt.Errorf("aggregator: querying album: %w", err)
	}
	if al != nil {
		return a.filterAlbum(ctx, al), nil
	}
	if ref.ID != nil {
		return nil, nil
	}
	p, ok, err := a.resolveProviderForURI(ref.URI)
	if err != nil || !ok {
		return nil, err
	}
	al, err = p.ResolveAlbum(ctx, ref.URI)
	if err != nil {
		return nil, &provider.RemoteError{Tag: p.ProviderTag(), Cause: err}
	}
	if al == nil {
		return nil, nil
	}
	return a.filterAlbum(ctx, al), nil
}

// QueryArtist is QueryTrack's artist counterpart.
func (a *Aggregator) QueryArtist(ctx context.Context, ref library.Ref, joins library.Joins) (*model.Artist, error) {
	ar, err := a.lib.QueryArtist(ctx, ref, joins)
	if err != nil {
		return nil, fmt.Errorf("aggregator: querying artist: %w", err)
	}
	if ar != nil {
		return a.filterArtist(ctx, ar), nil
	}
	if ref.ID != nil {
		return nil, nil
	}
	p, ok, err := a.resolveProviderForURI(ref.URI)
	if err != nil || !ok {
		return nil, err
	}
	ar, err = p.ResolveArtist(ctx, ref.URI)
	if err != nil {
		return nil, &provider.RemoteError{Tag: p.ProviderTag(), Cause: err}
	}
	if ar == nil {
		return nil, nil
	}
	return a.filterArtist(ctx, ar), nil
}

// QueryPlaylist is QueryTrack's playlist counterpart.
func (a *Aggregator) QueryPlaylist(ctx context.Context, ref library.Ref, joins library.Joins) (*model.Playlist, error) {
	pl, err := a.lib.QueryPlaylist(ctx, ref, joins)
	if err != nil {
		return nil, fmt.Errorf("aggregator: querying playlist: %w", err)
	}
	if pl != nil {
		return a.filterPlaylist(ctx, pl), nil
	}
	if ref.ID != nil {
		return nil, nil
	}
	p, ok, err := a.resolveProviderForURI(ref.URI)
	if err != nil || !ok {
		return nil, err
	}
	pl, err = p.ResolvePlaylist(ctx, ref.URI)
	if err != nil {
		return nil, &provider.RemoteError{Tag: p.ProviderTag(), Cause: err}
	}
	if pl == nil {
		return nil, nil
	}
	return a.filterPlaylist(ctx, pl), nil
}

// resolveProviderForURI parses ref's scheme and looks up the matching
// provider. A malformed/empty scheme is InvalidUri (propagated); a
// well-formed scheme with no registered provider is treated as "no result"
// ("return its result, or none"), not as an error -- this favors option
// semantics over a stricter invalid-uri reading.
func (a *Aggregator) resolveProviderForURI(uri model.URI) (provider.Provider, bool, error) {
	if uri == "" {
		return nil, false, nil
	}
	scheme := uri.Scheme()
	if scheme == "" {
		return nil, false, &provider.InvalidURIError{URI: uri, Reason: "missing scheme"}
	}
	p, ok := a.providerByScheme(scheme)
	if !ok {
		return nil, false, nil
	}
	return p, true, nil
}

func (a *Aggregator) filterTrack(ctx context.Context, t *model.Track) *model.Track {
	if a.host == nil {
		return t
	}
	return a.host.FilterResolveTrack(ctx, t)
}

func (a *Aggregator) filterAlbum(ctx context.Context, al *model.Album) *model.Album {
	if a.host == nil {
		return al
	}
	return a.host.FilterResolveAlbum(ctx, al)
}

func (a *Aggregator) filterArtist(ctx context.Context, ar *model.Artist) *model.Artist {
	if a.host == nil {
		return ar
	}
	return a.host.FilterResolveArtist(ctx, ar)
}

func (a *Aggregator) filterPlaylist(ctx context.Context, pl *model.Playlist) *model.Playlist {
	if a.host == nil {
		return pl
	}
	return a.host.FilterResolvePlaylist(ctx, pl)
}

// --- Share URL resolution ---

// ResolveShareURL walks providers in registration order, returning the
// first non-nil match. rawURL is validated as a URL only to give a better
// error message; providers receive the raw string, matching their own
// host-matching logic.
func (a *Aggregator) ResolveShareURL(ctx context.Context, rawURL string) (*model.URI, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return nil, fmt.Errorf("aggregator: invalid share url: %w", err)
	}
	for _, p := range a.Providers() {
		uri, err := p.ResolveShareURL(ctx, rawURL)
		if err != nil {
			return nil, &provider.RemoteError{Tag: p.ProviderTag(), Cause: err}
		}
		if uri != nil {
			return uri, nil
		}
	}
	return nil, nil
}

// --- Stream URL / cover art ---

// StreamURL looks up the provider by track.Provider and delegates, with no
// fallback. It also satisfies player.StreamResolver, so an *Aggregator can
// be handed directly to player.New.
func (a *Aggregator) StreamURL(ctx context.Context, track *model.Track) (string, error) {
	p, ok := a.providerByTag(track.Provider)
	if !ok {
		return "", &provider.InvalidURIError{URI: track.URI, Reason: fmt.Sprintf("no provider registered for tag %q", track.Provider)}
	}
	streamURL, err := p.StreamURL(ctx, track)
	if err != nil {
		return "", &provider.RemoteError{Tag: p.ProviderTag(), Cause: err}
	}
	return streamURL, nil
}

// CoverArt delegates to the owning provider through the content-addressed
// cache; any fetch failure is treated as a
// non-error "no cover available" at this boundary rather than propagated.
func (a *Aggregator) CoverArt(ctx context.Context, identity model.Identifiable, sourceURL string, tag provider.Tag) *provider.CoverArt {
	if a.art == nil {
		return a.fetchCoverArt(ctx, identity, tag)
	}
	art, err := a.art.Get(ctx, sourceURL, func(ctx context.Context) (*provider.CoverArt, error) {
		return a.fetchCoverArt(ctx, identity, tag), nil
	})
	if err != nil {
		log.Printf("[AGGREGATOR] cover art fetch failed for %s: %v", sourceURL, err)
		return nil
	}
	return art
}

func (a *Aggregator) fetchCoverArt(ctx context.Context, identity model.Identifiable, tag provider.Tag) *provider.CoverArt {
	p, ok := a.providerByTag(string(tag))
	if !ok {
		return nil
	}
	art, err := p.CoverArt(ctx, identity)
	if err != nil {
		log.Printf("[AGGREGATOR] cover art fetch failed via %s: %v", tag, err)
		return nil
	}
	return art
}

// --- Player registry ---

// AddPlayer registers a composition under name, optionally also as the
// default player (lookup by "default" or an empty name).
func (a *Aggregator) AddPlayer(name string, comp *player.Composition, isDefault bool) {
	a.playersMu.Lock()
	defer a.playersMu.Unlock()
	a.players[name] = comp
	if isDefault || a.defaultPlayer == "" {
		a.defaultPlayer = name
	}
}

// RemovePlayer closes and unregisters the named player.
func (a *Aggregator) RemovePlayer(name string) error {
	a.playersMu.Lock()
	comp, ok := a.players[name]
	if ok {
		delete(a.players, name)
		if a.defaultPlayer == name {
			a.defaultPlayer = ""
		}
	}
	a.playersMu.Unlock()
	if !ok {
		return nil
	}
	return comp.Close()
}

// Player looks up a registered player by name; "" or "default" resolves to
// the current default player.
func (a *Aggregator) Player(name string) (*player.Composition, bool) {
	a.playersMu.Lock()
	defer a.playersMu.Unlock()
	if name == "" || name == DefaultPlayerName {
		name = a.defaultPlayer
	}
	comp, ok := a.players[name]
	return comp, ok
}

// Players lists every registered player name.
func (a *Aggregator) Players() []string {
	a.playersMu.Lock()
	defer a.playersMu.Unlock()
	names := make([]string, 0, len(a.players))
	for n := range a.players {
		names = append(names, n)
	}
	return names
}

// EnqueueTracks runs tracks through the extension host's on_add_to_queue
// filter chain (fail-closed) and then queues the result on the named
// player.
func (a *Aggregator) EnqueueTracks(ctx context.Context, playerName string, tracks []*model.Track) error {
	comp, ok := a.Player(playerName)
	if !ok {
		return fmt.Errorf("aggregator: unknown player %q", playerName)
	}
	if a.host != nil {
		filtered, err := a.host.FilterAddToQueue(ctx, tracks)
		if err != nil {
			return fmt.Errorf("aggregator: queue filter chain: %w", err)
		}
		tracks = filtered
	}
	comp.Queue().QueueMultiple(tracks)
	return nil
}

var _ player.StreamResolver = (*Aggregator)(nil)
