package library

import (
	"context"
	"strings"
	"sync"

	"github.com/daedal00/muse/internal/model"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// MemStore is an in-memory reference implementation of Store. It exists so
// the rest of the core (aggregator, providers, extension host) has something
// real to run against in tests; it is not a production storage engine —
// concrete storage engines are left to external collaborators.
// It matches the sync-by-URI contract exactly: serialized writes,
// concurrent reads, idempotent sync, single added/removed events.
type MemStore struct {
	mu sync.RWMutex

	tracks    map[uuid.UUID]*model.Track
	albums    map[uuid.UUID]*model.Album
	artists   map[uuid.UUID]*model.Artist
	playlists map[uuid.UUID]*model.Playlist

	trackByURI    map[model.URI]uuid.UUID
	albumByURI    map[model.URI]uuid.UUID
	artistByURI   map[model.URI]uuid.UUID
	playlistByURI map[model.URI]uuid.UUID

	events chan Event
}

// NewMemStore constructs an empty in-memory library. The event channel is
// buffered so Insert/Sync/Remove never block on a slow or absent observer.
func NewMemStore() *MemStore {
	return &MemStore{
		tracks:        make(map[uuid.UUID]*model.Track),
		albums:        make(map[uuid.UUID]*model.Album),
		artists:       make(map[uuid.UUID]*model.Artist),
		playlists:     make(map[uuid.UUID]*model.Playlist),
		trackByURI:    make(map[model.URI]uuid.UUID),
		albumByURI:    make(map[model.URI]uuid.UUID),
		artistByURI:   make(map[model.URI]uuid.UUID),
		playlistByURI: make(map[model.URI]uuid.UUID),
		events:        make(chan Event, 256),
	}
}

func (s *MemStore) emit(e Event) {
	select {
	case s.events <- e:
	default:
		// Slow consumer: drop rather than block a write path. Observers that
		// need guaranteed delivery should drain faster than writes arrive.
	}
}

// Observe returns the library's change event stream.
func (s *MemStore) Observe() <-chan Event { return s.events }

// Close releases the event channel. Safe to call once.
func (s *MemStore) Close() error {
	close(s.events)
	return nil
}

// Flush is a no-op for MemStore: there is nothing to durably commit.
func (s *MemStore) Flush(ctx context.Context) error { return nil }

// --- Track ---

func (s *MemStore) QueryTrack(ctx context.Context, ref Ref, joins Joins) (*model.Track, error) {
	s.mu.RLock()
	t, ok := s.lookupTrack(ref)
	if !ok {
		s.mu.RUnlock()
		return nil, nil
	}
	cp := *t
	s.mu.RUnlock()
	if err := s.resolveTrackJoins(ctx, &cp, joins); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *MemStore) lookupTrack(ref Ref) (*model.Track, bool) {
	if ref.ID != nil {
		t, ok := s.tracks[*ref.ID]
		return t, ok
	}
	id, ok := s.trackByURI[ref.URI]
	if !ok {
		return nil, false
	}
	t, ok := s.tracks[id]
	return t, ok
}

func (s *MemStore) QueryTracks(ctx context.Context, q MultiQuery) ([]*model.Track, error) {
	s.mu.RLock()
	var out []*model.Track
	for _, t := range s.tracks {
		if q.Provider != nil && t.Provider != *q.Provider {
			continue
		}
		cp := *t
		out = append(out, &cp)
		if q.Limit != nil && len(out) >= *q.Limit {
			break
		}
	}
	s.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range out {
		t := t
		g.Go(func() error { return s.resolveTrackJoins(gctx, t, q.Joins) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MemStore) resolveTrackJoins(ctx context.Context, t *model.Track, joins Joins) error {
	g, gctx := errgroup.WithContext(ctx)
	if joins.Has(JoinArtist) && t.ArtistURI != "" {
		g.Go(func() error {
			a, err := s.QueryArtist(gctx, ByURI(t.ArtistURI), 0)
			if err != nil {
				return err
			}
			t.Artist = a
			return nil
		})
	}
	if joins.Has(JoinAlbum) && t.AlbumURI != "" {
		g.Go(func() error {
			a, err := s.QueryAlbum(gctx, ByURI(t.AlbumURI), 0)
			if err != nil {
				return err
			}
			t.Album = a
			return nil
		})
	}
	return g.Wait()
}

func (s *MemStore) InsertTrack(ctx context.Context, t *model.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.trackByURI[t.URI]; exists {
		return ErrAlreadyExists
	}
	id := uuid.New()
	cp := *t
	cp.ID = &id
	s.tracks[id] = &cp
	s.trackByURI[t.URI] = id
	s.emit(Event{Kind: EventTrackAdded, Entity: &cp})
	return nil
}

func (s *MemStore) SyncTrack(ctx context.Context, t *model.Track) error {
	s.mu.Lock()
	id, existed := s.trackByURI[t.URI]
	cp := *t
	added := !existed
	if existed {
		cp.ID = &id
	} else {
		id = uuid.New()
		cp.ID = &id
	}
	s.tracks[id] = &cp
	s.trackByURI[t.URI] = id
	s.mu.Unlock()
	if added {
		s.emit(Event{Kind: EventTrackAdded, Entity: &cp})
	}
	return nil
}

func (s *MemStore) RemoveTrack(ctx context.Context, t *model.Track) error {
	s.mu.Lock()
	id, ok := s.trackByURI[t.URI]
	if !ok {
		s.mu.Unlock()
		return nil // not-found on remove is a no-op
	}
	delete(s.tracks, id)
	delete(s.trackByURI, t.URI)
	s.mu.Unlock()
	s.emit(Event{Kind: EventTrackRemoved, URI: t.URI})
	return nil
}

// --- Album ---

func (s *MemStore) QueryAlbum(ctx context.Context, ref Ref, joins Joins) (*model.Album, error) {
	s.mu.RLock()
	a, ok := s.lookupAlbum(ref)
	if !ok {
		s.mu.RUnlock()
		return nil, nil
	}
	cp := *a
	s.mu.RUnlock()
	if err := s.resolveAlbumJoins(ctx, &cp, joins); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *MemStore) lookupAlbum(ref Ref) (*model.Album, bool) {
	if ref.ID != nil {
		a, ok := s.albums[*ref.ID]
		return a, ok
	}
	id, ok := s.albumByURI[ref.URI]
	if !ok {
		return nil, false
	}
	a, ok := s.albums[id]
	return a, ok
}

func (s *MemStore) QueryAlbums(ctx context.Context, q MultiQuery) ([]*model.Album, error) {
	s.mu.RLock()
	var out []*model.Album
	for _, a := range s.albums {
		cp := *a
		out = append(out, &cp)
		if q.Limit != nil && len(out) >= *q.Limit {
			break
		}
	}
	s.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range out {
		a := a
		g.Go(func() error { return s.resolveAlbumJoins(gctx, a, q.Joins) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MemStore) resolveAlbumJoins(ctx context.Context, a *model.Album, joins Joins) error {
	g, gctx := errgroup.WithContext(ctx)
	if joins.Has(JoinArtist) && a.ArtistURI != "" {
		g.Go(func() error {
			ar, err := s.QueryArtist(gctx, ByURI(a.ArtistURI), 0)
			if err != nil {
				return err
			}
			a.Artist = ar
			return nil
		})
	}
	if joins.Has(JoinTrack) && len(a.TrackURIs) > 0 {
		g.Go(func() error {
			tracks := make([]*model.Track, 0, len(a.TrackURIs))
			for _, uri := range a.TrackURIs {
				tr, err := s.QueryTrack(gctx, ByURI(uri), 0)
				if err != nil {
					return err
				}
				if tr != nil {
					tracks = append(tracks, tr)
				}
			}
			a.Tracks = tracks
			return nil
		})
	}
	return g.Wait()
}

func (s *MemStore) InsertAlbum(ctx context.Context, a *model.Album) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.albumByURI[a.URI]; exists {
		return ErrAlreadyExists
	}
	id := uuid.New()
	cp := *a
	cp.ID = &id
	s.albums[id] = &cp
	s.albumByURI[a.URI] = id
	s.emit(Event{Kind: EventAlbumAdded, Entity: &cp})
	return nil
}

func (s *MemStore) SyncAlbum(ctx context.Context, a *model.Album) error {
	s.mu.Lock()
	id, existed := s.albumByURI[a.URI]
	cp := *a
	added := !existed
	if existed {
		cp.ID = &id
	} else {
		id = uuid.New()
		cp.ID = &id
	}
	s.albums[id] = &cp
	s.albumByURI[a.URI] = id
	s.mu.Unlock()
	if added {
		s.emit(Event{Kind: EventAlbumAdded, Entity: &cp})
	}
	return nil
}

func (s *MemStore) RemoveAlbum(ctx context.Context, a *model.Album) error {
	s.mu.Lock()
	id, ok := s.albumByURI[a.URI]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.albums, id)
	delete(s.albumByURI, a.URI)
	s.mu.Unlock()
	s.emit(Event{Kind: EventAlbumRemoved, URI: a.URI})
	return nil
}

// --- Artist ---

func (s *MemStore) QueryArtist(ctx context.Context, ref Ref, joins Joins) (*model.Artist, error) {
	s.mu.RLock()
	a, ok := s.lookupArtist(ref)
	if !ok {
		s.mu.RUnlock()
		return nil, nil
	}
	cp := *a
	s.mu.RUnlock()
	if err := s.resolveArtistJoins(ctx, &cp, joins); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *MemStore) lookupArtist(ref Ref) (*model.Artist, bool) {
	if ref.ID != nil {
		a, ok := s.artists[*ref.ID]
		return a, ok
	}
	id, ok := s.artistByURI[ref.URI]
	if !ok {
		return nil, false
	}
	a, ok := s.artists[id]
	return a, ok
}

func (s *MemStore) QueryArtists(ctx context.Context, q MultiQuery) ([]*model.Artist, error) {
	s.mu.RLock()
	var out []*model.Artist
	for _, a := range s.artists {
		cp := *a
		out = append(out, &cp)
		if q.Limit != nil && len(out) >= *q.Limit {
			break
		}
	}
	s.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range out {
		a := a
		g.Go(func() error { return s.resolveArtistJoins(gctx, a, q.Joins) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MemStore) resolveArtistJoins(ctx context.Context, a *model.Artist, joins Joins) error {
	if !joins.Has(JoinAlbum) || len(a.AlbumURIs) == 0 {
		return nil
	}
	albums := make([]*model.Album, 0, len(a.AlbumURIs))
	for _, uri := range a.AlbumURIs {
		al, err := s.QueryAlbum(ctx, ByURI(uri), 0)
		if err != nil {
			return err
		}
		if al != nil {
			albums = append(albums, al)
		}
	}
	a.Albums = albums
	return nil
}

func (s *MemStore) InsertArtist(ctx context.Context, a *model.Artist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.artistByURI[a.URI]; exists {
		return ErrAlreadyExists
	}
	id := uuid.New()
	cp := *a
	cp.ID = &id
	s.artists[id] = &cp
	s.artistByURI[a.URI] = id
	s.emit(Event{Kind: EventArtistAdded, Entity: &cp})
	return nil
}

func (s *MemStore) SyncArtist(ctx context.Context, a *model.Artist) error {
	s.mu.Lock()
	id, existed := s.artistByURI[a.URI]
	cp := *a
	added := !existed
	if existed {
		cp.ID = &id
	} else {
		id = uuid.New()
		cp.ID = &id
	}
	s.artists[id] = &cp
	s.artistByURI[a.URI] = id
	s.mu.Unlock()
	if added {
		s.emit(Event{Kind: EventArtistAdded, Entity: &cp})
	}
	return nil
}

func (s *MemStore) RemoveArtist(ctx context.Context, a *model.Artist) error {
	s.mu.Lock()
	id, ok := s.artistByURI[a.URI]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.artists, id)
	delete(s.artistByURI, a.URI)
	s.mu.Unlock()
	s.emit(Event{Kind: EventArtistRemoved, URI: a.URI})
	return nil
}

// --- Playlist ---

func (s *MemStore) QueryPlaylist(ctx context.Context, ref Ref, joins Joins) (*model.Playlist, error) {
	s.mu.RLock()
	p, ok := s.lookupPlaylist(ref)
	if !ok {
		s.mu.RUnlock()
		return nil, nil
	}
	cp := *p
	s.mu.RUnlock()
	if err := s.resolvePlaylistJoins(ctx, &cp, joins); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *MemStore) lookupPlaylist(ref Ref) (*model.Playlist, bool) {
	if ref.ID != nil {
		p, ok := s.playlists[*ref.ID]
		return p, ok
	}
	id, ok := s.playlistByURI[ref.URI]
	if !ok {
		return nil, false
	}
	p, ok := s.playlists[id]
	return p, ok
}

func (s *MemStore) QueryPlaylists(ctx context.Context, q MultiQuery) ([]*model.Playlist, error) {
	s.mu.RLock()
	var out []*model.Playlist
	for _, p := range s.playlists {
		if q.Provider != nil && p.Provider != *q.Provider {
			continue
		}
		cp := *p
		out = append(out, &cp)
		if q.Limit != nil && len(out) >= *q.Limit {
			break
		}
	}
	s.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range out {
		p := p
		g.Go(func() error { return s.resolvePlaylistJoins(gctx, p, q.Joins) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MemStore) resolvePlaylistJoins(ctx context.Context, p *model.Playlist, joins Joins) error {
	if !joins.Has(JoinTrack) || len(p.TrackURIs) == 0 {
		return nil
	}
	tracks := make([]*model.Track, 0, len(p.TrackURIs))
	for _, uri := range p.TrackURIs {
		t, err := s.QueryTrack(ctx, ByURI(uri), 0)
		if err != nil {
			return err
		}
		if t != nil {
			tracks = append(tracks, t)
		}
	}
	p.Tracks = tracks
	return nil
}

func (s *MemStore) InsertPlaylist(ctx context.Context, p *model.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.playlistByURI[p.URI]; exists {
		return ErrAlreadyExists
	}
	id := uuid.New()
	cp := *p
	cp.ID = &id
	s.playlists[id] = &cp
	s.playlistByURI[p.URI] = id
	s.emit(Event{Kind: EventPlaylistAdded, Entity: &cp})
	return nil
}

func (s *MemStore) SyncPlaylist(ctx context.Context, p *model.Playlist) error {
	s.mu.Lock()
	id, existed := s.playlistByURI[p.URI]
	cp := *p
	added := !existed
	if existed {
		cp.ID = &id
	} else {
		id = uuid.New()
		cp.ID = &id
	}
	s.playlists[id] = &cp
	s.playlistByURI[p.URI] = id
	s.mu.Unlock()
	if added {
		s.emit(Event{Kind: EventPlaylistAdded, Entity: &cp})
	}
	return nil
}

func (s *MemStore) RemovePlaylist(ctx context.Context, p *model.Playlist) error {
	s.mu.Lock()
	id, ok := s.playlistByURI[p.URI]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.playlists, id)
	delete(s.playlistByURI, p.URI)
	s.mu.Unlock()
	s.emit(Event{Kind: EventPlaylistRemoved, URI: p.URI})
	return nil
}

// --- Search ---

// Search performs a substring, case-insensitive match on title/name across
// all four kinds.
func (s *MemStore) Search(ctx context.Context, query string) (SearchResult, error) {
	q := strings.ToLower(query)
	var res SearchResult

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tracks {
		if strings.Contains(strings.ToLower(t.Title), q) {
			cp := *t
			res.Tracks = append(res.Tracks, &cp)
		}
	}
	for _, a := range s.albums {
		if strings.Contains(strings.ToLower(a.Title), q) {
			cp := *a
			res.Albums = append(res.Albums, &cp)
		}
	}
	for _, a := range s.artists {
		if strings.Contains(strings.ToLower(a.Name), q) {
			cp := *a
			res.Artists = append(res.Artists, &cp)
		}
	}
	for _, p := range s.playlists {
		if strings.Contains(strings.ToLower(p.Title), q) {
			cp := *p
			res.Playlists = append(res.Playlists, &cp)
		}
	}
	return res, nil
}

var _ Store = (*MemStore)(nil)
