package library

import (
	"context"
	"testing"

	"github.com/daedal00/muse/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	defer s.Close()

	track := &model.Track{URI: "local://track/a.mp3", Title: "A Song"}
	require.NoError(t, s.SyncTrack(ctx, track))
	require.NoError(t, s.SyncTrack(ctx, track))

	all, err := s.QueryTracks(ctx, MultiQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSyncPreservesIDAndAppliesLastWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	defer s.Close()

	uri := model.URI("local://track/a.mp3")
	require.NoError(t, s.SyncTrack(ctx, &model.Track{URI: uri, Title: "first"}))
	got, err := s.QueryTrack(ctx, ByURI(uri), 0)
	require.NoError(t, err)
	require.NotNil(t, got.ID)
	firstID := *got.ID

	require.NoError(t, s.SyncTrack(ctx, &model.Track{URI: uri, Title: "second"}))
	got2, err := s.QueryTrack(ctx, ByURI(uri), 0)
	require.NoError(t, err)
	assert.Equal(t, firstID, *got2.ID)
	assert.Equal(t, "second", got2.Title)
}

func TestInsertRejectsDuplicateURI(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	defer s.Close()

	track := &model.Track{URI: "local://track/a.mp3", Title: "A Song"}
	require.NoError(t, s.InsertTrack(ctx, track))
	err := s.InsertTrack(ctx, track)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestQuerySingleByIDMatchesURI(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	defer s.Close()

	uri := model.URI("local://track/a.mp3")
	require.NoError(t, s.InsertTrack(ctx, &model.Track{URI: uri, Title: "A Song"}))

	byURI, err := s.QueryTrack(ctx, ByURI(uri), 0)
	require.NoError(t, err)
	require.NotNil(t, byURI)

	byID, err := s.QueryTrack(ctx, ByID(*byURI.ID), 0)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, uri, byID.URI)
}

func TestRemoveMissingIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	defer s.Close()

	err := s.RemoveTrack(ctx, &model.Track{URI: "local://track/missing.mp3"})
	assert.NoError(t, err)
}

func TestRemoveEmitsSingleEventWithURI(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	defer s.Close()

	uri := model.URI("local://track/a.mp3")
	require.NoError(t, s.InsertTrack(ctx, &model.Track{URI: uri, Title: "A Song"}))
	<-s.Observe() // drain the added event

	require.NoError(t, s.RemoveTrack(ctx, &model.Track{URI: uri}))
	ev := <-s.Observe()
	assert.Equal(t, EventTrackRemoved, ev.Kind)
	assert.Equal(t, uri, ev.URI)
}

func TestInsertEmitsSingleAddedEvent(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	defer s.Close()

	require.NoError(t, s.InsertTrack(ctx, &model.Track{URI: "local://track/a.mp3", Title: "A Song"}))
	ev := <-s.Observe()
	assert.Equal(t, EventTrackAdded, ev.Kind)

	select {
	case unexpected := <-s.Observe():
		t.Fatalf("expected exactly one event, got a second: %+v", unexpected)
	default:
	}
}

func TestJoinsPopulateNestedReferencesOnlyWhenRequested(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	defer s.Close()

	artistURI := model.URI("local://artist/1")
	albumURI := model.URI("local://album/1")
	trackURI := model.URI("local://track/1")

	require.NoError(t, s.InsertArtist(ctx, &model.Artist{URI: artistURI, Name: "Artist"}))
	require.NoError(t, s.InsertAlbum(ctx, &model.Album{URI: albumURI, Title: "Album", ArtistURI: artistURI}))
	require.NoError(t, s.InsertTrack(ctx, &model.Track{
		URI: trackURI, Title: "Track", ArtistURI: artistURI, AlbumURI: albumURI,
	}))

	noJoins, err := s.QueryTrack(ctx, ByURI(trackURI), 0)
	require.NoError(t, err)
	assert.Nil(t, noJoins.Artist)
	assert.Nil(t, noJoins.Album)

	withJoins, err := s.QueryTrack(ctx, ByURI(trackURI), JoinArtist|JoinAlbum)
	require.NoError(t, err)
	require.NotNil(t, withJoins.Artist)
	require.NotNil(t, withJoins.Album)
	assert.Equal(t, "Artist", withJoins.Artist.Name)
	assert.Equal(t, "Album", withJoins.Album.Title)
}

func TestSearchIsSubstringCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	defer s.Close()

	require.NoError(t, s.InsertTrack(ctx, &model.Track{URI: "local://track/1", Title: "Midnight City"}))
	require.NoError(t, s.InsertAlbum(ctx, &model.Album{URI: "local://album/1", Title: "Hurry Up, We're Dreaming"}))

	res, err := s.Search(ctx, "MIDNIGHT")
	require.NoError(t, err)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, "Midnight City", res.Tracks[0].Title)
	assert.Empty(t, res.Albums)
}

func TestQueryMissingReturnsNilNotError(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	defer s.Close()

	got, err := s.QueryTrack(ctx, ByURI("local://track/missing.mp3"), 0)
	assert.NoError(t, err)
	assert.Nil(t, got)
}
