package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestURIScheme(t *testing.T) {
	assert.Equal(t, "local", URI("local://track/a.mp3").Scheme())
	assert.Equal(t, "prov", URI("prov://artist/42").Scheme())
	assert.Equal(t, "", URI("not-a-uri").Scheme())
}

func TestURIValid(t *testing.T) {
	assert.True(t, URI("local://track/a.mp3").Valid())
	assert.False(t, URI("local://").Valid())
	assert.False(t, URI("garbage").Valid())
}

func TestThumbnailStateNone(t *testing.T) {
	assert.True(t, ThumbnailState{}.None())
	assert.False(t, ThumbnailState{URL: "http://x"}.None())
	assert.False(t, ThumbnailState{Data: []byte{1}, MIME: "image/png"}.None())
}

func TestTrackFlatStripsNestedRefs(t *testing.T) {
	id := uuid.New()
	track := &Track{
		ID:     &id,
		URI:    "local://track/a.mp3",
		Title:  "A Song",
		Artist: &Artist{Name: "An Artist"},
		Album:  &Album{Title: "An Album"},
	}

	flat := track.Flat()
	assert.Nil(t, flat.Artist)
	assert.Nil(t, flat.Album)
	assert.Equal(t, track.Title, flat.Title)
	assert.Equal(t, track.URI, flat.URI)
	// original is untouched
	assert.NotNil(t, track.Artist)
}

func TestAlbumFlatStripsJoinedRefs(t *testing.T) {
	album := &Album{
		URI:       "local://album/1",
		Title:     "An Album",
		ArtistURI: "local://artist/1",
		Artist:    &Artist{Name: "An Artist"},
		TrackURIs: []URI{"local://track/1"},
		Tracks:    []*Track{{Title: "A Song"}},
	}

	flat := album.Flat()
	assert.Nil(t, flat.Artist)
	assert.Nil(t, flat.Tracks)
	assert.Equal(t, album.ArtistURI, flat.ArtistURI)
	assert.Equal(t, album.TrackURIs, flat.TrackURIs)
}

func TestIdentifiableCapability(t *testing.T) {
	var e Identifiable = &Track{URI: "local://track/a.mp3"}
	id, uri := e.Identity()
	assert.Nil(t, id)
	assert.Equal(t, URI("local://track/a.mp3"), uri)
}
