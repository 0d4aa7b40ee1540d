// Package extension hosts dynamically-registered filters over resolved
// entities and queue submissions. Each extension runs behind its own
// single-consumer command channel so a slow or hung extension cannot block
// any other extension or the rest of the aggregator.
package extension

import (
	"context"
	"fmt"

	"github.com/daedal00/muse/internal/library"
	"github.com/daedal00/muse/internal/model"
)

// Metadata identifies an extension and its version.
type Metadata struct {
	ID      string
	Name    string
	Version string
}

// Extension is the unit the host loads, configures, and chains. The
// in-process object is constructed either by Host.Discover (from a plugin's
// NewExtension entrypoint) or by the caller that passes it to Register; the
// host owns everything from setup() onward.
type Extension interface {
	Metadata() Metadata
	Setup(ctx context.Context, runtime Runtime) error
	OnEnable(ctx context.Context) error
	OnDisable(ctx context.Context) error

	OnAddToQueue(ctx context.Context, tracks []*model.Track) ([]*model.Track, error)
	ResolveTrack(ctx context.Context, track *model.Track) (*model.Track, error)
	ResolveAlbum(ctx context.Context, album *model.Album) (*model.Album, error)
	ResolveArtist(ctx context.Context, artist *model.Artist) (*model.Artist, error)
	ResolvePlaylist(ctx context.Context, playlist *model.Playlist) (*model.Playlist, error)
}

// Runtime is the only way an extension observes the system: query helpers,
// namespaced key/value meta, and thumbnail resolution.
type Runtime interface {
	QueryTrack(ctx context.Context, ref library.Ref, joins library.Joins) (*model.Track, error)
	QueryAlbum(ctx context.Context, ref library.Ref, joins library.Joins) (*model.Album, error)
	QueryArtist(ctx context.Context, ref library.Ref, joins library.Joins) (*model.Artist, error)
	QueryPlaylist(ctx context.Context, ref library.Ref, joins library.Joins) (*model.Playlist, error)
	Search(ctx context.Context, query string) (library.SearchResult, error)

	GetMeta(ctx context.Context, key string) (string, bool, error)
	SetMeta(ctx context.Context, key, value string) error

	ResolveThumbnail(ctx context.Context, thumb model.ThumbnailState) (model.ThumbnailState, error)
}

// FilterError reports which extension failed a filter call and why.
type FilterError struct {
	ExtensionID string
	Filter      string
	Cause       error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("extension %s: filter %s: %v", e.ExtensionID, e.Filter, e.Cause)
}

func (e *FilterError) Unwrap() error { return e.Cause }
