package extension

import (
	"context"
	"fmt"

	"github.com/daedal00/muse/internal/library"
	"github.com/daedal00/muse/internal/model"
	"github.com/daedal00/muse/internal/storage"
)

// hostRuntime is the Runtime every registered extension receives, scoped to
// that extension's own namespaced meta collection.
type hostRuntime struct {
	lib  library.Store
	meta storage.Collection
}

func newHostRuntime(ctx context.Context, lib library.Store, opener storage.Opener, extensionID string) (*hostRuntime, error) {
	col, err := opener.Collection(ctx, "extension_meta:"+extensionID)
	if err != nil {
		return nil, fmt.Errorf("extension: opening meta collection for %s: %w", extensionID, err)
	}
	return &hostRuntime{lib: lib, meta: col}, nil
}

func (r *hostRuntime) QueryTrack(ctx context.Context, ref library.Ref, joins library.Joins) (*model.Track, error) {
	return r.lib.QueryTrack(ctx, ref, joins)
}

func (r *hostRuntime) QueryAlbum(ctx context.Context, ref library.Ref, joins library.Joins) (*model.Album, error) {
	return r.lib.QueryAlbum(ctx, ref, joins)
}

func (r *hostRuntime) QueryArtist(ctx context.Context, ref library.Ref, joins library.Joins) (*model.Artist, error) {
	return r.lib.QueryArtist(ctx, ref, joins)
}

func (r *hostRuntime) QueryPlaylist(ctx context.Context, ref library.Ref, joins library.Joins) (*model.Playlist, error) {
	return r.lib.QueryPlaylist(ctx, ref, joins)
}

func (r *hostRuntime) Search(ctx context.Context, query string) (library.SearchResult, error) {
	return r.lib.Search(ctx, query)
}

func (r *hostRuntime) GetMeta(ctx context.Context, key string) (string, bool, error) {
	raw, err := r.meta.Get(ctx, key)
	if err != nil {
		if err == storage.ErrNotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("extension: reading meta %s: %w", key, err)
	}
	return string(raw), true, nil
}

func (r *hostRuntime) SetMeta(ctx context.Context, key, value string) error {
	if err := r.meta.Put(ctx, key, []byte(value)); err != nil {
		return fmt.Errorf("extension: writing meta %s: %w", key, err)
	}
	return nil
}

// ResolveThumbnail is a pass-through today: thumbnails are already resolved
// by the provider that supplied them. It exists on Runtime so extensions
// that add their own artwork source have a seam to call into later.
func (r *hostRuntime) ResolveThumbnail(ctx context.Context, thumb model.ThumbnailState) (model.ThumbnailState, error) {
	return thumb, nil
}

var _ Runtime = (*hostRuntime)(nil)
